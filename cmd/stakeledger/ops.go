// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"fmt"

	cli "gopkg.in/urfave/cli.v1"

	"github.com/vechain/stakeledger/builtin"
	"github.com/vechain/stakeledger/builtin/pools"
	"github.com/vechain/stakeledger/xenv"
)

var stakerCommands = []cli.Command{
	{
		Name:   "approve",
		Usage:  "allow an address to pull tokens of the caller",
		Flags:  txFlags(addressFlag, amountFlag),
		Action: txAction(approveAction),
	},
	{
		Name:   "transfer",
		Usage:  "transfer tokens of the caller",
		Flags:  txFlags(addressFlag, amountFlag),
		Action: txAction(transferAction),
	},
	{
		Name:   "stake",
		Usage:  "register the caller as a staker",
		Flags:  txFlags(rewardAddressFlag, operationalFlag, amountFlag, withPoolFlag, commissionFlag),
		Action: txAction(stakeAction),
	},
	{
		Name:   "increase-stake",
		Usage:  "add to the own stake of a staker",
		Flags:  txFlags(stakerFlag, amountFlag),
		Action: txAction(increaseStakeAction),
	},
	{
		Name:   "claim-rewards",
		Usage:  "pay the own rewards of a staker to its reward address",
		Flags:  txFlags(stakerFlag),
		Action: txAction(claimRewardsAction),
	},
	{
		Name:  "unstake-intent",
		Usage: "start the exit window of the caller",
		Flags: txFlags(),
		Action: txAction(func(_ *cli.Context, c *builtin.Contracts, env *xenv.Environment) (any, error) {
			return c.Staking.UnstakeIntent(env)
		}),
	},
	{
		Name:   "unstake-action",
		Usage:  "close a staker whose exit window has passed",
		Flags:  txFlags(stakerFlag),
		Action: txAction(unstakeActionAction),
	},
	{
		Name:   "change-reward-address",
		Usage:  "change the reward address of the caller",
		Flags:  txFlags(addressFlag),
		Action: txAction(changeRewardAddressAction),
	},
	{
		Name:   "change-operational-address",
		Usage:  "change the operational address of the caller",
		Flags:  txFlags(addressFlag),
		Action: txAction(changeOperationalAddressAction),
	},
	{
		Name:   "open-pool",
		Usage:  "open a delegation pool for the caller",
		Flags:  txFlags(commissionFlag),
		Action: txAction(openPoolAction),
	},
	{
		Name:   "update-commission",
		Usage:  "change the commission of the pool of the caller",
		Flags:  txFlags(commissionFlag),
		Action: txAction(updateCommissionAction),
	},
}

var adminCommands = []cli.Command{
	{
		Name:  "update-index",
		Usage: "pull due rewards into the global index",
		Flags: txFlags(),
		Action: txAction(func(_ *cli.Context, c *builtin.Contracts, env *xenv.Environment) (any, error) {
			return c.Staking.UpdateGlobalIndexIfNeeded(env)
		}),
	},
	{
		Name:  "pause",
		Usage: "halt every state changing operation",
		Flags: txFlags(),
		Action: txAction(func(_ *cli.Context, c *builtin.Contracts, env *xenv.Environment) (any, error) {
			return nil, c.Staking.Pause(env)
		}),
	},
	{
		Name:  "unpause",
		Usage: "resume operations",
		Flags: txFlags(),
		Action: txAction(func(_ *cli.Context, c *builtin.Contracts, env *xenv.Environment) (any, error) {
			return nil, c.Staking.Unpause(env)
		}),
	},
	{
		Name:  "set-min-stake",
		Usage: "change the minimum own stake",
		Flags: txFlags(amountFlag),
		Action: txAction(func(ctx *cli.Context, c *builtin.Contracts, env *xenv.Environment) (any, error) {
			amount, err := parseAmountFlag(ctx, amountFlag.Name)
			if err != nil {
				return nil, err
			}
			return nil, c.Staking.SetMinStake(env, amount)
		}),
	},
	{
		Name:  "set-exit-wait-window",
		Usage: "change the exit wait window",
		Flags: txFlags(windowFlag),
		Action: txAction(func(ctx *cli.Context, c *builtin.Contracts, env *xenv.Environment) (any, error) {
			if !ctx.IsSet(windowFlag.Name) {
				return nil, fmt.Errorf("-%v is required", windowFlag.Name)
			}
			return nil, c.Staking.SetExitWaitWindow(env, ctx.Uint64(windowFlag.Name))
		}),
	},
	{
		Name:  "set-reward-supplier",
		Usage: "change the contract rewards are pulled from",
		Flags: txFlags(addressFlag),
		Action: txAction(func(ctx *cli.Context, c *builtin.Contracts, env *xenv.Environment) (any, error) {
			addr, err := parseAddressFlag(ctx, addressFlag.Name)
			if err != nil {
				return nil, err
			}
			return nil, c.Staking.SetRewardSupplier(env, addr)
		}),
	},
}

var poolCommand = cli.Command{
	Name:  "pool",
	Usage: "operations of delegation pool members",
	Subcommands: []cli.Command{
		{
			Name:   "enter",
			Usage:  "delegate tokens of the caller to a pool",
			Flags:  txFlags(poolFlag, amountFlag),
			Action: txAction(poolEnterAction),
		},
		{
			Name:   "exit-intent",
			Usage:  "request to take delegated tokens out of a pool",
			Flags:  txFlags(poolFlag, amountFlag),
			Action: txAction(poolExitIntentAction),
		},
		{
			Name:  "exit-action",
			Usage: "collect tokens whose exit window has passed",
			Flags: txFlags(poolFlag),
			Action: txAction(withPool(func(_ *cli.Context, p *pools.Pool, env *xenv.Environment) (any, error) {
				return p.ExitAction(env)
			})),
		},
		{
			Name:   "switch",
			Usage:  "move pending tokens into another pool",
			Flags:  txFlags(poolFlag, toPoolFlag, amountFlag),
			Action: txAction(poolSwitchAction),
		},
		{
			Name:  "claim",
			Usage: "pay the pool rewards of the caller",
			Flags: txFlags(poolFlag),
			Action: txAction(withPool(func(_ *cli.Context, p *pools.Pool, env *xenv.Environment) (any, error) {
				return p.ClaimRewards(env)
			})),
		},
		{
			Name:  "withdraw",
			Usage: "take everything out of a pool whose staker has left",
			Flags: txFlags(poolFlag),
			Action: txAction(withPool(func(_ *cli.Context, p *pools.Pool, env *xenv.Environment) (any, error) {
				return p.Withdraw(env)
			})),
		},
	},
}

func approveAction(ctx *cli.Context, c *builtin.Contracts, env *xenv.Environment) (any, error) {
	spender, err := parseAddressFlag(ctx, addressFlag.Name)
	if err != nil {
		return nil, err
	}
	amount, err := parseAmountFlag(ctx, amountFlag.Name)
	if err != nil {
		return nil, err
	}
	return nil, c.Token.Approve(env, spender, amount)
}

func transferAction(ctx *cli.Context, c *builtin.Contracts, env *xenv.Environment) (any, error) {
	to, err := parseAddressFlag(ctx, addressFlag.Name)
	if err != nil {
		return nil, err
	}
	amount, err := parseAmountFlag(ctx, amountFlag.Name)
	if err != nil {
		return nil, err
	}
	return nil, c.Token.Transfer(env, to, amount)
}

func stakeAction(ctx *cli.Context, c *builtin.Contracts, env *xenv.Environment) (any, error) {
	rewardAddress, err := parseAddressFlag(ctx, rewardAddressFlag.Name)
	if err != nil {
		return nil, err
	}
	operational, err := parseAddressFlag(ctx, operationalFlag.Name)
	if err != nil {
		return nil, err
	}
	amount, err := parseAmountFlag(ctx, amountFlag.Name)
	if err != nil {
		return nil, err
	}
	commission, err := commissionFromFlag(ctx)
	if err != nil {
		return nil, err
	}
	withPool := ctx.Bool(withPoolFlag.Name)
	if err := c.Staking.Stake(env, rewardAddress, operational, amount, withPool, commission); err != nil {
		return nil, err
	}
	if !withPool {
		return nil, nil
	}
	info, err := c.Staking.StakerInfo(env.Caller())
	if err != nil {
		return nil, err
	}
	return info.PoolInfo.PoolContract, nil
}

func increaseStakeAction(ctx *cli.Context, c *builtin.Contracts, env *xenv.Environment) (any, error) {
	staker, err := parseAddressFlag(ctx, stakerFlag.Name)
	if err != nil {
		return nil, err
	}
	amount, err := parseAmountFlag(ctx, amountFlag.Name)
	if err != nil {
		return nil, err
	}
	return c.Staking.IncreaseStake(env, staker, amount)
}

func claimRewardsAction(ctx *cli.Context, c *builtin.Contracts, env *xenv.Environment) (any, error) {
	staker, err := parseAddressFlag(ctx, stakerFlag.Name)
	if err != nil {
		return nil, err
	}
	return c.Staking.ClaimRewards(env, staker)
}

func unstakeActionAction(ctx *cli.Context, c *builtin.Contracts, env *xenv.Environment) (any, error) {
	staker, err := parseAddressFlag(ctx, stakerFlag.Name)
	if err != nil {
		return nil, err
	}
	return c.Staking.UnstakeAction(env, staker)
}

func changeRewardAddressAction(ctx *cli.Context, c *builtin.Contracts, env *xenv.Environment) (any, error) {
	addr, err := parseAddressFlag(ctx, addressFlag.Name)
	if err != nil {
		return nil, err
	}
	return nil, c.Staking.ChangeRewardAddress(env, addr)
}

func changeOperationalAddressAction(ctx *cli.Context, c *builtin.Contracts, env *xenv.Environment) (any, error) {
	addr, err := parseAddressFlag(ctx, addressFlag.Name)
	if err != nil {
		return nil, err
	}
	return nil, c.Staking.ChangeOperationalAddress(env, addr)
}

func openPoolAction(ctx *cli.Context, c *builtin.Contracts, env *xenv.Environment) (any, error) {
	commission, err := commissionFromFlag(ctx)
	if err != nil {
		return nil, err
	}
	return c.Staking.SetOpenForDelegation(env, commission)
}

func updateCommissionAction(ctx *cli.Context, c *builtin.Contracts, env *xenv.Environment) (any, error) {
	commission, err := commissionFromFlag(ctx)
	if err != nil {
		return nil, err
	}
	return nil, c.Staking.UpdateCommission(env, commission)
}

// withPool resolves the pool named by the pool flag before calling fn.
func withPool(fn func(ctx *cli.Context, p *pools.Pool, env *xenv.Environment) (any, error)) txFunc {
	return func(ctx *cli.Context, c *builtin.Contracts, env *xenv.Environment) (any, error) {
		addr, err := parseAddressFlag(ctx, poolFlag.Name)
		if err != nil {
			return nil, err
		}
		p, err := c.Pools.Pool(addr)
		if err != nil {
			return nil, err
		}
		return fn(ctx, p, env)
	}
}

var poolEnterAction = withPool(func(ctx *cli.Context, p *pools.Pool, env *xenv.Environment) (any, error) {
	amount, err := parseAmountFlag(ctx, amountFlag.Name)
	if err != nil {
		return nil, err
	}
	return nil, p.Enter(env, amount)
})

var poolExitIntentAction = withPool(func(ctx *cli.Context, p *pools.Pool, env *xenv.Environment) (any, error) {
	amount, err := parseAmountFlag(ctx, amountFlag.Name)
	if err != nil {
		return nil, err
	}
	return p.ExitIntent(env, amount)
})

var poolSwitchAction = withPool(func(ctx *cli.Context, p *pools.Pool, env *xenv.Environment) (any, error) {
	to, err := parseAddressFlag(ctx, toPoolFlag.Name)
	if err != nil {
		return nil, err
	}
	amount, err := parseAmountFlag(ctx, amountFlag.Name)
	if err != nil {
		return nil, err
	}
	return nil, p.Switch(env, to, amount)
})
