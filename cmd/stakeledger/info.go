// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/davecgh/go-spew/spew"
	"github.com/pkg/errors"
	cli "gopkg.in/urfave/cli.v1"

	"github.com/vechain/stakeledger/builtin"
	"github.com/vechain/stakeledger/builtin/pools"
	"github.com/vechain/stakeledger/ledger"
	"github.com/vechain/stakeledger/logdb"
)

var out io.Writer = os.Stdout

var infoCommand = cli.Command{
	Name:  "info",
	Usage: "query the ledger without changing it",
	Subcommands: []cli.Command{
		{
			Name:   "params",
			Usage:  "contract-wide settings and the global index",
			Flags:  []cli.Flag{rawFlag},
			Action: queryAction(paramsInfo),
		},
		{
			Name:   "staker",
			Usage:  "position of a staker, found by its address or operational address",
			Flags:  []cli.Flag{rawFlag, stakerFlag, operationalFlag},
			Action: queryAction(stakerInfo),
		},
		{
			Name:   "balance",
			Usage:  "token balance of an address",
			Flags:  []cli.Flag{addressFlag},
			Action: queryAction(balanceInfo),
		},
		{
			Name:   "member",
			Usage:  "position of a pool member and its pending exit",
			Flags:  []cli.Flag{rawFlag, poolFlag, memberFlag},
			Action: queryAction(memberInfo),
		},
		{
			Name:   "events",
			Usage:  "events recorded by the ledger, oldest first",
			Flags:  []cli.Flag{eventNameFlag, addressFlag, limitFlag},
			Action: eventsInfo,
		},
	},
}

type queryFunc func(ctx *cli.Context, c *builtin.Contracts) error

// queryAction binds the contracts to the committed state and calls fn. Nothing is committed.
func queryAction(fn queryFunc) func(ctx *cli.Context) error {
	return func(ctx *cli.Context) error {
		initLogger(ctx)
		db, err := openLedgerDB(ctx)
		if err != nil {
			return err
		}
		defer db.Close()

		_, contracts, err := db.bind()
		if err != nil {
			return err
		}
		return fn(ctx, contracts)
	}
}

func dumpIfRaw(ctx *cli.Context, v any) bool {
	if !ctx.Bool(rawFlag.Name) {
		return false
	}
	cfg := spew.ConfigState{Indent: "    ", DisablePointerAddresses: true, DisableCapacities: true}
	cfg.Fdump(out, v)
	return true
}

func paramsInfo(ctx *cli.Context, c *builtin.Contracts) error {
	p, err := c.Staking.ContractParameters()
	if err != nil {
		return err
	}
	if dumpIfRaw(ctx, p) {
		return nil
	}
	fmt.Fprintf(out, `Ledger parameters
    Min stake         [ %v ]
    Exit wait window  [ %v ]
    Total stake       [ %v ]
    Global index      [ %v @%v ]
    Reward supplier   [ %v ]
    Pool factory      [ %v ]
    Token             [ %v ]
    Paused            [ %v ]
`,
		p.MinStake.Dec(),
		time.Duration(p.ExitWaitWindow)*time.Second,
		p.TotalStake.Dec(),
		p.GlobalIndex.Dec(), formatTime(p.LastIndexUpdate),
		p.RewardSupplier,
		p.PoolFactory,
		p.Token,
		p.Paused)
	return nil
}

func stakerInfo(ctx *cli.Context, c *builtin.Contracts) error {
	var (
		staker ledger.Address
		err    error
	)
	if ctx.String(operationalFlag.Name) != "" {
		operational, err := parseAddressFlag(ctx, operationalFlag.Name)
		if err != nil {
			return err
		}
		if staker, err = c.Staking.StakerAddressByOperational(operational); err != nil {
			return err
		}
		if staker.IsZero() {
			return errors.Errorf("no staker bound to %v", operational)
		}
	} else if staker, err = parseAddressFlag(ctx, stakerFlag.Name); err != nil {
		return err
	}

	info, err := c.Staking.StakerInfo(staker)
	if err != nil {
		return err
	}
	if info == nil {
		return errors.Errorf("staker %v not found", staker)
	}
	if dumpIfRaw(ctx, info) {
		return nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, `Staker %v
    Reward address       [ %v ]
    Operational address  [ %v ]
    Own stake            [ %v ]
    Unclaimed rewards    [ %v ]
`,
		staker,
		info.RewardAddress,
		info.OperationalAddress,
		info.AmountOwn.Dec(),
		info.UnclaimedRewardsOwn.Dec())
	if info.UnstakeTime != nil {
		fmt.Fprintf(&b, "    Unstake time         [ %v ]\n", formatTime(*info.UnstakeTime))
	}
	if pool := info.PoolInfo; pool != nil {
		fmt.Fprintf(&b, `    Pool                 [ %v ]
    Pool stake           [ %v ]
    Pool rewards         [ %v ]
    Commission           [ %v/%v ]
`,
			pool.PoolContract,
			pool.Amount.Dec(),
			pool.UnclaimedRewards.Dec(),
			pool.Commission, ledger.CommissionDenominator)
	}
	fmt.Fprint(out, b.String())
	return nil
}

func balanceInfo(ctx *cli.Context, c *builtin.Contracts) error {
	addr, err := parseAddressFlag(ctx, addressFlag.Name)
	if err != nil {
		return err
	}
	balance, err := c.Token.BalanceOf(addr)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, balance.Dec())
	return nil
}

func memberInfo(ctx *cli.Context, c *builtin.Contracts) error {
	addr, err := parseAddressFlag(ctx, poolFlag.Name)
	if err != nil {
		return err
	}
	delegator, err := parseAddressFlag(ctx, memberFlag.Name)
	if err != nil {
		return err
	}
	pool, err := c.Pools.Pool(addr)
	if err != nil {
		return err
	}
	member, err := pool.Member(delegator)
	if err != nil {
		return err
	}
	identifier := pools.Identifier(delegator)
	intent, err := c.Staking.PoolExitIntent(addr, identifier)
	if err != nil {
		return err
	}
	if dumpIfRaw(ctx, struct {
		Member *pools.Member
		Intent any
	}{member, intent}) {
		return nil
	}

	pendingAt := "-"
	if intent != nil && !intent.Amount.IsZero() {
		pendingAt = formatTime(intent.UnpoolTime)
	}
	fmt.Fprintf(out, `Member %v of pool %v
    Identifier  [ %v ]
    Stake       [ %v ]
    Pending     [ %v @%v ]
    Unclaimed   [ %v ]
`,
		delegator, addr,
		identifier,
		member.Amount.Dec(),
		member.Pending.Dec(), pendingAt,
		member.Unclaimed.Dec())
	return nil
}

func eventsInfo(ctx *cli.Context) error {
	initLogger(ctx)
	db, err := openLedgerDB(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	criteria := &logdb.EventCriteria{}
	if name := ctx.String(eventNameFlag.Name); name != "" {
		criteria.Name = &name
	}
	if ctx.String(addressFlag.Name) != "" {
		subject, err := parseAddressFlag(ctx, addressFlag.Name)
		if err != nil {
			return err
		}
		criteria.Subject = &subject
	}
	events, err := db.logDB.FilterEvents(context.Background(), &logdb.EventFilter{
		CriteriaSet: []*logdb.EventCriteria{criteria},
		Options:     &logdb.Options{Limit: ctx.Uint64(limitFlag.Name)},
	})
	if err != nil {
		return err
	}
	for _, e := range events {
		keys := make([]string, 0, len(e.Data))
		for k, v := range e.Data {
			keys = append(keys, k+"="+v)
		}
		slices.Sort(keys)
		fmt.Fprintf(out, "#%v %v %v block=%v time=%v %v\n",
			e.Seq, e.Name, e.Subject, e.BlockNumber, e.BlockTime, strings.Join(keys, " "))
	}
	return nil
}

func formatTime(ts uint64) string {
	return time.Unix(int64(ts), 0).UTC().Format(time.RFC3339)
}
