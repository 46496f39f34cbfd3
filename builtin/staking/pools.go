// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staking

import (
	"github.com/holiman/uint256"

	"github.com/vechain/stakeledger/builtin/staking/intents"
	"github.com/vechain/stakeledger/builtin/staking/stakerinfo"
	"github.com/vechain/stakeledger/ledger"
	"github.com/vechain/stakeledger/xenv"
)

// poolOf returns the staker and its pool, checking the caller is that pool.
func (s *Staking) poolOf(env *xenv.Environment, staker ledger.Address) (*stakerinfo.StakerInfo, error) {
	info, err := s.getStaker(staker)
	if err != nil {
		return nil, err
	}
	if info.PoolInfo == nil {
		return nil, ErrMissingPoolContract
	}
	if env.Caller() != info.PoolInfo.PoolContract {
		return nil, ErrCallerIsNotPoolContract
	}
	return info, nil
}

// payPoolRewards sends the pending pool rewards of info to its pool.
func (s *Staking) payPoolRewards(env *xenv.Environment, staker ledger.Address, info *stakerinfo.StakerInfo) (*uint256.Int, error) {
	pool := info.PoolInfo
	amount := pool.UnclaimedRewards.Clone()
	if err := s.sendRewards(env, pool.PoolContract, amount); err != nil {
		return nil, err
	}
	pool.UnclaimedRewards = new(uint256.Int)
	if !amount.IsZero() {
		s.emit(env, EventRewardsSuppliedToDelegationPool, staker,
			"poolAddress", pool.PoolContract,
			"amount", amount,
		)
	}
	return amount, nil
}

// ClaimDelegationPoolRewards pays the pending rewards of the pool of staker to the pool.
// It returns the global index the rewards were settled at.
func (s *Staking) ClaimDelegationPoolRewards(env *xenv.Environment, staker ledger.Address) (*uint256.Int, error) {
	logger.Debug("claiming pool rewards", "caller", env.Caller(), "staker", staker)

	var index *uint256.Int
	err := s.run("claim_delegation_pool_rewards", func() error {
		if err := s.generalPrerequisites(env); err != nil {
			return err
		}
		info, err := s.poolOf(env, staker)
		if err != nil {
			return err
		}
		if err := s.updateRewards(info); err != nil {
			return err
		}
		if _, err := s.payPoolRewards(env, staker, info); err != nil {
			return err
		}
		if err := s.stakerService.Set(staker, info); err != nil {
			return err
		}
		index = info.Index.Clone()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return index, nil
}

// AddStakeFromPool moves amount from the pool into the delegated stake of staker.
// It returns the global index the stake starts earning from.
func (s *Staking) AddStakeFromPool(env *xenv.Environment, staker ledger.Address, amount *uint256.Int) (*uint256.Int, error) {
	logger.Debug("adding stake from pool", "caller", env.Caller(), "staker", staker, "amount", amount)

	var index *uint256.Int
	err := s.run("add_stake_from_pool", func() error {
		if err := s.generalPrerequisites(env); err != nil {
			return err
		}
		info, err := s.getStaker(staker)
		if err != nil {
			return err
		}
		if info.IsExiting() {
			return ErrUnstakeInProgress
		}
		if info.PoolInfo == nil {
			return ErrMissingPoolContract
		}
		if env.Caller() != info.PoolInfo.PoolContract {
			return ErrCallerIsNotPoolContract
		}

		if err := s.pull(env, env.Caller(), amount); err != nil {
			return err
		}
		if err := s.updateRewards(info); err != nil {
			return err
		}

		oldPool := info.PoolAmount()
		info.PoolInfo.Amount = new(uint256.Int).Add(oldPool, amount)
		if err := s.stakerService.Set(staker, info); err != nil {
			return err
		}
		if err := s.globalStatsService.Add(amount); err != nil {
			return err
		}

		s.emitBalanceChanged(env, staker, info.AmountOwn, oldPool, info.AmountOwn, info.PoolInfo.Amount)
		index = info.Index.Clone()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return index, nil
}

// RemoveFromDelegationPoolIntent records that amount of the delegated stake of staker will leave
// for the pool member identified by identifier. A new intent replaces the previous one of the
// same member, an amount of zero cancels it. It returns the time the amount may be collected.
func (s *Staking) RemoveFromDelegationPoolIntent(
	env *xenv.Environment,
	staker ledger.Address,
	identifier ledger.Bytes32,
	amount *uint256.Int,
) (uint64, error) {
	logger.Debug("pool member exit intent", "caller", env.Caller(), "staker", staker, "identifier", identifier, "amount", amount)

	var unpoolTime uint64
	err := s.run("remove_from_delegation_pool_intent", func() error {
		if err := s.generalPrerequisites(env); err != nil {
			return err
		}
		info, err := s.poolOf(env, staker)
		if err != nil {
			return err
		}

		key := intents.Key{Pool: info.PoolInfo.PoolContract, Identifier: identifier}
		old, err := s.intentService.Get(key)
		if err != nil {
			return err
		}
		total := new(uint256.Int).Add(info.PoolInfo.Amount, old.Amount)
		if amount.Gt(total) {
			return ErrAmountTooHigh
		}
		if err := s.updateRewards(info); err != nil {
			return err
		}

		oldPool := info.PoolAmount()
		info.PoolInfo.Amount = new(uint256.Int).Sub(total, amount)

		if info.IsExiting() {
			unpoolTime = max(*info.UnstakeTime, env.BlockTime())
		} else {
			window, err := s.exitWaitWindow()
			if err != nil {
				return err
			}
			unpoolTime = env.BlockTime() + window
			if err := s.globalStatsService.Replace(old.Amount, amount); err != nil {
				return err
			}
		}

		if err := s.intentService.Set(key, &intents.Value{Amount: amount.Clone(), UnpoolTime: unpoolTime}); err != nil {
			return err
		}
		if err := s.stakerService.Set(staker, info); err != nil {
			return err
		}

		s.emit(env, EventPoolMemberExitIntent, staker,
			"poolContract", key.Pool,
			"identifier", identifier,
			"exitTimestamp", unpoolTime,
			"amount", amount,
		)
		s.emitBalanceChanged(env, staker, info.AmountOwn, oldPool, info.AmountOwn, info.PoolInfo.Amount)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return unpoolTime, nil
}

// RemoveFromDelegationPoolAction pays out the intent the calling pool raised for identifier,
// once its unpool time passed. A missing intent pays nothing.
func (s *Staking) RemoveFromDelegationPoolAction(env *xenv.Environment, identifier ledger.Bytes32) (*uint256.Int, error) {
	logger.Debug("pool member exit action", "caller", env.Caller(), "identifier", identifier)

	var amount *uint256.Int
	err := s.run("remove_from_delegation_pool_action", func() error {
		if err := s.generalPrerequisites(env); err != nil {
			return err
		}
		key := intents.Key{Pool: env.Caller(), Identifier: identifier}
		intent, err := s.intentService.Get(key)
		if err != nil {
			return err
		}
		amount = intent.Amount
		if intent.IsEmpty() {
			return nil
		}
		if env.BlockTime() < intent.UnpoolTime {
			return ErrIntentWindowNotFinished
		}
		s.intentService.Clear(key)
		return s.transfer(env, key.Pool, amount)
	})
	if err != nil {
		return nil, err
	}
	return amount, nil
}

// SwitchStakingDelegationPool redirects amount of the pending intent of identifier at the calling
// pool into delegated stake of toStaker, whose pool must be toPool. The value never leaves the
// contract. data is handed to toPool, which registers the member position from it.
func (s *Staking) SwitchStakingDelegationPool(
	env *xenv.Environment,
	toStaker ledger.Address,
	toPool ledger.Address,
	amount *uint256.Int,
	data []byte,
	identifier ledger.Bytes32,
) (bool, error) {
	logger.Debug("switching delegation pool", "caller", env.Caller(), "toStaker", toStaker, "toPool", toPool, "amount", amount)

	var switched bool
	err := s.run("switch_staking_delegation_pool", func() error {
		if err := s.generalPrerequisites(env); err != nil {
			return err
		}
		if amount.IsZero() {
			return nil
		}
		key := intents.Key{Pool: env.Caller(), Identifier: identifier}
		intent, err := s.intentService.Get(key)
		if err != nil {
			return err
		}
		if intent.IsEmpty() {
			return ErrMissingUndelegateIntent
		}
		if intent.Amount.Lt(amount) {
			return ErrAmountTooHigh
		}
		if toPool == key.Pool {
			return ErrSelfSwitch
		}
		info, err := s.getStaker(toStaker)
		if err != nil {
			return err
		}
		if info.IsExiting() {
			return ErrUnstakeInProgress
		}
		if info.PoolInfo == nil {
			return ErrMissingPoolContract
		}
		if info.PoolInfo.PoolContract != toPool {
			return ErrDelegationPoolMismatch
		}

		if err := s.updateRewards(info); err != nil {
			return err
		}
		if _, err := s.payPoolRewards(env, toStaker, info); err != nil {
			return err
		}

		oldPool := info.PoolAmount()
		info.PoolInfo.Amount = new(uint256.Int).Add(oldPool, amount)
		if err := s.stakerService.Set(toStaker, info); err != nil {
			return err
		}
		if err := s.globalStatsService.Add(amount); err != nil {
			return err
		}
		if _, err := s.intentService.Reduce(key, amount); err != nil {
			return err
		}
		s.emitBalanceChanged(env, toStaker, info.AmountOwn, oldPool, info.AmountOwn, info.PoolInfo.Amount)

		pool, err := s.pools.Pool(toPool)
		if err != nil {
			return err
		}
		if err := pool.EnterDelegationPoolFromStakingContract(env.WithCaller(s.addr), amount, info.Index, data); err != nil {
			return err
		}
		switched = true
		return nil
	})
	if err != nil {
		return false, err
	}
	return switched, nil
}
