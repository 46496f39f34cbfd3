// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staking

import (
	"github.com/holiman/uint256"

	"github.com/vechain/stakeledger/builtin/staking/stakerinfo"
	"github.com/vechain/stakeledger/ledger"
	"github.com/vechain/stakeledger/xenv"
)

// Stake registers the caller as a new staker with amount of own stake, optionally opening a delegation pool.
func (s *Staking) Stake(
	env *xenv.Environment,
	rewardAddress ledger.Address,
	operationalAddress ledger.Address,
	amount *uint256.Int,
	poolEnabled bool,
	commission uint16,
) error {
	staker := env.Caller()
	logger.Debug("staking", "staker", staker,
		"rewardAddress", rewardAddress,
		"operationalAddress", operationalAddress,
		"amount", amount,
		"poolEnabled", poolEnabled,
		"commission", commission,
	)

	return s.run("stake", func() error {
		if err := s.generalPrerequisites(env); err != nil {
			return err
		}
		existing, err := s.stakerService.Get(staker)
		if err != nil {
			return err
		}
		if existing != nil {
			return ErrStakerExists
		}
		bound, err := s.stakerService.StakerByOperational(operationalAddress)
		if err != nil {
			return err
		}
		if !bound.IsZero() {
			return ErrOperationalExists
		}
		minStake, err := s.minStake()
		if err != nil {
			return err
		}
		if amount.Lt(minStake) {
			return ErrAmountLessThanMinStake
		}
		if commission > ledger.CommissionDenominator {
			return ErrCommissionOutOfRange
		}

		if err := s.pull(env, staker, amount); err != nil {
			return err
		}

		index, err := s.globalIndexService.Index()
		if err != nil {
			return err
		}
		info := &stakerinfo.StakerInfo{
			RewardAddress:       rewardAddress,
			OperationalAddress:  operationalAddress,
			AmountOwn:           amount.Clone(),
			Index:               index,
			UnclaimedRewardsOwn: new(uint256.Int),
		}
		if poolEnabled {
			pool, err := s.deployPool(env, staker, rewardAddress, commission)
			if err != nil {
				return err
			}
			info.PoolInfo = pool
		}

		if err := s.stakerService.Set(staker, info); err != nil {
			return err
		}
		if err := s.stakerService.BindOperational(operationalAddress, staker); err != nil {
			return err
		}
		if err := s.globalStatsService.Add(amount); err != nil {
			return err
		}

		s.emit(env, EventNewStaker, staker,
			"rewardAddress", rewardAddress,
			"operationalAddress", operationalAddress,
			"selfStake", amount,
		)
		s.emitBalanceChanged(env, staker, new(uint256.Int), new(uint256.Int), info.AmountOwn, info.PoolAmount())
		return nil
	})
}

func (s *Staking) deployPool(env *xenv.Environment, staker, rewardAddress ledger.Address, commission uint16) (*stakerinfo.PoolInfo, error) {
	addr, err := s.pools.DeployPool(env.WithCaller(s.addr), staker, rewardAddress, commission)
	if err != nil {
		return nil, err
	}
	s.emit(env, EventNewDelegationPool, staker,
		"poolContract", addr,
		"commission", commission,
	)
	return &stakerinfo.PoolInfo{
		PoolContract:     addr,
		Amount:           new(uint256.Int),
		UnclaimedRewards: new(uint256.Int),
		Commission:       commission,
	}, nil
}

// IncreaseStake adds amount to the own stake of staker. The caller is the staker or its reward address.
func (s *Staking) IncreaseStake(env *xenv.Environment, staker ledger.Address, amount *uint256.Int) (*uint256.Int, error) {
	logger.Debug("increasing stake", "caller", env.Caller(), "staker", staker, "amount", amount)

	var result *uint256.Int
	err := s.run("increase_stake", func() error {
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
		caller := env.Caller()
		if caller != staker && caller != info.RewardAddress {
			return ErrCallerCannotIncreaseStake
		}
		if amount.IsZero() {
			return ErrAmountIsZero
		}

		if err := s.pull(env, caller, amount); err != nil {
			return err
		}
		if err := s.updateRewards(info); err != nil {
			return err
		}

		oldSelf := info.AmountOwn.Clone()
		info.AmountOwn = new(uint256.Int).Add(info.AmountOwn, amount)
		if err := s.stakerService.Set(staker, info); err != nil {
			return err
		}
		if err := s.globalStatsService.Add(amount); err != nil {
			return err
		}

		s.emitBalanceChanged(env, staker, oldSelf, info.PoolAmount(), info.AmountOwn, info.PoolAmount())
		result = info.AmountOwn.Clone()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// ClaimRewards pays the accrued own rewards of staker to its reward address.
func (s *Staking) ClaimRewards(env *xenv.Environment, staker ledger.Address) (*uint256.Int, error) {
	logger.Debug("claiming rewards", "caller", env.Caller(), "staker", staker)

	var amount *uint256.Int
	err := s.run("claim_rewards", func() error {
		if err := s.generalPrerequisites(env); err != nil {
			return err
		}
		info, err := s.getStaker(staker)
		if err != nil {
			return err
		}
		caller := env.Caller()
		if caller != staker && caller != info.RewardAddress {
			return ErrClaimRewardsUnauthorized
		}
		if err := s.updateRewards(info); err != nil {
			return err
		}

		amount = info.UnclaimedRewardsOwn.Clone()
		if err := s.sendRewards(env, info.RewardAddress, amount); err != nil {
			return err
		}
		info.UnclaimedRewardsOwn = new(uint256.Int)
		if err := s.stakerService.Set(staker, info); err != nil {
			return err
		}

		s.emit(env, EventStakerRewardClaimed, staker,
			"rewardAddress", info.RewardAddress,
			"amount", amount,
		)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return amount, nil
}

// UnstakeIntent starts the exit window of the caller. Its stake stops earning immediately.
func (s *Staking) UnstakeIntent(env *xenv.Environment) (uint64, error) {
	staker := env.Caller()
	logger.Debug("signal unstake intent", "staker", staker)

	var unstakeTime uint64
	err := s.run("unstake_intent", func() error {
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
		if err := s.updateRewards(info); err != nil {
			return err
		}

		window, err := s.exitWaitWindow()
		if err != nil {
			return err
		}
		unstakeTime = env.BlockTime() + window
		info.UnstakeTime = &unstakeTime

		if err := s.globalStatsService.Sub(info.TotalAmount()); err != nil {
			return err
		}
		if err := s.stakerService.Set(staker, info); err != nil {
			return err
		}

		s.emit(env, EventStakerExitIntent, staker,
			"exitTimestamp", unstakeTime,
			"amount", info.AmountOwn,
		)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return unstakeTime, nil
}

// UnstakeAction completes the exit of staker once its window elapsed. Anyone may trigger it.
// Own rewards go to the reward address, pooled stake and pool rewards go back to the pool,
// and the own stake is returned to the staker.
func (s *Staking) UnstakeAction(env *xenv.Environment, staker ledger.Address) (*uint256.Int, error) {
	logger.Debug("unstake action", "caller", env.Caller(), "staker", staker)

	var amount *uint256.Int
	err := s.run("unstake_action", func() error {
		if err := s.generalPrerequisites(env); err != nil {
			return err
		}
		info, err := s.getStaker(staker)
		if err != nil {
			return err
		}
		if !info.IsExiting() {
			return ErrMissingUnstakeIntent
		}
		if env.BlockTime() < *info.UnstakeTime {
			return ErrIntentWindowNotFinished
		}

		if err := s.sendRewards(env, info.RewardAddress, info.UnclaimedRewardsOwn); err != nil {
			return err
		}
		if !info.UnclaimedRewardsOwn.IsZero() {
			s.emit(env, EventStakerRewardClaimed, staker,
				"rewardAddress", info.RewardAddress,
				"amount", info.UnclaimedRewardsOwn,
			)
		}

		poolContract := ledger.Address{}
		if pool := info.PoolInfo; pool != nil {
			poolContract = pool.PoolContract
			if err := s.sendRewards(env, pool.PoolContract, pool.UnclaimedRewards); err != nil {
				return err
			}
			if !pool.UnclaimedRewards.IsZero() {
				s.emit(env, EventRewardsSuppliedToDelegationPool, staker,
					"poolAddress", pool.PoolContract,
					"amount", pool.UnclaimedRewards,
				)
			}
			if err := s.transfer(env, pool.PoolContract, pool.Amount); err != nil {
				return err
			}
			delegationPool, err := s.pools.Pool(pool.PoolContract)
			if err != nil {
				return err
			}
			if err := delegationPool.SetFinalStakerIndex(env.WithCaller(s.addr), info.Index); err != nil {
				return err
			}
		}

		s.stakerService.Delete(staker)
		s.stakerService.UnbindOperational(info.OperationalAddress)

		amount = info.AmountOwn.Clone()
		if err := s.transfer(env, staker, amount); err != nil {
			return err
		}

		s.emit(env, EventDeleteStaker, staker,
			"rewardAddress", info.RewardAddress,
			"operationalAddress", info.OperationalAddress,
			"poolContract", poolContract,
		)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return amount, nil
}

// ChangeRewardAddress sets the address the caller's rewards are paid to.
func (s *Staking) ChangeRewardAddress(env *xenv.Environment, rewardAddress ledger.Address) error {
	staker := env.Caller()
	logger.Debug("changing reward address", "staker", staker, "rewardAddress", rewardAddress)

	return s.run("change_reward_address", func() error {
		if err := s.generalPrerequisites(env); err != nil {
			return err
		}
		info, err := s.getStaker(staker)
		if err != nil {
			return err
		}
		old := info.RewardAddress
		info.RewardAddress = rewardAddress
		if err := s.stakerService.Set(staker, info); err != nil {
			return err
		}
		s.emit(env, EventStakerRewardAddressChanged, staker,
			"newAddress", rewardAddress,
			"oldAddress", old,
		)
		return nil
	})
}

// ChangeOperationalAddress binds a new, unused operational address to the caller.
func (s *Staking) ChangeOperationalAddress(env *xenv.Environment, operationalAddress ledger.Address) error {
	staker := env.Caller()
	logger.Debug("changing operational address", "staker", staker, "operationalAddress", operationalAddress)

	return s.run("change_operational_address", func() error {
		if err := s.generalPrerequisites(env); err != nil {
			return err
		}
		info, err := s.getStaker(staker)
		if err != nil {
			return err
		}
		bound, err := s.stakerService.StakerByOperational(operationalAddress)
		if err != nil {
			return err
		}
		if !bound.IsZero() {
			return ErrOperationalExists
		}

		old := info.OperationalAddress
		s.stakerService.UnbindOperational(old)
		if err := s.stakerService.BindOperational(operationalAddress, staker); err != nil {
			return err
		}
		info.OperationalAddress = operationalAddress
		if err := s.stakerService.Set(staker, info); err != nil {
			return err
		}
		s.emit(env, EventOperationalAddressChanged, staker,
			"newAddress", operationalAddress,
			"oldAddress", old,
		)
		return nil
	})
}

// SetOpenForDelegation opens a delegation pool for the caller.
func (s *Staking) SetOpenForDelegation(env *xenv.Environment, commission uint16) (ledger.Address, error) {
	staker := env.Caller()
	logger.Debug("opening for delegation", "staker", staker, "commission", commission)

	var poolContract ledger.Address
	err := s.run("set_open_for_delegation", func() error {
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
		if commission > ledger.CommissionDenominator {
			return ErrCommissionOutOfRange
		}
		if info.PoolInfo != nil {
			return ErrStakerAlreadyHasPool
		}

		pool, err := s.deployPool(env, staker, info.RewardAddress, commission)
		if err != nil {
			return err
		}
		info.PoolInfo = pool
		poolContract = pool.PoolContract
		return s.stakerService.Set(staker, info)
	})
	if err != nil {
		return ledger.Address{}, err
	}
	return poolContract, nil
}

// UpdateCommission lowers the commission the caller takes from its pool rewards.
// Rewards accrued so far are settled under the old commission.
func (s *Staking) UpdateCommission(env *xenv.Environment, commission uint16) error {
	staker := env.Caller()
	logger.Debug("updating commission", "staker", staker, "commission", commission)

	return s.run("update_commission", func() error {
		if err := s.generalPrerequisites(env); err != nil {
			return err
		}
		info, err := s.getStaker(staker)
		if err != nil {
			return err
		}
		if info.PoolInfo == nil {
			return ErrMissingPoolContract
		}
		old := info.PoolInfo.Commission
		if commission >= old {
			return ErrCannotIncreaseCommission
		}
		if err := s.updateRewards(info); err != nil {
			return err
		}

		info.PoolInfo.Commission = commission
		if err := s.stakerService.Set(staker, info); err != nil {
			return err
		}
		pool, err := s.pools.Pool(info.PoolInfo.PoolContract)
		if err != nil {
			return err
		}
		if err := pool.UpdateCommissionFromStakingContract(env.WithCaller(s.addr), commission); err != nil {
			return err
		}

		s.emit(env, EventCommissionChanged, staker,
			"poolContract", info.PoolInfo.PoolContract,
			"oldCommission", old,
			"newCommission", commission,
		)
		return nil
	})
}
