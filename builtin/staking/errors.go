// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staking

import (
	"github.com/vechain/stakeledger/builtin/staking/reverts"
)

var (
	ErrPaused                    = reverts.NewPrecondition("contract is paused")
	ErrZeroCaller                = reverts.NewPrecondition("caller address is zero")
	ErrStakerExists              = reverts.NewPrecondition("staker already exists")
	ErrStakerNotExists           = reverts.NewPrecondition("staker does not exist")
	ErrOperationalExists         = reverts.NewPrecondition("operational address already exists")
	ErrAmountLessThanMinStake    = reverts.NewPrecondition("amount is less than min stake")
	ErrCommissionOutOfRange      = reverts.NewPrecondition("commission is out of range, expected 0-10000")
	ErrUnstakeInProgress         = reverts.NewPrecondition("unstake is in progress, staker is in an exit window")
	ErrCallerCannotIncreaseStake = reverts.NewPrecondition("caller address should be staker address or reward address")
	ErrClaimRewardsUnauthorized  = reverts.NewPrecondition("claim rewards must be called from staker address or reward address")
	ErrAmountIsZero              = reverts.NewPrecondition("amount is zero")
	ErrAmountTooHigh             = reverts.NewPrecondition("amount is too high")
	ErrMissingPoolContract       = reverts.NewPrecondition("staker does not have a pool contract")
	ErrCallerIsNotPoolContract   = reverts.NewPrecondition("caller is not pool contract")
	ErrSelfSwitch                = reverts.NewPrecondition("cannot switch to the same pool")
	ErrDelegationPoolMismatch    = reverts.NewPrecondition("to_pool is not the delegation pool contract for to_staker")
	ErrStakerAlreadyHasPool      = reverts.NewPrecondition("staker already has a pool")
	ErrCannotIncreaseCommission  = reverts.NewPrecondition("commission can only be decreased")
	ErrOnlySecurityAgent         = reverts.NewPrecondition("only security agent")
	ErrOnlySecurityAdmin         = reverts.NewPrecondition("only security admin")
	ErrOnlyAppGovernor           = reverts.NewPrecondition("only app governor")
	ErrIllegalExitDuration       = reverts.NewPrecondition("exit wait window exceeds the maximum")
	ErrZeroAddress               = reverts.NewPrecondition("address is zero")
	ErrMissingRewardSupplier     = reverts.NewPrecondition("reward supplier is not configured")

	ErrMissingUnstakeIntent    = reverts.NewTemporal("unstake intent is missing")
	ErrMissingUndelegateIntent = reverts.NewTemporal("undelegate intent is missing")
	ErrIntentWindowNotFinished = reverts.NewTemporal("intent window is not finished")

	ErrUnexpectedBalance = reverts.NewInvariant("unexpected balance")
)
