// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package rewards holds the fixed point reward arithmetic of the staking ledger.
//
// Rounding is asymmetric: a staker's own reward is rounded down, the reward owed to a pool
// (before commission) is rounded up, and the commission taken from it is rounded down again.
package rewards

import (
	"github.com/holiman/uint256"

	"github.com/vechain/stakeledger/builtin/staking/reverts"
	"github.com/vechain/stakeledger/ledger"
)

var (
	ErrOverflow       = reverts.NewArithmetic("reward computation overflow")
	ErrIndexUnderflow = reverts.NewArithmetic("index difference underflow")
	ErrZeroDivisor    = reverts.NewArithmetic("division by zero")

	commissionDenominator = uint256.NewInt(uint64(ledger.CommissionDenominator))
)

func mulDivFloor(x, y, d *uint256.Int) (*uint256.Int, error) {
	if d.IsZero() {
		return nil, ErrZeroDivisor
	}
	z, overflow := new(uint256.Int).MulDivOverflow(x, y, d)
	if overflow {
		return nil, ErrOverflow
	}
	return z, nil
}

func mulDivCeil(x, y, d *uint256.Int) (*uint256.Int, error) {
	z, err := mulDivFloor(x, y, d)
	if err != nil {
		return nil, err
	}
	if new(uint256.Int).MulMod(x, y, d).IsZero() {
		return z, nil
	}
	if _, overflow := z.AddOverflow(z, uint256.NewInt(1)); overflow {
		return nil, ErrOverflow
	}
	return z, nil
}

// Interest returns the index delta accrued since snapshot.
func Interest(globalIndex, snapshot *uint256.Int) (*uint256.Int, error) {
	z, underflow := new(uint256.Int).SubOverflow(globalIndex, snapshot)
	if underflow {
		return nil, ErrIndexUnderflow
	}
	return z, nil
}

// OwnRewards = floor(amount * interest / IndexBase).
func OwnRewards(amount, interest *uint256.Int) (*uint256.Int, error) {
	return mulDivFloor(amount, interest, ledger.IndexBase)
}

// PoolRewardsIncludingCommission = ceil(amount * interest / IndexBase).
func PoolRewardsIncludingCommission(amount, interest *uint256.Int) (*uint256.Int, error) {
	return mulDivCeil(amount, interest, ledger.IndexBase)
}

// CommissionAmount = floor(rewardsIncludingCommission * commission / CommissionDenominator).
func CommissionAmount(rewardsIncludingCommission *uint256.Int, commission uint16) (*uint256.Int, error) {
	return mulDivFloor(rewardsIncludingCommission, uint256.NewInt(uint64(commission)), commissionDenominator)
}

// SplitPoolRewards computes the pool reward for the given delegated amount and splits it
// into the part owed to the pool and the commission owed to the staker.
func SplitPoolRewards(amount, interest *uint256.Int, commission uint16) (poolNet, commissionAmount *uint256.Int, err error) {
	incl, err := PoolRewardsIncludingCommission(amount, interest)
	if err != nil {
		return nil, nil, err
	}
	commissionAmount, err = CommissionAmount(incl, commission)
	if err != nil {
		return nil, nil, err
	}
	return incl.Sub(incl, commissionAmount), commissionAmount, nil
}

// IndexDiff = floor(reward * IndexBase / totalStake).
func IndexDiff(reward, totalStake *uint256.Int) (*uint256.Int, error) {
	return mulDivFloor(reward, ledger.IndexBase, totalStake)
}
