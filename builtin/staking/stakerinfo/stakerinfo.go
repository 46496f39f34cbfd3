// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package stakerinfo

import (
	"github.com/holiman/uint256"

	"github.com/vechain/stakeledger/ledger"
)

// PoolInfo describes the delegation pool sponsored by a staker.
type PoolInfo struct {
	PoolContract     ledger.Address
	Amount           *uint256.Int // aggregate delegated stake
	UnclaimedRewards *uint256.Int // owed to the pool, commission excluded
	Commission       uint16       // parts per CommissionDenominator
}

// StakerInfo is the position of a staker in the ledger.
type StakerInfo struct {
	RewardAddress       ledger.Address
	OperationalAddress  ledger.Address
	AmountOwn           *uint256.Int
	Index               *uint256.Int // global index observed at the last accrual
	UnclaimedRewardsOwn *uint256.Int
	UnstakeTime         *uint64   // set once the staker signalled exit
	PoolInfo            *PoolInfo // nil unless the staker opened a pool
}

// IsExiting returns whether the staker is in its exit window.
func (s *StakerInfo) IsExiting() bool {
	return s.UnstakeTime != nil
}

// PoolAmount returns the delegated stake, zero without pool.
func (s *StakerInfo) PoolAmount() *uint256.Int {
	if s.PoolInfo == nil {
		return new(uint256.Int)
	}
	return s.PoolInfo.Amount.Clone()
}

// TotalAmount returns own plus delegated stake.
func (s *StakerInfo) TotalAmount() *uint256.Int {
	return new(uint256.Int).Add(s.AmountOwn, s.PoolAmount())
}

// Clone returns a deep copy.
func (s *StakerInfo) Clone() *StakerInfo {
	c := &StakerInfo{
		RewardAddress:       s.RewardAddress,
		OperationalAddress:  s.OperationalAddress,
		AmountOwn:           s.AmountOwn.Clone(),
		Index:               s.Index.Clone(),
		UnclaimedRewardsOwn: s.UnclaimedRewardsOwn.Clone(),
	}
	if s.UnstakeTime != nil {
		t := *s.UnstakeTime
		c.UnstakeTime = &t
	}
	if s.PoolInfo != nil {
		c.PoolInfo = &PoolInfo{
			PoolContract:     s.PoolInfo.PoolContract,
			Amount:           s.PoolInfo.Amount.Clone(),
			UnclaimedRewards: s.PoolInfo.UnclaimedRewards.Clone(),
			Commission:       s.PoolInfo.Commission,
		}
	}
	return c
}

func orZero(v *uint256.Int) *uint256.Int {
	if v == nil {
		return new(uint256.Int)
	}
	return v
}

// normalize replaces nil amounts with zero so that callers never deal with nil pointers.
func (s *StakerInfo) normalize() {
	s.AmountOwn = orZero(s.AmountOwn)
	s.Index = orZero(s.Index)
	s.UnclaimedRewardsOwn = orZero(s.UnclaimedRewardsOwn)
	if s.PoolInfo != nil {
		s.PoolInfo.Amount = orZero(s.PoolInfo.Amount)
		s.PoolInfo.UnclaimedRewards = orZero(s.PoolInfo.UnclaimedRewards)
	}
}
