// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package stakers

import (
	"github.com/vechain/stakeledger/builtin/staking/stakerinfo"
	"github.com/vechain/stakeledger/ledger"
)

type PoolInfo struct {
	PoolContract     ledger.Address `json:"poolContract"`
	Amount           string         `json:"amount"`
	UnclaimedRewards string         `json:"unclaimedRewards"`
	Commission       uint16         `json:"commission"`
}

// Staker is the json form of a staker position, rewards settled to the current index.
type Staker struct {
	Address             ledger.Address `json:"address"`
	RewardAddress       ledger.Address `json:"rewardAddress"`
	OperationalAddress  ledger.Address `json:"operationalAddress"`
	AmountOwn           string         `json:"amountOwn"`
	Index               string         `json:"index"`
	UnclaimedRewardsOwn string         `json:"unclaimedRewardsOwn"`
	UnstakeTime         *uint64        `json:"unstakeTime"`
	PoolInfo            *PoolInfo      `json:"poolInfo"`
}

func convertStaker(addr ledger.Address, info *stakerinfo.StakerInfo) *Staker {
	s := &Staker{
		Address:             addr,
		RewardAddress:       info.RewardAddress,
		OperationalAddress:  info.OperationalAddress,
		AmountOwn:           info.AmountOwn.Dec(),
		Index:               info.Index.Dec(),
		UnclaimedRewardsOwn: info.UnclaimedRewardsOwn.Dec(),
		UnstakeTime:         info.UnstakeTime,
	}
	if pool := info.PoolInfo; pool != nil {
		s.PoolInfo = &PoolInfo{
			PoolContract:     pool.PoolContract,
			Amount:           pool.Amount.Dec(),
			UnclaimedRewards: pool.UnclaimedRewards.Dec(),
			Commission:       pool.Commission,
		}
	}
	return s
}
