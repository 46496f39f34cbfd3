// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staking

import (
	"github.com/holiman/uint256"

	"github.com/vechain/stakeledger/builtin/staking/access"
	"github.com/vechain/stakeledger/builtin/staking/intents"
	"github.com/vechain/stakeledger/builtin/staking/stakerinfo"
	"github.com/vechain/stakeledger/ledger"
)

//
// Getters - no state change
//

// Parameters are the contract-wide settings and the current index.
type Parameters struct {
	MinStake        *uint256.Int
	ExitWaitWindow  uint64
	GlobalIndex     *uint256.Int
	LastIndexUpdate uint64
	RewardSupplier  ledger.Address
	PoolFactory     ledger.Address
	Token           ledger.Address
	TotalStake      *uint256.Int
	Paused          bool
}

// StakerInfo returns the position of staker with rewards settled up to the current global index,
// nil when the staker does not exist. Nothing is written.
func (s *Staking) StakerInfo(staker ledger.Address) (*stakerinfo.StakerInfo, error) {
	info, err := s.stakerService.Get(staker)
	if err != nil || info == nil {
		return nil, err
	}
	index, err := s.globalIndexService.Index()
	if err != nil {
		return nil, err
	}
	projected := info.Clone()
	if err := accrue(projected, index); err != nil {
		return nil, err
	}
	return projected, nil
}

// StakerAddressByOperational returns the staker bound to operational, zero when unbound.
func (s *Staking) StakerAddressByOperational(operational ledger.Address) (ledger.Address, error) {
	return s.stakerService.StakerByOperational(operational)
}

// TotalStake returns the stake currently earning rewards.
func (s *Staking) TotalStake() (*uint256.Int, error) {
	return s.globalStatsService.TotalStake()
}

// GlobalIndex returns the global index and the time it was last advanced.
func (s *Staking) GlobalIndex() (*uint256.Int, uint64, error) {
	index, err := s.globalIndexService.Index()
	if err != nil {
		return nil, 0, err
	}
	last, err := s.globalIndexService.LastUpdate()
	if err != nil {
		return nil, 0, err
	}
	return index, last, nil
}

// PoolExitIntent returns the intent raised by pool for identifier, empty when there is none.
func (s *Staking) PoolExitIntent(pool ledger.Address, identifier ledger.Bytes32) (*intents.Value, error) {
	return s.intentService.Get(intents.Key{Pool: pool, Identifier: identifier})
}

// IsPaused returns whether the contract is paused.
func (s *Staking) IsPaused() (bool, error) {
	return s.accessService.IsPaused()
}

// RoleHolder returns the address holding role.
func (s *Staking) RoleHolder(role access.Role) (ledger.Address, error) {
	return s.accessService.Holder(role)
}

// ContractParameters returns the contract-wide settings.
func (s *Staking) ContractParameters() (*Parameters, error) {
	minStake, err := s.minStake()
	if err != nil {
		return nil, err
	}
	window, err := s.exitWaitWindow()
	if err != nil {
		return nil, err
	}
	index, last, err := s.GlobalIndex()
	if err != nil {
		return nil, err
	}
	total, err := s.TotalStake()
	if err != nil {
		return nil, err
	}
	paused, err := s.IsPaused()
	if err != nil {
		return nil, err
	}

	p := &Parameters{
		MinStake:        minStake,
		ExitWaitWindow:  window,
		GlobalIndex:     index,
		LastIndexUpdate: last,
		TotalStake:      total,
		Paused:          paused,
	}
	for key, dst := range map[ledger.Bytes32]*ledger.Address{
		ledger.KeyRewardSupplier: &p.RewardSupplier,
		ledger.KeyPoolFactory:    &p.PoolFactory,
		ledger.KeyToken:          &p.Token,
	} {
		addr, err := s.params.GetAddress(key)
		if err != nil {
			return nil, err
		}
		*dst = addr
	}
	return p, nil
}

//
// Setup - used when the ledger is created
//

// Initialize records the time rewards start to accrue from and grants the roles.
func (s *Staking) Initialize(now uint64, roles map[access.Role]ledger.Address) {
	s.globalIndexService.Init(now)
	for role, holder := range roles {
		s.accessService.Grant(role, holder)
	}
}
