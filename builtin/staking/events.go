// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staking

import (
	"fmt"
	"strconv"

	"github.com/holiman/uint256"

	"github.com/vechain/stakeledger/ledger"
	"github.com/vechain/stakeledger/xenv"
)

// Names of the events emitted by the staking contract.
const (
	EventNewStaker                       = "NewStaker"
	EventStakeBalanceChanged             = "StakeBalanceChanged"
	EventNewDelegationPool               = "NewDelegationPool"
	EventStakerExitIntent                = "StakerExitIntent"
	EventDeleteStaker                    = "DeleteStaker"
	EventStakerRewardClaimed             = "StakerRewardClaimed"
	EventRewardsSuppliedToDelegationPool = "RewardsSuppliedToDelegationPool"
	EventCommissionChanged               = "CommissionChanged"
	EventPoolMemberExitIntent            = "PoolMemberExitIntent"
	EventGlobalIndexUpdated              = "GlobalIndexUpdated"
	EventStakerRewardAddressChanged      = "StakerRewardAddressChanged"
	EventOperationalAddressChanged       = "OperationalAddressChanged"
	EventPaused                          = "Paused"
	EventUnpaused                        = "Unpaused"
	EventMinimumStakeChanged             = "MinimumStakeChanged"
	EventExitWaitWindowChanged           = "ExitWaitWindowChanged"
	EventRewardSupplierChanged           = "RewardSupplierChanged"
)

// Event is a record of something that happened in the staking contract.
// Subject is the account the event is about, usually the staker.
type Event struct {
	Name      string
	Subject   ledger.Address
	BlockNum  uint32
	Timestamp uint64
	Data      map[string]string
}

func newEvent(env *xenv.Environment, name string, subject ledger.Address, kv ...any) *Event {
	data := make(map[string]string, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		data[fmt.Sprint(kv[i])] = formatValue(kv[i+1])
	}
	return &Event{
		Name:      name,
		Subject:   subject,
		BlockNum:  env.BlockContext().Number,
		Timestamp: env.BlockTime(),
		Data:      data,
	}
}

func formatValue(v any) string {
	switch v := v.(type) {
	case *uint256.Int:
		if v == nil {
			return "0"
		}
		return v.Dec()
	case ledger.Address:
		return v.String()
	case ledger.Bytes32:
		return v.String()
	case uint64:
		return strconv.FormatUint(v, 10)
	case uint16:
		return strconv.FormatUint(uint64(v), 10)
	case bool:
		return strconv.FormatBool(v)
	default:
		return fmt.Sprint(v)
	}
}

func (s *Staking) emit(env *xenv.Environment, name string, subject ledger.Address, kv ...any) {
	s.events = append(s.events, newEvent(env, name, subject, kv...))
}

// emitBalanceChanged records the own and pooled stake of a staker before and after a change.
func (s *Staking) emitBalanceChanged(env *xenv.Environment, staker ledger.Address, oldSelf, oldPool, newSelf, newPool *uint256.Int) {
	s.emit(env, EventStakeBalanceChanged, staker,
		"oldSelfStake", oldSelf,
		"oldDelegatedStake", oldPool,
		"newSelfStake", newSelf,
		"newDelegatedStake", newPool,
	)
}
