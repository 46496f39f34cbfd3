// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package intents

import (
	"github.com/holiman/uint256"
	"github.com/pkg/errors"

	"github.com/vechain/stakeledger/builtin/solidity"
	"github.com/vechain/stakeledger/builtin/staking/reverts"
	"github.com/vechain/stakeledger/ledger"
)

var (
	slotIntents = ledger.Slot("undelegate-intents")

	ErrInvalidIntent = reverts.NewInvariant("invalid undelegate intent value")
)

type Service struct {
	intents *solidity.Mapping[Key, *Value]
}

func New(sctx *solidity.Context) *Service {
	return &Service{
		intents: solidity.NewMapping[Key, *Value](sctx, slotIntents),
	}
}

// Get returns the intent stored under key, an empty value when absent.
// A stored value must either be fully empty or carry both an amount and an unpool time.
func (s *Service) Get(key Key) (*Value, error) {
	v, err := s.intents.Get(key)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get intent")
	}
	if v.Amount == nil {
		v.Amount = new(uint256.Int)
	}
	if v.Amount.IsZero() != (v.UnpoolTime == 0) {
		return nil, ErrInvalidIntent
	}
	return v, nil
}

// Set records the intent, an empty value clears it.
func (s *Service) Set(key Key, value *Value) error {
	if value.IsEmpty() {
		s.Clear(key)
		return nil
	}
	if value.UnpoolTime == 0 {
		return ErrInvalidIntent
	}
	if err := s.intents.Set(key, value); err != nil {
		return errors.Wrap(err, "failed to set intent")
	}
	return nil
}

func (s *Service) Clear(key Key) {
	s.intents.Delete(key)
}

// Reduce lowers the intent amount, clearing it once nothing is left.
func (s *Service) Reduce(key Key, amount *uint256.Int) (*Value, error) {
	v, err := s.Get(key)
	if err != nil {
		return nil, err
	}
	if v.Amount.Lt(amount) {
		return nil, solidity.ErrUnderflow
	}
	v.Amount = new(uint256.Int).Sub(v.Amount, amount)
	if v.IsEmpty() {
		s.Clear(key)
		return emptyValue(), nil
	}
	return v, s.Set(key, v)
}
