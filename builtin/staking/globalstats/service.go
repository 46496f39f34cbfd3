// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package globalstats

import (
	"github.com/holiman/uint256"
	"github.com/pkg/errors"

	"github.com/vechain/stakeledger/builtin/solidity"
	"github.com/vechain/stakeledger/builtin/staking/reverts"
	"github.com/vechain/stakeledger/ledger"
)

var (
	slotTotalStake = ledger.Slot("total-stake")

	ErrTotalStakeUnderflow = reverts.NewArithmetic("total stake underflow")
	ErrTotalStakeOverflow  = reverts.NewArithmetic("total stake overflow")
)

// Service manages contract-wide staking totals.
// The total covers own and delegated stake of every staker that is not exiting.
type Service struct {
	totalStake *solidity.Uint256
}

func New(sctx *solidity.Context) *Service {
	return &Service{
		totalStake: solidity.NewUint256(sctx, slotTotalStake),
	}
}

// TotalStake returns the stake currently earning rewards.
func (s *Service) TotalStake() (*uint256.Int, error) {
	return s.totalStake.Get()
}

// Add increases the total stake.
func (s *Service) Add(amount *uint256.Int) error {
	return mapErr(s.totalStake.Add(amount))
}

// Sub decreases the total stake.
func (s *Service) Sub(amount *uint256.Int) error {
	return mapErr(s.totalStake.Sub(amount))
}

// Replace applies total = total + increase - decrease without exposing the intermediate value.
func (s *Service) Replace(increase, decrease *uint256.Int) error {
	total, err := s.totalStake.Get()
	if err != nil {
		return err
	}
	if _, overflow := total.AddOverflow(total, increase); overflow {
		return ErrTotalStakeOverflow
	}
	if _, underflow := total.SubOverflow(total, decrease); underflow {
		return ErrTotalStakeUnderflow
	}
	s.totalStake.Set(total)
	return nil
}

func mapErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, solidity.ErrUnderflow):
		return ErrTotalStakeUnderflow
	case errors.Is(err, solidity.ErrOverflow):
		return ErrTotalStakeOverflow
	default:
		return errors.Wrap(err, "total stake")
	}
}
