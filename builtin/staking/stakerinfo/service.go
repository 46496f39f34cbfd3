// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package stakerinfo

import (
	"github.com/pkg/errors"

	"github.com/vechain/stakeledger/builtin/solidity"
	"github.com/vechain/stakeledger/ledger"
)

var (
	slotStakers          = ledger.Slot("stakers")
	slotOperationalIndex = ledger.Slot("operational-addresses")
)

// Service stores staker positions keyed by staker address, plus the reverse
// lookup from operational address to staker.
type Service struct {
	stakers     *solidity.Mapping[ledger.Address, *record]
	operational *solidity.Mapping[ledger.Address, ledger.Address]
}

func New(sctx *solidity.Context) *Service {
	return &Service{
		stakers:     solidity.NewMapping[ledger.Address, *record](sctx, slotStakers),
		operational: solidity.NewMapping[ledger.Address, ledger.Address](sctx, slotOperationalIndex),
	}
}

// Get returns the staker info, nil when the staker does not exist.
func (s *Service) Get(staker ledger.Address) (*StakerInfo, error) {
	r, err := s.stakers.Get(staker)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get staker info")
	}
	return r.info, nil
}

func (s *Service) Set(staker ledger.Address, info *StakerInfo) error {
	if err := s.stakers.Set(staker, &record{info}); err != nil {
		return errors.Wrap(err, "failed to set staker info")
	}
	return nil
}

func (s *Service) Delete(staker ledger.Address) {
	s.stakers.Delete(staker)
}

// StakerByOperational returns the staker bound to the operational address, zero when unbound.
func (s *Service) StakerByOperational(operational ledger.Address) (ledger.Address, error) {
	staker, err := s.operational.Get(operational)
	if err != nil {
		return ledger.Address{}, errors.Wrap(err, "failed to get operational address")
	}
	return staker, nil
}

func (s *Service) BindOperational(operational, staker ledger.Address) error {
	if err := s.operational.Set(operational, staker); err != nil {
		return errors.Wrap(err, "failed to bind operational address")
	}
	return nil
}

func (s *Service) UnbindOperational(operational ledger.Address) {
	s.operational.Delete(operational)
}
