// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package access

import (
	"github.com/vechain/stakeledger/builtin/solidity"
	"github.com/vechain/stakeledger/ledger"
)

// Role names a privileged identity of the staking contract.
type Role uint8

const (
	SecurityAdmin Role = iota + 1 // may unpause
	SecurityAgent                 // may pause
	AppGovernor                   // may change contract parameters
)

func (r Role) String() string {
	switch r {
	case SecurityAdmin:
		return "security-admin"
	case SecurityAgent:
		return "security-agent"
	case AppGovernor:
		return "app-governor"
	default:
		return "unknown"
	}
}

var slotPaused = ledger.Slot("paused")

// Service keeps the pause flag and the role holders.
type Service struct {
	paused *solidity.Bool
	roles  map[Role]*solidity.Address
}

func New(sctx *solidity.Context) *Service {
	roles := make(map[Role]*solidity.Address)
	for _, r := range []Role{SecurityAdmin, SecurityAgent, AppGovernor} {
		roles[r] = solidity.NewAddress(sctx, ledger.Slot("role-"+r.String()))
	}
	return &Service{
		paused: solidity.NewBool(sctx, slotPaused),
		roles:  roles,
	}
}

func (s *Service) IsPaused() (bool, error) {
	return s.paused.Get()
}

func (s *Service) SetPaused(paused bool) {
	s.paused.Set(paused)
}

// Holder returns the address holding the role.
func (s *Service) Holder(role Role) (ledger.Address, error) {
	slot, ok := s.roles[role]
	if !ok {
		return ledger.Address{}, nil
	}
	return slot.Get()
}

// Grant assigns the role to addr, replacing the previous holder.
func (s *Service) Grant(role Role, addr ledger.Address) {
	if slot, ok := s.roles[role]; ok {
		slot.Set(&addr)
	}
}

// HasRole reports whether addr holds the role. The zero address never holds a role.
func (s *Service) HasRole(role Role, addr ledger.Address) (bool, error) {
	if addr.IsZero() {
		return false, nil
	}
	holder, err := s.Holder(role)
	if err != nil {
		return false, err
	}
	return holder == addr, nil
}
