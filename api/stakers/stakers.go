// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package stakers

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/vechain/stakeledger/api/utils"
	"github.com/vechain/stakeledger/builtin"
	"github.com/vechain/stakeledger/ledger"
	"github.com/vechain/stakeledger/state"
)

type Stakers struct {
	stater *state.Stater
}

func New(stater *state.Stater) *Stakers {
	return &Stakers{stater}
}

func (s *Stakers) staker(addr ledger.Address) (*Staker, error) {
	info, err := builtin.Staking.WithState(s.stater.NewState()).StakerInfo(addr)
	if err != nil {
		return nil, err
	}
	if info == nil {
		return nil, utils.NotFound(errors.Errorf("staker %v not found", addr))
	}
	return convertStaker(addr, info), nil
}

func (s *Stakers) handleGetStaker(w http.ResponseWriter, req *http.Request) error {
	addr, err := ledger.ParseAddress(mux.Vars(req)["address"])
	if err != nil {
		return utils.BadRequest(errors.WithMessage(err, "address"))
	}
	staker, err := s.staker(addr)
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, staker)
}

func (s *Stakers) handleGetByOperational(w http.ResponseWriter, req *http.Request) error {
	operational, err := ledger.ParseAddress(mux.Vars(req)["address"])
	if err != nil {
		return utils.BadRequest(errors.WithMessage(err, "address"))
	}
	addr, err := builtin.Staking.WithState(s.stater.NewState()).StakerAddressByOperational(operational)
	if err != nil {
		return err
	}
	if addr.IsZero() {
		return utils.NotFound(errors.Errorf("operational address %v is not bound", operational))
	}
	staker, err := s.staker(addr)
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, staker)
}

func (s *Stakers) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("/operational/{address}").
		Methods(http.MethodGet).
		Name("GET /stakers/operational/{address}").
		HandlerFunc(utils.WrapHandlerFunc(s.handleGetByOperational))
	sub.Path("/{address}").
		Methods(http.MethodGet).
		Name("GET /stakers/{address}").
		HandlerFunc(utils.WrapHandlerFunc(s.handleGetStaker))
}
