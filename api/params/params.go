// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package params

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/vechain/stakeledger/api/utils"
	"github.com/vechain/stakeledger/builtin"
	"github.com/vechain/stakeledger/ledger"
	"github.com/vechain/stakeledger/state"
)

// Parameters is the json form of the contract-wide settings.
type Parameters struct {
	MinStake        string         `json:"minStake"`
	ExitWaitWindow  uint64         `json:"exitWaitWindow"`
	GlobalIndex     string         `json:"globalIndex"`
	LastIndexUpdate uint64         `json:"lastIndexUpdate"`
	RewardSupplier  ledger.Address `json:"rewardSupplier"`
	PoolFactory     ledger.Address `json:"poolFactory"`
	Token           ledger.Address `json:"token"`
	TotalStake      string         `json:"totalStake"`
	Paused          bool           `json:"paused"`
}

type TotalStake struct {
	TotalStake string `json:"totalStake"`
}

type Intent struct {
	Pool       ledger.Address `json:"pool"`
	Identifier ledger.Bytes32 `json:"identifier"`
	Amount     string         `json:"amount"`
	UnpoolTime uint64         `json:"unpoolTime"`
}

type Params struct {
	stater *state.Stater
}

func New(stater *state.Stater) *Params {
	return &Params{stater}
}

func (p *Params) handleGetParams(w http.ResponseWriter, _ *http.Request) error {
	params, err := builtin.Staking.WithState(p.stater.NewState()).ContractParameters()
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, &Parameters{
		MinStake:        params.MinStake.Dec(),
		ExitWaitWindow:  params.ExitWaitWindow,
		GlobalIndex:     params.GlobalIndex.Dec(),
		LastIndexUpdate: params.LastIndexUpdate,
		RewardSupplier:  params.RewardSupplier,
		PoolFactory:     params.PoolFactory,
		Token:           params.Token,
		TotalStake:      params.TotalStake.Dec(),
		Paused:          params.Paused,
	})
}

func (p *Params) handleGetTotalStake(w http.ResponseWriter, _ *http.Request) error {
	total, err := builtin.Staking.WithState(p.stater.NewState()).TotalStake()
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, &TotalStake{total.Dec()})
}

func (p *Params) handleGetIntent(w http.ResponseWriter, req *http.Request) error {
	vars := mux.Vars(req)
	pool, err := ledger.ParseAddress(vars["pool"])
	if err != nil {
		return utils.BadRequest(errors.WithMessage(err, "pool"))
	}
	identifier, err := ledger.ParseBytes32(vars["identifier"])
	if err != nil {
		return utils.BadRequest(errors.WithMessage(err, "identifier"))
	}
	intent, err := builtin.Staking.WithState(p.stater.NewState()).PoolExitIntent(pool, identifier)
	if err != nil {
		return err
	}
	amount := "0"
	if !intent.IsEmpty() {
		amount = intent.Amount.Dec()
	}
	return utils.WriteJSON(w, &Intent{
		Pool:       pool,
		Identifier: identifier,
		Amount:     amount,
		UnpoolTime: intent.UnpoolTime,
	})
}

// Mount registers the routes directly under root.
func (p *Params) Mount(root *mux.Router) {
	root.Path("/params").
		Methods(http.MethodGet).
		Name("GET /params").
		HandlerFunc(utils.WrapHandlerFunc(p.handleGetParams))
	root.Path("/total-stake").
		Methods(http.MethodGet).
		Name("GET /total-stake").
		HandlerFunc(utils.WrapHandlerFunc(p.handleGetTotalStake))
	root.Path("/intents/{pool}/{identifier}").
		Methods(http.MethodGet).
		Name("GET /intents/{pool}/{identifier}").
		HandlerFunc(utils.WrapHandlerFunc(p.handleGetIntent))
}
