// Copyright (c) 2018 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package builtin

import (
	"github.com/vechain/stakeledger/builtin/params"
	"github.com/vechain/stakeledger/builtin/pools"
	"github.com/vechain/stakeledger/builtin/staking"
	"github.com/vechain/stakeledger/builtin/supplier"
	"github.com/vechain/stakeledger/builtin/token"
	"github.com/vechain/stakeledger/ledger"
	"github.com/vechain/stakeledger/state"
)

// Builtin contracts binding.
var (
	Params         = &paramsContract{newContract("Params")}
	Token          = &tokenContract{newContract("Token")}
	Staking        = &stakingContract{newContract("Staking")}
	PoolFactory    = &poolFactoryContract{newContract("PoolFactory")}
	RewardSupplier = &supplierContract{newContract("RewardSupplier")}
)

type contract struct {
	Name    string
	Address ledger.Address
}

func newContract(name string) *contract {
	return &contract{name, ledger.BytesToAddress([]byte(name))}
}

type (
	paramsContract      struct{ *contract }
	tokenContract       struct{ *contract }
	stakingContract     struct{ *contract }
	poolFactoryContract struct{ *contract }
	supplierContract    struct{ *contract }
)

func (p *paramsContract) WithState(state *state.State) *params.Params {
	return params.New(p.Address, state)
}

func (t *tokenContract) WithState(state *state.State) *token.Token {
	return token.New(t.Address, state)
}

func (s *stakingContract) WithState(state *state.State) *staking.Staking {
	return Bind(state).Staking
}

func (f *poolFactoryContract) WithState(state *state.State) *pools.Registry {
	return Bind(state).Pools
}

func (s *supplierContract) WithState(state *state.State) *supplier.Supplier {
	return supplier.New(s.Address, state, Token.WithState(state))
}

// Contracts are the builtin contracts bound to one state, wired to each other.
type Contracts struct {
	Params    *params.Params
	Token     *token.Token
	Suppliers *supplier.Resolver
	Pools     *pools.Registry
	Staking   *staking.Staking
}

// Bind binds every builtin contract to state.
func Bind(state *state.State) *Contracts {
	tok := Token.WithState(state)
	suppliers := supplier.NewResolver(state, tok)
	registry := pools.New(PoolFactory.Address, state, tok)

	stk := staking.New(
		Staking.Address,
		state,
		Params.WithState(state),
		tok,
		supplierResolver{suppliers},
		poolFactory{registry},
	)
	registry.Bind(stk)

	return &Contracts{
		Params:    Params.WithState(state),
		Token:     tok,
		Suppliers: suppliers,
		Pools:     registry,
		Staking:   stk,
	}
}

type supplierResolver struct {
	*supplier.Resolver
}

func (r supplierResolver) Supplier(addr ledger.Address) (staking.RewardSupplier, error) {
	s, err := r.Resolver.Supplier(addr)
	if err != nil {
		return nil, err
	}
	return s, nil
}

type poolFactory struct {
	*pools.Registry
}

func (f poolFactory) Pool(addr ledger.Address) (staking.DelegationPool, error) {
	p, err := f.Registry.Pool(addr)
	if err != nil {
		return nil, err
	}
	return p, nil
}
