// Copyright (c) 2018 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package params

import (
	"github.com/holiman/uint256"

	"github.com/vechain/stakeledger/ledger"
	"github.com/vechain/stakeledger/state"
)

// Params binder of `Params` contract.
type Params struct {
	addr  ledger.Address
	state *state.State
}

func New(addr ledger.Address, state *state.State) *Params {
	return &Params{addr, state}
}

// Get native way to get param.
func (p *Params) Get(key ledger.Bytes32) (*uint256.Int, error) {
	storage, err := p.state.GetStorage(p.addr, key)
	if err != nil {
		return nil, err
	}
	return new(uint256.Int).SetBytes32(storage[:]), nil
}

// Set native way to set param.
func (p *Params) Set(key ledger.Bytes32, value *uint256.Int) {
	p.state.SetStorage(p.addr, key, value.Bytes32())
}

// GetAddress reads a param holding an address.
func (p *Params) GetAddress(key ledger.Bytes32) (ledger.Address, error) {
	storage, err := p.state.GetStorage(p.addr, key)
	if err != nil {
		return ledger.Address{}, err
	}
	return ledger.BytesToAddress(storage[:]), nil
}

// SetAddress stores an address as param value.
func (p *Params) SetAddress(key ledger.Bytes32, addr ledger.Address) {
	p.state.SetStorage(p.addr, key, ledger.BytesToBytes32(addr.Bytes()))
}
