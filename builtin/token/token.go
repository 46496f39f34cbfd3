// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package token implements the fungible token staked in the ledger.
package token

import (
	"github.com/holiman/uint256"
	"github.com/pkg/errors"

	"github.com/vechain/stakeledger/builtin/solidity"
	"github.com/vechain/stakeledger/ledger"
	"github.com/vechain/stakeledger/state"
	"github.com/vechain/stakeledger/xenv"
)

var (
	slotTotalSupply = ledger.Slot("total-supply")
	slotBalances    = ledger.Slot("balances")
	slotAllowances  = ledger.Slot("allowances")

	ErrInsufficientBalance   = errors.New("insufficient balance")
	ErrInsufficientAllowance = errors.New("insufficient allowance")
	ErrZeroRecipient         = errors.New("transfer to the zero address")
	ErrSupplyOverflow        = errors.New("total supply overflow")
)

type allowanceKey struct {
	owner   ledger.Address
	spender ledger.Address
}

func (k allowanceKey) Bytes() []byte {
	return append(k.owner.Bytes(), k.spender.Bytes()...)
}

// Token binder of the token contract.
type Token struct {
	addr        ledger.Address
	totalSupply *solidity.Uint256
	balances    *solidity.Mapping[ledger.Address, *uint256.Int]
	allowances  *solidity.Mapping[allowanceKey, *uint256.Int]
}

func New(addr ledger.Address, state *state.State) *Token {
	sctx := solidity.NewContext(addr, state)
	return &Token{
		addr:        addr,
		totalSupply: solidity.NewUint256(sctx, slotTotalSupply),
		balances:    solidity.NewMapping[ledger.Address, *uint256.Int](sctx, slotBalances),
		allowances:  solidity.NewMapping[allowanceKey, *uint256.Int](sctx, slotAllowances),
	}
}

func (t *Token) Address() ledger.Address {
	return t.addr
}

func (t *Token) TotalSupply() (*uint256.Int, error) {
	return t.totalSupply.Get()
}

func (t *Token) BalanceOf(addr ledger.Address) (*uint256.Int, error) {
	return t.balances.Get(addr)
}

func (t *Token) Allowance(owner, spender ledger.Address) (*uint256.Int, error) {
	return t.allowances.Get(allowanceKey{owner, spender})
}

// Mint creates amount of new tokens owned by to.
func (t *Token) Mint(to ledger.Address, amount *uint256.Int) error {
	if to.IsZero() {
		return ErrZeroRecipient
	}
	if err := t.totalSupply.Add(amount); err != nil {
		return ErrSupplyOverflow
	}
	bal, err := t.balances.Get(to)
	if err != nil {
		return err
	}
	return t.balances.Set(to, new(uint256.Int).Add(bal, amount))
}

// Approve lets spender move up to amount of the caller's tokens.
func (t *Token) Approve(env *xenv.Environment, spender ledger.Address, amount *uint256.Int) error {
	return t.allowances.Set(allowanceKey{env.Caller(), spender}, amount.Clone())
}

// Transfer moves amount from the caller to to.
func (t *Token) Transfer(env *xenv.Environment, to ledger.Address, amount *uint256.Int) error {
	return t.move(env.Caller(), to, amount)
}

// TransferFrom moves amount from from to to, spending the caller's allowance.
func (t *Token) TransferFrom(env *xenv.Environment, from, to ledger.Address, amount *uint256.Int) error {
	key := allowanceKey{from, env.Caller()}
	allowance, err := t.allowances.Get(key)
	if err != nil {
		return err
	}
	if allowance.Lt(amount) {
		return ErrInsufficientAllowance
	}
	if err := t.allowances.Set(key, new(uint256.Int).Sub(allowance, amount)); err != nil {
		return err
	}
	return t.move(from, to, amount)
}

func (t *Token) move(from, to ledger.Address, amount *uint256.Int) error {
	if to.IsZero() {
		return ErrZeroRecipient
	}
	fromBal, err := t.balances.Get(from)
	if err != nil {
		return err
	}
	if fromBal.Lt(amount) {
		return ErrInsufficientBalance
	}
	if err := t.balances.Set(from, new(uint256.Int).Sub(fromBal, amount)); err != nil {
		return err
	}
	toBal, err := t.balances.Get(to)
	if err != nil {
		return err
	}
	return t.balances.Set(to, new(uint256.Int).Add(toBal, amount))
}
