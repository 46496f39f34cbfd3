// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package intents

import (
	"github.com/holiman/uint256"

	"github.com/vechain/stakeledger/ledger"
)

// Key identifies a withdrawal intent raised by a pool for one of its members.
type Key struct {
	Pool       ledger.Address
	Identifier ledger.Bytes32
}

// Bytes implements solidity.Key.
func (k Key) Bytes() []byte {
	b := make([]byte, 0, ledger.AddressLength+32)
	b = append(b, k.Pool[:]...)
	return append(b, k.Identifier[:]...)
}

// Value is the amount leaving the ledger and the earliest time it may be collected.
// A zero amount means no intent.
type Value struct {
	Amount     *uint256.Int
	UnpoolTime uint64
}

// IsEmpty returns whether the entry can be treated as empty.
func (v *Value) IsEmpty() bool {
	return v.Amount == nil || v.Amount.IsZero()
}

func emptyValue() *Value {
	return &Value{Amount: new(uint256.Int)}
}
