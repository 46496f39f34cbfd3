// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package solidity

import (
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"

	"github.com/vechain/stakeledger/ledger"
)

func TestUint256(t *testing.T) {
	ctx := newTestContext(t)
	u := NewUint256(ctx, ledger.Bytes32{0o1})

	value, err := u.Get()
	assert.NoError(t, err)
	assert.True(t, value.IsZero())

	// test `Set`
	u.Set(uint256.NewInt(1000))
	value, err = u.Get()
	assert.NoError(t, err)
	assert.Equal(t, uint256.NewInt(1000), value)

	// test `Add`
	assert.NoError(t, u.Add(uint256.NewInt(500)))
	value, err = u.Get()
	assert.NoError(t, err)
	assert.Equal(t, uint256.NewInt(1500), value)

	// test `Sub`
	assert.NoError(t, u.Sub(uint256.NewInt(200)))
	value, err = u.Get()
	assert.NoError(t, err)
	assert.Equal(t, uint256.NewInt(1300), value)
}

func TestUint256CheckedArithmetic(t *testing.T) {
	ctx := newTestContext(t)
	u := NewUint256(ctx, ledger.Bytes32{0o2})

	u.Set(uint256.NewInt(10))
	assert.ErrorIs(t, u.Sub(uint256.NewInt(11)), ErrUnderflow)

	value, _ := u.Get()
	assert.Equal(t, uint256.NewInt(10), value, "failed sub must not write")

	maxVal := new(uint256.Int).SetAllOne()
	u.Set(maxVal)
	assert.ErrorIs(t, u.Add(uint256.NewInt(1)), ErrOverflow)

	value, _ = u.Get()
	assert.Equal(t, maxVal, value)
}

func TestUint64BoolAddress(t *testing.T) {
	ctx := newTestContext(t)

	u := NewUint64(ctx, ledger.Bytes32{0o3})
	u.Set(1_700_000_000)
	v, err := u.Get()
	assert.NoError(t, err)
	assert.Equal(t, uint64(1_700_000_000), v)

	b := NewBool(ctx, ledger.Bytes32{0o4})
	flag, err := b.Get()
	assert.NoError(t, err)
	assert.False(t, flag)
	b.Set(true)
	flag, _ = b.Get()
	assert.True(t, flag)
	b.Set(false)
	flag, _ = b.Get()
	assert.False(t, flag)

	a := NewAddress(ctx, ledger.Bytes32{0o5})
	addr := ledger.BytesToAddress([]byte("someone"))
	a.Set(&addr)
	got, err := a.Get()
	assert.NoError(t, err)
	assert.Equal(t, addr, got)
	a.Set(nil)
	got, _ = a.Get()
	assert.True(t, got.IsZero())
}
