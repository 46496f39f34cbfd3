// Copyright (c) 2018 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package params

import (
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/stakeledger/ledger"
	"github.com/vechain/stakeledger/lvldb"
	"github.com/vechain/stakeledger/state"
)

func TestParamsGetSet(t *testing.T) {
	kv, err := lvldb.NewMem()
	require.NoError(t, err)
	defer kv.Close()

	st := state.New(kv)
	setv := uint256.NewInt(10)
	key := ledger.BytesToBytes32([]byte("key"))
	p := New(ledger.BytesToAddress([]byte("par")), st)
	p.Set(key, setv)

	getv, err := p.Get(key)
	assert.NoError(t, err)
	assert.Equal(t, setv, getv)

	unset, err := p.Get(ledger.BytesToBytes32([]byte("unset")))
	assert.NoError(t, err)
	assert.True(t, unset.IsZero())
}

func TestParamsAddress(t *testing.T) {
	kv, err := lvldb.NewMem()
	require.NoError(t, err)
	defer kv.Close()

	p := New(ledger.BytesToAddress([]byte("par")), state.New(kv))
	supplier := ledger.BytesToAddress([]byte("supplier"))
	p.SetAddress(ledger.KeyRewardSupplier, supplier)

	got, err := p.GetAddress(ledger.KeyRewardSupplier)
	assert.NoError(t, err)
	assert.Equal(t, supplier, got)
}
