// Copyright (c) 2018 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package xenv

import (
	"github.com/vechain/stakeledger/ledger"
)

// BlockContext block context.
type BlockContext struct {
	Number uint32
	Time   uint64
}

// Environment an env to execute a ledger operation: who calls and when.
type Environment struct {
	blockCtx *BlockContext
	caller   ledger.Address
}

// New create a new env.
func New(blockCtx *BlockContext, caller ledger.Address) *Environment {
	if blockCtx == nil {
		blockCtx = &BlockContext{}
	}
	return &Environment{
		blockCtx: blockCtx,
		caller:   caller,
	}
}

func (env *Environment) BlockContext() *BlockContext { return env.blockCtx }
func (env *Environment) Caller() ledger.Address      { return env.caller }
func (env *Environment) BlockTime() uint64           { return env.blockCtx.Time }

// WithCaller returns an env in the same block, called by caller.
// Contracts use it when calling into another contract.
func (env *Environment) WithCaller(caller ledger.Address) *Environment {
	return &Environment{
		blockCtx: env.blockCtx,
		caller:   caller,
	}
}
