// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package state manages the contract storage of the ledger.
//
// Storage is addressed by (contract address, 32 bytes slot). Every write is journaled so that
// a whole operation can be reverted to a checkpoint, and the surviving changes are flushed to
// the underlying kv store in a single bulk by Stage().Commit().
package state
