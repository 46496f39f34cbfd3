// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package state

import (
	"github.com/pkg/errors"

	"github.com/vechain/stakeledger/kv"
)

// Stage abstracts changes on the main accounts trie.
type Stage struct {
	db      kv.Store
	changes map[storageKey][]byte
}

// Len returns the count of changed slots.
func (s *Stage) Len() int {
	return len(s.changes)
}

// Commit commits all changes into the kv store atomically.
func (s *Stage) Commit() error {
	bulk := s.db.Bulk()
	for key, value := range s.changes {
		var err error
		if len(value) == 0 {
			err = bulk.Delete(key.dbKey())
		} else {
			err = bulk.Put(key.dbKey(), value)
		}
		if err != nil {
			return errors.Wrap(err, "stage")
		}
	}
	if err := bulk.Write(); err != nil {
		return errors.Wrap(err, "commit state")
	}
	return nil
}
