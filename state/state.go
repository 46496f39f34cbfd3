// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package state

import (
	"bytes"
	"fmt"

	"github.com/ethereum/go-ethereum/rlp"

	"github.com/vechain/stakeledger/cache"
	"github.com/vechain/stakeledger/kv"
	"github.com/vechain/stakeledger/ledger"
	"github.com/vechain/stakeledger/stackedmap"
)

const (
	storageKeyPrefix = 's'
	readCacheSize    = 1024
)

// Error is the error caused by state access failure.
type Error struct {
	cause error
}

func (e *Error) Error() string {
	return fmt.Sprintf("state: %v", e.cause)
}

func (e *Error) Unwrap() error {
	return e.cause
}

type storageKey struct {
	addr ledger.Address
	key  ledger.Bytes32
}

func (k storageKey) dbKey() []byte {
	buf := make([]byte, 0, 1+ledger.AddressLength+32)
	buf = append(buf, storageKeyPrefix)
	buf = append(buf, k.addr[:]...)
	return append(buf, k.key[:]...)
}

// State manages the contract storage.
type State struct {
	db    kv.Store
	cache *cache.LRU                                // cache of persisted raw values
	sm    *stackedmap.StackedMap[storageKey, []byte] // keeps revisions of storage
}

// New create state object.
func New(db kv.Store) *State {
	lru, err := cache.NewLRU(readCacheSize)
	if err != nil {
		// only a size below 1 fails
		panic(fmt.Errorf("failed to create state read cache: %v", err))
	}
	s := &State{
		db:    db,
		cache: lru,
	}
	s.sm = stackedmap.New(s.load)
	s.sm.Push() // base level
	return s
}

// load implements stackedmap.MapGetter.
func (s *State) load(key storageKey) ([]byte, bool, error) {
	v, err := s.cache.GetOrLoad(key, func(any) (any, error) {
		return kv.GetOrNil(s.db, key.dbKey())
	})
	if err != nil {
		return nil, false, err
	}
	raw, _ := v.([]byte)
	return raw, true, nil
}

// GetRawStorage returns storage value in rlp raw for given address and key.
func (s *State) GetRawStorage(addr ledger.Address, key ledger.Bytes32) (rlp.RawValue, error) {
	data, _, err := s.sm.Get(storageKey{addr, key})
	if err != nil {
		return nil, &Error{err}
	}
	return data, nil
}

// SetRawStorage set storage value in rlp raw.
func (s *State) SetRawStorage(addr ledger.Address, key ledger.Bytes32, raw rlp.RawValue) {
	s.sm.Put(storageKey{addr, key}, raw)
}

// GetStorage returns storage value for the given address and key.
func (s *State) GetStorage(addr ledger.Address, key ledger.Bytes32) (ledger.Bytes32, error) {
	raw, err := s.GetRawStorage(addr, key)
	if err != nil {
		return ledger.Bytes32{}, err
	}
	if len(raw) == 0 {
		return ledger.Bytes32{}, nil
	}
	kind, content, _, err := rlp.Split(raw)
	if err != nil {
		return ledger.Bytes32{}, &Error{err}
	}
	if kind == rlp.List {
		// special case for rlp list, it should be customized storage value
		// return hash of raw data
		return ledger.Blake2b(raw), nil
	}
	return ledger.BytesToBytes32(content), nil
}

// SetStorage set storage value for the given address and key.
func (s *State) SetStorage(addr ledger.Address, key, value ledger.Bytes32) {
	if value.IsZero() {
		s.SetRawStorage(addr, key, nil)
		return
	}
	v, _ := rlp.EncodeToBytes(bytes.TrimLeft(value[:], "\x00"))
	s.SetRawStorage(addr, key, v)
}

// EncodeStorage set storage value encoded by given enc method.
// Error returned by enc will be absorbed by State instance.
func (s *State) EncodeStorage(addr ledger.Address, key ledger.Bytes32, enc func() ([]byte, error)) error {
	raw, err := enc()
	if err != nil {
		return &Error{err}
	}
	s.SetRawStorage(addr, key, raw)
	return nil
}

// DecodeStorage get and decode storage value.
// Error returned by dec will be passed through.
func (s *State) DecodeStorage(addr ledger.Address, key ledger.Bytes32, dec func([]byte) error) error {
	raw, err := s.GetRawStorage(addr, key)
	if err != nil {
		return err
	}
	return dec(raw)
}

// NewCheckpoint makes a checkpoint of current state.
// It returns revision of the checkpoint.
func (s *State) NewCheckpoint() int {
	return s.sm.Push()
}

// RevertTo revert to checkpoint specified by revision.
func (s *State) RevertTo(revision int) {
	if revision < 1 || revision > s.sm.Depth() {
		panic(fmt.Sprintf("invalid checkpoint revision %d", revision))
	}
	s.sm.PopTo(revision)
}

// Stage collects the latest value of every changed slot, ready to be committed.
func (s *State) Stage() *Stage {
	changes := make(map[storageKey][]byte)
	s.sm.Journal(func(key storageKey, value []byte) bool {
		changes[key] = value
		return true
	})
	return &Stage{db: s.db, changes: changes}
}
