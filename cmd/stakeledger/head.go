// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/pkg/errors"

	"github.com/vechain/stakeledger/ledger"
	"github.com/vechain/stakeledger/state"
)

var (
	headAddress = ledger.BytesToAddress([]byte("LedgerHead"))
	headSlot    = ledger.Blake2b([]byte("head"))
)

// head is the block context of the last committed operation. Every committed
// operation is a block of its own. It lives in the state, so it is committed
// together with the changes of the operation.
type head struct {
	Number uint32
	Time   uint64
}

func loadHead(st *state.State) (*head, error) {
	var h head
	err := st.DecodeStorage(headAddress, headSlot, func(raw []byte) error {
		if len(raw) == 0 {
			return errors.New("ledger head missing")
		}
		return rlp.DecodeBytes(raw, &h)
	})
	if err != nil {
		return nil, errors.Wrap(err, "load ledger head")
	}
	return &h, nil
}

func saveHead(st *state.State, h *head) error {
	return st.EncodeStorage(headAddress, headSlot, func() ([]byte, error) {
		return rlp.EncodeToBytes(h)
	})
}

// next returns the head an operation executing at now builds.
func (h *head) next(now uint64) (*head, error) {
	if now < h.Time {
		return nil, errors.Errorf("time %v is before the last operation at %v", now, h.Time)
	}
	return &head{Number: h.Number + 1, Time: now}, nil
}
