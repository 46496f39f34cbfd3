// Copyright (c) 2018 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package genesis

import (
	"github.com/pkg/errors"

	"github.com/vechain/stakeledger/state"
)

// Builder helper to build genesis state.
type Builder struct {
	timestamp  uint64
	stateProcs []func(state *state.State) error
}

// Timestamp set timestamp.
func (b *Builder) Timestamp(t uint64) *Builder {
	b.timestamp = t
	return b
}

// State add a state process
func (b *Builder) State(proc func(state *state.State) error) *Builder {
	b.stateProcs = append(b.stateProcs, proc)
	return b
}

// Build runs the state processes in order. Nothing is written when one fails.
func (b *Builder) Build(st *state.State) error {
	checkpoint := st.NewCheckpoint()
	for _, proc := range b.stateProcs {
		if err := proc(st); err != nil {
			st.RevertTo(checkpoint)
			return errors.Wrap(err, "state process")
		}
	}
	return nil
}
