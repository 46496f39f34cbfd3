// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package subscriptions

import (
	"context"
	"strconv"

	"github.com/vechain/stakeledger/ledger"
	"github.com/vechain/stakeledger/logdb"
)

// EventMessage is the json form of an event pushed to subscribers.
type EventMessage struct {
	Seq         uint64            `json:"seq"`
	Name        string            `json:"name"`
	Subject     ledger.Address    `json:"subject"`
	BlockNumber uint32            `json:"blockNumber"`
	BlockTime   uint64            `json:"blockTime"`
	Data        map[string]string `json:"data"`
}

type eventReader struct {
	db       *logdb.LogDB
	pos      uint64 // seq of the last event read
	criteria *logdb.EventCriteria
}

func newEventReader(db *logdb.LogDB, pos uint64, criteria *logdb.EventCriteria) *eventReader {
	return &eventReader{
		db:       db,
		pos:      pos,
		criteria: criteria,
	}
}

// Read returns up to readBatch matching events stored after the last one read.
func (er *eventReader) Read(ctx context.Context) ([]*EventMessage, error) {
	events, err := er.db.FilterEvents(ctx, &logdb.EventFilter{
		CriteriaSet: []*logdb.EventCriteria{er.criteria},
		Range:       &logdb.Range{Unit: logdb.Seq, From: er.pos + 1},
		Options:     &logdb.Options{Limit: readBatch},
	})
	if err != nil {
		return nil, err
	}
	msgs := make([]*EventMessage, 0, len(events))
	for _, ev := range events {
		msgs = append(msgs, &EventMessage{
			Seq:         ev.Seq,
			Name:        ev.Name,
			Subject:     ev.Subject,
			BlockNumber: ev.BlockNumber,
			BlockTime:   ev.BlockTime,
			Data:        ev.Data,
		})
		er.pos = ev.Seq
	}
	return msgs, nil
}

func parseSeq(s string) (uint64, error) {
	return strconv.ParseUint(s, 10, 63)
}
