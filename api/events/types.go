// Copyright (c) 2018 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package events

import (
	"fmt"
	"math"

	"github.com/vechain/stakeledger/ledger"
	"github.com/vechain/stakeledger/logdb"
)

type EventCriteria struct {
	Subject *ledger.Address `json:"subject"`
	Name    *string         `json:"name"`
}

type Range struct {
	Unit string  `json:"unit"`
	From *uint64 `json:"from,omitempty"`
	To   *uint64 `json:"to,omitempty"`
}

type Options struct {
	Offset uint64 `json:"offset"`
	Limit  uint64 `json:"limit"`
}

type EventFilter struct {
	CriteriaSet []*EventCriteria `json:"criteriaSet"`
	Range       *Range           `json:"range"`
	Options     *Options         `json:"options"`
	Order       logdb.Order      `json:"order"`
}

// FilteredEvent is the json form of a stored event.
type FilteredEvent struct {
	Seq         uint64            `json:"seq"`
	Name        string            `json:"name"`
	Subject     ledger.Address    `json:"subject"`
	BlockNumber uint32            `json:"blockNumber"`
	BlockTime   uint64            `json:"blockTime"`
	Data        map[string]string `json:"data"`
}

func convertRange(r *Range) (*logdb.Range, error) {
	if r == nil {
		return nil, nil
	}
	unit := logdb.RangeType(r.Unit)
	switch unit {
	case logdb.Block, logdb.Time:
	case "":
		unit = logdb.Block
	default:
		return nil, fmt.Errorf("unknown range unit %q", r.Unit)
	}
	rng := &logdb.Range{Unit: unit, To: math.MaxInt64}
	if unit == logdb.Block {
		rng.To = math.MaxUint32
	}
	if r.From != nil {
		rng.From = *r.From
	}
	if r.To != nil {
		rng.To = min(*r.To, rng.To)
	}
	if rng.From > rng.To {
		return nil, fmt.Errorf("range.to must be greater than or equal to range.from")
	}
	return rng, nil
}

func convertFilter(ef *EventFilter) (*logdb.EventFilter, error) {
	rng, err := convertRange(ef.Range)
	if err != nil {
		return nil, err
	}
	filter := &logdb.EventFilter{
		Range: rng,
		Order: ef.Order,
	}
	if ef.Options != nil {
		filter.Options = &logdb.Options{Offset: ef.Options.Offset, Limit: ef.Options.Limit}
	}
	for _, c := range ef.CriteriaSet {
		filter.CriteriaSet = append(filter.CriteriaSet, &logdb.EventCriteria{Subject: c.Subject, Name: c.Name})
	}
	return filter, nil
}

func convertEvent(e *logdb.Event) *FilteredEvent {
	return &FilteredEvent{
		Seq:         e.Seq,
		Name:        e.Name,
		Subject:     e.Subject,
		BlockNumber: e.BlockNumber,
		BlockTime:   e.BlockTime,
		Data:        e.Data,
	}
}
