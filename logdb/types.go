// Copyright (c) 2018 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package logdb

import (
	"github.com/vechain/stakeledger/ledger"
)

// Event is a staking event stored in db.
type Event struct {
	Seq         uint64
	Name        string
	Subject     ledger.Address
	BlockNumber uint32
	BlockTime   uint64
	Data        map[string]string
}

type RangeType string

const (
	Block RangeType = "block"
	Time  RangeType = "time"
	Seq   RangeType = "seq"
)

type Order string

const (
	ASC  Order = "asc"
	DESC Order = "desc"
)

type Range struct {
	Unit RangeType
	From uint64
	To   uint64
}

type Options struct {
	Offset uint64
	Limit  uint64
}

// EventCriteria matches events by subject and name. Nil fields match anything.
type EventCriteria struct {
	Subject *ledger.Address
	Name    *string
}

// EventFilter filter
type EventFilter struct {
	CriteriaSet []*EventCriteria
	Range       *Range
	Options     *Options
	Order       Order // default asc
}
