// Copyright (c) 2018 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package logdb

import (
	"context"
	"database/sql"
	"encoding/json"

	sqlite3 "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"

	"github.com/vechain/stakeledger/builtin/staking"
	"github.com/vechain/stakeledger/ledger"
	"github.com/vechain/stakeledger/log"
)

var logger = log.WithContext("pkg", "logdb")

const insertEventQuery = "INSERT INTO event(name, subject, blockNumber, blockTime, data) VALUES(?, ?, ?, ?, ?)"

// LogDB persists the events emitted by the staking contract.
type LogDB struct {
	path          string
	db            *sql.DB
	driverVersion string
	queries       *queryCache
}

// New create or open log db at given path.
func New(path string) (logDB *LogDB, err error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	defer func() {
		if logDB == nil {
			db.Close()
		}
	}()
	// an in-memory database lives as long as its single connection
	if path == ":memory:" {
		db.SetMaxOpenConns(1)
	}
	if _, err := db.Exec(eventTableSchema); err != nil {
		return nil, err
	}

	driverVer, _, _ := sqlite3.Version()
	return &LogDB{
		path:          path,
		db:            db,
		driverVersion: driverVer,
		queries:       newQueryCache(db),
	}, nil
}

// NewMem create a log db in ram.
func NewMem() (*LogDB, error) {
	return New(":memory:")
}

// Close close the log db.
func (db *LogDB) Close() error {
	db.queries.Clear()
	return db.db.Close()
}

func (db *LogDB) Path() string {
	return db.path
}

// DriverVersion returns the version of the sqlite library in use.
func (db *LogDB) DriverVersion() string {
	return db.driverVersion
}

// HandleEvents stores a batch of events atomically.
func (db *LogDB) HandleEvents(events []*staking.Event) error {
	if len(events) == 0 {
		return nil
	}
	err := db.execInTx(func(tx *sql.Tx) error {
		// prepared on the transaction: an in-memory db has no second connection to prepare on
		stmt, err := tx.Prepare(insertEventQuery)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for _, ev := range events {
			data, err := json.Marshal(ev.Data)
			if err != nil {
				return errors.Wrapf(err, "encode event %v", ev.Name)
			}
			if _, err := stmt.Exec(
				ev.Name,
				ev.Subject.Bytes(),
				ev.BlockNum,
				ev.Timestamp,
				string(data),
			); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		logger.Warn("failed to store events", "count", len(events), "err", err)
		return err
	}
	metricInsertedEvents().Add(int64(len(events)))
	return nil
}

// FilterEvents returns the stored events matching the filter.
func (db *LogDB) FilterEvents(ctx context.Context, filter *EventFilter) ([]*Event, error) {
	if filter == nil {
		return db.queryEvents(ctx, "SELECT * FROM event ORDER BY seq ASC")
	}
	metricsHandleEventsFilter(filter)

	var args []any
	stmt := "SELECT * FROM event WHERE 1"
	condition := "blockNumber"
	if filter.Range != nil {
		switch filter.Range.Unit {
		case Time:
			condition = "blockTime"
		case Seq:
			condition = "seq"
		}
		args = append(args, filter.Range.From)
		stmt += " AND " + condition + " >= ? "
		if filter.Range.To >= filter.Range.From {
			args = append(args, filter.Range.To)
			stmt += " AND " + condition + " <= ? "
		}
	}
	length := len(filter.CriteriaSet)
	for i, criteria := range filter.CriteriaSet {
		if i == 0 {
			stmt += " AND (( 1 "
		} else {
			stmt += " OR ( 1 "
		}
		if criteria.Subject != nil {
			args = append(args, criteria.Subject.Bytes())
			stmt += " AND subject = ? "
		}
		if criteria.Name != nil {
			args = append(args, *criteria.Name)
			stmt += " AND name = ? "
		}
		if i == length-1 {
			stmt += " )) "
		} else {
			stmt += " ) "
		}
	}

	if filter.Order == DESC {
		stmt += " ORDER BY seq DESC "
	} else {
		stmt += " ORDER BY seq ASC "
	}

	if filter.Options != nil {
		stmt += " limit ?, ? "
		args = append(args, filter.Options.Offset, filter.Options.Limit)
	}
	return db.queryEvents(ctx, stmt, args...)
}

func (db *LogDB) queryEvents(ctx context.Context, stmt string, args ...any) ([]*Event, error) {
	rows, err := db.queries.Query(ctx, stmt, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []*Event
	for rows.Next() {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
		var (
			seq         uint64
			name        string
			subject     []byte
			blockNumber uint32
			blockTime   uint64
			data        string
		)
		if err := rows.Scan(
			&seq,
			&name,
			&subject,
			&blockNumber,
			&blockTime,
			&data,
		); err != nil {
			return nil, err
		}
		event := &Event{
			Seq:         seq,
			Name:        name,
			Subject:     ledger.BytesToAddress(subject),
			BlockNumber: blockNumber,
			BlockTime:   blockTime,
		}
		if err := json.Unmarshal([]byte(data), &event.Data); err != nil {
			return nil, errors.Wrapf(err, "decode event %v", seq)
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return events, nil
}

func (db *LogDB) execInTx(proc func(*sql.Tx) error) (err error) {
	tx, err := db.db.Begin()
	if err != nil {
		return err
	}
	if err := proc(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}
