// Copyright (c) 2020 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package logdb

import (
	"context"
	"database/sql"
	"sync"
)

// filters built from one criteria shape share a query text, so only a few dozen ever exist.
const maxCachedQueries = 64

// queryCache keeps prepared filter queries keyed by their text.
// It is never used inside a transaction.
type queryCache struct {
	db *sql.DB

	mu    sync.Mutex
	stmts map[string]*sql.Stmt
}

func newQueryCache(db *sql.DB) *queryCache {
	return &queryCache{db: db, stmts: make(map[string]*sql.Stmt)}
}

// Query runs query with args, preparing it on first use.
// Once the cache is full, uncached queries run unprepared.
func (qc *queryCache) Query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	stmt, err := qc.prepare(ctx, query)
	if err != nil {
		return nil, err
	}
	if stmt == nil {
		return qc.db.QueryContext(ctx, query, args...)
	}
	return stmt.QueryContext(ctx, args...)
}

func (qc *queryCache) prepare(ctx context.Context, query string) (*sql.Stmt, error) {
	qc.mu.Lock()
	defer qc.mu.Unlock()

	if stmt, ok := qc.stmts[query]; ok {
		return stmt, nil
	}
	if len(qc.stmts) >= maxCachedQueries {
		return nil, nil
	}
	stmt, err := qc.db.PrepareContext(ctx, query)
	if err != nil {
		return nil, err
	}
	qc.stmts[query] = stmt
	return stmt, nil
}

// Len returns the number of prepared queries.
func (qc *queryCache) Len() int {
	qc.mu.Lock()
	defer qc.mu.Unlock()
	return len(qc.stmts)
}

func (qc *queryCache) Clear() {
	qc.mu.Lock()
	defer qc.mu.Unlock()

	for query, stmt := range qc.stmts {
		_ = stmt.Close()
		delete(qc.stmts, query)
	}
}
