// Copyright (c) 2018 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package logdb

// create a table for staking events
const eventTableSchema = `CREATE TABLE IF NOT EXISTS event (
	seq INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL,
	subject BLOB(20) NOT NULL,
	blockNumber INTEGER NOT NULL,
	blockTime INTEGER NOT NULL,
	data TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS event_i0 ON event(subject, seq);
CREATE INDEX IF NOT EXISTS event_i1 ON event(name, seq);
CREATE INDEX IF NOT EXISTS event_i2 ON event(blockNumber);
CREATE INDEX IF NOT EXISTS event_i3 ON event(blockTime);
`
