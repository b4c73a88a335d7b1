// Copyright (C) 2019-2024 Algorand, Inc.
// This file is part of go-algorand
//
// go-algorand is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// go-algorand is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with go-algorand.  If not, see <https://www.gnu.org/licenses/>.

package ledger

import (
	"errors"
	"fmt"
	"sort"

	"github.com/algorand/go-deadlock"
)

// ErrVersionOrder is returned when a committed snapshot does not directly follow the latest one.
var ErrVersionOrder = errors.New("snapshot does not follow the latest committed version")

// DefaultHistoryLimit bounds the number of snapshots retained by a DB.
const DefaultHistoryLimit = 1024

// CommitHook observes every snapshot appended to a DB.
type CommitHook func(Snapshot)

// DB is the append-only history of committed snapshots of one agent.
// Snapshots are only ever appended by the agreement engine; readers may
// access it concurrently.
type DB struct {
	mu deadlock.RWMutex

	history         []Snapshot
	setup           Pairs
	crossPeriodKeys map[string]bool
	historyLimit    int
	hooks           []CommitHook
}

// MakeDB creates a DB whose first snapshot holds setup. Keys listed in
// crossPeriodKeys survive period resets; every other key is reset to its
// setup value (or removed when it has none).
func MakeDB(setup Pairs, crossPeriodKeys []string) *DB {
	db := &DB{
		setup:           make(Pairs, len(setup)),
		crossPeriodKeys: make(map[string]bool, len(crossPeriodKeys)),
		historyLimit:    DefaultHistoryLimit,
	}
	for k, v := range setup {
		db.setup[k] = v
	}
	for _, k := range crossPeriodKeys {
		db.crossPeriodKeys[k] = true
	}
	db.history = []Snapshot{MakeSnapshot(0, setup)}
	return db
}

// AddCommitHook registers fn to be called after each commit or reset.
func (db *DB) AddCommitHook(fn CommitHook) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.hooks = append(db.hooks, fn)
}

// SetHistoryLimit changes how many snapshots are retained; older ones are dropped.
func (db *DB) SetHistoryLimit(n int) {
	db.mu.Lock()
	defer db.mu.Unlock()
	if n < 1 {
		n = 1
	}
	db.historyLimit = n
	db.trim()
}

// Latest returns the most recent snapshot.
func (db *DB) Latest() Snapshot {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return db.history[len(db.history)-1]
}

// At returns the retained snapshot with the given version.
func (db *DB) At(version uint64) (Snapshot, bool) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	i := sort.Search(len(db.history), func(i int) bool { return db.history[i].version >= version })
	if i < len(db.history) && db.history[i].version == version {
		return db.history[i], true
	}
	return Snapshot{}, false
}

// Len returns the number of retained snapshots.
func (db *DB) Len() int {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return len(db.history)
}

// CrossPeriodKeys returns the keys preserved by ResetPeriod, sorted.
func (db *DB) CrossPeriodKeys() []string {
	keys := make([]string, 0, len(db.crossPeriodKeys))
	for k := range db.crossPeriodKeys {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Commit appends s, which must be derived from the latest snapshot by Update.
func (db *DB) Commit(s Snapshot) error {
	db.mu.Lock()
	latest := db.history[len(db.history)-1]
	if s.period != latest.period || s.version != latest.version+1 {
		db.mu.Unlock()
		return fmt.Errorf("%w: latest is %d/%d, got %d/%d", ErrVersionOrder, latest.period, latest.version, s.period, s.version)
	}
	db.append(s)
	hooks := db.hooks
	db.mu.Unlock()

	for _, fn := range hooks {
		fn(s)
	}
	return nil
}

// ResetPeriod starts a new period. Cross-period keys are copied from the
// latest snapshot, every other key returns to its setup value, and extra is
// layered on top.
func (db *DB) ResetPeriod(extra Pairs) Snapshot {
	db.mu.Lock()
	latest := db.history[len(db.history)-1]
	data := make(Pairs, len(db.setup)+len(db.crossPeriodKeys))
	for k, v := range db.setup {
		data[k] = v
	}
	for k := range db.crossPeriodKeys {
		if v, ok := latest.data[k]; ok {
			data[k] = v
		}
	}
	for k, v := range extra {
		data[k] = v
	}
	next := MakeSnapshot(latest.period+1, data)
	next.version = latest.version + 1
	db.append(next)
	hooks := db.hooks
	db.mu.Unlock()

	for _, fn := range hooks {
		fn(next)
	}
	return next
}

// Restore replaces the history with s, used when reloading persisted state.
func (db *DB) Restore(s Snapshot) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.history = []Snapshot{s}
}

func (db *DB) append(s Snapshot) {
	db.history = append(db.history, s)
	db.trim()
}

func (db *DB) trim() {
	if extra := len(db.history) - db.historyLimit; extra > 0 {
		db.history = append([]Snapshot(nil), db.history[extra:]...)
	}
}
