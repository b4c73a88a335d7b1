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
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"

	"github.com/golang/snappy"

	"github.com/aytunc-tunay/ETHGlobal-Trifecta/logging"
	"github.com/aytunc-tunay/ETHGlobal-Trifecta/logging/logspec"
	"github.com/aytunc-tunay/ETHGlobal-Trifecta/protocol"
	"github.com/aytunc-tunay/ETHGlobal-Trifecta/util/db"
)

// errNoSnapshotAvailable is returned by Restore when nothing was persisted yet.
var errNoSnapshotAvailable = errors.New("restore (ledger): no snapshot available")

// ErrNoSnapshotAvailable reports whether err means the database holds no snapshot.
func ErrNoSnapshotAvailable(err error) bool {
	return errors.Is(err, errNoSnapshotAvailable)
}

type valueKind uint8

const (
	kindString valueKind = iota + 1
	kindBool
	kindFloat
	kindInt
	kindUint
)

// diskValue is the tagged encoding of one stored value.
type diskValue struct {
	_struct struct{} `codec:","`

	Key  string    `codec:"k"`
	Kind valueKind `codec:"t"`
	Str  string    `codec:"s"`
	Num  float64   `codec:"f"`
	Int  int64     `codec:"i"`
	Uint uint64    `codec:"u"`
}

// diskSnapshot represents a snapshot as stored in the snapshot database.
type diskSnapshot struct {
	_struct struct{} `codec:","`

	Period  uint64      `codec:"p"`
	Version uint64      `codec:"v"`
	Values  []diskValue `codec:"d"`
}

// encode serializes s with its values sorted by key, then compresses it.
func encode(s Snapshot) []byte {
	ds := diskSnapshot{Period: s.period, Version: s.version}
	for _, k := range s.Keys() {
		dv := diskValue{Key: k}
		switch x := s.data[k].(type) {
		case string:
			dv.Kind, dv.Str = kindString, x
		case bool:
			dv.Kind = kindBool
			if x {
				dv.Uint = 1
			}
		case float64:
			dv.Kind, dv.Num = kindFloat, x
		case int64:
			dv.Kind, dv.Int = kindInt, x
		case uint64:
			dv.Kind, dv.Uint = kindUint, x
		}
		ds.Values = append(ds.Values, dv)
	}
	return snappy.Encode(nil, protocol.EncodeReflect(&ds))
}

func decode(raw []byte) (Snapshot, error) {
	plain, err := snappy.Decode(nil, raw)
	if err != nil {
		return Snapshot{}, fmt.Errorf("decode (ledger): %w", err)
	}
	var ds diskSnapshot
	if err := protocol.DecodeReflect(plain, &ds); err != nil {
		return Snapshot{}, fmt.Errorf("decode (ledger): %w", err)
	}
	s := Snapshot{period: ds.Period, version: ds.Version, data: make(map[string]interface{}, len(ds.Values))}
	for _, dv := range ds.Values {
		switch dv.Kind {
		case kindString:
			s.data[dv.Key] = dv.Str
		case kindBool:
			s.data[dv.Key] = dv.Uint == 1
		case kindFloat:
			s.data[dv.Key] = dv.Num
		case kindInt:
			s.data[dv.Key] = dv.Int
		case kindUint:
			s.data[dv.Key] = dv.Uint
		default:
			return Snapshot{}, fmt.Errorf("decode (ledger): key %s has unknown kind %d: %w", dv.Key, dv.Kind, protocol.ErrInvalidObject)
		}
	}
	return s, nil
}

// Persister stores committed snapshots in a sqlite database so an agent can
// resume from its latest state after a restart.
type Persister struct {
	log    logging.Logger
	source string
	acc    db.Accessor
}

// MakePersister creates the snapshot table if needed.
func MakePersister(ctx context.Context, acc db.Accessor, log logging.Logger, source string) (*Persister, error) {
	err := acc.Atomic(ctx, "ledger schema", func(ctx context.Context, tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, "create table if not exists Snapshots (version integer primary key, period integer, data blob)")
		return err
	})
	if err != nil {
		return nil, err
	}
	return &Persister{log: log, source: source, acc: acc}, nil
}

// Persist atomically writes s to the snapshot database.
func (p *Persister) Persist(ctx context.Context, s Snapshot) error {
	raw := encode(s)
	err := p.acc.Atomic(ctx, "ledger persist", func(ctx context.Context, tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, "insert or replace into Snapshots (version, period, data) values (?, ?, ?)", s.version, s.period, raw)
		return err
	})
	logEvent := logspec.RoundEvent{
		Event:   logspec.Event{Context: logspec.Store, Source: p.source},
		Type:    logspec.Persisted,
		Period:  s.period,
		RoundID: s.version,
	}
	if err != nil {
		p.log.WithFields(logEvent.Fields()).Errorf("persisting failure: %v", err)
		return err
	}
	p.log.WithFields(logEvent.Fields()).Debug("persisted snapshot to the database")
	return nil
}

// Restore returns the latest persisted snapshot.
func (p *Persister) Restore(ctx context.Context) (Snapshot, error) {
	var raw []byte
	err := p.acc.Atomic(ctx, "ledger restore", func(ctx context.Context, tx *sql.Tx) error {
		row := tx.QueryRowContext(ctx, "select data from Snapshots order by version desc limit 1")
		err := row.Scan(&raw)
		if err == sql.ErrNoRows {
			return errNoSnapshotAvailable
		}
		return err
	})
	if err != nil {
		return Snapshot{}, err
	}
	return decode(raw)
}

// Prune deletes every persisted snapshot older than keep versions behind the newest.
func (p *Persister) Prune(ctx context.Context, keep uint64) error {
	return p.acc.Atomic(ctx, "ledger prune", func(ctx context.Context, tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, "delete from Snapshots where version + ? <= (select max(version) from Snapshots)", keep)
		return err
	})
}

// Reset deletes every persisted snapshot.
func (p *Persister) Reset(ctx context.Context) {
	p.log.Infof("reset (ledger): clearing persisted snapshots")
	err := p.acc.Atomic(ctx, "ledger reset", func(ctx context.Context, tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, "delete from Snapshots")
		return err
	})
	if err != nil {
		p.log.Warnf("reset (ledger): failed to clear Snapshots table - %v", err)
	}
}

// Versions returns the persisted versions in ascending order.
func (p *Persister) Versions(ctx context.Context) ([]uint64, error) {
	var versions []uint64
	err := p.acc.Atomic(ctx, "ledger versions", func(ctx context.Context, tx *sql.Tx) error {
		versions = versions[:0]
		rows, err := tx.QueryContext(ctx, "select version from Snapshots")
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var v uint64
			if err := rows.Scan(&v); err != nil {
				return err
			}
			versions = append(versions, v)
		}
		return rows.Err()
	})
	sort.Slice(versions, func(i, j int) bool { return versions[i] < versions[j] })
	return versions, err
}
