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

package cas

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/pebble"
	"github.com/cockroachdb/pebble/vfs"
)

const localRefPrefix = "sha256:"

// LocalStore keeps objects in a pebble database inside the data directory.
// References have the form sha256:digest.
type LocalStore struct {
	db *pebble.DB
	wo *pebble.WriteOptions
}

// OpenLocalStore opens (or creates) the store under dir. inMem keeps
// everything in memory.
func OpenLocalStore(dir string, inMem bool) (*LocalStore, error) {
	opts := &pebble.Options{
		MemTableSize: 4 << 20,
	}
	if inMem {
		opts.FS = vfs.NewMem()
	}
	db, err := pebble.Open(filepath.Join(dir, "audit.pebbledb"), opts)
	if err != nil {
		return nil, err
	}
	return &LocalStore{db: db, wo: &pebble.WriteOptions{Sync: true}}, nil
}

// Put stores data under its digest. Storing the same bytes twice is a no-op.
func (s *LocalStore) Put(ctx context.Context, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	key := Digest(data)
	if err := s.db.Set([]byte(key), data, s.wo); err != nil {
		return "", fmt.Errorf("local put: %w", err)
	}
	return localRefPrefix + key, nil
}

// Get returns a copy of the object named by ref.
func (s *LocalStore) Get(ctx context.Context, ref string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !strings.HasPrefix(ref, localRefPrefix) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownRef, ref)
	}
	val, closer, err := s.db.Get([]byte(strings.TrimPrefix(ref, localRefPrefix)))
	if errors.Is(err, pebble.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, ref)
	}
	if err != nil {
		return nil, err
	}
	defer closer.Close()
	ret := make([]byte, len(val))
	copy(ret, val)
	return ret, nil
}

// Close closes the database
func (s *LocalStore) Close() error { return s.db.Close() }
