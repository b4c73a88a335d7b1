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

// Package ledger implements the replicated key/value store shared by the
// agents of a committee. Committed state is a sequence of immutable
// snapshots; every mutation produces a new snapshot.
package ledger

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
)

// ErrMissingKey is returned by strict reads of a key that was never written.
var ErrMissingKey = errors.New("missing key")

// ErrWrongType is returned by typed strict reads when the stored value has another type.
var ErrWrongType = errors.New("stored value has an unexpected type")

// Pairs is a set of key/value assignments. Values must be strings, booleans or numbers.
type Pairs map[string]interface{}

// Snapshot is an immutable view of the store at one version.
type Snapshot struct {
	period  uint64
	version uint64
	data    map[string]interface{}
}

// MakeSnapshot returns the version 0 snapshot of period holding data.
func MakeSnapshot(period uint64, data Pairs) Snapshot {
	s := Snapshot{period: period, data: make(map[string]interface{}, len(data))}
	for k, v := range data {
		s.data[k] = normalize(k, v)
	}
	return s
}

// normalize maps every accepted value onto string, bool, float64, int64 or uint64.
func normalize(key string, v interface{}) interface{} {
	switch x := v.(type) {
	case string, bool, float64, int64, uint64:
		return x
	case float32:
		return float64(x)
	case int:
		return int64(x)
	case int32:
		return int64(x)
	case uint:
		return uint64(x)
	case uint32:
		return uint64(x)
	default:
		panic(fmt.Sprintf("ledger: unsupported value type %T for key %q", v, key))
	}
}

// Period returns the period the snapshot belongs to.
func (s Snapshot) Period() uint64 {
	return s.period
}

// Version returns the version of the snapshot.
func (s Snapshot) Version() uint64 {
	return s.version
}

// Has reports whether key holds a value.
func (s Snapshot) Has(key string) bool {
	_, ok := s.data[key]
	return ok
}

// Get returns the value of key, or def when absent.
func (s Snapshot) Get(key string, def interface{}) interface{} {
	if v, ok := s.data[key]; ok {
		return v
	}
	return def
}

// GetStrict returns the value of key or an error wrapping ErrMissingKey.
func (s Snapshot) GetStrict(key string) (interface{}, error) {
	v, ok := s.data[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrMissingKey, key)
	}
	return v, nil
}

// GetString returns the string stored at key, or def when absent or not a string.
func (s Snapshot) GetString(key string, def string) string {
	if v, ok := s.data[key].(string); ok {
		return v
	}
	return def
}

// GetStrictString is the strict variant of GetString.
func (s Snapshot) GetStrictString(key string) (string, error) {
	v, err := s.GetStrict(key)
	if err != nil {
		return "", err
	}
	str, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("%w: %s holds %T", ErrWrongType, key, v)
	}
	return str, nil
}

// GetFloat64 returns the number stored at key, or def when absent or not a number.
func (s Snapshot) GetFloat64(key string, def float64) float64 {
	if f, ok := toFloat(s.data[key]); ok {
		return f
	}
	return def
}

// GetStrictFloat64 is the strict variant of GetFloat64.
func (s Snapshot) GetStrictFloat64(key string) (float64, error) {
	v, err := s.GetStrict(key)
	if err != nil {
		return 0, err
	}
	f, ok := toFloat(v)
	if !ok {
		return 0, fmt.Errorf("%w: %s holds %T", ErrWrongType, key, v)
	}
	return f, nil
}

// GetUint64 returns the unsigned integer stored at key, or def.
func (s Snapshot) GetUint64(key string, def uint64) uint64 {
	switch x := s.data[key].(type) {
	case uint64:
		return x
	case int64:
		if x >= 0 {
			return uint64(x)
		}
	}
	return def
}

func toFloat(v interface{}) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case int64:
		return float64(x), true
	case uint64:
		return float64(x), true
	}
	return 0, false
}

// Update returns a new snapshot with pairs layered over s and the next version.
// The receiver is left untouched.
func (s Snapshot) Update(pairs Pairs) Snapshot {
	next := Snapshot{
		period:  s.period,
		version: s.version + 1,
		data:    make(map[string]interface{}, len(s.data)+len(pairs)),
	}
	for k, v := range s.data {
		next.data[k] = v
	}
	for k, v := range pairs {
		next.data[k] = normalize(k, v)
	}
	return next
}

// Keys returns the keys of s in sorted order.
func (s Snapshot) Keys() []string {
	keys := make([]string, 0, len(s.data))
	for k := range s.data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Data returns a copy of the stored pairs.
func (s Snapshot) Data() Pairs {
	out := make(Pairs, len(s.data))
	for k, v := range s.data {
		out[k] = v
	}
	return out
}

// Equal reports whether both snapshots have the same period, version and data.
func (s Snapshot) Equal(o Snapshot) bool {
	if s.period != o.period || s.version != o.version || len(s.data) != len(o.data) {
		return false
	}
	return reflect.DeepEqual(s.data, o.data)
}
