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
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/aytunc-tunay/ETHGlobal-Trifecta/test/partitiontest"
)

func TestUpdateLeavesReceiverUntouched(t *testing.T) {
	partitiontest.PartitionTest(t)

	s0 := MakeSnapshot(0, Pairs{"a": "x"})
	s1 := s0.Update(Pairs{"a": "y", "b": 2.5})

	require.Equal(t, "x", s0.GetString("a", ""))
	require.False(t, s0.Has("b"))
	require.Equal(t, uint64(0), s0.Version())

	require.Equal(t, "y", s1.GetString("a", ""))
	require.Equal(t, 2.5, s1.GetFloat64("b", 0))
	require.Equal(t, uint64(1), s1.Version())
	require.Equal(t, []string{"a", "b"}, s1.Keys())
}

func TestStrictReads(t *testing.T) {
	partitiontest.PartitionTest(t)

	s := MakeSnapshot(0, Pairs{"name": "weth", "total": 1500.0, "count": 3})

	_, err := s.GetStrict("most_voted_tx_hash")
	require.ErrorIs(t, err, ErrMissingKey)
	require.Contains(t, err.Error(), "most_voted_tx_hash")

	name, err := s.GetStrictString("name")
	require.NoError(t, err)
	require.Equal(t, "weth", name)

	_, err = s.GetStrictString("total")
	require.ErrorIs(t, err, ErrWrongType)

	total, err := s.GetStrictFloat64("total")
	require.NoError(t, err)
	require.Equal(t, 1500.0, total)

	count, err := s.GetStrictFloat64("count")
	require.NoError(t, err)
	require.Equal(t, 3.0, count)
	require.Equal(t, uint64(3), s.GetUint64("count", 0))

	require.Equal(t, "fallback", s.Get("absent", "fallback"))
}

func TestDataIsACopy(t *testing.T) {
	partitiontest.PartitionTest(t)

	s := MakeSnapshot(0, Pairs{"a": "x"})
	d := s.Data()
	d["a"] = "mutated"
	require.Equal(t, "x", s.GetString("a", ""))
}

func TestUnsupportedValuePanics(t *testing.T) {
	partitiontest.PartitionTest(t)

	require.Panics(t, func() {
		MakeSnapshot(0, Pairs{}).Update(Pairs{"m": map[string]string{}})
	})
}

func TestEqual(t *testing.T) {
	partitiontest.PartitionTest(t)

	a := MakeSnapshot(0, Pairs{"k": "v"}).Update(Pairs{"n": 1})
	b := MakeSnapshot(0, Pairs{"k": "v"}).Update(Pairs{"n": int64(1)})
	require.True(t, a.Equal(b))
	require.Empty(t, cmp.Diff(a.Data(), b.Data()))
	require.False(t, a.Equal(a.Update(nil)))
}
