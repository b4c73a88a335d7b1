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
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/aytunc-tunay/ETHGlobal-Trifecta/test/partitiontest"
)

func TestCommitOrder(t *testing.T) {
	partitiontest.PartitionTest(t)

	db := MakeDB(Pairs{"a": "0"}, nil)
	s1 := db.Latest().Update(Pairs{"a": "1"})
	require.NoError(t, db.Commit(s1))

	s2 := s1.Update(Pairs{"a": "2"})
	require.NoError(t, db.Commit(s2))
	// a snapshot derived from a stale base is refused
	require.ErrorIs(t, db.Commit(s1.Update(Pairs{"a": "3"})), ErrVersionOrder)

	require.Equal(t, "2", db.Latest().GetString("a", ""))
	old, ok := db.At(1)
	require.True(t, ok)
	require.Equal(t, "1", old.GetString("a", ""))
	require.Equal(t, 3, db.Len())
}

func TestResetPeriod(t *testing.T) {
	partitiontest.PartitionTest(t)

	db := MakeDB(Pairs{"token_values": "", "period_count": uint64(0)}, []string{"period_count", "audit_report_ref"})
	s := db.Latest().Update(Pairs{
		"token_values":       `{"USDC":500,"WETH":1000}`,
		"most_voted_tx_hash": "0xabc",
		"audit_report_ref":   "bafy",
		"period_count":       uint64(4),
	})
	require.NoError(t, db.Commit(s))

	next := db.ResetPeriod(Pairs{"period_count": uint64(5)})
	require.Equal(t, uint64(1), next.Period())
	require.Equal(t, s.Version()+1, next.Version())

	want := Pairs{
		"token_values":     "",
		"audit_report_ref": "bafy",
		"period_count":     uint64(5),
	}
	require.Empty(t, cmp.Diff(want, next.Data()))
	require.False(t, next.Has("most_voted_tx_hash"))

	// commits continue inside the new period
	require.NoError(t, db.Commit(next.Update(Pairs{"token_values": "x"})))
	require.Equal(t, []string{"audit_report_ref", "period_count"}, db.CrossPeriodKeys())
}

func TestCommitHooksAndHistoryLimit(t *testing.T) {
	partitiontest.PartitionTest(t)

	db := MakeDB(nil, nil)
	var seen []uint64
	db.AddCommitHook(func(s Snapshot) { seen = append(seen, s.Version()) })
	db.SetHistoryLimit(2)

	for i := 0; i < 4; i++ {
		require.NoError(t, db.Commit(db.Latest().Update(Pairs{"i": i})))
	}
	db.ResetPeriod(nil)

	require.Equal(t, []uint64{1, 2, 3, 4, 5}, seen)
	require.Equal(t, 2, db.Len())
	_, ok := db.At(1)
	require.False(t, ok)
	_, ok = db.At(5)
	require.True(t, ok)
}

func TestConcurrentReaders(t *testing.T) {
	partitiontest.PartitionTest(t)

	db := MakeDB(Pairs{"n": 0}, nil)
	var wg sync.WaitGroup
	for r := 0; r < 4; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				s := db.Latest()
				if float64(s.Version()) != s.GetFloat64("n", -1) {
					t.Errorf("snapshot %d holds n=%v", s.Version(), s.GetFloat64("n", -1))
				}
			}
		}()
	}
	for i := 1; i <= 200; i++ {
		require.NoError(t, db.Commit(db.Latest().Update(Pairs{"n": i})))
	}
	wg.Wait()
}
