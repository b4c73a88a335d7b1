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

package agreement

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/aytunc-tunay/ETHGlobal-Trifecta/logging"
	"github.com/aytunc-tunay/ETHGlobal-Trifecta/test/partitiontest"
	"github.com/aytunc-tunay/ETHGlobal-Trifecta/util/timers"
)

type raised struct {
	roundID uint64
	ev      Event
}

func TestClockDriverRaisesTimeout(t *testing.T) {
	partitiontest.PartitionTest(t)

	clock := timers.MakeManualClock()
	cd := MakeClockDriver(mustGraph(testGraphSpec()), clock, logging.TestingLog(t))

	views := make(chan View)
	out := make(chan raised, 4)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan struct{})
	go func() {
		defer close(done)
		cd.Run(ctx, views, func(roundID uint64, ev Event) { out <- raised{roundID, ev} })
	}()

	views <- View{Stage: stageVote, RoundID: 1}
	// the unbuffered send returns once Run holds the view; the clock is zeroed
	// before the next receive
	views <- View{Stage: stageVote, RoundID: 1}

	clock.Advance(29 * time.Second)
	select {
	case r := <-out:
		t.Fatalf("timeout raised early: %+v", r)
	case <-time.After(20 * time.Millisecond):
	}

	clock.Advance(time.Second)
	select {
	case r := <-out:
		require.Equal(t, raised{1, EventRoundTimeout}, r)
	case <-time.After(5 * time.Second):
		t.Fatal("timeout not raised")
	}

	// a new round restarts the clock
	views <- View{Stage: stageVote, RoundID: 2}
	views <- View{Stage: stageVote, RoundID: 2}
	require.Equal(t, time.Duration(0), cd.Elapsed(2))
	clock.Advance(30 * time.Second)
	select {
	case r := <-out:
		require.Equal(t, raised{2, EventRoundTimeout}, r)
	case <-time.After(5 * time.Second):
		t.Fatal("timeout not raised")
	}

	// final stages never time out
	views <- View{Stage: stageFinished, RoundID: 3, Final: true}
	views <- View{Stage: stageFinished, RoundID: 3, Final: true}
	clock.Advance(time.Hour)
	select {
	case r := <-out:
		t.Fatalf("final stage timed out: %+v", r)
	case <-time.After(20 * time.Millisecond):
	}

	cancel()
	<-done
}

func TestClockDriverForgetsOldRounds(t *testing.T) {
	partitiontest.PartitionTest(t)

	clock := timers.MakeManualClock()
	cd := MakeClockDriver(mustGraph(testGraphSpec()), clock, nil)
	cd.SetZero(1)
	clock.Advance(time.Second)
	require.Equal(t, time.Second, cd.Elapsed(1))

	cd.SetZero(2)
	require.Equal(t, time.Duration(0), cd.Elapsed(1))
	require.Equal(t, time.Duration(0), cd.Elapsed(2))
}
