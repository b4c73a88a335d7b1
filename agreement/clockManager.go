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
	"time"

	"github.com/algorand/go-deadlock"

	"github.com/aytunc-tunay/ETHGlobal-Trifecta/logging"
	"github.com/aytunc-tunay/ETHGlobal-Trifecta/util/timers"
)

// TimeoutFunc delivers a timeout event for a round.
type TimeoutFunc func(roundID uint64, ev Event)

// ClockDriver turns the configured event timeouts of a graph into timeout
// events. A fresh clock is zeroed every time a new round id is observed.
type ClockDriver struct {
	mu     deadlock.Mutex
	clocks map[uint64]timers.Clock

	t0    timers.Clock
	graph *Graph
	log   logging.Logger
}

// MakeClockDriver creates a driver deriving its clocks from t0.
func MakeClockDriver(graph *Graph, t0 timers.Clock, log logging.Logger) *ClockDriver {
	if log == nil {
		log = logging.Base()
	}
	return &ClockDriver{clocks: make(map[uint64]timers.Clock), t0: t0, graph: graph, log: log}
}

// SetZero starts the clock of roundID and forgets the clocks of earlier rounds.
func (cd *ClockDriver) SetZero(roundID uint64) {
	cd.mu.Lock()
	defer cd.mu.Unlock()
	for r := range cd.clocks {
		if r < roundID {
			delete(cd.clocks, r)
		}
	}
	if _, ok := cd.clocks[roundID]; !ok {
		cd.clocks[roundID] = cd.t0.Zero()
	}
}

// Elapsed returns the time spent in roundID so far.
func (cd *ClockDriver) Elapsed(roundID uint64) time.Duration {
	cd.mu.Lock()
	defer cd.mu.Unlock()
	c, ok := cd.clocks[roundID]
	if !ok {
		return 0
	}
	return c.Since()
}

// nextDeadlineCh returns a channel firing at the skip-th earliest timeout
// of the stage of v, along with the event it stands for.
func (cd *ClockDriver) nextDeadlineCh(v View, skip int) (<-chan time.Time, Event) {
	if v.Final {
		return nil, ""
	}
	events := cd.graph.StageTimeouts(v.Stage)
	if skip >= len(events) {
		return nil, ""
	}
	ev := events[skip]
	d, _ := cd.graph.Timeout(ev)

	cd.mu.Lock()
	defer cd.mu.Unlock()
	c, ok := cd.clocks[v.RoundID]
	if !ok {
		cd.log.Warnf("ClockDriver.nextDeadlineCh making new clock for round %d", v.RoundID)
		c = cd.t0.Zero()
		cd.clocks[v.RoundID] = c
	}
	return c.TimeoutAt(d), ev
}

// Run raises timeouts for the views received on views until ctx is done.
// The timeout of a round fires at most once per event; a raise that does not
// change the view moves on to the next timeout of the stage.
func (cd *ClockDriver) Run(ctx context.Context, views <-chan View, raise TimeoutFunc) {
	var (
		current View
		have    bool
		skip    int
		fire    <-chan time.Time
		ev      Event
	)
	for {
		select {
		case <-ctx.Done():
			return
		case v, ok := <-views:
			if !ok {
				return
			}
			if have && v.RoundID == current.RoundID {
				continue
			}
			current, have, skip = v, true, 0
			cd.SetZero(v.RoundID)
			fire, ev = cd.nextDeadlineCh(current, skip)
		case <-fire:
			cd.log.Debugf("round %d (%s): raising %s", current.RoundID, current.Stage, ev)
			raise(current.RoundID, ev)
			skip++
			fire, ev = cd.nextDeadlineCh(current, skip)
		}
	}
}
