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

package timers

import (
	"sync"
	"time"
)

// Manual is a clock driven by explicit Advance calls. Every clock derived
// from the same MakeManualClock call shares one notion of "now".
type Manual struct {
	src  *manualSource
	zero time.Duration
}

type manualSource struct {
	mu      sync.Mutex
	now     time.Duration
	waiters []manualWaiter
}

type manualWaiter struct {
	at time.Duration
	ch chan time.Time
}

// MakeManualClock creates a new manual clock at time zero.
func MakeManualClock() *Manual {
	return &Manual{src: &manualSource{}}
}

// Zero returns a clock sharing the source of m, zeroed to its current time.
func (m *Manual) Zero() Clock {
	m.src.mu.Lock()
	defer m.src.mu.Unlock()
	return &Manual{src: m.src, zero: m.src.now}
}

// TimeoutAt returns a channel that fires once the source has been advanced
// past zero+delta.
func (m *Manual) TimeoutAt(delta time.Duration) <-chan time.Time {
	m.src.mu.Lock()
	defer m.src.mu.Unlock()
	ch := make(chan time.Time, 1)
	at := m.zero + delta
	if at <= m.src.now {
		close(ch)
		return ch
	}
	m.src.waiters = append(m.src.waiters, manualWaiter{at: at, ch: ch})
	return ch
}

// Since implements Clock.Since.
func (m *Manual) Since() time.Duration {
	m.src.mu.Lock()
	defer m.src.mu.Unlock()
	return m.src.now - m.zero
}

// Advance moves the shared clock forward, firing every timeout that is now due.
func (m *Manual) Advance(d time.Duration) {
	m.src.mu.Lock()
	defer m.src.mu.Unlock()
	m.src.now += d
	pending := m.src.waiters[:0]
	for _, w := range m.src.waiters {
		if w.at <= m.src.now {
			w.ch <- time.Unix(0, 0).Add(w.at)
			close(w.ch)
			continue
		}
		pending = append(pending, w)
	}
	m.src.waiters = pending
}
