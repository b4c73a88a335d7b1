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

// Event is the outcome of a round, used to select the next stage.
type Event string

// Events every application can rely on. Applications may declare more.
const (
	// EventDone is emitted when a round commits its selection.
	EventDone Event = "done"
	// EventError is emitted when a round decides on an unusable outcome.
	EventError Event = "error"
	// EventNoMajority is emitted when a round can no longer reach its threshold.
	EventNoMajority Event = "no_majority"
	// EventRoundTimeout is raised by the clock when a round takes too long.
	EventRoundTimeout Event = "round_timeout"
)

// Stage names a node of the transition graph. Each stage runs one round.
type Stage string

// View describes the stage an App is currently in.
type View struct {
	Stage   Stage
	RoundID uint64
	Period  uint64
	Final   bool
}
