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

package logspec

// RoundEventType identifies a round lifecycle step.
type RoundEventType string

const (
	// RoundEntered is logged when a stage is entered with a fresh round.
	RoundEntered RoundEventType = "RoundEntered"
	// RoundDecided is logged when a round commits or emits a no-majority event.
	RoundDecided RoundEventType = "RoundDecided"
	// RoundTimedOut is logged when a timeout event is applied.
	RoundTimedOut RoundEventType = "RoundTimedOut"
	// PayloadRejected is logged when a payload fails round validation.
	PayloadRejected RoundEventType = "PayloadRejected"
	// PeriodReset is logged when the store starts a new period.
	PeriodReset RoundEventType = "PeriodReset"
	// BehaviourFinished is logged when a behaviour attempt completes or aborts.
	BehaviourFinished RoundEventType = "BehaviourFinished"
	// Persisted is logged when a snapshot is written to disk.
	Persisted RoundEventType = "Persisted"
)

// RoundEvent is the structured record attached to round lifecycle log lines.
type RoundEvent struct {
	Event

	Type    RoundEventType
	Stage   string
	Outcome string `json:",omitempty"`
	RoundID uint64
	Period  uint64
}

// Fields flattens the event for a structured logger.
func (e RoundEvent) Fields() map[string]interface{} {
	f := map[string]interface{}{
		"Context": e.Context.String(),
		"Source":  e.Source,
		"Type":    string(e.Type),
		"Stage":   e.Stage,
		"RoundID": e.RoundID,
		"Period":  e.Period,
	}
	if e.Outcome != "" {
		f["Outcome"] = e.Outcome
	}
	return f
}
