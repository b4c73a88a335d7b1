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

// Package metrics defines the prometheus collectors exported by an agent.
package metrics

// MetricName describes the name and description of a single metric
type MetricName struct {
	Name        string
	Description string
}

const namespace = "agent"

var (
	// RoundsDecided Number of rounds that reached a decision, by stage and emitted event
	RoundsDecided = MetricName{Name: "rounds_decided_total", Description: "Number of rounds that reached a decision"}
	// PayloadsRejected Number of payloads rejected by round validation
	PayloadsRejected = MetricName{Name: "payloads_rejected_total", Description: "Number of payloads rejected by round validation"}
	// RoundTimeouts Number of timeout events applied to a round
	RoundTimeouts = MetricName{Name: "round_timeouts_total", Description: "Number of timeout events applied to a round"}
	// BehaviourPhaseSeconds Wall time spent in the local and consensus phases of a stage behaviour
	BehaviourPhaseSeconds = MetricName{Name: "behaviour_phase_seconds", Description: "Wall time spent in each behaviour phase"}
	// BehaviourFailures Number of behaviour attempts aborted by a fault
	BehaviourFailures = MetricName{Name: "behaviour_failures_total", Description: "Number of behaviour attempts aborted by a fault"}
	// StorePeriod Current period of the replicated store
	StorePeriod = MetricName{Name: "store_period", Description: "Current period of the replicated store"}
	// StoreVersion Latest committed version of the replicated store
	StoreVersion = MetricName{Name: "store_version", Description: "Latest committed version of the replicated store"}
)
