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

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Phase names a behaviour phase for BehaviourPhaseSeconds.
type Phase string

const (
	// PhaseLocal is the local computation phase.
	PhaseLocal Phase = "local"
	// PhaseConsensus spans submission until the stage changes.
	PhaseConsensus Phase = "consensus"
)

// Collectors groups every collector of one agent. Each agent owns a private
// registry so several agents can share a process (tests, local committees).
type Collectors struct {
	Registry *prometheus.Registry

	roundsDecided    *prometheus.CounterVec
	payloadsRejected *prometheus.CounterVec
	roundTimeouts    *prometheus.CounterVec
	phaseSeconds     *prometheus.HistogramVec
	failures         *prometheus.CounterVec
	period           prometheus.Gauge
	version          prometheus.Gauge
}

func counterVec(m MetricName, constLabels prometheus.Labels, labels ...string) *prometheus.CounterVec {
	return prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace:   namespace,
		Name:        m.Name,
		Help:        m.Description,
		ConstLabels: constLabels,
	}, labels)
}

func gauge(m MetricName, constLabels prometheus.Labels) prometheus.Gauge {
	return prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace:   namespace,
		Name:        m.Name,
		Help:        m.Description,
		ConstLabels: constLabels,
	})
}

// MakeCollectors creates and registers the collectors of the agent named agentID.
func MakeCollectors(agentID string) *Collectors {
	constLabels := prometheus.Labels{"agent": agentID}
	c := &Collectors{
		Registry:         prometheus.NewRegistry(),
		roundsDecided:    counterVec(RoundsDecided, constLabels, "stage", "event"),
		payloadsRejected: counterVec(PayloadsRejected, constLabels, "stage"),
		roundTimeouts:    counterVec(RoundTimeouts, constLabels, "stage", "event"),
		failures:         counterVec(BehaviourFailures, constLabels, "stage", "kind"),
		phaseSeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   namespace,
			Name:        BehaviourPhaseSeconds.Name,
			Help:        BehaviourPhaseSeconds.Description,
			ConstLabels: constLabels,
			Buckets:     prometheus.ExponentialBuckets(0.005, 4, 8),
		}, []string{"stage", "phase"}),
		period:  gauge(StorePeriod, constLabels),
		version: gauge(StoreVersion, constLabels),
	}
	c.Registry.MustRegister(c.roundsDecided, c.payloadsRejected, c.roundTimeouts, c.failures, c.phaseSeconds, c.period, c.version)
	return c
}

// RoundDecided counts a decision of the round at stage.
func (c *Collectors) RoundDecided(stage, event string) {
	if c == nil {
		return
	}
	c.roundsDecided.WithLabelValues(stage, event).Inc()
}

// PayloadRejected counts a payload rejected at stage.
func (c *Collectors) PayloadRejected(stage string) {
	if c == nil {
		return
	}
	c.payloadsRejected.WithLabelValues(stage).Inc()
}

// RoundTimeout counts a timeout event applied at stage.
func (c *Collectors) RoundTimeout(stage, event string) {
	if c == nil {
		return
	}
	c.roundTimeouts.WithLabelValues(stage, event).Inc()
}

// BehaviourFailed counts an aborted behaviour attempt.
func (c *Collectors) BehaviourFailed(stage, kind string) {
	if c == nil {
		return
	}
	c.failures.WithLabelValues(stage, kind).Inc()
}

// ObservePhase records d as the duration of phase at stage.
func (c *Collectors) ObservePhase(stage string, phase Phase, d time.Duration) {
	if c == nil {
		return
	}
	c.phaseSeconds.WithLabelValues(stage, string(phase)).Observe(d.Seconds())
}

// StoreCommitted publishes the period and version of the latest snapshot.
func (c *Collectors) StoreCommitted(period, version uint64) {
	if c == nil {
		return
	}
	c.period.Set(float64(period))
	c.version.Set(float64(version))
}
