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

// Package behaviour runs the per-agent work of each stage: a LOCAL phase
// computing a payload from external calls, then a CONSENSUS phase submitting
// it and waiting for the round to end.
package behaviour

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aytunc-tunay/ETHGlobal-Trifecta/agreement"
	"github.com/aytunc-tunay/ETHGlobal-Trifecta/ledger"
	"github.com/aytunc-tunay/ETHGlobal-Trifecta/logging"
)

// ErrExternalCall marks a failed call to an external service. The attempt
// is abandoned until the stage is entered again.
var ErrExternalCall = errors.New("external call failed")

// ErrDataIntegrity marks a missing or malformed store value. The behaviour
// restarts on the next tick.
var ErrDataIntegrity = errors.New("data integrity fault")

// ExternalCallError wraps err as an ErrExternalCall naming the service.
func ExternalCallError(service string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrExternalCall, service, err)
}

// Transport submits payloads to a round.
type Transport interface {
	Submit(ctx context.Context, roundID uint64, p agreement.Payload) error
}

// Replica is the agreement state an agent observes.
type Replica interface {
	View() agreement.View
	Snapshot() ledger.Snapshot
	Subscribe() <-chan agreement.View
}

// Context is what a behaviour sees of the agent during its LOCAL phase.
type Context struct {
	AgentID  string
	View     agreement.View
	Snapshot ledger.Snapshot
	Log      logging.Logger

	measurements map[string]time.Duration
}

// Measure starts timing name; calling the returned func stops it.
func (c *Context) Measure(name string) func() {
	start := time.Now()
	return func() {
		if c.measurements == nil {
			c.measurements = make(map[string]time.Duration)
		}
		c.measurements[name] += time.Since(start)
	}
}

// Measurements returns the durations recorded with Measure.
func (c *Context) Measurements() map[string]time.Duration {
	out := make(map[string]time.Duration, len(c.measurements))
	for k, v := range c.measurements {
		out[k] = v
	}
	return out
}

// Behaviour is the work of one stage. RunLocal may block on external calls
// and must return promptly once ctx is cancelled. BuildPayload is called
// after RunLocal succeeded; OnRoundEnd once the round the payload was
// submitted to has ended.
type Behaviour interface {
	RunLocal(ctx context.Context, bc *Context) error
	BuildPayload(sender string) (agreement.Payload, error)
	OnRoundEnd(v agreement.View)
}

// Factory creates a fresh behaviour for one attempt at a stage.
type Factory func() Behaviour

// Registry maps stages to the factories of their behaviours.
type Registry map[agreement.Stage]Factory

// Validate checks that every non-final stage of g has a behaviour.
func (r Registry) Validate(g *agreement.Graph) error {
	for _, s := range g.Stages() {
		if g.IsFinal(s) {
			continue
		}
		if r[s] == nil {
			return fmt.Errorf("%w: no behaviour for stage %s", agreement.ErrConfiguration, s)
		}
	}
	return nil
}

// New instantiates the behaviour of stage.
func (r Registry) New(stage agreement.Stage) (Behaviour, error) {
	f := r[stage]
	if f == nil {
		return nil, fmt.Errorf("%w: no behaviour for stage %s", agreement.ErrConfiguration, stage)
	}
	return f(), nil
}

// Merge returns a registry holding the entries of r and other.
func (r Registry) Merge(other Registry) Registry {
	out := make(Registry, len(r)+len(other))
	for s, f := range r {
		out[s] = f
	}
	for s, f := range other {
		out[s] = f
	}
	return out
}
