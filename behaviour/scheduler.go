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

package behaviour

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/algorand/go-deadlock"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/aytunc-tunay/ETHGlobal-Trifecta/agreement"
	"github.com/aytunc-tunay/ETHGlobal-Trifecta/ledger"
	"github.com/aytunc-tunay/ETHGlobal-Trifecta/logging"
	"github.com/aytunc-tunay/ETHGlobal-Trifecta/logging/logspec"
	"github.com/aytunc-tunay/ETHGlobal-Trifecta/util/metrics"
)

const tracerName = "behaviour"

// SchedulerParams holds the collaborators of a Scheduler.
type SchedulerParams struct {
	AgentID   string
	Replica   Replica
	Transport Transport
	Registry  Registry
	Log       logging.Logger
	Metrics   *metrics.Collectors
}

type taskState int

const (
	// LOCAL phase running in the task goroutine
	stateLocal taskState = iota
	// payload computed, not yet accepted by the transport
	stateReady
	// payload accepted, waiting for the round to end
	stateSubmitted
	// attempt abandoned until the round changes
	stateAborted
)

func (s taskState) String() string {
	switch s {
	case stateLocal:
		return "local"
	case stateReady:
		return "ready"
	case stateSubmitted:
		return "submitted"
	case stateAborted:
		return "aborted"
	default:
		return fmt.Sprintf("taskState(%d)", int(s))
	}
}

// task is one attempt of a behaviour at one round.
type task struct {
	view      agreement.View
	behaviour Behaviour
	bc        *Context

	state taskState
	// done is closed when the LOCAL phase returns; err is valid after that.
	done   chan struct{}
	err    error
	cancel context.CancelFunc

	localStart     time.Time
	consensusStart time.Time
}

func (t *task) localFinished() bool {
	select {
	case <-t.done:
		return true
	default:
		return false
	}
}

// Scheduler drives the behaviour of one agent. At most one task exists at a
// time; a task is cancelled and joined before the next one starts.
type Scheduler struct {
	mu deadlock.Mutex

	agentID   string
	replica   Replica
	transport Transport
	registry  Registry
	log       logging.Logger
	metrics   *metrics.Collectors
	tracer    trace.Tracer

	current *task
}

// MakeScheduler validates params and returns an idle Scheduler.
func MakeScheduler(params SchedulerParams) (*Scheduler, error) {
	if params.Replica == nil || params.Transport == nil {
		return nil, fmt.Errorf("%w: scheduler needs a replica and a transport", agreement.ErrConfiguration)
	}
	if params.AgentID == "" {
		return nil, fmt.Errorf("%w: scheduler without agent id", agreement.ErrConfiguration)
	}
	log := params.Log
	if log == nil {
		log = logging.Base()
	}
	return &Scheduler{
		agentID:   params.AgentID,
		replica:   params.Replica,
		transport: params.Transport,
		registry:  params.Registry,
		log:       log,
		metrics:   params.Metrics,
		tracer:    otel.Tracer(tracerName),
	}, nil
}

// Tick performs one scheduling step. It returns an error only for
// configuration faults.
func (s *Scheduler) Tick(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	v := s.replica.View()
	if s.current != nil && s.current.view.RoundID != v.RoundID {
		s.finish(v)
	}
	if v.Final || v.RoundID == 0 {
		return nil
	}
	if s.current == nil {
		return s.start(ctx, v)
	}

	t := s.current
	switch t.state {
	case stateLocal:
		if !t.localFinished() {
			return nil
		}
		s.afterLocal(t)
		if t.state != stateReady {
			return nil
		}
		fallthrough
	case stateReady:
		s.submit(ctx, t)
	}
	return nil
}

// start launches the LOCAL phase of the behaviour registered for v.Stage.
func (s *Scheduler) start(ctx context.Context, v agreement.View) error {
	b, err := s.registry.New(v.Stage)
	if err != nil {
		return err
	}
	taskCtx, cancel := context.WithCancel(ctx)
	t := &task{
		view:      v,
		behaviour: b,
		bc: &Context{
			AgentID:  s.agentID,
			View:     v,
			Snapshot: s.replica.Snapshot(),
			Log:      s.log.With("stage", string(v.Stage)),
		},
		state:      stateLocal,
		done:       make(chan struct{}),
		cancel:     cancel,
		localStart: time.Now(),
	}
	s.current = t

	go func() {
		defer close(t.done)
		spanCtx, span := s.tracer.Start(taskCtx, "behaviour.local",
			trace.WithAttributes(
				attribute.String("agent", s.agentID),
				attribute.String("stage", string(v.Stage)),
				attribute.Int64("round", int64(v.RoundID)),
			),
		)
		defer span.End()
		t.err = b.RunLocal(spanCtx, t.bc)
		if t.err != nil {
			span.RecordError(t.err)
			span.SetStatus(codes.Error, t.err.Error())
		}
	}()
	return nil
}

// afterLocal classifies the outcome of a finished LOCAL phase.
func (s *Scheduler) afterLocal(t *task) {
	stage := string(t.view.Stage)
	elapsed := time.Since(t.localStart)
	s.metrics.ObservePhase(stage, metrics.PhaseLocal, elapsed)
	for name, d := range t.bc.Measurements() {
		t.bc.Log.Debugf("measured %s: %v", name, d)
	}

	switch {
	case t.err == nil:
		t.state = stateReady
	case isDataIntegrity(t.err):
		s.metrics.BehaviourFailed(stage, "data_integrity")
		s.logTask(t, "restart").Warnf("local phase failed, restarting: %v", t.err)
		// the next tick starts a fresh attempt at the same round
		s.discard(t)
	case errors.Is(t.err, context.Canceled):
		s.discard(t)
	default:
		s.metrics.BehaviourFailed(stage, "external_call")
		s.logTask(t, "aborted").Warnf("local phase failed: %v", t.err)
		t.state = stateAborted
	}
}

func (s *Scheduler) submit(ctx context.Context, t *task) {
	stage := string(t.view.Stage)
	p, err := t.behaviour.BuildPayload(s.agentID)
	if err != nil {
		if isDataIntegrity(err) {
			s.metrics.BehaviourFailed(stage, "data_integrity")
			s.logTask(t, "restart").Warnf("building payload failed, restarting: %v", err)
			s.discard(t)
			return
		}
		s.metrics.BehaviourFailed(stage, "payload")
		s.logTask(t, "aborted").Errorf("building payload failed: %v", err)
		t.state = stateAborted
		return
	}

	err = s.transport.Submit(ctx, t.view.RoundID, p)
	switch {
	case err == nil:
		t.state = stateSubmitted
		t.consensusStart = time.Now()
		t.bc.Log.Debugf("submitted %s payload for round %d", p.Tag(), t.view.RoundID)
	case errors.Is(err, agreement.ErrValidation):
		// resubmitted on the next tick
		s.metrics.BehaviourFailed(stage, "validation")
		t.bc.Log.Warnf("payload rejected: %v", err)
	case errors.Is(err, agreement.ErrStaleRound):
		t.bc.Log.Debugf("round ended before submission: %v", err)
	default:
		s.metrics.BehaviourFailed(stage, "transport")
		t.bc.Log.Warnf("submission failed: %v", err)
	}
}

func (s *Scheduler) discard(t *task) {
	t.cancel()
	if s.current == t {
		s.current = nil
	}
}

// finish ends the current task because the round changed, cancelling and
// joining its LOCAL phase if it is still running.
func (s *Scheduler) finish(v agreement.View) {
	t := s.current
	s.current = nil
	t.cancel()
	<-t.done

	if t.state == stateSubmitted {
		s.metrics.ObservePhase(string(t.view.Stage), metrics.PhaseConsensus, time.Since(t.consensusStart))
		t.behaviour.OnRoundEnd(v)
		s.logTask(t, "finished").Infof("round %d ended, now at %s", t.view.RoundID, v.Stage)
		return
	}
	s.logTask(t, "discarded").Debugf("round %d ended while %s", t.view.RoundID, t.state)
}

// Stop cancels and joins the current task.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return
	}
	t := s.current
	s.current = nil
	t.cancel()
	<-t.done
}

// Settle blocks until the LOCAL phase of the current task has returned.
func (s *Scheduler) Settle(ctx context.Context) error {
	s.mu.Lock()
	t := s.current
	s.mu.Unlock()
	if t == nil {
		return nil
	}
	select {
	case <-t.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// localDone returns the done channel of a running LOCAL phase, or nil.
func (s *Scheduler) localDone() <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil || s.current.state != stateLocal {
		return nil
	}
	return s.current.done
}

// Run ticks every interval, on every view change and whenever a LOCAL
// phase returns, until ctx is done.
func (s *Scheduler) Run(ctx context.Context, interval time.Duration) error {
	defer s.Stop()
	views := s.replica.Subscribe()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		if err := s.Tick(ctx); err != nil {
			return err
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		case <-views:
		case <-s.localDone():
		}
	}
}

func (s *Scheduler) logTask(t *task, outcome string) logging.Logger {
	return s.log.WithFields(logspec.RoundEvent{
		Event: logspec.Event{
			Context: logspec.Behaviour,
			Source:  s.agentID,
		},
		Type:    logspec.BehaviourFinished,
		Stage:   string(t.view.Stage),
		Outcome: outcome,
		RoundID: t.view.RoundID,
		Period:  t.view.Period,
	}.Fields())
}

func isDataIntegrity(err error) bool {
	return errors.Is(err, ErrDataIntegrity) || errors.Is(err, ledger.ErrMissingKey) || errors.Is(err, ledger.ErrWrongType)
}
