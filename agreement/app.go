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
	"errors"
	"fmt"

	"github.com/algorand/go-deadlock"

	"github.com/aytunc-tunay/ETHGlobal-Trifecta/ledger"
	"github.com/aytunc-tunay/ETHGlobal-Trifecta/logging"
	"github.com/aytunc-tunay/ETHGlobal-Trifecta/logging/logspec"
	"github.com/aytunc-tunay/ETHGlobal-Trifecta/util/metrics"
)

// AppParams holds the collaborators of an App.
type AppParams struct {
	Graph     *Graph
	Committee Committee
	DB        *ledger.DB
	Log       logging.Logger
	Metrics   *metrics.Collectors

	// Source identifies the replica in structured logs.
	Source string
}

// App is one agent's replica of the agreement state machine. Every replica
// fed the same payloads and ticks in the same order reaches the same stages
// and commits the same snapshots.
type App struct {
	mu deadlock.Mutex

	graph     *Graph
	committee Committee
	db        *ledger.DB
	log       logging.Logger
	metrics   *metrics.Collectors
	source    string

	started bool
	view    View
	round   Round
	subs    []chan View
}

// MakeApp validates params and returns an App that has not entered any stage.
func MakeApp(params AppParams) (*App, error) {
	if params.Graph == nil {
		return nil, fmt.Errorf("%w: app without graph", ErrConfiguration)
	}
	if params.DB == nil {
		return nil, fmt.Errorf("%w: app without store", ErrConfiguration)
	}
	if params.Committee.Size() == 0 {
		return nil, fmt.Errorf("%w: app without committee", ErrConfiguration)
	}
	log := params.Log
	if log == nil {
		log = logging.Base()
	}
	return &App{
		graph:     params.Graph,
		committee: params.Committee,
		db:        params.DB,
		log:       log,
		metrics:   params.Metrics,
		source:    params.Source,
	}, nil
}

// Start enters the initial stage with round id 1. Later calls do nothing.
func (a *App) Start() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.started {
		return
	}
	a.started = true
	a.enter(a.graph.InitialStage(), 1)
}

// Graph returns the transition graph.
func (a *App) Graph() *Graph {
	return a.graph
}

// Committee returns the voting committee.
func (a *App) Committee() Committee {
	return a.committee
}

// View returns the current stage and round id.
func (a *App) View() View {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.view
}

// Snapshot returns the latest committed snapshot.
func (a *App) Snapshot() ledger.Snapshot {
	return a.db.Latest()
}

// DB returns the replica's store.
func (a *App) DB() *ledger.DB {
	return a.db
}

// Subscribe returns a channel receiving the view after every stage change.
// Only the most recent view is kept for a slow reader.
func (a *App) Subscribe() <-chan View {
	a.mu.Lock()
	defer a.mu.Unlock()
	ch := make(chan View, 1)
	if a.started {
		ch <- a.view
	}
	a.subs = append(a.subs, ch)
	return ch
}

// CheckPayload validates p against the current round without recording it.
func (a *App) CheckPayload(roundID uint64, p Payload) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if err := a.current(roundID); err != nil {
		return err
	}
	return a.round.CheckPayload(p)
}

// DeliverPayload records p in the round identified by roundID.
func (a *App) DeliverPayload(roundID uint64, p Payload) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if err := a.current(roundID); err != nil {
		a.log.Debugf("ignoring %s payload from %s: %v", p.Tag(), p.Sender(), err)
		return err
	}
	if err := a.round.ProcessPayload(p); err != nil {
		a.metrics.PayloadRejected(string(a.view.Stage))
		a.logRound(logspec.PayloadRejected, err.Error()).Debugf("payload from %s rejected", p.Sender())
		return err
	}
	return nil
}

func (a *App) current(roundID uint64) error {
	if !a.started {
		return fmt.Errorf("%w: app not started", ErrStaleRound)
	}
	if roundID != a.view.RoundID {
		return fmt.Errorf("%w: round %d, current %d", ErrStaleRound, roundID, a.view.RoundID)
	}
	return nil
}

// EndBlock asks the current round for a decision. When it decides, the
// decision is committed and the next stage is entered.
func (a *App) EndBlock() (bool, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.started {
		return false, nil
	}
	decision, ok := a.round.EndBlock()
	if !ok {
		return false, nil
	}

	switch {
	case decision.ResetPeriod:
		s := a.db.ResetPeriod(decision.Pairs)
		a.metrics.StoreCommitted(s.Period(), s.Version())
		a.logRound(logspec.PeriodReset, string(decision.Event)).Infof("period %d started", s.Period())
	case decision.Updated:
		if err := a.db.Commit(decision.Snapshot); err != nil {
			return false, fmt.Errorf("committing %s: %w", a.view.Stage, err)
		}
		a.metrics.StoreCommitted(decision.Snapshot.Period(), decision.Snapshot.Version())
	}

	a.metrics.RoundDecided(string(a.view.Stage), string(decision.Event))
	a.logRound(logspec.RoundDecided, string(decision.Event)).Infof("%s decided %s", a.view.Stage, decision.Event)
	return true, a.transition(decision.Event)
}

// Timeout applies ev to the round identified by roundID. It is ignored
// unless roundID is current and ev has a configured timeout.
func (a *App) Timeout(roundID uint64, ev Event) (bool, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if err := a.current(roundID); err != nil {
		return false, nil
	}
	if _, ok := a.graph.Timeout(ev); !ok {
		return false, nil
	}
	if a.graph.IsFinal(a.view.Stage) {
		return false, nil
	}
	a.metrics.RoundTimeout(string(a.view.Stage), string(ev))
	a.logRound(logspec.RoundTimedOut, string(ev)).Infof("%s timed out", a.view.Stage)
	return true, a.transition(ev)
}

func (a *App) transition(ev Event) error {
	next, err := a.graph.NextStage(a.view.Stage, ev)
	if err != nil {
		return err
	}
	if a.graph.IsFinal(next) {
		a.checkKeys(next, a.graph.PostConditions(next), "post-condition")
	}
	a.enter(next, a.view.RoundID+1)
	return nil
}

func (a *App) enter(stage Stage, roundID uint64) {
	a.checkKeys(stage, a.graph.PreConditions(stage), "pre-condition")

	base := a.db.Latest()
	round, err := a.graph.NewRound(stage, base, a.committee)
	if err != nil {
		// graphs are validated at construction
		a.log.Panicf("entering %s: %v", stage, err)
	}
	a.round = round
	a.view = View{Stage: stage, RoundID: roundID, Period: base.Period(), Final: a.graph.IsFinal(stage)}
	a.logRound(logspec.RoundEntered, "").Infof("entered %s", stage)

	for _, ch := range a.subs {
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- a.view:
		default:
		}
	}
}

// checkKeys reports keys missing from the store as a data integrity fault.
// The stage is entered regardless; its behaviour fails on the strict read.
func (a *App) checkKeys(stage Stage, keys []string, kind string) {
	s := a.db.Latest()
	for _, k := range keys {
		if !s.Has(k) {
			a.log.Warnf("data integrity fault: %s %s of %s: %v", kind, k, stage, ledger.ErrMissingKey)
		}
	}
}

func (a *App) logRound(t logspec.RoundEventType, outcome string) logging.Logger {
	return a.log.WithFields(logspec.RoundEvent{
		Event: logspec.Event{
			Context: logspec.Agreement,
			Source:  a.source,
		},
		Type:    t,
		Stage:   string(a.view.Stage),
		Outcome: outcome,
		RoundID: a.view.RoundID,
		Period:  a.view.Period,
	}.Fields())
}

// IsStale reports whether err was caused by a payload for a past round.
func IsStale(err error) bool {
	return errors.Is(err, ErrStaleRound)
}
