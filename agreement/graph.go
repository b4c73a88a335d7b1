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
	"fmt"
	"sort"
	"time"

	"github.com/aytunc-tunay/ETHGlobal-Trifecta/ledger"
)

// GraphSpec declares an application: its stages, the transitions between
// them and the round each stage runs.
type GraphSpec struct {
	Name string

	// InitialStage is entered at start. InitialStages lists every stage a
	// chained predecessor may enter; it always includes InitialStage.
	InitialStage  Stage
	InitialStages []Stage
	FinalStages   []Stage

	// Transitions maps every declared stage to its outgoing edges. Final
	// stages are declared with an empty map.
	Transitions map[Stage]map[Event]Stage

	// EventToTimeout gives the delay after which the clock raises an event.
	EventToTimeout map[Event]time.Duration

	// PreConditions lists store keys required when entering an initial stage,
	// PostConditions the keys guaranteed when entering a final stage.
	PreConditions  map[Stage][]string
	PostConditions map[Stage][]string

	// CrossPeriodKeys survive period resets.
	CrossPeriodKeys []string

	// Rounds builds the round of every non-final stage.
	Rounds map[Stage]RoundFactory
}

// Edge is one transition of a Graph.
type Edge struct {
	From  Stage
	Event Event
	To    Stage
}

// Graph is a validated, immutable GraphSpec.
type Graph struct {
	spec   GraphSpec
	finals map[Stage]bool
}

// MakeGraph validates spec. Every failure wraps ErrConfiguration.
func MakeGraph(spec GraphSpec) (*Graph, error) {
	g := &Graph{spec: copySpec(spec), finals: make(map[Stage]bool)}
	if err := g.validate(); err != nil {
		return nil, fmt.Errorf("%w: graph %s: %v", ErrConfiguration, spec.Name, err)
	}
	return g, nil
}

func copySpec(spec GraphSpec) GraphSpec {
	out := spec
	out.InitialStages = append([]Stage(nil), spec.InitialStages...)
	if len(out.InitialStages) == 0 && spec.InitialStage != "" {
		out.InitialStages = []Stage{spec.InitialStage}
	}
	out.FinalStages = append([]Stage(nil), spec.FinalStages...)
	out.Transitions = make(map[Stage]map[Event]Stage, len(spec.Transitions))
	for from, edges := range spec.Transitions {
		m := make(map[Event]Stage, len(edges))
		for ev, to := range edges {
			m[ev] = to
		}
		out.Transitions[from] = m
	}
	out.EventToTimeout = make(map[Event]time.Duration, len(spec.EventToTimeout))
	for ev, d := range spec.EventToTimeout {
		out.EventToTimeout[ev] = d
	}
	out.PreConditions = copyKeys(spec.PreConditions)
	out.PostConditions = copyKeys(spec.PostConditions)
	out.CrossPeriodKeys = append([]string(nil), spec.CrossPeriodKeys...)
	out.Rounds = make(map[Stage]RoundFactory, len(spec.Rounds))
	for s, f := range spec.Rounds {
		out.Rounds[s] = f
	}
	return out
}

func copyKeys(m map[Stage][]string) map[Stage][]string {
	out := make(map[Stage][]string, len(m))
	for s, keys := range m {
		out[s] = append([]string(nil), keys...)
	}
	return out
}

func (g *Graph) validate() error {
	spec := g.spec
	if spec.InitialStage == "" {
		return fmt.Errorf("no initial stage")
	}
	if len(spec.Transitions) == 0 {
		return fmt.Errorf("no stages declared")
	}
	for _, f := range spec.FinalStages {
		edges, ok := spec.Transitions[f]
		if !ok {
			return fmt.Errorf("final stage %s is not declared", f)
		}
		if len(edges) != 0 {
			return fmt.Errorf("final stage %s has outgoing transitions", f)
		}
		g.finals[f] = true
	}

	hasInitial := false
	for _, s := range spec.InitialStages {
		if _, ok := spec.Transitions[s]; !ok {
			return fmt.Errorf("initial stage %s is not declared", s)
		}
		hasInitial = hasInitial || s == spec.InitialStage
	}
	if !hasInitial {
		return fmt.Errorf("initial stage %s is not among the initial stages", spec.InitialStage)
	}

	for from, edges := range spec.Transitions {
		if !g.finals[from] {
			if len(edges) == 0 {
				return fmt.Errorf("stage %s has no outgoing transitions and is not final", from)
			}
			if spec.Rounds[from] == nil {
				return fmt.Errorf("stage %s has no round", from)
			}
		}
		for ev, to := range edges {
			if _, ok := spec.Transitions[to]; !ok {
				return fmt.Errorf("transition %s --%s--> %s targets an undeclared stage", from, ev, to)
			}
		}
	}

	for ev, d := range spec.EventToTimeout {
		if d <= 0 {
			return fmt.Errorf("timeout of %s must be positive", ev)
		}
	}

	retries := g.retryEvents()
	for from, edges := range spec.Transitions {
		if g.finals[from] {
			continue
		}
		for _, ev := range retries {
			if _, ok := edges[ev]; !ok {
				return fmt.Errorf("stage %s does not handle %s", from, ev)
			}
		}
	}

	reached := g.reachable()
	for s := range spec.Transitions {
		if !reached[s] {
			return fmt.Errorf("stage %s is unreachable", s)
		}
	}
	live := g.live(retries)
	for _, s := range sortedStages(reached) {
		if !live[s] {
			return fmt.Errorf("stage %s can neither reach a final stage nor return to an initial stage", s)
		}
	}
	return nil
}

// retryEvents returns the events every working stage must map: the no
// majority event and every event raised by the clock.
func (g *Graph) retryEvents() []Event {
	events := []Event{EventNoMajority}
	for ev := range g.spec.EventToTimeout {
		if ev != EventNoMajority {
			events = append(events, ev)
		}
	}
	sort.Slice(events, func(i, j int) bool { return events[i] < events[j] })
	return events
}

// live returns the stages that make progress: a final stage is reached, or
// an initial stage is entered again after at least one transition. Edges on
// retry events do not count as progress.
func (g *Graph) live(retries []Event) map[Stage]bool {
	retry := make(map[Event]bool, len(retries))
	for _, ev := range retries {
		retry[ev] = true
	}
	initials := make(map[Stage]bool, len(g.spec.InitialStages))
	for _, s := range g.spec.InitialStages {
		initials[s] = true
	}
	live := make(map[Stage]bool)
	for f := range g.finals {
		live[f] = true
	}
	for changed := true; changed; {
		changed = false
		for from, edges := range g.spec.Transitions {
			if live[from] {
				continue
			}
			for ev, to := range edges {
				if !retry[ev] && (live[to] || initials[to]) {
					live[from] = true
					changed = true
					break
				}
			}
		}
	}
	return live
}

func (g *Graph) reachable() map[Stage]bool {
	seen := make(map[Stage]bool)
	queue := append([]Stage(nil), g.spec.InitialStages...)
	for len(queue) > 0 {
		s := queue[0]
		queue = queue[1:]
		if seen[s] {
			continue
		}
		seen[s] = true
		for _, to := range g.spec.Transitions[s] {
			queue = append(queue, to)
		}
	}
	return seen
}

// Name returns the application name.
func (g *Graph) Name() string {
	return g.spec.Name
}

// InitialStage returns the stage entered at start.
func (g *Graph) InitialStage() Stage {
	return g.spec.InitialStage
}

// IsFinal reports whether s is a final stage.
func (g *Graph) IsFinal(s Stage) bool {
	return g.finals[s]
}

// NextStage returns the stage following current on ev.
func (g *Graph) NextStage(current Stage, ev Event) (Stage, error) {
	edges, ok := g.spec.Transitions[current]
	if !ok {
		return "", fmt.Errorf("%w: unknown stage %s", ErrConfiguration, current)
	}
	next, ok := edges[ev]
	if !ok {
		return "", fmt.Errorf("%w: stage %s has no transition on %s", ErrConfiguration, current, ev)
	}
	return next, nil
}

// Timeout returns the delay configured for ev.
func (g *Graph) Timeout(ev Event) (time.Duration, bool) {
	d, ok := g.spec.EventToTimeout[ev]
	return d, ok
}

// StageTimeouts returns the timeout events handled by stage, earliest first.
func (g *Graph) StageTimeouts(stage Stage) []Event {
	var events []Event
	for ev := range g.spec.Transitions[stage] {
		if _, ok := g.spec.EventToTimeout[ev]; ok {
			events = append(events, ev)
		}
	}
	sort.Slice(events, func(i, j int) bool {
		di, dj := g.spec.EventToTimeout[events[i]], g.spec.EventToTimeout[events[j]]
		if di != dj {
			return di < dj
		}
		return events[i] < events[j]
	})
	return events
}

// NewRound builds the round of stage.
func (g *Graph) NewRound(stage Stage, base ledger.Snapshot, committee Committee) (Round, error) {
	if g.finals[stage] {
		return DegenerateFactory(stage)(base, committee), nil
	}
	factory := g.spec.Rounds[stage]
	if factory == nil {
		return nil, fmt.Errorf("%w: stage %s has no round", ErrConfiguration, stage)
	}
	return factory(base, committee), nil
}

// PreConditions returns the keys required when entering stage.
func (g *Graph) PreConditions(stage Stage) []string {
	return append([]string(nil), g.spec.PreConditions[stage]...)
}

// PostConditions returns the keys guaranteed when entering stage.
func (g *Graph) PostConditions(stage Stage) []string {
	return append([]string(nil), g.spec.PostConditions[stage]...)
}

// CrossPeriodKeys returns the keys that survive period resets.
func (g *Graph) CrossPeriodKeys() []string {
	return append([]string(nil), g.spec.CrossPeriodKeys...)
}

// Stages returns every declared stage, sorted.
func (g *Graph) Stages() []Stage {
	stages := make([]Stage, 0, len(g.spec.Transitions))
	for s := range g.spec.Transitions {
		stages = append(stages, s)
	}
	sort.Slice(stages, func(i, j int) bool { return stages[i] < stages[j] })
	return stages
}

// Edges returns every transition sorted by source stage then event.
func (g *Graph) Edges() []Edge {
	var edges []Edge
	for from, m := range g.spec.Transitions {
		for ev, to := range m {
			edges = append(edges, Edge{From: from, Event: ev, To: to})
		}
	}
	sort.Slice(edges, func(i, j int) bool {
		if edges[i].From != edges[j].From {
			return edges[i].From < edges[j].From
		}
		return edges[i].Event < edges[j].Event
	})
	return edges
}

// Chain composes graphs into one application. mapping glues a final stage
// of one graph to an initial stage of another; every edge into the final
// stage is redirected to its target. The first graph provides the initial
// stage of the result.
func Chain(name string, graphs []*Graph, mapping map[Stage]Stage) (*Graph, error) {
	if len(graphs) == 0 {
		return nil, fmt.Errorf("%w: chain %s has no graphs", ErrConfiguration, name)
	}
	spec := GraphSpec{
		Name:           name,
		InitialStage:   graphs[0].spec.InitialStage,
		Transitions:    make(map[Stage]map[Event]Stage),
		EventToTimeout: make(map[Event]time.Duration),
		PreConditions:  make(map[Stage][]string),
		PostConditions: make(map[Stage][]string),
		Rounds:         make(map[Stage]RoundFactory),
	}
	initials := make(map[Stage]bool)
	finals := make(map[Stage]bool)
	crossKeys := make(map[string]bool)

	for _, g := range graphs {
		for _, s := range g.spec.InitialStages {
			initials[s] = true
		}
		for f := range g.finals {
			finals[f] = true
		}
		for from, edges := range g.spec.Transitions {
			if _, dup := spec.Transitions[from]; dup {
				return nil, fmt.Errorf("%w: chain %s declares stage %s twice", ErrConfiguration, name, from)
			}
			spec.Transitions[from] = edges
		}
		for ev, d := range g.spec.EventToTimeout {
			if prev, ok := spec.EventToTimeout[ev]; ok && prev != d {
				return nil, fmt.Errorf("%w: chain %s has conflicting timeouts for %s", ErrConfiguration, name, ev)
			}
			spec.EventToTimeout[ev] = d
		}
		for s, keys := range g.spec.PreConditions {
			spec.PreConditions[s] = keys
		}
		for s, keys := range g.spec.PostConditions {
			spec.PostConditions[s] = keys
		}
		for s, f := range g.spec.Rounds {
			spec.Rounds[s] = f
		}
		for _, k := range g.spec.CrossPeriodKeys {
			crossKeys[k] = true
		}
	}

	for from, to := range mapping {
		if !finals[from] {
			return nil, fmt.Errorf("%w: chain %s maps %s which is not a final stage", ErrConfiguration, name, from)
		}
		if !initials[to] {
			return nil, fmt.Errorf("%w: chain %s maps onto %s which is not an initial stage", ErrConfiguration, name, to)
		}
		guaranteed := make(map[string]bool)
		for _, k := range spec.PostConditions[from] {
			guaranteed[k] = true
		}
		for _, k := range spec.PreConditions[to] {
			if !guaranteed[k] {
				return nil, fmt.Errorf("%w: chain %s: %s does not guarantee %s required by %s", ErrConfiguration, name, from, k, to)
			}
		}
	}

	for from, edges := range spec.Transitions {
		redirected := make(map[Event]Stage, len(edges))
		for ev, to := range edges {
			if target, ok := mapping[to]; ok {
				to = target
			}
			redirected[ev] = to
		}
		spec.Transitions[from] = redirected
	}
	for from := range mapping {
		delete(spec.Transitions, from)
		delete(spec.PostConditions, from)
		delete(finals, from)
	}

	spec.InitialStages = sortedStages(initials)
	spec.FinalStages = sortedStages(finals)
	for k := range crossKeys {
		spec.CrossPeriodKeys = append(spec.CrossPeriodKeys, k)
	}
	sort.Strings(spec.CrossPeriodKeys)
	return MakeGraph(spec)
}

func sortedStages(set map[Stage]bool) []Stage {
	out := make([]Stage, 0, len(set))
	for s := range set {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
