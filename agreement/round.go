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

	"github.com/aytunc-tunay/ETHGlobal-Trifecta/ledger"
	"github.com/aytunc-tunay/ETHGlobal-Trifecta/protocol"
)

// Decision is the outcome of a round.
type Decision struct {
	// Event selects the next stage.
	Event Event
	// Snapshot is the store to commit. It equals the round's base snapshot
	// when nothing was written.
	Snapshot ledger.Snapshot
	// Updated reports whether Snapshot carries new writes.
	Updated bool
	// ResetPeriod asks the App to start a new period, layering Pairs over
	// the reset store instead of committing Snapshot.
	ResetPeriod bool
	Pairs       ledger.Pairs
}

// Round collects payloads for one visit of a stage and decides its outcome.
// A Round is confined to the App that owns it.
type Round interface {
	Stage() Stage
	CheckPayload(p Payload) error
	ProcessPayload(p Payload) error
	EndBlock() (Decision, bool)
}

// RoundFactory creates the round of a stage from the snapshot current at
// stage entry.
type RoundFactory func(base ledger.Snapshot, committee Committee) Round

// ThresholdRoundSpec configures a collect-same-until-threshold round.
type ThresholdRoundSpec struct {
	Stage         Stage
	PayloadTag    protocol.Tag
	SelectionKeys []string
	CollectionKey string

	DoneEvent       Event
	NoMajorityEvent Event

	// BranchEvents lists the events a payload may carry. When non-empty the
	// carried event is part of the vote and becomes the round outcome.
	BranchEvents []Event

	// ResetPeriod makes a decision start a new period.
	ResetPeriod bool
}

// Factory returns a RoundFactory building rounds from spec.
func (spec ThresholdRoundSpec) Factory() RoundFactory {
	return func(base ledger.Snapshot, committee Committee) Round {
		return NewThresholdRound(spec, base, committee)
	}
}

// ThresholdRound decides once one selection has been submitted by at least
// the committee threshold, or once no selection can reach it any more.
type ThresholdRound struct {
	spec      ThresholdRoundSpec
	base      ledger.Snapshot
	committee Committee

	collection Collection
	decided    bool
}

// NewThresholdRound creates a round with an empty collection.
func NewThresholdRound(spec ThresholdRoundSpec, base ledger.Snapshot, committee Committee) *ThresholdRound {
	if spec.DoneEvent == "" {
		spec.DoneEvent = EventDone
	}
	if spec.NoMajorityEvent == "" {
		spec.NoMajorityEvent = EventNoMajority
	}
	return &ThresholdRound{
		spec:       spec,
		base:       base,
		committee:  committee,
		collection: make(Collection),
	}
}

// Stage implements Round.
func (r *ThresholdRound) Stage() Stage {
	return r.spec.Stage
}

// Collection returns the payloads received so far.
func (r *ThresholdRound) Collection() Collection {
	out := make(Collection, len(r.collection))
	for k, v := range r.collection {
		out[k] = v
	}
	return out
}

func (r *ThresholdRound) branching() bool {
	return len(r.spec.BranchEvents) > 0
}

// CheckPayload implements Round.
func (r *ThresholdRound) CheckPayload(p Payload) error {
	if r.decided {
		return fmt.Errorf("%w: %s", ErrRoundDecided, r.spec.Stage)
	}
	if !r.committee.IsMember(p.Sender()) {
		return fmt.Errorf("%w: %s is not a committee member", ErrValidation, p.Sender())
	}
	if p.Tag() != r.spec.PayloadTag {
		return fmt.Errorf("%w: %s expects %s payloads, got %s", ErrValidation, r.spec.Stage, r.spec.PayloadTag, p.Tag())
	}
	if got := len(p.Selection()); got != len(r.spec.SelectionKeys) {
		return fmt.Errorf("%w: %s expects %d selection values, got %d", ErrValidation, r.spec.Stage, len(r.spec.SelectionKeys), got)
	}
	if r.branching() {
		carrier, ok := p.(EventCarrier)
		if !ok {
			return fmt.Errorf("%w: %s payload carries no event", ErrValidation, r.spec.Stage)
		}
		if !r.allowsEvent(carrier.PayloadEvent()) {
			return fmt.Errorf("%w: %s does not accept event %q", ErrValidation, r.spec.Stage, carrier.PayloadEvent())
		}
	}
	return nil
}

func (r *ThresholdRound) allowsEvent(ev Event) bool {
	for _, allowed := range r.spec.BranchEvents {
		if ev == allowed {
			return true
		}
	}
	return false
}

// ProcessPayload implements Round. A resubmission by the same sender
// replaces its previous payload.
func (r *ThresholdRound) ProcessPayload(p Payload) error {
	if err := r.CheckPayload(p); err != nil {
		return err
	}
	r.collection[p.Sender()] = p
	return nil
}

// EndBlock implements Round.
func (r *ThresholdRound) EndBlock() (Decision, bool) {
	if r.decided {
		return Decision{}, false
	}

	counts := make(map[string]int)
	first := make(map[string]Payload)
	for _, sender := range r.collection.Senders() {
		p := r.collection[sender]
		key := selectionKey(p, r.branching())
		counts[key]++
		if _, ok := first[key]; !ok {
			first[key] = p
		}
	}

	var top string
	topCount := 0
	for key, n := range counts {
		// ties resolve to the smallest key so every replica agrees on top
		if n > topCount || (n == topCount && key < top) {
			top, topCount = key, n
		}
	}

	threshold := r.committee.Threshold()
	unvoted := r.committee.Size() - len(r.collection)

	switch {
	case topCount >= threshold:
		r.decided = true
		return r.commit(first[top])
	case topCount+unvoted < threshold:
		r.decided = true
		return Decision{Event: r.spec.NoMajorityEvent, Snapshot: r.base}, true
	default:
		return Decision{}, false
	}
}

func (r *ThresholdRound) commit(winner Payload) (Decision, bool) {
	pairs := make(ledger.Pairs, len(r.spec.SelectionKeys)+1)
	for i, v := range winner.Selection() {
		pairs[r.spec.SelectionKeys[i]] = v
	}

	ev := r.spec.DoneEvent
	if carrier, ok := winner.(EventCarrier); ok && r.branching() {
		ev = carrier.PayloadEvent()
	}

	if r.spec.CollectionKey != "" {
		serialized, err := SerializeCollection(r.collection)
		if err != nil {
			return Decision{Event: EventError, Snapshot: r.base}, true
		}
		pairs[r.spec.CollectionKey] = serialized
	}

	if r.spec.ResetPeriod {
		return Decision{Event: ev, Snapshot: r.base, ResetPeriod: true, Pairs: pairs}, true
	}
	return Decision{Event: ev, Snapshot: r.base.Update(pairs), Updated: true, Pairs: pairs}, true
}

// DegenerateRound is the round of a final stage. It never decides and
// rejects every payload.
type DegenerateRound struct {
	stage Stage
}

// DegenerateFactory returns the RoundFactory of a final stage.
func DegenerateFactory(stage Stage) RoundFactory {
	return func(ledger.Snapshot, Committee) Round {
		return &DegenerateRound{stage: stage}
	}
}

// Stage implements Round.
func (r *DegenerateRound) Stage() Stage {
	return r.stage
}

// CheckPayload implements Round.
func (r *DegenerateRound) CheckPayload(p Payload) error {
	return fmt.Errorf("%w: final stage %s accepts no payloads", ErrValidation, r.stage)
}

// ProcessPayload implements Round.
func (r *DegenerateRound) ProcessPayload(p Payload) error {
	return r.CheckPayload(p)
}

// EndBlock implements Round.
func (r *DegenerateRound) EndBlock() (Decision, bool) {
	return Decision{}, false
}
