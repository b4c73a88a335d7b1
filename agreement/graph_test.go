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
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/aytunc-tunay/ETHGlobal-Trifecta/test/partitiontest"
)

func TestMakeGraph(t *testing.T) {
	partitiontest.PartitionTest(t)

	g, err := MakeGraph(testGraphSpec())
	require.NoError(t, err)
	require.Equal(t, stageVote, g.InitialStage())
	require.True(t, g.IsFinal(stageFinished))
	require.False(t, g.IsFinal(stageVote))
	require.Equal(t, []Stage{stageBranch, stageFailed, stageFinished, stageVote}, g.Stages())

	next, err := g.NextStage(stageBranch, eventTransact)
	require.NoError(t, err)
	require.Equal(t, stageVote, next)

	_, err = g.NextStage(stageVote, eventTransact)
	require.ErrorIs(t, err, ErrConfiguration)
	_, err = g.NextStage("Nowhere", EventDone)
	require.ErrorIs(t, err, ErrConfiguration)

	d, ok := g.Timeout(EventRoundTimeout)
	require.True(t, ok)
	require.Equal(t, 30*time.Second, d)
	require.Equal(t, []Event{EventRoundTimeout}, g.StageTimeouts(stageVote))
	require.Empty(t, g.StageTimeouts(stageFinished))

	edges := g.Edges()
	require.Len(t, edges, 8)
	require.Equal(t, Edge{From: stageBranch, Event: EventDone, To: stageFinished}, edges[0])
}

func TestMakeGraphCopiesSpec(t *testing.T) {
	partitiontest.PartitionTest(t)

	spec := testGraphSpec()
	g := mustGraph(spec)
	spec.Transitions[stageVote][EventDone] = stageFailed

	next, err := g.NextStage(stageVote, EventDone)
	require.NoError(t, err)
	require.Equal(t, stageBranch, next)
}

func TestMakeGraphValidation(t *testing.T) {
	partitiontest.PartitionTest(t)

	cases := map[string]func(*GraphSpec){
		"undeclared target": func(s *GraphSpec) {
			s.Transitions[stageVote][EventDone] = "Missing"
		},
		"final with edges": func(s *GraphSpec) {
			s.Transitions[stageFinished] = map[Event]Stage{EventDone: stageVote}
		},
		"undeclared final": func(s *GraphSpec) {
			s.FinalStages = append(s.FinalStages, "Missing")
		},
		"undeclared initial": func(s *GraphSpec) {
			s.InitialStage = "Missing"
		},
		"dead end": func(s *GraphSpec) {
			s.Transitions["DeadEnd"] = map[Event]Stage{}
			s.Transitions[stageVote][eventTransact] = "DeadEnd"
		},
		"missing round": func(s *GraphSpec) {
			delete(s.Rounds, stageBranch)
		},
		"unreachable": func(s *GraphSpec) {
			s.Transitions["Island"] = map[Event]Stage{
				EventDone:         stageFinished,
				EventNoMajority:   "Island",
				EventRoundTimeout: "Island",
			}
			s.Rounds["Island"] = voteSpec.Factory()
		},
		"no majority unhandled": func(s *GraphSpec) {
			delete(s.Transitions[stageBranch], EventNoMajority)
		},
		"timeout unhandled": func(s *GraphSpec) {
			delete(s.Transitions[stageVote], EventRoundTimeout)
		},
		"extra timeout unhandled": func(s *GraphSpec) {
			s.EventToTimeout["slow"] = time.Minute
			s.Transitions[stageVote]["slow"] = stageVote
		},
		"dangling cycle": func(s *GraphSpec) {
			s.Transitions["Ping"] = map[Event]Stage{
				EventDone:         "Pong",
				EventNoMajority:   "Ping",
				EventRoundTimeout: "Ping",
			}
			s.Transitions["Pong"] = map[Event]Stage{
				EventDone:         "Ping",
				EventNoMajority:   "Pong",
				EventRoundTimeout: "Pong",
			}
			s.Rounds["Ping"] = voteSpec.Factory()
			s.Rounds["Pong"] = voteSpec.Factory()
			s.Transitions[stageVote][eventTransact] = "Ping"
		},
		"only retries": func(s *GraphSpec) {
			s.Transitions["Spin"] = map[Event]Stage{
				EventNoMajority:   "Spin",
				EventRoundTimeout: "Spin",
			}
			s.Rounds["Spin"] = voteSpec.Factory()
			s.Transitions[stageVote][eventTransact] = "Spin"
		},
		"non-positive timeout": func(s *GraphSpec) {
			s.EventToTimeout[EventRoundTimeout] = 0
		},
	}
	for name, mutate := range cases {
		spec := testGraphSpec()
		mutate(&spec)
		_, err := MakeGraph(spec)
		require.ErrorIs(t, err, ErrConfiguration, name)
	}
}

func TestMakeGraphAcceptsCycleThroughInitial(t *testing.T) {
	partitiontest.PartitionTest(t)

	spec := resetGraphSpec()
	spec.FinalStages = nil
	spec.Transitions[stageReset][EventDone] = stageReset
	delete(spec.Transitions, stageFinishedReset)
	_, err := MakeGraph(spec)
	require.NoError(t, err)

	// a stage whose only way forward is a retry never progresses
	spec.Transitions[stageReset] = map[Event]Stage{
		EventDone:         stageReset,
		EventNoMajority:   stageReset,
		EventRoundTimeout: stageReset,
	}
	spec.Transitions["Stuck"] = map[Event]Stage{
		EventNoMajority:   "Stuck",
		EventRoundTimeout: "Stuck",
	}
	spec.Rounds["Stuck"] = voteSpec.Factory()
	spec.InitialStages = []Stage{stageReset, "Stuck"}
	_, err = MakeGraph(spec)
	require.ErrorIs(t, err, ErrConfiguration)
}

const (
	stageReset         Stage = "ResetRound"
	stageFinishedReset Stage = "FinishedResetRound"
)

func resetGraphSpec() GraphSpec {
	return GraphSpec{
		Name:         "reset",
		InitialStage: stageReset,
		FinalStages:  []Stage{stageFinishedReset},
		Transitions: map[Stage]map[Event]Stage{
			stageReset: {
				EventDone:         stageFinishedReset,
				EventNoMajority:   stageReset,
				EventRoundTimeout: stageReset,
			},
			stageFinishedReset: {},
		},
		EventToTimeout:  map[Event]time.Duration{EventRoundTimeout: 30 * time.Second},
		CrossPeriodKeys: []string{"period_count"},
		Rounds: map[Stage]RoundFactory{
			stageReset: ThresholdRoundSpec{
				Stage:         stageReset,
				PayloadTag:    testPayloadTag,
				SelectionKeys: []string{"period_count"},
				ResetPeriod:   true,
			}.Factory(),
		},
	}
}

func TestChain(t *testing.T) {
	partitiontest.PartitionTest(t)

	g, err := Chain("chained", []*Graph{mustGraph(testGraphSpec()), mustGraph(resetGraphSpec())}, map[Stage]Stage{
		stageFinished:      stageReset,
		stageFailed:        stageReset,
		stageFinishedReset: stageVote,
	})
	require.NoError(t, err)
	require.Equal(t, stageVote, g.InitialStage())
	require.Equal(t, []string{"period_count"}, g.CrossPeriodKeys())
	require.Equal(t, []Stage{stageBranch, stageReset, stageVote}, g.Stages())

	next, err := g.NextStage(stageBranch, EventDone)
	require.NoError(t, err)
	require.Equal(t, stageReset, next)
	next, err = g.NextStage(stageReset, EventDone)
	require.NoError(t, err)
	require.Equal(t, stageVote, next)
	for _, s := range g.Stages() {
		require.False(t, g.IsFinal(s))
	}
}

func TestChainValidation(t *testing.T) {
	partitiontest.PartitionTest(t)

	a, b := mustGraph(testGraphSpec()), mustGraph(resetGraphSpec())

	_, err := Chain("bad", []*Graph{a, b}, map[Stage]Stage{stageVote: stageReset})
	require.ErrorIs(t, err, ErrConfiguration)

	_, err = Chain("bad", []*Graph{a, b}, map[Stage]Stage{stageFinished: stageBranch})
	require.ErrorIs(t, err, ErrConfiguration)

	strict := resetGraphSpec()
	strict.PreConditions = map[Stage][]string{stageReset: {"most_voted_tx_hash"}}
	_, err = Chain("bad", []*Graph{a, mustGraph(strict)}, map[Stage]Stage{stageFinished: stageReset})
	require.ErrorIs(t, err, ErrConfiguration)

	slow := resetGraphSpec()
	slow.EventToTimeout = map[Event]time.Duration{EventRoundTimeout: time.Minute}
	_, err = Chain("bad", []*Graph{a, mustGraph(slow)}, nil)
	require.ErrorIs(t, err, ErrConfiguration)

	_, err = Chain("bad", []*Graph{a, a}, nil)
	require.ErrorIs(t, err, ErrConfiguration)
}
