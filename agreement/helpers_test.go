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
	"time"

	"github.com/aytunc-tunay/ETHGlobal-Trifecta/ledger"
	"github.com/aytunc-tunay/ETHGlobal-Trifecta/protocol"
)

const testPayloadTag protocol.Tag = "TT"

const (
	stageVote     Stage = "VoteRound"
	stageBranch   Stage = "BranchRound"
	stageFinished Stage = "FinishedRound"
	stageFailed   Stage = "FailedRound"

	eventTransact Event = "transact"
)

type testPayload struct {
	_struct struct{} `codec:","`

	From  string `codec:"sender"`
	Value string `codec:"value"`
	Ev    Event  `codec:"event"`
}

func (p *testPayload) Sender() string           { return p.From }
func (p *testPayload) Tag() protocol.Tag        { return testPayloadTag }
func (p *testPayload) Selection() []interface{} { return []interface{}{p.Value} }
func (p *testPayload) PayloadEvent() Event      { return p.Ev }

func init() {
	RegisterPayload(testPayloadTag, func() Payload { return new(testPayload) })
}

func vote(from, value string) *testPayload {
	return &testPayload{From: from, Value: value}
}

func branchVote(from, value string, ev Event) *testPayload {
	return &testPayload{From: from, Value: value, Ev: ev}
}

func mustCommittee(n, threshold int) Committee {
	ids := make([]string, n)
	for i := range ids {
		ids[i] = string(rune('a' + i))
	}
	c, err := MakeCommittee(ids, threshold)
	if err != nil {
		panic(err)
	}
	return c
}

var voteSpec = ThresholdRoundSpec{
	Stage:         stageVote,
	PayloadTag:    testPayloadTag,
	SelectionKeys: []string{"value"},
	CollectionKey: "participant_to_vote_round",
}

var branchSpec = ThresholdRoundSpec{
	Stage:         stageBranch,
	PayloadTag:    testPayloadTag,
	SelectionKeys: []string{"choice"},
	CollectionKey: "participant_to_branch_round",
	BranchEvents:  []Event{EventDone, eventTransact, EventError},
}

// testGraphSpec is VoteRound --done--> BranchRound --done|error--> FailedRound/FinishedRound,
// BranchRound --transact--> VoteRound, with self loops on no_majority and round_timeout.
func testGraphSpec() GraphSpec {
	return GraphSpec{
		Name:         "test",
		InitialStage: stageVote,
		FinalStages:  []Stage{stageFinished, stageFailed},
		Transitions: map[Stage]map[Event]Stage{
			stageVote: {
				EventDone:         stageBranch,
				EventNoMajority:   stageVote,
				EventRoundTimeout: stageVote,
			},
			stageBranch: {
				EventDone:         stageFinished,
				eventTransact:     stageVote,
				EventError:        stageFailed,
				EventNoMajority:   stageBranch,
				EventRoundTimeout: stageBranch,
			},
			stageFinished: {},
			stageFailed:   {},
		},
		EventToTimeout: map[Event]time.Duration{EventRoundTimeout: 30 * time.Second},
		PostConditions: map[Stage][]string{stageFinished: {"value", "choice"}},
		Rounds: map[Stage]RoundFactory{
			stageVote:   voteSpec.Factory(),
			stageBranch: branchSpec.Factory(),
		},
	}
}

func mustGraph(spec GraphSpec) *Graph {
	g, err := MakeGraph(spec)
	if err != nil {
		panic(err)
	}
	return g
}

func emptySnapshot() ledger.Snapshot {
	return ledger.MakeSnapshot(0, nil)
}
