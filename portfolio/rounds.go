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

// Package portfolio is the portfolio management pipeline: pull balances and
// prices, ask a completion service for a rebalancing decision, and prepare a
// multi-signature transaction executing it.
package portfolio

import (
	"time"

	"github.com/aytunc-tunay/ETHGlobal-Trifecta/agreement"
)

// EventTransact is emitted by the decision round when the committee agreed
// on a rebalancing action.
const EventTransact agreement.Event = "transact"

// Stages of the portfolio pipeline.
const (
	DataPullRound               agreement.Stage = "data_pull_round"
	DecisionMakingRound         agreement.Stage = "decision_making_round"
	TxPreparationRound          agreement.Stage = "tx_preparation_round"
	FinishedDecisionMakingRound agreement.Stage = "finished_decision_making_round"
	FinishedTxPreparationRound  agreement.Stage = "finished_tx_preparation_round"

	ResetAndPauseRound         agreement.Stage = "reset_and_pause_round"
	FinishedResetAndPauseRound agreement.Stage = "finished_reset_and_pause_round"
)

// Store keys.
const (
	KeyTokenValues         = "token_values"
	KeyTotalPortfolioValue = "total_portfolio_value"
	KeyAdjustmentBalances  = "adjustment_balances"
	KeyAuditReportRef      = "audit_report_ref"
	KeyTxSubmitter         = "tx_submitter"
	KeyMostVotedTxHash     = "most_voted_tx_hash"
	KeyPeriodCount         = "period_count"

	KeyParticipantToDataRound           = "participant_to_data_round"
	KeyParticipantToDecisionMakingRound = "participant_to_decision_making_round"
	KeyParticipantToTxRound             = "participant_to_tx_round"
	KeyParticipantToResetRound          = "participant_to_reset_round"
)

var dataPullRoundSpec = agreement.ThresholdRoundSpec{
	Stage:         DataPullRound,
	PayloadTag:    dataPullTag,
	SelectionKeys: []string{KeyTokenValues, KeyTotalPortfolioValue},
	CollectionKey: KeyParticipantToDataRound,
}

var decisionMakingRoundSpec = agreement.ThresholdRoundSpec{
	Stage:         DecisionMakingRound,
	PayloadTag:    decisionMakingTag,
	SelectionKeys: []string{KeyAdjustmentBalances, KeyAuditReportRef},
	CollectionKey: KeyParticipantToDecisionMakingRound,
	BranchEvents:  []agreement.Event{agreement.EventDone, EventTransact, agreement.EventError},
}

var txPreparationRoundSpec = agreement.ThresholdRoundSpec{
	Stage:         TxPreparationRound,
	PayloadTag:    txPreparationTag,
	SelectionKeys: []string{KeyTxSubmitter, KeyMostVotedTxHash},
	CollectionKey: KeyParticipantToTxRound,
}

var resetAndPauseRoundSpec = agreement.ThresholdRoundSpec{
	Stage:         ResetAndPauseRound,
	PayloadTag:    resetTag,
	SelectionKeys: []string{KeyPeriodCount},
	CollectionKey: KeyParticipantToResetRound,
	ResetPeriod:   true,
}

// retry maps the events that restart a stage onto the stage itself.
func retry(stage agreement.Stage, edges map[agreement.Event]agreement.Stage) map[agreement.Event]agreement.Stage {
	edges[agreement.EventNoMajority] = stage
	edges[agreement.EventRoundTimeout] = stage
	return edges
}

// GraphSpec returns the portfolio transition table. Every working stage
// is retried after roundTimeout.
func GraphSpec(roundTimeout time.Duration) agreement.GraphSpec {
	return agreement.GraphSpec{
		Name:         "portfolio_manager",
		InitialStage: DataPullRound,
		FinalStages:  []agreement.Stage{FinishedDecisionMakingRound, FinishedTxPreparationRound},
		Transitions: map[agreement.Stage]map[agreement.Event]agreement.Stage{
			DataPullRound: retry(DataPullRound, map[agreement.Event]agreement.Stage{
				agreement.EventDone: DecisionMakingRound,
			}),
			DecisionMakingRound: retry(DecisionMakingRound, map[agreement.Event]agreement.Stage{
				agreement.EventDone:  FinishedDecisionMakingRound,
				EventTransact:        TxPreparationRound,
				agreement.EventError: FinishedDecisionMakingRound,
			}),
			TxPreparationRound: retry(TxPreparationRound, map[agreement.Event]agreement.Stage{
				agreement.EventDone: FinishedTxPreparationRound,
			}),
			FinishedDecisionMakingRound: {},
			FinishedTxPreparationRound:  {},
		},
		EventToTimeout: map[agreement.Event]time.Duration{agreement.EventRoundTimeout: roundTimeout},
		PreConditions: map[agreement.Stage][]string{
			DecisionMakingRound: {KeyTokenValues, KeyTotalPortfolioValue},
			TxPreparationRound:  {KeyAdjustmentBalances},
		},
		PostConditions: map[agreement.Stage][]string{
			FinishedTxPreparationRound: {KeyMostVotedTxHash},
		},
		Rounds: map[agreement.Stage]agreement.RoundFactory{
			DataPullRound:       dataPullRoundSpec.Factory(),
			DecisionMakingRound: decisionMakingRoundSpec.Factory(),
			TxPreparationRound:  txPreparationRoundSpec.Factory(),
		},
	}
}

// ResetGraphSpec returns the reset-and-pause table: one round starting a new
// period.
func ResetGraphSpec(roundTimeout time.Duration) agreement.GraphSpec {
	return agreement.GraphSpec{
		Name:         "reset_pause",
		InitialStage: ResetAndPauseRound,
		FinalStages:  []agreement.Stage{FinishedResetAndPauseRound},
		Transitions: map[agreement.Stage]map[agreement.Event]agreement.Stage{
			ResetAndPauseRound: retry(ResetAndPauseRound, map[agreement.Event]agreement.Stage{
				agreement.EventDone: FinishedResetAndPauseRound,
			}),
			FinishedResetAndPauseRound: {},
		},
		EventToTimeout:  map[agreement.Event]time.Duration{agreement.EventRoundTimeout: roundTimeout},
		CrossPeriodKeys: []string{KeyPeriodCount},
		Rounds: map[agreement.Stage]agreement.RoundFactory{
			ResetAndPauseRound: resetAndPauseRoundSpec.Factory(),
		},
	}
}

// MakeGraph builds the portfolio graph on its own.
func MakeGraph(roundTimeout time.Duration) (*agreement.Graph, error) {
	return agreement.MakeGraph(GraphSpec(roundTimeout))
}

// ChainedGraph composes the portfolio graph with reset-and-pause so the
// pipeline runs forever, one period per pass.
func ChainedGraph(roundTimeout time.Duration) (*agreement.Graph, error) {
	pm, err := MakeGraph(roundTimeout)
	if err != nil {
		return nil, err
	}
	reset, err := agreement.MakeGraph(ResetGraphSpec(roundTimeout))
	if err != nil {
		return nil, err
	}
	return agreement.Chain("portfolio_manager_chained", []*agreement.Graph{pm, reset}, map[agreement.Stage]agreement.Stage{
		FinishedDecisionMakingRound: ResetAndPauseRound,
		FinishedTxPreparationRound:  ResetAndPauseRound,
		FinishedResetAndPauseRound:  DataPullRound,
	})
}
