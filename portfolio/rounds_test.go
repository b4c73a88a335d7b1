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

package portfolio

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/aytunc-tunay/ETHGlobal-Trifecta/agreement"
	"github.com/aytunc-tunay/ETHGlobal-Trifecta/agreement/agreementtest"
	"github.com/aytunc-tunay/ETHGlobal-Trifecta/ledger"
	"github.com/aytunc-tunay/ETHGlobal-Trifecta/test/partitiontest"
)

var setup = ledger.Pairs{KeyPeriodCount: uint64(0)}

func TestPortfolioGraph(t *testing.T) {
	partitiontest.PartitionTest(t)

	g, err := MakeGraph(30 * time.Second)
	require.NoError(t, err)
	require.Equal(t, DataPullRound, g.InitialStage())
	require.True(t, g.IsFinal(FinishedDecisionMakingRound))
	require.True(t, g.IsFinal(FinishedTxPreparationRound))
	require.Equal(t, []string{KeyMostVotedTxHash}, g.PostConditions(FinishedTxPreparationRound))

	edges := []struct {
		from agreement.Stage
		ev   agreement.Event
		to   agreement.Stage
	}{
		{DataPullRound, agreement.EventDone, DecisionMakingRound},
		{DecisionMakingRound, agreement.EventDone, FinishedDecisionMakingRound},
		{DecisionMakingRound, EventTransact, TxPreparationRound},
		{DecisionMakingRound, agreement.EventError, FinishedDecisionMakingRound},
		{TxPreparationRound, agreement.EventDone, FinishedTxPreparationRound},
	}
	for _, e := range edges {
		next, err := g.NextStage(e.from, e.ev)
		require.NoError(t, err)
		require.Equal(t, e.to, next, "%s --%s-->", e.from, e.ev)
	}
	for _, s := range []agreement.Stage{DataPullRound, DecisionMakingRound, TxPreparationRound} {
		for _, ev := range []agreement.Event{agreement.EventNoMajority, agreement.EventRoundTimeout} {
			next, err := g.NextStage(s, ev)
			require.NoError(t, err)
			require.Equal(t, s, next)
		}
	}
	_, err = g.NextStage(DataPullRound, EventTransact)
	require.ErrorIs(t, err, agreement.ErrConfiguration)

	d, ok := g.Timeout(agreement.EventRoundTimeout)
	require.True(t, ok)
	require.Equal(t, 30*time.Second, d)
}

func TestChainedGraph(t *testing.T) {
	partitiontest.PartitionTest(t)

	g, err := ChainedGraph(time.Minute)
	require.NoError(t, err)
	require.Equal(t, DataPullRound, g.InitialStage())
	require.Equal(t, []string{KeyPeriodCount}, g.CrossPeriodKeys())
	require.Equal(t, []agreement.Stage{DataPullRound, DecisionMakingRound, ResetAndPauseRound, TxPreparationRound}, g.Stages())

	for _, ev := range []agreement.Event{agreement.EventDone, agreement.EventError} {
		next, err := g.NextStage(DecisionMakingRound, ev)
		require.NoError(t, err)
		require.Equal(t, ResetAndPauseRound, next)
	}
	next, err := g.NextStage(TxPreparationRound, agreement.EventDone)
	require.NoError(t, err)
	require.Equal(t, ResetAndPauseRound, next)
	next, err = g.NextStage(ResetAndPauseRound, agreement.EventDone)
	require.NoError(t, err)
	require.Equal(t, DataPullRound, next)

	_, err = ChainedGraph(0)
	require.ErrorIs(t, err, agreement.ErrConfiguration)
}

func dataPull(from string, values map[string]float64) *DataPullPayload {
	v := MakeValuation(values)
	return &DataPullPayload{From: from, TokenValues: v.Encode(), TotalPortfolioValue: v.Total}
}

func mustPortfolioCommittee(t *testing.T, g *agreement.Graph) *agreementtest.Committee {
	c, err := agreementtest.MakeCommittee(t, g, 4, 3, setup)
	require.NoError(t, err)
	return c
}

func TestDataPullScenario(t *testing.T) {
	partitiontest.PartitionTest(t)

	g, err := MakeGraph(time.Minute)
	require.NoError(t, err)
	c := mustPortfolioCommittee(t, g)

	agreed := map[string]float64{"WETH": 1000.0, "USDC": 500.0}
	views, err := c.Simulate(context.Background(), 1, func(id string, v agreement.View, s ledger.Snapshot) agreement.Payload {
		if id == c.IDs[3] {
			return nil
		}
		return dataPull(id, agreed)
	})
	require.NoError(t, err)
	require.Len(t, views, 2)
	require.Equal(t, DecisionMakingRound, views[1].Stage)

	s, err := c.Snapshot()
	require.NoError(t, err)
	require.Equal(t, MakeValuation(agreed).Encode(), s.GetString(KeyTokenValues, ""))
	require.Equal(t, 1500.0, s.GetFloat64(KeyTotalPortfolioValue, 0))

	collection, err := agreement.DeserializeCollection(s.GetString(KeyParticipantToDataRound, ""))
	require.NoError(t, err)
	require.Equal(t, c.IDs[:3], collection.Senders())
}

func TestDecisionScenarioTransacts(t *testing.T) {
	partitiontest.PartitionTest(t)

	g, err := MakeGraph(time.Minute)
	require.NoError(t, err)
	c := mustPortfolioCommittee(t, g)

	rec := Recommendation{Action: "swap 5% of weth to usdc", Reason: "WETH is overweight"}
	views, err := c.Simulate(context.Background(), 2, func(id string, v agreement.View, s ledger.Snapshot) agreement.Payload {
		switch v.Stage {
		case DataPullRound:
			return dataPull(id, map[string]float64{"WETH": 1000, "USDC": 500})
		case DecisionMakingRound:
			if id == c.IDs[0] {
				return &DecisionMakingPayload{From: id, Event: agreement.EventDone, AdjustmentBalances: Recommendation{Action: "none", Reason: "-"}.Encode()}
			}
			return &DecisionMakingPayload{From: id, Event: EventTransact, AdjustmentBalances: rec.Encode(), AuditReportRef: "sha256:abc"}
		}
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, TxPreparationRound, views[len(views)-1].Stage)

	s, err := c.Snapshot()
	require.NoError(t, err)
	require.Equal(t, rec.Encode(), s.GetString(KeyAdjustmentBalances, ""))
	require.Equal(t, "sha256:abc", s.GetString(KeyAuditReportRef, ""))
}

func TestSplitVoteIsNoMajority(t *testing.T) {
	partitiontest.PartitionTest(t)

	g, err := MakeGraph(time.Minute)
	require.NoError(t, err)
	c := mustPortfolioCommittee(t, g)
	before, err := c.Snapshot()
	require.NoError(t, err)

	views, err := c.Simulate(context.Background(), 1, func(id string, v agreement.View, s ledger.Snapshot) agreement.Payload {
		return dataPull(id, map[string]float64{"WETH": float64(len(id)) * 100, "USDC": 1, id: 1})
	})
	require.NoError(t, err)
	require.Len(t, views, 2)
	require.Equal(t, DataPullRound, views[1].Stage)
	require.Equal(t, views[0].RoundID+1, views[1].RoundID)

	after, err := c.Snapshot()
	require.NoError(t, err)
	require.True(t, before.Equal(after))
	require.False(t, after.Has(KeyTokenValues))
}

func TestFullPassResetsPeriod(t *testing.T) {
	partitiontest.PartitionTest(t)

	g, err := ChainedGraph(time.Minute)
	require.NoError(t, err)
	c := mustPortfolioCommittee(t, g)

	rec := Recommendation{Action: "swap 5% of WETH to USDC", Reason: "r"}
	propose := func(id string, v agreement.View, s ledger.Snapshot) agreement.Payload {
		switch v.Stage {
		case DataPullRound:
			return dataPull(id, map[string]float64{"WETH": 1000, "USDC": 500})
		case DecisionMakingRound:
			return &DecisionMakingPayload{From: id, Event: EventTransact, AdjustmentBalances: rec.Encode(), AuditReportRef: "ref"}
		case TxPreparationRound:
			return &TxPreparationPayload{From: id, TxSubmitter: TxSubmitterID, TxHash: "0xfeed"}
		case ResetAndPauseRound:
			return &ResetPayload{From: id, Period: s.GetUint64(KeyPeriodCount, 0) + 1}
		}
		panic(fmt.Sprintf("unexpected stage %s", v.Stage))
	}
	views, err := c.Simulate(context.Background(), 4, propose)
	require.NoError(t, err)
	require.Len(t, views, 5)

	last := views[4]
	require.Equal(t, DataPullRound, last.Stage)
	require.Equal(t, uint64(1), last.Period)

	s, err := c.Snapshot()
	require.NoError(t, err)
	require.Equal(t, uint64(1), s.GetUint64(KeyPeriodCount, 0))
	for _, k := range []string{KeyTokenValues, KeyAdjustmentBalances, KeyMostVotedTxHash} {
		require.False(t, s.Has(k), k)
	}
}
