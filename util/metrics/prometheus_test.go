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
	"testing"
	"time"

	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/require"

	"github.com/aytunc-tunay/ETHGlobal-Trifecta/test/partitiontest"
)

func findFamily(t *testing.T, c *Collectors, name string) *dto.MetricFamily {
	t.Helper()
	families, err := c.Registry.Gather()
	require.NoError(t, err)
	for _, f := range families {
		if f.GetName() == namespace+"_"+name {
			return f
		}
	}
	require.FailNow(t, "metric family not found", name)
	return nil
}

func labelValue(m *dto.Metric, name string) string {
	for _, l := range m.GetLabel() {
		if l.GetName() == name {
			return l.GetValue()
		}
	}
	return ""
}

func TestRoundDecidedCounter(t *testing.T) {
	partitiontest.PartitionTest(t)

	c := MakeCollectors("agent-0")
	c.RoundDecided("DataPullRound", "done")
	c.RoundDecided("DataPullRound", "done")
	c.RoundDecided("DecisionMakingRound", "transact")

	f := findFamily(t, c, RoundsDecided.Name)
	require.Equal(t, dto.MetricType_COUNTER, f.GetType())
	require.Len(t, f.GetMetric(), 2)
	for _, m := range f.GetMetric() {
		require.Equal(t, "agent-0", labelValue(m, "agent"))
		switch labelValue(m, "stage") {
		case "DataPullRound":
			require.Equal(t, 2.0, m.GetCounter().GetValue())
		case "DecisionMakingRound":
			require.Equal(t, "transact", labelValue(m, "event"))
			require.Equal(t, 1.0, m.GetCounter().GetValue())
		default:
			require.Fail(t, "unexpected stage label")
		}
	}
}

func TestPhaseHistogramAndGauges(t *testing.T) {
	partitiontest.PartitionTest(t)

	c := MakeCollectors("agent-1")
	c.ObservePhase("TxPreparationRound", PhaseLocal, 20*time.Millisecond)
	c.ObservePhase("TxPreparationRound", PhaseLocal, 40*time.Millisecond)
	c.StoreCommitted(3, 17)

	h := findFamily(t, c, BehaviourPhaseSeconds.Name).GetMetric()[0].GetHistogram()
	require.Equal(t, uint64(2), h.GetSampleCount())
	require.InDelta(t, 0.06, h.GetSampleSum(), 1e-9)

	require.Equal(t, 3.0, findFamily(t, c, StorePeriod.Name).GetMetric()[0].GetGauge().GetValue())
	require.Equal(t, 17.0, findFamily(t, c, StoreVersion.Name).GetMetric()[0].GetGauge().GetValue())
}

func TestNilCollectorsAreNoops(t *testing.T) {
	partitiontest.PartitionTest(t)

	var c *Collectors
	c.RoundDecided("a", "b")
	c.PayloadRejected("a")
	c.RoundTimeout("a", "b")
	c.BehaviourFailed("a", "b")
	c.ObservePhase("a", PhaseConsensus, time.Second)
	c.StoreCommitted(1, 1)
}
