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
	"math/big"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/aytunc-tunay/ETHGlobal-Trifecta/agreement"
	"github.com/aytunc-tunay/ETHGlobal-Trifecta/behaviour"
	"github.com/aytunc-tunay/ETHGlobal-Trifecta/config"
	"github.com/aytunc-tunay/ETHGlobal-Trifecta/ledger"
	"github.com/aytunc-tunay/ETHGlobal-Trifecta/logging"
	"github.com/aytunc-tunay/ETHGlobal-Trifecta/protocol"
	"github.com/aytunc-tunay/ETHGlobal-Trifecta/services/cas"
	"github.com/aytunc-tunay/ETHGlobal-Trifecta/services/chain"
	"github.com/aytunc-tunay/ETHGlobal-Trifecta/services/llm"
	"github.com/aytunc-tunay/ETHGlobal-Trifecta/services/prices"
	"github.com/aytunc-tunay/ETHGlobal-Trifecta/services/safe"
	"github.com/aytunc-tunay/ETHGlobal-Trifecta/services/servicestest"
	"github.com/aytunc-tunay/ETHGlobal-Trifecta/test/partitiontest"
)

const (
	testOwner   = "0x00000000000000000000000000000000000000aa"
	testManager = "0x00000000000000000000000000000000000000bb"
	testSafe    = "0x00000000000000000000000000000000000000cc"
)

type harness struct {
	fake  *servicestest.Fake
	store cas.Store
	cfg   config.Local
	reg   behaviour.Registry
}

type wordCounter struct{}

func (wordCounter) Count(s string) int { return len(strings.Fields(s)) }

func newHarness(t *testing.T, mutate func(*config.Local)) *harness {
	fake := servicestest.NewFake()
	t.Cleanup(fake.Close)

	cfg := config.GetDefaultLocal()
	cfg.PortfolioOwner = testOwner
	cfg.PortfolioManagerContractAddress = testManager
	cfg.SafeContractAddress = testSafe
	if mutate != nil {
		mutate(&cfg)
	}

	pc, err := prices.MakeClient(fake.PricesURL(), "")
	require.NoError(t, err)
	rpc, err := chain.MakeClient(fake.RPCURL())
	require.NoError(t, err)
	lc, err := llm.MakeClient(llm.Params{Endpoint: fake.LLMURL(), Model: cfg.LLMModel, Counter: wordCounter{}})
	require.NoError(t, err)
	store, err := cas.OpenLocalStore(t.TempDir(), true)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	reg, err := MakeRegistry(Params{
		Config: cfg,
		Prices: pc,
		Chain:  rpc,
		Safe:   safe.MakeClient(rpc, chain.MustParseAddress(testSafe)),
		LLM:    lc,
		Store:  store,
	})
	require.NoError(t, err)
	return &harness{fake: fake, store: store, cfg: cfg, reg: reg}
}

func (h *harness) token(sym string) chain.Address {
	return chain.MustParseAddress(h.cfg.Tokens[sym])
}

func (h *harness) run(t *testing.T, stage agreement.Stage, s ledger.Snapshot) (agreement.Payload, error) {
	b, err := h.reg.New(stage)
	require.NoError(t, err)
	bc := &behaviour.Context{
		AgentID:  "agent0",
		View:     agreement.View{Stage: stage, RoundID: 1},
		Snapshot: s,
		Log:      logging.TestingLog(t),
	}
	if err := b.RunLocal(context.Background(), bc); err != nil {
		return nil, err
	}
	return b.BuildPayload("agent0")
}

func TestRegistryCoversChainedGraph(t *testing.T) {
	partitiontest.PartitionTest(t)

	h := newHarness(t, nil)
	g, err := ChainedGraph(time.Minute)
	require.NoError(t, err)
	require.NoError(t, h.reg.Validate(g))

	_, err = MakeRegistry(Params{Config: h.cfg})
	require.ErrorIs(t, err, agreement.ErrConfiguration)
}

func TestDataPullBehaviour(t *testing.T) {
	partitiontest.PartitionTest(t)

	h := newHarness(t, nil)
	weth, _ := new(big.Int).SetString("400000000000000000", 10)
	h.fake.SetBalance(h.token("WETH"), weth)
	h.fake.SetBalance(h.token("USDC"), big.NewInt(500_000_000))
	h.fake.SetPrice("weth", 2500)
	h.fake.SetPrice("usd-coin", 1)

	p, err := h.run(t, DataPullRound, ledger.MakeSnapshot(0, setup))
	require.NoError(t, err)
	dp := p.(*DataPullPayload)
	require.Equal(t, MakeValuation(map[string]float64{"WETH": 1000, "USDC": 500}).Encode(), dp.TokenValues)
	require.Equal(t, 1500.0, dp.TotalPortfolioValue)

	h.fake.Fail(servicestest.Prices, http.StatusTooManyRequests)
	_, err = h.run(t, DataPullRound, ledger.MakeSnapshot(0, setup))
	require.ErrorIs(t, err, behaviour.ErrExternalCall)
}

func decisionSnapshot() ledger.Snapshot {
	v := MakeValuation(map[string]float64{"WETH": 1000, "USDC": 500})
	return ledger.MakeSnapshot(0, ledger.Pairs{
		KeyPeriodCount:         uint64(0),
		KeyTokenValues:         v.Encode(),
		KeyTotalPortfolioValue: v.Total,
	})
}

func TestDecisionMakingTransacts(t *testing.T) {
	partitiontest.PartitionTest(t)

	h := newHarness(t, nil)
	h.fake.SetChart("weth", 2000, 2100, 2200)
	h.fake.SetChart("usd-coin", 1, 1)
	h.fake.SetCompletion("```json\n{\"action\": \"swap 5% of weth to usdc\", \"reason\": \"WETH is overweight\"}\n```")

	p, err := h.run(t, DecisionMakingRound, decisionSnapshot())
	require.NoError(t, err)
	dm := p.(*DecisionMakingPayload)
	require.Equal(t, EventTransact, dm.Event)
	require.Equal(t, Recommendation{Action: "swap 5% of weth to usdc", Reason: "WETH is overweight"}.Encode(), dm.AdjustmentBalances)
	require.True(t, strings.HasPrefix(dm.AuditReportRef, "sha256:"))

	prompts := h.fake.Prompts()
	require.Len(t, prompts, 1)
	require.Contains(t, prompts[0], "- WETH: 1000.00 (66.67%)")
	require.Contains(t, prompts[0], "- WETH: +10.00%")

	raw, err := h.store.Get(context.Background(), dm.AuditReportRef)
	require.NoError(t, err)
	var record map[string]interface{}
	require.NoError(t, protocol.DecodeJSON(raw, &record))
	require.Equal(t, "transact", record["event"])
	require.Equal(t, "swap 5% of weth to usdc", record["action"])
	require.Contains(t, record, "projected_allocation")

	// a second agent deciding alike stores the same record
	again, err := h.run(t, DecisionMakingRound, decisionSnapshot())
	require.NoError(t, err)
	require.Equal(t, dm.Selection(), again.Selection())
}

func TestDecisionMakingOutcomes(t *testing.T) {
	partitiontest.PartitionTest(t)

	h := newHarness(t, nil)
	h.fake.SetChart("weth", 2000, 2000)
	h.fake.SetChart("usd-coin", 1, 1)

	h.fake.SetCompletion(`{"action":"none","reason":"balanced"}`)
	p, err := h.run(t, DecisionMakingRound, decisionSnapshot())
	require.NoError(t, err)
	require.Equal(t, agreement.EventDone, p.(*DecisionMakingPayload).Event)
	require.NotEmpty(t, p.(*DecisionMakingPayload).AuditReportRef)

	for _, content := range []string{
		"I would hold",
		`{"action":"none","reason":"x","extra":1}`,
		`{"action":"swap 5% of DOGE to USDC","reason":"x"}`,
		`{"action":"rebalance everything","reason":"x"}`,
	} {
		h.fake.SetCompletion(content)
		p, err := h.run(t, DecisionMakingRound, decisionSnapshot())
		require.NoError(t, err, content)
		dm := p.(*DecisionMakingPayload)
		require.Equal(t, agreement.EventError, dm.Event, content)
		require.Empty(t, dm.AdjustmentBalances)
		require.Empty(t, dm.AuditReportRef)
	}

	h.fake.Fail(servicestest.LLM, http.StatusBadGateway)
	_, err = h.run(t, DecisionMakingRound, decisionSnapshot())
	require.ErrorIs(t, err, behaviour.ErrExternalCall)

	_, err = h.run(t, DecisionMakingRound, ledger.MakeSnapshot(0, setup))
	require.ErrorIs(t, err, ledger.ErrMissingKey)

	bad := ledger.MakeSnapshot(0, ledger.Pairs{KeyTokenValues: "{", KeyTotalPortfolioValue: 1.0})
	_, err = h.run(t, DecisionMakingRound, bad)
	require.ErrorIs(t, err, behaviour.ErrDataIntegrity)
}

func txSnapshot(action, ref string) ledger.Snapshot {
	pairs := ledger.Pairs{KeyAdjustmentBalances: Recommendation{Action: action, Reason: "r"}.Encode()}
	if ref != "" {
		pairs[KeyAuditReportRef] = ref
	}
	return ledger.MakeSnapshot(0, pairs)
}

func TestTxPreparationSingleCall(t *testing.T) {
	partitiontest.PartitionTest(t)

	h := newHarness(t, nil)
	h.fake.SetBalance(h.token("WETH"), big.NewInt(1000))
	h.fake.SetNonce(3)

	p, err := h.run(t, TxPreparationRound, txSnapshot("swap 5% of WETH to USDC", "sha256:ab"))
	require.NoError(t, err)
	tp := p.(*TxPreparationPayload)
	require.Equal(t, TxSubmitterID, tp.TxSubmitter)

	hash, tx, err := safe.ParseHashPayload(tp.TxHash)
	require.NoError(t, err)
	require.NotEqual(t, [32]byte{}, hash)
	require.Equal(t, chain.MustParseAddress(testManager), tx.To)
	require.Equal(t, safe.Call, tx.Operation)
	require.Equal(t, chain.EncodeExecuteRebalance(chain.MustParseAddress(testOwner), []chain.Swap{{
		TokenToSell:  h.token("WETH"),
		TokenToBuy:   h.token("USDC"),
		AmountToSell: big.NewInt(50),
		PoolFee:      poolFee,
	}}), tx.Data)
}

func TestTxPreparationAnchorsReport(t *testing.T) {
	partitiontest.PartitionTest(t)

	h := newHarness(t, func(cfg *config.Local) { cfg.AnchorAuditReports = true })
	h.fake.SetBalance(h.token("USDC"), big.NewInt(1_000_000))

	p, err := h.run(t, TxPreparationRound, txSnapshot("swap 50% of usdc to weth", "sha256:ab"))
	require.NoError(t, err)
	_, tx, err := safe.ParseHashPayload(p.(*TxPreparationPayload).TxHash)
	require.NoError(t, err)
	require.Equal(t, chain.MustParseAddress(h.cfg.MultisendAddress), tx.To)
	require.Equal(t, safe.DelegateCall, tx.Operation)
	sel := chain.Selector("multiSend(bytes)")
	require.Equal(t, sel[:], tx.Data[:4])

	// without a reference there is nothing to anchor
	p, err = h.run(t, TxPreparationRound, txSnapshot("swap 50% of usdc to weth", ""))
	require.NoError(t, err)
	_, tx, err = safe.ParseHashPayload(p.(*TxPreparationPayload).TxHash)
	require.NoError(t, err)
	require.Equal(t, safe.Call, tx.Operation)
}

func TestTxPreparationFailures(t *testing.T) {
	partitiontest.PartitionTest(t)

	h := newHarness(t, nil)

	_, err := h.run(t, TxPreparationRound, txSnapshot("swap 5% of WETH to USDC", ""))
	require.ErrorIs(t, err, ErrEmptySwap)

	_, err = h.run(t, TxPreparationRound, txSnapshot("swap 5% of DOGE to USDC", ""))
	require.ErrorIs(t, err, ErrUnknownToken)

	_, err = h.run(t, TxPreparationRound, txSnapshot("hold", ""))
	require.ErrorIs(t, err, behaviour.ErrDataIntegrity)

	_, err = h.run(t, TxPreparationRound, ledger.MakeSnapshot(0, nil))
	require.ErrorIs(t, err, ledger.ErrMissingKey)

	h.fake.SetBalance(h.token("WETH"), big.NewInt(1000))
	h.fake.Fail(servicestest.RPC, http.StatusServiceUnavailable)
	_, err = h.run(t, TxPreparationRound, txSnapshot("swap 5% of WETH to USDC", ""))
	require.ErrorIs(t, err, behaviour.ErrExternalCall)
}

func TestResetAndPauseBehaviour(t *testing.T) {
	partitiontest.PartitionTest(t)

	h := newHarness(t, func(cfg *config.Local) { cfg.ResetPauseDuration = 0 })
	p, err := h.run(t, ResetAndPauseRound, ledger.MakeSnapshot(2, ledger.Pairs{KeyPeriodCount: uint64(2)}))
	require.NoError(t, err)
	require.Equal(t, uint64(3), p.(*ResetPayload).Period)

	slow := &resetAndPauseBehaviour{pause: time.Hour}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = slow.RunLocal(ctx, &behaviour.Context{Snapshot: ledger.MakeSnapshot(0, nil), Log: logging.TestingLog(t)})
	require.ErrorIs(t, err, context.Canceled)
}
