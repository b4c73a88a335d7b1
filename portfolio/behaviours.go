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
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/aytunc-tunay/ETHGlobal-Trifecta/agreement"
	"github.com/aytunc-tunay/ETHGlobal-Trifecta/behaviour"
	"github.com/aytunc-tunay/ETHGlobal-Trifecta/config"
	"github.com/aytunc-tunay/ETHGlobal-Trifecta/services/cas"
	"github.com/aytunc-tunay/ETHGlobal-Trifecta/services/chain"
	"github.com/aytunc-tunay/ETHGlobal-Trifecta/services/prices"
	"github.com/aytunc-tunay/ETHGlobal-Trifecta/services/safe"
)

// TxSubmitterID identifies the behaviour that prepared a transaction.
const TxSubmitterID = "tx_preparation_behaviour"

// poolFee is the fee tier of the swap pool, in hundredths of a basis point.
const poolFee = 3000

// ErrEmptySwap is returned when the computed swap amount is zero.
var ErrEmptySwap = errors.New("swap amount is zero")

// ErrUnknownToken is returned for a symbol missing from the configuration.
var ErrUnknownToken = errors.New("unknown token")

// PriceSource reads spot prices and price history.
type PriceSource interface {
	Prices(ctx context.Context, ids []string) (map[string]float64, error)
	MarketChart(ctx context.Context, id string, days int) ([]prices.Point, error)
}

// BalanceReader reads balances held by the portfolio contract.
type BalanceReader interface {
	GetUserBalances(ctx context.Context, contract, user chain.Address, tokens []chain.Address) ([]*big.Int, error)
}

// SafeService reads from the multi-signature wallet.
type SafeService interface {
	Nonce(ctx context.Context) (*big.Int, error)
	TransactionHash(ctx context.Context, tx safe.Tx) ([32]byte, error)
}

// Completer requests structured completions.
type Completer interface {
	CompleteJSON(ctx context.Context, system, user string) (string, error)
}

// Params holds the collaborators of the portfolio behaviours.
type Params struct {
	Config config.Local
	Prices PriceSource
	Chain  BalanceReader
	Safe   SafeService
	LLM    Completer
	Store  cas.Store
}

// deps is Params with every address resolved once.
type deps struct {
	Params

	owner     chain.Address
	manager   chain.Address
	multisend chain.Address
	symbols   []string
	tokens    map[string]chain.Address
}

func resolve(p Params) (*deps, error) {
	if p.Prices == nil || p.Chain == nil || p.Safe == nil || p.LLM == nil || p.Store == nil {
		return nil, fmt.Errorf("%w: portfolio behaviours need every service", agreement.ErrConfiguration)
	}
	d := &deps{Params: p, symbols: p.Config.TokenSymbols(), tokens: make(map[string]chain.Address)}
	var err error
	if d.owner, err = chain.ParseAddress(p.Config.PortfolioOwner); err != nil {
		return nil, fmt.Errorf("%w: PortfolioOwner: %v", agreement.ErrConfiguration, err)
	}
	if d.manager, err = chain.ParseAddress(p.Config.PortfolioManagerContractAddress); err != nil {
		return nil, fmt.Errorf("%w: PortfolioManagerContractAddress: %v", agreement.ErrConfiguration, err)
	}
	if d.multisend, err = chain.ParseAddress(p.Config.MultisendAddress); err != nil {
		return nil, fmt.Errorf("%w: MultisendAddress: %v", agreement.ErrConfiguration, err)
	}
	if len(d.symbols) == 0 {
		return nil, fmt.Errorf("%w: no tokens configured", agreement.ErrConfiguration)
	}
	for _, sym := range d.symbols {
		addr, err := chain.ParseAddress(p.Config.Tokens[sym])
		if err != nil {
			return nil, fmt.Errorf("%w: token %s: %v", agreement.ErrConfiguration, sym, err)
		}
		d.tokens[strings.ToUpper(sym)] = addr
	}
	return d, nil
}

func (d *deps) token(symbol string) (chain.Address, error) {
	addr, ok := d.tokens[strings.ToUpper(symbol)]
	if !ok {
		return chain.Address{}, fmt.Errorf("%w: %s", ErrUnknownToken, symbol)
	}
	return addr, nil
}

func (d *deps) priceID(symbol string) string {
	for sym, id := range d.Config.PriceIDs {
		if strings.EqualFold(sym, symbol) {
			return id
		}
	}
	return ""
}

// MakeRegistry returns the behaviours of every working stage of the
// chained graph.
func MakeRegistry(p Params) (behaviour.Registry, error) {
	d, err := resolve(p)
	if err != nil {
		return nil, err
	}
	return behaviour.Registry{
		DataPullRound:       func() behaviour.Behaviour { return &dataPullBehaviour{deps: d} },
		DecisionMakingRound: func() behaviour.Behaviour { return &decisionMakingBehaviour{deps: d} },
		TxPreparationRound:  func() behaviour.Behaviour { return &txPreparationBehaviour{deps: d} },
		ResetAndPauseRound:  func() behaviour.Behaviour { return &resetAndPauseBehaviour{pause: p.Config.ResetPauseDuration} },
	}, nil
}

// dataPullBehaviour values the portfolio.
type dataPullBehaviour struct {
	deps      *deps
	valuation Valuation
}

func (b *dataPullBehaviour) RunLocal(ctx context.Context, bc *behaviour.Context) error {
	addrs := make([]chain.Address, len(b.deps.symbols))
	ids := make([]string, len(b.deps.symbols))
	for i, sym := range b.deps.symbols {
		addrs[i] = b.deps.tokens[strings.ToUpper(sym)]
		ids[i] = b.deps.priceID(sym)
	}

	stop := bc.Measure("balances")
	balances, err := b.deps.Chain.GetUserBalances(ctx, b.deps.manager, b.deps.owner, addrs)
	stop()
	if err != nil {
		return behaviour.ExternalCallError("chain", err)
	}

	stop = bc.Measure("prices")
	quotes, err := b.deps.Prices.Prices(ctx, ids)
	stop()
	if err != nil {
		return behaviour.ExternalCallError("prices", err)
	}

	values := make(map[string]float64, len(b.deps.symbols))
	for i, sym := range b.deps.symbols {
		values[sym] = TokenValue(balances[i], b.deps.Config.TokenDecimals[sym], quotes[ids[i]])
	}
	b.valuation = MakeValuation(values)
	bc.Log.Infof("portfolio valued at %.2f: %s", b.valuation.Total, b.valuation.Encode())
	return nil
}

func (b *dataPullBehaviour) BuildPayload(sender string) (agreement.Payload, error) {
	return &DataPullPayload{
		From:                sender,
		TokenValues:         b.valuation.Encode(),
		TotalPortfolioValue: b.valuation.Total,
	}, nil
}

func (b *dataPullBehaviour) OnRoundEnd(agreement.View) {}

// decisionMakingBehaviour asks the completion service for a rebalancing action.
type decisionMakingBehaviour struct {
	deps  *deps
	event agreement.Event
	rec   string
	ref   string
}

func (b *decisionMakingBehaviour) RunLocal(ctx context.Context, bc *behaviour.Context) error {
	encoded, err := bc.Snapshot.GetStrictString(KeyTokenValues)
	if err != nil {
		return err
	}
	values, err := DecodeValues(encoded)
	if err != nil {
		return fmt.Errorf("%w: %v", behaviour.ErrDataIntegrity, err)
	}
	total, err := bc.Snapshot.GetStrictFloat64(KeyTotalPortfolioValue)
	if err != nil {
		return err
	}

	days := b.deps.Config.PriceHistoryDays
	deltas := make(map[string]float64, len(values))
	stop := bc.Measure("market_chart")
	for _, sym := range sortedSymbols(values) {
		points, err := b.deps.Prices.MarketChart(ctx, b.deps.priceID(sym), days)
		if err != nil {
			stop()
			return behaviour.ExternalCallError("prices", err)
		}
		deltas[sym] = roundCents(100 * prices.Change(points))
	}
	stop()

	allocation := Allocation(values)
	prompt := ComposePrompt(values, total, allocation, deltas, days)

	stop = bc.Measure("completion")
	content, err := b.deps.LLM.CompleteJSON(ctx, SystemPrompt, prompt)
	stop()
	if err != nil {
		return behaviour.ExternalCallError("llm", err)
	}

	rec, err := ParseRecommendation(content)
	if err != nil {
		bc.Log.Warnf("unusable completion: %v", err)
		b.event = agreement.EventError
		return nil
	}

	record := AuditRecord{
		Period:      bc.View.Period,
		Action:      rec.Action,
		Reason:      rec.Reason,
		TokenValues: values,
		Total:       total,
		Allocation:  allocation,
		PriceDeltas: deltas,
	}
	switch {
	case IsNoAction(rec.Action):
		b.event = agreement.EventDone
	default:
		action, err := ParseAction(rec.Action)
		if err != nil {
			bc.Log.Warnf("unusable recommendation: %v", err)
			b.event = agreement.EventError
			return nil
		}
		if _, err := b.deps.token(action.Sell); err != nil {
			bc.Log.Warnf("unusable recommendation: %v", err)
			b.event = agreement.EventError
			return nil
		}
		if _, err := b.deps.token(action.Buy); err != nil {
			bc.Log.Warnf("unusable recommendation: %v", err)
			b.event = agreement.EventError
			return nil
		}
		record.Projected = ProjectedAllocation(values, action)
		b.event = EventTransact
	}
	record.Event = string(b.event)

	stop = bc.Measure("audit")
	ref, err := b.deps.Store.Put(ctx, record.Encode())
	stop()
	if err != nil {
		return behaviour.ExternalCallError("cas", err)
	}
	b.rec = rec.Encode()
	b.ref = ref
	bc.Log.Infof("recommendation %q (%s), audit report %s", rec.Action, b.event, ref)
	return nil
}

func (b *decisionMakingBehaviour) BuildPayload(sender string) (agreement.Payload, error) {
	return &DecisionMakingPayload{
		From:               sender,
		Event:              b.event,
		AdjustmentBalances: b.rec,
		AuditReportRef:     b.ref,
	}, nil
}

func (b *decisionMakingBehaviour) OnRoundEnd(agreement.View) {}

// txPreparationBehaviour builds the Safe transaction executing the agreed action.
type txPreparationBehaviour struct {
	deps *deps
	hash string
}

func (b *txPreparationBehaviour) RunLocal(ctx context.Context, bc *behaviour.Context) error {
	encoded, err := bc.Snapshot.GetStrictString(KeyAdjustmentBalances)
	if err != nil {
		return err
	}
	rec, err := DecodeRecommendation(encoded)
	if err != nil {
		return fmt.Errorf("%w: %v", behaviour.ErrDataIntegrity, err)
	}
	action, err := ParseAction(rec.Action)
	if err != nil {
		return fmt.Errorf("%w: %v", behaviour.ErrDataIntegrity, err)
	}
	sell, err := b.deps.token(action.Sell)
	if err != nil {
		return err
	}
	buy, err := b.deps.token(action.Buy)
	if err != nil {
		return err
	}

	stop := bc.Measure("balances")
	balances, err := b.deps.Chain.GetUserBalances(ctx, b.deps.manager, b.deps.owner, []chain.Address{sell})
	stop()
	if err != nil {
		return behaviour.ExternalCallError("chain", err)
	}
	amount := SwapAmount(balances[0], action.Percent)
	if amount.Sign() == 0 {
		return fmt.Errorf("%w: %s of %s balance %s", ErrEmptySwap, action.Percent.FloatString(2), action.Sell, balances[0])
	}

	tx := buildTx(b.deps, chain.Swap{
		TokenToSell:  sell,
		TokenToBuy:   buy,
		AmountToSell: amount,
		PoolFee:      poolFee,
	}, bc.Snapshot.GetString(KeyAuditReportRef, ""))

	stop = bc.Measure("safe")
	defer stop()
	nonce, err := b.deps.Safe.Nonce(ctx)
	if err != nil {
		return behaviour.ExternalCallError("safe", err)
	}
	tx.Nonce = nonce
	safeTxHash, err := b.deps.Safe.TransactionHash(ctx, tx)
	if err != nil {
		return behaviour.ExternalCallError("safe", err)
	}
	b.hash = safe.HashPayload(safeTxHash, tx)
	bc.Log.Infof("prepared %s: sell %s base units, safe nonce %s", action, amount, nonce)
	return nil
}

// buildTx returns the Safe transaction executing swap. When audit reports
// are anchored and ref is set, the swap and the anchoring call are batched
// through MultiSend.
func buildTx(d *deps, swap chain.Swap, ref string) safe.Tx {
	rebalance := chain.EncodeExecuteRebalance(d.owner, []chain.Swap{swap})
	if !d.Config.AnchorAuditReports || ref == "" {
		return safe.Tx{To: d.manager, Value: new(big.Int), Data: rebalance, Operation: safe.Call, SafeTxGas: new(big.Int)}
	}
	batch := safe.EncodeMultiSend([]safe.MultiSendTx{
		{Operation: safe.Call, To: d.manager, Data: rebalance},
		{Operation: safe.Call, To: d.manager, Data: chain.EncodeAnchorReport(d.owner, ref)},
	})
	return safe.Tx{To: d.multisend, Value: new(big.Int), Data: batch, Operation: safe.DelegateCall, SafeTxGas: new(big.Int)}
}

func (b *txPreparationBehaviour) BuildPayload(sender string) (agreement.Payload, error) {
	return &TxPreparationPayload{From: sender, TxSubmitter: TxSubmitterID, TxHash: b.hash}, nil
}

func (b *txPreparationBehaviour) OnRoundEnd(agreement.View) {}

// resetAndPauseBehaviour waits, then votes for the next period.
type resetAndPauseBehaviour struct {
	pause time.Duration
	next  uint64
}

func (b *resetAndPauseBehaviour) RunLocal(ctx context.Context, bc *behaviour.Context) error {
	b.next = bc.Snapshot.GetUint64(KeyPeriodCount, 0) + 1
	if b.pause <= 0 {
		return nil
	}
	t := time.NewTimer(b.pause)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (b *resetAndPauseBehaviour) BuildPayload(sender string) (agreement.Payload, error) {
	return &ResetPayload{From: sender, Period: b.next}, nil
}

func (b *resetAndPauseBehaviour) OnRoundEnd(agreement.View) {}
