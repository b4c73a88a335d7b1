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
	"github.com/aytunc-tunay/ETHGlobal-Trifecta/agreement"
	"github.com/aytunc-tunay/ETHGlobal-Trifecta/protocol"
)

const (
	dataPullTag       = protocol.DataPullPayloadTag
	decisionMakingTag = protocol.DecisionMakingPayloadTag
	txPreparationTag  = protocol.TxPreparationPayloadTag
	resetTag          = protocol.ResetPayloadTag
)

func init() {
	agreement.RegisterPayload(dataPullTag, func() agreement.Payload { return new(DataPullPayload) })
	agreement.RegisterPayload(decisionMakingTag, func() agreement.Payload { return new(DecisionMakingPayload) })
	agreement.RegisterPayload(txPreparationTag, func() agreement.Payload { return new(TxPreparationPayload) })
	agreement.RegisterPayload(resetTag, func() agreement.Payload { return new(ResetPayload) })
}

// DataPullPayload carries the portfolio valuation of one agent.
type DataPullPayload struct {
	_struct struct{} `codec:","`

	From                string  `codec:"sender"`
	TokenValues         string  `codec:"token_values"`
	TotalPortfolioValue float64 `codec:"total_portfolio_value"`
}

// Sender implements agreement.Payload.
func (p *DataPullPayload) Sender() string { return p.From }

// Tag implements agreement.Payload.
func (p *DataPullPayload) Tag() protocol.Tag { return dataPullTag }

// Selection implements agreement.Payload.
func (p *DataPullPayload) Selection() []interface{} {
	return []interface{}{p.TokenValues, p.TotalPortfolioValue}
}

// DecisionMakingPayload carries a recommendation and the event it leads to.
type DecisionMakingPayload struct {
	_struct struct{} `codec:","`

	From               string          `codec:"sender"`
	Event              agreement.Event `codec:"event"`
	AdjustmentBalances string          `codec:"adjustment_balances"`
	AuditReportRef     string          `codec:"audit_report_ref"`
}

// Sender implements agreement.Payload.
func (p *DecisionMakingPayload) Sender() string { return p.From }

// Tag implements agreement.Payload.
func (p *DecisionMakingPayload) Tag() protocol.Tag { return decisionMakingTag }

// Selection implements agreement.Payload.
func (p *DecisionMakingPayload) Selection() []interface{} {
	return []interface{}{p.AdjustmentBalances, p.AuditReportRef}
}

// PayloadEvent implements agreement.EventCarrier.
func (p *DecisionMakingPayload) PayloadEvent() agreement.Event { return p.Event }

// TxPreparationPayload carries the hash of the prepared Safe transaction.
type TxPreparationPayload struct {
	_struct struct{} `codec:","`

	From        string `codec:"sender"`
	TxSubmitter string `codec:"tx_submitter"`
	TxHash      string `codec:"tx_hash"`
}

// Sender implements agreement.Payload.
func (p *TxPreparationPayload) Sender() string { return p.From }

// Tag implements agreement.Payload.
func (p *TxPreparationPayload) Tag() protocol.Tag { return txPreparationTag }

// Selection implements agreement.Payload.
func (p *TxPreparationPayload) Selection() []interface{} {
	return []interface{}{p.TxSubmitter, p.TxHash}
}

// ResetPayload votes for the number of the period to start.
type ResetPayload struct {
	_struct struct{} `codec:","`

	From   string `codec:"sender"`
	Period uint64 `codec:"period_count"`
}

// Sender implements agreement.Payload.
func (p *ResetPayload) Sender() string { return p.From }

// Tag implements agreement.Payload.
func (p *ResetPayload) Tag() protocol.Tag { return resetTag }

// Selection implements agreement.Payload.
func (p *ResetPayload) Selection() []interface{} { return []interface{}{p.Period} }
