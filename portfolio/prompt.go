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
	"fmt"
	"strings"

	"github.com/aytunc-tunay/ETHGlobal-Trifecta/protocol"
)

// SystemPrompt frames every decision request.
const SystemPrompt = `You manage an on-chain token portfolio. Reply with a JSON object holding exactly two string fields, "action" and "reason". ` +
	`The action is either "none" or has the form "swap X% of A to B", where A and B are token symbols of the portfolio and X is the share of A to sell.`

// ComposePrompt describes the portfolio and its recent price moves.
// Symbols are listed in sorted order so equal inputs give equal prompts.
func ComposePrompt(values map[string]float64, total float64, allocation, deltas map[string]float64, days int) string {
	var sb strings.Builder
	sb.WriteString("Current portfolio in USD:\n")
	for _, sym := range sortedSymbols(values) {
		fmt.Fprintf(&sb, "- %s: %.2f (%.2f%%)\n", sym, values[sym], allocation[sym])
	}
	fmt.Fprintf(&sb, "Total: %.2f\n", total)
	fmt.Fprintf(&sb, "Price change over the last %d days:\n", days)
	for _, sym := range sortedSymbols(deltas) {
		fmt.Fprintf(&sb, "- %s: %+.2f%%\n", sym, deltas[sym])
	}
	sb.WriteString("Recommend at most one rebalancing action.")
	return sb.String()
}

// AuditRecord documents a decision. It is stored in content-addressed
// storage; agents deciding alike produce identical records.
type AuditRecord struct {
	_struct struct{} `codec:",omitempty"`

	Period      uint64             `codec:"period"`
	Event       string             `codec:"event"`
	Action      string             `codec:"action"`
	Reason      string             `codec:"reason"`
	TokenValues map[string]float64 `codec:"token_values"`
	Total       float64            `codec:"total_portfolio_value"`
	Allocation  map[string]float64 `codec:"allocation"`
	Projected   map[string]float64 `codec:"projected_allocation"`
	PriceDeltas map[string]float64 `codec:"price_change_pct"`
}

// Encode returns the canonical serialization of the record.
func (r AuditRecord) Encode() []byte {
	return protocol.EncodeCanonicalJSON(r)
}
