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
	"math"
	"math/big"
	"sort"

	"github.com/aytunc-tunay/ETHGlobal-Trifecta/protocol"
)

// roundCents rounds v to two decimals so agents computing the same value
// from the same inputs serialize the same number.
func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}

// TokenValue returns the usd value of a raw token balance.
func TokenValue(balance *big.Int, decimals int, price float64) float64 {
	if balance == nil || balance.Sign() == 0 {
		return 0
	}
	units := new(big.Float).SetInt(balance)
	scale := new(big.Float).SetInt(new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil))
	amount, _ := new(big.Float).Quo(units, scale).Float64()
	return roundCents(amount * price)
}

// Valuation holds the per-token usd values of a portfolio and their total.
type Valuation struct {
	Values map[string]float64
	Total  float64
}

// MakeValuation rounds values and computes the total.
func MakeValuation(values map[string]float64) Valuation {
	v := Valuation{Values: make(map[string]float64, len(values))}
	for _, sym := range sortedSymbols(values) {
		v.Values[sym] = roundCents(values[sym])
		v.Total += v.Values[sym]
	}
	v.Total = roundCents(v.Total)
	return v
}

// Encode returns the canonical serialization of the values: keys sorted,
// no whitespace.
func (v Valuation) Encode() string {
	return string(protocol.EncodeCanonicalJSON(v.Values))
}

// DecodeValues parses the token_values store entry.
func DecodeValues(s string) (map[string]float64, error) {
	var values map[string]float64
	if err := protocol.DecodeJSON([]byte(s), &values); err != nil {
		return nil, fmt.Errorf("token values %q: %w", s, err)
	}
	return values, nil
}

// Allocation returns the share of each token in percent, rounded to two
// decimals. An empty or worthless portfolio has no allocation.
func Allocation(values map[string]float64) map[string]float64 {
	total := 0.0
	for _, v := range values {
		total += v
	}
	out := make(map[string]float64, len(values))
	if total <= 0 {
		return out
	}
	for sym, v := range values {
		out[sym] = roundCents(100 * v / total)
	}
	return out
}

// ProjectedAllocation returns the allocation after moving a.Percent of the
// value of a.Sell into a.Buy. Symbols match case-insensitively and the
// result is keyed by upper case symbol.
func ProjectedAllocation(values map[string]float64, a Action) map[string]float64 {
	next := make(map[string]float64, len(values)+1)
	for sym, v := range values {
		next[upperSymbol(sym)] += v
	}
	pct, _ := a.Percent.Float64()
	moved := next[a.Sell] * pct / 100
	next[a.Sell] -= moved
	next[a.Buy] += moved
	return Allocation(next)
}

func sortedSymbols[V any](m map[string]V) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
