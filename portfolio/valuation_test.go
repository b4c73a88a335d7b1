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
	"math/big"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/aytunc-tunay/ETHGlobal-Trifecta/test/partitiontest"
)

func TestTokenValue(t *testing.T) {
	partitiontest.PartitionTest(t)

	weth, _ := new(big.Int).SetString("400000000000000000", 10)
	require.Equal(t, 1000.0, TokenValue(weth, 18, 2500))
	require.Equal(t, 500.0, TokenValue(big.NewInt(500_000_000), 6, 1))
	require.Equal(t, 0.0, TokenValue(nil, 6, 1))
	require.Equal(t, 0.33, TokenValue(big.NewInt(1), 0, 1.0/3))
}

func TestValuationEncodingIsCanonical(t *testing.T) {
	partitiontest.PartitionTest(t)

	a := MakeValuation(map[string]float64{"WETH": 1000.0, "USDC": 500.0})
	b := MakeValuation(map[string]float64{"USDC": 500.004, "WETH": 999.996})
	require.Equal(t, a.Encode(), b.Encode())
	require.Equal(t, 1500.0, a.Total)
	require.True(t, strings.HasPrefix(a.Encode(), `{"USDC":`))

	values, err := DecodeValues(a.Encode())
	require.NoError(t, err)
	require.Equal(t, map[string]float64{"USDC": 500, "WETH": 1000}, values)

	_, err = DecodeValues("not json")
	require.Error(t, err)
}

func TestAllocation(t *testing.T) {
	partitiontest.PartitionTest(t)

	values := map[string]float64{"WETH": 1000, "USDC": 500}
	require.Equal(t, map[string]float64{"WETH": 66.67, "USDC": 33.33}, Allocation(values))
	require.Empty(t, Allocation(map[string]float64{"WETH": 0}))

	a, err := ParseAction("swap 5% of WETH to USDC")
	require.NoError(t, err)
	require.Equal(t, map[string]float64{"WETH": 63.33, "USDC": 36.67}, ProjectedAllocation(values, a))
	// values are not modified
	require.Equal(t, 1000.0, values["WETH"])

	lower := map[string]float64{"weth": 1000, "usdc": 500}
	require.Equal(t, map[string]float64{"WETH": 63.33, "USDC": 36.67}, ProjectedAllocation(lower, a))
	a, err = ParseAction("swap 100% of usdc to weth")
	require.NoError(t, err)
	require.Equal(t, map[string]float64{"WETH": 100, "USDC": 0}, ProjectedAllocation(lower, a))
}

func TestComposePrompt(t *testing.T) {
	partitiontest.PartitionTest(t)

	values := map[string]float64{"WETH": 1000, "USDC": 500}
	p := ComposePrompt(values, 1500, Allocation(values), map[string]float64{"WETH": -3.2, "USDC": 0.01}, 7)
	require.Contains(t, p, "- USDC: 500.00 (33.33%)\n- WETH: 1000.00 (66.67%)")
	require.Contains(t, p, "Total: 1500.00")
	require.Contains(t, p, "last 7 days")
	require.Contains(t, p, "- WETH: -3.20%")
	require.Contains(t, p, "- USDC: +0.01%")
	require.Equal(t, p, ComposePrompt(values, 1500, Allocation(values), map[string]float64{"USDC": 0.01, "WETH": -3.2}, 7))
}
