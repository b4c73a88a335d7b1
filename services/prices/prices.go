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

// Package prices queries a CoinGecko compatible price service.
package prices

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/aytunc-tunay/ETHGlobal-Trifecta/services/restclient"
)

const apiKeyHeader = "x-cg-demo-api-key"

// Point is one sample of a price series.
type Point struct {
	Time  time.Time
	Price float64
}

// Client reads spot prices and price history.
type Client struct {
	rest     restclient.RestClient
	currency string
}

type simplePriceParams struct {
	IDs          string `url:"ids"`
	VsCurrencies string `url:"vs_currencies"`
}

type marketChartParams struct {
	VsCurrency string `url:"vs_currency"`
	Days       int    `url:"days"`
	Interval   string `url:"interval,omitempty"`
}

type marketChartResponse struct {
	Prices [][2]float64 `json:"prices"`
}

// MakeClient creates a client quoting in USD. apiKey may be empty.
func MakeClient(endpoint, apiKey string) (*Client, error) {
	u, err := restclient.ParseEndpoint(endpoint)
	if err != nil {
		return nil, err
	}
	var headers map[string]string
	if apiKey != "" {
		headers = map[string]string{apiKeyHeader: apiKey}
	}
	return &Client{rest: restclient.MakeRestClient(u, headers), currency: "usd"}, nil
}

// Prices returns the spot price of every id.
func (c *Client) Prices(ctx context.Context, ids []string) (map[string]float64, error) {
	sorted := append([]string(nil), ids...)
	sort.Strings(sorted)
	var resp map[string]map[string]float64
	err := c.rest.Get(ctx, &resp, "/simple/price", simplePriceParams{
		IDs:          strings.Join(sorted, ","),
		VsCurrencies: c.currency,
	})
	if err != nil {
		return nil, err
	}
	out := make(map[string]float64, len(ids))
	for _, id := range ids {
		quote, ok := resp[id][c.currency]
		if !ok {
			return nil, fmt.Errorf("no %s price for %s", c.currency, id)
		}
		out[id] = quote
	}
	return out, nil
}

// MarketChart returns the price history of id over the last days, oldest first.
func (c *Client) MarketChart(ctx context.Context, id string, days int) ([]Point, error) {
	var resp marketChartResponse
	params := marketChartParams{VsCurrency: c.currency, Days: days}
	if days > 1 {
		params.Interval = "daily"
	}
	if err := c.rest.Get(ctx, &resp, "/coins/"+id+"/market_chart", params); err != nil {
		return nil, err
	}
	points := make([]Point, len(resp.Prices))
	for i, p := range resp.Prices {
		points[i] = Point{Time: time.UnixMilli(int64(p[0])).UTC(), Price: p[1]}
	}
	sort.SliceStable(points, func(i, j int) bool { return points[i].Time.Before(points[j].Time) })
	return points, nil
}

// Change returns the relative change from the first to the last point.
func Change(points []Point) float64 {
	if len(points) < 2 || points[0].Price == 0 {
		return 0
	}
	return (points[len(points)-1].Price - points[0].Price) / points[0].Price
}
