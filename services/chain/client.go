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

// Package chain reads contract state over Ethereum JSON-RPC.
package chain

import (
	"context"
	"fmt"
	"math/big"
	"sync/atomic"

	"github.com/aytunc-tunay/ETHGlobal-Trifecta/services/restclient"
)

const getUserBalancesSig = "getUserBalances(address,address[])"

// RPCError is an error object returned by the node.
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Error implements error.
func (e *RPCError) Error() string {
	return fmt.Sprintf("json-rpc error %d: %s", e.Code, e.Message)
}

type rpcRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      uint64        `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
}

type rpcResponse struct {
	ID     uint64    `json:"id"`
	Result string    `json:"result"`
	Error  *RPCError `json:"error"`
}

type callArgs struct {
	From string `json:"from,omitempty"`
	To   string `json:"to"`
	Data string `json:"data"`
}

// Client issues read-only contract calls.
type Client struct {
	rest   restclient.RestClient
	nextID atomic.Uint64
}

// MakeClient creates a client for the JSON-RPC endpoint.
func MakeClient(endpoint string) (*Client, error) {
	u, err := restclient.ParseEndpoint(endpoint)
	if err != nil {
		return nil, err
	}
	return &Client{rest: restclient.MakeRestClient(u, nil)}, nil
}

// Call executes eth_call against the latest block and returns the raw result.
func (c *Client) Call(ctx context.Context, to Address, data []byte) ([]byte, error) {
	req := rpcRequest{
		JSONRPC: "2.0",
		ID:      c.nextID.Add(1),
		Method:  "eth_call",
		Params:  []interface{}{callArgs{To: to.String(), Data: HexData(data)}, "latest"},
	}
	var resp rpcResponse
	if err := c.rest.Post(ctx, &resp, "", nil, req); err != nil {
		return nil, err
	}
	if resp.Error != nil {
		return nil, resp.Error
	}
	return ParseHexData(resp.Result)
}

// GetUserBalances reads the balances user holds in the portfolio contract,
// in the order of tokens.
func (c *Client) GetUserBalances(ctx context.Context, contract, user Address, tokens []Address) ([]*big.Int, error) {
	arr := make(Array, len(tokens))
	for i, t := range tokens {
		arr[i] = AddressValue(t)
	}
	ret, err := c.Call(ctx, contract, EncodeCall(getUserBalancesSig, AddressValue(user), arr))
	if err != nil {
		return nil, err
	}
	balances, err := DecodeUintArray(ret, 0)
	if err != nil {
		return nil, err
	}
	if len(balances) != len(tokens) {
		return nil, fmt.Errorf("%w: %d balances for %d tokens", ErrMalformedReturn, len(balances), len(tokens))
	}
	return balances, nil
}

// Swap is one leg of a rebalance.
type Swap struct {
	TokenToSell  Address
	TokenToBuy   Address
	AmountToSell *big.Int
	AmountOutMin *big.Int
	PoolFee      uint32
}

// EncodeExecuteRebalance returns the calldata of
// executeRebalance(address,(address,address,uint256,uint256,uint24)[]).
func EncodeExecuteRebalance(user Address, swaps []Swap) []byte {
	arr := make(Array, len(swaps))
	for i, s := range swaps {
		minOut := s.AmountOutMin
		if minOut == nil {
			minOut = new(big.Int)
		}
		arr[i] = Tuple{
			AddressValue(s.TokenToSell),
			AddressValue(s.TokenToBuy),
			Uint{s.AmountToSell},
			Uint{minOut},
			NewUint(uint64(s.PoolFee)),
		}
	}
	return EncodeCall("executeRebalance(address,(address,address,uint256,uint256,uint24)[])", AddressValue(user), arr)
}

// EncodeAnchorReport returns the calldata recording an audit report
// reference on the portfolio contract.
func EncodeAnchorReport(user Address, ref string) []byte {
	return EncodeCall("anchorReport(address,string)", AddressValue(user), String(ref))
}
