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

// Package safe prepares transactions for a multi-signature Safe wallet.
package safe

import (
	"context"
	"encoding/hex"
	"fmt"
	"math/big"

	"github.com/aytunc-tunay/ETHGlobal-Trifecta/services/chain"
)

// Operation is the Safe call type.
type Operation uint8

// Safe operations.
const (
	Call         Operation = 0
	DelegateCall Operation = 1
)

const (
	nonceSig              = "nonce()"
	getTransactionHashSig = "getTransactionHash(address,uint256,bytes,uint8,uint256,uint256,uint256,address,address,uint256)"
	multiSendSig          = "multiSend(bytes)"
)

// Tx is a Safe transaction before signing.
type Tx struct {
	To        chain.Address
	Value     *big.Int
	Data      []byte
	Operation Operation
	SafeTxGas *big.Int
	Nonce     *big.Int
}

// Caller is the contract read surface a Client needs.
type Caller interface {
	Call(ctx context.Context, to chain.Address, data []byte) ([]byte, error)
}

// Client reads from one Safe contract.
type Client struct {
	caller Caller
	safe   chain.Address
}

// MakeClient returns a client for the Safe deployed at safe.
func MakeClient(caller Caller, safe chain.Address) *Client {
	return &Client{caller: caller, safe: safe}
}

// Nonce returns the nonce the next Safe transaction must use.
func (c *Client) Nonce(ctx context.Context) (*big.Int, error) {
	ret, err := c.caller.Call(ctx, c.safe, chain.EncodeCall(nonceSig))
	if err != nil {
		return nil, err
	}
	return chain.DecodeUint(ret, 0)
}

// TransactionHash asks the Safe for the hash its owners sign for tx.
func (c *Client) TransactionHash(ctx context.Context, tx Tx) ([32]byte, error) {
	data := chain.EncodeCall(getTransactionHashSig,
		chain.AddressValue(tx.To),
		chain.Uint{Int: orZero(tx.Value)},
		chain.Bytes(tx.Data),
		chain.NewUint(uint64(tx.Operation)),
		chain.Uint{Int: orZero(tx.SafeTxGas)},
		chain.NewUint(0),
		chain.NewUint(0),
		chain.AddressValue(chain.ZeroAddress),
		chain.AddressValue(chain.ZeroAddress),
		chain.Uint{Int: orZero(tx.Nonce)},
	)
	ret, err := c.caller.Call(ctx, c.safe, data)
	if err != nil {
		return [32]byte{}, err
	}
	return chain.DecodeBytes32(ret, 0)
}

func orZero(v *big.Int) *big.Int {
	if v == nil {
		return new(big.Int)
	}
	return v
}

// MultiSendTx is one call of a MultiSend batch.
type MultiSendTx struct {
	Operation Operation
	To        chain.Address
	Value     *big.Int
	Data      []byte
}

// EncodeMultiSend returns the calldata executing txs atomically through the
// MultiSend contract. Each call is packed as operation, to, value, data
// length and data without padding.
func EncodeMultiSend(txs []MultiSendTx) []byte {
	var packed []byte
	for _, tx := range txs {
		packed = append(packed, byte(tx.Operation))
		packed = append(packed, tx.To[:]...)
		value := make([]byte, 32)
		orZero(tx.Value).FillBytes(value)
		packed = append(packed, value...)
		length := make([]byte, 32)
		new(big.Int).SetInt64(int64(len(tx.Data))).FillBytes(length)
		packed = append(packed, length...)
		packed = append(packed, tx.Data...)
	}
	return chain.EncodeCall(multiSendSig, chain.Bytes(packed))
}

// HashPayload is the value agents agree on before settling a Safe
// transaction: safe tx hash, ether value, safe tx gas, target, operation and
// calldata, hex encoded and concatenated.
func HashPayload(safeTxHash [32]byte, tx Tx) string {
	return fmt.Sprintf("%s%064x%064x%s%02x%s",
		hex.EncodeToString(safeTxHash[:]),
		orZero(tx.Value),
		orZero(tx.SafeTxGas),
		hex.EncodeToString(tx.To[:]),
		uint8(tx.Operation),
		hex.EncodeToString(tx.Data),
	)
}

// ParseHashPayload splits a HashPayload string back into its parts.
func ParseHashPayload(s string) ([32]byte, Tx, error) {
	var h [32]byte
	var tx Tx
	const fixed = 64 + 64 + 64 + 40 + 2
	if len(s) < fixed {
		return h, tx, fmt.Errorf("hash payload too short: %d", len(s))
	}
	raw, err := hex.DecodeString(s[:64])
	if err != nil {
		return h, tx, err
	}
	copy(h[:], raw)
	value, ok := new(big.Int).SetString(s[64:128], 16)
	if !ok {
		return h, tx, fmt.Errorf("hash payload: bad value")
	}
	gas, ok := new(big.Int).SetString(s[128:192], 16)
	if !ok {
		return h, tx, fmt.Errorf("hash payload: bad gas")
	}
	to, err := chain.ParseAddress(s[192:232])
	if err != nil {
		return h, tx, err
	}
	op, err := hex.DecodeString(s[232:234])
	if err != nil {
		return h, tx, err
	}
	data, err := hex.DecodeString(s[234:])
	if err != nil {
		return h, tx, err
	}
	tx = Tx{To: to, Value: value, SafeTxGas: gas, Operation: Operation(op[0]), Data: data}
	return h, tx, nil
}
