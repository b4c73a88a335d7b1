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

package safe

import (
	"context"
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/aytunc-tunay/ETHGlobal-Trifecta/services/chain"
	"github.com/aytunc-tunay/ETHGlobal-Trifecta/services/servicestest"
	"github.com/aytunc-tunay/ETHGlobal-Trifecta/test/partitiontest"
)

var (
	safeAddr  = chain.MustParseAddress("0x00000000000000000000000000000000000000cc")
	target    = chain.MustParseAddress("0x00000000000000000000000000000000000000bb")
	multisend = chain.MustParseAddress("0x998739BFdAAdde7C933B942a68053933098f9EDa")
)

func TestNonceAndTransactionHash(t *testing.T) {
	partitiontest.PartitionTest(t)

	fake := servicestest.NewFake()
	defer fake.Close()
	fake.SetNonce(7)

	rpc, err := chain.MakeClient(fake.RPCURL())
	require.NoError(t, err)
	c := MakeClient(rpc, safeAddr)

	nonce, err := c.Nonce(context.Background())
	require.NoError(t, err)
	require.Equal(t, int64(7), nonce.Int64())

	tx := Tx{To: target, Data: []byte{1, 2, 3}, Operation: Call, Nonce: nonce}
	h1, err := c.TransactionHash(context.Background(), tx)
	require.NoError(t, err)
	require.NotEqual(t, [32]byte{}, h1)

	tx.Nonce = big.NewInt(8)
	h2, err := c.TransactionHash(context.Background(), tx)
	require.NoError(t, err)
	require.NotEqual(t, h1, h2)
}

func TestEncodeMultiSend(t *testing.T) {
	partitiontest.PartitionTest(t)

	data := EncodeMultiSend([]MultiSendTx{
		{Operation: Call, To: target, Data: []byte{0xaa, 0xbb}},
		{Operation: Call, To: target, Value: big.NewInt(5)},
	})
	sel := chain.Selector("multiSend(bytes)")
	require.Equal(t, sel[:], data[:4])

	packed, err := chain.DecodeBytes(data[4:], 0)
	require.NoError(t, err)
	// operation(1) + to(20) + value(32) + length(32) + data
	require.Len(t, packed, 85+2+85)
	require.Equal(t, byte(Call), packed[0])
	require.Equal(t, target[:], packed[1:21])
	require.Equal(t, byte(2), packed[84])
	require.Equal(t, []byte{0xaa, 0xbb}, packed[85:87])
	require.Equal(t, byte(5), packed[87+52])
}

func TestHashPayloadRoundTrip(t *testing.T) {
	partitiontest.PartitionTest(t)

	var h [32]byte
	h[0], h[31] = 0x12, 0x34
	tx := Tx{To: multisend, Value: big.NewInt(0), SafeTxGas: big.NewInt(0), Operation: DelegateCall, Data: []byte{0xde, 0xad}}
	s := HashPayload(h, tx)
	require.Len(t, s, 64+64+64+40+2+4)

	h2, tx2, err := ParseHashPayload(s)
	require.NoError(t, err)
	require.Equal(t, h, h2)
	require.Equal(t, tx.To, tx2.To)
	require.Equal(t, tx.Operation, tx2.Operation)
	require.Equal(t, tx.Data, tx2.Data)
	require.Zero(t, tx2.Value.Sign())

	_, _, err = ParseHashPayload(s[:100])
	require.Error(t, err)
}
