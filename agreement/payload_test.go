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

package agreement

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/aytunc-tunay/ETHGlobal-Trifecta/test/partitiontest"
)

func TestCollectionSerializationIsCanonical(t *testing.T) {
	partitiontest.PartitionTest(t)

	c1 := Collection{"b": vote("b", "x"), "a": branchVote("a", "y", eventTransact)}
	c2 := Collection{"a": branchVote("a", "y", eventTransact)}
	c2["b"] = vote("b", "x")

	s1, err := SerializeCollection(c1)
	require.NoError(t, err)
	s2, err := SerializeCollection(c2)
	require.NoError(t, err)
	require.Equal(t, s1, s2)

	back, err := DeserializeCollection(s1)
	require.NoError(t, err)
	require.Equal(t, []string{"a", "b"}, back.Senders())
	require.Equal(t, eventTransact, back["a"].(*testPayload).Ev)
	require.Equal(t, "x", back["b"].(*testPayload).Value)
}

func TestSerializeRejectsMisfiledPayload(t *testing.T) {
	partitiontest.PartitionTest(t)

	_, err := SerializeCollection(Collection{"a": vote("b", "x")})
	require.ErrorIs(t, err, ErrValidation)
}

func TestDecodePayload(t *testing.T) {
	partitiontest.PartitionTest(t)

	p := branchVote("a", "x", EventDone)
	got, err := DecodePayload(testPayloadTag, EncodePayload(p))
	require.NoError(t, err)
	require.Equal(t, p, got)

	_, err = DecodePayload("ZZ", EncodePayload(p))
	require.ErrorIs(t, err, ErrUnknownPayload)

	_, err = DeserializeCollection(`{"a":{"tag":"ZZ","payload":"{}"}}`)
	require.ErrorIs(t, err, ErrUnknownPayload)
}

func TestRegisterPayloadTwicePanics(t *testing.T) {
	partitiontest.PartitionTest(t)

	require.Panics(t, func() {
		RegisterPayload(testPayloadTag, func() Payload { return new(testPayload) })
	})
}

func TestSelectionKey(t *testing.T) {
	partitiontest.PartitionTest(t)

	require.Equal(t, selectionKey(vote("a", "x"), false), selectionKey(vote("b", "x"), false))
	require.NotEqual(t,
		selectionKey(branchVote("a", "x", EventDone), true),
		selectionKey(branchVote("a", "x", eventTransact), true))
}
