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

package llm

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/aytunc-tunay/ETHGlobal-Trifecta/services/restclient"
	"github.com/aytunc-tunay/ETHGlobal-Trifecta/services/servicestest"
	"github.com/aytunc-tunay/ETHGlobal-Trifecta/test/partitiontest"
)

type wordCounter struct{}

func (wordCounter) Count(s string) int { return len(strings.Fields(s)) }

func TestCompleteJSON(t *testing.T) {
	partitiontest.PartitionTest(t)

	fake := servicestest.NewFake()
	defer fake.Close()
	fake.SetCompletion(`{"action":"none","reason":"flat"}`)

	c, err := MakeClient(Params{Endpoint: fake.LLMURL(), APIKey: "k", Model: "gpt-4o-mini", Counter: wordCounter{}})
	require.NoError(t, err)

	out, err := c.CompleteJSON(context.Background(), "you manage a portfolio", "what now?")
	require.NoError(t, err)
	require.Equal(t, `{"action":"none","reason":"flat"}`, out)
	require.Equal(t, []string{"what now?"}, fake.Prompts())
}

func TestCompleteJSONErrors(t *testing.T) {
	partitiontest.PartitionTest(t)

	fake := servicestest.NewFake()
	defer fake.Close()

	c, err := MakeClient(Params{Endpoint: fake.LLMURL(), Model: "m", MaxPromptTokens: 12, Counter: wordCounter{}})
	require.NoError(t, err)

	_, err = c.CompleteJSON(context.Background(), "s", "q")
	require.ErrorIs(t, err, ErrEmptyCompletion)

	_, err = c.CompleteJSON(context.Background(), "s", "one two three four five")
	require.ErrorIs(t, err, ErrPromptTooLong)
	require.Equal(t, 1, fake.Calls(servicestest.LLM))

	fake.Fail(servicestest.LLM, http.StatusInternalServerError)
	_, err = c.CompleteJSON(context.Background(), "s", "q")
	var herr restclient.HTTPError
	require.ErrorAs(t, err, &herr)

	_, err = MakeClient(Params{Endpoint: fake.LLMURL()})
	require.Error(t, err)
}

func TestApproxCounter(t *testing.T) {
	partitiontest.PartitionTest(t)

	require.Equal(t, 0, approxCounter{}.Count(""))
	require.Equal(t, 1, approxCounter{}.Count("abcd"))
	require.Equal(t, 2, approxCounter{}.Count("abcde"))
}
