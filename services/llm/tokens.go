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
	"github.com/algorand/go-deadlock"
	"github.com/pkoukk/tiktoken-go"
)

// TokenCounter measures prompt size.
type TokenCounter interface {
	Count(text string) int
}

// tiktokenCounter counts with the model's BPE encoding.
type tiktokenCounter struct {
	mu       deadlock.Mutex
	encoding *tiktoken.Tiktoken
}

// NewTokenCounter returns a counter for model. The BPE tables are fetched on
// first use; when they are unavailable the counter estimates four bytes per
// token.
func NewTokenCounter(model string) TokenCounter {
	encoding, err := tiktoken.EncodingForModel(model)
	if err != nil {
		encoding, err = tiktoken.GetEncoding("cl100k_base")
		if err != nil {
			return approxCounter{}
		}
	}
	return &tiktokenCounter{encoding: encoding}
}

func (tc *tiktokenCounter) Count(text string) int {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	return len(tc.encoding.Encode(text, nil, nil))
}

type approxCounter struct{}

func (approxCounter) Count(text string) int {
	return (len(text) + 3) / 4
}
