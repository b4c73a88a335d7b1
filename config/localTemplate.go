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

package config

import (
	"time"
)

// Local holds the per-agent configuration settings.
// Values are read once at startup and never mutated afterwards; components
// receive a copy.
type Local struct {
	// Version tracks the current version of the defaults so old files can be told apart.
	Version uint32

	// AgentID identifies this agent among the committee participants.
	AgentID string

	// Participants lists every committee member, including AgentID.
	Participants []string

	// ConsensusThreshold is the number of identical payloads required to decide a round.
	// Zero selects the default floor(2N/3)+1.
	ConsensusThreshold int

	// BlockInterval is the period between commit ticks of the local agreement transport.
	BlockInterval time.Duration

	// RoundTimeout is the duration after which a stage raises round_timeout and is retried.
	RoundTimeout time.Duration

	// ResetPauseDuration is how long the reset stage waits before starting a new period.
	ResetPauseDuration time.Duration

	// BehaviourTickInterval is how often the behaviour scheduler is ticked.
	BehaviourTickInterval time.Duration

	// EndpointAddress configures the address the agent REST API listens on; empty disables it.
	EndpointAddress string

	// BaseLoggerDebugLevel ranges from 0 (critical error / silent) to 5 (debug / verbose).
	BaseLoggerDebugLevel uint32

	// LogSizeLimit is the maximum size of agent.log before it is archived to LogArchiveName.
	LogSizeLimit uint64

	// LogArchiveName is the name of the archived log file.
	LogArchiveName string

	// PersistSnapshots stores every committed snapshot in the data directory.
	PersistSnapshots bool

	// ChainRPCEndpoint is the JSON-RPC endpoint used for contract reads.
	ChainRPCEndpoint string

	// PricesEndpoint is the base URL of the price service.
	PricesEndpoint string

	// PriceHistoryDays is the length of the market chart fetched for the decision prompt.
	PriceHistoryDays int

	// LLMEndpoint is the base URL of the OpenAI-compatible completion service.
	LLMEndpoint string

	// LLMModel selects the completion model.
	LLMModel string

	// LLMMaxPromptTokens bounds the encoded prompt size.
	LLMMaxPromptTokens int

	// AuditStore selects the content-addressed storage backend: "ipfs", "s3" or "local".
	AuditStore string

	// IPFSEndpoint is the base URL of the IPFS HTTP API.
	IPFSEndpoint string

	// S3Bucket and S3Region locate the bucket used by the s3 audit store.
	S3Bucket string
	S3Region string

	// S3Endpoint overrides the s3 endpoint, for S3 compatible stores.
	S3Endpoint string

	// PortfolioOwner is the account whose portfolio is managed.
	PortfolioOwner string

	// PortfolioManagerContractAddress is the portfolio contract executing rebalances.
	PortfolioManagerContractAddress string

	// SafeContractAddress is the multi-signature wallet submitting transactions.
	SafeContractAddress string

	// MultisendAddress is the batching contract used when a rebalance carries several calls.
	MultisendAddress string

	// AnchorAuditReports adds an anchorReport call carrying the audit reference to each rebalance.
	AnchorAuditReports bool

	// Tokens maps token symbols to contract addresses.
	Tokens map[string]string

	// TokenDecimals maps token symbols to their decimals.
	TokenDecimals map[string]int

	// PriceIDs maps token symbols to price service identifiers.
	PriceIDs map[string]string

	// Credentials are loaded from the environment and never written to disk.
	Credentials Credentials `json:"-"`
}

var defaultLocal = Local{
	Version:                         1,
	AgentID:                         "agent-0",
	Participants:                    []string{"agent-0", "agent-1", "agent-2", "agent-3"},
	ConsensusThreshold:              0,
	BlockInterval:                   time.Second,
	RoundTimeout:                    30 * time.Second,
	ResetPauseDuration:              10 * time.Second,
	BehaviourTickInterval:           200 * time.Millisecond,
	EndpointAddress:                 "127.0.0.1:8716",
	BaseLoggerDebugLevel:            4,
	LogSizeLimit:                    1073741824,
	LogArchiveName:                  "agent.archive.log",
	PersistSnapshots:                true,
	ChainRPCEndpoint:                "http://127.0.0.1:8545",
	PricesEndpoint:                  "https://api.coingecko.com/api/v3",
	PriceHistoryDays:                7,
	LLMEndpoint:                     "https://api.openai.com/v1",
	LLMModel:                        "gpt-4o-mini",
	LLMMaxPromptTokens:              3000,
	AuditStore:                      "local",
	IPFSEndpoint:                    "http://127.0.0.1:5001",
	S3Region:                        "us-east-1",
	PortfolioOwner:                  "0x0000000000000000000000000000000000000000",
	PortfolioManagerContractAddress: "0x0000000000000000000000000000000000000000",
	SafeContractAddress:             "0x0000000000000000000000000000000000000000",
	MultisendAddress:                "0x998739BFdAAdde7C933B942a68053933098f9EDa",
	AnchorAuditReports:              false,
	Tokens: map[string]string{
		"USDC": "0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48",
		"WETH": "0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2",
	},
	TokenDecimals: map[string]int{
		"USDC": 6,
		"WETH": 18,
	},
	PriceIDs: map[string]string{
		"USDC": "usd-coin",
		"WETH": "weth",
	},
}
