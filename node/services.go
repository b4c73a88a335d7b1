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

package node

import (
	"fmt"
	"math/big"

	"github.com/aytunc-tunay/ETHGlobal-Trifecta/agreement"
	"github.com/aytunc-tunay/ETHGlobal-Trifecta/behaviour"
	"github.com/aytunc-tunay/ETHGlobal-Trifecta/config"
	"github.com/aytunc-tunay/ETHGlobal-Trifecta/portfolio"
	"github.com/aytunc-tunay/ETHGlobal-Trifecta/services/cas"
	"github.com/aytunc-tunay/ETHGlobal-Trifecta/services/chain"
	"github.com/aytunc-tunay/ETHGlobal-Trifecta/services/llm"
	"github.com/aytunc-tunay/ETHGlobal-Trifecta/services/prices"
	"github.com/aytunc-tunay/ETHGlobal-Trifecta/services/safe"
	"github.com/aytunc-tunay/ETHGlobal-Trifecta/services/servicestest"
)

// makeRegistry builds the service clients and the behaviours using them.
// Every agent of a local committee shares the clients.
func makeRegistry(cfg config.Local, store cas.Store) (behaviour.Registry, error) {
	pc, err := prices.MakeClient(cfg.PricesEndpoint, cfg.Credentials.CoinGeckoAPIKey)
	if err != nil {
		return nil, fmt.Errorf("%w: prices: %v", agreement.ErrConfiguration, err)
	}
	rpc, err := chain.MakeClient(cfg.ChainRPCEndpoint)
	if err != nil {
		return nil, fmt.Errorf("%w: chain: %v", agreement.ErrConfiguration, err)
	}
	lc, err := llm.MakeClient(llm.Params{
		Endpoint:        cfg.LLMEndpoint,
		APIKey:          cfg.Credentials.OpenAIAPIKey,
		Model:           cfg.LLMModel,
		MaxPromptTokens: cfg.LLMMaxPromptTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: llm: %v", agreement.ErrConfiguration, err)
	}
	safeAddr, err := chain.ParseAddress(cfg.SafeContractAddress)
	if err != nil {
		return nil, fmt.Errorf("%w: SafeContractAddress: %v", agreement.ErrConfiguration, err)
	}
	return portfolio.MakeRegistry(portfolio.Params{
		Config: cfg,
		Prices: pc,
		Chain:  rpc,
		Safe:   safe.MakeClient(rpc, safeAddr),
		LLM:    lc,
		Store:  store,
	})
}

// mockServices points cfg at fake and seeds it with a small portfolio whose
// recommendation is a 5% swap of WETH into USDC.
func mockServices(fake *servicestest.Fake, cfg config.Local) config.Local {
	cfg.PricesEndpoint = fake.PricesURL()
	cfg.ChainRPCEndpoint = fake.RPCURL()
	cfg.LLMEndpoint = fake.LLMURL()
	if cfg.AuditStore == cas.KindIPFS {
		cfg.IPFSEndpoint = fake.IPFSURL()
	}

	weth, _ := new(big.Int).SetString("400000000000000000", 10)
	if addr, ok := cfg.TokenBySymbol("WETH"); ok {
		fake.SetBalance(chain.MustParseAddress(addr), weth)
	}
	if addr, ok := cfg.TokenBySymbol("USDC"); ok {
		fake.SetBalance(chain.MustParseAddress(addr), big.NewInt(500_000_000))
	}
	fake.SetPrice(cfg.PriceIDs["WETH"], 2500)
	fake.SetPrice(cfg.PriceIDs["USDC"], 1)
	fake.SetChart(cfg.PriceIDs["WETH"], 2300, 2400, 2500)
	fake.SetChart(cfg.PriceIDs["USDC"], 1, 1, 1)
	fake.SetNonce(1)
	fake.SetCompletion(`{"action": "swap 5% of WETH to USDC", "reason": "WETH is overweight after its rally"}`)
	return cfg
}
