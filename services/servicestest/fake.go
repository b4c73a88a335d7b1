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

// Package servicestest serves in-process fakes of the external services an
// agent calls: price feed, JSON-RPC node, completion service and IPFS.
package servicestest

import (
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"net/http/httptest"
	"strings"
	"time"

	"github.com/algorand/go-deadlock"
	"github.com/gorilla/mux"

	"github.com/aytunc-tunay/ETHGlobal-Trifecta/services/chain"
)

// Service names accepted by Fail and Calls.
const (
	Prices = "prices"
	RPC    = "rpc"
	LLM    = "llm"
	IPFS   = "ipfs"
)

var (
	getUserBalancesSelector    = chain.Selector("getUserBalances(address,address[])")
	nonceSelector              = chain.Selector("nonce()")
	getTransactionHashSelector = chain.Selector("getTransactionHash(address,uint256,bytes,uint8,uint256,uint256,uint256,address,address,uint256)")
)

// chartStart anchors the timestamps of generated market charts.
var chartStart = time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)

// Fake is a set of external services behind one httptest.Server.
type Fake struct {
	Server *httptest.Server

	mu         deadlock.Mutex
	prices     map[string]float64
	charts     map[string][]float64
	balances   map[chain.Address]*big.Int
	nonce      uint64
	completion string
	prompts    []string
	objects    map[string][]byte
	failures   map[string]int
	calls      map[string]int
}

// NewFake starts the fake. The server is closed by Close.
func NewFake() *Fake {
	f := &Fake{
		prices:   make(map[string]float64),
		charts:   make(map[string][]float64),
		balances: make(map[chain.Address]*big.Int),
		objects:  make(map[string][]byte),
		failures: make(map[string]int),
		calls:    make(map[string]int),
	}

	r := mux.NewRouter()
	r.Handle("/prices/simple/price", f.service(Prices, f.simplePrice)).Methods(http.MethodGet)
	r.Handle("/prices/coins/{id}/market_chart", f.service(Prices, f.marketChart)).Methods(http.MethodGet)
	r.Handle("/rpc", f.service(RPC, f.rpc)).Methods(http.MethodPost)
	r.Handle("/llm/chat/completions", f.service(LLM, f.chat)).Methods(http.MethodPost)
	r.Handle("/ipfs/api/v0/add", f.service(IPFS, f.ipfsAdd)).Methods(http.MethodPost)
	r.Handle("/ipfs/api/v0/cat", f.service(IPFS, f.ipfsCat)).Methods(http.MethodPost)
	f.Server = httptest.NewServer(r)
	return f
}

// Close shuts the server down.
func (f *Fake) Close() { f.Server.Close() }

// PricesURL is the base URL of the price service.
func (f *Fake) PricesURL() string { return f.Server.URL + "/prices" }

// RPCURL is the JSON-RPC endpoint.
func (f *Fake) RPCURL() string { return f.Server.URL + "/rpc" }

// LLMURL is the base URL of the completion service.
func (f *Fake) LLMURL() string { return f.Server.URL + "/llm" }

// IPFSURL is the base URL of the IPFS API.
func (f *Fake) IPFSURL() string { return f.Server.URL + "/ipfs" }

// SetPrice sets the usd quote of a price id.
func (f *Fake) SetPrice(id string, usd float64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prices[id] = usd
}

// SetChart sets the daily closes served for id, oldest first.
func (f *Fake) SetChart(id string, closes ...float64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.charts[id] = append([]float64(nil), closes...)
}

// SetBalance sets the balance getUserBalances reports for token.
func (f *Fake) SetBalance(token chain.Address, amount *big.Int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.balances[token] = new(big.Int).Set(amount)
}

// SetNonce sets the Safe nonce.
func (f *Fake) SetNonce(n uint64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nonce = n
}

// SetCompletion sets the message content returned by the completion service.
func (f *Fake) SetCompletion(content string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.completion = content
}

// Prompts returns the user messages received so far.
func (f *Fake) Prompts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.prompts...)
}

// Fail makes every request to service answer with status. Zero restores
// normal operation.
func (f *Fake) Fail(service string, status int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if status == 0 {
		delete(f.failures, service)
		return
	}
	f.failures[service] = status
}

// Calls returns how many requests service received, failed ones included.
func (f *Fake) Calls(service string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[service]
}

// TransactionHash is the hash the fake Safe returns for getTransactionHash
// calldata: the keccak of the calldata itself.
func TransactionHash(calldata []byte) [32]byte {
	return chain.Keccak256(calldata)
}

func (f *Fake) service(name string, h http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.calls[name]++
		status := f.failures[name]
		f.mu.Unlock()
		if status != 0 {
			writeJSON(w, status, map[string]interface{}{
				"error": map[string]string{"message": fmt.Sprintf("%s unavailable", name)},
			})
			return
		}
		h(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func (f *Fake) simplePrice(w http.ResponseWriter, r *http.Request) {
	currency := r.URL.Query().Get("vs_currencies")
	out := make(map[string]map[string]float64)
	f.mu.Lock()
	for _, id := range strings.Split(r.URL.Query().Get("ids"), ",") {
		if p, ok := f.prices[id]; ok {
			out[id] = map[string]float64{currency: p}
		}
	}
	f.mu.Unlock()
	writeJSON(w, http.StatusOK, out)
}

func (f *Fake) marketChart(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	f.mu.Lock()
	closes, ok := f.charts[id]
	f.mu.Unlock()
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "coin not found"})
		return
	}
	points := make([][2]float64, len(closes))
	for i, c := range closes {
		ts := chartStart.Add(time.Duration(i) * 24 * time.Hour)
		points[i] = [2]float64{float64(ts.UnixMilli()), c}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"prices": points})
}

type rpcRequest struct {
	ID     uint64            `json:"id"`
	Method string            `json:"method"`
	Params []json.RawMessage `json:"params"`
}

type callArgs struct {
	To   string `json:"to"`
	Data string `json:"data"`
}

func (f *Fake) rpc(w http.ResponseWriter, r *http.Request) {
	var req rpcRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": err.Error()})
		return
	}
	reply := func(result []byte, err error) {
		resp := map[string]interface{}{"jsonrpc": "2.0", "id": req.ID}
		if err != nil {
			resp["error"] = map[string]interface{}{"code": -32000, "message": err.Error()}
		} else {
			resp["result"] = chain.HexData(result)
		}
		writeJSON(w, http.StatusOK, resp)
	}

	if req.Method != "eth_call" || len(req.Params) == 0 {
		reply(nil, fmt.Errorf("method %s not supported", req.Method))
		return
	}
	var args callArgs
	if err := json.Unmarshal(req.Params[0], &args); err != nil {
		reply(nil, err)
		return
	}
	data, err := chain.ParseHexData(args.Data)
	if err != nil || len(data) < 4 {
		reply(nil, fmt.Errorf("bad calldata"))
		return
	}
	reply(f.call(data))
}

func (f *Fake) call(data []byte) ([]byte, error) {
	var sel [4]byte
	copy(sel[:], data[:4])
	args := data[4:]

	f.mu.Lock()
	defer f.mu.Unlock()
	switch sel {
	case getUserBalancesSelector:
		tokens, err := chain.DecodeAddressArray(args, 1)
		if err != nil {
			return nil, err
		}
		out := make(chain.Array, len(tokens))
		for i, t := range tokens {
			b := f.balances[t]
			if b == nil {
				b = new(big.Int)
			}
			out[i] = chain.Uint{Int: b}
		}
		return chain.EncodeArgs(out), nil
	case nonceSelector:
		return chain.EncodeArgs(chain.NewUint(f.nonce)), nil
	case getTransactionHashSelector:
		return chain.EncodeArgs(chain.Bytes32(TransactionHash(data))), nil
	default:
		return nil, fmt.Errorf("execution reverted")
	}
}

type chatRequest struct {
	Model    string `json:"model"`
	Messages []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
}

func (f *Fake) chat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": err.Error()})
		return
	}
	f.mu.Lock()
	for _, m := range req.Messages {
		if m.Role == "user" {
			f.prompts = append(f.prompts, m.Content)
		}
	}
	content := f.completion
	f.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"model": req.Model,
		"choices": []interface{}{
			map[string]interface{}{"message": map[string]string{"role": "assistant", "content": content}},
		},
	})
}

// CID derives the fake IPFS identifier of data.
func CID(data []byte) string {
	sum := chain.Keccak256(data)
	return "bafk" + fmt.Sprintf("%x", sum[:20])
}

func (f *Fake) ipfsAdd(w http.ResponseWriter, r *http.Request) {
	file, _, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": err.Error()})
		return
	}
	defer file.Close()
	data, err := io.ReadAll(file)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": err.Error()})
		return
	}
	cid := CID(data)
	f.mu.Lock()
	f.objects[cid] = data
	f.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]string{"Name": "audit.json", "Hash": cid, "Size": fmt.Sprint(len(data))})
}

func (f *Fake) ipfsCat(w http.ResponseWriter, r *http.Request) {
	cid := r.URL.Query().Get("arg")
	f.mu.Lock()
	data, ok := f.objects[cid]
	f.mu.Unlock()
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"Message": "merkledag: not found"})
		return
	}
	w.Header().Set("Content-Type", "application/octet-stream")
	w.Write(data)
}
