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

package api

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/aytunc-tunay/ETHGlobal-Trifecta/ledger"
	"github.com/aytunc-tunay/ETHGlobal-Trifecta/logging"
)

// ErrorResponse is the body of every non-2xx answer.
type ErrorResponse struct {
	Message string `json:"message"`
}

// StatusResponse is the body of GET /v1/status.
type StatusResponse struct {
	AgentID            string `json:"agent-id"`
	Session            string `json:"session"`
	Stage              string `json:"stage"`
	RoundID            uint64 `json:"round"`
	Period             uint64 `json:"period"`
	Version            uint64 `json:"version"`
	Final              bool   `json:"final"`
	CommitteeSize      int    `json:"committee-size"`
	Threshold          int    `json:"threshold"`
	TimeSinceLastRound int64  `json:"time-since-last-round"`
}

// StoreResponse is the body of GET /v1/store.
type StoreResponse struct {
	Period  uint64       `json:"period"`
	Version uint64       `json:"version"`
	Data    ledger.Pairs `json:"data"`
}

// KeyResponse is the body of GET /v1/store/:key.
type KeyResponse struct {
	Key     string      `json:"key"`
	Value   interface{} `json:"value"`
	Version uint64      `json:"version"`
}

type handlers struct {
	node NodeInterface
	log  logging.Logger
}

func returnError(ctx echo.Context, code int, err error, logger logging.Logger) error {
	logger.Info(err)
	return ctx.JSON(code, ErrorResponse{Message: err.Error()})
}

// health is an httpHandler for route GET /health
func (h handlers) health(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, nil)
}

// status is an httpHandler for route GET /v1/status
func (h handlers) status(ctx echo.Context) error {
	st := h.node.Status()
	return ctx.JSON(http.StatusOK, StatusResponse{
		AgentID:            st.AgentID,
		Session:            st.Session,
		Stage:              string(st.Stage),
		RoundID:            st.RoundID,
		Period:             st.Period,
		Version:            st.Version,
		Final:              st.Final,
		CommitteeSize:      st.CommitteeSize,
		Threshold:          st.Threshold,
		TimeSinceLastRound: int64(st.TimeSinceLastRound()),
	})
}

// store is an httpHandler for route GET /v1/store
func (h handlers) store(ctx echo.Context) error {
	s := h.node.Snapshot()
	return ctx.JSON(http.StatusOK, StoreResponse{
		Period:  s.Period(),
		Version: s.Version(),
		Data:    s.Data(),
	})
}

// storeKey is an httpHandler for route GET /v1/store/:key
func (h handlers) storeKey(ctx echo.Context) error {
	key := ctx.Param("key")
	s := h.node.Snapshot()
	v, err := s.GetStrict(key)
	if err != nil {
		return returnError(ctx, http.StatusNotFound, fmt.Errorf("store key %s: %w", key, err), h.log)
	}
	return ctx.JSON(http.StatusOK, KeyResponse{Key: key, Value: v, Version: s.Version()})
}
