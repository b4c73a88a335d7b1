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

// Package api is the agent REST API.
//
//	GET /health           liveness
//	GET /v1/status        stage, round and period of the primary agent
//	GET /v1/store         latest committed snapshot
//	GET /v1/store/:key    one value of the latest snapshot
//	GET /metrics          prometheus exposition
package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/aytunc-tunay/ETHGlobal-Trifecta/ledger"
	"github.com/aytunc-tunay/ETHGlobal-Trifecta/logging"
	"github.com/aytunc-tunay/ETHGlobal-Trifecta/node"
)

const apiV1Tag = "/v1"

// NodeInterface is the part of a node the API reads.
type NodeInterface interface {
	Status() node.StatusReport
	Snapshot() ledger.Snapshot
	Gatherer() prometheus.Gatherer
}

// ConfigureRouter registers the API routes of n on e.
func ConfigureRouter(logger logging.Logger, n NodeInterface, e *echo.Echo) {
	e.Use(MakeLogger(logger))

	h := handlers{node: n, log: logger}
	e.GET("/health", h.health)
	e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(n.Gatherer(), promhttp.HandlerOpts{})))

	v1 := e.Group(apiV1Tag)
	v1.GET("/status", h.status)
	v1.GET("/store", h.store)
	v1.GET("/store/:key", h.storeKey)
}

// NewRouter returns an echo instance serving the API of n.
func NewRouter(logger logging.Logger, n NodeInterface) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	ConfigureRouter(logger, n, e)
	return e
}

// Serve runs the API of n on addr until the server is shut down.
func Serve(e *echo.Echo, addr string) error {
	err := e.Start(addr)
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}
