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
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/aytunc-tunay/ETHGlobal-Trifecta/logging"
)

// loggerMiddleware provides some extra state to the logger middleware
type loggerMiddleware struct {
	log logging.Logger
}

// MakeLogger initializes the logger middleware function
func MakeLogger(log logging.Logger) echo.MiddlewareFunc {
	logger := loggerMiddleware{
		log: log,
	}

	return logger.handler
}

// handler logs every request in the common log format.
func (logger *loggerMiddleware) handler(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) (err error) {
		start := time.Now()

		res := ctx.Response()
		req := ctx.Request()

		// Propagate the error if the next middleware has a problem
		if err = next(ctx); err != nil {
			ctx.Error(err)
		}

		logger.log.Infof("%s - - [%v] \"%s %s %s\" %d %s \"%s\" %s",
			req.RemoteAddr,
			start,
			req.Method,
			req.RequestURI,
			req.Proto,
			res.Status,
			strconv.FormatInt(res.Size, 10),
			req.UserAgent(),
			time.Since(start),
		)

		return
	}
}
