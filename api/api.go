// Copyright (c) 2018 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"github.com/vechain/stakeledger/api/events"
	"github.com/vechain/stakeledger/api/params"
	"github.com/vechain/stakeledger/api/stakers"
	"github.com/vechain/stakeledger/api/subscriptions"
	"github.com/vechain/stakeledger/log"
	"github.com/vechain/stakeledger/logdb"
	"github.com/vechain/stakeledger/metrics"
	"github.com/vechain/stakeledger/state"
)

var logger = log.WithContext("pkg", "api")

type Options struct {
	AllowedOrigins  string
	EnableReqLogger bool
	EnableMetrics   bool
	LogsLimit       uint64
	PollInterval    time.Duration // how often subscriptions look for new events, one second if zero
}

// New return api router, and the func closing the websocket subscriptions it serves.
func New(
	stater *state.Stater,
	logDB *logdb.LogDB,
	opts Options,
) (http.HandlerFunc, func()) {
	origins := strings.Split(strings.TrimSpace(opts.AllowedOrigins), ",")
	for i, o := range origins {
		origins[i] = strings.ToLower(strings.TrimSpace(o))
	}

	router := mux.NewRouter()

	stakers.New(stater).
		Mount(router, "/stakers")
	params.New(stater).
		Mount(router)
	closeSubs := func() {}
	if logDB != nil {
		events.New(logDB, opts.LogsLimit).
			Mount(router, "/events")

		interval := opts.PollInterval
		if interval <= 0 {
			interval = time.Second
		}
		subs := subscriptions.New(logDB, origins, interval)
		subs.Mount(router, "/subscriptions")
		closeSubs = subs.Close
	}

	if opts.EnableMetrics {
		router.Use(metricsMiddleware)
		if h := metrics.HTTPHandler(); h != nil {
			router.Path("/metrics").
				Methods(http.MethodGet).
				Name("GET /metrics").
				Handler(h)
		}
	}

	handler := handlers.CompressHandler(router)
	handler = handlers.CORS(
		handlers.AllowedOrigins(origins),
		handlers.AllowedHeaders([]string{"content-type"}),
	)(handler)

	if opts.EnableReqLogger {
		handler = RequestLoggerHandler(handler, logger)
	}

	return handler.ServeHTTP, closeSubs // subscriptions hold hijacked conns the http server does not close
}
