// Copyright (c) 2018 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
	cli "gopkg.in/urfave/cli.v1"

	"github.com/vechain/stakeledger/api"
	"github.com/vechain/stakeledger/genesis"
	"github.com/vechain/stakeledger/log"
	"github.com/vechain/stakeledger/metrics"
	"github.com/vechain/stakeledger/state"
)

var serveCommand = cli.Command{
	Name:  "serve",
	Usage: "serve the read-only REST API of the ledger",
	Flags: []cli.Flag{
		apiAddrFlag,
		apiCorsFlag,
		apiLogsLimitFlag,
		enableAPILogsFlag,
		enableMetricsFlag,
		metricsAddrFlag,
	},
	Action: serveAction,
}

func serveAction(ctx *cli.Context) error {
	defer func() { log.Info("exited") }()
	initLogger(ctx)

	db, err := openLedgerDB(ctx)
	if err != nil {
		return err
	}
	defer func() { log.Info("closing databases..."); db.Close() }()

	if !genesis.IsBuilt(state.New(db.main)) {
		return errors.New("ledger not initialized, run init first")
	}

	enableMetrics := ctx.Bool(enableMetricsFlag.Name)
	if enableMetrics {
		metrics.InitializePrometheusMetrics()
	}

	handler, closeSubs := api.New(state.NewStater(db.main), db.logDB, api.Options{
		AllowedOrigins:  ctx.String(apiCorsFlag.Name),
		EnableReqLogger: ctx.Bool(enableAPILogsFlag.Name),
		EnableMetrics:   enableMetrics,
		LogsLimit:       ctx.Uint64(apiLogsLimitFlag.Name),
	})
	defer closeSubs()

	exitSignal := handleExitSignal()
	group, groupCtx := errgroup.WithContext(exitSignal)

	apiURL, err := serveHTTP(groupCtx, group, ctx.String(apiAddrFlag.Name), handler)
	if err != nil {
		return errors.Wrap(err, "start API server")
	}
	metricsURL := "disabled"
	if enableMetrics {
		router := mux.NewRouter()
		router.PathPrefix("/metrics").Handler(metrics.HTTPHandler())
		if metricsURL, err = serveHTTP(groupCtx, group, ctx.String(metricsAddrFlag.Name), handlers.CompressHandler(router)); err != nil {
			return errors.Wrap(err, "start metrics server")
		}
		metricsURL += "metrics"
	}

	fmt.Printf(`Serving stake ledger
    Data dir     [ %v ]
    API portal   [ %v ]
    Metrics      [ %v ]
`, ctx.GlobalString(dataDirFlag.Name), apiURL, metricsURL)

	return group.Wait()
}

// serveHTTP serves handler on addr until ctx is done. Serving errors are reported through group.
func serveHTTP(ctx context.Context, group *errgroup.Group, addr string, handler http.Handler) (string, error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return "", errors.Wrapf(err, "listen [%v]", addr)
	}
	srv := &http.Server{Handler: handler, ReadHeaderTimeout: time.Second, ReadTimeout: 5 * time.Second}

	group.Go(func() error {
		if err := srv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-ctx.Done()
		log.Info("stopping server...", "addr", listener.Addr())
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return "http://" + listener.Addr().String() + "/", nil
}
