// Copyright (c) 2018 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	cli "gopkg.in/urfave/cli.v1"

	"github.com/vechain/stakeledger/log"
)

var (
	dataDirFlag = cli.StringFlag{
		Name:   "data-dir",
		Value:  defaultDataDir(),
		Usage:  "directory for ledger databases",
		EnvVar: "STAKELEDGER_DATA_DIR",
	}
	configFlag = cli.StringFlag{
		Name:   "config",
		Usage:  "path to the yaml file the ledger is created from",
		EnvVar: "STAKELEDGER_CONFIG",
	}
	verbosityFlag = cli.Uint64Flag{
		Name:   "verbosity",
		Value:  log.LegacyLevelWarn,
		Usage:  "log verbosity (0-9)",
		EnvVar: "STAKELEDGER_VERBOSITY",
	}
	jsonLogsFlag = cli.BoolFlag{
		Name:   "json-logs",
		Usage:  "output logs in JSON format",
		EnvVar: "STAKELEDGER_JSON_LOGS",
	}

	// block context of an operation
	callerFlag = cli.StringFlag{
		Name:   "caller",
		Usage:  "address the operation is sent from",
		EnvVar: "STAKELEDGER_CALLER",
	}
	timeFlag = cli.Uint64Flag{
		Name:  "time",
		Usage: "unix time the operation executes at (defaults to now)",
	}

	amountFlag = cli.StringFlag{
		Name:  "amount",
		Usage: "token amount as a decimal integer",
	}
	stakerFlag = cli.StringFlag{
		Name:  "staker",
		Usage: "staker address",
	}
	addressFlag = cli.StringFlag{
		Name:  "address",
		Usage: "target address",
	}
	rewardAddressFlag = cli.StringFlag{
		Name:  "reward-address",
		Usage: "address rewards and unstaked tokens are paid to",
	}
	operationalFlag = cli.StringFlag{
		Name:  "operational",
		Usage: "operational address of the staker",
	}
	withPoolFlag = cli.BoolFlag{
		Name:  "with-pool",
		Usage: "open a delegation pool together with the stake",
	}
	commissionFlag = cli.UintFlag{
		Name:  "commission",
		Usage: "pool commission in parts per 10000",
	}
	poolFlag = cli.StringFlag{
		Name:  "pool",
		Usage: "delegation pool address",
	}
	toPoolFlag = cli.StringFlag{
		Name:  "to-pool",
		Usage: "delegation pool the stake moves to",
	}
	memberFlag = cli.StringFlag{
		Name:  "member",
		Usage: "pool member address",
	}
	windowFlag = cli.Uint64Flag{
		Name:  "window",
		Usage: "exit wait window in seconds",
	}
	rawFlag = cli.BoolFlag{
		Name:  "raw",
		Usage: "dump the raw stored values",
	}

	// events query
	eventNameFlag = cli.StringFlag{
		Name:  "name",
		Usage: "event name to filter by",
	}
	limitFlag = cli.Uint64Flag{
		Name:  "limit",
		Value: 100,
		Usage: "maximum number of events to print",
	}

	// serve
	apiAddrFlag = cli.StringFlag{
		Name:   "api-addr",
		Value:  "localhost:8669",
		Usage:  "API service listening address",
		EnvVar: "STAKELEDGER_API_ADDR",
	}
	apiCorsFlag = cli.StringFlag{
		Name:   "api-cors",
		Usage:  "comma separated list of domains from which to accept cross origin requests to API",
		EnvVar: "STAKELEDGER_API_CORS",
	}
	apiLogsLimitFlag = cli.Uint64Flag{
		Name:  "api-logs-limit",
		Value: 1000,
		Usage: "limit the number of events returned by /events API",
	}
	enableAPILogsFlag = cli.BoolFlag{
		Name:  "enable-api-logs",
		Usage: "enables API requests logging",
	}
	enableMetricsFlag = cli.BoolFlag{
		Name:   "enable-metrics",
		Usage:  "enables metrics collection",
		EnvVar: "STAKELEDGER_ENABLE_METRICS",
	}
	metricsAddrFlag = cli.StringFlag{
		Name:  "metrics-addr",
		Value: "localhost:2112",
		Usage: "metrics service listening address",
	}
)

// globalFlags are accepted by every command.
var globalFlags = []cli.Flag{
	dataDirFlag,
	verbosityFlag,
	jsonLogsFlag,
}

// txFlags are accepted by every command that changes the ledger.
func txFlags(extra ...cli.Flag) []cli.Flag {
	return append([]cli.Flag{callerFlag, timeFlag}, extra...)
}
