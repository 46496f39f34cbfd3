// Copyright (c) 2018 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"os/user"
	"path/filepath"
	"runtime"
	"syscall"
	"time"

	"github.com/holiman/uint256"
	"github.com/mattn/go-isatty"
	"github.com/pkg/errors"
	cli "gopkg.in/urfave/cli.v1"

	"github.com/vechain/stakeledger/builtin"
	"github.com/vechain/stakeledger/genesis"
	"github.com/vechain/stakeledger/ledger"
	"github.com/vechain/stakeledger/log"
	"github.com/vechain/stakeledger/logdb"
	"github.com/vechain/stakeledger/lvldb"
	"github.com/vechain/stakeledger/state"
	"github.com/vechain/stakeledger/xenv"
)

func initLogger(ctx *cli.Context) {
	lvl := log.FromLegacyLevel(int(ctx.GlobalUint64(verbosityFlag.Name)))
	level := new(slog.LevelVar)
	level.Set(lvl)

	var handler slog.Handler
	if ctx.GlobalBool(jsonLogsFlag.Name) {
		handler = log.JSONHandlerWithLevel(os.Stderr, level)
	} else {
		useColor := (isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd())) &&
			os.Getenv("TERM") != "dumb"
		handler = log.NewTerminalHandlerWithLevel(os.Stderr, level, useColor)
	}
	log.SetDefault(log.NewLogger(handler))
}

func defaultDataDir() string {
	if home := homeDir(); home != "" {
		if runtime.GOOS == "darwin" {
			return filepath.Join(home, "Library", "Application Support", "org.vechain.stakeledger")
		}
		return filepath.Join(home, ".org.vechain.stakeledger")
	}
	return ""
}

func homeDir() string {
	if home := os.Getenv("HOME"); home != "" {
		return home
	}
	if usr, err := user.Current(); err == nil {
		return usr.HomeDir
	}
	return ""
}

func makeDataDir(ctx *cli.Context) (string, error) {
	dataDir := ctx.GlobalString(dataDirFlag.Name)
	if dataDir == "" {
		return "", fmt.Errorf("unable to infer default data dir, use -%s to specify", dataDirFlag.Name)
	}
	if err := os.MkdirAll(dataDir, 0o700); err != nil {
		return "", errors.Wrapf(err, "create data dir [%v]", dataDir)
	}
	return dataDir, nil
}

// ledgerDB holds the databases of a ledger instance.
type ledgerDB struct {
	main  *lvldb.LevelDB
	logDB *logdb.LogDB
}

func openLedgerDB(ctx *cli.Context) (*ledgerDB, error) {
	dataDir, err := makeDataDir(ctx)
	if err != nil {
		return nil, err
	}

	dir := filepath.Join(dataDir, "main.db")
	main, err := lvldb.New(dir, lvldb.Options{})
	if err != nil {
		return nil, errors.Wrapf(err, "open main database [%v]", dir)
	}

	dir = filepath.Join(dataDir, "events.db")
	logDB, err := logdb.New(dir)
	if err != nil {
		main.Close()
		return nil, errors.Wrapf(err, "open event database [%v]", dir)
	}
	return &ledgerDB{main: main, logDB: logDB}, nil
}

func (db *ledgerDB) Close() {
	if err := db.logDB.Close(); err != nil {
		log.Warn("failed to close event database", "err", err)
	}
	if err := db.main.Close(); err != nil {
		log.Warn("failed to close main database", "err", err)
	}
}

// bind returns the builtin contracts over a fresh state of the ledger, with
// staking events going to the event database.
func (db *ledgerDB) bind() (*state.State, *builtin.Contracts, error) {
	st := state.New(db.main)
	if !genesis.IsBuilt(st) {
		return nil, nil, errors.New("ledger not initialized, run init first")
	}
	contracts := builtin.Bind(st)
	contracts.Staking.SetEventSink(db.logDB)
	return st, contracts, nil
}

// txFunc executes one operation. The returned value is printed on success.
type txFunc func(ctx *cli.Context, c *builtin.Contracts, env *xenv.Environment) (any, error)

// txAction wraps fn into a command action which executes fn in a new block and commits the result.
func txAction(fn txFunc) func(ctx *cli.Context) error {
	return func(ctx *cli.Context) error {
		initLogger(ctx)

		caller, err := parseAddressFlag(ctx, callerFlag.Name)
		if err != nil {
			return err
		}

		db, err := openLedgerDB(ctx)
		if err != nil {
			return err
		}
		defer db.Close()

		st, contracts, err := db.bind()
		if err != nil {
			return err
		}
		last, err := loadHead(st)
		if err != nil {
			return err
		}
		now := ctx.Uint64(timeFlag.Name)
		if now == 0 {
			now = uint64(time.Now().Unix())
		}
		h, err := last.next(now)
		if err != nil {
			return err
		}

		env := xenv.New(&xenv.BlockContext{Number: h.Number, Time: h.Time}, caller)
		result, err := fn(ctx, contracts, env)
		if err != nil {
			return err
		}

		if err := saveHead(st, h); err != nil {
			return err
		}
		stage := st.Stage()
		if err := stage.Commit(); err != nil {
			return errors.Wrap(err, "commit state")
		}
		log.Debug("operation committed", "cmd", ctx.Command.Name, "block", h.Number, "time", h.Time, "changes", stage.Len())

		if result != nil {
			fmt.Fprintln(out, formatResult(result))
		}
		return nil
	}
}

func formatResult(v any) string {
	switch v := v.(type) {
	case *uint256.Int:
		return v.Dec()
	case uint64:
		return fmt.Sprintf("%v (%v)", v, formatTime(v))
	default:
		return fmt.Sprint(v)
	}
}

func parseAddressFlag(ctx *cli.Context, name string) (ledger.Address, error) {
	value := ctx.String(name)
	if value == "" {
		return ledger.Address{}, fmt.Errorf("-%v is required", name)
	}
	addr, err := ledger.ParseAddress(value)
	if err != nil {
		return ledger.Address{}, errors.Wrapf(err, "-%v", name)
	}
	return addr, nil
}

func parseAmountFlag(ctx *cli.Context, name string) (*uint256.Int, error) {
	value := ctx.String(name)
	if value == "" {
		return nil, fmt.Errorf("-%v is required", name)
	}
	amount, err := uint256.FromDecimal(value)
	if err != nil {
		return nil, errors.Wrapf(err, "-%v", name)
	}
	return amount, nil
}

func commissionFromFlag(ctx *cli.Context) (uint16, error) {
	c := ctx.Uint(commissionFlag.Name)
	if c > uint(ledger.CommissionDenominator) {
		return 0, fmt.Errorf("-%v exceeds %v", commissionFlag.Name, ledger.CommissionDenominator)
	}
	return uint16(c), nil
}

func handleExitSignal() context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		exitSignalCh := make(chan os.Signal, 1)
		signal.Notify(exitSignalCh, os.Interrupt, syscall.SIGTERM)

		sig := <-exitSignalCh
		log.Info("exit signal received", "signal", sig)
		cancel()
	}()
	return ctx
}
