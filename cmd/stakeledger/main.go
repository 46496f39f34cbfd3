// Copyright (c) 2018 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// stakeledger keeps a stake-accounting ledger on local disk and serves it over HTTP.
package main

import (
	"fmt"
	"os"

	"github.com/pkg/errors"
	cli "gopkg.in/urfave/cli.v1"

	"github.com/vechain/stakeledger/config"
	"github.com/vechain/stakeledger/genesis"
	"github.com/vechain/stakeledger/log"
	"github.com/vechain/stakeledger/state"
)

var (
	version   string
	gitCommit string
	gitTag    string
)

func fullVersion() string {
	versionMeta := "release"
	if gitTag == "" {
		versionMeta = "dev"
	}
	return fmt.Sprintf("%s-%s-%s", version, gitCommit, versionMeta)
}

func newApp() *cli.App {
	app := cli.NewApp()
	app.Version = fullVersion()
	app.Name = "stakeledger"
	app.Usage = "Stake accounting ledger with delegation pools"
	app.Copyright = "2025 VeChain Foundation <https://vechain.org/>"
	app.Flags = globalFlags

	commands := []cli.Command{
		{
			Name:   "init",
			Usage:  "create the ledger from a config file",
			Flags:  []cli.Flag{configFlag},
			Action: initAction,
		},
	}
	commands = append(commands, stakerCommands...)
	commands = append(commands, adminCommands...)
	commands = append(commands, poolCommand, infoCommand, serveCommand)
	app.Commands = commands
	return app
}

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func initAction(ctx *cli.Context) error {
	initLogger(ctx)

	path := ctx.String(configFlag.Name)
	if path == "" {
		return fmt.Errorf("-%v is required", configFlag.Name)
	}
	cfg, err := config.Load(path)
	if err != nil {
		return err
	}
	gen, err := genesis.New(cfg)
	if err != nil {
		return err
	}

	db, err := openLedgerDB(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	st := state.New(db.main)
	contracts, err := gen.Build(st)
	if err != nil {
		return errors.Wrap(err, "build ledger")
	}
	if err := saveHead(st, &head{Time: gen.Timestamp()}); err != nil {
		return err
	}
	if err := st.Stage().Commit(); err != nil {
		return errors.Wrap(err, "commit state")
	}

	params, err := contracts.Staking.ContractParameters()
	if err != nil {
		return err
	}
	log.Info("ledger created", "genesis", gen.Timestamp(), "accounts", len(cfg.Accounts))
	fmt.Fprintf(out, `Ledger created
    Data dir         [ %v ]
    Genesis time     [ %v ]
    Min stake        [ %v ]
    Reward supplier  [ %v ]
`, ctx.GlobalString(dataDirFlag.Name), formatTime(gen.Timestamp()), params.MinStake.Dec(), params.RewardSupplier)
	return nil
}
