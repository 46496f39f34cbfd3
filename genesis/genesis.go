// Copyright (c) 2018 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package genesis

import (
	"github.com/holiman/uint256"
	"github.com/pkg/errors"

	"github.com/vechain/stakeledger/builtin"
	"github.com/vechain/stakeledger/builtin/staking/access"
	"github.com/vechain/stakeledger/config"
	"github.com/vechain/stakeledger/ledger"
	"github.com/vechain/stakeledger/log"
	"github.com/vechain/stakeledger/state"
)

var logger = log.WithContext("pkg", "genesis")

// Genesis to build the initial ledger state.
type Genesis struct {
	builder *Builder
	cfg     *config.Config
}

// New create a genesis from cfg.
func New(cfg *config.Config) (*Genesis, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.GenesisTime == 0 {
		return nil, errors.New("genesis-time must be set")
	}

	supplierAddr := cfg.RewardSupplier
	if supplierAddr.IsZero() {
		supplierAddr = builtin.RewardSupplier.Address
	}

	builder := new(Builder).
		Timestamp(cfg.GenesisTime).
		State(func(st *state.State) error {
			if IsBuilt(st) {
				return errors.New("ledger already initialized")
			}
			p := builtin.Params.WithState(st)
			p.Set(ledger.KeyMinStake, cfg.MinStake.Value())
			p.Set(ledger.KeyExitWaitWindow, uint256.NewInt(cfg.ExitWaitWindow))
			p.SetAddress(ledger.KeyRewardSupplier, supplierAddr)
			p.SetAddress(ledger.KeyPoolFactory, builtin.PoolFactory.Address)
			p.SetAddress(ledger.KeyToken, builtin.Token.Address)
			return nil
		}).
		State(func(st *state.State) error {
			tok := builtin.Token.WithState(st)
			for _, a := range cfg.Accounts {
				if err := tok.Mint(a.Address, a.Balance.Value()); err != nil {
					return errors.Wrapf(err, "allocate %v", a.Address)
				}
			}
			if funds := cfg.SupplierFunds.Value(); !funds.IsZero() {
				if err := tok.Mint(supplierAddr, funds); err != nil {
					return errors.Wrap(err, "fund reward supplier")
				}
			}
			return nil
		}).
		State(func(st *state.State) error {
			contracts := builtin.Bind(st)
			s, err := contracts.Suppliers.Supplier(supplierAddr)
			if err != nil {
				return err
			}
			s.Init(builtin.Staking.Address, cfg.RewardRate.Value(), cfg.GenesisTime)

			contracts.Staking.Initialize(cfg.GenesisTime, map[access.Role]ledger.Address{
				access.SecurityAdmin: cfg.Roles.SecurityAdmin,
				access.SecurityAgent: cfg.Roles.SecurityAgent,
				access.AppGovernor:   cfg.Roles.AppGovernor,
			})
			return nil
		})

	return &Genesis{builder, cfg}, nil
}

// Timestamp returns the time rewards start to accrue from.
func (g *Genesis) Timestamp() uint64 {
	return g.builder.timestamp
}

// Build seeds st and returns the builtin contracts bound to it. The caller commits st.
func (g *Genesis) Build(st *state.State) (*builtin.Contracts, error) {
	if err := g.builder.Build(st); err != nil {
		return nil, err
	}
	logger.Info("ledger initialized",
		"time", g.cfg.GenesisTime,
		"minStake", g.cfg.MinStake.Value(),
		"accounts", len(g.cfg.Accounts),
	)
	return builtin.Bind(st), nil
}

// IsBuilt reports whether st already holds an initialized ledger.
func IsBuilt(st *state.State) bool {
	_, last, err := builtin.Staking.WithState(st).GlobalIndex()
	return err == nil && last != 0
}
