// Copyright (c) 2018 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package genesis_test

import (
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/stakeledger/builtin"
	"github.com/vechain/stakeledger/builtin/staking/access"
	"github.com/vechain/stakeledger/config"
	"github.com/vechain/stakeledger/genesis"
	"github.com/vechain/stakeledger/ledger"
	"github.com/vechain/stakeledger/lvldb"
	"github.com/vechain/stakeledger/state"
)

var (
	admin    = ledger.BytesToAddress([]byte("admin"))
	agent    = ledger.BytesToAddress([]byte("agent"))
	governor = ledger.BytesToAddress([]byte("governor"))
	alice    = ledger.BytesToAddress([]byte("alice"))
)

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.GenesisTime = 1_000_000
	cfg.Roles = config.Roles{SecurityAdmin: admin, SecurityAgent: agent, AppGovernor: governor}
	cfg.Accounts = []config.Account{{Address: alice, Balance: config.NewAmount(50_000)}}
	return cfg
}

func TestBuild(t *testing.T) {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	defer db.Close()
	st := state.New(db)

	cfg := testConfig()
	gen, err := genesis.New(cfg)
	require.NoError(t, err)
	assert.Equal(t, uint64(1_000_000), gen.Timestamp())

	assert.False(t, genesis.IsBuilt(st))
	contracts, err := gen.Build(st)
	require.NoError(t, err)
	assert.True(t, genesis.IsBuilt(st))

	params, err := contracts.Staking.ContractParameters()
	require.NoError(t, err)
	assert.Equal(t, cfg.MinStake.Value(), params.MinStake)
	assert.Equal(t, ledger.DefaultExitWaitWindow, params.ExitWaitWindow)
	assert.Equal(t, builtin.RewardSupplier.Address, params.RewardSupplier)
	assert.Equal(t, builtin.PoolFactory.Address, params.PoolFactory)
	assert.Equal(t, builtin.Token.Address, params.Token)
	assert.Equal(t, uint64(1_000_000), params.LastIndexUpdate)
	assert.True(t, params.GlobalIndex.IsZero())

	for role, holder := range map[access.Role]ledger.Address{
		access.SecurityAdmin: admin,
		access.SecurityAgent: agent,
		access.AppGovernor:   governor,
	} {
		got, err := contracts.Staking.RoleHolder(role)
		require.NoError(t, err)
		assert.Equal(t, holder, got, role.String())
	}

	balance, err := contracts.Token.BalanceOf(alice)
	require.NoError(t, err)
	assert.Equal(t, uint256.NewInt(50_000), balance)

	funds, err := contracts.Token.BalanceOf(builtin.RewardSupplier.Address)
	require.NoError(t, err)
	assert.Equal(t, cfg.SupplierFunds.Value(), funds)

	s, err := contracts.Suppliers.Supplier(builtin.RewardSupplier.Address)
	require.NoError(t, err)
	rate, err := s.Rate()
	require.NoError(t, err)
	assert.Equal(t, cfg.RewardRate.Value(), rate)

	// persisted state is visible to a fresh state object
	require.NoError(t, st.Stage().Commit())
	assert.True(t, genesis.IsBuilt(state.New(db)))

	_, err = gen.Build(st)
	assert.ErrorContains(t, err, "already initialized")
}

func TestBuild_CustomSupplier(t *testing.T) {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	defer db.Close()
	st := state.New(db)

	supplierAddr := ledger.BytesToAddress([]byte("custom-supplier"))
	cfg := testConfig()
	cfg.RewardSupplier = supplierAddr

	gen, err := genesis.New(cfg)
	require.NoError(t, err)
	contracts, err := gen.Build(st)
	require.NoError(t, err)

	params, err := contracts.Staking.ContractParameters()
	require.NoError(t, err)
	assert.Equal(t, supplierAddr, params.RewardSupplier)

	funds, err := contracts.Token.BalanceOf(supplierAddr)
	require.NoError(t, err)
	assert.Equal(t, cfg.SupplierFunds.Value(), funds)
}

func TestNew_Invalid(t *testing.T) {
	cfg := testConfig()
	cfg.GenesisTime = 0
	_, err := genesis.New(cfg)
	assert.ErrorContains(t, err, "genesis-time")

	cfg = testConfig()
	cfg.Roles.SecurityAdmin = ledger.Address{}
	_, err = genesis.New(cfg)
	assert.ErrorContains(t, err, "security-admin")
}
