// Copyright (c) 2018 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package builtin_test

import (
	"context"
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/stakeledger/builtin"
	"github.com/vechain/stakeledger/builtin/pools"
	"github.com/vechain/stakeledger/builtin/staking"
	"github.com/vechain/stakeledger/config"
	"github.com/vechain/stakeledger/genesis"
	"github.com/vechain/stakeledger/ledger"
	"github.com/vechain/stakeledger/logdb"
	"github.com/vechain/stakeledger/lvldb"
	"github.com/vechain/stakeledger/state"
	"github.com/vechain/stakeledger/xenv"
)

const (
	genesisTime = 1_000_000
	rate        = 1_000_000
	window      = ledger.DefaultExitWaitWindow
)

var (
	alice = ledger.BytesToAddress([]byte("alice"))
	bob   = ledger.BytesToAddress([]byte("bob"))
	dave  = ledger.BytesToAddress([]byte("dave"))
)

type testChain struct {
	t         *testing.T
	contracts *builtin.Contracts
	events    *logdb.LogDB
	now       uint64
}

func newTestChain(t *testing.T) *testChain {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	cfg := config.Default()
	cfg.GenesisTime = genesisTime
	cfg.MinStake = config.NewAmount(20_000)
	cfg.RewardRate = config.NewAmount(rate)
	cfg.Roles = config.Roles{
		SecurityAdmin: ledger.BytesToAddress([]byte("admin")),
		SecurityAgent: ledger.BytesToAddress([]byte("agent")),
		AppGovernor:   ledger.BytesToAddress([]byte("governor")),
	}
	for _, a := range []ledger.Address{alice, bob, dave} {
		cfg.Accounts = append(cfg.Accounts, config.Account{Address: a, Balance: config.NewAmount(200_000)})
	}

	gen, err := genesis.New(cfg)
	require.NoError(t, err)
	contracts, err := gen.Build(state.New(db))
	require.NoError(t, err)

	events, err := logdb.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { events.Close() })
	contracts.Staking.SetEventSink(events)

	return &testChain{t: t, contracts: contracts, events: events, now: genesisTime}
}

func (c *testChain) env(caller ledger.Address) *xenv.Environment {
	return xenv.New(&xenv.BlockContext{Number: uint32((c.now - genesisTime) / 10), Time: c.now}, caller)
}

func (c *testChain) balance(addr ledger.Address) *uint256.Int {
	b, err := c.contracts.Token.BalanceOf(addr)
	require.NoError(c.t, err)
	return b
}

func (c *testChain) approve(owner, spender ledger.Address, amount uint64) {
	require.NoError(c.t, c.contracts.Token.Approve(c.env(owner), spender, uint256.NewInt(amount)))
}

func (c *testChain) stakeWithPool(staker ledger.Address, amount uint64, commission uint16) *pools.Pool {
	c.approve(staker, builtin.Staking.Address, amount)
	operational := ledger.BytesToAddress(append([]byte("op-"), staker.Bytes()[16:]...))
	require.NoError(c.t, c.contracts.Staking.Stake(c.env(staker), staker, operational, uint256.NewInt(amount), true, commission))

	info, err := c.contracts.Staking.StakerInfo(staker)
	require.NoError(c.t, err)
	require.NotNil(c.t, info.PoolInfo)
	pool, err := c.contracts.Pools.Pool(info.PoolInfo.PoolContract)
	require.NoError(c.t, err)
	return pool
}

func (c *testChain) totalStake() *uint256.Int {
	total, err := c.contracts.Staking.TotalStake()
	require.NoError(c.t, err)
	return total
}

func u(v uint64) *uint256.Int { return uint256.NewInt(v) }

func TestPoolLifecycle(t *testing.T) {
	c := newTestChain(t)

	alicePool := c.stakeWithPool(alice, 100_000, 1000)
	bobPool := c.stakeWithPool(bob, 100_000, 0)

	staker, err := c.contracts.Pools.StakerOf(alicePool.Address())
	require.NoError(t, err)
	assert.Equal(t, alice, staker)

	c.approve(dave, alicePool.Address(), 100_000)
	require.NoError(t, alicePool.Enter(c.env(dave), u(100_000)))
	assert.Equal(t, u(300_000), c.totalStake())
	assert.Equal(t, u(100_000), c.balance(dave))

	// one index update: 60*rate over 300000 stake
	c.now += 60

	claimed, err := alicePool.ClaimRewards(c.env(dave))
	require.NoError(t, err)
	assert.Equal(t, u(18*rate), claimed, "pool share net of 10% commission")

	claimed, err = c.contracts.Staking.ClaimRewards(c.env(alice), alice)
	require.NoError(t, err)
	assert.Equal(t, u(22*rate), claimed, "own rewards plus commission")

	claimed, err = c.contracts.Staking.ClaimRewards(c.env(bob), bob)
	require.NoError(t, err)
	assert.Equal(t, u(20*rate), claimed)

	// exit intent then switch most of it into bob's pool
	unpoolTime, err := alicePool.ExitIntent(c.env(dave), u(500))
	require.NoError(t, err)
	assert.Equal(t, c.now+window, unpoolTime)
	assert.Equal(t, u(299_500), c.totalStake())

	require.NoError(t, alicePool.Switch(c.env(dave), bobPool.Address(), u(300)))
	assert.Equal(t, u(299_800), c.totalStake())

	intent, err := c.contracts.Staking.PoolExitIntent(alicePool.Address(), pools.Identifier(dave))
	require.NoError(t, err)
	assert.Equal(t, u(200), intent.Amount)

	bobInfo, err := c.contracts.Staking.StakerInfo(bob)
	require.NoError(t, err)
	assert.Equal(t, u(300), bobInfo.PoolAmount())

	member, err := bobPool.Member(dave)
	require.NoError(t, err)
	assert.Equal(t, u(300), member.Amount)

	member, err = alicePool.Member(dave)
	require.NoError(t, err)
	assert.Equal(t, u(99_500), member.Amount)
	assert.Equal(t, u(200), member.Pending)

	_, err = alicePool.ExitAction(c.env(dave))
	assert.ErrorIs(t, err, staking.ErrIntentWindowNotFinished)

	c.now += window
	paid, err := alicePool.ExitAction(c.env(dave))
	require.NoError(t, err)
	assert.Equal(t, u(200), paid)
	assert.Equal(t, u(100_000+18*rate+200), c.balance(dave))

	// staker exit finalizes the pool
	_, err = c.contracts.Staking.UnstakeIntent(c.env(alice))
	require.NoError(t, err)
	c.now += window
	_, err = c.contracts.Staking.UnstakeAction(c.env(alice), alice)
	require.NoError(t, err)

	_, finalized, err := alicePool.FinalStakerIndex()
	require.NoError(t, err)
	assert.True(t, finalized)

	err = alicePool.Enter(c.env(dave), u(1))
	assert.ErrorIs(t, err, pools.ErrPoolFinalized)

	before := c.balance(dave)
	withdrawn, err := alicePool.Withdraw(c.env(dave))
	require.NoError(t, err)
	assert.True(t, withdrawn.Gt(u(99_500)), "principal plus rewards")
	assert.Equal(t, new(uint256.Int).Add(before, withdrawn), c.balance(dave))
	assert.True(t, c.balance(alicePool.Address()).Lt(u(10)), "only rounding dust stays in the pool")

	// only bob's position is left in the staking contract
	assert.Equal(t, u(100_300), c.balance(builtin.Staking.Address))
	assert.Equal(t, u(100_300), c.totalStake())

	info, err := c.contracts.Staking.StakerInfo(alice)
	require.NoError(t, err)
	assert.Nil(t, info)
}

func TestEventsPersisted(t *testing.T) {
	c := newTestChain(t)
	c.stakeWithPool(alice, 100_000, 1000)
	c.stakeWithPool(bob, 100_000, 0)

	name := staking.EventNewDelegationPool
	events, err := c.events.FilterEvents(context.Background(), &logdb.EventFilter{
		CriteriaSet: []*logdb.EventCriteria{{Name: &name}},
	})
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, alice, events[0].Subject)
	assert.Equal(t, bob, events[1].Subject)

	// a reverted operation stores nothing
	all, err := c.events.FilterEvents(context.Background(), nil)
	require.NoError(t, err)
	err = c.contracts.Staking.Stake(c.env(alice), alice, alice, u(100_000), false, 0)
	assert.ErrorIs(t, err, staking.ErrStakerExists)

	after, err := c.events.FilterEvents(context.Background(), nil)
	require.NoError(t, err)
	assert.Len(t, after, len(all))
}

func TestFailedPoolOperationStoresNoEvents(t *testing.T) {
	c := newTestChain(t)
	alicePool := c.stakeWithPool(alice, 100_000, 1000)
	c.approve(dave, alicePool.Address(), 50_000)
	require.NoError(t, alicePool.Enter(c.env(dave), u(50_000)))

	ctx := context.Background()
	before, err := c.events.FilterEvents(ctx, nil)
	require.NoError(t, err)

	// the index is due: the pool claims from staking before it finds the amount too high
	c.now += 60
	_, err = alicePool.ExitIntent(c.env(dave), u(50_001))
	assert.ErrorIs(t, err, pools.ErrAmountTooHigh)

	// transfer from fails after the pool claimed its rewards
	err = alicePool.Enter(c.env(dave), u(1))
	assert.Error(t, err)

	after, err := c.events.FilterEvents(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, after, len(before))

	index, _, err := c.contracts.Staking.GlobalIndex()
	require.NoError(t, err)
	assert.True(t, index.IsZero(), "index update reverted with the pool operation")

	// the same claim succeeds on its own and stores its events together
	_, err = alicePool.ClaimRewards(c.env(dave))
	require.NoError(t, err)

	after, err = c.events.FilterEvents(ctx, nil)
	require.NoError(t, err)
	var names []string
	for _, ev := range after[len(before):] {
		names = append(names, ev.Name)
	}
	assert.Contains(t, names, staking.EventGlobalIndexUpdated)
	assert.Contains(t, names, staking.EventRewardsSuppliedToDelegationPool)
}

func TestConservation(t *testing.T) {
	c := newTestChain(t)
	supply, err := c.contracts.Token.TotalSupply()
	require.NoError(t, err)

	alicePool := c.stakeWithPool(alice, 100_000, 2500)
	c.approve(dave, alicePool.Address(), 50_000)
	require.NoError(t, alicePool.Enter(c.env(dave), u(50_000)))

	for range 5 {
		c.now += 600
		_, err := alicePool.ClaimRewards(c.env(dave))
		require.NoError(t, err)
		_, err = c.contracts.Staking.ClaimRewards(c.env(alice), alice)
		require.NoError(t, err)
	}

	sum := new(uint256.Int)
	for _, addr := range []ledger.Address{
		alice, bob, dave,
		alicePool.Address(),
		builtin.Staking.Address,
		builtin.RewardSupplier.Address,
	} {
		sum.Add(sum, c.balance(addr))
	}
	assert.Equal(t, supply, sum)

	// supplier emitted exactly what the ledger paid out, up to what is still pending
	s, err := c.contracts.Suppliers.Supplier(builtin.RewardSupplier.Address)
	require.NoError(t, err)
	unclaimed, err := s.Unclaimed()
	require.NoError(t, err)
	paid := new(uint256.Int).Sub(supply, c.balance(builtin.RewardSupplier.Address))
	paid.Sub(paid, u(3*200_000))
	emitted := u(5 * 600 * rate)
	assert.Equal(t, emitted, new(uint256.Int).Add(paid, unclaimed))
}
