// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staking

import (
	"fmt"
	"sync"
	"testing"

	"github.com/holiman/uint256"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/stakeledger/builtin/params"
	"github.com/vechain/stakeledger/builtin/staking/access"
	"github.com/vechain/stakeledger/builtin/supplier"
	"github.com/vechain/stakeledger/builtin/token"
	"github.com/vechain/stakeledger/ledger"
	"github.com/vechain/stakeledger/lvldb"
	"github.com/vechain/stakeledger/state"
	"github.com/vechain/stakeledger/xenv"
)

const (
	genesisTime   = 1_000_000
	minStake      = 20_000
	rewardRate    = 1_000_000
	supplierFunds = 1_000_000_000_000_000
)

var (
	stakingAddr  = ledger.BytesToAddress([]byte("staking"))
	tokenAddr    = ledger.BytesToAddress([]byte("token"))
	paramsAddr   = ledger.BytesToAddress([]byte("params"))
	supplierAddr = ledger.BytesToAddress([]byte("supplier"))

	securityAdmin = ledger.BytesToAddress([]byte("security-admin"))
	securityAgent = ledger.BytesToAddress([]byte("security-agent"))
	appGovernor   = ledger.BytesToAddress([]byte("app-governor"))
)

func addr(name string) ledger.Address {
	return ledger.BytesToAddress([]byte(name))
}

func u(v uint64) *uint256.Int {
	return uint256.NewInt(v)
}

type testLedger struct {
	t        *testing.T
	state    *state.State
	staking  *Staking
	token    *token.Token
	supplier *supplier.Supplier
	pools    *testPools
	sink     *testSink
	now      uint64
}

type testSuppliers struct {
	resolver *supplier.Resolver
}

func (s testSuppliers) Supplier(addr ledger.Address) (RewardSupplier, error) {
	sup, err := s.resolver.Supplier(addr)
	if err != nil {
		return nil, err
	}
	return sup, nil
}

func newTestLedger(t *testing.T) *testLedger {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	st := state.New(db)
	tok := token.New(tokenAddr, st)
	resolver := supplier.NewResolver(st, tok)
	p := params.New(paramsAddr, st)
	pools := newTestPools()
	sink := &testSink{}

	p.Set(ledger.KeyMinStake, u(minStake))
	p.Set(ledger.KeyExitWaitWindow, u(ledger.DefaultExitWaitWindow))
	p.SetAddress(ledger.KeyRewardSupplier, supplierAddr)
	p.SetAddress(ledger.KeyToken, tokenAddr)

	sup, err := resolver.Supplier(supplierAddr)
	require.NoError(t, err)
	require.NoError(t, tok.Mint(supplierAddr, u(supplierFunds)))
	sup.Init(stakingAddr, u(rewardRate), genesisTime)

	stk := New(stakingAddr, st, p, tok, testSuppliers{resolver}, pools)
	stk.SetEventSink(sink)
	stk.Initialize(genesisTime, map[access.Role]ledger.Address{
		access.SecurityAdmin: securityAdmin,
		access.SecurityAgent: securityAgent,
		access.AppGovernor:   appGovernor,
	})

	return &testLedger{
		t:        t,
		state:    st,
		staking:  stk,
		token:    tok,
		supplier: sup,
		pools:    pools,
		sink:     sink,
		now:      genesisTime,
	}
}

func (l *testLedger) env(caller ledger.Address) *xenv.Environment {
	return xenv.New(&xenv.BlockContext{Number: uint32((l.now - genesisTime) / 10), Time: l.now}, caller)
}

func (l *testLedger) advance(seconds uint64) {
	l.now += seconds
}

// fund mints amount to owner and lets the staking contract pull it.
func (l *testLedger) fund(owner ledger.Address, amount uint64) {
	require.NoError(l.t, l.token.Mint(owner, u(amount)))
	allowance, err := l.token.Allowance(owner, stakingAddr)
	require.NoError(l.t, err)
	require.NoError(l.t, l.token.Approve(xenv.New(nil, owner), stakingAddr, new(uint256.Int).Add(allowance, u(amount))))
}

func (l *testLedger) balance(owner ledger.Address) *uint256.Int {
	bal, err := l.token.BalanceOf(owner)
	require.NoError(l.t, err)
	return bal
}

func (l *testLedger) totalStake() *uint256.Int {
	total, err := l.staking.TotalStake()
	require.NoError(l.t, err)
	return total
}

func (l *testLedger) index() *uint256.Int {
	index, _, err := l.staking.GlobalIndex()
	require.NoError(l.t, err)
	return index
}

func (l *testLedger) stake(staker ledger.Address, amount uint64, poolEnabled bool, commission uint16) {
	l.fund(staker, amount)
	require.NoError(l.t, l.staking.Stake(l.env(staker), staker, operational(staker), u(amount), poolEnabled, commission))
}

func (l *testLedger) info(staker ledger.Address) *StakerInfoView {
	info, err := l.staking.StakerInfo(staker)
	require.NoError(l.t, err)
	if info == nil {
		return nil
	}
	return &StakerInfoView{info.AmountOwn, info.PoolAmount(), info.UnclaimedRewardsOwn, info.IsExiting()}
}

// StakerInfoView is the comparable part of a staker position.
type StakerInfoView struct {
	AmountOwn  *uint256.Int
	PoolAmount *uint256.Int
	Unclaimed  *uint256.Int
	Exiting    bool
}

func operational(staker ledger.Address) ledger.Address {
	return ledger.BytesToAddress(append([]byte("op-"), staker.Bytes()[15:]...))
}

// fundPool gives pool amount tokens and lets the staking contract pull them.
func (l *testLedger) fundPool(pool ledger.Address, amount uint64) {
	l.fund(pool, amount)
}

//
// collaborator doubles
//

type testSink struct {
	events []*Event
	err    error
}

func (s *testSink) HandleEvents(events []*Event) error {
	s.events = append(s.events, events...)
	return s.err
}

func (s *testSink) names() []string {
	names := make([]string, 0, len(s.events))
	for _, ev := range s.events {
		names = append(names, ev.Name)
	}
	return names
}

func (s *testSink) last(name string) *Event {
	for i := len(s.events) - 1; i >= 0; i-- {
		if s.events[i].Name == name {
			return s.events[i]
		}
	}
	return nil
}

type poolEntry struct {
	amount *uint256.Int
	index  *uint256.Int
	data   []byte
}

type testPool struct {
	addr       ledger.Address
	staker     ledger.Address
	commission uint16
	finalIndex *uint256.Int
	entries    []poolEntry
	fail       error
}

func (p *testPool) SetFinalStakerIndex(env *xenv.Environment, index *uint256.Int) error {
	if env.Caller() != stakingAddr {
		return errors.New("not staking")
	}
	if p.fail != nil {
		return p.fail
	}
	p.finalIndex = index.Clone()
	return nil
}

func (p *testPool) UpdateCommissionFromStakingContract(env *xenv.Environment, commission uint16) error {
	if env.Caller() != stakingAddr {
		return errors.New("not staking")
	}
	if p.fail != nil {
		return p.fail
	}
	p.commission = commission
	return nil
}

func (p *testPool) EnterDelegationPoolFromStakingContract(env *xenv.Environment, amount, index *uint256.Int, data []byte) error {
	if env.Caller() != stakingAddr {
		return errors.New("not staking")
	}
	if p.fail != nil {
		return p.fail
	}
	p.entries = append(p.entries, poolEntry{amount.Clone(), index.Clone(), data})
	return nil
}

type testPools struct {
	nonce int
	pools map[ledger.Address]*testPool
}

func newTestPools() *testPools {
	return &testPools{pools: make(map[ledger.Address]*testPool)}
}

func (f *testPools) DeployPool(env *xenv.Environment, staker, _ ledger.Address, commission uint16) (ledger.Address, error) {
	if env.Caller() != stakingAddr {
		return ledger.Address{}, errors.New("not staking")
	}
	f.nonce++
	addr := ledger.BytesToAddress([]byte(fmt.Sprintf("pool-%d", f.nonce)))
	f.pools[addr] = &testPool{addr: addr, staker: staker, commission: commission}
	return addr, nil
}

func (f *testPools) Pool(addr ledger.Address) (DelegationPool, error) {
	p, ok := f.pools[addr]
	if !ok {
		return nil, errors.New("pool not found")
	}
	return p, nil
}

func (l *testLedger) poolOf(staker ledger.Address) *testPool {
	info, err := l.staking.StakerInfo(staker)
	require.NoError(l.t, err)
	require.NotNil(l.t, info)
	require.NotNil(l.t, info.PoolInfo)
	return l.pools.pools[info.PoolInfo.PoolContract]
}

//
// sequence
//

type TestFunc func(t *testing.T)

type TestSequence struct {
	ledger *testLedger

	funcs []TestFunc
	mu    sync.Mutex
}

func NewSequence(l *testLedger) *TestSequence {
	return &TestSequence{ledger: l, funcs: make([]TestFunc, 0)}
}

func (st *TestSequence) AddFunc(f TestFunc) *TestSequence {
	st.mu.Lock()
	defer st.mu.Unlock()

	st.funcs = append(st.funcs, f)
	return st
}

func (st *TestSequence) Stake(staker ledger.Address, amount uint64) *TestSequence {
	return st.AddFunc(func(t *testing.T) {
		st.ledger.stake(staker, amount, false, 0)
		t.Logf("staked %d for %s", amount, staker)
	})
}

func (st *TestSequence) StakeWithPool(staker ledger.Address, amount uint64, commission uint16) *TestSequence {
	return st.AddFunc(func(t *testing.T) {
		st.ledger.stake(staker, amount, true, commission)
		t.Logf("staked %d with pool for %s", amount, staker)
	})
}

func (st *TestSequence) Advance(seconds uint64) *TestSequence {
	return st.AddFunc(func(t *testing.T) {
		st.ledger.advance(seconds)
	})
}

func (st *TestSequence) IncreaseStake(staker ledger.Address, amount uint64) *TestSequence {
	return st.AddFunc(func(t *testing.T) {
		st.ledger.fund(staker, amount)
		if _, err := st.ledger.staking.IncreaseStake(st.ledger.env(staker), staker, u(amount)); err != nil {
			t.Fatalf("failed to increase stake of %s: %v", staker, err)
		}
	})
}

func (st *TestSequence) ClaimRewards(staker ledger.Address) *TestSequence {
	return st.AddFunc(func(t *testing.T) {
		amount, err := st.ledger.staking.ClaimRewards(st.ledger.env(staker), staker)
		if err != nil {
			t.Fatalf("failed to claim rewards of %s: %v", staker, err)
		}
		t.Logf("claimed %s for %s", amount.Dec(), staker)
	})
}

func (st *TestSequence) UnstakeIntent(staker ledger.Address) *TestSequence {
	return st.AddFunc(func(t *testing.T) {
		if _, err := st.ledger.staking.UnstakeIntent(st.ledger.env(staker)); err != nil {
			t.Fatalf("failed to signal exit of %s: %v", staker, err)
		}
	})
}

func (st *TestSequence) UnstakeAction(staker ledger.Address) *TestSequence {
	return st.AddFunc(func(t *testing.T) {
		if _, err := st.ledger.staking.UnstakeAction(st.ledger.env(staker), staker); err != nil {
			t.Fatalf("failed to unstake %s: %v", staker, err)
		}
	})
}

func (st *TestSequence) Run(t *testing.T) {
	st.mu.Lock()
	defer st.mu.Unlock()

	for _, f := range st.funcs {
		f(t)
	}
}

//
// assertions
//

type StakerAssertions struct {
	ledger *testLedger
	staker ledger.Address

	absent     bool
	amountOwn  *uint256.Int
	poolAmount *uint256.Int
	unclaimed  *uint256.Int
	exiting    *bool
}

func AssertStaker(l *testLedger, staker ledger.Address) *StakerAssertions {
	return &StakerAssertions{ledger: l, staker: staker}
}

func (sa *StakerAssertions) Absent() *StakerAssertions {
	sa.absent = true
	return sa
}

func (sa *StakerAssertions) AmountOwn(expected uint64) *StakerAssertions {
	sa.amountOwn = u(expected)
	return sa
}

func (sa *StakerAssertions) PoolAmount(expected uint64) *StakerAssertions {
	sa.poolAmount = u(expected)
	return sa
}

func (sa *StakerAssertions) Unclaimed(expected *uint256.Int) *StakerAssertions {
	sa.unclaimed = expected
	return sa
}

func (sa *StakerAssertions) Exiting(expected bool) *StakerAssertions {
	sa.exiting = &expected
	return sa
}

func (sa *StakerAssertions) Assert(t *testing.T) {
	view := sa.ledger.info(sa.staker)
	if sa.absent {
		assert.Nil(t, view, "staker %s should not exist", sa.staker)
		return
	}
	require.NotNil(t, view, "staker %s should exist", sa.staker)

	if sa.amountOwn != nil {
		assert.Equal(t, sa.amountOwn, view.AmountOwn, "staker %s own stake mismatch", sa.staker)
	}
	if sa.poolAmount != nil {
		assert.Equal(t, sa.poolAmount, view.PoolAmount, "staker %s pool stake mismatch", sa.staker)
	}
	if sa.unclaimed != nil {
		assert.Equal(t, sa.unclaimed, view.Unclaimed, "staker %s unclaimed rewards mismatch", sa.staker)
	}
	if sa.exiting != nil {
		assert.Equal(t, *sa.exiting, view.Exiting, "staker %s exiting mismatch", sa.staker)
	}
}
