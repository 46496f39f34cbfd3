// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package pools

import (
	"testing"

	"github.com/holiman/uint256"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/stakeledger/builtin/token"
	"github.com/vechain/stakeledger/ledger"
	"github.com/vechain/stakeledger/lvldb"
	"github.com/vechain/stakeledger/state"
	"github.com/vechain/stakeledger/xenv"
)

var (
	stakingAddr = ledger.BytesToAddress([]byte("staking"))
	staker      = ledger.BytesToAddress([]byte("staker"))
	delegator1  = ledger.BytesToAddress([]byte("delegator-1"))
	delegator2  = ledger.BytesToAddress([]byte("delegator-2"))

	errUnexpected = errors.New("unexpected call")
)

// offlineStaking is a staking contract that only accepts callbacks.
type offlineStaking struct{}

func (offlineStaking) Address() ledger.Address { return stakingAddr }

func (offlineStaking) AddStakeFromPool(*xenv.Environment, ledger.Address, *uint256.Int) (*uint256.Int, error) {
	return nil, errUnexpected
}

func (offlineStaking) RemoveFromDelegationPoolIntent(*xenv.Environment, ledger.Address, ledger.Bytes32, *uint256.Int) (uint64, error) {
	return 0, errUnexpected
}

func (offlineStaking) RemoveFromDelegationPoolAction(*xenv.Environment, ledger.Bytes32) (*uint256.Int, error) {
	return nil, errUnexpected
}

func (offlineStaking) SwitchStakingDelegationPool(*xenv.Environment, ledger.Address, ledger.Address, *uint256.Int, []byte, ledger.Bytes32) (bool, error) {
	return false, errUnexpected
}

func (offlineStaking) ClaimDelegationPoolRewards(*xenv.Environment, ledger.Address) (*uint256.Int, error) {
	return nil, errUnexpected
}

func (offlineStaking) Atomic(_ string, fn func() error) error {
	return fn()
}

func newRegistry(t *testing.T) (*Registry, *token.Token) {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	st := state.New(db)
	tok := token.New(ledger.BytesToAddress([]byte("token")), st)
	r := New(ledger.BytesToAddress([]byte("factory")), st, tok)
	r.Bind(offlineStaking{})
	return r, tok
}

func deploy(t *testing.T, r *Registry) *Pool {
	addr, err := r.DeployPool(xenv.New(nil, stakingAddr), staker, staker, 1000)
	require.NoError(t, err)
	pool, err := r.Pool(addr)
	require.NoError(t, err)
	return pool
}

func TestDeployPool(t *testing.T) {
	r, _ := newRegistry(t)

	_, err := r.DeployPool(xenv.New(nil, staker), staker, staker, 1000)
	assert.ErrorIs(t, err, ErrOnlyStaking)

	env := xenv.New(nil, stakingAddr)
	first, err := r.DeployPool(env, staker, staker, 1000)
	require.NoError(t, err)
	assert.Equal(t, PoolAddress(staker, 0), first)

	second, err := r.DeployPool(env, staker, staker, 500)
	require.NoError(t, err)
	assert.Equal(t, PoolAddress(staker, 1), second)
	assert.NotEqual(t, first, second)

	owner, err := r.StakerOf(second)
	require.NoError(t, err)
	assert.Equal(t, staker, owner)

	pool, err := r.Pool(second)
	require.NoError(t, err)
	commission, err := pool.Commission()
	require.NoError(t, err)
	assert.Equal(t, uint16(500), commission)

	_, err = r.Pool(ledger.BytesToAddress([]byte("nowhere")))
	assert.ErrorIs(t, err, ErrPoolNotFound)
}

func TestUnboundRegistry(t *testing.T) {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	defer db.Close()

	r := New(ledger.BytesToAddress([]byte("factory")), state.New(db), nil)
	_, err = r.DeployPool(xenv.New(nil, stakingAddr), staker, staker, 0)
	assert.ErrorIs(t, err, ErrStakingNotBound)
}

func TestCallbacks_OnlyStaking(t *testing.T) {
	r, _ := newRegistry(t)
	pool := deploy(t, r)
	other := xenv.New(nil, staker)

	assert.ErrorIs(t, pool.SetFinalStakerIndex(other, uint256.NewInt(1)), ErrOnlyStaking)
	assert.ErrorIs(t, pool.UpdateCommissionFromStakingContract(other, 1), ErrOnlyStaking)
	assert.ErrorIs(t, pool.EnterDelegationPoolFromStakingContract(other, uint256.NewInt(1), uint256.NewInt(0), delegator1.Bytes()), ErrOnlyStaking)

	env := xenv.New(nil, stakingAddr)
	require.NoError(t, pool.UpdateCommissionFromStakingContract(env, 10))
	commission, err := pool.Commission()
	require.NoError(t, err)
	assert.Equal(t, uint16(10), commission)

	assert.ErrorIs(t, pool.EnterDelegationPoolFromStakingContract(env, uint256.NewInt(1), uint256.NewInt(0), []byte{1, 2}), ErrInvalidData)
}

func TestRewardsAndWithdraw(t *testing.T) {
	r, tok := newRegistry(t)
	pool := deploy(t, r)
	env := xenv.New(nil, stakingAddr)

	require.NoError(t, pool.EnterDelegationPoolFromStakingContract(env, uint256.NewInt(300), uint256.NewInt(0), delegator1.Bytes()))
	require.NoError(t, pool.EnterDelegationPoolFromStakingContract(env, uint256.NewInt(100), uint256.NewInt(0), delegator2.Bytes()))

	total, err := pool.TotalActive()
	require.NoError(t, err)
	assert.Equal(t, uint256.NewInt(400), total)

	_, err = pool.Withdraw(xenv.New(nil, delegator1))
	assert.ErrorIs(t, err, ErrPoolNotFinalized)

	// the staker exits: delegated stake and the last rewards come back
	require.NoError(t, tok.Mint(pool.Address(), uint256.NewInt(400+800)))
	require.NoError(t, pool.SetFinalStakerIndex(env, uint256.NewInt(77)))

	index, finalized, err := pool.FinalStakerIndex()
	require.NoError(t, err)
	assert.True(t, finalized)
	assert.Equal(t, uint256.NewInt(77), index)
	assert.ErrorIs(t, pool.SetFinalStakerIndex(env, uint256.NewInt(78)), ErrPoolFinalized)
	assert.ErrorIs(t, pool.Enter(xenv.New(nil, delegator1), uint256.NewInt(1)), ErrPoolFinalized)

	m, err := pool.Member(delegator1)
	require.NoError(t, err)
	assert.Equal(t, uint256.NewInt(600), m.Unclaimed)

	reward, err := pool.ClaimRewards(xenv.New(nil, delegator1))
	require.NoError(t, err)
	assert.Equal(t, uint256.NewInt(600), reward)

	amount, err := pool.Withdraw(xenv.New(nil, delegator1))
	require.NoError(t, err)
	assert.Equal(t, uint256.NewInt(300), amount)

	amount, err = pool.Withdraw(xenv.New(nil, delegator2))
	require.NoError(t, err)
	assert.Equal(t, uint256.NewInt(300), amount)

	for addr, want := range map[ledger.Address]uint64{delegator1: 900, delegator2: 300, pool.Address(): 0} {
		bal, err := tok.BalanceOf(addr)
		require.NoError(t, err)
		assert.Equal(t, uint256.NewInt(want), bal)
	}

	amount, err = pool.Withdraw(xenv.New(nil, delegator1))
	require.NoError(t, err)
	assert.True(t, amount.IsZero())
}

func TestMemberOperationsRevert(t *testing.T) {
	r, _ := newRegistry(t)
	pool := deploy(t, r)
	env := xenv.New(nil, stakingAddr)
	require.NoError(t, pool.EnterDelegationPoolFromStakingContract(env, uint256.NewInt(300), uint256.NewInt(0), delegator1.Bytes()))

	_, err := pool.ExitIntent(xenv.New(nil, delegator1), uint256.NewInt(100))
	assert.ErrorIs(t, err, errUnexpected)

	m, err := pool.Member(delegator1)
	require.NoError(t, err)
	assert.Equal(t, uint256.NewInt(300), m.Amount)
	assert.True(t, m.Pending.IsZero())

	assert.ErrorIs(t, pool.Switch(xenv.New(nil, delegator1), pool.Address(), uint256.NewInt(1)), ErrSelfSwitch)
	assert.ErrorIs(t, pool.Switch(xenv.New(nil, delegator1), ledger.BytesToAddress([]byte("nowhere")), uint256.NewInt(1)), ErrPoolNotFound)
}
