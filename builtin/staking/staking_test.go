// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staking

import (
	"testing"

	fuzz "github.com/google/gofuzz"
	"github.com/holiman/uint256"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/stakeledger/builtin/staking/rewards"
	"github.com/vechain/stakeledger/builtin/staking/stakerinfo"
	"github.com/vechain/stakeledger/ledger"
)

// A failing operation leaves no trace: ledger, token balances, supplier and events.
func TestRun_RevertsEverything(t *testing.T) {
	l := newTestLedger(t)
	pool := l.stakeWithDelegation(alice, 100_000, 100_000, 1000)
	l.stake(bob, 100_000, false, 0)
	l.advance(60)

	_, err := l.staking.UnstakeIntent(l.env(alice))
	require.NoError(t, err)
	l.advance(ledger.DefaultExitWaitWindow)

	balances := map[ledger.Address]*uint256.Int{}
	for _, a := range []ledger.Address{alice, pool, stakingAddr, supplierAddr} {
		balances[a] = l.balance(a)
	}
	unclaimed, err := l.supplier.Unclaimed()
	require.NoError(t, err)
	index, last, err := l.staking.GlobalIndex()
	require.NoError(t, err)
	events := len(l.sink.events)

	l.pools.pools[pool].fail = errors.New("pool is broken")
	_, err = l.staking.UnstakeAction(l.env(bob), alice)
	assert.EqualError(t, err, "pool is broken")

	for a, want := range balances {
		assert.Equal(t, want, l.balance(a), "balance of %s", a)
	}
	after, err := l.supplier.Unclaimed()
	require.NoError(t, err)
	assert.Equal(t, unclaimed, after)

	afterIndex, afterLast, err := l.staking.GlobalIndex()
	require.NoError(t, err)
	assert.Equal(t, index, afterIndex)
	assert.Equal(t, last, afterLast)
	assert.Len(t, l.sink.events, events)
	AssertStaker(l, alice).Exiting(true).Assert(t)

	l.pools.pools[pool].fail = nil
	_, err = l.staking.UnstakeAction(l.env(bob), alice)
	require.NoError(t, err)
	AssertStaker(l, alice).Absent().Assert(t)
}

func TestEvents(t *testing.T) {
	l := newTestLedger(t)
	l.advance(25)
	l.stake(alice, 100_000, false, 0)

	ev := l.sink.last(EventNewStaker)
	require.NotNil(t, ev)
	assert.Equal(t, alice, ev.Subject)
	assert.Equal(t, uint64(genesisTime+25), ev.Timestamp)
	assert.Equal(t, uint32(2), ev.BlockNum)
	assert.Equal(t, map[string]string{
		"rewardAddress":      alice.String(),
		"operationalAddress": operational(alice).String(),
		"selfStake":          "100000",
	}, ev.Data)

	// a failing sink does not fail the operation
	l.sink.err = errors.New("sink down")
	l.stake(bob, 100_000, false, 0)
	assert.Equal(t, EventStakeBalanceChanged, l.sink.events[len(l.sink.events)-1].Name)
}

type stakerSnapshot map[ledger.Address]*stakerinfo.StakerInfo

func (l *testLedger) snapshot(stakers []ledger.Address) stakerSnapshot {
	snap := make(stakerSnapshot)
	for _, s := range stakers {
		info, err := l.staking.stakerService.Get(s)
		require.NoError(l.t, err)
		if info != nil {
			snap[s] = info
		}
	}
	return snap
}

// Random operation sequences keep total stake conserved, never decrease the index
// and never credit more own rewards than the stake earned.
func TestProperties_RandomSequence(t *testing.T) {
	l := newTestLedger(t)
	stakers := []ledger.Address{addr("s0"), addr("s1"), addr("s2"), addr("s3")}
	for i, s := range stakers {
		l.stake(s, uint64(100_000*(i+1)), false, 0)
	}

	f := fuzz.NewWithSeed(42).NilChance(0)
	for step := range 400 {
		var op, who uint8
		var n uint16
		f.Fuzz(&op)
		f.Fuzz(&who)
		f.Fuzz(&n)
		staker := stakers[int(who)%len(stakers)]

		prevIndex := l.index()
		prev := l.snapshot(stakers)
		info := prev[staker]

		switch op % 5 {
		case 0:
			l.advance(uint64(n % 600))
		case 1:
			if info == nil || info.IsExiting() {
				continue
			}
			amount := uint64(n) + 1
			l.fund(staker, amount)
			_, err := l.staking.IncreaseStake(l.env(staker), staker, u(amount))
			require.NoError(t, err, "step %d", step)
		case 2:
			if info == nil {
				continue
			}
			_, err := l.staking.ClaimRewards(l.env(staker), staker)
			require.NoError(t, err, "step %d", step)
		case 3:
			if info == nil {
				l.stake(staker, minStake+uint64(n), false, 0)
				continue
			}
			if info.IsExiting() {
				continue
			}
			_, err := l.staking.UnstakeIntent(l.env(staker))
			require.NoError(t, err, "step %d", step)
		case 4:
			if info == nil || !info.IsExiting() {
				continue
			}
			_, err := l.staking.UnstakeAction(l.env(staker), staker)
			if l.now < *info.UnstakeTime {
				assert.ErrorIs(t, err, ErrIntentWindowNotFinished)
			} else {
				require.NoError(t, err, "step %d", step)
			}
		}

		index := l.index()
		assert.False(t, index.Lt(prevIndex), "index decreased at step %d", step)

		sum := new(uint256.Int)
		next := l.snapshot(stakers)
		for s, after := range next {
			if !after.IsExiting() {
				sum.Add(sum, after.TotalAmount())
			}
			before, ok := prev[s]
			if !ok || !after.UnclaimedRewardsOwn.Gt(before.UnclaimedRewardsOwn) {
				continue
			}
			earned := new(uint256.Int).Sub(after.UnclaimedRewardsOwn, before.UnclaimedRewardsOwn)
			bound, err := rewards.OwnRewards(before.AmountOwn, new(uint256.Int).Sub(after.Index, before.Index))
			require.NoError(t, err)
			assert.False(t, earned.Gt(bound), "free rewards for %s at step %d", s, step)
		}
		assert.Equal(t, sum, l.totalStake(), "total stake at step %d", step)
	}
}
