// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package stakerinfo

import (
	"testing"

	"github.com/ethereum/go-ethereum/rlp"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/stakeledger/builtin/solidity"
	"github.com/vechain/stakeledger/ledger"
	"github.com/vechain/stakeledger/lvldb"
	"github.com/vechain/stakeledger/state"
)

var (
	staker      = ledger.BytesToAddress([]byte("staker"))
	rewardAddr  = ledger.BytesToAddress([]byte("reward"))
	operational = ledger.BytesToAddress([]byte("operational"))
	pool        = ledger.BytesToAddress([]byte("pool"))
)

func newService(t *testing.T) (*Service, *solidity.Context) {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	sctx := solidity.NewContext(ledger.BytesToAddress([]byte("staking")), state.New(db))
	return New(sctx), sctx
}

func newInfo() *StakerInfo {
	return &StakerInfo{
		RewardAddress:       rewardAddr,
		OperationalAddress:  operational,
		AmountOwn:           uint256.NewInt(100000),
		Index:               uint256.NewInt(7),
		UnclaimedRewardsOwn: uint256.NewInt(3),
	}
}

func TestService_Absent(t *testing.T) {
	svc, _ := newService(t)
	info, err := svc.Get(staker)
	require.NoError(t, err)
	assert.Nil(t, info)
}

func TestService_RoundTrip(t *testing.T) {
	svc, _ := newService(t)

	info := newInfo()
	require.NoError(t, svc.Set(staker, info))
	got, err := svc.Get(staker)
	require.NoError(t, err)
	assert.Equal(t, info, got)
	assert.False(t, got.IsExiting())
	assert.Nil(t, got.PoolInfo)

	// exiting with pool, including an unstake time of zero
	zero := uint64(0)
	info.UnstakeTime = &zero
	info.PoolInfo = &PoolInfo{
		PoolContract:     pool,
		Amount:           uint256.NewInt(500),
		UnclaimedRewards: uint256.NewInt(0),
		Commission:       1000,
	}
	require.NoError(t, svc.Set(staker, info))
	got, err = svc.Get(staker)
	require.NoError(t, err)
	assert.Equal(t, info, got)
	assert.True(t, got.IsExiting())
	assert.Equal(t, uint256.NewInt(100500), got.TotalAmount())

	svc.Delete(staker)
	got, err = svc.Get(staker)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestService_UpgradeV0(t *testing.T) {
	svc, sctx := newService(t)

	body, err := rlp.EncodeToBytes(&bodyV0{
		RewardAddress:       rewardAddr,
		OperationalAddress:  operational,
		AmountOwn:           uint256.NewInt(100000),
		Index:               uint256.NewInt(7),
		UnclaimedRewardsOwn: uint256.NewInt(3),
		UnstakeTime:         1234,
		Commission:          250,
		Pool: &poolV0{
			PoolContract:     pool,
			Amount:           uint256.NewInt(9),
			UnclaimedRewards: uint256.NewInt(1),
		},
	})
	require.NoError(t, err)
	legacy, err := rlp.EncodeToBytes(&envelope{Version: V0, Body: body})
	require.NoError(t, err)

	position := ledger.Blake2b(staker.Bytes(), slotStakers.Bytes())
	sctx.State().SetRawStorage(sctx.Address(), position, legacy)

	got, err := svc.Get(staker)
	require.NoError(t, err)
	require.NotNil(t, got.UnstakeTime)
	assert.Equal(t, uint64(1234), *got.UnstakeTime)
	require.NotNil(t, got.PoolInfo)
	assert.Equal(t, uint16(250), got.PoolInfo.Commission)
	assert.Equal(t, uint256.NewInt(9), got.PoolInfo.Amount)

	// rewritten in the current layout
	require.NoError(t, svc.Set(staker, got))
	raw, err := sctx.State().GetRawStorage(sctx.Address(), position)
	require.NoError(t, err)
	var env envelope
	require.NoError(t, rlp.DecodeBytes(raw, &env))
	assert.Equal(t, CurrentVersion, env.Version)
}

func TestService_UpgradeV0NoUnstake(t *testing.T) {
	svc, sctx := newService(t)

	body, err := rlp.EncodeToBytes(&bodyV0{
		RewardAddress:       rewardAddr,
		OperationalAddress:  operational,
		AmountOwn:           uint256.NewInt(1),
		Index:               uint256.NewInt(0),
		UnclaimedRewardsOwn: uint256.NewInt(0),
	})
	require.NoError(t, err)
	legacy, err := rlp.EncodeToBytes(&envelope{Version: V0, Body: body})
	require.NoError(t, err)
	sctx.State().SetRawStorage(sctx.Address(), ledger.Blake2b(staker.Bytes(), slotStakers.Bytes()), legacy)

	got, err := svc.Get(staker)
	require.NoError(t, err)
	assert.Nil(t, got.UnstakeTime)
	assert.Nil(t, got.PoolInfo)
	assert.False(t, got.IsExiting())
}

func TestService_UnknownVersion(t *testing.T) {
	svc, sctx := newService(t)
	raw, err := rlp.EncodeToBytes(&envelope{Version: 9, Body: rlp.RawValue{0xc0}})
	require.NoError(t, err)
	sctx.State().SetRawStorage(sctx.Address(), ledger.Blake2b(staker.Bytes(), slotStakers.Bytes()), raw)

	_, err = svc.Get(staker)
	assert.ErrorContains(t, err, "unsupported staker info version")
}

func TestService_Operational(t *testing.T) {
	svc, _ := newService(t)

	got, err := svc.StakerByOperational(operational)
	require.NoError(t, err)
	assert.True(t, got.IsZero())

	require.NoError(t, svc.BindOperational(operational, staker))
	got, err = svc.StakerByOperational(operational)
	require.NoError(t, err)
	assert.Equal(t, staker, got)

	svc.UnbindOperational(operational)
	got, err = svc.StakerByOperational(operational)
	require.NoError(t, err)
	assert.True(t, got.IsZero())
}

func TestStakerInfo_Clone(t *testing.T) {
	info := newInfo()
	ts := uint64(5)
	info.UnstakeTime = &ts
	info.PoolInfo = &PoolInfo{PoolContract: pool, Amount: uint256.NewInt(1), UnclaimedRewards: uint256.NewInt(2), Commission: 3}

	c := info.Clone()
	assert.Equal(t, info, c)

	c.AmountOwn.SetUint64(0)
	c.PoolInfo.Amount.SetUint64(0)
	*c.UnstakeTime = 6
	assert.Equal(t, uint256.NewInt(100000), info.AmountOwn)
	assert.Equal(t, uint256.NewInt(1), info.PoolInfo.Amount)
	assert.Equal(t, uint64(5), *info.UnstakeTime)
}
