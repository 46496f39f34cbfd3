// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package stakerinfo

import (
	"fmt"
	"io"

	"github.com/ethereum/go-ethereum/rlp"
	"github.com/holiman/uint256"

	"github.com/vechain/stakeledger/ledger"
)

// Version tags of the stored record.
const (
	// V0 keeps the commission next to the pool and uses 0 for "no unstake time".
	V0 uint8 = iota
	// V1 moves the commission into the pool and flags the unstake time explicitly.
	V1

	CurrentVersion = V1
)

type poolV0 struct {
	PoolContract     ledger.Address
	Amount           *uint256.Int
	UnclaimedRewards *uint256.Int
}

type bodyV0 struct {
	RewardAddress       ledger.Address
	OperationalAddress  ledger.Address
	AmountOwn           *uint256.Int
	Index               *uint256.Int
	UnclaimedRewardsOwn *uint256.Int
	UnstakeTime         uint64
	Commission          uint16
	Pool                *poolV0 `rlp:"nil"`
}

func (b *bodyV0) upgrade() *StakerInfo {
	info := &StakerInfo{
		RewardAddress:       b.RewardAddress,
		OperationalAddress:  b.OperationalAddress,
		AmountOwn:           b.AmountOwn,
		Index:               b.Index,
		UnclaimedRewardsOwn: b.UnclaimedRewardsOwn,
	}
	if b.UnstakeTime != 0 {
		t := b.UnstakeTime
		info.UnstakeTime = &t
	}
	if b.Pool != nil {
		info.PoolInfo = &PoolInfo{
			PoolContract:     b.Pool.PoolContract,
			Amount:           b.Pool.Amount,
			UnclaimedRewards: b.Pool.UnclaimedRewards,
			Commission:       b.Commission,
		}
	}
	return info
}

type bodyV1 struct {
	RewardAddress       ledger.Address
	OperationalAddress  ledger.Address
	AmountOwn           *uint256.Int
	Index               *uint256.Int
	UnclaimedRewardsOwn *uint256.Int
	Exiting             bool
	UnstakeTime         uint64
	PoolInfo            *PoolInfo `rlp:"nil"`
}

func (b *bodyV1) toInfo() *StakerInfo {
	info := &StakerInfo{
		RewardAddress:       b.RewardAddress,
		OperationalAddress:  b.OperationalAddress,
		AmountOwn:           b.AmountOwn,
		Index:               b.Index,
		UnclaimedRewardsOwn: b.UnclaimedRewardsOwn,
		PoolInfo:            b.PoolInfo,
	}
	if b.Exiting {
		t := b.UnstakeTime
		info.UnstakeTime = &t
	}
	return info
}

func newBodyV1(info *StakerInfo) *bodyV1 {
	b := &bodyV1{
		RewardAddress:       info.RewardAddress,
		OperationalAddress:  info.OperationalAddress,
		AmountOwn:           orZero(info.AmountOwn),
		Index:               orZero(info.Index),
		UnclaimedRewardsOwn: orZero(info.UnclaimedRewardsOwn),
	}
	if info.UnstakeTime != nil {
		b.Exiting = true
		b.UnstakeTime = *info.UnstakeTime
	}
	if info.PoolInfo != nil {
		b.PoolInfo = &PoolInfo{
			PoolContract:     info.PoolInfo.PoolContract,
			Amount:           orZero(info.PoolInfo.Amount),
			UnclaimedRewards: orZero(info.PoolInfo.UnclaimedRewards),
			Commission:       info.PoolInfo.Commission,
		}
	}
	return b
}

type envelope struct {
	Version uint8
	Body    rlp.RawValue
}

// record is the storage form of a StakerInfo, tagged with the layout version.
// Records of older versions are upgraded on decode, writes always use CurrentVersion.
type record struct {
	info *StakerInfo
}

var (
	_ rlp.Encoder = (*record)(nil)
	_ rlp.Decoder = (*record)(nil)
)

func (r *record) EncodeRLP(w io.Writer) error {
	body, err := rlp.EncodeToBytes(newBodyV1(r.info))
	if err != nil {
		return err
	}
	return rlp.Encode(w, &envelope{Version: CurrentVersion, Body: body})
}

func (r *record) DecodeRLP(s *rlp.Stream) error {
	var env envelope
	if err := s.Decode(&env); err != nil {
		return err
	}
	switch env.Version {
	case V0:
		var b bodyV0
		if err := rlp.DecodeBytes(env.Body, &b); err != nil {
			return err
		}
		r.info = b.upgrade()
	case V1:
		var b bodyV1
		if err := rlp.DecodeBytes(env.Body, &b); err != nil {
			return err
		}
		r.info = b.toInfo()
	default:
		return fmt.Errorf("unsupported staker info version %d", env.Version)
	}
	r.info.normalize()
	return nil
}
