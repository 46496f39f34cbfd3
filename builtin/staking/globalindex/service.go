// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package globalindex

import (
	"github.com/holiman/uint256"
	"github.com/pkg/errors"

	"github.com/vechain/stakeledger/builtin/solidity"
	"github.com/vechain/stakeledger/builtin/staking/reverts"
	"github.com/vechain/stakeledger/builtin/staking/rewards"
	"github.com/vechain/stakeledger/ledger"
)

var (
	slotGlobalIndex     = ledger.Slot("global-index")
	slotLastIndexUpdate = ledger.Slot("global-index-last-update")

	ErrIndexOverflow = reverts.NewArithmetic("global index overflow")
)

// RewardSource reports rewards that became distributable since the previous report.
type RewardSource interface {
	CalculateStakingRewards(now uint64) (*uint256.Int, error)
}

// Update describes one advance of the global index.
type Update struct {
	PrevIndex     *uint256.Int
	Index         *uint256.Int
	PrevTimestamp uint64
	Timestamp     uint64
	Rewards       *uint256.Int
}

// Service keeps the shared reward index: cumulative reward per unit of stake, scaled by IndexBase.
type Service struct {
	index      *solidity.Uint256
	lastUpdate *solidity.Uint64
}

func New(sctx *solidity.Context) *Service {
	return &Service{
		index:      solidity.NewUint256(sctx, slotGlobalIndex),
		lastUpdate: solidity.NewUint64(sctx, slotLastIndexUpdate),
	}
}

func (s *Service) Index() (*uint256.Int, error) {
	return s.index.Get()
}

func (s *Service) LastUpdate() (uint64, error) {
	return s.lastUpdate.Get()
}

// Init sets the timestamp the first distribution is measured from.
func (s *Service) Init(now uint64) {
	s.lastUpdate.Set(now)
}

// MaybeUpdate advances the index when at least MinTimeBetweenIndexUpdates elapsed since the last
// update and there is stake to distribute to. It returns nil when nothing changed.
func (s *Service) MaybeUpdate(now uint64, totalStake *uint256.Int, source RewardSource) (*Update, error) {
	last, err := s.lastUpdate.Get()
	if err != nil {
		return nil, err
	}
	if now < last || now-last < ledger.MinTimeBetweenIndexUpdates {
		return nil, nil
	}
	if totalStake.IsZero() {
		return nil, nil
	}

	reward, err := source.CalculateStakingRewards(now)
	if err != nil {
		return nil, errors.WithMessage(err, "calculate staking rewards")
	}
	diff, err := rewards.IndexDiff(reward, totalStake)
	if err != nil {
		return nil, err
	}

	prev, err := s.index.Get()
	if err != nil {
		return nil, err
	}
	next, overflow := new(uint256.Int).AddOverflow(prev, diff)
	if overflow {
		return nil, ErrIndexOverflow
	}

	s.index.Set(next)
	s.lastUpdate.Set(now)

	return &Update{
		PrevIndex:     prev,
		Index:         next,
		PrevTimestamp: last,
		Timestamp:     now,
		Rewards:       reward,
	}, nil
}
