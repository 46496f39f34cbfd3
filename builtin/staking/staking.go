// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staking

import (
	"github.com/holiman/uint256"
	"github.com/pkg/errors"

	"github.com/vechain/stakeledger/builtin/params"
	"github.com/vechain/stakeledger/builtin/solidity"
	"github.com/vechain/stakeledger/builtin/staking/access"
	"github.com/vechain/stakeledger/builtin/staking/globalindex"
	"github.com/vechain/stakeledger/builtin/staking/globalstats"
	"github.com/vechain/stakeledger/builtin/staking/intents"
	"github.com/vechain/stakeledger/builtin/staking/reverts"
	"github.com/vechain/stakeledger/builtin/staking/rewards"
	"github.com/vechain/stakeledger/builtin/staking/stakerinfo"
	"github.com/vechain/stakeledger/ledger"
	"github.com/vechain/stakeledger/log"
	"github.com/vechain/stakeledger/metrics"
	"github.com/vechain/stakeledger/state"
	"github.com/vechain/stakeledger/xenv"
)

var (
	logger = log.WithContext("pkg", "staking")

	metricOpsCount   = metrics.LazyLoadCounterVec("staking_ops_count", []string{"op", "status"})
	metricTotalStake = metrics.LazyLoadGauge("staking_total_stake")
)

func SetLogger(l log.Logger) {
	logger = l
}

// Staking implements the staking ledger contract.
// It is not safe for concurrent use.
type Staking struct {
	addr   ledger.Address
	state  *state.State
	params *params.Params

	token     Token
	suppliers SupplierResolver
	pools     PoolFactory
	sink      EventSink

	globalIndexService *globalindex.Service
	globalStatsService *globalstats.Service
	stakerService      *stakerinfo.Service
	intentService      *intents.Service
	accessService      *access.Service

	depth  int
	events []*Event
}

// New create a new instance.
func New(
	addr ledger.Address,
	state *state.State,
	params *params.Params,
	token Token,
	suppliers SupplierResolver,
	pools PoolFactory,
) *Staking {
	sctx := solidity.NewContext(addr, state)

	return &Staking{
		addr:      addr,
		state:     state,
		params:    params,
		token:     token,
		suppliers: suppliers,
		pools:     pools,

		globalIndexService: globalindex.New(sctx),
		globalStatsService: globalstats.New(sctx),
		stakerService:      stakerinfo.New(sctx),
		intentService:      intents.New(sctx),
		accessService:      access.New(sctx),
	}
}

// Address returns the address of the staking contract.
func (s *Staking) Address() ledger.Address {
	return s.addr
}

// SetEventSink sets the receiver of emitted events.
func (s *Staking) SetEventSink(sink EventSink) {
	s.sink = sink
}

// run executes fn atomically: on error every state change and event since the call is dropped.
// Calls may nest when a collaborator reenters the contract, events are handed to the sink
// once the outermost call succeeds.
func (s *Staking) run(op string, fn func() error) error {
	checkpoint := s.state.NewCheckpoint()
	mark := len(s.events)

	s.depth++
	err := fn()
	s.depth--

	if err != nil {
		s.state.RevertTo(checkpoint)
		s.events = s.events[:mark]
		status := "error"
		if reverts.IsRevertErr(err) {
			status = "reverted"
		}
		metricOpsCount().AddWithLabel(1, map[string]string{"op": op, "status": status})
		logger.Info("operation failed", "op", op, "error", err)
		return err
	}

	metricOpsCount().AddWithLabel(1, map[string]string{"op": op, "status": "success"})
	logger.Info("operation succeeded", "op", op, "events", len(s.events)-mark)

	if s.depth == 0 {
		s.flush()
	}
	return nil
}

// Atomic runs fn as one operation named op. Staking calls made by fn keep their state changes and
// events only if fn succeeds, and the events reach the sink once the operation is over.
func (s *Staking) Atomic(op string, fn func() error) error {
	return s.run(op, fn)
}

func (s *Staking) flush() {
	events := s.events
	s.events = nil

	if total, err := s.globalStatsService.TotalStake(); err == nil && total.IsUint64() && total.Uint64() <= 1<<63-1 {
		metricTotalStake().Set(int64(total.Uint64()))
	}

	if s.sink == nil || len(events) == 0 {
		return
	}
	if err := s.sink.HandleEvents(events); err != nil {
		logger.Warn("failed to handle events", "count", len(events), "error", err)
	}
}

// generalPrerequisites guards every mutating entry point.
func (s *Staking) generalPrerequisites(env *xenv.Environment) error {
	paused, err := s.accessService.IsPaused()
	if err != nil {
		return err
	}
	if paused {
		return ErrPaused
	}
	if env.Caller().IsZero() {
		return ErrZeroCaller
	}
	_, err = s.maybeUpdateIndex(env)
	return err
}

// supplierSource resolves the reward supplier only when the index is actually due.
type supplierSource struct {
	s *Staking
}

func (src supplierSource) CalculateStakingRewards(now uint64) (*uint256.Int, error) {
	supplier, err := src.s.rewardSupplier()
	if err != nil {
		return nil, err
	}
	return supplier.CalculateStakingRewards(now)
}

func (s *Staking) maybeUpdateIndex(env *xenv.Environment) (bool, error) {
	total, err := s.globalStatsService.TotalStake()
	if err != nil {
		return false, err
	}
	upd, err := s.globalIndexService.MaybeUpdate(env.BlockTime(), total, supplierSource{s})
	if err != nil {
		return false, err
	}
	if upd == nil {
		return false, nil
	}
	logger.Debug("global index updated", "index", upd.Index, "rewards", upd.Rewards)
	s.emit(env, EventGlobalIndexUpdated, s.addr,
		"oldIndex", upd.PrevIndex,
		"newIndex", upd.Index,
		"globalIndexLastUpdateTimestamp", upd.PrevTimestamp,
		"globalIndexCurrentUpdateTimestamp", upd.Timestamp,
	)
	return true, nil
}

func (s *Staking) rewardSupplier() (RewardSupplier, error) {
	addr, err := s.params.GetAddress(ledger.KeyRewardSupplier)
	if err != nil {
		return nil, err
	}
	if addr.IsZero() {
		return nil, ErrMissingRewardSupplier
	}
	return s.suppliers.Supplier(addr)
}

// getStaker returns the existing staker info, or ErrStakerNotExists.
func (s *Staking) getStaker(staker ledger.Address) (*stakerinfo.StakerInfo, error) {
	info, err := s.stakerService.Get(staker)
	if err != nil {
		return nil, err
	}
	if info == nil {
		return nil, ErrStakerNotExists
	}
	return info, nil
}

// accrue settles rewards of info up to globalIndex. Exiting stakers are frozen.
func accrue(info *stakerinfo.StakerInfo, globalIndex *uint256.Int) error {
	if info.IsExiting() {
		return nil
	}
	interest, err := rewards.Interest(globalIndex, info.Index)
	if err != nil {
		return err
	}
	info.Index = globalIndex.Clone()

	own, err := rewards.OwnRewards(info.AmountOwn, interest)
	if err != nil {
		return err
	}
	unclaimed := new(uint256.Int)
	if _, overflow := unclaimed.AddOverflow(info.UnclaimedRewardsOwn, own); overflow {
		return rewards.ErrOverflow
	}

	if pool := info.PoolInfo; pool != nil && !pool.Amount.IsZero() {
		poolNet, commission, err := rewards.SplitPoolRewards(pool.Amount, interest, pool.Commission)
		if err != nil {
			return err
		}
		if _, overflow := unclaimed.AddOverflow(unclaimed, commission); overflow {
			return rewards.ErrOverflow
		}
		poolUnclaimed := new(uint256.Int)
		if _, overflow := poolUnclaimed.AddOverflow(pool.UnclaimedRewards, poolNet); overflow {
			return rewards.ErrOverflow
		}
		pool.UnclaimedRewards = poolUnclaimed
	}
	info.UnclaimedRewardsOwn = unclaimed
	return nil
}

// updateRewards settles info against the current global index.
func (s *Staking) updateRewards(info *stakerinfo.StakerInfo) error {
	index, err := s.globalIndexService.Index()
	if err != nil {
		return err
	}
	return accrue(info, index)
}

// claimFromSupplier pulls amount from the reward supplier and checks it actually arrived.
func (s *Staking) claimFromSupplier(env *xenv.Environment, amount *uint256.Int) error {
	supplier, err := s.rewardSupplier()
	if err != nil {
		return err
	}
	before, err := s.token.BalanceOf(s.addr)
	if err != nil {
		return err
	}
	if err := supplier.ClaimRewards(env.WithCaller(s.addr), amount); err != nil {
		return errors.WithMessage(err, "claim from reward supplier")
	}
	after, err := s.token.BalanceOf(s.addr)
	if err != nil {
		return err
	}
	received, underflow := new(uint256.Int).SubOverflow(after, before)
	if underflow || !received.Eq(amount) {
		return ErrUnexpectedBalance
	}
	return nil
}

// sendRewards pays amount of rewards to recipient.
func (s *Staking) sendRewards(env *xenv.Environment, recipient ledger.Address, amount *uint256.Int) error {
	if amount.IsZero() {
		return nil
	}
	if err := s.claimFromSupplier(env, amount); err != nil {
		return err
	}
	return s.transfer(env, recipient, amount)
}

// transfer sends tokens held by the staking contract.
func (s *Staking) transfer(env *xenv.Environment, to ledger.Address, amount *uint256.Int) error {
	if amount.IsZero() {
		return nil
	}
	if err := s.token.Transfer(env.WithCaller(s.addr), to, amount); err != nil {
		return errors.WithMessage(err, "transfer")
	}
	return nil
}

// pull moves tokens from owner into the staking contract, owner must have approved it.
func (s *Staking) pull(env *xenv.Environment, owner ledger.Address, amount *uint256.Int) error {
	if err := s.token.TransferFrom(env.WithCaller(s.addr), owner, s.addr, amount); err != nil {
		return errors.WithMessage(err, "transfer from")
	}
	return nil
}

func (s *Staking) exitWaitWindow() (uint64, error) {
	window, err := s.params.Get(ledger.KeyExitWaitWindow)
	if err != nil {
		return 0, err
	}
	return window.Uint64(), nil
}

func (s *Staking) minStake() (*uint256.Int, error) {
	return s.params.Get(ledger.KeyMinStake)
}
