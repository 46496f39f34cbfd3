// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package supplier implements a reward supplier emitting a fixed amount of tokens per second
// to the staking contract.
package supplier

import (
	"github.com/holiman/uint256"
	"github.com/pkg/errors"

	"github.com/vechain/stakeledger/builtin/solidity"
	"github.com/vechain/stakeledger/ledger"
	"github.com/vechain/stakeledger/log"
	"github.com/vechain/stakeledger/state"
	"github.com/vechain/stakeledger/xenv"
)

var (
	logger = log.WithContext("pkg", "supplier")

	slotRate      = ledger.Slot("rate")
	slotLastCalc  = ledger.Slot("last-calculation")
	slotUnclaimed = ledger.Slot("unclaimed")
	slotStaking   = ledger.Slot("staking")

	ErrOnlyStaking           = errors.New("caller is not the staking contract")
	ErrInsufficientUnclaimed = errors.New("amount exceeds unclaimed rewards")
)

// Token is the part of the token contract the supplier pays with.
type Token interface {
	BalanceOf(addr ledger.Address) (*uint256.Int, error)
	Transfer(env *xenv.Environment, to ledger.Address, amount *uint256.Int) error
}

// Supplier binder of a reward supplier contract.
type Supplier struct {
	addr      ledger.Address
	token     Token
	rate      *solidity.Uint256
	lastCalc  *solidity.Uint64
	unclaimed *solidity.Uint256
	staking   *solidity.Address
}

func New(addr ledger.Address, state *state.State, token Token) *Supplier {
	sctx := solidity.NewContext(addr, state)
	return &Supplier{
		addr:      addr,
		token:     token,
		rate:      solidity.NewUint256(sctx, slotRate),
		lastCalc:  solidity.NewUint64(sctx, slotLastCalc),
		unclaimed: solidity.NewUint256(sctx, slotUnclaimed),
		staking:   solidity.NewAddress(sctx, slotStaking),
	}
}

func (s *Supplier) Address() ledger.Address {
	return s.addr
}

// Init sets the beneficiary, the emission rate and the time emission starts from.
func (s *Supplier) Init(staking ledger.Address, rate *uint256.Int, now uint64) {
	s.staking.Set(&staking)
	s.rate.Set(rate)
	s.lastCalc.Set(now)
}

func (s *Supplier) Rate() (*uint256.Int, error) {
	return s.rate.Get()
}

// SetRate changes the emission rate. Emission up to now is accounted at the old rate.
func (s *Supplier) SetRate(rate *uint256.Int, now uint64) error {
	if _, err := s.CalculateStakingRewards(now); err != nil {
		return err
	}
	s.rate.Set(rate)
	return nil
}

// Unclaimed returns the rewards calculated but not yet claimed.
func (s *Supplier) Unclaimed() (*uint256.Int, error) {
	return s.unclaimed.Get()
}

// CalculateStakingRewards returns the rewards emitted since the previous calculation.
// Emission is bounded by the tokens the supplier holds and has not promised yet.
func (s *Supplier) CalculateStakingRewards(now uint64) (*uint256.Int, error) {
	last, err := s.lastCalc.Get()
	if err != nil {
		return nil, err
	}
	if now <= last {
		return new(uint256.Int), nil
	}
	rate, err := s.rate.Get()
	if err != nil {
		return nil, err
	}
	reward, overflow := new(uint256.Int).MulOverflow(rate, uint256.NewInt(now-last))
	if overflow {
		return nil, errors.New("reward emission overflow")
	}

	balance, err := s.token.BalanceOf(s.addr)
	if err != nil {
		return nil, err
	}
	unclaimed, err := s.unclaimed.Get()
	if err != nil {
		return nil, err
	}
	available := new(uint256.Int)
	if balance.Gt(unclaimed) {
		available.Sub(balance, unclaimed)
	}
	if reward.Gt(available) {
		logger.Warn("reward emission exceeds funds", "wanted", reward, "available", available)
		reward = available
	}

	s.lastCalc.Set(now)
	if err := s.unclaimed.Add(reward); err != nil {
		return nil, err
	}
	return reward, nil
}

// ClaimRewards pays amount of calculated rewards to the staking contract.
func (s *Supplier) ClaimRewards(env *xenv.Environment, amount *uint256.Int) error {
	staking, err := s.staking.Get()
	if err != nil {
		return err
	}
	if env.Caller() != staking {
		return ErrOnlyStaking
	}
	if err := s.unclaimed.Sub(amount); err != nil {
		if errors.Is(err, solidity.ErrUnderflow) {
			return ErrInsufficientUnclaimed
		}
		return err
	}
	return s.token.Transfer(env.WithCaller(s.addr), staking, amount)
}

// Resolver binds supplier addresses to Supplier instances sharing one state.
type Resolver struct {
	state *state.State
	token Token
}

func NewResolver(state *state.State, token Token) *Resolver {
	return &Resolver{state, token}
}

func (r *Resolver) Supplier(addr ledger.Address) (*Supplier, error) {
	if addr.IsZero() {
		return nil, errors.New("zero supplier address")
	}
	return New(addr, r.state, r.token), nil
}
