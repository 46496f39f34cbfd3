// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package pools implements the delegation pools stakers may open, and the factory deploying them.
// A pool holds the stake of its members inside the staking contract, and shares the pool
// rewards among them pro rata.
package pools

import (
	"encoding/binary"

	"github.com/holiman/uint256"
	"github.com/pkg/errors"

	"github.com/vechain/stakeledger/builtin/solidity"
	"github.com/vechain/stakeledger/ledger"
	"github.com/vechain/stakeledger/log"
	"github.com/vechain/stakeledger/state"
	"github.com/vechain/stakeledger/xenv"
)

var (
	logger = log.WithContext("pkg", "pools")

	slotNonce      = ledger.Slot("nonce")
	slotPoolStaker = ledger.Slot("pool-staker")

	ErrOnlyStaking     = errors.New("caller is not the staking contract")
	ErrPoolNotFound    = errors.New("pool not found")
	ErrStakingNotBound = errors.New("staking contract not bound")
)

// Token is the part of the token contract pools move funds with.
type Token interface {
	BalanceOf(addr ledger.Address) (*uint256.Int, error)
	Approve(env *xenv.Environment, spender ledger.Address, amount *uint256.Int) error
	Transfer(env *xenv.Environment, to ledger.Address, amount *uint256.Int) error
	TransferFrom(env *xenv.Environment, from, to ledger.Address, amount *uint256.Int) error
}

// Staking is the pool facing side of the staking contract.
type Staking interface {
	Address() ledger.Address
	AddStakeFromPool(env *xenv.Environment, staker ledger.Address, amount *uint256.Int) (*uint256.Int, error)
	RemoveFromDelegationPoolIntent(env *xenv.Environment, staker ledger.Address, identifier ledger.Bytes32, amount *uint256.Int) (uint64, error)
	RemoveFromDelegationPoolAction(env *xenv.Environment, identifier ledger.Bytes32) (*uint256.Int, error)
	SwitchStakingDelegationPool(env *xenv.Environment, toStaker, toPool ledger.Address, amount *uint256.Int, data []byte, identifier ledger.Bytes32) (bool, error)
	ClaimDelegationPoolRewards(env *xenv.Environment, staker ledger.Address) (*uint256.Int, error)
	Atomic(op string, fn func() error) error
}

// Registry is the pool factory contract.
type Registry struct {
	addr    ledger.Address
	state   *state.State
	token   Token
	staking Staking

	nonce      *solidity.Uint64
	poolStaker *solidity.Mapping[ledger.Address, ledger.Address]
}

func New(addr ledger.Address, state *state.State, token Token) *Registry {
	sctx := solidity.NewContext(addr, state)
	return &Registry{
		addr:       addr,
		state:      state,
		token:      token,
		nonce:      solidity.NewUint64(sctx, slotNonce),
		poolStaker: solidity.NewMapping[ledger.Address, ledger.Address](sctx, slotPoolStaker),
	}
}

func (r *Registry) Address() ledger.Address {
	return r.addr
}

// Bind sets the staking contract pools report to.
func (r *Registry) Bind(staking Staking) {
	r.staking = staking
}

func (r *Registry) stakingAddress() (ledger.Address, error) {
	if r.staking == nil {
		return ledger.Address{}, ErrStakingNotBound
	}
	return r.staking.Address(), nil
}

// PoolAddress derives the address of the pool deployed for staker with nonce.
func PoolAddress(staker ledger.Address, nonce uint64) ledger.Address {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], nonce)
	return ledger.BytesToAddress(ledger.Blake2b(staker.Bytes(), b[:]).Bytes())
}

// DeployPool creates the pool of staker. Only the staking contract may deploy.
func (r *Registry) DeployPool(env *xenv.Environment, staker, rewardAddress ledger.Address, commission uint16) (ledger.Address, error) {
	stakingAddr, err := r.stakingAddress()
	if err != nil {
		return ledger.Address{}, err
	}
	if env.Caller() != stakingAddr {
		return ledger.Address{}, ErrOnlyStaking
	}
	nonce, err := r.nonce.Get()
	if err != nil {
		return ledger.Address{}, err
	}
	addr := PoolAddress(staker, nonce)
	r.nonce.Set(nonce + 1)

	if err := r.poolStaker.Set(addr, staker); err != nil {
		return ledger.Address{}, errors.Wrap(err, "register pool")
	}
	pool := r.bind(addr)
	pool.staker.Set(&staker)
	pool.rewardAddress.Set(&rewardAddress)
	pool.commission.Set(uint64(commission))

	logger.Debug("pool deployed", "pool", addr, "staker", staker, "commission", commission)
	return addr, nil
}

// StakerOf returns the staker sponsoring pool, zero when pool is unknown.
func (r *Registry) StakerOf(pool ledger.Address) (ledger.Address, error) {
	return r.poolStaker.Get(pool)
}

// Pool returns the deployed pool at addr.
func (r *Registry) Pool(addr ledger.Address) (*Pool, error) {
	staker, err := r.StakerOf(addr)
	if err != nil {
		return nil, err
	}
	if staker.IsZero() {
		return nil, ErrPoolNotFound
	}
	return r.bind(addr), nil
}

// atomic runs the member operation op, reverting every state change on error.
// Within a bound staking contract, events of the staking calls fn makes are kept only on success.
func (r *Registry) atomic(op string, fn func() error) error {
	checkpoint := r.state.NewCheckpoint()
	run := fn
	if r.staking != nil {
		run = func() error { return r.staking.Atomic("pool_"+op, fn) }
	}
	if err := run(); err != nil {
		r.state.RevertTo(checkpoint)
		return err
	}
	return nil
}
