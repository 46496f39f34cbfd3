// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package pools

import (
	"github.com/holiman/uint256"
	"github.com/pkg/errors"

	"github.com/vechain/stakeledger/builtin/solidity"
	"github.com/vechain/stakeledger/builtin/staking/rewards"
	"github.com/vechain/stakeledger/ledger"
	"github.com/vechain/stakeledger/xenv"
)

var (
	slotStaker        = ledger.Slot("staker")
	slotRewardAddress = ledger.Slot("reward-address")
	slotCommission    = ledger.Slot("commission")
	slotFinalIndex    = ledger.Slot("final-staker-index")
	slotFinalized     = ledger.Slot("finalized")
	slotTotalActive   = ledger.Slot("total-active")
	slotRewardIndex   = ledger.Slot("reward-index")
	slotReserved      = ledger.Slot("reserved")
	slotMembers       = ledger.Slot("members")

	ErrPoolFinalized    = errors.New("pool is finalized")
	ErrPoolNotFinalized = errors.New("pool is not finalized")
	ErrAmountTooHigh    = errors.New("amount is too high")
	ErrAmountIsZero     = errors.New("amount is zero")
	ErrInvalidData      = errors.New("invalid member data")
	ErrSelfSwitch       = errors.New("cannot switch to the same pool")
)

// Member is the position of a delegator in a pool.
type Member struct {
	Amount    *uint256.Int // earning stake
	Pending   *uint256.Int // stake waiting to leave the pool
	Index     *uint256.Int // pool reward index Unclaimed is settled at
	Unclaimed *uint256.Int
}

func (m *Member) normalize() {
	for _, v := range []**uint256.Int{&m.Amount, &m.Pending, &m.Index, &m.Unclaimed} {
		if *v == nil {
			*v = new(uint256.Int)
		}
	}
}

// Pool binder of a delegation pool contract.
type Pool struct {
	addr     ledger.Address
	registry *Registry

	staker        *solidity.Address
	rewardAddress *solidity.Address
	commission    *solidity.Uint64
	finalIndex    *solidity.Uint256
	finalized     *solidity.Bool
	totalActive   *solidity.Uint256
	rewardIndex   *solidity.Uint256
	reserved      *solidity.Uint256
	members       *solidity.Mapping[ledger.Address, *Member]
}

func (r *Registry) bind(addr ledger.Address) *Pool {
	sctx := solidity.NewContext(addr, r.state)
	return &Pool{
		addr:          addr,
		registry:      r,
		staker:        solidity.NewAddress(sctx, slotStaker),
		rewardAddress: solidity.NewAddress(sctx, slotRewardAddress),
		commission:    solidity.NewUint64(sctx, slotCommission),
		finalIndex:    solidity.NewUint256(sctx, slotFinalIndex),
		finalized:     solidity.NewBool(sctx, slotFinalized),
		totalActive:   solidity.NewUint256(sctx, slotTotalActive),
		rewardIndex:   solidity.NewUint256(sctx, slotRewardIndex),
		reserved:      solidity.NewUint256(sctx, slotReserved),
		members:       solidity.NewMapping[ledger.Address, *Member](sctx, slotMembers),
	}
}

func (p *Pool) Address() ledger.Address { return p.addr }

func (p *Pool) Staker() (ledger.Address, error) { return p.staker.Get() }

func (p *Pool) RewardAddress() (ledger.Address, error) { return p.rewardAddress.Get() }

func (p *Pool) TotalActive() (*uint256.Int, error) { return p.totalActive.Get() }

func (p *Pool) Commission() (uint16, error) {
	c, err := p.commission.Get()
	return uint16(c), err
}

// FinalStakerIndex returns the staker index recorded when the staker exited, and whether it did.
func (p *Pool) FinalStakerIndex() (*uint256.Int, bool, error) {
	finalized, err := p.finalized.Get()
	if err != nil {
		return nil, false, err
	}
	index, err := p.finalIndex.Get()
	if err != nil {
		return nil, false, err
	}
	return index, finalized, nil
}

// Member returns the position of delegator with rewards settled up to the pool reward index.
func (p *Pool) Member(delegator ledger.Address) (*Member, error) {
	return p.loadMember(delegator)
}

// Identifier is the key the pool raises staking intents of delegator under.
func Identifier(delegator ledger.Address) ledger.Bytes32 {
	return ledger.BytesToBytes32(delegator.Bytes())
}

func (p *Pool) env(env *xenv.Environment) *xenv.Environment {
	return env.WithCaller(p.addr)
}

func (p *Pool) requireStaking(env *xenv.Environment) error {
	addr, err := p.registry.stakingAddress()
	if err != nil {
		return err
	}
	if env.Caller() != addr {
		return ErrOnlyStaking
	}
	return nil
}

func (p *Pool) requireActive() error {
	finalized, err := p.finalized.Get()
	if err != nil {
		return err
	}
	if finalized {
		return ErrPoolFinalized
	}
	return nil
}

func (p *Pool) accrue(m *Member) error {
	index, err := p.rewardIndex.Get()
	if err != nil {
		return err
	}
	interest, err := rewards.Interest(index, m.Index)
	if err != nil {
		return err
	}
	reward, err := rewards.OwnRewards(m.Amount, interest)
	if err != nil {
		return err
	}
	m.Unclaimed = new(uint256.Int).Add(m.Unclaimed, reward)
	m.Index = index
	return nil
}

func (p *Pool) loadMember(delegator ledger.Address) (*Member, error) {
	m, err := p.members.Get(delegator)
	if err != nil {
		return nil, err
	}
	m.normalize()
	return m, p.accrue(m)
}

func (p *Pool) saveMember(delegator ledger.Address, m *Member) error {
	if m.Amount.IsZero() && m.Pending.IsZero() && m.Unclaimed.IsZero() {
		p.members.Delete(delegator)
		return nil
	}
	return p.members.Set(delegator, m)
}

// distribute shares the tokens the pool holds beyond what it owes among active members.
// held is the part of the balance that is principal in transit.
func (p *Pool) distribute(held *uint256.Int) error {
	balance, err := p.registry.token.BalanceOf(p.addr)
	if err != nil {
		return err
	}
	reserved, err := p.reserved.Get()
	if err != nil {
		return err
	}
	owed := new(uint256.Int).Add(reserved, held)
	if !balance.Gt(owed) {
		return nil
	}
	total, err := p.totalActive.Get()
	if err != nil || total.IsZero() {
		return err
	}
	received := new(uint256.Int).Sub(balance, owed)
	diff, err := rewards.IndexDiff(received, total)
	if err != nil {
		return err
	}
	if diff.IsZero() {
		return nil
	}
	credited, err := rewards.OwnRewards(total, diff)
	if err != nil {
		return err
	}
	index, err := p.rewardIndex.Get()
	if err != nil {
		return err
	}
	if _, overflow := index.AddOverflow(index, diff); overflow {
		return rewards.ErrOverflow
	}
	p.rewardIndex.Set(index)
	p.reserved.Set(new(uint256.Int).Add(reserved, credited))

	logger.Debug("pool rewards distributed", "pool", p.addr, "received", received, "credited", credited)
	return nil
}

// claim collects the pending pool rewards from the staking contract.
func (p *Pool) claim(env *xenv.Environment) error {
	staker, err := p.staker.Get()
	if err != nil {
		return err
	}
	if _, err := p.registry.staking.ClaimDelegationPoolRewards(p.env(env), staker); err != nil {
		return errors.WithMessage(err, "claim pool rewards")
	}
	return p.distribute(new(uint256.Int))
}

//
// Staking contract callbacks
//

// SetFinalStakerIndex is called by the staking contract once the staker exited, after it returned
// the delegated stake and the last rewards to the pool.
func (p *Pool) SetFinalStakerIndex(env *xenv.Environment, index *uint256.Int) error {
	if err := p.requireStaking(env); err != nil {
		return err
	}
	if err := p.requireActive(); err != nil {
		return err
	}
	total, err := p.totalActive.Get()
	if err != nil {
		return err
	}
	if err := p.distribute(total); err != nil {
		return err
	}
	if err := p.reserved.Add(total); err != nil {
		return err
	}
	p.finalIndex.Set(index)
	p.finalized.Set(true)
	return nil
}

// UpdateCommissionFromStakingContract records the commission the staker takes.
func (p *Pool) UpdateCommissionFromStakingContract(env *xenv.Environment, commission uint16) error {
	if err := p.requireStaking(env); err != nil {
		return err
	}
	p.commission.Set(uint64(commission))
	return nil
}

// EnterDelegationPoolFromStakingContract credits amount switched in from another pool to the
// member encoded in data.
func (p *Pool) EnterDelegationPoolFromStakingContract(env *xenv.Environment, amount, _ *uint256.Int, data []byte) error {
	if err := p.requireStaking(env); err != nil {
		return err
	}
	if len(data) != len(ledger.Address{}) {
		return ErrInvalidData
	}
	if err := p.distribute(new(uint256.Int)); err != nil {
		return err
	}
	delegator := ledger.BytesToAddress(data)
	m, err := p.loadMember(delegator)
	if err != nil {
		return err
	}
	m.Amount = new(uint256.Int).Add(m.Amount, amount)
	if err := p.totalActive.Add(amount); err != nil {
		return err
	}
	return p.saveMember(delegator, m)
}

//
// Member operations
//

// Enter stakes amount of the caller's tokens through the pool. The caller must have approved the pool.
func (p *Pool) Enter(env *xenv.Environment, amount *uint256.Int) error {
	delegator := env.Caller()
	logger.Debug("entering pool", "pool", p.addr, "delegator", delegator, "amount", amount)

	return p.registry.atomic("enter", func() error {
		if amount.IsZero() {
			return ErrAmountIsZero
		}
		if err := p.requireActive(); err != nil {
			return err
		}
		if err := p.claim(env); err != nil {
			return err
		}
		m, err := p.loadMember(delegator)
		if err != nil {
			return err
		}

		poolEnv := p.env(env)
		if err := p.registry.token.TransferFrom(poolEnv, delegator, p.addr, amount); err != nil {
			return err
		}
		if err := p.registry.token.Approve(poolEnv, p.registry.staking.Address(), amount); err != nil {
			return err
		}
		staker, err := p.staker.Get()
		if err != nil {
			return err
		}
		if _, err := p.registry.staking.AddStakeFromPool(poolEnv, staker, amount); err != nil {
			return errors.WithMessage(err, "add stake from pool")
		}

		m.Amount = new(uint256.Int).Add(m.Amount, amount)
		if err := p.totalActive.Add(amount); err != nil {
			return err
		}
		return p.saveMember(delegator, m)
	})
}

// ExitIntent asks for amount of the caller's stake to leave the pool. It replaces the previous
// intent of the caller. It returns the time the amount may be collected by ExitAction.
func (p *Pool) ExitIntent(env *xenv.Environment, amount *uint256.Int) (uint64, error) {
	delegator := env.Caller()
	logger.Debug("pool exit intent", "pool", p.addr, "delegator", delegator, "amount", amount)

	var unpoolTime uint64
	err := p.registry.atomic("exit_intent", func() error {
		if err := p.requireActive(); err != nil {
			return err
		}
		if err := p.claim(env); err != nil {
			return err
		}
		m, err := p.loadMember(delegator)
		if err != nil {
			return err
		}
		total := new(uint256.Int).Add(m.Amount, m.Pending)
		if amount.Gt(total) {
			return ErrAmountTooHigh
		}

		staker, err := p.staker.Get()
		if err != nil {
			return err
		}
		unpoolTime, err = p.registry.staking.RemoveFromDelegationPoolIntent(p.env(env), staker, Identifier(delegator), amount)
		if err != nil {
			return errors.WithMessage(err, "remove from delegation pool intent")
		}

		active, err := p.totalActive.Get()
		if err != nil {
			return err
		}
		active.Add(active, m.Pending)
		active.Sub(active, amount)
		p.totalActive.Set(active)

		m.Amount = new(uint256.Int).Sub(total, amount)
		m.Pending = amount.Clone()
		return p.saveMember(delegator, m)
	})
	if err != nil {
		return 0, err
	}
	return unpoolTime, nil
}

// ExitAction collects the stake of the caller's intent once due and sends it to the caller.
func (p *Pool) ExitAction(env *xenv.Environment) (*uint256.Int, error) {
	delegator := env.Caller()
	logger.Debug("pool exit action", "pool", p.addr, "delegator", delegator)

	var amount *uint256.Int
	err := p.registry.atomic("exit_action", func() error {
		poolEnv := p.env(env)
		var err error
		amount, err = p.registry.staking.RemoveFromDelegationPoolAction(poolEnv, Identifier(delegator))
		if err != nil {
			return errors.WithMessage(err, "remove from delegation pool action")
		}
		if amount.IsZero() {
			return nil
		}
		m, err := p.loadMember(delegator)
		if err != nil {
			return err
		}
		if m.Pending.Lt(amount) {
			return ErrAmountTooHigh
		}
		m.Pending = new(uint256.Int).Sub(m.Pending, amount)
		if err := p.saveMember(delegator, m); err != nil {
			return err
		}
		return p.registry.token.Transfer(poolEnv, delegator, amount)
	})
	if err != nil {
		return nil, err
	}
	return amount, nil
}

// Switch moves amount of the caller's pending exit into the pool toPool without leaving the staking contract.
func (p *Pool) Switch(env *xenv.Environment, toPool ledger.Address, amount *uint256.Int) error {
	delegator := env.Caller()
	logger.Debug("switching pool", "pool", p.addr, "toPool", toPool, "delegator", delegator, "amount", amount)

	return p.registry.atomic("switch", func() error {
		if toPool == p.addr {
			return ErrSelfSwitch
		}
		toStaker, err := p.registry.StakerOf(toPool)
		if err != nil {
			return err
		}
		if toStaker.IsZero() {
			return ErrPoolNotFound
		}
		m, err := p.loadMember(delegator)
		if err != nil {
			return err
		}
		if m.Pending.Lt(amount) {
			return ErrAmountTooHigh
		}
		m.Pending = new(uint256.Int).Sub(m.Pending, amount)
		if err := p.saveMember(delegator, m); err != nil {
			return err
		}

		switched, err := p.registry.staking.SwitchStakingDelegationPool(
			p.env(env), toStaker, toPool, amount, delegator.Bytes(), Identifier(delegator))
		if err != nil {
			return errors.WithMessage(err, "switch staking delegation pool")
		}
		if !switched {
			return ErrAmountIsZero
		}
		return nil
	})
}

// ClaimRewards collects the pool rewards from the staking contract and pays the caller's share.
func (p *Pool) ClaimRewards(env *xenv.Environment) (*uint256.Int, error) {
	delegator := env.Caller()

	var amount *uint256.Int
	err := p.registry.atomic("claim_rewards", func() error {
		finalized, err := p.finalized.Get()
		if err != nil {
			return err
		}
		if !finalized {
			if err := p.claim(env); err != nil {
				return err
			}
		}
		m, err := p.loadMember(delegator)
		if err != nil {
			return err
		}
		amount = m.Unclaimed
		if amount.IsZero() {
			return nil
		}
		m.Unclaimed = new(uint256.Int)
		if err := p.reserved.Sub(amount); err != nil {
			return err
		}
		if err := p.saveMember(delegator, m); err != nil {
			return err
		}
		return p.registry.token.Transfer(p.env(env), delegator, amount)
	})
	if err != nil {
		return nil, err
	}
	return amount, nil
}

// Withdraw returns the active stake and rewards of the caller once the staker exited.
func (p *Pool) Withdraw(env *xenv.Environment) (*uint256.Int, error) {
	delegator := env.Caller()

	var amount *uint256.Int
	err := p.registry.atomic("withdraw", func() error {
		finalized, err := p.finalized.Get()
		if err != nil {
			return err
		}
		if !finalized {
			return ErrPoolNotFinalized
		}
		m, err := p.loadMember(delegator)
		if err != nil {
			return err
		}
		amount = new(uint256.Int).Add(m.Amount, m.Unclaimed)
		if amount.IsZero() {
			return nil
		}
		if err := p.reserved.Sub(amount); err != nil {
			return err
		}
		if err := p.totalActive.Sub(m.Amount); err != nil {
			return err
		}
		m.Amount = new(uint256.Int)
		m.Unclaimed = new(uint256.Int)
		if err := p.saveMember(delegator, m); err != nil {
			return err
		}
		return p.registry.token.Transfer(p.env(env), delegator, amount)
	})
	if err != nil {
		return nil, err
	}
	return amount, nil
}
