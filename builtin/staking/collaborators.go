// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staking

import (
	"github.com/holiman/uint256"

	"github.com/vechain/stakeledger/ledger"
	"github.com/vechain/stakeledger/xenv"
)

// Token moves the staked asset. The spender of TransferFrom and the sender of Transfer
// are the caller of env. Both must fail on insufficient balance or allowance.
type Token interface {
	BalanceOf(addr ledger.Address) (*uint256.Int, error)
	Transfer(env *xenv.Environment, to ledger.Address, amount *uint256.Int) error
	TransferFrom(env *xenv.Environment, from, to ledger.Address, amount *uint256.Int) error
}

// RewardSupplier streams newly minted rewards to the staking contract.
type RewardSupplier interface {
	// CalculateStakingRewards returns the rewards that became distributable since the previous call.
	CalculateStakingRewards(now uint64) (*uint256.Int, error)
	// ClaimRewards transfers amount to the caller of env.
	ClaimRewards(env *xenv.Environment, amount *uint256.Int) error
}

// SupplierResolver binds the configured reward supplier address to an implementation.
type SupplierResolver interface {
	Supplier(addr ledger.Address) (RewardSupplier, error)
}

// DelegationPool is the satellite ledger a staker may sponsor. Every callback is made
// with the staking contract as caller.
type DelegationPool interface {
	SetFinalStakerIndex(env *xenv.Environment, index *uint256.Int) error
	UpdateCommissionFromStakingContract(env *xenv.Environment, commission uint16) error
	EnterDelegationPoolFromStakingContract(env *xenv.Environment, amount, index *uint256.Int, data []byte) error
}

// PoolFactory deploys delegation pools and resolves them by address.
type PoolFactory interface {
	DeployPool(env *xenv.Environment, staker, rewardAddress ledger.Address, commission uint16) (ledger.Address, error)
	Pool(addr ledger.Address) (DelegationPool, error)
}

// EventSink receives the events of every successful outermost operation.
type EventSink interface {
	HandleEvents(events []*Event) error
}
