// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package ledger

import (
	"github.com/holiman/uint256"
)

// Constants of the staking ledger.
const (
	CommissionDenominator uint16 = 10000 // commission is expressed in parts per 10000

	MinTimeBetweenIndexUpdates uint64 = 60               // (unit: second) the global index is advanced at most once per interval
	DefaultExitWaitWindow      uint64 = 21 * 24 * 60 * 60 // 3 weeks
	MaxExitWaitWindow          uint64 = 12 * 7 * 24 * 60 * 60
)

// IndexBase is the fixed point base of the global reward index (10^28).
var IndexBase = uint256.MustFromDecimal("10000000000000000000000000000")

// Slot derives a storage slot from a readable name.
func Slot(name string) Bytes32 {
	return BytesToBytes32([]byte(name))
}

// Keys of governance params.
var (
	KeyMinStake       = Slot("min-stake")
	KeyExitWaitWindow = Slot("exit-wait-window")
	KeyRewardSupplier = Slot("reward-supplier")
	KeyPoolFactory    = Slot("pool-factory")
	KeyToken          = Slot("token")
)
