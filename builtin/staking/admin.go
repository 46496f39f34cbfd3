// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staking

import (
	"github.com/holiman/uint256"

	"github.com/vechain/stakeledger/builtin/staking/access"
	"github.com/vechain/stakeledger/ledger"
	"github.com/vechain/stakeledger/xenv"
)

func (s *Staking) requireRole(env *xenv.Environment, role access.Role, denied error) error {
	ok, err := s.accessService.HasRole(role, env.Caller())
	if err != nil {
		return err
	}
	if !ok {
		return denied
	}
	return nil
}

// Pause stops every mutating entry point. Only the security agent may pause.
func (s *Staking) Pause(env *xenv.Environment) error {
	logger.Debug("pausing", "caller", env.Caller())

	return s.run("pause", func() error {
		if err := s.requireRole(env, access.SecurityAgent, ErrOnlySecurityAgent); err != nil {
			return err
		}
		paused, err := s.accessService.IsPaused()
		if err != nil || paused {
			return err
		}
		s.accessService.SetPaused(true)
		s.emit(env, EventPaused, env.Caller(), "account", env.Caller())
		return nil
	})
}

// Unpause resumes operations. Only the security admin may unpause.
func (s *Staking) Unpause(env *xenv.Environment) error {
	logger.Debug("unpausing", "caller", env.Caller())

	return s.run("unpause", func() error {
		if err := s.requireRole(env, access.SecurityAdmin, ErrOnlySecurityAdmin); err != nil {
			return err
		}
		paused, err := s.accessService.IsPaused()
		if err != nil || !paused {
			return err
		}
		s.accessService.SetPaused(false)
		s.emit(env, EventUnpaused, env.Caller(), "account", env.Caller())
		return nil
	})
}

// SetMinStake sets the least amount a new staker must stake.
func (s *Staking) SetMinStake(env *xenv.Environment, minStake *uint256.Int) error {
	logger.Debug("setting min stake", "caller", env.Caller(), "minStake", minStake)

	return s.run("set_min_stake", func() error {
		if err := s.requireRole(env, access.AppGovernor, ErrOnlyAppGovernor); err != nil {
			return err
		}
		old, err := s.minStake()
		if err != nil {
			return err
		}
		s.params.Set(ledger.KeyMinStake, minStake)
		s.emit(env, EventMinimumStakeChanged, s.addr,
			"oldMinStake", old,
			"newMinStake", minStake,
		)
		return nil
	})
}

// SetExitWaitWindow sets the delay between an exit intent and its completion, capped by MaxExitWaitWindow.
func (s *Staking) SetExitWaitWindow(env *xenv.Environment, window uint64) error {
	logger.Debug("setting exit wait window", "caller", env.Caller(), "window", window)

	return s.run("set_exit_wait_window", func() error {
		if err := s.requireRole(env, access.AppGovernor, ErrOnlyAppGovernor); err != nil {
			return err
		}
		if window > ledger.MaxExitWaitWindow {
			return ErrIllegalExitDuration
		}
		old, err := s.exitWaitWindow()
		if err != nil {
			return err
		}
		s.params.Set(ledger.KeyExitWaitWindow, uint256.NewInt(window))
		s.emit(env, EventExitWaitWindowChanged, s.addr,
			"oldExitWindow", old,
			"newExitWindow", window,
		)
		return nil
	})
}

// SetRewardSupplier sets the contract rewards are pulled from.
func (s *Staking) SetRewardSupplier(env *xenv.Environment, supplier ledger.Address) error {
	logger.Debug("setting reward supplier", "caller", env.Caller(), "supplier", supplier)

	return s.run("set_reward_supplier", func() error {
		if err := s.requireRole(env, access.AppGovernor, ErrOnlyAppGovernor); err != nil {
			return err
		}
		if supplier.IsZero() {
			return ErrZeroAddress
		}
		old, err := s.params.GetAddress(ledger.KeyRewardSupplier)
		if err != nil {
			return err
		}
		s.params.SetAddress(ledger.KeyRewardSupplier, supplier)
		s.emit(env, EventRewardSupplierChanged, s.addr,
			"oldRewardSupplier", old,
			"newRewardSupplier", supplier,
		)
		return nil
	})
}

// UpdateGlobalIndexIfNeeded advances the global index when due and reports whether it did.
func (s *Staking) UpdateGlobalIndexIfNeeded(env *xenv.Environment) (bool, error) {
	var updated bool
	err := s.run("update_global_index_if_needed", func() error {
		paused, err := s.accessService.IsPaused()
		if err != nil {
			return err
		}
		if paused {
			return ErrPaused
		}
		updated, err = s.maybeUpdateIndex(env)
		return err
	})
	return updated, err
}
