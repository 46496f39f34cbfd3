// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package config

import (
	"os"

	"github.com/holiman/uint256"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/vechain/stakeledger/ledger"
)

// Amount is a token amount written as a decimal string in yaml.
type Amount struct {
	uint256.Int
}

// NewAmount returns v as an Amount.
func NewAmount(v uint64) *Amount {
	a := new(Amount)
	a.SetUint64(v)
	return a
}

// ParseAmount parses a decimal amount.
func ParseAmount(s string) (*Amount, error) {
	v, err := uint256.FromDecimal(s)
	if err != nil {
		return nil, errors.Wrapf(err, "parse amount %q", s)
	}
	return &Amount{*v}, nil
}

// Value returns the amount as a fresh *uint256.Int.
func (a *Amount) Value() *uint256.Int {
	if a == nil {
		return new(uint256.Int)
	}
	return a.Int.Clone()
}

func (a *Amount) UnmarshalYAML(node *yaml.Node) error {
	parsed, err := ParseAmount(node.Value)
	if err != nil {
		return err
	}
	*a = *parsed
	return nil
}

func (a Amount) MarshalYAML() (any, error) {
	return a.Dec(), nil
}

// Roles are the privileged identities of the staking contract.
type Roles struct {
	SecurityAdmin ledger.Address `yaml:"security-admin"`
	SecurityAgent ledger.Address `yaml:"security-agent"`
	AppGovernor   ledger.Address `yaml:"app-governor"`
}

// Account is a token allocation made at genesis.
type Account struct {
	Address ledger.Address `yaml:"address"`
	Balance *Amount        `yaml:"balance"`
}

// Config describes how a ledger is created.
type Config struct {
	GenesisTime    uint64         `yaml:"genesis-time"`
	MinStake       *Amount        `yaml:"min-stake"`
	ExitWaitWindow uint64         `yaml:"exit-wait-window"`
	RewardRate     *Amount        `yaml:"reward-rate"` // tokens emitted per second
	RewardSupplier ledger.Address `yaml:"reward-supplier"`
	SupplierFunds  *Amount        `yaml:"supplier-funds"`
	Roles          Roles          `yaml:"roles"`
	Accounts       []Account      `yaml:"accounts"`
}

// Default returns a config usable for local experiments. The caller still sets the roles.
func Default() *Config {
	return &Config{
		MinStake:       NewAmount(25_000),
		ExitWaitWindow: ledger.DefaultExitWaitWindow,
		RewardRate:     NewAmount(1_000_000),
		SupplierFunds:  &Amount{*new(uint256.Int).Exp(uint256.NewInt(10), uint256.NewInt(24))},
	}
}

// Load reads the config at path. Missing keys keep their default value.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read config")
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrap(err, "decode config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes cfg to path.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return errors.Wrap(err, "encode config")
	}
	return os.WriteFile(path, data, 0o600)
}

// Validate checks the values a ledger cannot be created with.
func (c *Config) Validate() error {
	if c.MinStake == nil || c.MinStake.IsZero() {
		return errors.New("min-stake must be positive")
	}
	if c.ExitWaitWindow > ledger.MaxExitWaitWindow {
		return errors.Errorf("exit-wait-window exceeds %v seconds", ledger.MaxExitWaitWindow)
	}
	if c.RewardRate == nil {
		return errors.New("reward-rate must be set")
	}
	for name, addr := range map[string]ledger.Address{
		"security-admin": c.Roles.SecurityAdmin,
		"security-agent": c.Roles.SecurityAgent,
		"app-governor":   c.Roles.AppGovernor,
	} {
		if addr.IsZero() {
			return errors.Errorf("roles: %v must be set", name)
		}
	}
	seen := make(map[ledger.Address]bool, len(c.Accounts))
	for _, a := range c.Accounts {
		if a.Address.IsZero() {
			return errors.New("accounts: zero address")
		}
		if seen[a.Address] {
			return errors.Errorf("accounts: %v allocated twice", a.Address)
		}
		seen[a.Address] = true
		if a.Balance == nil || a.Balance.IsZero() {
			return errors.Errorf("accounts: %v: balance must be a non-zero integer", a.Address)
		}
	}
	return nil
}
