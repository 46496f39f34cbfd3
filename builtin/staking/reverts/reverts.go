// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package reverts

import (
	"errors"
)

// Kind discriminates why an operation was rejected.
type Kind uint8

const (
	// Precondition covers caller identity, roles, pause state and uniqueness checks.
	Precondition Kind = iota + 1
	// Temporal covers acting before a window elapsed or on a missing intent.
	Temporal
	// Arithmetic covers overflow and unrepresentable index differences.
	Arithmetic
	// Invariant covers impossible states caused by a misbehaving collaborator.
	Invariant
)

func (k Kind) String() string {
	switch k {
	case Precondition:
		return "precondition"
	case Temporal:
		return "temporal"
	case Arithmetic:
		return "arithmetic"
	case Invariant:
		return "invariant"
	default:
		return "unknown"
	}
}

type ErrRevert struct {
	kind    Kind
	message string
}

func New(kind Kind, message string) *ErrRevert {
	return &ErrRevert{
		kind:    kind,
		message: message,
	}
}

func NewPrecondition(message string) *ErrRevert { return New(Precondition, message) }
func NewTemporal(message string) *ErrRevert     { return New(Temporal, message) }
func NewArithmetic(message string) *ErrRevert   { return New(Arithmetic, message) }
func NewInvariant(message string) *ErrRevert    { return New(Invariant, message) }

func (e *ErrRevert) Error() string {
	return e.message
}

func (e *ErrRevert) Kind() Kind {
	return e.kind
}

func IsRevertErr(err any) bool {
	if err == nil {
		return false
	}
	e, ok := err.(error)
	if !ok {
		return false
	}
	var ve *ErrRevert
	return errors.As(e, &ve)
}

// KindOf returns the kind of the revert wrapped in err, or 0 when err is not a revert.
func KindOf(err error) Kind {
	var ve *ErrRevert
	if errors.As(err, &ve) {
		return ve.kind
	}
	return 0
}
