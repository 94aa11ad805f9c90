// Package keys binds validator applicants to their mining, payout and voting
// keys. Bindings live in state under params.KeyRegistryAddress.
package keys

import (
	"errors"

	"github.com/tos-network/valreg/common"
)

// BindingStatus is the lifecycle state of a key binding.
type BindingStatus uint8

const (
	// BindingNone means the owner was never authorized.
	BindingNone BindingStatus = 0
	// BindingInitialized means the system owner authorized the owner, and
	// exactly one CreateKeys call is now allowed.
	BindingInitialized BindingStatus = 1
	// BindingComplete means all three role keys are set. Immutable.
	BindingComplete BindingStatus = 2
)

func (s BindingStatus) String() string {
	switch s {
	case BindingNone:
		return "none"
	case BindingInitialized:
		return "initialized"
	case BindingComplete:
		return "complete"
	}
	return "unknown"
}

// Role identifies which of the three keys of a binding an address is.
type Role uint8

const (
	RoleNone   Role = 0
	RoleMining Role = 1
	RolePayout Role = 2
	RoleVoting Role = 3
)

func (r Role) String() string {
	switch r {
	case RoleMining:
		return "mining"
	case RolePayout:
		return "payout"
	case RoleVoting:
		return "voting"
	}
	return "none"
}

// KeyBinding is the key triple bound to one owner.
type KeyBinding struct {
	Owner  common.Address `json:"owner"`
	Mining common.Address `json:"mining"`
	Payout common.Address `json:"payout"`
	Voting common.Address `json:"voting"`
	Status BindingStatus  `json:"status"`
}

// Complete reports whether all three role keys are bound.
func (b KeyBinding) Complete() bool {
	return b.Status == BindingComplete
}

// Sentinel errors returned by the key registry.
var (
	ErrUnauthorized       = errors.New("keys: caller is not the system owner")
	ErrAlreadyInitialized = errors.New("keys: owner already initialized")
	ErrNotInitialized     = errors.New("keys: owner not initialized")
	ErrAlreadyComplete    = errors.New("keys: binding already complete")
	ErrKeyCollision       = errors.New("keys: key already bound")
	ErrInvalidKey         = errors.New("keys: zero address is not a valid key")
	ErrNotFound           = errors.New("keys: key not bound")
)
