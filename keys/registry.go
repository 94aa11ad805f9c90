package keys

import (
	mapset "github.com/deckarep/golang-set"
	"github.com/tos-network/valreg/common"
	"github.com/tos-network/valreg/core/vm"
	"github.com/tos-network/valreg/params"
)

// AddInitialKey authorizes owner to submit its key triple. Only the system
// owner named in cfg may call it.
func AddInitialKey(db vm.StateDB, cfg *params.RegistryConfig, caller, owner common.Address) error {
	if cfg == nil || caller != cfg.SystemOwner {
		return ErrUnauthorized
	}
	if owner == (common.Address{}) {
		return ErrInvalidKey
	}
	if readStatus(db, owner) != BindingNone {
		return ErrAlreadyInitialized
	}
	writeStatus(db, owner, BindingInitialized)
	return nil
}

// CreateKeys completes the caller's own binding with the given key triple.
// The three keys must be non-zero, pairwise distinct and not bound to any
// role of any binding.
func CreateKeys(db vm.StateDB, caller, mining, payout, voting common.Address) error {
	switch readStatus(db, caller) {
	case BindingNone:
		return ErrNotInitialized
	case BindingComplete:
		return ErrAlreadyComplete
	}
	triple := mapset.NewSet()
	for _, k := range []common.Address{mining, payout, voting} {
		if k == (common.Address{}) {
			return ErrInvalidKey
		}
		if _, role := readRoleIndex(db, k); role != RoleNone {
			return ErrKeyCollision
		}
		triple.Add(k)
	}
	if triple.Cardinality() != 3 {
		return ErrKeyCollision
	}

	writeKey(db, caller, RoleMining, mining)
	writeKey(db, caller, RolePayout, payout)
	writeKey(db, caller, RoleVoting, voting)
	writeRoleIndex(db, mining, caller, RoleMining)
	writeRoleIndex(db, payout, caller, RolePayout)
	writeRoleIndex(db, voting, caller, RoleVoting)
	writeStatus(db, caller, BindingComplete)
	return nil
}

// ResolveOwner returns the owner of the binding key belongs to and the role
// it plays there.
func ResolveOwner(db vm.StateDB, key common.Address) (common.Address, Role, error) {
	owner, role := readRoleIndex(db, key)
	if role == RoleNone {
		return common.Address{}, RoleNone, ErrNotFound
	}
	return owner, role, nil
}

// ReadBinding returns the binding of owner. ErrNotInitialized is returned
// when owner was never authorized.
func ReadBinding(db vm.StateDB, owner common.Address) (KeyBinding, error) {
	status := readStatus(db, owner)
	if status == BindingNone {
		return KeyBinding{}, ErrNotInitialized
	}
	b := KeyBinding{Owner: owner, Status: status}
	if status == BindingComplete {
		b.Mining = readKey(db, owner, RoleMining)
		b.Payout = readKey(db, owner, RolePayout)
		b.Voting = readKey(db, owner, RoleVoting)
	}
	return b, nil
}
