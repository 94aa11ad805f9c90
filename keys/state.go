package keys

import (
	"github.com/tos-network/valreg/common"
	"github.com/tos-network/valreg/core/vm"
	"github.com/tos-network/valreg/kvstore"
	"github.com/tos-network/valreg/params"
)

// Per-owner binding fields live at kvstore.Slot(owner, field); the role index
// lives at kvstore.Slot(roleKey, "roleOwner"/"role").

func readStatus(db vm.StateDB, owner common.Address) BindingStatus {
	return BindingStatus(kvstore.ReadUint64(db, params.KeyRegistryAddress, kvstore.Slot(owner[:], "status")))
}

func writeStatus(db vm.StateDB, owner common.Address, s BindingStatus) {
	kvstore.WriteUint64(db, params.KeyRegistryAddress, kvstore.Slot(owner[:], "status"), uint64(s))
}

func readKey(db vm.StateDB, owner common.Address, role Role) common.Address {
	return kvstore.ReadAddress(db, params.KeyRegistryAddress, kvstore.Slot(owner[:], role.String()))
}

func writeKey(db vm.StateDB, owner common.Address, role Role, key common.Address) {
	kvstore.WriteAddress(db, params.KeyRegistryAddress, kvstore.Slot(owner[:], role.String()), key)
}

// readRoleIndex returns the owner and role key is bound to, RoleNone if unbound.
func readRoleIndex(db vm.StateDB, key common.Address) (common.Address, Role) {
	role := Role(kvstore.ReadUint64(db, params.KeyRegistryAddress, kvstore.Slot(key[:], "role")))
	if role == RoleNone {
		return common.Address{}, RoleNone
	}
	return kvstore.ReadAddress(db, params.KeyRegistryAddress, kvstore.Slot(key[:], "roleOwner")), role
}

func writeRoleIndex(db vm.StateDB, key, owner common.Address, role Role) {
	kvstore.WriteAddress(db, params.KeyRegistryAddress, kvstore.Slot(key[:], "roleOwner"), owner)
	kvstore.WriteUint64(db, params.KeyRegistryAddress, kvstore.Slot(key[:], "role"), uint64(role))
}
