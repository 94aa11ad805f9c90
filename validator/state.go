package validator

import (
	"github.com/tos-network/valreg/common"
	"github.com/tos-network/valreg/core/vm"
	"github.com/tos-network/valreg/kvstore"
	"github.com/tos-network/valreg/params"
)

// listName keys the append-only list of every mining key ever inserted.
// Disabled validators stay in the list; disablingDate is the tombstone.
const listName = "validators"

var validatorCountSlot = kvstore.Slot([]byte(listName), "count")

// validatorSlot returns the slot of a per-validator field.
func validatorSlot(mining common.Address, field string) common.Hash {
	return kvstore.Slot(mining[:], field)
}

func readUint64(db vm.StateDB, mining common.Address, field string) uint64 {
	return kvstore.ReadUint64(db, params.ValidatorRegistryAddress, validatorSlot(mining, field))
}

func writeUint64(db vm.StateDB, mining common.Address, field string, n uint64) {
	kvstore.WriteUint64(db, params.ValidatorRegistryAddress, validatorSlot(mining, field), n)
}

func readString(db vm.StateDB, mining common.Address, field string) string {
	return kvstore.ReadString(db, params.ValidatorRegistryAddress, validatorSlot(mining, field))
}

func writeString(db vm.StateDB, mining common.Address, field, s string) {
	kvstore.WriteString(db, params.ValidatorRegistryAddress, validatorSlot(mining, field), s)
}

func readExists(db vm.StateDB, mining common.Address) bool {
	return kvstore.ReadBool(db, params.ValidatorRegistryAddress, validatorSlot(mining, "exists"))
}

func writeExists(db vm.StateDB, mining common.Address) {
	kvstore.WriteBool(db, params.ValidatorRegistryAddress, validatorSlot(mining, "exists"), true)
}

func readValidatorCount(db vm.StateDB) uint64 {
	return kvstore.ReadUint64(db, params.ValidatorRegistryAddress, validatorCountSlot)
}

func readValidatorAt(db vm.StateDB, i uint64) common.Address {
	return kvstore.ReadAddress(db, params.ValidatorRegistryAddress, kvstore.IndexSlot(listName, i))
}

func appendValidatorToList(db vm.StateDB, mining common.Address) {
	n := readValidatorCount(db)
	kvstore.WriteAddress(db, params.ValidatorRegistryAddress, kvstore.IndexSlot(listName, n), mining)
	kvstore.WriteUint64(db, params.ValidatorRegistryAddress, validatorCountSlot, n+1)
}

func writeMetadata(db vm.StateDB, mining common.Address, md Metadata) {
	writeUint64(db, mining, FieldZip, md.Zip)
	writeUint64(db, mining, FieldLicenseExpiredAt, md.LicenseExpiredAt)
	writeString(db, mining, FieldLicenseID, md.LicenseID)
	writeString(db, mining, FieldFullName, md.FullName)
	writeString(db, mining, FieldStreetName, md.StreetName)
	writeString(db, mining, FieldState, md.State)
}

func readMetadata(db vm.StateDB, mining common.Address) Metadata {
	return Metadata{
		Zip:              readUint64(db, mining, FieldZip),
		LicenseExpiredAt: readUint64(db, mining, FieldLicenseExpiredAt),
		LicenseID:        readString(db, mining, FieldLicenseID),
		FullName:         readString(db, mining, FieldFullName),
		StreetName:       readString(db, mining, FieldStreetName),
		State:            readString(db, mining, FieldState),
	}
}
