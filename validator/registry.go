package validator

import (
	"github.com/tos-network/valreg/common"
	"github.com/tos-network/valreg/core/vm"
	"github.com/tos-network/valreg/params"
)

// Upsert creates or overwrites the metadata of the validator identified by
// mining. A new record starts active with an empty extra field and is
// appended to the validator list; an update leaves the list untouched.
func Upsert(db vm.StateDB, caller, mining common.Address, md Metadata) (created bool, err error) {
	if caller != params.LifecycleManagerAddress {
		return false, ErrUnauthorized
	}
	if mining == (common.Address{}) {
		return false, ErrInvalidMetadata
	}
	if err := md.Validate(); err != nil {
		return false, err
	}
	created = !readExists(db, mining)

	writeMetadata(db, mining, md)
	if created {
		writeExists(db, mining)
		writeUint64(db, mining, "disablingDate", 0)
		writeString(db, mining, "extra", "")
		appendValidatorToList(db, mining)
	}
	return created, nil
}

// SetDisablingDate records when the validator leaves the active set. A zero
// timestamp puts it back.
func SetDisablingDate(db vm.StateDB, caller, mining common.Address, ts uint64) error {
	if caller != params.LifecycleManagerAddress {
		return ErrUnauthorized
	}
	if !readExists(db, mining) {
		return ErrNotFound
	}
	writeUint64(db, mining, "disablingDate", ts)
	return nil
}

// SeedGenesis writes the genesis validator record directly, bypassing the
// lifecycle manager. It does nothing if the record already exists.
func SeedGenesis(db vm.StateDB, owner common.Address) bool {
	if readExists(db, owner) {
		return false
	}
	writeExists(db, owner)
	appendValidatorToList(db, owner)
	return true
}

// Exists reports whether a record exists for mining.
func Exists(db vm.StateDB, mining common.Address) bool {
	return readExists(db, mining)
}

// GetValidators returns the mining keys of the active set in insertion order.
func GetValidators(db vm.StateDB) []common.Address {
	count := readValidatorCount(db)
	out := make([]common.Address, 0, count)
	for i := uint64(0); i < count; i++ {
		mining := readValidatorAt(db, i)
		if readUint64(db, mining, "disablingDate") == 0 {
			out = append(out, mining)
		}
	}
	return out
}

// AllValidators returns every mining key ever inserted, disabled ones
// included, in insertion order.
func AllValidators(db vm.StateDB) []common.Address {
	count := readValidatorCount(db)
	out := make([]common.Address, count)
	for i := uint64(0); i < count; i++ {
		out[i] = readValidatorAt(db, i)
	}
	return out
}

// Validator returns the full record of mining.
func Validator(db vm.StateDB, mining common.Address) (Record, error) {
	if !readExists(db, mining) {
		return Record{}, ErrNotFound
	}
	return Record{
		MiningKey:     mining,
		Metadata:      readMetadata(db, mining),
		DisablingDate: readUint64(db, mining, "disablingDate"),
		Extra:         readString(db, mining, "extra"),
	}, nil
}

func getUint64(db vm.StateDB, mining common.Address, field string) (uint64, error) {
	if !readExists(db, mining) {
		return 0, ErrNotFound
	}
	return readUint64(db, mining, field), nil
}

func getString(db vm.StateDB, mining common.Address, field string) (string, error) {
	if !readExists(db, mining) {
		return "", ErrNotFound
	}
	return readString(db, mining, field), nil
}

func GetValidatorZip(db vm.StateDB, mining common.Address) (uint64, error) {
	return getUint64(db, mining, FieldZip)
}

func GetValidatorLicenseExpiredAt(db vm.StateDB, mining common.Address) (uint64, error) {
	return getUint64(db, mining, FieldLicenseExpiredAt)
}

func GetValidatorLicenseID(db vm.StateDB, mining common.Address) (string, error) {
	return getString(db, mining, FieldLicenseID)
}

func GetValidatorFullName(db vm.StateDB, mining common.Address) (string, error) {
	return getString(db, mining, FieldFullName)
}

func GetValidatorStreetName(db vm.StateDB, mining common.Address) (string, error) {
	return getString(db, mining, FieldStreetName)
}

func GetValidatorState(db vm.StateDB, mining common.Address) (string, error) {
	return getString(db, mining, FieldState)
}

func GetValidatorDisablingDate(db vm.StateDB, mining common.Address) (uint64, error) {
	return getUint64(db, mining, "disablingDate")
}
