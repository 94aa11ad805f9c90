// Package lifecycle decides who may create or change a validator record and
// when. It is the only writer of the validator registry: every write goes
// through validator.Upsert or validator.SetDisablingDate under
// params.LifecycleManagerAddress, after the real sender has been authorized
// against the key registry.
package lifecycle

import (
	"errors"
	"fmt"

	"github.com/tos-network/valreg/common"
	"github.com/tos-network/valreg/core/vm"
	"github.com/tos-network/valreg/keys"
	"github.com/tos-network/valreg/kvstore"
	"github.com/tos-network/valreg/params"
	"github.com/tos-network/valreg/validator"
)

// Sentinel errors returned by the lifecycle manager.
var (
	ErrUnauthorized      = errors.New("lifecycle: caller not authorized for validator")
	ErrAlreadyRegistered = errors.New("lifecycle: validator already registered")
	ErrNotRegistered     = errors.New("lifecycle: validator not registered")
	ErrFieldFixed        = errors.New("lifecycle: field is fixed at ceremony")
	ErrOwnerDisabled     = errors.New("lifecycle: disabling date set by system owner")
)

// InsertFromCeremony admits the caller's own freshly bound mining key as a
// validator. The caller must own a complete binding whose mining key is
// mining.
func InsertFromCeremony(db vm.StateDB, caller, mining common.Address, md validator.Metadata) error {
	binding, err := keys.ReadBinding(db, caller)
	if err != nil || !binding.Complete() || binding.Mining != mining {
		return ErrUnauthorized
	}
	if validator.Exists(db, mining) {
		return ErrAlreadyRegistered
	}
	if err := md.Validate(); err != nil {
		return err
	}
	_, err = validator.Upsert(db, params.LifecycleManagerAddress, mining, md)
	return err
}

// UpsertFromGovernance overwrites the metadata of an existing validator. Only
// the voting key bound to mining may call it. The names of the fields that
// actually changed are returned.
func UpsertFromGovernance(db vm.StateDB, cfg *params.RegistryConfig, caller, mining common.Address, md validator.Metadata) ([]string, error) {
	if !isVotingKeyOf(db, caller, mining) {
		return nil, ErrUnauthorized
	}
	current, err := validator.Validator(db, mining)
	if err != nil {
		return nil, ErrNotRegistered
	}
	if err := md.Validate(); err != nil {
		return nil, err
	}
	changed := current.Metadata.Diff(md)
	if err := checkPolicy(cfg.Policy(), changed); err != nil {
		return nil, err
	}
	if _, err := validator.Upsert(db, params.LifecycleManagerAddress, mining, md); err != nil {
		return nil, err
	}
	return changed, nil
}

// SetDisablingDate takes a validator out of the active set from ts on, or
// puts it back when ts is zero. The system owner and the validator's voting
// key may call it, but a date set by the system owner can only be changed or
// cleared by the system owner. The previous disabling date is returned.
func SetDisablingDate(db vm.StateDB, cfg *params.RegistryConfig, caller, mining common.Address, ts uint64) (uint64, error) {
	byOwner := cfg != nil && caller == cfg.SystemOwner
	if !byOwner && !isVotingKeyOf(db, caller, mining) {
		return 0, ErrUnauthorized
	}
	prev, err := validator.GetValidatorDisablingDate(db, mining)
	if err != nil {
		return 0, ErrNotRegistered
	}
	if !byOwner && prev != 0 && disabledByOwner(db, mining) {
		return 0, ErrOwnerDisabled
	}
	if err := validator.SetDisablingDate(db, params.LifecycleManagerAddress, mining, ts); err != nil {
		return 0, err
	}
	kvstore.WriteBool(db, params.LifecycleManagerAddress, ownerDisabledSlot(mining), byOwner && ts != 0)
	return prev, nil
}

func ownerDisabledSlot(mining common.Address) common.Hash {
	return kvstore.Slot(mining[:], "ownerDisabled")
}

// disabledByOwner reports whether the current disabling date of mining was
// set by the system owner.
func disabledByOwner(db vm.StateDB, mining common.Address) bool {
	return kvstore.ReadBool(db, params.LifecycleManagerAddress, ownerDisabledSlot(mining))
}

// OwnerOf returns the binding owner of a mining key, or the zero address for
// keys without a binding such as the genesis validator.
func OwnerOf(db vm.StateDB, mining common.Address) common.Address {
	owner, role, err := keys.ResolveOwner(db, mining)
	if err != nil || role != keys.RoleMining {
		return common.Address{}
	}
	return owner
}

// isVotingKeyOf reports whether caller is the voting key of the binding whose
// mining key is mining.
func isVotingKeyOf(db vm.StateDB, caller, mining common.Address) bool {
	owner, role, err := keys.ResolveOwner(db, caller)
	if err != nil || role != keys.RoleVoting {
		return false
	}
	binding, err := keys.ReadBinding(db, owner)
	return err == nil && binding.Complete() && binding.Mining == mining
}

// ceremonyFixedFields may not change under GovernanceCeremonyFixed.
var ceremonyFixedFields = map[string]bool{
	validator.FieldZip:              true,
	validator.FieldLicenseID:        true,
	validator.FieldLicenseExpiredAt: true,
}

func checkPolicy(policy params.GovernancePolicy, changed []string) error {
	if policy != params.GovernanceCeremonyFixed {
		return nil
	}
	for _, f := range changed {
		if ceremonyFixedFields[f] {
			return fmt.Errorf("%w: %s", ErrFieldFixed, f)
		}
	}
	return nil
}
