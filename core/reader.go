package core

import (
	"github.com/tos-network/valreg/common"
	"github.com/tos-network/valreg/core/vm"
	"github.com/tos-network/valreg/keys"
	"github.com/tos-network/valreg/validator"
)

// GetValidators returns the active set in insertion order.
func (l *Ledger) GetValidators() []common.Address {
	var out []common.Address
	l.View(func(db vm.StateDB) error {
		out = validator.GetValidators(db)
		return nil
	})
	return out
}

// AllValidators returns every mining key ever inserted, disabled ones included.
func (l *Ledger) AllValidators() []common.Address {
	var out []common.Address
	l.View(func(db vm.StateDB) error {
		out = validator.AllValidators(db)
		return nil
	})
	return out
}

// Validator returns the full record of mining.
func (l *Ledger) Validator(mining common.Address) (rec validator.Record, err error) {
	l.View(func(db vm.StateDB) error {
		rec, err = validator.Validator(db, mining)
		return err
	})
	return rec, err
}

// Binding returns the key binding of owner.
func (l *Ledger) Binding(owner common.Address) (b keys.KeyBinding, err error) {
	l.View(func(db vm.StateDB) error {
		b, err = keys.ReadBinding(db, owner)
		return err
	})
	return b, err
}

// ResolveOwner returns the owner and role of a bound key.
func (l *Ledger) ResolveOwner(key common.Address) (owner common.Address, role keys.Role, err error) {
	l.View(func(db vm.StateDB) error {
		owner, role, err = keys.ResolveOwner(db, key)
		return err
	})
	return owner, role, err
}
