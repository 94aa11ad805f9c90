// Package sysaction implements the registry's system action protocol.
//
// Every registry transaction carries a JSON-encoded SysAction in its data
// field. The ledger hands it to Registry.Execute which dispatches it to the
// handler that claims its action kind (keys, lifecycle).
package sysaction

import (
	"encoding/json"

	"github.com/tos-network/valreg/common"
)

// ActionKind identifies the type of system action.
type ActionKind string

const (
	// Key registry
	ActionKeysAddInitial ActionKind = "KEYS_ADD_INITIAL"
	ActionKeysCreate     ActionKind = "KEYS_CREATE"

	// Validator lifecycle
	ActionValidatorCeremonyInsert   ActionKind = "VALIDATOR_CEREMONY_INSERT"
	ActionValidatorGovernanceUpsert ActionKind = "VALIDATOR_GOVERNANCE_UPSERT"
	ActionValidatorSetDisablingDate ActionKind = "VALIDATOR_SET_DISABLING_DATE"
)

// SysAction is the top-level envelope stored in a transaction's data.
type SysAction struct {
	Action  ActionKind      `json:"action"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// KeysAddInitialPayload is the payload for KEYS_ADD_INITIAL.
type KeysAddInitialPayload struct {
	Owner common.Address `json:"owner"`
}

// KeysCreatePayload is the payload for KEYS_CREATE.
type KeysCreatePayload struct {
	Mining common.Address `json:"mining"`
	Payout common.Address `json:"payout"`
	Voting common.Address `json:"voting"`
}

// ValidatorMetadataPayload is the payload for VALIDATOR_CEREMONY_INSERT and
// VALIDATOR_GOVERNANCE_UPSERT.
type ValidatorMetadataPayload struct {
	Mining           common.Address `json:"mining"`
	Zip              uint64         `json:"zip"`
	LicenseExpiredAt uint64         `json:"licenseExpiredAt"`
	LicenseID        string         `json:"licenseID"`
	FullName         string         `json:"fullName"`
	StreetName       string         `json:"streetName"`
	State            string         `json:"state"`
}

// ValidatorDisablePayload is the payload for VALIDATOR_SET_DISABLING_DATE.
// A zero timestamp re-activates the validator.
type ValidatorDisablePayload struct {
	Mining        common.Address `json:"mining"`
	DisablingDate uint64         `json:"disablingDate"`
}
