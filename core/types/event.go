package types

import (
	"encoding/binary"

	"github.com/google/uuid"
	"github.com/tos-network/valreg/common"
)

// ChangeKind names the kind of registry transition an event reports.
type ChangeKind string

const (
	KeysInitialized   ChangeKind = "keys_initialized"
	KeysCreated       ChangeKind = "keys_created"
	ValidatorAdded    ChangeKind = "validator_added"
	ValidatorUpdated  ChangeKind = "validator_updated"
	ValidatorDisabled ChangeKind = "validator_disabled"
	ValidatorEnabled  ChangeKind = "validator_enabled"
)

// eventNamespace seeds the name-based event ids.
var eventNamespace = uuid.MustParse("4d0b5a0e-6a7f-4b55-9a55-56414c524547")

// ValidatorSnapshot is the validator record as it stood right after the
// transition.
type ValidatorSnapshot struct {
	Zip              uint64 `json:"zip"`
	LicenseExpiredAt uint64 `json:"licenseExpiredAt"`
	LicenseID        string `json:"licenseID"`
	FullName         string `json:"fullName"`
	StreetName       string `json:"streetName"`
	State            string `json:"state"`
	DisablingDate    uint64 `json:"disablingDate"`
	Extra            string `json:"extra"`
}

// ChangeEvent is the structured record emitted for every accepted mutation.
type ChangeEvent struct {
	ID     string         `json:"id"`
	Kind   ChangeKind     `json:"kind"`
	Seq    uint64         `json:"seq"`
	Time   uint64         `json:"time"`
	Caller common.Address `json:"caller"`

	Owner     common.Address `json:"owner,omitempty"`
	MiningKey common.Address `json:"miningKey,omitempty"`
	Payout    common.Address `json:"payoutKey,omitempty"`
	Voting    common.Address `json:"votingKey,omitempty"`

	// Fields lists the metadata fields whose value changed.
	Fields    []string           `json:"fields,omitempty"`
	Validator *ValidatorSnapshot `json:"validator,omitempty"`
}

// EventID derives the deterministic identifier of the index-th event of the
// transaction logged at seq.
func EventID(seq uint64, index int) string {
	var b [12]byte
	binary.BigEndian.PutUint64(b[:8], seq)
	binary.BigEndian.PutUint32(b[8:], uint32(index))
	return uuid.NewSHA1(eventNamespace, b[:]).String()
}
