// Package validator holds the canonical validator records and the ordered
// validator list. Records live in state under params.ValidatorRegistryAddress
// and are only written through the lifecycle manager.
package validator

import (
	"errors"
	"fmt"

	"github.com/tos-network/valreg/common"
	"github.com/tos-network/valreg/core/types"
	"github.com/tos-network/valreg/params"
)

// Metadata is the license and identity data attached to a validator.
type Metadata struct {
	Zip              uint64 `json:"zip"`
	LicenseExpiredAt uint64 `json:"licenseExpiredAt"`
	LicenseID        string `json:"licenseID"`
	FullName         string `json:"fullName"`
	StreetName       string `json:"streetName"`
	State            string `json:"state"`
}

// Validate rejects metadata that cannot be stored.
func (m Metadata) Validate() error {
	fields := []struct{ name, value string }{
		{FieldLicenseID, m.LicenseID},
		{FieldFullName, m.FullName},
		{FieldStreetName, m.StreetName},
		{FieldState, m.State},
	}
	for _, f := range fields {
		if len(f.value) > params.MaxMetadataStringLength {
			return fmt.Errorf("%w: %s longer than %d bytes", ErrInvalidMetadata, f.name, params.MaxMetadataStringLength)
		}
	}
	return nil
}

// Diff returns the names of the fields that differ between m and other, in
// declaration order.
func (m Metadata) Diff(other Metadata) []string {
	var out []string
	if m.Zip != other.Zip {
		out = append(out, FieldZip)
	}
	if m.LicenseExpiredAt != other.LicenseExpiredAt {
		out = append(out, FieldLicenseExpiredAt)
	}
	if m.LicenseID != other.LicenseID {
		out = append(out, FieldLicenseID)
	}
	if m.FullName != other.FullName {
		out = append(out, FieldFullName)
	}
	if m.StreetName != other.StreetName {
		out = append(out, FieldStreetName)
	}
	if m.State != other.State {
		out = append(out, FieldState)
	}
	return out
}

// Metadata field names, as reported in change events.
const (
	FieldZip              = "zip"
	FieldLicenseExpiredAt = "licenseExpiredAt"
	FieldLicenseID        = "licenseID"
	FieldFullName         = "fullName"
	FieldStreetName       = "streetName"
	FieldState            = "state"
)

// Record is a full validator record.
type Record struct {
	MiningKey     common.Address `json:"miningKey"`
	Metadata      Metadata       `json:"metadata"`
	DisablingDate uint64         `json:"disablingDate"`
	Extra         string         `json:"extra"`
}

// Status derives the tagged status of the record from its disabling date.
func (r Record) Status() Status {
	return StatusFromDisablingDate(r.DisablingDate)
}

// Snapshot converts the record into its change-event form.
func (r Record) Snapshot() *types.ValidatorSnapshot {
	return &types.ValidatorSnapshot{
		Zip:              r.Metadata.Zip,
		LicenseExpiredAt: r.Metadata.LicenseExpiredAt,
		LicenseID:        r.Metadata.LicenseID,
		FullName:         r.Metadata.FullName,
		StreetName:       r.Metadata.StreetName,
		State:            r.Metadata.State,
		DisablingDate:    r.DisablingDate,
		Extra:            r.Extra,
	}
}

// StatusKind distinguishes active from disabled validators.
type StatusKind uint8

const (
	StatusActive   StatusKind = 0
	StatusDisabled StatusKind = 1
)

func (k StatusKind) String() string {
	if k == StatusDisabled {
		return "disabled"
	}
	return "active"
}

// Status is the explicit form of the stored disabling date. A zero date is
// Active; any other value is Disabled at that Unix timestamp.
type Status struct {
	Kind StatusKind
	At   uint64
}

// StatusFromDisablingDate applies the conversion rule.
func StatusFromDisablingDate(ts uint64) Status {
	if ts == 0 {
		return Status{Kind: StatusActive}
	}
	return Status{Kind: StatusDisabled, At: ts}
}

// DisablingDate is the inverse of StatusFromDisablingDate.
func (s Status) DisablingDate() uint64 {
	if s.Kind == StatusActive {
		return 0
	}
	return s.At
}

// Active reports whether the validator belongs to the active set. A validator
// with any disabling date is out of the set, even if the date is in the future.
func (s Status) Active() bool {
	return s.Kind == StatusActive
}

// DisabledAt reports whether the disabling point has passed at now.
func (s Status) DisabledAt(now uint64) bool {
	return s.Kind == StatusDisabled && now >= s.At
}

func (s Status) String() string {
	if s.Kind == StatusActive {
		return "active"
	}
	return fmt.Sprintf("disabled@%d", s.At)
}

// Sentinel errors returned by the validator registry.
var (
	ErrUnauthorized    = errors.New("validator: caller is not the lifecycle manager")
	ErrNotFound        = errors.New("validator: not found")
	ErrInvalidMetadata = errors.New("validator: invalid metadata")
)
