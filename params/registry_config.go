package params

import (
	"errors"
	"fmt"

	"github.com/tos-network/valreg/common"
)

// GovernancePolicy decides which metadata fields a voting key may change.
type GovernancePolicy string

const (
	// GovernanceOverwrite lets a governance upsert overwrite every metadata field.
	GovernanceOverwrite GovernancePolicy = "overwrite"
	// GovernanceCeremonyFixed freezes zip, licenseID and licenseExpiredAt at
	// the values written by the ceremony.
	GovernanceCeremonyFixed GovernancePolicy = "ceremony-fixed"
)

var errNoSystemOwner = errors.New("registry config: system owner is not set")

// RegistryConfig is the immutable configuration fixed at genesis.
type RegistryConfig struct {
	// SystemOwner is the privileged actor allowed to authorize applicants. It
	// is also the genesis validator.
	SystemOwner common.Address `json:"systemOwner"`

	GovernancePolicy GovernancePolicy `json:"governancePolicy,omitempty"`
}

// Policy returns the effective governance policy.
func (c *RegistryConfig) Policy() GovernancePolicy {
	if c == nil || c.GovernancePolicy == "" {
		return GovernanceOverwrite
	}
	return c.GovernancePolicy
}

// Validate checks the configuration for obvious mistakes.
func (c *RegistryConfig) Validate() error {
	if c.SystemOwner.IsZero() {
		return errNoSystemOwner
	}
	switch c.Policy() {
	case GovernanceOverwrite, GovernanceCeremonyFixed:
		return nil
	}
	return fmt.Errorf("registry config: unknown governance policy %q", c.GovernancePolicy)
}

// String implements fmt.Stringer.
func (c *RegistryConfig) String() string {
	return fmt.Sprintf("{SystemOwner: %v GovernancePolicy: %s}", c.SystemOwner, c.Policy())
}
