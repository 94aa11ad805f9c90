// Package validatoridx maintains an off-ledger index of validator records and
// an audit trail of every registry change, fed by the ledger's change events.
package validatoridx

import (
	"github.com/tos-network/valreg/common"
	"github.com/tos-network/valreg/core/types"
)

// Entry is the indexed view of one validator.
type Entry struct {
	MiningKey  common.Address          `json:"miningKey"`
	Owner      common.Address          `json:"owner"`
	Validator  types.ValidatorSnapshot `json:"validator"`
	Genesis    bool                    `json:"genesis,omitempty"`
	AddedSeq   uint64                  `json:"addedSeq"`
	UpdatedSeq uint64                  `json:"updatedSeq"`
	UpdatedAt  uint64                  `json:"updatedAt"`
}

// Disabled reports whether the validator is out of the active set.
func (e Entry) Disabled() bool {
	return e.Validator.DisablingDate != 0
}

// Query is the input to Registry.Query.
type Query struct {
	State                 string `json:"state"`
	LicenseExpiringBefore uint64 `json:"licenseExpiringBefore"`
	IncludeDisabled       bool   `json:"includeDisabled"`
	Limit                 int    `json:"limit"`

	// Filter further narrows the result, see NewFilter.
	Filter *Filter `json:"-"`
}
