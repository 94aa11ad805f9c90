package validatoridx

import (
	"fmt"

	bexpr "github.com/hashicorp/go-bexpr"
)

// Filter is a compiled boolean expression over indexed entries, e.g.
//
//	state == "Ohio" and licenseID != ""
//	fullName matches "^Ivan" or genesis == true
//
// Range checks on dates are done with Query.LicenseExpiringBefore.
type Filter struct {
	expr string
	eval *bexpr.Evaluator
}

// filterView is the flat shape an expression is evaluated against.
type filterView struct {
	MiningKey        string `bexpr:"miningKey"`
	Owner            string `bexpr:"owner"`
	Zip              uint64 `bexpr:"zip"`
	LicenseExpiredAt uint64 `bexpr:"licenseExpiredAt"`
	LicenseID        string `bexpr:"licenseID"`
	FullName         string `bexpr:"fullName"`
	StreetName       string `bexpr:"streetName"`
	State            string `bexpr:"state"`
	DisablingDate    uint64 `bexpr:"disablingDate"`
	Disabled         bool   `bexpr:"disabled"`
	Genesis          bool   `bexpr:"genesis"`
	AddedSeq         uint64 `bexpr:"addedSeq"`
	UpdatedSeq       uint64 `bexpr:"updatedSeq"`
}

func newFilterView(e *Entry) filterView {
	return filterView{
		MiningKey:        e.MiningKey.Hex(),
		Owner:            e.Owner.Hex(),
		Zip:              e.Validator.Zip,
		LicenseExpiredAt: e.Validator.LicenseExpiredAt,
		LicenseID:        e.Validator.LicenseID,
		FullName:         e.Validator.FullName,
		StreetName:       e.Validator.StreetName,
		State:            e.Validator.State,
		DisablingDate:    e.Validator.DisablingDate,
		Disabled:         e.Disabled(),
		Genesis:          e.Genesis,
		AddedSeq:         e.AddedSeq,
		UpdatedSeq:       e.UpdatedSeq,
	}
}

// NewFilter compiles expr. Unknown selectors are rejected here rather than
// on every evaluation.
func NewFilter(expr string) (*Filter, error) {
	eval, err := bexpr.CreateEvaluator(expr)
	if err != nil {
		return nil, fmt.Errorf("invalid filter %q: %w", expr, err)
	}
	if _, err := eval.Evaluate(filterView{}); err != nil {
		return nil, fmt.Errorf("invalid filter %q: %w", expr, err)
	}
	return &Filter{expr: expr, eval: eval}, nil
}

// Match reports whether e satisfies the filter. A nil filter matches all.
func (f *Filter) Match(e *Entry) bool {
	if f == nil {
		return true
	}
	ok, err := f.eval.Evaluate(newFilterView(e))
	return err == nil && ok
}

func (f *Filter) String() string {
	if f == nil {
		return ""
	}
	return f.expr
}
