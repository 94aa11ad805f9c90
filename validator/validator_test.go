package validator

import (
	"errors"
	"strings"
	"testing"

	"github.com/tos-network/valreg/common"
	"github.com/tos-network/valreg/core/state"
	"github.com/tos-network/valreg/params"
	"github.com/tos-network/valreg/tosdb/memorydb"
)

// newTestState creates a fresh in-memory StateDB for tests.
func newTestState() *state.StateDB {
	return state.New(state.NewDatabase(memorydb.New()))
}

// tAddr generates a deterministic test address.
func tAddr(b byte) common.Address { return common.Address{b} }

var (
	manager = params.LifecycleManagerAddress
	data1   = Metadata{
		Zip:              644081,
		LicenseExpiredAt: 1893456000,
		LicenseID:        "license-1",
		FullName:         "Ivan Ivanov",
		StreetName:       "Elm Street",
		State:            "Ohio",
	}
	data2 = Metadata{
		Zip:              123456,
		LicenseExpiredAt: 1893456111,
		LicenseID:        "license-2",
		FullName:         "Oleg Olegov",
		StreetName:       "Snow Street",
		State:            "Alaska",
	}
)

func TestUpsertOnlyFromManager(t *testing.T) {
	st := newTestState()
	if _, err := Upsert(st, tAddr(0x01), tAddr(0x01), data1); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("want ErrUnauthorized, got %v", err)
	}
	if Exists(st, tAddr(0x01)) {
		t.Fatalf("unauthorized upsert created a record")
	}
}

func TestUpsertCreateThenUpdate(t *testing.T) {
	st := newTestState()
	m := tAddr(0x10)

	created, err := Upsert(st, manager, m, data1)
	if err != nil || !created {
		t.Fatalf("create: created=%v err=%v", created, err)
	}
	rec, err := Validator(st, m)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if rec.Metadata != data1 || rec.DisablingDate != 0 || rec.Extra != "" || rec.MiningKey != m {
		t.Fatalf("unexpected record %+v", rec)
	}

	created, err = Upsert(st, manager, m, data2)
	if err != nil || created {
		t.Fatalf("update: created=%v err=%v", created, err)
	}
	if rec, _ := Validator(st, m); rec.Metadata != data2 {
		t.Fatalf("update not applied: %+v", rec.Metadata)
	}
	if n := readValidatorCount(st); n != 1 {
		t.Fatalf("update appended to the list: count %d", n)
	}
}

func TestUpsertRejectsLongStrings(t *testing.T) {
	st := newTestState()
	md := data1
	md.StreetName = strings.Repeat("s", params.MaxMetadataStringLength+1)
	if _, err := Upsert(st, manager, tAddr(0x10), md); !errors.Is(err, ErrInvalidMetadata) {
		t.Fatalf("want ErrInvalidMetadata, got %v", err)
	}
	if Exists(st, tAddr(0x10)) {
		t.Fatalf("rejected upsert created a record")
	}
}

func TestGetValidatorsOrderAndDisabling(t *testing.T) {
	st := newTestState()
	SeedGenesis(st, tAddr(0xee))
	for _, m := range []common.Address{tAddr(0x03), tAddr(0x01), tAddr(0x02)} {
		if _, err := Upsert(st, manager, m, data1); err != nil {
			t.Fatalf("upsert %v: %v", m, err)
		}
	}
	want := []common.Address{tAddr(0xee), tAddr(0x03), tAddr(0x01), tAddr(0x02)}
	if got := GetValidators(st); !equalAddrs(got, want) {
		t.Fatalf("insertion order lost: have %v want %v", got, want)
	}

	if err := SetDisablingDate(st, manager, tAddr(0x01), 1700000000); err != nil {
		t.Fatalf("disable: %v", err)
	}
	want = []common.Address{tAddr(0xee), tAddr(0x03), tAddr(0x02)}
	if got := GetValidators(st); !equalAddrs(got, want) {
		t.Fatalf("disabled validator listed: have %v want %v", got, want)
	}
	if all := AllValidators(st); len(all) != 4 {
		t.Fatalf("disabled validator removed from list: %v", all)
	}

	// Re-enabling restores the original position.
	SetDisablingDate(st, manager, tAddr(0x01), 0)
	want = []common.Address{tAddr(0xee), tAddr(0x03), tAddr(0x01), tAddr(0x02)}
	if got := GetValidators(st); !equalAddrs(got, want) {
		t.Fatalf("re-enabled validator moved: have %v want %v", got, want)
	}
}

func TestSetDisablingDateErrors(t *testing.T) {
	st := newTestState()
	if err := SetDisablingDate(st, manager, tAddr(0x01), 5); !errors.Is(err, ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
	Upsert(st, manager, tAddr(0x01), data1)
	if err := SetDisablingDate(st, tAddr(0x01), tAddr(0x01), 5); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("want ErrUnauthorized, got %v", err)
	}
}

func TestFieldGetters(t *testing.T) {
	st := newTestState()
	m := tAddr(0x10)
	Upsert(st, manager, m, data1)

	if v, err := GetValidatorZip(st, m); err != nil || v != data1.Zip {
		t.Errorf("zip: %v %v", v, err)
	}
	if v, err := GetValidatorLicenseExpiredAt(st, m); err != nil || v != data1.LicenseExpiredAt {
		t.Errorf("licenseExpiredAt: %v %v", v, err)
	}
	if v, err := GetValidatorLicenseID(st, m); err != nil || v != data1.LicenseID {
		t.Errorf("licenseID: %v %v", v, err)
	}
	if v, err := GetValidatorFullName(st, m); err != nil || v != data1.FullName {
		t.Errorf("fullName: %v %v", v, err)
	}
	if v, err := GetValidatorStreetName(st, m); err != nil || v != data1.StreetName {
		t.Errorf("streetName: %v %v", v, err)
	}
	if v, err := GetValidatorState(st, m); err != nil || v != data1.State {
		t.Errorf("state: %v %v", v, err)
	}
	if v, err := GetValidatorDisablingDate(st, m); err != nil || v != 0 {
		t.Errorf("disablingDate: %v %v", v, err)
	}

	absent := tAddr(0x99)
	if _, err := GetValidatorZip(st, absent); !errors.Is(err, ErrNotFound) {
		t.Errorf("zip of absent: %v", err)
	}
	if _, err := GetValidatorFullName(st, absent); !errors.Is(err, ErrNotFound) {
		t.Errorf("fullName of absent: %v", err)
	}
	if _, err := Validator(st, absent); !errors.Is(err, ErrNotFound) {
		t.Errorf("validator of absent: %v", err)
	}
}

func TestSeedGenesis(t *testing.T) {
	st := newTestState()
	owner := tAddr(0xee)
	if !SeedGenesis(st, owner) {
		t.Fatalf("first seed reported no-op")
	}
	if SeedGenesis(st, owner) {
		t.Fatalf("second seed wrote again")
	}
	if got := GetValidators(st); len(got) != 1 || got[0] != owner {
		t.Fatalf("have %v, want [%v]", got, owner)
	}
	rec, err := Validator(st, owner)
	if err != nil {
		t.Fatalf("genesis record: %v", err)
	}
	if rec.Metadata != (Metadata{}) || !rec.Status().Active() {
		t.Fatalf("unexpected genesis record %+v", rec)
	}
}

func TestGetValidatorsIsPure(t *testing.T) {
	st := newTestState()
	SeedGenesis(st, tAddr(0xee))
	before := st.Dirty()
	GetValidators(st)
	Validator(st, tAddr(0xee))
	if st.Dirty() != before {
		t.Fatalf("reads wrote state")
	}
}

func TestStatusConversion(t *testing.T) {
	if s := StatusFromDisablingDate(0); !s.Active() || s.DisablingDate() != 0 || s.DisabledAt(1<<40) {
		t.Fatalf("zero date: %v", s)
	}
	s := StatusFromDisablingDate(100)
	if s.Active() || s.DisablingDate() != 100 {
		t.Fatalf("non-zero date: %v", s)
	}
	if s.DisabledAt(99) || !s.DisabledAt(100) {
		t.Fatalf("DisabledAt boundary wrong")
	}
	if s.String() != "disabled@100" {
		t.Fatalf("string: %q", s.String())
	}
}

func TestMetadataDiff(t *testing.T) {
	md := data1
	md.StreetName = "NEW STREET"
	if d := data1.Diff(md); len(d) != 1 || d[0] != FieldStreetName {
		t.Fatalf("diff: %v", d)
	}
	if d := data1.Diff(data2); len(d) != 6 {
		t.Fatalf("full diff: %v", d)
	}
	if d := data1.Diff(data1); d != nil {
		t.Fatalf("self diff: %v", d)
	}
}

func equalAddrs(a, b []common.Address) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
