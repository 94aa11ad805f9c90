package keys

import (
	"errors"
	"testing"

	"github.com/tos-network/valreg/common"
	"github.com/tos-network/valreg/core/state"
	"github.com/tos-network/valreg/core/types"
	"github.com/tos-network/valreg/params"
	"github.com/tos-network/valreg/sysaction"
	"github.com/tos-network/valreg/tosdb/memorydb"
)

var (
	systemOwner = tAddr(0xee)
	testConfig  = &params.RegistryConfig{SystemOwner: systemOwner}
)

// newTestState creates a fresh in-memory StateDB for tests.
func newTestState() *state.StateDB {
	return state.New(state.NewDatabase(memorydb.New()))
}

// tAddr generates a deterministic test address.
func tAddr(b byte) common.Address { return common.Address{b} }

func newCtx(st *state.StateDB, from common.Address) *sysaction.Context {
	return &sysaction.Context{From: from, Time: 1000, Config: testConfig, StateDB: st}
}

func TestAddInitialKeyRequiresSystemOwner(t *testing.T) {
	st := newTestState()
	for _, caller := range []common.Address{tAddr(0x01), tAddr(0x02), {}} {
		if err := AddInitialKey(st, testConfig, caller, tAddr(0x01)); !errors.Is(err, ErrUnauthorized) {
			t.Errorf("caller %v: want ErrUnauthorized, got %v", caller, err)
		}
	}
	if _, err := ReadBinding(st, tAddr(0x01)); !errors.Is(err, ErrNotInitialized) {
		t.Fatalf("rejected call left a binding behind: %v", err)
	}
}

func TestAddInitialKeyTwice(t *testing.T) {
	st := newTestState()
	if err := AddInitialKey(st, testConfig, systemOwner, tAddr(0x01)); err != nil {
		t.Fatalf("first add: %v", err)
	}
	if err := AddInitialKey(st, testConfig, systemOwner, tAddr(0x01)); !errors.Is(err, ErrAlreadyInitialized) {
		t.Fatalf("second add: want ErrAlreadyInitialized, got %v", err)
	}
	b, err := ReadBinding(st, tAddr(0x01))
	if err != nil || b.Status != BindingInitialized {
		t.Fatalf("unexpected binding %+v, %v", b, err)
	}
}

func TestCreateKeys(t *testing.T) {
	st := newTestState()
	owner := tAddr(0x01)
	if err := CreateKeys(st, owner, tAddr(0x11), tAddr(0x12), tAddr(0x13)); !errors.Is(err, ErrNotInitialized) {
		t.Fatalf("uninitialized: want ErrNotInitialized, got %v", err)
	}
	AddInitialKey(st, testConfig, systemOwner, owner)
	if err := CreateKeys(st, owner, tAddr(0x11), tAddr(0x12), tAddr(0x13)); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := CreateKeys(st, owner, tAddr(0x21), tAddr(0x22), tAddr(0x23)); !errors.Is(err, ErrAlreadyComplete) {
		t.Fatalf("second create: want ErrAlreadyComplete, got %v", err)
	}
	b, _ := ReadBinding(st, owner)
	want := KeyBinding{Owner: owner, Mining: tAddr(0x11), Payout: tAddr(0x12), Voting: tAddr(0x13), Status: BindingComplete}
	if b != want {
		t.Fatalf("binding: have %+v, want %+v", b, want)
	}
	for key, role := range map[common.Address]Role{tAddr(0x11): RoleMining, tAddr(0x12): RolePayout, tAddr(0x13): RoleVoting} {
		got, r, err := ResolveOwner(st, key)
		if err != nil || got != owner || r != role {
			t.Errorf("resolve %v: have %v/%v/%v", key, got, r, err)
		}
	}
	if _, _, err := ResolveOwner(st, tAddr(0x99)); !errors.Is(err, ErrNotFound) {
		t.Fatalf("unbound key: want ErrNotFound, got %v", err)
	}
}

func TestCreateKeysCollision(t *testing.T) {
	st := newTestState()
	a, b := tAddr(0x01), tAddr(0x02)
	AddInitialKey(st, testConfig, systemOwner, a)
	AddInitialKey(st, testConfig, systemOwner, b)
	if err := CreateKeys(st, a, tAddr(0x11), tAddr(0x12), tAddr(0x13)); err != nil {
		t.Fatalf("create a: %v", err)
	}
	cases := []struct {
		name                   string
		mining, payout, voting common.Address
		want                   error
	}{
		{"reuse mining as mining", tAddr(0x11), tAddr(0x22), tAddr(0x23), ErrKeyCollision},
		{"reuse voting as payout", tAddr(0x21), tAddr(0x13), tAddr(0x23), ErrKeyCollision},
		{"same key twice", tAddr(0x21), tAddr(0x21), tAddr(0x23), ErrKeyCollision},
		{"zero key", tAddr(0x21), common.Address{}, tAddr(0x23), ErrInvalidKey},
	}
	for _, c := range cases {
		if err := CreateKeys(st, b, c.mining, c.payout, c.voting); !errors.Is(err, c.want) {
			t.Errorf("%s: want %v, got %v", c.name, c.want, err)
		}
		if bind, _ := ReadBinding(st, b); bind.Status != BindingInitialized {
			t.Fatalf("%s: failed call changed binding to %v", c.name, bind.Status)
		}
		for _, k := range []common.Address{tAddr(0x21), tAddr(0x22), tAddr(0x23)} {
			if _, _, err := ResolveOwner(st, k); !errors.Is(err, ErrNotFound) {
				t.Fatalf("%s: failed call indexed key %v: %v", c.name, k, err)
			}
		}
		for _, k := range []common.Address{tAddr(0x11), tAddr(0x12), tAddr(0x13)} {
			if owner, _, err := ResolveOwner(st, k); err != nil || owner != a {
				t.Fatalf("%s: key %v resolves to %v, %v", c.name, k, owner, err)
			}
		}
	}
	if err := CreateKeys(st, b, tAddr(0x21), tAddr(0x22), tAddr(0x23)); err != nil {
		t.Fatalf("create b: %v", err)
	}
}

func TestHandlerEmitsEvents(t *testing.T) {
	st := newTestState()
	owner := tAddr(0x01)

	data, _ := sysaction.MakeSysAction(sysaction.ActionKeysAddInitial, sysaction.KeysAddInitialPayload{Owner: owner})
	events, err := sysaction.Execute(newCtx(st, systemOwner), data)
	if err != nil {
		t.Fatalf("add initial: %v", err)
	}
	if len(events) != 1 || events[0].Kind != types.KeysInitialized || events[0].Owner != owner || events[0].Caller != systemOwner {
		t.Fatalf("unexpected events %+v", events)
	}

	data, _ = sysaction.MakeSysAction(sysaction.ActionKeysCreate, sysaction.KeysCreatePayload{
		Mining: tAddr(0x11), Payout: tAddr(0x12), Voting: tAddr(0x13),
	})
	events, err = sysaction.Execute(newCtx(st, owner), data)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if len(events) != 1 || events[0].Kind != types.KeysCreated || events[0].MiningKey != tAddr(0x11) || events[0].Voting != tAddr(0x13) {
		t.Fatalf("unexpected events %+v", events)
	}
}

func TestHandlerUnauthorized(t *testing.T) {
	st := newTestState()
	data, _ := sysaction.MakeSysAction(sysaction.ActionKeysAddInitial, sysaction.KeysAddInitialPayload{Owner: tAddr(0x01)})
	if _, err := sysaction.Execute(newCtx(st, tAddr(0x01)), data); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("want ErrUnauthorized, got %v", err)
	}
}
