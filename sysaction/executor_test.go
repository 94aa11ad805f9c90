package sysaction

import (
	"errors"
	"testing"

	"github.com/tos-network/valreg/common"
	"github.com/tos-network/valreg/core/state"
	"github.com/tos-network/valreg/core/types"
	"github.com/tos-network/valreg/tosdb/memorydb"
)

var (
	testAddr = common.HexToAddress("0x00000000000000000000000000000000000000a1")
	testSlot = common.HexToHash("0x01")
	errBoom  = errors.New("boom")
)

// writeThenFail writes a slot, emits an event, then fails if the payload says so.
type writeThenFail struct{}

func (writeThenFail) CanHandle(kind ActionKind) bool { return kind == "TEST_WRITE" }

func (writeThenFail) Handle(ctx *Context, sa *SysAction) error {
	var p struct {
		Fail bool `json:"fail"`
	}
	if err := DecodePayload(sa, &p); err != nil {
		return err
	}
	ctx.StateDB.SetState(testAddr, testSlot, common.HexToHash("0xff"))
	ctx.Emit(types.ChangeEvent{Kind: types.KeysCreated})
	if p.Fail {
		return errBoom
	}
	return nil
}

func newTestContext() *Context {
	return &Context{
		From:    common.HexToAddress("0xcafe"),
		Time:    100,
		StateDB: state.New(state.NewDatabase(memorydb.New())),
	}
}

func TestExecuteSuccessReturnsEvents(t *testing.T) {
	r := &Registry{}
	r.Register(writeThenFail{})
	ctx := newTestContext()

	data, _ := MakeSysAction("TEST_WRITE", map[string]bool{"fail": false})
	events, err := r.Execute(ctx, data)
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if len(events) != 1 || events[0].Caller != ctx.From || events[0].Time != 100 {
		t.Fatalf("unexpected events %+v", events)
	}
	if got := ctx.StateDB.GetState(testAddr, testSlot); got != common.HexToHash("0xff") {
		t.Fatalf("write lost: %x", got)
	}
}

func TestExecuteFailureReverts(t *testing.T) {
	r := &Registry{}
	r.Register(writeThenFail{})
	ctx := newTestContext()

	data, _ := MakeSysAction("TEST_WRITE", map[string]bool{"fail": true})
	events, err := r.Execute(ctx, data)
	if !errors.Is(err, errBoom) {
		t.Fatalf("have %v, want errBoom", err)
	}
	if events != nil {
		t.Fatalf("failed action returned events")
	}
	if got := ctx.StateDB.GetState(testAddr, testSlot); got != (common.Hash{}) {
		t.Fatalf("partial write survived: %x", got)
	}
}

func TestExecuteUnknownAction(t *testing.T) {
	r := &Registry{}
	data, _ := MakeSysAction("NOPE", nil)
	if _, err := r.Execute(newTestContext(), data); !errors.Is(err, ErrUnknownAction) {
		t.Fatalf("have %v, want ErrUnknownAction", err)
	}
}

func TestDecode(t *testing.T) {
	for _, bad := range []string{"", "not json", `{"payload":{}}`} {
		if _, err := Decode([]byte(bad)); !errors.Is(err, ErrInvalidSysAction) {
			t.Errorf("Decode(%q): have %v, want ErrInvalidSysAction", bad, err)
		}
	}
	sa, err := Decode([]byte(`{"action":"KEYS_CREATE","payload":{"mining":"0x0000000000000000000000000000000000000001","payout":"0x0000000000000000000000000000000000000002","voting":"0x0000000000000000000000000000000000000003"}}`))
	if err != nil {
		t.Fatal(err)
	}
	var p KeysCreatePayload
	if err := DecodePayload(sa, &p); err != nil {
		t.Fatal(err)
	}
	if p.Voting != common.HexToAddress("0x03") {
		t.Fatalf("unexpected payload %+v", p)
	}
}

func TestDecodePayloadRejectsUnknownFields(t *testing.T) {
	sa := &SysAction{Action: ActionKeysAddInitial, Payload: []byte(`{"ownr":"0x01"}`)}
	var p KeysAddInitialPayload
	if err := DecodePayload(sa, &p); !errors.Is(err, ErrInvalidSysAction) {
		t.Fatalf("have %v, want ErrInvalidSysAction", err)
	}
	if err := DecodePayload(&SysAction{Action: ActionKeysAddInitial}, &p); !errors.Is(err, ErrInvalidSysAction) {
		t.Fatalf("missing payload: have %v", err)
	}
}
