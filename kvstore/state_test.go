package kvstore

import (
	"strings"
	"testing"

	"github.com/tos-network/valreg/common"
	"github.com/tos-network/valreg/core/state"
	"github.com/tos-network/valreg/tosdb/memorydb"
)

var owner = common.HexToAddress("0x00000000000000000000000000000000564c3032")

func newTestState(t *testing.T) *state.StateDB {
	t.Helper()
	return state.New(state.NewDatabase(memorydb.New()))
}

func TestUint64Word(t *testing.T) {
	st := newTestState(t)
	slot := Slot([]byte("k"), "zip")
	if got := ReadUint64(st, owner, slot); got != 0 {
		t.Fatalf("fresh slot: have %d", got)
	}
	WriteUint64(st, owner, slot, 1<<63+5)
	if got := ReadUint64(st, owner, slot); got != 1<<63+5 {
		t.Fatalf("have %d", got)
	}
	if raw := st.GetState(owner, slot); raw[0] != 0 || raw[31] != 5 {
		t.Fatalf("word is not big-endian right-aligned: %x", raw)
	}
}

func TestAddressAndBoolWords(t *testing.T) {
	st := newTestState(t)
	addr := common.HexToAddress("0x970e8128ab834e8eac17ab8e3812f010678cf791")
	WriteAddress(st, owner, Slot(addr[:], "mining"), addr)
	if got := ReadAddress(st, owner, Slot(addr[:], "mining")); got != addr {
		t.Fatalf("have %v, want %v", got, addr)
	}
	WriteBool(st, owner, Slot(addr[:], "exists"), true)
	if !ReadBool(st, owner, Slot(addr[:], "exists")) {
		t.Fatalf("flag not set")
	}
	WriteBool(st, owner, Slot(addr[:], "exists"), false)
	if ReadBool(st, owner, Slot(addr[:], "exists")) {
		t.Fatalf("flag not cleared")
	}
}

func TestStringRoundTrip(t *testing.T) {
	st := newTestState(t)
	base := Slot([]byte("k"), "fullName")
	for _, s := range []string{"", "Alice", strings.Repeat("x", 32), strings.Repeat("yz", 50), "Zoë Ünïcode"} {
		WriteString(st, owner, base, s)
		if got := ReadString(st, owner, base); got != s {
			t.Fatalf("have %q, want %q", got, s)
		}
	}
}

func TestStringShrinkClearsChunks(t *testing.T) {
	st := newTestState(t)
	base := Slot([]byte("k"), "streetName")
	WriteString(st, owner, base, strings.Repeat("a", 100))
	WriteString(st, owner, base, "b")
	for i := uint64(1); i < 4; i++ {
		if word := st.GetState(owner, chunkSlot(base, i)); word != (common.Hash{}) {
			t.Fatalf("stale chunk %d: %x", i, word)
		}
	}
	if got := ReadString(st, owner, base); got != "b" {
		t.Fatalf("have %q", got)
	}
	WriteString(st, owner, base, "")
	if st.GetState(owner, chunkSlot(base, 0)) != (common.Hash{}) || st.GetState(owner, base) != (common.Hash{}) {
		t.Fatalf("empty string left words behind")
	}
}

func TestIndexSlotDistinct(t *testing.T) {
	if IndexSlot("validators", 0) == IndexSlot("validators", 1) {
		t.Fatalf("index slots collide")
	}
}
