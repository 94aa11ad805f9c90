package kvstore

import (
	"math/rand"
	"testing"

	fuzz "github.com/google/gofuzz"

	"github.com/tos-network/valreg/common"
)

func TestStringRandomRoundTrip(t *testing.T) {
	var (
		st   = newTestState(t)
		base = Slot([]byte("k"), "fullName")
		f    = fuzz.New().NilChance(0).NumElements(1, 8).RandSource(rand.NewSource(1))
	)
	for i := 0; i < 200; i++ {
		var parts []string
		f.Fuzz(&parts)
		s := ""
		for _, p := range parts {
			s += p
		}
		WriteString(st, owner, base, s)
		if got := ReadString(st, owner, base); got != s {
			t.Fatalf("round %d: have %q, want %q", i, got, s)
		}
		// Every word past the last chunk must be empty.
		for j := chunkCount(uint64(len(s))); j < chunkCount(uint64(len(s)))+4; j++ {
			if word := st.GetState(owner, chunkSlot(base, j)); word != (common.Hash{}) {
				t.Fatalf("round %d: stale chunk %d after %d bytes", i, j, len(s))
			}
		}
	}
}

func TestUint64RandomRoundTrip(t *testing.T) {
	st := newTestState(t)
	f := fuzz.New().RandSource(rand.NewSource(2))
	for i := 0; i < 200; i++ {
		var n uint64
		f.Fuzz(&n)
		slot := IndexSlot("fuzz", uint64(i))
		WriteUint64(st, owner, slot, n)
		if got := ReadUint64(st, owner, slot); got != n {
			t.Fatalf("have %d, want %d", got, n)
		}
	}
}
