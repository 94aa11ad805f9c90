package common

import (
	"encoding/json"
	"testing"
)

func TestIsHexAddress(t *testing.T) {
	tests := []struct {
		str string
		exp bool
	}{
		{"0x5aaeb6053f3e94c9b9a09f33669435e7ef1beaed", true},
		{"5aaeb6053f3e94c9b9a09f33669435e7ef1beaed", true},
		{"0X5aaeb6053f3e94c9b9a09f33669435e7ef1beaed", true},
		{"0XAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA", true},
		{"0x5aaeb6053f3e94c9b9a09f33669435e7ef1beaed1", false},
		{"0x5aaeb6053f3e94c9b9a09f33669435e7ef1beae", false},
		{"5aaeb6053f3e94c9b9a09f33669435e7ef1beaed11", false},
		{"0xxaaeb6053f3e94c9b9a09f33669435e7ef1beaed", false},
	}
	for _, test := range tests {
		if result := IsHexAddress(test.str); result != test.exp {
			t.Errorf("IsHexAddress(%s) == %v; expected %v", test.str, result, test.exp)
		}
	}
}

func TestAddressJSONRoundTrip(t *testing.T) {
	a := HexToAddress("0x00000000000000000000000000000000000000aa")
	enc, err := json.Marshal(a)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(enc) != `"0x00000000000000000000000000000000000000aa"` {
		t.Fatalf("unexpected encoding %s", enc)
	}
	var dec Address
	if err := json.Unmarshal(enc, &dec); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if dec != a {
		t.Fatalf("have %v want %v", dec, a)
	}
	if err := json.Unmarshal([]byte(`"0x1234"`), &dec); err == nil {
		t.Fatalf("expected short address to be rejected")
	}
}

func TestHashSetBytesCropsLeft(t *testing.T) {
	in := make([]byte, 40)
	in[39] = 0x01
	in[0] = 0xff
	h := BytesToHash(in)
	if h[31] != 0x01 || h[0] != 0x00 {
		t.Fatalf("unexpected hash %x", h)
	}
}
