package main

import (
	"encoding/hex"
	"testing"

	"github.com/tos-network/valreg/common"
	"github.com/tos-network/valreg/crypto"
)

const testMnemonic = "test test test test test test test test test test test junk"

func TestDeriveKeyFromMnemonicKnownVector(t *testing.T) {
	priv, err := deriveKeyFromMnemonic(testMnemonic, "", "m/44'/60'/0'/0/0")
	if err != nil {
		t.Fatalf("derive mnemonic failed: %v", err)
	}
	got := hex.EncodeToString(crypto.FromPrivateKey(priv))
	want := "ac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"
	if got != want {
		t.Fatalf("unexpected private key: have %s want %s", got, want)
	}
	addr := crypto.PubkeyToAddress(priv.PubKey())
	if addr != common.HexToAddress("0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266") {
		t.Fatalf("unexpected address: %s", addr.Hex())
	}
}

func TestGenerateMnemonicBitsValidation(t *testing.T) {
	if _, err := generateMnemonic(129); err == nil {
		t.Fatalf("expected invalid mnemonic bits error")
	}
	if _, err := generateMnemonic(128); err != nil {
		t.Fatalf("expected valid mnemonic bits, got %v", err)
	}
}

func TestDeriveKeyFromMnemonicInvalidPath(t *testing.T) {
	for _, path := range []string{"m/44'//0", "44'/60'", "m/x", "m/2147483648"} {
		if _, err := deriveKeyFromMnemonic(testMnemonic, "", path); err == nil {
			t.Errorf("expected invalid path error for %q", path)
		}
	}
}

func TestDeriveKeyFromMnemonicBadChecksum(t *testing.T) {
	if _, err := deriveKeyFromMnemonic("test test test test test test test test test test test test", "", defaultHDPath); err == nil {
		t.Fatalf("expected checksum error")
	}
}

func TestParseDerivationPath(t *testing.T) {
	path, err := parseDerivationPath("m/44'/60'/0'/0/7")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	want := []uint32{hdHardenedOffset + 44, hdHardenedOffset + 60, hdHardenedOffset, 0, 7}
	if len(path) != len(want) {
		t.Fatalf("length: have %d, want %d", len(path), len(want))
	}
	for i := range want {
		if path[i] != want[i] {
			t.Errorf("component %d: have %d, want %d", i, path[i], want[i])
		}
	}
}
