package main

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/binary"
	"fmt"
	"math/big"
	"strconv"
	"strings"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/tos-network/valreg/crypto"
	"github.com/tyler-smith/go-bip39"
)

const (
	defaultMnemonicBits = 128
	defaultHDPath       = "m/44'/60'/0'/0/0"
	hdHardenedOffset    = uint32(0x80000000)
)

func generateMnemonic(bits int) (string, error) {
	if err := validateMnemonicBits(bits); err != nil {
		return "", err
	}
	entropy, err := bip39.NewEntropy(bits)
	if err != nil {
		return "", err
	}
	return bip39.NewMnemonic(entropy)
}

func validateMnemonicBits(bits int) error {
	switch bits {
	case 128, 160, 192, 224, 256:
		return nil
	default:
		return fmt.Errorf("invalid mnemonic bits %d (allowed: 128,160,192,224,256)", bits)
	}
}

func deriveKeyFromMnemonic(mnemonic string, passphrase string, derivationPath string) (*btcec.PrivateKey, error) {
	seed, err := bip39.NewSeedWithErrorChecking(mnemonic, passphrase)
	if err != nil {
		return nil, err
	}
	return deriveKeyFromSeed(seed, derivationPath)
}

func deriveKeyFromSeed(seed []byte, derivationPath string) (*btcec.PrivateKey, error) {
	path, err := parseDerivationPath(derivationPath)
	if err != nil {
		return nil, fmt.Errorf("invalid hd path %q: %w", derivationPath, err)
	}
	key, chainCode, err := deriveBIP32Master(seed)
	if err != nil {
		return nil, err
	}
	for _, index := range path {
		key, chainCode, err = deriveBIP32Child(key, chainCode, index)
		if err != nil {
			return nil, err
		}
	}
	return crypto.ToPrivateKey(key)
}

// parseDerivationPath converts an absolute BIP32 path such as
// m/44'/60'/0'/0/0 into its component indices.
func parseDerivationPath(path string) ([]uint32, error) {
	elems := strings.Split(strings.TrimSpace(path), "/")
	if len(elems) < 2 || strings.TrimSpace(elems[0]) != "m" {
		return nil, fmt.Errorf("path must be absolute and start with m/")
	}
	var out []uint32
	for _, elem := range elems[1:] {
		elem = strings.TrimSpace(elem)
		var offset uint32
		if strings.HasSuffix(elem, "'") {
			offset = hdHardenedOffset
			elem = strings.TrimSpace(strings.TrimSuffix(elem, "'"))
		}
		if elem == "" {
			return nil, fmt.Errorf("empty path component")
		}
		n, err := strconv.ParseUint(elem, 10, 32)
		if err != nil || uint32(n) >= hdHardenedOffset {
			return nil, fmt.Errorf("invalid path component %q", elem)
		}
		out = append(out, uint32(n)+offset)
	}
	return out, nil
}

func deriveBIP32Master(seed []byte) ([]byte, []byte, error) {
	mac := hmac.New(sha512.New, []byte("Bitcoin seed"))
	if _, err := mac.Write(seed); err != nil {
		return nil, nil, err
	}
	sum := mac.Sum(nil)
	key := make([]byte, 32)
	chainCode := make([]byte, 32)
	copy(key, sum[:32])
	copy(chainCode, sum[32:])
	if err := validateBIP32Scalar(key); err != nil {
		return nil, nil, fmt.Errorf("invalid bip32 master key: %w", err)
	}
	return key, chainCode, nil
}

func deriveBIP32Child(parentKey []byte, parentChainCode []byte, index uint32) ([]byte, []byte, error) {
	if len(parentKey) != 32 || len(parentChainCode) != 32 {
		return nil, nil, fmt.Errorf("invalid bip32 parent key material")
	}

	data := make([]byte, 37)
	if index >= hdHardenedOffset {
		copy(data[1:33], parentKey)
	} else {
		priv, _ := btcec.PrivKeyFromBytes(parentKey)
		copy(data[:33], priv.PubKey().SerializeCompressed())
	}
	binary.BigEndian.PutUint32(data[33:], index)

	mac := hmac.New(sha512.New, parentChainCode)
	if _, err := mac.Write(data); err != nil {
		return nil, nil, err
	}
	sum := mac.Sum(nil)

	curveN := btcec.S256().Params().N
	il := new(big.Int).SetBytes(sum[:32])
	if il.Sign() == 0 || il.Cmp(curveN) >= 0 {
		return nil, nil, fmt.Errorf("invalid bip32 child scalar")
	}
	child := new(big.Int).Add(il, new(big.Int).SetBytes(parentKey))
	child.Mod(child, curveN)
	if child.Sign() == 0 {
		return nil, nil, fmt.Errorf("invalid bip32 child key: zero")
	}

	childKey := make([]byte, 32)
	child.FillBytes(childKey)
	childChainCode := make([]byte, 32)
	copy(childChainCode, sum[32:])
	return childKey, childChainCode, nil
}

func validateBIP32Scalar(key []byte) error {
	if len(key) != 32 {
		return fmt.Errorf("invalid scalar length %d", len(key))
	}
	v := new(big.Int).SetBytes(key)
	if v.Sign() == 0 || v.Cmp(btcec.S256().Params().N) >= 0 {
		return fmt.Errorf("scalar out of range")
	}
	return nil
}
