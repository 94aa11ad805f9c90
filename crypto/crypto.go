// Package crypto wraps the hashing and secp256k1 primitives used to derive
// role-key addresses and authenticate the sender of a transaction.
package crypto

import (
	"bufio"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/ecdsa"
	"github.com/tos-network/valreg/common"
	"golang.org/x/crypto/sha3"
)

// SignatureLength is the size of a recoverable signature: [R || S || V].
const SignatureLength = 64 + 1

// compactSigMagicOffset is the header offset btcec uses for uncompressed keys.
const compactSigMagicOffset = 27

var (
	errInvalidPrivateKey = errors.New("invalid private key")
	errInvalidSignature  = errors.New("invalid signature")
)

// Keccak256 calculates and returns the Keccak256 hash of the input data.
func Keccak256(data ...[]byte) []byte {
	d := sha3.NewLegacyKeccak256()
	for _, b := range data {
		d.Write(b)
	}
	return d.Sum(nil)
}

// Keccak256Hash calculates and returns the Keccak256 hash of the input data,
// converting it to an internal Hash data structure.
func Keccak256Hash(data ...[]byte) (h common.Hash) {
	return common.BytesToHash(Keccak256(data...))
}

// GenerateKey creates a new random secp256k1 private key.
func GenerateKey() (*btcec.PrivateKey, error) {
	return btcec.NewPrivateKey()
}

// ToPrivateKey parses a raw 32 byte scalar.
func ToPrivateKey(d []byte) (*btcec.PrivateKey, error) {
	if len(d) != 32 {
		return nil, fmt.Errorf("%w: want 32 bytes, have %d", errInvalidPrivateKey, len(d))
	}
	var zero [32]byte
	if string(d) == string(zero[:]) {
		return nil, fmt.Errorf("%w: zero scalar", errInvalidPrivateKey)
	}
	priv, _ := btcec.PrivKeyFromBytes(d)
	return priv, nil
}

// FromPrivateKey exports a private key into its 32 byte form.
func FromPrivateKey(priv *btcec.PrivateKey) []byte {
	if priv == nil {
		return nil
	}
	return priv.Serialize()
}

// HexToPrivateKey parses a hex encoded secp256k1 private key.
func HexToPrivateKey(hexkey string) (*btcec.PrivateKey, error) {
	b, err := hex.DecodeString(strings.TrimPrefix(strings.TrimSpace(hexkey), "0x"))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errInvalidPrivateKey, err)
	}
	return ToPrivateKey(b)
}

// LoadPrivateKey loads a hex encoded private key from file.
func LoadPrivateKey(file string) (*btcec.PrivateKey, error) {
	fd, err := os.Open(file)
	if err != nil {
		return nil, err
	}
	defer fd.Close()

	r := bufio.NewReader(io.LimitReader(fd, 128))
	line, err := r.ReadString('\n')
	if err != nil && err != io.EOF {
		return nil, err
	}
	return HexToPrivateKey(line)
}

// SavePrivateKey saves a private key to the given file with restrictive
// permissions. The key data is saved hex-encoded.
func SavePrivateKey(file string, priv *btcec.PrivateKey) error {
	k := hex.EncodeToString(FromPrivateKey(priv))
	return os.WriteFile(file, []byte(k), 0600)
}

// PubkeyToAddress derives the 20 byte address of a public key.
func PubkeyToAddress(pub *btcec.PublicKey) common.Address {
	raw := pub.SerializeUncompressed()
	return common.BytesToAddress(Keccak256(raw[1:])[12:])
}

// Sign calculates a recoverable ECDSA signature over a 32 byte digest.
// The produced signature is in the [R || S || V] format where V is 0 or 1.
func Sign(digest []byte, priv *btcec.PrivateKey) ([]byte, error) {
	if len(digest) != common.HashLength {
		return nil, fmt.Errorf("hash is required to be exactly %d bytes (%d)", common.HashLength, len(digest))
	}
	compact, err := ecdsa.SignCompact(priv, digest, false)
	if err != nil {
		return nil, err
	}
	sig := make([]byte, SignatureLength)
	copy(sig, compact[1:])
	sig[64] = compact[0] - compactSigMagicOffset
	return sig, nil
}

// SigToPub returns the public key that created the given signature.
func SigToPub(digest, sig []byte) (*btcec.PublicKey, error) {
	if len(sig) != SignatureLength {
		return nil, fmt.Errorf("%w: length %d", errInvalidSignature, len(sig))
	}
	if sig[64] > 1 {
		return nil, fmt.Errorf("%w: recovery id %d", errInvalidSignature, sig[64])
	}
	compact := make([]byte, SignatureLength)
	compact[0] = sig[64] + compactSigMagicOffset
	copy(compact[1:], sig[:64])
	pub, _, err := ecdsa.RecoverCompact(compact, digest)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errInvalidSignature, err)
	}
	return pub, nil
}

// SigToAddress recovers the address that produced sig over digest.
func SigToAddress(digest, sig []byte) (common.Address, error) {
	pub, err := SigToPub(digest, sig)
	if err != nil {
		return common.Address{}, err
	}
	return PubkeyToAddress(pub), nil
}
