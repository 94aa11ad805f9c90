package main

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/google/uuid"
	"github.com/tos-network/valreg/common"
	"github.com/tos-network/valreg/crypto"
)

var errKeyfileExists = errors.New("keyfile already exists")

// keyFile is the on-disk form of one key. The private key is stored in
// plain hex; the file is created with owner-only permissions.
type keyFile struct {
	ID             string         `json:"id"`
	Address        common.Address `json:"address"`
	PrivateKey     string         `json:"privateKey"`
	DerivationPath string         `json:"derivationPath,omitempty"`
}

func newKeyFile(key *btcec.PrivateKey, derivationPath string) (*keyFile, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return nil, fmt.Errorf("failed to generate random uuid: %w", err)
	}
	return &keyFile{
		ID:             id.String(),
		Address:        crypto.PubkeyToAddress(key.PubKey()),
		PrivateKey:     hex.EncodeToString(crypto.FromPrivateKey(key)),
		DerivationPath: derivationPath,
	}, nil
}

// key decodes the private key and checks it against the stored address.
func (kf *keyFile) key() (*btcec.PrivateKey, error) {
	key, err := crypto.HexToPrivateKey(kf.PrivateKey)
	if err != nil {
		return nil, err
	}
	if addr := crypto.PubkeyToAddress(key.PubKey()); addr != kf.Address {
		return nil, fmt.Errorf("keyfile address %s does not match key address %s", kf.Address.Hex(), addr.Hex())
	}
	return key, nil
}

func writeKeyFile(path string, kf *keyFile) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%w at %s", errKeyfileExists, path)
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("error checking if keyfile exists: %w", err)
	}
	blob, err := json.MarshalIndent(kf, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("could not create directory %s: %w", filepath.Dir(path), err)
	}
	return os.WriteFile(path, blob, 0600)
}

func readKeyFile(path string) (*keyFile, *btcec.PrivateKey, error) {
	blob, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read the keyfile at '%s': %w", path, err)
	}
	kf := new(keyFile)
	if err := json.Unmarshal(blob, kf); err != nil {
		return nil, nil, fmt.Errorf("invalid keyfile %s: %w", path, err)
	}
	key, err := kf.key()
	if err != nil {
		return nil, nil, fmt.Errorf("invalid keyfile %s: %w", path, err)
	}
	return kf, key, nil
}
