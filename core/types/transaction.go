package types

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/tos-network/valreg/common"
	"github.com/tos-network/valreg/common/hexutil"
	"github.com/tos-network/valreg/crypto"
)

// sigHashPrefix domain-separates registry transactions from any other
// message signed with the same key.
const sigHashPrefix = "valreg-tx\x00"

var (
	ErrInvalidSig = errors.New("invalid transaction signature")
	ErrEmptyData  = errors.New("transaction carries no action")
)

// Transaction is one signed registry call. Data is the JSON encoded system
// action; the caller identity is the address recovered from Sig.
type Transaction struct {
	Nonce uint64          `json:"nonce"`
	Data  json.RawMessage `json:"action"`
	Sig   hexutil.Bytes   `json:"sig,omitempty"`
}

// NewTransaction creates an unsigned transaction.
func NewTransaction(nonce uint64, data []byte) *Transaction {
	return &Transaction{Nonce: nonce, Data: append(json.RawMessage(nil), data...)}
}

// SigHash returns the digest the sender signs: keccak256 over the prefix, the
// big-endian nonce and the compacted action JSON.
func (tx *Transaction) SigHash() (common.Hash, error) {
	if len(tx.Data) == 0 {
		return common.Hash{}, ErrEmptyData
	}
	var compact bytes.Buffer
	if err := json.Compact(&compact, tx.Data); err != nil {
		return common.Hash{}, fmt.Errorf("invalid action json: %w", err)
	}
	var nonce [8]byte
	binary.BigEndian.PutUint64(nonce[:], tx.Nonce)
	return crypto.Keccak256Hash([]byte(sigHashPrefix), nonce[:], compact.Bytes()), nil
}

// Hash returns the transaction identifier: the signing digest extended with
// the signature.
func (tx *Transaction) Hash() common.Hash {
	h, err := tx.SigHash()
	if err != nil {
		return common.Hash{}
	}
	return crypto.Keccak256Hash(h[:], tx.Sig)
}

// SignTx signs the transaction in place and returns it.
func SignTx(tx *Transaction, key *btcec.PrivateKey) (*Transaction, error) {
	h, err := tx.SigHash()
	if err != nil {
		return nil, err
	}
	sig, err := crypto.Sign(h[:], key)
	if err != nil {
		return nil, err
	}
	tx.Sig = sig
	return tx, nil
}

// Sender recovers the address that signed tx.
func Sender(tx *Transaction) (common.Address, error) {
	if len(tx.Sig) == 0 {
		return common.Address{}, fmt.Errorf("%w: missing", ErrInvalidSig)
	}
	h, err := tx.SigHash()
	if err != nil {
		return common.Address{}, err
	}
	addr, err := crypto.SigToAddress(h[:], tx.Sig)
	if err != nil {
		return common.Address{}, fmt.Errorf("%w: %v", ErrInvalidSig, err)
	}
	return addr, nil
}
