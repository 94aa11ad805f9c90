package rawdb

import (
	"encoding/binary"

	"github.com/tos-network/valreg/common"
)

var (
	// headSeqKey tracks the sequence number of the latest logged transaction.
	headSeqKey = []byte("LastSeq")

	// genesisKey holds the JSON genesis the database was initialised with.
	genesisKey = []byte("Genesis")

	storagePrefix = []byte("s") // storagePrefix + address + slot -> word
	receiptPrefix = []byte("r") // receiptPrefix + seq (uint64 big endian) -> receipt json
)

const (
	// StorageKeyLength is the length of a full storage slot key.
	StorageKeyLength = 1 + common.AddressLength + common.HashLength

	// ReceiptKeyLength is the length of a receipt key.
	ReceiptKeyLength = 1 + 8
)

// encodeSeq encodes a sequence number as big endian uint64.
func encodeSeq(seq uint64) []byte {
	enc := make([]byte, 8)
	binary.BigEndian.PutUint64(enc, seq)
	return enc
}

// storageKey = storagePrefix + address + slot
func storageKey(addr common.Address, slot common.Hash) []byte {
	key := make([]byte, 0, StorageKeyLength)
	key = append(key, storagePrefix...)
	key = append(key, addr.Bytes()...)
	return append(key, slot.Bytes()...)
}

// storagePrefixKey = storagePrefix + address
func storagePrefixKey(addr common.Address) []byte {
	return append(append([]byte{}, storagePrefix...), addr.Bytes()...)
}

// receiptKey = receiptPrefix + seq (uint64 big endian)
func receiptKey(seq uint64) []byte {
	return append(append([]byte{}, receiptPrefix...), encodeSeq(seq)...)
}
