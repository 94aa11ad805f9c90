// Package kvstore lays typed values out over the 32-byte words of a StateDB:
// unsigned integers, flags and addresses take one word, strings take a length
// word plus as many 32-byte chunks as they need.
package kvstore

import (
	"encoding/binary"

	"github.com/holiman/uint256"
	"github.com/tos-network/valreg/common"
	"github.com/tos-network/valreg/core/vm"
	"github.com/tos-network/valreg/crypto"
)

const chunkSize = 32

// Slot hashes (key || 0x00 || field) into a storage slot. Keys used by the
// registries are fixed-length addresses, so no two (key, field) pairs collide.
func Slot(key []byte, field string) common.Hash {
	buf := make([]byte, 0, len(key)+1+len(field))
	buf = append(buf, key...)
	buf = append(buf, 0x00)
	buf = append(buf, field...)
	return common.BytesToHash(crypto.Keccak256(buf))
}

// IndexSlot returns the slot of the i-th element of a named list.
func IndexSlot(list string, i uint64) common.Hash {
	var idx [8]byte
	binary.BigEndian.PutUint64(idx[:], i)
	buf := make([]byte, 0, len(list)+1+8)
	buf = append(buf, list...)
	buf = append(buf, 0x00)
	buf = append(buf, idx[:]...)
	return common.BytesToHash(crypto.Keccak256(buf))
}

func chunkSlot(base common.Hash, index uint64) common.Hash {
	var idx [8]byte
	binary.BigEndian.PutUint64(idx[:], index)
	buf := make([]byte, 0, len(base)+1+len("chunk")+8)
	buf = append(buf, base[:]...)
	buf = append(buf, 0x00)
	buf = append(buf, "chunk"...)
	buf = append(buf, idx[:]...)
	return common.BytesToHash(crypto.Keccak256(buf))
}

// ReadUint64 reads an unsigned integer word. Words wider than 64 bits are
// truncated to their low 64 bits.
func ReadUint64(db vm.StateDB, owner common.Address, slot common.Hash) uint64 {
	raw := db.GetState(owner, slot)
	return new(uint256.Int).SetBytes32(raw[:]).Uint64()
}

// WriteUint64 writes n as a big-endian 256-bit word.
func WriteUint64(db vm.StateDB, owner common.Address, slot common.Hash, n uint64) {
	db.SetState(owner, slot, common.Hash(uint256.NewInt(n).Bytes32()))
}

func ReadBool(db vm.StateDB, owner common.Address, slot common.Hash) bool {
	return db.GetState(owner, slot)[31] != 0
}

func WriteBool(db vm.StateDB, owner common.Address, slot common.Hash, v bool) {
	var word common.Hash
	if v {
		word[31] = 1
	}
	db.SetState(owner, slot, word)
}

// ReadAddress reads a right-aligned address word.
func ReadAddress(db vm.StateDB, owner common.Address, slot common.Hash) common.Address {
	raw := db.GetState(owner, slot)
	return common.BytesToAddress(raw[12:])
}

// WriteAddress stores addr right-aligned in a word.
func WriteAddress(db vm.StateDB, owner common.Address, slot common.Hash, addr common.Address) {
	var word common.Hash
	copy(word[12:], addr.Bytes())
	db.SetState(owner, slot, word)
}

func chunkCount(n uint64) uint64 {
	return (n + chunkSize - 1) / chunkSize
}

// ReadString reads the string stored under base.
func ReadString(db vm.StateDB, owner common.Address, base common.Hash) string {
	n := ReadUint64(db, owner, base)
	if n == 0 {
		return ""
	}
	value := make([]byte, n)
	for i := uint64(0); i < chunkCount(n); i++ {
		word := db.GetState(owner, chunkSlot(base, i))
		start := i * chunkSize
		end := start + chunkSize
		if end > n {
			end = n
		}
		copy(value[start:end], word[:end-start])
	}
	return string(value)
}

// WriteString stores s under base. Chunks left over from a longer previous
// value are cleared.
func WriteString(db vm.StateDB, owner common.Address, base common.Hash, s string) {
	oldLen := ReadUint64(db, owner, base)
	newLen := uint64(len(s))
	for i := uint64(0); i < chunkCount(newLen); i++ {
		start := i * chunkSize
		end := start + chunkSize
		if end > newLen {
			end = newLen
		}
		var word common.Hash
		copy(word[:], s[start:end])
		db.SetState(owner, chunkSlot(base, i), word)
	}
	for i := chunkCount(newLen); i < chunkCount(oldLen); i++ {
		db.SetState(owner, chunkSlot(base, i), common.Hash{})
	}
	WriteUint64(db, owner, base, newLen)
}
