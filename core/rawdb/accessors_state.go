package rawdb

import (
	"github.com/tos-network/valreg/common"
	"github.com/tos-network/valreg/log"
	"github.com/tos-network/valreg/tosdb"
)

// ReadStorage retrieves a single storage word. Absent slots read as zero.
func ReadStorage(db tosdb.KeyValueReader, addr common.Address, slot common.Hash) common.Hash {
	data, _ := db.Get(storageKey(addr, slot))
	return common.BytesToHash(data)
}

// HasStorage checks whether a non-zero word is stored at the slot.
func HasStorage(db tosdb.KeyValueReader, addr common.Address, slot common.Hash) bool {
	ok, _ := db.Has(storageKey(addr, slot))
	return ok
}

// WriteStorage stores a storage word. Zero words are deleted instead so the
// database only ever holds live slots.
func WriteStorage(db tosdb.KeyValueWriter, addr common.Address, slot common.Hash, value common.Hash) {
	if value == (common.Hash{}) {
		DeleteStorage(db, addr, slot)
		return
	}
	if err := db.Put(storageKey(addr, slot), value.Bytes()); err != nil {
		log.Crit("Failed to store storage word", "err", err)
	}
}

// DeleteStorage removes a storage word.
func DeleteStorage(db tosdb.KeyValueWriter, addr common.Address, slot common.Hash) {
	if err := db.Delete(storageKey(addr, slot)); err != nil {
		log.Crit("Failed to delete storage word", "err", err)
	}
}

// IterateStorage calls fn for every live slot owned by addr, in slot order.
// Iteration stops early when fn returns false.
func IterateStorage(db tosdb.Iteratee, addr common.Address, fn func(slot, value common.Hash) bool) error {
	prefix := storagePrefixKey(addr)
	it := NewKeyLengthIterator(db.NewIterator(prefix, nil), StorageKeyLength)
	defer it.Release()

	for it.Next() {
		slot := common.BytesToHash(it.Key()[len(prefix):])
		if !fn(slot, common.BytesToHash(it.Value())) {
			break
		}
	}
	return it.Error()
}
