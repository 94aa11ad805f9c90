package state

import (
	"github.com/hashicorp/golang-lru"
	"github.com/tos-network/valreg/common"
	"github.com/tos-network/valreg/core/rawdb"
	"github.com/tos-network/valreg/tosdb"
)

// defaultCacheSize is the number of storage words kept in the read cache.
const defaultCacheSize = 64 * 1024

type slotKey struct {
	addr common.Address
	slot common.Hash
}

// Database wraps the key-value store holding committed storage words and
// keeps a cache of recently read slots in front of it. Absent slots are
// cached too, as zero words.
type Database struct {
	disk  tosdb.KeyValueStore
	cache *lru.ARCCache
}

// NewDatabase creates a state database with the default cache size.
func NewDatabase(disk tosdb.KeyValueStore) *Database {
	return NewDatabaseWithCache(disk, defaultCacheSize)
}

// NewDatabaseWithCache creates a state database caching up to size slots.
func NewDatabaseWithCache(disk tosdb.KeyValueStore, size int) *Database {
	if size <= 0 {
		size = defaultCacheSize
	}
	cache, _ := lru.NewARC(size)
	return &Database{disk: disk, cache: cache}
}

// DiskDB returns the underlying key-value store.
func (db *Database) DiskDB() tosdb.KeyValueStore {
	return db.disk
}

// Storage returns the committed word at (addr, slot).
func (db *Database) Storage(addr common.Address, slot common.Hash) common.Hash {
	key := slotKey{addr, slot}
	if cached, ok := db.cache.Get(key); ok {
		storageCacheHitCounter.Inc()
		return cached.(common.Hash)
	}
	storageCacheMissCounter.Inc()
	value := rawdb.ReadStorage(db.disk, addr, slot)
	db.cache.Add(key, value)
	return value
}

// update refreshes cached words after a successful commit.
func (db *Database) update(dirties map[common.Address]map[common.Hash]common.Hash) {
	for addr, slots := range dirties {
		for slot, value := range slots {
			db.cache.Add(slotKey{addr, slot}, value)
		}
	}
}

// Purge drops every cached word.
func (db *Database) Purge() {
	db.cache.Purge()
}
