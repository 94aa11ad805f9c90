// Package state provides the slot-addressed state the registry handlers run
// against: uncommitted writes are buffered and journalled on top of the
// committed words held by a Database.
package state

import (
	"fmt"
	"sort"

	"github.com/tos-network/valreg/common"
	"github.com/tos-network/valreg/core/rawdb"
	"github.com/tos-network/valreg/tosdb"
)

type revision struct {
	id           int
	journalIndex int
}

// StateDB buffers storage writes over a Database. It is not safe for
// concurrent use; the ledger serialises writers and hands every reader its
// own instance.
type StateDB struct {
	db      *Database
	dirties map[common.Address]map[common.Hash]common.Hash

	journal        *journal
	validRevisions []revision
	nextRevisionId int
}

// New creates a state view over the committed contents of db.
func New(db *Database) *StateDB {
	return &StateDB{
		db:      db,
		dirties: make(map[common.Address]map[common.Hash]common.Hash),
		journal: newJournal(),
	}
}

// Database returns the backing state database.
func (s *StateDB) Database() *Database {
	return s.db
}

// GetState returns the current word at (addr, slot), including uncommitted
// writes.
func (s *StateDB) GetState(addr common.Address, slot common.Hash) common.Hash {
	if slots, ok := s.dirties[addr]; ok {
		if value, ok := slots[slot]; ok {
			return value
		}
	}
	return s.db.Storage(addr, slot)
}

// GetCommittedState returns the word at (addr, slot) ignoring uncommitted
// writes.
func (s *StateDB) GetCommittedState(addr common.Address, slot common.Hash) common.Hash {
	return s.db.Storage(addr, slot)
}

// SetState buffers a write of value at (addr, slot).
func (s *StateDB) SetState(addr common.Address, slot common.Hash, value common.Hash) {
	slots, ok := s.dirties[addr]
	if !ok {
		slots = make(map[common.Hash]common.Hash)
		s.dirties[addr] = slots
	}
	prev, seen := slots[slot]
	if !seen {
		prev = s.db.Storage(addr, slot)
	}
	s.journal.append(storageChange{addr: addr, slot: slot, prev: prev, prevSeen: seen})
	slots[slot] = value
}

// Snapshot returns an identifier for the current revision of the state.
func (s *StateDB) Snapshot() int {
	id := s.nextRevisionId
	s.nextRevisionId++
	s.validRevisions = append(s.validRevisions, revision{id, s.journal.length()})
	return id
}

// RevertToSnapshot reverts all state changes made since the given revision.
func (s *StateDB) RevertToSnapshot(revid int) {
	idx := sort.Search(len(s.validRevisions), func(i int) bool {
		return s.validRevisions[i].id >= revid
	})
	if idx == len(s.validRevisions) || s.validRevisions[idx].id != revid {
		panic(fmt.Errorf("revision id %v cannot be reverted", revid))
	}
	snapshot := s.validRevisions[idx].journalIndex

	s.journal.revert(s, snapshot)
	s.validRevisions = s.validRevisions[:idx]
}

// Dirty reports the number of slots with uncommitted writes.
func (s *StateDB) Dirty() int {
	n := 0
	for _, slots := range s.dirties {
		n += len(slots)
	}
	return n
}

// CommitTo writes every buffered word that differs from the committed state
// into w. Zero words become deletes. The returned counts are for metrics.
func (s *StateDB) CommitTo(w tosdb.KeyValueWriter) (updated, deleted int) {
	for addr, slots := range s.dirties {
		for slot, value := range slots {
			if value == s.db.Storage(addr, slot) {
				continue
			}
			rawdb.WriteStorage(w, addr, slot, value)
			if value == (common.Hash{}) {
				deleted++
			} else {
				updated++
			}
		}
	}
	storageUpdatedCounter.Add(float64(updated))
	storageDeletedCounter.Add(float64(deleted))
	return updated, deleted
}

// MarkCommitted must be called once the writes produced by CommitTo are
// durable. It publishes them to the database cache and resets the buffer.
func (s *StateDB) MarkCommitted() {
	s.db.update(s.dirties)
	s.Discard()
}

// Discard drops every buffered write and the journal.
func (s *StateDB) Discard() {
	s.dirties = make(map[common.Address]map[common.Hash]common.Hash)
	s.journal = newJournal()
	s.validRevisions = s.validRevisions[:0]
}
