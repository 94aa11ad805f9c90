package state

import (
	"github.com/tos-network/valreg/common"
)

// journalEntry is a modification entry in the state change journal that can
// be reverted on demand.
type journalEntry interface {
	revert(*StateDB)
}

// journal contains the list of state modifications applied since the last
// commit, so a failed action can be rolled back to any snapshot.
type journal struct {
	entries []journalEntry
}

func newJournal() *journal {
	return &journal{}
}

func (j *journal) append(entry journalEntry) {
	j.entries = append(j.entries, entry)
}

// revert undoes a batch of journalled modifications down to snapshot.
func (j *journal) revert(statedb *StateDB, snapshot int) {
	for i := len(j.entries) - 1; i >= snapshot; i-- {
		j.entries[i].revert(statedb)
	}
	j.entries = j.entries[:snapshot]
}

func (j *journal) length() int {
	return len(j.entries)
}

type storageChange struct {
	addr     common.Address
	slot     common.Hash
	prev     common.Hash
	prevSeen bool // whether the slot was already dirty before the change
}

func (ch storageChange) revert(s *StateDB) {
	if ch.prevSeen {
		s.dirties[ch.addr][ch.slot] = ch.prev
		return
	}
	delete(s.dirties[ch.addr], ch.slot)
	if len(s.dirties[ch.addr]) == 0 {
		delete(s.dirties, ch.addr)
	}
}
