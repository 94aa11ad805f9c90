package vm

import (
	"github.com/tos-network/valreg/common"
)

// StateDB is the slot-addressed state every system-action handler reads and
// writes. Each system address owns an independent 2^256 word keyspace.
type StateDB interface {
	GetState(addr common.Address, slot common.Hash) common.Hash
	SetState(addr common.Address, slot common.Hash, value common.Hash)

	// Snapshot returns an identifier for the current revision of the state.
	Snapshot() int
	// RevertToSnapshot discards every write made after the given revision.
	RevertToSnapshot(revid int)
}
