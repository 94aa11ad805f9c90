package core

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/tos-network/valreg/common"
	"github.com/tos-network/valreg/core/rawdb"
	"github.com/tos-network/valreg/core/state"
	"github.com/tos-network/valreg/log"
	"github.com/tos-network/valreg/params"
	"github.com/tos-network/valreg/tosdb"
	"github.com/tos-network/valreg/validator"
)

var (
	errNoGenesis = errors.New("genesis not found in database and none provided")

	// ErrGenesisMismatch is returned when the provided genesis differs from
	// the one the database was initialised with.
	ErrGenesisMismatch = errors.New("genesis mismatch")
)

// Genesis specifies the registry configuration fixed at initialisation. The
// system owner it names is seeded as the first validator.
type Genesis struct {
	Config    *params.RegistryConfig `json:"config"`
	Timestamp uint64                 `json:"timestamp"`
}

// DeveloperGenesis returns a genesis with owner as system owner and the
// default governance policy.
func DeveloperGenesis(owner common.Address) *Genesis {
	return &Genesis{Config: &params.RegistryConfig{SystemOwner: owner}}
}

// Validate checks the genesis for obvious mistakes.
func (g *Genesis) Validate() error {
	if g.Config == nil {
		return errors.New("genesis has no registry config")
	}
	return g.Config.Validate()
}

// SetupGenesis writes or loads the genesis of db.
//
//	                     genesis == nil       genesis != nil
//	                  +------------------------------------------
//	db has no genesis |  error               |  commit genesis
//	db has genesis    |  stored genesis      |  stored genesis (if equal)
//
// A provided genesis that differs from the stored one yields
// ErrGenesisMismatch.
func SetupGenesis(db tosdb.KeyValueStore, genesis *Genesis) (*Genesis, error) {
	stored := rawdb.ReadGenesis(db)
	if len(stored) == 0 {
		if genesis == nil {
			return nil, errNoGenesis
		}
		if err := genesis.Validate(); err != nil {
			return nil, err
		}
		log.Info("Writing registry genesis", "owner", genesis.Config.SystemOwner, "policy", genesis.Config.Policy())
		if err := genesis.Commit(db); err != nil {
			return nil, err
		}
		return genesis, nil
	}
	var loaded Genesis
	if err := json.Unmarshal(stored, &loaded); err != nil {
		return nil, fmt.Errorf("invalid stored genesis: %w", err)
	}
	if genesis != nil {
		enc, err := json.Marshal(genesis)
		if err != nil {
			return nil, err
		}
		if !bytes.Equal(enc, stored) {
			return nil, fmt.Errorf("%w: database has owner %v, provided %v", ErrGenesisMismatch,
				loaded.Config.SystemOwner, genesis.Config.SystemOwner)
		}
	}
	return &loaded, nil
}

// Commit seeds the genesis validator and stores the genesis in db.
func (g *Genesis) Commit(db tosdb.KeyValueStore) error {
	if err := g.Validate(); err != nil {
		return err
	}
	enc, err := json.Marshal(g)
	if err != nil {
		return err
	}
	statedb := state.New(state.NewDatabase(db))
	validator.SeedGenesis(statedb, g.Config.SystemOwner)

	batch := db.NewBatch()
	statedb.CommitTo(batch)
	rawdb.WriteGenesis(batch, enc)
	return batch.Write()
}
