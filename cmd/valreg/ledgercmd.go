package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/tos-network/valreg/cmd/utils"
	"github.com/tos-network/valreg/core"
	"github.com/tos-network/valreg/core/types"
	"github.com/tos-network/valreg/log"
	"github.com/tos-network/valreg/tosdb"
	"github.com/tos-network/valreg/validatoridx"
	"github.com/urfave/cli/v2"
	"golang.org/x/term"
)

var (
	initCommand = &cli.Command{
		Action:    initRegistry,
		Name:      "init",
		Usage:     "Bootstrap and initialize a new registry ledger",
		ArgsUsage: "[<genesisPath>]",
		Description: `
The init command writes the registry genesis into the data directory. The
genesis is read from the given JSON file, or built from the [Registry]
config section and the --genesis.* flags. The system owner it names becomes
the first validator.

It is safe to run init on an initialized data directory as long as the
genesis is unchanged.`,
	}
	applyCommand = &cli.Command{
		Action:    applyTransactions,
		Name:      "apply",
		Usage:     "Apply signed registry transactions",
		ArgsUsage: "<txfile>...",
		Description: `
The apply command appends signed transactions (as written by 'valkey sign') to
the ledger, in the order given. Each file may hold any number of transaction
objects; "-" reads them from standard input.

Every logged transaction prints its receipt. Transactions the registry
rejects are still logged and consume their nonce.`,
	}
)

// openLedger opens the ledger in the configured data directory. A nil genesis
// requires the directory to be initialized already.
func openLedger(cfg *valregConfig, genesis *core.Genesis) (*core.Ledger, tosdb.KeyValueStore, error) {
	db, err := utils.OpenLedgerDatabase(cfg.DataDir, false)
	if err != nil {
		return nil, nil, err
	}
	ledger, err := core.NewLedger(db, genesis, core.WithCacheSize(cfg.Cache))
	if err != nil {
		db.Close()
		return nil, nil, err
	}
	return ledger, db, nil
}

// syncIndex brings the validator index up to date with the ledger. The
// returned store is nil when indexing is disabled.
func syncIndex(cfg *valregConfig, ledger *core.Ledger) (*validatoridx.Registry, *validatoridx.Store, error) {
	registry := validatoridx.NewRegistry()
	var store *validatoridx.Store
	if !cfg.Index.Disabled {
		s, err := validatoridx.OpenStore(cfg.indexPath())
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open validator index: %w", err)
		}
		store = s
	}
	if err := validatoridx.NewIndexer(ledger, registry, store).Sync(); err != nil {
		if store != nil {
			store.Close()
		}
		return nil, nil, err
	}
	return registry, store, nil
}

func initRegistry(ctx *cli.Context) error {
	cfg := configFrom(ctx)
	genesis := &core.Genesis{Config: &cfg.Registry}
	if path := ctx.Args().First(); path != "" {
		blob, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read genesis file: %w", err)
		}
		genesis = new(core.Genesis)
		if err := json.Unmarshal(blob, genesis); err != nil {
			return fmt.Errorf("invalid genesis file: %w", err)
		}
	}
	if err := genesis.Validate(); err != nil {
		return err
	}
	ledger, db, err := openLedger(cfg, genesis)
	if err != nil {
		return err
	}
	defer db.Close()
	defer ledger.Close()

	log.Info("Successfully wrote registry genesis", "datadir", cfg.DataDir, "owner", ledger.Config().SystemOwner)
	fmt.Fprintf(ctx.App.Writer, "Initialized registry with system owner %s\n", ledger.Config().SystemOwner.Hex())
	return nil
}

func applyTransactions(ctx *cli.Context) error {
	if ctx.NArg() == 0 {
		return errors.New("no transaction files given")
	}
	cfg := configFrom(ctx)
	ledger, db, err := openLedger(cfg, nil)
	if err != nil {
		return err
	}
	defer db.Close()
	defer ledger.Close()

	var failed int
	for _, path := range ctx.Args().Slice() {
		txs, err := readTransactionFile(ctx, path)
		if err != nil {
			return err
		}
		for _, tx := range txs {
			receipt, err := ledger.ApplyTransaction(tx)
			if receipt == nil {
				return fmt.Errorf("transaction %s rejected: %w", tx.Hash().Hex(), err)
			}
			if err != nil {
				failed++
				log.Warn("Transaction failed", "seq", receipt.Seq, "from", receipt.From, "action", receipt.Action, "err", err)
			}
			if err := printJSON(ctx.App.Writer, receipt); err != nil {
				return err
			}
		}
	}
	if !cfg.Index.Disabled {
		_, store, err := syncIndex(cfg, ledger)
		if err != nil {
			return err
		}
		store.Close()
	}
	if failed > 0 {
		return fmt.Errorf("%d transaction(s) failed", failed)
	}
	return nil
}

func readTransactionFile(ctx *cli.Context, path string) ([]*types.Transaction, error) {
	var r io.Reader = ctx.App.Reader
	if path == "-" {
		if f, ok := r.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
			log.Info("Reading transactions from standard input, end with Ctrl-D")
		}
	} else {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		r = f
	}
	txs, err := decodeTransactions(r)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return txs, nil
}

// decodeTransactions reads a stream of transaction JSON objects.
func decodeTransactions(r io.Reader) ([]*types.Transaction, error) {
	var (
		dec = json.NewDecoder(r)
		txs []*types.Transaction
	)
	for {
		tx := new(types.Transaction)
		if err := dec.Decode(tx); err == io.EOF {
			return txs, nil
		} else if err != nil {
			return nil, fmt.Errorf("invalid transaction %d: %w", len(txs), err)
		}
		txs = append(txs, tx)
	}
}

func printJSON(w io.Writer, v interface{}) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(out))
	return err
}
