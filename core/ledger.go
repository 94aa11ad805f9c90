package core

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/tos-network/valreg/common"
	"github.com/tos-network/valreg/core/rawdb"
	"github.com/tos-network/valreg/core/state"
	"github.com/tos-network/valreg/core/types"
	"github.com/tos-network/valreg/core/vm"
	"github.com/tos-network/valreg/event"
	"github.com/tos-network/valreg/kvstore"
	"github.com/tos-network/valreg/log"
	"github.com/tos-network/valreg/params"
	"github.com/tos-network/valreg/sysaction"
	"github.com/tos-network/valreg/tosdb"
	"github.com/tos-network/valreg/validator"

	// Registers the lifecycle handler with sysaction.DefaultRegistry. The
	// keys handler comes in through reader.go.
	_ "github.com/tos-network/valreg/lifecycle"
)

var (
	// ErrNonceTooLow is returned if the nonce of a transaction is lower than the
	// one present in the local state.
	ErrNonceTooLow = errors.New("nonce too low")

	// ErrNonceTooHigh is returned if the nonce of a transaction is higher than the
	// next one expected based on the local state.
	ErrNonceTooHigh = errors.New("nonce too high")

	// ErrLedgerClosed is returned by ApplyTransaction after Close.
	ErrLedgerClosed = errors.New("ledger closed")
)

// Option configures a Ledger.
type Option func(*Ledger)

// WithClock replaces the wall clock used to timestamp transactions.
func WithClock(clock func() time.Time) Option {
	return func(l *Ledger) { l.clock = clock }
}

// WithRegisterer registers the ledger and state metrics with registry.
func WithRegisterer(registry prometheus.Registerer) Option {
	return func(l *Ledger) { l.registerer = registry }
}

// WithHandlers dispatches actions to registry instead of
// sysaction.DefaultRegistry.
func WithHandlers(registry *sysaction.Registry) Option {
	return func(l *Ledger) { l.handlers = registry }
}

// WithCacheSize sets the number of storage words kept in the state cache.
func WithCacheSize(size int) Option {
	return func(l *Ledger) { l.cacheSize = size }
}

// Ledger is the single-writer transaction log the registry runs on. Every
// accepted transaction gets the next sequence number and a persisted receipt;
// its state writes are committed atomically with that receipt.
type Ledger struct {
	db      tosdb.KeyValueStore
	statedb *state.Database
	genesis *Genesis

	handlers   *sysaction.Registry
	clock      func() time.Time
	registerer prometheus.Registerer
	cacheSize  int
	metrics    *ledgerMetrics

	mu      sync.RWMutex // guards state commits and nextSeq
	sendMu  sync.Mutex   // orders event delivery across transactions
	nextSeq uint64
	closed  bool

	feed event.FeedOf[types.ChangeEvent]
}

// NewLedger opens the ledger stored in db. A nil genesis loads the one the
// database was initialised with.
func NewLedger(db tosdb.KeyValueStore, genesis *Genesis, opts ...Option) (*Ledger, error) {
	l := &Ledger{
		db:       db,
		handlers: sysaction.DefaultRegistry,
		clock:    time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	g, err := SetupGenesis(db, genesis)
	if err != nil {
		return nil, err
	}
	l.genesis = g
	l.statedb = state.NewDatabaseWithCache(db, l.cacheSize)

	if head, ok := rawdb.ReadHeadSeq(db); ok {
		l.nextSeq = head + 1
	}
	if l.registerer != nil {
		if err := state.RegisterMetrics(l.registerer); err != nil {
			return nil, err
		}
		l.metrics = newLedgerMetrics(l.registerer)
		l.metrics.activeValidators.Set(float64(len(validator.GetValidators(state.New(l.statedb)))))
	}
	log.Info("Opened validator registry ledger", "owner", g.Config.SystemOwner, "policy", g.Config.Policy(), "next", l.nextSeq)
	return l, nil
}

// Config returns the registry configuration fixed at genesis.
func (l *Ledger) Config() *params.RegistryConfig {
	return l.genesis.Config
}

// Genesis returns the genesis the ledger was initialised with.
func (l *Ledger) Genesis() *Genesis {
	return l.genesis
}

// ApplyTransaction verifies tx and runs its action against the registry.
//
// Transactions with a bad signature or an unexpected nonce are rejected with
// an error and leave no trace. Otherwise the transaction is logged: its nonce
// is consumed and a receipt is persisted even if the registry rejects the
// action. In that case the receipt is returned together with the action's
// error and no registry state changes.
func (l *Ledger) ApplyTransaction(tx *types.Transaction) (*types.Receipt, error) {
	from, err := types.Sender(tx)
	if err != nil {
		l.metrics.reject(rejectSignature)
		return nil, err
	}

	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return nil, ErrLedgerClosed
	}
	statedb := state.New(l.statedb)
	nonce := readNonce(statedb, from)
	switch {
	case tx.Nonce < nonce:
		l.mu.Unlock()
		l.metrics.reject(rejectNonceTooLow)
		return nil, fmt.Errorf("%w: address %v, tx: %d state: %d", ErrNonceTooLow, from, tx.Nonce, nonce)
	case tx.Nonce > nonce:
		l.mu.Unlock()
		l.metrics.reject(rejectNonceTooHigh)
		return nil, fmt.Errorf("%w: address %v, tx: %d state: %d", ErrNonceTooHigh, from, tx.Nonce, nonce)
	}

	var (
		seq = l.nextSeq
		now = uint64(l.clock().Unix())
		ctx = &sysaction.Context{
			From:    from,
			Time:    now,
			Config:  l.genesis.Config,
			StateDB: statedb,
		}
	)
	events, execErr := l.handlers.Execute(ctx, tx.Data)
	writeNonce(statedb, from, nonce+1)

	receipt := &types.Receipt{
		Seq:    seq,
		TxHash: tx.Hash(),
		From:   from,
		Nonce:  tx.Nonce,
		Action: actionName(tx.Data),
		Time:   now,
		Status: types.ReceiptStatusSuccessful,
	}
	if execErr != nil {
		receipt.Status = types.ReceiptStatusFailed
		receipt.Err = execErr.Error()
	}
	for i := range events {
		events[i].ID = types.EventID(seq, i)
		events[i].Seq = seq
	}
	receipt.Events = events

	batch := l.db.NewBatch()
	statedb.CommitTo(batch)
	rawdb.WriteReceipt(batch, receipt)
	rawdb.WriteHeadSeq(batch, seq)
	if err := batch.Write(); err != nil {
		statedb.Discard()
		l.statedb.Purge()
		l.mu.Unlock()
		log.Error("Failed to commit transaction", "seq", seq, "err", err)
		return nil, err
	}
	statedb.MarkCommitted()
	l.nextSeq++

	if l.metrics != nil {
		if execErr != nil {
			l.metrics.reject(rejectExecution)
		} else {
			l.metrics.applied.Inc()
			l.metrics.events.Add(float64(len(events)))
			l.metrics.activeValidators.Set(float64(len(validator.GetValidators(state.New(l.statedb)))))
		}
	}
	if execErr != nil {
		log.Warn("Registry transaction failed", "seq", seq, "from", from, "action", receipt.Action, "err", execErr)
	} else {
		log.Debug("Registry transaction applied", "seq", seq, "from", from, "action", receipt.Action, "events", len(events))
	}

	// Deliver events outside the state lock but in commit order.
	l.sendMu.Lock()
	l.mu.Unlock()
	for _, ev := range events {
		l.feed.Send(ev)
	}
	l.sendMu.Unlock()

	return receipt, execErr
}

// SubscribeChangeEvents delivers the change events of every transaction
// applied after the call, in commit order. The ledger blocks until the
// subscriber takes each event, so subscribers must keep draining ch.
func (l *Ledger) SubscribeChangeEvents(ch chan<- types.ChangeEvent) event.Subscription {
	return l.feed.Subscribe(ch)
}

// View runs fn against a consistent snapshot of committed state. fn must not
// retain the StateDB.
func (l *Ledger) View(fn func(vm.StateDB) error) error {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return fn(state.New(l.statedb))
}

// Nonce returns the next nonce expected from addr.
func (l *Ledger) Nonce(addr common.Address) uint64 {
	var nonce uint64
	l.View(func(db vm.StateDB) error {
		nonce = readNonce(db, addr)
		return nil
	})
	return nonce
}

// HeadSeq returns the sequence number of the latest logged transaction, and
// false if none was logged yet.
func (l *Ledger) HeadSeq() (uint64, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.nextSeq == 0 {
		return 0, false
	}
	return l.nextSeq - 1, true
}

// Receipt returns the receipt logged at seq, or nil.
func (l *Ledger) Receipt(seq uint64) *types.Receipt {
	return rawdb.ReadReceipt(l.db, seq)
}

// Receipts calls fn for every receipt from seq on, in order, until fn
// returns false.
func (l *Ledger) Receipts(from uint64, fn func(*types.Receipt) bool) error {
	return rawdb.IterateReceipts(l.db, from, fn)
}

// Close rejects further transactions. The database stays open; it belongs to
// the caller.
func (l *Ledger) Close() {
	l.mu.Lock()
	l.closed = true
	l.mu.Unlock()
}

func nonceSlot(addr common.Address) common.Hash {
	return kvstore.Slot(addr[:], "nonce")
}

func readNonce(db vm.StateDB, addr common.Address) uint64 {
	return kvstore.ReadUint64(db, params.LedgerAddress, nonceSlot(addr))
}

func writeNonce(db vm.StateDB, addr common.Address, nonce uint64) {
	kvstore.WriteUint64(db, params.LedgerAddress, nonceSlot(addr), nonce)
}

// actionName extracts the action kind for the receipt, or "" if data does
// not decode.
func actionName(data []byte) string {
	sa, err := sysaction.Decode(data)
	if err != nil {
		return ""
	}
	return string(sa.Action)
}
