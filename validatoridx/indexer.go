package validatoridx

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/tos-network/valreg/core/types"
	"github.com/tos-network/valreg/event"
	"github.com/tos-network/valreg/log"
	"github.com/tos-network/valreg/params"
)

// Ledger is the minimal ledger interface consumed by Indexer.
// Satisfied by core.Ledger.
type Ledger interface {
	Config() *params.RegistryConfig
	SubscribeChangeEvents(ch chan<- types.ChangeEvent) event.Subscription
	Receipts(from uint64, fn func(*types.Receipt) bool) error
}

// Indexer keeps a Registry and an optional audit Store up to date with the
// ledger. It replays logged receipts first, then follows live change events.
type Indexer struct {
	ledger   Ledger
	registry *Registry
	store    *Store

	synced uint64 // first sequence number not yet replayed
	cancel context.CancelFunc
	done   chan struct{}
}

// NewIndexer creates an Indexer feeding registry and, if non-nil, store.
func NewIndexer(ledger Ledger, registry *Registry, store *Store) *Indexer {
	return &Indexer{
		ledger:   ledger,
		registry: registry,
		store:    store,
		done:     make(chan struct{}),
	}
}

// Sync replays every successful receipt not seen yet. It must not run
// concurrently with the loop started by Start.
func (idx *Indexer) Sync() error {
	if idx.synced == 0 {
		idx.seedGenesis()
	}
	return idx.ledger.Receipts(idx.synced, func(r *types.Receipt) bool {
		if r.Succeeded() {
			idx.apply(r.Events)
		}
		idx.synced = r.Seq + 1
		return true
	})
}

// Start subscribes to the ledger, catches up on the receipt log and then
// consumes live events in a background goroutine. It returns once the
// catch-up is done, with its error if it failed.
func (idx *Indexer) Start() error {
	ctx, cancel := context.WithCancel(context.Background())
	idx.cancel = cancel

	ready := make(chan error, 1)
	go func() {
		defer close(idx.done)
		if err := idx.run(ctx, ready); err != nil {
			log.Warn("Validator indexer stopped", "err", err)
		}
	}()
	if err := <-ready; err != nil {
		cancel()
		<-idx.done
		return err
	}
	log.Info("Validator index synced", "next", idx.Synced(), "validators", idx.registry.Len())
	return nil
}

// Stop shuts down the indexer and waits for it to exit.
func (idx *Indexer) Stop() {
	idx.cancel()
	<-idx.done
}

// run catches up and follows in two goroutines of one group. Live events
// queue in the subscription channel until the catch-up has finished.
func (idx *Indexer) run(ctx context.Context, ready chan<- error) error {
	ch := make(chan types.ChangeEvent, 64)
	sub := idx.ledger.SubscribeChangeEvents(ch)
	defer sub.Unsubscribe()

	g, gctx := errgroup.WithContext(ctx)
	caughtUp := make(chan struct{})
	g.Go(func() error {
		err := idx.Sync()
		ready <- err
		if err != nil {
			return err
		}
		close(caughtUp)
		return nil
	})
	g.Go(func() error {
		select {
		case <-caughtUp:
		case <-gctx.Done():
			return nil
		}
		return idx.follow(gctx, ch, sub)
	})
	return g.Wait()
}

// Synced returns the first sequence number the replay has not covered.
func (idx *Indexer) Synced() uint64 {
	return idx.synced
}

// follow must never call back into the ledger: the ledger blocks on
// delivery while the subscriber is busy.
func (idx *Indexer) follow(ctx context.Context, ch <-chan types.ChangeEvent, sub event.Subscription) error {
	for {
		select {
		case ev := <-ch:
			if ev.Seq < idx.synced {
				continue
			}
			idx.apply([]types.ChangeEvent{ev})
		case err := <-sub.Err():
			return err
		case <-ctx.Done():
			return nil
		}
	}
}

func (idx *Indexer) seedGenesis() {
	owner := idx.ledger.Config().SystemOwner
	if _, ok := idx.registry.Get(owner); ok {
		return
	}
	idx.registry.Upsert(Entry{MiningKey: owner, Owner: owner, Genesis: true})
}

func (idx *Indexer) apply(events []types.ChangeEvent) {
	for i := range events {
		idx.applyOne(&events[i])
	}
	if idx.store == nil {
		return
	}
	if err := idx.store.Append(events); err != nil {
		log.Warn("Validator indexer: audit append failed", "err", err)
	}
}

func (idx *Indexer) applyOne(ev *types.ChangeEvent) {
	switch ev.Kind {
	case types.ValidatorAdded, types.ValidatorUpdated, types.ValidatorDisabled, types.ValidatorEnabled:
	default:
		return
	}
	if ev.Validator == nil {
		log.Debug("Validator indexer: event without snapshot", "id", ev.ID, "kind", ev.Kind)
		return
	}
	entry, ok := idx.registry.Get(ev.MiningKey)
	if !ok {
		entry = Entry{MiningKey: ev.MiningKey, AddedSeq: ev.Seq}
	}
	if !ev.Owner.IsZero() {
		entry.Owner = ev.Owner
	}
	entry.Validator = *ev.Validator
	entry.UpdatedSeq = ev.Seq
	entry.UpdatedAt = ev.Time
	idx.registry.Upsert(entry)
}
