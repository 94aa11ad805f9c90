package validatoridx

import (
	"errors"
	"testing"
	"time"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tos-network/valreg/common"
	"github.com/tos-network/valreg/core"
	"github.com/tos-network/valreg/core/types"
	"github.com/tos-network/valreg/crypto"
	"github.com/tos-network/valreg/event"
	_ "github.com/tos-network/valreg/lifecycle"
	"github.com/tos-network/valreg/params"
	"github.com/tos-network/valreg/sysaction"
	"github.com/tos-network/valreg/tosdb/memorydb"
)

type account struct {
	key  *btcec.PrivateKey
	addr common.Address
}

func newAccount(t *testing.T) account {
	t.Helper()
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	return account{key: key, addr: crypto.PubkeyToAddress(key.PubKey())}
}

type testChain struct {
	*core.Ledger
	t      *testing.T
	owner  account
	nonces map[common.Address]uint64
}

func newTestChain(t *testing.T) *testChain {
	owner := newAccount(t)
	clock := func() time.Time { return time.Unix(1700000000, 0) }
	l, err := core.NewLedger(memorydb.New(), core.DeveloperGenesis(owner.addr), core.WithClock(clock))
	require.NoError(t, err)
	return &testChain{Ledger: l, t: t, owner: owner, nonces: make(map[common.Address]uint64)}
}

func (c *testChain) send(from account, kind sysaction.ActionKind, payload interface{}) {
	data, err := sysaction.MakeSysAction(kind, payload)
	require.NoError(c.t, err)
	tx, err := types.SignTx(types.NewTransaction(c.nonces[from.addr], data), from.key)
	require.NoError(c.t, err)
	_, err = c.ApplyTransaction(tx)
	require.NoError(c.t, err)
	c.nonces[from.addr]++
}

func (c *testChain) admit(state string) (account, common.Address) {
	applicant, voting := newAccount(c.t), newAccount(c.t)
	mining, payout := newAccount(c.t).addr, newAccount(c.t).addr
	c.send(c.owner, sysaction.ActionKeysAddInitial, sysaction.KeysAddInitialPayload{Owner: applicant.addr})
	c.send(applicant, sysaction.ActionKeysCreate, sysaction.KeysCreatePayload{Mining: mining, Payout: payout, Voting: voting.addr})
	c.send(applicant, sysaction.ActionValidatorCeremonyInsert, sysaction.ValidatorMetadataPayload{
		Mining:           mining,
		Zip:              644081,
		LicenseExpiredAt: 1893456000,
		LicenseID:        "license-1",
		FullName:         "Ivan Ivanov",
		StreetName:       "Elm Street",
		State:            state,
	})
	return applicant, mining
}

func TestIndexerCatchUpAndFollow(t *testing.T) {
	chain := newTestChain(t)
	applicant, first := chain.admit("Ohio")

	registry := NewRegistry()
	store := newTestStore(t)
	idx := NewIndexer(chain.Ledger, registry, store)
	require.NoError(t, idx.Start())
	defer idx.Stop()

	assert.Equal(t, uint64(3), idx.Synced())
	assert.Equal(t, 2, registry.Len())
	genesis, ok := registry.Get(chain.owner.addr)
	require.True(t, ok)
	assert.True(t, genesis.Genesis)

	e, ok := registry.Get(first)
	require.True(t, ok)
	assert.Equal(t, applicant.addr, e.Owner)
	assert.Equal(t, "Ohio", e.Validator.State)
	assert.Equal(t, uint64(2), e.AddedSeq)

	_, second := chain.admit("Alaska")
	chain.send(chain.owner, sysaction.ActionValidatorSetDisablingDate, sysaction.ValidatorDisablePayload{
		Mining:        first,
		DisablingDate: 1700000500,
	})

	require.Eventually(t, func() bool {
		e, ok := registry.Get(first)
		return ok && e.Disabled() && registry.Len() == 3
	}, 2*time.Second, 10*time.Millisecond)

	active := registry.Query(Query{})
	require.Len(t, active, 2)
	assert.Equal(t, chain.owner.addr, active[0].MiningKey)
	assert.Equal(t, second, active[1].MiningKey)

	rows, err := store.History(first)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, string(types.ValidatorAdded), rows[0].Kind)
	assert.Equal(t, string(types.ValidatorDisabled), rows[1].Kind)
}

func TestIndexerSyncSkipsFailedReceipts(t *testing.T) {
	chain := newTestChain(t)
	outsider := newAccount(t)
	// Only the system owner may authorize applicants.
	data, err := sysaction.MakeSysAction(sysaction.ActionKeysAddInitial, sysaction.KeysAddInitialPayload{Owner: outsider.addr})
	require.NoError(t, err)
	tx, err := types.SignTx(types.NewTransaction(0, data), outsider.key)
	require.NoError(t, err)
	receipt, err := chain.ApplyTransaction(tx)
	require.Error(t, err)
	require.NotNil(t, receipt)

	registry := NewRegistry()
	store := newTestStore(t)
	idx := NewIndexer(chain.Ledger, registry, store)
	require.NoError(t, idx.Sync())

	assert.Equal(t, uint64(1), idx.Synced())
	assert.Equal(t, 1, registry.Len())
	n, err := store.Count()
	require.NoError(t, err)
	assert.Zero(t, n)
}

// brokenLedger fails every receipt replay.
type brokenLedger struct {
	feed event.FeedOf[types.ChangeEvent]
}

func (l *brokenLedger) Config() *params.RegistryConfig {
	return &params.RegistryConfig{SystemOwner: common.Address{0xee}}
}

func (l *brokenLedger) SubscribeChangeEvents(ch chan<- types.ChangeEvent) event.Subscription {
	return l.feed.Subscribe(ch)
}

func (l *brokenLedger) Receipts(uint64, func(*types.Receipt) bool) error {
	return errors.New("receipt log unreadable")
}

func TestIndexerStartFailsOnCatchUpError(t *testing.T) {
	ledger := new(brokenLedger)
	idx := NewIndexer(ledger, NewRegistry(), nil)
	require.EqualError(t, idx.Start(), "receipt log unreadable")
	// The subscription is released once Start gives up.
	assert.Zero(t, ledger.feed.Len())
}
