package core

import (
	"errors"
	"testing"
	"time"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tos-network/valreg/common"
	"github.com/tos-network/valreg/core/types"
	"github.com/tos-network/valreg/crypto"
	"github.com/tos-network/valreg/keys"
	"github.com/tos-network/valreg/lifecycle"
	"github.com/tos-network/valreg/sysaction"
	"github.com/tos-network/valreg/tosdb"
	"github.com/tos-network/valreg/tosdb/memorydb"
)

var testTime = time.Unix(1700000000, 0)

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

type testLedger struct {
	*Ledger
	t      *testing.T
	owner  account
	nonces map[common.Address]uint64
}

func newTestLedger(t *testing.T, db tosdb.KeyValueStore, opts ...Option) *testLedger {
	owner := newAccount(t)
	opts = append([]Option{WithClock(func() time.Time { return testTime })}, opts...)
	l, err := NewLedger(db, DeveloperGenesis(owner.addr), opts...)
	require.NoError(t, err)
	return &testLedger{Ledger: l, t: t, owner: owner, nonces: make(map[common.Address]uint64)}
}

func (l *testLedger) send(from account, kind sysaction.ActionKind, payload interface{}) (*types.Receipt, error) {
	data, err := sysaction.MakeSysAction(kind, payload)
	require.NoError(l.t, err)
	tx, err := types.SignTx(types.NewTransaction(l.nonces[from.addr], data), from.key)
	require.NoError(l.t, err)
	receipt, err := l.ApplyTransaction(tx)
	if receipt != nil {
		l.nonces[from.addr]++
	}
	return receipt, err
}

var data1 = sysaction.ValidatorMetadataPayload{
	Zip:              644081,
	LicenseExpiredAt: 1893456000,
	LicenseID:        "license-1",
	FullName:         "Ivan Ivanov",
	StreetName:       "Elm Street",
	State:            "Ohio",
}

// admit runs the full admission flow for applicant and returns its voting
// account and mining key.
func (l *testLedger) admit(applicant account) (account, common.Address) {
	voting := newAccount(l.t)
	mining := newAccount(l.t).addr
	payout := newAccount(l.t).addr

	_, err := l.send(l.owner, sysaction.ActionKeysAddInitial, sysaction.KeysAddInitialPayload{Owner: applicant.addr})
	require.NoError(l.t, err)
	_, err = l.send(applicant, sysaction.ActionKeysCreate, sysaction.KeysCreatePayload{Mining: mining, Payout: payout, Voting: voting.addr})
	require.NoError(l.t, err)
	p := data1
	p.Mining = mining
	_, err = l.send(applicant, sysaction.ActionValidatorCeremonyInsert, p)
	require.NoError(l.t, err)
	return voting, mining
}

func TestNewLedgerSeedsGenesisValidator(t *testing.T) {
	l := newTestLedger(t, memorydb.New())
	assert.Equal(t, []common.Address{l.owner.addr}, l.GetValidators())
	_, ok := l.HeadSeq()
	assert.False(t, ok)
}

func TestLedgerAdmissionAndGovernance(t *testing.T) {
	l := newTestLedger(t, memorydb.New())
	events := make(chan types.ChangeEvent, 16)
	sub := l.SubscribeChangeEvents(events)
	defer sub.Unsubscribe()

	applicant := newAccount(t)
	voting, mining := l.admit(applicant)
	assert.Equal(t, []common.Address{l.owner.addr, mining}, l.GetValidators())

	p := data1
	p.Mining = mining
	p.StreetName = "NEW STREET"
	receipt, err := l.send(voting, sysaction.ActionValidatorGovernanceUpsert, p)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), receipt.Seq)
	assert.True(t, receipt.Succeeded())
	assert.Equal(t, string(sysaction.ActionValidatorGovernanceUpsert), receipt.Action)

	rec, err := l.Validator(mining)
	require.NoError(t, err)
	assert.Equal(t, "NEW STREET", rec.Metadata.StreetName)
	assert.Equal(t, "Ivan Ivanov", rec.Metadata.FullName)
	assert.Equal(t, uint64(0), rec.DisablingDate)
	assert.Equal(t, "", rec.Extra)

	want := []types.ChangeKind{types.KeysInitialized, types.KeysCreated, types.ValidatorAdded, types.ValidatorUpdated}
	for i, kind := range want {
		select {
		case ev := <-events:
			assert.Equal(t, kind, ev.Kind)
			assert.Equal(t, uint64(i), ev.Seq)
			assert.Equal(t, types.EventID(uint64(i), 0), ev.ID)
			assert.Equal(t, uint64(testTime.Unix()), ev.Time)
		case <-time.After(time.Second):
			t.Fatalf("event %d not delivered", i)
		}
	}

	owner, role, err := l.ResolveOwner(voting.addr)
	require.NoError(t, err)
	assert.Equal(t, applicant.addr, owner)
	assert.Equal(t, keys.RoleVoting, role)
}

func TestLedgerNonces(t *testing.T) {
	l := newTestLedger(t, memorydb.New())
	data, _ := sysaction.MakeSysAction(sysaction.ActionKeysAddInitial, sysaction.KeysAddInitialPayload{Owner: common.Address{1}})

	tx, _ := types.SignTx(types.NewTransaction(1, data), l.owner.key)
	_, err := l.ApplyTransaction(tx)
	assert.ErrorIs(t, err, ErrNonceTooHigh)

	tx, _ = types.SignTx(types.NewTransaction(0, data), l.owner.key)
	_, err = l.ApplyTransaction(tx)
	require.NoError(t, err)

	_, err = l.ApplyTransaction(tx)
	assert.ErrorIs(t, err, ErrNonceTooLow)
	assert.Equal(t, uint64(1), l.Nonce(l.owner.addr))

	head, ok := l.HeadSeq()
	assert.True(t, ok)
	assert.Equal(t, uint64(0), head)
}

func TestLedgerFailedTransactionIsLogged(t *testing.T) {
	l := newTestLedger(t, memorydb.New())
	stranger := newAccount(t)

	receipt, err := l.send(stranger, sysaction.ActionKeysAddInitial, sysaction.KeysAddInitialPayload{Owner: stranger.addr})
	assert.ErrorIs(t, err, keys.ErrUnauthorized)
	require.NotNil(t, receipt)
	assert.False(t, receipt.Succeeded())
	assert.Equal(t, keys.ErrUnauthorized.Error(), receipt.Err)
	assert.Empty(t, receipt.Events)

	// The nonce is consumed, the binding is not created.
	assert.Equal(t, uint64(1), l.Nonce(stranger.addr))
	_, err = l.Binding(stranger.addr)
	assert.ErrorIs(t, err, keys.ErrNotInitialized)

	stored := l.Receipt(0)
	require.NotNil(t, stored)
	assert.Equal(t, receipt.TxHash, stored.TxHash)
	assert.Equal(t, types.ReceiptStatusFailed, stored.Status)
}

func TestLedgerCeremonyTwiceLeavesStateUnchanged(t *testing.T) {
	l := newTestLedger(t, memorydb.New())
	applicant := newAccount(t)
	_, mining := l.admit(applicant)
	before, _ := l.Validator(mining)

	p := data1
	p.Mining = mining
	p.FullName = "Someone Else"
	_, err := l.send(applicant, sysaction.ActionValidatorCeremonyInsert, p)
	assert.ErrorIs(t, err, lifecycle.ErrAlreadyRegistered)

	after, _ := l.Validator(mining)
	assert.Equal(t, before, after)
	assert.Equal(t, []common.Address{l.owner.addr, mining}, l.GetValidators())
}

func TestLedgerRejectsBadSignature(t *testing.T) {
	l := newTestLedger(t, memorydb.New())
	tx := types.NewTransaction(0, []byte(`{"action":"KEYS_CREATE"}`))
	_, err := l.ApplyTransaction(tx)
	assert.True(t, errors.Is(err, types.ErrInvalidSig))
	_, ok := l.HeadSeq()
	assert.False(t, ok)
}

func TestLedgerReopen(t *testing.T) {
	db := memorydb.New()
	l := newTestLedger(t, db)
	applicant := newAccount(t)
	_, mining := l.admit(applicant)
	l.Close()

	reopened, err := NewLedger(db, nil)
	require.NoError(t, err)
	assert.Equal(t, l.owner.addr, reopened.Config().SystemOwner)
	assert.Equal(t, []common.Address{l.owner.addr, mining}, reopened.GetValidators())
	head, ok := reopened.HeadSeq()
	assert.True(t, ok)
	assert.Equal(t, uint64(2), head)

	var seqs []uint64
	require.NoError(t, reopened.Receipts(0, func(r *types.Receipt) bool {
		seqs = append(seqs, r.Seq)
		return true
	}))
	assert.Equal(t, []uint64{0, 1, 2}, seqs)

	_, err = NewLedger(db, DeveloperGenesis(common.Address{9}))
	assert.ErrorIs(t, err, ErrGenesisMismatch)
}

func TestLedgerClosed(t *testing.T) {
	l := newTestLedger(t, memorydb.New())
	l.Close()
	_, err := l.send(l.owner, sysaction.ActionKeysAddInitial, sysaction.KeysAddInitialPayload{Owner: common.Address{1}})
	assert.ErrorIs(t, err, ErrLedgerClosed)
}

func TestLedgerMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	l := newTestLedger(t, memorydb.New(), WithRegisterer(reg))
	assert.Equal(t, float64(1), testutil.ToFloat64(l.metrics.activeValidators))

	l.admit(newAccount(t))
	assert.Equal(t, float64(3), testutil.ToFloat64(l.metrics.applied))
	assert.Equal(t, float64(2), testutil.ToFloat64(l.metrics.activeValidators))

	stranger := newAccount(t)
	l.send(stranger, sysaction.ActionKeysAddInitial, sysaction.KeysAddInitialPayload{Owner: stranger.addr})
	assert.Equal(t, float64(1), testutil.ToFloat64(l.metrics.rejected.WithLabelValues(rejectExecution)))
}

func TestSetupGenesisRequiresGenesis(t *testing.T) {
	_, err := SetupGenesis(memorydb.New(), nil)
	assert.Error(t, err)
	_, err = SetupGenesis(memorydb.New(), &Genesis{})
	assert.Error(t, err)
	g, err := SetupGenesis(memorydb.New(), DeveloperGenesis(common.Address{1}))
	require.NoError(t, err)
	assert.Equal(t, common.Address{1}, g.Config.SystemOwner)
}
