package deposits

import (
	"context"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/yuirsilva/deadline-daddy/internal/ledger"
	"github.com/yuirsilva/deadline-daddy/internal/models"
	"github.com/yuirsilva/deadline-daddy/internal/payment"
	"github.com/yuirsilva/deadline-daddy/internal/storage"
	"github.com/yuirsilva/deadline-daddy/internal/tasks"
	"github.com/yuirsilva/deadline-daddy/internal/testutil"
)

var limits = ledger.Limits{Min: 100, Max: 10000}

type fakeProvider struct {
	mu      sync.Mutex
	billing payment.Billing
	err     error
	reqs    []payment.BillingRequest
}

func (f *fakeProvider) CreateBilling(_ context.Context, req payment.BillingRequest) (payment.Billing, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reqs = append(f.reqs, req)
	return f.billing, f.err
}

func newService(t *testing.T, store storage.Store, p payment.Provider) *Service {
	t.Helper()
	return NewService(store, p, limits, "https://app.example.com/", zaptest.NewLogger(t))
}

func paid(id string, amount int64) payment.Event {
	return payment.Event{Type: payment.EventPaid, BillingID: id, Amount: amount}
}

func TestInitiateRecordsPendingDeposit(t *testing.T) {
	store := testutil.NewStore(t)
	user := testutil.SeedUser(t, store, 0)
	provider := &fakeProvider{billing: payment.Billing{ID: "bill_1", URL: "https://pay.example/bill_1"}}
	svc := newService(t, store, provider)

	url, err := svc.Initiate(context.Background(), user.ID, 2000)
	require.NoError(t, err)
	assert.Equal(t, "https://pay.example/bill_1", url)

	require.Len(t, provider.reqs, 1)
	req := provider.reqs[0]
	assert.Equal(t, int64(2000), req.Amount)
	assert.Contains(t, req.Reference, "deposit-")
	assert.Equal(t, "https://app.example.com/carteira", req.ReturnURL)
	assert.Equal(t, "https://app.example.com/carteira?deposito=sucesso", req.CompletionURL)
	assert.Equal(t, user.TaxID, req.Customer.TaxID)

	payments, err := store.ListPayments(context.Background(), user.ID, 0)
	require.NoError(t, err)
	require.Len(t, payments, 1)
	assert.Equal(t, models.PaymentDeposit, payments[0].Type)
	assert.Equal(t, models.PaymentPending, payments[0].Status)
	assert.Equal(t, "bill_1", payments[0].ExternalID)

	got, err := store.UserByID(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Zero(t, got.Balance, "initiating must not credit")
}

func TestInitiateValidation(t *testing.T) {
	store := testutil.NewStore(t)
	user := testutil.SeedUser(t, store, 0)
	provider := &fakeProvider{billing: payment.Billing{ID: "bill_1", URL: "u"}}
	svc := newService(t, store, provider)

	for _, amount := range []int64{0, 99, 10001} {
		_, err := svc.Initiate(context.Background(), user.ID, amount)
		var verr *models.ValidationError
		assert.ErrorAs(t, err, &verr, "amount %d", amount)
	}

	_, err := svc.Initiate(context.Background(), 9999, 1000)
	assert.ErrorIs(t, err, models.ErrUnauthorized)
	assert.Empty(t, provider.reqs)
}

func TestInitiateRequiresProfile(t *testing.T) {
	store := testutil.NewStore(t)
	user, err := store.CreateUser(context.Background(), models.User{Name: "Bia", Email: "bia@example.com", PasswordHash: "x"})
	require.NoError(t, err)
	provider := &fakeProvider{}

	_, err = newService(t, store, provider).Initiate(context.Background(), user.ID, 1000)
	assert.ErrorIs(t, err, models.ErrProfileIncomplete)
	assert.Empty(t, provider.reqs)
}

func TestInitiateProviderFailure(t *testing.T) {
	store := testutil.NewStore(t)
	user := testutil.SeedUser(t, store, 0)
	provider := &fakeProvider{err: payment.ErrProvider}

	_, err := newService(t, store, provider).Initiate(context.Background(), user.ID, 1000)
	assert.ErrorIs(t, err, payment.ErrProvider)

	payments, err := store.ListPayments(context.Background(), user.ID, 0)
	require.NoError(t, err)
	assert.Empty(t, payments)
}

func TestInitiateFallsBackWithoutBillingID(t *testing.T) {
	store := testutil.NewStore(t)
	user := testutil.SeedUser(t, store, 0)
	svc := newService(t, store, &fakeProvider{})

	url, err := svc.Initiate(context.Background(), user.ID, 1000)
	require.NoError(t, err)
	assert.Equal(t, "https://app.example.com/carteira", url)

	payments, err := store.ListPayments(context.Background(), user.ID, 0)
	require.NoError(t, err)
	assert.Empty(t, payments)
}

func TestReconcileCreditsOnce(t *testing.T) {
	ctx := context.Background()
	store := testutil.NewStore(t)
	user := testutil.SeedUser(t, store, 0)
	svc := newService(t, store, &fakeProvider{billing: payment.Billing{ID: "bill_dup", URL: "u"}})

	_, err := svc.Initiate(ctx, user.ID, 2000)
	require.NoError(t, err)

	outcome, err := svc.Reconcile(ctx, paid("bill_dup", 2000))
	require.NoError(t, err)
	assert.Equal(t, OutcomeCredited, outcome)

	outcome, err = svc.Reconcile(ctx, paid("bill_dup", 2000))
	require.NoError(t, err)
	assert.Equal(t, OutcomeDuplicate, outcome)

	wallet, err := svc.Wallet(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2000), wallet.Balance)
	require.Len(t, wallet.Payments, 1)
	assert.Equal(t, models.PaymentCompleted, wallet.Payments[0].Status)
}

func TestReconcileConcurrentReplays(t *testing.T) {
	ctx := context.Background()
	store := testutil.NewStore(t)
	user := testutil.SeedUser(t, store, 0)
	svc := newService(t, store, &fakeProvider{billing: payment.Billing{ID: "bill_race", URL: "u"}})
	_, err := svc.Initiate(ctx, user.ID, 1500)
	require.NoError(t, err)

	var wg sync.WaitGroup
	outcomes := make([]Outcome, 8)
	for i := range outcomes {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			o, err := svc.Reconcile(ctx, paid("bill_race", 1500))
			assert.NoError(t, err)
			outcomes[i] = o
		}(i)
	}
	wg.Wait()

	credited := 0
	for _, o := range outcomes {
		if o == OutcomeCredited {
			credited++
		}
	}
	assert.Equal(t, 1, credited)

	got, err := store.UserByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1500), got.Balance)
}

func TestReconcileUsesPaidAmount(t *testing.T) {
	ctx := context.Background()
	store := testutil.NewStore(t)
	user := testutil.SeedUser(t, store, 0)
	svc := newService(t, store, &fakeProvider{billing: payment.Billing{ID: "bill_amt", URL: "u"}})
	_, err := svc.Initiate(ctx, user.ID, 2000)
	require.NoError(t, err)

	_, err = svc.Reconcile(ctx, paid("bill_amt", 1900))
	require.NoError(t, err)

	got, err := store.UserByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1900), got.Balance)

	payments, err := store.ListPayments(ctx, user.ID, 0)
	require.NoError(t, err)
	require.Len(t, payments, 1)
	assert.Equal(t, int64(1900), payments[0].Amount)

	mismatches, err := svc.Audit(ctx)
	require.NoError(t, err)
	assert.Empty(t, mismatches)
}

func TestReconcileEdgeCases(t *testing.T) {
	ctx := context.Background()
	store := testutil.NewStore(t)
	svc := newService(t, store, &fakeProvider{})

	outcome, err := svc.Reconcile(ctx, payment.Event{Type: "billing.refunded", BillingID: "bill_x"})
	require.NoError(t, err)
	assert.Equal(t, OutcomeIgnored, outcome)

	_, err = svc.Reconcile(ctx, paid("bill_unknown", 100))
	assert.ErrorIs(t, err, storage.ErrNotFound)

	_, err = svc.Reconcile(ctx, paid("", 100))
	var verr *models.ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestWalletLimitsHistory(t *testing.T) {
	ctx := context.Background()
	store := testutil.NewStore(t)
	user := testutil.SeedUser(t, store, 0)
	provider := &fakeProvider{}
	svc := newService(t, store, provider)

	for i := 0; i < WalletHistory+5; i++ {
		provider.billing = payment.Billing{ID: "bill_" + strconv.Itoa(i), URL: "u"}
		_, err := svc.Initiate(ctx, user.ID, 100)
		require.NoError(t, err)
	}

	wallet, err := svc.Wallet(ctx, user.ID)
	require.NoError(t, err)
	assert.Len(t, wallet.Payments, WalletHistory)
	assert.Zero(t, wallet.Balance)
}

func TestAuditFlagsDrift(t *testing.T) {
	ctx := context.Background()
	store := testutil.NewStore(t)
	clean := testutil.SeedUser(t, store, 0)
	drifted := testutil.SeedUser(t, store, 700)
	svc := newService(t, store, &fakeProvider{billing: payment.Billing{ID: "bill_audit", URL: "u"}})

	_, err := svc.Initiate(ctx, clean.ID, 1000)
	require.NoError(t, err)
	_, err = svc.Reconcile(ctx, paid("bill_audit", 1000))
	require.NoError(t, err)

	mismatches, err := svc.Audit(ctx)
	require.NoError(t, err)
	assert.Equal(t, []Mismatch{{UserID: drifted.ID, Balance: 700, Expected: 0}}, mismatches)
}

// A full round trip: deposit, commit to a task, prove it.
func TestDepositThenCompleteTask(t *testing.T) {
	ctx := context.Background()
	store := testutil.NewStore(t)
	user := testutil.SeedUser(t, store, 0)
	log := zaptest.NewLogger(t)
	deposits := NewService(store, &fakeProvider{billing: payment.Billing{ID: "bill_flow", URL: "u"}}, limits, "https://app.example.com", log)
	taskSvc := tasks.NewService(store, limits, nil, log)

	_, err := deposits.Initiate(ctx, user.ID, 2000)
	require.NoError(t, err)
	_, err = deposits.Reconcile(ctx, paid("bill_flow", 2000))
	require.NoError(t, err)

	task, err := taskSvc.Create(ctx, user.ID, tasks.CreateInput{
		Title:    "Terminar o relatório",
		Deadline: time.Now().Add(24 * time.Hour),
		Penalty:  1000,
	})
	require.NoError(t, err)

	done, err := taskSvc.SubmitProof(ctx, user.ID, task.ID, "https://example.com/proof.png")
	require.NoError(t, err)
	assert.Equal(t, models.TaskCompleted, done.Task.Status)
	assert.Equal(t, 1, done.CurrentStreak)

	got, err := store.UserByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2000), got.Balance)
	assert.Equal(t, 1, got.CurrentStreak)
}
