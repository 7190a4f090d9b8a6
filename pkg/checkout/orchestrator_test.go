package checkout

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/geek-guru098/NEPSTORE/pkg/cart"
	"github.com/geek-guru098/NEPSTORE/pkg/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubStorage struct {
	mu         sync.Mutex
	lines      []cart.Line
	emptySaves int
}

func (s *stubStorage) Load(ctx context.Context) ([]cart.Line, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lines, nil
}

func (s *stubStorage) Save(ctx context.Context, lines []cart.Line) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lines = lines
	if len(lines) == 0 {
		s.emptySaves++
	}
	return nil
}

type fakeGateway struct {
	mu      sync.Mutex
	result  SettlementResult
	started chan struct{}
	release chan struct{}
	amounts []int64
}

func (g *fakeGateway) Charge(ctx context.Context, amount int64, orderID string) SettlementResult {
	g.mu.Lock()
	g.amounts = append(g.amounts, amount)
	if g.started != nil {
		close(g.started)
		g.started = nil
	}
	release := g.release
	g.mu.Unlock()
	if release != nil {
		// Deliberately ignores ctx: models a settlement backend that
		// resolves after the shopper already cancelled.
		<-release
	}
	return g.result
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []Completion
}

func (n *recordingNotifier) OrderCompleted(ctx context.Context, c Completion) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, c)
}

func (n *recordingNotifier) all() []Completion {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]Completion(nil), n.events...)
}

func seededCart(t *testing.T, storage cart.Storage) *cart.Store {
	t.Helper()
	ctx := context.Background()
	store := cart.NewStore(ctx, storage, quietLogger())
	_, err := store.Add(ctx, &model.Product{ID: "3", Name: "MacBook Air M2", Price: 165000}, 1)
	require.NoError(t, err)
	_, err = store.Add(ctx, &model.Product{ID: "7", Name: "Zara Oversized T-Shirt", Price: 2200}, 2)
	require.NoError(t, err)
	return store
}

func newOrchestrator(store *cart.Store, gw Gateway, n Notifier) *Orchestrator {
	gateways := map[model.PaymentMethod]Gateway{
		model.PaymentMethodWallet:         gw,
		model.PaymentMethodCashOnDelivery: gw,
	}
	return NewOrchestrator(store, gateways, n, quietLogger())
}

func codPayload() ShippingPayload {
	p := validPayload()
	p.PaymentMethod = "cashOnDelivery"
	return p
}

func TestOrchestrator_CODCompletesSynchronously(t *testing.T) {
	ctx := context.Background()
	storage := &stubStorage{}
	store := seededCart(t, storage)
	notifier := &recordingNotifier{}
	gw := &fakeGateway{result: SettlementResult{Status: StatusSuccess, Reference: "COD-abc"}}
	o := newOrchestrator(store, gw, notifier)

	_, err := o.Begin(ctx)
	require.NoError(t, err)
	require.NoError(t, o.SubmitShipping(codPayload()))

	res, err := o.Confirm(ctx)
	require.NoError(t, err)
	assert.Equal(t, StatusSuccess, res.Status)

	// Cart cleared exactly once, completion emitted once.
	assert.Equal(t, int32(0), store.TotalItems())
	assert.Equal(t, 1, storage.emptySaves)
	events := notifier.all()
	require.Len(t, events, 1)
	assert.Equal(t, "COD-abc", events[0].OrderReference)
	assert.Equal(t, int64(165000+2*2200), events[0].Amount)
	assert.Equal(t, model.PaymentMethodCashOnDelivery, events[0].PaymentMethod)
}

func TestOrchestrator_AmountFrozenAtBegin(t *testing.T) {
	ctx := context.Background()
	store := seededCart(t, &stubStorage{})
	gw := &fakeGateway{result: SettlementResult{Status: StatusSuccess, Reference: "KH-1"}}
	o := newOrchestrator(store, gw, &recordingNotifier{})

	_, err := o.Begin(ctx)
	require.NoError(t, err)
	frozen := int64(165000 + 2*2200)

	// Shopper edits the cart in another view mid-checkout.
	_, err = store.SetQuantity(ctx, "7", 50)
	require.NoError(t, err)
	_, err = store.Remove(ctx, "3")
	require.NoError(t, err)

	require.NoError(t, o.SubmitShipping(validPayload()))
	res, err := o.Confirm(ctx)
	require.NoError(t, err)
	require.Equal(t, StatusSuccess, res.Status)

	require.Len(t, gw.amounts, 1)
	assert.Equal(t, frozen, gw.amounts[0])
}

func TestOrchestrator_CancelDropsLateSuccess(t *testing.T) {
	ctx := context.Background()
	storage := &stubStorage{}
	store := seededCart(t, storage)
	notifier := &recordingNotifier{}
	gw := &fakeGateway{
		result:  SettlementResult{Status: StatusSuccess, Reference: "KH-late"},
		started: make(chan struct{}),
		release: make(chan struct{}),
	}
	o := newOrchestrator(store, gw, notifier)

	_, err := o.Begin(ctx)
	require.NoError(t, err)
	require.NoError(t, o.SubmitShipping(validPayload()))

	started := gw.started
	done := make(chan SettlementResult, 1)
	go func() {
		res, _ := o.Confirm(ctx)
		done <- res
	}()

	<-started
	o.Cancel()
	close(gw.release)

	select {
	case res := <-done:
		assert.Equal(t, StatusCancelled, res.Status)
	case <-time.After(time.Second):
		t.Fatal("confirm did not return")
	}

	// The late success was discarded: no clear, no completion event.
	assert.NotZero(t, store.TotalItems())
	assert.Zero(t, storage.emptySaves)
	assert.Empty(t, notifier.all())
}

func TestOrchestrator_RejectsSecondBeginWhileSettling(t *testing.T) {
	ctx := context.Background()
	store := seededCart(t, &stubStorage{})
	gw := &fakeGateway{
		result:  SettlementResult{Status: StatusSuccess, Reference: "KH-2"},
		started: make(chan struct{}),
		release: make(chan struct{}),
	}
	o := newOrchestrator(store, gw, &recordingNotifier{})

	_, err := o.Begin(ctx)
	require.NoError(t, err)
	require.NoError(t, o.SubmitShipping(validPayload()))

	started := gw.started
	go o.Confirm(ctx)
	<-started

	_, err = o.Begin(ctx)
	assert.ErrorIs(t, err, ErrCheckoutInProgress)

	o.Cancel()
	close(gw.release)

	// Terminal state reached, a fresh session may start.
	require.Eventually(t, func() bool {
		_, err := o.Begin(ctx)
		return err == nil
	}, time.Second, 10*time.Millisecond)
}

func TestOrchestrator_ValidationFailureKeepsStage(t *testing.T) {
	ctx := context.Background()
	store := seededCart(t, &stubStorage{})
	o := newOrchestrator(store, &fakeGateway{}, &recordingNotifier{})

	_, err := o.Begin(ctx)
	require.NoError(t, err)

	bad := validPayload()
	bad.Phone = "12345"
	var verr *ValidationError
	require.ErrorAs(t, o.SubmitShipping(bad), &verr)

	summary, ok := o.Summary()
	require.True(t, ok)
	assert.Equal(t, StageShippingEntry, summary.Stage)

	// Re-entry with corrected input succeeds.
	require.NoError(t, o.SubmitShipping(validPayload()))
	summary, ok = o.Summary()
	require.True(t, ok)
	assert.Equal(t, StagePaymentSelection, summary.Stage)
}

func TestOrchestrator_NoReturnToShippingEntryOnceValidated(t *testing.T) {
	ctx := context.Background()
	store := seededCart(t, &stubStorage{})
	o := newOrchestrator(store, &fakeGateway{}, &recordingNotifier{})

	_, err := o.Begin(ctx)
	require.NoError(t, err)
	require.NoError(t, o.SubmitShipping(validPayload()))

	err = o.SubmitShipping(validPayload())
	assert.Error(t, err)
}

func TestOrchestrator_BeginRequiresNonEmptyCart(t *testing.T) {
	ctx := context.Background()
	store := cart.NewStore(ctx, &stubStorage{}, quietLogger())
	o := newOrchestrator(store, &fakeGateway{}, &recordingNotifier{})

	_, err := o.Begin(ctx)
	assert.ErrorIs(t, err, ErrEmptyCart)
}

func TestOrchestrator_FailureAbortsAndPreservesCart(t *testing.T) {
	ctx := context.Background()
	store := seededCart(t, &stubStorage{})
	gw := &fakeGateway{result: SettlementResult{Status: StatusFailure, Reason: "declined"}}
	o := newOrchestrator(store, gw, &recordingNotifier{})

	_, err := o.Begin(ctx)
	require.NoError(t, err)
	require.NoError(t, o.SubmitShipping(validPayload()))

	res, err := o.Confirm(ctx)
	require.NoError(t, err)
	assert.Equal(t, StatusFailure, res.Status)

	// Cart untouched; the shopper can retry with a fresh session.
	assert.NotZero(t, store.TotalItems())
	_, err = o.Begin(ctx)
	assert.NoError(t, err)
}

func TestOrchestrator_ConfirmRequiresPaymentSelection(t *testing.T) {
	ctx := context.Background()
	store := seededCart(t, &stubStorage{})
	o := newOrchestrator(store, &fakeGateway{}, &recordingNotifier{})

	_, err := o.Confirm(ctx)
	assert.ErrorIs(t, err, ErrNoSession)

	_, err = o.Begin(ctx)
	require.NoError(t, err)
	_, err = o.Confirm(ctx)
	assert.Error(t, err)
}

func TestOrchestrator_CancelWithoutSessionIsNoop(t *testing.T) {
	store := seededCart(t, &stubStorage{})
	o := newOrchestrator(store, &fakeGateway{}, &recordingNotifier{})
	o.Cancel()
}
