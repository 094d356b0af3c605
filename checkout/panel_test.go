package checkout

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/Abh1nav004/Really/cartstore"
	"github.com/Abh1nav004/Really/clock"
	"github.com/Abh1nav004/Really/pricing"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fixture struct {
	store *cartstore.LocalCartStore
	clock *clock.Manual
	m     *Manager
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	log := logrus.New()
	log.Out = io.Discard

	store := cartstore.NewLocalCartStore(log)
	c := clock.NewManual(time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC))
	opts = append([]Option{WithClock(c), WithLogger(log)}, opts...)
	m := NewManager(store, pricing.DefaultPricer(), opts...)
	store.Subscribe(m)
	return &fixture{store: store, clock: c, m: m}
}

func (f *fixture) add(t *testing.T, session, id, price string, qty int) {
	t.Helper()
	p := cartstore.Product{ID: id, Name: "item " + id, Price: decimal.RequireFromString(price)}
	require.NoError(t, f.store.AddItem(context.Background(), session, p, qty))
}

func TestManager_InitialStateClosed(t *testing.T) {
	f := newFixture(t)
	assert.Equal(t, Closed, f.m.State("s"))
	assert.False(t, f.m.IsPending("s"))
	_, ok := f.m.LastConfirmation("s")
	assert.False(t, ok)
}

func TestManager_AddOpensPanel(t *testing.T) {
	f := newFixture(t)
	f.add(t, "s", "1", "49.99", 1)

	assert.Equal(t, Open, f.m.State("s"))
	assert.Equal(t, Closed, f.m.State("other"))
}

func TestManager_InvalidAddKeepsPanelClosed(t *testing.T) {
	f := newFixture(t)
	err := f.store.AddItem(context.Background(), "s", cartstore.Product{ID: "1", Name: "x"}, 0)
	require.Error(t, err)

	assert.Equal(t, Closed, f.m.State("s"))
}

func TestManager_OpenAndDismiss(t *testing.T) {
	f := newFixture(t)

	f.m.Dismiss("s")
	assert.Equal(t, Closed, f.m.State("s"))

	f.m.Open("s")
	assert.Equal(t, Open, f.m.State("s"))
	f.m.Open("s")
	assert.Equal(t, Open, f.m.State("s"))

	f.m.Dismiss("s")
	assert.Equal(t, Closed, f.m.State("s"))
}

func TestManager_CheckoutCompletesAfterDelay(t *testing.T) {
	var hooked []Confirmation
	f := newFixture(t, WithCompletionHook(func(_ context.Context, c Confirmation) {
		hooked = append(hooked, c)
	}))
	f.add(t, "s", "1", "49.99", 3)
	f.add(t, "s", "2", "89.99", 1)

	pending, err := f.m.Checkout(context.Background(), "s")
	require.NoError(t, err)
	assert.True(t, f.m.IsPending("s"))

	f.clock.Advance(DefaultDelay - time.Millisecond)
	select {
	case <-pending.Done():
		t.Fatal("checkout completed before the delay elapsed")
	default:
	}
	items, _ := f.store.GetCart(context.Background(), "s")
	assert.Len(t, items, 2)

	f.clock.Advance(time.Millisecond)
	conf, err := pending.Result()
	require.NoError(t, err)

	assert.Equal(t, CheckoutComplete, f.m.State("s"))
	assert.False(t, f.m.IsPending("s"))
	assert.NotEmpty(t, conf.OrderID)
	assert.Equal(t, ConfirmationMessage, conf.Message)
	assert.Len(t, conf.Items, 2)
	assert.True(t, conf.Totals.Total.Equal(decimal.RequireFromString("273.946")))
	assert.Equal(t, f.clock.Now(), conf.CompletedAt)

	items, _ = f.store.GetCart(context.Background(), "s")
	assert.Empty(t, items)

	last, ok := f.m.LastConfirmation("s")
	require.True(t, ok)
	assert.Equal(t, conf.OrderID, last.OrderID)
	require.Len(t, hooked, 1)
	assert.Equal(t, conf.OrderID, hooked[0].OrderID)

	f.m.Dismiss("s")
	assert.Equal(t, Closed, f.m.State("s"))
}

func TestManager_CheckoutRequiresOpenPanel(t *testing.T) {
	f := newFixture(t)
	f.add(t, "s", "1", "10", 1)
	f.m.Dismiss("s")

	_, err := f.m.Checkout(context.Background(), "s")
	assert.True(t, errors.Is(err, ErrPanelNotOpen))
}

func TestManager_CheckoutRequiresItems(t *testing.T) {
	f := newFixture(t)
	f.m.Open("s")

	_, err := f.m.Checkout(context.Background(), "s")
	assert.True(t, errors.Is(err, ErrEmptyCart))
}

func TestManager_SecondCheckoutWhilePending(t *testing.T) {
	f := newFixture(t)
	f.add(t, "s", "1", "10", 1)

	first, err := f.m.Checkout(context.Background(), "s")
	require.NoError(t, err)
	_, err = f.m.Checkout(context.Background(), "s")
	assert.True(t, errors.Is(err, ErrCheckoutPending))

	assert.True(t, first.Cancel())
}

func TestManager_DismissDiscardsPendingCheckout(t *testing.T) {
	f := newFixture(t)
	f.add(t, "s", "1", "10", 2)

	pending, err := f.m.Checkout(context.Background(), "s")
	require.NoError(t, err)

	f.m.Dismiss("s")
	_, err = pending.Result()
	assert.True(t, errors.Is(err, ErrCheckoutCancelled))

	f.clock.Advance(time.Minute)
	assert.Equal(t, Closed, f.m.State("s"))
	items, _ := f.store.GetCart(context.Background(), "s")
	require.Len(t, items, 1)
	assert.Equal(t, 2, items[0].Quantity)
	assert.Zero(t, f.clock.Pending())
}

func TestManager_CancelKeepsPanelOpen(t *testing.T) {
	f := newFixture(t)
	f.add(t, "s", "1", "10", 1)

	pending, err := f.m.Checkout(context.Background(), "s")
	require.NoError(t, err)
	assert.True(t, pending.Cancel())
	assert.False(t, pending.Cancel())

	assert.Equal(t, Open, f.m.State("s"))
	assert.False(t, f.m.IsPending("s"))

	again, err := f.m.Checkout(context.Background(), "s")
	require.NoError(t, err)
	f.clock.Advance(DefaultDelay)
	_, err = again.Result()
	assert.NoError(t, err)
}

func TestManager_WaitCancelledByContext(t *testing.T) {
	f := newFixture(t)
	f.add(t, "s", "1", "10", 1)

	pending, err := f.m.Checkout(context.Background(), "s")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = pending.Wait(ctx)
	assert.True(t, errors.Is(err, context.Canceled))

	f.clock.Advance(time.Minute)
	items, _ := f.store.GetCart(context.Background(), "s")
	assert.Len(t, items, 1)
	assert.Equal(t, Open, f.m.State("s"))
}

func TestManager_CheckoutWithDoneContext(t *testing.T) {
	f := newFixture(t)
	f.add(t, "s", "1", "10", 1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := f.m.Checkout(ctx, "s")
	assert.True(t, errors.Is(err, context.Canceled))
	assert.False(t, f.m.IsPending("s"))
}

func TestManager_AddAfterCompleteReopens(t *testing.T) {
	f := newFixture(t)
	f.add(t, "s", "1", "10", 1)
	pending, err := f.m.Checkout(context.Background(), "s")
	require.NoError(t, err)
	f.clock.Advance(DefaultDelay)
	<-pending.Done()
	require.Equal(t, CheckoutComplete, f.m.State("s"))

	f.add(t, "s", "2", "20", 1)
	assert.Equal(t, Open, f.m.State("s"))
}

func TestManager_RealClock(t *testing.T) {
	log := logrus.New()
	log.Out = io.Discard
	store := cartstore.NewLocalCartStore(log)
	m := NewManager(store, nil, WithDelay(5*time.Millisecond), WithLogger(log))
	store.Subscribe(m)

	p := cartstore.Product{ID: "1", Name: "Tee", Price: decimal.RequireFromString("49.99")}
	require.NoError(t, store.AddItem(context.Background(), "s", p, 1))

	pending, err := m.Checkout(context.Background(), "s")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	conf, err := pending.Wait(ctx)
	require.NoError(t, err)
	assert.True(t, conf.Totals.Subtotal.Equal(decimal.RequireFromString("49.99")))
}

// gatedCart holds EmptyCart until release is closed.
type gatedCart struct {
	Cart
	emptying chan struct{}
	release  chan struct{}
}

func (g *gatedCart) EmptyCart(ctx context.Context, sessionID string) error {
	close(g.emptying)
	<-g.release
	return g.Cart.EmptyCart(ctx, sessionID)
}

func TestManager_CompleteDoesNotHoldLockDuringCartIO(t *testing.T) {
	log := logrus.New()
	log.Out = io.Discard
	store := cartstore.NewLocalCartStore(log)
	gated := &gatedCart{Cart: store, emptying: make(chan struct{}), release: make(chan struct{})}
	c := clock.NewManual(time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC))
	m := NewManager(gated, nil, WithClock(c), WithLogger(log))
	store.Subscribe(m)

	p := cartstore.Product{ID: "1", Name: "Tee", Price: decimal.RequireFromString("10")}
	require.NoError(t, store.AddItem(context.Background(), "s", p, 1))
	pending, err := m.Checkout(context.Background(), "s")
	require.NoError(t, err)

	advanced := make(chan struct{})
	go func() {
		defer close(advanced)
		c.Advance(DefaultDelay)
	}()
	<-gated.emptying

	unblocked := make(chan struct{})
	go func() {
		defer close(unblocked)
		m.Open("other")
		assert.Equal(t, Open, m.State("other"))
		assert.True(t, m.IsPending("s"))
		assert.False(t, pending.Cancel(), "cart is already being emptied")
		_, err := m.Checkout(context.Background(), "s")
		assert.True(t, errors.Is(err, ErrCheckoutPending))
		m.Dismiss("s")
	}()
	select {
	case <-unblocked:
	case <-time.After(2 * time.Second):
		t.Fatal("manager blocked while the cart was being emptied")
	}

	close(gated.release)
	<-advanced

	conf, err := pending.Result()
	require.NoError(t, err)
	assert.Len(t, conf.Items, 1)
	assert.Equal(t, Closed, m.State("s"), "dismissed during completion")
	last, ok := m.LastConfirmation("s")
	require.True(t, ok)
	assert.Equal(t, conf.OrderID, last.OrderID)
	items, _ := store.GetCart(context.Background(), "s")
	assert.Empty(t, items)
}

func TestManager_Forget(t *testing.T) {
	f := newFixture(t)
	f.add(t, "s", "1", "10", 1)
	f.m.Open("other")
	require.Equal(t, 2, f.m.Sessions())

	pending, err := f.m.Checkout(context.Background(), "s")
	require.NoError(t, err)

	require.NoError(t, f.m.Forget(context.Background(), "s"))
	_, err = pending.Result()
	assert.True(t, errors.Is(err, ErrCheckoutCancelled))
	assert.Zero(t, f.clock.Pending())
	assert.Equal(t, Closed, f.m.State("s"))
	assert.Equal(t, 1, f.m.Sessions())

	require.NoError(t, f.m.Forget(context.Background(), "unknown"))
	assert.Equal(t, 1, f.m.Sessions())
}

func TestManager_ReadsDoNotCreateSessions(t *testing.T) {
	f := newFixture(t)
	_ = f.m.State("a")
	_ = f.m.IsPending("b")
	f.m.Dismiss("c")
	_, _ = f.m.Checkout(context.Background(), "d")
	assert.Zero(t, f.m.Sessions())
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "closed", Closed.String())
	assert.Equal(t, "open", Open.String())
	assert.Equal(t, "checkout_complete", CheckoutComplete.String())
	assert.Equal(t, "unknown", State(42).String())
}
