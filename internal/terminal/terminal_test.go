package terminal

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/patrykkdev/nocna-apteka/internal/cart"
	"github.com/patrykkdev/nocna-apteka/internal/domain"
	"github.com/patrykkdev/nocna-apteka/internal/notify"
	"github.com/patrykkdev/nocna-apteka/internal/receipt"
	"github.com/patrykkdev/nocna-apteka/internal/store"
)

// fakeTimer lets tests fire scheduled transitions by hand.
type fakeTimer struct {
	d       time.Duration
	fn      func()
	stopped bool
}

func (f *fakeTimer) Stop() bool {
	was := f.stopped
	f.stopped = true
	return !was
}

func (f *fakeTimer) fire() {
	if !f.stopped {
		f.stopped = true
		f.fn()
	}
}

type fakeTimers struct {
	timers []*fakeTimer
}

func (f *fakeTimers) newTimer(d time.Duration, fn func()) stopper {
	timer := &fakeTimer{d: d, fn: fn}
	f.timers = append(f.timers, timer)
	return timer
}

type fixture struct {
	terminal *Terminal
	engine   *cart.Engine
	carts    *store.MemoryCartStore
	payments *store.MemoryPaymentStore
	receipts *receipt.MemoryRepository
	timers   *fakeTimers
	notifier *notify.Notifier
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	carts := store.NewMemoryCartStore()
	payments := store.NewMemoryPaymentStore()
	receipts := receipt.NewMemoryRepository()
	notifier := notify.New(zerolog.Nop())
	timers := &fakeTimers{}

	engine := cart.NewEngine(carts, payments, notifier, zerolog.Nop())
	require.NoError(t, engine.Start(context.Background()))
	t.Cleanup(engine.Close)

	sut := New(engine, payments, receipts, nil, zerolog.Nop())
	sut.newTimer = timers.newTimer
	require.NoError(t, sut.Start(context.Background()))
	t.Cleanup(sut.Close)

	return &fixture{
		terminal: sut,
		engine:   engine,
		carts:    carts,
		payments: payments,
		receipts: receipts,
		timers:   timers,
		notifier: notifier,
	}
}

func (f *fixture) addAspirin(t *testing.T) {
	t.Helper()
	f.engine.AddItem(context.Background(), domain.Product{Barcode: "A", Name: "Aspirin 500mg", Price: 10})
}

func TestFullCycle_FinalizeToSettlement(t *testing.T) {
	f := newFixture(t)
	f.addAspirin(t)
	f.addAspirin(t)

	// Finalize raises the flag; the subscription drives the terminal.
	f.engine.Finalize(context.Background())
	assert.Equal(t, StateAwaitingCard, f.terminal.State())

	// 4s card window elapses.
	require.Len(t, f.timers.timers, 1)
	assert.Equal(t, DefaultCardWindow, f.timers.timers[0].d)
	f.timers.timers[0].fire()
	assert.Equal(t, StatePaid, f.terminal.State())

	// 2s settlement delay elapses: cart cleared, flag reset, idle again.
	require.Len(t, f.timers.timers, 2)
	assert.Equal(t, DefaultSettleDelay, f.timers.timers[1].d)
	f.timers.timers[1].fire()

	assert.Equal(t, StateIdle, f.terminal.State())
	assert.Empty(t, f.engine.Items())

	flag, err := f.payments.Read(context.Background())
	require.NoError(t, err)
	assert.False(t, flag)
}

func TestSettlement_WritesReceipt(t *testing.T) {
	f := newFixture(t)
	f.addAspirin(t)
	f.addAspirin(t)

	f.engine.Finalize(context.Background())
	f.timers.timers[0].fire()
	f.timers.timers[1].fire()

	receipts, err := f.receipts.List(context.Background(), time.Time{})
	require.NoError(t, err)
	require.Len(t, receipts, 1)
	assert.Equal(t, 20.0, receipts[0].TotalPrice)
	assert.Equal(t, 2, receipts[0].TotalItems)
	require.Len(t, receipts[0].Items, 1)
	assert.Equal(t, "A", receipts[0].Items[0].Barcode)
	assert.NotEmpty(t, receipts[0].ID)
}

func TestSettlement_SuppressesClearNotification(t *testing.T) {
	f := newFixture(t)
	f.addAspirin(t)

	f.engine.Finalize(context.Background())
	f.timers.timers[0].fire()
	f.timers.timers[1].fire()

	assert.NotEqual(t, "Koszyk został wyczyszczony", f.notifier.Current())
}

func TestRedundantTrueDoesNotRestartTimer(t *testing.T) {
	f := newFixture(t)
	f.addAspirin(t)

	f.engine.Finalize(context.Background())
	require.Len(t, f.timers.timers, 1)

	// The store rebroadcasts true; the 4s timer must not restart.
	require.NoError(t, f.payments.Write(context.Background(), true))
	require.NoError(t, f.payments.Write(context.Background(), true))

	assert.Equal(t, StateAwaitingCard, f.terminal.State())
	assert.Len(t, f.timers.timers, 1)
}

func TestRedundantTrueWhilePaidIsIgnored(t *testing.T) {
	f := newFixture(t)
	f.addAspirin(t)

	f.engine.Finalize(context.Background())
	f.timers.timers[0].fire()
	require.Equal(t, StatePaid, f.terminal.State())

	require.NoError(t, f.payments.Write(context.Background(), true))

	assert.Equal(t, StatePaid, f.terminal.State())
	assert.Len(t, f.timers.timers, 2)
}

func TestExternalResetWhileAwaitingCard(t *testing.T) {
	f := newFixture(t)
	f.addAspirin(t)

	f.engine.Finalize(context.Background())
	require.Equal(t, StateAwaitingCard, f.terminal.State())

	// Flag externally flipped back at t=1s, before the card window ends.
	require.NoError(t, f.payments.Write(context.Background(), false))

	assert.Equal(t, StateIdle, f.terminal.State())
	assert.True(t, f.timers.timers[0].stopped, "pending card-window timer must be cancelled")

	// A stale fire must not transition anything.
	f.timers.timers[0].fire()
	assert.Equal(t, StateIdle, f.terminal.State())

	// The cart survives an aborted cycle.
	assert.Len(t, f.engine.Items(), 1)
}

func TestExternalResetWhilePaidSkipsSettlement(t *testing.T) {
	f := newFixture(t)
	f.addAspirin(t)

	f.engine.Finalize(context.Background())
	f.timers.timers[0].fire()
	require.Equal(t, StatePaid, f.terminal.State())

	require.NoError(t, f.payments.Write(context.Background(), false))
	assert.Equal(t, StateIdle, f.terminal.State())

	f.timers.timers[1].fire()
	assert.Len(t, f.engine.Items(), 1, "cancelled settlement must not clear the cart")

	receipts, err := f.receipts.List(context.Background(), time.Time{})
	require.NoError(t, err)
	assert.Empty(t, receipts)
}

func TestFlagAlreadyTrueAtStartup(t *testing.T) {
	carts := store.NewMemoryCartStore()
	payments := store.NewMemoryPaymentStore()
	notifier := notify.New(zerolog.Nop())
	timers := &fakeTimers{}

	engine := cart.NewEngine(carts, payments, notifier, zerolog.Nop())
	require.NoError(t, engine.Start(context.Background()))
	t.Cleanup(engine.Close)

	require.NoError(t, payments.Write(context.Background(), true))

	sut := New(engine, payments, nil, nil, zerolog.Nop())
	sut.newTimer = timers.newTimer
	require.NoError(t, sut.Start(context.Background()))
	t.Cleanup(sut.Close)

	assert.Equal(t, StateAwaitingCard, sut.State())
}

func TestFailedFlagResetLeavesSignalStuck(t *testing.T) {
	f := newFixture(t)
	f.addAspirin(t)

	f.engine.Finalize(context.Background())
	f.timers.timers[0].fire()

	// Flag reset fails during settlement; cart is still cleared and the
	// signal stays up until the next cycle.
	f.payments.WriteErr = assertErr{}
	f.timers.timers[1].fire()

	assert.Empty(t, f.engine.Items())
	flag, err := f.payments.Read(context.Background())
	require.NoError(t, err)
	assert.True(t, flag)
}

type assertErr struct{}

func (assertErr) Error() string { return "write refused" }

func TestRemaining_CountsDown(t *testing.T) {
	f := newFixture(t)
	f.addAspirin(t)

	base := time.Unix(5000, 0)
	f.terminal.now = func() time.Time { return base }

	f.engine.Finalize(context.Background())

	base = base.Add(time.Second)
	assert.Equal(t, 3*time.Second, f.terminal.Remaining())

	base = base.Add(10 * time.Second)
	assert.Zero(t, f.terminal.Remaining())
}

func TestRemaining_ZeroWhenIdle(t *testing.T) {
	f := newFixture(t)
	assert.Zero(t, f.terminal.Remaining())
}
