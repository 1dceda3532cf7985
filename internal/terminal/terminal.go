// Package terminal drives the simulated card terminal: the timed
// idle → awaiting_card → paid → idle cycle keyed off the shared payment
// flag, ending in settlement (receipt, cart clear, flag reset).
package terminal

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/patrykkdev/nocna-apteka/internal/domain"
	"github.com/patrykkdev/nocna-apteka/internal/receipt"
	"github.com/patrykkdev/nocna-apteka/internal/store"
)

type State string

const (
	StateIdle         State = "idle"
	StateAwaitingCard State = "awaiting_card"
	StatePaid         State = "paid"
)

const (
	// DefaultCardWindow is how long the customer has to present a card.
	DefaultCardWindow = 4 * time.Second
	// DefaultSettleDelay is how long the confirmation stays up before the
	// cycle resets.
	DefaultSettleDelay = 2 * time.Second

	settleTimeout = 5 * time.Second
)

// Cart is the part of the cart engine the terminal needs for settlement.
type Cart interface {
	Items() []domain.CartItem
	TotalPrice() float64
	TotalItems() int
	Clear(ctx context.Context, notifyUser bool)
}

// EventPublisher emits settlement events. May be absent.
type EventPublisher interface {
	Publish(ctx context.Context, receipt domain.Receipt) error
}

// stopper is what a scheduled transition hands back so it can be cancelled
// when superseded. *time.Timer satisfies it.
type stopper interface {
	Stop() bool
}

// Terminal is an edge-triggered observer of the payment flag, not a mirror
// of it: a false→true transition while idle starts exactly one cycle, and
// redundant true notifications never restart a running timer. A false
// observation at any point cancels the pending timer and resets to idle.
type Terminal struct {
	cart      Cart
	payments  store.PaymentStore
	receipts  receipt.Repository // optional
	publisher EventPublisher     // optional
	log       zerolog.Logger

	cardWindow  time.Duration
	settleDelay time.Duration
	now         func() time.Time
	newTimer    func(d time.Duration, fn func()) stopper

	mu       sync.Mutex
	state    State
	deadline time.Time
	timer    stopper

	unsubscribe func()
}

func New(cart Cart, payments store.PaymentStore, receipts receipt.Repository, publisher EventPublisher, log zerolog.Logger) *Terminal {
	return &Terminal{
		cart:        cart,
		payments:    payments,
		receipts:    receipts,
		publisher:   publisher,
		log:         log.With().Str("component", "terminal").Logger(),
		cardWindow:  DefaultCardWindow,
		settleDelay: DefaultSettleDelay,
		now:         time.Now,
		newTimer: func(d time.Duration, fn func()) stopper {
			return time.AfterFunc(d, fn)
		},
		state: StateIdle,
	}
}

// Start reads the current flag and subscribes to its changes.
func (t *Terminal) Start(ctx context.Context) error {
	flag, err := t.payments.Read(ctx)
	if err != nil {
		return err
	}
	t.Observe(flag, t.now())

	cancel, err := t.payments.Subscribe(ctx, t.Observe)
	if err != nil {
		return err
	}
	t.unsubscribe = cancel
	return nil
}

// Close cancels any pending timer and stops the subscription. Without the
// cancel, a stale timer callback could fire against a cart a newer cycle
// already cleared.
func (t *Terminal) Close() {
	if t.unsubscribe != nil {
		t.unsubscribe()
	}
	t.mu.Lock()
	t.cancelTimerLocked()
	t.state = StateIdle
	t.deadline = time.Time{}
	t.mu.Unlock()
}

// Observe processes one flag notification.
func (t *Terminal) Observe(flag bool, _ time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if flag {
		if t.state != StateIdle {
			// Redundant true while a cycle is running. Must not
			// restart the timer.
			return
		}
		t.state = StateAwaitingCard
		t.deadline = t.now().Add(t.cardWindow)
		t.timer = t.newTimer(t.cardWindow, t.cardWindowElapsed)
		t.log.Info().Msg("payment requested, awaiting card")
		return
	}

	if t.state == StateIdle {
		return
	}
	// External flag reset forces an immediate return to idle regardless
	// of timer state.
	t.cancelTimerLocked()
	t.state = StateIdle
	t.deadline = time.Time{}
	t.log.Info().Msg("payment flag reset, back to idle")
}

func (t *Terminal) cancelTimerLocked() {
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
}

func (t *Terminal) cardWindowElapsed() {
	t.mu.Lock()
	if t.state != StateAwaitingCard {
		// Superseded by a reset between firing and locking.
		t.mu.Unlock()
		return
	}
	t.state = StatePaid
	t.deadline = t.now().Add(t.settleDelay)
	t.timer = t.newTimer(t.settleDelay, t.settle)
	t.mu.Unlock()

	t.log.Info().Msg("card accepted")
}

// settle finishes the cycle: record the receipt, clear the cart without a
// second notification, drop the flag. Every step is best effort; a failed
// write is logged and the signal stays up until the next natural cycle or
// a human fixes it.
func (t *Terminal) settle() {
	t.mu.Lock()
	if t.state != StatePaid {
		t.mu.Unlock()
		return
	}
	t.timer = nil
	t.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), settleTimeout)
	defer cancel()

	items := t.cart.Items()
	if len(items) > 0 {
		rcpt := domain.Receipt{
			ID:         uuid.NewString(),
			Items:      items,
			TotalPrice: t.cart.TotalPrice(),
			TotalItems: t.cart.TotalItems(),
			SettledAt:  t.now(),
		}
		if t.receipts != nil {
			if err := t.receipts.Save(ctx, rcpt); err != nil {
				t.log.Error().Err(err).Msg("failed to save receipt")
			}
		}
		if t.publisher != nil {
			if err := t.publisher.Publish(ctx, rcpt); err != nil {
				t.log.Error().Err(err).Msg("failed to publish settlement")
			}
		}
	}

	t.cart.Clear(ctx, false)
	if err := t.payments.Write(ctx, false); err != nil {
		// State returns to idle on the next flag observation.
		t.log.Error().Err(err).Msg("failed to reset payment flag")
		return
	}
	t.log.Info().Msg("order settled")
}

// State returns the current terminal state.
func (t *Terminal) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Remaining returns how much of the current countdown is left, zero when
// idle. The checkout screen renders it.
func (t *Terminal) Remaining() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.deadline.IsZero() {
		return 0
	}
	remaining := t.deadline.Sub(t.now())
	if remaining < 0 {
		return 0
	}
	return remaining
}
