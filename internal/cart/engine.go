// Package cart owns every mutation of the shared cart: quantity merges,
// removals, totals and the finalize hand-off to the payment terminal.
package cart

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/patrykkdev/nocna-apteka/internal/domain"
	"github.com/patrykkdev/nocna-apteka/internal/notify"
	"github.com/patrykkdev/nocna-apteka/internal/store"
)

// Engine mutates the shared cart through whole-document replacement: it
// reads its latest in-memory snapshot, computes a new item list and writes
// the full list back. Two terminals writing concurrently race last-writer-
// wins; the store carries no versioning, so a lost increment is possible
// under contention. Failures are reported through the notifier instead of
// being returned, so a scan never aborts the terminal loop.
type Engine struct {
	mu    sync.RWMutex
	items []domain.CartItem

	carts    store.CartStore
	payments store.PaymentStore
	notifier *notify.Notifier
	log      zerolog.Logger

	unsubscribe func()
}

func NewEngine(carts store.CartStore, payments store.PaymentStore, notifier *notify.Notifier, log zerolog.Logger) *Engine {
	return &Engine{
		carts:    carts,
		payments: payments,
		notifier: notifier,
		log:      log.With().Str("component", "cart-engine").Logger(),
	}
}

// Start loads the initial snapshot and subscribes to cart changes. Every
// observed write, local or from another terminal, replaces the snapshot.
func (e *Engine) Start(ctx context.Context) error {
	items, err := e.carts.Read(ctx)
	if err != nil {
		return fmt.Errorf("failed to load initial cart: %w", err)
	}
	e.setItems(items)

	cancel, err := e.carts.Subscribe(ctx, e.setItems)
	if err != nil {
		return fmt.Errorf("failed to subscribe to cart: %w", err)
	}
	e.unsubscribe = cancel
	return nil
}

// Close stops the cart subscription.
func (e *Engine) Close() {
	if e.unsubscribe != nil {
		e.unsubscribe()
	}
}

func (e *Engine) setItems(items []domain.CartItem) {
	e.mu.Lock()
	e.items = items
	e.mu.Unlock()
}

// Items returns a copy of the current snapshot, in insertion order.
func (e *Engine) Items() []domain.CartItem {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]domain.CartItem, len(e.items))
	copy(out, e.items)
	return out
}

// AddItem merges the product into the cart: an existing line for the same
// barcode gets +1 quantity, otherwise a new line with quantity 1 is
// appended.
func (e *Engine) AddItem(ctx context.Context, product domain.Product) {
	items := e.Items()

	found := false
	for i := range items {
		if items[i].Barcode == product.Barcode {
			items[i].Quantity++
			found = true
			break
		}
	}
	if !found {
		items = append(items, domain.CartItem{
			Barcode:  product.Barcode,
			Name:     product.Name,
			Price:    product.Price,
			Image:    product.Image,
			Quantity: 1,
		})
	}

	if err := e.carts.Write(ctx, items); err != nil {
		e.log.Error().Err(err).Str("barcode", product.Barcode).Msg("failed to add item")
		e.notifier.Notify("Błąd dodawania produktu")
		return
	}
	e.notifier.Notify(fmt.Sprintf("Dodano: %s", product.Name))
}

// SetQuantity replaces the line's quantity. Zero or negative quantities
// remove the line instead; there is no upper bound and no stock check.
func (e *Engine) SetQuantity(ctx context.Context, barcode string, quantity int) {
	if quantity <= 0 {
		e.RemoveItem(ctx, barcode)
		return
	}

	items := e.Items()
	for i := range items {
		if items[i].Barcode == barcode {
			items[i].Quantity = quantity
		}
	}

	if err := e.carts.Write(ctx, items); err != nil {
		e.log.Error().Err(err).Str("barcode", barcode).Msg("failed to update quantity")
		e.notifier.Notify("Błąd aktualizacji produktu")
	}
}

// RemoveItem drops the line with the given barcode.
func (e *Engine) RemoveItem(ctx context.Context, barcode string) {
	items := e.Items()
	filtered := items[:0]
	for _, item := range items {
		if item.Barcode != barcode {
			filtered = append(filtered, item)
		}
	}

	if err := e.carts.Write(ctx, filtered); err != nil {
		e.log.Error().Err(err).Str("barcode", barcode).Msg("failed to remove item")
		e.notifier.Notify("Błąd usuwania produktu")
		return
	}
	e.notifier.Notify("Usunięto produkt z koszyka")
}

// Clear writes an empty cart. The settlement path passes notifyUser=false
// to avoid a second notification on top of the payment confirmation.
func (e *Engine) Clear(ctx context.Context, notifyUser bool) {
	if err := e.carts.Write(ctx, []domain.CartItem{}); err != nil {
		e.log.Error().Err(err).Msg("failed to clear cart")
		if notifyUser {
			e.notifier.Notify("Błąd czyszczenia koszyka")
		}
		return
	}
	if notifyUser {
		e.notifier.Notify("Koszyk został wyczyszczony")
	}
}

// Finalize requests payment for a non-empty cart by raising the shared
// payment flag. It does not wait for settlement; the terminal state machine
// drives the rest of the cycle.
func (e *Engine) Finalize(ctx context.Context) {
	if e.TotalItems() == 0 {
		e.notifier.Notify("Koszyk jest pusty")
		return
	}

	if err := e.payments.Write(ctx, true); err != nil {
		e.log.Error().Err(err).Msg("failed to request payment")
		e.notifier.Notify("Błąd rozpoczęcia płatności")
		return
	}
	e.notifier.Notify("Rozpoczęto płatność")
}

// TotalPrice folds price*quantity over the current snapshot.
func (e *Engine) TotalPrice() float64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	var total float64
	for _, item := range e.items {
		total += item.Total()
	}
	return total
}

// TotalItems folds quantities over the current snapshot.
func (e *Engine) TotalItems() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	var total int
	for _, item := range e.items {
		total += item.Quantity
	}
	return total
}
