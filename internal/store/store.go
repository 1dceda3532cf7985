package store

import (
	"context"
	"time"

	"github.com/patrykkdev/nocna-apteka/internal/domain"
)

// Document identifiers for the two shared singletons.
const (
	CartDocID    = "shared-cart"
	PaymentDocID = "payment-doc"
)

// CartStore persists the single shared cart document and broadcasts the
// latest full item list to every subscriber on change. Consumers define
// this interface, not the MongoDB implementation.
type CartStore interface {
	Read(ctx context.Context) ([]domain.CartItem, error)
	Write(ctx context.Context, items []domain.CartItem) error
	// Subscribe registers fn to be called with the full item list after
	// every observed write. It returns a cancel function that stops
	// delivery. Delivery order across subscribers is not guaranteed.
	Subscribe(ctx context.Context, fn func(items []domain.CartItem)) (func(), error)
}

// PaymentStore persists the shared payment-request flag.
type PaymentStore interface {
	Read(ctx context.Context) (bool, error)
	Write(ctx context.Context, flag bool) error
	Subscribe(ctx context.Context, fn func(flag bool, at time.Time)) (func(), error)
}
