package catalog

import (
	"context"
	"errors"

	"github.com/patrykkdev/nocna-apteka/internal/domain"
)

var (
	ErrProductNotFound = errors.New("product not found")
	ErrDuplicateCode   = errors.New("product with this barcode already exists")
)

// Repository defines the catalog operations the POS consumes. Consumers
// define this interface, not the MongoDB implementation.
type Repository interface {
	GetByBarcode(ctx context.Context, barcode string) (*domain.Product, error)
	ListAll(ctx context.Context) ([]domain.Product, error)
	Search(ctx context.Context, term string) ([]domain.Product, error)
	Add(ctx context.Context, product domain.Product) error
	Update(ctx context.Context, product domain.Product) error
	Delete(ctx context.Context, barcode string) error
}
