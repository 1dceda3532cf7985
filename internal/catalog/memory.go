package catalog

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/patrykkdev/nocna-apteka/internal/domain"
)

// MemoryRepository implements Repository with in-memory storage for the
// standalone single-terminal mode and for tests.
type MemoryRepository struct {
	mu       sync.RWMutex
	products map[string]domain.Product // barcode -> product
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		products: make(map[string]domain.Product),
	}
}

func (r *MemoryRepository) GetByBarcode(_ context.Context, barcode string) (*domain.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.products[barcode]
	if !ok {
		return nil, ErrProductNotFound
	}
	return &p, nil
}

func (r *MemoryRepository) ListAll(context.Context) ([]domain.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.Product, 0, len(r.products))
	for _, p := range r.products {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *MemoryRepository) Search(ctx context.Context, term string) ([]domain.Product, error) {
	products, err := r.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	term = strings.ToLower(term)
	var matched []domain.Product
	for _, p := range products {
		if strings.Contains(strings.ToLower(p.Name), term) ||
			strings.Contains(strings.ToLower(p.Description), term) ||
			strings.Contains(p.Barcode, term) ||
			strings.Contains(strings.ToLower(p.Category), term) {
			matched = append(matched, p)
		}
	}
	return matched, nil
}

func (r *MemoryRepository) Add(_ context.Context, product domain.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.products[product.Barcode]; exists {
		return ErrDuplicateCode
	}
	r.products[product.Barcode] = product
	return nil
}

func (r *MemoryRepository) Update(_ context.Context, product domain.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.products[product.Barcode]; !exists {
		return ErrProductNotFound
	}
	r.products[product.Barcode] = product
	return nil
}

func (r *MemoryRepository) Delete(_ context.Context, barcode string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.products[barcode]; !exists {
		return ErrProductNotFound
	}
	delete(r.products, barcode)
	return nil
}
