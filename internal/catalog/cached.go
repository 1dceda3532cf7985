package catalog

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker/v2"
	"golang.org/x/sync/singleflight"

	"github.com/patrykkdev/nocna-apteka/internal/domain"
)

// CachedRepository layers a product cache and a circuit breaker over the
// catalog store. Scans hit GetByBarcode on every beep, so lookups are
// cached; a dead store trips the breaker and scans degrade to "not found"
// notifications instead of hanging.
type CachedRepository struct {
	repo    Repository
	cache   ProductCache
	breaker *gobreaker.CircuitBreaker[*domain.Product]
	sfg     singleflight.Group // Prevents cache stampede
	log     zerolog.Logger
}

func NewCachedRepository(repo Repository, cache ProductCache, log zerolog.Logger) *CachedRepository {
	breaker := gobreaker.NewCircuitBreaker[*domain.Product](gobreaker.Settings{
		Name:     "catalog-lookup",
		Interval: time.Minute,
		Timeout:  15 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		IsSuccessful: func(err error) bool {
			// A missing product is a normal outcome, not a store fault.
			return err == nil || errors.Is(err, ErrProductNotFound)
		},
	})

	return &CachedRepository{
		repo:    repo,
		cache:   cache,
		breaker: breaker,
		log:     log.With().Str("component", "catalog").Logger(),
	}
}

func (c *CachedRepository) GetByBarcode(ctx context.Context, barcode string) (*domain.Product, error) {
	// Use singleflight to prevent multiple concurrent cache misses for
	// the same barcode.
	v, err, _ := c.sfg.Do(barcode, func() (interface{}, error) {
		product, errGet := c.cache.Get(ctx, barcode)
		if errGet == nil {
			return product, nil
		}

		if !errors.Is(errGet, ErrCacheMiss) {
			c.log.Warn().Err(errGet).Msg("cache get error") // log cache error but continue
		}

		product, errLookup := c.breaker.Execute(func() (*domain.Product, error) {
			return c.repo.GetByBarcode(ctx, barcode)
		})
		if errLookup != nil {
			return nil, errLookup
		}

		go func() {
			ctxSet, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			if errSet := c.cache.Set(ctxSet, barcode, product); errSet != nil {
				c.log.Warn().Err(errSet).Msg("cache set error")
			}
		}()

		return product, nil
	})

	if err != nil {
		return nil, err
	}
	return v.(*domain.Product), nil
}

func (c *CachedRepository) ListAll(ctx context.Context) ([]domain.Product, error) {
	return c.repo.ListAll(ctx)
}

func (c *CachedRepository) Search(ctx context.Context, term string) ([]domain.Product, error) {
	return c.repo.Search(ctx, term)
}

func (c *CachedRepository) Add(ctx context.Context, product domain.Product) error {
	if err := c.repo.Add(ctx, product); err != nil {
		return err
	}
	c.invalidate(product.Barcode)
	return nil
}

func (c *CachedRepository) Update(ctx context.Context, product domain.Product) error {
	if err := c.repo.Update(ctx, product); err != nil {
		return err
	}
	c.invalidate(product.Barcode)
	return nil
}

func (c *CachedRepository) Delete(ctx context.Context, barcode string) error {
	if err := c.repo.Delete(ctx, barcode); err != nil {
		return err
	}
	c.invalidate(barcode)
	return nil
}

func (c *CachedRepository) invalidate(barcode string) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := c.cache.Delete(ctx, barcode); err != nil {
		c.log.Warn().Err(err).Msg("cache invalidate error")
	}
}
