package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/patrykkdev/nocna-apteka/internal/domain"
)

// ProductCache caches barcode lookups in front of the catalog store.
type ProductCache interface {
	Get(ctx context.Context, barcode string) (*domain.Product, error)
	Set(ctx context.Context, barcode string, product *domain.Product) error
	Delete(ctx context.Context, barcode string) error
}

var ErrCacheMiss = errors.New("cache miss")

func NewRedisCache(client *redis.Client) *RedisCache {
	return &RedisCache{
		client:  client,
		baseTTL: 15 * time.Minute,
	}
}

type RedisCache struct {
	client  *redis.Client
	baseTTL time.Duration
}

func (r *RedisCache) Get(ctx context.Context, barcode string) (*domain.Product, error) {
	key := cacheKey(barcode)

	data, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}

	var product domain.Product
	if err2 := json.Unmarshal(data, &product); err2 != nil {
		return nil, fmt.Errorf("unmarshal product failed: %w", err2)
	}

	return &product, nil
}

func (r *RedisCache) Set(ctx context.Context, barcode string, product *domain.Product) error {
	key := cacheKey(barcode)
	data, err := json.Marshal(product)
	if err != nil {
		return fmt.Errorf("marshal product failed: %w", err)
	}

	jitter := time.Duration(rand.Intn(5)) * time.Minute
	ttl := r.baseTTL + jitter
	if errSet := r.client.Set(ctx, key, data, ttl).Err(); errSet != nil {
		return fmt.Errorf("redis set failed: %w", errSet)
	}
	return nil
}

func (r *RedisCache) Delete(ctx context.Context, barcode string) error {
	if err := r.client.Del(ctx, cacheKey(barcode)).Err(); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}

func cacheKey(barcode string) string {
	return fmt.Sprintf("product:%s", barcode)
}
