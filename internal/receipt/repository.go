// Package receipt records settled orders and publishes settlement events.
package receipt

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/patrykkdev/nocna-apteka/internal/domain"
)

// Repository persists settled order snapshots for the reports feed.
type Repository interface {
	Save(ctx context.Context, receipt domain.Receipt) error
	List(ctx context.Context, since time.Time) ([]domain.Receipt, error)
}

type mongoRepository struct {
	collection *mongo.Collection
}

func NewMongoRepository(db *mongo.Database) Repository {
	return &mongoRepository{
		collection: db.Collection("receipts"),
	}
}

func (m *mongoRepository) Save(ctx context.Context, receipt domain.Receipt) error {
	_, err := m.collection.InsertOne(ctx, receipt)
	if err != nil {
		return fmt.Errorf("failed to save receipt: %w", err)
	}
	return nil
}

func (m *mongoRepository) List(ctx context.Context, since time.Time) ([]domain.Receipt, error) {
	filter := bson.M{"settled_at": bson.M{"$gte": since}}
	opts := options.Find().SetSort(bson.D{{Key: "settled_at", Value: -1}})

	cursor, err := m.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list receipts: %w", err)
	}
	defer cursor.Close(ctx)

	var receipts []domain.Receipt
	if err := cursor.All(ctx, &receipts); err != nil {
		return nil, fmt.Errorf("failed to decode receipts: %w", err)
	}
	return receipts, nil
}

// MemoryRepository implements Repository in memory for the standalone mode
// and tests.
type MemoryRepository struct {
	mu       sync.RWMutex
	receipts []domain.Receipt
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{}
}

func (r *MemoryRepository) Save(_ context.Context, receipt domain.Receipt) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.receipts = append(r.receipts, receipt)
	return nil
}

func (r *MemoryRepository) List(_ context.Context, since time.Time) ([]domain.Receipt, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []domain.Receipt
	for _, rcpt := range r.receipts {
		if !rcpt.SettledAt.Before(since) {
			out = append(out, rcpt)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SettledAt.After(out[j].SettledAt) })
	return out, nil
}
