package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/patrykkdev/nocna-apteka/internal/domain"
)

type mongoRepository struct {
	collection *mongo.Collection
}

// NewMongoRepository returns a Repository backed by the "products"
// collection.
func NewMongoRepository(db *mongo.Database) Repository {
	return &mongoRepository{
		collection: db.Collection("products"),
	}
}

func (m *mongoRepository) GetByBarcode(ctx context.Context, barcode string) (*domain.Product, error) {
	var product domain.Product

	filter := bson.M{"barcode": barcode}
	err := m.collection.FindOne(ctx, filter).Decode(&product)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to get product: %w", err)
	}

	return &product, nil
}

func (m *mongoRepository) ListAll(ctx context.Context) ([]domain.Product, error) {
	opts := options.Find().SetSort(bson.D{{Key: "name", Value: 1}})
	cursor, err := m.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	defer cursor.Close(ctx)

	var products []domain.Product
	if err := cursor.All(ctx, &products); err != nil {
		return nil, fmt.Errorf("failed to decode products: %w", err)
	}
	return products, nil
}

// Search matches name, description, barcode and category. The catalog is
// small, so filtering the full list in memory is fine.
func (m *mongoRepository) Search(ctx context.Context, term string) ([]domain.Product, error) {
	products, err := m.ListAll(ctx)
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

func (m *mongoRepository) Add(ctx context.Context, product domain.Product) error {
	_, err := m.collection.InsertOne(ctx, product)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicateCode
		}
		return fmt.Errorf("failed to add product: %w", err)
	}
	return nil
}

func (m *mongoRepository) Update(ctx context.Context, product domain.Product) error {
	filter := bson.M{"barcode": product.Barcode}
	update := bson.M{"$set": product}

	result, err := m.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to update product: %w", err)
	}
	if result.MatchedCount == 0 {
		return ErrProductNotFound
	}
	return nil
}

func (m *mongoRepository) Delete(ctx context.Context, barcode string) error {
	result, err := m.collection.DeleteOne(ctx, bson.M{"barcode": barcode})
	if err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}
	if result.DeletedCount == 0 {
		return ErrProductNotFound
	}
	return nil
}

// EnsureIndexes sets up the unique barcode index on the products
// collection.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	index := mongo.IndexModel{
		Keys:    bson.D{{Key: "barcode", Value: 1}},
		Options: options.Index().SetUnique(true),
	}

	_, err := db.Collection("products").Indexes().CreateOne(ctx, index)
	if err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}
	return nil
}
