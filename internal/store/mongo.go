package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/patrykkdev/nocna-apteka/internal/domain"
)

// ConnectMongoDB dials the document store and verifies the connection.
func ConnectMongoDB(ctx context.Context, uri, database string) (*mongo.Database, error) {
	clientOpts := options.Client().
		ApplyURI(uri).
		SetConnectTimeout(10 * time.Second).
		SetServerSelectionTimeout(5 * time.Second).
		SetMaxPoolSize(100).
		SetMinPoolSize(10)

	client, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	return client.Database(database), nil
}

// MongoCartStore keeps the shared cart as a single document in the "cart"
// collection. Change notifications ride on a change stream, so the
// deployment needs a replica set.
type MongoCartStore struct {
	collection *mongo.Collection
	log        zerolog.Logger
}

func NewMongoCartStore(db *mongo.Database, log zerolog.Logger) *MongoCartStore {
	return &MongoCartStore{
		collection: db.Collection("cart"),
		log:        log.With().Str("component", "cart-store").Logger(),
	}
}

func (s *MongoCartStore) Read(ctx context.Context) ([]domain.CartItem, error) {
	var doc domain.CartDocument
	err := s.collection.FindOne(ctx, bson.M{"_id": CartDocID}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			// Lazily create the singleton so every terminal sees the
			// same document from its first read on.
			return nil, s.createEmpty(ctx)
		}
		return nil, fmt.Errorf("failed to read cart: %w", err)
	}
	return doc.Items, nil
}

func (s *MongoCartStore) createEmpty(ctx context.Context) error {
	doc := domain.CartDocument{ID: CartDocID, Items: []domain.CartItem{}, LastUpdated: time.Now()}
	_, err := s.collection.InsertOne(ctx, doc)
	if err != nil && !mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("failed to create cart: %w", err)
	}
	return nil
}

func (s *MongoCartStore) Write(ctx context.Context, items []domain.CartItem) error {
	doc := domain.CartDocument{
		ID:          CartDocID,
		Items:       items,
		LastUpdated: time.Now(),
	}

	opts := options.Replace().SetUpsert(true)
	_, err := s.collection.ReplaceOne(ctx, bson.M{"_id": CartDocID}, doc, opts)
	if err != nil {
		return fmt.Errorf("failed to write cart: %w", err)
	}
	return nil
}

func (s *MongoCartStore) Subscribe(ctx context.Context, fn func(items []domain.CartItem)) (func(), error) {
	streamCtx, cancel := context.WithCancel(ctx)

	stream, err := watchDocument(streamCtx, s.collection, CartDocID)
	if err != nil {
		cancel()
		return nil, err
	}

	go func() {
		defer stream.Close(context.Background())
		for stream.Next(streamCtx) {
			var event struct {
				FullDocument domain.CartDocument `bson:"fullDocument"`
			}
			if err := stream.Decode(&event); err != nil {
				s.log.Error().Err(err).Msg("failed to decode cart change event")
				continue
			}
			fn(event.FullDocument.Items)
		}
		if err := stream.Err(); err != nil && !errors.Is(err, context.Canceled) {
			s.log.Error().Err(err).Msg("cart change stream closed")
		}
	}()

	return cancel, nil
}

// MongoPaymentStore keeps the payment-request flag as a single document in
// the "payment" collection.
type MongoPaymentStore struct {
	collection *mongo.Collection
	log        zerolog.Logger
}

func NewMongoPaymentStore(db *mongo.Database, log zerolog.Logger) *MongoPaymentStore {
	return &MongoPaymentStore{
		collection: db.Collection("payment"),
		log:        log.With().Str("component", "payment-store").Logger(),
	}
}

func (s *MongoPaymentStore) Read(ctx context.Context) (bool, error) {
	var doc domain.PaymentSignal
	err := s.collection.FindOne(ctx, bson.M{"_id": PaymentDocID}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return false, s.createDefault(ctx)
		}
		return false, fmt.Errorf("failed to read payment signal: %w", err)
	}
	return doc.ShowPayment, nil
}

func (s *MongoPaymentStore) createDefault(ctx context.Context) error {
	doc := domain.PaymentSignal{ID: PaymentDocID, ShowPayment: false, LastUpdated: time.Now()}
	_, err := s.collection.InsertOne(ctx, doc)
	if err != nil && !mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("failed to create payment signal: %w", err)
	}
	return nil
}

func (s *MongoPaymentStore) Write(ctx context.Context, flag bool) error {
	doc := domain.PaymentSignal{
		ID:          PaymentDocID,
		ShowPayment: flag,
		LastUpdated: time.Now(),
	}

	opts := options.Replace().SetUpsert(true)
	_, err := s.collection.ReplaceOne(ctx, bson.M{"_id": PaymentDocID}, doc, opts)
	if err != nil {
		return fmt.Errorf("failed to write payment signal: %w", err)
	}
	return nil
}

func (s *MongoPaymentStore) Subscribe(ctx context.Context, fn func(flag bool, at time.Time)) (func(), error) {
	streamCtx, cancel := context.WithCancel(ctx)

	stream, err := watchDocument(streamCtx, s.collection, PaymentDocID)
	if err != nil {
		cancel()
		return nil, err
	}

	go func() {
		defer stream.Close(context.Background())
		for stream.Next(streamCtx) {
			var event struct {
				FullDocument domain.PaymentSignal `bson:"fullDocument"`
			}
			if err := stream.Decode(&event); err != nil {
				s.log.Error().Err(err).Msg("failed to decode payment change event")
				continue
			}
			fn(event.FullDocument.ShowPayment, event.FullDocument.LastUpdated)
		}
		if err := stream.Err(); err != nil && !errors.Is(err, context.Canceled) {
			s.log.Error().Err(err).Msg("payment change stream closed")
		}
	}()

	return cancel, nil
}

func watchDocument(ctx context.Context, collection *mongo.Collection, docID string) (*mongo.ChangeStream, error) {
	pipeline := mongo.Pipeline{
		bson.D{{Key: "$match", Value: bson.D{{Key: "documentKey._id", Value: docID}}}},
	}
	opts := options.ChangeStream().SetFullDocument(options.UpdateLookup)

	stream, err := collection.Watch(ctx, pipeline, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open change stream: %w", err)
	}
	return stream, nil
}
