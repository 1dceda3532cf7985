package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/patrykkdev/nocna-apteka/internal/cart"
	"github.com/patrykkdev/nocna-apteka/internal/catalog"
	"github.com/patrykkdev/nocna-apteka/internal/config"
	poshttp "github.com/patrykkdev/nocna-apteka/internal/http"
	"github.com/patrykkdev/nocna-apteka/internal/notify"
	"github.com/patrykkdev/nocna-apteka/internal/receipt"
	"github.com/patrykkdev/nocna-apteka/internal/scan"
	"github.com/patrykkdev/nocna-apteka/internal/store"
	"github.com/patrykkdev/nocna-apteka/internal/terminal"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	cfg, err := config.LoadConfig(".")
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	if level, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		zerolog.SetGlobalLevel(level)
	}
	logger := log.With().Str("app", cfg.AppName).Logger()

	ctx := context.Background()

	// Storage: MongoDB for shared multi-terminal state, in-memory for a
	// single standalone counter.
	var (
		carts    store.CartStore
		payments store.PaymentStore
		products catalog.Repository
		receipts receipt.Repository
		mongoDB  *mongo.Database
	)
	if cfg.Standalone {
		logger.Info().Msg("Running standalone with in-memory stores")
		carts = store.NewMemoryCartStore()
		payments = store.NewMemoryPaymentStore()
		products = catalog.NewMemoryRepository()
		receipts = receipt.NewMemoryRepository()
	} else {
		mongoDB, err = store.ConnectMongoDB(ctx, cfg.MongoURI, cfg.MongoDBName)
		if err != nil {
			logger.Fatal().Err(err).Msg("Failed to connect to MongoDB")
		}
		defer mongoDB.Client().Disconnect(ctx)
		logger.Info().Str("uri", cfg.MongoURI).Msg("Connected to MongoDB")

		if err := catalog.EnsureIndexes(ctx, mongoDB); err != nil {
			logger.Fatal().Err(err).Msg("Failed to ensure catalog indexes")
		}
		carts = store.NewMongoCartStore(mongoDB, logger)
		payments = store.NewMongoPaymentStore(mongoDB, logger)
		products = catalog.NewMongoRepository(mongoDB)
		receipts = receipt.NewMongoRepository(mongoDB)
	}

	if cfg.SeedCatalog {
		if err := catalog.Seed(ctx, products); err != nil {
			logger.Fatal().Err(err).Msg("Failed to seed product catalog")
		}
	}

	// Optional read-through cache in front of the catalog.
	if cfg.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       0,
		})
		defer redisClient.Close()
		if err := redisClient.Ping(ctx).Err(); err != nil {
			logger.Fatal().Err(err).Msg("Redis connection failed")
		}
		logger.Info().Str("addr", cfg.RedisAddr).Msg("Redis ping succeeded")
		products = catalog.NewCachedRepository(products, catalog.NewRedisCache(redisClient), logger)
	}

	notifier := notify.New(logger)

	engine := cart.NewEngine(carts, payments, notifier, logger)
	if err := engine.Start(ctx); err != nil {
		logger.Fatal().Err(err).Msg("Failed to start cart engine")
	}
	defer engine.Close()

	// Optional settlement event stream.
	var publisher terminal.EventPublisher
	if brokers := cfg.Brokers(); len(brokers) > 0 {
		kafkaPublisher := receipt.NewPublisher(logger, brokers...)
		defer kafkaPublisher.Close()
		publisher = kafkaPublisher
		logger.Info().Strs("brokers", brokers).Msg("Settlement publishing enabled")
	}

	term := terminal.New(engine, payments, receipts, publisher, logger)
	if err := term.Start(ctx); err != nil {
		logger.Fatal().Err(err).Msg("Failed to start payment terminal")
	}
	defer term.Close()

	var feedback scan.Feedback = scan.NopFeedback{}
	if cfg.SoundEnabled {
		feedback = consoleFeedback{}
	}
	scanner := scan.NewScanner(products, engine, notifier, feedback, logger)
	if cfg.ScanDebounce > 0 {
		scanner.SetDebounce(cfg.ScanDebounce)
	}

	// A USB scanner in keyboard-wedge mode types into stdin; feed those
	// keystrokes through the buffer reducer.
	scanCtx, stopScanner := context.WithCancel(ctx)
	defer stopScanner()
	go scanner.Run(scanCtx, readKeys(scanCtx, logger))

	router := poshttp.NewRouter(poshttp.RouterConfig{
		Engine:   engine,
		Catalog:  products,
		Carts:    carts,
		Terminal: term,
		Scanner:  scanner,
		Receipts: receipts,
		Notifier: notifier,
		Timeout:  cfg.RequestTimeout,
	})

	server := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.HTTPPort),
		Handler: router,
	}

	go func() {
		logger.Info().Str("port", cfg.HTTPPort).Msg("POS server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("Failed to serve")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("Shutting down POS server...")
	shutdownCtx, cancel := context.WithTimeout(ctx, cfg.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("Server shutdown failed")
	}
	logger.Info().Msg("POS server stopped")
}

// readKeys pumps stdin runes into a channel until EOF or cancellation.
func readKeys(ctx context.Context, logger zerolog.Logger) <-chan rune {
	keys := make(chan rune, 64)
	reader := bufio.NewReader(os.Stdin)
	go func() {
		defer close(keys)
		for {
			r, _, err := reader.ReadRune()
			if err != nil {
				if !errors.Is(err, io.EOF) {
					logger.Error().Err(err).Msg("stdin read failed")
				}
				return
			}
			select {
			case keys <- r:
			case <-ctx.Done():
				return
			}
		}
	}()
	return keys
}

// consoleFeedback rings the terminal bell on a successful scan. There is
// no vibration motor on a till.
type consoleFeedback struct{}

func (consoleFeedback) Beep()    { fmt.Print("\a") }
func (consoleFeedback) Vibrate() {}
