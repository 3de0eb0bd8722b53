// Package bootstrap opens the backing services selected by configuration.
// Both the HTTP server and the admin CLI start through here.
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dukerupert/loomworks/internal"
	"github.com/dukerupert/loomworks/internal/domain"
	"github.com/dukerupert/loomworks/internal/idempotency"
	"github.com/dukerupert/loomworks/internal/memory"
	"github.com/dukerupert/loomworks/internal/mongodb"
	"github.com/dukerupert/loomworks/internal/postgres"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// Stores is the opened order and stock backend.
type Stores struct {
	Backend string
	Orders  domain.OrderStore
	Stock   domain.StockStore

	ping    func(ctx context.Context) error
	closers []func()
}

// Ping reports whether the backend is reachable. The memory backend always is.
func (s *Stores) Ping(ctx context.Context) error {
	if s.ping == nil {
		return nil
	}
	return s.ping(ctx)
}

// Close releases connections in reverse order of opening.
func (s *Stores) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
	s.closers = nil
}

// OpenStores connects the configured backend. For PostgreSQL pending
// migrations are applied when migrate is true; for MongoDB indexes are
// always ensured.
func OpenStores(ctx context.Context, cfg *internal.Config, migrate bool, logger *slog.Logger) (*Stores, error) {
	switch cfg.StoreBackend {
	case internal.BackendPostgres:
		return openPostgres(ctx, cfg, migrate, logger)
	case internal.BackendMongo:
		return openMongo(ctx, cfg, logger)
	case internal.BackendMemory, "":
		logger.Warn("using in-memory order store")
		return &Stores{
			Backend: internal.BackendMemory,
			Orders:  memory.NewOrderStore(),
			Stock:   memory.NewStockStore(nil),
		}, nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}
}

func openPostgres(ctx context.Context, cfg *internal.Config, migrate bool, logger *slog.Logger) (*Stores, error) {
	logger.Info("Connecting to database...")
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("database ping failed: %w", err)
	}
	logger.Info("Database connection established")

	if migrate {
		logger.Info("Running database migrations...")
		if err := Migrate(pool); err != nil {
			pool.Close()
			return nil, err
		}
		logger.Info("Database migrations completed successfully")
	}

	return &Stores{
		Backend: internal.BackendPostgres,
		Orders:  postgres.NewOrderStore(pool),
		Stock:   postgres.NewStockStore(pool),
		ping:    pool.Ping,
		closers: []func(){pool.Close},
	}, nil
}

// Migrate applies pending goose migrations through a database/sql handle
// borrowed from pool.
func Migrate(pool *pgxpool.Pool) error {
	db := stdlib.OpenDBFromPool(pool)
	defer db.Close()

	if err := internal.RunMigrations(db); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	return nil
}

func openMongo(ctx context.Context, cfg *internal.Config, logger *slog.Logger) (*Stores, error) {
	logger.Info("Connecting to MongoDB...", "database", cfg.Mongo.Database)
	client, err := mongodb.Connect(ctx, cfg.Mongo.URI)
	if err != nil {
		return nil, err
	}
	disconnect := func() { _ = client.Disconnect(context.Background()) }

	db := client.Database(cfg.Mongo.Database)
	if err := mongodb.EnsureIndexes(ctx, db); err != nil {
		disconnect()
		return nil, err
	}
	logger.Info("MongoDB connection established")

	return &Stores{
		Backend: internal.BackendMongo,
		Orders:  mongodb.NewOrderStore(db),
		Stock:   mongodb.NewStockStore(db),
		ping: func(ctx context.Context) error {
			return client.Ping(ctx, readpref.Primary())
		},
		closers: []func(){disconnect},
	}, nil
}

// OpenLedger returns the processed-event ledger: Redis when REDIS_URL is
// set, process memory otherwise. The returned func closes it.
func OpenLedger(ctx context.Context, cfg *internal.Config, logger *slog.Logger) (idempotency.Store, func(), error) {
	if cfg.Idempotency.RedisURL == "" {
		logger.Warn("REDIS_URL not set, webhook deduplication is per process")
		return idempotency.NewMemoryStore(), func() {}, nil
	}

	store, err := idempotency.NewRedisStore(ctx, cfg.Idempotency.RedisURL)
	if err != nil {
		return nil, nil, err
	}
	logger.Info("Redis idempotency ledger connected", "ttl", cfg.Idempotency.TTL)
	return store, func() { _ = store.Close() }, nil
}
