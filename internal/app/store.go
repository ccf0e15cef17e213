package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/utafrali/storefront/internal/config"
	"github.com/utafrali/storefront/internal/docstore"
	"github.com/utafrali/storefront/internal/docstore/memory"
	mongostore "github.com/utafrali/storefront/internal/docstore/mongo"
	pgstore "github.com/utafrali/storefront/internal/docstore/postgres"
	"github.com/utafrali/storefront/pkg/database"
)

const slowQueryThreshold = 200 * time.Millisecond

// OpenStore connects the configured document store backend. The returned
// pool is nil unless the driver is postgres; the caller closes it after the
// store.
func OpenStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (docstore.Store, *pgxpool.Pool, error) {
	switch cfg.StoreDriver {
	case config.DriverPostgres:
		database.SetSlowQueryLogging(slowQueryThreshold, logger)
		pool, err := database.NewPostgresPool(ctx, cfg.Postgres(), logger)
		if err != nil {
			return nil, nil, fmt.Errorf("connect postgres: %w", err)
		}
		if err := pgstore.Migrate(ctx, pool, logger); err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("migrate postgres: %w", err)
		}
		if err := database.RegisterPoolMetrics(prometheus.DefaultRegisterer, pool, serviceName); err != nil {
			logger.Warn("failed to register pool metrics", slog.String("error", err.Error()))
		}
		logger.Info("document store ready", slog.String("driver", cfg.StoreDriver), slog.String("host", cfg.PostgresHost))
		return pgstore.New(pool), pool, nil

	case config.DriverMongo:
		database.SetSlowQueryLogging(slowQueryThreshold, logger)
		client, err := database.NewMongoClient(ctx, cfg.Mongo(), logger)
		if err != nil {
			return nil, nil, fmt.Errorf("connect mongo: %w", err)
		}
		logger.Info("document store ready", slog.String("driver", cfg.StoreDriver), slog.String("database", cfg.MongoDatabase))
		return mongostore.New(client, cfg.MongoDatabase), nil, nil

	default:
		logger.Warn("using in-memory document store; data is lost on restart")
		return memory.New(), nil, nil
	}
}
