package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/utafrali/storefront/internal/auth"
	"github.com/utafrali/storefront/internal/config"
	"github.com/utafrali/storefront/internal/docstore"
	"github.com/utafrali/storefront/internal/event"
	handler "github.com/utafrali/storefront/internal/handler/http"
	"github.com/utafrali/storefront/internal/identity"
	"github.com/utafrali/storefront/internal/identity/local"
	"github.com/utafrali/storefront/internal/identity/remote"
	"github.com/utafrali/storefront/internal/repository"
	redisrepo "github.com/utafrali/storefront/internal/repository/redis"
	"github.com/utafrali/storefront/internal/search"
	esengine "github.com/utafrali/storefront/internal/search/elasticsearch"
	"github.com/utafrali/storefront/internal/service"
	"github.com/utafrali/storefront/pkg/database"
	"github.com/utafrali/storefront/pkg/health"
	"github.com/utafrali/storefront/pkg/httpclient"
	pkgkafka "github.com/utafrali/storefront/pkg/kafka"
	"github.com/utafrali/storefront/pkg/tracing"
)

const (
	serviceName    = "storefront"
	serviceVersion = "1.0.0"
	idempotencyTTL = 24 * time.Hour
)

// App wires together all dependencies and runs the storefront API.
type App struct {
	cfg    *config.Config
	logger *slog.Logger

	store    docstore.Store
	pool     *pgxpool.Pool
	redis    *redis.Client
	producer *pkgkafka.Producer
	consumer *pkgkafka.Consumer
	dlq      *pkgkafka.DeadLetterWriter
	search   *esengine.Engine

	tracingShutdown func(context.Context) error
	httpServer      *http.Server
	// stop ends background work started for the router, such as the rate
	// limiter's visitor sweep.
	stop context.CancelFunc
}

// NewApp creates a new application instance, initializing all dependencies.
// Anything opened before a failure is closed again.
func NewApp(ctx context.Context, cfg *config.Config, logger *slog.Logger) (_ *App, err error) {
	a := &App{cfg: cfg, logger: logger}
	defer func() {
		if err != nil {
			a.closeAll(context.Background())
		}
	}()

	a.tracingShutdown, err = tracing.Init(ctx, tracing.Config{
		ServiceName:    serviceName,
		ServiceVersion: serviceVersion,
		Environment:    cfg.Environment,
		OTLPEndpoint:   cfg.OTLPEndpoint,
		SampleRate:     cfg.TracingSampleRate,
		Enabled:        cfg.TracingEnabled,
	})
	if err != nil {
		return nil, fmt.Errorf("init tracing: %w", err)
	}

	a.store, a.pool, err = OpenStore(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	a.redis, err = database.NewRedisClient(ctx, cfg.Redis())
	if err != nil {
		return nil, fmt.Errorf("connect redis: %w", err)
	}
	logger.Info("redis connected", slog.String("addr", cfg.RedisAddr))

	engine, err := a.initSearch(ctx)
	if err != nil {
		return nil, err
	}

	var events service.EventPublisher = event.Nop{}
	if len(cfg.KafkaBrokers) > 0 {
		a.producer = pkgkafka.NewProducer(pkgkafka.DefaultProducerConfig(cfg.KafkaBrokers), logger)
		events = event.NewProducer(a.producer, logger)

		a.dlq = pkgkafka.NewDeadLetterWriter(cfg.KafkaBrokers)
		notifications := event.NewNotificationHandler(repository.NewNotificationRepository(a.store), logger)
		a.consumer = event.NewConsumer(
			cfg.KafkaBrokers,
			notifications,
			pkgkafka.NewRedisIdempotencyStore(a.redis, idempotencyTTL),
			logger,
		).WithDeadLetter(a.dlq)
		logger.Info("kafka initialized", slog.Any("brokers", cfg.KafkaBrokers))
	} else {
		logger.Warn("no kafka brokers configured; domain events are dropped")
	}

	provider := a.initIdentity()
	tokens := auth.NewJWTManager(cfg.JWTSecret, cfg.JWTExpiry)
	sessions := redisrepo.NewSessionStore(a.redis)

	svcs := handler.Services{
		Analytics:     service.NewAnalyticsService(a.store, engine, logger),
		Catalog:       service.NewCatalogService(a.store, engine, events, logger),
		Categories:    service.NewCategoryService(a.store, engine, logger),
		Cart:          service.NewCartService(a.store, engine, redisrepo.NewCartRepository(a.redis, cfg.CartTTL), events, logger),
		Orders:        service.NewOrderService(a.store, events, logger),
		Inventory:     service.NewInventoryService(a.store, engine, events, logger),
		Users:         service.NewUserService(a.store, logger),
		Wishlist:      service.NewWishlistService(a.store, redisrepo.NewWishlistRepository(a.redis), logger),
		Notifications: service.NewNotificationService(a.store, logger),
		Settings:      service.NewSettingsService(a.store, logger),
		Auth:          service.NewAuthService(a.store, provider, tokens, sessions, cfg.AdminEmails, logger),
	}

	routerCtx, stop := context.WithCancel(context.Background())
	a.stop = stop
	router := handler.NewRouter(routerCtx, svcs, tokens.Validator(sessions, svcs.Users), a.healthChecks(), handler.RouterConfig{
		CORSOrigins:    cfg.CORSAllowedOrigins,
		RateLimitRPS:   cfg.RateLimitRPS,
		RateLimitBurst: cfg.RateLimitBurst,
		CacheMaxAge:    cfg.CacheMaxAge,
	}, logger)

	a.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 35 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return a, nil
}

// initSearch returns the scan engine, or Elasticsearch in front of it when
// addresses are configured. Indexing existing documents runs in the
// background so a large catalog does not hold up startup.
func (a *App) initSearch(ctx context.Context) (search.Engine, error) {
	scan := search.NewScanEngine(a.store)
	if len(a.cfg.ElasticsearchAddresses) == 0 {
		return scan, nil
	}

	es, err := esengine.New(esengine.Config{
		Addresses:   a.cfg.ElasticsearchAddresses,
		IndexPrefix: a.cfg.ElasticsearchIndexPrefix,
		Collections: a.cfg.SearchCollections,
	}, scan, a.logger)
	if err != nil {
		return nil, fmt.Errorf("init elasticsearch: %w", err)
	}
	if err := es.EnsureIndices(ctx); err != nil {
		return nil, fmt.Errorf("ensure search indices: %w", err)
	}
	a.search = es

	go func() {
		start := time.Now()
		if err := es.Reindex(context.Background(), a.store); err != nil {
			a.logger.Error("search reindex failed", slog.String("error", err.Error()))
			return
		}
		a.logger.Info("search reindex complete", slog.Duration("took", time.Since(start)))
	}()

	a.logger.Info("elasticsearch search engine initialized",
		slog.Any("addresses", a.cfg.ElasticsearchAddresses),
		slog.Any("collections", a.cfg.SearchCollections),
	)
	return es, nil
}

func (a *App) initIdentity() identity.Provider {
	if a.cfg.IdentityMode == config.IdentityRemote {
		client := httpclient.NewCircuitBreakerClient(
			httpclient.New(httpclient.DefaultConfig()),
			httpclient.DefaultCircuitBreakerConfig("identity"),
			a.logger,
		)
		a.logger.Info("identity provider: remote", slog.String("base_url", a.cfg.IdentityBaseURL))
		return remote.New(remote.Config{
			BaseURL:    a.cfg.IdentityBaseURL,
			APIKey:     a.cfg.IdentityAPIKey,
			RequestURI: a.cfg.IdentityRequestURI,
		}, client)
	}
	a.logger.Info("identity provider: local accounts")
	return local.New(a.store, a.cfg.BcryptCost)
}

func (a *App) healthChecks() *health.Handler {
	h := health.NewHandler()
	h.Register("store", a.store.Ping)
	h.Register("redis", func(ctx context.Context) error {
		return a.redis.Ping(ctx).Err()
	})
	if a.producer != nil {
		h.RegisterOptional("kafka", a.producer.Ping)
	}
	if a.search != nil {
		h.RegisterOptional("elasticsearch", a.search.Ping)
	}
	return h
}

// Run starts the HTTP server and the notification consumer, blocking until
// the context is canceled.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 2)

	if a.consumer != nil {
		go func() {
			if err := a.consumer.Start(ctx); err != nil {
				errCh <- fmt.Errorf("kafka consumer: %w", err)
			}
		}()
	}

	go func() {
		a.logger.Info("starting HTTP server", slog.String("addr", a.httpServer.Addr))
		if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case err := <-errCh:
		_ = a.Shutdown()
		return err
	}

	return a.Shutdown()
}

// Shutdown gracefully stops all components.
func (a *App) Shutdown() error {
	a.logger.Info("shutting down application...")

	ctx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()

	var errs []error
	if a.httpServer != nil {
		if err := a.httpServer.Shutdown(ctx); err != nil {
			a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}
	errs = append(errs, a.closeAll(ctx)...)

	a.logger.Info("application shutdown complete")
	return errors.Join(errs...)
}

// closeAll releases everything except the HTTP server, in reverse order of
// creation. Nil components are skipped.
func (a *App) closeAll(ctx context.Context) []error {
	var errs []error
	closeErr := func(what string, err error) {
		if err != nil {
			a.logger.Error(what+" close error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}

	if a.stop != nil {
		a.stop()
	}
	if a.consumer != nil {
		closeErr("kafka consumer", a.consumer.Close())
	}
	if a.dlq != nil {
		closeErr("dead letter writer", a.dlq.Close())
	}
	if a.producer != nil {
		closeErr("kafka producer", a.producer.Close())
	}
	if a.redis != nil {
		closeErr("redis", a.redis.Close())
	}
	if a.store != nil {
		closeErr("document store", a.store.Close(ctx))
	}
	if a.pool != nil {
		a.pool.Close()
	}
	if a.tracingShutdown != nil {
		closeErr("tracing", a.tracingShutdown(ctx))
	}
	return errs
}
