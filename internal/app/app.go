package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"github.com/anmar534/loctah-sub000/internal/auth"
	"github.com/anmar534/loctah-sub000/internal/client"
	"github.com/anmar534/loctah-sub000/internal/config"
	"github.com/anmar534/loctah-sub000/internal/event"
	handler "github.com/anmar534/loctah-sub000/internal/handler/http"
	"github.com/anmar534/loctah-sub000/internal/offer"
	"github.com/anmar534/loctah-sub000/internal/repository/postgres"
	rediscache "github.com/anmar534/loctah-sub000/internal/repository/redis"
	"github.com/anmar534/loctah-sub000/internal/service"
	"github.com/anmar534/loctah-sub000/migrations"
	"github.com/anmar534/loctah-sub000/pkg/clock"
	"github.com/anmar534/loctah-sub000/pkg/database"
	"github.com/anmar534/loctah-sub000/pkg/health"
	"github.com/anmar534/loctah-sub000/pkg/httpclient"
	pkgkafka "github.com/anmar534/loctah-sub000/pkg/kafka"
	"github.com/anmar534/loctah-sub000/pkg/tracing"
)

// App wires together all dependencies and runs the catalog service.
type App struct {
	cfg            *config.Config
	logger         *slog.Logger
	pool           *pgxpool.Pool
	redis          *redis.Client
	producer       *pkgkafka.Producer
	dlq            *pkgkafka.DLQProducer
	products       *pkgkafka.Consumer
	httpServer     *http.Server
	tracerShutdown func(context.Context) error
}

// NewApp creates a new application instance, initializing all dependencies.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	tracerShutdown, err := tracing.InitTracer(ctx, cfg.Tracing())
	if err != nil {
		return nil, fmt.Errorf("init tracer: %w", err)
	}

	pgCfg := cfg.Postgres()
	pool, err := database.NewPostgresPool(ctx, &pgCfg, logger)
	if err != nil {
		return nil, err
	}
	logger.Info("connected to PostgreSQL",
		slog.String("host", cfg.PostgresHost),
		slog.Int("port", cfg.PostgresPort),
		slog.String("database", cfg.PostgresDB),
	)
	if err := database.RegisterPoolMetrics(prometheus.DefaultRegisterer, pool, config.ServiceName); err != nil {
		logger.Warn("pool metrics not registered", slog.String("error", err.Error()))
	}

	if err := database.RunMigrations(ctx, pool, migrations.FS, logger); err != nil {
		pool.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	logger.Info("database migrations completed")

	if cfg.SlowQueryThresholdMs > 0 {
		database.SetSlowQueryLogging(cfg.SlowQueryThreshold(), logger)
	}

	// Redis only backs the read cache and event dedup, so the service starts
	// without it and degrades to Postgres reads.
	redisCfg := cfg.Redis()
	redisClient, err := database.NewRedisClient(ctx, redisCfg)
	if err != nil {
		logger.Warn("redis unavailable, continuing without warm cache",
			slog.String("addr", redisCfg.Addr()),
			slog.String("error", err.Error()),
		)
		redisClient = redis.NewClient(&redis.Options{
			Addr:         redisCfg.Addr(),
			Password:     redisCfg.Password,
			DB:           redisCfg.DB,
			DialTimeout:  redisCfg.DialTimeout,
			ReadTimeout:  redisCfg.ReadTimeout,
			WriteTimeout: redisCfg.WriteTimeout,
		})
	}

	producer := pkgkafka.NewProducer(pkgkafka.DefaultProducerConfig(cfg.KafkaBrokers), logger)
	if err := pingKafkaWithRetry(ctx, producer, logger); err != nil {
		logger.Warn("kafka producer ping failed after retries, continuing in degraded mode",
			slog.String("error", err.Error()),
		)
	} else {
		logger.Info("kafka producer initialized", slog.Any("brokers", cfg.KafkaBrokers))
	}

	// Repositories.
	categoryRepo := postgres.NewCategoryRepository(pool)
	offerRepo := postgres.NewOfferRepository(pool)
	storeRepo := postgres.NewStoreRepository(pool)
	projectionRepo := postgres.NewProductProjectionRepository(pool)
	categoryCache := rediscache.NewCategoryCache(redisClient, cfg.CategoryCacheTTL)

	// Product existence: local projection first, product service second.
	var remote client.RemoteLookup
	if cfg.ProductLookupFallback {
		breaker := httpclient.NewCircuitBreakerClient(
			httpclient.New(cfg.ProductClient()), cfg.ProductBreaker(), logger,
		).WithFallback(client.CircuitOpenFallback)
		remote = client.NewProductClient(breaker, cfg.ProductServiceURL)
	}
	catalog := client.NewProductCatalog(projectionRepo, remote, logger)

	// Services.
	events := event.NewProducer(producer, logger)
	categoryService := service.NewCategoryService(categoryRepo, categoryCache, events, logger)
	offerGuard := offer.NewGuard(storeRepo, catalog, cfg.OfferPolicy())
	offerService := service.NewOfferService(offerRepo, offerGuard, clock.Real{}, events, logger)
	projectionService := service.NewProjectionService(projectionRepo, categoryCache, logger)

	// Product projection consumer.
	dedup := pkgkafka.NewRedisIdempotencyStore(redisClient, cfg.KafkaConsumerGroup, cfg.EventDedupTTL)
	productHandler := event.NewConsumer(projectionService, logger)
	dlq := pkgkafka.NewDLQProducer(cfg.KafkaBrokers, cfg.KafkaDLQPrefix, logger)
	products := pkgkafka.NewConsumer(pkgkafka.ConsumerConfig{
		Brokers: cfg.KafkaBrokers,
		GroupID: cfg.KafkaConsumerGroup,
		Topics:  event.ProductTopics(),
	}, pkgkafka.IdempotentHandler(dedup, cfg.KafkaConsumerGroup, productHandler.Handle, logger), logger).
		WithDeadLetter(dlq)

	// Health checks.
	healthHandler := health.NewHandler()
	healthHandler.RegisterCritical("postgres", func(ctx context.Context) error {
		return pool.Ping(ctx)
	})
	healthHandler.RegisterNonCritical("redis", func(ctx context.Context) error {
		return redisClient.Ping(ctx).Err()
	})
	healthHandler.RegisterNonCritical("kafka", func(ctx context.Context) error {
		return producer.Ping(ctx)
	})

	verifier := auth.NewJWTVerifier(cfg.JWTSecret)
	router := handler.NewRouter(handler.RouterConfig{
		ServiceName:    config.ServiceName,
		AllowedOrigins: cfg.CORSAllowedOrigins,
		PprofCIDRs:     cfg.PprofAllowedCIDRs,
		PublicMaxAge:   cfg.PublicCacheMaxAge,
		RequestTimeout: cfg.RequestTimeout,
	}, categoryService, offerService, verifier.Validate, healthHandler, logger)

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      cfg.RequestTimeout + 5*time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return &App{
		cfg:            cfg,
		logger:         logger,
		pool:           pool,
		redis:          redisClient,
		producer:       producer,
		dlq:            dlq,
		products:       products,
		httpServer:     httpServer,
		tracerShutdown: tracerShutdown,
	}, nil
}

// Run starts the HTTP server and the product consumer, then blocks until the
// context is canceled or one of them fails.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 2)

	go func() {
		a.logger.Info("starting HTTP server", slog.String("addr", a.httpServer.Addr))
		if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	go func() {
		if err := a.products.Start(ctx); err != nil {
			errCh <- fmt.Errorf("product consumer: %w", err)
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

// Shutdown stops components in dependency order: HTTP server, tracer,
// consumer, producers, Redis, Postgres.
func (a *App) Shutdown() error {
	a.logger.Info("shutting down application...")

	var errs []error
	record := func(what string, err error) {
		if err != nil {
			a.logger.Error(what+" shutdown error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}

	httpCtx, httpCancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer httpCancel()
	record("http server", a.httpServer.Shutdown(httpCtx))

	if a.tracerShutdown != nil {
		tracerCtx, tracerCancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer tracerCancel()
		record("tracer", a.tracerShutdown(tracerCtx))
	}

	record("product consumer", a.products.Close())
	record("kafka producer", a.producer.Close())
	record("dlq producer", a.dlq.Close())
	record("redis", a.redis.Close())
	a.pool.Close()

	a.logger.Info("application shutdown complete")
	return errors.Join(errs...)
}

// pingKafkaWithRetry pings the brokers up to three times, 1s then 2s apart
// with ±25% jitter.
func pingKafkaWithRetry(ctx context.Context, producer *pkgkafka.Producer, logger *slog.Logger) error {
	const attempts = 3
	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if lastErr = producer.Ping(ctx); lastErr == nil {
			return nil
		}
		if attempt == attempts-1 {
			break
		}
		base := time.Duration(1<<uint(attempt)) * time.Second
		wait := base + time.Duration(float64(base)*0.25*(2*rand.Float64()-1)) // #nosec G404 -- jitter only
		logger.Warn("kafka producer ping failed, retrying",
			slog.Int("attempt", attempt+1),
			slog.Duration("backoff", wait),
			slog.String("error", lastErr.Error()),
		)
		select {
		case <-ctx.Done():
			return fmt.Errorf("kafka ping: %w", ctx.Err())
		case <-time.After(wait):
		}
	}
	return fmt.Errorf("kafka producer ping failed after %d attempts: %w", attempts, lastErr)
}
