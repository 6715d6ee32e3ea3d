package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/md-rashed-zaman/barberbook/libs/auth"
	"github.com/md-rashed-zaman/barberbook/libs/config"
	"github.com/md-rashed-zaman/barberbook/libs/db"
	"github.com/md-rashed-zaman/barberbook/libs/httpx"
	"github.com/md-rashed-zaman/barberbook/libs/kafkax"
	otelx "github.com/md-rashed-zaman/barberbook/libs/otel"
	"github.com/md-rashed-zaman/barberbook/libs/runtime"
	"github.com/md-rashed-zaman/barberbook/services/booking-service/internal/grpcserver"
	"github.com/md-rashed-zaman/barberbook/services/booking-service/internal/handlers"
	"github.com/md-rashed-zaman/barberbook/services/booking-service/internal/lifecycle"
	"github.com/md-rashed-zaman/barberbook/services/booking-service/internal/outbox"
	"github.com/md-rashed-zaman/barberbook/services/booking-service/internal/schedule"
	"github.com/md-rashed-zaman/barberbook/services/booking-service/internal/storage"
	"github.com/md-rashed-zaman/barberbook/services/booking-service/migrations"
)

func main() {
	if err := config.LoadDotEnv(); err != nil {
		panic(err)
	}
	service := config.String("SERVICE_NAME", "booking-service")
	logger := runtime.NewLogger(service)
	if err := run(logger, service); err != nil {
		logger.Error("booking service failed", "err", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger, service string) error {
	port, err := config.Port("PORT", "8083")
	if err != nil {
		return err
	}
	grpcPort, err := config.Port("GRPC_PORT", "9093")
	if err != nil {
		return err
	}
	dbURL, err := config.RequiredString("DATABASE_URL")
	if err != nil {
		return err
	}
	granularity, err := config.Int("SLOT_GRANULARITY_MINUTES", 30, 5, 240)
	if err != nil {
		return err
	}
	displayGranularity, err := config.Int("DISPLAY_GRANULARITY_MINUTES", granularity, 5, 240)
	if err != nil {
		return err
	}
	cancelThreshold, err := config.Duration("BOOKING_CANCEL_THRESHOLD", lifecycle.DefaultCancelThreshold)
	if err != nil {
		return err
	}
	requestTimeout, err := config.Duration("HTTP_REQUEST_TIMEOUT", 10*time.Second)
	if err != nil {
		return err
	}

	ctx, stop := runtime.SignalContext()
	defer stop()

	otelShutdown, err := otelx.Setup(ctx, otelx.ConfigFromEnv(service))
	if err != nil {
		logger.Error("otel setup failed", "err", err)
	} else {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = otelShutdown(shutdownCtx)
		}()
	}

	pool, err := db.Open(ctx, dbURL)
	if err != nil {
		return err
	}
	defer pool.Close()

	if config.Bool("MIGRATE_ON_START", true) {
		if _, err := db.Migrate(ctx, pool, migrations.FS, ".", logger); err != nil {
			return err
		}
	}

	outboxRepo := outbox.NewRepository()
	store := storage.NewStore(pool, outboxRepo)
	manager := lifecycle.NewManager(store, lifecycle.Policy{
		AutoConfirm:     config.Bool("BOOKING_AUTO_CONFIRM", false),
		CancelThreshold: cancelThreshold,
	}, logger)
	aggregator := schedule.NewAggregator(store, schedule.Config{
		Granularity:        granularity,
		DisplayGranularity: displayGranularity,
	})

	brokers := kafkax.SplitBrokers(config.String("KAFKA_BROKERS", ""))
	var writer outbox.MessageWriter
	if len(brokers) > 0 {
		kw := kafkax.NewWriter(brokers)
		defer kw.Close()
		writer = kw
	}
	pollEvery, err := config.Duration("OUTBOX_POLL_INTERVAL", 2*time.Second)
	if err != nil {
		return err
	}
	batchSize, err := config.Int("OUTBOX_BATCH_SIZE", 50, 1, 1000)
	if err != nil {
		return err
	}
	publisher := outbox.NewPublisher(pool, outboxRepo, writer, logger, outbox.PublisherConfig{
		PollEvery: pollEvery,
		BatchSize: batchSize,
	})
	go publisher.Run(ctx)

	var jwks *auth.JWKSClient
	if url := config.String("JWKS_URL", ""); url != "" {
		ttl, err := config.Duration("JWKS_CACHE_TTL", 5*time.Minute)
		if err != nil {
			return err
		}
		jwks = auth.NewJWKSClient(url, ttl)
	}
	jwtSecret := config.String("JWT_SECRET", "")
	if jwtSecret == "" && jwks == nil {
		return errors.New("one of JWT_SECRET or JWKS_URL is required")
	}
	verifier := auth.NewVerifier(jwtSecret, jwks)

	readyChecks := dependencyChecks(db.ReadyCheck(pool), brokers)
	mux := runtime.NewBaseMuxWithReady(readyChecks...)
	handlers.Register(mux,
		handlers.NewBookingHandler(manager, aggregator, store, logger),
		handlers.NewCatalogHandler(store, granularity, logger),
		verifier,
	)

	rateLimit, err := rateLimitMiddleware(ctx, logger, service)
	if err != nil {
		return err
	}
	httpHandler := httpx.Chain(mux,
		httpx.WithRequestID,
		httpx.WithAccessLog(logger, "/healthz", "/readyz"),
		httpx.WithRecover(logger),
		httpx.WithCORS(httpx.CORSPolicy{
			AllowedOrigins: config.List("CORS_ALLOWED_ORIGINS", ""),
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut},
			AllowedHeaders: []string{"Authorization", "Content-Type", httpx.RequestIDHeader, handlers.IdempotencyKeyHeader},
			ExposedHeaders: []string{httpx.RequestIDHeader},
			MaxAge:         10 * time.Minute,
		}),
		rateLimit,
		httpx.WithBodyLimit(1<<20),
		httpx.WithTimeout(requestTimeout),
	)
	httpHandler = otelhttp.NewHandler(httpHandler, "booking")
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           httpHandler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	lis, err := net.Listen("tcp", ":"+grpcPort)
	if err != nil {
		return err
	}
	grpcSrv := grpcserver.New(logger, 10*time.Second, readyChecks...)
	go func() {
		if err := grpcSrv.Serve(ctx, lis); err != nil {
			logger.Error("grpc server error", "err", err)
		}
	}()

	go func() {
		logger.Info("http server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server error", "err", err)
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "err", err)
	}
	logger.Info("http server stopped")
	return nil
}

// dependencyChecks lists what /readyz and gRPC health wait on. Kafka is optional: without
// brokers the outbox publisher stays idle and readiness must not depend on it.
func dependencyChecks(dbCheck func(context.Context) error, brokers []string) []runtime.ReadyCheck {
	checks := []runtime.ReadyCheck{{Name: "db", Check: dbCheck}}
	if len(brokers) > 0 {
		checks = append(checks, runtime.ReadyCheck{Name: "kafka", Check: kafkax.ReadyCheck(brokers)})
	}
	return checks
}

// rateLimitMiddleware shares the limit across replicas through Redis when REDIS_ADDR is
// set and falls back to a per-process window otherwise. A zero limit disables it.
func rateLimitMiddleware(ctx context.Context, logger *slog.Logger, service string) (httpx.Middleware, error) {
	limit, err := config.Int("RATE_LIMIT_PER_MINUTE", 120, 0, 100000)
	if err != nil {
		return nil, err
	}
	if limit == 0 {
		return nil, nil
	}

	addr := config.String("REDIS_ADDR", "")
	if addr == "" {
		return httpx.NewRateLimiter(limit, time.Minute).Middleware(), nil
	}
	redisDB, err := config.Int("REDIS_DB", 0, 0, 15)
	if err != nil {
		return nil, err
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: config.String("REDIS_PASSWORD", ""),
		DB:       redisDB,
	})
	go func() {
		<-ctx.Done()
		_ = rdb.Close()
	}()
	if err := rdb.Ping(ctx).Err(); err != nil {
		logger.Warn("redis unreachable at startup; rate limiter will fail open", "err", err)
	}
	return httpx.NewRedisRateLimiter(rdb, limit, time.Minute, service+":rl").
		Middleware(logger, config.Bool("RATE_LIMIT_FAIL_OPEN", true)), nil
}
