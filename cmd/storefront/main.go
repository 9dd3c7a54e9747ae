package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/storefront-labs/storefront/internal/app"
	"github.com/storefront-labs/storefront/internal/auth"
	"github.com/storefront-labs/storefront/internal/catalog/attributes"
	"github.com/storefront-labs/storefront/internal/catalog/categories"
	"github.com/storefront-labs/storefront/internal/catalog/products"
	"github.com/storefront-labs/storefront/internal/events"
	"github.com/storefront-labs/storefront/internal/observability"
	"github.com/storefront-labs/storefront/internal/platform/cache"
	"github.com/storefront-labs/storefront/internal/platform/db"
	"github.com/storefront-labs/storefront/internal/platform/uploads"
	"github.com/storefront-labs/storefront/jobs"
)

// multipartOverhead is allowed on top of the image bytes of a create request.
const multipartOverhead = 1 << 20

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	dbpool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

	if cfg.PGAutoMigrate {
		if err := db.Migrate(ctx, dbpool, logger); err != nil {
			logger.Error("migrate database", slog.Any("error", err))
			os.Exit(1)
		}
	}

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Warn("redis ping", slog.Any("error", err))
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	store, err := uploads.NewStore(cfg.UploadDir, cfg.UploadURLPrefix)
	if err != nil {
		logger.Error("prepare upload dir", slog.Any("error", err))
		os.Exit(1)
	}

	verifier, err := auth.NewVerifier(cfg.JWTSecret)
	if err != nil {
		logger.Error("init token verifier", slog.Any("error", err))
		os.Exit(1)
	}
	authMiddleware := auth.Middleware{Verifier: verifier, Logger: logger}

	metrics := observability.NewMetrics()

	redisOpts := asynq.RedisClientOpt{Addr: cfg.RedisAddr}
	jobClient := jobs.NewClient(redisOpts)
	defer func() {
		if err := jobClient.Close(); err != nil {
			logger.Warn("job client close", slog.Any("error", err))
		}
	}()
	inspector := asynq.NewInspector(redisOpts)
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("job inspector close", slog.Any("error", err))
		}
	}()

	var publisher products.EventPublisher
	if len(cfg.KafkaBrokers) > 0 {
		kafkaPublisher := events.NewPublisher(events.NewKafkaWriter(cfg.KafkaBrokers, cfg.KafkaProductTopic))
		defer func() {
			if err := kafkaPublisher.Close(); err != nil {
				logger.Warn("kafka writer close", slog.Any("error", err))
			}
		}()
		publisher = kafkaPublisher
	} else {
		logger.Info("kafka brokers not configured, product events disabled")
	}

	exposeErrors := cfg.IsDevelopment()

	productService := products.NewService(products.ServiceParams{
		Repo:       products.NewRepository(dbpool),
		Store:      store,
		Cache:      products.NewCache(redisClient, cfg.ProductCacheTTL),
		Thumbnails: jobClient,
		Events:     publisher,
		Metrics:    products.NewMetrics(metrics.Registerer()),
		Logger:     logger,
		Config: products.ServiceConfig{
			MaxFiles:    cfg.UploadMaxFiles,
			MaxFileSize: cfg.UploadMaxFileSize,
		},
	})
	productHandler := products.NewHandler(logger, productService, products.HandlerConfig{
		MaxBodyBytes: int64(cfg.UploadMaxFiles)*cfg.UploadMaxFileSize + multipartOverhead,
		ExposeErrors: exposeErrors,
	})

	categoryHandler := categories.NewHandler(logger, categories.NewService(categories.NewRepository(dbpool)), exposeErrors)
	attributeHandler := attributes.NewHandler(logger, attributes.NewService(attributes.NewRepository(dbpool)), exposeErrors)

	router := app.NewRouter(app.RouterParams{
		Logger:           logger,
		Config:           cfg,
		Auth:             authMiddleware,
		ProductHandler:   productHandler,
		CategoryHandler:  categoryHandler,
		AttributeHandler: attributeHandler,
		JobHandler:       jobs.NewHandler(inspector, logger),
		Metrics:          metrics,
		ImagesDir:        store.Dir(),
		ImagesURLPrefix:  store.URLPrefix(),
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr), slog.String("env", cfg.AppEnv))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
