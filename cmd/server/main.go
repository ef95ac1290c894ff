package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	eventapp "github.com/b2bshop/backend/internal/application/event"
	tradeapp "github.com/b2bshop/backend/internal/application/trade"
	"github.com/b2bshop/backend/internal/domain/shared"
	"github.com/b2bshop/backend/internal/domain/trade"
	"github.com/b2bshop/backend/internal/infrastructure/auth"
	"github.com/b2bshop/backend/internal/infrastructure/cache"
	"github.com/b2bshop/backend/internal/infrastructure/config"
	"github.com/b2bshop/backend/internal/infrastructure/event"
	"github.com/b2bshop/backend/internal/infrastructure/logger"
	"github.com/b2bshop/backend/internal/infrastructure/messaging"
	"github.com/b2bshop/backend/internal/infrastructure/persistence"
	"github.com/b2bshop/backend/internal/infrastructure/scheduler"
	"github.com/b2bshop/backend/internal/infrastructure/telemetry"
	"github.com/b2bshop/backend/internal/interfaces/http/handler"
	"github.com/b2bshop/backend/internal/interfaces/http/middleware"
	"github.com/b2bshop/backend/internal/interfaces/http/router"
	"go.uber.org/zap"
)

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

const shutdownTimeout = 30 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.New(logger.Config{Level: "error", Format: "console", Output: "stderr"}).
			Fatal("Failed to load configuration", zap.Error(err))
	}

	ctx := context.Background()
	baseLog := logger.New(logger.Config{Level: cfg.Log.Level, Format: cfg.Log.Format, Output: cfg.Log.Output})
	telemetryCfg := telemetry.ConfigFrom(cfg.Telemetry)

	loggerProvider, err := telemetry.NewLoggerProvider(ctx, telemetryCfg, baseLog)
	if err != nil {
		baseLog.Fatal("Failed to initialize log exporter", zap.Error(err))
	}
	log := loggerProvider.Bridge(baseLog, telemetryCfg.ServiceName, logger.ParseLevel(cfg.Log.Level))
	defer func() { _ = log.Sync() }()
	zap.ReplaceGlobals(log)

	log.Info("Starting server",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("version", version),
	)

	tracerProvider, err := telemetry.NewTracerProvider(ctx, telemetryCfg, log)
	if err != nil {
		log.Fatal("Failed to initialize tracing", zap.Error(err))
	}
	meterProvider, err := telemetry.NewMeterProvider(ctx, telemetryCfg, 0, log)
	if err != nil {
		log.Fatal("Failed to initialize metrics", zap.Error(err))
	}
	meter := meterProvider.Meter(cfg.App.Name)
	log.Info("Telemetry configured",
		zap.Bool("traces", tracerProvider.IsEnabled()),
		zap.Bool("logs", loggerProvider.IsEnabled()),
		zap.String("collector", telemetryCfg.CollectorEndpoint),
	)

	db, err := persistence.NewDatabase(&cfg.Database, persistence.Options{
		Logger:        log,
		LogLevel:      logger.MapGormLogLevel(cfg.Log.Level),
		SlowThreshold: cfg.Telemetry.DBSlowQueryThresh,
	})
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	log.Info("Database connected", zap.String("driver", cfg.Database.Driver))

	if err := telemetry.RegisterDBTracing(db.DB, telemetry.DBTracingConfigFrom(cfg.Telemetry, cfg.Database.DBName), log); err != nil {
		log.Warn("Database tracing not registered", zap.Error(err))
	}
	sqlDB, err := db.DB.DB()
	if err != nil {
		log.Fatal("Failed to get sql.DB", zap.Error(err))
	}
	if _, err := telemetry.RegisterDBPoolMetrics(meter, sqlDB); err != nil {
		log.Warn("Database pool metrics not registered", zap.Error(err))
	}

	backends, err := cache.NewBackends(ctx, cfg.Redis, cfg.Cart, log)
	if err != nil {
		log.Fatal("Failed to initialize cache backends", zap.Error(err))
	}

	// Repositories
	cartRepo := persistence.NewGormCartRepository(db.DB)
	customerRepo := persistence.NewGormCustomerRepository(db.DB)
	orderRepo := persistence.NewGormOrderRepository(db.DB)
	productRepo := persistence.NewGormProductRepository(db.DB)
	outboxRepo := event.NewGormOutboxRepository(db.DB)

	// Events are written to the outbox inside the placing transaction
	serializer := event.NewEventSerializer()
	event.RegisterOrderEvents(serializer)
	publisher := event.NewOutboxPublisher(serializer).WithMaxRetries(cfg.Event.MaxRetries)
	txScope := persistence.NewGormTransactionScope(db.DB, publisher)

	pricing := trade.PricingPolicy{
		FreeShippingThreshold: cfg.Pricing.FreeShippingThreshold,
		FlatShippingFee:       cfg.Pricing.FlatShippingFee,
		TaxRate:               cfg.Pricing.TaxRate,
	}
	if err := pricing.Validate(); err != nil {
		log.Fatal("Invalid pricing configuration", zap.Error(err))
	}

	// Application services
	cartService := tradeapp.NewCartService(cartRepo, productRepo, backends.CartLocker, pricing)
	placementService := tradeapp.NewOrderPlacementService(cartRepo, productRepo, customerRepo, txScope, pricing, log)
	lifecycleService := tradeapp.NewOrderLifecycleService(orderRepo, txScope, log)
	outboxService := eventapp.NewOutboxService(outboxRepo, log)

	// Event bus subscribers
	eventBus := event.NewInMemoryEventBus(log)
	orderMetrics, err := telemetry.NewOrderMetrics(meter)
	if err != nil {
		log.Fatal("Failed to create order metrics", zap.Error(err))
	}
	deliveryMetrics, err := telemetry.NewEventDeliveryMetrics(meter)
	if err != nil {
		log.Fatal("Failed to create event delivery metrics", zap.Error(err))
	}
	subscribe := func(name string, h shared.EventHandler) {
		eventBus.Subscribe(event.NewIdempotentHandler(name, h, backends.Idempotency, log,
			event.WithDeliveryRecorder(deliveryMetrics)), h.EventTypes()...)
	}
	subscribe("order_metrics", tradeapp.NewOrderMetricsHandler(orderMetrics))
	subscribe("order_audit", tradeapp.NewOrderAuditHandler(log))

	var relay *messaging.OrderEventRelay
	if writer := messaging.NewKafkaWriter(cfg.Kafka); writer != nil {
		relay = messaging.NewOrderEventRelay(writer, serializer, cfg.Kafka.Topic, log)
		subscribe("kafka_relay", relay)
		log.Info("Kafka relay enabled", zap.Strings("brokers", cfg.Kafka.Brokers), zap.String("topic", cfg.Kafka.Topic))
	}

	if err := eventBus.Start(ctx); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}

	var processor *event.OutboxProcessor
	if cfg.Event.ProcessorEnabled {
		processorCfg := event.DefaultOutboxProcessorConfig()
		processorCfg.BatchSize = cfg.Event.BatchSize
		processorCfg.PollInterval = cfg.Event.PollInterval
		processorCfg.CleanupEnabled = cfg.Event.CleanupEnabled
		processorCfg.CleanupRetention = cfg.Event.CleanupRetention
		processor = event.NewOutboxProcessor(outboxRepo, eventBus, serializer, processorCfg, log)
		if err := processor.Start(ctx); err != nil {
			log.Fatal("Failed to start outbox processor", zap.Error(err))
		}
	}

	var sweeper *scheduler.CartSweeper
	if cfg.Cart.SweepEnabled {
		sweeper, err = scheduler.NewCartSweeper(cartRepo, cfg.Cart.SweepInterval, log)
		if err != nil {
			log.Fatal("Failed to create cart sweeper", zap.Error(err))
		}
		if err := sweeper.Start(ctx); err != nil {
			log.Fatal("Failed to start cart sweeper", zap.Error(err))
		}
	}

	// HTTP
	if err := middleware.SetupValidator(); err != nil {
		log.Fatal("Failed to register validators", zap.Error(err))
	}
	httpMetrics, err := middleware.HTTPMetrics(meter)
	if err != nil {
		log.Fatal("Failed to create HTTP metrics", zap.Error(err))
	}

	checks := map[string]handler.ReadinessCheck{
		"database": sqlDB.PingContext,
	}
	if backends.Client != nil {
		checks["redis"] = func(ctx context.Context) error {
			return backends.Client.Ping(ctx).Err()
		}
	}

	cors := middleware.DefaultCORSConfig()
	cors.AllowOrigins = cfg.HTTP.CORSAllowOrigins
	cors.AllowMethods = cfg.HTTP.CORSAllowMethods
	cors.AllowHeaders = cfg.HTTP.CORSAllowHeaders

	engine, err := router.New(router.Config{
		ServiceName:    telemetryCfg.ServiceName,
		TracingEnabled: cfg.Telemetry.Enabled,
		MaxBodySize:    cfg.HTTP.MaxBodySize,
		CORS:           cors,
		TrustedProxies: cfg.HTTP.TrustedProxies,
		Validator:      auth.NewJWTService(cfg.JWT),
		Logger:         log,
		HTTPMetrics:    httpMetrics,
	}, router.Handlers{
		Cart:       handler.NewCartHandler(cartService),
		Order:      handler.NewOrderHandler(placementService, lifecycleService),
		AdminOrder: handler.NewAdminOrderHandler(lifecycleService),
		Outbox:     handler.NewOutboxHandler(outboxService),
		Health:     handler.NewHealthHandler(version, checks),
	})
	if err != nil {
		log.Fatal("Failed to build router", zap.Error(err))
	}

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}

	// Stop producers before the consumers they feed
	if sweeper != nil {
		logStopErr(log, "cart sweeper", sweeper.Stop(shutdownCtx))
	}
	if processor != nil {
		logStopErr(log, "outbox processor", processor.Stop(shutdownCtx))
	}
	logStopErr(log, "event bus", eventBus.Stop(shutdownCtx))
	if relay != nil {
		logStopErr(log, "kafka relay", relay.Close())
	}
	logStopErr(log, "cache backends", backends.Close())
	logStopErr(log, "database", db.Close())
	logStopErr(log, "meter provider", meterProvider.Shutdown(shutdownCtx))
	logStopErr(log, "tracer provider", tracerProvider.Shutdown(shutdownCtx))
	logStopErr(log, "logger provider", loggerProvider.Shutdown(shutdownCtx))

	log.Info("Server exited gracefully")
}

func logStopErr(log *zap.Logger, component string, err error) {
	if err != nil {
		log.Warn("Shutdown error", zap.String("component", component), zap.Error(err))
	}
}
