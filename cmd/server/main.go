package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	catalogapp "github.com/retailops/backend/internal/application/catalog"
	distributionapp "github.com/retailops/backend/internal/application/distribution"
	financeapp "github.com/retailops/backend/internal/application/finance"
	inventoryapp "github.com/retailops/backend/internal/application/inventory"
	"github.com/retailops/backend/internal/infrastructure/auth"
	"github.com/retailops/backend/internal/infrastructure/cache"
	"github.com/retailops/backend/internal/infrastructure/config"
	"github.com/retailops/backend/internal/infrastructure/lock"
	"github.com/retailops/backend/internal/infrastructure/logger"
	"github.com/retailops/backend/internal/infrastructure/persistence"
	"github.com/retailops/backend/internal/infrastructure/telemetry"
	"github.com/retailops/backend/internal/interfaces/http/handler"
	"github.com/retailops/backend/internal/interfaces/http/middleware"
	"github.com/retailops/backend/internal/interfaces/http/router"
	"go.uber.org/zap"
)

//go:generate swag init -g cmd/server/main.go -d ../../ -o ../../docs

//	@title			RetailOps Backend API
//	@version		1.0
//	@description	Stock receipts, inventory buckets, shop distributions and payment settlement.

//	@host		localhost:8080
//	@BasePath	/

//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Bearer token authentication. Format: "Bearer {token}"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	log, err := logger.NewForEnvironment(cfg.App.Env, cfg.Log.Level, cfg.Log.Format, cfg.Log.Output)
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = log.Sync()
	}()

	if err := run(cfg, log); err != nil {
		log.Fatal("Server stopped with error", zap.Error(err))
	}
}

func run(cfg *config.Config, log *zap.Logger) error {
	ctx := context.Background()
	log.Info("Starting retail backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)
	if cfg.App.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	// Telemetry
	tracerProvider, err := telemetry.NewTracerProvider(ctx, telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		ServiceVersion:    cfg.App.Version,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		return err
	}
	meterProvider, err := telemetry.NewMeterProvider(ctx, telemetry.MetricsConfig{
		Enabled:           cfg.Telemetry.MetricsEnabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ExportInterval:    cfg.Telemetry.MetricsExportInterval,
		ServiceName:       cfg.Telemetry.ServiceName,
		ServiceVersion:    cfg.App.Version,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		return err
	}
	loggerProvider, err := telemetry.NewLoggerProvider(ctx, telemetry.LogsConfig{
		Enabled:           cfg.Telemetry.LogsEnabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ServiceName:       cfg.Telemetry.ServiceName,
		ServiceVersion:    cfg.App.Version,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		return err
	}
	if loggerProvider.IsEnabled() {
		level, _ := logger.ParseLevel(cfg.Log.Level)
		log = telemetry.BridgeLogger(log, telemetry.NewZapOTELCore(telemetry.ZapBridgeConfig{
			ServiceName:    cfg.Telemetry.ServiceName,
			LoggerProvider: loggerProvider,
			Level:          level,
		}))
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := meterProvider.Shutdown(shutdownCtx); err != nil {
			log.Warn("Meter provider shutdown failed", zap.Error(err))
		}
		if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
			log.Warn("Tracer provider shutdown failed", zap.Error(err))
		}
		// Last, so the warnings above still reach the collector.
		if err := loggerProvider.Shutdown(shutdownCtx); err != nil {
			log.Warn("Logger provider shutdown failed", zap.Error(err))
		}
	}()

	settlementMetrics, err := telemetry.NewSettlementMetrics(meterProvider.Meter("retailops.settlement"), log)
	if err != nil {
		return err
	}

	// Database
	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.DBLevel),
		logger.WithSlowThreshold(cfg.Telemetry.DBSlowQueryThresh))
	db, err := persistence.NewDatabase(&cfg.Database, gormLog)
	if err != nil {
		return err
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	if cfg.Telemetry.DBTraceEnabled {
		plugin := telemetry.NewDBTracingPlugin(telemetry.DBTracingConfig{
			Enabled:         true,
			LogFullSQL:      cfg.Telemetry.DBLogFullSQL,
			SlowQueryThresh: cfg.Telemetry.DBSlowQueryThresh,
			DBSystem:        "postgresql",
		}, log)
		if err := plugin.Register(db.DB); err != nil {
			return err
		}
	}
	log.Info("Database connected successfully")

	// Redis backs the cache and the payment lock when either asks for it
	var redisClient *redis.Client
	if cfg.Cache.Backend == config.CacheBackendRedis || cfg.Lock.Enabled {
		redisClient, err = cache.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			if cfg.Lock.Enabled || !cfg.Cache.AllowMemoryFallback {
				return err
			}
			log.Warn("Redis unavailable, continuing without it", zap.Error(err))
		} else {
			defer func() { _ = redisClient.Close() }()
		}
	}

	var store cache.Store
	if redisClient != nil {
		store, err = cache.NewStore(ctx, cfg.Cache, redisClient, log)
	} else {
		store, err = cache.NewStore(ctx, cfg.Cache, nil, log)
	}
	if err != nil {
		return err
	}
	cacheCtx := cache.NewContext(store, cfg.Cache.DefaultTTL, cfg.Cache.TTL)
	defer func() { _ = cacheCtx.Close() }()

	var locker financeapp.Locker = lock.NopLocker{}
	if cfg.Lock.Enabled {
		locker = lock.NewRedisLocker(redisClient, 50*time.Millisecond)
	}

	// Repositories and services
	txScope := persistence.NewGormTransactionScope(db.DB)
	bucketStore := inventoryapp.NewBucketStore(settlementMetrics)
	productRepo := persistence.NewGormProductRepository(db.DB)

	receiptService := inventoryapp.NewReceiptService(
		persistence.NewGormReceiptRepository(db.DB), productRepo, txScope, bucketStore, settlementMetrics)
	inventoryService := inventoryapp.NewInventoryService(
		persistence.NewGormBucketRepository(db.DB),
		persistence.NewGormLotRepository(db.DB),
		persistence.NewGormMovementRepository(db.DB),
		productRepo, txScope, bucketStore)
	distributionService := distributionapp.NewDistributionService(
		persistence.NewGormDistributionRepository(db.DB),
		persistence.NewGormLedgerRepository(db.DB),
		txScope, bucketStore, settlementMetrics)
	paymentService := financeapp.NewPaymentService(txScope, locker, cacheCtx, cfg.Lock.TTL, settlementMetrics)
	invoiceService := financeapp.NewInvoiceService(
		persistence.NewGormInvoiceRepository(db.DB), persistence.NewGormTransactionRepository(db.DB))
	giftCardService := financeapp.NewGiftCardService(persistence.NewGormGiftCardRepository(db.DB))
	productService := catalogapp.NewProductService(productRepo, cacheCtx)

	checks := map[string]handler.Pinger{"database": db, "cache": store}
	engine, err := router.NewEngine(router.Config{
		ServiceName:    cfg.Telemetry.ServiceName,
		MaxBodySize:    cfg.HTTP.MaxBodySize,
		TrustedProxies: cfg.HTTP.TrustedProxies,
		CORS: middleware.CORSConfig{
			AllowOrigins:  cfg.HTTP.CORSAllowOrigins,
			AllowMethods:  cfg.HTTP.CORSAllowMethods,
			AllowHeaders:  cfg.HTTP.CORSAllowHeaders,
			ExposeHeaders: []string{middleware.RequestIDHeader},
			MaxAge:        12 * time.Hour,
		},
		Security: middleware.SecurityConfig{
			HSTSEnabled: cfg.App.IsProduction(),
			HSTSMaxAge:  365 * 24 * time.Hour,
		},
		Swagger: router.SwaggerConfig{
			Enabled:     cfg.Swagger.Enabled,
			RequireAuth: cfg.Swagger.RequireAuth,
		},
	}, log, auth.NewJWTService(cfg.JWT), middleware.NewHTTPMetrics("retailops"), router.Handlers{
		Receipts:      handler.NewReceiptHandler(receiptService),
		Inventory:     handler.NewInventoryHandler(inventoryService),
		Distributions: handler.NewDistributionHandler(distributionService),
		Finance:       handler.NewFinanceHandler(paymentService, invoiceService, giftCardService),
		Products:      handler.NewProductHandler(productService),
		System:        handler.NewSystemHandler(cfg.App.Name, cfg.App.Version, checks),
	})
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-serveErr:
		return err
	case sig := <-quit:
		log.Info("Shutting down server...", zap.String("signal", sig.String()))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	log.Info("Server exited gracefully")
	return nil
}
