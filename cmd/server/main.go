package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"coal-stock-service/internal/audit"
	"coal-stock-service/internal/cache"
	"coal-stock-service/internal/config"
	"coal-stock-service/internal/database"
	"coal-stock-service/internal/handlers"
	"coal-stock-service/internal/middleware"
	"coal-stock-service/internal/repository"
	"coal-stock-service/internal/routes"
	"coal-stock-service/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		// No logger yet.
		panic(err)
	}

	logger, err := newLogger(cfg)
	if err != nil {
		panic(err)
	}

	if err := run(cfg, logger); err != nil {
		logger.Error("Server stopped with error", zap.Error(err))
		_ = logger.Sync()
		os.Exit(1)
	}
	_ = logger.Sync()
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Logging.Level)
	if err != nil {
		level = zapcore.InfoLevel
	}

	zapCfg := zap.NewProductionConfig()
	if cfg.Server.GinMode == gin.DebugMode {
		zapCfg = zap.NewDevelopmentConfig()
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)
	return zapCfg.Build()
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx := context.Background()

	db, err := openDB(cfg, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	if cfg.Database.AutoMigrate {
		if err := db.Migrate(ctx); err != nil {
			return err
		}
		logger.Info("Database schema is up to date")
	}

	var redisDB *database.RedisDB
	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		redisDB, err = database.NewRedisDB(ctx, cfg.Redis.URL, cfg.Redis.Password, cfg.Redis.DB, logger)
		if err != nil {
			// Balances are always read from the database on a miss, so the
			// service keeps running on the in-process cache alone.
			logger.Warn("⚠️ Redis unavailable, continuing without it", zap.Error(err))
			redisDB = nil
		} else {
			defer redisDB.Close()
			redisClient = redisDB.Client
		}
	}

	stockCache := cache.NewStockCache(redisClient, cfg.Redis.L1Size, cfg.Redis.L1TTL, cfg.Redis.StockTTL, logger)

	recorder, closeRecorder, err := newRecorder(cfg, db, logger)
	if err != nil {
		return err
	}
	defer closeRecorder()

	repo, err := repository.NewStockRepository(db.DB)
	if err != nil {
		return err
	}
	defer repo.Close()

	ledger := services.NewStockLedger(services.LedgerOptions{
		MaxAttempts:  cfg.Ledger.MaxAttempts,
		RetryBackoff: cfg.Ledger.RetryBackoff,
	}, logger)

	productionService := services.NewProductionService(repo, ledger, stockCache, recorder, logger)
	bargingService := services.NewBargingService(repo, ledger, stockCache, recorder, logger)
	adjustmentService := services.NewAdjustmentService(repo, ledger, stockCache, recorder, logger)
	stockService := services.NewStockService(repo, stockCache, logger)
	monitoringService := services.NewMonitoringService(logger, cfg, redisClient, db, stockCache, ledger)

	stockHandler := handlers.NewStockHandler(productionService, bargingService, stockService, logger)
	adjustmentHandler := handlers.NewAdjustmentHandler(adjustmentService, logger)
	monitoringHandler := handlers.NewMonitoringHandler(monitoringService, logger)
	healthChecker := middleware.NewHealthChecker(db, redisDB, logger)

	gin.SetMode(cfg.Server.GinMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.LoggerMiddleware(logger))
	router.Use(monitoringHandler.RecordRequestMiddleware())

	routes.SetupRoutes(router, stockHandler, adjustmentHandler, monitoringHandler, healthChecker)

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	middleware.ServerInfo(cfg.Server.Port, string(db.Dialect), stockCache.RedisEnabled(), logger)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		logger.Info("Shutting down server", zap.String("signal", sig.String()))
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}

	logger.Info("Server exited")
	return nil
}

func openDB(cfg *config.Config, logger *zap.Logger) (*database.SQLDB, error) {
	if cfg.Database.Driver == config.DriverSQLite {
		return database.NewSQLiteDB(cfg.Database.URL, logger)
	}
	return database.NewPostgresDB(
		cfg.Database.URL,
		cfg.Database.MaxOpenConns,
		cfg.Database.MaxIdleConns,
		cfg.Database.ConnMaxLifetime,
		logger,
	)
}

// newRecorder builds the audit sink chosen by AUDIT_SINK. The returned
// func flushes it on shutdown.
func newRecorder(cfg *config.Config, db *database.SQLDB, logger *zap.Logger) (audit.Recorder, func(), error) {
	switch cfg.Audit.Sink {
	case config.AuditSinkNone:
		return audit.Nop{}, func() {}, nil
	case config.AuditSinkLog:
		return audit.NewLogRecorder(logger), func() {}, nil
	}

	dbRecorder, err := audit.NewDBRecorder(db.DB, cfg.Audit.BufferSize, logger)
	if err != nil {
		return nil, nil, err
	}
	closeFn := func() {
		if err := dbRecorder.Close(); err != nil {
			logger.Error("Failed to flush audit log", zap.Error(err))
		}
		written, dropped, failed := dbRecorder.Stats()
		logger.Info("Audit log flushed",
			zap.Int64("written", written),
			zap.Int64("dropped", dropped),
			zap.Int64("failed", failed))
	}

	if cfg.Server.GinMode == gin.DebugMode {
		return audit.Multi{dbRecorder, audit.NewLogRecorder(logger)}, closeFn, nil
	}
	return dbRecorder, closeFn, nil
}
