package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"poolfinder/internal/client/publicdata"
	"poolfinder/internal/config"
	cronrunner "poolfinder/internal/cron"
	"poolfinder/internal/db"
	"poolfinder/internal/handler"
	"poolfinder/internal/logger"
	"poolfinder/internal/metrics"
	gormrepository "poolfinder/internal/repository/gorm"
	"poolfinder/internal/service"
)

func main() {
	if err := config.LoadDotEnv(); err != nil {
		panic(err)
	}
	cfgPath := os.Getenv("POOL_CONFIG")
	if cfgPath == "" {
		cfgPath = "config/config.yaml"
	}

	envOnly := false
	if envOnlyRaw := os.Getenv("POOL_ENV_ONLY"); envOnlyRaw != "" {
		envOnly = strings.EqualFold(envOnlyRaw, "true") || envOnlyRaw == "1"
	}

	cfg, err := config.Load(cfgPath, envOnly)
	if err != nil {
		panic(err)
	}

	logger, err := logger.New(cfg.Log, "poolserver")
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	if strings.TrimSpace(cfg.DB.DSN) == "" {
		logger.Fatal("invalid configuration", zap.Error(config.ErrMissingDSN))
	}

	dbConn, err := db.Open(cfg.DB)
	if err != nil {
		logger.Fatal("db open failed", zap.Error(err))
	}
	defer db.Close(dbConn)

	if err := db.SetTimezone(dbConn, cfg.DB.Timezone); err != nil {
		logger.Warn("failed to set timezone", zap.Error(err))
	}
	if err := db.AutoMigrate(dbConn); err != nil {
		logger.Fatal("auto-migrate failed", zap.Error(err))
	}

	registry := metrics.NewRegistry()
	syncMetrics, err := metrics.NewSyncMetrics(registry)
	if err != nil {
		logger.Fatal("metrics init failed", zap.Error(err))
	}

	store := gormrepository.New(dbConn.Gorm)
	publicHTTP := &http.Client{Timeout: cfg.PublicData.Timeout}
	publicClient := publicdata.NewClient(publicHTTP, cfg.PublicData.BaseURL, cfg.PublicData.ServiceKey).
		WithLocalDataPath(cfg.PublicData.LocalDataEndpoint)
	syncService := &service.PoolSyncService{
		Store:   store,
		Client:  publicClient,
		Metrics: syncMetrics,
		Logger:  logger,
	}
	queryService := service.NewDirectoryQueryService(store, cfg.Directory.CountCacheTTL, logger)

	syncDefaults, err := syncOptions(cfg)
	if err != nil {
		logger.Fatal("invalid sync options", zap.Error(err))
	}

	if strings.EqualFold(cfg.App.Env, "dev") {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(corsMiddleware())
	engine.Use(handler.WriteAuditMiddleware(logger))

	healthHandler := &handler.HealthHandler{DB: dbConn.Gorm, Sync: syncService}
	healthHandler.Register(engine)
	directoryHandler := &handler.DirectoryHandler{Query: queryService, Logger: logger}
	directoryHandler.Register(engine)
	syncHandler := &handler.SyncHandler{
		Service:      syncService,
		Query:        queryService,
		Defaults:     syncDefaults,
		Metrics:      syncMetrics,
		Logger:       logger,
		Token:        cfg.Sync.APIToken,
		AuthDisabled: cfg.Server.AuthDisabled,
	}
	syncHandler.Register(engine)
	if cfg.Server.AuthDisabled {
		logger.Warn("sync api auth disabled")
	} else if strings.TrimSpace(cfg.Sync.APIToken) == "" {
		logger.Warn("sync api token not configured, /api/sync rejects every request")
	}

	srv := &http.Server{
		Addr:    cfg.Server.HTTPAddr,
		Handler: engine,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Cron.Enabled {
		if strings.TrimSpace(cfg.PublicData.ServiceKey) == "" {
			logger.Fatal("invalid configuration", zap.Error(config.ErrMissingServiceKey))
		}
		cronRunner := cronrunner.New(logger, ctx)
		_, err = cronRunner.Add("pool_sync", cfg.Cron.PoolSync, func(ctx context.Context) {
			result, err := syncService.Sync(ctx, syncDefaults)
			if err != nil {
				logger.Warn("cron pool sync failed", zap.Error(err))
				return
			}
			queryService.InvalidateCounts()
			logger.Info("cron pool sync ok",
				zap.String("source", result.Source),
				zap.Int("pages", result.Pages),
				zap.Int("matched", result.Matched),
				zap.Int("inserted", result.Inserted),
				zap.Int("updated", result.Updated),
				zap.Int("errors", result.Errors),
			)
		})
		if err != nil {
			logger.Fatal("cron schedule failed", zap.Error(err))
		}
		cronRunner.Start()
		defer cronRunner.Stop()
	}

	errCh := make(chan error, 1)

	go func() {
		logger.Info("http server starting", zap.String("addr", cfg.Server.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown requested")
	case err := <-errCh:
		logger.Error("server error", zap.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
}

func syncOptions(cfg config.Config) (service.SyncOptions, error) {
	key, err := service.ParseNaturalKey(cfg.Sync.NaturalKey)
	if err != nil {
		return service.SyncOptions{}, err
	}
	return service.SyncOptions{
		Source:          cfg.Sync.Source,
		NaturalKey:      key,
		PerPage:         cfg.PublicData.PageSize,
		PageDelay:       cfg.PublicData.PageDelay,
		MaxPages:        cfg.Sync.MaxPages,
		MaxLoggedErrors: cfg.Sync.MaxLoggedErrors,
	}, nil
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type,Authorization")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
