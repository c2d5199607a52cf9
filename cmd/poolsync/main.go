package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"go.uber.org/zap"

	"poolfinder/internal/client/publicdata"
	"poolfinder/internal/config"
	"poolfinder/internal/db"
	"poolfinder/internal/logger"
	"poolfinder/internal/metrics"
	gormrepository "poolfinder/internal/repository/gorm"
	"poolfinder/internal/service"
)

func main() {
	os.Exit(run())
}

func run() int {
	if err := config.LoadDotEnv(); err != nil {
		panic(err)
	}
	cfgPath := os.Getenv("POOL_CONFIG")
	if cfgPath == "" {
		cfgPath = "config/config.yaml"
	}
	envOnly := false
	if raw := os.Getenv("POOL_ENV_ONLY"); raw != "" {
		envOnly = strings.EqualFold(raw, "true") || raw == "1"
	}

	cfg, err := config.Load(cfgPath, envOnly)
	if err != nil {
		panic(err)
	}

	log, err := logger.New(cfg.Log, "poolsync")
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", zap.Error(err))
		return 1
	}
	opts, err := syncOptions(cfg)
	if err != nil {
		log.Error("invalid sync options", zap.Error(err))
		return 1
	}

	// One connection is enough for a sequential pipeline.
	cfg.DB.MaxOpenConns = 1
	cfg.DB.MaxIdleConns = 1
	dbConn, err := db.Open(cfg.DB)
	if err != nil {
		log.Error("db open failed", zap.Error(err))
		return 1
	}
	defer db.Close(dbConn)

	if err := db.SetTimezone(dbConn, cfg.DB.Timezone); err != nil {
		log.Warn("failed to set timezone", zap.Error(err))
	}
	if err := db.AutoMigrate(dbConn); err != nil {
		log.Error("auto-migrate failed", zap.Error(err))
		return 1
	}

	syncMetrics, err := metrics.NewSyncMetrics(nil)
	if err != nil {
		log.Error("metrics init failed", zap.Error(err))
		return 1
	}

	client := publicdata.NewClient(&http.Client{Timeout: cfg.PublicData.Timeout}, cfg.PublicData.BaseURL, cfg.PublicData.ServiceKey).
		WithLocalDataPath(cfg.PublicData.LocalDataEndpoint)
	syncService := &service.PoolSyncService{
		Store:   gormrepository.New(dbConn.Gorm),
		Client:  client,
		Metrics: syncMetrics,
		Logger:  log,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	result, err := syncService.Sync(ctx, opts)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			log.Warn("pool sync interrupted")
		} else {
			log.Error("pool sync failed", zap.String("source", opts.Source), zap.Error(err))
		}
		return 1
	}
	log.Info("pool sync finished",
		zap.String("source", result.Source),
		zap.Int("pages", result.Pages),
		zap.Int("fetched", result.Fetched),
		zap.Int("matched", result.Matched),
		zap.Int("skipped", result.Skipped),
		zap.Int("inserted", result.Inserted),
		zap.Int("updated", result.Updated),
		zap.Int("errors", result.Errors),
		zap.Int("disambiguated", result.Disambiguated),
		zap.Strings("fetch_errors", result.FetchErrors),
		zap.Duration("elapsed", result.FinishedAt.Sub(result.StartedAt)),
	)
	return 0
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
