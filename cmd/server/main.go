package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/codyseavey/cardfolio/backend/internal/adapters"
	"github.com/codyseavey/cardfolio/backend/internal/api"
	"github.com/codyseavey/cardfolio/backend/internal/config"
	"github.com/codyseavey/cardfolio/backend/internal/database"
	"github.com/codyseavey/cardfolio/backend/internal/models"
	"github.com/codyseavey/cardfolio/backend/internal/services"
	"github.com/codyseavey/cardfolio/backend/internal/telemetry"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	setupLogging(cfg.Log)

	shutdownTracer, err := telemetry.InitTracer(cfg.Server.OtelEndpoint)
	if err != nil {
		log.Fatalf("Failed to initialize tracing: %v", err)
	}
	defer shutdownTracer()

	// Initialize snapshot history (optional)
	var snapshotService *services.SnapshotService
	if cfg.Server.SnapshotsEnabled {
		db, err := database.Initialize(cfg.Server.DBPath)
		if err != nil {
			log.Fatalf("Failed to initialize database: %v", err)
		}
		snapshotService = services.NewSnapshotService(db)
	}

	// Initialize platform adapters
	registry := adapters.NewRegistry()
	enabled := cfg.Platforms.EnabledPlatforms()
	for _, platform := range enabled {
		adapter, err := newAdapter(cfg.Platforms, platform)
		if err != nil {
			log.WithError(err).WithField("platform", platform).Error("Failed to initialize adapter, platform disabled")
			continue
		}
		registry.Register(adapter)
	}
	log.WithField("platforms", registry.Platforms()).Info("Platform adapters ready")

	// Market data client backs both price refresh and the discovery corpus
	market := adapters.NewMarketClient(adapters.MarketClientConfig{
		BaseURL:   cfg.Market.URL,
		APIKey:    cfg.Market.APIKey,
		Timeout:   cfg.Market.Timeout,
		RateLimit: cfg.Market.RateLimit,
		RateBurst: cfg.Market.RateBurst,
	})
	priceService := services.NewPriceService(market, cfg.Market.PriceCacheSize)

	opts := []services.AggregatorOption{services.WithPriceService(priceService)}
	if snapshotService != nil {
		opts = append(opts, services.WithSnapshots(snapshotService))
	}
	aggregator := services.NewAggregator(
		registry,
		enabled,
		services.NewNormalizer(services.DefaultSchemas()...),
		services.NewPackClassifier(services.PackThresholds{
			PerfectMultiplier:  cfg.Packs.PerfectMultiplier,
			HighPotentialRatio: cfg.Packs.HighPotentialRatio,
		}),
		opts...,
	)

	scorer := services.NewScorer(services.ScoringConfig{
		SupportWeight:   cfg.Discovery.SupportWeight,
		VolumeWeight:    cfg.Discovery.VolumeWeight,
		OversoldWeight:  cfg.Discovery.OversoldWeight,
		LiquidityWeight: cfg.Discovery.LiquidityWeight,
		RarityWeight:    cfg.Discovery.RarityWeight,
		DealThreshold:   cfg.Discovery.DealThreshold,
	})
	discovery := services.NewDiscoveryEngine(market, scorer, services.NewCorpusCache(cfg.Discovery.CacheTTL))

	// Setup router
	router := api.SetupRouter(cfg.Server, api.Services{
		Aggregator: aggregator,
		Discovery:  discovery,
		Snapshots:  snapshotService,
	})

	// Create HTTP server for graceful shutdown
	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Infof("Starting server on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	// Give outstanding requests a deadline to complete
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Errorf("Server forced to shutdown: %v", err)
	}

	log.Info("Server exited")
}

func setupLogging(cfg config.LogConfig) {
	if cfg.Format == "json" {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}

	level, err := log.ParseLevel(cfg.Level)
	if err != nil {
		log.Warnf("Invalid LOG_LEVEL %q, using info", cfg.Level)
		level = log.InfoLevel
	}
	log.SetLevel(level)
}

// newAdapter serves fixture files when a fixtures directory is configured and
// the platform's REST API otherwise
func newAdapter(cfg config.PlatformConfig, platform models.Platform) (adapters.Adapter, error) {
	if cfg.FixturesDir != "" {
		return adapters.LoadStaticAdapter(platform, filepath.Join(cfg.FixturesDir, string(platform)+".json"))
	}
	return adapters.NewHTTPAdapter(adapters.HTTPAdapterConfig{
		Platform:  platform,
		BaseURL:   cfg.BaseURL(platform),
		APIKey:    cfg.APIKey,
		Timeout:   cfg.Timeout,
		RateLimit: cfg.RateLimit,
		RateBurst: cfg.RateBurst,
	}), nil
}
