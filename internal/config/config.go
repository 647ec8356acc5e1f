// Package config loads the server configuration from the environment (and an
// optional .env file).
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/codyseavey/cardfolio/backend/internal/models"
)

type Config struct {
	Server    ServerConfig
	Log       LogConfig
	Platforms PlatformConfig
	Market    MarketConfig
	Discovery DiscoveryConfig
	Packs     PackConfig
}

type ServerConfig struct {
	Port               string   `envconfig:"PORT" default:"8080"`
	DBPath             string   `envconfig:"DB_PATH" default:"./cardfolio.db"`
	CORSAllowedOrigins []string `envconfig:"CORS_ALLOWED_ORIGINS" default:"http://localhost:5173,http://localhost:3000"`
	FrontendDistPath   string   `envconfig:"FRONTEND_DIST_PATH"`
	OtelEndpoint       string   `envconfig:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	SnapshotsEnabled   bool     `envconfig:"SNAPSHOTS_ENABLED" default:"true"`
}

type LogConfig struct {
	Level  string `envconfig:"LOG_LEVEL" default:"info"`
	Format string `envconfig:"LOG_FORMAT" default:"text"`
}

// PlatformConfig configures the per-platform holdings adapters
type PlatformConfig struct {
	Enabled     []string      `envconfig:"ENABLED_PLATFORMS" default:"topshot,allday,pinnacle"`
	TopShotURL  string        `envconfig:"TOPSHOT_API_URL" default:"https://api.topshot.example/v1"`
	AllDayURL   string        `envconfig:"ALLDAY_API_URL" default:"https://api.allday.example/v1"`
	PinnacleURL string        `envconfig:"PINNACLE_API_URL" default:"https://api.pinnacle.example/v1"`
	APIKey      string        `envconfig:"PLATFORM_API_KEY"`
	Timeout     time.Duration `envconfig:"ADAPTER_TIMEOUT" default:"10s"`
	RateLimit   float64       `envconfig:"ADAPTER_RATE_LIMIT" default:"5"`
	RateBurst   int           `envconfig:"ADAPTER_RATE_BURST" default:"10"`
	// FixturesDir serves <platform>.json fixture files instead of the platform APIs
	FixturesDir string `envconfig:"PLATFORM_FIXTURES_DIR"`
}

// MarketConfig configures the market data source used for prices and the
// discovery corpus
type MarketConfig struct {
	URL            string        `envconfig:"MARKET_API_URL" default:"https://market.cardfolio.example/v1"`
	APIKey         string        `envconfig:"MARKET_API_KEY"`
	Timeout        time.Duration `envconfig:"MARKET_TIMEOUT" default:"10s"`
	RateLimit      float64       `envconfig:"MARKET_RATE_LIMIT" default:"2"`
	RateBurst      int           `envconfig:"MARKET_RATE_BURST" default:"4"`
	PriceCacheSize int           `envconfig:"PRICE_CACHE_SIZE" default:"4096"`
}

// DiscoveryConfig holds the discovery cache window and deal-score weights
type DiscoveryConfig struct {
	CacheTTL        time.Duration `envconfig:"DISCOVERY_CACHE_TTL" default:"5m"`
	DealThreshold   float64       `envconfig:"DEAL_THRESHOLD" default:"75"`
	SupportWeight   float64       `envconfig:"DEAL_WEIGHT_SUPPORT" default:"30"`
	VolumeWeight    float64       `envconfig:"DEAL_WEIGHT_VOLUME" default:"20"`
	OversoldWeight  float64       `envconfig:"DEAL_WEIGHT_OVERSOLD" default:"25"`
	LiquidityWeight float64       `envconfig:"DEAL_WEIGHT_LIQUIDITY" default:"15"`
	RarityWeight    float64       `envconfig:"DEAL_WEIGHT_RARITY" default:"10"`
}

// PackConfig holds the pack timing thresholds
type PackConfig struct {
	PerfectMultiplier  float64 `envconfig:"PACK_PERFECT_MULTIPLIER" default:"1.2"`
	HighPotentialRatio float64 `envconfig:"PACK_HIGH_POTENTIAL_RATIO" default:"0.3"`
}

// Load reads the configuration. A missing .env file is not an error.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process env config: %w", err)
	}
	return &cfg, nil
}

// EnabledPlatforms parses the enabled platform list, dropping unknown names
func (c PlatformConfig) EnabledPlatforms() []models.Platform {
	known := make(map[models.Platform]bool)
	for _, p := range models.AllPlatforms() {
		known[p] = true
	}

	var platforms []models.Platform
	seen := make(map[models.Platform]bool)
	for _, name := range c.Enabled {
		p := models.Platform(strings.ToLower(strings.TrimSpace(name)))
		if !known[p] || seen[p] {
			continue
		}
		seen[p] = true
		platforms = append(platforms, p)
	}
	return platforms
}

// BaseURL returns the configured API base URL for a platform
func (c PlatformConfig) BaseURL(platform models.Platform) string {
	switch platform {
	case models.PlatformTopShot:
		return c.TopShotURL
	case models.PlatformAllDay:
		return c.AllDayURL
	case models.PlatformPinnacle:
		return c.PinnacleURL
	default:
		return ""
	}
}
