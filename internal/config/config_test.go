package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codyseavey/cardfolio/backend/internal/models"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, 5*time.Minute, cfg.Discovery.CacheTTL)
	assert.Equal(t, 75.0, cfg.Discovery.DealThreshold)
	assert.Equal(t, 1.2, cfg.Packs.PerfectMultiplier)
	assert.Equal(t, 0.3, cfg.Packs.HighPotentialRatio)
	assert.Equal(t, []models.Platform{models.PlatformTopShot, models.PlatformAllDay, models.PlatformPinnacle},
		cfg.Platforms.EnabledPlatforms())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("DISCOVERY_CACHE_TTL", "30s")
	t.Setenv("ENABLED_PLATFORMS", "allday, TOPSHOT,unknown,allday")
	t.Setenv("PACK_PERFECT_MULTIPLIER", "1.5")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, 30*time.Second, cfg.Discovery.CacheTTL)
	assert.Equal(t, 1.5, cfg.Packs.PerfectMultiplier)
	assert.Equal(t, []models.Platform{models.PlatformAllDay, models.PlatformTopShot}, cfg.Platforms.EnabledPlatforms())
}

func TestLoadInvalidValue(t *testing.T) {
	t.Setenv("DISCOVERY_CACHE_TTL", "soon")

	_, err := Load()
	assert.Error(t, err)
}

func TestPlatformBaseURL(t *testing.T) {
	cfg := PlatformConfig{TopShotURL: "http://ts", AllDayURL: "http://ad", PinnacleURL: "http://pn"}

	assert.Equal(t, "http://ts", cfg.BaseURL(models.PlatformTopShot))
	assert.Equal(t, "http://ad", cfg.BaseURL(models.PlatformAllDay))
	assert.Equal(t, "http://pn", cfg.BaseURL(models.PlatformPinnacle))
	assert.Empty(t, cfg.BaseURL("other"))
}
