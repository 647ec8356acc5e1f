package database

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/codyseavey/cardfolio/backend/internal/models"
)

func TestInitializeMigratesSnapshots(t *testing.T) {
	db, err := Initialize(":memory:")
	require.NoError(t, err)

	assert.True(t, db.Migrator().HasTable(&models.PortfolioValueSnapshot{}))
	assert.True(t, db.Migrator().HasIndex(&models.PortfolioValueSnapshot{}, "idx_owner_platform_date"))
}

func TestSnapshotUniquePerDay(t *testing.T) {
	db, err := Initialize(":memory:")
	require.NoError(t, err)

	day := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	first := models.PortfolioValueSnapshot{OwnerID: "0xabc", Platform: models.PlatformTopShot, SnapshotDate: day, TotalValue: 10}
	require.NoError(t, db.Create(&first).Error)

	dup := models.PortfolioValueSnapshot{OwnerID: "0xabc", Platform: models.PlatformTopShot, SnapshotDate: day, TotalValue: 20}
	assert.Error(t, db.Create(&dup).Error)

	other := models.PortfolioValueSnapshot{OwnerID: "0xabc", Platform: models.PlatformAllDay, SnapshotDate: day, TotalValue: 20}
	assert.NoError(t, db.Create(&other).Error)
}

func TestInitializeRemovesDuplicatesBeforeIndexing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snapshots.db")

	raw, err := gorm.Open(sqlite.Open(path), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, raw.Exec(`CREATE TABLE portfolio_value_snapshots (
		id integer PRIMARY KEY AUTOINCREMENT,
		owner_id text NOT NULL,
		platform text,
		snapshot_date datetime NOT NULL,
		total_value real
	)`).Error)
	for _, v := range []float64{10, 20, 30} {
		require.NoError(t, raw.Exec(
			`INSERT INTO portfolio_value_snapshots (owner_id, platform, snapshot_date, total_value) VALUES (?, ?, ?, ?)`,
			"0xabc", "topshot", "2026-03-01 00:00:00", v).Error)
	}
	sqlDB, err := raw.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	db, err := Initialize(path)
	require.NoError(t, err)
	assert.True(t, db.Migrator().HasIndex(&models.PortfolioValueSnapshot{}, "idx_owner_platform_date"))

	var rows []models.PortfolioValueSnapshot
	require.NoError(t, db.Find(&rows).Error)
	require.Len(t, rows, 1)
	assert.Equal(t, 30.0, rows[0].TotalValue, "the last written row is kept")
}
