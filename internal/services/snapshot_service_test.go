package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codyseavey/cardfolio/backend/internal/database"
	"github.com/codyseavey/cardfolio/backend/internal/models"
)

func newTestSnapshots(t *testing.T) *SnapshotService {
	t.Helper()
	db, err := database.Initialize(":memory:")
	require.NoError(t, err)
	return NewSnapshotService(db)
}

func valued(v float64) models.PortfolioMetrics {
	m := models.EmptyPortfolioMetrics(models.PlatformTopShot)
	m.TotalValue = v
	m.TotalAssets = 1
	return m
}

func TestSnapshotRecordUpsertsPerDay(t *testing.T) {
	svc := newTestSnapshots(t)
	now := time.Date(2026, 5, 10, 9, 0, 0, 0, time.UTC)

	require.NoError(t, svc.Record("0xabc", models.PlatformTopShot, valued(100), now))
	require.NoError(t, svc.Record("0xabc", models.PlatformTopShot, valued(150), now.Add(3*time.Hour)))

	history, err := svc.GetHistory("0xabc", models.PlatformTopShot, "all", now)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, 150.0, history[0].TotalValue)

	last := svc.GetLastSnapshot("0xabc", models.PlatformTopShot)
	require.NotNil(t, last)
	assert.Equal(t, 150.0, last.TotalValue)
	assert.Nil(t, svc.GetLastSnapshot("0xother", models.PlatformTopShot))
}

func TestSnapshotDeltas(t *testing.T) {
	svc := newTestSnapshots(t)
	now := time.Date(2026, 5, 31, 12, 0, 0, 0, time.UTC)

	require.NoError(t, svc.Record("0xabc", models.PlatformTopShot, valued(80), now.AddDate(0, 0, -40)))
	require.NoError(t, svc.Record("0xabc", models.PlatformTopShot, valued(200), now.AddDate(0, 0, -8)))
	require.NoError(t, svc.Record("0xabc", models.PlatformTopShot, valued(999), now.AddDate(0, 0, -2)))

	d := svc.Deltas("0xabc", models.PlatformTopShot, 250, now)
	assert.True(t, d.HasHistory7d)
	assert.Equal(t, 50.0, d.Change7d)
	assert.Equal(t, 25.0, d.Change7dPct)
	assert.True(t, d.HasHistory30d)
	assert.Equal(t, 170.0, d.Change30d)
	assert.Equal(t, 212.5, d.Change30dPct)
	assert.Equal(t, 250.0, d.Basis7d)
	assert.Equal(t, 250.0, d.Basis30d)
}

func TestSnapshotDeltasWithoutHistory(t *testing.T) {
	svc := newTestSnapshots(t)
	now := time.Date(2026, 5, 31, 12, 0, 0, 0, time.UTC)
	require.NoError(t, svc.Record("0xabc", models.PlatformTopShot, valued(100), now))

	d := svc.Deltas("0xabc", models.PlatformTopShot, 120, now)
	assert.Equal(t, models.PerformanceDeltas{}, d)

	var nilSvc *SnapshotService
	assert.Equal(t, models.PerformanceDeltas{}, nilSvc.Deltas("0xabc", models.PlatformTopShot, 120, now))
	assert.NoError(t, nilSvc.Record("0xabc", "", valued(1), now))
}

func TestSnapshotHistoryPeriods(t *testing.T) {
	svc := newTestSnapshots(t)
	now := time.Date(2026, 5, 31, 12, 0, 0, 0, time.UTC)

	for _, daysAgo := range []int{400, 60, 20, 3} {
		require.NoError(t, svc.Record("0xabc", "", valued(float64(daysAgo)), now.AddDate(0, 0, -daysAgo)))
	}

	tests := []struct {
		period string
		want   int
	}{
		{"week", 1},
		{"month", 2},
		{"", 2},
		{"3month", 3},
		{"year", 3},
		{"all", 4},
	}
	for _, tt := range tests {
		t.Run("period "+tt.period, func(t *testing.T) {
			history, err := svc.GetHistory("0xabc", "", tt.period, now)
			require.NoError(t, err)
			assert.Len(t, history, tt.want)
		})
	}

	history, err := svc.GetHistory("0xabc", "", "all", now)
	require.NoError(t, err)
	assert.Equal(t, 400.0, history[0].TotalValue, "oldest first")

	other, err := svc.GetHistory("0xabc", models.PlatformTopShot, "all", now)
	require.NoError(t, err)
	assert.Empty(t, other)
}
