package services

import (
	"errors"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/codyseavey/cardfolio/backend/internal/metrics"
	"github.com/codyseavey/cardfolio/backend/internal/models"
)

// SnapshotService records one value snapshot per owner, platform and day and
// answers the 7d/30d performance questions from them
type SnapshotService struct {
	mu sync.Mutex
	db *gorm.DB
}

// NewSnapshotService creates a new snapshot service
func NewSnapshotService(db *gorm.DB) *SnapshotService {
	return &SnapshotService{db: db}
}

func snapshotDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Record upserts today's snapshot for an owner's platform portfolio.
// Use platform "" for the combined portfolio.
func (s *SnapshotService) Record(ownerID string, platform models.Platform, m models.PortfolioMetrics, now time.Time) error {
	if s == nil || s.db == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	day := snapshotDay(now)
	snapshot := models.PortfolioValueSnapshot{
		OwnerID:      ownerID,
		Platform:     platform,
		SnapshotDate: day,
	}

	result := s.db.Where("owner_id = ? AND platform = ? AND snapshot_date = ?", ownerID, platform, day).
		Assign(map[string]any{
			"total_value":  m.TotalValue,
			"total_profit": m.TotalProfit,
			"total_assets": m.TotalAssets,
		}).
		FirstOrCreate(&snapshot)
	if result.Error != nil {
		return result.Error
	}

	metrics.SnapshotsRecordedTotal.Inc()
	log.WithFields(log.Fields{
		"owner":    ownerID,
		"platform": platform,
		"date":     day.Format("2006-01-02"),
	}).Debugf("Snapshot service: recorded value snapshot (total: $%.2f, assets: %d)", m.TotalValue, m.TotalAssets)
	return nil
}

// Deltas compares currentValue with the latest snapshots taken at least 7 and
// 30 days before now. A horizon with no snapshot reports zero change and
// HasHistory false.
func (s *SnapshotService) Deltas(ownerID string, platform models.Platform, currentValue float64, now time.Time) models.PerformanceDeltas {
	var out models.PerformanceDeltas
	if s == nil || s.db == nil {
		return out
	}

	current := decimal.NewFromFloat(currentValue)
	if snap := s.latestOnOrBefore(ownerID, platform, snapshotDay(now).AddDate(0, 0, -7)); snap != nil {
		change := current.Sub(decimal.NewFromFloat(snap.TotalValue))
		out.Change7d = roundMoney(change)
		out.Change7dPct = changePercent(change, current)
		out.HasHistory7d = true
		out.Basis7d = currentValue
	}
	if snap := s.latestOnOrBefore(ownerID, platform, snapshotDay(now).AddDate(0, 0, -30)); snap != nil {
		change := current.Sub(decimal.NewFromFloat(snap.TotalValue))
		out.Change30d = roundMoney(change)
		out.Change30dPct = changePercent(change, current)
		out.HasHistory30d = true
		out.Basis30d = currentValue
	}
	return out
}

func (s *SnapshotService) latestOnOrBefore(ownerID string, platform models.Platform, day time.Time) *models.PortfolioValueSnapshot {
	var snapshot models.PortfolioValueSnapshot
	err := s.db.Where("owner_id = ? AND platform = ? AND snapshot_date <= ?", ownerID, platform, day).
		Order("snapshot_date DESC").
		First(&snapshot).Error
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			log.WithError(err).Warn("Snapshot service: failed to load snapshot")
		}
		return nil
	}
	return &snapshot
}

// GetHistory retrieves value snapshots for a given period
func (s *SnapshotService) GetHistory(ownerID string, platform models.Platform, period string, now time.Time) ([]models.PortfolioValueSnapshot, error) {
	snapshots := []models.PortfolioValueSnapshot{}
	if s == nil || s.db == nil {
		return snapshots, nil
	}

	var startDate time.Time
	switch period {
	case "week":
		startDate = now.AddDate(0, 0, -7)
	case "month":
		startDate = now.AddDate(0, -1, 0)
	case "3month":
		startDate = now.AddDate(0, -3, 0)
	case "year":
		startDate = now.AddDate(-1, 0, 0)
	case "all":
		startDate = time.Time{} // No filter
	default:
		startDate = now.AddDate(0, -1, 0) // Default to 1 month
	}

	query := s.db.Where("owner_id = ? AND platform = ?", ownerID, platform).Order("snapshot_date ASC")
	if !startDate.IsZero() {
		query = query.Where("snapshot_date >= ?", snapshotDay(startDate))
	}

	if err := query.Find(&snapshots).Error; err != nil {
		return nil, err
	}

	return snapshots, nil
}

// GetLastSnapshot returns the most recent snapshot for an owner's platform
func (s *SnapshotService) GetLastSnapshot(ownerID string, platform models.Platform) *models.PortfolioValueSnapshot {
	if s == nil || s.db == nil {
		return nil
	}
	var snapshot models.PortfolioValueSnapshot

	if err := s.db.Where("owner_id = ? AND platform = ?", ownerID, platform).
		Order("snapshot_date DESC").First(&snapshot).Error; err != nil {
		return nil
	}

	return &snapshot
}
