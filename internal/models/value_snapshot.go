package models

import (
	"time"
)

// PortfolioValueSnapshot stores the daily value of one owner's platform
// portfolio. Platform "" holds the combined value.
type PortfolioValueSnapshot struct {
	ID           uint      `json:"id" gorm:"primaryKey;autoIncrement"`
	OwnerID      string    `json:"owner_id" gorm:"not null;uniqueIndex:idx_owner_platform_date"`
	Platform     Platform  `json:"platform" gorm:"uniqueIndex:idx_owner_platform_date"`
	SnapshotDate time.Time `json:"snapshot_date" gorm:"not null;uniqueIndex:idx_owner_platform_date"`
	TotalValue   float64   `json:"total_value"`
	TotalProfit  float64   `json:"total_profit"`
	TotalAssets  int       `json:"total_assets"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// ValueHistoryResponse is the API response for value history
type ValueHistoryResponse struct {
	OwnerID   string                   `json:"owner_id"`
	Platform  Platform                 `json:"platform,omitempty"`
	Snapshots []PortfolioValueSnapshot `json:"snapshots"`
	Period    string                   `json:"period"` // "week", "month", "3month", "year", "all"
	// Latest is the newest snapshot regardless of period
	Latest *PortfolioValueSnapshot `json:"latest,omitempty"`
}
