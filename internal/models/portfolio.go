package models

import (
	"time"
)

// BreakdownEntry is one category row of a breakdown table.
// Percentage is derived from Value after every record has been folded in.
type BreakdownEntry struct {
	Count      int     `json:"count"`
	Value      float64 `json:"value"`
	Percentage float64 `json:"percentage"`
}

// Breakdown maps a category value (a team, a player, a tier...) to its entry
type Breakdown map[string]BreakdownEntry

// Breakdowns groups the category tables computed for a portfolio
type Breakdowns struct {
	ByRarity Breakdown `json:"by_rarity"`
	ByTeam   Breakdown `json:"by_team"`
	ByPlayer Breakdown `json:"by_player"`
	BySet    Breakdown `json:"by_set"`
}

// NewBreakdowns returns empty, non-nil breakdown tables
func NewBreakdowns() Breakdowns {
	return Breakdowns{
		ByRarity: Breakdown{},
		ByTeam:   Breakdown{},
		ByPlayer: Breakdown{},
		BySet:    Breakdown{},
	}
}

// PerformanceDeltas holds short-horizon value changes. Basis7d and Basis30d
// carry the current value covered by each horizon's history so combined
// percentages only divide by platforms that have a baseline.
type PerformanceDeltas struct {
	Change7d      float64 `json:"change_7d"`
	Change7dPct   float64 `json:"change_7d_pct"`
	Change30d     float64 `json:"change_30d"`
	Change30dPct  float64 `json:"change_30d_pct"`
	HasHistory7d  bool    `json:"has_history_7d"`
	HasHistory30d bool    `json:"has_history_30d"`
	Basis7d       float64 `json:"-"`
	Basis30d      float64 `json:"-"`
}

// PortfolioMetrics is the per-platform or combined financial view of a portfolio.
// ROI is TotalProfit / TotalValue in percent and is always re-derived.
type PortfolioMetrics struct {
	Platform       Platform          `json:"platform,omitempty"`
	Available      bool              `json:"available"`
	TotalValue     float64           `json:"total_value"`
	TotalProfit    float64           `json:"total_profit"`
	ROI            float64           `json:"roi"`
	TotalAssets    int               `json:"total_assets"`
	TopAssets      []Asset           `json:"top_assets"`
	RecentActivity []Activity        `json:"recent_activity"`
	UnopenedPacks  []Pack            `json:"unopened_packs"`
	OpenedPacks    []Pack            `json:"opened_packs"`
	SoldPacks      []Pack            `json:"sold_packs"`
	Breakdowns     Breakdowns        `json:"breakdowns"`
	Performance    PerformanceDeltas `json:"performance"`
	SkippedRecords int               `json:"skipped_records"`
}

// EmptyPortfolioMetrics returns zeroed metrics with every list and table
// present but empty. Used when a platform has no data or is unavailable.
func EmptyPortfolioMetrics(platform Platform) PortfolioMetrics {
	return PortfolioMetrics{
		Platform:       platform,
		TopAssets:      []Asset{},
		RecentActivity: []Activity{},
		UnopenedPacks:  []Pack{},
		OpenedPacks:    []Pack{},
		SoldPacks:      []Pack{},
		Breakdowns:     NewBreakdowns(),
	}
}

// CombinedPortfolio is the top-level response for an owner across platforms
type CombinedPortfolio struct {
	RequestID            string                        `json:"request_id"`
	OwnerID              string                        `json:"owner_id"`
	GeneratedAt          time.Time                     `json:"generated_at"`
	Combined             PortfolioMetrics              `json:"combined"`
	Platforms            map[Platform]PortfolioMetrics `json:"platforms"`
	UnavailablePlatforms []Platform                    `json:"unavailable_platforms"`
	TopAssets            []Asset                       `json:"top_assets"`
	RecentActivity       []Activity                    `json:"recent_activity"`
	Packs                []Pack                        `json:"packs"`
	PackSummary          PackSummary                   `json:"pack_summary"`
}
