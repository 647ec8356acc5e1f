package models

import (
	"time"
)

// Momentum classifies the short-term direction of a moment's price
type Momentum string

const (
	MomentumBullish Momentum = "bullish"
	MomentumNeutral Momentum = "neutral"
	MomentumBearish Momentum = "bearish"
)

// Ordinal ranks momentum for sorting: bullish > neutral > bearish
func (m Momentum) Ordinal() int {
	switch m {
	case MomentumBullish:
		return 2
	case MomentumNeutral:
		return 1
	default:
		return 0
	}
}

// PricePoint is a single observed sale/ask price
type PricePoint struct {
	Timestamp time.Time `json:"timestamp"`
	Price     float64   `json:"price"`
}

// MarketListing is the raw market-wide record a corpus source reports.
// It is scored into a DiscoveryMoment.
type MarketListing struct {
	ID           string       `json:"id"`
	Platform     Platform     `json:"platform"`
	Player       string       `json:"player"`
	Team         string       `json:"team"`
	SetName      string       `json:"set_name"`
	Series       string       `json:"series"`
	Category     string       `json:"category"`
	Rarity       Rarity       `json:"rarity"`
	Serial       int          `json:"serial"`
	Circulation  int          `json:"circulation"`
	CurrentPrice float64      `json:"current_price"`
	PriceHistory []PricePoint `json:"price_history"` // oldest first
	Volume24h    float64      `json:"volume_24h"`
	Sales24h     int          `json:"sales_24h"`
	ListingCount int          `json:"listing_count"`
}

// DiscoveryMoment is a scored market record used by the discovery feed.
// All scores are in [0, 100].
type DiscoveryMoment struct {
	ID              string       `json:"id"`
	Platform        Platform     `json:"platform"`
	Player          string       `json:"player"`
	Team            string       `json:"team"`
	SetName         string       `json:"set_name"`
	Series          string       `json:"series"`
	Category        string       `json:"category"`
	Rarity          Rarity       `json:"rarity"`
	Serial          int          `json:"serial"`
	Circulation     int          `json:"circulation"`
	CurrentPrice    float64      `json:"current_price"`
	PriceHistory    []PricePoint `json:"price_history"`
	PriceChange24h  float64      `json:"price_change_24h"` // percent
	SupportLevel    float64      `json:"support_level"`
	ResistanceLevel float64      `json:"resistance_level"`
	Volume24h       float64      `json:"volume_24h"`
	Sales24h        int          `json:"sales_24h"`
	ListingCount    int          `json:"listing_count"`
	DealScore       float64      `json:"deal_score"`
	TrendScore      float64      `json:"trend_score"`
	VolumeScore     float64      `json:"volume_score"`
	RarityScore     float64      `json:"rarity_score"`
	LiquidityScore  float64      `json:"liquidity_score"`
	OverallScore    float64      `json:"overall_score"`
	Momentum        Momentum     `json:"momentum"`
	RSI             float64      `json:"rsi"`
	IsDeal          bool         `json:"is_deal"`
	IsTrending      bool         `json:"is_trending"`
}

// SortKey names an entry of the discovery sort table
type SortKey string

const (
	SortPriceAsc  SortKey = "price_asc"
	SortPriceDesc SortKey = "price_desc"
	SortTrending  SortKey = "trending"
	SortDeals     SortKey = "deals"
	SortVolume    SortKey = "volume"
	SortRarity    SortKey = "rarity"
	SortMomentum  SortKey = "momentum"
	SortRecent    SortKey = "recent"
	SortScore     SortKey = "score"
)

// DiscoveryFilters is a conjunction of independent predicates.
// Zero values (empty strings, nil slices, nil pointers, false) do not constrain.
type DiscoveryFilters struct {
	Query        string     `json:"query,omitempty"`
	Platforms    []Platform `json:"platforms,omitempty"`
	Rarities     []Rarity   `json:"rarities,omitempty"`
	Teams        []string   `json:"teams,omitempty"`
	Players      []string   `json:"players,omitempty"`
	Sets         []string   `json:"sets,omitempty"`
	Categories   []string   `json:"categories,omitempty"`
	Momentum     []Momentum `json:"momentum,omitempty"`
	MinPrice     *float64   `json:"min_price,omitempty"`
	MaxPrice     *float64   `json:"max_price,omitempty"`
	MinSerial    *int       `json:"min_serial,omitempty"`
	MaxSerial    *int       `json:"max_serial,omitempty"`
	MinScore     *float64   `json:"min_score,omitempty"`
	MaxScore     *float64   `json:"max_score,omitempty"`
	MinLiquidity *float64   `json:"min_liquidity,omitempty"`
	DealsOnly    bool       `json:"deals_only,omitempty"`
	TrendingOnly bool       `json:"trending_only,omitempty"`
}

// MarketAnalytics is the market-wide summary of the discovery corpus
type MarketAnalytics struct {
	TopGainers  []DiscoveryMoment `json:"top_gainers"`
	TopLosers   []DiscoveryMoment `json:"top_losers"`
	Trending    []DiscoveryMoment `json:"trending"`
	BestDeals   []DiscoveryMoment `json:"best_deals"`
	Sentiment   Momentum          `json:"sentiment"`
	CorpusSize  int               `json:"corpus_size"`
	GeneratedAt time.Time         `json:"generated_at"`
	// CorpusFetchedAt is unset when no corpus has loaded yet
	CorpusFetchedAt *time.Time `json:"corpus_fetched_at,omitempty"`
}

// CorpusStatus describes the corpus currently served by discovery
type CorpusStatus struct {
	Size      int        `json:"corpus_size"`
	FetchedAt *time.Time `json:"corpus_fetched_at,omitempty"`
}
