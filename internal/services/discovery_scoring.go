package services

import (
	"math"
	"time"

	"github.com/markcheno/go-talib"

	"github.com/codyseavey/cardfolio/backend/internal/models"
)

const (
	rsiPeriod      = 14
	neutralRSI     = 50.0
	supportWindow  = 30
	trendingCutoff = 70.0

	oversoldRSI     = 30.0
	bullishRSI      = 60.0
	bearishRSI      = 40.0
	highVolumeScore = 70.0
	highLiquidity   = 80.0
	highRarityScore = 90.0
	maxCirculation  = 10000.0
	scarcityBonus   = 10.0
)

// ScoringConfig holds the deal-score weights and the deal cut-off
type ScoringConfig struct {
	SupportWeight   float64 // price under support level
	VolumeWeight    float64 // volume score above 70
	OversoldWeight  float64 // RSI under 30
	LiquidityWeight float64 // liquidity score above 80
	RarityWeight    float64 // rarity score above 90
	DealThreshold   float64
}

// DefaultScoringConfig returns the standard weights (30/20/25/15/10, deal above 75)
func DefaultScoringConfig() ScoringConfig {
	return ScoringConfig{
		SupportWeight:   30,
		VolumeWeight:    20,
		OversoldWeight:  25,
		LiquidityWeight: 15,
		RarityWeight:    10,
		DealThreshold:   75,
	}
}

// Scorer turns market listings into scored discovery moments
type Scorer struct {
	cfg ScoringConfig
}

func NewScorer(cfg ScoringConfig) *Scorer {
	return &Scorer{cfg: cfg}
}

// ScoreCorpus scores every listing. Volume scores are relative to the most
// traded listing of the corpus.
func (s *Scorer) ScoreCorpus(listings []models.MarketListing, now time.Time) []models.DiscoveryMoment {
	maxVolume := 0.0
	for _, l := range listings {
		maxVolume = math.Max(maxVolume, l.Volume24h)
	}

	out := make([]models.DiscoveryMoment, 0, len(listings))
	for _, l := range listings {
		out = append(out, s.Score(l, maxVolume, now))
	}
	return out
}

// Score computes every signal of one listing
func (s *Scorer) Score(l models.MarketListing, maxVolume float64, now time.Time) models.DiscoveryMoment {
	m := models.DiscoveryMoment{
		ID:           l.ID,
		Platform:     l.Platform,
		Player:       l.Player,
		Team:         l.Team,
		SetName:      l.SetName,
		Series:       l.Series,
		Category:     l.Category,
		Rarity:       models.NormalizeRarity(string(l.Rarity)),
		Serial:       l.Serial,
		Circulation:  l.Circulation,
		CurrentPrice: l.CurrentPrice,
		PriceHistory: l.PriceHistory,
		Volume24h:    l.Volume24h,
		Sales24h:     l.Sales24h,
		ListingCount: l.ListingCount,
	}
	if m.PriceHistory == nil {
		m.PriceHistory = []models.PricePoint{}
	}

	m.PriceChange24h = round2(priceChange24h(l, now))
	m.SupportLevel, m.ResistanceLevel = supportResistance(l)
	m.RSI = round2(rsi(l))

	m.TrendScore = round2(clamp(50 + m.PriceChange24h*2.5 + (m.RSI-neutralRSI)*0.5))
	m.VolumeScore = round2(volumeScore(l.Volume24h, maxVolume))
	m.RarityScore = round2(rarityScore(m.Rarity, l.Circulation))
	m.LiquidityScore = round2(clamp(float64(l.Sales24h)*6 + float64(l.ListingCount)*2))
	m.DealScore = round2(s.DealScore(m))
	m.OverallScore = round2(clamp(m.DealScore*0.3 + m.TrendScore*0.25 + m.VolumeScore*0.15 +
		m.RarityScore*0.15 + m.LiquidityScore*0.15))
	m.Momentum = classifyMomentum(m.RSI, m.PriceChange24h)
	m.IsDeal = m.DealScore > s.cfg.DealThreshold
	m.IsTrending = m.TrendScore > trendingCutoff
	return m
}

// DealScore adds the weight of every deal signal present, bounded to [0, 100]
func (s *Scorer) DealScore(m models.DiscoveryMoment) float64 {
	score := 0.0
	if m.CurrentPrice < m.SupportLevel {
		score += s.cfg.SupportWeight
	}
	if m.VolumeScore > highVolumeScore {
		score += s.cfg.VolumeWeight
	}
	if m.RSI < oversoldRSI {
		score += s.cfg.OversoldWeight
	}
	if m.LiquidityScore > highLiquidity {
		score += s.cfg.LiquidityWeight
	}
	if m.RarityScore > highRarityScore {
		score += s.cfg.RarityWeight
	}
	return clamp(score)
}

func classifyMomentum(rsi, change float64) models.Momentum {
	switch {
	case rsi > bullishRSI && change > 0:
		return models.MomentumBullish
	case rsi < bearishRSI && change < 0:
		return models.MomentumBearish
	default:
		return models.MomentumNeutral
	}
}

func closes(l models.MarketListing) []float64 {
	out := make([]float64, 0, len(l.PriceHistory)+1)
	for _, p := range l.PriceHistory {
		out = append(out, p.Price)
	}
	return append(out, l.CurrentPrice)
}

// rsi is the 14-period RSI of the price history followed by the current
// price. Short or flat histories are neutral.
func rsi(l models.MarketListing) float64 {
	series := closes(l)
	if len(series) <= rsiPeriod {
		return neutralRSI
	}

	window := series[len(series)-rsiPeriod-1:]
	flat := true
	for _, v := range window[1:] {
		if v != window[0] {
			flat = false
			break
		}
	}
	if flat {
		return neutralRSI
	}

	values := talib.Rsi(series, rsiPeriod)
	last := values[len(values)-1]
	if math.IsNaN(last) {
		return neutralRSI
	}
	return last
}

// supportResistance returns the rolling minimum and maximum of the recent
// price history. Without history both levels are the current price.
func supportResistance(l models.MarketListing) (float64, float64) {
	var hist []float64
	for _, p := range l.PriceHistory {
		hist = append(hist, p.Price)
	}
	if len(hist) > supportWindow {
		hist = hist[len(hist)-supportWindow:]
	}

	switch len(hist) {
	case 0:
		return l.CurrentPrice, l.CurrentPrice
	case 1:
		return hist[0], hist[0]
	}

	lows := talib.Min(hist, len(hist))
	highs := talib.Max(hist, len(hist))
	return lows[len(lows)-1], highs[len(highs)-1]
}

// priceChange24h compares the current price with the last observation at
// least a day old, or the oldest observation when the history is shorter
func priceChange24h(l models.MarketListing, now time.Time) float64 {
	if len(l.PriceHistory) == 0 {
		return 0
	}

	cutoff := now.Add(-24 * time.Hour)
	ref := l.PriceHistory[0].Price
	for _, p := range l.PriceHistory {
		if p.Timestamp.After(cutoff) {
			break
		}
		ref = p.Price
	}
	if ref == 0 {
		return 0
	}
	return (l.CurrentPrice - ref) / ref * 100
}

func volumeScore(volume, maxVolume float64) float64 {
	if maxVolume <= 0 {
		return 0
	}
	return clamp(volume / maxVolume * 100)
}

// rarityScore is a tier base plus a scarcity bonus for small circulations
func rarityScore(r models.Rarity, circulation int) float64 {
	base := map[models.Rarity]float64{
		models.RarityCommon:    25,
		models.RarityRare:      55,
		models.RarityLegendary: 80,
		models.RarityUltimate:  90,
	}[r]

	if circulation > 0 && float64(circulation) < maxCirculation {
		base += scarcityBonus * (1 - math.Log10(float64(circulation))/math.Log10(maxCirculation))
	}
	return clamp(base)
}

func clamp(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Max(0, math.Min(100, v))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
