package services

import (
	"context"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	log "github.com/sirupsen/logrus"

	"github.com/codyseavey/cardfolio/backend/internal/metrics"
	"github.com/codyseavey/cardfolio/backend/internal/models"
)

const (
	// PriceStalenessThreshold is how old a last-known price can be before it's considered stale
	PriceStalenessThreshold = 24 * time.Hour

	defaultPriceCacheSize = 4096
)

// MarketPriceSource provides best-effort current prices by asset ID
type MarketPriceSource interface {
	CurrentPrices(ctx context.Context, ids []string) (map[string]float64, error)
}

type knownPrice struct {
	price     float64
	fetchedAt time.Time
}

// PriceService refreshes asset prices from the market and remembers the last
// quote of every asset so a missing quote can fall back to it
type PriceService struct {
	market    MarketPriceSource
	lastKnown *lru.Cache[string, knownPrice]
	now       func() time.Time
}

// NewPriceService creates a new price service. market may be nil, in which
// case only last-known prices are used.
func NewPriceService(market MarketPriceSource, cacheSize int) *PriceService {
	if cacheSize <= 0 {
		cacheSize = defaultPriceCacheSize
	}
	cache, _ := lru.New[string, knownPrice](cacheSize)
	return &PriceService{
		market:    market,
		lastKnown: cache,
		now:       time.Now,
	}
}

// priceStats counts where each asset's price came from
type priceStats struct {
	quoted    int
	fresh     int
	stale     int
	unchanged int
}

// ApplyPrices returns a copy of assets with current prices filled in.
// Fallback order: market quote -> last-known quote -> price reported by the platform.
// A last-known quote older than PriceStalenessThreshold is still used but
// counted as stale.
func (s *PriceService) ApplyPrices(ctx context.Context, assets []models.Asset) []models.Asset {
	out, stats := s.applyPrices(ctx, assets)

	if stats.fresh > 0 {
		metrics.PriceFallbacksTotal.WithLabelValues("fresh").Add(float64(stats.fresh))
	}
	if stats.stale > 0 {
		metrics.PriceFallbacksTotal.WithLabelValues("stale").Add(float64(stats.stale))
		log.WithFields(log.Fields{
			"stale":     stats.stale,
			"threshold": PriceStalenessThreshold,
		}).Debug("Price service: priced assets from stale last-known quotes")
	}
	return out
}

func (s *PriceService) applyPrices(ctx context.Context, assets []models.Asset) ([]models.Asset, priceStats) {
	var stats priceStats
	out := make([]models.Asset, len(assets))
	copy(out, assets)
	if len(out) == 0 {
		return out, stats
	}

	quotes := s.fetchQuotes(ctx, out)
	now := s.now()
	for i := range out {
		if price, ok := quotes[out[i].ID]; ok {
			out[i].CurrentPrice = price
			s.lastKnown.Add(out[i].ID, knownPrice{price: price, fetchedAt: now})
			stats.quoted++
			continue
		}
		price, fresh, ok := s.GetPrice(out[i].ID)
		switch {
		case !ok:
			stats.unchanged++
		case fresh:
			out[i].CurrentPrice = price
			stats.fresh++
		default:
			out[i].CurrentPrice = price
			stats.stale++
		}
	}
	return out, stats
}

func (s *PriceService) fetchQuotes(ctx context.Context, assets []models.Asset) map[string]float64 {
	if s.market == nil {
		return nil
	}

	ids := make([]string, 0, len(assets))
	seen := make(map[string]bool, len(assets))
	for _, a := range assets {
		if !seen[a.ID] {
			seen[a.ID] = true
			ids = append(ids, a.ID)
		}
	}

	quotes, err := s.market.CurrentPrices(ctx, ids)
	if err != nil {
		// Partial results are still usable
		log.WithError(err).WithField("assets", len(ids)).Warn("Price service: market quote request failed, using last-known prices")
	}
	return quotes
}

// GetPrice returns the last-known market price of an asset and whether it is
// still fresh
func (s *PriceService) GetPrice(assetID string) (price float64, fresh bool, ok bool) {
	known, ok := s.lastKnown.Get(assetID)
	if !ok {
		return 0, false, false
	}
	return known.price, s.isFresh(&known.fetchedAt), true
}

// isFresh checks if a price update time is within the staleness threshold
func (s *PriceService) isFresh(updatedAt *time.Time) bool {
	if updatedAt == nil {
		return false
	}
	return s.now().Sub(*updatedAt) < PriceStalenessThreshold
}
