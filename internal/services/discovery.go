package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"

	"github.com/codyseavey/cardfolio/backend/internal/metrics"
	"github.com/codyseavey/cardfolio/backend/internal/models"
	"github.com/codyseavey/cardfolio/backend/internal/telemetry"
)

// AnalyticsListLimit caps each list of the market analytics view
const AnalyticsListLimit = 10

// CorpusSource provides the raw market-wide listings
type CorpusSource interface {
	LoadCorpus(ctx context.Context) ([]models.MarketListing, error)
}

// DiscoveryEngine serves searches and analytics over the scored market
// corpus. Only the corpus is cached; filters and sorting run on every call.
type DiscoveryEngine struct {
	source CorpusSource
	scorer *Scorer
	cache  *CorpusCache
	now    func() time.Time
}

// NewDiscoveryEngine creates an engine over an injected cache
func NewDiscoveryEngine(source CorpusSource, scorer *Scorer, cache *CorpusCache) *DiscoveryEngine {
	return &DiscoveryEngine{
		source: source,
		scorer: scorer,
		cache:  cache,
		now:    time.Now,
	}
}

// Corpus returns the cached scored corpus, loading it if stale. The result
// is shared and must not be modified.
func (e *DiscoveryEngine) Corpus(ctx context.Context) []models.DiscoveryMoment {
	return e.cache.Get(ctx, e.loadCorpus)
}

func (e *DiscoveryEngine) loadCorpus(ctx context.Context) ([]models.DiscoveryMoment, error) {
	ctx, span := telemetry.Tracer().Start(ctx, "discovery.load_corpus")
	defer span.End()

	start := time.Now()
	listings, err := e.source.LoadCorpus(ctx)
	if err != nil {
		telemetry.RecordError(ctx, err)
		return nil, fmt.Errorf("failed to load market listings: %w", err)
	}

	corpus := e.scorer.ScoreCorpus(listings, e.now())
	span.SetAttributes(attribute.Int("corpus.size", len(corpus)))
	log.WithFields(log.Fields{
		"moments":  len(corpus),
		"duration": time.Since(start).Round(time.Millisecond),
	}).Info("Discovery: corpus refreshed")
	return corpus, nil
}

// Search filters and sorts the corpus. Unset filters match everything and
// unknown sort keys keep corpus order.
func (e *DiscoveryEngine) Search(ctx context.Context, filters models.DiscoveryFilters, key models.SortKey) []models.DiscoveryMoment {
	metrics.DiscoverySearchesTotal.Inc()

	results := FilterMoments(e.Corpus(ctx), filters)
	SortMoments(results, key)
	return results
}

// GetMarketAnalytics summarizes the whole corpus
func (e *DiscoveryEngine) GetMarketAnalytics(ctx context.Context) models.MarketAnalytics {
	corpus := e.Corpus(ctx)

	gainers := selectMoments(corpus, func(m models.DiscoveryMoment) bool { return m.PriceChange24h > 0 })
	sortBy(gainers, func(a, b models.DiscoveryMoment) bool { return a.PriceChange24h > b.PriceChange24h })

	losers := selectMoments(corpus, func(m models.DiscoveryMoment) bool { return m.PriceChange24h < 0 })
	sortBy(losers, func(a, b models.DiscoveryMoment) bool { return a.PriceChange24h < b.PriceChange24h })

	trending := selectMoments(corpus, func(m models.DiscoveryMoment) bool { return m.IsTrending })
	SortMoments(trending, models.SortTrending)

	deals := selectMoments(corpus, func(m models.DiscoveryMoment) bool { return m.IsDeal })
	SortMoments(deals, models.SortDeals)

	out := models.MarketAnalytics{
		TopGainers:  truncateMoments(gainers),
		TopLosers:   truncateMoments(losers),
		Trending:    truncateMoments(trending),
		BestDeals:   truncateMoments(deals),
		Sentiment:   MarketSentiment(corpus),
		CorpusSize:  len(corpus),
		GeneratedAt: e.now(),
	}
	if fetchedAt, ok := e.cache.FetchedAt(); ok {
		out.CorpusFetchedAt = &fetchedAt
	}
	return out
}

// Refresh reloads the corpus ahead of its TTL. A failed load keeps serving
// the previous corpus, which shows as an unchanged FetchedAt.
func (e *DiscoveryEngine) Refresh(ctx context.Context) models.CorpusStatus {
	e.cache.Invalidate()
	status := models.CorpusStatus{Size: len(e.Corpus(ctx))}
	if fetchedAt, ok := e.cache.FetchedAt(); ok {
		status.FetchedAt = &fetchedAt
	}
	return status
}

// MarketSentiment is the plurality momentum of the corpus. Ties, and an
// empty corpus, are neutral.
func MarketSentiment(corpus []models.DiscoveryMoment) models.Momentum {
	counts := map[models.Momentum]int{}
	for _, m := range corpus {
		counts[m.Momentum]++
	}

	bull, bear, neutral := counts[models.MomentumBullish], counts[models.MomentumBearish], counts[models.MomentumNeutral]
	switch {
	case bull > bear && bull > neutral:
		return models.MomentumBullish
	case bear > bull && bear > neutral:
		return models.MomentumBearish
	default:
		return models.MomentumNeutral
	}
}

func selectMoments(corpus []models.DiscoveryMoment, keep func(models.DiscoveryMoment) bool) []models.DiscoveryMoment {
	out := []models.DiscoveryMoment{}
	for _, m := range corpus {
		if keep(m) {
			out = append(out, m)
		}
	}
	return out
}

func sortBy(moments []models.DiscoveryMoment, less momentLess) {
	sort.SliceStable(moments, func(i, j int) bool {
		return less(moments[i], moments[j])
	})
}

func truncateMoments(moments []models.DiscoveryMoment) []models.DiscoveryMoment {
	if len(moments) > AnalyticsListLimit {
		return moments[:AnalyticsListLimit]
	}
	return moments
}
