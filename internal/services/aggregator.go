package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"github.com/codyseavey/cardfolio/backend/internal/adapters"
	"github.com/codyseavey/cardfolio/backend/internal/metrics"
	"github.com/codyseavey/cardfolio/backend/internal/models"
	"github.com/codyseavey/cardfolio/backend/internal/telemetry"
)

// ErrUnknownPlatform is returned for a platform with no schema, no adapter or
// that is not enabled
var ErrUnknownPlatform = errors.New("unknown platform")

// Aggregator builds an owner's portfolio across every enabled platform
type Aggregator struct {
	registry   *adapters.Registry
	platforms  []models.Platform
	normalizer *Normalizer
	prices     *PriceService
	classifier *PackClassifier
	snapshots  *SnapshotService // nil disables history and deltas
	now        func() time.Time
}

// AggregatorOption configures optional aggregator dependencies
type AggregatorOption func(*Aggregator)

// WithSnapshots enables value snapshots and 7d/30d performance deltas
func WithSnapshots(s *SnapshotService) AggregatorOption {
	return func(a *Aggregator) { a.snapshots = s }
}

// WithPriceService refreshes asset prices from the market before computing metrics
func WithPriceService(p *PriceService) AggregatorOption {
	return func(a *Aggregator) { a.prices = p }
}

// NewAggregator creates an aggregator over the enabled platforms. Platforms
// without a registered adapter are skipped with a warning.
func NewAggregator(registry *adapters.Registry, enabled []models.Platform, normalizer *Normalizer, classifier *PackClassifier, opts ...AggregatorOption) *Aggregator {
	a := &Aggregator{
		registry:   registry,
		normalizer: normalizer,
		classifier: classifier,
		now:        time.Now,
	}
	for _, p := range enabled {
		if _, ok := registry.Get(p); !ok {
			log.WithField("platform", p).Warn("Aggregator: platform enabled but no adapter registered")
			continue
		}
		a.platforms = append(a.platforms, p)
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Platforms returns the platforms the aggregator queries, in order
func (a *Aggregator) Platforms() []models.Platform {
	out := make([]models.Platform, len(a.platforms))
	copy(out, a.platforms)
	return out
}

func (a *Aggregator) enabled(platform models.Platform) bool {
	for _, p := range a.platforms {
		if p == platform {
			return true
		}
	}
	return false
}

// platformResult is one platform's slice of the combined portfolio
type platformResult struct {
	metrics models.PortfolioMetrics
	packs   []models.Pack
}

// GetPortfolio fetches every enabled platform concurrently and combines the
// results. An unavailable platform contributes empty metrics and is listed in
// UnavailablePlatforms; the response itself never fails on adapter errors.
func (a *Aggregator) GetPortfolio(ctx context.Context, owner string) (models.CombinedPortfolio, error) {
	ctx, span := telemetry.Tracer().Start(ctx, "portfolio.aggregate")
	defer span.End()
	span.SetAttributes(attribute.String("owner", owner), attribute.Int("platforms", len(a.platforms)))

	start := time.Now()
	now := a.now()
	metrics.PortfolioRequestsTotal.WithLabelValues("combined").Inc()

	results := make([]platformResult, len(a.platforms))
	g, gctx := errgroup.WithContext(ctx)
	for i, platform := range a.platforms {
		i, platform := i, platform
		g.Go(func() error {
			results[i] = a.buildPlatform(gctx, owner, platform, now)
			return nil
		})
	}
	// Platform failures are absorbed into their results
	_ = g.Wait()

	out := models.CombinedPortfolio{
		RequestID:            uuid.NewString(),
		OwnerID:              owner,
		GeneratedAt:          now,
		Platforms:            make(map[models.Platform]models.PortfolioMetrics, len(results)),
		UnavailablePlatforms: []models.Platform{},
		Packs:                []models.Pack{},
	}

	perPlatform := make([]models.PortfolioMetrics, 0, len(results))
	for _, r := range results {
		out.Platforms[r.metrics.Platform] = r.metrics
		perPlatform = append(perPlatform, r.metrics)
		if !r.metrics.Available {
			out.UnavailablePlatforms = append(out.UnavailablePlatforms, r.metrics.Platform)
		}
		out.Packs = append(out.Packs, r.packs...)
	}
	sortPacksByPurchase(out.Packs)

	out.Combined = Combine(perPlatform...)
	out.TopAssets = out.Combined.TopAssets
	out.RecentActivity = out.Combined.RecentActivity
	out.PackSummary = a.classifier.Summarize(out.Packs)

	if len(out.UnavailablePlatforms) == 0 {
		if err := a.snapshots.Record(owner, "", out.Combined, now); err != nil {
			log.WithError(err).WithField("owner", owner).Warn("Aggregator: failed to record combined snapshot")
		}
	}

	metrics.PortfolioValueUSD.Observe(out.Combined.TotalValue)
	log.WithFields(log.Fields{
		"owner":       owner,
		"request_id":  out.RequestID,
		"platforms":   len(results),
		"unavailable": len(out.UnavailablePlatforms),
		"duration":    time.Since(start).Round(time.Millisecond),
	}).Infof("Aggregator: built portfolio of %s assets worth $%s",
		humanize.Comma(int64(out.Combined.TotalAssets)), humanize.CommafWithDigits(out.Combined.TotalValue, 2))

	return out, nil
}

// GetPlatformPortfolio builds the metrics of a single enabled platform
func (a *Aggregator) GetPlatformPortfolio(ctx context.Context, owner string, platform models.Platform) (models.PortfolioMetrics, error) {
	if !a.enabled(platform) {
		return models.PortfolioMetrics{}, fmt.Errorf("%w: %s", ErrUnknownPlatform, platform)
	}

	ctx, span := telemetry.Tracer().Start(ctx, "portfolio.platform")
	defer span.End()
	span.SetAttributes(attribute.String("owner", owner), attribute.String("platform", string(platform)))

	metrics.PortfolioRequestsTotal.WithLabelValues("platform").Inc()
	return a.buildPlatform(ctx, owner, platform, a.now()).metrics, nil
}

// buildPlatform never fails: an unreachable adapter or an undecodable batch
// yields empty metrics marked unavailable
func (a *Aggregator) buildPlatform(ctx context.Context, owner string, platform models.Platform, now time.Time) platformResult {
	logger := log.WithFields(log.Fields{"owner": owner, "platform": platform})
	unavailable := platformResult{
		metrics: models.EmptyPortfolioMetrics(platform),
		packs:   []models.Pack{},
	}

	adapter, ok := a.registry.Get(platform)
	if !ok {
		logger.Warn("Aggregator: no adapter registered")
		return unavailable
	}

	ctx, span := telemetry.Tracer().Start(ctx, "adapter.fetch")
	span.SetAttributes(attribute.String("platform", string(platform)))
	start := time.Now()
	batch, err := adapters.FetchAll(ctx, adapter, owner)
	metrics.AdapterFetchDuration.WithLabelValues(string(platform)).Observe(time.Since(start).Seconds())
	if err != nil {
		telemetry.RecordError(ctx, err)
		span.End()
		metrics.AdapterFetchesTotal.WithLabelValues(string(platform), "error").Inc()
		logger.WithError(err).Warn("Aggregator: platform unavailable")
		return unavailable
	}
	span.End()
	metrics.AdapterFetchesTotal.WithLabelValues(string(platform), "success").Inc()

	normalized, err := a.normalizer.Normalize(batch, platform)
	if err != nil {
		logger.WithError(err).Error("Aggregator: failed to normalize batch")
		return unavailable
	}
	a.reportSkipped(logger, platform, normalized.Skipped)

	assets := normalized.Assets
	if a.prices != nil {
		assets = a.prices.ApplyPrices(ctx, assets)
	}

	m := ComputeMetrics(assets, normalized.Activities, normalized.Packs)
	m.Platform = platform
	m.SkippedRecords = normalized.Skipped.Total()
	m.Performance = a.snapshots.Deltas(owner, platform, m.TotalValue, now)
	if err := a.snapshots.Record(owner, platform, m, now); err != nil {
		logger.WithError(err).Warn("Aggregator: failed to record snapshot")
	}

	return platformResult{metrics: m, packs: normalized.Packs}
}

func (a *Aggregator) reportSkipped(logger *log.Entry, platform models.Platform, skipped SkipCounts) {
	if skipped.Total() == 0 {
		return
	}
	for kind, n := range map[string]int{"asset": skipped.Assets, "activity": skipped.Activities, "pack": skipped.Packs} {
		if n > 0 {
			metrics.SkippedRecordsTotal.WithLabelValues(string(platform), kind).Add(float64(n))
		}
	}
	logger.WithField("skipped", skipped.Total()).Warn("Aggregator: skipped records without an identifier")
}

// sortPacksByPurchase orders packs newest purchase first. Equal dates keep
// their platform order.
func sortPacksByPurchase(packs []models.Pack) {
	sort.SliceStable(packs, func(i, j int) bool {
		return packs[i].PurchaseDate.After(packs[j].PurchaseDate)
	})
}
