// Package metrics provides Prometheus metrics for the Cardfolio backend.
// Scrape these at /metrics for Grafana dashboards and alerting.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP Metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cardfolio_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "cardfolio_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// Platform Adapter Metrics
	AdapterFetchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cardfolio_adapter_fetches_total",
			Help: "Platform adapter fetches by outcome",
		},
		[]string{"platform", "result"}, // result: "success" or "unavailable"
	)

	AdapterFetchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "cardfolio_adapter_fetch_duration_seconds",
			Help:    "Time taken to fetch one owner's records from a platform",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"platform"},
	)

	SkippedRecordsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cardfolio_skipped_records_total",
			Help: "Raw records skipped during normalization for a missing identifier",
		},
		[]string{"platform", "kind"}, // kind: "asset", "activity", "pack"
	)

	// Portfolio Metrics
	PortfolioRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cardfolio_portfolio_requests_total",
			Help: "Portfolio aggregations by scope",
		},
		[]string{"scope"}, // "combined" or "platform"
	)

	PortfolioValueUSD = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "cardfolio_portfolio_value_usd",
			Help:    "Combined portfolio value of aggregated owners",
			Buckets: []float64{10, 100, 500, 1000, 5000, 10000, 50000},
		},
	)

	// Discovery Metrics
	DiscoveryCacheResults = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cardfolio_discovery_cache_results_total",
			Help: "Discovery corpus cache lookups by result",
		},
		[]string{"result"}, // "hit", "refresh", "stale", "empty"
	)

	DiscoveryCorpusSize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "cardfolio_discovery_corpus_size",
			Help: "Number of moments in the cached discovery corpus",
		},
	)

	DiscoverySearchesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "cardfolio_discovery_searches_total",
			Help: "Total discovery searches served",
		},
	)

	// Market API Metrics
	MarketRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cardfolio_market_requests_total",
			Help: "Market data API requests by endpoint and result",
		},
		[]string{"endpoint", "result"},
	)

	PriceFallbacksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cardfolio_price_fallbacks_total",
			Help: "Assets priced from the last-known cache because the market had no quote",
		},
		[]string{"freshness"},
	)

	// Snapshot Metrics
	SnapshotsRecordedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "cardfolio_snapshots_recorded_total",
			Help: "Total portfolio value snapshots written",
		},
	)
)
