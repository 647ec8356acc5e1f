package services

import (
	"context"
	"sync/atomic"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"github.com/codyseavey/cardfolio/backend/internal/metrics"
	"github.com/codyseavey/cardfolio/backend/internal/models"
)

const (
	// DefaultCorpusTTL is how long a loaded discovery corpus is served
	DefaultCorpusTTL = 5 * time.Minute

	// DefaultCorpusLoadTimeout bounds a single corpus load
	DefaultCorpusLoadTimeout = 30 * time.Second
)

// CorpusLoader produces a fresh, fully scored corpus
type CorpusLoader func(ctx context.Context) ([]models.DiscoveryMoment, error)

type corpusEntry struct {
	corpus    []models.DiscoveryMoment
	fetchedAt time.Time
	expired   bool
}

// CorpusCache memoizes the discovery corpus for a fixed TTL. Readers see
// either the previous or the new corpus, never a partial one. Concurrent
// misses share a single load. The cached slice is shared and must be
// treated as read-only.
type CorpusCache struct {
	ttl         time.Duration
	loadTimeout time.Duration
	now         func() time.Time
	entry       atomic.Pointer[corpusEntry]
	group       singleflight.Group
}

// CorpusCacheOption configures a CorpusCache
type CorpusCacheOption func(*CorpusCache)

// WithClock replaces time.Now, for tests
func WithClock(now func() time.Time) CorpusCacheOption {
	return func(c *CorpusCache) {
		c.now = now
	}
}

// WithLoadTimeout bounds how long a shared corpus load may run
func WithLoadTimeout(d time.Duration) CorpusCacheOption {
	return func(c *CorpusCache) {
		if d > 0 {
			c.loadTimeout = d
		}
	}
}

// NewCorpusCache creates an empty cache. A non-positive ttl uses DefaultCorpusTTL.
func NewCorpusCache(ttl time.Duration, opts ...CorpusCacheOption) *CorpusCache {
	if ttl <= 0 {
		ttl = DefaultCorpusTTL
	}
	c := &CorpusCache{ttl: ttl, loadTimeout: DefaultCorpusLoadTimeout, now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns the cached corpus while it is fresh, otherwise loads a new
// one. When the load fails the last good corpus is returned, or an empty
// corpus if there never was one.
//
// The load is shared by every caller that misses at the same time and runs
// detached from their contexts, bounded by the load timeout. A caller whose
// ctx ends first stops waiting and falls back on its own; the load keeps
// going for the others.
func (c *CorpusCache) Get(ctx context.Context, load CorpusLoader) []models.DiscoveryMoment {
	current := c.entry.Load()
	if c.fresh(current) {
		metrics.DiscoveryCacheResults.WithLabelValues("hit").Inc()
		return current.corpus
	}

	loadCtx := context.WithoutCancel(ctx)
	ch := c.group.DoChan("corpus", func() (any, error) {
		// Another caller may have refreshed while we waited
		if e := c.entry.Load(); c.fresh(e) {
			return e.corpus, nil
		}

		ctx, cancel := context.WithTimeout(loadCtx, c.loadTimeout)
		defer cancel()

		corpus, err := load(ctx)
		if err != nil {
			return nil, err
		}
		if corpus == nil {
			corpus = []models.DiscoveryMoment{}
		}
		c.entry.Store(&corpusEntry{corpus: corpus, fetchedAt: c.now()})
		metrics.DiscoveryCorpusSize.Set(float64(len(corpus)))
		return corpus, nil
	})

	var res singleflight.Result
	select {
	case res = <-ch:
	case <-ctx.Done():
		res = singleflight.Result{Err: ctx.Err()}
	}

	if res.Err != nil {
		if current != nil {
			log.WithError(res.Err).Warn("Discovery: corpus refresh failed, serving stale corpus")
			metrics.DiscoveryCacheResults.WithLabelValues("stale").Inc()
			return current.corpus
		}
		log.WithError(res.Err).Error("Discovery: corpus load failed, no cached corpus")
		metrics.DiscoveryCacheResults.WithLabelValues("empty").Inc()
		return []models.DiscoveryMoment{}
	}

	metrics.DiscoveryCacheResults.WithLabelValues("refresh").Inc()
	return res.Val.([]models.DiscoveryMoment)
}

func (c *CorpusCache) fresh(e *corpusEntry) bool {
	return e != nil && !e.expired && c.now().Sub(e.fetchedAt) < c.ttl
}

// Invalidate expires the cached corpus so the next Get reloads it. The old
// corpus is kept as the stale fallback.
func (c *CorpusCache) Invalidate() {
	for {
		e := c.entry.Load()
		if e == nil || e.expired {
			return
		}
		expired := &corpusEntry{corpus: e.corpus, fetchedAt: e.fetchedAt, expired: true}
		if c.entry.CompareAndSwap(e, expired) {
			return
		}
	}
}

// FetchedAt returns when the cached corpus was loaded
func (c *CorpusCache) FetchedAt() (time.Time, bool) {
	e := c.entry.Load()
	if e == nil {
		return time.Time{}, false
	}
	return e.fetchedAt, true
}
