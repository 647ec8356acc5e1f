package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/codyseavey/cardfolio/backend/internal/models"
	"github.com/codyseavey/cardfolio/backend/internal/services"
)

const (
	defaultSearchLimit = 50
	maxSearchLimit     = 200
)

type DiscoveryHandler struct {
	engine *services.DiscoveryEngine
}

func NewDiscoveryHandler(engine *services.DiscoveryEngine) *DiscoveryHandler {
	return &DiscoveryHandler{engine: engine}
}

// Search filters and sorts the market corpus.
// List filters accept repeated params or comma-separated values.
func (h *DiscoveryHandler) Search(c *gin.Context) {
	filters, err := parseDiscoveryFilters(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// Unknown sort keys keep corpus order
	sortKey := models.SortKey(strings.ToLower(c.Query("sort")))

	limit := defaultSearchLimit
	if v := c.Query("limit"); v != "" {
		limit, err = strconv.Atoi(v)
		if err != nil || limit < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		limit = min(limit, maxSearchLimit)
	}

	results := h.engine.Search(c.Request.Context(), filters, sortKey)
	total := len(results)
	if len(results) > limit {
		results = results[:limit]
	}

	c.JSON(http.StatusOK, gin.H{
		"moments":   results,
		"count":     len(results),
		"total":     total,
		"sort":      sortKey,
		"sorted":    knownSortKey(sortKey),
		"sort_keys": services.SortKeys(),
	})
}

// GetMarketAnalytics returns gainers, losers, trending, deals and sentiment
func (h *DiscoveryHandler) GetMarketAnalytics(c *gin.Context) {
	c.JSON(http.StatusOK, h.engine.GetMarketAnalytics(c.Request.Context()))
}

// RefreshCorpus reloads the market corpus ahead of its TTL
func (h *DiscoveryHandler) RefreshCorpus(c *gin.Context) {
	c.JSON(http.StatusOK, h.engine.Refresh(c.Request.Context()))
}

func knownSortKey(key models.SortKey) bool {
	for _, k := range services.SortKeys() {
		if k == key {
			return true
		}
	}
	return false
}

// queryList collects a list parameter given as repeated keys, comma-separated
// values or both
func queryList(c *gin.Context, key string) []string {
	var out []string
	for _, raw := range c.QueryArray(key) {
		for _, v := range strings.Split(raw, ",") {
			if v = strings.TrimSpace(v); v != "" {
				out = append(out, v)
			}
		}
	}
	return out
}

func queryFloat(c *gin.Context, key string) (*float64, error) {
	v := c.Query(key)
	if v == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return nil, fmt.Errorf("%s must be a number", key)
	}
	return &f, nil
}

func queryInt(c *gin.Context, key string) (*int, error) {
	v := c.Query(key)
	if v == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return nil, fmt.Errorf("%s must be an integer", key)
	}
	return &n, nil
}

func parseDiscoveryFilters(c *gin.Context) (models.DiscoveryFilters, error) {
	f := models.DiscoveryFilters{
		Query:        strings.TrimSpace(c.Query("q")),
		Teams:        queryList(c, "team"),
		Players:      queryList(c, "player"),
		Sets:         queryList(c, "set"),
		Categories:   queryList(c, "category"),
		DealsOnly:    c.Query("deals") == "true",
		TrendingOnly: c.Query("trending") == "true",
	}

	for _, v := range queryList(c, "platform") {
		f.Platforms = append(f.Platforms, models.Platform(strings.ToLower(v)))
	}

	for _, v := range queryList(c, "rarity") {
		r, ok := parseRarity(v)
		if !ok {
			return f, fmt.Errorf("unknown rarity %q", v)
		}
		f.Rarities = append(f.Rarities, r)
	}

	for _, v := range queryList(c, "momentum") {
		m := models.Momentum(strings.ToLower(v))
		switch m {
		case models.MomentumBullish, models.MomentumNeutral, models.MomentumBearish:
			f.Momentum = append(f.Momentum, m)
		default:
			return f, fmt.Errorf("unknown momentum %q", v)
		}
	}

	var err error
	floats := []struct {
		key string
		dst **float64
	}{
		{"min_price", &f.MinPrice},
		{"max_price", &f.MaxPrice},
		{"min_score", &f.MinScore},
		{"max_score", &f.MaxScore},
		{"min_liquidity", &f.MinLiquidity},
	}
	for _, q := range floats {
		if *q.dst, err = queryFloat(c, q.key); err != nil {
			return f, err
		}
	}
	if f.MinSerial, err = queryInt(c, "min_serial"); err != nil {
		return f, err
	}
	if f.MaxSerial, err = queryInt(c, "max_serial"); err != nil {
		return f, err
	}

	return f, nil
}

func parseRarity(v string) (models.Rarity, bool) {
	for _, r := range models.AllRarities() {
		if strings.EqualFold(string(r), v) {
			return r, true
		}
	}
	return "", false
}
