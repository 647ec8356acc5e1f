package adapters

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"golang.org/x/time/rate"

	"github.com/codyseavey/cardfolio/backend/internal/metrics"
	"github.com/codyseavey/cardfolio/backend/internal/models"
)

// maxPriceBatch is the most asset IDs sent in one price request
const maxPriceBatch = 100

// MarketClientConfig configures a MarketClient
type MarketClientConfig struct {
	BaseURL   string
	APIKey    string
	Timeout   time.Duration
	RateLimit float64
	RateBurst int
}

// MarketClient talks to the market data API that provides current prices
// and the market-wide discovery listings
type MarketClient struct {
	baseURL string
	apiKey  string
	client  *retryablehttp.Client
	limiter *rate.Limiter
}

// MarketPriceResponse represents the API response for price queries
type MarketPriceResponse struct {
	Success bool               `json:"success"`
	Data    map[string]float64 `json:"data"`
	Error   string             `json:"error,omitempty"`
}

// MarketListingsResponse represents the API response for the listings corpus
type MarketListingsResponse struct {
	Success bool                   `json:"success"`
	Data    []models.MarketListing `json:"data"`
	Error   string                 `json:"error,omitempty"`
}

// NewMarketClient creates a new market data client
func NewMarketClient(cfg MarketClientConfig) *MarketClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultAdapterTimeout
	}
	return &MarketClient{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		client:  newRetryClient(timeout),
		limiter: newLimiter(cfg.RateLimit, cfg.RateBurst),
	}
}

// CurrentPrices returns best-effort prices for the given asset IDs. IDs the
// market has no quote for are absent from the result.
func (c *MarketClient) CurrentPrices(ctx context.Context, ids []string) (map[string]float64, error) {
	prices := make(map[string]float64, len(ids))

	for start := 0; start < len(ids); start += maxPriceBatch {
		end := start + maxPriceBatch
		if end > len(ids) {
			end = len(ids)
		}

		params := url.Values{}
		params.Set("ids", strings.Join(ids[start:end], ","))

		var result MarketPriceResponse
		if err := c.get(ctx, "prices", "/prices?"+params.Encode(), &result); err != nil {
			return prices, err
		}
		if !result.Success {
			metrics.MarketRequestsTotal.WithLabelValues("prices", "api_error").Inc()
			return prices, fmt.Errorf("market API error: %s", result.Error)
		}
		for id, price := range result.Data {
			prices[id] = price
		}
	}
	return prices, nil
}

// LoadCorpus returns every listing the market currently tracks
func (c *MarketClient) LoadCorpus(ctx context.Context) ([]models.MarketListing, error) {
	var result MarketListingsResponse
	if err := c.get(ctx, "listings", "/listings", &result); err != nil {
		return nil, err
	}
	if !result.Success {
		metrics.MarketRequestsTotal.WithLabelValues("listings", "api_error").Inc()
		return nil, fmt.Errorf("market API error: %s", result.Error)
	}
	return result.Data, nil
}

func (c *MarketClient) get(ctx context.Context, endpoint, path string, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("market rate limiter: %w", err)
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		metrics.MarketRequestsTotal.WithLabelValues(endpoint, "error").Inc()
		return fmt.Errorf("market request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		metrics.MarketRequestsTotal.WithLabelValues(endpoint, "error").Inc()
		return fmt.Errorf("market API error: status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		metrics.MarketRequestsTotal.WithLabelValues(endpoint, "error").Inc()
		return fmt.Errorf("failed to decode market response: %w", err)
	}
	metrics.MarketRequestsTotal.WithLabelValues(endpoint, "success").Inc()
	return nil
}
