package adapters

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/tidwall/gjson"
	"golang.org/x/time/rate"

	"github.com/codyseavey/cardfolio/backend/internal/models"
)

const (
	defaultAdapterTimeout = 10 * time.Second
	maxResponseBytes      = 16 << 20
)

// HTTPAdapterConfig configures an HTTPAdapter
type HTTPAdapterConfig struct {
	Platform  models.Platform
	BaseURL   string
	APIKey    string
	Timeout   time.Duration
	RateLimit float64 // requests per second, 0 disables limiting
	RateBurst int
}

// HTTPAdapter reads an owner's records from a platform's REST API at
// {base}/owners/{owner}/{assets|activities|packs}. Responses may be a bare
// JSON array or an envelope of the form {"success": true, "data": [...]}.
type HTTPAdapter struct {
	platform models.Platform
	baseURL  string
	apiKey   string
	client   *retryablehttp.Client
	limiter  *rate.Limiter
}

// NewHTTPAdapter creates an HTTP-backed platform adapter
func NewHTTPAdapter(cfg HTTPAdapterConfig) *HTTPAdapter {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultAdapterTimeout
	}

	return &HTTPAdapter{
		platform: cfg.Platform,
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:   cfg.APIKey,
		client:   newRetryClient(timeout),
		limiter:  newLimiter(cfg.RateLimit, cfg.RateBurst),
	}
}

// newRetryClient creates an HTTP client with retry capabilities
func newRetryClient(timeout time.Duration) *retryablehttp.Client {
	c := retryablehttp.NewClient()
	c.RetryMax = 3
	c.RetryWaitMin = 500 * time.Millisecond
	c.RetryWaitMax = 3 * time.Second
	c.HTTPClient.Timeout = timeout
	c.Logger = nil
	return c
}

func newLimiter(rps float64, burst int) *rate.Limiter {
	if rps <= 0 {
		return rate.NewLimiter(rate.Inf, 0)
	}
	if burst <= 0 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(rps), burst)
}

func (a *HTTPAdapter) Platform() models.Platform {
	return a.platform
}

func (a *HTTPAdapter) FetchAssets(ctx context.Context, owner string) ([]json.RawMessage, error) {
	return a.fetch(ctx, owner, "assets")
}

func (a *HTTPAdapter) FetchActivities(ctx context.Context, owner string) ([]json.RawMessage, error) {
	return a.fetch(ctx, owner, "activities")
}

func (a *HTTPAdapter) FetchPacks(ctx context.Context, owner string) ([]json.RawMessage, error) {
	return a.fetch(ctx, owner, "packs")
}

func (a *HTTPAdapter) fetch(ctx context.Context, owner, resource string) ([]json.RawMessage, error) {
	if err := a.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: %s rate limiter: %v", ErrAdapterUnavailable, a.platform, err)
	}

	reqURL := fmt.Sprintf("%s/owners/%s/%s", a.baseURL, url.PathEscape(owner), resource)
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if a.apiKey != "" {
		req.Header.Set("X-API-Key", a.apiKey)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s %s request failed: %v", ErrAdapterUnavailable, a.platform, resource, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		// Owner has never used this platform
		return []json.RawMessage{}, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %s API error: status %d", ErrAdapterUnavailable, a.platform, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read %s response: %v", ErrAdapterUnavailable, a.platform, err)
	}

	records, err := decodeRecords(body)
	if err != nil {
		return nil, fmt.Errorf("%w: %s %s: %v", ErrAdapterUnavailable, a.platform, resource, err)
	}
	return records, nil
}

// decodeRecords splits a response body into its raw records
func decodeRecords(body []byte) ([]json.RawMessage, error) {
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("malformed JSON response")
	}

	root := gjson.ParseBytes(body)
	list := root
	if root.IsObject() {
		if root.Get("success").Exists() && !root.Get("success").Bool() {
			return nil, fmt.Errorf("API error: %s", root.Get("error").String())
		}
		list = root.Get("data")
	}
	if !list.IsArray() {
		return nil, fmt.Errorf("expected a list of records")
	}

	items := list.Array()
	records := make([]json.RawMessage, 0, len(items))
	for _, item := range items {
		records = append(records, json.RawMessage(item.Raw))
	}
	return records, nil
}
