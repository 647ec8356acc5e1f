package adapters

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarketClientCurrentPrices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/prices", r.URL.Path)
		ids := strings.Split(r.URL.Query().Get("ids"), ",")
		assert.Equal(t, []string{"m1", "m2"}, ids)
		_, _ = w.Write([]byte(`{"success":true,"data":{"m1":12.5}}`))
	}))
	defer server.Close()

	c := NewMarketClient(MarketClientConfig{BaseURL: server.URL})
	prices, err := c.CurrentPrices(context.Background(), []string{"m1", "m2"})
	require.NoError(t, err)
	assert.Equal(t, map[string]float64{"m1": 12.5}, prices)
}

func TestMarketClientBatchesLargeRequests(t *testing.T) {
	requests := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		_, _ = w.Write([]byte(`{"success":true,"data":{}}`))
	}))
	defer server.Close()

	ids := make([]string, maxPriceBatch+1)
	for i := range ids {
		ids[i] = "id"
	}

	c := NewMarketClient(MarketClientConfig{BaseURL: server.URL})
	_, err := c.CurrentPrices(context.Background(), ids)
	require.NoError(t, err)
	assert.Equal(t, 2, requests)
}

func TestMarketClientLoadCorpus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/listings", r.URL.Path)
		_, _ = w.Write([]byte(`{"success":true,"data":[{"id":"m1","platform":"topshot","current_price":4,
			"price_history":[{"timestamp":"2026-01-01T00:00:00Z","price":5}]}]}`))
	}))
	defer server.Close()

	c := NewMarketClient(MarketClientConfig{BaseURL: server.URL})
	listings, err := c.LoadCorpus(context.Background())
	require.NoError(t, err)
	require.Len(t, listings, 1)
	assert.Equal(t, "m1", listings[0].ID)
	assert.Equal(t, 4.0, listings[0].CurrentPrice)
	require.Len(t, listings[0].PriceHistory, 1)
	assert.Equal(t, 5.0, listings[0].PriceHistory[0].Price)
}

func TestMarketClientAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"success":false,"error":"quota exceeded"}`))
	}))
	defer server.Close()

	c := NewMarketClient(MarketClientConfig{BaseURL: server.URL})
	_, err := c.LoadCorpus(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "quota exceeded")
}
