package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codyseavey/cardfolio/backend/internal/models"
)

type stubMarket struct {
	prices map[string]float64
	err    error
	asked  [][]string
}

func (m *stubMarket) CurrentPrices(ctx context.Context, ids []string) (map[string]float64, error) {
	m.asked = append(m.asked, ids)
	out := map[string]float64{}
	for _, id := range ids {
		if p, ok := m.prices[id]; ok {
			out[id] = p
		}
	}
	return out, m.err
}

func TestIsFresh(t *testing.T) {
	svc := NewPriceService(nil, 0)

	assert.False(t, svc.isFresh(nil), "nil time should not be fresh")

	recent := time.Now().Add(-1 * time.Hour)
	assert.True(t, svc.isFresh(&recent))

	threshold := time.Now().Add(-PriceStalenessThreshold + time.Minute)
	assert.True(t, svc.isFresh(&threshold), "time just within threshold should be fresh")

	old := time.Now().Add(-PriceStalenessThreshold - time.Hour)
	assert.False(t, svc.isFresh(&old))
}

func TestApplyPricesFallbackChain(t *testing.T) {
	market := &stubMarket{prices: map[string]float64{"a": 10, "b": 20}}
	svc := NewPriceService(market, 16)

	assets := []models.Asset{{ID: "a", CurrentPrice: 1}, {ID: "b", CurrentPrice: 2}, {ID: "c", CurrentPrice: 3}}
	priced := svc.ApplyPrices(context.Background(), assets)

	assert.Equal(t, 10.0, priced[0].CurrentPrice)
	assert.Equal(t, 20.0, priced[1].CurrentPrice)
	assert.Equal(t, 3.0, priced[2].CurrentPrice, "no quote and no history keeps the platform price")
	assert.Equal(t, 1.0, assets[0].CurrentPrice, "input is not modified")

	// Market stops quoting "b": the last-known quote is used
	market.prices = map[string]float64{"a": 11}
	priced = svc.ApplyPrices(context.Background(), assets)
	assert.Equal(t, 11.0, priced[0].CurrentPrice)
	assert.Equal(t, 20.0, priced[1].CurrentPrice)

	price, fresh, ok := svc.GetPrice("b")
	require.True(t, ok)
	assert.Equal(t, 20.0, price)
	assert.True(t, fresh)

	_, _, ok = svc.GetPrice("c")
	assert.False(t, ok)
}

func TestApplyPricesMarketFailure(t *testing.T) {
	market := &stubMarket{prices: map[string]float64{"a": 10}}
	svc := NewPriceService(market, 16)
	svc.ApplyPrices(context.Background(), []models.Asset{{ID: "a"}})

	market.err = errors.New("timeout")
	market.prices = nil
	priced := svc.ApplyPrices(context.Background(), []models.Asset{{ID: "a", CurrentPrice: 4}})
	assert.Equal(t, 10.0, priced[0].CurrentPrice)
}

func TestApplyPricesDeduplicatesIDs(t *testing.T) {
	market := &stubMarket{}
	svc := NewPriceService(market, 16)

	svc.ApplyPrices(context.Background(), []models.Asset{{ID: "a"}, {ID: "a"}, {ID: "b"}})
	require.Len(t, market.asked, 1)
	assert.Equal(t, []string{"a", "b"}, market.asked[0])

	svc.ApplyPrices(context.Background(), nil)
	assert.Len(t, market.asked, 1, "no request for an empty asset list")
}

func TestPriceServiceWithoutMarket(t *testing.T) {
	svc := NewPriceService(nil, 0)

	priced := svc.ApplyPrices(context.Background(), []models.Asset{{ID: "a", CurrentPrice: 7}})
	assert.Equal(t, 7.0, priced[0].CurrentPrice)
}

func TestStaleLastKnownPrice(t *testing.T) {
	market := &stubMarket{prices: map[string]float64{"a": 10}}
	svc := NewPriceService(market, 16)
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return start }

	svc.ApplyPrices(context.Background(), []models.Asset{{ID: "a"}})
	svc.now = func() time.Time { return start.Add(PriceStalenessThreshold) }

	price, fresh, ok := svc.GetPrice("a")
	require.True(t, ok)
	assert.Equal(t, 10.0, price)
	assert.False(t, fresh)
}

func TestApplyPricesCountsPriceSources(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	assets := []models.Asset{{ID: "a", CurrentPrice: 1}, {ID: "b", CurrentPrice: 2}, {ID: "c", CurrentPrice: 3}}

	tests := []struct {
		name  string
		age   time.Duration
		quote map[string]float64
		want  priceStats
		price float64
	}{
		{"all quoted", time.Hour, map[string]float64{"a": 10, "b": 20}, priceStats{quoted: 2, unchanged: 1}, 10},
		{"fresh fallback", time.Hour, map[string]float64{"b": 20}, priceStats{quoted: 1, fresh: 1, unchanged: 1}, 10},
		{"stale fallback", PriceStalenessThreshold + time.Hour, map[string]float64{"b": 20}, priceStats{quoted: 1, stale: 1, unchanged: 1}, 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			market := &stubMarket{prices: map[string]float64{"a": 10}}
			svc := NewPriceService(market, 16)
			svc.now = func() time.Time { return start }
			svc.ApplyPrices(context.Background(), assets[:1])

			market.prices = tt.quote
			svc.now = func() time.Time { return start.Add(tt.age) }
			priced, stats := svc.applyPrices(context.Background(), assets)

			assert.Equal(t, tt.want, stats)
			assert.Equal(t, tt.price, priced[0].CurrentPrice)
			assert.Equal(t, 3.0, priced[2].CurrentPrice)
		})
	}
}
