package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codyseavey/cardfolio/backend/internal/adapters"
	"github.com/codyseavey/cardfolio/backend/internal/config"
	"github.com/codyseavey/cardfolio/backend/internal/database"
	"github.com/codyseavey/cardfolio/backend/internal/models"
	"github.com/codyseavey/cardfolio/backend/internal/services"
)

type fixedCorpus []models.MarketListing

func (f fixedCorpus) LoadCorpus(ctx context.Context) ([]models.MarketListing, error) {
	return f, nil
}

func newTestRouter(t *testing.T, withSnapshots bool) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	raw := func(s string) []json.RawMessage { return []json.RawMessage{json.RawMessage(s)} }
	topShot := adapters.NewStaticAdapter(models.PlatformTopShot).WithOwner("0xabc", adapters.RawBatch{
		Assets: raw(`{"id":"t1","player":"Player A","team":"Lakers","currentPrice":100,"purchasePrice":60}`),
	})
	allDay := adapters.NewStaticAdapter(models.PlatformAllDay).WithError(errors.New("connection refused"))

	var snapshots *services.SnapshotService
	opts := []services.AggregatorOption{}
	if withSnapshots {
		db, err := database.Initialize(":memory:")
		require.NoError(t, err)
		snapshots = services.NewSnapshotService(db)
		opts = append(opts, services.WithSnapshots(snapshots))
	}

	aggregator := services.NewAggregator(
		adapters.NewRegistry(topShot, allDay),
		[]models.Platform{models.PlatformTopShot, models.PlatformAllDay},
		services.NewNormalizer(services.DefaultSchemas()...),
		services.NewPackClassifier(services.DefaultPackThresholds()),
		opts...,
	)

	corpus := fixedCorpus{
		{ID: "m1", Platform: models.PlatformTopShot, Player: "LeBron James", Team: "Lakers", Rarity: models.RarityRare, CurrentPrice: 40, Serial: 10},
		{ID: "m2", Platform: models.PlatformTopShot, Player: "Anthony Davis", Team: "Lakers", Rarity: models.RarityCommon, CurrentPrice: 5, Serial: 900},
		{ID: "m3", Platform: models.PlatformAllDay, Player: "Patrick Mahomes", Team: "Chiefs", Rarity: models.RarityLegendary, CurrentPrice: 300, Serial: 3},
	}
	engine := services.NewDiscoveryEngine(corpus, services.NewScorer(services.DefaultScoringConfig()),
		services.NewCorpusCache(time.Minute))

	return SetupRouter(config.ServerConfig{}, Services{
		Aggregator: aggregator,
		Discovery:  engine,
		Snapshots:  snapshots,
	})
}

func get(t *testing.T, router *gin.Engine, url string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, url, nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestHealth(t *testing.T) {
	router := newTestRouter(t, false)

	w := get(t, router, "/health")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
	assert.NotEmpty(t, w.Header().Get(RequestIDHeader))
}

func TestRequestIDEchoed(t *testing.T) {
	router := newTestRouter(t, false)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(RequestIDHeader, "req-123")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, "req-123", w.Header().Get(RequestIDHeader))
}

func TestGetPortfolioEndpoint(t *testing.T) {
	router := newTestRouter(t, true)

	w := get(t, router, "/api/portfolio/0xabc")
	require.Equal(t, http.StatusOK, w.Code)

	var body models.CombinedPortfolio
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "0xabc", body.OwnerID)
	assert.Equal(t, 100.0, body.Combined.TotalValue)
	assert.Equal(t, []models.Platform{models.PlatformAllDay}, body.UnavailablePlatforms)
	assert.False(t, body.Platforms[models.PlatformAllDay].Available)
}

func TestGetPlatformPortfolioEndpoint(t *testing.T) {
	router := newTestRouter(t, false)

	w := get(t, router, "/api/portfolio/0xabc/platforms/TopShot")
	require.Equal(t, http.StatusOK, w.Code)
	var body models.PortfolioMetrics
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, 40.0, body.TotalProfit)

	w = get(t, router, "/api/portfolio/0xabc/platforms/pinnacle")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestValueHistoryEndpoint(t *testing.T) {
	w := get(t, newTestRouter(t, false), "/api/portfolio/0xabc/history")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	router := newTestRouter(t, true)
	require.Equal(t, http.StatusOK, get(t, router, "/api/portfolio/0xabc/platforms/topshot").Code)

	w = get(t, router, "/api/portfolio/0xabc/history?platform=topshot&period=week")
	require.Equal(t, http.StatusOK, w.Code)

	var body models.ValueHistoryResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "week", body.Period)
	require.Len(t, body.Snapshots, 1)
	assert.Equal(t, 100.0, body.Snapshots[0].TotalValue)
	require.NotNil(t, body.Latest)
	assert.Equal(t, 100.0, body.Latest.TotalValue)

	w = get(t, router, "/api/portfolio/0xnobody/history?platform=topshot")
	require.Equal(t, http.StatusOK, w.Code)
	body = models.ValueHistoryResponse{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Empty(t, body.Snapshots)
	assert.Nil(t, body.Latest)
}

func TestDiscoverySearchEndpoint(t *testing.T) {
	router := newTestRouter(t, false)

	tests := []struct {
		name string
		url  string
		want []string
	}{
		{"all by price", "/api/discovery/search?sort=price_desc", []string{"m3", "m1", "m2"}},
		{"text query", "/api/discovery/search?q=lakers%20lebron", []string{"m1"}},
		{"comma list", "/api/discovery/search?team=Lakers,Chiefs&sort=price_asc", []string{"m2", "m1", "m3"}},
		{"rarity and price", "/api/discovery/search?rarity=rare&rarity=legendary&max_price=100", []string{"m1"}},
		{"platform", "/api/discovery/search?platform=allday", []string{"m3"}},
		{"serial range", "/api/discovery/search?min_serial=5&max_serial=100", []string{"m1"}},
		{"limit", "/api/discovery/search?sort=recent&limit=1", []string{"m2"}},
		{"unknown sort keeps corpus order", "/api/discovery/search?sort=hottest", []string{"m1", "m2", "m3"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := get(t, router, tt.url)
			require.Equal(t, http.StatusOK, w.Code, w.Body.String())

			var body struct {
				Moments []models.DiscoveryMoment `json:"moments"`
				Total   int                      `json:"total"`
			}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			got := make([]string, len(body.Moments))
			for i, m := range body.Moments {
				got[i] = m.ID
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDiscoverySearchUnknownSortKey(t *testing.T) {
	router := newTestRouter(t, false)

	w := get(t, router, "/api/discovery/search?sort=hottest")
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Sort     string   `json:"sort"`
		Sorted   bool     `json:"sorted"`
		SortKeys []string `json:"sort_keys"`
		Total    int      `json:"total"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "hottest", body.Sort)
	assert.False(t, body.Sorted)
	assert.Contains(t, body.SortKeys, "price_asc")
	assert.Equal(t, 3, body.Total)
}

func TestDiscoverySearchBadParams(t *testing.T) {
	router := newTestRouter(t, false)

	for _, url := range []string{
		"/api/discovery/search?min_price=cheap",
		"/api/discovery/search?min_serial=1.5",
		"/api/discovery/search?rarity=mythic",
		"/api/discovery/search?momentum=sideways",
		"/api/discovery/search?limit=0",
	} {
		w := get(t, router, url)
		assert.Equal(t, http.StatusBadRequest, w.Code, url)
	}
}

func TestMarketAnalyticsEndpoint(t *testing.T) {
	router := newTestRouter(t, false)

	w := get(t, router, "/api/discovery/analytics")
	require.Equal(t, http.StatusOK, w.Code)

	var body models.MarketAnalytics
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, 3, body.CorpusSize)
	assert.Equal(t, models.MomentumNeutral, body.Sentiment)
	assert.NotNil(t, body.CorpusFetchedAt)
}

func TestRefreshCorpusEndpoint(t *testing.T) {
	router := newTestRouter(t, false)

	req := httptest.NewRequest(http.MethodPost, "/api/discovery/refresh", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var body models.CorpusStatus
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, 3, body.Size)
	assert.NotNil(t, body.FetchedAt)

	assert.Equal(t, http.StatusNotFound, get(t, router, "/api/discovery/refresh").Code)
}

func TestListPlatformsEndpoint(t *testing.T) {
	router := newTestRouter(t, false)

	w := get(t, router, "/api/platforms")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"platforms":[
		{"platform":"topshot","enabled":true},
		{"platform":"allday","enabled":true},
		{"platform":"pinnacle","enabled":false}
	]}`, w.Body.String())
}

func TestMetricsEndpoint(t *testing.T) {
	router := newTestRouter(t, false)
	get(t, router, "/health")

	w := get(t, router, "/metrics")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "cardfolio_http_requests_total")
}
