package adapters

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codyseavey/cardfolio/backend/internal/models"
)

func TestHTTPAdapterFetchesEachResource(t *testing.T) {
	var apiKey atomic.Value
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		apiKey.Store(r.Header.Get("X-API-Key"))
		switch r.URL.Path {
		case "/owners/0xabc/assets":
			_, _ = w.Write([]byte(`[{"id":"m1"},{"id":"m2"}]`))
		case "/owners/0xabc/activities":
			_, _ = w.Write([]byte(`{"success":true,"data":[{"id":"e1"}]}`))
		case "/owners/0xabc/packs":
			_, _ = w.Write([]byte(`{"success":true,"data":[]}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	a := NewHTTPAdapter(HTTPAdapterConfig{
		Platform: models.PlatformTopShot,
		BaseURL:  server.URL + "/",
		APIKey:   "secret",
	})

	batch, err := FetchAll(context.Background(), a, "0xabc")
	require.NoError(t, err)
	assert.Equal(t, models.PlatformTopShot, batch.Platform)
	assert.Len(t, batch.Assets, 2)
	assert.JSONEq(t, `{"id":"e1"}`, string(batch.Activities[0]))
	assert.NotNil(t, batch.Packs)
	assert.Empty(t, batch.Packs)
	assert.Equal(t, "secret", apiKey.Load())
}

func TestHTTPAdapterUnknownOwnerIsEmpty(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	defer server.Close()

	a := NewHTTPAdapter(HTTPAdapterConfig{Platform: models.PlatformAllDay, BaseURL: server.URL})

	records, err := a.FetchAssets(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestHTTPAdapterFailures(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		payload string
	}{
		{"bad request", http.StatusBadRequest, `{}`},
		{"malformed json", http.StatusOK, `{"data": [`},
		{"api error envelope", http.StatusOK, `{"success":false,"error":"maintenance"}`},
		{"not a list", http.StatusOK, `{"success":true,"data":{"id":"m1"}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.payload))
			}))
			defer server.Close()

			a := NewHTTPAdapter(HTTPAdapterConfig{Platform: models.PlatformPinnacle, BaseURL: server.URL})
			_, err := a.FetchAssets(context.Background(), "owner")
			assert.ErrorIs(t, err, ErrAdapterUnavailable)
		})
	}
}

func TestRegistry(t *testing.T) {
	first := NewStaticAdapter(models.PlatformTopShot)
	second := NewStaticAdapter(models.PlatformTopShot)
	r := NewRegistry(first, NewStaticAdapter(models.PlatformAllDay))
	r.Register(second)

	got, ok := r.Get(models.PlatformTopShot)
	require.True(t, ok)
	assert.Same(t, second, got)

	_, ok = r.Get(models.PlatformPinnacle)
	assert.False(t, ok)

	assert.Equal(t, []models.Platform{models.PlatformAllDay, models.PlatformTopShot}, r.Platforms())
}

func TestStaticAdapter(t *testing.T) {
	a := NewStaticAdapter(models.PlatformAllDay).
		WithOwner("alice", RawBatch{Assets: []json.RawMessage{json.RawMessage(`{"id":"a"}`)}})

	batch, err := FetchAll(context.Background(), a, "alice")
	require.NoError(t, err)
	assert.Len(t, batch.Assets, 1)
	assert.NotNil(t, batch.Activities)

	batch, err = FetchAll(context.Background(), a, "bob")
	require.NoError(t, err)
	assert.Empty(t, batch.Assets)

	a.WithError(errors.New("boom"))
	_, err = FetchAll(context.Background(), a, "alice")
	assert.ErrorIs(t, err, ErrAdapterUnavailable)
}

func TestLoadStaticAdapter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fixture.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"alice":{"assets":[{"id":"m1"}],"packs":[{"id":"p1"}]}}`), 0o600))

	a, err := LoadStaticAdapter(models.PlatformPinnacle, path)
	require.NoError(t, err)

	packs, err := a.FetchPacks(context.Background(), "alice")
	require.NoError(t, err)
	assert.Len(t, packs, 1)

	_, err = LoadStaticAdapter(models.PlatformPinnacle, filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}
