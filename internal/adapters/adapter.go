// Package adapters fetches raw holdings, activity and pack records from the
// external marketplaces, one implementation per platform.
package adapters

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/codyseavey/cardfolio/backend/internal/models"
)

// ErrAdapterUnavailable is wrapped by every adapter failure so callers can
// tell an unreachable or malformed source from a programming error
var ErrAdapterUnavailable = errors.New("platform adapter unavailable")

// Adapter fetches one owner's raw records from a single platform. Records are
// returned undecoded; the normalizer owns the per-platform field mapping.
type Adapter interface {
	Platform() models.Platform
	FetchAssets(ctx context.Context, owner string) ([]json.RawMessage, error)
	FetchActivities(ctx context.Context, owner string) ([]json.RawMessage, error)
	FetchPacks(ctx context.Context, owner string) ([]json.RawMessage, error)
}

// RawBatch holds everything an adapter reported for one owner
type RawBatch struct {
	Platform   models.Platform
	Assets     []json.RawMessage
	Activities []json.RawMessage
	Packs      []json.RawMessage
}

// FetchAll runs the three fetches of an adapter in order. Any failure fails
// the whole batch.
func FetchAll(ctx context.Context, a Adapter, owner string) (RawBatch, error) {
	batch := RawBatch{Platform: a.Platform()}

	var err error
	if batch.Assets, err = a.FetchAssets(ctx, owner); err != nil {
		return RawBatch{}, fmt.Errorf("fetch assets: %w", err)
	}
	if batch.Activities, err = a.FetchActivities(ctx, owner); err != nil {
		return RawBatch{}, fmt.Errorf("fetch activities: %w", err)
	}
	if batch.Packs, err = a.FetchPacks(ctx, owner); err != nil {
		return RawBatch{}, fmt.Errorf("fetch packs: %w", err)
	}
	return batch, nil
}

// Registry is the lookup table of adapters keyed by platform
type Registry struct {
	adapters map[models.Platform]Adapter
}

// NewRegistry creates a registry from the given adapters. A later adapter for
// the same platform replaces an earlier one.
func NewRegistry(adapters ...Adapter) *Registry {
	r := &Registry{adapters: make(map[models.Platform]Adapter)}
	for _, a := range adapters {
		r.Register(a)
	}
	return r
}

// Register adds or replaces the adapter for its platform
func (r *Registry) Register(a Adapter) {
	r.adapters[a.Platform()] = a
}

// Get returns the adapter registered for a platform
func (r *Registry) Get(platform models.Platform) (Adapter, bool) {
	a, ok := r.adapters[platform]
	return a, ok
}

// Platforms returns the registered platforms in a stable order
func (r *Registry) Platforms() []models.Platform {
	platforms := make([]models.Platform, 0, len(r.adapters))
	for p := range r.adapters {
		platforms = append(platforms, p)
	}
	sort.Slice(platforms, func(i, j int) bool { return platforms[i] < platforms[j] })
	return platforms
}
