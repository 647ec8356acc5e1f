package adapters

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/codyseavey/cardfolio/backend/internal/models"
)

// StaticAdapter serves fixed records for every owner. It backs local
// development (fixture files) and tests.
type StaticAdapter struct {
	platform models.Platform
	batches  map[string]RawBatch
	err      error
}

// NewStaticAdapter creates an adapter with no records
func NewStaticAdapter(platform models.Platform) *StaticAdapter {
	return &StaticAdapter{
		platform: platform,
		batches:  make(map[string]RawBatch),
	}
}

// WithOwner sets the records returned for an owner
func (a *StaticAdapter) WithOwner(owner string, batch RawBatch) *StaticAdapter {
	batch.Platform = a.platform
	a.batches[owner] = batch
	return a
}

// WithError makes every fetch fail with err wrapped in ErrAdapterUnavailable
func (a *StaticAdapter) WithError(err error) *StaticAdapter {
	a.err = err
	return a
}

// LoadStaticAdapter reads a fixture file of the form
// {"<owner>": {"assets": [...], "activities": [...], "packs": [...]}}
func LoadStaticAdapter(platform models.Platform, path string) (*StaticAdapter, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read fixture %s: %w", path, err)
	}

	var owners map[string]struct {
		Assets     []json.RawMessage `json:"assets"`
		Activities []json.RawMessage `json:"activities"`
		Packs      []json.RawMessage `json:"packs"`
	}
	if err := json.Unmarshal(data, &owners); err != nil {
		return nil, fmt.Errorf("failed to parse fixture %s: %w", path, err)
	}

	a := NewStaticAdapter(platform)
	for owner, recs := range owners {
		a.WithOwner(owner, RawBatch{Assets: recs.Assets, Activities: recs.Activities, Packs: recs.Packs})
	}
	return a, nil
}

func (a *StaticAdapter) Platform() models.Platform {
	return a.platform
}

func (a *StaticAdapter) FetchAssets(ctx context.Context, owner string) ([]json.RawMessage, error) {
	if err := a.check(ctx); err != nil {
		return nil, err
	}
	return nonNil(a.batches[owner].Assets), nil
}

func (a *StaticAdapter) FetchActivities(ctx context.Context, owner string) ([]json.RawMessage, error) {
	if err := a.check(ctx); err != nil {
		return nil, err
	}
	return nonNil(a.batches[owner].Activities), nil
}

func (a *StaticAdapter) FetchPacks(ctx context.Context, owner string) ([]json.RawMessage, error) {
	if err := a.check(ctx); err != nil {
		return nil, err
	}
	return nonNil(a.batches[owner].Packs), nil
}

func (a *StaticAdapter) check(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if a.err != nil {
		return fmt.Errorf("%w: %s: %v", ErrAdapterUnavailable, a.platform, a.err)
	}
	return nil
}

func nonNil(records []json.RawMessage) []json.RawMessage {
	if records == nil {
		return []json.RawMessage{}
	}
	return records
}
