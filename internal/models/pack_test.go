package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPackLifecycleOpenThenSell(t *testing.T) {
	p := Pack{ID: "p1", Status: PackStatusUnopened, PurchasePrice: 45}
	require.NoError(t, p.Validate())

	openedAt := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, p.Open(openedAt, []Asset{{ID: "m1"}}))
	assert.Equal(t, PackStatusOpened, p.Status)
	require.NotNil(t, p.OpenDate)
	assert.Equal(t, openedAt, *p.OpenDate)
	require.NoError(t, p.Validate())

	require.NoError(t, p.Sell(openedAt.Add(24*time.Hour), 60))
	assert.Equal(t, PackStatusSold, p.Status)
	assert.False(t, p.SoldSealed())
	require.NoError(t, p.Validate())
}

func TestPackSellSealed(t *testing.T) {
	p := Pack{ID: "p2", Status: PackStatusUnopened}
	require.NoError(t, p.Sell(time.Now(), 91))

	assert.True(t, p.SoldSealed())
	assert.Nil(t, p.Contents)
	require.NotNil(t, p.SellPrice)
	assert.Equal(t, 91.0, *p.SellPrice)
	require.NoError(t, p.Validate())
}

func TestPackInvalidTransitions(t *testing.T) {
	opened := Pack{ID: "p3", Status: PackStatusUnopened}
	require.NoError(t, opened.Open(time.Now(), nil))
	assert.NotNil(t, opened.Contents, "open always records a contents list")

	err := opened.Open(time.Now(), nil)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	require.NoError(t, opened.Sell(time.Now(), 10))
	assert.ErrorIs(t, opened.Sell(time.Now(), 20), ErrInvalidTransition)
	assert.ErrorIs(t, opened.Open(time.Now(), nil), ErrInvalidTransition)
	assert.Equal(t, 10.0, *opened.SellPrice, "failed transition must not mutate the pack")
}

func TestPackValidate(t *testing.T) {
	now := time.Now()
	price := 10.0

	tests := []struct {
		name    string
		pack    Pack
		wantErr bool
	}{
		{"unopened ok", Pack{Status: PackStatusUnopened}, false},
		{"unopened with sell price", Pack{Status: PackStatusUnopened, SellPrice: &price}, true},
		{"unopened with contents", Pack{Status: PackStatusUnopened, Contents: []Asset{}}, true},
		{"opened without contents", Pack{Status: PackStatusOpened, OpenDate: &now}, true},
		{"opened ok", Pack{Status: PackStatusOpened, OpenDate: &now, Contents: []Asset{}}, false},
		{"sold without price", Pack{Status: PackStatusSold, SellDate: &now}, true},
		{"sold sealed ok", Pack{Status: PackStatusSold, SellDate: &now, SellPrice: &price}, false},
		{"sold half opened", Pack{Status: PackStatusSold, SellDate: &now, SellPrice: &price, OpenDate: &now}, true},
		{"unknown status", Pack{Status: "lost"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.pack.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestNormalizePackStatus(t *testing.T) {
	status, ok := NormalizePackStatus("Sealed")
	assert.True(t, ok)
	assert.Equal(t, PackStatusUnopened, status)

	status, ok = NormalizePackStatus("SOLD")
	assert.True(t, ok)
	assert.Equal(t, PackStatusSold, status)

	_, ok = NormalizePackStatus("missing")
	assert.False(t, ok)
}
