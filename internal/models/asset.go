package models

import (
	"encoding/json"
	"strings"
	"time"
)

// Platform identifies the marketplace an asset, activity or pack came from
type Platform string

const (
	PlatformTopShot  Platform = "topshot"
	PlatformAllDay   Platform = "allday"
	PlatformPinnacle Platform = "pinnacle"
)

// AllPlatforms returns every platform the engine knows a schema for
func AllPlatforms() []Platform {
	return []Platform{
		PlatformTopShot,
		PlatformAllDay,
		PlatformPinnacle,
	}
}

// Rarity is an ordered tier: Common < Rare < Legendary < Ultimate
type Rarity string

const (
	RarityCommon    Rarity = "Common"
	RarityRare      Rarity = "Rare"
	RarityLegendary Rarity = "Legendary"
	RarityUltimate  Rarity = "Ultimate"
)

// AllRarities returns the tiers in ascending order
func AllRarities() []Rarity {
	return []Rarity{
		RarityCommon,
		RarityRare,
		RarityLegendary,
		RarityUltimate,
	}
}

// Rank returns the ordinal of the tier. Unknown tiers rank as Common.
func (r Rarity) Rank() int {
	switch r {
	case RarityRare:
		return 1
	case RarityLegendary:
		return 2
	case RarityUltimate:
		return 3
	default:
		return 0
	}
}

// NormalizeRarity maps loosely formatted tier names to a Rarity.
// Returns RarityCommon for unknown/empty values.
func NormalizeRarity(tier string) Rarity {
	switch strings.ToLower(strings.TrimSpace(tier)) {
	case "rare":
		return RarityRare
	case "legendary":
		return RarityLegendary
	case "ultimate":
		return RarityUltimate
	default:
		return RarityCommon
	}
}

// Asset is one collectible unit held by an owner on a platform.
// Profit and ROI are never stored; they are derived from CurrentPrice and
// AcquisitionPrice every time they are read.
type Asset struct {
	ID               string     `json:"id"`
	Platform         Platform   `json:"platform"`
	Player           string     `json:"player"`
	Team             string     `json:"team"`
	Category         string     `json:"category"`
	SetName          string     `json:"set_name"`
	Series           string     `json:"series,omitempty"`
	Serial           string     `json:"serial"`
	CurrentPrice     float64    `json:"current_price"`
	AcquisitionPrice *float64   `json:"acquisition_price"` // nil for pack pulls, gifts, airdrops
	Rarity           Rarity     `json:"rarity"`
	PackID           string     `json:"pack_id,omitempty"` // pack that produced this asset
	IsPack           bool       `json:"is_pack"`           // sealed pack listed as a holding
	AcquiredAt       *time.Time `json:"acquired_at,omitempty"`
}

// Profit returns CurrentPrice - AcquisitionPrice. ok is false when the
// acquisition price is unknown.
func (a Asset) Profit() (profit float64, ok bool) {
	if a.AcquisitionPrice == nil {
		return 0, false
	}
	return a.CurrentPrice - *a.AcquisitionPrice, true
}

// ROI returns profit as a percentage of the acquisition price. ok is false
// when the acquisition price is unknown or zero.
func (a Asset) ROI() (roi float64, ok bool) {
	profit, ok := a.Profit()
	if !ok || *a.AcquisitionPrice == 0 {
		return 0, false
	}
	return profit / *a.AcquisitionPrice * 100, true
}

// MarshalJSON adds the derived profit and roi fields (null when undefined)
func (a Asset) MarshalJSON() ([]byte, error) {
	type asset Asset
	out := struct {
		asset
		Profit *float64 `json:"profit"`
		ROI    *float64 `json:"roi"`
	}{asset: asset(a)}

	if profit, ok := a.Profit(); ok {
		out.Profit = &profit
	}
	if roi, ok := a.ROI(); ok {
		out.ROI = &roi
	}
	return json.Marshal(out)
}
