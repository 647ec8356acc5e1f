package services

import (
	"github.com/codyseavey/cardfolio/backend/internal/models"
)

type momentLess func(a, b models.DiscoveryMoment) bool

// sortTable maps each sort key to its ordering. Every ordering is applied
// with a stable sort so equal items keep their input order.
var sortTable = map[models.SortKey]momentLess{
	models.SortPriceAsc: func(a, b models.DiscoveryMoment) bool {
		return a.CurrentPrice < b.CurrentPrice
	},
	models.SortPriceDesc: func(a, b models.DiscoveryMoment) bool {
		return a.CurrentPrice > b.CurrentPrice
	},
	models.SortTrending: func(a, b models.DiscoveryMoment) bool {
		return a.TrendScore > b.TrendScore
	},
	models.SortDeals: func(a, b models.DiscoveryMoment) bool {
		return a.DealScore > b.DealScore
	},
	models.SortVolume: func(a, b models.DiscoveryMoment) bool {
		return a.Volume24h > b.Volume24h
	},
	models.SortRarity: func(a, b models.DiscoveryMoment) bool {
		if a.Rarity.Rank() != b.Rarity.Rank() {
			return a.Rarity.Rank() > b.Rarity.Rank()
		}
		return a.RarityScore > b.RarityScore
	},
	models.SortMomentum: func(a, b models.DiscoveryMoment) bool {
		return a.Momentum.Ordinal() > b.Momentum.Ordinal()
	},
	// Serials are minted in order, so the highest serial is the newest mint
	models.SortRecent: func(a, b models.DiscoveryMoment) bool {
		return a.Serial > b.Serial
	},
	models.SortScore: func(a, b models.DiscoveryMoment) bool {
		return a.OverallScore > b.OverallScore
	},
}

// SortMoments orders moments in place. Unknown or empty keys leave the
// order unchanged.
func SortMoments(moments []models.DiscoveryMoment, key models.SortKey) {
	less, ok := sortTable[key]
	if !ok {
		return
	}
	sortBy(moments, less)
}

// SortKeys lists the supported sort keys
func SortKeys() []models.SortKey {
	return []models.SortKey{
		models.SortPriceAsc, models.SortPriceDesc, models.SortTrending, models.SortDeals,
		models.SortVolume, models.SortRarity, models.SortMomentum, models.SortRecent, models.SortScore,
	}
}
