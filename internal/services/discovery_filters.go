package services

import (
	"strconv"
	"strings"

	"github.com/codyseavey/cardfolio/backend/internal/models"
)

// FilterMoments returns the moments matching every set filter, in input
// order. The result never aliases the input.
func FilterMoments(corpus []models.DiscoveryMoment, f models.DiscoveryFilters) []models.DiscoveryMoment {
	out := make([]models.DiscoveryMoment, 0, len(corpus))
	terms := strings.Fields(strings.ToLower(f.Query))
	for _, m := range corpus {
		if matches(m, f, terms) {
			out = append(out, m)
		}
	}
	return out
}

func matches(m models.DiscoveryMoment, f models.DiscoveryFilters, terms []string) bool {
	if len(terms) > 0 {
		text := strings.ToLower(strings.Join([]string{
			m.Player, m.Team, m.SetName, m.Series, m.Category, strconv.Itoa(m.Serial),
		}, " "))
		for _, term := range terms {
			if !strings.Contains(text, term) {
				return false
			}
		}
	}

	if !memberOf(f.Platforms, m.Platform) ||
		!memberOf(f.Rarities, m.Rarity) ||
		!memberOf(f.Momentum, m.Momentum) ||
		!memberFold(f.Teams, m.Team) ||
		!memberFold(f.Players, m.Player) ||
		!memberFold(f.Sets, m.SetName) ||
		!memberFold(f.Categories, m.Category) {
		return false
	}

	if !inRange(m.CurrentPrice, f.MinPrice, f.MaxPrice) ||
		!inRange(m.Serial, f.MinSerial, f.MaxSerial) ||
		!inRange(m.OverallScore, f.MinScore, f.MaxScore) ||
		!inRange(m.LiquidityScore, f.MinLiquidity, nil) {
		return false
	}

	if f.DealsOnly && !m.IsDeal {
		return false
	}
	if f.TrendingOnly && !m.IsTrending {
		return false
	}
	return true
}

// memberOf is true when the set is empty or contains v
func memberOf[T comparable](set []T, v T) bool {
	if len(set) == 0 {
		return true
	}
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}

func memberFold(set []string, v string) bool {
	if len(set) == 0 {
		return true
	}
	for _, s := range set {
		if strings.EqualFold(strings.TrimSpace(s), v) {
			return true
		}
	}
	return false
}

// inRange checks an inclusive range; nil bounds are open
func inRange[T int | float64](v T, lo, hi *T) bool {
	if lo != nil && v < *lo {
		return false
	}
	if hi != nil && v > *hi {
		return false
	}
	return true
}
