package services

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/codyseavey/cardfolio/backend/internal/models"
)

const (
	// TopAssetsLimit caps the ranked top-assets list
	TopAssetsLimit = 10
	// RecentActivityLimit caps the recent activity list
	RecentActivityLimit = 20
)

var hundred = decimal.NewFromInt(100)

// ComputeMetrics builds the financial view of one platform's holdings.
// Value, profit, asset count and breakdowns cover non-pack assets; sealed
// packs listed as holdings are reported through the pack lists instead.
func ComputeMetrics(assets []models.Asset, activities []models.Activity, packs []models.Pack) models.PortfolioMetrics {
	m := models.EmptyPortfolioMetrics("")
	m.Available = true

	totalValue := decimal.Zero
	totalProfit := decimal.Zero
	held := make([]models.Asset, 0, len(assets))

	acc := newBreakdownAccumulator()
	for _, a := range assets {
		if a.IsPack {
			continue
		}
		held = append(held, a)

		price := decimal.NewFromFloat(a.CurrentPrice)
		totalValue = totalValue.Add(price)
		if profit, ok := a.Profit(); ok {
			totalProfit = totalProfit.Add(decimal.NewFromFloat(profit))
		}
		acc.add(a, price)
	}

	m.TotalValue = roundMoney(totalValue)
	m.TotalProfit = roundMoney(totalProfit)
	m.ROI = percentOf(totalProfit, totalValue)
	m.TotalAssets = len(held)
	m.Breakdowns = acc.finish()
	m.TopAssets = topAssets(held)
	m.RecentActivity = recentActivity(activities)

	for _, p := range packs {
		switch p.Status {
		case models.PackStatusUnopened:
			m.UnopenedPacks = append(m.UnopenedPacks, p)
		case models.PackStatusOpened:
			m.OpenedPacks = append(m.OpenedPacks, p)
		case models.PackStatusSold:
			m.SoldPacks = append(m.SoldPacks, p)
		}
	}

	return m
}

// Combine merges per-platform metrics into one view. Scalars are summed and
// ratios re-derived from the sums, so combining is associative for every
// scalar field. Change percentages are taken over the platforms with history
// for that horizon only.
func Combine(metrics ...models.PortfolioMetrics) models.PortfolioMetrics {
	out := models.EmptyPortfolioMetrics("")

	totalValue := decimal.Zero
	totalProfit := decimal.Zero
	change7d := decimal.Zero
	change30d := decimal.Zero
	basis7d := decimal.Zero
	basis30d := decimal.Zero

	acc := newBreakdownAccumulator()
	var assets []models.Asset
	var activities []models.Activity
	for _, m := range metrics {
		out.Available = out.Available || m.Available
		totalValue = totalValue.Add(decimal.NewFromFloat(m.TotalValue))
		totalProfit = totalProfit.Add(decimal.NewFromFloat(m.TotalProfit))
		change7d = change7d.Add(decimal.NewFromFloat(m.Performance.Change7d))
		change30d = change30d.Add(decimal.NewFromFloat(m.Performance.Change30d))
		if m.Performance.HasHistory7d {
			basis7d = basis7d.Add(decimal.NewFromFloat(m.Performance.Basis7d))
		}
		if m.Performance.HasHistory30d {
			basis30d = basis30d.Add(decimal.NewFromFloat(m.Performance.Basis30d))
		}
		out.Performance.HasHistory7d = out.Performance.HasHistory7d || m.Performance.HasHistory7d
		out.Performance.HasHistory30d = out.Performance.HasHistory30d || m.Performance.HasHistory30d
		out.TotalAssets += m.TotalAssets
		out.SkippedRecords += m.SkippedRecords

		acc.merge(m.Breakdowns)

		assets = append(assets, m.TopAssets...)
		activities = append(activities, m.RecentActivity...)
		out.UnopenedPacks = append(out.UnopenedPacks, m.UnopenedPacks...)
		out.OpenedPacks = append(out.OpenedPacks, m.OpenedPacks...)
		out.SoldPacks = append(out.SoldPacks, m.SoldPacks...)
	}

	out.TotalValue = roundMoney(totalValue)
	out.TotalProfit = roundMoney(totalProfit)
	out.ROI = percentOf(totalProfit, totalValue)
	out.Breakdowns = acc.finish()
	out.Performance.Change7d = roundMoney(change7d)
	out.Performance.Change30d = roundMoney(change30d)
	out.Performance.Change7dPct = changePercent(change7d, basis7d)
	out.Performance.Change30dPct = changePercent(change30d, basis30d)
	out.Performance.Basis7d = roundMoney(basis7d)
	out.Performance.Basis30d = roundMoney(basis30d)
	out.TopAssets = topAssets(assets)
	out.RecentActivity = recentActivity(activities)
	return out
}

// topAssets returns a new slice of the most valuable assets. Equal prices
// keep their input order.
func topAssets(assets []models.Asset) []models.Asset {
	sorted := make([]models.Asset, len(assets))
	copy(sorted, assets)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].CurrentPrice > sorted[j].CurrentPrice
	})
	if len(sorted) > TopAssetsLimit {
		sorted = sorted[:TopAssetsLimit]
	}
	return sorted
}

func recentActivity(activities []models.Activity) []models.Activity {
	sorted := make([]models.Activity, len(activities))
	copy(sorted, activities)
	models.SortActivitiesByRecency(sorted)
	if len(sorted) > RecentActivityLimit {
		sorted = sorted[:RecentActivityLimit]
	}
	return sorted
}

// breakdownTable accumulates one category table. Percentages are only
// computed by normalize, after every row has been folded in.
type breakdownTable map[string]*breakdownRow

type breakdownRow struct {
	count int
	value decimal.Decimal
}

func (t breakdownTable) add(key string, count int, value decimal.Decimal) {
	if key == "" {
		key = "Unknown"
	}
	row, ok := t[key]
	if !ok {
		row = &breakdownRow{value: decimal.Zero}
		t[key] = row
	}
	row.count += count
	row.value = row.value.Add(value)
}

func (t breakdownTable) merge(b models.Breakdown) {
	for key, entry := range b {
		t.add(key, entry.Count, decimal.NewFromFloat(entry.Value))
	}
}

func (t breakdownTable) normalize() models.Breakdown {
	total := decimal.Zero
	for _, row := range t {
		total = total.Add(row.value)
	}

	out := make(models.Breakdown, len(t))
	for key, row := range t {
		out[key] = models.BreakdownEntry{
			Count:      row.count,
			Value:      roundMoney(row.value),
			Percentage: percentOf(row.value, total),
		}
	}
	return out
}

type breakdownAccumulator struct {
	byRarity, byTeam, byPlayer, bySet breakdownTable
}

func newBreakdownAccumulator() *breakdownAccumulator {
	return &breakdownAccumulator{
		byRarity: breakdownTable{},
		byTeam:   breakdownTable{},
		byPlayer: breakdownTable{},
		bySet:    breakdownTable{},
	}
}

func (b *breakdownAccumulator) add(a models.Asset, price decimal.Decimal) {
	b.byRarity.add(string(a.Rarity), 1, price)
	b.byTeam.add(a.Team, 1, price)
	b.byPlayer.add(a.Player, 1, price)
	b.bySet.add(a.SetName, 1, price)
}

func (b *breakdownAccumulator) merge(bd models.Breakdowns) {
	b.byRarity.merge(bd.ByRarity)
	b.byTeam.merge(bd.ByTeam)
	b.byPlayer.merge(bd.ByPlayer)
	b.bySet.merge(bd.BySet)
}

func (b *breakdownAccumulator) finish() models.Breakdowns {
	return models.Breakdowns{
		ByRarity: b.byRarity.normalize(),
		ByTeam:   b.byTeam.normalize(),
		ByPlayer: b.byPlayer.normalize(),
		BySet:    b.bySet.normalize(),
	}
}

// percentOf returns part/whole*100 rounded to two places, 0 when whole is 0
func percentOf(part, whole decimal.Decimal) float64 {
	if whole.IsZero() {
		return 0
	}
	return part.Div(whole).Mul(hundred).Round(2).InexactFloat64()
}

// changePercent expresses a change relative to the value before it
func changePercent(change, current decimal.Decimal) float64 {
	return percentOf(change, current.Sub(change))
}

func roundMoney(d decimal.Decimal) float64 {
	return d.Round(2).InexactFloat64()
}
