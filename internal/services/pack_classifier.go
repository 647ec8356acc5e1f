package services

import (
	"github.com/shopspring/decimal"

	"github.com/codyseavey/cardfolio/backend/internal/models"
)

// Pack recommendations
const (
	RecommendProfitable    = "profitable, consider holding or selling"
	RecommendUnderwater    = "underwater, consider averaging down"
	RecommendHighPotential = "high potential, consider opening"
	RecommendModerate      = "moderate potential"
	RecommendLowPotential  = "low potential, consider selling unopened"
)

// PackThresholds are the tunable cut-offs of the pack classifier
type PackThresholds struct {
	// A sale above EstimatedValue * PerfectMultiplier is perfectly timed
	PerfectMultiplier float64
	// An unopened pack whose expected profit exceeds PurchasePrice * HighPotentialRatio
	// is worth opening
	HighPotentialRatio float64
}

// DefaultPackThresholds returns the standard thresholds (1.2x, 30%)
func DefaultPackThresholds() PackThresholds {
	return PackThresholds{
		PerfectMultiplier:  1.2,
		HighPotentialRatio: 0.3,
	}
}

// PackClassifier computes per-pack P&L and timing verdicts
type PackClassifier struct {
	thresholds PackThresholds
}

// NewPackClassifier creates a classifier. Non-positive thresholds fall back
// to the defaults.
func NewPackClassifier(t PackThresholds) *PackClassifier {
	def := DefaultPackThresholds()
	if t.PerfectMultiplier <= 0 {
		t.PerfectMultiplier = def.PerfectMultiplier
	}
	if t.HighPotentialRatio <= 0 {
		t.HighPotentialRatio = def.HighPotentialRatio
	}
	return &PackClassifier{thresholds: t}
}

// Timing grades a sale of s against the estimated content value e.
// Rules are checked in priority order and exactly one verdict is returned.
func (c *PackClassifier) Timing(sellPrice, estimatedValue float64) models.TimingVerdict {
	switch {
	case estimatedValue > sellPrice:
		return models.TimingEarly
	case sellPrice > estimatedValue*c.thresholds.PerfectMultiplier:
		return models.TimingPerfect
	case sellPrice > estimatedValue:
		return models.TimingGood
	default:
		return models.TimingPoor
	}
}

// Analyze computes the profit, percentage and verdict or recommendation of a
// single pack
func (c *PackClassifier) Analyze(p models.Pack) models.PackAnalysis {
	invested := decimal.NewFromFloat(p.PurchasePrice)
	value := decimal.NewFromFloat(p.EstimatedValue)
	sold := p.Status == models.PackStatusSold && p.SellPrice != nil
	if sold {
		value = decimal.NewFromFloat(*p.SellPrice)
	}
	profit := value.Sub(invested)

	a := models.PackAnalysis{
		PackID:     p.ID,
		Name:       p.Name,
		Platform:   p.Platform,
		Status:     p.Status,
		Invested:   roundMoney(invested),
		Value:      roundMoney(value),
		Profit:     roundMoney(profit),
		Percentage: percentOf(profit, invested),
	}

	switch {
	case sold:
		a.Timing = c.Timing(*p.SellPrice, p.EstimatedValue)
		a.SoldSealed = p.SoldSealed()
	case p.Status == models.PackStatusOpened:
		if profit.IsPositive() {
			a.Recommendation = RecommendProfitable
		} else {
			a.Recommendation = RecommendUnderwater
		}
	default:
		highBar := invested.Mul(decimal.NewFromFloat(c.thresholds.HighPotentialRatio))
		switch {
		case profit.GreaterThan(highBar):
			a.Recommendation = RecommendHighPotential
		case profit.IsPositive():
			a.Recommendation = RecommendModerate
		default:
			a.Recommendation = RecommendLowPotential
		}
	}
	return a
}

// Summarize rolls up every pack regardless of state. Best and worst packs are
// chosen by percentage; ties keep the first pack encountered.
func (c *PackClassifier) Summarize(packs []models.Pack) models.PackSummary {
	s := models.PackSummary{
		TotalPacks: len(packs),
		Packs:      make([]models.PackAnalysis, 0, len(packs)),
	}

	invested := decimal.Zero
	value := decimal.Zero
	best, worst := -1, -1

	for _, p := range packs {
		a := c.Analyze(p)
		s.Packs = append(s.Packs, a)
		invested = invested.Add(decimal.NewFromFloat(a.Invested))
		value = value.Add(decimal.NewFromFloat(a.Value))

		switch p.Status {
		case models.PackStatusUnopened:
			s.UnopenedCount++
		case models.PackStatusOpened:
			s.OpenedCount++
		case models.PackStatusSold:
			s.SoldCount++
			if a.SoldSealed {
				s.SoldSealed++
			}
		}
		switch a.Timing {
		case models.TimingPerfect:
			s.PerfectCount++
		case models.TimingGood:
			s.GoodCount++
		case models.TimingEarly:
			s.EarlyCount++
		case models.TimingPoor:
			s.PoorCount++
		}

		i := len(s.Packs) - 1
		if best < 0 || a.Percentage > s.Packs[best].Percentage {
			best = i
		}
		if worst < 0 || a.Percentage < s.Packs[worst].Percentage {
			worst = i
		}
	}

	profit := value.Sub(invested)
	s.TotalInvested = roundMoney(invested)
	s.TotalValue = roundMoney(value)
	s.TotalProfit = roundMoney(profit)
	s.ROI = percentOf(profit, invested)
	s.TimingScore = percentOf(decimal.NewFromInt(int64(s.PerfectCount+s.GoodCount)), decimal.NewFromInt(int64(s.SoldCount)))

	if best >= 0 {
		b, w := s.Packs[best], s.Packs[worst]
		s.BestPack, s.WorstPack = &b, &w
	}
	return s
}
