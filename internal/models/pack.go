package models

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// PackStatus is the lifecycle state of a pack: unopened -> opened -> sold,
// or unopened -> sold when a sealed pack is resold.
type PackStatus string

const (
	PackStatusUnopened PackStatus = "unopened"
	PackStatusOpened   PackStatus = "opened"
	PackStatusSold     PackStatus = "sold"
)

// ErrInvalidTransition is returned when a pack transition would move its
// lifecycle backwards or repeat a state
var ErrInvalidTransition = errors.New("invalid pack transition")

// NormalizePackStatus maps status strings to a PackStatus.
// Returns false for unknown values.
func NormalizePackStatus(s string) (PackStatus, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "unopened", "sealed", "new":
		return PackStatusUnopened, true
	case "opened", "open", "ripped":
		return PackStatusOpened, true
	case "sold", "listed_sold", "resold":
		return PackStatusSold, true
	default:
		return "", false
	}
}

// Pack is a sealed (or formerly sealed) purchase unit.
//
// SellDate and SellPrice are set if and only if Status is sold. OpenDate and
// Contents are set when the pack was opened, which is always the case for
// opened packs and for sold packs that were opened before being sold.
type Pack struct {
	ID             string     `json:"id"`
	Platform       Platform   `json:"platform"`
	Name           string     `json:"name"`
	PurchasePrice  float64    `json:"purchase_price"`
	PurchaseDate   time.Time  `json:"purchase_date"`
	EstimatedValue float64    `json:"estimated_value"`
	Status         PackStatus `json:"status"`
	OpenDate       *time.Time `json:"open_date,omitempty"`
	Contents       []Asset    `json:"contents,omitempty"`
	SellDate       *time.Time `json:"sell_date,omitempty"`
	SellPrice      *float64   `json:"sell_price,omitempty"`
}

// Open transitions an unopened pack to opened and records its contents
func (p *Pack) Open(at time.Time, contents []Asset) error {
	if p.Status != PackStatusUnopened {
		return fmt.Errorf("%w: cannot open %s pack %s", ErrInvalidTransition, p.Status, p.ID)
	}
	if contents == nil {
		contents = []Asset{}
	}
	p.Status = PackStatusOpened
	p.OpenDate = &at
	p.Contents = contents
	return nil
}

// Sell transitions an unopened or opened pack to sold
func (p *Pack) Sell(at time.Time, price float64) error {
	if p.Status == PackStatusSold {
		return fmt.Errorf("%w: pack %s is already sold", ErrInvalidTransition, p.ID)
	}
	p.Status = PackStatusSold
	p.SellDate = &at
	p.SellPrice = &price
	return nil
}

// SoldSealed reports whether the pack was sold without being opened
func (p Pack) SoldSealed() bool {
	return p.Status == PackStatusSold && p.OpenDate == nil
}

// Validate checks the status/field invariants
func (p Pack) Validate() error {
	sold := p.Status == PackStatusSold
	if (p.SellPrice != nil) != sold || (p.SellDate != nil) != sold {
		return fmt.Errorf("pack %s: sell fields must be present only when sold (status %s)", p.ID, p.Status)
	}

	opened := p.OpenDate != nil || p.Contents != nil
	switch p.Status {
	case PackStatusUnopened:
		if opened {
			return fmt.Errorf("pack %s: unopened pack has open date or contents", p.ID)
		}
	case PackStatusOpened:
		if p.OpenDate == nil || p.Contents == nil {
			return fmt.Errorf("pack %s: opened pack needs open date and contents", p.ID)
		}
	case PackStatusSold:
		if (p.OpenDate == nil) != (p.Contents == nil) {
			return fmt.Errorf("pack %s: open date and contents must be set together", p.ID)
		}
	default:
		return fmt.Errorf("pack %s: unknown status %q", p.ID, p.Status)
	}
	return nil
}

// TimingVerdict grades how well a sold pack's sale was timed against the
// estimated value of its contents
type TimingVerdict string

const (
	TimingPerfect TimingVerdict = "perfect"
	TimingGood    TimingVerdict = "good"
	TimingEarly   TimingVerdict = "early"
	TimingPoor    TimingVerdict = "poor"
)

// PackAnalysis is the profit/loss view of a single pack
type PackAnalysis struct {
	PackID         string        `json:"pack_id"`
	Name           string        `json:"name"`
	Platform       Platform      `json:"platform"`
	Status         PackStatus    `json:"status"`
	Invested       float64       `json:"invested"`
	Value          float64       `json:"value"` // sell price when sold, estimated value otherwise
	Profit         float64       `json:"profit"`
	Percentage     float64       `json:"percentage"`
	Timing         TimingVerdict `json:"timing,omitempty"` // only for sold packs
	SoldSealed     bool          `json:"sold_sealed,omitempty"`
	Recommendation string        `json:"recommendation,omitempty"`
}

// PackSummary rolls up every pack an owner holds or has held
type PackSummary struct {
	TotalPacks    int            `json:"total_packs"`
	UnopenedCount int            `json:"unopened_count"`
	OpenedCount   int            `json:"opened_count"`
	SoldCount     int            `json:"sold_count"`
	SoldSealed    int            `json:"sold_sealed_count"`
	TotalInvested float64        `json:"total_invested"`
	TotalValue    float64        `json:"total_value"`
	TotalProfit   float64        `json:"total_profit"`
	ROI           float64        `json:"roi"`
	PerfectCount  int            `json:"perfect_count"`
	GoodCount     int            `json:"good_count"`
	EarlyCount    int            `json:"early_count"`
	PoorCount     int            `json:"poor_count"`
	TimingScore   float64        `json:"timing_score"`
	BestPack      *PackAnalysis  `json:"best_pack,omitempty"`
	WorstPack     *PackAnalysis  `json:"worst_pack,omitempty"`
	Packs         []PackAnalysis `json:"packs"`
}
