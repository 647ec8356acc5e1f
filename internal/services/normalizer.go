package services

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"

	"github.com/codyseavey/cardfolio/backend/internal/adapters"
	"github.com/codyseavey/cardfolio/backend/internal/models"
)

// Defaults substituted for missing optional fields
const (
	defaultPrice    = 0.0
	defaultSerial   = "0"
	defaultQuantity = 1
)

// SkipCounts reports raw records dropped for a missing identifier
type SkipCounts struct {
	Assets     int `json:"assets"`
	Activities int `json:"activities"`
	Packs      int `json:"packs"`
}

// Total returns the number of skipped records of every kind
func (s SkipCounts) Total() int {
	return s.Assets + s.Activities + s.Packs
}

// NormalizeResult holds the canonical entities decoded from one raw batch
type NormalizeResult struct {
	Platform   models.Platform
	Assets     []models.Asset
	Activities []models.Activity
	Packs      []models.Pack
	Skipped    SkipCounts
}

// Normalizer converts raw adapter records into canonical entities using the
// schema registered for each platform
type Normalizer struct {
	schemas map[models.Platform]Schema
}

// NewNormalizer creates a normalizer for the given schemas
func NewNormalizer(schemas ...Schema) *Normalizer {
	n := &Normalizer{schemas: make(map[models.Platform]Schema, len(schemas))}
	for _, s := range schemas {
		n.schemas[s.Platform] = s
	}
	return n
}

// Normalize decodes a raw batch for a platform. Records missing their
// identifier are skipped and counted; missing optional fields take defaults.
// Only an unknown platform is an error.
func (n *Normalizer) Normalize(batch adapters.RawBatch, platform models.Platform) (NormalizeResult, error) {
	schema, ok := n.schemas[platform]
	if !ok {
		return NormalizeResult{}, fmt.Errorf("%w: %s", ErrUnknownPlatform, platform)
	}

	result := NormalizeResult{
		Platform:   platform,
		Assets:     make([]models.Asset, 0, len(batch.Assets)),
		Activities: make([]models.Activity, 0, len(batch.Activities)),
		Packs:      make([]models.Pack, 0, len(batch.Packs)),
	}

	for _, raw := range batch.Assets {
		asset, ok := schema.asset(parseRecord(raw))
		if !ok {
			result.Skipped.Assets++
			continue
		}
		result.Assets = append(result.Assets, asset)
	}

	for _, raw := range batch.Activities {
		activity, skipped, ok := schema.activity(parseRecord(raw))
		result.Skipped.Assets += skipped
		if !ok {
			result.Skipped.Activities++
			continue
		}
		result.Activities = append(result.Activities, activity)
	}

	for _, raw := range batch.Packs {
		pack, skipped, ok := schema.pack(parseRecord(raw))
		result.Skipped.Assets += skipped
		if !ok {
			result.Skipped.Packs++
			continue
		}
		result.Packs = append(result.Packs, pack)
	}

	return result, nil
}

func parseRecord(raw json.RawMessage) gjson.Result {
	if !gjson.ValidBytes(raw) {
		return gjson.Result{}
	}
	rec := gjson.ParseBytes(raw)
	if !rec.IsObject() {
		return gjson.Result{}
	}
	return rec
}

func (s Schema) asset(rec gjson.Result) (models.Asset, bool) {
	id := lookupString(rec, s.Assets.ID)
	if id == "" {
		return models.Asset{}, false
	}

	a := models.Asset{
		ID:           id,
		Platform:     s.Platform,
		Player:       lookupString(rec, s.Assets.Player),
		Team:         lookupString(rec, s.Assets.Team),
		Category:     lookupString(rec, s.Assets.Category),
		SetName:      lookupString(rec, s.Assets.SetName),
		Series:       lookupString(rec, s.Assets.Series),
		Serial:       lookupString(rec, s.Assets.Serial),
		CurrentPrice: defaultPrice,
		Rarity:       s.rarity(lookupString(rec, s.Assets.Rarity)),
		PackID:       lookupString(rec, s.Assets.PackID),
		IsPack:       lookup(rec, s.Assets.IsPack).Bool(),
	}
	if a.Serial == "" {
		a.Serial = defaultSerial
	}
	if price, ok := lookupFloat(rec, s.Assets.CurrentPrice); ok {
		a.CurrentPrice = price
	}
	if price, ok := lookupFloat(rec, s.Assets.AcquisitionPrice); ok {
		a.AcquisitionPrice = &price
	}
	if at, ok := lookupTime(rec, s.Assets.AcquiredAt); ok {
		a.AcquiredAt = &at
	}
	return a, true
}

// assetList decodes a nested list of asset records. The second return value
// is the number of entries skipped for a missing identifier.
func (s Schema) assetList(rec gjson.Result, paths Paths, packID string) ([]models.Asset, int, bool) {
	list := lookup(rec, paths)
	if !list.IsArray() {
		return nil, 0, false
	}

	assets := []models.Asset{}
	skipped := 0
	for _, item := range list.Array() {
		if !item.IsObject() {
			skipped++
			continue
		}
		a, ok := s.asset(item)
		if !ok {
			skipped++
			continue
		}
		if a.PackID == "" {
			a.PackID = packID
		}
		assets = append(assets, a)
	}
	return assets, skipped, true
}

func (s Schema) activity(rec gjson.Result) (models.Activity, int, bool) {
	id := lookupString(rec, s.Activities.ID)
	if id == "" {
		return models.Activity{}, 0, false
	}

	act := models.Activity{
		ID:       id,
		Type:     s.activityType(lookupString(rec, s.Activities.Type)),
		Platform: s.Platform,
		AssetID:  lookupString(rec, s.Activities.AssetID),
		PackID:   lookupString(rec, s.Activities.PackID),
		Amount:   defaultPrice,
		Quantity: defaultQuantity,
	}
	if amount, ok := lookupFloat(rec, s.Activities.Amount); ok {
		act.Amount = amount
	}
	if q := lookup(rec, s.Activities.Quantity); q.Exists() && q.Int() > 0 {
		act.Quantity = int(q.Int())
	}
	if ts, ok := lookupTime(rec, s.Activities.Timestamp); ok {
		act.Timestamp = ts
	}

	skipped := 0
	if act.Type == models.ActivityPackOpen {
		produced, n, ok := s.assetList(rec, s.Activities.Produced, act.PackID)
		skipped = n
		if ok {
			act.Produced = produced
		} else {
			act.Produced = []models.Asset{}
		}
	}
	return act, skipped, true
}

func (s Schema) pack(rec gjson.Result) (models.Pack, int, bool) {
	id := lookupString(rec, s.Packs.ID)
	if id == "" {
		return models.Pack{}, 0, false
	}

	p := models.Pack{
		ID:       id,
		Platform: s.Platform,
		Name:     lookupString(rec, s.Packs.Name),
		Status:   models.PackStatusUnopened,
	}
	p.PurchasePrice, _ = lookupFloat(rec, s.Packs.PurchasePrice)
	p.EstimatedValue, _ = lookupFloat(rec, s.Packs.EstimatedValue)
	p.PurchaseDate, _ = lookupTime(rec, s.Packs.PurchaseDate)

	var l packLifecycle
	if at, ok := lookupTime(rec, s.Packs.OpenDate); ok {
		l.openDate = &at
	}
	if at, ok := lookupTime(rec, s.Packs.SellDate); ok {
		l.sellDate = &at
	}
	if price, ok := lookupFloat(rec, s.Packs.SellPrice); ok {
		l.sellPrice = &price
	}
	contents, skipped, hasContents := s.assetList(rec, s.Packs.Contents, id)
	if hasContents {
		l.contents = contents
	}

	status, ok := s.packStatus(lookupString(rec, s.Packs.Status))
	if !ok {
		status = l.inferStatus()
	}
	if err := l.replay(&p, status); err != nil {
		// Replay starts from unopened, so this only fires on a broken transition
		log.WithError(err).WithField("pack", id).Warn("Normalizer: failed to replay pack lifecycle")
	}
	return p, skipped, true
}

// packLifecycle holds the lifecycle fields a platform reported for a pack.
// Any of them may be missing or contradict the reported status.
type packLifecycle struct {
	openDate  *time.Time
	contents  []models.Asset // nil when absent
	sellDate  *time.Time
	sellPrice *float64
}

func (l packLifecycle) opened() bool {
	return l.openDate != nil || l.contents != nil
}

// inferStatus derives a status from whichever lifecycle fields are present
func (l packLifecycle) inferStatus() models.PackStatus {
	switch {
	case l.sellPrice != nil || l.sellDate != nil:
		return models.PackStatusSold
	case l.opened():
		return models.PackStatusOpened
	default:
		return models.PackStatusUnopened
	}
}

// replay moves an unopened pack to status through Open and Sell. The status
// a platform reports is trusted over stray or missing fields: a missing open
// date is the purchase date, a missing sell date is the open date and a
// missing sell price is zero.
func (l packLifecycle) replay(p *models.Pack, status models.PackStatus) error {
	openAt := p.PurchaseDate
	if l.openDate != nil {
		openAt = *l.openDate
	}

	if status == models.PackStatusOpened || (status == models.PackStatusSold && l.opened()) {
		if err := p.Open(openAt, l.contents); err != nil {
			return err
		}
	}
	if status != models.PackStatusSold {
		return nil
	}

	price := defaultPrice
	if l.sellPrice != nil {
		price = *l.sellPrice
	}
	sellAt := openAt
	if l.sellDate != nil {
		sellAt = *l.sellDate
	}
	return p.Sell(sellAt, price)
}

func lookup(rec gjson.Result, paths Paths) gjson.Result {
	for _, path := range paths {
		if r := rec.Get(path); r.Exists() && r.Type != gjson.Null {
			return r
		}
	}
	return gjson.Result{}
}

func lookupString(rec gjson.Result, paths Paths) string {
	return strings.TrimSpace(lookup(rec, paths).String())
}

// lookupFloat accepts JSON numbers and numeric strings such as "12.50" or "$12.50"
func lookupFloat(rec gjson.Result, paths Paths) (float64, bool) {
	r := lookup(rec, paths)
	switch r.Type {
	case gjson.Number:
		return r.Float(), true
	case gjson.String:
		s := strings.TrimPrefix(strings.TrimSpace(r.Str), "$")
		v, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64)
		if err != nil {
			return 0, false
		}
		return v, true
	default:
		return 0, false
	}
}

// lookupTime accepts RFC 3339 strings and unix timestamps in seconds or
// milliseconds
func lookupTime(rec gjson.Result, paths Paths) (time.Time, bool) {
	r := lookup(rec, paths)
	switch r.Type {
	case gjson.String:
		if t, err := time.Parse(time.RFC3339, r.Str); err == nil {
			return t.UTC(), true
		}
		if secs, err := strconv.ParseInt(r.Str, 10, 64); err == nil {
			return unixTime(secs), true
		}
		return time.Time{}, false
	case gjson.Number:
		return unixTime(r.Int()), true
	default:
		return time.Time{}, false
	}
}

func unixTime(v int64) time.Time {
	if v > 1e12 {
		return time.UnixMilli(v).UTC()
	}
	return time.Unix(v, 0).UTC()
}
