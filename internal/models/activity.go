package models

import (
	"sort"
	"strings"
	"time"
)

// ActivityType is the kind of event recorded against an owner
type ActivityType string

const (
	ActivityBuy      ActivityType = "buy"
	ActivitySell     ActivityType = "sell"
	ActivityPackOpen ActivityType = "pack_open"
	ActivityPackSell ActivityType = "pack_sell"
	ActivityTransfer ActivityType = "transfer"
)

// ParseActivityType matches the canonical activity names case-insensitively
func ParseActivityType(s string) (ActivityType, bool) {
	switch t := ActivityType(strings.ToLower(strings.TrimSpace(s))); t {
	case ActivityBuy, ActivitySell, ActivityPackOpen, ActivityPackSell, ActivityTransfer:
		return t, true
	default:
		return "", false
	}
}

// Activity is an immutable, timestamped event. Produced is only set for
// pack_open events.
type Activity struct {
	ID        string       `json:"id"`
	Type      ActivityType `json:"type"`
	Platform  Platform     `json:"platform"`
	AssetID   string       `json:"asset_id,omitempty"`
	PackID    string       `json:"pack_id,omitempty"`
	Amount    float64      `json:"amount"`
	Quantity  int          `json:"quantity"`
	Timestamp time.Time    `json:"timestamp"`
	Produced  []Asset      `json:"produced,omitempty"`
}

// SortActivitiesByRecency orders activities newest first, in place.
// Equal timestamps keep their relative order.
func SortActivitiesByRecency(activities []Activity) {
	sort.SliceStable(activities, func(i, j int) bool {
		return activities[i].Timestamp.After(activities[j].Timestamp)
	})
}
