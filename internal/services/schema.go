package services

import (
	"strings"

	"github.com/codyseavey/cardfolio/backend/internal/models"
)

// Paths lists alternative gjson paths for one canonical field, tried in order.
// The first path that resolves to a non-null value wins.
type Paths []string

// AssetSchema maps a platform's asset record onto models.Asset
type AssetSchema struct {
	ID               Paths
	Player           Paths
	Team             Paths
	Category         Paths
	SetName          Paths
	Series           Paths
	Serial           Paths
	CurrentPrice     Paths
	AcquisitionPrice Paths
	Rarity           Paths
	PackID           Paths
	IsPack           Paths
	AcquiredAt       Paths
}

// ActivitySchema maps a platform's activity record onto models.Activity
type ActivitySchema struct {
	ID        Paths
	Type      Paths
	AssetID   Paths
	PackID    Paths
	Amount    Paths
	Quantity  Paths
	Timestamp Paths
	Produced  Paths
}

// PackSchema maps a platform's pack record onto models.Pack
type PackSchema struct {
	ID             Paths
	Name           Paths
	PurchasePrice  Paths
	PurchaseDate   Paths
	EstimatedValue Paths
	Status         Paths
	OpenDate       Paths
	Contents       Paths
	SellDate       Paths
	SellPrice      Paths
}

// Schema describes how one platform shapes its raw records
type Schema struct {
	Platform   models.Platform
	Assets     AssetSchema
	Activities ActivitySchema
	Packs      PackSchema

	// Platform vocabulary, keyed by lower-cased raw value
	Rarities      map[string]models.Rarity
	ActivityTypes map[string]models.ActivityType
	PackStatuses  map[string]models.PackStatus
}

func (s Schema) rarity(raw string) models.Rarity {
	if r, ok := s.Rarities[strings.ToLower(strings.TrimSpace(raw))]; ok {
		return r
	}
	return models.NormalizeRarity(raw)
}

// activityType resolves a raw event name. Unknown names are treated as
// transfers, which carry no P&L.
func (s Schema) activityType(raw string) models.ActivityType {
	if t, ok := s.ActivityTypes[strings.ToLower(strings.TrimSpace(raw))]; ok {
		return t
	}
	if t, ok := models.ParseActivityType(raw); ok {
		return t
	}
	return models.ActivityTransfer
}

func (s Schema) packStatus(raw string) (models.PackStatus, bool) {
	if st, ok := s.PackStatuses[strings.ToLower(strings.TrimSpace(raw))]; ok {
		return st, true
	}
	return models.NormalizePackStatus(raw)
}

// Field paths shared by every platform; platform schemas list their own
// native paths first.
var (
	commonAssetSchema = AssetSchema{
		ID:               Paths{"id", "assetId", "asset_id"},
		Player:           Paths{"player", "playerName", "player_name"},
		Team:             Paths{"team", "teamName", "team_name"},
		Category:         Paths{"category", "playCategory", "play_category"},
		SetName:          Paths{"setName", "set_name", "set.name"},
		Series:           Paths{"series", "seriesName", "series_name"},
		Serial:           Paths{"serial", "serialNumber", "serial_number"},
		CurrentPrice:     Paths{"currentPrice", "current_price", "price"},
		AcquisitionPrice: Paths{"acquisitionPrice", "acquisition_price", "purchasePrice", "purchase_price"},
		Rarity:           Paths{"rarity", "tier"},
		PackID:           Paths{"packId", "pack_id"},
		IsPack:           Paths{"isPack", "is_pack"},
		AcquiredAt:       Paths{"acquiredAt", "acquired_at"},
	}

	commonActivitySchema = ActivitySchema{
		ID:        Paths{"id", "eventId", "event_id", "txId"},
		Type:      Paths{"type", "eventType", "event_type"},
		AssetID:   Paths{"assetId", "asset_id", "momentId"},
		PackID:    Paths{"packId", "pack_id"},
		Amount:    Paths{"amount", "price"},
		Quantity:  Paths{"quantity", "qty"},
		Timestamp: Paths{"timestamp", "createdAt", "created_at"},
		Produced:  Paths{"produced", "assets", "moments"},
	}

	commonPackSchema = PackSchema{
		ID:             Paths{"id", "packId", "pack_id"},
		Name:           Paths{"name", "packName", "pack_name"},
		PurchasePrice:  Paths{"purchasePrice", "purchase_price", "price"},
		PurchaseDate:   Paths{"purchaseDate", "purchase_date", "purchasedAt"},
		EstimatedValue: Paths{"estimatedValue", "estimated_value"},
		Status:         Paths{"status"},
		OpenDate:       Paths{"openDate", "open_date", "openedAt"},
		Contents:       Paths{"contents", "moments"},
		SellDate:       Paths{"sellDate", "sell_date", "soldAt"},
		SellPrice:      Paths{"sellPrice", "sell_price", "soldPrice"},
	}

	commonActivityTypes = map[string]models.ActivityType{
		"purchase":     models.ActivityBuy,
		"purchased":    models.ActivityBuy,
		"bought":       models.ActivityBuy,
		"sale":         models.ActivitySell,
		"sold":         models.ActivitySell,
		"listing_sold": models.ActivitySell,
		"pack_opened":  models.ActivityPackOpen,
		"open_pack":    models.ActivityPackOpen,
		"pack_sold":    models.ActivityPackSell,
		"deposit":      models.ActivityTransfer,
		"withdraw":     models.ActivityTransfer,
		"gift":         models.ActivityTransfer,
	}
)

// DefaultSchemas returns the schemas for every supported platform
func DefaultSchemas() []Schema {
	return []Schema{
		topShotSchema(),
		allDaySchema(),
		pinnacleSchema(),
	}
}

func topShotSchema() Schema {
	return Schema{
		Platform: models.PlatformTopShot,
		Assets: AssetSchema{
			ID:               prepend(commonAssetSchema.ID, "flowId"),
			Player:           prepend(commonAssetSchema.Player, "play.stats.playerName"),
			Team:             prepend(commonAssetSchema.Team, "play.stats.teamAtMoment"),
			Category:         prepend(commonAssetSchema.Category, "play.stats.playCategory"),
			SetName:          prepend(commonAssetSchema.SetName, "set.flowName"),
			Series:           prepend(commonAssetSchema.Series, "set.flowSeriesNumber"),
			Serial:           prepend(commonAssetSchema.Serial, "flowSerialNumber"),
			CurrentPrice:     prepend(commonAssetSchema.CurrentPrice, "lowestAsk", "marketPrice"),
			AcquisitionPrice: commonAssetSchema.AcquisitionPrice,
			Rarity:           commonAssetSchema.Rarity,
			PackID:           prepend(commonAssetSchema.PackID, "packListingId"),
			IsPack:           commonAssetSchema.IsPack,
			AcquiredAt:       commonAssetSchema.AcquiredAt,
		},
		Activities: commonActivitySchema,
		Packs:      commonPackSchema,
		Rarities: map[string]models.Rarity{
			"moment_tier_common":    models.RarityCommon,
			"moment_tier_fandom":    models.RarityCommon,
			"moment_tier_rare":      models.RarityRare,
			"moment_tier_legendary": models.RarityLegendary,
			"moment_tier_ultimate":  models.RarityUltimate,
		},
		ActivityTypes: withTypes(commonActivityTypes, map[string]models.ActivityType{
			"moment_purchased":   models.ActivityBuy,
			"moment_sold":        models.ActivitySell,
			"pack_opened":        models.ActivityPackOpen,
			"pack_purchased":     models.ActivityBuy,
			"pack_listing_sold":  models.ActivityPackSell,
			"moment_transferred": models.ActivityTransfer,
		}),
	}
}

func allDaySchema() Schema {
	return Schema{
		Platform: models.PlatformAllDay,
		Assets: AssetSchema{
			ID:               commonAssetSchema.ID,
			Player:           prepend(commonAssetSchema.Player, "edition.play.metadata.playerFullName"),
			Team:             prepend(commonAssetSchema.Team, "edition.play.metadata.teamName"),
			Category:         prepend(commonAssetSchema.Category, "edition.play.metadata.playType"),
			SetName:          prepend(commonAssetSchema.SetName, "edition.set.name"),
			Series:           prepend(commonAssetSchema.Series, "edition.series.name"),
			Serial:           commonAssetSchema.Serial,
			CurrentPrice:     prepend(commonAssetSchema.CurrentPrice, "lowestListing"),
			AcquisitionPrice: commonAssetSchema.AcquisitionPrice,
			Rarity:           prepend(commonAssetSchema.Rarity, "edition.tier"),
			PackID:           commonAssetSchema.PackID,
			IsPack:           commonAssetSchema.IsPack,
			AcquiredAt:       commonAssetSchema.AcquiredAt,
		},
		Activities: ActivitySchema{
			ID:        commonActivitySchema.ID,
			Type:      prepend(commonActivitySchema.Type, "kind"),
			AssetID:   prepend(commonActivitySchema.AssetID, "nftId"),
			PackID:    commonActivitySchema.PackID,
			Amount:    prepend(commonActivitySchema.Amount, "salePrice"),
			Quantity:  commonActivitySchema.Quantity,
			Timestamp: prepend(commonActivitySchema.Timestamp, "blockTimestamp"),
			Produced:  prepend(commonActivitySchema.Produced, "nfts"),
		},
		Packs: commonPackSchema,
		ActivityTypes: withTypes(commonActivityTypes, map[string]models.ActivityType{
			"nft_purchased": models.ActivityBuy,
			"nft_sold":      models.ActivitySell,
			"pack_ripped":   models.ActivityPackOpen,
		}),
	}
}

func pinnacleSchema() Schema {
	return Schema{
		Platform: models.PlatformPinnacle,
		Assets: AssetSchema{
			ID:               prepend(commonAssetSchema.ID, "pinId"),
			Player:           prepend(commonAssetSchema.Player, "character", "shape.character"),
			Team:             prepend(commonAssetSchema.Team, "franchise", "studio"),
			Category:         prepend(commonAssetSchema.Category, "variant"),
			SetName:          prepend(commonAssetSchema.SetName, "shape.setName"),
			Series:           prepend(commonAssetSchema.Series, "edition.series"),
			Serial:           prepend(commonAssetSchema.Serial, "edition.serial"),
			CurrentPrice:     prepend(commonAssetSchema.CurrentPrice, "floorPrice"),
			AcquisitionPrice: commonAssetSchema.AcquisitionPrice,
			Rarity:           prepend(commonAssetSchema.Rarity, "edition.type", "editionType"),
			PackID:           commonAssetSchema.PackID,
			IsPack:           commonAssetSchema.IsPack,
			AcquiredAt:       commonAssetSchema.AcquiredAt,
		},
		Activities: commonActivitySchema,
		Packs:      commonPackSchema,
		Rarities: map[string]models.Rarity{
			"open edition":    models.RarityCommon,
			"limited edition": models.RarityRare,
			"legendary":       models.RarityLegendary,
			"chaser":          models.RarityUltimate,
		},
		ActivityTypes: commonActivityTypes,
		PackStatuses: map[string]models.PackStatus{
			"unrevealed": models.PackStatusUnopened,
			"revealed":   models.PackStatusOpened,
		},
	}
}

func prepend(base Paths, first ...string) Paths {
	out := make(Paths, 0, len(first)+len(base))
	out = append(out, first...)
	return append(out, base...)
}

func withTypes(base, extra map[string]models.ActivityType) map[string]models.ActivityType {
	out := make(map[string]models.ActivityType, len(base)+len(extra))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range extra {
		out[k] = v
	}
	return out
}
