package market

import (
	"context"

	"github.com/aristath/flipper/internal/clients/hypixel"
	"github.com/aristath/flipper/internal/clients/mojang"
	"github.com/aristath/flipper/internal/domain"
)

// HypixelAPI is the subset of the Hypixel client used by the market service.
type HypixelAPI interface {
	HasAPIKey() bool
	GetBazaar(ctx context.Context) (map[domain.ItemID]domain.Quote, error)
	GetItems(ctx context.Context) ([]hypixel.Item, error)
	GetProfiles(ctx context.Context, playerUUID string) ([]domain.Profile, error)
	GetProfile(ctx context.Context, profileID string) (*domain.Profile, error)
}

// LowestBINAPI provides the auction fallback prices.
type LowestBINAPI interface {
	GetPrices(ctx context.Context) (map[domain.ItemID]float64, error)
}

// IdentityAPI resolves usernames to player uuids.
type IdentityAPI interface {
	LookupUUID(ctx context.Context, username string) (*mojang.Identity, error)
}
