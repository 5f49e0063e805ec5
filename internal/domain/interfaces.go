package domain

import "context"

// ResolutionKind says how free text was mapped to an item id.
type ResolutionKind string

const (
	ResolutionExact       ResolutionKind = "exact"
	ResolutionApproximate ResolutionKind = "approximate"
	ResolutionUnverified  ResolutionKind = "unverified"
)

// Resolution is the outcome of resolving operator input to an item id.
type Resolution struct {
	Query       string         `json:"query"`
	ItemID      ItemID         `json:"item_id"`
	Kind        ResolutionKind `json:"kind"`
	MatchedName string         `json:"matched_name,omitempty"`
	// Fallback is the normalized raw input, used when an approximate match is rejected.
	Fallback ItemID `json:"fallback"`
}

// MarketData is what the polling loop needs from the market data client.
// This interface breaks the dependency between the session controller and the HTTP clients.
type MarketData interface {
	// Resolve maps free text to an item id. It never fails.
	Resolve(query string) Resolution

	// FetchMarketSnapshot fetches the bazaar and, when any required id is
	// missing from it, the lowest-BIN fallback feed.
	FetchMarketSnapshot(ctx context.Context, required []ItemID) (*MarketSnapshot, error)

	// FetchAccountBalance returns purse+bank of the linked profile.
	// The bool is false when balance sync is unavailable for any reason.
	FetchAccountBalance(ctx context.Context, ref ProfileRef) (float64, bool)
}

// RecipeSource fetches and parses crafting recipes.
type RecipeSource interface {
	FetchRecipe(ctx context.Context, id ItemID) (Recipe, error)
}
