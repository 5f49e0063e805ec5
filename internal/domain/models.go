// Package domain provides core domain models and types.
package domain

import (
	"sort"
	"strings"
	"time"
)

// ItemID is the canonical identifier of a tradeable item (e.g. "ENCHANTED_DIAMOND").
type ItemID string

// String returns the identifier as a plain string.
func (id ItemID) String() string {
	return string(id)
}

// NormalizeItemID turns free text into an unverified identifier:
// trimmed, upper-cased, spaces replaced by underscores.
func NormalizeItemID(raw string) ItemID {
	return ItemID(strings.ReplaceAll(strings.ToUpper(strings.TrimSpace(raw)), " ", "_"))
}

// Recipe maps ingredient ids to the quantity required for one craft.
// It is immutable once built.
type Recipe struct {
	quantities map[ItemID]int
}

// NewRecipe copies the given quantities, dropping empty ids and non-positive amounts.
func NewRecipe(quantities map[ItemID]int) Recipe {
	cleaned := make(map[ItemID]int, len(quantities))
	for id, qty := range quantities {
		if id == "" || qty <= 0 {
			continue
		}
		cleaned[id] = qty
	}
	return Recipe{quantities: cleaned}
}

// Len returns the number of distinct ingredients.
func (r Recipe) Len() int {
	return len(r.quantities)
}

// IsEmpty reports whether the recipe has no ingredients.
func (r Recipe) IsEmpty() bool {
	return len(r.quantities) == 0
}

// Ingredients returns ingredient ids in ascending order.
func (r Recipe) Ingredients() []ItemID {
	ids := make([]ItemID, 0, len(r.quantities))
	for id := range r.quantities {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Each calls fn for every ingredient in ascending id order.
func (r Recipe) Each(fn func(id ItemID, qty int)) {
	for _, id := range r.Ingredients() {
		fn(id, r.quantities[id])
	}
}

// Map returns a copy of the underlying quantities.
func (r Recipe) Map() map[ItemID]int {
	out := make(map[ItemID]int, len(r.quantities))
	for id, qty := range r.quantities {
		out[id] = qty
	}
	return out
}

// Quote is the bazaar quick status for one product.
type Quote struct {
	BuyPrice   float64 `json:"buy_price"`
	SellPrice  float64 `json:"sell_price"`
	SellVolume int64   `json:"sell_volume"`
}

// MarketSnapshot is a point-in-time view of the bazaar plus the lowest-BIN
// fallback prices. LowestBIN is only populated when some required item was
// missing from the bazaar.
type MarketSnapshot struct {
	Products     map[ItemID]Quote   `json:"products"`
	LowestBIN    map[ItemID]float64 `json:"lowest_bin,omitempty"`
	UsedFallback bool               `json:"used_fallback"`
	FetchedAt    time.Time          `json:"fetched_at"`
}

// Quote returns the bazaar quote for id, if listed.
func (s *MarketSnapshot) Quote(id ItemID) (Quote, bool) {
	if s == nil {
		return Quote{}, false
	}
	q, ok := s.Products[id]
	return q, ok
}

// FallbackPrice returns the lowest-BIN price for id, if known.
func (s *MarketSnapshot) FallbackPrice(id ItemID) (float64, bool) {
	if s == nil || s.LowestBIN == nil {
		return 0, false
	}
	p, ok := s.LowestBIN[id]
	return p, ok
}

// SellSource says where the target's sell price came from.
type SellSource string

const (
	SellSourceBazaar  SellSource = "bazaar"
	SellSourceAuction SellSource = "auction"
	SellSourceNone    SellSource = "none"
)

// PricingResult is the profit snapshot computed for one poll cycle.
type PricingResult struct {
	ItemID          ItemID     `json:"item_id"`
	UnitCost        float64    `json:"unit_cost"`
	SellRaw         float64    `json:"sell_raw"`
	TaxRate         float64    `json:"tax_rate"`
	UnitSellTaxed   float64    `json:"unit_sell_taxed"`
	UnitProfit      float64    `json:"unit_profit"`
	ROIPercent      float64    `json:"roi_percent"`
	Budget          float64    `json:"budget"`
	AffordableCount int64      `json:"affordable_count"`
	TotalProfit     float64    `json:"total_profit"`
	SellVolume      int64      `json:"sell_volume"`
	SellSource      SellSource `json:"sell_source"`
	MissingPrices   []ItemID   `json:"missing_prices,omitempty"`
	ComputedAt      time.Time  `json:"computed_at"`
}

// Member holds the balances of one profile member.
type Member struct {
	Purse float64 `json:"purse"`
	Bank  float64 `json:"bank"`
}

// Total is purse plus bank.
func (m Member) Total() float64 {
	return m.Purse + m.Bank
}

// Profile is one SkyBlock profile of a player.
type Profile struct {
	ProfileID   string            `json:"profile_id"`
	DisplayName string            `json:"display_name"`
	IsActive    bool              `json:"is_active"`
	Members     map[string]Member `json:"members"`
}

// ProfileRef identifies whose balance should be synced into the budget.
type ProfileRef struct {
	PlayerUUID string `json:"player_uuid"`
	ProfileID  string `json:"profile_id"`
	Name       string `json:"name,omitempty"`
}

// IsZero reports whether no profile is linked.
func (p ProfileRef) IsZero() bool {
	return p.PlayerUUID == "" || p.ProfileID == ""
}

// CompactUUID strips dashes so ids from different APIs compare equal.
func CompactUUID(id string) string {
	return strings.ToLower(strings.ReplaceAll(id, "-", ""))
}
