// Package pricing computes craft-flip profitability.
package pricing

import (
	"math"

	"github.com/aristath/flipper/internal/domain"
)

// Default transaction tax rates.
const (
	DefaultBazaarTaxRate  = 0.0125
	DefaultAuctionTaxRate = 0.035
)

// TaxRates holds the sell-side tax for each market.
type TaxRates struct {
	Bazaar  float64
	Auction float64
}

// DefaultTaxRates returns the standard rates.
func DefaultTaxRates() TaxRates {
	return TaxRates{Bazaar: DefaultBazaarTaxRate, Auction: DefaultAuctionTaxRate}
}

// Compute prices one craft of target from recipe against snapshot.
//
// Ingredients are priced at the bazaar instant-sell price, else the lowest
// BIN, else 0; ids priced at 0 are listed in MissingPrices. The target sells
// at the bazaar instant-buy price taxed at the bazaar rate, else at the lowest
// BIN taxed at the auction rate. ROI and affordable count are 0 when the craft
// costs nothing.
func Compute(recipe domain.Recipe, snapshot *domain.MarketSnapshot, target domain.ItemID, budget float64, rates TaxRates) domain.PricingResult {
	result := domain.PricingResult{
		ItemID:     target,
		Budget:     budget,
		SellSource: domain.SellSourceNone,
		TaxRate:    rates.Auction,
	}
	if snapshot != nil {
		result.ComputedAt = snapshot.FetchedAt
	}

	recipe.Each(func(id domain.ItemID, qty int) {
		price, ok := ingredientPrice(snapshot, id)
		if !ok {
			result.MissingPrices = append(result.MissingPrices, id)
			return
		}
		result.UnitCost += price * float64(qty)
	})

	if quote, ok := snapshot.Quote(target); ok {
		result.SellRaw = quote.BuyPrice
		result.SellVolume = quote.SellVolume
		result.TaxRate = rates.Bazaar
		result.SellSource = domain.SellSourceBazaar
	} else if price, ok := snapshot.FallbackPrice(target); ok {
		result.SellRaw = price
		result.SellSource = domain.SellSourceAuction
	}

	result.UnitSellTaxed = result.SellRaw * (1 - result.TaxRate)
	result.UnitProfit = result.UnitSellTaxed - result.UnitCost

	if result.UnitCost > 0 {
		result.ROIPercent = result.UnitProfit / result.UnitCost * 100
		if budget > 0 {
			result.AffordableCount = int64(math.Floor(budget / result.UnitCost))
		}
	}
	result.TotalProfit = float64(result.AffordableCount) * result.UnitProfit

	return result
}

func ingredientPrice(snapshot *domain.MarketSnapshot, id domain.ItemID) (float64, bool) {
	if quote, ok := snapshot.Quote(id); ok {
		return quote.SellPrice, true
	}
	return snapshot.FallbackPrice(id)
}
