package economy

import (
	"maps"
	"math"
)

// SellRatio is the share of the current buy price paid out when selling to the market.
const SellRatio = 0.8

// MarketItem is the market state for one good.
type MarketItem struct {
	Price    float64 `json:"price" yaml:"price" jsonschema:"required"`
	Stock    float64 `json:"stock" yaml:"stock" jsonschema:"required"`
	MaxStock float64 `json:"maxStock" yaml:"maxStock" jsonschema:"required"`
}

// CurrentPrice is the buy price for one unit at the item's current stock level.
func (m MarketItem) CurrentPrice() float64 {
	return PriceFor(m.Price, m.Stock, m.MaxStock)
}

// Market maps each tradable good to its market state.
type Market map[Good]MarketItem

// Clone returns a copy of m.
func (m Market) Clone() Market {
	out := make(Market, len(m))
	maps.Copy(out, m)
	return out
}

// PriceFor returns the buy price of a good whose base price is basePrice given the
// current and maximum stock. Price rises along a hyperbola as stock falls:
//
//	scarcity = 0.5 + 1/(stock/maxStock + 0.5)
//
// which keeps the multiplier in (0.5+1/1.5, 2.5] for stock in [0, maxStock].
func PriceFor(basePrice, stock, maxStock float64) float64 {
	ratio := 0.0
	if maxStock > 0 && stock > 0 {
		ratio = stock / maxStock
	}
	scarcity := 0.5 + 1/(ratio+0.5)
	return math.Round(basePrice * scarcity)
}

// SellPrice is what the market pays per unit when the buy price is buyPrice.
func SellPrice(buyPrice float64) float64 {
	return buyPrice * SellRatio
}
