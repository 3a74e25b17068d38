package model

import "time"

// MinimumPrice is the floor for any position price. Simulated price
// movements and user input are both clamped to this value.
const MinimumPrice = 0.01

// AssetClass identifies the instrument class of a position.
// The set is closed so allocation and diversity calculations can be exhaustive.
type AssetClass string

// Supported asset classes.
const (
	AssetClassStock  AssetClass = "stock"
	AssetClassCrypto AssetClass = "crypto"
	AssetClassETF    AssetClass = "etf"
	AssetClassBond   AssetClass = "bond"
	AssetClassCash   AssetClass = "cash"
)

// AssetClasses lists every supported asset class in display order.
var AssetClasses = []AssetClass{
	AssetClassStock,
	AssetClassCrypto,
	AssetClassETF,
	AssetClassBond,
	AssetClassCash,
}

// Valid reports whether c is one of the supported asset classes.
func (c AssetClass) Valid() bool {
	switch c {
	case AssetClassStock, AssetClassCrypto, AssetClassETF, AssetClassBond, AssetClassCash:
		return true
	}
	return false
}

// Position represents one holding of one instrument for one owner.
//
// Quantity and AverageCost are derived from the position's transaction
// history and must only ever be written by the cost-basis recomputation;
// price updates touch CurrentPrice and PreviousReference only.
type Position struct {
	ID                string     `json:"id"`
	OwnerID           string     `json:"ownerId"`
	Symbol            string     `json:"symbol"`
	Name              string     `json:"name"`
	Class             AssetClass `json:"class"`
	CurrentPrice      float64    `json:"currentPrice"`
	PreviousReference float64    `json:"previousReference"`
	Quantity          float64    `json:"quantity"`
	AverageCost       float64    `json:"averageCost"`
	CreatedAt         time.Time  `json:"createdAt"`
	UpdatedAt         time.Time  `json:"updatedAt"`
}

// CurrentValue returns the market value of the position at its current price.
func (p Position) CurrentValue() float64 {
	return p.CurrentPrice * p.Quantity
}

// TotalCost returns the cost basis of the currently held quantity.
func (p Position) TotalCost() float64 {
	return p.AverageCost * p.Quantity
}

// UnrealizedGain returns the profit or loss on the held quantity at the
// current price, measured against average cost.
func (p Position) UnrealizedGain() float64 {
	return p.CurrentValue() - p.TotalCost()
}

// UnrealizedGainPercent returns the unrealized gain as a percentage of
// cost basis. Returns 0 when the position carries no cost.
func (p Position) UnrealizedGainPercent() float64 {
	cost := p.TotalCost()
	if cost <= 0 {
		return 0
	}
	return p.UnrealizedGain() / cost * 100
}

// DayChange returns the value change since the previous reference price.
func (p Position) DayChange() float64 {
	return (p.CurrentPrice - p.PreviousReference) * p.Quantity
}
