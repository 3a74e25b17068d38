package model

import "time"

// Summary is the portfolio-level aggregate over one owner's positions.
// It is recomputed from live state after every position-set change and
// is never persisted. All monetary values are rounded to two decimal places.
type Summary struct {
	TotalValue          float64                `json:"totalValue"`          // Current market value of all positions
	TotalCost           float64                `json:"totalCost"`           // Combined cost basis
	TotalGain           float64                `json:"totalGain"`           // Unrealized gain/loss (value - cost)
	TotalGainPercent    float64                `json:"totalGainPercent"`    // Gain as percentage of cost, 0 when cost is 0
	DayChange           float64                `json:"dayChange"`           // Value change since the previous reference prices
	DayChangePercent    float64                `json:"dayChangePercent"`    // Day change relative to the previous total value
	ValueByClass        map[AssetClass]float64 `json:"valueByClass"`        // Market value per asset class
	Allocation          map[AssetClass]float64 `json:"allocation"`          // Percentage of total value per asset class
	DiversityScore      float64                `json:"diversityScore"`      // Portfolio diversity score in [0,100]
	WeightedAverageCost float64                `json:"weightedAverageCost"` // Total cost divided by total quantity
	PositionCount       int                    `json:"positionCount"`
	TransactionCount    int                    `json:"transactionCount"`
}

// Snapshot is an immutable view of one owner's live state, published to
// observers after every successful mutation. The slices are copies; holders
// may read them without further synchronization.
type Snapshot struct {
	OwnerID      string        `json:"ownerId"`
	Positions    []Position    `json:"positions"`
	Transactions []Transaction `json:"transactions"`
	Summary      Summary       `json:"summary"`
	TakenAt      time.Time     `json:"takenAt"`
}
