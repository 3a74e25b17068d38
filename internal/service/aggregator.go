package service

import (
	"math"
	"sort"

	"github.com/rdekker/holdings-tracker/internal/model"
)

// RoundingPrecision controls monetary rounding: 100 rounds to two decimal places.
const RoundingPrecision = 100

func round2(v float64) float64 {
	return math.Round(v*RoundingPrecision) / RoundingPrecision
}

// Summarize aggregates a set of positions into a portfolio summary.
// Every function in this file treats an empty input as a zero-valued
// result, never an error.
func Summarize(positions []model.Position, transactionCount int) model.Summary {
	totalValue := TotalValue(positions)
	totalCost := TotalCost(positions)
	totalGain := totalValue - totalCost

	totalGainPercent := 0.0
	if totalCost > 0 {
		totalGainPercent = totalGain / totalCost * 100
	}

	dayChange := DayChange(positions)
	dayChangePercent := 0.0
	if previousTotalValue := totalValue - dayChange; previousTotalValue > 0 {
		dayChangePercent = dayChange / previousTotalValue * 100
	}

	return model.Summary{
		TotalValue:          round2(totalValue),
		TotalCost:           round2(totalCost),
		TotalGain:           round2(totalGain),
		TotalGainPercent:    round2(totalGainPercent),
		DayChange:           round2(dayChange),
		DayChangePercent:    round2(dayChangePercent),
		ValueByClass:        ValueByClass(positions),
		Allocation:          Allocation(positions),
		DiversityScore:      round2(DiversityScore(positions)),
		WeightedAverageCost: round2(WeightedAverageCost(positions)),
		PositionCount:       len(positions),
		TransactionCount:    transactionCount,
	}
}

// TotalValue returns the combined market value of all positions.
func TotalValue(positions []model.Position) float64 {
	var total float64
	for _, p := range positions {
		total += p.CurrentValue()
	}
	return total
}

// TotalCost returns the combined cost basis of all positions.
func TotalCost(positions []model.Position) float64 {
	var total float64
	for _, p := range positions {
		total += p.TotalCost()
	}
	return total
}

// DayChange returns the combined value change since the previous reference prices.
func DayChange(positions []model.Position) float64 {
	var total float64
	for _, p := range positions {
		total += p.DayChange()
	}
	return total
}

// ValueByClass returns the market value held in each asset class present
// in the portfolio.
func ValueByClass(positions []model.Position) map[model.AssetClass]float64 {
	values := make(map[model.AssetClass]float64)
	for _, p := range positions {
		values[p.Class] += p.CurrentValue()
	}
	for class, value := range values {
		values[class] = round2(value)
	}
	return values
}

// Allocation returns each asset class's share of total portfolio value as a
// percentage. When total value is zero every present class maps to zero.
func Allocation(positions []model.Position) map[model.AssetClass]float64 {
	allocation := make(map[model.AssetClass]float64)
	totalValue := TotalValue(positions)

	for _, p := range positions {
		if totalValue > 0 {
			allocation[p.Class] += p.CurrentValue() / totalValue * 100
		} else {
			allocation[p.Class] = 0
		}
	}
	for class, pct := range allocation {
		allocation[class] = round2(pct)
	}
	return allocation
}

// DiversityScore rates portfolio diversification on a 0-100 scale.
//
// An empty portfolio scores 0 and a single position scores a fixed 20.
// Otherwise the score is the sum of three components:
//   - count: 3 points per position, capped at 30
//   - breadth: 10 points per distinct asset class
//   - distribution: (1 - Herfindahl) * 40, where Herfindahl is the sum of
//     squared value shares (1 = fully concentrated)
//
// The sum is clamped to 100 to honor the documented range.
func DiversityScore(positions []model.Position) float64 {
	switch len(positions) {
	case 0:
		return 0
	case 1:
		return 20
	}

	countScore := math.Min(3*float64(len(positions)), 30)

	classes := make(map[model.AssetClass]struct{})
	for _, p := range positions {
		classes[p.Class] = struct{}{}
	}
	typeScore := 10 * float64(len(classes))

	distributionScore := 0.0
	if totalValue := TotalValue(positions); totalValue > 0 {
		var herfindahl float64
		for _, p := range positions {
			share := p.CurrentValue() / totalValue
			herfindahl += share * share
		}
		distributionScore = (1 - herfindahl) * 40
	}

	return math.Min(countScore+typeScore+distributionScore, 100)
}

// TopPerformers returns the n positions with the highest unrealized gain
// percentage. The sort is stable: ties keep their original relative order.
func TopPerformers(positions []model.Position, n int) []model.Position {
	return rankByGainPercent(positions, n, func(a, b model.Position) bool {
		return a.UnrealizedGainPercent() > b.UnrealizedGainPercent()
	})
}

// WorstPerformers returns the n positions with the lowest unrealized gain
// percentage. The sort is stable: ties keep their original relative order.
func WorstPerformers(positions []model.Position, n int) []model.Position {
	return rankByGainPercent(positions, n, func(a, b model.Position) bool {
		return a.UnrealizedGainPercent() < b.UnrealizedGainPercent()
	})
}

func rankByGainPercent(positions []model.Position, n int, less func(a, b model.Position) bool) []model.Position {
	ranked := make([]model.Position, len(positions))
	copy(ranked, positions)
	sort.SliceStable(ranked, func(i, j int) bool {
		return less(ranked[i], ranked[j])
	})

	if n < 0 {
		n = 0
	}
	if n > len(ranked) {
		n = len(ranked)
	}
	return ranked[:n]
}

// WeightedAverageCost returns the portfolio-wide cost per unit held:
// total cost divided by total quantity. Returns 0 when nothing is held.
func WeightedAverageCost(positions []model.Position) float64 {
	var totalQuantity float64
	for _, p := range positions {
		totalQuantity += p.Quantity
	}
	if totalQuantity <= 0 {
		return 0
	}

	totalCost := TotalCost(positions)
	if totalCost <= 0 {
		return 0
	}
	return totalCost / totalQuantity
}
