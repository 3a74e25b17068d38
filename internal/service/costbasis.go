package service

import (
	"sort"

	"github.com/rdekker/holdings-tracker/internal/model"
)

// Recompute derives a position's held quantity and weighted average cost
// from its transaction ledger. It is pure, deterministic, and idempotent:
// the same ledger always yields the same pair.
//
// Transactions are walked in occurrence order (stable, so rows sharing a
// timestamp keep their insertion order):
//   - A buy adds quantity*price to the running cost and quantity to the
//     running quantity.
//   - A sell reduces the running cost proportionally to the fraction of the
//     holding sold, then reduces the running quantity. When the running
//     quantity is already zero or negative, the sell leaves cost untouched;
//     this guards the division and knowingly under-accounts oversells.
//
// The returned quantity is not clamped: a negative value means the ledger
// contains more sells than buys and callers must treat it as a
// data-integrity signal. Average cost is 0 whenever quantity is not positive.
func Recompute(transactions []model.Transaction) (quantity, averageCost float64) {
	ordered := make([]model.Transaction, len(transactions))
	copy(ordered, transactions)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].OccurredAt.Before(ordered[j].OccurredAt)
	})

	var runningQty, runningCost float64
	for _, t := range ordered {
		switch t.Kind {
		case model.TransactionBuy:
			runningCost += t.Quantity * t.PricePerUnit
			runningQty += t.Quantity
		case model.TransactionSell:
			if runningQty > 0 {
				proportion := t.Quantity / runningQty
				runningCost -= runningCost * proportion
			}
			runningQty -= t.Quantity
		}
	}

	if runningQty > 0 {
		return runningQty, runningCost / runningQty
	}
	return runningQty, 0
}

// RealizedGain returns the profit or loss recognized by a sell transaction,
// measured against the position's average cost at the time of computation.
//
// Using the current average cost rather than the point-in-time basis at the
// moment of the sale is a deliberate simplification: later buys shift the
// reported gain for historical sells. Do not change the formula without
// changing the documented accounting method.
func RealizedGain(sell model.Transaction, averageCost float64) float64 {
	return (sell.PricePerUnit - averageCost) * sell.Quantity
}
