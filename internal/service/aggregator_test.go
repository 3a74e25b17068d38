package service_test

import (
	"testing"

	"github.com/rdekker/holdings-tracker/internal/model"
	"github.com/rdekker/holdings-tracker/internal/service"
	"github.com/rdekker/holdings-tracker/internal/testutil"
)

// TestSummarize tests the full portfolio summary aggregation.
//
// WHY: The summary is the single number set users see on every screen and
// after every price tick. Each derived figure must agree with the positions
// it is computed from, including the rounding applied at the edge.
func TestSummarize(t *testing.T) {
	ownerID := testutil.MakeID()

	t.Run("empty portfolio summarizes to zero values", func(t *testing.T) {
		summary := service.Summarize(nil, 0)

		if summary.TotalValue != 0 || summary.TotalCost != 0 || summary.TotalGain != 0 {
			t.Errorf("Expected zero totals, got value=%v cost=%v gain=%v",
				summary.TotalValue, summary.TotalCost, summary.TotalGain)
		}
		if summary.TotalGainPercent != 0 || summary.DayChangePercent != 0 {
			t.Errorf("Expected zero percentages, got gain%%=%v day%%=%v",
				summary.TotalGainPercent, summary.DayChangePercent)
		}
		if summary.DiversityScore != 0 {
			t.Errorf("Expected diversity score 0, got %v", summary.DiversityScore)
		}
		if summary.PositionCount != 0 || summary.TransactionCount != 0 {
			t.Errorf("Expected zero counts, got positions=%d transactions=%d",
				summary.PositionCount, summary.TransactionCount)
		}
	})

	t.Run("aggregates a two-position portfolio", func(t *testing.T) {
		positions := []model.Position{
			testutil.NewPosition(ownerID).
				WithSymbol("AAA").
				WithClass(model.AssetClassStock).
				WithPrice(150).
				WithPreviousReference(140).
				WithHolding(10, 100).
				BuildValue(),
			testutil.NewPosition(ownerID).
				WithSymbol("BBB").
				WithClass(model.AssetClassCrypto).
				WithPrice(250).
				WithHolding(2, 200).
				BuildValue(),
		}

		summary := service.Summarize(positions, 4)

		// AAA: value 1500, cost 1000, day change +100. BBB: value 500, cost 400.
		if summary.TotalValue != 2000 {
			t.Errorf("Expected total value 2000, got %v", summary.TotalValue)
		}
		if summary.TotalCost != 1400 {
			t.Errorf("Expected total cost 1400, got %v", summary.TotalCost)
		}
		if summary.TotalGain != 600 {
			t.Errorf("Expected total gain 600, got %v", summary.TotalGain)
		}
		if summary.TotalGainPercent != 42.86 {
			t.Errorf("Expected total gain percent 42.86, got %v", summary.TotalGainPercent)
		}
		if summary.DayChange != 100 {
			t.Errorf("Expected day change 100, got %v", summary.DayChange)
		}
		// Day change is measured against yesterday's value of 1900.
		if summary.DayChangePercent != 5.26 {
			t.Errorf("Expected day change percent 5.26, got %v", summary.DayChangePercent)
		}
		if summary.WeightedAverageCost != 116.67 {
			t.Errorf("Expected weighted average cost 116.67, got %v", summary.WeightedAverageCost)
		}
		if summary.PositionCount != 2 || summary.TransactionCount != 4 {
			t.Errorf("Expected counts 2/4, got %d/%d", summary.PositionCount, summary.TransactionCount)
		}
		if summary.ValueByClass[model.AssetClassStock] != 1500 {
			t.Errorf("Expected stock value 1500, got %v", summary.ValueByClass[model.AssetClassStock])
		}
		if summary.Allocation[model.AssetClassStock] != 75 || summary.Allocation[model.AssetClassCrypto] != 25 {
			t.Errorf("Expected 75/25 allocation, got %v", summary.Allocation)
		}
	})

	t.Run("gain percent is zero when the portfolio carries no cost", func(t *testing.T) {
		positions := []model.Position{
			testutil.NewPosition(ownerID).
				WithPrice(50).
				WithHolding(10, 0).
				BuildValue(),
		}

		summary := service.Summarize(positions, 0)

		if summary.TotalGain != 500 {
			t.Errorf("Expected total gain 500, got %v", summary.TotalGain)
		}
		if summary.TotalGainPercent != 0 {
			t.Errorf("Expected gain percent 0 with zero cost, got %v", summary.TotalGainPercent)
		}
	})
}

// TestAllocation tests asset class allocation percentages.
//
// WHY: Allocation drives the portfolio breakdown chart. Shares must sum to
// 100 for a valued portfolio, and a worthless portfolio must still list its
// classes instead of dividing by zero.
func TestAllocation(t *testing.T) {
	ownerID := testutil.MakeID()

	t.Run("shares sum to one hundred", func(t *testing.T) {
		positions := []model.Position{
			testutil.NewPosition(ownerID).WithClass(model.AssetClassStock).WithPrice(100).WithHolding(6, 90).BuildValue(),
			testutil.NewPosition(ownerID).WithClass(model.AssetClassETF).WithPrice(50).WithHolding(4, 40).BuildValue(),
			testutil.NewPosition(ownerID).WithClass(model.AssetClassBond).WithPrice(20).WithHolding(10, 20).BuildValue(),
		}

		allocation := service.Allocation(positions)

		var sum float64
		for _, share := range allocation {
			sum += share
		}
		if sum < 99.99 || sum > 100.01 {
			t.Errorf("Expected allocation to sum to 100, got %v (%v)", sum, allocation)
		}
	})

	t.Run("worthless portfolio maps present classes to zero", func(t *testing.T) {
		positions := []model.Position{
			testutil.NewPosition(ownerID).WithClass(model.AssetClassCash).WithPrice(1).WithHolding(0, 0).BuildValue(),
		}

		allocation := service.Allocation(positions)

		share, ok := allocation[model.AssetClassCash]
		if !ok {
			t.Fatal("Expected cash class to be present in allocation")
		}
		if share != 0 {
			t.Errorf("Expected zero share, got %v", share)
		}
	})
}

// TestDiversityScore tests the 0-100 diversification rating.
//
// WHY: The score blends position count, class breadth, and value
// concentration. The fixed anchors (empty, single position) and the upper
// clamp are part of its documented range.
func TestDiversityScore(t *testing.T) {
	ownerID := testutil.MakeID()

	t.Run("empty portfolio scores zero", func(t *testing.T) {
		if score := service.DiversityScore(nil); score != 0 {
			t.Errorf("Expected score 0, got %v", score)
		}
	})

	t.Run("single position scores a fixed twenty", func(t *testing.T) {
		positions := []model.Position{
			testutil.NewPosition(ownerID).WithPrice(500).WithHolding(100, 400).BuildValue(),
		}

		if score := service.DiversityScore(positions); score != 20 {
			t.Errorf("Expected score 20, got %v", score)
		}
	})

	t.Run("two equal positions in one class score thirty six", func(t *testing.T) {
		positions := []model.Position{
			testutil.NewPosition(ownerID).WithClass(model.AssetClassStock).WithPrice(100).WithHolding(10, 90).BuildValue(),
			testutil.NewPosition(ownerID).WithClass(model.AssetClassStock).WithPrice(50).WithHolding(20, 45).BuildValue(),
		}

		// count 6 + breadth 10 + distribution (1 - 0.5) * 40 = 36
		if score := service.DiversityScore(positions); score != 36 {
			t.Errorf("Expected score 36, got %v", score)
		}
	})

	t.Run("score is clamped to one hundred", func(t *testing.T) {
		var positions []model.Position
		for i := 0; i < 10; i++ {
			positions = append(positions, testutil.NewPosition(ownerID).
				WithClass(model.AssetClasses[i%len(model.AssetClasses)]).
				WithPrice(100).
				WithHolding(1, 100).
				BuildValue())
		}

		// count 30 + breadth 50 + distribution 36 exceeds the scale.
		if score := service.DiversityScore(positions); score != 100 {
			t.Errorf("Expected clamped score 100, got %v", score)
		}
	})
}

// TestPerformerRankings tests the best/worst position rankings.
//
// WHY: Rankings order by unrealized gain percent, not absolute gain, and the
// requested count must be clamped to the available set.
func TestPerformerRankings(t *testing.T) {
	ownerID := testutil.MakeID()

	// up: +50%, flat: 0%, down: -20%
	up := testutil.NewPosition(ownerID).WithSymbol("UP").WithPrice(150).WithHolding(1, 100).BuildValue()
	flat := testutil.NewPosition(ownerID).WithSymbol("FLAT").WithPrice(100).WithHolding(1, 100).BuildValue()
	down := testutil.NewPosition(ownerID).WithSymbol("DOWN").WithPrice(80).WithHolding(1, 100).BuildValue()
	positions := []model.Position{flat, down, up}

	t.Run("top performers order by gain percent descending", func(t *testing.T) {
		top := service.TopPerformers(positions, 2)

		if len(top) != 2 {
			t.Fatalf("Expected 2 positions, got %d", len(top))
		}
		if top[0].Symbol != "UP" || top[1].Symbol != "FLAT" {
			t.Errorf("Expected [UP FLAT], got [%s %s]", top[0].Symbol, top[1].Symbol)
		}
	})

	t.Run("worst performers order by gain percent ascending", func(t *testing.T) {
		worst := service.WorstPerformers(positions, 2)

		if len(worst) != 2 {
			t.Fatalf("Expected 2 positions, got %d", len(worst))
		}
		if worst[0].Symbol != "DOWN" || worst[1].Symbol != "FLAT" {
			t.Errorf("Expected [DOWN FLAT], got [%s %s]", worst[0].Symbol, worst[1].Symbol)
		}
	})

	t.Run("count larger than the set returns everything", func(t *testing.T) {
		if got := service.TopPerformers(positions, 10); len(got) != 3 {
			t.Errorf("Expected 3 positions, got %d", len(got))
		}
	})

	t.Run("negative count returns nothing", func(t *testing.T) {
		if got := service.TopPerformers(positions, -1); len(got) != 0 {
			t.Errorf("Expected no positions, got %d", len(got))
		}
	})

	t.Run("input order is untouched", func(t *testing.T) {
		service.TopPerformers(positions, 3)

		if positions[0].Symbol != "FLAT" || positions[2].Symbol != "UP" {
			t.Error("Expected ranking to copy rather than reorder its input")
		}
	})
}

// TestWeightedAverageCost tests the portfolio-wide cost per unit.
//
// WHY: The figure divides by total quantity, so empty and oversold
// portfolios must short-circuit to zero instead of producing nonsense.
func TestWeightedAverageCost(t *testing.T) {
	ownerID := testutil.MakeID()

	t.Run("averages cost across holdings", func(t *testing.T) {
		positions := []model.Position{
			testutil.NewPosition(ownerID).WithHolding(10, 100).BuildValue(),
			testutil.NewPosition(ownerID).WithHolding(2, 200).BuildValue(),
		}

		// (10*100 + 2*200) / 12
		got := service.WeightedAverageCost(positions)
		want := 1400.0 / 12
		if got < want-1e-9 || got > want+1e-9 {
			t.Errorf("Expected %v, got %v", want, got)
		}
	})

	t.Run("zero when nothing is held", func(t *testing.T) {
		if got := service.WeightedAverageCost(nil); got != 0 {
			t.Errorf("Expected 0, got %v", got)
		}
	})

	t.Run("zero when net quantity is negative", func(t *testing.T) {
		positions := []model.Position{
			testutil.NewPosition(ownerID).WithHolding(-5, 0).BuildValue(),
		}

		if got := service.WeightedAverageCost(positions); got != 0 {
			t.Errorf("Expected 0, got %v", got)
		}
	})
}
