package service_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/rdekker/holdings-tracker/internal/apperrors"
	"github.com/rdekker/holdings-tracker/internal/model"
	"github.com/rdekker/holdings-tracker/internal/repository"
	"github.com/rdekker/holdings-tracker/internal/service"
	"github.com/rdekker/holdings-tracker/internal/testutil"
)

// newTestCoordinator wires a coordinator to sqlite-backed repositories and
// a simulator that never ticks on its own.
func newTestCoordinator(t *testing.T) (*service.Coordinator, *sql.DB) {
	t.Helper()

	db := testutil.SetupTestDB(t)
	positionRepo := repository.NewPositionRepository(db)
	transactionRepo := repository.NewTransactionRepository(db)
	simulator := service.NewPriceSimulator(positionRepo, time.Hour)
	t.Cleanup(simulator.Stop)

	return service.NewCoordinator(positionRepo, transactionRepo, simulator), db
}

func activateOwner(t *testing.T, c *service.Coordinator) string {
	t.Helper()

	ownerID := testutil.MakeID()
	if err := c.SetOwner(context.Background(), ownerID); err != nil {
		t.Fatalf("SetOwner() returned unexpected error: %v", err)
	}
	return ownerID
}

// TestCoordinator_RequiresOwner tests the owner guard on mutations.
//
// WHY: Every mutation is scoped to the active owner. Before a session is
// established nothing may touch storage.
func TestCoordinator_RequiresOwner(t *testing.T) {
	coordinator, _ := newTestCoordinator(t)

	_, err := coordinator.AddPosition(context.Background(), model.Position{Symbol: "AAA"})
	if !errors.Is(err, apperrors.ErrOwnerNotSet) {
		t.Errorf("Expected ErrOwnerNotSet, got %v", err)
	}

	if err := coordinator.StartPriceUpdates(); !errors.Is(err, apperrors.ErrOwnerNotSet) {
		t.Errorf("Expected ErrOwnerNotSet from StartPriceUpdates, got %v", err)
	}
}

// TestCoordinator_Positions tests position lifecycle through the coordinator.
//
// WHY: Positions are the anchor of all other state. Creation must force a
// zero holding (only transactions build one), updates must preserve the
// holding, and deletes must cascade to the ledger.
func TestCoordinator_Positions(t *testing.T) {
	ctx := context.Background()

	t.Run("new positions start with a zero holding", func(t *testing.T) {
		coordinator, _ := newTestCoordinator(t)
		activateOwner(t, coordinator)

		created, err := coordinator.AddPosition(ctx, model.Position{
			Symbol:       "AAPL",
			Name:         "Apple",
			Class:        model.AssetClassStock,
			CurrentPrice: 180,
			Quantity:     99, // must be ignored
			AverageCost:  99, // must be ignored
		})
		if err != nil {
			t.Fatalf("AddPosition() returned unexpected error: %v", err)
		}

		if created.Quantity != 0 || created.AverageCost != 0 {
			t.Errorf("Expected zero holding, got quantity=%v averageCost=%v",
				created.Quantity, created.AverageCost)
		}
		if created.PreviousReference != 180 {
			t.Errorf("Expected previous reference to default to price, got %v", created.PreviousReference)
		}

		snapshot := coordinator.Snapshot()
		if len(snapshot.Positions) != 1 {
			t.Fatalf("Expected 1 position in snapshot, got %d", len(snapshot.Positions))
		}
	})

	t.Run("duplicate symbols are rejected per owner", func(t *testing.T) {
		coordinator, _ := newTestCoordinator(t)
		activateOwner(t, coordinator)

		if _, err := coordinator.AddPosition(ctx, model.Position{Symbol: "MSFT", Name: "Microsoft", Class: model.AssetClassStock, CurrentPrice: 400}); err != nil {
			t.Fatalf("AddPosition() returned unexpected error: %v", err)
		}

		_, err := coordinator.AddPosition(ctx, model.Position{Symbol: "MSFT", Name: "Other", Class: model.AssetClassStock, CurrentPrice: 1})
		if !errors.Is(err, apperrors.ErrDuplicateSymbol) {
			t.Errorf("Expected ErrDuplicateSymbol, got %v", err)
		}

		// The failed insert must not have disturbed the snapshot.
		if got := len(coordinator.Snapshot().Positions); got != 1 {
			t.Errorf("Expected 1 position after rejected duplicate, got %d", got)
		}
	})

	t.Run("price edits shift the previous reference", func(t *testing.T) {
		coordinator, _ := newTestCoordinator(t)
		activateOwner(t, coordinator)

		created, err := coordinator.AddPosition(ctx, model.Position{Symbol: "ETH", Name: "Ether", Class: model.AssetClassCrypto, CurrentPrice: 3000})
		if err != nil {
			t.Fatalf("AddPosition() returned unexpected error: %v", err)
		}

		created.CurrentPrice = 3300
		updated, err := coordinator.UpdatePosition(ctx, created)
		if err != nil {
			t.Fatalf("UpdatePosition() returned unexpected error: %v", err)
		}

		if updated.CurrentPrice != 3300 {
			t.Errorf("Expected price 3300, got %v", updated.CurrentPrice)
		}
		if updated.PreviousReference != 3000 {
			t.Errorf("Expected previous reference 3000, got %v", updated.PreviousReference)
		}

		// Editing without a price change keeps the reference in place.
		updated.Name = "Ethereum"
		renamed, err := coordinator.UpdatePosition(ctx, updated)
		if err != nil {
			t.Fatalf("UpdatePosition() returned unexpected error: %v", err)
		}
		if renamed.PreviousReference != 3000 {
			t.Errorf("Expected previous reference unchanged at 3000, got %v", renamed.PreviousReference)
		}
	})

	t.Run("deleting a position removes its ledger", func(t *testing.T) {
		coordinator, db := newTestCoordinator(t)
		activateOwner(t, coordinator)

		created, err := coordinator.AddPosition(ctx, model.Position{Symbol: "BTC", Name: "Bitcoin", Class: model.AssetClassCrypto, CurrentPrice: 60000})
		if err != nil {
			t.Fatalf("AddPosition() returned unexpected error: %v", err)
		}
		if _, err := coordinator.AddTransaction(ctx, model.Transaction{
			PositionID:   created.ID,
			Kind:         model.TransactionBuy,
			Quantity:     0.5,
			PricePerUnit: 50000,
			OccurredAt:   time.Now().UTC(),
		}); err != nil {
			t.Fatalf("AddTransaction() returned unexpected error: %v", err)
		}

		if err := coordinator.DeletePosition(ctx, created.ID); err != nil {
			t.Fatalf("DeletePosition() returned unexpected error: %v", err)
		}

		testutil.AssertRowCount(t, db, "positions", 0)
		testutil.AssertRowCount(t, db, "transactions", 0)

		snapshot := coordinator.Snapshot()
		if len(snapshot.Positions) != 0 || len(snapshot.Transactions) != 0 {
			t.Errorf("Expected empty snapshot, got %d positions and %d transactions",
				len(snapshot.Positions), len(snapshot.Transactions))
		}
	})
}

// TestCoordinator_Transactions tests the ledger mutation pipeline.
//
// WHY: Each ledger change must persist, recompute the affected holding from
// the full ledger, and refresh the published summary. A failed step must
// leave the previous snapshot intact.
func TestCoordinator_Transactions(t *testing.T) {
	ctx := context.Background()

	seedPosition := func(t *testing.T, c *service.Coordinator) model.Position {
		t.Helper()
		created, err := c.AddPosition(ctx, model.Position{
			Symbol:       "VWRL",
			Name:         "All-World ETF",
			Class:        model.AssetClassETF,
			CurrentPrice: 110,
		})
		if err != nil {
			t.Fatalf("AddPosition() returned unexpected error: %v", err)
		}
		return created
	}

	buy := func(positionID string, quantity, price float64, occurredAt time.Time) model.Transaction {
		return model.Transaction{
			PositionID:   positionID,
			Kind:         model.TransactionBuy,
			Quantity:     quantity,
			PricePerUnit: price,
			OccurredAt:   occurredAt,
		}
	}

	t.Run("recording transactions recomputes the holding", func(t *testing.T) {
		coordinator, _ := newTestCoordinator(t)
		activateOwner(t, coordinator)
		position := seedPosition(t, coordinator)
		base := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

		if _, err := coordinator.AddTransaction(ctx, buy(position.ID, 10, 100, base)); err != nil {
			t.Fatalf("AddTransaction() returned unexpected error: %v", err)
		}
		if _, err := coordinator.AddTransaction(ctx, buy(position.ID, 5, 120, base.AddDate(0, 0, 1))); err != nil {
			t.Fatalf("AddTransaction() returned unexpected error: %v", err)
		}
		sale, err := coordinator.AddTransaction(ctx, model.Transaction{
			PositionID:   position.ID,
			Kind:         model.TransactionSell,
			Quantity:     5,
			PricePerUnit: 150,
			OccurredAt:   base.AddDate(0, 0, 2),
		})
		if err != nil {
			t.Fatalf("AddTransaction() returned unexpected error: %v", err)
		}

		snapshot := coordinator.Snapshot()
		if len(snapshot.Positions) != 1 {
			t.Fatalf("Expected 1 position, got %d", len(snapshot.Positions))
		}

		holding := snapshot.Positions[0]
		if holding.Quantity != 10 {
			t.Errorf("Expected quantity 10, got %v", holding.Quantity)
		}
		want := 1600.0 / 15
		if holding.AverageCost < want-1e-6 || holding.AverageCost > want+1e-6 {
			t.Errorf("Expected average cost %v, got %v", want, holding.AverageCost)
		}
		if snapshot.Summary.TransactionCount != 3 {
			t.Errorf("Expected transaction count 3, got %d", snapshot.Summary.TransactionCount)
		}

		// Realized gain against the current average cost.
		gain, err := coordinator.RealizedGain(ctx, sale.ID)
		if err != nil {
			t.Fatalf("RealizedGain() returned unexpected error: %v", err)
		}
		wantGain := (150 - want) * 5
		if gain < wantGain-1e-6 || gain > wantGain+1e-6 {
			t.Errorf("Expected realized gain %v, got %v", wantGain, gain)
		}
	})

	t.Run("rejects transactions against missing positions", func(t *testing.T) {
		coordinator, _ := newTestCoordinator(t)
		activateOwner(t, coordinator)
		before := coordinator.Snapshot()

		_, err := coordinator.AddTransaction(ctx, buy(testutil.MakeID(), 1, 1, time.Now().UTC()))
		if !errors.Is(err, apperrors.ErrPositionNotFound) {
			t.Errorf("Expected ErrPositionNotFound, got %v", err)
		}

		after := coordinator.Snapshot()
		if len(after.Transactions) != len(before.Transactions) {
			t.Error("Expected snapshot untouched after rejected transaction")
		}
	})

	t.Run("updating a transaction replays the ledger", func(t *testing.T) {
		coordinator, _ := newTestCoordinator(t)
		activateOwner(t, coordinator)
		position := seedPosition(t, coordinator)

		recorded, err := coordinator.AddTransaction(ctx, buy(position.ID, 10, 100, time.Now().UTC()))
		if err != nil {
			t.Fatalf("AddTransaction() returned unexpected error: %v", err)
		}

		recorded.Quantity = 20
		if _, err := coordinator.UpdateTransaction(ctx, recorded); err != nil {
			t.Fatalf("UpdateTransaction() returned unexpected error: %v", err)
		}

		holding := coordinator.Snapshot().Positions[0]
		if holding.Quantity != 20 {
			t.Errorf("Expected quantity 20 after update, got %v", holding.Quantity)
		}
	})

	t.Run("deleting a transaction replays the ledger", func(t *testing.T) {
		coordinator, _ := newTestCoordinator(t)
		activateOwner(t, coordinator)
		position := seedPosition(t, coordinator)
		base := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

		if _, err := coordinator.AddTransaction(ctx, buy(position.ID, 10, 100, base)); err != nil {
			t.Fatalf("AddTransaction() returned unexpected error: %v", err)
		}
		second, err := coordinator.AddTransaction(ctx, buy(position.ID, 5, 120, base.AddDate(0, 0, 1)))
		if err != nil {
			t.Fatalf("AddTransaction() returned unexpected error: %v", err)
		}

		if err := coordinator.DeleteTransaction(ctx, second.ID); err != nil {
			t.Fatalf("DeleteTransaction() returned unexpected error: %v", err)
		}

		holding := coordinator.Snapshot().Positions[0]
		if holding.Quantity != 10 || holding.AverageCost != 100 {
			t.Errorf("Expected holding 10 @ 100, got %v @ %v", holding.Quantity, holding.AverageCost)
		}
	})

	t.Run("realized gain rejects buys", func(t *testing.T) {
		coordinator, _ := newTestCoordinator(t)
		activateOwner(t, coordinator)
		position := seedPosition(t, coordinator)

		recorded, err := coordinator.AddTransaction(ctx, buy(position.ID, 1, 100, time.Now().UTC()))
		if err != nil {
			t.Fatalf("AddTransaction() returned unexpected error: %v", err)
		}

		if _, err := coordinator.RealizedGain(ctx, recorded.ID); !errors.Is(err, apperrors.ErrInvalidKind) {
			t.Errorf("Expected ErrInvalidKind, got %v", err)
		}
	})
}

// TestCoordinator_OwnerScoping tests data isolation between owners.
//
// WHY: Wrong-owner access must be indistinguishable from data that does not
// exist, and switching the active owner must never leak the previous
// owner's rows into the new snapshot.
func TestCoordinator_OwnerScoping(t *testing.T) {
	ctx := context.Background()

	t.Run("another owner's rows are invisible", func(t *testing.T) {
		coordinator, db := newTestCoordinator(t)
		activateOwner(t, coordinator)

		other := testutil.MakeID()
		foreign := testutil.CreatePosition(t, db, other, "XXXX")
		testutil.CreateBuy(t, db, other, foreign.ID, 10, 100, time.Now().UTC())

		snapshot := coordinator.Snapshot()
		if len(snapshot.Positions) != 0 || len(snapshot.Transactions) != 0 {
			t.Errorf("Expected empty snapshot for fresh owner, got %d positions and %d transactions",
				len(snapshot.Positions), len(snapshot.Transactions))
		}

		if err := coordinator.DeletePosition(ctx, foreign.ID); !errors.Is(err, apperrors.ErrPositionNotFound) {
			t.Errorf("Expected ErrPositionNotFound for foreign position, got %v", err)
		}
	})

	t.Run("switching owners swaps the snapshot", func(t *testing.T) {
		coordinator, _ := newTestCoordinator(t)
		activateOwner(t, coordinator)

		if _, err := coordinator.AddPosition(ctx, model.Position{Symbol: "AAA", Name: "First", Class: model.AssetClassStock, CurrentPrice: 10}); err != nil {
			t.Fatalf("AddPosition() returned unexpected error: %v", err)
		}

		secondOwner := testutil.MakeID()
		if err := coordinator.SetOwner(ctx, secondOwner); err != nil {
			t.Fatalf("SetOwner() returned unexpected error: %v", err)
		}

		snapshot := coordinator.Snapshot()
		if snapshot.OwnerID != secondOwner {
			t.Errorf("Expected owner %s, got %s", secondOwner, snapshot.OwnerID)
		}
		if len(snapshot.Positions) != 0 {
			t.Errorf("Expected empty position set for new owner, got %d", len(snapshot.Positions))
		}
	})

	t.Run("clearing removes only the active owner's data", func(t *testing.T) {
		coordinator, db := newTestCoordinator(t)
		activateOwner(t, coordinator)

		if _, err := coordinator.AddPosition(ctx, model.Position{Symbol: "AAA", Name: "Mine", Class: model.AssetClassStock, CurrentPrice: 10}); err != nil {
			t.Fatalf("AddPosition() returned unexpected error: %v", err)
		}
		testutil.CreatePosition(t, db, testutil.MakeID(), "YYYY")

		if err := coordinator.ClearOwnerData(ctx); err != nil {
			t.Fatalf("ClearOwnerData() returned unexpected error: %v", err)
		}

		if got := len(coordinator.Snapshot().Positions); got != 0 {
			t.Errorf("Expected empty snapshot after clear, got %d positions", got)
		}
		// The other owner's row survives.
		testutil.AssertRowCount(t, db, "positions", 1)
	})
}

// TestCoordinator_Publishing tests snapshot publication to observers.
//
// WHY: Observers drive live views. They must see every successful mutation
// exactly once, never a failed one, and must be able to call back into the
// coordinator without deadlocking.
func TestCoordinator_Publishing(t *testing.T) {
	ctx := context.Background()

	t.Run("observers see successful mutations", func(t *testing.T) {
		coordinator, _ := newTestCoordinator(t)
		activateOwner(t, coordinator)

		var published []model.Snapshot
		coordinator.Subscribe(func(s model.Snapshot) {
			published = append(published, s)
		})

		if _, err := coordinator.AddPosition(ctx, model.Position{Symbol: "AAA", Name: "One", Class: model.AssetClassStock, CurrentPrice: 10}); err != nil {
			t.Fatalf("AddPosition() returned unexpected error: %v", err)
		}

		if len(published) != 1 {
			t.Fatalf("Expected 1 published snapshot, got %d", len(published))
		}
		if len(published[0].Positions) != 1 {
			t.Errorf("Expected published snapshot with 1 position, got %d", len(published[0].Positions))
		}
	})

	t.Run("failed mutations publish nothing", func(t *testing.T) {
		coordinator, _ := newTestCoordinator(t)
		activateOwner(t, coordinator)

		published := 0
		coordinator.Subscribe(func(model.Snapshot) { published++ })

		if err := coordinator.DeletePosition(ctx, testutil.MakeID()); err == nil {
			t.Fatal("Expected an error deleting a missing position")
		}

		if published != 0 {
			t.Errorf("Expected no publications after failed mutation, got %d", published)
		}
	})

	t.Run("observers may call back into the coordinator", func(t *testing.T) {
		coordinator, _ := newTestCoordinator(t)
		activateOwner(t, coordinator)

		var seen model.Snapshot
		coordinator.Subscribe(func(model.Snapshot) {
			seen = coordinator.Snapshot()
		})

		if _, err := coordinator.AddPosition(ctx, model.Position{Symbol: "AAA", Name: "One", Class: model.AssetClassStock, CurrentPrice: 10}); err != nil {
			t.Fatalf("AddPosition() returned unexpected error: %v", err)
		}

		if len(seen.Positions) != 1 {
			t.Errorf("Expected callback snapshot with 1 position, got %d", len(seen.Positions))
		}
	})
}

// TestCoordinator_PriceUpdates tests the simulator integration.
//
// WHY: Simulator ticks and user mutations share one position set. Ticks must
// refresh the published summary, and holdings changes while the simulator
// runs must re-seed its tracked set.
func TestCoordinator_PriceUpdates(t *testing.T) {
	ctx := context.Background()

	t.Run("a tick refreshes the snapshot and summary", func(t *testing.T) {
		coordinator, _ := newTestCoordinator(t)
		activateOwner(t, coordinator)

		position, err := coordinator.AddPosition(ctx, model.Position{Symbol: "AAA", Name: "One", Class: model.AssetClassStock, CurrentPrice: 100})
		if err != nil {
			t.Fatalf("AddPosition() returned unexpected error: %v", err)
		}
		base := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
		if _, err := coordinator.AddTransaction(ctx, model.Transaction{
			PositionID:   position.ID,
			Kind:         model.TransactionBuy,
			Quantity:     10,
			PricePerUnit: 100,
			OccurredAt:   base,
		}); err != nil {
			t.Fatalf("AddTransaction() returned unexpected error: %v", err)
		}

		if err := coordinator.StartPriceUpdates(); err != nil {
			t.Fatalf("StartPriceUpdates() returned unexpected error: %v", err)
		}
		defer coordinator.StopPriceUpdates()

		published := 0
		coordinator.Subscribe(func(model.Snapshot) { published++ })

		if err := coordinator.Simulator().TriggerUpdate(); err != nil {
			t.Fatalf("TriggerUpdate() returned unexpected error: %v", err)
		}

		if published != 1 {
			t.Fatalf("Expected 1 published snapshot from the tick, got %d", published)
		}

		snapshot := coordinator.Snapshot()
		ticked := snapshot.Positions[0]
		if ticked.PreviousReference != 100 {
			t.Errorf("Expected previous reference 100 after tick, got %v", ticked.PreviousReference)
		}
		if snapshot.Summary.TotalValue == 0 {
			t.Error("Expected a re-aggregated summary after the tick")
		}
	})

	t.Run("deleting a position re-seeds a running simulator", func(t *testing.T) {
		coordinator, _ := newTestCoordinator(t)
		activateOwner(t, coordinator)

		keep, err := coordinator.AddPosition(ctx, model.Position{Symbol: "KEEP", Name: "Keep", Class: model.AssetClassStock, CurrentPrice: 100})
		if err != nil {
			t.Fatalf("AddPosition() returned unexpected error: %v", err)
		}
		doomed, err := coordinator.AddPosition(ctx, model.Position{Symbol: "GONE", Name: "Gone", Class: model.AssetClassStock, CurrentPrice: 100})
		if err != nil {
			t.Fatalf("AddPosition() returned unexpected error: %v", err)
		}

		if err := coordinator.StartPriceUpdates(); err != nil {
			t.Fatalf("StartPriceUpdates() returned unexpected error: %v", err)
		}
		defer coordinator.StopPriceUpdates()

		if err := coordinator.DeletePosition(ctx, doomed.ID); err != nil {
			t.Fatalf("DeletePosition() returned unexpected error: %v", err)
		}

		var lastBatch []model.Position
		coordinator.Subscribe(func(s model.Snapshot) { lastBatch = s.Positions })
		if err := coordinator.Simulator().TriggerUpdate(); err != nil {
			t.Fatalf("TriggerUpdate() returned unexpected error: %v", err)
		}

		if len(lastBatch) != 1 || lastBatch[0].ID != keep.ID {
			t.Errorf("Expected the tick to cover only the surviving position, got %v", lastBatch)
		}
	})

	t.Run("logout stops the simulator and drops session state", func(t *testing.T) {
		coordinator, _ := newTestCoordinator(t)
		activateOwner(t, coordinator)

		if _, err := coordinator.AddPosition(ctx, model.Position{Symbol: "AAA", Name: "One", Class: model.AssetClassStock, CurrentPrice: 100}); err != nil {
			t.Fatalf("AddPosition() returned unexpected error: %v", err)
		}
		if err := coordinator.StartPriceUpdates(); err != nil {
			t.Fatalf("StartPriceUpdates() returned unexpected error: %v", err)
		}

		coordinator.Logout()

		if coordinator.Simulator().Running() {
			t.Error("Expected simulator stopped after logout")
		}
		snapshot := coordinator.Snapshot()
		if snapshot.OwnerID != "" || len(snapshot.Positions) != 0 {
			t.Errorf("Expected empty session state, got owner=%q positions=%d",
				snapshot.OwnerID, len(snapshot.Positions))
		}
	})
}
