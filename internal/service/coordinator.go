package service

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/rdekker/holdings-tracker/internal/apperrors"
	"github.com/rdekker/holdings-tracker/internal/model"
)

// Coordinator holds the canonical in-memory snapshot for exactly one active
// owner and serializes every mutation against it. Both user-initiated CRUD
// and simulator ticks funnel through the same mutex, which closes the race
// between the two flows touching one position set.
//
// Contract for every transaction-affecting mutation: persist the ledger
// change, re-read the ledger from storage, recompute quantity and average
// cost, persist the recomputed pair, reload live state, re-aggregate the
// summary, then publish. Any failure aborts before publish and leaves the
// previous in-memory snapshot intact.
type Coordinator struct {
	positionRepo    PositionRepository
	transactionRepo TransactionRepository
	simulator       *PriceSimulator

	mu           sync.Mutex
	ownerID      string
	positions    []model.Position
	transactions []model.Transaction
	summary      model.Summary
	observers    []func(model.Snapshot)
}

// NewCoordinator creates a coordinator with no active owner.
func NewCoordinator(positionRepo PositionRepository, transactionRepo TransactionRepository, simulator *PriceSimulator) *Coordinator {
	return &Coordinator{
		positionRepo:    positionRepo,
		transactionRepo: transactionRepo,
		simulator:       simulator,
	}
}

// mutate runs fn under the coordinator mutex, reloads live state, re-seeds a
// running simulator, and publishes the new snapshot. If fn or the reload
// fails, the previous in-memory snapshot stays intact and nothing is
// published. Observers are invoked after the mutex is released so they may
// call back into the coordinator.
func (c *Coordinator) mutate(ctx context.Context, fn func(ctx context.Context) error) error {
	c.mu.Lock()

	if err := c.requireOwnerLocked(); err != nil {
		c.mu.Unlock()
		return err
	}
	if err := fn(ctx); err != nil {
		c.mu.Unlock()
		return err
	}
	if err := c.reloadLocked(ctx); err != nil {
		c.mu.Unlock()
		return err
	}

	if c.simulator.Running() {
		c.simulator.UpdateAssetList(c.positions)
	}

	snapshot := c.snapshotLocked()
	observers := c.observersLocked()
	c.mu.Unlock()

	publish(observers, snapshot)
	return nil
}

// SetOwner activates an owner session and loads their state. Switching
// owners stops any running price simulation.
func (c *Coordinator) SetOwner(ctx context.Context, ownerID string) error {
	c.mu.Lock()
	if c.ownerID != "" && c.ownerID != ownerID {
		c.simulator.Stop()
	}
	c.ownerID = ownerID

	if err := c.reloadLocked(ctx); err != nil {
		c.mu.Unlock()
		return err
	}

	snapshot := c.snapshotLocked()
	observers := c.observersLocked()
	c.mu.Unlock()

	publish(observers, snapshot)
	return nil
}

// Reload refreshes the in-memory state from storage and publishes it.
func (c *Coordinator) Reload(ctx context.Context) error {
	return c.mutate(ctx, func(context.Context) error { return nil })
}

// Snapshot returns a copy of the current in-memory state.
func (c *Coordinator) Snapshot() model.Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// Subscribe registers an observer invoked with a fresh snapshot after every
// successful mutation, including simulator ticks.
func (c *Coordinator) Subscribe(fn func(model.Snapshot)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.observers = append(c.observers, fn)
}

// AddPosition persists a new position and publishes the refreshed state.
// The new position starts with zero quantity and cost; holdings only ever
// change through transactions.
func (c *Coordinator) AddPosition(ctx context.Context, p model.Position) (model.Position, error) {
	err := c.mutate(ctx, func(ctx context.Context) error {
		now := time.Now().UTC()
		p.ID = uuid.New().String()
		p.OwnerID = c.ownerID
		p.Quantity = 0
		p.AverageCost = 0
		if p.PreviousReference == 0 {
			p.PreviousReference = p.CurrentPrice
		}
		p.CreatedAt = now
		p.UpdatedAt = now

		return c.positionRepo.InsertPosition(ctx, &p)
	})
	if err != nil {
		return model.Position{}, err
	}
	return p, nil
}

// UpdatePosition applies descriptive and price changes to an existing
// position. A price change shifts the previous reference to the old price,
// mirroring tick semantics, so day change stays meaningful. Quantity and
// average cost are never writable through this path.
func (c *Coordinator) UpdatePosition(ctx context.Context, p model.Position) (model.Position, error) {
	err := c.mutate(ctx, func(ctx context.Context) error {
		existing, err := c.positionRepo.GetPosition(ctx, c.ownerID, p.ID)
		if err != nil {
			return err
		}

		if p.CurrentPrice != existing.CurrentPrice {
			p.PreviousReference = existing.CurrentPrice
		} else {
			p.PreviousReference = existing.PreviousReference
		}
		p.OwnerID = c.ownerID
		p.UpdatedAt = time.Now().UTC()

		return c.positionRepo.UpdatePosition(ctx, &p)
	})
	if err != nil {
		return model.Position{}, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	return c.findPositionLocked(p.ID), nil
}

// DeletePosition removes a position; its transactions are removed by the
// storage-level cascade. A running simulator is re-seeded with the reduced
// set so it never updates a deleted position.
func (c *Coordinator) DeletePosition(ctx context.Context, positionID string) error {
	return c.mutate(ctx, func(ctx context.Context) error {
		return c.positionRepo.DeletePosition(ctx, c.ownerID, positionID)
	})
}

// AddTransaction records a buy or sell against a position and runs the full
// recompute-and-publish pipeline.
func (c *Coordinator) AddTransaction(ctx context.Context, t model.Transaction) (model.Transaction, error) {
	err := c.mutate(ctx, func(ctx context.Context) error {
		// Reject transactions against absent or foreign positions up front.
		if _, err := c.positionRepo.GetPosition(ctx, c.ownerID, t.PositionID); err != nil {
			return err
		}

		t.ID = uuid.New().String()
		t.OwnerID = c.ownerID
		t.CreatedAt = time.Now().UTC()

		if err := c.transactionRepo.InsertTransaction(ctx, &t); err != nil {
			return err
		}
		return c.recomputeHoldingLocked(ctx, t.PositionID)
	})
	if err != nil {
		return model.Transaction{}, err
	}
	return t, nil
}

// UpdateTransaction replaces the economically meaningful fields of an
// existing transaction and recomputes the affected position. A transaction
// cannot be moved to a different position.
func (c *Coordinator) UpdateTransaction(ctx context.Context, t model.Transaction) (model.Transaction, error) {
	err := c.mutate(ctx, func(ctx context.Context) error {
		existing, err := c.transactionRepo.GetTransaction(ctx, c.ownerID, t.ID)
		if err != nil {
			return err
		}

		t.OwnerID = c.ownerID
		t.PositionID = existing.PositionID
		t.CreatedAt = existing.CreatedAt

		if err := c.transactionRepo.UpdateTransaction(ctx, &t); err != nil {
			return err
		}
		return c.recomputeHoldingLocked(ctx, existing.PositionID)
	})
	if err != nil {
		return model.Transaction{}, err
	}
	return t, nil
}

// DeleteTransaction removes a transaction and recomputes the affected position.
func (c *Coordinator) DeleteTransaction(ctx context.Context, transactionID string) error {
	return c.mutate(ctx, func(ctx context.Context) error {
		existing, err := c.transactionRepo.GetTransaction(ctx, c.ownerID, transactionID)
		if err != nil {
			return err
		}
		if err := c.transactionRepo.DeleteTransaction(ctx, c.ownerID, transactionID); err != nil {
			return err
		}
		return c.recomputeHoldingLocked(ctx, existing.PositionID)
	})
}

// RealizedGain reports the gain recognized by a sell transaction against
// the position's current average cost.
func (c *Coordinator) RealizedGain(ctx context.Context, transactionID string) (float64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.requireOwnerLocked(); err != nil {
		return 0, err
	}

	t, err := c.transactionRepo.GetTransaction(ctx, c.ownerID, transactionID)
	if err != nil {
		return 0, err
	}
	if t.Kind != model.TransactionSell {
		return 0, apperrors.ErrInvalidKind
	}

	position, err := c.positionRepo.GetPosition(ctx, c.ownerID, t.PositionID)
	if err != nil {
		return 0, err
	}

	return RealizedGain(t, position.AverageCost), nil
}

// StartPriceUpdates begins simulated price motion over the owner's current
// positions. Updates flow back through the coordinator, so every tick
// publishes a fresh snapshot.
func (c *Coordinator) StartPriceUpdates() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.requireOwnerLocked(); err != nil {
		return err
	}
	return c.simulator.Start(c.ownerID, c.positions, c.applyPriceUpdates)
}

// StopPriceUpdates stops simulated price motion. No persistence write
// occurs after it returns.
func (c *Coordinator) StopPriceUpdates() {
	c.simulator.Stop()
}

// Simulator exposes the underlying price simulator for the manual trigger
// and market shock operations.
func (c *Coordinator) Simulator() *PriceSimulator {
	return c.simulator
}

// ClearOwnerData stops price updates, deletes every position and
// transaction for the active owner, and publishes the resulting empty state.
func (c *Coordinator) ClearOwnerData(ctx context.Context) error {
	c.simulator.Stop()

	return c.mutate(ctx, func(ctx context.Context) error {
		if err := c.transactionRepo.DeleteAll(ctx, c.ownerID); err != nil {
			return err
		}
		return c.positionRepo.DeleteAll(ctx, c.ownerID)
	})
}

// Logout stops price updates and discards the in-memory session state.
// Persisted rows are untouched.
func (c *Coordinator) Logout() {
	c.simulator.Stop()

	c.mu.Lock()
	defer c.mu.Unlock()
	c.ownerID = ""
	c.positions = nil
	c.transactions = nil
	c.summary = model.Summary{}
}

// applyPriceUpdates is the simulator's onUpdate callback. It merges the
// persisted price batch into the live set, re-aggregates, and publishes.
func (c *Coordinator) applyPriceUpdates(updated []model.Position) {
	c.mu.Lock()

	if c.ownerID == "" || len(updated) == 0 {
		c.mu.Unlock()
		return
	}

	byID := make(map[string]model.Position, len(updated))
	for _, p := range updated {
		byID[p.ID] = p
	}
	for i := range c.positions {
		if p, ok := byID[c.positions[i].ID]; ok && p.OwnerID == c.ownerID {
			c.positions[i].CurrentPrice = p.CurrentPrice
			c.positions[i].PreviousReference = p.PreviousReference
		}
	}
	c.summary = Summarize(c.positions, len(c.transactions))

	snapshot := c.snapshotLocked()
	observers := c.observersLocked()
	c.mu.Unlock()

	publish(observers, snapshot)
}

// recomputeHoldingLocked re-reads the position's ledger from storage and
// persists the recomputed quantity and average cost. Reading from storage
// rather than trusting the in-memory copy keeps a just-failed write from
// feeding stale data into the recompute.
func (c *Coordinator) recomputeHoldingLocked(ctx context.Context, positionID string) error {
	transactions, err := c.transactionRepo.GetTransactionsForPosition(ctx, c.ownerID, positionID)
	if err != nil {
		return err
	}

	quantity, averageCost := Recompute(transactions)
	if quantity < 0 {
		log.Printf("position %s has negative recomputed quantity %.4f; ledger oversells its buys", positionID, quantity)
	}

	return c.positionRepo.UpdateHolding(ctx, c.ownerID, positionID, quantity, averageCost)
}

// reloadLocked fetches positions and transactions concurrently and swaps
// them in only if both reads succeed.
func (c *Coordinator) reloadLocked(ctx context.Context) error {
	var (
		positions    []model.Position
		transactions []model.Transaction
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		positions, err = c.positionRepo.GetPositions(gctx, c.ownerID)
		return err
	})
	g.Go(func() error {
		var err error
		transactions, err = c.transactionRepo.GetTransactions(gctx, c.ownerID)
		return err
	})
	if err := g.Wait(); err != nil {
		return err
	}

	c.positions = positions
	c.transactions = transactions
	c.summary = Summarize(positions, len(transactions))
	return nil
}

func (c *Coordinator) requireOwnerLocked() error {
	if c.ownerID == "" {
		return apperrors.ErrOwnerNotSet
	}
	return nil
}

func (c *Coordinator) findPositionLocked(positionID string) model.Position {
	for _, p := range c.positions {
		if p.ID == positionID {
			return p
		}
	}
	return model.Position{}
}

func (c *Coordinator) snapshotLocked() model.Snapshot {
	return model.Snapshot{
		OwnerID:      c.ownerID,
		Positions:    clonePositions(c.positions),
		Transactions: append([]model.Transaction{}, c.transactions...),
		Summary:      c.summary,
		TakenAt:      time.Now().UTC(),
	}
}

func (c *Coordinator) observersLocked() []func(model.Snapshot) {
	return append([]func(model.Snapshot){}, c.observers...)
}

func publish(observers []func(model.Snapshot), snapshot model.Snapshot) {
	for _, observer := range observers {
		observer(snapshot)
	}
}
