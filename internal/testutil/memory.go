package testutil

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/rdekker/holdings-tracker/internal/apperrors"
	"github.com/rdekker/holdings-tracker/internal/model"
)

// MemoryPositionRepository is an in-memory implementation of the position
// storage contract. It mirrors the sqlite repository's semantics (owner
// scoping, symbol ordering, duplicate detection) so services can be tested
// without a database.
//
// FailPriceUpdate lets a test inject a per-position error into UpdatePrice,
// and FailBatch makes UpdatePrices fail atomically.
type MemoryPositionRepository struct {
	mu        sync.Mutex
	positions map[string]model.Position

	// FailPriceUpdate maps position IDs to the error UpdatePrice should
	// return for them. Other positions persist normally.
	FailPriceUpdate map[string]error

	// FailBatch makes UpdatePrices return this error without applying
	// any of the batch.
	FailBatch error

	// PriceWrites counts successful UpdatePrice calls.
	PriceWrites int
}

// NewMemoryPositionRepository creates an empty in-memory position repository.
func NewMemoryPositionRepository() *MemoryPositionRepository {
	return &MemoryPositionRepository{
		positions:       make(map[string]model.Position),
		FailPriceUpdate: make(map[string]error),
	}
}

// Seed stores positions directly, bypassing duplicate checks.
func (r *MemoryPositionRepository) Seed(positions ...model.Position) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range positions {
		r.positions[p.ID] = p
	}
}

// GetPositions returns the owner's positions ordered by symbol.
func (r *MemoryPositionRepository) GetPositions(_ context.Context, ownerID string) ([]model.Position, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var result []model.Position
	for _, p := range r.positions {
		if p.OwnerID == ownerID {
			result = append(result, p)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Symbol < result[j].Symbol })
	return result, nil
}

// GetPosition returns one position scoped to the owner.
func (r *MemoryPositionRepository) GetPosition(_ context.Context, ownerID, positionID string) (model.Position, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.positions[positionID]
	if !ok || p.OwnerID != ownerID {
		return model.Position{}, apperrors.ErrPositionNotFound
	}
	return p, nil
}

// InsertPosition stores a new position, rejecting duplicate symbols per owner.
func (r *MemoryPositionRepository) InsertPosition(_ context.Context, p *model.Position) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.positions {
		if existing.OwnerID == p.OwnerID && existing.Symbol == p.Symbol {
			return apperrors.ErrDuplicateSymbol
		}
	}

	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now
	r.positions[p.ID] = *p
	return nil
}

// UpdatePosition replaces the descriptive fields and prices of a position.
// Quantity and average cost are preserved; only UpdateHolding writes those.
func (r *MemoryPositionRepository) UpdatePosition(_ context.Context, p *model.Position) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.positions[p.ID]
	if !ok || current.OwnerID != p.OwnerID {
		return apperrors.ErrPositionNotFound
	}

	current.Symbol = p.Symbol
	current.Name = p.Name
	current.Class = p.Class
	current.CurrentPrice = p.CurrentPrice
	current.PreviousReference = p.PreviousReference
	current.UpdatedAt = time.Now().UTC()
	r.positions[p.ID] = current
	return nil
}

// UpdateHolding writes the recomputed quantity and average cost.
func (r *MemoryPositionRepository) UpdateHolding(_ context.Context, ownerID, positionID string, quantity, averageCost float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.positions[positionID]
	if !ok || p.OwnerID != ownerID {
		return apperrors.ErrPositionNotFound
	}

	p.Quantity = quantity
	p.AverageCost = averageCost
	p.UpdatedAt = time.Now().UTC()
	r.positions[positionID] = p
	return nil
}

// UpdatePrice writes one position's simulated price, honoring injected failures.
func (r *MemoryPositionRepository) UpdatePrice(_ context.Context, ownerID, positionID string, currentPrice, previousReference float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err, ok := r.FailPriceUpdate[positionID]; ok {
		return err
	}

	p, ok := r.positions[positionID]
	if !ok || p.OwnerID != ownerID {
		return apperrors.ErrPositionNotFound
	}

	p.CurrentPrice = currentPrice
	p.PreviousReference = previousReference
	p.UpdatedAt = time.Now().UTC()
	r.positions[positionID] = p
	r.PriceWrites++
	return nil
}

// UpdatePrices writes a whole batch of prices atomically.
func (r *MemoryPositionRepository) UpdatePrices(_ context.Context, ownerID string, positions []model.Position) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.FailBatch != nil {
		return r.FailBatch
	}

	// Validate the whole batch before writing anything
	for _, p := range positions {
		current, ok := r.positions[p.ID]
		if !ok || current.OwnerID != ownerID {
			return apperrors.ErrPositionNotFound
		}
	}

	now := time.Now().UTC()
	for _, p := range positions {
		current := r.positions[p.ID]
		current.CurrentPrice = p.CurrentPrice
		current.PreviousReference = p.PreviousReference
		current.UpdatedAt = now
		r.positions[p.ID] = current
	}
	return nil
}

// DeletePosition removes a position scoped to the owner.
func (r *MemoryPositionRepository) DeletePosition(_ context.Context, ownerID, positionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.positions[positionID]
	if !ok || p.OwnerID != ownerID {
		return apperrors.ErrPositionNotFound
	}
	delete(r.positions, positionID)
	return nil
}

// DeleteAll removes every position belonging to the owner.
func (r *MemoryPositionRepository) DeleteAll(_ context.Context, ownerID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, p := range r.positions {
		if p.OwnerID == ownerID {
			delete(r.positions, id)
		}
	}
	return nil
}

// Snapshot returns a copy of every stored position, for assertions.
func (r *MemoryPositionRepository) Snapshot() []model.Position {
	r.mu.Lock()
	defer r.mu.Unlock()

	result := make([]model.Position, 0, len(r.positions))
	for _, p := range r.positions {
		result = append(result, p)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Symbol < result[j].Symbol })
	return result
}

// memoryTransaction pairs a transaction with its insertion sequence so
// ledger ordering can break occurred-at ties the way the sqlite rowid does.
type memoryTransaction struct {
	model.Transaction
	seq int
}

// MemoryTransactionRepository is an in-memory implementation of the
// transaction storage contract.
type MemoryTransactionRepository struct {
	mu           sync.Mutex
	transactions map[string]memoryTransaction
	nextSeq      int
}

// NewMemoryTransactionRepository creates an empty in-memory transaction repository.
func NewMemoryTransactionRepository() *MemoryTransactionRepository {
	return &MemoryTransactionRepository{
		transactions: make(map[string]memoryTransaction),
	}
}

// Seed stores transactions directly in the given order.
func (r *MemoryTransactionRepository) Seed(transactions ...model.Transaction) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range transactions {
		r.transactions[t.ID] = memoryTransaction{Transaction: t, seq: r.nextSeq}
		r.nextSeq++
	}
}

// GetTransactions returns the owner's ledger ordered by occurrence time,
// with insertion order breaking ties.
func (r *MemoryTransactionRepository) GetTransactions(_ context.Context, ownerID string) ([]model.Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.orderedLocked(func(t memoryTransaction) bool {
		return t.OwnerID == ownerID
	}), nil
}

// GetTransactionsForPosition returns one position's ledger in occurrence order.
func (r *MemoryTransactionRepository) GetTransactionsForPosition(_ context.Context, ownerID, positionID string) ([]model.Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.orderedLocked(func(t memoryTransaction) bool {
		return t.OwnerID == ownerID && t.PositionID == positionID
	}), nil
}

// GetTransaction returns one transaction scoped to the owner.
func (r *MemoryTransactionRepository) GetTransaction(_ context.Context, ownerID, transactionID string) (model.Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.transactions[transactionID]
	if !ok || t.OwnerID != ownerID {
		return model.Transaction{}, apperrors.ErrTransactionNotFound
	}
	return t.Transaction, nil
}

// InsertTransaction stores a new transaction.
func (r *MemoryTransactionRepository) InsertTransaction(_ context.Context, t *model.Transaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	t.CreatedAt = time.Now().UTC()
	r.transactions[t.ID] = memoryTransaction{Transaction: *t, seq: r.nextSeq}
	r.nextSeq++
	return nil
}

// UpdateTransaction replaces an existing transaction's fields.
func (r *MemoryTransactionRepository) UpdateTransaction(_ context.Context, t *model.Transaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.transactions[t.ID]
	if !ok || current.OwnerID != t.OwnerID {
		return apperrors.ErrTransactionNotFound
	}

	updated := *t
	updated.CreatedAt = current.CreatedAt
	r.transactions[t.ID] = memoryTransaction{Transaction: updated, seq: current.seq}
	return nil
}

// DeleteTransaction removes a transaction scoped to the owner.
func (r *MemoryTransactionRepository) DeleteTransaction(_ context.Context, ownerID, transactionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.transactions[transactionID]
	if !ok || t.OwnerID != ownerID {
		return apperrors.ErrTransactionNotFound
	}
	delete(r.transactions, transactionID)
	return nil
}

// DeleteAll removes every transaction belonging to the owner.
func (r *MemoryTransactionRepository) DeleteAll(_ context.Context, ownerID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, t := range r.transactions {
		if t.OwnerID == ownerID {
			delete(r.transactions, id)
		}
	}
	return nil
}

func (r *MemoryTransactionRepository) orderedLocked(match func(memoryTransaction) bool) []model.Transaction {
	var filtered []memoryTransaction
	for _, t := range r.transactions {
		if match(t) {
			filtered = append(filtered, t)
		}
	}
	sort.Slice(filtered, func(i, j int) bool {
		if filtered[i].OccurredAt.Equal(filtered[j].OccurredAt) {
			return filtered[i].seq < filtered[j].seq
		}
		return filtered[i].OccurredAt.Before(filtered[j].OccurredAt)
	})

	result := make([]model.Transaction, len(filtered))
	for i, t := range filtered {
		result[i] = t.Transaction
	}
	return result
}
