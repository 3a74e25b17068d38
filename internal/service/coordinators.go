package service

import (
	"context"
	"sync"
	"time"
)

// CoordinatorSet hands out one coordinator per owner. Each coordinator gets
// its own price simulator, so one owner's simulation never touches
// another's positions.
type CoordinatorSet struct {
	positionRepo    PositionRepository
	transactionRepo TransactionRepository
	tickInterval    time.Duration

	mu      sync.Mutex
	byOwner map[string]*Coordinator
}

// NewCoordinatorSet creates an empty coordinator set.
func NewCoordinatorSet(positionRepo PositionRepository, transactionRepo TransactionRepository, tickInterval time.Duration) *CoordinatorSet {
	return &CoordinatorSet{
		positionRepo:    positionRepo,
		transactionRepo: transactionRepo,
		tickInterval:    tickInterval,
		byOwner:         make(map[string]*Coordinator),
	}
}

// ForOwner returns the coordinator for ownerID, creating and loading one on
// first use.
func (cs *CoordinatorSet) ForOwner(ctx context.Context, ownerID string) (*Coordinator, error) {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	if coordinator, ok := cs.byOwner[ownerID]; ok {
		return coordinator, nil
	}

	simulator := NewPriceSimulator(cs.positionRepo, cs.tickInterval)
	coordinator := NewCoordinator(cs.positionRepo, cs.transactionRepo, simulator)
	if err := coordinator.SetOwner(ctx, ownerID); err != nil {
		return nil, err
	}

	cs.byOwner[ownerID] = coordinator
	return coordinator, nil
}

// Remove logs the owner's coordinator out and drops it from the set.
func (cs *CoordinatorSet) Remove(ownerID string) {
	cs.mu.Lock()
	coordinator, ok := cs.byOwner[ownerID]
	delete(cs.byOwner, ownerID)
	cs.mu.Unlock()

	if ok {
		coordinator.Logout()
	}
}

// StopAll stops every owner's price simulation. Used on server shutdown so
// no tick outlives the HTTP listener.
func (cs *CoordinatorSet) StopAll() {
	cs.mu.Lock()
	coordinators := make([]*Coordinator, 0, len(cs.byOwner))
	for _, coordinator := range cs.byOwner {
		coordinators = append(coordinators, coordinator)
	}
	cs.mu.Unlock()

	for _, coordinator := range coordinators {
		coordinator.StopPriceUpdates()
	}
}
