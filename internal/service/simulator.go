package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/rdekker/holdings-tracker/internal/model"
)

// DefaultTickInterval is the price simulation interval used when no
// interval is configured.
const DefaultTickInterval = 5 * time.Second

// maxDriftPercent bounds the uniform random price movement per tick.
const maxDriftPercent = 2.0

// ErrSimulatorStopped indicates an operation that requires a running
// simulation was called while the simulator was stopped.
var ErrSimulatorStopped = errors.New("price simulator is not running")

// PriceUpdateFunc receives the positions whose prices were successfully
// persisted during one tick. It is invoked exactly once per tick.
type PriceUpdateFunc func(updated []model.Position)

// PriceSimulator perturbs tracked position prices on a fixed schedule.
//
// It is a two-state machine (stopped, running). Start schedules a periodic
// tick; each tick draws a uniform movement in [-2%, +2%] per position,
// clamps the result to the minimum price floor, shifts the previous
// reference to the pre-tick price, and persists the pair. A persistence
// failure for one position is logged and skipped; the rest of the batch
// proceeds.
//
// All state is guarded by one mutex. Stop acquires it, so an in-flight
// tick finishes its persistence batch before Stop returns and no write
// happens afterwards.
type PriceSimulator struct {
	positionRepo PositionRepository
	interval     time.Duration

	mu        sync.Mutex
	rng       *rand.Rand
	schedule  *cron.Cron
	running   bool
	ownerID   string
	positions []model.Position
	onUpdate  PriceUpdateFunc
}

// NewPriceSimulator creates a stopped simulator persisting through
// positionRepo. A non-positive interval falls back to DefaultTickInterval.
func NewPriceSimulator(positionRepo PositionRepository, interval time.Duration) *PriceSimulator {
	if interval <= 0 {
		interval = DefaultTickInterval
	}
	return &PriceSimulator{
		positionRepo: positionRepo,
		interval:     interval,
		rng:          rand.New(rand.NewSource(time.Now().UnixNano())), //nolint:gosec // simulation noise, not crypto
	}
}

// Start begins periodic price updates for the given owner's positions,
// reporting each tick's persisted batch through onUpdate. A prior run is
// implicitly stopped first; there is a single active run per instance.
func (s *PriceSimulator) Start(ownerID string, positions []model.Position, onUpdate PriceUpdateFunc) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stopLocked()

	s.ownerID = ownerID
	s.positions = clonePositions(positions)
	s.onUpdate = onUpdate
	s.running = true

	s.schedule = cron.New()
	if _, err := s.schedule.AddFunc(fmt.Sprintf("@every %s", s.interval), s.tick); err != nil {
		s.stopLocked()
		return fmt.Errorf("failed to schedule price updates: %w", err)
	}
	s.schedule.Start()

	return nil
}

// Stop cancels the pending tick and clears all tracked state. An in-flight
// tick may finish its current batch, but no persistence write happens after
// Stop returns and the tick is never rescheduled.
func (s *PriceSimulator) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked()
}

func (s *PriceSimulator) stopLocked() {
	if s.schedule != nil {
		s.schedule.Stop()
		s.schedule = nil
	}
	s.running = false
	s.ownerID = ""
	s.positions = nil
	s.onUpdate = nil
}

// Running reports whether the simulator currently has an active run.
func (s *PriceSimulator) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// UpdateAssetList replaces the tracked position set without altering run
// state. Called when the owner's holdings change while the simulator runs,
// so a deleted position is never updated again.
func (s *PriceSimulator) UpdateAssetList(positions []model.Position) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return
	}
	s.positions = clonePositions(positions)
}

// TriggerUpdate forces one tick synchronously. Intended for deterministic
// testing and manual refresh; returns ErrSimulatorStopped when no run is
// active.
func (s *PriceSimulator) TriggerUpdate() error {
	s.mu.Lock()
	running := s.running
	s.mu.Unlock()

	if !running {
		return ErrSimulatorStopped
	}
	s.tick()
	return nil
}

// SimulateMarketCrash drops every tracked position's price by the given
// percentage in one atomic batch, bypassing the random walk.
func (s *PriceSimulator) SimulateMarketCrash(percent float64) error {
	return s.shock(-math.Abs(percent))
}

// SimulateMarketRally raises every tracked position's price by the given
// percentage in one atomic batch, bypassing the random walk.
func (s *PriceSimulator) SimulateMarketRally(percent float64) error {
	return s.shock(math.Abs(percent))
}

// tick applies one round of random price movement. The onUpdate callback is
// invoked after the mutex is released so observers may call back into
// components that themselves start or stop this simulator.
func (s *PriceSimulator) tick() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}

	ctx := context.Background()
	updated := make([]model.Position, 0, len(s.positions))

	for i := range s.positions {
		p := s.positions[i]

		drift := (s.rng.Float64()*2 - 1) * maxDriftPercent / 100
		newPrice := p.CurrentPrice * (1 + drift)
		if newPrice < model.MinimumPrice {
			newPrice = model.MinimumPrice
		}
		previousReference := p.CurrentPrice

		if err := s.positionRepo.UpdatePrice(ctx, s.ownerID, p.ID, newPrice, previousReference); err != nil {
			log.Printf("price update for %s skipped: %v", p.Symbol, err)
			continue
		}

		s.positions[i].CurrentPrice = newPrice
		s.positions[i].PreviousReference = previousReference
		updated = append(updated, s.positions[i])
	}

	onUpdate := s.onUpdate
	s.mu.Unlock()

	if onUpdate != nil {
		onUpdate(updated)
	}
}

// shock applies a uniform signed percentage shift to every tracked position
// in one atomic batch write.
func (s *PriceSimulator) shock(percent float64) error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return ErrSimulatorStopped
	}

	shifted := clonePositions(s.positions)
	for i := range shifted {
		previousReference := shifted[i].CurrentPrice
		newPrice := previousReference * (1 + percent/100)
		if newPrice < model.MinimumPrice {
			newPrice = model.MinimumPrice
		}
		shifted[i].CurrentPrice = newPrice
		shifted[i].PreviousReference = previousReference
	}

	if err := s.positionRepo.UpdatePrices(context.Background(), s.ownerID, shifted); err != nil {
		s.mu.Unlock()
		return fmt.Errorf("failed to persist market shock: %w", err)
	}

	s.positions = shifted
	updated := clonePositions(shifted)
	onUpdate := s.onUpdate
	s.mu.Unlock()

	if onUpdate != nil {
		onUpdate(updated)
	}
	return nil
}

func clonePositions(positions []model.Position) []model.Position {
	cloned := make([]model.Position, len(positions))
	copy(cloned, positions)
	return cloned
}
