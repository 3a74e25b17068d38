package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/rdekker/holdings-tracker/internal/api/request"
	"github.com/rdekker/holdings-tracker/internal/api/response"
	"github.com/rdekker/holdings-tracker/internal/service"
)

// SimulatorHandler handles HTTP requests controlling price simulation.
type SimulatorHandler struct {
	coordinators *service.CoordinatorSet
}

// NewSimulatorHandler creates a new SimulatorHandler.
func NewSimulatorHandler(coordinators *service.CoordinatorSet) *SimulatorHandler {
	return &SimulatorHandler{coordinators: coordinators}
}

// Start handles POST requests to begin simulated price motion over the
// owner's positions. Starting again restarts the run.
//
// Endpoint: POST /api/simulator/start
// Response: 200 OK with the running state
func (h *SimulatorHandler) Start(w http.ResponseWriter, r *http.Request) {
	coordinator, ok := resolveCoordinator(w, r, h.coordinators)
	if !ok {
		return
	}

	if err := coordinator.StartPriceUpdates(); err != nil {
		respondServiceError(w, err, service.ErrSimulatorStopped)
		return
	}

	response.RespondJSON(w, http.StatusOK, map[string]bool{"running": true})
}

// Stop handles POST requests to stop simulated price motion. No persistence
// write occurs after the response is sent.
//
// Endpoint: POST /api/simulator/stop
// Response: 200 OK with the running state
func (h *SimulatorHandler) Stop(w http.ResponseWriter, r *http.Request) {
	coordinator, ok := resolveCoordinator(w, r, h.coordinators)
	if !ok {
		return
	}

	coordinator.StopPriceUpdates()
	response.RespondJSON(w, http.StatusOK, map[string]bool{"running": false})
}

// Trigger handles POST requests to force one price tick synchronously.
//
// Endpoint: POST /api/simulator/trigger
// Response: 200 OK with the refreshed positions
// Error: 409 Conflict if the simulator is not running
func (h *SimulatorHandler) Trigger(w http.ResponseWriter, r *http.Request) {
	coordinator, ok := resolveCoordinator(w, r, h.coordinators)
	if !ok {
		return
	}

	if err := coordinator.Simulator().TriggerUpdate(); err != nil {
		respondServiceError(w, err, service.ErrSimulatorStopped)
		return
	}
	response.RespondJSON(w, http.StatusOK, coordinator.Snapshot().Positions)
}

// Crash handles POST requests to drop every tracked position's price by a
// fixed percentage in one batch.
//
// Endpoint: POST /api/simulator/crash
// Response: 200 OK with the refreshed positions
// Error: 409 Conflict if the simulator is not running
func (h *SimulatorHandler) Crash(w http.ResponseWriter, r *http.Request) {
	h.shock(w, r, func(s *service.PriceSimulator, percent float64) error {
		return s.SimulateMarketCrash(percent)
	})
}

// Rally handles POST requests to raise every tracked position's price by a
// fixed percentage in one batch.
//
// Endpoint: POST /api/simulator/rally
// Response: 200 OK with the refreshed positions
// Error: 409 Conflict if the simulator is not running
func (h *SimulatorHandler) Rally(w http.ResponseWriter, r *http.Request) {
	h.shock(w, r, func(s *service.PriceSimulator, percent float64) error {
		return s.SimulateMarketRally(percent)
	})
}

func (h *SimulatorHandler) shock(w http.ResponseWriter, r *http.Request, apply func(*service.PriceSimulator, float64) error) {
	var req request.MarketShockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	if req.Percent <= 0 {
		response.RespondError(w, http.StatusBadRequest, "percent must be positive", nil)
		return
	}

	coordinator, ok := resolveCoordinator(w, r, h.coordinators)
	if !ok {
		return
	}

	if err := apply(coordinator.Simulator(), req.Percent); err != nil {
		respondServiceError(w, err, service.ErrSimulatorStopped)
		return
	}

	response.RespondJSON(w, http.StatusOK, coordinator.Snapshot().Positions)
}
