package handlers

import (
	"net/http"
	"strconv"

	"github.com/rdekker/holdings-tracker/internal/api/response"
	"github.com/rdekker/holdings-tracker/internal/service"
)

// defaultPerformerCount is how many positions the performer rankings return
// when no count parameter is given.
const defaultPerformerCount = 3

// PortfolioHandler handles HTTP requests for portfolio-level aggregates.
type PortfolioHandler struct {
	coordinators *service.CoordinatorSet
}

// NewPortfolioHandler creates a new PortfolioHandler.
func NewPortfolioHandler(coordinators *service.CoordinatorSet) *PortfolioHandler {
	return &PortfolioHandler{coordinators: coordinators}
}

// Summary handles GET requests for the owner's portfolio summary.
//
// Endpoint: GET /api/portfolio/summary
// Response: 200 OK with the current Summary
func (h *PortfolioHandler) Summary(w http.ResponseWriter, r *http.Request) {
	coordinator, ok := resolveCoordinator(w, r, h.coordinators)
	if !ok {
		return
	}

	response.RespondJSON(w, http.StatusOK, coordinator.Snapshot().Summary)
}

// Snapshot handles GET requests for the owner's full live state: positions,
// transactions, and summary in one consistent view.
//
// Endpoint: GET /api/portfolio/snapshot
// Response: 200 OK with the current Snapshot
func (h *PortfolioHandler) Snapshot(w http.ResponseWriter, r *http.Request) {
	coordinator, ok := resolveCoordinator(w, r, h.coordinators)
	if !ok {
		return
	}

	response.RespondJSON(w, http.StatusOK, coordinator.Snapshot())
}

// TopPerformers handles GET requests for the positions with the highest
// unrealized gain percentage.
//
// Endpoint: GET /api/portfolio/performers/top?count=n
// Response: 200 OK with array of Position
func (h *PortfolioHandler) TopPerformers(w http.ResponseWriter, r *http.Request) {
	coordinator, ok := resolveCoordinator(w, r, h.coordinators)
	if !ok {
		return
	}

	positions := coordinator.Snapshot().Positions
	response.RespondJSON(w, http.StatusOK, service.TopPerformers(positions, performerCount(r)))
}

// WorstPerformers handles GET requests for the positions with the lowest
// unrealized gain percentage.
//
// Endpoint: GET /api/portfolio/performers/worst?count=n
// Response: 200 OK with array of Position
func (h *PortfolioHandler) WorstPerformers(w http.ResponseWriter, r *http.Request) {
	coordinator, ok := resolveCoordinator(w, r, h.coordinators)
	if !ok {
		return
	}

	positions := coordinator.Snapshot().Positions
	response.RespondJSON(w, http.StatusOK, service.WorstPerformers(positions, performerCount(r)))
}

// Clear handles DELETE requests to remove all of the owner's data.
//
// Endpoint: DELETE /api/portfolio
// Response: 204 No Content
func (h *PortfolioHandler) Clear(w http.ResponseWriter, r *http.Request) {
	coordinator, ok := resolveCoordinator(w, r, h.coordinators)
	if !ok {
		return
	}

	if err := coordinator.ClearOwnerData(r.Context()); err != nil {
		respondServiceError(w, err, service.ErrSimulatorStopped)
		return
	}

	response.RespondJSON(w, http.StatusNoContent, nil)
}

func performerCount(r *http.Request) int {
	count := defaultPerformerCount
	if raw := r.URL.Query().Get("count"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			count = parsed
		}
	}
	return count
}
