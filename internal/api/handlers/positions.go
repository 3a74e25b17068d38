package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/rdekker/holdings-tracker/internal/api/request"
	"github.com/rdekker/holdings-tracker/internal/api/response"
	"github.com/rdekker/holdings-tracker/internal/apperrors"
	"github.com/rdekker/holdings-tracker/internal/model"
	"github.com/rdekker/holdings-tracker/internal/service"
	"github.com/rdekker/holdings-tracker/internal/validation"
)

// PositionHandler handles HTTP requests for position endpoints.
// It parses and validates requests and delegates all state changes to the
// owner's coordinator.
type PositionHandler struct {
	coordinators *service.CoordinatorSet
}

// NewPositionHandler creates a new PositionHandler.
func NewPositionHandler(coordinators *service.CoordinatorSet) *PositionHandler {
	return &PositionHandler{coordinators: coordinators}
}

// List handles GET requests to retrieve the owner's positions.
//
// Endpoint: GET /api/positions
// Response: 200 OK with array of Position
func (h *PositionHandler) List(w http.ResponseWriter, r *http.Request) {
	coordinator, ok := resolveCoordinator(w, r, h.coordinators)
	if !ok {
		return
	}

	response.RespondJSON(w, http.StatusOK, coordinator.Snapshot().Positions)
}

// Create handles POST requests to open a new position.
//
// Endpoint: POST /api/positions
// Response: 201 Created with the new Position
// Error: 400 Bad Request on validation failure
// Error: 409 Conflict if the owner already holds the symbol
func (h *PositionHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req request.CreatePositionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	if err := validation.ValidateCreatePosition(req); err != nil {
		respondServiceError(w, err, apperrors.ErrFailedToSavePosition)
		return
	}

	coordinator, ok := resolveCoordinator(w, r, h.coordinators)
	if !ok {
		return
	}

	position, err := coordinator.AddPosition(r.Context(), model.Position{
		Symbol:       req.Symbol,
		Name:         req.Name,
		Class:        model.AssetClass(req.Class),
		CurrentPrice: req.CurrentPrice,
	})
	if err != nil {
		respondServiceError(w, err, apperrors.ErrFailedToSavePosition)
		return
	}

	response.RespondJSON(w, http.StatusCreated, position)
}

// Update handles PUT requests to change a position's descriptive fields or
// current price. Quantity and average cost are not writable here.
//
// Endpoint: PUT /api/positions/{id}
// Response: 200 OK with the updated Position
// Error: 400 Bad Request on validation failure
// Error: 404 Not Found if the position does not exist for this owner
func (h *PositionHandler) Update(w http.ResponseWriter, r *http.Request) {
	positionID := chi.URLParam(r, "id")
	if err := validation.ValidateUUID(positionID); err != nil {
		response.RespondError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}

	var req request.UpdatePositionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	if err := validation.ValidateUpdatePosition(req); err != nil {
		respondServiceError(w, err, apperrors.ErrFailedToSavePosition)
		return
	}

	coordinator, ok := resolveCoordinator(w, r, h.coordinators)
	if !ok {
		return
	}

	// Start from the stored position and overlay the provided fields.
	current, found := snapshotPosition(coordinator, positionID)
	if !found {
		response.RespondError(w, http.StatusNotFound, apperrors.ErrPositionNotFound.Error(), nil)
		return
	}

	if req.Symbol != nil {
		current.Symbol = *req.Symbol
	}
	if req.Name != nil {
		current.Name = *req.Name
	}
	if req.Class != nil {
		current.Class = model.AssetClass(*req.Class)
	}
	if req.CurrentPrice != nil {
		current.CurrentPrice = *req.CurrentPrice
	}

	position, err := coordinator.UpdatePosition(r.Context(), current)
	if err != nil {
		respondServiceError(w, err, apperrors.ErrFailedToSavePosition)
		return
	}

	response.RespondJSON(w, http.StatusOK, position)
}

// Delete handles DELETE requests to close a position. The position's
// transactions are removed with it.
//
// Endpoint: DELETE /api/positions/{id}
// Response: 204 No Content
// Error: 404 Not Found if the position does not exist for this owner
func (h *PositionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	positionID := chi.URLParam(r, "id")
	if err := validation.ValidateUUID(positionID); err != nil {
		response.RespondError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}

	coordinator, ok := resolveCoordinator(w, r, h.coordinators)
	if !ok {
		return
	}

	if err := coordinator.DeletePosition(r.Context(), positionID); err != nil {
		respondServiceError(w, err, apperrors.ErrFailedToDeletePosition)
		return
	}

	response.RespondJSON(w, http.StatusNoContent, nil)
}

// Transactions handles GET requests for one position's ordered ledger.
//
// Endpoint: GET /api/positions/{id}/transactions
// Response: 200 OK with array of Transaction ordered by occurrence time
func (h *PositionHandler) Transactions(w http.ResponseWriter, r *http.Request) {
	positionID := chi.URLParam(r, "id")
	if err := validation.ValidateUUID(positionID); err != nil {
		response.RespondError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}

	coordinator, ok := resolveCoordinator(w, r, h.coordinators)
	if !ok {
		return
	}

	if _, found := snapshotPosition(coordinator, positionID); !found {
		response.RespondError(w, http.StatusNotFound, apperrors.ErrPositionNotFound.Error(), nil)
		return
	}

	snapshot := coordinator.Snapshot()
	transactions := []model.Transaction{}
	for _, t := range snapshot.Transactions {
		if t.PositionID == positionID {
			transactions = append(transactions, t)
		}
	}

	response.RespondJSON(w, http.StatusOK, transactions)
}

// snapshotPosition finds one position in the coordinator's current snapshot.
func snapshotPosition(coordinator *service.Coordinator, positionID string) (model.Position, bool) {
	for _, p := range coordinator.Snapshot().Positions {
		if p.ID == positionID {
			return p, true
		}
	}
	return model.Position{}, false
}
