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

// TransactionHandler handles HTTP requests for transaction endpoints.
// It serves as the HTTP layer adapter, parsing requests and delegating
// ledger changes to the owner's coordinator.
type TransactionHandler struct {
	coordinators *service.CoordinatorSet
}

// NewTransactionHandler creates a new TransactionHandler.
func NewTransactionHandler(coordinators *service.CoordinatorSet) *TransactionHandler {
	return &TransactionHandler{coordinators: coordinators}
}

// List handles GET requests to retrieve all of the owner's transactions,
// ordered by occurrence time.
//
// Endpoint: GET /api/transactions
// Response: 200 OK with array of Transaction
func (h *TransactionHandler) List(w http.ResponseWriter, r *http.Request) {
	coordinator, ok := resolveCoordinator(w, r, h.coordinators)
	if !ok {
		return
	}

	response.RespondJSON(w, http.StatusOK, coordinator.Snapshot().Transactions)
}

// Create handles POST requests to record a buy or sell transaction.
// The affected position's quantity and average cost are recomputed from its
// full ledger before the response is sent.
//
// Endpoint: POST /api/transactions
// Response: 201 Created with the new Transaction
// Error: 400 Bad Request on validation failure
// Error: 404 Not Found if the position does not exist for this owner
func (h *TransactionHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req request.CreateTransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	if err := validation.ValidateCreateTransaction(req); err != nil {
		respondServiceError(w, err, apperrors.ErrFailedToSaveTransaction)
		return
	}

	occurredAt, err := validation.ParseTime(req.OccurredAt)
	if err != nil {
		response.RespondError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}

	coordinator, ok := resolveCoordinator(w, r, h.coordinators)
	if !ok {
		return
	}

	transaction, err := coordinator.AddTransaction(r.Context(), model.Transaction{
		PositionID:   req.PositionID,
		Kind:         model.TransactionKind(req.Kind),
		Quantity:     req.Quantity,
		PricePerUnit: req.PricePerUnit,
		OccurredAt:   occurredAt,
		Notes:        req.Notes,
	})
	if err != nil {
		respondServiceError(w, err, apperrors.ErrFailedToSaveTransaction)
		return
	}

	response.RespondJSON(w, http.StatusCreated, transaction)
}

// Update handles PUT requests to replace fields of an existing transaction.
// The affected position is recomputed afterwards. A transaction cannot be
// moved to a different position.
//
// Endpoint: PUT /api/transactions/{id}
// Response: 200 OK with the updated Transaction
// Error: 400 Bad Request on validation failure
// Error: 404 Not Found if the transaction does not exist for this owner
func (h *TransactionHandler) Update(w http.ResponseWriter, r *http.Request) {
	transactionID := chi.URLParam(r, "id")
	if err := validation.ValidateUUID(transactionID); err != nil {
		response.RespondError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}

	var req request.UpdateTransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	if err := validation.ValidateUpdateTransaction(req); err != nil {
		respondServiceError(w, err, apperrors.ErrFailedToSaveTransaction)
		return
	}

	coordinator, ok := resolveCoordinator(w, r, h.coordinators)
	if !ok {
		return
	}

	current, found := snapshotTransaction(coordinator, transactionID)
	if !found {
		response.RespondError(w, http.StatusNotFound, apperrors.ErrTransactionNotFound.Error(), nil)
		return
	}

	if req.Kind != nil {
		current.Kind = model.TransactionKind(*req.Kind)
	}
	if req.Quantity != nil {
		current.Quantity = *req.Quantity
	}
	if req.PricePerUnit != nil {
		current.PricePerUnit = *req.PricePerUnit
	}
	if req.OccurredAt != nil {
		occurredAt, err := validation.ParseTime(*req.OccurredAt)
		if err != nil {
			response.RespondError(w, http.StatusBadRequest, err.Error(), nil)
			return
		}
		current.OccurredAt = occurredAt
	}
	if req.Notes != nil {
		current.Notes = *req.Notes
	}

	transaction, err := coordinator.UpdateTransaction(r.Context(), current)
	if err != nil {
		respondServiceError(w, err, apperrors.ErrFailedToSaveTransaction)
		return
	}

	response.RespondJSON(w, http.StatusOK, transaction)
}

// Delete handles DELETE requests to remove a transaction. The affected
// position is recomputed afterwards.
//
// Endpoint: DELETE /api/transactions/{id}
// Response: 204 No Content
// Error: 404 Not Found if the transaction does not exist for this owner
func (h *TransactionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	transactionID := chi.URLParam(r, "id")
	if err := validation.ValidateUUID(transactionID); err != nil {
		response.RespondError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}

	coordinator, ok := resolveCoordinator(w, r, h.coordinators)
	if !ok {
		return
	}

	if err := coordinator.DeleteTransaction(r.Context(), transactionID); err != nil {
		respondServiceError(w, err, apperrors.ErrFailedToDeleteTransaction)
		return
	}

	response.RespondJSON(w, http.StatusNoContent, nil)
}

// RealizedGain handles GET requests for the gain recognized by a sell
// transaction, measured against the position's current average cost.
//
// Endpoint: GET /api/transactions/{id}/realized-gain
// Response: 200 OK with the realized gain amount
// Error: 400 Bad Request if the transaction is not a sell
// Error: 404 Not Found if the transaction does not exist for this owner
func (h *TransactionHandler) RealizedGain(w http.ResponseWriter, r *http.Request) {
	transactionID := chi.URLParam(r, "id")
	if err := validation.ValidateUUID(transactionID); err != nil {
		response.RespondError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}

	coordinator, ok := resolveCoordinator(w, r, h.coordinators)
	if !ok {
		return
	}

	gain, err := coordinator.RealizedGain(r.Context(), transactionID)
	if err != nil {
		respondServiceError(w, err, apperrors.ErrFailedToRetrieveTransactions)
		return
	}

	response.RespondJSON(w, http.StatusOK, map[string]float64{"realizedGain": gain})
}

// snapshotTransaction finds one transaction in the coordinator's current snapshot.
func snapshotTransaction(coordinator *service.Coordinator, transactionID string) (model.Transaction, bool) {
	for _, t := range coordinator.Snapshot().Transactions {
		if t.ID == transactionID {
			return t, true
		}
	}
	return model.Transaction{}, false
}
