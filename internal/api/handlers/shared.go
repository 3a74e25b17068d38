package handlers

import (
	"errors"
	"net/http"

	"github.com/rdekker/holdings-tracker/internal/api/response"
	"github.com/rdekker/holdings-tracker/internal/apperrors"
	"github.com/rdekker/holdings-tracker/internal/auth"
	"github.com/rdekker/holdings-tracker/internal/service"
	"github.com/rdekker/holdings-tracker/internal/validation"
)

// resolveCoordinator extracts the authenticated owner from the request
// context and returns their coordinator. Writes the error response itself
// when resolution fails.
func resolveCoordinator(w http.ResponseWriter, r *http.Request, coordinators *service.CoordinatorSet) (*service.Coordinator, bool) {
	ownerID, ok := auth.OwnerFromContext(r.Context())
	if !ok {
		response.RespondError(w, http.StatusUnauthorized, "missing session token", nil)
		return nil, false
	}

	coordinator, err := coordinators.ForOwner(r.Context(), ownerID)
	if err != nil {
		response.RespondError(w, http.StatusInternalServerError, apperrors.ErrFailedToRetrievePositions.Error(), err.Error())
		return nil, false
	}
	return coordinator, true
}

// respondServiceError maps service-layer errors onto HTTP status codes.
// Validation failures are 400, missing or foreign rows are 404, everything
// else is a 500 with the fallback message.
func respondServiceError(w http.ResponseWriter, err error, fallback error) {
	var validationErr *validation.Error
	switch {
	case errors.As(err, &validationErr):
		response.RespondError(w, http.StatusBadRequest, "validation failed", validationErr.Fields)
	case errors.Is(err, apperrors.ErrPositionNotFound):
		response.RespondError(w, http.StatusNotFound, apperrors.ErrPositionNotFound.Error(), nil)
	case errors.Is(err, apperrors.ErrTransactionNotFound):
		response.RespondError(w, http.StatusNotFound, apperrors.ErrTransactionNotFound.Error(), nil)
	case errors.Is(err, apperrors.ErrDuplicateSymbol):
		response.RespondError(w, http.StatusConflict, apperrors.ErrDuplicateSymbol.Error(), nil)
	case errors.Is(err, apperrors.ErrInvalidKind):
		response.RespondError(w, http.StatusBadRequest, apperrors.ErrInvalidKind.Error(), nil)
	case errors.Is(err, service.ErrSimulatorStopped):
		response.RespondError(w, http.StatusConflict, service.ErrSimulatorStopped.Error(), nil)
	default:
		response.RespondError(w, http.StatusInternalServerError, fallback.Error(), err.Error())
	}
}
