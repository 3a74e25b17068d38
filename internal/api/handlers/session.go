package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"

	"github.com/rdekker/holdings-tracker/internal/api/request"
	"github.com/rdekker/holdings-tracker/internal/api/response"
	"github.com/rdekker/holdings-tracker/internal/auth"
	"github.com/rdekker/holdings-tracker/internal/service"
	"github.com/rdekker/holdings-tracker/internal/validation"
)

// SessionHandler issues session tokens and ends owner sessions.
type SessionHandler struct {
	issuer       *auth.TokenIssuer
	coordinators *service.CoordinatorSet
}

// NewSessionHandler creates a new SessionHandler.
func NewSessionHandler(issuer *auth.TokenIssuer, coordinators *service.CoordinatorSet) *SessionHandler {
	return &SessionHandler{
		issuer:       issuer,
		coordinators: coordinators,
	}
}

// Create handles POST requests to open a session.
// When no owner ID is supplied a new owner identity is generated.
//
// Endpoint: POST /api/session
// Response: 201 Created with the owner ID and bearer token
// Error: 400 Bad Request if the supplied owner ID is not a UUID
func (h *SessionHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req request.CreateSessionRequest
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&req)
	}

	ownerID := req.OwnerID
	if ownerID == "" {
		ownerID = uuid.New().String()
	} else if err := validation.ValidateUUID(ownerID); err != nil {
		response.RespondError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}

	token, err := h.issuer.Issue(ownerID)
	if err != nil {
		response.RespondError(w, http.StatusInternalServerError, "failed to issue session token", err.Error())
		return
	}

	response.RespondJSON(w, http.StatusCreated, map[string]string{
		"ownerId": ownerID,
		"token":   token,
	})
}

// Delete handles DELETE requests to end the authenticated owner's session.
// Stops any running price simulation and discards in-memory state;
// persisted rows are untouched.
//
// Endpoint: DELETE /api/session
// Response: 204 No Content
func (h *SessionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if ownerID, ok := auth.OwnerFromContext(r.Context()); ok {
		h.coordinators.Remove(ownerID)
	}
	response.RespondJSON(w, http.StatusNoContent, nil)
}
