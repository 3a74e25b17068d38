package middleware

import (
	"net/http"
	"strings"

	"github.com/rdekker/holdings-tracker/internal/api/response"
	"github.com/rdekker/holdings-tracker/internal/auth"
)

// RequireSession verifies the bearer session token on every request and
// stores the authenticated owner ID in the request context. Requests
// without a valid token are rejected with 401.
func RequireSession(issuer *auth.TokenIssuer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || token == "" {
				response.RespondError(w, http.StatusUnauthorized, "missing session token", nil)
				return
			}

			ownerID, err := issuer.Verify(token)
			if err != nil {
				response.RespondError(w, http.StatusUnauthorized, "invalid session token", nil)
				return
			}

			next.ServeHTTP(w, r.WithContext(auth.WithOwner(r.Context(), ownerID)))
		})
	}
}
