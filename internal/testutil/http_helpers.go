package testutil

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/rdekker/holdings-tracker/internal/auth"
)

// NewRequestWithURLParams creates an HTTP request with chi URL parameters.
// This helper simplifies testing chi handlers that use chi.URLParam() to extract path parameters.
//
// Example:
//
//	req := testutil.NewRequestWithURLParams(
//	    http.MethodGet,
//	    "/api/positions/123-456",
//	    map[string]string{"id": "123-456"},
//	)
func NewRequestWithURLParams(method, path string, params map[string]string) *http.Request {
	return NewRequestWithBody(method, path, params, nil)
}

// NewRequestWithBody creates an HTTP request with chi URL parameters and a
// JSON-encoded body.
func NewRequestWithBody(method, path string, params map[string]string, body any) *http.Request {
	var reader io.Reader
	if body != nil {
		encoded, _ := json.Marshal(body) //nolint:errcheck // test fixture
		reader = bytes.NewReader(encoded)
	}

	req := httptest.NewRequest(method, path, reader)

	if len(params) > 0 {
		rctx := chi.NewRouteContext()
		for key, value := range params {
			rctx.URLParams.Add(key, value)
		}
		req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
	}

	return req
}

// WithSession returns the request with the given owner attached to its
// context, as the session middleware would after verifying a token.
func WithSession(req *http.Request, ownerID string) *http.Request {
	return req.WithContext(auth.WithOwner(req.Context(), ownerID))
}

// DecodeJSON decodes a recorded response body into out, failing the test on error.
func DecodeJSON(t *testing.T, w *httptest.ResponseRecorder, out any) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(out); err != nil {
		t.Fatalf("Failed to decode response body: %v", err)
	}
}
