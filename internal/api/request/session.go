package request

// CreateSessionRequest represents the request body for issuing a session
// token. When OwnerID is empty a new owner identity is generated.
type CreateSessionRequest struct {
	OwnerID string `json:"ownerId,omitempty"`
}

// MarketShockRequest represents the request body for the market crash and
// rally simulation endpoints.
type MarketShockRequest struct {
	Percent float64 `json:"percent"`
}
