package request

// CreatePositionRequest represents the request body for creating a position.
type CreatePositionRequest struct {
	Symbol       string  `json:"symbol"`
	Name         string  `json:"name"`
	Class        string  `json:"class"`
	CurrentPrice float64 `json:"currentPrice"`
}

// UpdatePositionRequest represents the request body for updating a position.
// All fields are optional; only provided fields are changed.
type UpdatePositionRequest struct {
	Symbol       *string  `json:"symbol,omitempty"`
	Name         *string  `json:"name,omitempty"`
	Class        *string  `json:"class,omitempty"`
	CurrentPrice *float64 `json:"currentPrice,omitempty"`
}
