package request

// CreateTransactionRequest represents the request body for recording a
// buy or sell transaction against a position.
type CreateTransactionRequest struct {
	PositionID   string  `json:"positionId"`
	Kind         string  `json:"kind"`
	Quantity     float64 `json:"quantity"`
	PricePerUnit float64 `json:"pricePerUnit"`
	OccurredAt   string  `json:"occurredAt"`
	Notes        string  `json:"notes,omitempty"`
}

// UpdateTransactionRequest represents the request body for replacing fields
// of an existing transaction. All fields are optional.
type UpdateTransactionRequest struct {
	Kind         *string  `json:"kind,omitempty"`
	Quantity     *float64 `json:"quantity,omitempty"`
	PricePerUnit *float64 `json:"pricePerUnit,omitempty"`
	OccurredAt   *string  `json:"occurredAt,omitempty"`
	Notes        *string  `json:"notes,omitempty"`
}
