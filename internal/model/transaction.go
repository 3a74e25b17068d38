package model

import "time"

// TransactionKind identifies whether a transaction adds to or reduces a position.
type TransactionKind string

// Supported transaction kinds.
const (
	TransactionBuy  TransactionKind = "buy"
	TransactionSell TransactionKind = "sell"
)

// Valid reports whether k is a supported transaction kind.
func (k TransactionKind) Valid() bool {
	return k == TransactionBuy || k == TransactionSell
}

// Transaction represents one buy or sell event in a position's ledger.
// Transactions are immutable once recorded; edits replace the whole record.
type Transaction struct {
	ID           string          `json:"id"`
	OwnerID      string          `json:"ownerId"`
	PositionID   string          `json:"positionId"`
	Kind         TransactionKind `json:"kind"`
	Quantity     float64         `json:"quantity"`
	PricePerUnit float64         `json:"pricePerUnit"`
	OccurredAt   time.Time       `json:"occurredAt"`
	Notes        string          `json:"notes,omitempty"`
	CreatedAt    time.Time       `json:"createdAt,omitempty"`
}
