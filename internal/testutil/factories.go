package testutil

import (
	"database/sql"
	"math/rand"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/rdekker/holdings-tracker/internal/model"
)

// PositionBuilder provides a fluent interface for creating test positions.
//
// Example usage:
//
//	// Simple creation with defaults
//	position := testutil.NewPosition(ownerID).Build(t, db)
//
//	// Customized position
//	position := testutil.NewPosition(ownerID).
//	    WithSymbol("AAPL").
//	    WithClass(model.AssetClassStock).
//	    WithPrice(185.50).
//	    Build(t, db)
type PositionBuilder struct {
	ID                string
	OwnerID           string
	Symbol            string
	Name              string
	Class             model.AssetClass
	CurrentPrice      float64
	PreviousReference float64
	Quantity          float64
	AverageCost       float64
}

// NewPosition creates a PositionBuilder with sensible defaults.
func NewPosition(ownerID string) *PositionBuilder {
	return &PositionBuilder{
		ID:                MakeID(),
		OwnerID:           ownerID,
		Symbol:            MakeSymbol("TST"),
		Name:              "Test Holding " + randomAlphanumeric(6),
		Class:             model.AssetClassStock,
		CurrentPrice:      100.0,
		PreviousReference: 100.0,
	}
}

// WithID sets a custom ID.
func (b *PositionBuilder) WithID(id string) *PositionBuilder {
	b.ID = id
	return b
}

// WithSymbol sets a custom symbol.
func (b *PositionBuilder) WithSymbol(symbol string) *PositionBuilder {
	b.Symbol = symbol
	return b
}

// WithName sets a custom name.
func (b *PositionBuilder) WithName(name string) *PositionBuilder {
	b.Name = name
	return b
}

// WithClass sets the asset class.
func (b *PositionBuilder) WithClass(class model.AssetClass) *PositionBuilder {
	b.Class = class
	return b
}

// WithPrice sets both the current price and the previous reference.
func (b *PositionBuilder) WithPrice(price float64) *PositionBuilder {
	b.CurrentPrice = price
	b.PreviousReference = price
	return b
}

// WithPreviousReference sets the previous reference price independently.
func (b *PositionBuilder) WithPreviousReference(price float64) *PositionBuilder {
	b.PreviousReference = price
	return b
}

// WithHolding sets the derived quantity and average cost directly, bypassing
// ledger recomputation. Useful for aggregation tests.
func (b *PositionBuilder) WithHolding(quantity, averageCost float64) *PositionBuilder {
	b.Quantity = quantity
	b.AverageCost = averageCost
	return b
}

// Build creates the position in the database and returns it.
func (b *PositionBuilder) Build(t *testing.T, db *sql.DB) model.Position {
	t.Helper()

	now := time.Now().UTC()
	query := `
		INSERT INTO positions (id, owner_id, symbol, name, class, current_price,
		                       previous_reference, quantity, average_cost, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := db.Exec(query,
		b.ID, b.OwnerID, b.Symbol, b.Name, string(b.Class),
		b.CurrentPrice, b.PreviousReference, b.Quantity, b.AverageCost,
		now.Format(time.RFC3339Nano), now.Format(time.RFC3339Nano))
	if err != nil {
		t.Fatalf("Failed to create test position: %v", err)
	}

	return model.Position{
		ID:                b.ID,
		OwnerID:           b.OwnerID,
		Symbol:            b.Symbol,
		Name:              b.Name,
		Class:             b.Class,
		CurrentPrice:      b.CurrentPrice,
		PreviousReference: b.PreviousReference,
		Quantity:          b.Quantity,
		AverageCost:       b.AverageCost,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
}

// BuildValue returns the position without touching the database. Useful for
// tests running against in-memory repositories.
func (b *PositionBuilder) BuildValue() model.Position {
	now := time.Now().UTC()
	return model.Position{
		ID:                b.ID,
		OwnerID:           b.OwnerID,
		Symbol:            b.Symbol,
		Name:              b.Name,
		Class:             b.Class,
		CurrentPrice:      b.CurrentPrice,
		PreviousReference: b.PreviousReference,
		Quantity:          b.Quantity,
		AverageCost:       b.AverageCost,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
}

// CreatePosition creates a position with the given symbol and default values.
func CreatePosition(t *testing.T, db *sql.DB, ownerID, symbol string) model.Position {
	t.Helper()
	return NewPosition(ownerID).WithSymbol(symbol).Build(t, db)
}

// TransactionBuilder provides a fluent interface for creating test transactions.
type TransactionBuilder struct {
	ID           string
	OwnerID      string
	PositionID   string
	Kind         model.TransactionKind
	Quantity     float64
	PricePerUnit float64
	OccurredAt   time.Time
	Notes        string
}

// NewTransaction creates a TransactionBuilder with defaults: a buy of 10
// units at 100 dated yesterday.
func NewTransaction(ownerID, positionID string) *TransactionBuilder {
	return &TransactionBuilder{
		ID:           MakeID(),
		OwnerID:      ownerID,
		PositionID:   positionID,
		Kind:         model.TransactionBuy,
		Quantity:     10.0,
		PricePerUnit: 100.0,
		OccurredAt:   time.Now().UTC().AddDate(0, 0, -1),
	}
}

// WithID sets a custom ID.
func (b *TransactionBuilder) WithID(id string) *TransactionBuilder {
	b.ID = id
	return b
}

// Sell marks the transaction as a sell.
func (b *TransactionBuilder) Sell() *TransactionBuilder {
	b.Kind = model.TransactionSell
	return b
}

// WithQuantity sets the traded quantity.
func (b *TransactionBuilder) WithQuantity(quantity float64) *TransactionBuilder {
	b.Quantity = quantity
	return b
}

// WithPrice sets the price per unit.
func (b *TransactionBuilder) WithPrice(price float64) *TransactionBuilder {
	b.PricePerUnit = price
	return b
}

// WithOccurredAt sets the occurrence time.
func (b *TransactionBuilder) WithOccurredAt(occurredAt time.Time) *TransactionBuilder {
	b.OccurredAt = occurredAt
	return b
}

// WithNotes sets the free-form notes.
func (b *TransactionBuilder) WithNotes(notes string) *TransactionBuilder {
	b.Notes = notes
	return b
}

// Build creates the transaction in the database and returns it.
func (b *TransactionBuilder) Build(t *testing.T, db *sql.DB) model.Transaction {
	t.Helper()

	now := time.Now().UTC()
	query := `
		INSERT INTO transactions (id, owner_id, position_id, kind, quantity,
		                          price_per_unit, occurred_at, notes, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := db.Exec(query,
		b.ID, b.OwnerID, b.PositionID, string(b.Kind),
		b.Quantity, b.PricePerUnit,
		b.OccurredAt.UTC().Format(time.RFC3339Nano), b.Notes,
		now.Format(time.RFC3339Nano))
	if err != nil {
		t.Fatalf("Failed to create test transaction: %v", err)
	}

	return model.Transaction{
		ID:           b.ID,
		OwnerID:      b.OwnerID,
		PositionID:   b.PositionID,
		Kind:         b.Kind,
		Quantity:     b.Quantity,
		PricePerUnit: b.PricePerUnit,
		OccurredAt:   b.OccurredAt.UTC(),
		Notes:        b.Notes,
		CreatedAt:    now,
	}
}

// BuildValue returns the transaction without touching the database.
func (b *TransactionBuilder) BuildValue() model.Transaction {
	return model.Transaction{
		ID:           b.ID,
		OwnerID:      b.OwnerID,
		PositionID:   b.PositionID,
		Kind:         b.Kind,
		Quantity:     b.Quantity,
		PricePerUnit: b.PricePerUnit,
		OccurredAt:   b.OccurredAt.UTC(),
		Notes:        b.Notes,
		CreatedAt:    time.Now().UTC(),
	}
}

// CreateBuy records a buy transaction with the given quantity and price.
func CreateBuy(t *testing.T, db *sql.DB, ownerID, positionID string, quantity, price float64, occurredAt time.Time) model.Transaction {
	t.Helper()
	return NewTransaction(ownerID, positionID).
		WithQuantity(quantity).
		WithPrice(price).
		WithOccurredAt(occurredAt).
		Build(t, db)
}

// CreateSell records a sell transaction with the given quantity and price.
func CreateSell(t *testing.T, db *sql.DB, ownerID, positionID string, quantity, price float64, occurredAt time.Time) model.Transaction {
	t.Helper()
	return NewTransaction(ownerID, positionID).
		Sell().
		WithQuantity(quantity).
		WithPrice(price).
		WithOccurredAt(occurredAt).
		Build(t, db)
}

// MakeID generates a UUID string for use in tests.
func MakeID() string {
	return uuid.New().String()
}

// MakeSymbol generates a ticker-style symbol for testing.
//
// Example usage:
//
//	symbol := testutil.MakeSymbol("TST")
//	// Returns: "TST1A2B"
func MakeSymbol(base string) string {
	if base == "" {
		base = "TST"
	}
	return base + randomAlphanumeric(4)
}

// randomAlphanumeric generates a random alphanumeric string of specified length.
func randomAlphanumeric(length int) string {
	const charset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	result := make([]byte, length)
	for i := range result {
		//nolint:gosec // G404: Using math/rand for test data generation is acceptable
		result[i] = charset[rand.Intn(len(charset))]
	}
	return string(result)
}
