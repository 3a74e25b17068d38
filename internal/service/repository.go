package service

import (
	"context"

	"github.com/rdekker/holdings-tracker/internal/model"
)

// PositionRepository is the storage contract the services consume for
// position rows. The sqlite implementation lives in internal/repository;
// tests substitute an in-memory fake.
type PositionRepository interface {
	GetPositions(ctx context.Context, ownerID string) ([]model.Position, error)
	GetPosition(ctx context.Context, ownerID, positionID string) (model.Position, error)
	InsertPosition(ctx context.Context, p *model.Position) error
	UpdatePosition(ctx context.Context, p *model.Position) error
	UpdateHolding(ctx context.Context, ownerID, positionID string, quantity, averageCost float64) error
	UpdatePrice(ctx context.Context, ownerID, positionID string, currentPrice, previousReference float64) error
	UpdatePrices(ctx context.Context, ownerID string, positions []model.Position) error
	DeletePosition(ctx context.Context, ownerID, positionID string) error
	DeleteAll(ctx context.Context, ownerID string) error
}

// TransactionRepository is the storage contract the services consume for
// transaction rows. Ledger queries return rows ordered by occurrence time,
// with insertion order breaking ties.
type TransactionRepository interface {
	GetTransactions(ctx context.Context, ownerID string) ([]model.Transaction, error)
	GetTransactionsForPosition(ctx context.Context, ownerID, positionID string) ([]model.Transaction, error)
	GetTransaction(ctx context.Context, ownerID, transactionID string) (model.Transaction, error)
	InsertTransaction(ctx context.Context, t *model.Transaction) error
	UpdateTransaction(ctx context.Context, t *model.Transaction) error
	DeleteTransaction(ctx context.Context, ownerID, transactionID string) error
	DeleteAll(ctx context.Context, ownerID string) error
}
