package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/rdekker/holdings-tracker/internal/apperrors"
	"github.com/rdekker/holdings-tracker/internal/model"
)

// TransactionRepository provides data access methods for the transactions
// table. All queries are scoped by owner ID.
type TransactionRepository struct {
	db *sql.DB
	tx *sql.Tx
}

// NewTransactionRepository creates a new TransactionRepository with the provided database connection.
func NewTransactionRepository(db *sql.DB) *TransactionRepository {
	return &TransactionRepository{db: db}
}

// WithTx returns a copy of the repository that runs all statements inside tx.
func (r *TransactionRepository) WithTx(tx *sql.Tx) *TransactionRepository {
	return &TransactionRepository{
		db: r.db,
		tx: tx,
	}
}

func (r *TransactionRepository) getQuerier() querier {
	if r.tx != nil {
		return r.tx
	}
	return r.db
}

const transactionColumns = `id, owner_id, position_id, kind, quantity, price_per_unit, occurred_at, notes, created_at`

func scanTransaction(scan func(dest ...any) error) (model.Transaction, error) {
	var t model.Transaction
	var occurredAtStr, createdAtStr string
	var notes sql.NullString

	err := scan(
		&t.ID,
		&t.OwnerID,
		&t.PositionID,
		&t.Kind,
		&t.Quantity,
		&t.PricePerUnit,
		&occurredAtStr,
		&notes,
		&createdAtStr,
	)
	if err != nil {
		return model.Transaction{}, err
	}

	t.OccurredAt, err = ParseTime(occurredAtStr)
	if err != nil {
		return model.Transaction{}, fmt.Errorf("failed to parse occurred_at: %w", err)
	}
	t.CreatedAt, err = ParseTime(createdAtStr)
	if err != nil {
		return model.Transaction{}, fmt.Errorf("failed to parse created_at: %w", err)
	}
	if notes.Valid {
		t.Notes = notes.String
	}

	return t, nil
}

func (r *TransactionRepository) queryTransactions(ctx context.Context, query string, args ...any) ([]model.Transaction, error) {
	rows, err := r.getQuerier().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions table: %w", err)
	}
	defer rows.Close()

	transactions := []model.Transaction{}

	for rows.Next() {
		t, err := scanTransaction(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transactions table results: %w", err)
		}
		transactions = append(transactions, t)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transactions table: %w", err)
	}

	return transactions, nil
}

// GetTransactions retrieves all transactions for the given owner, ordered by
// occurrence time with insertion order breaking ties.
func (r *TransactionRepository) GetTransactions(ctx context.Context, ownerID string) ([]model.Transaction, error) {
	query := `
		SELECT ` + transactionColumns + `
		FROM transactions
		WHERE owner_id = ?
		ORDER BY occurred_at ASC, rowid ASC
	`
	return r.queryTransactions(ctx, query, ownerID)
}

// GetTransactionsForPosition retrieves the ordered ledger for one position.
// Ordering is by occurrence time ascending; rows with the same occurrence
// time keep insertion order so recomputation stays deterministic.
func (r *TransactionRepository) GetTransactionsForPosition(ctx context.Context, ownerID, positionID string) ([]model.Transaction, error) {
	query := `
		SELECT ` + transactionColumns + `
		FROM transactions
		WHERE owner_id = ? AND position_id = ?
		ORDER BY occurred_at ASC, rowid ASC
	`
	return r.queryTransactions(ctx, query, ownerID, positionID)
}

// GetTransaction retrieves a single transaction by ID for the given owner.
// Returns apperrors.ErrTransactionNotFound when no matching row exists.
func (r *TransactionRepository) GetTransaction(ctx context.Context, ownerID, transactionID string) (model.Transaction, error) {
	query := `
		SELECT ` + transactionColumns + `
		FROM transactions
		WHERE id = ? AND owner_id = ?
	`

	t, err := scanTransaction(r.getQuerier().QueryRowContext(ctx, query, transactionID, ownerID).Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Transaction{}, apperrors.ErrTransactionNotFound
	}
	if err != nil {
		return model.Transaction{}, fmt.Errorf("failed to scan transactions table results: %w", err)
	}

	return t, nil
}

// InsertTransaction inserts a new transaction row.
func (r *TransactionRepository) InsertTransaction(ctx context.Context, t *model.Transaction) error {
	query := `
		INSERT INTO transactions (` + transactionColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.getQuerier().ExecContext(ctx, query,
		t.ID,
		t.OwnerID,
		t.PositionID,
		string(t.Kind),
		t.Quantity,
		t.PricePerUnit,
		FormatTime(t.OccurredAt),
		t.Notes,
		FormatTime(t.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to insert transaction: %w", err)
	}

	return nil
}

// UpdateTransaction replaces the economically meaningful fields of an
// existing transaction. Returns apperrors.ErrTransactionNotFound when no
// matching row exists.
func (r *TransactionRepository) UpdateTransaction(ctx context.Context, t *model.Transaction) error {
	query := `
		UPDATE transactions
		SET kind = ?, quantity = ?, price_per_unit = ?, occurred_at = ?, notes = ?
		WHERE id = ? AND owner_id = ?
	`

	result, err := r.getQuerier().ExecContext(ctx, query,
		string(t.Kind),
		t.Quantity,
		t.PricePerUnit,
		FormatTime(t.OccurredAt),
		t.Notes,
		t.ID,
		t.OwnerID,
	)
	if err != nil {
		return fmt.Errorf("failed to update transaction: %w", err)
	}

	return requireRow(result, apperrors.ErrTransactionNotFound)
}

// DeleteTransaction removes a transaction row.
// Returns apperrors.ErrTransactionNotFound when no matching row exists.
func (r *TransactionRepository) DeleteTransaction(ctx context.Context, ownerID, transactionID string) error {
	result, err := r.getQuerier().ExecContext(ctx,
		`DELETE FROM transactions WHERE id = ? AND owner_id = ?`, transactionID, ownerID)
	if err != nil {
		return fmt.Errorf("failed to delete transaction: %w", err)
	}

	return requireRow(result, apperrors.ErrTransactionNotFound)
}

// DeleteAll removes every transaction for the given owner.
func (r *TransactionRepository) DeleteAll(ctx context.Context, ownerID string) error {
	_, err := r.getQuerier().ExecContext(ctx,
		`DELETE FROM transactions WHERE owner_id = ?`, ownerID)
	if err != nil {
		return fmt.Errorf("failed to delete transactions: %w", err)
	}
	return nil
}
