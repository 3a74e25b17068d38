package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/rdekker/holdings-tracker/internal/apperrors"
	"github.com/rdekker/holdings-tracker/internal/model"
)

// PositionRepository provides data access methods for the positions table.
// All queries are scoped by owner ID; a row owned by another user is
// indistinguishable from a missing row.
type PositionRepository struct {
	db *sql.DB
	tx *sql.Tx
}

// NewPositionRepository creates a new PositionRepository with the provided database connection.
func NewPositionRepository(db *sql.DB) *PositionRepository {
	return &PositionRepository{db: db}
}

// WithTx returns a copy of the repository that runs all statements inside tx.
func (r *PositionRepository) WithTx(tx *sql.Tx) *PositionRepository {
	return &PositionRepository{
		db: r.db,
		tx: tx,
	}
}

func (r *PositionRepository) getQuerier() querier {
	if r.tx != nil {
		return r.tx
	}
	return r.db
}

const positionColumns = `id, owner_id, symbol, name, class, current_price, previous_reference, quantity, average_cost, created_at, updated_at`

func scanPosition(scan func(dest ...any) error) (model.Position, error) {
	var p model.Position
	var createdAtStr, updatedAtStr string

	err := scan(
		&p.ID,
		&p.OwnerID,
		&p.Symbol,
		&p.Name,
		&p.Class,
		&p.CurrentPrice,
		&p.PreviousReference,
		&p.Quantity,
		&p.AverageCost,
		&createdAtStr,
		&updatedAtStr,
	)
	if err != nil {
		return model.Position{}, err
	}

	p.CreatedAt, err = ParseTime(createdAtStr)
	if err != nil {
		return model.Position{}, fmt.Errorf("failed to parse created_at: %w", err)
	}
	p.UpdatedAt, err = ParseTime(updatedAtStr)
	if err != nil {
		return model.Position{}, fmt.Errorf("failed to parse updated_at: %w", err)
	}

	return p, nil
}

// GetPositions retrieves all positions for the given owner, ordered by symbol.
// Returns an empty slice if the owner has no positions.
func (r *PositionRepository) GetPositions(ctx context.Context, ownerID string) ([]model.Position, error) {
	query := `
		SELECT ` + positionColumns + `
		FROM positions
		WHERE owner_id = ?
		ORDER BY symbol ASC
	`

	rows, err := r.getQuerier().QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to query positions table: %w", err)
	}
	defer rows.Close()

	positions := []model.Position{}

	for rows.Next() {
		p, err := scanPosition(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan positions table results: %w", err)
		}
		positions = append(positions, p)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating positions table: %w", err)
	}

	return positions, nil
}

// GetPosition retrieves a single position by ID for the given owner.
// Returns apperrors.ErrPositionNotFound when no matching row exists.
func (r *PositionRepository) GetPosition(ctx context.Context, ownerID, positionID string) (model.Position, error) {
	query := `
		SELECT ` + positionColumns + `
		FROM positions
		WHERE id = ? AND owner_id = ?
	`

	p, err := scanPosition(r.getQuerier().QueryRowContext(ctx, query, positionID, ownerID).Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Position{}, apperrors.ErrPositionNotFound
	}
	if err != nil {
		return model.Position{}, fmt.Errorf("failed to scan positions table results: %w", err)
	}

	return p, nil
}

// InsertPosition inserts a new position row.
// Returns apperrors.ErrDuplicateSymbol when the owner already holds the symbol.
func (r *PositionRepository) InsertPosition(ctx context.Context, p *model.Position) error {
	query := `
		INSERT INTO positions (` + positionColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.getQuerier().ExecContext(ctx, query,
		p.ID,
		p.OwnerID,
		p.Symbol,
		p.Name,
		string(p.Class),
		p.CurrentPrice,
		p.PreviousReference,
		p.Quantity,
		p.AverageCost,
		FormatTime(p.CreatedAt),
		FormatTime(p.UpdatedAt),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return apperrors.ErrDuplicateSymbol
		}
		return fmt.Errorf("failed to insert position: %w", err)
	}

	return nil
}

// UpdatePosition updates a position's descriptive fields and current price.
// Quantity and average cost are untouched; they belong to UpdateHolding.
// Returns apperrors.ErrPositionNotFound when no matching row exists.
func (r *PositionRepository) UpdatePosition(ctx context.Context, p *model.Position) error {
	query := `
		UPDATE positions
		SET symbol = ?, name = ?, class = ?, current_price = ?, previous_reference = ?, updated_at = ?
		WHERE id = ? AND owner_id = ?
	`

	result, err := r.getQuerier().ExecContext(ctx, query,
		p.Symbol,
		p.Name,
		string(p.Class),
		p.CurrentPrice,
		p.PreviousReference,
		FormatTime(p.UpdatedAt),
		p.ID,
		p.OwnerID,
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return apperrors.ErrDuplicateSymbol
		}
		return fmt.Errorf("failed to update position: %w", err)
	}

	return requireRow(result, apperrors.ErrPositionNotFound)
}

// UpdateHolding persists a recomputed quantity and average cost pair.
// This is the only write path for derived holding fields.
// Returns apperrors.ErrPositionNotFound when no matching row exists.
func (r *PositionRepository) UpdateHolding(ctx context.Context, ownerID, positionID string, quantity, averageCost float64) error {
	query := `
		UPDATE positions
		SET quantity = ?, average_cost = ?, updated_at = datetime('now')
		WHERE id = ? AND owner_id = ?
	`

	result, err := r.getQuerier().ExecContext(ctx, query, quantity, averageCost, positionID, ownerID)
	if err != nil {
		return fmt.Errorf("failed to update holding: %w", err)
	}

	return requireRow(result, apperrors.ErrPositionNotFound)
}

// UpdatePrice persists a new current price and previous reference pair for
// one position. Used by the price simulator's per-position tick writes.
func (r *PositionRepository) UpdatePrice(ctx context.Context, ownerID, positionID string, currentPrice, previousReference float64) error {
	query := `
		UPDATE positions
		SET current_price = ?, previous_reference = ?, updated_at = datetime('now')
		WHERE id = ? AND owner_id = ?
	`

	result, err := r.getQuerier().ExecContext(ctx, query, currentPrice, previousReference, positionID, ownerID)
	if err != nil {
		return fmt.Errorf("failed to update price: %w", err)
	}

	return requireRow(result, apperrors.ErrPositionNotFound)
}

// UpdatePrices persists price pairs for a batch of positions atomically.
// Either every row is written or none are. Used by the market crash and
// rally simulations, which shift the whole portfolio in one move.
func (r *PositionRepository) UpdatePrices(ctx context.Context, ownerID string, positions []model.Position) error {
	if len(positions) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin price batch: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback after commit is a no-op

	repo := r.WithTx(tx)
	for i := range positions {
		p := &positions[i]
		if err := repo.UpdatePrice(ctx, ownerID, p.ID, p.CurrentPrice, p.PreviousReference); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit price batch: %w", err)
	}

	return nil
}

// DeletePosition removes a position row. The transactions table declares
// ON DELETE CASCADE, so the position's ledger is removed with it.
// Returns apperrors.ErrPositionNotFound when no matching row exists.
func (r *PositionRepository) DeletePosition(ctx context.Context, ownerID, positionID string) error {
	result, err := r.getQuerier().ExecContext(ctx,
		`DELETE FROM positions WHERE id = ? AND owner_id = ?`, positionID, ownerID)
	if err != nil {
		return fmt.Errorf("failed to delete position: %w", err)
	}

	return requireRow(result, apperrors.ErrPositionNotFound)
}

// DeleteAll removes every position (and, by cascade, every transaction)
// for the given owner.
func (r *PositionRepository) DeleteAll(ctx context.Context, ownerID string) error {
	_, err := r.getQuerier().ExecContext(ctx,
		`DELETE FROM positions WHERE owner_id = ?`, ownerID)
	if err != nil {
		return fmt.Errorf("failed to delete positions: %w", err)
	}
	return nil
}

// requireRow converts a zero-row update or delete into notFound.
func requireRow(result sql.Result, notFound error) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		return notFound
	}
	return nil
}
