package apperrors

import "errors"

// Domain entity errors represent missing or inaccessible entities.
// A row owned by another user is reported identically to a missing row so
// that callers cannot probe other owners' data.
var (
	// ErrPositionNotFound indicates that a position with the given ID does not
	// exist for the requesting owner.
	ErrPositionNotFound = errors.New("position not found")

	// ErrTransactionNotFound indicates that a transaction with the given ID
	// does not exist for the requesting owner.
	ErrTransactionNotFound = errors.New("transaction not found")

	// ErrOwnerNotSet indicates that an operation requiring an active owner
	// session was called before one was established.
	ErrOwnerNotSet = errors.New("no active owner")
)

// Business logic errors represent validation failures or constraint violations.
var (
	// ErrInvalidKind indicates a transaction kind outside buy|sell.
	ErrInvalidKind = errors.New("invalid transaction kind")

	// ErrDuplicateSymbol indicates that the owner already holds a position
	// with the same symbol.
	ErrDuplicateSymbol = errors.New("symbol already in use")
)

// Operation failure errors represent storage-level failures surfaced to the
// HTTP layer. These wrap persistence errors, not missing entities.
var (
	ErrFailedToRetrievePositions    = errors.New("failed to retrieve positions")
	ErrFailedToRetrieveTransactions = errors.New("failed to retrieve transactions")
	ErrFailedToSavePosition         = errors.New("failed to save position")
	ErrFailedToSaveTransaction      = errors.New("failed to save transaction")
	ErrFailedToDeletePosition       = errors.New("failed to delete position")
	ErrFailedToDeleteTransaction    = errors.New("failed to delete transaction")
)
