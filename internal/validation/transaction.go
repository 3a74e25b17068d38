package validation

import (
	"fmt"
	"strings"
	"time"

	"github.com/rdekker/holdings-tracker/internal/api/request"
	"github.com/rdekker/holdings-tracker/internal/model"
)

// ValidateCreateTransaction validates a transaction creation request.
// Checks all required fields and validates their formats and constraints.
//
// Required fields:
//   - positionId: Must be a valid UUID
//   - kind: Must be one of: buy, sell
//   - quantity: Must be positive
//   - pricePerUnit: Must be positive
//   - occurredAt: Must be RFC3339 or YYYY-MM-DD
//
// Returns a validation Error with field-specific error messages if validation fails.
func ValidateCreateTransaction(req request.CreateTransactionRequest) error {
	errors := make(map[string]string)

	if err := ValidateUUID(req.PositionID); err != nil {
		errors["positionId"] = err.Error()
	}

	if strings.TrimSpace(req.OccurredAt) == "" {
		errors["occurredAt"] = "occurredAt is required"
	} else if _, err := ParseTime(req.OccurredAt); err != nil {
		errors["occurredAt"] = err.Error()
	}

	if strings.TrimSpace(req.Kind) == "" {
		errors["kind"] = "kind is required"
	} else if !model.TransactionKind(req.Kind).Valid() {
		errors["kind"] = fmt.Sprintf("invalid kind: %s", req.Kind)
	}

	if req.Quantity <= 0.0 {
		errors["quantity"] = "quantity must be positive"
	}

	if req.PricePerUnit <= 0.0 {
		errors["pricePerUnit"] = "pricePerUnit must be positive"
	}

	if len(errors) > 0 {
		return &Error{Fields: errors}
	}

	return nil
}

// ValidateUpdateTransaction validates a transaction update request.
// All fields are optional, but if provided, they must meet the same constraints as create.
//
// Returns a validation Error with field-specific error messages if validation fails.
func ValidateUpdateTransaction(req request.UpdateTransactionRequest) error {
	errors := make(map[string]string)

	if req.OccurredAt != nil {
		if strings.TrimSpace(*req.OccurredAt) == "" {
			errors["occurredAt"] = "occurredAt is required"
		} else if _, err := ParseTime(*req.OccurredAt); err != nil {
			errors["occurredAt"] = err.Error()
		}
	}
	if req.Kind != nil {
		if strings.TrimSpace(*req.Kind) == "" {
			errors["kind"] = "kind is required"
		} else if !model.TransactionKind(*req.Kind).Valid() {
			errors["kind"] = fmt.Sprintf("invalid kind: %s", *req.Kind)
		}
	}
	if req.Quantity != nil {
		if *req.Quantity <= 0.0 {
			errors["quantity"] = "quantity must be positive"
		}
	}
	if req.PricePerUnit != nil {
		if *req.PricePerUnit <= 0.0 {
			errors["pricePerUnit"] = "pricePerUnit must be positive"
		}
	}

	if len(errors) > 0 {
		return &Error{Fields: errors}
	}

	return nil
}

// ParseTime parses a timestamp in "2006-01-02" or RFC3339 format.
func ParseTime(str string) (time.Time, error) {
	returnTime, err := time.Parse("2006-01-02", str)
	if err != nil {
		returnTime, err = time.Parse(time.RFC3339, str)
		if err != nil {
			return time.Time{}, fmt.Errorf("failed to parse date: %w", err)
		}
	}
	return returnTime.UTC(), nil
}
