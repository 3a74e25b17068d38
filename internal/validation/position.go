package validation

import (
	"fmt"
	"strings"

	"github.com/rdekker/holdings-tracker/internal/api/request"
	"github.com/rdekker/holdings-tracker/internal/model"
)

// ValidateCreatePosition validates a position creation request.
// Checks all required fields and validates their formats and constraints.
//
// Required fields:
//   - symbol: 1-10 chars, starts with a letter, uppercase alphanumeric/hyphen
//   - name: Must be non-empty
//   - class: Must be one of: stock, crypto, etf, bond, cash
//   - currentPrice: Must be at least 0.01
//
// Returns a validation Error with field-specific error messages if validation fails.
func ValidateCreatePosition(req request.CreatePositionRequest) error {
	errors := make(map[string]string)

	if err := ValidateSymbol(req.Symbol); err != nil {
		errors["symbol"] = err.Error()
	}

	if strings.TrimSpace(req.Name) == "" {
		errors["name"] = "name is required"
	}

	if !model.AssetClass(req.Class).Valid() {
		errors["class"] = fmt.Sprintf("invalid class: %s", req.Class)
	}

	if req.CurrentPrice < model.MinimumPrice {
		errors["currentPrice"] = fmt.Sprintf("currentPrice must be at least %.2f", model.MinimumPrice)
	}

	if len(errors) > 0 {
		return &Error{Fields: errors}
	}

	return nil
}

// ValidateUpdatePosition validates a position update request.
// All fields are optional, but if provided, they must meet the same constraints as create.
//
// Returns a validation Error with field-specific error messages if validation fails.
func ValidateUpdatePosition(req request.UpdatePositionRequest) error {
	errors := make(map[string]string)

	if req.Symbol != nil {
		if err := ValidateSymbol(*req.Symbol); err != nil {
			errors["symbol"] = err.Error()
		}
	}
	if req.Name != nil {
		if strings.TrimSpace(*req.Name) == "" {
			errors["name"] = "name is required"
		}
	}
	if req.Class != nil {
		if !model.AssetClass(*req.Class).Valid() {
			errors["class"] = fmt.Sprintf("invalid class: %s", *req.Class)
		}
	}
	if req.CurrentPrice != nil {
		if *req.CurrentPrice < model.MinimumPrice {
			errors["currentPrice"] = fmt.Sprintf("currentPrice must be at least %.2f", model.MinimumPrice)
		}
	}

	if len(errors) > 0 {
		return &Error{Fields: errors}
	}

	return nil
}
