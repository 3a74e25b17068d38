package validation

import (
	"strings"
	"testing"

	"github.com/rdekker/holdings-tracker/internal/api/request"
)

func ptr[T any](v T) *T { return &v }

// TestValidateCreatePosition tests position creation validation.
//
// WHY: The handler relies on validation to reject malformed input before it
// reaches the coordinator; every rejected field must be named in the error.
func TestValidateCreatePosition(t *testing.T) {
	valid := request.CreatePositionRequest{
		Symbol:       "AAPL",
		Name:         "Apple",
		Class:        "stock",
		CurrentPrice: 185.5,
	}

	t.Run("accepts a well-formed request", func(t *testing.T) {
		if err := ValidateCreatePosition(valid); err != nil {
			t.Errorf("Expected no error, got %v", err)
		}
	})

	t.Run("accepts symbols with digits and hyphens", func(t *testing.T) {
		req := valid
		req.Symbol = "BRK-B"
		if err := ValidateCreatePosition(req); err != nil {
			t.Errorf("Expected no error for BRK-B, got %v", err)
		}
	})

	t.Run("collects every failing field", func(t *testing.T) {
		req := request.CreatePositionRequest{
			Symbol:       "lower",
			Name:         "  ",
			Class:        "painting",
			CurrentPrice: 0,
		}

		err := ValidateCreatePosition(req)
		if err == nil {
			t.Fatal("Expected validation error, got nil")
		}

		validationErr, ok := err.(*Error)
		if !ok {
			t.Fatalf("Expected *Error, got %T", err)
		}

		for _, field := range []string{"symbol", "name", "class", "currentPrice"} {
			if _, present := validationErr.Fields[field]; !present {
				t.Errorf("Expected field %q in error, got %v", field, validationErr.Fields)
			}
		}
	})

	t.Run("rejects symbols over ten characters", func(t *testing.T) {
		req := valid
		req.Symbol = "ABCDEFGHIJK"
		if err := ValidateCreatePosition(req); err == nil {
			t.Error("Expected error for an 11-character symbol")
		}
	})

	t.Run("rejects prices below the minimum", func(t *testing.T) {
		req := valid
		req.CurrentPrice = 0.009
		if err := ValidateCreatePosition(req); err == nil {
			t.Error("Expected error for a price below 0.01")
		}
	})

	t.Run("error message is deterministic", func(t *testing.T) {
		req := request.CreatePositionRequest{Symbol: "x", Class: "y"}

		first := ValidateCreatePosition(req).Error()
		second := ValidateCreatePosition(req).Error()
		if first != second {
			t.Errorf("Expected stable message, got %q then %q", first, second)
		}
		if !strings.HasPrefix(first, "validation failed: ") {
			t.Errorf("Expected message prefix, got %q", first)
		}
	})
}

// TestValidateUpdatePosition tests the optional-field update validation.
//
// WHY: Absent fields mean "keep the stored value" and must never fail;
// present fields follow the creation rules.
func TestValidateUpdatePosition(t *testing.T) {
	t.Run("empty update is valid", func(t *testing.T) {
		if err := ValidateUpdatePosition(request.UpdatePositionRequest{}); err != nil {
			t.Errorf("Expected no error, got %v", err)
		}
	})

	t.Run("provided fields are checked", func(t *testing.T) {
		req := request.UpdatePositionRequest{
			Symbol: ptr("nope"),
			Class:  ptr("painting"),
		}

		err := ValidateUpdatePosition(req)
		if err == nil {
			t.Fatal("Expected validation error, got nil")
		}

		validationErr := err.(*Error)
		if len(validationErr.Fields) != 2 {
			t.Errorf("Expected 2 field errors, got %v", validationErr.Fields)
		}
	})
}
