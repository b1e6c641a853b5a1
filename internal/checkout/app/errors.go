package app

import (
	"fmt"
	"strings"
)

// FieldError names one request field that failed validation.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError carries every field-level violation found in a request.
// All fields are checked before business logic runs, so the client gets the
// complete list in one round trip. Recoverable: shown to the user.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		parts[i] = fmt.Sprintf("%s: %s", f.Field, f.Message)
	}
	return "checkout: invalid request: " + strings.Join(parts, "; ")
}

// ProductUnavailableError is fatal for order creation: the whole order is
// rejected, never partially created.
type ProductUnavailableError struct {
	ProductID string
	Reason    string
}

func (e *ProductUnavailableError) Error() string {
	return fmt.Sprintf("checkout: product %s unavailable: %s", e.ProductID, e.Reason)
}
