package service

import (
	"errors"
	"fmt"
	"strings"
)

// FieldViolation is a single failed input constraint.
type FieldViolation struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// SchemaViolation reports inputs that fail their declared constraints. It is
// raised before any calculation runs.
type SchemaViolation struct {
	Violations []FieldViolation
}

func (e *SchemaViolation) Error() string {
	parts := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		parts = append(parts, v.Field+": "+v.Message)
	}
	return "schema violation: " + strings.Join(parts, "; ")
}

func (e *SchemaViolation) add(field, format string, args ...any) {
	e.Violations = append(e.Violations, FieldViolation{
		Field:   field,
		Message: fmt.Sprintf(format, args...),
	})
}

func (e *SchemaViolation) empty() bool {
	return len(e.Violations) == 0
}

// NegativeAffordability is the business rejection for individually valid
// inputs whose combination leaves no room for a mortgage payment.
type NegativeAffordability struct {
	AffordablePayment float64
}

func (e *NegativeAffordability) Error() string {
	return fmt.Sprintf("monthly obligations exceed affordable debt service (affordable payment %.2f)", e.AffordablePayment)
}

// IsSchemaViolation reports whether err is or wraps a *SchemaViolation.
func IsSchemaViolation(err error) bool {
	var target *SchemaViolation
	return errors.As(err, &target)
}

// IsNegativeAffordability reports whether err is or wraps a *NegativeAffordability.
func IsNegativeAffordability(err error) bool {
	var target *NegativeAffordability
	return errors.As(err, &target)
}
