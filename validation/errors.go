package validation

import (
	"errors"
	"fmt"
	"strings"

	"github.com/glimte/contractgate/contracts"
)

// ErrInvalidRecord is matched by every *InvalidRecordError
var ErrInvalidRecord = errors.New("validation: record violates contract")

// Kind classifies a validation error
type Kind string

const (
	KindMissingRequired  Kind = "MISSING_REQUIRED"
	KindTypeMismatch     Kind = "TYPE_MISMATCH"
	KindInvalidFormat    Kind = "INVALID_FORMAT"
	KindOutOfRange       Kind = "OUT_OF_RANGE"
	KindInvalidEnumValue Kind = "INVALID_ENUM_VALUE"
	KindUnknownField     Kind = "UNKNOWN_FIELD"
)

// ValidationError represents a single field-level validation problem
type ValidationError struct {
	Field   string      `json:"field"`
	Message string      `json:"message"`
	Kind    Kind        `json:"kind"`
	Value   interface{} `json:"value,omitempty"`
	Fatal   bool        `json:"fatal"`
}

// Error implements the error interface for ValidationError
func (ve ValidationError) Error() string {
	return fmt.Sprintf("validation error in field '%s': %s", ve.Field, ve.Message)
}

// InvalidRecordError wraps the fatal errors of a rejected record.
// Warnings found in the same record are kept for error replies.
type InvalidRecordError struct {
	Version  string
	Errors   []ValidationError
	Warnings []ValidationError
}

func (e *InvalidRecordError) Error() string {
	parts := make([]string, 0, len(e.Errors))
	for _, ve := range e.Errors {
		parts = append(parts, fmt.Sprintf("%s: %s", ve.Field, ve.Message))
	}
	prefix := "record violates contract"
	if e.Version != "" {
		prefix = fmt.Sprintf("record violates contract %s", e.Version)
	}
	return fmt.Sprintf("%s with %d error(s): %s", prefix, len(e.Errors), strings.Join(parts, "; "))
}

// Is makes errors.Is(err, ErrInvalidRecord) succeed
func (e *InvalidRecordError) Is(target error) bool {
	return target == ErrInvalidRecord
}

// FieldErrors converts the fatal errors, then the warnings, for an error reply
func (e *InvalidRecordError) FieldErrors() []contracts.FieldError {
	all := make([]ValidationError, 0, len(e.Errors)+len(e.Warnings))
	all = append(all, e.Errors...)
	all = append(all, e.Warnings...)
	return toFieldErrors(all)
}

func toFieldErrors(errs []ValidationError) []contracts.FieldError {
	out := make([]contracts.FieldError, 0, len(errs))
	for _, ve := range errs {
		out = append(out, contracts.FieldError{
			Field:   ve.Field,
			Message: ve.Message,
			Kind:    string(ve.Kind),
		})
	}
	return out
}
