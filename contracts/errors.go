package contracts

import (
	"errors"
	"fmt"
	"strings"
)

// ErrMalformedPayload is wrapped by every record decoding failure
var ErrMalformedPayload = errors.New("contracts: malformed payload")

const (
	// StatusUnprocessable is the default client-error status for rejected records
	StatusUnprocessable = 422

	CodeContractViolation      = "CONTRACT_VIOLATION"
	CodeUnknownContractVersion = "UNKNOWN_CONTRACT_VERSION"
	CodeMalformedPayload       = "MALFORMED_PAYLOAD"
)

// FieldError is a single field-level problem reported back to the sender
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Kind    string `json:"kind"`
}

// ErrorReply is the structured error body returned for a rejected record
type ErrorReply struct {
	Status          int          `json:"status"`
	Code            string       `json:"code"`
	Message         string       `json:"message"`
	ContractVersion string       `json:"contractVersion,omitempty"`
	CorrelationID   string       `json:"correlationId,omitempty"`
	Errors          []FieldError `json:"errors,omitempty"`
}

// NewErrorReply creates an error reply with the default client-error status
func NewErrorReply(code, message string, errs ...FieldError) *ErrorReply {
	return &ErrorReply{
		Status:  StatusUnprocessable,
		Code:    code,
		Message: message,
		Errors:  errs,
	}
}

// Error implements the error interface so a reply can travel as an error
func (e *ErrorReply) Error() string {
	if len(e.Errors) == 0 {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}

	fields := make([]string, 0, len(e.Errors))
	for _, fe := range e.Errors {
		fields = append(fields, fmt.Sprintf("%s (%s)", fe.Field, fe.Kind))
	}
	return fmt.Sprintf("%s: %s: %s", e.Code, e.Message, strings.Join(fields, ", "))
}
