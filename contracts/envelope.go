package contracts

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// HeaderContractVersion carries the contract version on transports with headers
const HeaderContractVersion = "x-contract-version"

// Envelope wraps a record for transport
type Envelope struct {
	ID              string                 `json:"id"`
	Type            string                 `json:"type"`
	ContractVersion string                 `json:"contractVersion"`
	Timestamp       time.Time              `json:"timestamp"`
	CorrelationID   string                 `json:"correlationId,omitempty"`
	ReplyTo         string                 `json:"replyTo,omitempty"`
	Headers         map[string]interface{} `json:"headers,omitempty"`
	Body            json.RawMessage        `json:"body"`
}

// NewEnvelope creates an envelope with a time-ordered (v7) ID and the current UTC timestamp
func NewEnvelope(objectType, contractVersion string, rec Record) (*Envelope, error) {
	body, err := rec.Encode()
	if err != nil {
		return nil, err
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("failed to generate envelope id: %w", err)
	}

	return &Envelope{
		ID:              id.String(),
		Type:            objectType,
		ContractVersion: contractVersion,
		Timestamp:       time.Now().UTC(),
		Body:            body,
	}, nil
}

// Record decodes the envelope body
func (e *Envelope) Record() (Record, error) {
	if len(e.Body) == 0 {
		return nil, fmt.Errorf("%w: envelope %s has an empty body", ErrMalformedPayload, e.ID)
	}
	return DecodeRecord(e.Body)
}

// SetHeader sets a header value, allocating the map if needed
func (e *Envelope) SetHeader(key string, value interface{}) {
	if e.Headers == nil {
		e.Headers = make(map[string]interface{})
	}
	e.Headers[key] = value
}
