package contracts

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"sort"
)

// Record is a decoded payload keyed by field name
type Record map[string]interface{}

// DecodeRecord decodes a JSON object into a Record.
// Numbers are kept as json.Number so integers survive without float rounding.
func DecodeRecord(data []byte) (Record, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var rec Record
	if err := dec.Decode(&rec); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	if rec == nil {
		return nil, fmt.Errorf("%w: payload is not a JSON object", ErrMalformedPayload)
	}

	// Trailing data after the object is a malformed payload
	if _, err := dec.Token(); err != io.EOF {
		return nil, fmt.Errorf("%w: unexpected data after object", ErrMalformedPayload)
	}

	return rec, nil
}

// Keys returns the record keys in sorted order
func (r Record) Keys() []string {
	keys := make([]string, 0, len(r))
	for k := range r {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Has reports whether key is present, including keys holding null
func (r Record) Has(key string) bool {
	_, ok := r[key]
	return ok
}

// Encode marshals the record to JSON
func (r Record) Encode() (json.RawMessage, error) {
	data, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("failed to encode record: %w", err)
	}
	return data, nil
}
