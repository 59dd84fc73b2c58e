package validation

import "github.com/glimte/contractgate/contracts"

// Result represents the outcome of validating one record
type Result struct {
	Valid   bool              `json:"valid"`
	Version string            `json:"version,omitempty"`
	Errors  []ValidationError `json:"errors,omitempty"`
}

// FatalErrors returns the errors that made the record invalid
func (r Result) FatalErrors() []ValidationError {
	return r.filter(true)
}

// Warnings returns the non-fatal errors
func (r Result) Warnings() []ValidationError {
	return r.filter(false)
}

// Err returns *InvalidRecordError for an invalid record and nil otherwise
func (r Result) Err() error {
	if r.Valid {
		return nil
	}
	return &InvalidRecordError{Version: r.Version, Errors: r.FatalErrors(), Warnings: r.Warnings()}
}

// FieldErrors converts every error, warnings included, for an error reply
func (r Result) FieldErrors() []contracts.FieldError {
	return toFieldErrors(r.Errors)
}

func (r Result) filter(fatal bool) []ValidationError {
	var out []ValidationError
	for _, e := range r.Errors {
		if e.Fatal == fatal {
			out = append(out, e)
		}
	}
	return out
}

func (r *Result) add(e ValidationError) {
	if e.Fatal {
		r.Valid = false
	}
	r.Errors = append(r.Errors, e)
}
