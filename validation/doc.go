// Package validation checks records against a contract schema.
//
// Validation is a pure function of a schema.Document and a contracts.Record:
// it performs no I/O, holds no mutable state and never returns a Go error for
// a bad record. Every problem is reported as a ValidationError inside the
// Result so callers can validate a batch and collect all failures:
//
//	v := validation.New(validation.WithUnknownFieldsFatal(false))
//	result := v.Validate(doc, record)
//	if !result.Valid {
//	    for _, e := range result.Errors {
//	        log.Printf("%s: %s (%s)", e.Field, e.Message, e.Kind)
//	    }
//	}
//
// Undeclared fields are reported as UNKNOWN_FIELD warnings by default so a
// producer may roll out a newer minor contract before its consumers.
package validation
