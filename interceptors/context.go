package interceptors

import (
	"context"

	"github.com/glimte/contractgate/contracts"
	"github.com/glimte/contractgate/validation"
)

// contextKey is a type for context keys to avoid collisions
type contextKey string

const (
	resultContextKey contextKey = "contractgate:validation:result"
	recordContextKey contextKey = "contractgate:validation:record"
)

// WithResult stores a validation result in the context
func WithResult(ctx context.Context, result validation.Result) context.Context {
	return context.WithValue(ctx, resultContextKey, result)
}

// ResultFromContext returns the result stored by the validation interceptor
func ResultFromContext(ctx context.Context) (validation.Result, bool) {
	result, ok := ctx.Value(resultContextKey).(validation.Result)
	return result, ok
}

// WithRecord stores the decoded record in the context
func WithRecord(ctx context.Context, rec contracts.Record) context.Context {
	return context.WithValue(ctx, recordContextKey, rec)
}

// RecordFromContext returns the record decoded by the validation interceptor
func RecordFromContext(ctx context.Context) (contracts.Record, bool) {
	rec, ok := ctx.Value(recordContextKey).(contracts.Record)
	return rec, ok
}
