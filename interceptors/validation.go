package interceptors

import (
	"context"
	"fmt"

	"github.com/glimte/contractgate/contracts"
	"github.com/glimte/contractgate/schema"
	"github.com/glimte/contractgate/validation"
)

// SchemaResolver resolves a contract version to its document.
// *schema.Registry satisfies it.
type SchemaResolver interface {
	Resolve(version string) (*schema.Document, error)
}

// ValidationInterceptor validates the envelope body against its declared contract version.
// Invalid records stop the chain with *validation.InvalidRecordError.
type ValidationInterceptor struct {
	resolver  SchemaResolver
	validator *validation.Validator
}

// NewValidationInterceptor creates a new validation interceptor.
// A nil validator uses the default validation options.
func NewValidationInterceptor(resolver SchemaResolver, validator *validation.Validator) *ValidationInterceptor {
	if validator == nil {
		validator = validation.New()
	}
	return &ValidationInterceptor{resolver: resolver, validator: validator}
}

// Intercept implements Interceptor
func (i *ValidationInterceptor) Intercept(ctx context.Context, env *contracts.Envelope, next EnvelopeHandler) error {
	doc, err := i.resolver.Resolve(env.ContractVersion)
	if err != nil {
		return fmt.Errorf("cannot validate envelope %s: %w", env.ID, err)
	}

	rec, err := env.Record()
	if err != nil {
		return err
	}

	result := i.validator.Validate(doc, rec)
	ctx = WithResult(ctx, result)
	ctx = WithRecord(ctx, rec)

	if err := result.Err(); err != nil {
		return err
	}

	return next.Handle(ctx, env)
}

// Name implements Interceptor
func (i *ValidationInterceptor) Name() string {
	return "ValidationInterceptor"
}
