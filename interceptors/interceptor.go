package interceptors

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/glimte/contractgate/contracts"
	"github.com/glimte/contractgate/schema"
	"github.com/glimte/contractgate/validation"
)

// EnvelopeHandler represents an envelope handler in the interceptor chain
type EnvelopeHandler interface {
	Handle(ctx context.Context, env *contracts.Envelope) error
}

// EnvelopeHandlerFunc is a function adapter for EnvelopeHandler
type EnvelopeHandlerFunc func(ctx context.Context, env *contracts.Envelope) error

// Handle implements EnvelopeHandler
func (f EnvelopeHandlerFunc) Handle(ctx context.Context, env *contracts.Envelope) error {
	return f(ctx, env)
}

// Interceptor processes envelopes before they reach the final handler
type Interceptor interface {
	// Intercept processes an envelope and calls the next handler in the chain
	Intercept(ctx context.Context, env *contracts.Envelope, next EnvelopeHandler) error

	// Name returns the interceptor name for logging and debugging
	Name() string
}

// InterceptorFunc is a function adapter for Interceptor
type InterceptorFunc struct {
	name string
	fn   func(ctx context.Context, env *contracts.Envelope, next EnvelopeHandler) error
}

// NewInterceptorFunc creates a new function-based interceptor
func NewInterceptorFunc(name string, fn func(ctx context.Context, env *contracts.Envelope, next EnvelopeHandler) error) *InterceptorFunc {
	return &InterceptorFunc{name: name, fn: fn}
}

// Intercept implements Interceptor
func (i *InterceptorFunc) Intercept(ctx context.Context, env *contracts.Envelope, next EnvelopeHandler) error {
	return i.fn(ctx, env, next)
}

// Name implements Interceptor
func (i *InterceptorFunc) Name() string {
	return i.name
}

// Chain manages an ordered list of interceptors
type Chain struct {
	interceptors []Interceptor
	logger       *slog.Logger
}

// NewChain creates a new interceptor chain
func NewChain(logger *slog.Logger) *Chain {
	if logger == nil {
		logger = slog.Default()
	}

	return &Chain{
		interceptors: make([]Interceptor, 0),
		logger:       logger,
	}
}

// Add adds an interceptor to the chain
func (c *Chain) Add(interceptor Interceptor) *Chain {
	c.interceptors = append(c.interceptors, interceptor)
	return c
}

// Names returns the interceptor names in execution order
func (c *Chain) Names() []string {
	names := make([]string, 0, len(c.interceptors))
	for _, i := range c.interceptors {
		names = append(names, i.Name())
	}
	return names
}

// Execute runs the envelope through every interceptor and then the final handler
func (c *Chain) Execute(ctx context.Context, env *contracts.Envelope, finalHandler EnvelopeHandler) error {
	if len(c.interceptors) == 0 {
		return finalHandler.Handle(ctx, env)
	}

	// Build the chain in reverse order
	handler := finalHandler
	for i := len(c.interceptors) - 1; i >= 0; i-- {
		interceptor := c.interceptors[i]
		currentHandler := handler
		handler = EnvelopeHandlerFunc(func(ctx context.Context, env *contracts.Envelope) error {
			return interceptor.Intercept(ctx, env, currentHandler)
		})
	}

	return handler.Handle(ctx, env)
}

// Built-in interceptors

// LoggingInterceptor logs envelope processing
type LoggingInterceptor struct {
	logger *slog.Logger
}

// NewLoggingInterceptor creates a new logging interceptor
func NewLoggingInterceptor(logger *slog.Logger) *LoggingInterceptor {
	if logger == nil {
		logger = slog.Default()
	}

	return &LoggingInterceptor{logger: logger}
}

// Intercept implements Interceptor
func (i *LoggingInterceptor) Intercept(ctx context.Context, env *contracts.Envelope, next EnvelopeHandler) error {
	start := time.Now()

	i.logger.Debug("processing envelope",
		"envelopeId", env.ID,
		"type", env.Type,
		"version", env.ContractVersion,
		"correlationId", env.CorrelationID,
	)

	err := next.Handle(ctx, env)
	duration := time.Since(start)

	var invalid *validation.InvalidRecordError
	switch {
	case errors.As(err, &invalid):
		i.logger.Warn("record rejected",
			"envelopeId", env.ID,
			"version", env.ContractVersion,
			"errors", len(invalid.Errors),
			"duration", duration,
		)
	case err != nil:
		i.logger.Error("envelope processing failed",
			"envelopeId", env.ID,
			"version", env.ContractVersion,
			"duration", duration,
			"error", err,
		)
	default:
		i.logger.Info("envelope processed successfully",
			"envelopeId", env.ID,
			"version", env.ContractVersion,
			"duration", duration,
		)
	}

	return err
}

// Name implements Interceptor
func (i *LoggingInterceptor) Name() string {
	return "LoggingInterceptor"
}

// MetricsInterceptor collects metrics about envelope processing
type MetricsInterceptor struct {
	collector MetricsCollector
}

// MetricsCollector defines the interface for collecting metrics.
// Counts are keyed by contract version.
type MetricsCollector interface {
	IncrementMessageCount(version string)
	RecordProcessingTime(version string, duration time.Duration)
	IncrementErrorCount(version string, errorType string)
}

// Error types reported to MetricsCollector besides validation error kinds
const (
	ErrorTypeUnknownVersion   = "unknown_version"
	ErrorTypeMalformedPayload = "malformed_payload"
	ErrorTypeProcessing       = "processing_error"
)

// NewMetricsInterceptor creates a new metrics interceptor
func NewMetricsInterceptor(collector MetricsCollector) *MetricsInterceptor {
	return &MetricsInterceptor{collector: collector}
}

// Intercept implements Interceptor
func (i *MetricsInterceptor) Intercept(ctx context.Context, env *contracts.Envelope, next EnvelopeHandler) error {
	start := time.Now()
	version := env.ContractVersion

	i.collector.IncrementMessageCount(version)

	err := next.Handle(ctx, env)
	duration := time.Since(start)

	i.collector.RecordProcessingTime(version, duration)

	if err == nil {
		return nil
	}

	var invalid *validation.InvalidRecordError
	switch {
	case errors.As(err, &invalid):
		// One count per field error
		for _, ve := range invalid.Errors {
			i.collector.IncrementErrorCount(version, string(ve.Kind))
		}
	case errors.Is(err, schema.ErrUnknownVersion):
		i.collector.IncrementErrorCount(version, ErrorTypeUnknownVersion)
	case errors.Is(err, contracts.ErrMalformedPayload):
		i.collector.IncrementErrorCount(version, ErrorTypeMalformedPayload)
	default:
		i.collector.IncrementErrorCount(version, ErrorTypeProcessing)
	}

	return err
}

// Name implements Interceptor
func (i *MetricsInterceptor) Name() string {
	return "MetricsInterceptor"
}

// TimeoutInterceptor adds timeout handling
type TimeoutInterceptor struct {
	timeout time.Duration
}

// NewTimeoutInterceptor creates a new timeout interceptor
func NewTimeoutInterceptor(timeout time.Duration) *TimeoutInterceptor {
	return &TimeoutInterceptor{timeout: timeout}
}

// Intercept implements Interceptor
func (i *TimeoutInterceptor) Intercept(ctx context.Context, env *contracts.Envelope, next EnvelopeHandler) error {
	timeoutCtx, cancel := context.WithTimeout(ctx, i.timeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- next.Handle(timeoutCtx, env)
	}()

	select {
	case err := <-done:
		return err
	case <-timeoutCtx.Done():
		return fmt.Errorf("envelope processing timeout after %v for envelope %s", i.timeout, env.ID)
	}
}

// Name implements Interceptor
func (i *TimeoutInterceptor) Name() string {
	return "TimeoutInterceptor"
}

// ChainBuilder builds a common interceptor chain
type ChainBuilder struct {
	chain  *Chain
	logger *slog.Logger
}

// NewChainBuilder creates a new builder
func NewChainBuilder(logger *slog.Logger) *ChainBuilder {
	if logger == nil {
		logger = slog.Default()
	}

	return &ChainBuilder{
		chain:  NewChain(logger),
		logger: logger,
	}
}

// WithLogging adds logging interceptor
func (b *ChainBuilder) WithLogging() *ChainBuilder {
	b.chain.Add(NewLoggingInterceptor(b.logger))
	return b
}

// WithMetrics adds metrics interceptor
func (b *ChainBuilder) WithMetrics(collector MetricsCollector) *ChainBuilder {
	b.chain.Add(NewMetricsInterceptor(collector))
	return b
}

// WithValidation adds validation interceptor
func (b *ChainBuilder) WithValidation(resolver SchemaResolver, validator *validation.Validator) *ChainBuilder {
	b.chain.Add(NewValidationInterceptor(resolver, validator))
	return b
}

// WithTimeout adds timeout interceptor
func (b *ChainBuilder) WithTimeout(timeout time.Duration) *ChainBuilder {
	b.chain.Add(NewTimeoutInterceptor(timeout))
	return b
}

// WithCustom adds a custom interceptor
func (b *ChainBuilder) WithCustom(interceptor Interceptor) *ChainBuilder {
	b.chain.Add(interceptor)
	return b
}

// Build returns the built interceptor chain
func (b *ChainBuilder) Build() *Chain {
	return b.chain
}
