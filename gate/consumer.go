package gate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/glimte/contractgate/contracts"
	"github.com/glimte/contractgate/interceptors"
	"github.com/glimte/contractgate/schema"
	"github.com/glimte/contractgate/validation"
)

// Sink receives records that passed validation
type Sink interface {
	Accept(ctx context.Context, env *contracts.Envelope, rec contracts.Record) error
}

// SinkFunc is a function adapter for Sink
type SinkFunc func(ctx context.Context, env *contracts.Envelope, rec contracts.Record) error

// Accept implements Sink
func (f SinkFunc) Accept(ctx context.Context, env *contracts.Envelope, rec contracts.Record) error {
	return f(ctx, env, rec)
}

// Consumer validates incoming envelopes before they reach the Sink
type Consumer struct {
	resolver  interceptors.SchemaResolver
	sink      Sink
	validator *validation.Validator
	metrics   interceptors.MetricsCollector
	extra     []interceptors.Interceptor
	accepted  *schema.Constraint
	logger    *slog.Logger
	chain     *interceptors.Chain
}

// ConsumerOption configures a consumer
type ConsumerOption func(*Consumer)

// WithConsumerLogger sets the consumer logger
func WithConsumerLogger(logger *slog.Logger) ConsumerOption {
	return func(c *Consumer) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithConsumerValidator sets the validator applied to incoming records
func WithConsumerValidator(v *validation.Validator) ConsumerOption {
	return func(c *Consumer) {
		if v != nil {
			c.validator = v
		}
	}
}

// WithMetrics records per-version counts in collector
func WithMetrics(collector interceptors.MetricsCollector) ConsumerOption {
	return func(c *Consumer) {
		c.metrics = collector
	}
}

// WithInterceptors adds interceptors that run after validation and before the sink
func WithInterceptors(extra ...interceptors.Interceptor) ConsumerOption {
	return func(c *Consumer) {
		c.extra = append(c.extra, extra...)
	}
}

// WithAcceptedVersions rejects envelopes whose contract version falls outside constraint
func WithAcceptedVersions(constraint *schema.Constraint) ConsumerOption {
	return func(c *Consumer) {
		c.accepted = constraint
	}
}

// NewConsumer creates a consumer
func NewConsumer(resolver interceptors.SchemaResolver, sink Sink, opts ...ConsumerOption) *Consumer {
	c := &Consumer{
		resolver:  resolver,
		sink:      sink,
		validator: validation.New(),
		logger:    slog.Default(),
	}

	for _, opt := range opts {
		opt(c)
	}

	builder := interceptors.NewChainBuilder(c.logger).WithLogging()
	if c.metrics != nil {
		builder.WithMetrics(c.metrics)
	}
	resolver = c.resolver
	if c.accepted != nil {
		resolver = &rangeResolver{resolver: c.resolver, constraint: c.accepted}
	}
	builder.WithValidation(resolver, c.validator)
	for _, i := range c.extra {
		builder.WithCustom(i)
	}
	c.chain = builder.Build()

	return c
}

// Handle validates env and passes the record to the sink.
// A rejected envelope returns *contracts.ErrorReply listing every field error.
// Sink failures are returned unchanged.
func (c *Consumer) Handle(ctx context.Context, env *contracts.Envelope) error {
	err := c.chain.Execute(ctx, env, interceptors.EnvelopeHandlerFunc(c.deliver))
	if err == nil {
		return nil
	}

	var sinkErr *sinkError
	if errors.As(err, &sinkErr) {
		return sinkErr.err
	}
	if reply := c.reply(env, err); reply != nil {
		return reply
	}
	return err
}

func (c *Consumer) deliver(ctx context.Context, env *contracts.Envelope) error {
	rec, ok := interceptors.RecordFromContext(ctx)
	if !ok {
		return fmt.Errorf("envelope %s reached the sink without a validated record", env.ID)
	}
	if err := c.sink.Accept(ctx, env, rec); err != nil {
		return &sinkError{err: err}
	}
	return nil
}

// reply maps a contract failure to an error reply; it returns nil for other failures
func (c *Consumer) reply(env *contracts.Envelope, err error) *contracts.ErrorReply {
	var reply *contracts.ErrorReply
	var invalid *validation.InvalidRecordError
	switch {
	case errors.As(err, &invalid):
		reply = contracts.NewErrorReply(contracts.CodeContractViolation,
			fmt.Sprintf("record violates contract %s", env.ContractVersion),
			invalid.FieldErrors()...)
	case errors.Is(err, schema.ErrUnknownVersion):
		reply = contracts.NewErrorReply(contracts.CodeUnknownContractVersion, err.Error())
	case errors.Is(err, contracts.ErrMalformedPayload):
		reply = contracts.NewErrorReply(contracts.CodeMalformedPayload, err.Error())
	default:
		return nil
	}

	reply.ContractVersion = env.ContractVersion
	reply.CorrelationID = env.CorrelationID
	if reply.CorrelationID == "" {
		reply.CorrelationID = env.ID
	}
	return reply
}

// rangeResolver limits a resolver to versions satisfying a constraint
type rangeResolver struct {
	resolver   interceptors.SchemaResolver
	constraint *schema.Constraint
}

func (r *rangeResolver) Resolve(version string) (*schema.Document, error) {
	v, err := schema.ParseVersion(version)
	if err == nil && !r.constraint.Check(v) {
		return nil, &schema.VersionOutOfRangeError{Version: version, Constraint: r.constraint.String()}
	}
	return r.resolver.Resolve(version)
}

// sinkError marks failures raised by the sink so they are never turned into replies
type sinkError struct {
	err error
}

func (e *sinkError) Error() string {
	return e.err.Error()
}

func (e *sinkError) Unwrap() error {
	return e.err
}
