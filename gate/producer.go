package gate

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/glimte/contractgate/contracts"
	"github.com/glimte/contractgate/interceptors"
	"github.com/glimte/contractgate/validation"
)

// Publisher transmits an envelope to the receiving system
type Publisher interface {
	Publish(ctx context.Context, env *contracts.Envelope) error
}

// Producer validates records before handing them to a Publisher
type Producer struct {
	resolver   interceptors.SchemaResolver
	publisher  Publisher
	validator  *validation.Validator
	objectType string
	logger     *slog.Logger
}

// ProducerOption configures a producer
type ProducerOption func(*Producer)

// WithProducerLogger sets the producer logger
func WithProducerLogger(logger *slog.Logger) ProducerOption {
	return func(p *Producer) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithProducerValidator sets the validator used before publishing
func WithProducerValidator(v *validation.Validator) ProducerOption {
	return func(p *Producer) {
		if v != nil {
			p.validator = v
		}
	}
}

// WithObjectType sets the envelope type; defaults to the schema document name
func WithObjectType(objectType string) ProducerOption {
	return func(p *Producer) {
		p.objectType = objectType
	}
}

// NewProducer creates a producer
func NewProducer(resolver interceptors.SchemaResolver, publisher Publisher, opts ...ProducerOption) *Producer {
	p := &Producer{
		resolver:  resolver,
		publisher: publisher,
		validator: validation.New(),
		logger:    slog.Default(),
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// SendOption configures a single send
type SendOption func(*contracts.Envelope)

// WithCorrelationID sets the envelope correlation ID
func WithCorrelationID(id string) SendOption {
	return func(env *contracts.Envelope) {
		env.CorrelationID = id
	}
}

// WithReplyTo sets where the receiver sends error replies
func WithReplyTo(replyTo string) SendOption {
	return func(env *contracts.Envelope) {
		env.ReplyTo = replyTo
	}
}

// Send validates rec against the contract version and publishes it.
// An invalid record is never published; the result is returned with *validation.InvalidRecordError.
func (p *Producer) Send(ctx context.Context, version string, rec contracts.Record, opts ...SendOption) (validation.Result, error) {
	doc, err := p.resolver.Resolve(version)
	if err != nil {
		return validation.Result{}, err
	}

	result := p.validator.Validate(doc, rec)
	if err := result.Err(); err != nil {
		p.logger.Warn("record rejected before publish",
			"version", result.Version,
			"errors", len(result.FatalErrors()),
		)
		return result, err
	}

	objectType := p.objectType
	if objectType == "" {
		objectType = doc.Name()
	}

	env, err := contracts.NewEnvelope(objectType, doc.Version().String(), rec)
	if err != nil {
		return result, err
	}
	env.SetHeader(contracts.HeaderContractVersion, env.ContractVersion)
	for _, opt := range opts {
		opt(env)
	}

	if err := p.publisher.Publish(ctx, env); err != nil {
		return result, fmt.Errorf("failed to publish envelope %s: %w", env.ID, err)
	}

	p.logger.Debug("record published",
		"envelopeId", env.ID,
		"version", env.ContractVersion,
		"warnings", len(result.Warnings()),
	)

	return result, nil
}
