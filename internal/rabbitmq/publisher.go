package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/glimte/contractgate/contracts"
)

// ContentTypeJSON is the content type of published envelopes and replies
const ContentTypeJSON = "application/json"

// TypeErrorReply is the AMQP message type of error replies
const TypeErrorReply = "contract.error-reply"

// Publisher publishes contract envelopes. It never retries a failed publish.
type Publisher struct {
	ch         Channel
	exchange   string
	routingKey string
	logger     *slog.Logger
}

// PublisherOption configures the publisher
type PublisherOption func(*Publisher)

// WithExchange sets the target exchange; the default exchange is used when empty
func WithExchange(exchange string) PublisherOption {
	return func(p *Publisher) {
		p.exchange = exchange
	}
}

// WithRoutingKey sets the routing key
func WithRoutingKey(routingKey string) PublisherOption {
	return func(p *Publisher) {
		p.routingKey = routingKey
	}
}

// WithPublisherLogger sets the logger
func WithPublisherLogger(logger *slog.Logger) PublisherOption {
	return func(p *Publisher) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// NewPublisher creates a new publisher
func NewPublisher(ch Channel, options ...PublisherOption) *Publisher {
	p := &Publisher{
		ch:     ch,
		logger: slog.Default(),
	}

	for _, opt := range options {
		opt(p)
	}

	return p
}

// Publish sends env as a persistent JSON message with the contract version header
func (p *Publisher) Publish(ctx context.Context, env *contracts.Envelope) error {
	body, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("failed to marshal envelope %s: %w", env.ID, err)
	}

	headers := amqp.Table{}
	for k, v := range env.Headers {
		headers[k] = v
	}
	headers[contracts.HeaderContractVersion] = env.ContractVersion

	msg := amqp.Publishing{
		ContentType:   ContentTypeJSON,
		DeliveryMode:  amqp.Persistent,
		MessageId:     env.ID,
		CorrelationId: env.CorrelationID,
		ReplyTo:       env.ReplyTo,
		Timestamp:     env.Timestamp,
		Type:          env.Type,
		Headers:       headers,
		Body:          body,
	}

	if err := p.ch.PublishWithContext(ctx, p.exchange, p.routingKey, false, false, msg); err != nil {
		return &PublishError{
			Exchange:   p.exchange,
			RoutingKey: p.routingKey,
			EnvelopeID: env.ID,
			Err:        err,
			Timestamp:  time.Now(),
		}
	}

	p.logger.Debug("envelope published",
		"envelopeId", env.ID,
		"version", env.ContractVersion,
		"exchange", p.exchange,
		"routingKey", p.routingKey,
	)
	return nil
}

// PublishReply sends an error reply to the replyTo queue through the default exchange
func (p *Publisher) PublishReply(ctx context.Context, replyTo string, reply *contracts.ErrorReply) error {
	body, err := json.Marshal(reply)
	if err != nil {
		return fmt.Errorf("failed to marshal error reply: %w", err)
	}

	msg := amqp.Publishing{
		ContentType:   ContentTypeJSON,
		DeliveryMode:  amqp.Persistent,
		CorrelationId: reply.CorrelationID,
		Timestamp:     time.Now().UTC(),
		Type:          TypeErrorReply,
		Headers:       amqp.Table{contracts.HeaderContractVersion: reply.ContractVersion},
		Body:          body,
	}

	if err := p.ch.PublishWithContext(ctx, "", replyTo, false, false, msg); err != nil {
		return &PublishError{
			RoutingKey: replyTo,
			EnvelopeID: reply.CorrelationID,
			Err:        err,
			Timestamp:  time.Now(),
		}
	}
	return nil
}
