package rabbitmq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/glimte/contractgate/contracts"
	"github.com/glimte/contractgate/interceptors"
)

// Consumer feeds deliveries from a queue into an envelope handler.
// Accepted deliveries are acked. Rejected ones are rejected without requeue
// and answered with the error reply when a reply queue is known.
type Consumer struct {
	ch             Channel
	handler        interceptors.EnvelopeHandler
	replies        *Publisher
	prefetchCount  int
	consumerTag    string
	handlerTimeout time.Duration
	logger         *slog.Logger
}

// ConsumerOption configures the consumer
type ConsumerOption func(*Consumer)

// WithPrefetchCount sets the prefetch count
func WithPrefetchCount(count int) ConsumerOption {
	return func(c *Consumer) {
		c.prefetchCount = count
	}
}

// WithConsumerTag sets the consumer tag
func WithConsumerTag(tag string) ConsumerOption {
	return func(c *Consumer) {
		c.consumerTag = tag
	}
}

// WithHandlerTimeout bounds the time spent on a single delivery
func WithHandlerTimeout(timeout time.Duration) ConsumerOption {
	return func(c *Consumer) {
		c.handlerTimeout = timeout
	}
}

// WithConsumerLogger sets the logger
func WithConsumerLogger(logger *slog.Logger) ConsumerOption {
	return func(c *Consumer) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewConsumer creates a new consumer. Error replies are published on the same channel.
func NewConsumer(ch Channel, handler interceptors.EnvelopeHandler, options ...ConsumerOption) *Consumer {
	c := &Consumer{
		ch:             ch,
		handler:        handler,
		prefetchCount:  10,
		handlerTimeout: 30 * time.Second,
		logger:         slog.Default(),
	}

	for _, opt := range options {
		opt(c)
	}

	c.replies = NewPublisher(ch, WithPublisherLogger(c.logger))
	return c
}

// Consume processes deliveries from queue until ctx is cancelled or the broker closes the delivery channel
func (c *Consumer) Consume(ctx context.Context, queue string) error {
	if err := c.ch.Qos(c.prefetchCount, 0, false); err != nil {
		return &ConsumerError{Queue: queue, ConsumerTag: c.consumerTag, Op: "qos", Err: err, Timestamp: time.Now()}
	}

	deliveries, err := c.ch.Consume(queue, c.consumerTag, false, false, false, false, nil)
	if err != nil {
		return &ConsumerError{Queue: queue, ConsumerTag: c.consumerTag, Op: "consume", Err: err, Timestamp: time.Now()}
	}

	c.logger.Info("consuming queue",
		"queue", queue,
		"prefetchCount", c.prefetchCount,
	)

	for {
		select {
		case <-ctx.Done():
			c.logger.Info("consumer stopped", "queue", queue)
			return nil

		case delivery, ok := <-deliveries:
			if !ok {
				return &ConsumerError{Queue: queue, ConsumerTag: c.consumerTag, Op: "consume", Err: ErrConsumerCancelled, Timestamp: time.Now()}
			}

			if err := c.HandleDelivery(ctx, delivery); err != nil {
				c.logger.Error("failed to handle delivery",
					"error", err,
					"queue", queue,
					"messageId", delivery.MessageId,
				)
			}
		}
	}
}

// HandleDelivery validates and settles a single delivery
func (c *Consumer) HandleDelivery(ctx context.Context, delivery amqp.Delivery) error {
	msgCtx, cancel := context.WithTimeout(ctx, c.handlerTimeout)
	defer cancel()

	env, err := decodeEnvelope(delivery)
	if err != nil {
		reply := contracts.NewErrorReply(contracts.CodeMalformedPayload, err.Error())
		reply.CorrelationID = delivery.CorrelationId
		return c.reject(msgCtx, delivery, delivery.ReplyTo, reply)
	}

	err = c.handler.Handle(msgCtx, env)

	var reply *contracts.ErrorReply
	switch {
	case err == nil:
		if ackErr := delivery.Ack(false); ackErr != nil {
			return fmt.Errorf("failed to ack delivery %s: %w", env.ID, ackErr)
		}
		return nil

	case errors.As(err, &reply):
		return c.reject(msgCtx, delivery, env.ReplyTo, reply)

	default:
		// Not a contract problem; nack without requeue
		if nackErr := delivery.Nack(false, false); nackErr != nil {
			c.logger.Error("failed to nack delivery",
				"error", nackErr,
				"originalError", err,
			)
		}
		return err
	}
}

func (c *Consumer) reject(ctx context.Context, delivery amqp.Delivery, replyTo string, reply *contracts.ErrorReply) error {
	c.logger.Warn("delivery rejected",
		"messageId", delivery.MessageId,
		"code", reply.Code,
		"version", reply.ContractVersion,
		"errors", len(reply.Errors),
	)

	if err := delivery.Reject(false); err != nil {
		return fmt.Errorf("failed to reject delivery %s: %w", delivery.MessageId, err)
	}

	if replyTo == "" {
		return nil
	}
	return c.replies.PublishReply(ctx, replyTo, reply)
}

// decodeEnvelope reads the envelope, filling gaps from AMQP properties
func decodeEnvelope(delivery amqp.Delivery) (*contracts.Envelope, error) {
	var env contracts.Envelope
	if err := json.Unmarshal(delivery.Body, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDelivery, err)
	}

	if env.ContractVersion == "" {
		if v, ok := delivery.Headers[contracts.HeaderContractVersion].(string); ok {
			env.ContractVersion = v
		}
	}
	if env.ID == "" {
		env.ID = delivery.MessageId
	}
	if env.CorrelationID == "" {
		env.CorrelationID = delivery.CorrelationId
	}
	if env.ReplyTo == "" {
		env.ReplyTo = delivery.ReplyTo
	}
	if env.Type == "" {
		env.Type = delivery.Type
	}

	return &env, nil
}
