package rabbitmq

import (
	"context"
	"log/slog"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Channel is the subset of *amqp.Channel used by the publisher and consumer
type Channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Consume(queue, consumer string, autoAck, exclusive, noLocal, noWait bool, args amqp.Table) (<-chan amqp.Delivery, error)
	Qos(prefetchCount, prefetchSize int, global bool) error
	Close() error
}

var _ Channel = (*amqp.Channel)(nil)

// Connection wraps an AMQP connection
type Connection struct {
	url    string
	conn   *amqp.Connection
	logger *slog.Logger
	mu     sync.Mutex
	closed bool
}

// ConnectionOption configures the connection
type ConnectionOption func(*Connection)

// WithLogger sets the logger
func WithLogger(logger *slog.Logger) ConnectionOption {
	return func(c *Connection) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// Dial connects to the broker at url
func Dial(url string, options ...ConnectionOption) (*Connection, error) {
	c := &Connection{
		url:    url,
		logger: slog.Default(),
	}

	for _, opt := range options {
		opt(c)
	}

	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, &ConnectionError{
			Op:        "dial",
			URL:       SanitizeURL(url),
			Err:       err,
			Timestamp: time.Now(),
		}
	}
	c.conn = conn

	c.logger.Info("connected to RabbitMQ", "url", SanitizeURL(url))
	return c, nil
}

// Channel opens a new channel
func (c *Connection) Channel() (*amqp.Channel, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil, ErrConnectionClosed
	}

	ch, err := c.conn.Channel()
	if err != nil {
		return nil, &ChannelError{Op: "open", Err: err, Timestamp: time.Now()}
	}
	return ch, nil
}

// Close closes the connection; closing twice is a no-op
func (c *Connection) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true

	if err := c.conn.Close(); err != nil {
		return &ConnectionError{Op: "close", URL: SanitizeURL(c.url), Err: err, Timestamp: time.Now()}
	}
	c.logger.Info("RabbitMQ connection closed")
	return nil
}
