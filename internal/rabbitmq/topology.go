package rabbitmq

import (
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Declarer is the subset of *amqp.Channel used to declare topology
type Declarer interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
	QueueBind(name, key, exchange string, noWait bool, args amqp.Table) error
}

var _ Declarer = (*amqp.Channel)(nil)

// Topology describes the exchange, queue and binding carrying contract envelopes
type Topology struct {
	Exchange     string
	ExchangeType string
	Queue        string
	RoutingKey   string
}

// Declare declares the durable queue and, when an exchange is set, the exchange and binding
func (t Topology) Declare(ch Declarer) error {
	if t.Queue == "" {
		return &TopologyError{Component: "queue", Op: "declare", Err: fmt.Errorf("queue name is required"), Timestamp: time.Now()}
	}

	if t.Exchange != "" {
		kind := t.ExchangeType
		if kind == "" {
			kind = amqp.ExchangeTopic
		}
		if err := ch.ExchangeDeclare(t.Exchange, kind, true, false, false, false, nil); err != nil {
			return &TopologyError{Component: "exchange", Name: t.Exchange, Op: "declare", Err: err, Timestamp: time.Now()}
		}
	}

	if _, err := ch.QueueDeclare(t.Queue, true, false, false, false, nil); err != nil {
		return &TopologyError{Component: "queue", Name: t.Queue, Op: "declare", Err: err, Timestamp: time.Now()}
	}

	if t.Exchange != "" {
		key := t.RoutingKey
		if key == "" {
			key = t.Queue
		}
		if err := ch.QueueBind(t.Queue, key, t.Exchange, false, nil); err != nil {
			return &TopologyError{Component: "binding", Name: t.Queue + "->" + t.Exchange, Op: "declare", Err: err, Timestamp: time.Now()}
		}
	}

	return nil
}
