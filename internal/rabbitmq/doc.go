// Package rabbitmq carries contract envelopes over RabbitMQ.
//
// This package includes:
//   - Connection: dials the broker and opens channels
//   - Publisher: publishes envelopes as persistent JSON with the contract version header
//   - Consumer: feeds deliveries into an envelope handler and settles them
//   - Topology: declares the exchange, queue and binding
//
// Publisher and Consumer work over the narrow Channel interface, which
// *amqp.Channel satisfies. Failed publishes are returned to the caller and
// never retried.
package rabbitmq
