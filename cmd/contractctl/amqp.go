package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/glimte/contractgate/contracts"
	"github.com/glimte/contractgate/gate"
	"github.com/glimte/contractgate/internal/rabbitmq"
	"github.com/glimte/contractgate/monitor"
	"github.com/glimte/contractgate/schema"
	"github.com/glimte/contractgate/validation"
)

// brokerFlags are the connection flags shared by consume and publish
type brokerFlags struct {
	url        string
	queue      string
	exchange   string
	routingKey string
}

func (b *brokerFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&b.url, "amqp-url", "u", "", "RabbitMQ connection URL (env CONTRACT_AMQP_URL)")
	cmd.Flags().StringVarP(&b.queue, "queue", "q", "", "Queue name (env CONTRACT_QUEUE)")
	cmd.Flags().StringVar(&b.exchange, "exchange", "", "Exchange name (env CONTRACT_EXCHANGE)")
	cmd.Flags().StringVar(&b.routingKey, "routing-key", "", "Routing key (env CONTRACT_ROUTING_KEY)")
}

// resolve fills unset flags from the environment configuration
func (b *brokerFlags) resolve(cmd *cobra.Command, a *app) {
	flags := cmd.Flags()
	if !flags.Changed("amqp-url") {
		b.url = a.cfg.AMQPURL
	}
	if !flags.Changed("queue") {
		b.queue = a.cfg.Queue
	}
	if !flags.Changed("exchange") {
		b.exchange = a.cfg.Exchange
	}
	if !flags.Changed("routing-key") {
		b.routingKey = a.cfg.RoutingKey
	}
}

func (b *brokerFlags) topology() rabbitmq.Topology {
	return rabbitmq.Topology{Exchange: b.exchange, Queue: b.queue, RoutingKey: b.routingKey}
}

func newConsumeCmd(a *app) *cobra.Command {
	var (
		broker   brokerFlags
		prefetch int
		accept   string
	)

	cmd := &cobra.Command{
		Use:   "consume",
		Short: "Run the gated consumer",
		Long: `Consume contract envelopes from a queue. Valid records are acked and logged.
Invalid records are rejected and answered with an error reply when the sender set
a reply queue.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			broker.resolve(cmd, a)
			if !cmd.Flags().Changed("prefetch") {
				prefetch = a.cfg.PrefetchCount
			}

			ctx, cancel := signalContext()
			defer cancel()

			registry, err := a.registry()
			if err != nil {
				return err
			}

			conn, err := rabbitmq.Dial(broker.url, rabbitmq.WithLogger(a.logger))
			if err != nil {
				return fmt.Errorf("failed to connect: %w", err)
			}
			defer conn.Close()

			ch, err := conn.Channel()
			if err != nil {
				return err
			}
			defer ch.Close()

			if err := broker.topology().Declare(ch); err != nil {
				return err
			}

			collector := monitor.NewMetricsCollector()
			sink := gate.SinkFunc(func(ctx context.Context, env *contracts.Envelope, rec contracts.Record) error {
				a.logger.Info("record accepted",
					"envelopeId", env.ID,
					"type", env.Type,
					"version", env.ContractVersion,
					"fields", len(rec),
				)
				return nil
			})

			opts := []gate.ConsumerOption{
				gate.WithConsumerLogger(a.logger),
				gate.WithConsumerValidator(a.validator()),
				gate.WithMetrics(collector),
			}
			if accept != "" {
				constraint, err := schema.ParseConstraint(accept)
				if err != nil {
					return err
				}
				opts = append(opts, gate.WithAcceptedVersions(constraint))
			}
			gated := gate.NewConsumer(registry, sink, opts...)
			consumer := rabbitmq.NewConsumer(ch, gated,
				rabbitmq.WithPrefetchCount(prefetch),
				rabbitmq.WithHandlerTimeout(a.cfg.HandlerTimeout),
				rabbitmq.WithConsumerLogger(a.logger),
			)

			fmt.Fprintf(cmd.OutOrStdout(), "Consuming %s... Press Ctrl+C to stop\n", broker.queue)
			err = consumer.Consume(ctx, broker.queue)

			printMetrics(cmd.OutOrStdout(), collector.Snapshot())
			return err
		},
	}

	broker.register(cmd)
	cmd.Flags().IntVar(&prefetch, "prefetch", 0, "Prefetch count (env CONTRACT_PREFETCH_COUNT)")
	cmd.Flags().StringVar(&accept, "accept", "", "Only accept contract versions in this range, e.g. ^1.1")
	cmd.Flags().BoolVar(&a.unknownFatal, "unknown-fatal", false, "Treat unknown fields as errors (env CONTRACT_UNKNOWN_FIELDS_FATAL)")
	cmd.Flags().BoolVar(&a.strictUUID, "strict-uuid", false, "Enforce the declared UUID version (env CONTRACT_STRICT_UUID_VERSION)")

	return cmd
}

func newPublishCmd(a *app) *cobra.Command {
	var (
		broker          brokerFlags
		contractVersion string
		objectType      string
		correlationID   string
		replyTo         string
	)

	cmd := &cobra.Command{
		Use:   "publish record.json",
		Short: "Validate a record and publish it",
		Long:  "Validate a record against a contract version and publish it only when valid.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			broker.resolve(cmd, a)

			registry, err := a.registry()
			if err != nil {
				return err
			}
			doc, err := registry.ResolveConstraint(contractVersion)
			if err != nil {
				return err
			}
			contractVersion = doc.Version().String()

			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read record %s: %w", args[0], err)
			}
			rec, err := contracts.DecodeRecord(data)
			if err != nil {
				return err
			}

			conn, err := rabbitmq.Dial(broker.url, rabbitmq.WithLogger(a.logger))
			if err != nil {
				return fmt.Errorf("failed to connect: %w", err)
			}
			defer conn.Close()

			ch, err := conn.Channel()
			if err != nil {
				return err
			}
			defer ch.Close()

			routingKey := broker.routingKey
			if broker.exchange == "" && routingKey == "" {
				routingKey = broker.queue
			}
			publisher := rabbitmq.NewPublisher(ch,
				rabbitmq.WithExchange(broker.exchange),
				rabbitmq.WithRoutingKey(routingKey),
				rabbitmq.WithPublisherLogger(a.logger),
			)

			opts := []gate.ProducerOption{
				gate.WithProducerLogger(a.logger),
				gate.WithProducerValidator(a.validator()),
			}
			if objectType != "" {
				opts = append(opts, gate.WithObjectType(objectType))
			}
			producer := gate.NewProducer(registry, publisher, opts...)

			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()

			result, err := producer.Send(ctx, contractVersion, rec,
				gate.WithCorrelationID(correlationID),
				gate.WithReplyTo(replyTo),
			)
			var invalid *validation.InvalidRecordError
			if errors.As(err, &invalid) {
				for _, e := range result.FatalErrors() {
					fmt.Fprintf(cmd.OutOrStdout(), "  [error] %s %s: %s\n", e.Kind, e.Field, e.Message)
				}
				return fmt.Errorf("record %s rejected by contract %s", args[0], contractVersion)
			}
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "published %s as contract %s\n", args[0], contractVersion)
			return nil
		},
	}

	broker.register(cmd)
	cmd.Flags().StringVar(&contractVersion, "version", "", "Contract version or range (default latest)")
	cmd.Flags().StringVar(&objectType, "type", "", "Envelope type (default schema name)")
	cmd.Flags().StringVar(&correlationID, "correlation-id", "", "Correlation ID")
	cmd.Flags().StringVar(&replyTo, "reply-to", "", "Queue that receives error replies")
	cmd.Flags().BoolVar(&a.unknownFatal, "unknown-fatal", false, "Treat unknown fields as errors (env CONTRACT_UNKNOWN_FIELDS_FATAL)")
	cmd.Flags().BoolVar(&a.strictUUID, "strict-uuid", false, "Enforce the declared UUID version (env CONTRACT_STRICT_UUID_VERSION)")

	return cmd
}

func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		select {
		case <-sigChan:
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigChan)
	}()

	return ctx, cancel
}

func printMetrics(w io.Writer, snap monitor.Snapshot) {
	versions := snap.Versions()
	if len(versions) == 0 {
		fmt.Fprintln(w, "No envelopes processed")
		return
	}

	fmt.Fprintf(w, "%-12s %-10s %-10s %-10s %-10s\n", "Version", "Envelopes", "Errors", "Avg (ms)", "P95 (ms)")
	rule(w, 56)
	for _, v := range versions {
		stats := snap.ProcessingStats[v]
		fmt.Fprintf(w, "%-12s %-10d %-10d %-10d %-10d\n",
			truncate(v, 12),
			snap.MessageCounts[v],
			snap.TotalErrors(v),
			stats.AvgMs,
			stats.P95Ms,
		)
		for _, k := range snap.TopErrorKinds(v) {
			fmt.Fprintf(w, "  %-30s %d\n", k.Kind, k.Count)
		}
	}
}
