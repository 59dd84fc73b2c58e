// Package gate enforces contracts at both ends of an integration.
//
// A Producer validates a record against a registered contract version before
// handing it to a Publisher, so an invalid record never leaves the sender:
//
//	producer := gate.NewProducer(registry, publisher)
//	result, err := producer.Send(ctx, "1.0.0", rec)
//
// A Consumer validates every incoming envelope before it reaches the Sink and
// answers rejected envelopes with a *contracts.ErrorReply listing every field
// error:
//
//	consumer := gate.NewConsumer(registry, sink)
//	if err := consumer.Handle(ctx, env); err != nil {
//		var reply *contracts.ErrorReply
//		if errors.As(err, &reply) {
//			// send reply back to env.ReplyTo
//		}
//	}
package gate
