// Package interceptors provides an interceptor chain for contract envelopes.
//
// Interceptors add cross-cutting concerns around the final envelope handler:
//   - LoggingInterceptor: logs processing with timing information
//   - MetricsInterceptor: counts envelopes and errors per contract version
//   - ValidationInterceptor: validates the body against its declared contract
//   - TimeoutInterceptor: bounds processing time
//
// Example usage:
//
//	chain := interceptors.NewChainBuilder(logger).
//		WithLogging().
//		WithMetrics(collector).
//		WithValidation(registry, validation.New()).
//		Build()
//
//	err := chain.Execute(ctx, env, finalHandler)
//
// The final handler can read the decoded record and the validation result:
//
//	rec, _ := interceptors.RecordFromContext(ctx)
//	result, _ := interceptors.ResultFromContext(ctx)
//
// Interceptors run in the order they are added, with the final handler last.
package interceptors
