// Package telemetry wires OpenTelemetry metrics and tracing for rendezvous runs.
//
// # Exporters
//
// Metrics go to Prometheus (scraped through MetricsHandler), to stdout, or
// nowhere. Traces go to stdout, to an OTLP/gRPC collector, or nowhere.
//
//	shutdown, err := telemetry.Init(ctx, cfg)
//	if err != nil {
//	    return err
//	}
//	defer shutdown(context.Background())
//
// # Metrics
//
// NewMetrics registers the run counters against a meter. A nil *Metrics is
// valid and records nothing, so callers never branch on whether telemetry is on.
package telemetry
