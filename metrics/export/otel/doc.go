// Package otel publishes goSession store metrics through OpenTelemetry
// observable instruments. One callback reads Store.MetricsSnapshot per
// collection cycle. Callers own the MeterProvider and pass a Meter in.
package otel
