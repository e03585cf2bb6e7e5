// Package oteladapters provides OpenTelemetry implementations of the lending observability interfaces:
// a MetricsCollector on the metrics API, a TracingCollector on the tracing API and
// ContextualLoggers on the slog bridge and the logs API.
package oteladapters
