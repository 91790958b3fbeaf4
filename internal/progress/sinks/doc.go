// Package sinks implements progress consumers: structured logging via zap and
// Prometheus collectors. Each satisfies progress.Sink.
package sinks
