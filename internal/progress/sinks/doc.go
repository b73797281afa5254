// Package sinks provides progress.Sink implementations for logging and
// Prometheus export.
package sinks
