// Package progress defines the event stream emitted by site tasks and the
// hub that fans events out to reporting sinks.
package progress
