// Package otel bridges authflow metrics into an OpenTelemetry meter as
// observable counters.
package otel
