// Package tracing wraps OpenTelemetry so that the engine opens one span per
// task run without importing the SDK everywhere.
package tracing
