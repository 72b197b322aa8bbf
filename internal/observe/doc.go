// ABOUTME: Package observe wires OpenTelemetry metrics for the client
// ABOUTME: Exposes instruments as a session observer and a Prometheus endpoint
// Package observe provides metrics for live sessions.
//
// Instruments are created through the OpenTelemetry Metrics API. InitProvider
// bridges them to a Prometheus registry so they can be scraped from
// /metrics. Tests should use NewMetrics with a ManualReader-backed provider.
package observe
