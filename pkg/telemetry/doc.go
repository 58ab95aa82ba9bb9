// Package telemetry provides structured logging (zerolog), Prometheus
// metrics, OpenTelemetry tracing, and an in-process event bus for the
// clusterline resolution pipeline.
//
// Metrics and tracing are disabled by default; a disabled component is a
// cheap no-op so the pipeline can call it unconditionally.
package telemetry
