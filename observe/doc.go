// Package observe provides the telemetry primitives for the batch engine
// and its front-ends: an OpenTelemetry tracer and meter behind pluggable
// exporters, and a structured JSON logger with credential redaction.
//
// It is a pure instrumentation library: no check execution, no transport,
// no I/O beyond exporter setup. Consumers construct one Observer at startup
// and inject it into the batch runner or the serving layer.
package observe
