// Package metrics defines the sinks that record optimization passes and
// simulator episodes. Concrete sinks live in infra/metrics and register
// themselves by type name; NewSink builds one sink, or a MultiSink when
// several are configured.
package metrics
