// Package infra contains technical adapters: the zerolog logger, the
// Prometheus and InfluxDB sinks, Sentry monitoring and the scenario file
// loader. These packages depend only on the interfaces defined in the
// core packages.
package infra
