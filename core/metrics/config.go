package metrics

import (
	"fmt"

	"github.com/kilianp07/greenrail/core/factory"
)

// Config lists the sinks to build and the optional Prometheus listener.
type Config struct {
	Sinks          []factory.ModuleConfig `json:"sinks" yaml:"sinks" koanf:"sinks"`
	PrometheusAddr string                 `json:"prometheus_addr" yaml:"prometheus_addr" koanf:"prometheus_addr"`
}

// Validate checks that every sink names a type.
func (c Config) Validate() error {
	for i, s := range c.Sinks {
		if s.Type == "" {
			return fmt.Errorf("metrics.sinks[%d]: type is required", i)
		}
	}
	return nil
}
