package metrics

import (
	"fmt"

	"github.com/mkv-git/openttd/core/factory"
)

// Config defines settings for metrics sinks.
type Config struct {
	Sinks []factory.ModuleConfig `json:"sinks" yaml:"sinks"`
	// PrometheusAddr is where the /metrics endpoint listens. Empty disables it.
	PrometheusAddr string `json:"prometheus_addr" yaml:"prometheus_addr"`
	// BusBuffer is the per-subscriber event buffer of the collector.
	BusBuffer int `json:"bus_buffer" yaml:"bus_buffer"`
}

// SetDefaults applies sane defaults.
func (c *Config) SetDefaults() {
	if c.BusBuffer == 0 {
		c.BusBuffer = 1024
	}
}

// Validate checks the sink list.
func (c Config) Validate() error {
	for i, s := range c.Sinks {
		if s.Type == "" {
			return fmt.Errorf("metrics sink %d: type is required", i)
		}
	}
	if c.BusBuffer < 0 {
		return fmt.Errorf("bus_buffer must not be negative")
	}
	return nil
}
