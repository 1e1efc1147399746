package config

import (
	"fmt"
	"time"
)

// RefreshConfig controls the periodic refresh loop.
type RefreshConfig struct {
	// AllowMerge permits updates joining separate flow graph components.
	AllowMerge bool `json:"allow_merge"`
	// IntervalSeconds is the pause between two passes over all vehicles.
	IntervalSeconds int `json:"interval_seconds"`
}

// SetDefaults applies sane defaults.
func (c *RefreshConfig) SetDefaults() {
	if c.IntervalSeconds == 0 {
		c.IntervalSeconds = 60
	}
}

// Validate checks the interval.
func (c RefreshConfig) Validate() error {
	if c.IntervalSeconds < 0 {
		return fmt.Errorf("interval_seconds must not be negative")
	}
	return nil
}

// Interval returns the refresh period.
func (c RefreshConfig) Interval() time.Duration {
	return time.Duration(c.IntervalSeconds) * time.Second
}

// ScenarioConfig points at the YAML world refreshed by the service.
type ScenarioConfig struct {
	Path string `json:"path"`
}
