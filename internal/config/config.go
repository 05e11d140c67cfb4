// Package config defines pipeline configuration and its loading.
//
// Conventions:
// - Provide New() to build a Config with defaults.
// - Load layers defaults, an optional YAML file and environment variables.
// - Validation failures wrap ErrInvalidConfig.
package config

import (
	"fmt"
	"runtime"
	"strings"
	"unicode/utf8"
)

// Error policies for rows whose timestamp or comment cannot be parsed.
const (
	PolicyAbort = "abort"
	PolicySkip  = "skip"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the handler: text or json.
	LogFormat string `koanf:"log_format"`

	// VehiclesPath and EventsPath locate the two input tables.
	VehiclesPath string `koanf:"vehicles_path"`
	EventsPath   string `koanf:"events_path"`

	// Delimiter separates fields in the input tables.
	Delimiter string `koanf:"delimiter"`

	// WorkerCount sets the width of the row mapper used for comment extraction.
	WorkerCount int `koanf:"worker_count"`

	// ErrorPolicy is abort or skip.
	ErrorPolicy string `koanf:"error_policy"`

	// DistanceKey is the comment key extracted into driven_distance.
	DistanceKey string `koanf:"distance_key"`

	// BatteryMin and BatteryMax bound valid battery_pct values, inclusive.
	BatteryMin int `koanf:"battery_min"`
	BatteryMax int `koanf:"battery_max"`

	// TimeLayouts overrides the accepted event_time layouts when non-empty.
	TimeLayouts []string `koanf:"time_layouts"`

	// MetricsAddr, when set, serves the operational API after the run until interrupted.
	MetricsAddr string `koanf:"metrics_addr"`

	// ReportPath receives the JSON report; empty means stdout.
	ReportPath string `koanf:"report_path"`
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:     "info",
		LogFormat:    "text",
		VehiclesPath: "data/cars.csv",
		EventsPath:   "data/mobility_event_data.csv",
		Delimiter:    ",",
		WorkerCount:  runtime.NumCPU(),
		ErrorPolicy:  PolicyAbort,
		DistanceKey:  "driven_distance",
		BatteryMin:   0,
		BatteryMax:   100,
	}
}

// Validate checks cross-field constraints.
func (c *Config) Validate() error {
	if c.VehiclesPath == "" || c.EventsPath == "" {
		return fmt.Errorf("%w: vehicles_path and events_path must not be empty", ErrInvalidConfig)
	}
	if utf8.RuneCountInString(c.Delimiter) != 1 {
		return fmt.Errorf("%w: delimiter must be a single character, got %q", ErrInvalidConfig, c.Delimiter)
	}
	if c.WorkerCount < 1 {
		return fmt.Errorf("%w: worker_count must be positive, got %d", ErrInvalidConfig, c.WorkerCount)
	}
	switch strings.ToLower(c.ErrorPolicy) {
	case PolicyAbort, PolicySkip:
	default:
		return fmt.Errorf("%w: error_policy must be %q or %q, got %q", ErrInvalidConfig, PolicyAbort, PolicySkip, c.ErrorPolicy)
	}
	if c.DistanceKey == "" {
		return fmt.Errorf("%w: distance_key must not be empty", ErrInvalidConfig)
	}
	if c.BatteryMin > c.BatteryMax {
		return fmt.Errorf("%w: battery_min %d exceeds battery_max %d", ErrInvalidConfig, c.BatteryMin, c.BatteryMax)
	}
	return nil
}

// DelimiterRune returns the configured delimiter as a rune.
func (c *Config) DelimiterRune() rune {
	r, _ := utf8.DecodeRuneInString(c.Delimiter)
	return r
}
