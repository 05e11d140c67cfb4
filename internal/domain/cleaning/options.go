package cleaning

import (
	"fmt"
	"strings"

	"github.com/okian/fleetpulse/internal/adapters/worker"
	"github.com/okian/fleetpulse/pkg/logger"
)

// Policy decides what happens to a row whose timestamp, comment or typed
// cells cannot be parsed.
type Policy string

// Error policies.
const (
	// PolicyAbort returns the first failing row as an error.
	PolicyAbort Policy = "abort"
	// PolicySkip drops failing rows and records them in the report.
	PolicySkip Policy = "skip"
)

// ParsePolicy maps a policy name to a Policy.
func ParsePolicy(name string) (Policy, error) {
	switch p := Policy(strings.ToLower(strings.TrimSpace(name))); p {
	case PolicyAbort, PolicySkip:
		return p, nil
	case "":
		return PolicyAbort, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidPolicy, name)
	}
}

// Default stage configuration constants.
const (
	DefaultDistanceKey = "driven_distance"
	DefaultBatteryMin  = 0
	DefaultBatteryMax  = 100
	defaultMaxIssues   = 100
)

// Option applies a configuration option to the Stage.
type Option func(*Stage)

// WithLogger sets a custom logger for the stage.
func WithLogger(l logger.Logger) Option {
	return func(s *Stage) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithPool sets the row mapper used for comment extraction.
func WithPool(p *worker.Pool) Option {
	return func(s *Stage) {
		if p != nil {
			s.pool = p
		}
	}
}

// WithWorkerCount sizes the row mapper when no pool is given.
func WithWorkerCount(n int) Option {
	return func(s *Stage) {
		if n > 0 {
			s.workerCount = n
		}
	}
}

// WithPolicy sets the error policy.
func WithPolicy(p Policy) Option {
	return func(s *Stage) {
		if p == PolicyAbort || p == PolicySkip {
			s.policy = p
		}
	}
}

// WithDistanceKey sets the comment key extracted into DrivenDistance.
func WithDistanceKey(key string) Option {
	return func(s *Stage) {
		if key != "" {
			s.distanceKey = key
		}
	}
}

// WithBatteryRange sets the inclusive range of valid battery_pct values.
func WithBatteryRange(minPct, maxPct int) Option {
	return func(s *Stage) {
		if minPct <= maxPct {
			s.batteryMin, s.batteryMax = minPct, maxPct
		}
	}
}

// WithTimeLayouts replaces the accepted event_time layouts.
func WithTimeLayouts(layouts ...string) Option {
	return func(s *Stage) {
		if len(layouts) > 0 {
			s.layouts = append([]string(nil), layouts...)
		}
	}
}

// WithMaxIssues caps the row issues kept in the report. Counts stay exact.
func WithMaxIssues(n int) Option {
	return func(s *Stage) {
		if n >= 0 {
			s.maxIssues = n
		}
	}
}
