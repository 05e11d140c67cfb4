// Package service runs the fleet pipeline: read the two input tables, clean
// and join them, then aggregate the enriched table into the KPI report.
package service

import (
	"context"
	"fmt"
	"io"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/okian/fleetpulse/internal/adapters/source"
	"github.com/okian/fleetpulse/internal/adapters/worker"
	"github.com/okian/fleetpulse/internal/domain/cleaning"
	"github.com/okian/fleetpulse/internal/domain/kpi"
	"github.com/okian/fleetpulse/internal/domain/model"
	"github.com/okian/fleetpulse/pkg/logger"
	"github.com/okian/fleetpulse/pkg/metrics"
)

// Table names used when reading from io.Readers.
const (
	VehiclesTable = "vehicles"
	EventsTable   = "events"
)

// Result is the outcome of one pipeline run.
type Result struct {
	RunID      string              `json:"run_id"`
	StartedAt  time.Time           `json:"started_at"`
	DurationMS int64               `json:"duration_ms"`
	Cleaning   *cleaning.Report    `json:"cleaning"`
	KPIs       *kpi.Report         `json:"kpis"`
	Table      model.EnrichedTable `json:"-"`
}

// Service wires the pipeline stages.
type Service struct {
	mu sync.RWMutex

	// Configuration
	workerCount int
	policy      cleaning.Policy
	distanceKey string
	batteryMin  int
	batteryMax  int
	delimiter   rune
	layouts     []string

	// State
	runs      int
	failures  int
	lastRunID string
	last      *Result

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the width of the extraction row mapper.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithErrorPolicy sets how unparseable rows are handled.
func WithErrorPolicy(p cleaning.Policy) Option {
	return func(s *Service) {
		if p != "" {
			s.policy = p
		}
	}
}

// WithDistanceKey sets the comment key extracted per row.
func WithDistanceKey(key string) Option {
	return func(s *Service) {
		if key != "" {
			s.distanceKey = key
		}
	}
}

// WithBatteryRange sets the inclusive valid battery_pct range.
func WithBatteryRange(minPct, maxPct int) Option {
	return func(s *Service) {
		if minPct <= maxPct {
			s.batteryMin, s.batteryMax = minPct, maxPct
		}
	}
}

// WithDelimiter sets the field delimiter of both input tables.
func WithDelimiter(d rune) Option {
	return func(s *Service) {
		if d != 0 {
			s.delimiter = d
		}
	}
}

// WithTimeLayouts replaces the accepted event_time layouts.
func WithTimeLayouts(layouts ...string) Option {
	return func(s *Service) {
		if len(layouts) > 0 {
			s.layouts = layouts
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		workerCount: runtime.NumCPU(),
		policy:      cleaning.PolicyAbort,
		distanceKey: cleaning.DefaultDistanceKey,
		batteryMin:  cleaning.DefaultBatteryMin,
		batteryMax:  cleaning.DefaultBatteryMax,
		delimiter:   ',',
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}
	return s
}

// RunFiles reads both tables from disk and runs the pipeline.
func (s *Service) RunFiles(ctx context.Context, vehiclesPath, eventsPath string) (*Result, error) {
	reader := s.reader()

	vehicles, err := reader.ReadFile(ctx, vehiclesPath)
	if err != nil {
		return nil, fmt.Errorf("read vehicles: %w", err)
	}
	events, err := reader.ReadFile(ctx, eventsPath)
	if err != nil {
		return nil, fmt.Errorf("read events: %w", err)
	}
	return s.run(ctx, vehicles, events)
}

// Run reads both tables from readers and runs the pipeline.
func (s *Service) Run(ctx context.Context, vehicles, events io.Reader) (*Result, error) {
	reader := s.reader()

	vt, err := reader.Read(ctx, VehiclesTable, vehicles)
	if err != nil {
		return nil, fmt.Errorf("read vehicles: %w", err)
	}
	et, err := reader.Read(ctx, EventsTable, events)
	if err != nil {
		return nil, fmt.Errorf("read events: %w", err)
	}
	return s.run(ctx, vt, et)
}

func (s *Service) reader() *source.Reader {
	return source.NewReader(
		source.WithDelimiter(s.delimiter),
		source.WithLogger(s.logger.Named("source")),
	)
}

func (s *Service) run(ctx context.Context, vehicles, events model.RawTable) (*Result, error) {
	res := &Result{
		RunID:     uuid.NewString(),
		StartedAt: time.Now().UTC(),
	}
	log := s.logger.With(logger.String("run_id", res.RunID))
	log.Info(ctx, "pipeline started",
		logger.Int("vehicles", vehicles.Len()),
		logger.Int("events", events.Len()),
		logger.Int("workers", s.workerCount),
		logger.String("policy", string(s.policy)),
	)

	opts := []cleaning.Option{
		cleaning.WithLogger(log.Named("cleaning")),
		cleaning.WithPool(worker.NewPool(s.workerCount,
			worker.WithName("extract"),
			worker.WithLogger(log.Named("worker")),
		)),
		cleaning.WithPolicy(s.policy),
		cleaning.WithDistanceKey(s.distanceKey),
		cleaning.WithBatteryRange(s.batteryMin, s.batteryMax),
	}
	if len(s.layouts) > 0 {
		opts = append(opts, cleaning.WithTimeLayouts(s.layouts...))
	}

	table, report, err := cleaning.NewStage(opts...).Run(ctx, vehicles, events)
	res.Cleaning = report
	if err != nil {
		s.finish(ctx, log, res, metrics.StatusFailed)
		return res, fmt.Errorf("clean: %w", err)
	}
	res.Table = table

	step := time.Now()
	res.KPIs = kpi.Compute(table)
	metrics.ObserveStageDuration("kpi", time.Since(step))

	s.finish(ctx, log, res, metrics.StatusOK)
	return res, nil
}

func (s *Service) finish(ctx context.Context, log logger.Logger, res *Result, status string) {
	took := time.Since(res.StartedAt)
	res.DurationMS = took.Milliseconds()
	metrics.RecordPipelineRun(status, took)

	s.mu.Lock()
	s.runs++
	if status == metrics.StatusFailed {
		s.failures++
	}
	s.lastRunID = res.RunID
	s.last = res
	s.mu.Unlock()

	log.Info(ctx, "pipeline finished",
		logger.String("status", status),
		logger.Duration("took", took),
	)
}

// LastReport returns the result of the most recent run, failed or not.
func (s *Service) LastReport() (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.last == nil {
		return nil, false
	}
	return s.last, true
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return map[string]interface{}{
		"workerCount": s.workerCount,
		"policy":      string(s.policy),
		"runs":        s.runs,
		"failures":    s.failures,
		"lastRunID":   s.lastRunID,
	}
}
