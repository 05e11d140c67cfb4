// Package cleaning turns the raw vehicle and event tables into the enriched
// event table.
//
// The stage runs in a fixed order: null audit, typing, timestamp
// decomposition, left join on vehicle id, battery filter, then comment
// normalization and distance extraction. Every step returns new rows; inputs
// are never modified.
//
// Row failures carry one of three sentinels: ErrInvalidValue when a cell
// cannot be typed (including a blank battery_pct, latitude or longitude),
// ErrParse for an unparseable event_time and ErrMalformedComment for a bad
// comment. They are handled by the Policy: abort returns the first one, skip
// drops the row and records it.
package cleaning

import (
	"context"
	"fmt"
	"time"

	"github.com/okian/fleetpulse/internal/adapters/worker"
	"github.com/okian/fleetpulse/internal/domain/dedupe"
	"github.com/okian/fleetpulse/internal/domain/model"
	"github.com/okian/fleetpulse/pkg/logger"
	"github.com/okian/fleetpulse/pkg/metrics"
)

// Stage cleans and joins the input tables.
type Stage struct {
	logger      logger.Logger
	pool        *worker.Pool
	workerCount int
	policy      Policy
	distanceKey string
	batteryMin  int
	batteryMax  int
	layouts     []string
	maxIssues   int
}

// NewStage creates a Stage with sensible defaults and applies options.
func NewStage(opts ...Option) *Stage {
	s := &Stage{
		policy:      PolicyAbort,
		distanceKey: DefaultDistanceKey,
		batteryMin:  DefaultBatteryMin,
		batteryMax:  DefaultBatteryMax,
		layouts:     DefaultLayouts,
		maxIssues:   defaultMaxIssues,
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.logger == nil {
		s.logger = logger.Get().Named("cleaning")
	}
	if s.pool == nil {
		s.pool = worker.NewPool(s.workerCount, worker.WithName("extract"), worker.WithLogger(s.logger))
	}
	return s
}

// Run cleans the raw tables into an enriched table. On error the report holds
// the diagnostics gathered up to the failing step.
func (s *Stage) Run(ctx context.Context, vehiclesRaw, eventsRaw model.RawTable) (model.EnrichedTable, *Report, error) {
	report := &Report{
		Policy:      s.policy,
		VehicleRows: vehiclesRaw.Len(),
		EventRows:   eventsRaw.Len(),
		Extraction:  Extraction{Key: s.distanceKey},
	}

	step := time.Now()
	report.Nulls = AuditNulls(vehiclesRaw, eventsRaw)
	metrics.ObserveStageDuration("null_audit", time.Since(step))

	step = time.Now()
	vehicles, err := TypeVehicles(vehiclesRaw)
	if err != nil {
		return model.EnrichedTable{}, report, err
	}
	report.VehicleIDs = vehicleIDRange(vehicles)
	report.VehicleTypes = vehicleTypes(vehicles)
	report.DuplicateVehicleIDs = s.auditVehicleIDs(ctx, vehicles)

	typed, typeErrs, err := TypeEvents(eventsRaw)
	if err != nil {
		return model.EnrichedTable{}, report, err
	}
	kept, err := settle(ctx, s, report, StepTyping, typed.Rows(), typeErrs, func(e model.MobilityEvent) (int, int64) {
		return e.Row, e.ID
	})
	if err != nil {
		return model.EnrichedTable{}, report, err
	}
	events := model.NewEventTable(kept)
	report.EventVehicleIDs, report.BatteryBeforeFilter = eventRanges(events)
	report.EventTypes, report.UnknownEventTypes = eventTypes(events)
	report.DuplicateEventIDs = s.auditEventIDs(ctx, events)
	metrics.ObserveStageDuration("typing", time.Since(step))

	step = time.Now()
	decomposed := make([]model.EnrichedEvent, events.Len())
	tsErrs := make([]error, events.Len())
	for i := range decomposed {
		decomposed[i], tsErrs[i] = Decompose(events.Row(i), s.layouts)
	}
	rows, err := settle(ctx, s, report, StepTimestamp, decomposed, tsErrs, enrichedMeta)
	if err != nil {
		return model.EnrichedTable{}, report, err
	}
	metrics.ObserveStageDuration("timestamp", time.Since(step))

	// Join before filtering so dropped rows carry their vehicle type.
	step = time.Now()
	rows, report.UnmatchedEvents = Join(rows, vehicles)
	metrics.RecordUnmatchedVehicles(report.UnmatchedEvents)
	metrics.ObserveStageDuration("join", time.Since(step))

	step = time.Now()
	rows, report.BatteryDropped = FilterBattery(rows, s.batteryMin, s.batteryMax)
	report.Area = boundingBox(rows)
	metrics.RecordRowsDropped("battery", report.BatteryDroppedRows())
	metrics.ObserveStageDuration("battery_filter", time.Since(step))

	step = time.Now()
	extracted, commentErrs, err := s.extract(ctx, rows)
	if err != nil {
		return model.EnrichedTable{}, report, err
	}
	rows, err = settle(ctx, s, report, StepComment, extracted, commentErrs, enrichedMeta)
	if err != nil {
		return model.EnrichedTable{}, report, err
	}
	for i := range rows {
		found := rows[i].DrivenDistance.Found
		if found {
			report.Extraction.Found++
		} else {
			report.Extraction.Absent++
		}
		metrics.RecordExtraction(found)
	}
	metrics.ObserveStageDuration("extraction", time.Since(step))

	report.OutputRows = len(rows)
	metrics.UpdateEnrichedRows(len(rows))

	s.logger.Info(ctx, "cleaning finished",
		logger.Int("events_in", report.EventRows),
		logger.Int("events_out", report.OutputRows),
		logger.Int("unmatched", report.UnmatchedEvents),
		logger.Int("battery_dropped", report.BatteryDroppedRows()),
		logger.Int("skipped", report.SkippedRows),
	)
	return model.NewEnrichedTable(rows), report, nil
}

func enrichedMeta(e model.EnrichedEvent) (int, int64) { return e.Row, e.ID }

// settle applies the error policy to one step. errs is parallel to rows.
// Under PolicyAbort the lowest failing row is returned; under PolicySkip
// failing rows are dropped and recorded.
func settle[T any](ctx context.Context, s *Stage, report *Report, step string, rows []T, errs []error, meta func(T) (int, int64)) ([]T, error) {
	kept := make([]T, 0, len(rows))
	for i, row := range rows {
		if errs[i] == nil {
			kept = append(kept, row)
			continue
		}
		metrics.RecordParseError(step)
		src, id := meta(row)
		if s.policy == PolicyAbort {
			return nil, fmt.Errorf("%s: row %d (event %d): %w", step, src, id, errs[i])
		}

		report.SkippedRows++
		if len(report.Issues) < s.maxIssues {
			report.Issues = append(report.Issues, RowIssue{Row: src, EventID: id, Step: step, Cause: errs[i].Error()})
		}
		s.logger.Debug(ctx, "row skipped",
			logger.String("step", step),
			logger.Int("row", src),
			logger.Error(errs[i]),
		)
	}
	if dropped := len(rows) - len(kept); dropped > 0 {
		metrics.RecordRowsDropped(step, dropped)
		s.logger.Warn(ctx, "rows skipped",
			logger.String("step", step),
			logger.Int("rows", dropped),
		)
	}
	return kept, nil
}

func (s *Stage) auditVehicleIDs(ctx context.Context, vehicles model.VehicleTable) []int64 {
	ids := make([]int64, vehicles.Len())
	for i := range ids {
		ids[i] = vehicles.Row(i).ID
	}
	dups, repeats := dedupe.CountDuplicates(ctx, ids)
	if repeats > 0 {
		metrics.RecordDuplicateIDs("vehicles", repeats)
		s.logger.Warn(ctx, "repeated vehicle ids, first row wins",
			logger.Int("repeats", repeats),
			logger.Int("distinct", len(dups)),
		)
	}
	return dups
}

func (s *Stage) auditEventIDs(ctx context.Context, events model.EventTable) []int64 {
	ids := make([]int64, events.Len())
	for i := range ids {
		ids[i] = events.Row(i).ID
	}
	dups, repeats := dedupe.CountDuplicates(ctx, ids)
	if repeats > 0 {
		metrics.RecordDuplicateIDs("events", repeats)
	}
	return dups
}
