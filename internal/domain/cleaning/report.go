package cleaning

import (
	"maps"
	"slices"

	"gonum.org/v1/gonum/floats"

	"github.com/okian/fleetpulse/internal/domain/model"
)

// Step names used in row issues, metrics and logs.
const (
	StepTyping    = "typing"
	StepTimestamp = "timestamp"
	StepComment   = "comment"
)

// IDRange is the inclusive range of identifiers seen in a table.
type IDRange struct {
	Min int64 `json:"min"`
	Max int64 `json:"max"`
}

// IntRange is the inclusive range of an integer column.
type IntRange struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

// BoundingBox is the latitude/longitude extent of a set of events.
type BoundingBox struct {
	MinLatitude  float64 `json:"min_latitude"`
	MaxLatitude  float64 `json:"max_latitude"`
	MinLongitude float64 `json:"min_longitude"`
	MaxLongitude float64 `json:"max_longitude"`
}

// RowIssue records a row dropped under PolicySkip.
type RowIssue struct {
	Row     int    `json:"row"`
	EventID int64  `json:"event_id,omitempty"`
	Step    string `json:"step"`
	Cause   string `json:"cause"`
}

// Extraction counts rows with and without the distance key.
type Extraction struct {
	Key    string `json:"key"`
	Found  int    `json:"found"`
	Absent int    `json:"absent"`
}

// Report holds the diagnostics of one cleaning run. Ranges are nil for empty
// inputs.
type Report struct {
	Policy Policy `json:"policy"`

	VehicleRows int `json:"vehicle_rows"`
	EventRows   int `json:"event_rows"`
	OutputRows  int `json:"output_rows"`

	Nulls []ColumnNulls `json:"nulls"`

	VehicleIDs      *IDRange `json:"vehicle_ids,omitempty"`
	EventVehicleIDs *IDRange `json:"event_vehicle_ids,omitempty"`
	// BatteryBeforeFilter spans every typed event, including rows the filter drops.
	BatteryBeforeFilter *IntRange    `json:"battery_before_filter,omitempty"`
	Area                *BoundingBox `json:"area,omitempty"`

	EventTypes        []string `json:"event_types"`
	UnknownEventTypes []string `json:"unknown_event_types,omitempty"`
	VehicleTypes      []string `json:"vehicle_types"`

	DuplicateVehicleIDs []int64 `json:"duplicate_vehicle_ids,omitempty"`
	DuplicateEventIDs   []int64 `json:"duplicate_event_ids,omitempty"`

	UnmatchedEvents int            `json:"unmatched_events"`
	BatteryDropped  []DroppedGroup `json:"battery_dropped,omitempty"`

	Extraction Extraction `json:"extraction"`

	SkippedRows int        `json:"skipped_rows"`
	Issues      []RowIssue `json:"issues,omitempty"`
}

// BatteryDroppedRows sums the rows removed by the battery filter.
func (r *Report) BatteryDroppedRows() int {
	n := 0
	for _, g := range r.BatteryDropped {
		n += g.Rows
	}
	return n
}

func vehicleIDRange(t model.VehicleTable) *IDRange {
	if t.Len() == 0 {
		return nil
	}
	r := IDRange{Min: t.Row(0).ID, Max: t.Row(0).ID}
	for i := 1; i < t.Len(); i++ {
		r.Min = min(r.Min, t.Row(i).ID)
		r.Max = max(r.Max, t.Row(i).ID)
	}
	return &r
}

func eventRanges(t model.EventTable) (*IDRange, *IntRange) {
	if t.Len() == 0 {
		return nil, nil
	}
	first := t.Row(0)
	ids := IDRange{Min: first.VehicleID, Max: first.VehicleID}
	battery := IntRange{Min: first.BatteryPct, Max: first.BatteryPct}
	for i := 1; i < t.Len(); i++ {
		e := t.Row(i)
		ids.Min = min(ids.Min, e.VehicleID)
		ids.Max = max(ids.Max, e.VehicleID)
		battery.Min = min(battery.Min, e.BatteryPct)
		battery.Max = max(battery.Max, e.BatteryPct)
	}
	return &ids, &battery
}

func boundingBox(rows []model.EnrichedEvent) *BoundingBox {
	if len(rows) == 0 {
		return nil
	}
	lats := make([]float64, len(rows))
	lons := make([]float64, len(rows))
	for i := range rows {
		lats[i] = rows[i].Latitude
		lons[i] = rows[i].Longitude
	}
	return &BoundingBox{
		MinLatitude:  floats.Min(lats),
		MaxLatitude:  floats.Max(lats),
		MinLongitude: floats.Min(lons),
		MaxLongitude: floats.Max(lons),
	}
}

func eventTypes(t model.EventTable) (all, unknown []string) {
	set := make(map[string]struct{})
	for i := 0; i < t.Len(); i++ {
		set[string(t.Row(i).Type)] = struct{}{}
	}
	all = slices.Sorted(maps.Keys(set))
	for _, t := range all {
		if !model.EventType(t).Known() {
			unknown = append(unknown, t)
		}
	}
	return all, unknown
}

func vehicleTypes(t model.VehicleTable) []string {
	set := make(map[string]struct{})
	for i := 0; i < t.Len(); i++ {
		if vt, ok := t.Row(i).Type.Get(); ok {
			set[vt] = struct{}{}
		}
	}
	return slices.Sorted(maps.Keys(set))
}
