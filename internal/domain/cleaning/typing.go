package cleaning

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/okian/fleetpulse/internal/domain/model"
)

// Accepted header names per column, first match wins.
var (
	colVehicleID   = []string{"vehicle_id"}
	colVehicleType = []string{"vehicle_type"}
	colEventID     = []string{"event_id", "id"}
	colEventType   = []string{"event", "event_type"}
	colEventTime   = []string{"event_time", "timestamp"}
	colRideID      = []string{"ride_id"}
	colBattery     = []string{"battery_pct"}
	colLatitude    = []string{"latitude", "lat"}
	colLongitude   = []string{"longitude", "lon", "lng"}
	colComment     = []string{"comment"}
)

func column(t model.RawTable, names []string) (int, bool) {
	for _, n := range names {
		if i, ok := t.Column(n); ok {
			return i, true
		}
	}
	return -1, false
}

func requireColumn(t model.RawTable, names []string) (int, error) {
	i, ok := column(t, names)
	if !ok {
		return -1, fmt.Errorf("%w: table %q has no %s column", ErrMissingColumn, t.Name(), names[0])
	}
	return i, nil
}

// parseInt accepts plain integers and integral floats such as "42.0", which
// is how spreadsheet exports write integer columns that contain blanks.
func parseInt(col, cell string) (int64, error) {
	s := strings.TrimSpace(cell)
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f != math.Trunc(f) || math.Abs(f) >= 1<<63 {
		return 0, fmt.Errorf("%w: %s %q is not an integer", ErrInvalidValue, col, cell)
	}
	return int64(f), nil
}

func parseFloat(col, cell string) (float64, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(cell), 64)
	if err != nil || math.IsNaN(f) {
		return 0, fmt.Errorf("%w: %s %q is not a number", ErrInvalidValue, col, cell)
	}
	return f, nil
}

// TypeVehicles converts the raw vehicle registry into a VehicleTable. A
// repeated vehicle id keeps its first row; the caller audits repeats. Null
// vehicle_type cells stay null.
func TypeVehicles(raw model.RawTable) (model.VehicleTable, error) {
	idCol, err := requireColumn(raw, colVehicleID)
	if err != nil {
		return model.VehicleTable{}, err
	}
	typeCol, err := requireColumn(raw, colVehicleType)
	if err != nil {
		return model.VehicleTable{}, err
	}

	vehicles := make([]model.Vehicle, 0, raw.Len())
	for r := 0; r < raw.Len(); r++ {
		id, err := parseInt("vehicle_id", raw.Cell(r, idCol))
		if err != nil {
			return model.VehicleTable{}, fmt.Errorf("table %q row %d: %w", raw.Name(), r, err)
		}
		v := model.Vehicle{ID: id}
		if !raw.IsNull(r, typeCol) {
			v.Type = model.Some(strings.TrimSpace(raw.Cell(r, typeCol)))
		}
		vehicles = append(vehicles, v)
	}
	return model.NewVehicleTable(vehicles), nil
}

// eventColumns holds resolved column indices; optional columns are -1 when absent.
type eventColumns struct {
	id, vehicleID, rideID, eventType, eventTime, battery, lat, lon, comment int
}

func resolveEventColumns(raw model.RawTable) (eventColumns, error) {
	var (
		cols eventColumns
		err  error
	)
	required := []struct {
		dst   *int
		names []string
	}{
		{&cols.vehicleID, colVehicleID},
		{&cols.eventType, colEventType},
		{&cols.eventTime, colEventTime},
		{&cols.battery, colBattery},
		{&cols.lat, colLatitude},
		{&cols.lon, colLongitude},
	}
	for _, c := range required {
		if *c.dst, err = requireColumn(raw, c.names); err != nil {
			return cols, err
		}
	}
	cols.id, _ = column(raw, colEventID)
	cols.rideID, _ = column(raw, colRideID)
	cols.comment, _ = column(raw, colComment)
	return cols, nil
}

// TypeEvents converts raw event rows. The table and errs are parallel to the
// raw rows: errs[i] is set when row i could not be typed, and that row holds
// whatever was typed before the failure. Tables without an event id column
// number their events from 1 in source order.
func TypeEvents(raw model.RawTable) (model.EventTable, []error, error) {
	cols, err := resolveEventColumns(raw)
	if err != nil {
		return model.EventTable{}, nil, err
	}

	events := make([]model.MobilityEvent, raw.Len())
	errs := make([]error, raw.Len())
	for r := range events {
		events[r], errs[r] = typeEvent(raw, cols, r)
	}
	return model.NewEventTable(events), errs, nil
}

func typeEvent(raw model.RawTable, cols eventColumns, r int) (model.MobilityEvent, error) {
	e := model.MobilityEvent{
		Row:       r,
		ID:        int64(r) + 1,
		Type:      model.EventType(strings.TrimSpace(raw.Cell(r, cols.eventType))),
		Timestamp: strings.TrimSpace(raw.Cell(r, cols.eventTime)),
	}

	var err error
	if cols.id >= 0 {
		if e.ID, err = parseInt("event_id", raw.Cell(r, cols.id)); err != nil {
			return e, err
		}
	}
	if e.VehicleID, err = parseInt("vehicle_id", raw.Cell(r, cols.vehicleID)); err != nil {
		return e, err
	}
	if cols.rideID >= 0 && !raw.IsNull(r, cols.rideID) {
		id, err := parseInt("ride_id", raw.Cell(r, cols.rideID))
		if err != nil {
			return e, err
		}
		e.RideID = model.Some(id)
	}
	battery, err := parseInt("battery_pct", raw.Cell(r, cols.battery))
	if err != nil {
		return e, err
	}
	if battery < math.MinInt32 || battery > math.MaxInt32 {
		return e, fmt.Errorf("%w: battery_pct %d out of range", ErrInvalidValue, battery)
	}
	e.BatteryPct = int(battery)
	if e.Latitude, err = parseFloat("latitude", raw.Cell(r, cols.lat)); err != nil {
		return e, err
	}
	if e.Longitude, err = parseFloat("longitude", raw.Cell(r, cols.lon)); err != nil {
		return e, err
	}
	if cols.comment >= 0 && !raw.IsNull(r, cols.comment) {
		e.Comment = model.Some(raw.Cell(r, cols.comment))
	}
	return e, nil
}
