// Package model contains domain models passed between layers.
package model

import (
	"fmt"
	"time"

	"github.com/okian/fleetpulse/internal/domain/nested"
)

// EventType enumerates mobility event kinds. Values outside the known set are
// carried through verbatim.
type EventType string

// Known event types.
const (
	ReservationCreation    EventType = "reservation_creation"
	ReservationCancelation EventType = "reservation_cancelation"
	RideStart              EventType = "ride_start"
	RideEnd                EventType = "ride_end"
	MaintenanceStart       EventType = "maintenance_start"
	MaintenanceEnd         EventType = "maintenance_end"
)

// Known reports whether t is one of the declared event types.
func (t EventType) Known() bool {
	switch t {
	case ReservationCreation, ReservationCancelation, RideStart, RideEnd, MaintenanceStart, MaintenanceEnd:
		return true
	}
	return false
}

// Optional holds a value that may be missing in the source data.
type Optional[T any] struct {
	Value T
	Valid bool
}

// Some wraps a present value.
func Some[T any](v T) Optional[T] { return Optional[T]{Value: v, Valid: true} }

// None returns a missing value.
func None[T any]() Optional[T] { return Optional[T]{} }

// Get returns the value and whether it is present.
func (o Optional[T]) Get() (T, bool) { return o.Value, o.Valid }

// Vehicle is a row of the vehicle registry.
type Vehicle struct {
	ID   int64
	Type Optional[string] // null when the registry cell is empty or a null token
}

// MobilityEvent is a typed row of the event table, before enrichment.
type MobilityEvent struct {
	Row        int // 0-based index in the source table
	ID         int64
	VehicleID  int64
	RideID     Optional[int64] // absent for maintenance events
	Type       EventType
	Timestamp  string // raw event_time cell
	BatteryPct int
	Latitude   float64
	Longitude  float64
	Comment    Optional[string] // raw JSON-like text
}

// EnrichedEvent is a mobility event with derived columns.
type EnrichedEvent struct {
	MobilityEvent

	Time    time.Time
	Year    int
	Month   int
	Day     int
	Hour    int
	Weekday int // Monday = 0 ... Sunday = 6

	VehicleType Optional[string] // null when the vehicle id is unknown

	CommentTree    nested.Mapping
	DrivenDistance nested.Result
}

// ISOWeekday converts a time.Weekday to Monday = 0 ... Sunday = 6.
func ISOWeekday(d time.Weekday) int {
	return (int(d) + 6) % 7
}

// DayKey identifies a calendar day.
type DayKey struct {
	Year  int
	Month int
	Day   int
}

// Date returns the calendar day of the event.
func (e *EnrichedEvent) Date() DayKey {
	return DayKey{Year: e.Year, Month: e.Month, Day: e.Day}
}

// String formats the day as YYYY-MM-DD.
func (d DayKey) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, d.Month, d.Day)
}

// Less orders days chronologically.
func (d DayKey) Less(o DayKey) bool {
	if d.Year != o.Year {
		return d.Year < o.Year
	}
	if d.Month != o.Month {
		return d.Month < o.Month
	}
	return d.Day < o.Day
}
