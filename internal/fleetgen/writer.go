package fleetgen

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/okian/fleetpulse/internal/domain/model"
)

// TimeLayout is the event_time format of generated tables.
const TimeLayout = "2006-01-02 15:04:05"

// Table headers as written.
//
//nolint:gochecknoglobals // read-only
var (
	VehicleHeader = []string{"vehicle_id", "vehicle_type"}
	EventHeader   = []string{"event_id", "vehicle_id", "ride_id", "event", "event_time", "battery_pct", "latitude", "longitude", "comment"}
)

// WriteVehicles writes the registry as a delimited table.
func WriteVehicles(w io.Writer, vehicles []model.Vehicle, delimiter rune) error {
	cw := newWriter(w, delimiter)
	if err := cw.Write(VehicleHeader); err != nil {
		return fmt.Errorf("write vehicle header: %w", err)
	}
	for _, v := range vehicles {
		if err := cw.Write([]string{strconv.FormatInt(v.ID, 10), v.Type.Value}); err != nil {
			return fmt.Errorf("write vehicle %d: %w", v.ID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteEvents writes events as a delimited table. Missing ride ids and
// comments are written as empty cells.
func WriteEvents(w io.Writer, events []model.MobilityEvent, delimiter rune) error {
	cw := newWriter(w, delimiter)
	if err := cw.Write(EventHeader); err != nil {
		return fmt.Errorf("write event header: %w", err)
	}
	record := make([]string, len(EventHeader))
	for _, e := range events {
		record[0] = strconv.FormatInt(e.ID, 10)
		record[1] = strconv.FormatInt(e.VehicleID, 10)
		record[2] = ""
		if id, ok := e.RideID.Get(); ok {
			record[2] = strconv.FormatInt(id, 10)
		}
		record[3] = string(e.Type)
		record[4] = e.Timestamp
		record[5] = strconv.Itoa(e.BatteryPct)
		record[6] = strconv.FormatFloat(e.Latitude, 'f', 6, 64)
		record[7] = strconv.FormatFloat(e.Longitude, 'f', 6, 64)
		record[8], _ = e.Comment.Get()
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write event %d: %w", e.ID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func newWriter(w io.Writer, delimiter rune) *csv.Writer {
	cw := csv.NewWriter(w)
	if delimiter != 0 {
		cw.Comma = delimiter
	}
	return cw
}
