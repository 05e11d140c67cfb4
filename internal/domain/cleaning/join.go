package cleaning

import (
	"cmp"
	"slices"

	"github.com/okian/fleetpulse/internal/domain/model"
)

// UnmatchedVehicleType labels rows with a null vehicle type in per-type
// diagnostics: unknown vehicle ids and registry rows without a type.
const UnmatchedVehicleType = "unmatched"

// Join left-joins rows onto the registry by vehicle id. Every row is kept;
// rows with an unknown vehicle id get a null VehicleType, as do rows whose
// registry entry has no type. Only unknown ids count as unmatched.
func Join(rows []model.EnrichedEvent, vehicles model.VehicleTable) (joined []model.EnrichedEvent, unmatched int) {
	joined = make([]model.EnrichedEvent, len(rows))
	for i, e := range rows {
		if v, ok := vehicles.Lookup(e.VehicleID); ok {
			e.VehicleType = v.Type
		} else {
			e.VehicleType = model.None[string]()
			unmatched++
		}
		joined[i] = e
	}
	return joined, unmatched
}

// DroppedGroup counts rows removed by the battery filter for one vehicle type
// and battery value.
type DroppedGroup struct {
	VehicleType string `json:"vehicle_type"`
	BatteryPct  int    `json:"battery_pct"`
	Rows        int    `json:"rows"`
}

// FilterBattery keeps rows whose battery_pct lies in [minPct, maxPct] and
// groups the dropped ones by vehicle type and value.
func FilterBattery(rows []model.EnrichedEvent, minPct, maxPct int) (kept []model.EnrichedEvent, dropped []DroppedGroup) {
	type key struct {
		vehicleType string
		battery     int
	}
	groups := make(map[key]int)

	kept = make([]model.EnrichedEvent, 0, len(rows))
	for _, e := range rows {
		if e.BatteryPct >= minPct && e.BatteryPct <= maxPct {
			kept = append(kept, e)
			continue
		}
		vt, ok := e.VehicleType.Get()
		if !ok {
			vt = UnmatchedVehicleType
		}
		groups[key{vt, e.BatteryPct}]++
	}

	for k, n := range groups {
		dropped = append(dropped, DroppedGroup{VehicleType: k.vehicleType, BatteryPct: k.battery, Rows: n})
	}
	slices.SortFunc(dropped, func(a, b DroppedGroup) int {
		if c := cmp.Compare(a.VehicleType, b.VehicleType); c != 0 {
			return c
		}
		return cmp.Compare(a.BatteryPct, b.BatteryPct)
	})
	return kept, dropped
}
