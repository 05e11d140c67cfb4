package kpi

import (
	"cmp"
	"maps"
	"slices"

	"gonum.org/v1/gonum/floats"

	"github.com/okian/fleetpulse/internal/domain/model"
)

// RidePair is one ride_start matched with a ride_end of the same ride.
type RidePair struct {
	RideID      int64
	VehicleType model.Optional[string]
	Start       int // battery_pct at ride_start
	End         int // battery_pct at ride_end
}

// Used is the battery consumed during the ride. Negative values mean the
// vehicle was charged.
func (p RidePair) Used() int { return p.Start - p.End }

// RidePairs inner-joins ride_start and ride_end rows on ride_id. A ride with
// several starts or ends yields every combination. Pairs are ordered by ride
// id, then by source row.
func RidePairs(t model.EnrichedTable) []RidePair {
	starts := make(map[int64][]model.EnrichedEvent)
	ends := make(map[int64][]model.EnrichedEvent)
	t.Each(func(_ int, e *model.EnrichedEvent) {
		id, ok := e.RideID.Get()
		if !ok {
			return
		}
		switch e.Type {
		case model.RideStart:
			starts[id] = append(starts[id], *e)
		case model.RideEnd:
			ends[id] = append(ends[id], *e)
		}
	})

	byRow := func(a, b model.EnrichedEvent) int { return cmp.Compare(a.Row, b.Row) }
	var pairs []RidePair
	for _, id := range slices.Sorted(maps.Keys(starts)) {
		ee := ends[id]
		if len(ee) == 0 {
			continue
		}
		ss := starts[id]
		slices.SortFunc(ss, byRow)
		slices.SortFunc(ee, byRow)
		for _, s := range ss {
			for _, e := range ee {
				pairs = append(pairs, RidePair{RideID: id, VehicleType: s.VehicleType, Start: s.BatteryPct, End: e.BatteryPct})
			}
		}
	}
	return pairs
}

// Consumption summarizes battery used per ride.
type Consumption struct {
	Summary       Summary           `json:"summary"`
	Negative      int               `json:"negative"`
	ByVehicleType []TypeConsumption `json:"by_vehicle_type,omitempty"`
}

// TypeConsumption is Consumption restricted to one vehicle type.
type TypeConsumption struct {
	VehicleType string  `json:"vehicle_type"`
	Summary     Summary `json:"summary"`
}

// RideConsumption computes the consumption summary with the 95th percentile.
func RideConsumption(t model.EnrichedTable) Consumption {
	pairs := RidePairs(t)
	used := make([]float64, len(pairs))
	byType := make(map[string][]float64)

	var c Consumption
	for i, p := range pairs {
		used[i] = float64(p.Used())
		if p.Used() < 0 {
			c.Negative++
		}
		if vt, ok := p.VehicleType.Get(); ok {
			byType[vt] = append(byType[vt], used[i])
		}
	}
	c.Summary = Summarize(used, ConsumptionQuantile)
	for _, vt := range slices.Sorted(maps.Keys(byType)) {
		c.ByVehicleType = append(c.ByVehicleType, TypeConsumption{
			VehicleType: vt,
			Summary:     Summarize(byType[vt], ConsumptionQuantile),
		})
	}
	return c
}

// Area is a latitude/longitude bounding box.
type Area struct {
	MinLatitude  float64 `json:"min_latitude"`
	MaxLatitude  float64 `json:"max_latitude"`
	MinLongitude float64 `json:"min_longitude"`
	MaxLongitude float64 `json:"max_longitude"`
}

// CriticalBatteries lists ride ends whose charge is at or below the mean
// consumption of a ride, so the next ride may not finish. Warning events are
// above that but at or below the 95th percentile.
type CriticalBatteries struct {
	Threshold        float64 `json:"threshold"`
	Events           int     `json:"events"`
	Area             *Area   `json:"area,omitempty"`
	WarningThreshold float64 `json:"warning_threshold"`
	WarningEvents    int     `json:"warning_events"`
}

// Critical finds critical and warning ride ends against c.
func Critical(t model.EnrichedTable, c Consumption) CriticalBatteries {
	out := CriticalBatteries{
		Threshold:        c.Summary.Mean,
		WarningThreshold: c.Summary.Quantile,
	}
	if c.Summary.Count == 0 {
		return out
	}

	var lats, lons []float64
	t.Each(func(_ int, e *model.EnrichedEvent) {
		if e.Type != model.RideEnd {
			return
		}
		pct := float64(e.BatteryPct)
		switch {
		case pct <= out.Threshold:
			out.Events++
			lats = append(lats, e.Latitude)
			lons = append(lons, e.Longitude)
		case pct <= out.WarningThreshold:
			out.WarningEvents++
		}
	})
	if len(lats) > 0 {
		out.Area = &Area{
			MinLatitude:  floats.Min(lats),
			MaxLatitude:  floats.Max(lats),
			MinLongitude: floats.Min(lons),
			MaxLongitude: floats.Max(lons),
		}
	}
	return out
}
