// Package fleetgen produces synthetic vehicle and mobility event tables with
// the quirks found in real exports: battery_pct sentinels of 255, events on
// unregistered vehicles, missing ride ids on maintenance, nested comments and
// rides that end with more charge than they started.
package fleetgen

import (
	"cmp"
	"encoding/binary"
	"fmt"
	"math/rand/v2"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/okian/fleetpulse/internal/domain/model"
	"github.com/okian/fleetpulse/internal/domain/nested"
)

// Generated value ranges.
const (
	sentinelBattery = 255
	unknownIDOffset = 100000

	minLatitude  = 52.45
	latRange     = 0.10
	minLongitude = 13.30
	lonRange     = 0.20

	minStartBattery   = 20
	startBatteryRange = 81
	maxUsed           = 25
	maxCharged        = 3

	reserveLead    = 3 * time.Minute
	cancelAfter    = 2 * time.Minute
	minRide        = 5 * time.Minute
	rideRangeMins  = 35
	maintenanceDur = 45 * time.Minute
	metersPerMin   = 250
	secondsPerDay  = 24 * 60 * 60
)

// VehicleTypes are the generated vehicle kinds.
var VehicleTypes = []string{"scooter", "moped"} //nolint:gochecknoglobals // read-only

// Dataset is a generated pair of tables.
type Dataset struct {
	Vehicles []model.Vehicle
	Events   []model.MobilityEvent
	Stats    Stats
}

type generator struct {
	cfg  *Config
	rng  *rand.Rand
	src  *rand.ChaCha8
	seq  int64
	ride int64
	out  []timedEvent
	st   Stats
}

type timedEvent struct {
	at time.Time
	e  model.MobilityEvent
}

// Generate builds a dataset. The same Config always yields the same dataset.
func Generate(cfg *Config) (*Dataset, error) {
	if cfg.Vehicles < 1 || cfg.Days < 1 || cfg.RidesPerDay < 0 {
		return nil, fmt.Errorf("fleetgen: vehicles and days must be positive, got %d and %d", cfg.Vehicles, cfg.Days)
	}

	var seed [32]byte
	binary.LittleEndian.PutUint64(seed[:], cfg.Seed)
	src := rand.NewChaCha8(seed)
	g := &generator{cfg: cfg, rng: rand.New(src), src: src}

	vehicles := make([]model.Vehicle, cfg.Vehicles)
	for i := range vehicles {
		vehicles[i] = model.Vehicle{ID: int64(i + 1), Type: model.Some(VehicleTypes[g.rng.IntN(len(VehicleTypes))])}
	}

	start := cfg.Start.UTC().Truncate(24 * time.Hour)
	for d := 0; d < cfg.Days; d++ {
		day := start.AddDate(0, 0, d)
		for r := 0; r < cfg.RidesPerDay; r++ {
			g.reservation(day)
		}
		for m := 0; m < cfg.MaintenanceDay; m++ {
			g.maintenance(day)
		}
	}

	slices.SortStableFunc(g.out, func(a, b timedEvent) int { return a.at.Compare(b.at) })
	events := make([]model.MobilityEvent, len(g.out))
	for i, te := range g.out {
		te.e.ID = int64(i + 1)
		te.e.Row = i
		events[i] = te.e
	}

	g.st.VehiclesWritten = len(vehicles)
	g.st.EventsWritten = len(events)
	return &Dataset{Vehicles: vehicles, Events: events, Stats: g.st}, nil
}

func (g *generator) vehicle() int64 {
	if g.rng.Float64() < g.cfg.UnknownRate {
		g.st.UnknownVehicles++
		return unknownIDOffset + int64(g.rng.IntN(g.cfg.Vehicles))
	}
	return int64(g.rng.IntN(g.cfg.Vehicles)) + 1
}

func (g *generator) battery(pct int) int {
	if g.rng.Float64() < g.cfg.SentinelRate {
		g.st.Sentinels++
		return sentinelBattery
	}
	return pct
}

func (g *generator) emit(at time.Time, e model.MobilityEvent) {
	e.Timestamp = at.Format(TimeLayout)
	g.out = append(g.out, timedEvent{at: at, e: e})
}

func (g *generator) reservation(day time.Time) {
	g.ride++
	ride := model.Some(g.ride)
	vehicle := g.vehicle()
	at := day.Add(time.Duration(g.rng.IntN(secondsPerDay)) * time.Second)
	lat := minLatitude + g.rng.Float64()*latRange
	lon := minLongitude + g.rng.Float64()*lonRange
	startPct := minStartBattery + g.rng.IntN(startBatteryRange)

	base := model.MobilityEvent{VehicleID: vehicle, RideID: ride, Latitude: lat, Longitude: lon}

	created := base
	created.Type = model.ReservationCreation
	created.BatteryPct = g.battery(startPct)
	g.emit(at, created)

	if g.rng.Float64() < g.cfg.CancelRate {
		g.st.Cancelations++
		canceled := base
		canceled.Type = model.ReservationCancelation
		canceled.BatteryPct = g.battery(startPct)
		g.emit(at.Add(cancelAfter), canceled)
		return
	}

	g.st.Rides++
	started := base
	started.Type = model.RideStart
	started.BatteryPct = g.battery(startPct)
	startAt := at.Add(reserveLead)
	g.emit(startAt, started)

	took := minRide + time.Duration(g.rng.IntN(rideRangeMins))*time.Minute
	used := 1 + g.rng.IntN(maxUsed)
	if g.rng.Float64() < g.cfg.ChargeRate {
		used = -1 - g.rng.IntN(maxCharged)
	}
	ended := base
	ended.Type = model.RideEnd
	ended.BatteryPct = g.battery(clamp(startPct-used, 0, 100))
	ended.Latitude = minLatitude + g.rng.Float64()*latRange
	ended.Longitude = minLongitude + g.rng.Float64()*lonRange
	ended.Comment = model.Some(g.rideComment(int(took.Minutes()) * metersPerMin))
	g.emit(startAt.Add(took), ended)
}

// rideComment alternates between a flat and a nested layout of the distance.
func (g *generator) rideComment(meters int) string {
	booking, err := uuid.NewRandomFromReader(g.src)
	if err != nil {
		booking = uuid.Nil
	}
	distance := nested.Entry{Key: "driven_distance", Value: nested.Int(int64(meters))}
	bookingID := nested.Entry{Key: "booking", Value: nested.String(booking.String())}
	if g.ride%2 == 0 {
		return nested.Encode(nested.NewMapping(distance, bookingID))
	}
	counters := nested.NewMapping(
		distance,
		nested.Entry{Key: "pizzas_delivered", Value: nested.Int(int64(g.rng.IntN(4)))},
	)
	return nested.Encode(nested.NewMapping(
		nested.Entry{Key: "maintenance", Value: nested.Map(nested.NewMapping())},
		nested.Entry{Key: "weather", Value: nested.String("okayish")},
		nested.Entry{Key: "metrics", Value: counters.Value()},
		bookingID,
	))
}

func (g *generator) maintenance(day time.Time) {
	vehicle := int64(g.rng.IntN(g.cfg.Vehicles)) + 1
	at := day.Add(time.Duration(g.rng.IntN(secondsPerDay)) * time.Second)
	pct := g.rng.IntN(21)
	base := model.MobilityEvent{
		VehicleID: vehicle,
		Latitude:  minLatitude + g.rng.Float64()*latRange,
		Longitude: minLongitude + g.rng.Float64()*lonRange,
	}

	start := base
	start.Type = model.MaintenanceStart
	start.BatteryPct = g.battery(pct)
	start.Comment = model.Some(`{"reason": "battery swap"}`)
	g.emit(at, start)

	end := base
	end.Type = model.MaintenanceEnd
	end.BatteryPct = g.battery(100)
	g.emit(at.Add(maintenanceDur), end)
}

func clamp[T cmp.Ordered](v, lo, hi T) T {
	return max(lo, min(v, hi))
}
