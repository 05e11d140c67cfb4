package fleetgen

import "time"

// Config holds configuration for the dataset generator.
type Config struct {
	Vehicles    int       // Number of registered vehicles
	Days        int       // Number of days covered
	RidesPerDay int       // Reservations created per day
	Start       time.Time // First day, truncated to midnight UTC
	Seed        uint64    // Seed for deterministic output

	CancelRate     float64 // Share of reservations that are canceled
	SentinelRate   float64 // Share of events reporting battery_pct 255
	UnknownRate    float64 // Share of reservations on unregistered vehicles
	MaintenanceDay int     // Maintenance windows per day
	ChargeRate     float64 // Share of rides that end with more charge

	Delimiter rune   // Field delimiter of the written tables
	OutputDir string // Directory receiving both tables
}

// DefaultConfig returns a small but complete dataset configuration.
func DefaultConfig() *Config {
	return &Config{
		Vehicles:       200,
		Days:           14,
		RidesPerDay:    500,
		Start:          time.Date(2019, time.April, 1, 0, 0, 0, 0, time.UTC),
		Seed:           1,
		CancelRate:     0.15,
		SentinelRate:   0.002,
		UnknownRate:    0.01,
		MaintenanceDay: 5,
		ChargeRate:     0.02,
		Delimiter:      ',',
		OutputDir:      "data",
	}
}

// Stats holds generation statistics.
type Stats struct {
	VehiclesWritten int
	EventsWritten   int
	Rides           int
	Cancelations    int
	Sentinels       int
	UnknownVehicles int
	StartTime       time.Time
	EndTime         time.Time
	Duration        time.Duration
}
