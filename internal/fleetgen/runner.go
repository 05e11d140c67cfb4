package fleetgen

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/okian/fleetpulse/pkg/logger"
)

// Output file names inside Config.OutputDir.
const (
	VehiclesFile = "cars.csv"
	EventsFile   = "mobility_event_data.csv"

	dirPermission  = 0o755
	filePermission = 0o644
)

// Run generates a dataset and writes both tables into cfg.OutputDir.
func Run(ctx context.Context, cfg *Config) (*Stats, error) {
	log := logger.Get().Named("fleetgen")
	started := time.Now()

	log.Info(ctx, "generating dataset",
		logger.Int("vehicles", cfg.Vehicles),
		logger.Int("days", cfg.Days),
		logger.Int("ridesPerDay", cfg.RidesPerDay),
		logger.Int64("seed", int64(cfg.Seed)), //nolint:gosec // seeds are small
	)

	ds, err := Generate(cfg)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context cancelled after generation: %w", err)
	}

	if err := os.MkdirAll(cfg.OutputDir, dirPermission); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	vehiclesPath := filepath.Join(cfg.OutputDir, VehiclesFile)
	if err := writeFile(vehiclesPath, func(f *os.File) error {
		return WriteVehicles(f, ds.Vehicles, cfg.Delimiter)
	}); err != nil {
		return nil, err
	}
	eventsPath := filepath.Join(cfg.OutputDir, EventsFile)
	if err := writeFile(eventsPath, func(f *os.File) error {
		return WriteEvents(f, ds.Events, cfg.Delimiter)
	}); err != nil {
		return nil, err
	}

	st := ds.Stats
	st.StartTime = started
	st.EndTime = time.Now()
	st.Duration = st.EndTime.Sub(started)

	log.Info(ctx, "dataset written",
		logger.String("vehicles", vehiclesPath),
		logger.String("events", eventsPath),
		logger.Int("eventRows", st.EventsWritten),
		logger.Int("rides", st.Rides),
		logger.Int("cancelations", st.Cancelations),
		logger.Int("sentinels", st.Sentinels),
		logger.Int("unknownVehicles", st.UnknownVehicles),
		logger.Duration("took", st.Duration),
	)
	return &st, nil
}

func writeFile(path string, write func(*os.File) error) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, filePermission)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := write(f); err != nil {
		_ = f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	return nil
}
