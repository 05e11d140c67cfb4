package main

import (
	"context"
	"flag"
	"os"
	"time"
	"unicode/utf8"

	"github.com/okian/fleetpulse/internal/fleetgen"
	"github.com/okian/fleetpulse/pkg/logger"
)

// Default configuration constants.
const (
	defaultTimeout = 10 * time.Minute
	dateLayout     = "2006-01-02"
)

func main() {
	os.Exit(run())
}

func run() int {
	defaults := fleetgen.DefaultConfig()
	var (
		outDir    = flag.String("out", defaults.OutputDir, "Output directory")
		vehicles  = flag.Int("vehicles", defaults.Vehicles, "Number of registered vehicles")
		days      = flag.Int("days", defaults.Days, "Number of days covered")
		rides     = flag.Int("rides", defaults.RidesPerDay, "Reservations per day")
		start     = flag.String("start", defaults.Start.Format(dateLayout), "First day, YYYY-MM-DD")
		seed      = flag.Uint64("seed", defaults.Seed, "Seed for deterministic output")
		delimiter = flag.String("delimiter", string(defaults.Delimiter), "Field delimiter")
		help      = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		fleetgen.ShowHelp()
		return 0
	}

	if err := logger.Init(); err != nil {
		_, _ = os.Stderr.WriteString("Failed to setup logging: " + err.Error() + "\n")
		return 1
	}

	first, err := time.Parse(dateLayout, *start)
	if err != nil {
		_, _ = os.Stderr.WriteString("Invalid -start: " + err.Error() + "\n")
		return 2
	}
	if utf8.RuneCountInString(*delimiter) != 1 {
		_, _ = os.Stderr.WriteString("Invalid -delimiter: must be a single character\n")
		return 2
	}
	delim, _ := utf8.DecodeRuneInString(*delimiter)

	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	cfg := defaults
	cfg.OutputDir = *outDir
	cfg.Vehicles = *vehicles
	cfg.Days = *days
	cfg.RidesPerDay = *rides
	cfg.Start = first
	cfg.Seed = *seed
	cfg.Delimiter = delim

	if _, err := fleetgen.Run(ctx, cfg); err != nil {
		_, _ = os.Stderr.WriteString("Generation failed: " + err.Error() + "\n")
		return 1
	}
	return 0
}
