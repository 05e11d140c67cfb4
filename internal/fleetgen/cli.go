package fleetgen

import "os"

// ShowHelp prints usage information for the dataset generator.
func ShowHelp() {
	_, _ = os.Stdout.WriteString(`Fleet Dataset Generator
=======================

Writes a synthetic vehicle registry and mobility event table for the
fleetpulse pipeline.

Usage:
  go run ./cmd/fleet-gen [options]

Options:
  -out string
        Output directory (default "data")
  -vehicles int
        Number of registered vehicles (default 200)
  -days int
        Number of days covered (default 14)
  -rides int
        Reservations per day (default 500)
  -start string
        First day, YYYY-MM-DD (default "2019-04-01")
  -seed uint
        Seed for deterministic output (default 1)
  -delimiter string
        Field delimiter (default ",")
  -help
        Show this help message

Examples:
  # Default dataset in ./data
  go run ./cmd/fleet-gen

  # A month of heavier traffic, semicolon separated
  go run ./cmd/fleet-gen -days 30 -rides 5000 -delimiter ";"
`)
}
