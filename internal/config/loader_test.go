package config_test

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/okian/fleetpulse/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()

		convey.Convey("When loading config with defaults only", func() {
			clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load successfully with defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.VehiclesPath, convey.ShouldEqual, "data/cars.csv")
				convey.So(cfg.EventsPath, convey.ShouldEqual, "data/mobility_event_data.csv")
				convey.So(cfg.ErrorPolicy, convey.ShouldEqual, config.PolicyAbort)
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			_ = os.Setenv("FLEETPULSE_WORKER_COUNT", "16")
			_ = os.Setenv("FLEETPULSE_ERROR_POLICY", "skip")
			_ = os.Setenv("FLEETPULSE_BATTERY_MAX", "99")
			_ = os.Setenv("FLEETPULSE_EVENTS_PATH", "/tmp/events.csv")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should override defaults with env vars", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.WorkerCount, convey.ShouldEqual, 16)
				convey.So(cfg.ErrorPolicy, convey.ShouldEqual, config.PolicySkip)
				convey.So(cfg.BatteryMax, convey.ShouldEqual, 99)
				convey.So(cfg.EventsPath, convey.ShouldEqual, "/tmp/events.csv")
			})
		})

		convey.Convey("When loading config with YAML file", func() {
			yamlContent := `
# fleet inputs
vehicles_path: "/data/vehicles.csv"
events_path: "/data/events.csv"
delimiter: ";"
worker_count: 24
distance_key: "odometer_delta"
time_layouts:
  - "2006-01-02 15:04:05"
  - "02.01.2006 15:04"
`
			tmpFile := createTempConfigFile(yamlContent)
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("FLEETPULSE_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load from YAML file", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.VehiclesPath, convey.ShouldEqual, "/data/vehicles.csv")
				convey.So(cfg.Delimiter, convey.ShouldEqual, ";")
				convey.So(cfg.WorkerCount, convey.ShouldEqual, 24)
				convey.So(cfg.DistanceKey, convey.ShouldEqual, "odometer_delta")
				convey.So(cfg.TimeLayouts, convey.ShouldResemble, []string{"2006-01-02 15:04:05", "02.01.2006 15:04"})
				convey.So(cfg.BatteryMax, convey.ShouldEqual, 100) // From defaults
			})
		})

		convey.Convey("When loading config with both file and environment variables", func() {
			yamlContent := `
worker_count: 24
error_policy: abort
`
			tmpFile := createTempConfigFile(yamlContent)
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("FLEETPULSE_CONFIG", tmpFile)
			_ = os.Setenv("FLEETPULSE_WORKER_COUNT", "32")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then environment variables should override file values", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.WorkerCount, convey.ShouldEqual, 32)                 // Overridden by env
				convey.So(cfg.ErrorPolicy, convey.ShouldEqual, config.PolicyAbort) // From file
			})
		})

		convey.Convey("When loading config with invalid YAML file", func() {
			tmpFile := createTempConfigFile(`invalid: yaml: content: [`)
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("FLEETPULSE_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a load error", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with non-existent file", func() {
			_ = os.Setenv("FLEETPULSE_CONFIG", "/non/existent/file.yaml")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return an error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with an invalid policy", func() {
			_ = os.Setenv("FLEETPULSE_ERROR_POLICY", "ignore")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a validation error", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(err.Error(), convey.ShouldContainSubstring, "error_policy")
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with invalid numeric environment variables", func() {
			_ = os.Setenv("FLEETPULSE_WORKER_COUNT", "not_a_number")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return an error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When the context is already cancelled", func() {
			cancelled, cancel := context.WithCancel(ctx)
			cancel()

			cfg, err := config.Load(cancelled)

			convey.Convey("Then it should return the context error", func() {
				convey.So(errors.Is(err, context.Canceled), convey.ShouldBeTrue)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})
	})
}

// Helper functions.

func clearConfigEnvVars() {
	envVars := []string{
		"FLEETPULSE_CONFIG",
		"FLEETPULSE_WORKER_COUNT",
		"FLEETPULSE_ERROR_POLICY",
		"FLEETPULSE_BATTERY_MAX",
		"FLEETPULSE_EVENTS_PATH",
	}
	for _, envVar := range envVars {
		_ = os.Unsetenv(envVar)
	}
}

func createTempConfigFile(content string) string {
	tmpFile, err := os.CreateTemp("", "fleetpulse-config-*.yaml")
	if err != nil {
		panic(err)
	}

	if _, err := tmpFile.WriteString(content); err != nil {
		panic(err)
	}

	if err := tmpFile.Close(); err != nil {
		panic(err)
	}

	return tmpFile.Name()
}
