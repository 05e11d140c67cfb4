package config_test

import (
	"errors"
	"runtime"
	"testing"

	"github.com/okian/fleetpulse/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with default options", t, func() {
		cfg := config.New()

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.LogLevel, convey.ShouldEqual, "info")
			convey.So(cfg.Delimiter, convey.ShouldEqual, ",")
			convey.So(cfg.WorkerCount, convey.ShouldEqual, runtime.NumCPU())
			convey.So(cfg.ErrorPolicy, convey.ShouldEqual, config.PolicyAbort)
			convey.So(cfg.DistanceKey, convey.ShouldEqual, "driven_distance")
			convey.So(cfg.BatteryMin, convey.ShouldEqual, 0)
			convey.So(cfg.BatteryMax, convey.ShouldEqual, 100)
			convey.So(cfg.Validate(), convey.ShouldBeNil)
			convey.So(cfg.DelimiterRune(), convey.ShouldEqual, ',')
		})
	})
}

func TestConfig_Validate(t *testing.T) {
	convey.Convey("Given configs that break one constraint each", t, func() {
		cases := map[string]func(c *config.Config){
			"empty events path":  func(c *config.Config) { c.EventsPath = "" },
			"long delimiter":     func(c *config.Config) { c.Delimiter = ";;" },
			"no workers":         func(c *config.Config) { c.WorkerCount = 0 },
			"unknown policy":     func(c *config.Config) { c.ErrorPolicy = "retry" },
			"empty distance key": func(c *config.Config) { c.DistanceKey = "" },
			"inverted battery":   func(c *config.Config) { c.BatteryMin, c.BatteryMax = 50, 10 },
		}

		for name, mutate := range cases {
			cfg := config.New()
			mutate(cfg)
			err := cfg.Validate()

			convey.So(err, convey.ShouldNotBeNil)
			convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			convey.Printf("%s rejected\n", name)
		}
	})

	convey.Convey("Given a tab delimiter and skip policy", t, func() {
		cfg := config.New()
		cfg.Delimiter = "\t"
		cfg.ErrorPolicy = "SKIP"

		convey.So(cfg.Validate(), convey.ShouldBeNil)
		convey.So(cfg.DelimiterRune(), convey.ShouldEqual, '\t')
	})
}
