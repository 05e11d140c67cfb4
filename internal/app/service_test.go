package service_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	service "github.com/okian/fleetpulse/internal/app"
	"github.com/okian/fleetpulse/internal/domain/cleaning"
	"github.com/okian/fleetpulse/internal/domain/nested"
	"github.com/okian/fleetpulse/pkg/logger"
)

func init() {
	// Initialize logging for tests
	err := logger.Init()
	if err != nil {
		panic(err)
	}
}

const vehiclesCSV = `vehicle_id,vehicle_type
1,scooter
2,moped
`

const eventsCSV = `event_id,vehicle_id,ride_id,event,event_time,battery_pct,latitude,longitude,comment
1,1,10,reservation_creation,2019-04-01 08:00:00,90,52.50,13.40,
2,1,10,ride_start,2019-04-01 08:03:00,90,52.50,13.40,
3,1,10,ride_end,2019-04-01 08:20:00,75,52.51,13.41,"{""metrics"": {""driven_distance"": 4250}}"
4,2,11,reservation_creation,2019-04-01 09:00:00,255,52.50,13.40,
5,7,12,reservation_creation,2019-04-02 10:00:00,60,52.52,13.42,
6,7,12,reservation_cancelation,2019-04-02 10:02:00,60,52.52,13.42,
`

func TestService_New(t *testing.T) {
	Convey("Given a new service with default options", t, func() {
		svc := service.New()

		Convey("Then it should have sensible defaults", func() {
			So(svc, ShouldNotBeNil)
			stats := svc.GetStats()
			So(stats["policy"], ShouldEqual, "abort")
			So(stats["runs"], ShouldEqual, 0)
		})
	})

	Convey("Given a new service with custom options", t, func() {
		svc := service.New(
			service.WithWorkerCount(8),
			service.WithErrorPolicy(cleaning.PolicySkip),
			service.WithDistanceKey("km"),
			service.WithBatteryRange(5, 95),
			service.WithDelimiter(';'),
			service.WithTimeLayouts("2006-01-02"),
		)

		Convey("Then it should be created successfully", func() {
			So(svc, ShouldNotBeNil)
			So(svc.GetStats()["workerCount"], ShouldEqual, 8)
			So(svc.GetStats()["policy"], ShouldEqual, "skip")
		})
	})
}

func TestService_Run(t *testing.T) {
	Convey("Given a service", t, func() {
		svc := service.New(service.WithWorkerCount(2))
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		Convey("When running on small tables", func() {
			res, err := svc.Run(ctx, strings.NewReader(vehiclesCSV), strings.NewReader(eventsCSV))

			Convey("Then it should produce the enriched table", func() {
				So(err, ShouldBeNil)
				So(res.RunID, ShouldNotBeEmpty)
				So(res.Table.Len(), ShouldEqual, 5)
				So(res.Cleaning.BatteryDroppedRows(), ShouldEqual, 1)
				So(res.Cleaning.UnmatchedEvents, ShouldEqual, 2)
			})

			Convey("And the nested distance is extracted", func() {
				var found []float64
				for _, e := range res.Table.Rows() {
					if d, ok := e.DrivenDistance.Float(); ok {
						found = append(found, d)
					}
				}
				So(found, ShouldResemble, []float64{4250})
			})

			Convey("And the KPIs are computed", func() {
				So(res.KPIs.Days, ShouldEqual, 2)
				So(res.KPIs.Consumption.Summary.Count, ShouldEqual, 1)
				So(res.KPIs.Consumption.Summary.Mean, ShouldEqual, 15)
				So(*res.KPIs.Churn.Overall, ShouldEqual, 0.5)
			})

			Convey("And the stats record the run", func() {
				stats := svc.GetStats()
				So(stats["runs"], ShouldEqual, 1)
				So(stats["lastRunID"], ShouldEqual, res.RunID)
			})
		})

		Convey("When a comment is malformed", func() {
			bad := strings.Replace(eventsCSV, `""driven_distance"": 4250}}`, `""driven_distance"": }`, 1)
			res, err := svc.Run(ctx, strings.NewReader(vehiclesCSV), strings.NewReader(bad))

			Convey("Then the run fails with the malformed comment", func() {
				So(errors.Is(err, cleaning.ErrMalformedComment), ShouldBeTrue)
				So(errors.Is(err, nested.ErrMalformedComment), ShouldBeTrue)
				So(res, ShouldNotBeNil)
				So(res.KPIs, ShouldBeNil)
				So(svc.GetStats()["failures"], ShouldEqual, 1)
			})
		})

		Convey("When the events table is empty", func() {
			_, err := svc.Run(ctx, strings.NewReader(vehiclesCSV), strings.NewReader(""))

			Convey("Then the read error is returned", func() {
				So(err, ShouldNotBeNil)
				So(err.Error(), ShouldContainSubstring, "read events")
			})
		})
	})
}

func TestService_RunFiles(t *testing.T) {
	Convey("Given tables on disk", t, func() {
		dir := t.TempDir()
		vehicles := filepath.Join(dir, "cars.csv")
		events := filepath.Join(dir, "events.csv")
		So(os.WriteFile(vehicles, []byte(vehiclesCSV), 0o600), ShouldBeNil)
		So(os.WriteFile(events, []byte(eventsCSV), 0o600), ShouldBeNil)

		Convey("When running from files", func() {
			res, err := service.New().RunFiles(context.Background(), vehicles, events)

			Convey("Then it should succeed", func() {
				So(err, ShouldBeNil)
				So(res.Cleaning.EventRows, ShouldEqual, 6)
			})
		})

		Convey("When a file is missing", func() {
			_, err := service.New().RunFiles(context.Background(), filepath.Join(dir, "nope.csv"), events)

			Convey("Then the error names the table", func() {
				So(errors.Is(err, os.ErrNotExist), ShouldBeTrue)
				So(err.Error(), ShouldContainSubstring, "read vehicles")
			})
		})
	})
}
