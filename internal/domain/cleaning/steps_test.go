package cleaning_test

import (
	"errors"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/fleetpulse/internal/domain/cleaning"
	"github.com/okian/fleetpulse/internal/domain/model"
)

func TestAuditNulls(t *testing.T) {
	Convey("Given tables with missing cells", t, func() {
		cars := model.NewRawTable("cars", []string{"vehicle_id", "vehicle_type"}, [][]string{
			{"1", ""},
			{"2", "NaN"},
		})
		evts := model.NewRawTable("events", []string{"vehicle_id", "ride_id"}, [][]string{
			{"1", "10"},
			{"2"},
		})

		Convey("When the audit runs", func() {
			audit := cleaning.AuditNulls(cars, evts)

			Convey("Then each column reports its null count in header order", func() {
				So(audit, ShouldResemble, []cleaning.ColumnNulls{
					{Table: "cars", Column: "vehicle_id", Nulls: 0, HasNull: false},
					{Table: "cars", Column: "vehicle_type", Nulls: 2, HasNull: true},
					{Table: "events", Column: "vehicle_id", Nulls: 0, HasNull: false},
					{Table: "events", Column: "ride_id", Nulls: 1, HasNull: true},
				})
			})

			Convey("Then the tables are untouched", func() {
				So(cars.Cell(1, 1), ShouldEqual, "NaN")
				So(evts.Len(), ShouldEqual, 2)
			})
		})
	})
}

func TestTyping(t *testing.T) {
	Convey("Given a registry with null vehicle types", t, func() {
		cars := model.NewRawTable("cars", []string{"vehicle_id", "vehicle_type"}, [][]string{
			{"1", ""},
			{"2", "NULL"},
			{"3", " moped "},
		})

		Convey("When it is typed", func() {
			table, err := cleaning.TypeVehicles(cars)

			Convey("Then null cells stay null and others are trimmed", func() {
				So(err, ShouldBeNil)
				So(table.Row(0).Type, ShouldResemble, model.None[string]())
				So(table.Row(1).Type, ShouldResemble, model.None[string]())
				So(table.Row(2).Type, ShouldResemble, model.Some("moped"))
			})
		})
	})

	Convey("Given an event table without an id column", t, func() {
		raw := model.NewRawTable("events",
			[]string{"vehicle_id", "event", "event_time", "battery_pct", "lat", "lon"},
			[][]string{
				{"4", "ride_start", "2019-04-01 08:15:00", "80", "52.5", "13.4"},
				{"4", "ride_end", "2019-04-01 08:30:00", "", "52.5", "13.4"},
			})

		Convey("When it is typed", func() {
			table, errs, err := cleaning.TypeEvents(raw)

			Convey("Then the table stays parallel to the raw rows", func() {
				So(err, ShouldBeNil)
				So(table.Len(), ShouldEqual, 2)
				So(table.Row(0).ID, ShouldEqual, 1)
				So(table.Row(1).ID, ShouldEqual, 2)
				So(table.Row(1).Row, ShouldEqual, 1)
				So(errs[0], ShouldBeNil)
				So(errors.Is(errs[1], cleaning.ErrInvalidValue), ShouldBeTrue)
			})
		})
	})
}

func TestParsePolicy(t *testing.T) {
	Convey("Given policy names", t, func() {
		p, err := cleaning.ParsePolicy("SKIP")
		So(err, ShouldBeNil)
		So(p, ShouldEqual, cleaning.PolicySkip)

		p, err = cleaning.ParsePolicy("")
		So(err, ShouldBeNil)
		So(p, ShouldEqual, cleaning.PolicyAbort)

		_, err = cleaning.ParsePolicy("retry")
		So(errors.Is(err, cleaning.ErrInvalidPolicy), ShouldBeTrue)
	})
}

func TestParseTimestamp(t *testing.T) {
	Convey("Given the default layouts", t, func() {
		for _, raw := range []string{
			"2019-04-01T08:15:00Z",
			"2019-04-01 08:15:00+00:00",
			"2019-04-01 08:15:00.123456",
			"2019-04-01T08:15:00",
			"2019-04-01 08:15",
		} {
			ts, err := cleaning.ParseTimestamp(raw, cleaning.DefaultLayouts)
			So(err, ShouldBeNil)
			So(ts.Hour(), ShouldEqual, 8)
			So(ts.Minute(), ShouldEqual, 15)
		}

		ts, err := cleaning.ParseTimestamp("2019-04-01", cleaning.DefaultLayouts)
		So(err, ShouldBeNil)
		So(ts.Day(), ShouldEqual, 1)

		for _, raw := range []string{"", "NaN", "01/04/2019"} {
			_, err := cleaning.ParseTimestamp(raw, cleaning.DefaultLayouts)
			So(errors.Is(err, cleaning.ErrParse), ShouldBeTrue)
		}
	})
}

func TestNormalizeComment(t *testing.T) {
	Convey("Given comment cells", t, func() {
		Convey("When the comment is missing or blank", func() {
			for _, c := range []model.Optional[string]{model.None[string](), model.Some("  ")} {
				m, err := cleaning.NormalizeComment(c)
				So(err, ShouldBeNil)
				So(m.Len(), ShouldEqual, 0)
			}
		})

		Convey("When the comment is JSON-like with a trailing comma", func() {
			m, err := cleaning.NormalizeComment(model.Some(`{"driven_distance": 7000,}`))
			So(err, ShouldBeNil)
			v, ok := m.Get("driven_distance")
			So(ok, ShouldBeTrue)
			So(v.Literal(), ShouldEqual, "7000")
		})

		Convey("When the comment is not an object", func() {
			_, err := cleaning.NormalizeComment(model.Some(`[1, 2]`))
			So(errors.Is(err, cleaning.ErrMalformedComment), ShouldBeTrue)
		})
	})
}

func TestJoinAndFilter(t *testing.T) {
	Convey("Given enriched rows and a registry", t, func() {
		registry := model.NewVehicleTable([]model.Vehicle{{ID: 1, Type: model.Some("scooter")}})
		rows := []model.EnrichedEvent{
			{MobilityEvent: model.MobilityEvent{ID: 1, VehicleID: 1, BatteryPct: 101}},
			{MobilityEvent: model.MobilityEvent{ID: 2, VehicleID: 2, BatteryPct: -1}},
			{MobilityEvent: model.MobilityEvent{ID: 3, VehicleID: 1, BatteryPct: 42}},
		}

		Convey("When joining then filtering", func() {
			joined, unmatched := cleaning.Join(rows, registry)
			kept, dropped := cleaning.FilterBattery(joined, 0, 100)

			Convey("Then the join keeps every row without touching the input", func() {
				So(joined, ShouldHaveLength, 3)
				So(unmatched, ShouldEqual, 1)
				So(rows[0].VehicleType.Valid, ShouldBeFalse)
			})

			Convey("Then out-of-range values on both sides are dropped", func() {
				So(kept, ShouldHaveLength, 1)
				So(kept[0].ID, ShouldEqual, 3)
				So(dropped, ShouldResemble, []cleaning.DroppedGroup{
					{VehicleType: "scooter", BatteryPct: 101, Rows: 1},
					{VehicleType: cleaning.UnmatchedVehicleType, BatteryPct: -1, Rows: 1},
				})
			})
		})
	})
}
