package nested_test

import (
	"encoding/json"
	"errors"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	nested "github.com/okian/fleetpulse/internal/domain/nested"
	. "github.com/smartystreets/goconvey/convey"
)

func TestParse(t *testing.T) {
	Convey("Given comment text", t, func() {
		Convey("When it is blank", func() {
			m, err := nested.Parse("   ")

			Convey("Then it is the empty mapping", func() {
				So(err, ShouldBeNil)
				So(m.Len(), ShouldEqual, 0)
			})
		})

		Convey("When it is JSON with comments and trailing commas", func() {
			m, err := nested.Parse("{\n  // odometer delta\n  \"driven_distance\": 7000,\n  \"pizzas_delivered\": 3,\n}")

			Convey("Then it parses and keeps entry order", func() {
				So(err, ShouldBeNil)
				So(m.Len(), ShouldEqual, 2)
				So(m.At(0).Key, ShouldEqual, "driven_distance")
				So(m.At(1).Key, ShouldEqual, "pizzas_delivered")
			})
		})

		Convey("When it is malformed", func() {
			for _, text := range []string{`{"a": }`, `{'a': 1}`, `not json`, `{"a": 1} {"b": 2}`} {
				_, err := nested.Parse(text)
				So(errors.Is(err, nested.ErrMalformedComment), ShouldBeTrue)
			}
		})

		Convey("When it is not valid UTF-8", func() {
			_, err := nested.Parse("{\"s\": \"\xff\xfe\"}")
			So(errors.Is(err, nested.ErrMalformedComment), ShouldBeTrue)
			So(err.Error(), ShouldContainSubstring, "UTF-8")
		})

		Convey("When the root is not an object", func() {
			for _, text := range []string{`[1, 2]`, `42`, `"text"`, `null`} {
				_, err := nested.Parse(text)
				So(errors.Is(err, nested.ErrMalformedComment), ShouldBeTrue)
			}
		})
	})
}

func TestRoundTrip(t *testing.T) {
	Convey("Given a mapping of scalars and nested mappings", t, func() {
		m := nested.NewMapping(
			nested.Entry{Key: "driven_distance", Value: nested.Int(3500)},
			nested.Entry{Key: "weather", Value: nested.String("okay \"ish\" <rain>")},
			nested.Entry{Key: "ratio", Value: nested.Float(0.25)},
			nested.Entry{Key: "ok", Value: nested.Bool(false)},
			nested.Entry{Key: "none", Value: nested.Null()},
			nested.Entry{Key: "metrics", Value: nested.Map(nested.NewMapping(
				nested.Entry{Key: "inner", Value: nested.Map(nested.NewMapping())},
				nested.Entry{Key: "pizzas", Value: nested.Int(3)},
			))},
		)

		Convey("When it is encoded and parsed back", func() {
			back, err := nested.Parse(nested.Encode(m))

			Convey("Then the result equals the original", func() {
				So(err, ShouldBeNil)
				So(nested.EqualMappings(m, back), ShouldBeTrue)
				So(cmp.Diff(m, back, cmp.Comparer(nested.EqualMappings)), ShouldBeEmpty)
			})
		})

		Convey("When it is marshaled inside a larger document", func() {
			raw, err := json.Marshal(map[string]any{"comment": m})

			Convey("Then entry order is preserved", func() {
				So(err, ShouldBeNil)
				So(string(raw), ShouldContainSubstring, `{"driven_distance":3500,"weather":`)
			})
		})
	})

	Convey("Given numbers with different literals", t, func() {
		So(nested.Equal(nested.Number("7000"), nested.Number("7000.0")), ShouldBeTrue)
		So(nested.Equal(nested.Number("1"), nested.String("1")), ShouldBeFalse)
		So(nested.Float(math.NaN()).IsNull(), ShouldBeTrue)
	})

	Convey("Given literals that are not JSON numbers", t, func() {
		for _, lit := range []string{"abc", "", " 1", "1 2", "0x10", "+1", "NaN", "true", "01"} {
			So(nested.Number(lit).IsNull(), ShouldBeTrue)
		}

		Convey("Then a mapping built from them still round-trips", func() {
			m := nested.NewMapping(
				nested.Entry{Key: "x", Value: nested.Number("abc")},
				nested.Entry{Key: "y", Value: nested.Number("-1.5e3")},
			)
			So(nested.Encode(m), ShouldEqual, `{"x":null,"y":-1.5e3}`)
			back, err := nested.Parse(nested.Encode(m))
			So(err, ShouldBeNil)
			So(nested.EqualMappings(m, back), ShouldBeTrue)
		})
	})
}
