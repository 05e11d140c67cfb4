package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/fleetpulse/pkg/logger"
	"github.com/okian/fleetpulse/pkg/metrics"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

type fakeDeps struct {
	report any
}

func (f *fakeDeps) GetStats() map[string]interface{} {
	return map[string]interface{}{"runs": 3, "policy": "skip"}
}

func (f *fakeDeps) LastReport() (any, bool) {
	return f.report, f.report != nil
}

func newMux(deps Dependencies) *http.ServeMux {
	mux := http.NewServeMux()
	NewServer(deps).Register(context.Background(), mux)
	return mux
}

func get(mux *http.ServeMux, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestServer(t *testing.T) {
	Convey("Given the operational API", t, func() {
		deps := &fakeDeps{}
		mux := newMux(deps)

		Convey("healthz answers ok", func() {
			rec := get(mux, "/healthz")
			So(rec.Code, ShouldEqual, http.StatusOK)
			So(rec.Body.String(), ShouldEqual, "ok\n")
		})

		Convey("stats encodes the provider's map", func() {
			rec := get(mux, "/stats")
			So(rec.Code, ShouldEqual, http.StatusOK)

			var got map[string]interface{}
			So(json.Unmarshal(rec.Body.Bytes(), &got), ShouldBeNil)
			So(got["runs"], ShouldEqual, float64(3))
			So(got["policy"], ShouldEqual, "skip")
		})

		Convey("report is 404 before the first run", func() {
			rec := get(mux, "/report")
			So(rec.Code, ShouldEqual, http.StatusNotFound)
		})

		Convey("report returns the last result once present", func() {
			deps.report = map[string]string{"run_id": "abc"}
			rec := get(mux, "/report")
			So(rec.Code, ShouldEqual, http.StatusOK)
			So(rec.Header().Get("Content-Type"), ShouldStartWith, "application/json")
			So(rec.Body.String(), ShouldContainSubstring, `"run_id":"abc"`)
		})

		Convey("non-GET methods are rejected", func() {
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/stats", nil))
			So(rec.Code, ShouldEqual, http.StatusNotFound)
		})

		Convey("metrics are served from the custom registry", func() {
			get(mux, "/healthz")
			rec := get(mux, "/metrics")
			So(rec.Code, ShouldEqual, http.StatusOK)
			So(rec.Body.String(), ShouldContainSubstring, "http_requests_total")
		})

		Convey("requests are counted by endpoint and status", func() {
			before := testutil.CollectAndCount(metrics.GetRegistry(), "fleetpulse_http_requests_total")
			get(mux, "/report")
			after := testutil.CollectAndCount(metrics.GetRegistry(), "fleetpulse_http_requests_total")
			So(after, ShouldBeGreaterThanOrEqualTo, before)
			So(after, ShouldBeGreaterThan, 0)
		})
	})
}
