// Package api serves the operational endpoints of a pipeline process:
// Prometheus metrics, run statistics and the last report.
package api

import (
	"context"
	"net/http"

	"github.com/okian/fleetpulse/pkg/logger"
)

// Dependencies required by HTTP handlers.
type Dependencies interface {
	StatsProvider
	ReportProvider
}

// Server wires HTTP routes for the operational API.
type Server struct {
	healthHandler *HealthHandler
	statsHandler  *StatsHandler
	reportHandler *ReportHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies) *Server {
	return &Server{
		healthHandler: NewHealthHandler(),
		statsHandler:  NewStatsHandler(deps),
		reportHandler: NewReportHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(ctx context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/metrics", MetricsMiddleware(s.healthHandler.HandleMetrics, "metrics"))
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/report", MetricsMiddleware(s.reportHandler.HandleReport, "report"))

	logger.Get().Debug(ctx, "routes registered", logger.Int("routes", 4))
}
