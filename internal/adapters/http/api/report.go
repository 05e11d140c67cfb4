package api

import (
	"encoding/json"
	"net/http"
)

// ReportProvider returns the most recent run report, if any.
type ReportProvider interface {
	LastReport() (any, bool)
}

// ReportHandler handles report requests.
type ReportHandler struct {
	reports ReportProvider
}

// NewReportHandler creates a new report handler.
func NewReportHandler(reports ReportProvider) *ReportHandler {
	return &ReportHandler{reports: reports}
}

// HandleReport handles GET /report requests. It answers 404 until a run has
// finished.
func (h *ReportHandler) HandleReport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	report, ok := h.reports.LastReport()
	if !ok {
		http.Error(w, "no run yet", http.StatusNotFound)
		return
	}

	raw, err := json.Marshal(report)
	if err != nil {
		http.Error(w, "encode report", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	_, _ = w.Write(raw)
}
