package kpi

import "github.com/okian/fleetpulse/internal/domain/model"

// ChurnDay holds the reservation funnel of one day. Rate is cancelations per
// creation and is nil on days without creations.
type ChurnDay struct {
	Date         string   `json:"date"`
	Creations    int      `json:"creations"`
	Starts       int      `json:"starts"`
	Cancelations int      `json:"cancelations"`
	Rate         *float64 `json:"rate"`
}

// Churn is the per-day funnel plus the overall rate.
type Churn struct {
	Days    []ChurnDay `json:"days"`
	Overall *float64   `json:"overall"`
	// RateSummary covers the days that have a rate.
	RateSummary Summary `json:"rate_summary"`
}

// ChurnRates computes the daily churn of t.
func ChurnRates(t model.EnrichedTable) Churn {
	return churn(indexDays(t))
}

func churn(idx dayIndex) Churn {
	var (
		out              Churn
		rates            []float64
		created, cancels int
	)
	for _, d := range idx.days {
		counts := idx.counts[d]
		day := ChurnDay{
			Date:         d.String(),
			Creations:    counts[model.ReservationCreation],
			Starts:       counts[model.RideStart],
			Cancelations: counts[model.ReservationCancelation],
		}
		if day.Creations > 0 {
			rate := float64(day.Cancelations) / float64(day.Creations)
			day.Rate = &rate
			rates = append(rates, rate)
		}
		created += day.Creations
		cancels += day.Cancelations
		out.Days = append(out.Days, day)
	}
	if created > 0 {
		overall := float64(cancels) / float64(created)
		out.Overall = &overall
	}
	out.RateSummary = Summarize(rates, ChurnQuantile)
	return out
}
