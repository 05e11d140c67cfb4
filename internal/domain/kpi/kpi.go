// Package kpi aggregates the enriched event table into fleet indicators:
// per-day event counts, weekday and hourly usage, battery consumption per
// ride, churn and monthly means.
//
// Aggregations never depend on row order; every output is sorted.
package kpi

import (
	"slices"

	"github.com/okian/fleetpulse/internal/domain/model"
)

// Quantiles used by the report.
const (
	DailyQuantile       = 0.05
	ConsumptionQuantile = 0.95
	ChurnQuantile       = 0.5
)

// Report bundles every indicator computed from one table.
type Report struct {
	Rows int    `json:"rows"`
	Days int    `json:"days"`
	From string `json:"from,omitempty"`
	To   string `json:"to,omitempty"`

	Daily       []DailyStats      `json:"daily"`
	Weekday     []WeekdayMean     `json:"weekday_rides"`
	Hourly      []HourlyMean      `json:"hourly_usage"`
	Consumption Consumption       `json:"consumption"`
	Critical    CriticalBatteries `json:"critical_batteries"`
	Churn       Churn             `json:"churn"`
	Monthly     []MonthlyMean     `json:"monthly"`
}

// Compute runs every aggregation over t.
func Compute(t model.EnrichedTable) *Report {
	idx := indexDays(t)
	consumption := RideConsumption(t)

	r := &Report{
		Rows:        t.Len(),
		Days:        len(idx.days),
		Daily:       dailyCounts(idx, model.ReservationCreation, model.RideStart, model.ReservationCancelation),
		Weekday:     weekdayRides(idx),
		Hourly:      HourlyUsage(t),
		Consumption: consumption,
		Critical:    Critical(t, consumption),
		Churn:       churn(idx),
		Monthly:     MonthlyMeans(t),
	}
	if len(idx.days) > 0 {
		r.From = idx.days[0].String()
		r.To = idx.days[len(idx.days)-1].String()
	}
	return r
}

// dayIndex counts events per calendar day and type.
type dayIndex struct {
	days    []model.DayKey // chronological
	weekday map[model.DayKey]int
	counts  map[model.DayKey]map[model.EventType]int
}

func indexDays(t model.EnrichedTable) dayIndex {
	idx := dayIndex{
		weekday: make(map[model.DayKey]int),
		counts:  make(map[model.DayKey]map[model.EventType]int),
	}
	t.Each(func(_ int, e *model.EnrichedEvent) {
		d := e.Date()
		byType, ok := idx.counts[d]
		if !ok {
			byType = make(map[model.EventType]int)
			idx.counts[d] = byType
			idx.weekday[d] = e.Weekday
			idx.days = append(idx.days, d)
		}
		byType[e.Type]++
	})
	slices.SortFunc(idx.days, func(a, b model.DayKey) int {
		switch {
		case a.Less(b):
			return -1
		case b.Less(a):
			return 1
		}
		return 0
	})
	return idx
}

// series returns the per-day counts of typ over every observed day, zero
// filled.
func (idx dayIndex) series(typ model.EventType) []float64 {
	out := make([]float64, len(idx.days))
	for i, d := range idx.days {
		out[i] = float64(idx.counts[d][typ])
	}
	return out
}

// daysPerWeekday counts observed days per weekday.
func (idx dayIndex) daysPerWeekday() [7]int {
	var n [7]int
	for _, d := range idx.days {
		n[idx.weekday[d]]++
	}
	return n
}
