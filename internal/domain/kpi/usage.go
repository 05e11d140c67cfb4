package kpi

import (
	"cmp"
	"slices"

	"github.com/okian/fleetpulse/internal/domain/model"
)

// DailyStats summarizes the per-day count of one event type.
type DailyStats struct {
	EventType model.EventType `json:"event_type"`
	Summary   Summary         `json:"summary"`
}

// DailyCounts summarizes per-day counts of each type over every day present
// in t. Days without the type count as 0.
func DailyCounts(t model.EnrichedTable, types ...model.EventType) []DailyStats {
	return dailyCounts(indexDays(t), types...)
}

func dailyCounts(idx dayIndex, types ...model.EventType) []DailyStats {
	out := make([]DailyStats, 0, len(types))
	for _, typ := range types {
		out = append(out, DailyStats{EventType: typ, Summary: Summarize(idx.series(typ), DailyQuantile)})
	}
	return out
}

// WeekdayMean is the mean number of rides on one weekday.
type WeekdayMean struct {
	Weekday int     `json:"weekday"`
	Days    int     `json:"days"`
	Mean    float64 `json:"mean"`
}

// WeekdayRides averages the daily ride_start count per weekday, Monday = 0.
func WeekdayRides(t model.EnrichedTable) []WeekdayMean {
	return weekdayRides(indexDays(t))
}

func weekdayRides(idx dayIndex) []WeekdayMean {
	var sums [7][]float64
	for _, d := range idx.days {
		wd := idx.weekday[d]
		sums[wd] = append(sums[wd], float64(idx.counts[d][model.RideStart]))
	}

	var out []WeekdayMean
	for wd, counts := range sums {
		if len(counts) == 0 {
			continue
		}
		out = append(out, WeekdayMean{Weekday: wd, Days: len(counts), Mean: mean(counts)})
	}
	return out
}

// HourlyMean is the mean number of events of a type in one hour of a weekday.
type HourlyMean struct {
	EventType model.EventType `json:"event_type"`
	Weekday   int             `json:"weekday"`
	Hour      int             `json:"hour"`
	Mean      float64         `json:"mean"`
}

// HourlyUsage averages event counts per (weekday, hour) over the observed
// days of that weekday. Slots without events are omitted.
func HourlyUsage(t model.EnrichedTable) []HourlyMean {
	type slot struct {
		typ     model.EventType
		weekday int
		hour    int
	}
	counts := make(map[slot]int)
	t.Each(func(_ int, e *model.EnrichedEvent) {
		counts[slot{e.Type, e.Weekday, e.Hour}]++
	})
	days := indexDays(t).daysPerWeekday()

	out := make([]HourlyMean, 0, len(counts))
	for s, n := range counts {
		out = append(out, HourlyMean{
			EventType: s.typ,
			Weekday:   s.weekday,
			Hour:      s.hour,
			Mean:      float64(n) / float64(days[s.weekday]),
		})
	}
	slices.SortFunc(out, func(a, b HourlyMean) int {
		return cmp.Or(
			cmp.Compare(a.EventType, b.EventType),
			cmp.Compare(a.Weekday, b.Weekday),
			cmp.Compare(a.Hour, b.Hour),
		)
	})
	return out
}

// MonthlyMean holds per-month means for one event type.
type MonthlyMean struct {
	Year       int             `json:"year"`
	Month      int             `json:"month"`
	EventType  model.EventType `json:"event_type"`
	Rows       int             `json:"rows"`
	BatteryPct float64         `json:"battery_pct"`
	// DistanceRows counts rows with a numeric distance; DrivenDistance is nil
	// when there are none.
	DistanceRows   int      `json:"distance_rows"`
	DrivenDistance *float64 `json:"driven_distance"`
}

// MonthlyMeans averages battery_pct and driven distance per (year, month,
// event type). Rows without a numeric distance are left out of the distance
// mean only.
func MonthlyMeans(t model.EnrichedTable) []MonthlyMean {
	type group struct {
		year, month int
		typ         model.EventType
	}
	battery := make(map[group][]float64)
	distance := make(map[group][]float64)
	t.Each(func(_ int, e *model.EnrichedEvent) {
		g := group{e.Year, e.Month, e.Type}
		battery[g] = append(battery[g], float64(e.BatteryPct))
		if d, ok := e.DrivenDistance.Float(); ok {
			distance[g] = append(distance[g], d)
		}
	})

	out := make([]MonthlyMean, 0, len(battery))
	for g, b := range battery {
		m := MonthlyMean{
			Year:         g.year,
			Month:        g.month,
			EventType:    g.typ,
			Rows:         len(b),
			BatteryPct:   mean(b),
			DistanceRows: len(distance[g]),
		}
		if d := distance[g]; len(d) > 0 {
			avg := mean(d)
			m.DrivenDistance = &avg
		}
		out = append(out, m)
	}
	slices.SortFunc(out, func(a, b MonthlyMean) int {
		return cmp.Or(
			cmp.Compare(a.Year, b.Year),
			cmp.Compare(a.Month, b.Month),
			cmp.Compare(a.EventType, b.EventType),
		)
	})
	return out
}
