package kpi

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// Summary describes a sample. StdDev is the sample (n-1) standard deviation
// and is 0 for fewer than two values. Quantile is the requested percentile.
type Summary struct {
	Count    int     `json:"count"`
	Mean     float64 `json:"mean"`
	StdDev   float64 `json:"std_dev"`
	Min      float64 `json:"min"`
	Max      float64 `json:"max"`
	Q        float64 `json:"q"`
	Quantile float64 `json:"quantile"`
}

// Summarize computes a Summary with the q-quantile (0..1).
func Summarize(values []float64, q float64) Summary {
	s := Summary{Count: len(values), Q: q}
	if len(values) == 0 {
		return s
	}

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	s.Mean, s.StdDev = stat.MeanStdDev(sorted, nil)
	if len(sorted) < 2 {
		s.StdDev = 0
	}
	s.Min = sorted[0]
	s.Max = sorted[len(sorted)-1]
	s.Quantile = quantileSorted(sorted, q)
	return s
}

// Quantile returns the q-quantile (0..1) of values using linear interpolation
// between closest ranks, the default of most dataframe libraries.
func Quantile(values []float64, q float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)
	return quantileSorted(sorted, q)
}

func quantileSorted(sorted []float64, q float64) float64 {
	if q <= 0 {
		return sorted[0]
	}
	if q >= 1 {
		return sorted[len(sorted)-1]
	}

	pos := q * float64(len(sorted)-1)
	lo := math.Floor(pos)
	hi := math.Ceil(pos)
	if lo == hi {
		return sorted[int(lo)]
	}
	frac := pos - lo
	return sorted[int(lo)]*(1-frac) + sorted[int(hi)]*frac
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	return stat.Mean(values, nil)
}
