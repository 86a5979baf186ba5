package lab

import (
	"math"
	"sort"
	"strconv"
	"strings"
)

const (
	TrendImproving   = "improving"
	TrendWorsening   = "worsening"
	TrendStable      = "stable"
	TrendFluctuating = "fluctuating"
)

// Trend summarizes how one analyte has moved across a patient's
// recent results.
type Trend struct {
	Analyte     string  `json:"analyte"`
	Direction   string  `json:"direction"`
	PctChange   float64 `json:"pct_change"`
	LatestValue float64 `json:"latest_value"`
	LatestFlag  string  `json:"latest_flag"`
	Samples     int     `json:"samples"`
}

// ComputeTrend derives a trend from results for a single analyte.
// Non-numeric values are skipped. Results may arrive in any order;
// they are sorted by observation time here.
func ComputeTrend(analyte string, results []*Result) Trend {
	type point struct {
		value float64
		flag  string
	}
	sorted := make([]*Result, len(results))
	copy(sorted, results)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].ObservedAt.Before(sorted[j].ObservedAt)
	})

	var points []point
	for _, r := range sorted {
		v, err := strconv.ParseFloat(strings.TrimSpace(r.Value), 64)
		if err != nil {
			continue
		}
		points = append(points, point{value: v, flag: r.Flag})
	}

	t := Trend{
		Analyte:   canonicalAnalyte(analyte),
		Direction: TrendStable,
		Samples:   len(points),
	}
	if len(points) == 0 {
		return t
	}

	last := points[len(points)-1]
	t.LatestValue = last.value
	t.LatestFlag = last.flag
	if len(points) < 2 {
		return t
	}

	values := make([]float64, len(points))
	for i, p := range points {
		values[i] = p.value
	}
	t.PctChange = pctChange(values[0], last.value)

	if isFluctuating(values) {
		t.Direction = TrendFluctuating
		return t
	}

	slope := slopeSign(values)
	switch last.flag {
	case FlagHigh, FlagCriticalHigh:
		if slope < 0 {
			t.Direction = TrendImproving
		} else if slope > 0 {
			t.Direction = TrendWorsening
		}
	case FlagLow, FlagCriticalLow:
		if slope > 0 {
			t.Direction = TrendImproving
		} else if slope < 0 {
			t.Direction = TrendWorsening
		}
	}
	return t
}

func pctChange(first, last float64) float64 {
	if first == 0 {
		if last == 0 {
			return 0
		}
		return 100
	}
	return math.Round((last-first)/math.Abs(first)*100*100) / 100
}

// slopeSign is the sign of the majority of consecutive differences.
func slopeSign(values []float64) int {
	var pos, neg int
	for i := 1; i < len(values); i++ {
		switch {
		case values[i] > values[i-1]:
			pos++
		case values[i] < values[i-1]:
			neg++
		}
	}
	switch {
	case pos > neg:
		return 1
	case neg > pos:
		return -1
	}
	return 0
}

// isFluctuating reports two or more direction reversals across at
// least three observations.
func isFluctuating(values []float64) bool {
	if len(values) < 3 {
		return false
	}
	var reversals, prev int
	for i := 1; i < len(values); i++ {
		sign := 0
		switch {
		case values[i] > values[i-1]:
			sign = 1
		case values[i] < values[i-1]:
			sign = -1
		}
		if sign != 0 && prev != 0 && sign != prev {
			reversals++
		}
		if sign != 0 {
			prev = sign
		}
	}
	return reversals >= 2
}
