package lab

import (
	"testing"
	"time"
)

func trendResult(value, flag string, observed time.Time) *Result {
	return &Result{Name: "K+", Value: value, Flag: flag, ObservedAt: observed}
}

func TestComputeTrend_HighAndFallingImproves(t *testing.T) {
	base := time.Date(2025, 3, 14, 8, 0, 0, 0, time.UTC)
	results := []*Result{
		trendResult("6.2", FlagCriticalHigh, base),
		trendResult("5.8", FlagCriticalHigh, base.Add(4*time.Hour)),
		trendResult("5.3", FlagHigh, base.Add(8*time.Hour)),
	}
	tr := ComputeTrend("K+", results)
	if tr.Direction != TrendImproving {
		t.Errorf("direction = %q, want %q", tr.Direction, TrendImproving)
	}
	if tr.LatestValue != 5.3 || tr.LatestFlag != FlagHigh {
		t.Errorf("latest = %v/%q, want 5.3/%q", tr.LatestValue, tr.LatestFlag, FlagHigh)
	}
	if tr.PctChange != -14.52 {
		t.Errorf("pct change = %v, want -14.52", tr.PctChange)
	}
	if tr.Samples != 3 {
		t.Errorf("samples = %d, want 3", tr.Samples)
	}
}

func TestComputeTrend_HighAndRisingWorsens(t *testing.T) {
	base := time.Date(2025, 3, 14, 8, 0, 0, 0, time.UTC)
	results := []*Result{
		trendResult("5.3", FlagHigh, base),
		trendResult("5.9", FlagCriticalHigh, base.Add(6*time.Hour)),
	}
	if tr := ComputeTrend("K+", results); tr.Direction != TrendWorsening {
		t.Errorf("direction = %q, want %q", tr.Direction, TrendWorsening)
	}
}

func TestComputeTrend_LowAndRisingImproves(t *testing.T) {
	base := time.Date(2025, 3, 14, 8, 0, 0, 0, time.UTC)
	results := []*Result{
		trendResult("2.9", FlagCriticalLow, base),
		trendResult("3.2", FlagLow, base.Add(6*time.Hour)),
	}
	if tr := ComputeTrend("K+", results); tr.Direction != TrendImproving {
		t.Errorf("direction = %q, want %q", tr.Direction, TrendImproving)
	}
}

func TestComputeTrend_Fluctuating(t *testing.T) {
	base := time.Date(2025, 3, 14, 8, 0, 0, 0, time.UTC)
	results := []*Result{
		trendResult("5.3", FlagHigh, base),
		trendResult("5.8", FlagCriticalHigh, base.Add(2*time.Hour)),
		trendResult("5.2", FlagHigh, base.Add(4*time.Hour)),
		trendResult("5.9", FlagCriticalHigh, base.Add(6*time.Hour)),
	}
	if tr := ComputeTrend("K+", results); tr.Direction != TrendFluctuating {
		t.Errorf("direction = %q, want %q", tr.Direction, TrendFluctuating)
	}
}

func TestComputeTrend_OrderIndependent(t *testing.T) {
	// Newest-first input must sort before the slope is read.
	base := time.Date(2025, 3, 14, 8, 0, 0, 0, time.UTC)
	results := []*Result{
		trendResult("5.3", FlagHigh, base.Add(8*time.Hour)),
		trendResult("6.2", FlagCriticalHigh, base),
		trendResult("5.8", FlagCriticalHigh, base.Add(4*time.Hour)),
	}
	tr := ComputeTrend("K+", results)
	if tr.Direction != TrendImproving {
		t.Errorf("direction = %q, want %q", tr.Direction, TrendImproving)
	}
	if tr.LatestValue != 5.3 {
		t.Errorf("latest value = %v, want 5.3", tr.LatestValue)
	}
}

func TestComputeTrend_SparseHistory(t *testing.T) {
	if tr := ComputeTrend("K+", nil); tr.Direction != TrendStable || tr.Samples != 0 {
		t.Errorf("empty history: got %q/%d samples", tr.Direction, tr.Samples)
	}

	base := time.Date(2025, 3, 14, 8, 0, 0, 0, time.UTC)
	tr := ComputeTrend("K+", []*Result{trendResult("6.2", FlagCriticalHigh, base)})
	if tr.Direction != TrendStable || tr.Samples != 1 {
		t.Errorf("single result: got %q/%d samples", tr.Direction, tr.Samples)
	}

	// Non-numeric values drop out of the series.
	results := []*Result{
		{Name: "K+", Value: "haemolysed", Flag: FlagNormal, ObservedAt: base},
		trendResult("4.1", FlagNormal, base.Add(2*time.Hour)),
	}
	if tr := ComputeTrend("K+", results); tr.Samples != 1 {
		t.Errorf("samples = %d, want 1", tr.Samples)
	}
}

func TestComputeTrend_NormalLatestStaysStable(t *testing.T) {
	base := time.Date(2025, 3, 14, 8, 0, 0, 0, time.UTC)
	results := []*Result{
		trendResult("5.3", FlagHigh, base),
		trendResult("4.4", FlagNormal, base.Add(6*time.Hour)),
	}
	if tr := ComputeTrend("K+", results); tr.Direction != TrendStable {
		t.Errorf("direction = %q, want %q", tr.Direction, TrendStable)
	}
}
