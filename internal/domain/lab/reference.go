package lab

import (
	"strconv"
	"strings"
)

// ReferenceRange bounds an analyte's normal band. Either side may be
// open; an unbounded range never yields an abnormal flag.
type ReferenceRange struct {
	Low  *float64
	High *float64
}

func (r ReferenceRange) Bounded() bool {
	return r.Low != nil || r.High != nil
}

func f(v float64) *float64 { return &v }

// referenceRanges holds the normal bands for the analytes the ward
// panel reports, keyed by canonical analyte name. Adult ranges, SI
// units matching the unit column.
var referenceRanges = map[string]ReferenceRange{
	"potassium":   {Low: f(3.5), High: f(5.1)},
	"sodium":      {Low: f(135), High: f(145)},
	"glucose":     {Low: f(3.9), High: f(7.8)},
	"calcium":     {Low: f(2.2), High: f(2.6)},
	"magnesium":   {Low: f(0.7), High: f(1.0)},
	"phosphate":   {Low: f(0.8), High: f(1.5)},
	"creatinine":  {Low: f(60), High: f(110)},
	"urea":        {Low: f(2.5), High: f(7.8)},
	"haemoglobin": {Low: f(130), High: f(170)},
	"platelets":   {Low: f(150), High: f(400)},
	"wcc":         {Low: f(4.0), High: f(11.0)},
	"crp":         {High: f(5.0)},
	"lactate":     {High: f(2.0)},
	"troponin":    {High: f(0.04)},
	"inr":         {Low: f(0.8), High: f(1.2)},
}

// analyteAliases maps the short names results arrive under to the
// canonical keys above.
var analyteAliases = map[string]string{
	"k":          "potassium",
	"k+":         "potassium",
	"na":         "sodium",
	"na+":        "sodium",
	"glu":        "glucose",
	"ca":         "calcium",
	"ca2+":       "calcium",
	"mg":         "magnesium",
	"po4":        "phosphate",
	"cr":         "creatinine",
	"creat":      "creatinine",
	"hb":         "haemoglobin",
	"hemoglobin": "haemoglobin",
	"plt":        "platelets",
	"wbc":        "wcc",
	"trop":       "troponin",
	"troponin i": "troponin",
	"troponin t": "troponin",
}

// A value this far beyond the reference boundary, as a fraction of the
// range span, is critical rather than merely abnormal.
const defaultCriticalMultiplier = 0.50

// Tighter critical windows for analytes where small excursions matter.
// Troponin's zero multiplier makes any elevation critical.
var criticalMultipliers = map[string]float64{
	"potassium": 0.20,
	"sodium":    0.10,
	"calcium":   0.25,
	"magnesium": 0.30,
	"phosphate": 0.30,
	"troponin":  0.0,
	"inr":       0.50,
}

func canonicalAnalyte(name string) string {
	key := strings.ToLower(strings.TrimSpace(name))
	if alias, ok := analyteAliases[key]; ok {
		return alias
	}
	return key
}

// ComputeFlag derives the flag for a result from its analyte's
// reference range. This is the single source of truth for H/L/critical:
// when the analyte and value are recognized, the derived flag wins over
// whatever the feed supplied. ok=false means no range is known (or the
// value is not numeric) and the supplied flag stands.
func ComputeFlag(name, value string) (flag string, ok bool) {
	v, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return "", false
	}
	analyte := canonicalAnalyte(name)
	ref, known := referenceRanges[analyte]
	if !known || !ref.Bounded() {
		return "", false
	}

	multiplier := defaultCriticalMultiplier
	if m, overridden := criticalMultipliers[analyte]; overridden {
		multiplier = m
	}

	if ref.High != nil && v > *ref.High {
		span := *ref.High
		if ref.Low != nil {
			span = *ref.High - *ref.Low
		}
		threshold := *ref.High
		if span > 0 {
			threshold += span * multiplier
		}
		if v > threshold {
			return FlagCriticalHigh, true
		}
		return FlagHigh, true
	}

	if ref.Low != nil && v < *ref.Low {
		span := 0.0
		if ref.High != nil {
			span = *ref.High - *ref.Low
		}
		threshold := *ref.Low
		if span > 0 {
			threshold -= span * multiplier
		}
		if v < threshold {
			return FlagCriticalLow, true
		}
		return FlagLow, true
	}

	return FlagNormal, true
}
