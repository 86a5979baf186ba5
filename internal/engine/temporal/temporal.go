// Package temporal normalizes heterogeneous timestamp representations to
// epoch milliseconds and classifies task deadlines against a reference
// "now". Classification is a pure function of (dueAt, now) and is
// recomputed on every evaluation, never stored.
package temporal

import (
	"encoding/json"
	"fmt"
	"time"
)

// DueSoonWindow is the fixed look-ahead for the due-soon classification.
const DueSoonWindow = 2 * time.Hour

// Clock supplies the current time. Production code uses SystemClock; tests
// inject a fixed clock so classification is deterministic.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// Timer is implemented by lazily-materialized date wrappers; anything that
// can produce a time.Time on demand normalizes through it.
type Timer interface {
	Time() time.Time
}

// Classification is the result of evaluating a deadline at an instant.
// A missing or unparsable deadline yields the zero value.
type Classification struct {
	DueAtMs   *int64 `json:"due_at_ms,omitempty"`
	IsOverdue bool   `json:"is_overdue"`
	IsDueSoon bool   `json:"is_due_soon"`
	Label     string `json:"label,omitempty"`
}

// NormalizeMillis converts any supported deadline representation to epoch
// milliseconds. This is the only place in the engine that branches on
// representation type. Returns ok=false for nil or unparsable input.
func NormalizeMillis(v interface{}) (int64, bool) {
	switch t := v.(type) {
	case nil:
		return 0, false
	case time.Time:
		if t.IsZero() {
			return 0, false
		}
		return t.UnixMilli(), true
	case *time.Time:
		if t == nil || t.IsZero() {
			return 0, false
		}
		return t.UnixMilli(), true
	case Timer:
		return NormalizeMillis(t.Time())
	case int64:
		return t, true
	case int:
		return int64(t), true
	case float64:
		return int64(t), true
	case json.Number:
		if n, err := t.Int64(); err == nil {
			return n, true
		}
		if f, err := t.Float64(); err == nil {
			return int64(f), true
		}
		return 0, false
	case string:
		return parseTimestamp(t)
	default:
		return 0, false
	}
}

func parseTimestamp(s string) (int64, bool) {
	if s == "" {
		return 0, false
	}
	for _, layout := range []string{
		time.RFC3339Nano,
		time.RFC3339,
		"2006-01-02T15:04:05",
		"2006-01-02 15:04:05",
		"2006-01-02",
	} {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts.UnixMilli(), true
		}
	}
	return 0, false
}

// Classify evaluates a deadline against now. Overdue means the deadline has
// passed; due-soon means it falls within the next DueSoonWindow. The two
// are mutually exclusive. Label wording is a rendering convenience; the
// booleans are the contract.
func Classify(dueAt interface{}, now time.Time) Classification {
	ms, ok := NormalizeMillis(dueAt)
	if !ok {
		return Classification{}
	}

	nowMs := now.UnixMilli()
	c := Classification{DueAtMs: &ms}
	delta := ms - nowMs

	switch {
	case delta < 0:
		c.IsOverdue = true
		c.Label = "overdue by " + humanDuration(-delta)
	case delta <= DueSoonWindow.Milliseconds():
		c.IsDueSoon = true
		c.Label = "due in " + humanDuration(delta)
	default:
		c.Label = "due " + time.UnixMilli(ms).UTC().Format("2006-01-02 15:04")
	}
	return c
}

func humanDuration(ms int64) string {
	d := time.Duration(ms) * time.Millisecond
	switch {
	case d < time.Minute:
		return "less than a minute"
	case d < time.Hour:
		return fmt.Sprintf("%dm", int(d.Minutes()))
	case d < 24*time.Hour:
		h := int(d.Hours())
		m := int(d.Minutes()) - h*60
		if m == 0 {
			return fmt.Sprintf("%dh", h)
		}
		return fmt.Sprintf("%dh %dm", h, m)
	default:
		return fmt.Sprintf("%dd", int(d.Hours()/24))
	}
}
