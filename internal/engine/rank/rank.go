// Package rank defines the total orders used by the ward dashboard: the
// task work list (overdue first) and the patient ward view (sickest
// first). Every ordering is deterministic; callers sort with
// sort.SliceStable so insertion order breaks any remaining ties.
package rank

import (
	"time"

	"github.com/wardboard/wardboard/internal/engine/temporal"
	"github.com/wardboard/wardboard/pkg/natsort"
)

// Task priority tiers in rank order. Unknown values sort after low.
const (
	PriorityCritical = "critical"
	PriorityHigh     = "high"
	PriorityMedium   = "medium"
	PriorityLow      = "low"
)

var priorityRank = map[string]int{
	PriorityCritical: 0,
	PriorityHigh:     1,
	PriorityMedium:   2,
	PriorityLow:      3,
}

// PriorityRank maps a priority tier to its position in the fixed total
// order; unknown tiers sort last.
func PriorityRank(p string) int {
	if r, ok := priorityRank[p]; ok {
		return r
	}
	return len(priorityRank)
}

// ValidPriority reports whether p is one of the four known tiers.
func ValidPriority(p string) bool {
	_, ok := priorityRank[p]
	return ok
}

// TaskKey carries everything the task ordering needs. Classification must
// have been computed against the same "now" for every key in a sort.
type TaskKey struct {
	Classification temporal.Classification
	Priority       string
	UpdatedAt      time.Time
}

// LessTask implements the work-list order: overdue first, then due-soon,
// then priority tier, then earlier deadline (a deadline beats none), then
// most recently updated.
func LessTask(a, b TaskKey) bool {
	if a.Classification.IsOverdue != b.Classification.IsOverdue {
		return a.Classification.IsOverdue
	}
	if a.Classification.IsDueSoon != b.Classification.IsDueSoon {
		return a.Classification.IsDueSoon
	}
	if ra, rb := PriorityRank(a.Priority), PriorityRank(b.Priority); ra != rb {
		return ra < rb
	}

	da, db := a.Classification.DueAtMs, b.Classification.DueAtMs
	switch {
	case da != nil && db != nil:
		if *da != *db {
			return *da < *db
		}
	case da != nil:
		return true
	case db != nil:
		return false
	}

	return a.UpdatedAt.After(b.UpdatedAt)
}

// PatientKey carries everything the patient orderings need.
type PatientKey struct {
	Acuity             int
	HasUnackedCritical bool
	BedLabel           string
	Name               string
	UpdatedAt          time.Time
}

// Mode selects one of the alternate patient sort orders. All modes are
// total orders over the same set; sorting never mutates the source
// collection.
type Mode string

const (
	ModeAcuity  Mode = "acuity" // ward view default
	ModeBed     Mode = "bed"
	ModeName    Mode = "name"
	ModeUpdated Mode = "updated"
)

// ValidMode reports whether m names a known sort mode.
func ValidMode(m Mode) bool {
	switch m {
	case ModeAcuity, ModeBed, ModeName, ModeUpdated:
		return true
	}
	return false
}

// LessPatient implements the ward-view default order: acuity ascending
// (1 = most severe), unacknowledged critical labs first, then bed label in
// natural order.
func LessPatient(a, b PatientKey) bool {
	if ca, cb := ClampAcuity(a.Acuity), ClampAcuity(b.Acuity); ca != cb {
		return ca < cb
	}
	if a.HasUnackedCritical != b.HasUnackedCritical {
		return a.HasUnackedCritical
	}
	return natsort.Less(a.BedLabel, b.BedLabel)
}

// LessPatientMode applies the selected sort mode; unknown modes fall back
// to the default ward order.
func LessPatientMode(m Mode, a, b PatientKey) bool {
	switch m {
	case ModeBed:
		return natsort.Less(a.BedLabel, b.BedLabel)
	case ModeName:
		if a.Name != b.Name {
			return a.Name < b.Name
		}
		return natsort.Less(a.BedLabel, b.BedLabel)
	case ModeUpdated:
		if !a.UpdatedAt.Equal(b.UpdatedAt) {
			return a.UpdatedAt.After(b.UpdatedAt)
		}
		return natsort.Less(a.BedLabel, b.BedLabel)
	default:
		return LessPatient(a, b)
	}
}

// ClampAcuity forces an acuity rating into [1,5]. Out-of-range values are
// upstream data-quality issues; the engine orders them as if clamped
// rather than failing.
func ClampAcuity(a int) int {
	if a < 1 {
		return 1
	}
	if a > 5 {
		return 5
	}
	return a
}
