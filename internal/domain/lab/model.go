package lab

import (
	"time"

	"github.com/google/uuid"
)

// Result flags, worst first. The two critical flags drive escalation in
// the ward view and triage queue until someone acknowledges them.
const (
	FlagCriticalHigh = "critical_high"
	FlagCriticalLow  = "critical_low"
	FlagHigh         = "high"
	FlagLow          = "low"
	FlagNormal       = "normal"
)

// Result maps to the lab_result table.
type Result struct {
	ID             uuid.UUID  `db:"id" json:"id"`
	PatientID      uuid.UUID  `db:"patient_id" json:"patient_id"`
	Name           string     `db:"name" json:"name"`
	Value          string     `db:"value" json:"value"`
	Unit           string     `db:"unit" json:"unit,omitempty"`
	Flag           string     `db:"flag" json:"flag"`
	ObservedAt     time.Time  `db:"observed_at" json:"observed_at"`
	AcknowledgedAt *time.Time `db:"acknowledged_at" json:"acknowledged_at,omitempty"`
	CreatedAt      time.Time  `db:"created_at" json:"created_at"`
}

// Critical reports whether the flag is one of the two critical bands.
func (r *Result) Critical() bool {
	return r.Flag == FlagCriticalHigh || r.Flag == FlagCriticalLow
}

// UnackedCritical reports whether this result still demands attention.
func (r *Result) UnackedCritical() bool {
	return r.Critical() && r.AcknowledgedAt == nil
}
