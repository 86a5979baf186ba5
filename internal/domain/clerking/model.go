package clerking

import (
	"time"

	"github.com/google/uuid"
)

const (
	StatusDraft     = "draft"
	StatusFinalized = "finalized"
)

// Draft is a clerking note being written up for an admission. PatientID
// is set once the admission has a unit record; before that the draft
// hangs off a temporary case label only. Temporary cases never page the
// on-call team, whatever the problem list says.
type Draft struct {
	ID          uuid.UUID  `db:"id" json:"id"`
	PatientID   *uuid.UUID `db:"patient_id" json:"patient_id,omitempty"`
	CaseLabel   *string    `db:"case_label" json:"case_label,omitempty"`
	PatientName string     `db:"patient_name" json:"patient_name"`
	History     string     `db:"history" json:"history"`
	Examination string     `db:"examination" json:"examination"`
	ProblemList string     `db:"problem_list" json:"problem_list"`
	Plan        string     `db:"plan" json:"plan"`
	Status      string     `db:"status" json:"status"`
	FinalizedAt *time.Time `db:"finalized_at" json:"finalized_at,omitempty"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at" json:"updated_at"`
}

// Permanent reports whether the draft is attached to a unit patient
// record rather than a temporary case.
func (d *Draft) Permanent() bool {
	return d.PatientID != nil
}

// Finalized reports whether the write-up has been committed.
func (d *Draft) Finalized() bool {
	return d.Status == StatusFinalized
}

// FinalizeResult reports what committing a draft did.
type FinalizeResult struct {
	NoteID       uuid.UUID `json:"note_id"`
	TasksCreated int       `json:"tasks_created"`
	Escalated    bool      `json:"escalated"`
}
