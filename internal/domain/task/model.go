package task

import (
	"time"

	"github.com/google/uuid"

	"github.com/wardboard/wardboard/internal/engine/rank"
	"github.com/wardboard/wardboard/internal/engine/temporal"
)

// Task statuses. A task is "open" while pending or in progress.
const (
	StatusPending    = "pending"
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
	StatusCancelled  = "cancelled"
)

// Task maps to the task table. PatientID is nullable: tasks may reference
// a temporary or external case that has no unit patient record, in which
// case CaseLabel carries the display name.
type Task struct {
	ID          uuid.UUID  `db:"id" json:"id"`
	PatientID   *uuid.UUID `db:"patient_id" json:"patient_id,omitempty"`
	CaseLabel   *string    `db:"case_label" json:"case_label,omitempty"`
	Title       string     `db:"title" json:"title"`
	Priority    string     `db:"priority" json:"priority"`
	Status      string     `db:"status" json:"status"`
	DueAt       *time.Time `db:"due_at" json:"due_at,omitempty"`
	CompletedAt *time.Time `db:"completed_at" json:"completed_at,omitempty"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at" json:"updated_at"`
}

// Open reports whether the task still needs doing.
func (t *Task) Open() bool {
	return t.Status == StatusPending || t.Status == StatusInProgress
}

// RankKey builds the ordering key for this task at the given instant.
func (t *Task) RankKey(now time.Time) rank.TaskKey {
	return rank.TaskKey{
		Classification: temporal.Classify(t.DueAt, now),
		Priority:       t.Priority,
		UpdatedAt:      t.UpdatedAt,
	}
}

// RankedTask is a task plus its temporal classification at evaluation
// time. The classification is derived per request and never persisted.
type RankedTask struct {
	*Task
	Classification temporal.Classification `json:"classification"`
}
