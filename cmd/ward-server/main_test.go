package main

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/wardboard/wardboard/internal/domain/task"
)

type fakeTaskRepo struct {
	created []*task.Task
}

func (f *fakeTaskRepo) Create(_ context.Context, t *task.Task) error {
	t.ID = uuid.New()
	f.created = append(f.created, t)
	return nil
}

func (f *fakeTaskRepo) GetByID(context.Context, uuid.UUID) (*task.Task, error) {
	return nil, fmt.Errorf("not found")
}
func (f *fakeTaskRepo) Update(context.Context, *task.Task) error  { return nil }
func (f *fakeTaskRepo) Delete(context.Context, uuid.UUID) error   { return nil }
func (f *fakeTaskRepo) ListByPatient(context.Context, uuid.UUID) ([]*task.Task, error) {
	return nil, nil
}
func (f *fakeTaskRepo) ListOpen(context.Context) ([]*task.Task, error) { return nil, nil }
func (f *fakeTaskRepo) CountOpenByPatient(context.Context) (map[uuid.UUID]int, error) {
	return nil, nil
}

func TestFollowUpWriter_CreatesPendingTask(t *testing.T) {
	repo := &fakeTaskRepo{}
	writer := &followUpWriter{tasks: task.NewService(repo, nil, nil, zerolog.Nop())}

	pid := uuid.New()
	if err := writer.CreateFollowUp(context.Background(), &pid, nil, "Review: sepsis", "critical"); err != nil {
		t.Fatalf("CreateFollowUp: %v", err)
	}

	if len(repo.created) != 1 {
		t.Fatalf("created %d tasks, want 1", len(repo.created))
	}
	created := repo.created[0]
	if created.PatientID == nil || *created.PatientID != pid {
		t.Errorf("patient_id = %v, want %s", created.PatientID, pid)
	}
	if created.Priority != "critical" {
		t.Errorf("priority = %q, want critical", created.Priority)
	}
	if created.Status != task.StatusPending {
		t.Errorf("status = %q, want pending", created.Status)
	}
}

func TestFollowUpWriter_TemporaryCase(t *testing.T) {
	repo := &fakeTaskRepo{}
	writer := &followUpWriter{tasks: task.NewService(repo, nil, nil, zerolog.Nop())}

	label := "ED bay 4"
	if err := writer.CreateFollowUp(context.Background(), nil, &label, "Review: stroke", "high"); err != nil {
		t.Fatalf("CreateFollowUp: %v", err)
	}

	created := repo.created[0]
	if created.PatientID != nil {
		t.Error("temporary case should have no patient id")
	}
	if created.CaseLabel == nil || *created.CaseLabel != label {
		t.Errorf("case_label = %v, want %q", created.CaseLabel, label)
	}
}
