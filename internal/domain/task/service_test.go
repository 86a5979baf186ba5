package task

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/wardboard/wardboard/internal/engine/rank"
)

// -- Mock Repository --

type mockTaskRepo struct {
	store map[uuid.UUID]*Task
}

func newMockTaskRepo() *mockTaskRepo {
	return &mockTaskRepo{store: make(map[uuid.UUID]*Task)}
}

func (m *mockTaskRepo) Create(_ context.Context, t *Task) error {
	t.ID = uuid.New()
	m.store[t.ID] = t
	return nil
}

func (m *mockTaskRepo) GetByID(_ context.Context, id uuid.UUID) (*Task, error) {
	t, ok := m.store[id]
	if !ok {
		return nil, fmt.Errorf("not found")
	}
	return t, nil
}

func (m *mockTaskRepo) Update(_ context.Context, t *Task) error {
	if _, ok := m.store[t.ID]; !ok {
		return fmt.Errorf("not found")
	}
	m.store[t.ID] = t
	return nil
}

func (m *mockTaskRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(m.store, id)
	return nil
}

func (m *mockTaskRepo) ListByPatient(_ context.Context, patientID uuid.UUID) ([]*Task, error) {
	var r []*Task
	for _, t := range m.store {
		if t.PatientID != nil && *t.PatientID == patientID {
			r = append(r, t)
		}
	}
	return r, nil
}

func (m *mockTaskRepo) ListOpen(_ context.Context) ([]*Task, error) {
	var r []*Task
	for _, t := range m.store {
		if t.Open() {
			r = append(r, t)
		}
	}
	return r, nil
}

func (m *mockTaskRepo) CountOpenByPatient(_ context.Context) (map[uuid.UUID]int, error) {
	counts := make(map[uuid.UUID]int)
	for _, t := range m.store {
		if t.Open() && t.PatientID != nil {
			counts[*t.PatientID]++
		}
	}
	return counts, nil
}

type mockPublisher struct {
	topics []string
	last   interface{}
}

func (m *mockPublisher) PublishSnapshot(topic string, data interface{}) {
	m.topics = append(m.topics, topic)
	m.last = data
}

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

var testNow = time.Date(2025, 3, 14, 12, 0, 0, 0, time.UTC)

func newTestService(repo *mockTaskRepo, pub *mockPublisher) *Service {
	// Avoid wrapping a nil *mockPublisher in a non-nil interface value,
	// which would defeat the service's nil-publisher guard.
	var p SnapshotPublisher
	if pub != nil {
		p = pub
	}
	return NewService(repo, p, fixedClock{testNow}, zerolog.Nop())
}

// -- Tests --

func TestCreateTask_Defaults(t *testing.T) {
	repo := newMockTaskRepo()
	svc := newTestService(repo, nil)

	task := &Task{Title: "Chase potassium"}
	if err := svc.CreateTask(context.Background(), task); err != nil {
		t.Fatalf("CreateTask: %v", err)
	}
	if task.Priority != rank.PriorityMedium {
		t.Errorf("priority = %q, want %q", task.Priority, rank.PriorityMedium)
	}
	if task.Status != StatusPending {
		t.Errorf("status = %q, want %q", task.Status, StatusPending)
	}
}

func TestCreateTask_Invalid(t *testing.T) {
	svc := newTestService(newMockTaskRepo(), nil)

	if err := svc.CreateTask(context.Background(), &Task{}); err == nil {
		t.Error("expected error for missing title")
	}
	if err := svc.CreateTask(context.Background(), &Task{Title: "x", Priority: "urgent"}); err == nil {
		t.Error("expected error for invalid priority")
	}
	if err := svc.CreateTask(context.Background(), &Task{Title: "x", Status: "done"}); err == nil {
		t.Error("expected error for invalid status")
	}
}

func TestCompleteTask(t *testing.T) {
	repo := newMockTaskRepo()
	svc := newTestService(repo, nil)

	task := &Task{Title: "Discharge summary"}
	if err := svc.CreateTask(context.Background(), task); err != nil {
		t.Fatalf("CreateTask: %v", err)
	}

	done, err := svc.CompleteTask(context.Background(), task.ID)
	if err != nil {
		t.Fatalf("CompleteTask: %v", err)
	}
	if done.Status != StatusCompleted {
		t.Errorf("status = %q, want %q", done.Status, StatusCompleted)
	}
	if done.CompletedAt == nil || !done.CompletedAt.Equal(testNow) {
		t.Errorf("completed_at = %v, want %v", done.CompletedAt, testNow)
	}
}

func TestListRankedOpen_Order(t *testing.T) {
	repo := newMockTaskRepo()
	svc := newTestService(repo, nil)
	ctx := context.Background()

	overdue := testNow.Add(-30 * time.Minute)
	soon := testNow.Add(time.Hour)
	later := testNow.Add(6 * time.Hour)

	mk := func(title, priority string, due *time.Time) {
		if err := svc.CreateTask(ctx, &Task{Title: title, Priority: priority, DueAt: due}); err != nil {
			t.Fatalf("CreateTask(%s): %v", title, err)
		}
	}
	mk("routine bloods", "low", nil)
	mk("review ABG", "critical", &later)
	mk("chase CT report", "medium", &soon)
	mk("give antibiotics", "medium", &overdue)

	ranked, err := svc.ListRankedOpen(ctx)
	if err != nil {
		t.Fatalf("ListRankedOpen: %v", err)
	}
	got := make([]string, len(ranked))
	for i, r := range ranked {
		got[i] = r.Title
	}
	want := []string{"give antibiotics", "chase CT report", "review ABG", "routine bloods"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("order = %v, want %v", got, want)
		}
	}
	if !ranked[0].Classification.IsOverdue {
		t.Error("first task should be classified overdue")
	}
	if !ranked[1].Classification.IsDueSoon {
		t.Error("second task should be classified due soon")
	}
}

func TestListRankedOpen_ExcludesClosed(t *testing.T) {
	repo := newMockTaskRepo()
	svc := newTestService(repo, nil)
	ctx := context.Background()

	open := &Task{Title: "open"}
	closed := &Task{Title: "closed"}
	if err := svc.CreateTask(ctx, open); err != nil {
		t.Fatal(err)
	}
	if err := svc.CreateTask(ctx, closed); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.CompleteTask(ctx, closed.ID); err != nil {
		t.Fatal(err)
	}

	ranked, err := svc.ListRankedOpen(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(ranked) != 1 || ranked[0].Title != "open" {
		t.Errorf("ranked = %v, want just the open task", ranked)
	}
}

func TestMutationsPublishSnapshot(t *testing.T) {
	repo := newMockTaskRepo()
	pub := &mockPublisher{}
	svc := newTestService(repo, pub)
	ctx := context.Background()

	task := &Task{Title: "vitals round"}
	if err := svc.CreateTask(ctx, task); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.CompleteTask(ctx, task.ID); err != nil {
		t.Fatal(err)
	}
	if err := svc.DeleteTask(ctx, task.ID); err != nil {
		t.Fatal(err)
	}

	if len(pub.topics) != 3 {
		t.Fatalf("published %d snapshots, want 3", len(pub.topics))
	}
	for _, topic := range pub.topics {
		if topic != snapshotTopic {
			t.Errorf("topic = %q, want %q", topic, snapshotTopic)
		}
	}
}

func TestCountOpenByPatient(t *testing.T) {
	repo := newMockTaskRepo()
	svc := newTestService(repo, nil)
	ctx := context.Background()

	pid := uuid.New()
	other := uuid.New()
	for i := 0; i < 3; i++ {
		if err := svc.CreateTask(ctx, &Task{Title: fmt.Sprintf("t%d", i), PatientID: &pid}); err != nil {
			t.Fatal(err)
		}
	}
	if err := svc.CreateTask(ctx, &Task{Title: "o", PatientID: &other}); err != nil {
		t.Fatal(err)
	}

	counts, err := svc.CountOpenByPatient(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if counts[pid] != 3 || counts[other] != 1 {
		t.Errorf("counts = %v, want 3 and 1", counts)
	}
}
