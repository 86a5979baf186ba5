package clerking

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/wardboard/wardboard/internal/platform/notify"
)

// -- Mock Repository --

type mockDraftRepo struct {
	mu      sync.Mutex
	store   map[uuid.UUID]*Draft
	saves   int
	saveErr error
}

func newMockDraftRepo() *mockDraftRepo {
	return &mockDraftRepo{store: make(map[uuid.UUID]*Draft)}
}

func (m *mockDraftRepo) Create(_ context.Context, d *Draft) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	d.ID = uuid.New()
	d.Status = StatusDraft
	m.store[d.ID] = d
	return nil
}

func (m *mockDraftRepo) GetByID(_ context.Context, id uuid.UUID) (*Draft, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.store[id]
	if !ok {
		return nil, fmt.Errorf("not found")
	}
	cp := *d
	return &cp, nil
}

func (m *mockDraftRepo) Save(_ context.Context, d *Draft) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	existing, ok := m.store[d.ID]
	if !ok || existing.Status != StatusDraft {
		return nil
	}
	m.saves++
	cp := *d
	cp.Status = StatusDraft
	m.store[d.ID] = &cp
	return nil
}

func (m *mockDraftRepo) Finalize(_ context.Context, id uuid.UUID) (*Draft, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.store[id]
	if !ok || d.Status != StatusDraft {
		return nil, fmt.Errorf("not finalizable")
	}
	now := time.Now()
	d.Status = StatusFinalized
	d.FinalizedAt = &now
	cp := *d
	return &cp, nil
}

func (m *mockDraftRepo) ListOpen(_ context.Context) ([]*Draft, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*Draft
	for _, d := range m.store {
		if d.Status == StatusDraft {
			out = append(out, d)
		}
	}
	return out, nil
}

func (m *mockDraftRepo) saveCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}

func (m *mockDraftRepo) problemList(id uuid.UUID) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.store[id].ProblemList
}

// -- Mock collaborators --

type mockTaskWriter struct {
	mu        sync.Mutex
	titles    []string
	block     chan struct{}
	entered   chan struct{}
	enterOnce sync.Once
	failAll   bool
}

func (m *mockTaskWriter) CreateFollowUp(_ context.Context, _ *uuid.UUID, _ *string, title, _ string) error {
	if m.entered != nil {
		m.enterOnce.Do(func() { close(m.entered) })
	}
	if m.block != nil {
		<-m.block
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failAll {
		return fmt.Errorf("store down")
	}
	m.titles = append(m.titles, title)
	return nil
}

type mockNotifier struct {
	mu    sync.Mutex
	pages []notify.Escalation
	err   error
}

func (m *mockNotifier) Escalate(_ context.Context, e notify.Escalation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pages = append(m.pages, e)
	return m.err
}

const testDebounce = 20 * time.Millisecond

func newTestService(repo *mockDraftRepo, tw *mockTaskWriter, nf *mockNotifier) (*Service, *Autosaver) {
	saver := NewAutosaver(repo, testDebounce, zerolog.Nop())
	return NewService(repo, saver, tw, nf, zerolog.Nop()), saver
}

func waitForSaves(t *testing.T, repo *mockDraftRepo, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if repo.saveCount() >= want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("saves = %d, want %d", repo.saveCount(), want)
}

func permanentDraft(t *testing.T, svc *Service, problemList string) *Draft {
	t.Helper()
	pid := uuid.New()
	d := &Draft{PatientID: &pid, PatientName: "Rivera, A", ProblemList: problemList}
	if err := svc.CreateDraft(context.Background(), d); err != nil {
		t.Fatalf("CreateDraft: %v", err)
	}
	return d
}

// -- Autosave --

func TestAutosave_CoalescesBurst(t *testing.T) {
	repo := newMockDraftRepo()
	svc, saver := newTestService(repo, &mockTaskWriter{}, &mockNotifier{})
	defer saver.Close()
	ctx := context.Background()

	d := permanentDraft(t, svc, "")
	for i := 0; i < 5; i++ {
		edit := *d
		edit.History = fmt.Sprintf("revision %d", i)
		edit.ProblemList = fmt.Sprintf("problem rev %d", i)
		if err := svc.SaveDraft(ctx, &edit); err != nil {
			t.Fatal(err)
		}
		time.Sleep(2 * time.Millisecond)
	}

	waitForSaves(t, repo, 1)
	time.Sleep(3 * testDebounce)
	if got := repo.saveCount(); got != 1 {
		t.Errorf("saves = %d, want exactly 1 for a burst", got)
	}
	if got := repo.problemList(d.ID); got != "problem rev 4" {
		t.Errorf("persisted snapshot = %q, want the last edit", got)
	}
}

func TestAutosave_LaterEditWinsOverArmedTimer(t *testing.T) {
	repo := newMockDraftRepo()
	svc, saver := newTestService(repo, &mockTaskWriter{}, &mockNotifier{})
	defer saver.Close()
	ctx := context.Background()

	d := permanentDraft(t, svc, "")
	stale := *d
	stale.History = "stale"
	if err := svc.SaveDraft(ctx, &stale); err != nil {
		t.Fatal(err)
	}
	fresh := *d
	fresh.History = "fresh"
	fresh.ProblemList = "fresh problems"
	if err := svc.SaveDraft(ctx, &fresh); err != nil {
		t.Fatal(err)
	}

	waitForSaves(t, repo, 1)
	if got := repo.problemList(d.ID); got != "fresh problems" {
		t.Errorf("persisted %q, want the snapshot queued after the timer was armed", got)
	}
}

func TestAutosave_CancelDropsPending(t *testing.T) {
	repo := newMockDraftRepo()
	svc, saver := newTestService(repo, &mockTaskWriter{}, &mockNotifier{})
	defer saver.Close()
	ctx := context.Background()

	d := permanentDraft(t, svc, "")
	edit := *d
	edit.History = "unsaved"
	if err := svc.SaveDraft(ctx, &edit); err != nil {
		t.Fatal(err)
	}
	svc.DiscardPending(d.ID)

	time.Sleep(3 * testDebounce)
	if got := repo.saveCount(); got != 0 {
		t.Errorf("saves = %d, want 0 after cancel", got)
	}
}

func TestAutosave_CloseCancelsAll(t *testing.T) {
	repo := newMockDraftRepo()
	svc, saver := newTestService(repo, &mockTaskWriter{}, &mockNotifier{})
	ctx := context.Background()

	d := permanentDraft(t, svc, "")
	edit := *d
	edit.History = "unsaved"
	if err := svc.SaveDraft(ctx, &edit); err != nil {
		t.Fatal(err)
	}
	saver.Close()

	time.Sleep(3 * testDebounce)
	if got := repo.saveCount(); got != 0 {
		t.Errorf("saves = %d, want 0 after close", got)
	}
}

func TestAutosave_FailureSwallowedAndRetriedByNextEdit(t *testing.T) {
	repo := newMockDraftRepo()
	svc, saver := newTestService(repo, &mockTaskWriter{}, &mockNotifier{})
	defer saver.Close()
	ctx := context.Background()

	d := permanentDraft(t, svc, "")
	repo.mu.Lock()
	repo.saveErr = fmt.Errorf("db down")
	repo.mu.Unlock()

	edit := *d
	edit.History = "first try"
	if err := svc.SaveDraft(ctx, &edit); err != nil {
		t.Fatal(err)
	}
	time.Sleep(3 * testDebounce)
	if got := repo.saveCount(); got != 0 {
		t.Fatalf("saves = %d, want 0 while storage is down", got)
	}

	repo.mu.Lock()
	repo.saveErr = nil
	repo.mu.Unlock()

	retry := *d
	retry.History = "second try"
	if err := svc.SaveDraft(ctx, &retry); err != nil {
		t.Fatal(err)
	}
	waitForSaves(t, repo, 1)
}

// -- Finalize --

func TestFinalize_EscalatesPermanentWithUrgentProblems(t *testing.T) {
	repo := newMockDraftRepo()
	tw := &mockTaskWriter{}
	nf := &mockNotifier{}
	svc, saver := newTestService(repo, tw, nf)
	defer saver.Close()
	ctx := context.Background()

	d := permanentDraft(t, svc, "1) septic shock\n2) !fast AF\n3) constipation")
	res, err := svc.Finalize(ctx, d.ID)
	if err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	if !res.Escalated {
		t.Error("expected escalation for a unit patient with urgent problems")
	}
	if res.TasksCreated != 2 {
		t.Errorf("tasks created = %d, want 2", res.TasksCreated)
	}
	if len(nf.pages) != 1 {
		t.Fatalf("pages = %d, want 1", len(nf.pages))
	}
	if len(nf.pages[0].Problems) != 2 {
		t.Errorf("paged problems = %v, want the two urgent ones", nf.pages[0].Problems)
	}

	got, err := svc.GetDraft(ctx, d.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !got.Finalized() {
		t.Error("draft should be finalized")
	}
}

func TestFinalize_TemporaryCaseNeverEscalates(t *testing.T) {
	repo := newMockDraftRepo()
	tw := &mockTaskWriter{}
	nf := &mockNotifier{}
	svc, saver := newTestService(repo, tw, nf)
	defer saver.Close()
	ctx := context.Background()

	label := "ED bay 4"
	d := &Draft{CaseLabel: &label, PatientName: "Unknown male", ProblemList: "!!!cardiac arrest"}
	if err := svc.CreateDraft(ctx, d); err != nil {
		t.Fatal(err)
	}

	res, err := svc.Finalize(ctx, d.ID)
	if err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	if res.Escalated {
		t.Error("temporary cases must never escalate")
	}
	if len(nf.pages) != 0 {
		t.Errorf("pages = %d, want 0", len(nf.pages))
	}
	if res.TasksCreated != 1 {
		t.Errorf("tasks created = %d, want follow-ups even without escalation", res.TasksCreated)
	}
}

func TestFinalize_NoUrgentProblems(t *testing.T) {
	repo := newMockDraftRepo()
	tw := &mockTaskWriter{}
	nf := &mockNotifier{}
	svc, saver := newTestService(repo, tw, nf)
	defer saver.Close()

	d := permanentDraft(t, svc, "constipation\nmild ankle swelling")
	res, err := svc.Finalize(context.Background(), d.ID)
	if err != nil {
		t.Fatal(err)
	}
	if res.Escalated || res.TasksCreated != 0 || len(nf.pages) != 0 {
		t.Errorf("result = %+v pages = %d, want no side effects", res, len(nf.pages))
	}
}

func TestFinalize_FlushesPendingEditFirst(t *testing.T) {
	repo := newMockDraftRepo()
	tw := &mockTaskWriter{}
	nf := &mockNotifier{}
	svc, saver := newTestService(repo, tw, nf)
	defer saver.Close()
	ctx := context.Background()

	d := permanentDraft(t, svc, "constipation")
	edit := *d
	edit.ProblemList = "sepsis"
	if err := svc.SaveDraft(ctx, &edit); err != nil {
		t.Fatal(err)
	}

	// Finalize lands before the debounce window would have fired. The
	// decision must still come from the just-queued edit.
	res, err := svc.Finalize(ctx, d.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !res.Escalated {
		t.Error("escalation should reflect the flushed snapshot, not the stored one")
	}
	if got := repo.problemList(d.ID); got != "sepsis" {
		t.Errorf("persisted problem list = %q, want the flushed edit", got)
	}
}

func TestFinalize_FlushFailureBlocksCommit(t *testing.T) {
	repo := newMockDraftRepo()
	// Long debounce keeps the edit pending so finalize's forced flush
	// is the save that fails.
	saver := NewAutosaver(repo, time.Hour, zerolog.Nop())
	svc := NewService(repo, saver, &mockTaskWriter{}, &mockNotifier{}, zerolog.Nop())
	defer saver.Close()
	ctx := context.Background()

	d := permanentDraft(t, svc, "")
	edit := *d
	edit.ProblemList = "sepsis"
	if err := svc.SaveDraft(ctx, &edit); err != nil {
		t.Fatal(err)
	}
	repo.mu.Lock()
	repo.saveErr = fmt.Errorf("db down")
	repo.mu.Unlock()

	if _, err := svc.Finalize(ctx, d.ID); err == nil {
		t.Fatal("expected finalize to fail when the forced save fails")
	}
	got, err := svc.GetDraft(ctx, d.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Finalized() {
		t.Error("draft must stay a draft after a failed finalize")
	}
}

func TestFinalize_NotReentrant(t *testing.T) {
	repo := newMockDraftRepo()
	tw := &mockTaskWriter{block: make(chan struct{}), entered: make(chan struct{})}
	nf := &mockNotifier{}
	svc, saver := newTestService(repo, tw, nf)
	defer saver.Close()
	ctx := context.Background()

	d := permanentDraft(t, svc, "sepsis")

	done := make(chan error, 1)
	go func() {
		_, err := svc.Finalize(ctx, d.ID)
		done <- err
	}()

	// Wait until the first call is parked inside task creation, then
	// try again.
	<-tw.entered
	if _, err := svc.Finalize(ctx, d.ID); err != ErrFinalizeInFlight {
		t.Fatalf("second call error = %v, want ErrFinalizeInFlight", err)
	}

	close(tw.block)
	if err := <-done; err != nil {
		t.Fatalf("first finalize: %v", err)
	}
}

func TestFinalize_EscalationDeliveryFailureStillEscalates(t *testing.T) {
	repo := newMockDraftRepo()
	tw := &mockTaskWriter{}
	nf := &mockNotifier{err: fmt.Errorf("pager gateway timeout")}
	svc, saver := newTestService(repo, tw, nf)
	defer saver.Close()

	d := permanentDraft(t, svc, "stroke")
	res, err := svc.Finalize(context.Background(), d.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !res.Escalated {
		t.Error("delivery failure should not unwind the escalation decision")
	}
}

func TestSaveDraft_FinalizedIsRejected(t *testing.T) {
	repo := newMockDraftRepo()
	svc, saver := newTestService(repo, &mockTaskWriter{}, &mockNotifier{})
	defer saver.Close()
	ctx := context.Background()

	d := permanentDraft(t, svc, "")
	if _, err := svc.Finalize(ctx, d.ID); err != nil {
		t.Fatal(err)
	}
	edit := *d
	edit.History = "late edit"
	if err := svc.SaveDraft(ctx, &edit); err != ErrAlreadyFinalized {
		t.Errorf("err = %v, want ErrAlreadyFinalized", err)
	}
}
