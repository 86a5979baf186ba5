package clerking

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/wardboard/wardboard/internal/engine/problems"
	"github.com/wardboard/wardboard/internal/platform/notify"
)

var (
	ErrFinalizeInFlight = errors.New("finalize already in flight for this draft")
	ErrAlreadyFinalized = errors.New("draft is already finalized")
)

// TaskWriter creates follow-up tasks for urgent problems found at
// finalization. The task domain provides the implementation; the adapter
// is wired in main.
type TaskWriter interface {
	CreateFollowUp(ctx context.Context, patientID *uuid.UUID, caseLabel *string, title, priority string) error
}

type Service struct {
	drafts DraftRepository
	saver  *Autosaver
	tasks  TaskWriter
	oncall notify.OncallNotifier
	logger zerolog.Logger

	mu       sync.Mutex
	inflight map[uuid.UUID]bool
}

func NewService(drafts DraftRepository, saver *Autosaver, tasks TaskWriter, oncall notify.OncallNotifier, logger zerolog.Logger) *Service {
	return &Service{
		drafts:   drafts,
		saver:    saver,
		tasks:    tasks,
		oncall:   oncall,
		logger:   logger,
		inflight: make(map[uuid.UUID]bool),
	}
}

func (s *Service) CreateDraft(ctx context.Context, d *Draft) error {
	if d.PatientName == "" {
		return fmt.Errorf("patient_name is required")
	}
	if d.PatientID == nil && (d.CaseLabel == nil || *d.CaseLabel == "") {
		return fmt.Errorf("temporary cases need a case_label")
	}
	return s.drafts.Create(ctx, d)
}

func (s *Service) GetDraft(ctx context.Context, id uuid.UUID) (*Draft, error) {
	return s.drafts.GetByID(ctx, id)
}

func (s *Service) ListOpenDrafts(ctx context.Context) ([]*Draft, error) {
	return s.drafts.ListOpen(ctx)
}

// SaveDraft queues the edit through the debounced autosaver. The write
// lands after the debounce window unless more edits arrive first.
func (s *Service) SaveDraft(ctx context.Context, d *Draft) error {
	existing, err := s.drafts.GetByID(ctx, d.ID)
	if err != nil {
		return err
	}
	if existing.Finalized() {
		return ErrAlreadyFinalized
	}
	s.saver.Queue(d)
	return nil
}

// DiscardPending drops any unsaved edits for the draft.
func (s *Service) DiscardPending(id uuid.UUID) {
	s.saver.Cancel(id)
}

// Problems parses the draft's current problem-list text.
func (s *Service) Problems(ctx context.Context, id uuid.UUID) ([]problems.Problem, error) {
	d, err := s.drafts.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return problems.Parse(d.ProblemList), nil
}

// Finalize commits the draft: it forces any pending autosave through,
// parses the problem list, creates one follow-up task per urgent
// problem, and pages on-call when the patient is a unit record with at
// least one urgent problem. Temporary cases never page on-call. A
// second call while one is in flight for the same draft is rejected.
func (s *Service) Finalize(ctx context.Context, id uuid.UUID) (*FinalizeResult, error) {
	s.mu.Lock()
	if s.inflight[id] {
		s.mu.Unlock()
		return nil, ErrFinalizeInFlight
	}
	s.inflight[id] = true
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		delete(s.inflight, id)
		s.mu.Unlock()
	}()

	// Forced save first, so the committed note and the escalation
	// decision come from the same snapshot.
	if err := s.saver.Flush(ctx, id); err != nil {
		return nil, fmt.Errorf("flush draft: %w", err)
	}

	d, err := s.drafts.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if d.Finalized() {
		return nil, ErrAlreadyFinalized
	}

	parsed := problems.Parse(d.ProblemList)
	var urgent []problems.Problem
	for _, p := range parsed {
		if p.IsUrgent() {
			urgent = append(urgent, p)
		}
	}
	shouldEscalate := d.Permanent() && len(urgent) > 0

	if _, err := s.drafts.Finalize(ctx, id); err != nil {
		return nil, fmt.Errorf("finalize draft: %w", err)
	}

	created := 0
	for _, p := range urgent {
		err := s.tasks.CreateFollowUp(ctx, d.PatientID, d.CaseLabel, "Review: "+p.Title, p.Severity)
		if err != nil {
			s.logger.Error().Err(err).
				Str("draft_id", id.String()).
				Str("problem", p.Title).
				Msg("follow-up task creation failed")
			continue
		}
		created++
	}

	if shouldEscalate {
		titles := make([]string, len(urgent))
		for i, p := range urgent {
			titles[i] = p.Title
		}
		e := notify.Escalation{
			PatientName: d.PatientName,
			NoteID:      id.String(),
			Problems:    titles,
			RaisedAt:    time.Now().UTC(),
		}
		if d.PatientID != nil {
			e.PatientID = d.PatientID.String()
		}
		// The clinical decision to escalate stands even if the page
		// fails to deliver; the failure is logged for follow-up.
		if err := s.oncall.Escalate(ctx, e); err != nil {
			s.logger.Error().Err(err).
				Str("draft_id", id.String()).
				Msg("on-call escalation delivery failed")
		}
	}

	return &FinalizeResult{NoteID: id, TasksCreated: created, Escalated: shouldEscalate}, nil
}
