package task

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/wardboard/wardboard/internal/engine/rank"
	"github.com/wardboard/wardboard/internal/engine/temporal"
)

// SnapshotPublisher receives the ranked open-task collection after every
// mutation and on the periodic reclassification tick.
type SnapshotPublisher interface {
	PublishSnapshot(topic string, data interface{})
}

const snapshotTopic = "tasks"

type Service struct {
	tasks     TaskRepository
	publisher SnapshotPublisher
	clock     temporal.Clock
	logger    zerolog.Logger
}

func NewService(tasks TaskRepository, publisher SnapshotPublisher, clock temporal.Clock, logger zerolog.Logger) *Service {
	if clock == nil {
		clock = temporal.SystemClock{}
	}
	return &Service{tasks: tasks, publisher: publisher, clock: clock, logger: logger}
}

var validStatuses = map[string]bool{
	StatusPending:    true,
	StatusInProgress: true,
	StatusCompleted:  true,
	StatusCancelled:  true,
}

func (s *Service) CreateTask(ctx context.Context, t *Task) error {
	if t.Title == "" {
		return fmt.Errorf("title is required")
	}
	if t.Priority == "" {
		t.Priority = rank.PriorityMedium
	}
	if !rank.ValidPriority(t.Priority) {
		return fmt.Errorf("invalid priority: %s", t.Priority)
	}
	if t.Status == "" {
		t.Status = StatusPending
	}
	if !validStatuses[t.Status] {
		return fmt.Errorf("invalid status: %s", t.Status)
	}
	if err := s.tasks.Create(ctx, t); err != nil {
		return err
	}
	s.PublishRanked(ctx)
	return nil
}

func (s *Service) GetTask(ctx context.Context, id uuid.UUID) (*Task, error) {
	return s.tasks.GetByID(ctx, id)
}

func (s *Service) UpdateTask(ctx context.Context, t *Task) error {
	if t.Priority != "" && !rank.ValidPriority(t.Priority) {
		return fmt.Errorf("invalid priority: %s", t.Priority)
	}
	if t.Status != "" && !validStatuses[t.Status] {
		return fmt.Errorf("invalid status: %s", t.Status)
	}
	if err := s.tasks.Update(ctx, t); err != nil {
		return err
	}
	s.PublishRanked(ctx)
	return nil
}

// CompleteTask marks the task done and stamps the completion time.
func (s *Service) CompleteTask(ctx context.Context, id uuid.UUID) (*Task, error) {
	t, err := s.tasks.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	now := s.clock.Now()
	t.Status = StatusCompleted
	t.CompletedAt = &now
	if err := s.tasks.Update(ctx, t); err != nil {
		return nil, err
	}
	s.PublishRanked(ctx)
	return t, nil
}

func (s *Service) DeleteTask(ctx context.Context, id uuid.UUID) error {
	if err := s.tasks.Delete(ctx, id); err != nil {
		return err
	}
	s.PublishRanked(ctx)
	return nil
}

// ListRankedByPatient returns the patient's tasks in working order:
// overdue first, then due soon, then by priority tier, earlier deadline,
// deadline over none, most recently touched.
func (s *Service) ListRankedByPatient(ctx context.Context, patientID uuid.UUID) ([]RankedTask, error) {
	items, err := s.tasks.ListByPatient(ctx, patientID)
	if err != nil {
		return nil, err
	}
	return s.rankTasks(items), nil
}

// ListRankedOpen returns every open task across the unit in working order.
func (s *Service) ListRankedOpen(ctx context.Context) ([]RankedTask, error) {
	items, err := s.tasks.ListOpen(ctx)
	if err != nil {
		return nil, err
	}
	return s.rankTasks(items), nil
}

func (s *Service) CountOpenByPatient(ctx context.Context) (map[uuid.UUID]int, error) {
	return s.tasks.CountOpenByPatient(ctx)
}

// rankTasks sorts and classifies at a single instant so every task in the
// response is judged against the same clock reading.
func (s *Service) rankTasks(items []*Task) []RankedTask {
	now := s.clock.Now()
	keys := make(map[uuid.UUID]rank.TaskKey, len(items))
	for _, t := range items {
		keys[t.ID] = t.RankKey(now)
	}
	sort.SliceStable(items, func(i, j int) bool {
		return rank.LessTask(keys[items[i].ID], keys[items[j].ID])
	})
	ranked := make([]RankedTask, len(items))
	for i, t := range items {
		ranked[i] = RankedTask{Task: t, Classification: keys[t.ID].Classification}
	}
	return ranked
}

// PublishRanked pushes a fresh ranked snapshot of open tasks. The
// reclassification ticker calls this too, so due-soon and overdue labels
// stay current even when nothing is edited.
func (s *Service) PublishRanked(ctx context.Context) {
	if s.publisher == nil {
		return
	}
	ranked, err := s.ListRankedOpen(ctx)
	if err != nil {
		s.logger.Warn().Err(err).Msg("task snapshot skipped")
		return
	}
	s.publisher.PublishSnapshot(snapshotTopic, ranked)
}

// Reclassify republishes the open-task snapshot on the given interval
// until ctx is cancelled.
func (s *Service) Reclassify(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.PublishRanked(ctx)
		}
	}
}
