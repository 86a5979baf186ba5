package patient

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/wardboard/wardboard/internal/engine/rank"
)

// SnapshotPublisher receives the full patient collection after every
// mutation; the websocket hub implements it.
type SnapshotPublisher interface {
	PublishSnapshot(topic string, data interface{})
}

const snapshotTopic = "patients"

type Service struct {
	patients  PatientRepository
	publisher SnapshotPublisher
	logger    zerolog.Logger
}

func NewService(patients PatientRepository, publisher SnapshotPublisher, logger zerolog.Logger) *Service {
	return &Service{patients: patients, publisher: publisher, logger: logger}
}

var validStates = map[string]bool{
	StateIncoming:          true,
	StateActive:            true,
	StateUnstable:          true,
	StateReadyForDischarge: true,
	StateDischarged:        true,
}

func (s *Service) CreatePatient(ctx context.Context, p *Patient) error {
	if p.Name == "" {
		return fmt.Errorf("name is required")
	}
	if p.State == "" {
		p.State = StateIncoming
	}
	if !validStates[p.State] {
		return fmt.Errorf("invalid state: %s", p.State)
	}
	s.clampAcuity(p)
	if err := s.patients.Create(ctx, p); err != nil {
		return err
	}
	s.publish(ctx)
	return nil
}

func (s *Service) GetPatient(ctx context.Context, id uuid.UUID) (*Patient, error) {
	return s.patients.GetByID(ctx, id)
}

func (s *Service) GetPatientByMRN(ctx context.Context, mrn string) (*Patient, error) {
	return s.patients.GetByMRN(ctx, mrn)
}

func (s *Service) UpdatePatient(ctx context.Context, p *Patient) error {
	if p.State != "" && !validStates[p.State] {
		return fmt.Errorf("invalid state: %s", p.State)
	}
	s.clampAcuity(p)
	if err := s.patients.Update(ctx, p); err != nil {
		return err
	}
	s.publish(ctx)
	return nil
}

func (s *Service) DeletePatient(ctx context.Context, id uuid.UUID) error {
	if err := s.patients.Delete(ctx, id); err != nil {
		return err
	}
	s.publish(ctx)
	return nil
}

func (s *Service) ListPatientsByWard(ctx context.Context, wardID uuid.UUID) ([]*Patient, error) {
	return s.patients.ListByWard(ctx, wardID)
}

func (s *Service) ListPatients(ctx context.Context, limit, offset int) ([]*Patient, int, error) {
	return s.patients.ListAll(ctx, limit, offset)
}

// clampAcuity keeps acuity inside [1,5]. Out-of-range ratings come from
// upstream feeds and are a data-quality problem, not a reason to reject
// the record.
func (s *Service) clampAcuity(p *Patient) {
	if clamped := rank.ClampAcuity(p.Acuity); clamped != p.Acuity {
		s.logger.Warn().
			Str("patient", p.Name).
			Int("acuity", p.Acuity).
			Int("clamped", clamped).
			Msg("acuity out of range, clamping")
		p.Acuity = clamped
	}
}

// PublishPatients republishes the full patient snapshot. Other domains
// call this when something they own changes the ward ordering, such as
// a critical lab landing or being acknowledged.
func (s *Service) PublishPatients(ctx context.Context) {
	s.publish(ctx)
}

// publish pushes a fresh full-collection snapshot. Failures to read the
// collection degrade to a skipped push; clients stay on the previous
// snapshot until the next mutation.
func (s *Service) publish(ctx context.Context) {
	if s.publisher == nil {
		return
	}
	items, _, err := s.patients.ListAll(ctx, 500, 0)
	if err != nil {
		s.logger.Warn().Err(err).Msg("patient snapshot skipped")
		return
	}
	s.publisher.PublishSnapshot(snapshotTopic, items)
}
