package lab

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// PatientSnapshotter republishes the patient collection; critical lab
// state changes reorder the ward view, so subscribers need a fresh push.
type PatientSnapshotter interface {
	PublishPatients(ctx context.Context)
}

type Service struct {
	results  ResultRepository
	patients PatientSnapshotter
	logger   zerolog.Logger
}

func NewService(results ResultRepository, patients PatientSnapshotter, logger zerolog.Logger) *Service {
	return &Service{results: results, patients: patients, logger: logger}
}

var validFlags = map[string]bool{
	FlagCriticalHigh: true,
	FlagCriticalLow:  true,
	FlagHigh:         true,
	FlagLow:          true,
	FlagNormal:       true,
}

func (s *Service) RecordResult(ctx context.Context, r *Result) error {
	if r.Name == "" {
		return fmt.Errorf("name is required")
	}
	if r.Flag == "" {
		r.Flag = FlagNormal
	}
	if !validFlags[r.Flag] {
		return fmt.Errorf("invalid flag: %s", r.Flag)
	}
	if derived, ok := ComputeFlag(r.Name, r.Value); ok {
		if derived != r.Flag {
			s.logger.Debug().
				Str("name", r.Name).
				Str("supplied", r.Flag).
				Str("derived", derived).
				Msg("lab flag derived from reference range")
		}
		r.Flag = derived
	}
	if r.ObservedAt.IsZero() {
		r.ObservedAt = time.Now()
	}
	if err := s.results.Create(ctx, r); err != nil {
		return err
	}
	if r.UnackedCritical() {
		s.logger.Warn().
			Str("patient_id", r.PatientID.String()).
			Str("name", r.Name).
			Str("flag", r.Flag).
			Msg("critical lab recorded")
		s.republish(ctx)
	}
	return nil
}

// Acknowledge marks the result as seen. Acknowledging twice keeps the
// original timestamp.
func (s *Service) Acknowledge(ctx context.Context, id uuid.UUID) (*Result, error) {
	r, err := s.results.Acknowledge(ctx, id)
	if err != nil {
		return nil, err
	}
	if r.Critical() {
		s.republish(ctx)
	}
	return r, nil
}

func (s *Service) ListByPatient(ctx context.Context, patientID uuid.UUID, limit int) ([]*Result, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return s.results.ListByPatient(ctx, patientID, limit)
}

// TrendForAnalyte builds a trend for one analyte over the patient's
// recent history. Short names ("K+", "Hb") resolve to the same trend
// as their canonical analyte.
func (s *Service) TrendForAnalyte(ctx context.Context, patientID uuid.UUID, analyte string) (Trend, error) {
	history, err := s.results.ListByPatient(ctx, patientID, 200)
	if err != nil {
		return Trend{}, err
	}
	want := canonicalAnalyte(analyte)
	var matched []*Result
	for _, r := range history {
		if canonicalAnalyte(r.Name) == want {
			matched = append(matched, r)
		}
	}
	return ComputeTrend(analyte, matched), nil
}

// UnackedCriticalByPatient returns, per patient, how many critical
// results still await acknowledgement.
func (s *Service) UnackedCriticalByPatient(ctx context.Context) (map[uuid.UUID]int, error) {
	return s.results.UnackedCriticalByPatient(ctx)
}

func (s *Service) republish(ctx context.Context) {
	if s.patients == nil {
		return
	}
	s.patients.PublishPatients(ctx)
}
