// Package note keeps short-lived shift notes per patient. Notes live in
// Redis rather than Postgres: they are scratchpad content for the current
// shift and expire on their own instead of accruing in the chart.
package note

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/wardboard/wardboard/internal/platform/localcache"
)

const (
	maxNotes = 50
	noteTTL  = 24 * time.Hour
)

type Note struct {
	ID        uuid.UUID `json:"id"`
	PatientID uuid.UUID `json:"patient_id"`
	Text      string    `json:"text"`
	Author    string    `json:"author,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type Service struct {
	kv     localcache.KVStore
	logger zerolog.Logger
}

func NewService(kv localcache.KVStore, logger zerolog.Logger) *Service {
	return &Service{kv: kv, logger: logger}
}

func key(patientID uuid.UUID) string {
	return "notes:" + patientID.String()
}

func (s *Service) Add(ctx context.Context, patientID uuid.UUID, text, author string) (*Note, error) {
	if text == "" {
		return nil, fmt.Errorf("text is required")
	}
	n := Note{
		ID:        uuid.New(),
		PatientID: patientID,
		Text:      text,
		Author:    author,
		CreatedAt: time.Now().UTC(),
	}

	notes, err := s.List(ctx, patientID)
	if err != nil {
		return nil, err
	}
	notes = append(notes, n)
	if len(notes) > maxNotes {
		notes = notes[len(notes)-maxNotes:]
	}
	if err := localcache.SetJSON(ctx, s.kv, key(patientID), notes, noteTTL); err != nil {
		return nil, err
	}
	return &n, nil
}

func (s *Service) List(ctx context.Context, patientID uuid.UUID) ([]Note, error) {
	var notes []Note
	localcache.GetJSON(ctx, s.kv, key(patientID), &notes)
	return notes, nil
}

func (s *Service) Clear(ctx context.Context, patientID uuid.UUID) error {
	return s.kv.Delete(ctx, key(patientID))
}
