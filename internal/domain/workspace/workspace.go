// Package workspace keeps each clinician's personal patient list, the
// subset of the ward they are actively carrying. Like shift notes it
// lives in Redis: the list belongs to a user's working day, not to the
// chart, and expires rather than accruing.
package workspace

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/wardboard/wardboard/internal/platform/localcache"
)

const (
	maxPinned    = 30
	workspaceTTL = 7 * 24 * time.Hour
)

type Service struct {
	kv     localcache.KVStore
	logger zerolog.Logger
}

func NewService(kv localcache.KVStore, logger zerolog.Logger) *Service {
	return &Service{kv: kv, logger: logger}
}

func key(user string) string {
	return "workspace:" + user
}

// Pin appends a patient to the user's list, keeping insertion order.
// Pinning an already-pinned patient is a no-op.
func (s *Service) Pin(ctx context.Context, user string, patientID uuid.UUID) ([]uuid.UUID, error) {
	if user == "" {
		return nil, fmt.Errorf("user is required")
	}
	ids, err := s.List(ctx, user)
	if err != nil {
		return nil, err
	}
	for _, id := range ids {
		if id == patientID {
			return ids, nil
		}
	}
	if len(ids) >= maxPinned {
		return nil, fmt.Errorf("workspace is full (%d patients)", maxPinned)
	}
	ids = append(ids, patientID)
	if err := localcache.SetJSON(ctx, s.kv, key(user), ids, workspaceTTL); err != nil {
		return nil, err
	}
	return ids, nil
}

// Unpin removes one patient. Unpinning a patient not on the list is a
// no-op.
func (s *Service) Unpin(ctx context.Context, user string, patientID uuid.UUID) ([]uuid.UUID, error) {
	ids, err := s.List(ctx, user)
	if err != nil {
		return nil, err
	}
	kept := ids[:0]
	for _, id := range ids {
		if id != patientID {
			kept = append(kept, id)
		}
	}
	if len(kept) == 0 {
		return nil, s.kv.Delete(ctx, key(user))
	}
	if err := localcache.SetJSON(ctx, s.kv, key(user), kept, workspaceTTL); err != nil {
		return nil, err
	}
	return kept, nil
}

func (s *Service) List(ctx context.Context, user string) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	localcache.GetJSON(ctx, s.kv, key(user), &ids)
	return ids, nil
}

func (s *Service) Clear(ctx context.Context, user string) error {
	return s.kv.Delete(ctx, key(user))
}
