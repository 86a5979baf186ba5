package lab

import (
	"context"

	"github.com/google/uuid"
)

type ResultRepository interface {
	Create(ctx context.Context, r *Result) error
	GetByID(ctx context.Context, id uuid.UUID) (*Result, error)
	Acknowledge(ctx context.Context, id uuid.UUID) (*Result, error)
	ListByPatient(ctx context.Context, patientID uuid.UUID, limit int) ([]*Result, error)
	UnackedCriticalByPatient(ctx context.Context) (map[uuid.UUID]int, error)
}
