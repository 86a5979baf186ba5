package clerking

import (
	"context"

	"github.com/google/uuid"
)

type DraftRepository interface {
	Create(ctx context.Context, d *Draft) error
	GetByID(ctx context.Context, id uuid.UUID) (*Draft, error)
	Save(ctx context.Context, d *Draft) error
	Finalize(ctx context.Context, id uuid.UUID) (*Draft, error)
	ListOpen(ctx context.Context) ([]*Draft, error)
}
