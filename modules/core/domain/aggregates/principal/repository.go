package principal

import (
	"context"

	"github.com/google/uuid"

	"github.com/Shkelqim-Durmishi/Sistemi-Menaxhimit-Personelit-Ushtarak-sub000/pkg/serrors"
)

var ErrNotFound = serrors.NewNotFound("principal")

type Repository interface {
	GetByID(ctx context.Context, id uuid.UUID) (Principal, error)
	GetByEmail(ctx context.Context, email string) (Principal, error)
	Create(ctx context.Context, p Principal) (Principal, error)
}
