package unit

import (
	"context"

	"github.com/google/uuid"

	"github.com/Shkelqim-Durmishi/Sistemi-Menaxhimit-Personelit-Ushtarak-sub000/pkg/serrors"
)

var ErrNotFound = serrors.NewNotFound("unit")

type Repository interface {
	GetAll(ctx context.Context) ([]Unit, error)
	GetByID(ctx context.Context, id uuid.UUID) (Unit, error)
}
