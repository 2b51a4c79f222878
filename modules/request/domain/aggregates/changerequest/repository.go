package changerequest

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/Shkelqim-Durmishi/Sistemi-Menaxhimit-Personelit-Ushtarak-sub000/pkg/serrors"
)

var ErrNotFound = serrors.NewNotFound("change request")

type FindParams struct {
	Statuses  []Status
	UnitIDs   []uuid.UUID
	CreatedBy uuid.UUID
	PersonID  uuid.UUID
	Limit     int
	Offset    int
}

type Decision struct {
	DecidedBy uuid.UUID
	DecidedAt time.Time
	Note      *string
}

type Repository interface {
	GetPaginated(ctx context.Context, params *FindParams) ([]ChangeRequest, int64, error)
	GetByID(ctx context.Context, id uuid.UUID) (ChangeRequest, error)
	Create(ctx context.Context, r ChangeRequest) (ChangeRequest, error)
	// SetDecision stamps the decision columns exactly once, inside the
	// same transaction as the status compare-and-swap.
	SetDecision(ctx context.Context, id uuid.UUID, d Decision) error
}
