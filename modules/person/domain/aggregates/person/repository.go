package person

import (
	"context"

	"github.com/google/uuid"

	"github.com/Shkelqim-Durmishi/Sistemi-Menaxhimit-Personelit-Ushtarak-sub000/pkg/serrors"
)

var (
	ErrNotFound           = serrors.NewNotFound("person")
	ErrServiceNumberTaken = serrors.NewError("PERSON_SERVICE_NUMBER_TAKEN", serrors.KindConflict, "service number already registered")
)

type FindParams struct {
	Q       string
	Status  Status
	UnitIDs []uuid.UUID
	Limit   int
	Offset  int
}

type Repository interface {
	GetPaginated(ctx context.Context, params *FindParams) ([]Person, int64, error)
	GetByID(ctx context.Context, id uuid.UUID) (Person, error)
	GetByServiceNumber(ctx context.Context, serviceNumber string) (Person, error)
	Create(ctx context.Context, p Person) (Person, error)
	// Update persists every mutable field except status; status moves only
	// through the workflow store's guarded compare-and-swap.
	Update(ctx context.Context, p Person) (Person, error)
	SetRejectionReason(ctx context.Context, id uuid.UUID, reason *string) error
}
