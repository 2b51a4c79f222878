package report

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/Shkelqim-Durmishi/Sistemi-Menaxhimit-Personelit-Ushtarak-sub000/pkg/serrors"
)

var (
	ErrNotFound    = serrors.NewNotFound("report")
	ErrRowNotFound = serrors.NewNotFound("report row")
)

type FindParams struct {
	Date     *time.Time
	UnitIDs  []uuid.UUID
	PersonID uuid.UUID
	Status   Status
	Limit    int
	Offset   int
}

type Decision struct {
	DecidedBy uuid.UUID
	DecidedAt time.Time
	Note      *string
}

type Repository interface {
	GetPaginated(ctx context.Context, params *FindParams) ([]Report, int64, error)
	GetByID(ctx context.Context, id uuid.UUID) (Report, error)
	GetByDateAndUnit(ctx context.Context, date time.Time, unitID uuid.UUID) (Report, error)
	Create(ctx context.Context, r Report) (Report, error)
	// SetDecision stamps decidedBy/decidedAt/decisionNote; it runs inside
	// the same transaction as the status compare-and-swap.
	SetDecision(ctx context.Context, id uuid.UUID, d Decision) error

	Rows(ctx context.Context, reportID uuid.UUID) ([]Row, error)
	GetRow(ctx context.Context, rowID uuid.UUID) (Row, error)
	AddRow(ctx context.Context, row Row) (Row, error)
	UpdateRow(ctx context.Context, row Row) (Row, error)
	DeleteRow(ctx context.Context, rowID uuid.UUID) error
}
