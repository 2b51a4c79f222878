package audit

import (
	"context"

	"github.com/google/uuid"
)

type FindParams struct {
	EntityType string
	EntityID   uuid.UUID
	Limit      int
	Offset     int
}

type Repository interface {
	Append(ctx context.Context, entry Entry) (Entry, error)
	List(ctx context.Context, params FindParams) ([]Entry, error)
}
