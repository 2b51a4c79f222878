package persistence

import (
	"context"

	gerrors "github.com/go-faster/errors"
	"github.com/google/uuid"

	"github.com/Shkelqim-Durmishi/Sistemi-Menaxhimit-Personelit-Ushtarak-sub000/modules/audit/domain/audit"
	"github.com/Shkelqim-Durmishi/Sistemi-Menaxhimit-Personelit-Ushtarak-sub000/pkg/composables"
)

type AuditRepository struct{}

func NewAuditRepository() audit.Repository {
	return &AuditRepository{}
}

func (r *AuditRepository) Append(ctx context.Context, entry audit.Entry) (audit.Entry, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return audit.Entry{}, err
	}

	err = tx.QueryRow(ctx, `
		INSERT INTO audit_entries (actor_id, action, entity_type, entity_id, before, after, at)
		VALUES ($1, $2, $3, $4, $5::jsonb, $6::jsonb, $7)
		RETURNING id
	`,
		entry.ActorID,
		entry.Action,
		entry.EntityType,
		entry.EntityID,
		nullableJSON(entry.Before),
		nullableJSON(entry.After),
		entry.At.UTC(),
	).Scan(&entry.ID)
	if err != nil {
		return audit.Entry{}, gerrors.Wrap(err, "append audit entry")
	}
	return entry, nil
}

func (r *AuditRepository) List(ctx context.Context, params audit.FindParams) ([]audit.Entry, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}

	limit := params.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	offset := params.Offset
	if offset < 0 {
		offset = 0
	}

	rows, err := tx.Query(ctx, `
		SELECT id, actor_id, action, entity_type, entity_id, before, after, at
		FROM audit_entries
		WHERE ($1 = '' OR entity_type = $1)
		  AND ($2::uuid IS NULL OR entity_id = $2)
		ORDER BY at DESC, id DESC
		LIMIT $3 OFFSET $4
	`, params.EntityType, nullableUUID(params.EntityID), limit, offset)
	if err != nil {
		return nil, gerrors.Wrap(err, "list audit entries")
	}
	defer rows.Close()

	var out []audit.Entry
	for rows.Next() {
		var e audit.Entry
		if err := rows.Scan(&e.ID, &e.ActorID, &e.Action, &e.EntityType, &e.EntityID, &e.Before, &e.After, &e.At); err != nil {
			return nil, gerrors.Wrap(err, "scan audit entry")
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func nullableJSON(raw []byte) any {
	if len(raw) == 0 {
		return nil
	}
	return raw
}

func nullableUUID(id uuid.UUID) any {
	if id == uuid.Nil {
		return nil
	}
	return id
}
