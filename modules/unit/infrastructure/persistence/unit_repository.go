package persistence

import (
	"context"
	"errors"

	gerrors "github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/Shkelqim-Durmishi/Sistemi-Menaxhimit-Personelit-Ushtarak-sub000/modules/unit/domain/unit"
	"github.com/Shkelqim-Durmishi/Sistemi-Menaxhimit-Personelit-Ushtarak-sub000/pkg/composables"
)

type UnitRepository struct{}

func NewUnitRepository() unit.Repository {
	return &UnitRepository{}
}

func (r *UnitRepository) GetAll(ctx context.Context) ([]unit.Unit, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := tx.Query(ctx, `
		SELECT id, code, name, parent_id, created_at, updated_at
		FROM units
		ORDER BY code
	`)
	if err != nil {
		return nil, gerrors.Wrap(err, "list units")
	}
	defer rows.Close()

	var out []unit.Unit
	for rows.Next() {
		var u unit.Unit
		if err := rows.Scan(&u.ID, &u.Code, &u.Name, &u.ParentID, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, gerrors.Wrap(err, "scan unit")
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func (r *UnitRepository) GetByID(ctx context.Context, id uuid.UUID) (unit.Unit, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return unit.Unit{}, err
	}

	var u unit.Unit
	err = tx.QueryRow(ctx, `
		SELECT id, code, name, parent_id, created_at, updated_at
		FROM units
		WHERE id = $1
	`, id).Scan(&u.ID, &u.Code, &u.Name, &u.ParentID, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return unit.Unit{}, unit.ErrNotFound
	}
	if err != nil {
		return unit.Unit{}, gerrors.Wrap(err, "get unit")
	}
	return u, nil
}
