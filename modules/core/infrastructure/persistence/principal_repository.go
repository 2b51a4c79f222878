package persistence

import (
	"context"
	"errors"
	"strings"
	"time"

	gerrors "github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/Shkelqim-Durmishi/Sistemi-Menaxhimit-Personelit-Ushtarak-sub000/modules/core/domain/aggregates/principal"
	"github.com/Shkelqim-Durmishi/Sistemi-Menaxhimit-Personelit-Ushtarak-sub000/pkg/composables"
	"github.com/Shkelqim-Durmishi/Sistemi-Menaxhimit-Personelit-Ushtarak-sub000/pkg/serrors"
)

const principalFields = `
	id, email, password_hash, role, unit_id, created_at, updated_at`

type PrincipalRepository struct{}

func NewPrincipalRepository() principal.Repository {
	return &PrincipalRepository{}
}

func (r *PrincipalRepository) GetByID(ctx context.Context, id uuid.UUID) (principal.Principal, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return principal.Principal{}, err
	}
	return onePrincipal(tx.QueryRow(ctx, `
		SELECT `+principalFields+` FROM principals WHERE id = $1
	`, id))
}

func (r *PrincipalRepository) GetByEmail(ctx context.Context, email string) (principal.Principal, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return principal.Principal{}, err
	}
	return onePrincipal(tx.QueryRow(ctx, `
		SELECT `+principalFields+` FROM principals WHERE email = $1
	`, strings.ToLower(strings.TrimSpace(email))))
}

func (r *PrincipalRepository) Create(ctx context.Context, p principal.Principal) (principal.Principal, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return principal.Principal{}, err
	}
	now := composables.UseNow(ctx)

	created, err := onePrincipal(tx.QueryRow(ctx, `
		INSERT INTO principals (email, password_hash, role, unit_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $5)
		RETURNING `+principalFields+`
	`, p.Email(), p.PasswordHash(), string(p.Role()), p.UnitID(), now.UTC()))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return principal.Principal{}, serrors.NewConflict("principal")
		}
		return principal.Principal{}, err
	}
	return created, nil
}

func onePrincipal(row pgx.Row) (principal.Principal, error) {
	var (
		id                   uuid.UUID
		email, hash, role    string
		unitID               *uuid.UUID
		createdAt, updatedAt time.Time
	)
	err := row.Scan(&id, &email, &hash, &role, &unitID, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return principal.Principal{}, principal.ErrNotFound
		}
		return principal.Principal{}, gerrors.Wrap(err, "scan principal")
	}
	return principal.Hydrate(id, email, hash, principal.Role(role), unitID, createdAt, updatedAt), nil
}
