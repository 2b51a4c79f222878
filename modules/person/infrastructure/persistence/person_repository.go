package persistence

import (
	"context"
	"errors"
	"time"

	gerrors "github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/Shkelqim-Durmishi/Sistemi-Menaxhimit-Personelit-Ushtarak-sub000/modules/person/domain/aggregates/person"
	"github.com/Shkelqim-Durmishi/Sistemi-Menaxhimit-Personelit-Ushtarak-sub000/pkg/composables"
	"github.com/Shkelqim-Durmishi/Sistemi-Menaxhimit-Personelit-Ushtarak-sub000/pkg/serrors"
	"github.com/Shkelqim-Durmishi/Sistemi-Menaxhimit-Personelit-Ushtarak-sub000/pkg/workflow"
)

const personFields = `
	id, service_number, first_name, last_name, grade, unit_id,
	status, created_by, rejection_reason, created_at, updated_at`

type PersonRepository struct{}

func NewPersonRepository() *PersonRepository {
	return &PersonRepository{}
}

var (
	_ person.Repository = (*PersonRepository)(nil)
	_ workflow.Store    = (*PersonRepository)(nil)
)

func (r *PersonRepository) GetPaginated(ctx context.Context, params *person.FindParams) ([]person.Person, int64, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, 0, err
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
		SELECT `+personFields+`
		FROM persons
		WHERE ($1 = '' OR status = $1)
		  AND (cardinality($2::uuid[]) = 0 OR unit_id = ANY ($2))
		  AND ($3 = '' OR service_number ILIKE '%' || $3 || '%'
		       OR first_name ILIKE '%' || $3 || '%'
		       OR last_name ILIKE '%' || $3 || '%')
		ORDER BY last_name, first_name, id
		LIMIT $4 OFFSET $5
	`, string(params.Status), unitArray(params.UnitIDs), params.Q, limit, offset)
	if err != nil {
		return nil, 0, gerrors.Wrap(err, "query persons")
	}
	defer rows.Close()

	var out []person.Person
	for rows.Next() {
		p, err := scanPerson(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	var total int64
	err = tx.QueryRow(ctx, `
		SELECT COUNT(*)
		FROM persons
		WHERE ($1 = '' OR status = $1)
		  AND (cardinality($2::uuid[]) = 0 OR unit_id = ANY ($2))
		  AND ($3 = '' OR service_number ILIKE '%' || $3 || '%'
		       OR first_name ILIKE '%' || $3 || '%'
		       OR last_name ILIKE '%' || $3 || '%')
	`, string(params.Status), unitArray(params.UnitIDs), params.Q).Scan(&total)
	if err != nil {
		return nil, 0, gerrors.Wrap(err, "count persons")
	}
	return out, total, nil
}

func (r *PersonRepository) GetByID(ctx context.Context, id uuid.UUID) (person.Person, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return person.Person{}, err
	}
	return r.queryOne(ctx, tx.QueryRow(ctx, `
		SELECT `+personFields+` FROM persons WHERE id = $1
	`, id))
}

func (r *PersonRepository) GetByServiceNumber(ctx context.Context, serviceNumber string) (person.Person, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return person.Person{}, err
	}
	return r.queryOne(ctx, tx.QueryRow(ctx, `
		SELECT `+personFields+` FROM persons WHERE service_number = $1
	`, serviceNumber))
}

func (r *PersonRepository) Create(ctx context.Context, p person.Person) (person.Person, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return person.Person{}, err
	}
	now := composables.UseNow(ctx)

	row := tx.QueryRow(ctx, `
		INSERT INTO persons (
			service_number, first_name, last_name, grade, unit_id,
			status, created_by, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8)
		RETURNING `+personFields+`
	`,
		p.ServiceNumber(), p.FirstName(), p.LastName(), p.Grade(), p.UnitID(),
		string(p.Status()), p.CreatedBy(), now.UTC(),
	)
	created, err := r.queryOne(ctx, row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return person.Person{}, person.ErrServiceNumberTaken
		}
		return person.Person{}, err
	}
	return created, nil
}

func (r *PersonRepository) Update(ctx context.Context, p person.Person) (person.Person, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return person.Person{}, err
	}
	now := composables.UseNow(ctx)

	row := tx.QueryRow(ctx, `
		UPDATE persons
		SET service_number = $2,
		    first_name = $3,
		    last_name = $4,
		    grade = $5,
		    unit_id = $6,
		    updated_at = $7
		WHERE id = $1
		RETURNING `+personFields+`
	`, p.ID(), p.ServiceNumber(), p.FirstName(), p.LastName(), p.Grade(), p.UnitID(), now.UTC())
	updated, err := r.queryOne(ctx, row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return person.Person{}, person.ErrServiceNumberTaken
		}
		return person.Person{}, err
	}
	return updated, nil
}

func (r *PersonRepository) SetRejectionReason(ctx context.Context, id uuid.UUID, reason *string) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}
	tag, err := tx.Exec(ctx, `
		UPDATE persons SET rejection_reason = $2 WHERE id = $1
	`, id, reason)
	if err != nil {
		return gerrors.Wrap(err, "set rejection reason")
	}
	if tag.RowsAffected() == 0 {
		return person.ErrNotFound
	}
	return nil
}

// TransitionState is the guarded compare-and-swap behind every status move.
// A zero-row update means someone else moved the record first.
func (r *PersonRepository) TransitionState(ctx context.Context, id uuid.UUID, from, to workflow.State) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}
	now := composables.UseNow(ctx)
	tag, err := tx.Exec(ctx, `
		UPDATE persons SET status = $3, updated_at = $4 WHERE id = $1 AND status = $2
	`, id, string(from), string(to), now.UTC())
	if err != nil {
		return gerrors.Wrap(err, "transition person status")
	}
	if tag.RowsAffected() == 0 {
		return serrors.NewConflict("person")
	}
	return nil
}

func (r *PersonRepository) queryOne(_ context.Context, row pgx.Row) (person.Person, error) {
	p, err := scanPerson(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return person.Person{}, person.ErrNotFound
		}
		return person.Person{}, err
	}
	return p, nil
}

func scanPerson(row pgx.Row) (person.Person, error) {
	var (
		id, unitID, createdBy                         uuid.UUID
		serviceNumber, firstName, lastName, grade, st string
		rejectionReason                               *string
		createdAt, updatedAt                          time.Time
	)
	err := row.Scan(
		&id, &serviceNumber, &firstName, &lastName, &grade, &unitID,
		&st, &createdBy, &rejectionReason, &createdAt, &updatedAt,
	)
	if err != nil {
		return person.Person{}, err
	}
	return person.Hydrate(
		id, serviceNumber, firstName, lastName, grade, unitID,
		person.Status(st), createdBy, rejectionReason, createdAt, updatedAt,
	), nil
}

func unitArray(ids []uuid.UUID) []uuid.UUID {
	if ids == nil {
		return []uuid.UUID{}
	}
	return ids
}
