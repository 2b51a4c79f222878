package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	gerrors "github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/Shkelqim-Durmishi/Sistemi-Menaxhimit-Personelit-Ushtarak-sub000/modules/request/domain/aggregates/changerequest"
	"github.com/Shkelqim-Durmishi/Sistemi-Menaxhimit-Personelit-Ushtarak-sub000/pkg/composables"
	"github.com/Shkelqim-Durmishi/Sistemi-Menaxhimit-Personelit-Ushtarak-sub000/pkg/serrors"
	"github.com/Shkelqim-Durmishi/Sistemi-Menaxhimit-Personelit-Ushtarak-sub000/pkg/workflow"
)

const requestFields = `
	id, type, person_id, unit_id, payload, status, created_by,
	decided_by, decided_at, decision_note, created_at, updated_at`

type RequestRepository struct{}

func NewRequestRepository() *RequestRepository {
	return &RequestRepository{}
}

var (
	_ changerequest.Repository = (*RequestRepository)(nil)
	_ workflow.Store           = (*RequestRepository)(nil)
)

func (r *RequestRepository) GetPaginated(ctx context.Context, params *changerequest.FindParams) ([]changerequest.ChangeRequest, int64, error) {
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

	statuses := make([]string, 0, len(params.Statuses))
	for _, s := range params.Statuses {
		statuses = append(statuses, string(s))
	}
	unitIDs := params.UnitIDs
	if unitIDs == nil {
		unitIDs = []uuid.UUID{}
	}

	const filter = `
		WHERE (cardinality($1::text[]) = 0 OR status = ANY ($1))
		  AND (cardinality($2::uuid[]) = 0 OR unit_id = ANY ($2))
		  AND ($3::uuid IS NULL OR created_by = $3)
		  AND ($4::uuid IS NULL OR person_id = $4)`

	rows, err := tx.Query(ctx, `
		SELECT `+requestFields+`
		FROM change_requests`+filter+`
		ORDER BY created_at DESC, id
		LIMIT $5 OFFSET $6
	`, statuses, unitIDs, nullableUUID(params.CreatedBy), nullableUUID(params.PersonID), limit, offset)
	if err != nil {
		return nil, 0, gerrors.Wrap(err, "query change requests")
	}
	defer rows.Close()

	var out []changerequest.ChangeRequest
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, req)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	var total int64
	err = tx.QueryRow(ctx, `
		SELECT COUNT(*) FROM change_requests`+filter,
		statuses, unitIDs, nullableUUID(params.CreatedBy), nullableUUID(params.PersonID),
	).Scan(&total)
	if err != nil {
		return nil, 0, gerrors.Wrap(err, "count change requests")
	}
	return out, total, nil
}

func (r *RequestRepository) GetByID(ctx context.Context, id uuid.UUID) (changerequest.ChangeRequest, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return changerequest.ChangeRequest{}, err
	}
	req, err := scanRequest(tx.QueryRow(ctx, `
		SELECT `+requestFields+` FROM change_requests WHERE id = $1
	`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return changerequest.ChangeRequest{}, changerequest.ErrNotFound
		}
		return changerequest.ChangeRequest{}, err
	}
	return req, nil
}

func (r *RequestRepository) Create(ctx context.Context, req changerequest.ChangeRequest) (changerequest.ChangeRequest, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return changerequest.ChangeRequest{}, err
	}
	now := composables.UseNow(ctx)

	created, err := scanRequest(tx.QueryRow(ctx, `
		INSERT INTO change_requests (type, person_id, unit_id, payload, status, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4::jsonb, $5, $6, $7, $7)
		RETURNING `+requestFields+`
	`, string(req.Type()), req.PersonID(), req.UnitID(), []byte(req.Payload()), string(req.Status()), req.CreatedBy(), now.UTC()))
	if err != nil {
		return changerequest.ChangeRequest{}, gerrors.Wrap(err, "insert change request")
	}
	return created, nil
}

func (r *RequestRepository) SetDecision(ctx context.Context, id uuid.UUID, d changerequest.Decision) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}
	tag, err := tx.Exec(ctx, `
		UPDATE change_requests
		SET decided_by = $2, decided_at = $3, decision_note = $4
		WHERE id = $1 AND decided_by IS NULL
	`, id, d.DecidedBy, d.DecidedAt.UTC(), d.Note)
	if err != nil {
		return gerrors.Wrap(err, "set request decision")
	}
	if tag.RowsAffected() == 0 {
		return serrors.NewConflict("change request")
	}
	return nil
}

func (r *RequestRepository) TransitionState(ctx context.Context, id uuid.UUID, from, to workflow.State) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}
	now := composables.UseNow(ctx)
	tag, err := tx.Exec(ctx, `
		UPDATE change_requests SET status = $3, updated_at = $4 WHERE id = $1 AND status = $2
	`, id, string(from), string(to), now.UTC())
	if err != nil {
		return gerrors.Wrap(err, "transition request status")
	}
	if tag.RowsAffected() == 0 {
		return serrors.NewConflict("change request")
	}
	return nil
}

func scanRequest(row pgx.Row) (changerequest.ChangeRequest, error) {
	var (
		id, personID, unitID, createdBy uuid.UUID
		requestType, status             string
		payload                         []byte
		decidedBy                       *uuid.UUID
		decidedAt                       *time.Time
		decisionNote                    *string
		createdAt, updatedAt            time.Time
	)
	err := row.Scan(
		&id, &requestType, &personID, &unitID, &payload, &status, &createdBy,
		&decidedBy, &decidedAt, &decisionNote, &createdAt, &updatedAt,
	)
	if err != nil {
		return changerequest.ChangeRequest{}, err
	}
	return changerequest.Hydrate(
		id, changerequest.Type(requestType), personID, unitID, json.RawMessage(payload),
		changerequest.Status(status), createdBy, decidedBy, decidedAt, decisionNote,
		createdAt, updatedAt,
	), nil
}

func nullableUUID(id uuid.UUID) any {
	if id == uuid.Nil {
		return nil
	}
	return id
}
