package persistence

import (
	"context"
	"errors"
	"time"

	gerrors "github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/Shkelqim-Durmishi/Sistemi-Menaxhimit-Personelit-Ushtarak-sub000/modules/report/domain/aggregates/report"
	"github.com/Shkelqim-Durmishi/Sistemi-Menaxhimit-Personelit-Ushtarak-sub000/pkg/composables"
	"github.com/Shkelqim-Durmishi/Sistemi-Menaxhimit-Personelit-Ushtarak-sub000/pkg/serrors"
	"github.com/Shkelqim-Durmishi/Sistemi-Menaxhimit-Personelit-Ushtarak-sub000/pkg/workflow"
)

const reportFields = `
	id, date, unit_id, status, created_by,
	decided_by, decided_at, decision_note, created_at, updated_at`

const rowFields = `
	id, report_id, person_id, category_id, time_from, time_to, location, note, emergency_flag,
	created_at, updated_at`

type ReportRepository struct{}

func NewReportRepository() *ReportRepository {
	return &ReportRepository{}
}

var (
	_ report.Repository = (*ReportRepository)(nil)
	_ workflow.Store    = (*ReportRepository)(nil)
)

func (r *ReportRepository) GetPaginated(ctx context.Context, params *report.FindParams) ([]report.Report, int64, error) {
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

	var date any
	if params.Date != nil {
		date = report.Day(*params.Date)
	}
	unitIDs := params.UnitIDs
	if unitIDs == nil {
		unitIDs = []uuid.UUID{}
	}

	const filter = `
		WHERE ($1::date IS NULL OR date = $1)
		  AND (cardinality($2::uuid[]) = 0 OR unit_id = ANY ($2))
		  AND ($3 = '' OR status = $3)
		  AND ($4::uuid IS NULL OR id IN (
			SELECT report_id FROM report_rows WHERE person_id = $4))`

	rows, err := tx.Query(ctx, `
		SELECT `+reportFields+`
		FROM reports`+filter+`
		ORDER BY date DESC, unit_id
		LIMIT $5 OFFSET $6
	`, date, unitIDs, string(params.Status), nullableUUID(params.PersonID), limit, offset)
	if err != nil {
		return nil, 0, gerrors.Wrap(err, "query reports")
	}
	defer rows.Close()

	var out []report.Report
	for rows.Next() {
		rep, err := scanReport(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, rep)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	var total int64
	err = tx.QueryRow(ctx, `
		SELECT COUNT(*) FROM reports`+filter,
		date, unitIDs, string(params.Status), nullableUUID(params.PersonID),
	).Scan(&total)
	if err != nil {
		return nil, 0, gerrors.Wrap(err, "count reports")
	}
	return out, total, nil
}

func (r *ReportRepository) GetByID(ctx context.Context, id uuid.UUID) (report.Report, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return report.Report{}, err
	}
	return oneReport(tx.QueryRow(ctx, `
		SELECT `+reportFields+` FROM reports WHERE id = $1
	`, id))
}

func (r *ReportRepository) GetByDateAndUnit(ctx context.Context, date time.Time, unitID uuid.UUID) (report.Report, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return report.Report{}, err
	}
	return oneReport(tx.QueryRow(ctx, `
		SELECT `+reportFields+` FROM reports WHERE date = $1 AND unit_id = $2
	`, report.Day(date), unitID))
}

func (r *ReportRepository) Create(ctx context.Context, rep report.Report) (report.Report, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return report.Report{}, err
	}
	now := composables.UseNow(ctx)

	created, err := oneReport(tx.QueryRow(ctx, `
		INSERT INTO reports (date, unit_id, status, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $5)
		RETURNING `+reportFields+`
	`, rep.Date(), rep.UnitID(), string(rep.Status()), rep.CreatedBy(), now.UTC()))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return report.Report{}, serrors.NewConflict("report")
		}
		return report.Report{}, err
	}
	return created, nil
}

func (r *ReportRepository) SetDecision(ctx context.Context, id uuid.UUID, d report.Decision) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}
	tag, err := tx.Exec(ctx, `
		UPDATE reports
		SET decided_by = $2, decided_at = $3, decision_note = $4
		WHERE id = $1 AND decided_by IS NULL
	`, id, d.DecidedBy, d.DecidedAt.UTC(), d.Note)
	if err != nil {
		return gerrors.Wrap(err, "set report decision")
	}
	if tag.RowsAffected() == 0 {
		return serrors.NewConflict("report")
	}
	return nil
}

func (r *ReportRepository) TransitionState(ctx context.Context, id uuid.UUID, from, to workflow.State) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}
	now := composables.UseNow(ctx)
	tag, err := tx.Exec(ctx, `
		UPDATE reports SET status = $3, updated_at = $4 WHERE id = $1 AND status = $2
	`, id, string(from), string(to), now.UTC())
	if err != nil {
		return gerrors.Wrap(err, "transition report status")
	}
	if tag.RowsAffected() == 0 {
		return serrors.NewConflict("report")
	}
	return nil
}

func (r *ReportRepository) Rows(ctx context.Context, reportID uuid.UUID) ([]report.Row, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := tx.Query(ctx, `
		SELECT `+rowFields+`
		FROM report_rows
		WHERE report_id = $1
		ORDER BY time_from, created_at
	`, reportID)
	if err != nil {
		return nil, gerrors.Wrap(err, "query report rows")
	}
	defer rows.Close()

	var out []report.Row
	for rows.Next() {
		var row report.Row
		if err := scanRow(rows, &row); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func (r *ReportRepository) GetRow(ctx context.Context, rowID uuid.UUID) (report.Row, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return report.Row{}, err
	}
	var row report.Row
	err = scanRow(tx.QueryRow(ctx, `
		SELECT `+rowFields+` FROM report_rows WHERE id = $1
	`, rowID), &row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return report.Row{}, report.ErrRowNotFound
		}
		return report.Row{}, err
	}
	return row, nil
}

func (r *ReportRepository) AddRow(ctx context.Context, row report.Row) (report.Row, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return report.Row{}, err
	}
	now := composables.UseNow(ctx)

	var out report.Row
	err = scanRow(tx.QueryRow(ctx, `
		INSERT INTO report_rows (report_id, person_id, category_id, time_from, time_to, location, note, emergency_flag, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $9)
		RETURNING `+rowFields+`
	`, row.ReportID, row.PersonID, row.CategoryID, row.TimeFrom, row.TimeTo, row.Location, row.Note, row.Emergency, now.UTC()), &out)
	if err != nil {
		return report.Row{}, gerrors.Wrap(err, "insert report row")
	}
	return out, nil
}

func (r *ReportRepository) UpdateRow(ctx context.Context, row report.Row) (report.Row, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return report.Row{}, err
	}
	now := composables.UseNow(ctx)

	var out report.Row
	err = scanRow(tx.QueryRow(ctx, `
		UPDATE report_rows
		SET person_id = $2, category_id = $3, time_from = $4, time_to = $5, location = $6, note = $7, emergency_flag = $8, updated_at = $9
		WHERE id = $1
		RETURNING `+rowFields+`
	`, row.ID, row.PersonID, row.CategoryID, row.TimeFrom, row.TimeTo, row.Location, row.Note, row.Emergency, now.UTC()), &out)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return report.Row{}, report.ErrRowNotFound
		}
		return report.Row{}, gerrors.Wrap(err, "update report row")
	}
	return out, nil
}

func (r *ReportRepository) DeleteRow(ctx context.Context, rowID uuid.UUID) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}
	tag, err := tx.Exec(ctx, `DELETE FROM report_rows WHERE id = $1`, rowID)
	if err != nil {
		return gerrors.Wrap(err, "delete report row")
	}
	if tag.RowsAffected() == 0 {
		return report.ErrRowNotFound
	}
	return nil
}

func oneReport(row pgx.Row) (report.Report, error) {
	rep, err := scanReport(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return report.Report{}, report.ErrNotFound
		}
		return report.Report{}, err
	}
	return rep, nil
}

func scanReport(row pgx.Row) (report.Report, error) {
	var (
		id, unitID, createdBy uuid.UUID
		date                  time.Time
		status                string
		decidedBy             *uuid.UUID
		decidedAt             *time.Time
		decisionNote          *string
		createdAt, updatedAt  time.Time
	)
	err := row.Scan(
		&id, &date, &unitID, &status, &createdBy,
		&decidedBy, &decidedAt, &decisionNote, &createdAt, &updatedAt,
	)
	if err != nil {
		return report.Report{}, err
	}
	return report.Hydrate(
		id, date, unitID, report.Status(status), createdBy,
		decidedBy, decidedAt, decisionNote, createdAt, updatedAt,
	), nil
}

func scanRow(row pgx.Row, out *report.Row) error {
	return row.Scan(
		&out.ID, &out.ReportID, &out.PersonID, &out.CategoryID,
		&out.TimeFrom, &out.TimeTo, &out.Location, &out.Note, &out.Emergency,
		&out.CreatedAt, &out.UpdatedAt,
	)
}

func nullableUUID(id uuid.UUID) any {
	if id == uuid.Nil {
		return nil
	}
	return id
}
