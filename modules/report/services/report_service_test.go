package services

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Shkelqim-Durmishi/Sistemi-Menaxhimit-Personelit-Ushtarak-sub000/modules/core/domain/aggregates/principal"
	"github.com/Shkelqim-Durmishi/Sistemi-Menaxhimit-Personelit-Ushtarak-sub000/modules/report/domain/aggregates/report"
	"github.com/Shkelqim-Durmishi/Sistemi-Menaxhimit-Personelit-Ushtarak-sub000/modules/unit/domain/unit"
	unitservices "github.com/Shkelqim-Durmishi/Sistemi-Menaxhimit-Personelit-Ushtarak-sub000/modules/unit/services"
	"github.com/Shkelqim-Durmishi/Sistemi-Menaxhimit-Personelit-Ushtarak-sub000/pkg/composables"
	"github.com/Shkelqim-Durmishi/Sistemi-Menaxhimit-Personelit-Ushtarak-sub000/pkg/serrors"
	"github.com/Shkelqim-Durmishi/Sistemi-Menaxhimit-Personelit-Ushtarak-sub000/pkg/workflow"
)

type memReportRepo struct {
	mu      sync.Mutex
	reports map[uuid.UUID]report.Report
	rows    map[uuid.UUID]report.Row
}

func newMemReportRepo() *memReportRepo {
	return &memReportRepo{
		reports: make(map[uuid.UUID]report.Report),
		rows:    make(map[uuid.UUID]report.Row),
	}
}

func (r *memReportRepo) GetPaginated(_ context.Context, params *report.FindParams) ([]report.Report, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []report.Report
	for _, rep := range r.reports {
		if params.Status != "" && rep.Status() != params.Status {
			continue
		}
		if params.Date != nil && !rep.Date().Equal(report.Day(*params.Date)) {
			continue
		}
		if len(params.UnitIDs) > 0 && !containsID(params.UnitIDs, rep.UnitID()) {
			continue
		}
		out = append(out, rep)
	}
	return out, int64(len(out)), nil
}

func (r *memReportRepo) GetByID(_ context.Context, id uuid.UUID) (report.Report, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rep, ok := r.reports[id]
	if !ok {
		return report.Report{}, report.ErrNotFound
	}
	return rep, nil
}

func (r *memReportRepo) GetByDateAndUnit(_ context.Context, date time.Time, unitID uuid.UUID) (report.Report, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, rep := range r.reports {
		if rep.Date().Equal(report.Day(date)) && rep.UnitID() == unitID {
			return rep, nil
		}
	}
	return report.Report{}, report.ErrNotFound
}

func (r *memReportRepo) Create(_ context.Context, rep report.Report) (report.Report, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.reports {
		if existing.Date().Equal(rep.Date()) && existing.UnitID() == rep.UnitID() {
			return report.Report{}, serrors.NewConflict("report")
		}
	}
	created := report.Hydrate(
		uuid.New(), rep.Date(), rep.UnitID(), rep.Status(), rep.CreatedBy(),
		nil, nil, nil, time.Now(), time.Now(),
	)
	r.reports[created.ID()] = created
	return created, nil
}

func (r *memReportRepo) SetDecision(_ context.Context, id uuid.UUID, d report.Decision) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rep, ok := r.reports[id]
	if !ok {
		return report.ErrNotFound
	}
	if rep.DecidedBy() != nil {
		return serrors.NewConflict("report")
	}
	decidedBy := d.DecidedBy
	decidedAt := d.DecidedAt
	r.reports[id] = report.Hydrate(
		rep.ID(), rep.Date(), rep.UnitID(), rep.Status(), rep.CreatedBy(),
		&decidedBy, &decidedAt, d.Note, rep.CreatedAt(), time.Now(),
	)
	return nil
}

func (r *memReportRepo) TransitionState(_ context.Context, id uuid.UUID, from, to workflow.State) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rep, ok := r.reports[id]
	if !ok {
		return report.ErrNotFound
	}
	if workflow.State(rep.Status()) != from {
		return serrors.NewConflict("report")
	}
	r.reports[id] = report.Hydrate(
		rep.ID(), rep.Date(), rep.UnitID(), report.Status(to), rep.CreatedBy(),
		rep.DecidedBy(), rep.DecidedAt(), rep.DecisionNote(), rep.CreatedAt(), time.Now(),
	)
	return nil
}

func (r *memReportRepo) Rows(_ context.Context, reportID uuid.UUID) ([]report.Row, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []report.Row
	for _, row := range r.rows {
		if row.ReportID == reportID {
			out = append(out, row)
		}
	}
	return out, nil
}

func (r *memReportRepo) GetRow(_ context.Context, rowID uuid.UUID) (report.Row, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.rows[rowID]
	if !ok {
		return report.Row{}, report.ErrRowNotFound
	}
	return row, nil
}

func (r *memReportRepo) AddRow(_ context.Context, row report.Row) (report.Row, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	row.ID = uuid.New()
	r.rows[row.ID] = row
	return row, nil
}

func (r *memReportRepo) UpdateRow(_ context.Context, row report.Row) (report.Row, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rows[row.ID]; !ok {
		return report.Row{}, report.ErrRowNotFound
	}
	r.rows[row.ID] = row
	return row, nil
}

func (r *memReportRepo) DeleteRow(_ context.Context, rowID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rows[rowID]; !ok {
		return report.ErrRowNotFound
	}
	delete(r.rows, rowID)
	return nil
}

func containsID(ids []uuid.UUID, id uuid.UUID) bool {
	for _, candidate := range ids {
		if candidate == id {
			return true
		}
	}
	return false
}

type nopRecorder struct{}

func (nopRecorder) Record(context.Context, workflow.Entry) error { return nil }

type reportFixture struct {
	service *ReportService
	repo    *memReportRepo

	brigade   uuid.UUID
	battalion uuid.UUID
	company   uuid.UUID
}

func newReportFixture(t *testing.T) *reportFixture {
	t.Helper()

	brigade := uuid.New()
	battalion := uuid.New()
	company := uuid.New()
	unitRepo := &memUnitRepo{units: []unit.Unit{
		{ID: brigade, Name: "1st Brigade"},
		{ID: battalion, Name: "2nd Battalion", ParentID: &brigade},
		{ID: company, Name: "Alpha Company", ParentID: &battalion},
	}}

	repo := newMemReportRepo()
	service, err := NewReportService(
		repo, repo, unitservices.NewUnitService(unitRepo), nopRecorder{}, nil,
		report.Cutoff{Hour: 16, Minute: 0}, nil,
	)
	require.NoError(t, err)

	return &reportFixture{
		service:   service,
		repo:      repo,
		brigade:   brigade,
		battalion: battalion,
		company:   company,
	}
}

type memUnitRepo struct {
	units []unit.Unit
}

func (r *memUnitRepo) GetAll(_ context.Context) ([]unit.Unit, error) { return r.units, nil }

func (r *memUnitRepo) GetByID(_ context.Context, id uuid.UUID) (unit.Unit, error) {
	for _, u := range r.units {
		if u.ID == id {
			return u, nil
		}
	}
	return unit.Unit{}, unit.ErrNotFound
}

// morning pins the clock well before the 16:00 cutoff on reportDay.
var reportDay = time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)

func morning(ctx context.Context) context.Context {
	return composables.WithNow(ctx, reportDay.Add(9*time.Hour))
}

func evening(ctx context.Context) context.Context {
	return composables.WithNow(ctx, reportDay.Add(17*time.Hour))
}

func roleCtx(role principal.Role, unitID uuid.UUID) context.Context {
	p := principal.Hydrate(uuid.New(), "user@hq.local", "", role, &unitID, time.Time{}, time.Time{})
	return morning(composables.WithUser(context.Background(), p))
}

func adminCtx() context.Context {
	p := principal.Hydrate(uuid.New(), "admin@hq.local", "", principal.RoleAdmin, nil, time.Time{}, time.Time{})
	return morning(composables.WithUser(context.Background(), p))
}

func validRow() *report.RowDTO {
	return &report.RowDTO{
		PersonID:   uuid.New(),
		CategoryID: uuid.New(),
		TimeFrom:   "08:00",
		TimeTo:     "12:00",
	}
}

func TestCreateOrGet_IdempotentPerDayAndUnit(t *testing.T) {
	f := newReportFixture(t)
	ctx := roleCtx(principal.RoleOperator, f.company)

	first, err := f.service.CreateOrGet(ctx, reportDay, f.company)
	require.NoError(t, err)
	assert.Equal(t, report.StatusDraft, first.Status())

	second, err := f.service.CreateOrGet(ctx, reportDay, f.company)
	require.NoError(t, err)
	assert.Equal(t, first.ID(), second.ID())
}

func TestCreateOrGet_NonAdminForcedToOwnUnit(t *testing.T) {
	f := newReportFixture(t)
	ctx := roleCtx(principal.RoleOperator, f.company)

	rep, err := f.service.CreateOrGet(ctx, reportDay, f.brigade)
	require.NoError(t, err)
	assert.Equal(t, f.company, rep.UnitID())
}

func TestCreateOrGet_ReturnsExistingInAnyState(t *testing.T) {
	f := newReportFixture(t)
	ctx := roleCtx(principal.RoleOperator, f.company)

	rep, err := f.service.CreateOrGet(ctx, reportDay, f.company)
	require.NoError(t, err)
	_, err = f.service.Submit(ctx, rep.ID())
	require.NoError(t, err)

	again, err := f.service.CreateOrGet(ctx, reportDay, f.company)
	require.NoError(t, err)
	assert.Equal(t, report.StatusPending, again.Status())
}

func TestAddRow_ValidatesTimes(t *testing.T) {
	f := newReportFixture(t)
	ctx := roleCtx(principal.RoleOperator, f.company)
	rep, err := f.service.CreateOrGet(ctx, reportDay, f.company)
	require.NoError(t, err)

	dto := validRow()
	dto.TimeTo = "07:00"
	_, err = f.service.AddRow(ctx, rep.ID(), dto)
	require.Error(t, err)
	assert.Equal(t, serrors.KindValidation, serrors.KindOf(err))

	_, err = f.service.AddRow(ctx, rep.ID(), validRow())
	require.NoError(t, err)
}

func TestAddRow_CarriesLocationAndEmergencyFlag(t *testing.T) {
	f := newReportFixture(t)
	ctx := roleCtx(principal.RoleOperator, f.company)
	rep, err := f.service.CreateOrGet(ctx, reportDay, f.company)
	require.NoError(t, err)

	dto := validRow()
	dto.Location = "  Checkpoint Delta "
	dto.Emergency = true
	added, err := f.service.AddRow(ctx, rep.ID(), dto)
	require.NoError(t, err)
	assert.Equal(t, "Checkpoint Delta", added.Location)
	assert.True(t, added.Emergency)

	dto = validRow()
	dto.Location = added.Location
	updated, err := f.service.UpdateRow(ctx, added.ID, dto)
	require.NoError(t, err)
	assert.Equal(t, "Checkpoint Delta", updated.Location)
	assert.False(t, updated.Emergency)

	dto = validRow()
	dto.Location = strings.Repeat("x", 201)
	_, err = f.service.AddRow(ctx, rep.ID(), dto)
	require.Error(t, err)
	assert.Equal(t, serrors.KindValidation, serrors.KindOf(err))
}

func TestAddRow_AfterCutoffIsLocked(t *testing.T) {
	f := newReportFixture(t)
	ctx := roleCtx(principal.RoleOperator, f.company)
	rep, err := f.service.CreateOrGet(ctx, reportDay, f.company)
	require.NoError(t, err)

	_, err = f.service.AddRow(evening(ctx), rep.ID(), validRow())
	require.Error(t, err)
	assert.Equal(t, serrors.KindReportLocked, serrors.KindOf(err))
}

func TestAddRow_SubmittedReportNotEditable(t *testing.T) {
	f := newReportFixture(t)
	ctx := roleCtx(principal.RoleOperator, f.company)
	rep, err := f.service.CreateOrGet(ctx, reportDay, f.company)
	require.NoError(t, err)
	_, err = f.service.Submit(ctx, rep.ID())
	require.NoError(t, err)

	_, err = f.service.AddRow(ctx, rep.ID(), validRow())
	require.Error(t, err)
	assert.Equal(t, serrors.KindInvalidTransition, serrors.KindOf(err))
}

func TestSubmit_EmptyReportAllowed(t *testing.T) {
	f := newReportFixture(t)
	ctx := roleCtx(principal.RoleOperator, f.company)
	rep, err := f.service.CreateOrGet(ctx, reportDay, f.company)
	require.NoError(t, err)

	submitted, err := f.service.Submit(ctx, rep.ID())
	require.NoError(t, err)
	assert.Equal(t, report.StatusPending, submitted.Status())
}

func TestSubmit_AfterCutoffLocked(t *testing.T) {
	f := newReportFixture(t)
	ctx := roleCtx(principal.RoleOperator, f.company)
	rep, err := f.service.CreateOrGet(ctx, reportDay, f.company)
	require.NoError(t, err)

	_, err = f.service.Submit(evening(ctx), rep.ID())
	require.Error(t, err)
	assert.Equal(t, serrors.KindReportLocked, serrors.KindOf(err))
}

func TestApprove_DeciderTable(t *testing.T) {
	f := newReportFixture(t)
	operator := roleCtx(principal.RoleOperator, f.company)

	newPending := func(t *testing.T) report.Report {
		t.Helper()
		rep, err := f.service.CreateOrGet(operator, reportDay, f.company)
		require.NoError(t, err)
		if rep.Status() == report.StatusDraft {
			_, err = f.service.Submit(operator, rep.ID())
			require.NoError(t, err)
		}
		rep, err = f.repo.GetByID(context.Background(), rep.ID())
		require.NoError(t, err)
		return rep
	}

	rep := newPending(t)

	_, err := f.service.Approve(roleCtx(principal.RoleOperator, f.company), rep.ID(), "")
	assert.Equal(t, serrors.KindForbidden, serrors.KindOf(err))

	// Officers decide only their own unit's reports.
	_, err = f.service.Approve(roleCtx(principal.RoleOfficer, f.battalion), rep.ID(), "")
	assert.Equal(t, serrors.KindForbidden, serrors.KindOf(err))

	// A commander above the unit decides; the decision stamps land.
	approved, err := f.service.Approve(roleCtx(principal.RoleCommander, f.brigade), rep.ID(), "well filed")
	require.NoError(t, err)
	assert.Equal(t, report.StatusApproved, approved.Status())
	require.NotNil(t, approved.DecidedBy())
	require.NotNil(t, approved.DecisionNote())
	assert.Equal(t, "well filed", *approved.DecisionNote())
}

func TestApprove_AuditorNeverDecides(t *testing.T) {
	f := newReportFixture(t)
	operator := roleCtx(principal.RoleOperator, f.company)
	rep, err := f.service.CreateOrGet(operator, reportDay, f.company)
	require.NoError(t, err)
	_, err = f.service.Submit(operator, rep.ID())
	require.NoError(t, err)

	_, err = f.service.Approve(roleCtx(principal.RoleAuditor, f.company), rep.ID(), "")
	require.Error(t, err)
	assert.Equal(t, serrors.KindForbidden, serrors.KindOf(err))
}

func TestReject_RequiresNote(t *testing.T) {
	f := newReportFixture(t)
	operator := roleCtx(principal.RoleOperator, f.company)
	rep, err := f.service.CreateOrGet(operator, reportDay, f.company)
	require.NoError(t, err)
	_, err = f.service.Submit(operator, rep.ID())
	require.NoError(t, err)

	_, err = f.service.Reject(adminCtx(), rep.ID(), "  ")
	require.Error(t, err)
	assert.Equal(t, serrors.KindValidation, serrors.KindOf(err))

	rejected, err := f.service.Reject(adminCtx(), rep.ID(), "missing entries")
	require.NoError(t, err)
	assert.Equal(t, report.StatusRejected, rejected.Status())
}

func TestApprove_TerminalReportStaysTerminal(t *testing.T) {
	f := newReportFixture(t)
	operator := roleCtx(principal.RoleOperator, f.company)
	rep, err := f.service.CreateOrGet(operator, reportDay, f.company)
	require.NoError(t, err)
	_, err = f.service.Submit(operator, rep.ID())
	require.NoError(t, err)
	_, err = f.service.Approve(adminCtx(), rep.ID(), "")
	require.NoError(t, err)

	_, err = f.service.Reject(adminCtx(), rep.ID(), "too late")
	require.Error(t, err)
	assert.Equal(t, serrors.KindInvalidTransition, serrors.KindOf(err))
}

func TestList_ScopeFiltersUnits(t *testing.T) {
	f := newReportFixture(t)

	_, err := f.service.CreateOrGet(roleCtx(principal.RoleOperator, f.company), reportDay, f.company)
	require.NoError(t, err)
	_, err = f.service.CreateOrGet(roleCtx(principal.RoleOperator, f.brigade), reportDay, f.brigade)
	require.NoError(t, err)

	mine, _, err := f.service.List(roleCtx(principal.RoleCommander, f.battalion), nil)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, f.company, mine[0].UnitID())

	all, _, err := f.service.List(adminCtx(), nil)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}
