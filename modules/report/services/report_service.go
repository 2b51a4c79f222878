package services

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Shkelqim-Durmishi/Sistemi-Menaxhimit-Personelit-Ushtarak-sub000/modules/core/domain/aggregates/principal"
	"github.com/Shkelqim-Durmishi/Sistemi-Menaxhimit-Personelit-Ushtarak-sub000/modules/report/domain/aggregates/report"
	unitservices "github.com/Shkelqim-Durmishi/Sistemi-Menaxhimit-Personelit-Ushtarak-sub000/modules/unit/services"
	"github.com/Shkelqim-Durmishi/Sistemi-Menaxhimit-Personelit-Ushtarak-sub000/pkg/composables"
	"github.com/Shkelqim-Durmishi/Sistemi-Menaxhimit-Personelit-Ushtarak-sub000/pkg/eventbus"
	"github.com/Shkelqim-Durmishi/Sistemi-Menaxhimit-Personelit-Ushtarak-sub000/pkg/serrors"
	"github.com/Shkelqim-Durmishi/Sistemi-Menaxhimit-Personelit-Ushtarak-sub000/pkg/workflow"
)

const (
	EventSubmit  workflow.Event = "submit"
	EventApprove workflow.Event = "approve"
	EventReject  workflow.Event = "reject"
)

// DeciderScope narrows where a role may decide a pending report.
type DeciderScope int

const (
	// ScopeAnyUnit lets the role decide reports of every unit.
	ScopeAnyUnit DeciderScope = iota
	// ScopeSubtree requires the report's unit to sit inside the actor's
	// own unit subtree.
	ScopeSubtree
	// ScopeSameUnit requires an exact unit match.
	ScopeSameUnit
)

type DeciderRule struct {
	Role  principal.Role
	Scope DeciderScope
}

// DefaultDeciderRules is the authority table for report decisions. AUDITOR
// is deliberately absent: auditors read everything and decide nothing.
var DefaultDeciderRules = []DeciderRule{
	{Role: principal.RoleAdmin, Scope: ScopeAnyUnit},
	{Role: principal.RoleCommander, Scope: ScopeSubtree},
	{Role: principal.RoleOfficer, Scope: ScopeSameUnit},
}

// ReportService drives the daily report through
// DRAFT -> PENDING -> APPROVED | REJECTED, with the editing window enforced
// by the wall-clock cutoff.
type ReportService struct {
	repo     report.Repository
	units    *unitservices.UnitService
	recorder workflow.Recorder
	machine  *workflow.Machine
	cutoff   report.Cutoff
	deciders []DeciderRule
}

func NewReportService(
	repo report.Repository,
	store workflow.Store,
	units *unitservices.UnitService,
	recorder workflow.Recorder,
	bus eventbus.EventBus,
	cutoff report.Cutoff,
	deciders []DeciderRule,
) (*ReportService, error) {
	if len(deciders) == 0 {
		deciders = DefaultDeciderRules
	}
	s := &ReportService{
		repo:     repo,
		units:    units,
		recorder: recorder,
		cutoff:   cutoff,
		deciders: deciders,
	}

	machine, err := workflow.NewMachine(workflow.Definition{
		EntityType: "report",
		Initial:    workflow.State(report.StatusDraft),
		Transitions: []workflow.Transition{
			{From: workflow.State(report.StatusDraft), Event: EventSubmit, To: workflow.State(report.StatusPending), Guard: s.submitGuard},
			{From: workflow.State(report.StatusPending), Event: EventApprove, To: workflow.State(report.StatusApproved), Guard: s.deciderGuard},
			{From: workflow.State(report.StatusPending), Event: EventReject, To: workflow.State(report.StatusRejected), Guard: s.deciderGuard},
		},
	}, store, recorder, bus)
	if err != nil {
		return nil, err
	}
	s.machine = machine
	return s, nil
}

// submitGuard: the actor must be able to edit the report, and the editing
// window must still be open.
func (s *ReportService) submitGuard(ctx context.Context, actor principal.Principal, subject workflow.Subject) error {
	r, ok := subject.(report.Report)
	if !ok {
		return serrors.NewInternal("subject is not a report")
	}
	if err := s.requireEditScope(ctx, actor, r); err != nil {
		return err
	}
	if locked, reason := report.Locked(r.Date(), composables.UseNow(ctx), s.cutoff); locked {
		return serrors.NewReportLocked(reason)
	}
	return nil
}

func (s *ReportService) deciderGuard(ctx context.Context, actor principal.Principal, subject workflow.Subject) error {
	r, ok := subject.(report.Report)
	if !ok {
		return serrors.NewInternal("subject is not a report")
	}
	for _, rule := range s.deciders {
		if rule.Role != actor.Role() {
			continue
		}
		switch rule.Scope {
		case ScopeAnyUnit:
			return nil
		case ScopeSameUnit:
			if actor.HomeUnit() == r.UnitID() {
				return nil
			}
		case ScopeSubtree:
			idx, err := s.units.Index(ctx)
			if err != nil {
				return err
			}
			if idx.IsDescendantOf(r.UnitID(), actor.HomeUnit()) {
				return nil
			}
		}
	}
	return serrors.NewForbidden("your role may not decide this report")
}

// CreateOrGet returns the unit's report for the given day, creating a DRAFT
// when none exists yet. Existing reports come back in whatever state they
// are in. Non-admins always get their own unit regardless of the argument.
func (s *ReportService) CreateOrGet(ctx context.Context, date time.Time, unitID uuid.UUID) (report.Report, error) {
	actor, err := composables.UseUser(ctx)
	if err != nil {
		return report.Report{}, serrors.NewForbidden("not authenticated")
	}
	if actor.Role() != principal.RoleAdmin {
		unitID = actor.HomeUnit()
	}
	if unitID == uuid.Nil {
		return report.Report{}, serrors.NewValidationError("unit_id", "unit is required")
	}
	idx, err := s.units.Index(ctx)
	if err != nil {
		return report.Report{}, err
	}
	if !idx.Exists(unitID) {
		return report.Report{}, serrors.NewValidationError("unit_id", "unknown unit")
	}

	day := report.Day(date)
	existing, err := s.repo.GetByDateAndUnit(ctx, day, unitID)
	if err == nil {
		return existing, nil
	}
	if !serrors.IsKind(err, serrors.KindNotFound) {
		return report.Report{}, err
	}

	created, err := s.repo.Create(ctx, report.New(day, unitID, actor.ID()))
	if err != nil {
		// Lost the insert race: someone created it between lookup and
		// insert, so hand back theirs.
		if serrors.IsKind(err, serrors.KindConflict) {
			return s.repo.GetByDateAndUnit(ctx, day, unitID)
		}
		return report.Report{}, err
	}

	if err := s.recorder.Record(ctx, workflow.Entry{
		ActorID:    actor.ID(),
		Action:     "create",
		EntityType: "report",
		EntityID:   created.ID(),
		After:      created.Snapshot(),
	}); err != nil {
		return report.Report{}, err
	}
	return created, nil
}

func (s *ReportService) GetByID(ctx context.Context, id uuid.UUID) (report.Report, error) {
	actor, err := composables.UseUser(ctx)
	if err != nil {
		return report.Report{}, serrors.NewForbidden("not authenticated")
	}
	return s.getScoped(ctx, actor, id)
}

func (s *ReportService) List(ctx context.Context, params *report.FindParams) ([]report.Report, int64, error) {
	actor, err := composables.UseUser(ctx)
	if err != nil {
		return nil, 0, serrors.NewForbidden("not authenticated")
	}
	if params == nil {
		params = &report.FindParams{}
	}

	switch actor.Role() {
	case principal.RoleAdmin, principal.RoleAuditor:
	default:
		scope, err := s.scopeUnits(ctx, actor)
		if err != nil {
			return nil, 0, err
		}
		params.UnitIDs = scope
	}
	return s.repo.GetPaginated(ctx, params)
}

func (s *ReportService) Rows(ctx context.Context, reportID uuid.UUID) ([]report.Row, error) {
	actor, err := composables.UseUser(ctx)
	if err != nil {
		return nil, serrors.NewForbidden("not authenticated")
	}
	if _, err := s.getScoped(ctx, actor, reportID); err != nil {
		return nil, err
	}
	return s.repo.Rows(ctx, reportID)
}

func (s *ReportService) AddRow(ctx context.Context, reportID uuid.UUID, dto *report.RowDTO) (report.Row, error) {
	r, err := s.editableReport(ctx, reportID)
	if err != nil {
		return report.Row{}, err
	}
	if err := validateRowDTO(dto); err != nil {
		return report.Row{}, err
	}
	return s.repo.AddRow(ctx, report.Row{
		ReportID:   r.ID(),
		PersonID:   dto.PersonID,
		CategoryID: dto.CategoryID,
		TimeFrom:   dto.TimeFrom,
		TimeTo:     dto.TimeTo,
		Location:   dto.Location,
		Note:       dto.Note,
		Emergency:  dto.Emergency,
	})
}

func (s *ReportService) UpdateRow(ctx context.Context, rowID uuid.UUID, dto *report.RowDTO) (report.Row, error) {
	row, err := s.repo.GetRow(ctx, rowID)
	if err != nil {
		return report.Row{}, err
	}
	if _, err := s.editableReport(ctx, row.ReportID); err != nil {
		return report.Row{}, err
	}
	if err := validateRowDTO(dto); err != nil {
		return report.Row{}, err
	}
	row.PersonID = dto.PersonID
	row.CategoryID = dto.CategoryID
	row.TimeFrom = dto.TimeFrom
	row.TimeTo = dto.TimeTo
	row.Location = dto.Location
	row.Note = dto.Note
	row.Emergency = dto.Emergency
	return s.repo.UpdateRow(ctx, row)
}

func (s *ReportService) DeleteRow(ctx context.Context, rowID uuid.UUID) error {
	row, err := s.repo.GetRow(ctx, rowID)
	if err != nil {
		return err
	}
	if _, err := s.editableReport(ctx, row.ReportID); err != nil {
		return err
	}
	return s.repo.DeleteRow(ctx, rowID)
}

// Submit moves a draft to PENDING. An empty report is submittable; a unit
// with nothing to report still files.
func (s *ReportService) Submit(ctx context.Context, reportID uuid.UUID) (report.Report, error) {
	return s.fire(ctx, reportID, EventSubmit, report.StatusPending, nil)
}

func (s *ReportService) Approve(ctx context.Context, reportID uuid.UUID, note string) (report.Report, error) {
	var notePtr *string
	if trimmed := strings.TrimSpace(note); trimmed != "" {
		notePtr = &trimmed
	}
	return s.fire(ctx, reportID, EventApprove, report.StatusApproved, notePtr)
}

func (s *ReportService) Reject(ctx context.Context, reportID uuid.UUID, note string) (report.Report, error) {
	trimmed := strings.TrimSpace(note)
	if trimmed == "" {
		return report.Report{}, serrors.NewFieldRequiredError("note")
	}
	return s.fire(ctx, reportID, EventReject, report.StatusRejected, &trimmed)
}

func (s *ReportService) fire(ctx context.Context, reportID uuid.UUID, event workflow.Event, to report.Status, note *string) (report.Report, error) {
	actor, err := composables.UseUser(ctx)
	if err != nil {
		return report.Report{}, serrors.NewForbidden("not authenticated")
	}
	r, err := s.getScoped(ctx, actor, reportID)
	if err != nil {
		return report.Report{}, err
	}

	var hooks []func(context.Context) error
	if event == EventApprove || event == EventReject {
		hooks = append(hooks, func(ctx context.Context) error {
			return s.repo.SetDecision(ctx, reportID, report.Decision{
				DecidedBy: actor.ID(),
				DecidedAt: composables.UseNow(ctx),
				Note:      note,
			})
		})
	}

	after := r.Snapshot()
	after.Status = to
	after.DecisionNote = note
	if _, err := s.machine.Fire(ctx, workflow.FireRequest{
		Subject: r,
		Event:   event,
		Actor:   actor,
		Before:  r.Snapshot(),
		After:   after,
		Hooks:   hooks,
	}); err != nil {
		return report.Report{}, err
	}
	return s.repo.GetByID(ctx, reportID)
}

// editableReport loads the report and enforces the row-editing gate: actor
// in scope, status DRAFT, editing window open.
func (s *ReportService) editableReport(ctx context.Context, reportID uuid.UUID) (report.Report, error) {
	actor, err := composables.UseUser(ctx)
	if err != nil {
		return report.Report{}, serrors.NewForbidden("not authenticated")
	}
	r, err := s.getScoped(ctx, actor, reportID)
	if err != nil {
		return report.Report{}, err
	}
	if err := s.requireEditScope(ctx, actor, r); err != nil {
		return report.Report{}, err
	}
	if r.Status() != report.StatusDraft {
		return report.Report{}, serrors.NewInvalidTransition("report", string(r.Status()), "edit")
	}
	if locked, reason := report.Locked(r.Date(), composables.UseNow(ctx), s.cutoff); locked {
		return report.Report{}, serrors.NewReportLocked(reason)
	}
	return r, nil
}

func (s *ReportService) requireEditScope(ctx context.Context, actor principal.Principal, r report.Report) error {
	switch actor.Role() {
	case principal.RoleAdmin:
		return nil
	case principal.RoleAuditor:
		return serrors.NewForbidden("auditors may not edit reports")
	}
	idx, err := s.units.Index(ctx)
	if err != nil {
		return err
	}
	if !idx.IsDescendantOf(r.UnitID(), actor.HomeUnit()) {
		return serrors.NewForbidden("report belongs to another unit")
	}
	return nil
}

// getScoped hides out-of-scope reports behind NotFound.
func (s *ReportService) getScoped(ctx context.Context, actor principal.Principal, reportID uuid.UUID) (report.Report, error) {
	r, err := s.repo.GetByID(ctx, reportID)
	if err != nil {
		return report.Report{}, err
	}
	switch actor.Role() {
	case principal.RoleAdmin, principal.RoleAuditor:
		return r, nil
	}
	idx, err := s.units.Index(ctx)
	if err != nil {
		return report.Report{}, err
	}
	if !idx.IsDescendantOf(r.UnitID(), actor.HomeUnit()) {
		return report.Report{}, report.ErrNotFound
	}
	return r, nil
}

func (s *ReportService) scopeUnits(ctx context.Context, actor principal.Principal) ([]uuid.UUID, error) {
	idx, err := s.units.Index(ctx)
	if err != nil {
		return nil, err
	}
	home := actor.HomeUnit()
	if home == uuid.Nil || !idx.Exists(home) {
		return nil, serrors.NewForbidden("no unit assigned")
	}
	return append([]uuid.UUID{home}, idx.Descendants(home)...), nil
}

func validateRowDTO(dto *report.RowDTO) error {
	if dto == nil {
		return serrors.NewFieldRequiredError("body")
	}
	if errs, ok := dto.Ok(); !ok {
		for field, msg := range errs {
			return serrors.NewValidationError(field, msg)
		}
	}
	return nil
}
