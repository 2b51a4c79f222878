package services

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/Shkelqim-Durmishi/Sistemi-Menaxhimit-Personelit-Ushtarak-sub000/modules/core/domain/aggregates/principal"
	"github.com/Shkelqim-Durmishi/Sistemi-Menaxhimit-Personelit-Ushtarak-sub000/modules/person/domain/aggregates/person"
	unitservices "github.com/Shkelqim-Durmishi/Sistemi-Menaxhimit-Personelit-Ushtarak-sub000/modules/unit/services"
	"github.com/Shkelqim-Durmishi/Sistemi-Menaxhimit-Personelit-Ushtarak-sub000/pkg/composables"
	"github.com/Shkelqim-Durmishi/Sistemi-Menaxhimit-Personelit-Ushtarak-sub000/pkg/eventbus"
	"github.com/Shkelqim-Durmishi/Sistemi-Menaxhimit-Personelit-Ushtarak-sub000/pkg/serrors"
	"github.com/Shkelqim-Durmishi/Sistemi-Menaxhimit-Personelit-Ushtarak-sub000/pkg/workflow"
)

const (
	EventApprove  workflow.Event = "approve"
	EventReject   workflow.Event = "reject"
	EventResubmit workflow.Event = "resubmit"
)

// PersonService owns the PersonRecord lifecycle: registration lands in
// PENDING, a decider moves it to ACTIVE or REJECTED, and the creator may
// repair and resubmit a rejected record.
type PersonService struct {
	repo     person.Repository
	units    *unitservices.UnitService
	recorder workflow.Recorder
	machine  *workflow.Machine
}

func NewPersonService(
	repo person.Repository,
	store workflow.Store,
	units *unitservices.UnitService,
	recorder workflow.Recorder,
	bus eventbus.EventBus,
) (*PersonService, error) {
	s := &PersonService{repo: repo, units: units, recorder: recorder}

	machine, err := workflow.NewMachine(workflow.Definition{
		EntityType: "person",
		Initial:    workflow.State(person.StatusPending),
		Transitions: []workflow.Transition{
			{From: workflow.State(person.StatusPending), Event: EventApprove, To: workflow.State(person.StatusActive), Guard: s.deciderGuard},
			{From: workflow.State(person.StatusPending), Event: EventReject, To: workflow.State(person.StatusRejected), Guard: s.deciderGuard},
			{From: workflow.State(person.StatusRejected), Event: EventResubmit, To: workflow.State(person.StatusPending), Guard: creatorGuard},
		},
	}, store, recorder, bus)
	if err != nil {
		return nil, err
	}
	s.machine = machine
	return s, nil
}

// deciderGuard admits ADMIN, and a COMMANDER whose scope covers the
// record's unit (own unit or any descendant).
func (s *PersonService) deciderGuard(ctx context.Context, actor principal.Principal, subject workflow.Subject) error {
	p, ok := subject.(person.Person)
	if !ok {
		return serrors.NewInternal("subject is not a person record")
	}
	switch actor.Role() {
	case principal.RoleAdmin:
		return nil
	case principal.RoleCommander:
		idx, err := s.units.Index(ctx)
		if err != nil {
			return err
		}
		if idx.IsDescendantOf(p.UnitID(), actor.HomeUnit()) {
			return nil
		}
		return serrors.NewForbidden("record is outside your unit scope")
	default:
		return serrors.NewForbidden("only a commander or administrator may decide a registration")
	}
}

// creatorGuard restricts resubmission to the principal that registered the
// record.
func creatorGuard(_ context.Context, actor principal.Principal, subject workflow.Subject) error {
	p, ok := subject.(person.Person)
	if !ok {
		return serrors.NewInternal("subject is not a person record")
	}
	if p.CreatedBy() != actor.ID() {
		return serrors.NewForbidden("only the registering user may resubmit this record")
	}
	return nil
}

func (s *PersonService) Register(ctx context.Context, dto *person.CreateDTO) (person.Person, error) {
	actor, err := composables.UseUser(ctx)
	if err != nil {
		return person.Person{}, serrors.NewForbidden("not authenticated")
	}
	if dto == nil {
		return person.Person{}, serrors.NewFieldRequiredError("body")
	}
	if errs, ok := dto.Ok(); !ok {
		for field, msg := range errs {
			return person.Person{}, serrors.NewValidationError(field, msg)
		}
	}

	idx, err := s.units.Index(ctx)
	if err != nil {
		return person.Person{}, err
	}
	if !idx.Exists(dto.UnitID) {
		return person.Person{}, serrors.NewValidationError("unit_id", "unknown unit")
	}

	created, err := s.repo.Create(ctx, person.New(
		dto.ServiceNumber, dto.FirstName, dto.LastName, dto.Grade, dto.UnitID, actor.ID(),
	))
	if err != nil {
		return person.Person{}, err
	}

	// Registration is not a transition, but it still belongs on the trail.
	if err := s.recorder.Record(ctx, workflow.Entry{
		ActorID:    actor.ID(),
		Action:     "register",
		EntityType: "person",
		EntityID:   created.ID(),
		After:      created.Snapshot(),
	}); err != nil {
		return person.Person{}, err
	}
	return created, nil
}

func (s *PersonService) Approve(ctx context.Context, personID uuid.UUID) (person.Person, error) {
	actor, err := composables.UseUser(ctx)
	if err != nil {
		return person.Person{}, serrors.NewForbidden("not authenticated")
	}
	p, err := s.getScoped(ctx, actor, personID)
	if err != nil {
		return person.Person{}, err
	}

	after := p.Snapshot()
	after.Status = person.StatusActive
	if _, err := s.machine.Fire(ctx, workflow.FireRequest{
		Subject: p,
		Event:   EventApprove,
		Actor:   actor,
		Before:  p.Snapshot(),
		After:   after,
	}); err != nil {
		return person.Person{}, err
	}
	return s.repo.GetByID(ctx, personID)
}

func (s *PersonService) Reject(ctx context.Context, personID uuid.UUID, reason string) (person.Person, error) {
	actor, err := composables.UseUser(ctx)
	if err != nil {
		return person.Person{}, serrors.NewForbidden("not authenticated")
	}
	if strings.TrimSpace(reason) == "" {
		return person.Person{}, serrors.NewFieldRequiredError("reason")
	}
	p, err := s.getScoped(ctx, actor, personID)
	if err != nil {
		return person.Person{}, err
	}

	after := p.Snapshot()
	after.Status = person.StatusRejected
	if _, err := s.machine.Fire(ctx, workflow.FireRequest{
		Subject: p,
		Event:   EventReject,
		Actor:   actor,
		Before:  p.Snapshot(),
		After:   after,
		Hooks: []func(context.Context) error{
			func(ctx context.Context) error {
				r := strings.TrimSpace(reason)
				return s.repo.SetRejectionReason(ctx, personID, &r)
			},
		},
	}); err != nil {
		return person.Person{}, err
	}

	updated, err := s.repo.GetByID(ctx, personID)
	if err != nil {
		return person.Person{}, err
	}
	return updated.ScrubbedFor(actor.ID()), nil
}

// Update applies a patch without touching status. Creator or ADMIN only.
func (s *PersonService) Update(ctx context.Context, personID uuid.UUID, patch person.Patch) (person.Person, error) {
	actor, err := composables.UseUser(ctx)
	if err != nil {
		return person.Person{}, serrors.NewForbidden("not authenticated")
	}
	if patch.IsEmpty() {
		return person.Person{}, serrors.NewValidationError("patch", "patch must change at least one field")
	}
	p, err := s.getScoped(ctx, actor, personID)
	if err != nil {
		return person.Person{}, err
	}
	if actor.Role() != principal.RoleAdmin && p.CreatedBy() != actor.ID() {
		return person.Person{}, serrors.NewForbidden("only the registering user may edit this record")
	}

	updated, err := s.repo.Update(ctx, p.Apply(patch))
	if err != nil {
		return person.Person{}, err
	}
	return updated.ScrubbedFor(actor.ID()), nil
}

// UpdateAndResubmit repairs a REJECTED record and moves it back to PENDING,
// clearing the stored rejection reason in the same unit of work.
func (s *PersonService) UpdateAndResubmit(ctx context.Context, personID uuid.UUID, patch person.Patch) (person.Person, error) {
	actor, err := composables.UseUser(ctx)
	if err != nil {
		return person.Person{}, serrors.NewForbidden("not authenticated")
	}
	p, err := s.getScoped(ctx, actor, personID)
	if err != nil {
		return person.Person{}, err
	}

	resubmitted := p.Apply(patch).Resubmitted()
	if _, err := s.machine.Fire(ctx, workflow.FireRequest{
		Subject: p,
		Event:   EventResubmit,
		Actor:   actor,
		Before:  p.Snapshot(),
		After:   resubmitted.Snapshot(),
		Hooks: []func(context.Context) error{
			func(ctx context.Context) error {
				if _, err := s.repo.Update(ctx, p.Apply(patch)); err != nil {
					return err
				}
				return s.repo.SetRejectionReason(ctx, personID, nil)
			},
		},
	}); err != nil {
		return person.Person{}, err
	}
	return s.repo.GetByID(ctx, personID)
}

func (s *PersonService) GetByID(ctx context.Context, personID uuid.UUID) (person.Person, error) {
	actor, err := composables.UseUser(ctx)
	if err != nil {
		return person.Person{}, serrors.NewForbidden("not authenticated")
	}
	p, err := s.getScoped(ctx, actor, personID)
	if err != nil {
		return person.Person{}, err
	}
	return p.ScrubbedFor(actor.ID()), nil
}

// ListPending returns the records awaiting a decision inside the caller's
// scope: everything for ADMIN, own unit and descendants for COMMANDER.
func (s *PersonService) ListPending(ctx context.Context) ([]person.Person, error) {
	actor, err := composables.UseUser(ctx)
	if err != nil {
		return nil, serrors.NewForbidden("not authenticated")
	}

	params := &person.FindParams{Status: person.StatusPending}
	switch actor.Role() {
	case principal.RoleAdmin:
	case principal.RoleCommander:
		scope, err := s.scopeUnits(ctx, actor)
		if err != nil {
			return nil, err
		}
		params.UnitIDs = scope
	default:
		return nil, serrors.NewForbidden("only a commander or administrator may review registrations")
	}

	items, _, err := s.repo.GetPaginated(ctx, params)
	if err != nil {
		return nil, err
	}
	return scrubAll(items, actor.ID()), nil
}

func (s *PersonService) Search(ctx context.Context, params *person.FindParams) ([]person.Person, int64, error) {
	actor, err := composables.UseUser(ctx)
	if err != nil {
		return nil, 0, serrors.NewForbidden("not authenticated")
	}
	if params == nil {
		params = &person.FindParams{}
	}
	params.Q = strings.TrimSpace(params.Q)

	switch actor.Role() {
	case principal.RoleAdmin, principal.RoleAuditor:
	default:
		scope, err := s.scopeUnits(ctx, actor)
		if err != nil {
			return nil, 0, err
		}
		params.UnitIDs = scope
	}

	items, total, err := s.repo.GetPaginated(ctx, params)
	if err != nil {
		return nil, 0, err
	}
	return scrubAll(items, actor.ID()), total, nil
}

// getScoped loads a record and hides its existence from callers outside the
// unit scope: out-of-scope and absent ids are the same NotFound.
func (s *PersonService) getScoped(ctx context.Context, actor principal.Principal, personID uuid.UUID) (person.Person, error) {
	p, err := s.repo.GetByID(ctx, personID)
	if err != nil {
		return person.Person{}, err
	}
	switch actor.Role() {
	case principal.RoleAdmin, principal.RoleAuditor:
		return p, nil
	}
	idx, err := s.units.Index(ctx)
	if err != nil {
		return person.Person{}, err
	}
	if !idx.IsDescendantOf(p.UnitID(), actor.HomeUnit()) {
		return person.Person{}, person.ErrNotFound
	}
	return p, nil
}

func (s *PersonService) scopeUnits(ctx context.Context, actor principal.Principal) ([]uuid.UUID, error) {
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

func scrubAll(items []person.Person, actorID uuid.UUID) []person.Person {
	out := make([]person.Person, 0, len(items))
	for _, p := range items {
		out = append(out, p.ScrubbedFor(actorID))
	}
	return out
}
