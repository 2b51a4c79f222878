package services

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/Shkelqim-Durmishi/Sistemi-Menaxhimit-Personelit-Ushtarak-sub000/modules/core/domain/aggregates/principal"
	"github.com/Shkelqim-Durmishi/Sistemi-Menaxhimit-Personelit-Ushtarak-sub000/modules/person/domain/aggregates/person"
	"github.com/Shkelqim-Durmishi/Sistemi-Menaxhimit-Personelit-Ushtarak-sub000/modules/request/domain/aggregates/changerequest"
	unitservices "github.com/Shkelqim-Durmishi/Sistemi-Menaxhimit-Personelit-Ushtarak-sub000/modules/unit/services"
	"github.com/Shkelqim-Durmishi/Sistemi-Menaxhimit-Personelit-Ushtarak-sub000/pkg/composables"
	"github.com/Shkelqim-Durmishi/Sistemi-Menaxhimit-Personelit-Ushtarak-sub000/pkg/eventbus"
	"github.com/Shkelqim-Durmishi/Sistemi-Menaxhimit-Personelit-Ushtarak-sub000/pkg/serrors"
	"github.com/Shkelqim-Durmishi/Sistemi-Menaxhimit-Personelit-Ushtarak-sub000/pkg/workflow"
)

const (
	EventApprove workflow.Event = "approve"
	EventReject  workflow.Event = "reject"
	EventCancel  workflow.Event = "cancel"
)

const minNoteLength = 5

// RequestService routes change requests: creation by unit staff, decision
// by a commander or administrator, payload application on approval in the
// same transaction as the status flip.
type RequestService struct {
	repo        changerequest.Repository
	persons     person.Repository
	personStore workflow.Store
	principals  principal.Repository
	units       *unitservices.UnitService
	recorder    workflow.Recorder
	machine     *workflow.Machine
}

func NewRequestService(
	repo changerequest.Repository,
	store workflow.Store,
	persons person.Repository,
	personStore workflow.Store,
	principals principal.Repository,
	units *unitservices.UnitService,
	recorder workflow.Recorder,
	bus eventbus.EventBus,
) (*RequestService, error) {
	s := &RequestService{
		repo:        repo,
		persons:     persons,
		personStore: personStore,
		principals:  principals,
		units:       units,
		recorder:    recorder,
	}

	machine, err := workflow.NewMachine(workflow.Definition{
		EntityType: "change_request",
		Initial:    workflow.State(changerequest.StatusPending),
		Transitions: []workflow.Transition{
			{From: workflow.State(changerequest.StatusPending), Event: EventApprove, To: workflow.State(changerequest.StatusApproved), Guard: s.deciderGuard},
			{From: workflow.State(changerequest.StatusPending), Event: EventReject, To: workflow.State(changerequest.StatusRejected), Guard: s.deciderGuard},
			{From: workflow.State(changerequest.StatusPending), Event: EventCancel, To: workflow.State(changerequest.StatusCancelled), Guard: creatorGuard},
		},
	}, store, recorder, bus)
	if err != nil {
		return nil, err
	}
	s.machine = machine
	return s, nil
}

func (s *RequestService) deciderGuard(ctx context.Context, actor principal.Principal, subject workflow.Subject) error {
	req, ok := subject.(changerequest.ChangeRequest)
	if !ok {
		return serrors.NewInternal("subject is not a change request")
	}
	switch actor.Role() {
	case principal.RoleAdmin:
		return nil
	case principal.RoleCommander:
		idx, err := s.units.Index(ctx)
		if err != nil {
			return err
		}
		if idx.IsDescendantOf(req.UnitID(), actor.HomeUnit()) {
			return nil
		}
		return serrors.NewForbidden("request is outside your unit scope")
	default:
		return serrors.NewForbidden("only a commander or administrator may decide a change request")
	}
}

func creatorGuard(_ context.Context, actor principal.Principal, subject workflow.Subject) error {
	req, ok := subject.(changerequest.ChangeRequest)
	if !ok {
		return serrors.NewInternal("subject is not a change request")
	}
	if req.CreatedBy() != actor.ID() {
		return serrors.NewForbidden("only the creator may cancel this request")
	}
	return nil
}

// Create files a request against an ACTIVE personnel record. The target's
// unit at creation time determines who sees and decides it.
func (s *RequestService) Create(ctx context.Context, requestType changerequest.Type, personID uuid.UUID, rawPayload json.RawMessage) (changerequest.ChangeRequest, error) {
	actor, err := composables.UseUser(ctx)
	if err != nil {
		return changerequest.ChangeRequest{}, serrors.NewForbidden("not authenticated")
	}
	switch actor.Role() {
	case principal.RoleOperator, principal.RoleOfficer, principal.RoleCommander:
	default:
		return changerequest.ChangeRequest{}, serrors.NewForbidden("your role may not file change requests")
	}
	if !requestType.Valid() {
		return changerequest.ChangeRequest{}, serrors.NewValidationError("type", "unknown request type")
	}

	payload, err := changerequest.DecodePayload(requestType, rawPayload)
	if err != nil {
		return changerequest.ChangeRequest{}, err
	}
	if err := s.validateDestination(ctx, payload); err != nil {
		return changerequest.ChangeRequest{}, err
	}

	target, err := s.persons.GetByID(ctx, personID)
	if err != nil {
		return changerequest.ChangeRequest{}, err
	}
	if target.Status() != person.StatusActive {
		return changerequest.ChangeRequest{}, serrors.NewValidationError("person_id", "target record is not active")
	}

	stored, err := json.Marshal(payload)
	if err != nil {
		return changerequest.ChangeRequest{}, serrors.NewInternal("encode payload")
	}

	created, err := s.repo.Create(ctx, changerequest.New(requestType, personID, target.UnitID(), stored, actor.ID()))
	if err != nil {
		return changerequest.ChangeRequest{}, err
	}

	if err := s.recorder.Record(ctx, workflow.Entry{
		ActorID:    actor.ID(),
		Action:     "create",
		EntityType: "change_request",
		EntityID:   created.ID(),
		After:      created.Snapshot(),
	}); err != nil {
		return changerequest.ChangeRequest{}, err
	}
	return created, nil
}

// validateDestination rejects payloads that point at units the hierarchy
// does not know.
func (s *RequestService) validateDestination(ctx context.Context, payload changerequest.Payload) error {
	var dest uuid.UUID
	switch p := payload.(type) {
	case *changerequest.TransferPersonPayload:
		dest = p.ToUnitID
	case *changerequest.ChangeUnitPayload:
		dest = p.ToUnitID
	default:
		return nil
	}
	idx, err := s.units.Index(ctx)
	if err != nil {
		return err
	}
	if !idx.Exists(dest) {
		return serrors.NewValidationError("to_unit_id", "unknown destination unit")
	}
	return nil
}

// Approve flips the request to APPROVED and applies the payload to the
// target record inside the same transaction. A failed application rolls the
// decision back.
// Approve stamps the decision and applies the payload. The note is optional
// but always stored, empty when the decider gave none, so every terminal
// request carries a non-null decision triple.
func (s *RequestService) Approve(ctx context.Context, requestID uuid.UUID, note string) (changerequest.ChangeRequest, error) {
	trimmed := strings.TrimSpace(note)
	return s.decide(ctx, requestID, EventApprove, changerequest.StatusApproved, &trimmed, true)
}

// Reject requires a note of at least five characters so the creator learns
// why.
func (s *RequestService) Reject(ctx context.Context, requestID uuid.UUID, note string) (changerequest.ChangeRequest, error) {
	trimmed := strings.TrimSpace(note)
	if len(trimmed) < minNoteLength {
		return changerequest.ChangeRequest{}, serrors.NewValidationError("note", "rejection note must be at least 5 characters")
	}
	return s.decide(ctx, requestID, EventReject, changerequest.StatusRejected, &trimmed, false)
}

func (s *RequestService) Cancel(ctx context.Context, requestID uuid.UUID, note string) (changerequest.ChangeRequest, error) {
	trimmed := strings.TrimSpace(note)
	return s.decide(ctx, requestID, EventCancel, changerequest.StatusCancelled, &trimmed, false)
}

func (s *RequestService) decide(ctx context.Context, requestID uuid.UUID, event workflow.Event, to changerequest.Status, note *string, apply bool) (changerequest.ChangeRequest, error) {
	actor, err := composables.UseUser(ctx)
	if err != nil {
		return changerequest.ChangeRequest{}, serrors.NewForbidden("not authenticated")
	}
	req, err := s.getScoped(ctx, actor, requestID)
	if err != nil {
		return changerequest.ChangeRequest{}, err
	}

	hooks := []func(context.Context) error{
		func(ctx context.Context) error {
			return s.repo.SetDecision(ctx, requestID, changerequest.Decision{
				DecidedBy: actor.ID(),
				DecidedAt: composables.UseNow(ctx),
				Note:      note,
			})
		},
	}
	if apply {
		hooks = append(hooks, func(ctx context.Context) error {
			return s.applyPayload(ctx, actor, req)
		})
	}

	after := req.Snapshot()
	after.Status = to
	after.DecisionNote = note
	if _, err := s.machine.Fire(ctx, workflow.FireRequest{
		Subject: req,
		Event:   event,
		Actor:   actor,
		Before:  req.Snapshot(),
		After:   after,
		Hooks:   hooks,
	}); err != nil {
		return changerequest.ChangeRequest{}, err
	}
	return s.repo.GetByID(ctx, requestID)
}

// applyPayload mutates the target personnel record according to the request
// type. It runs inside the approval transaction.
func (s *RequestService) applyPayload(ctx context.Context, actor principal.Principal, req changerequest.ChangeRequest) error {
	payload, err := changerequest.DecodePayload(req.Type(), req.Payload())
	if err != nil {
		return err
	}
	target, err := s.persons.GetByID(ctx, req.PersonID())
	if err != nil {
		return err
	}
	if target.Status() != person.StatusActive {
		return serrors.NewConflict("person")
	}

	switch p := payload.(type) {
	case *changerequest.DeletePersonPayload, *changerequest.DeactivatePersonPayload:
		if err := s.personStore.TransitionState(ctx, target.ID(),
			workflow.State(person.StatusActive), workflow.State(person.StatusInactive)); err != nil {
			return err
		}
		return s.recorder.Record(ctx, workflow.Entry{
			ActorID:    actor.ID(),
			Action:     strings.ToLower(string(req.Type())),
			EntityType: "person",
			EntityID:   target.ID(),
			Before:     target.Snapshot(),
		})
	case *changerequest.TransferPersonPayload:
		_, err := s.persons.Update(ctx, target.WithUnit(p.ToUnitID))
		return err
	case *changerequest.ChangeUnitPayload:
		_, err := s.persons.Update(ctx, target.WithUnit(p.ToUnitID))
		return err
	case *changerequest.ChangeGradePayload:
		_, err := s.persons.Update(ctx, target.WithGrade(p.Grade))
		return err
	case *changerequest.UpdatePersonPayload:
		patch := person.Patch{FirstName: p.FirstName, LastName: p.LastName, Grade: p.Grade}
		_, err := s.persons.Update(ctx, target.Apply(patch))
		return err
	case *changerequest.CreateUserPayload:
		hash, err := bcrypt.GenerateFromPassword([]byte(p.Password), bcrypt.DefaultCost)
		if err != nil {
			return err
		}
		unitID := target.UnitID()
		_, err = s.principals.Create(ctx, principal.New(p.Email, string(hash), p.Role, &unitID))
		return err
	default:
		return serrors.NewInternal("unhandled payload type")
	}
}

// ListIncoming returns pending requests awaiting the caller: every pending
// request for ADMIN and AUDITOR, the unit subtree for COMMANDER, the home
// unit for OFFICER and OPERATOR.
func (s *RequestService) ListIncoming(ctx context.Context) ([]changerequest.ChangeRequest, error) {
	actor, err := composables.UseUser(ctx)
	if err != nil {
		return nil, serrors.NewForbidden("not authenticated")
	}
	params := &changerequest.FindParams{Statuses: []changerequest.Status{changerequest.StatusPending}}
	if err := s.applyScope(ctx, actor, params); err != nil {
		return nil, err
	}
	items, _, err := s.repo.GetPaginated(ctx, params)
	return items, err
}

// ListMine returns the caller's own requests, whatever their state.
func (s *RequestService) ListMine(ctx context.Context) ([]changerequest.ChangeRequest, error) {
	actor, err := composables.UseUser(ctx)
	if err != nil {
		return nil, serrors.NewForbidden("not authenticated")
	}
	items, _, err := s.repo.GetPaginated(ctx, &changerequest.FindParams{CreatedBy: actor.ID()})
	return items, err
}

// ListArchive returns decided requests in the caller's scope.
func (s *RequestService) ListArchive(ctx context.Context) ([]changerequest.ChangeRequest, error) {
	actor, err := composables.UseUser(ctx)
	if err != nil {
		return nil, serrors.NewForbidden("not authenticated")
	}
	params := &changerequest.FindParams{Statuses: []changerequest.Status{
		changerequest.StatusApproved, changerequest.StatusRejected, changerequest.StatusCancelled,
	}}
	if err := s.applyScope(ctx, actor, params); err != nil {
		return nil, err
	}
	items, _, err := s.repo.GetPaginated(ctx, params)
	return items, err
}

func (s *RequestService) GetByID(ctx context.Context, requestID uuid.UUID) (changerequest.ChangeRequest, error) {
	actor, err := composables.UseUser(ctx)
	if err != nil {
		return changerequest.ChangeRequest{}, serrors.NewForbidden("not authenticated")
	}
	return s.getScoped(ctx, actor, requestID)
}

func (s *RequestService) applyScope(ctx context.Context, actor principal.Principal, params *changerequest.FindParams) error {
	switch actor.Role() {
	case principal.RoleAdmin, principal.RoleAuditor:
		return nil
	case principal.RoleCommander:
		idx, err := s.units.Index(ctx)
		if err != nil {
			return err
		}
		home := actor.HomeUnit()
		if home == uuid.Nil || !idx.Exists(home) {
			return serrors.NewForbidden("no unit assigned")
		}
		params.UnitIDs = append([]uuid.UUID{home}, idx.Descendants(home)...)
		return nil
	default:
		home := actor.HomeUnit()
		if home == uuid.Nil {
			return serrors.NewForbidden("no unit assigned")
		}
		params.UnitIDs = []uuid.UUID{home}
		return nil
	}
}

// getScoped hides out-of-scope requests behind NotFound, except for the
// creator, who always sees their own.
func (s *RequestService) getScoped(ctx context.Context, actor principal.Principal, requestID uuid.UUID) (changerequest.ChangeRequest, error) {
	req, err := s.repo.GetByID(ctx, requestID)
	if err != nil {
		return changerequest.ChangeRequest{}, err
	}
	if req.CreatedBy() == actor.ID() {
		return req, nil
	}
	switch actor.Role() {
	case principal.RoleAdmin, principal.RoleAuditor:
		return req, nil
	case principal.RoleCommander:
		idx, err := s.units.Index(ctx)
		if err != nil {
			return changerequest.ChangeRequest{}, err
		}
		if idx.IsDescendantOf(req.UnitID(), actor.HomeUnit()) {
			return req, nil
		}
	default:
		if actor.HomeUnit() == req.UnitID() {
			return req, nil
		}
	}
	return changerequest.ChangeRequest{}, changerequest.ErrNotFound
}
