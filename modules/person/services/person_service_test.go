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
	"github.com/Shkelqim-Durmishi/Sistemi-Menaxhimit-Personelit-Ushtarak-sub000/modules/person/domain/aggregates/person"
	"github.com/Shkelqim-Durmishi/Sistemi-Menaxhimit-Personelit-Ushtarak-sub000/modules/unit/domain/unit"
	unitservices "github.com/Shkelqim-Durmishi/Sistemi-Menaxhimit-Personelit-Ushtarak-sub000/modules/unit/services"
	"github.com/Shkelqim-Durmishi/Sistemi-Menaxhimit-Personelit-Ushtarak-sub000/pkg/composables"
	"github.com/Shkelqim-Durmishi/Sistemi-Menaxhimit-Personelit-Ushtarak-sub000/pkg/serrors"
	"github.com/Shkelqim-Durmishi/Sistemi-Menaxhimit-Personelit-Ushtarak-sub000/pkg/workflow"
)

type memPersonRepo struct {
	mu      sync.Mutex
	records map[uuid.UUID]person.Person
}

func newMemPersonRepo() *memPersonRepo {
	return &memPersonRepo{records: make(map[uuid.UUID]person.Person)}
}

func (r *memPersonRepo) GetPaginated(_ context.Context, params *person.FindParams) ([]person.Person, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []person.Person
	for _, p := range r.records {
		if params.Status != "" && p.Status() != params.Status {
			continue
		}
		if len(params.UnitIDs) > 0 && !containsUnit(params.UnitIDs, p.UnitID()) {
			continue
		}
		if params.Q != "" && !strings.Contains(p.LastName(), params.Q) {
			continue
		}
		out = append(out, p)
	}
	return out, int64(len(out)), nil
}

func (r *memPersonRepo) GetByID(_ context.Context, id uuid.UUID) (person.Person, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.records[id]
	if !ok {
		return person.Person{}, person.ErrNotFound
	}
	return p, nil
}

func (r *memPersonRepo) GetByServiceNumber(_ context.Context, serviceNumber string) (person.Person, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.records {
		if p.ServiceNumber() == serviceNumber {
			return p, nil
		}
	}
	return person.Person{}, person.ErrNotFound
}

func (r *memPersonRepo) Create(_ context.Context, p person.Person) (person.Person, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.records {
		if existing.ServiceNumber() == p.ServiceNumber() {
			return person.Person{}, person.ErrServiceNumberTaken
		}
	}
	created := person.Hydrate(
		uuid.New(), p.ServiceNumber(), p.FirstName(), p.LastName(), p.Grade(),
		p.UnitID(), p.Status(), p.CreatedBy(), nil, time.Now(), time.Now(),
	)
	r.records[created.ID()] = created
	return created, nil
}

func (r *memPersonRepo) Update(_ context.Context, p person.Person) (person.Person, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	current, ok := r.records[p.ID()]
	if !ok {
		return person.Person{}, person.ErrNotFound
	}
	updated := person.Hydrate(
		current.ID(), p.ServiceNumber(), p.FirstName(), p.LastName(), p.Grade(),
		p.UnitID(), current.Status(), current.CreatedBy(), current.RejectionReason(),
		current.CreatedAt(), time.Now(),
	)
	r.records[updated.ID()] = updated
	return updated, nil
}

func (r *memPersonRepo) SetRejectionReason(_ context.Context, id uuid.UUID, reason *string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	current, ok := r.records[id]
	if !ok {
		return person.ErrNotFound
	}
	r.records[id] = person.Hydrate(
		current.ID(), current.ServiceNumber(), current.FirstName(), current.LastName(),
		current.Grade(), current.UnitID(), current.Status(), current.CreatedBy(),
		reason, current.CreatedAt(), time.Now(),
	)
	return nil
}

func (r *memPersonRepo) TransitionState(_ context.Context, id uuid.UUID, from, to workflow.State) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	current, ok := r.records[id]
	if !ok {
		return person.ErrNotFound
	}
	if workflow.State(current.Status()) != from {
		return serrors.NewConflict("person")
	}
	r.records[id] = person.Hydrate(
		current.ID(), current.ServiceNumber(), current.FirstName(), current.LastName(),
		current.Grade(), current.UnitID(), person.Status(to), current.CreatedBy(),
		current.RejectionReason(), current.CreatedAt(), time.Now(),
	)
	return nil
}

func containsUnit(ids []uuid.UUID, id uuid.UUID) bool {
	for _, candidate := range ids {
		if candidate == id {
			return true
		}
	}
	return false
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

type recordedEntry struct {
	entries []workflow.Entry
	mu      sync.Mutex
}

func (r *recordedEntry) Record(_ context.Context, entry workflow.Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, entry)
	return nil
}

type fixture struct {
	service  *PersonService
	repo     *memPersonRepo
	recorder *recordedEntry

	brigade   uuid.UUID
	battalion uuid.UUID
	company   uuid.UUID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	brigade := uuid.New()
	battalion := uuid.New()
	company := uuid.New()
	unitRepo := &memUnitRepo{units: []unit.Unit{
		{ID: brigade, Name: "1st Brigade"},
		{ID: battalion, Name: "2nd Battalion", ParentID: &brigade},
		{ID: company, Name: "Alpha Company", ParentID: &battalion},
	}}

	repo := newMemPersonRepo()
	recorder := &recordedEntry{}
	service, err := NewPersonService(repo, repo, unitservices.NewUnitService(unitRepo), recorder, nil)
	require.NoError(t, err)

	return &fixture{
		service:   service,
		repo:      repo,
		recorder:  recorder,
		brigade:   brigade,
		battalion: battalion,
		company:   company,
	}
}

func asUser(p principal.Principal) context.Context {
	return composables.WithUser(context.Background(), p)
}

func operatorOf(unitID uuid.UUID) principal.Principal {
	return principal.Hydrate(uuid.New(), "operator@hq.local", "", principal.RoleOperator, &unitID, time.Time{}, time.Time{})
}

func commanderOf(unitID uuid.UUID) principal.Principal {
	return principal.Hydrate(uuid.New(), "commander@hq.local", "", principal.RoleCommander, &unitID, time.Time{}, time.Time{})
}

func registerDTO(unitID uuid.UUID) *person.CreateDTO {
	return &person.CreateDTO{
		ServiceNumber: "SN-" + uuid.NewString()[:8],
		FirstName:     "Arben",
		LastName:      "Hoxha",
		Grade:         "SGT",
		UnitID:        unitID,
	}
}

func TestRegister_CreatesPendingRecordWithAuditEntry(t *testing.T) {
	f := newFixture(t)
	operator := operatorOf(f.company)

	p, err := f.service.Register(asUser(operator), registerDTO(f.company))
	require.NoError(t, err)

	assert.Equal(t, person.StatusPending, p.Status())
	assert.Equal(t, operator.ID(), p.CreatedBy())
	require.Len(t, f.recorder.entries, 1)
	assert.Equal(t, "register", f.recorder.entries[0].Action)
	assert.Equal(t, p.ID(), f.recorder.entries[0].EntityID)
}

func TestRegister_UnknownUnitFailsValidation(t *testing.T) {
	f := newFixture(t)

	_, err := f.service.Register(asUser(operatorOf(f.company)), registerDTO(uuid.New()))
	require.Error(t, err)
	assert.Equal(t, serrors.KindValidation, serrors.KindOf(err))
}

func TestApprove_CommanderOfAncestorUnit(t *testing.T) {
	f := newFixture(t)
	p, err := f.service.Register(asUser(operatorOf(f.company)), registerDTO(f.company))
	require.NoError(t, err)

	approved, err := f.service.Approve(asUser(commanderOf(f.battalion)), p.ID())
	require.NoError(t, err)
	assert.Equal(t, person.StatusActive, approved.Status())
}

func TestApprove_OperatorForbidden(t *testing.T) {
	f := newFixture(t)
	operator := operatorOf(f.company)
	p, err := f.service.Register(asUser(operator), registerDTO(f.company))
	require.NoError(t, err)

	_, err = f.service.Approve(asUser(operator), p.ID())
	require.Error(t, err)
	assert.Equal(t, serrors.KindForbidden, serrors.KindOf(err))

	stored, err := f.repo.GetByID(context.Background(), p.ID())
	require.NoError(t, err)
	assert.Equal(t, person.StatusPending, stored.Status())
}

func TestApprove_CommanderOfSiblingScopeGetsNotFound(t *testing.T) {
	f := newFixture(t)
	p, err := f.service.Register(asUser(operatorOf(f.battalion)), registerDTO(f.battalion))
	require.NoError(t, err)

	// The company commander sits below the record's unit, so the record is
	// outside their scope and must be indistinguishable from a missing id.
	_, err = f.service.Approve(asUser(commanderOf(f.company)), p.ID())
	require.Error(t, err)
	assert.Equal(t, serrors.KindNotFound, serrors.KindOf(err))
}

func TestReject_RequiresReason(t *testing.T) {
	f := newFixture(t)
	p, err := f.service.Register(asUser(operatorOf(f.company)), registerDTO(f.company))
	require.NoError(t, err)

	_, err = f.service.Reject(asUser(commanderOf(f.brigade)), p.ID(), "   ")
	require.Error(t, err)
	assert.Equal(t, serrors.KindValidation, serrors.KindOf(err))
}

func TestReject_ReasonVisibleOnlyToCreator(t *testing.T) {
	f := newFixture(t)
	operator := operatorOf(f.company)
	p, err := f.service.Register(asUser(operator), registerDTO(f.company))
	require.NoError(t, err)

	commander := commanderOf(f.brigade)
	rejected, err := f.service.Reject(asUser(commander), p.ID(), "duplicate record")
	require.NoError(t, err)
	assert.Equal(t, person.StatusRejected, rejected.Status())
	assert.Nil(t, rejected.RejectionReason())

	mine, err := f.service.GetByID(asUser(operator), p.ID())
	require.NoError(t, err)
	require.NotNil(t, mine.RejectionReason())
	assert.Equal(t, "duplicate record", *mine.RejectionReason())
}

func TestResubmit_OnlyCreatorMay(t *testing.T) {
	f := newFixture(t)
	operator := operatorOf(f.company)
	p, err := f.service.Register(asUser(operator), registerDTO(f.company))
	require.NoError(t, err)
	_, err = f.service.Reject(asUser(commanderOf(f.brigade)), p.ID(), "wrong grade")
	require.NoError(t, err)

	other := operatorOf(f.company)
	_, err = f.service.UpdateAndResubmit(asUser(other), p.ID(), person.Patch{})
	require.Error(t, err)
	assert.Equal(t, serrors.KindForbidden, serrors.KindOf(err))
}

func TestResubmit_AppliesPatchAndClearsReason(t *testing.T) {
	f := newFixture(t)
	operator := operatorOf(f.company)
	p, err := f.service.Register(asUser(operator), registerDTO(f.company))
	require.NoError(t, err)
	_, err = f.service.Reject(asUser(commanderOf(f.brigade)), p.ID(), "wrong grade")
	require.NoError(t, err)

	grade := "CPL"
	resubmitted, err := f.service.UpdateAndResubmit(asUser(operator), p.ID(), person.Patch{Grade: &grade})
	require.NoError(t, err)
	assert.Equal(t, person.StatusPending, resubmitted.Status())
	assert.Equal(t, "CPL", resubmitted.Grade())
	assert.Nil(t, resubmitted.RejectionReason())
}

func TestResubmit_PendingRecordIsInvalidTransition(t *testing.T) {
	f := newFixture(t)
	operator := operatorOf(f.company)
	p, err := f.service.Register(asUser(operator), registerDTO(f.company))
	require.NoError(t, err)

	_, err = f.service.UpdateAndResubmit(asUser(operator), p.ID(), person.Patch{})
	require.Error(t, err)
	assert.Equal(t, serrors.KindInvalidTransition, serrors.KindOf(err))
}

func TestListPending_CommanderScopedToOwnSubtree(t *testing.T) {
	f := newFixture(t)
	_, err := f.service.Register(asUser(operatorOf(f.company)), registerDTO(f.company))
	require.NoError(t, err)
	_, err = f.service.Register(asUser(operatorOf(f.brigade)), registerDTO(f.brigade))
	require.NoError(t, err)

	pending, err := f.service.ListPending(asUser(commanderOf(f.battalion)))
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, f.company, pending[0].UnitID())

	all, err := f.service.ListPending(asUser(principal.Hydrate(
		uuid.New(), "admin@hq.local", "", principal.RoleAdmin, nil, time.Time{}, time.Time{},
	)))
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestUpdate_EmptyPatchRejected(t *testing.T) {
	f := newFixture(t)
	operator := operatorOf(f.company)
	p, err := f.service.Register(asUser(operator), registerDTO(f.company))
	require.NoError(t, err)

	_, err = f.service.Update(asUser(operator), p.ID(), person.Patch{})
	require.Error(t, err)
	assert.Equal(t, serrors.KindValidation, serrors.KindOf(err))
}
