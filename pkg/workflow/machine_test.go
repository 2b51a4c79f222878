package workflow

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Shkelqim-Durmishi/Sistemi-Menaxhimit-Personelit-Ushtarak-sub000/modules/core/domain/aggregates/principal"
	"github.com/Shkelqim-Durmishi/Sistemi-Menaxhimit-Personelit-Ushtarak-sub000/pkg/serrors"
)

type fakeSubject struct {
	id    uuid.UUID
	state State
}

func (s *fakeSubject) WorkflowID() uuid.UUID { return s.id }
func (s *fakeSubject) WorkflowState() State  { return s.state }

// memStore implements the optimistic compare-and-swap over an in-memory map.
type memStore struct {
	mu     sync.Mutex
	states map[uuid.UUID]State
}

func newMemStore() *memStore {
	return &memStore{states: make(map[uuid.UUID]State)}
}

func (s *memStore) TransitionState(_ context.Context, id uuid.UUID, from, to State) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.states[id] != from {
		return serrors.NewConflict("entity")
	}
	s.states[id] = to
	return nil
}

type memRecorder struct {
	mu      sync.Mutex
	entries []Entry
	fail    error
}

func (r *memRecorder) Record(_ context.Context, entry Entry) error {
	if r.fail != nil {
		return r.fail
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, entry)
	return nil
}

func testDefinition(guard Guard) Definition {
	return Definition{
		EntityType: "request",
		Initial:    "PENDING",
		Transitions: []Transition{
			{From: "PENDING", Event: "approve", To: "APPROVED", Guard: guard},
			{From: "PENDING", Event: "reject", To: "REJECTED", Guard: guard},
		},
	}
}

func admin() principal.Principal {
	return principal.Hydrate(uuid.New(), "admin@hq.local", "", principal.RoleAdmin, nil, time.Time{}, time.Time{})
}

func TestNewMachine_RejectsDuplicateTransitions(t *testing.T) {
	def := testDefinition(nil)
	def.Transitions = append(def.Transitions, Transition{From: "PENDING", Event: "approve", To: "REJECTED"})
	_, err := NewMachine(def, newMemStore(), &memRecorder{}, nil)
	require.Error(t, err)
}

func TestFire_NoTableEntry(t *testing.T) {
	m, err := NewMachine(testDefinition(nil), newMemStore(), &memRecorder{}, nil)
	require.NoError(t, err)

	sub := &fakeSubject{id: uuid.New(), state: "APPROVED"}
	_, err = m.Fire(context.Background(), FireRequest{Subject: sub, Event: "approve", Actor: admin()})
	require.Error(t, err)
	assert.Equal(t, serrors.KindInvalidTransition, serrors.KindOf(err))
}

func TestFire_GuardDenies(t *testing.T) {
	denied := serrors.NewForbidden("commander of another unit")
	guard := func(ctx context.Context, actor principal.Principal, subject Subject) error {
		return denied
	}
	store := newMemStore()
	rec := &memRecorder{}
	m, err := NewMachine(testDefinition(guard), store, rec, nil)
	require.NoError(t, err)

	id := uuid.New()
	store.states[id] = "PENDING"
	sub := &fakeSubject{id: id, state: "PENDING"}

	_, err = m.Fire(context.Background(), FireRequest{Subject: sub, Event: "approve", Actor: admin()})
	require.ErrorIs(t, err, denied)
	assert.Equal(t, State("PENDING"), store.states[id], "guard denial must not move state")
	assert.Empty(t, rec.entries, "guard denial must not emit audit entries")
}

func TestFire_Success(t *testing.T) {
	store := newMemStore()
	rec := &memRecorder{}
	m, err := NewMachine(testDefinition(nil), store, rec, nil)
	require.NoError(t, err)

	id := uuid.New()
	store.states[id] = "PENDING"
	actor := admin()

	to, err := m.Fire(context.Background(), FireRequest{
		Subject: &fakeSubject{id: id, state: "PENDING"},
		Event:   "approve",
		Actor:   actor,
		Before:  map[string]string{"status": "PENDING"},
		After:   map[string]string{"status": "APPROVED"},
	})
	require.NoError(t, err)
	assert.Equal(t, State("APPROVED"), to)
	assert.Equal(t, State("APPROVED"), store.states[id])

	require.Len(t, rec.entries, 1)
	entry := rec.entries[0]
	assert.Equal(t, actor.ID(), entry.ActorID)
	assert.Equal(t, "approve", entry.Action)
	assert.Equal(t, "request", entry.EntityType)
	assert.Equal(t, id, entry.EntityID)
}

func TestFire_HookFailureAborts(t *testing.T) {
	store := newMemStore()
	rec := &memRecorder{}
	m, err := NewMachine(testDefinition(nil), store, rec, nil)
	require.NoError(t, err)

	id := uuid.New()
	store.states[id] = "PENDING"

	hookErr := errors.New("personnel mutation failed")
	_, err = m.Fire(context.Background(), FireRequest{
		Subject: &fakeSubject{id: id, state: "PENDING"},
		Event:   "approve",
		Actor:   admin(),
		Hooks:   []func(context.Context) error{func(context.Context) error { return hookErr }},
	})
	require.ErrorIs(t, err, hookErr)
	assert.Empty(t, rec.entries, "failed hook must abort before the audit append")
}

func TestFire_AuditFailureAborts(t *testing.T) {
	store := newMemStore()
	rec := &memRecorder{fail: errors.New("disk full")}
	m, err := NewMachine(testDefinition(nil), store, rec, nil)
	require.NoError(t, err)

	id := uuid.New()
	store.states[id] = "PENDING"

	_, err = m.Fire(context.Background(), FireRequest{
		Subject: &fakeSubject{id: id, state: "PENDING"},
		Event:   "approve",
		Actor:   admin(),
	})
	require.Error(t, err)
	require.ErrorContains(t, err, "audit append failed")
}

// Two concurrent approvals of the same entity: exactly one succeeds, the
// loser observes the lost optimistic precondition, and exactly one audit
// entry exists for the decision.
func TestFire_ConcurrentApprovals(t *testing.T) {
	store := newMemStore()
	rec := &memRecorder{}
	m, err := NewMachine(testDefinition(nil), store, rec, nil)
	require.NoError(t, err)

	id := uuid.New()
	store.states[id] = "PENDING"

	var wg sync.WaitGroup
	results := make([]error, 2)
	for i := 0; i < 2; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, results[i] = m.Fire(context.Background(), FireRequest{
				Subject: &fakeSubject{id: id, state: "PENDING"},
				Event:   "approve",
				Actor:   admin(),
			})
		}()
	}
	wg.Wait()

	successes, conflicts := 0, 0
	for _, res := range results {
		switch {
		case res == nil:
			successes++
		case serrors.IsKind(res, serrors.KindConflict):
			conflicts++
		default:
			t.Fatalf("unexpected error: %v", res)
		}
	}
	assert.Equal(t, 1, successes)
	assert.Equal(t, 1, conflicts)
	assert.Len(t, rec.entries, 1)
	assert.Equal(t, State("APPROVED"), store.states[id])
}

func TestCanFire(t *testing.T) {
	m, err := NewMachine(testDefinition(nil), newMemStore(), &memRecorder{}, nil)
	require.NoError(t, err)
	assert.True(t, m.CanFire("PENDING", "approve"))
	assert.True(t, m.CanFire("PENDING", "reject"))
	assert.False(t, m.CanFire("APPROVED", "approve"))
	assert.False(t, m.CanFire("PENDING", "cancel"))
}
