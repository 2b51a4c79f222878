package workflow

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/Shkelqim-Durmishi/Sistemi-Menaxhimit-Personelit-Ushtarak-sub000/modules/core/domain/aggregates/principal"
	"github.com/Shkelqim-Durmishi/Sistemi-Menaxhimit-Personelit-Ushtarak-sub000/pkg/eventbus"
	"github.com/Shkelqim-Durmishi/Sistemi-Menaxhimit-Personelit-Ushtarak-sub000/pkg/metrics"
	"github.com/Shkelqim-Durmishi/Sistemi-Menaxhimit-Personelit-Ushtarak-sub000/pkg/serrors"
)

type (
	State string
	Event string
)

// Subject is the minimal view of a finite-state entity the engine needs.
type Subject interface {
	WorkflowID() uuid.UUID
	WorkflowState() State
}

// Guard decides whether the actor may run a transition on the subject.
// A nil return allows it; anything else (typically serrors Forbidden,
// ReportLocked or Validation) is surfaced verbatim to the caller.
type Guard func(ctx context.Context, actor principal.Principal, subject Subject) error

type Transition struct {
	From  State
	Event Event
	To    State
	Guard Guard
}

type Definition struct {
	EntityType  string
	Initial     State
	Transitions []Transition
}

// Store persists the state write with an optimistic precondition: the
// entity must still be in `from`. A lost race reports serrors Conflict.
type Store interface {
	TransitionState(ctx context.Context, id uuid.UUID, from, to State) error
}

// Recorder appends one audit entry per successful transition. It runs in
// the same transaction as the state write; if it fails the whole operation
// is rolled back rather than leaving state and trail inconsistent.
type Recorder interface {
	Record(ctx context.Context, entry Entry) error
}

type Entry struct {
	ActorID    uuid.UUID
	Action     string
	EntityType string
	EntityID   uuid.UUID
	Before     any
	After      any
}

// TransitionEvent is published on the event bus after the unit of work has
// been assembled. Subscribers must tolerate a later rollback of the
// enclosing transaction; durable side effects belong in hooks instead.
type TransitionEvent struct {
	EntityType string
	EntityID   uuid.UUID
	Event      Event
	From       State
	To         State
	ActorID    uuid.UUID
}

type Machine struct {
	def   Definition
	table map[State]map[Event]Transition

	store    Store
	recorder Recorder
	bus      eventbus.EventBus
}

func NewMachine(def Definition, store Store, recorder Recorder, bus eventbus.EventBus) (*Machine, error) {
	if def.EntityType == "" {
		return nil, fmt.Errorf("workflow: definition needs an entity type")
	}
	table := make(map[State]map[Event]Transition)
	for _, tr := range def.Transitions {
		if _, ok := table[tr.From]; !ok {
			table[tr.From] = make(map[Event]Transition)
		}
		if _, dup := table[tr.From][tr.Event]; dup {
			return nil, fmt.Errorf("workflow: duplicate transition (%s, %s) for %s", tr.From, tr.Event, def.EntityType)
		}
		table[tr.From][tr.Event] = tr
	}
	return &Machine{def: def, table: table, store: store, recorder: recorder, bus: bus}, nil
}

func (m *Machine) EntityType() string { return m.def.EntityType }
func (m *Machine) Initial() State     { return m.def.Initial }

// CanFire reports whether the transition table has an entry for the pair;
// it does not evaluate guards.
func (m *Machine) CanFire(from State, event Event) bool {
	_, ok := m.table[from][event]
	return ok
}

type FireRequest struct {
	Subject Subject
	Event   Event
	Actor   principal.Principal

	// Before and After are the audit snapshots of the entity around this
	// decision; the engine never derives them itself.
	Before any
	After  any

	// Hooks run after the state write, inside the same transaction.
	// Approving a change request applies its payload here so the request
	// can never be APPROVED while the personnel mutation failed.
	Hooks []func(ctx context.Context) error
}

// Fire validates the transition table entry, evaluates the guard and, on
// success, performs the state write, hooks and audit append as one unit of
// work within the caller's transaction.
func (m *Machine) Fire(ctx context.Context, req FireRequest) (State, error) {
	from := req.Subject.WorkflowState()
	tr, ok := m.table[from][req.Event]
	if !ok {
		metrics.ObserveTransition(m.def.EntityType, string(req.Event), metrics.OutcomeInvalid)
		return "", serrors.NewInvalidTransition(m.def.EntityType, string(from), string(req.Event))
	}

	if tr.Guard != nil {
		if err := tr.Guard(ctx, req.Actor, req.Subject); err != nil {
			metrics.ObserveTransition(m.def.EntityType, string(req.Event), metrics.OutcomeDenied)
			return "", err
		}
	}

	if err := m.store.TransitionState(ctx, req.Subject.WorkflowID(), tr.From, tr.To); err != nil {
		outcome := metrics.OutcomeError
		if serrors.IsKind(err, serrors.KindConflict) {
			outcome = metrics.OutcomeConflict
		}
		metrics.ObserveTransition(m.def.EntityType, string(req.Event), outcome)
		return "", err
	}

	for _, hook := range req.Hooks {
		if err := hook(ctx); err != nil {
			metrics.ObserveTransition(m.def.EntityType, string(req.Event), metrics.OutcomeError)
			return "", err
		}
	}

	if err := m.recorder.Record(ctx, Entry{
		ActorID:    req.Actor.ID(),
		Action:     string(req.Event),
		EntityType: m.def.EntityType,
		EntityID:   req.Subject.WorkflowID(),
		Before:     req.Before,
		After:      req.After,
	}); err != nil {
		metrics.ObserveTransition(m.def.EntityType, string(req.Event), metrics.OutcomeError)
		return "", fmt.Errorf("workflow: audit append failed, aborting %s %s: %w", m.def.EntityType, req.Event, err)
	}

	metrics.ObserveTransition(m.def.EntityType, string(req.Event), metrics.OutcomeOK)
	if m.bus != nil {
		m.bus.Publish(&TransitionEvent{
			EntityType: m.def.EntityType,
			EntityID:   req.Subject.WorkflowID(),
			Event:      req.Event,
			From:       tr.From,
			To:         tr.To,
			ActorID:    req.Actor.ID(),
		})
	}
	return tr.To, nil
}
