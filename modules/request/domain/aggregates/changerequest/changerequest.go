package changerequest

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/Shkelqim-Durmishi/Sistemi-Menaxhimit-Personelit-Ushtarak-sub000/pkg/workflow"
)

type Status string

const (
	StatusPending   Status = "PENDING"
	StatusApproved  Status = "APPROVED"
	StatusRejected  Status = "REJECTED"
	StatusCancelled Status = "CANCELLED"
)

// Terminal statuses are final; the archive is a read filter over them, not
// a state of its own.
func (s Status) Terminal() bool {
	return s == StatusApproved || s == StatusRejected || s == StatusCancelled
}

type Type string

const (
	TypeDeletePerson     Type = "DELETE_PERSON"
	TypeTransferPerson   Type = "TRANSFER_PERSON"
	TypeChangeGrade      Type = "CHANGE_GRADE"
	TypeChangeUnit       Type = "CHANGE_UNIT"
	TypeDeactivatePerson Type = "DEACTIVATE_PERSON"
	TypeUpdatePerson     Type = "UPDATE_PERSON"
	TypeCreateUser       Type = "CREATE_USER"
)

func (t Type) Valid() bool {
	switch t {
	case TypeDeletePerson, TypeTransferPerson, TypeChangeGrade, TypeChangeUnit,
		TypeDeactivatePerson, TypeUpdatePerson, TypeCreateUser:
		return true
	}
	return false
}

// ChangeRequest is a proposed mutation of a personnel record, routed to a
// decider. UnitID is the target person's unit at creation time and drives
// visibility.
type ChangeRequest struct {
	id           uuid.UUID
	requestType  Type
	personID     uuid.UUID
	unitID       uuid.UUID
	payload      json.RawMessage
	status       Status
	createdBy    uuid.UUID
	decidedBy    *uuid.UUID
	decidedAt    *time.Time
	decisionNote *string
	createdAt    time.Time
	updatedAt    time.Time
}

func New(requestType Type, personID, unitID uuid.UUID, payload json.RawMessage, createdBy uuid.UUID) ChangeRequest {
	return ChangeRequest{
		requestType: requestType,
		personID:    personID,
		unitID:      unitID,
		payload:     payload,
		status:      StatusPending,
		createdBy:   createdBy,
	}
}

func Hydrate(
	id uuid.UUID,
	requestType Type,
	personID uuid.UUID,
	unitID uuid.UUID,
	payload json.RawMessage,
	status Status,
	createdBy uuid.UUID,
	decidedBy *uuid.UUID,
	decidedAt *time.Time,
	decisionNote *string,
	createdAt time.Time,
	updatedAt time.Time,
) ChangeRequest {
	return ChangeRequest{
		id:           id,
		requestType:  requestType,
		personID:     personID,
		unitID:       unitID,
		payload:      payload,
		status:       status,
		createdBy:    createdBy,
		decidedBy:    decidedBy,
		decidedAt:    decidedAt,
		decisionNote: decisionNote,
		createdAt:    createdAt,
		updatedAt:    updatedAt,
	}
}

func (r ChangeRequest) ID() uuid.UUID            { return r.id }
func (r ChangeRequest) Type() Type               { return r.requestType }
func (r ChangeRequest) PersonID() uuid.UUID      { return r.personID }
func (r ChangeRequest) UnitID() uuid.UUID        { return r.unitID }
func (r ChangeRequest) Payload() json.RawMessage { return r.payload }
func (r ChangeRequest) Status() Status           { return r.status }
func (r ChangeRequest) CreatedBy() uuid.UUID     { return r.createdBy }
func (r ChangeRequest) DecidedBy() *uuid.UUID    { return r.decidedBy }
func (r ChangeRequest) DecidedAt() *time.Time    { return r.decidedAt }
func (r ChangeRequest) DecisionNote() *string    { return r.decisionNote }
func (r ChangeRequest) CreatedAt() time.Time     { return r.createdAt }
func (r ChangeRequest) UpdatedAt() time.Time     { return r.updatedAt }
func (r ChangeRequest) IsZero() bool             { return r.id == uuid.Nil }

// workflow.Subject
func (r ChangeRequest) WorkflowID() uuid.UUID         { return r.id }
func (r ChangeRequest) WorkflowState() workflow.State { return workflow.State(r.status) }

type Snapshot struct {
	ID           uuid.UUID       `json:"id"`
	Type         Type            `json:"type"`
	PersonID     uuid.UUID       `json:"person_id"`
	UnitID       uuid.UUID       `json:"unit_id"`
	Payload      json.RawMessage `json:"payload,omitempty"`
	Status       Status          `json:"status"`
	DecisionNote *string         `json:"decision_note,omitempty"`
}

func (r ChangeRequest) Snapshot() Snapshot {
	return Snapshot{
		ID:           r.id,
		Type:         r.requestType,
		PersonID:     r.personID,
		UnitID:       r.unitID,
		Payload:      r.payload,
		Status:       r.status,
		DecisionNote: r.decisionNote,
	}
}
