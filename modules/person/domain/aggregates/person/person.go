package person

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Shkelqim-Durmishi/Sistemi-Menaxhimit-Personelit-Ushtarak-sub000/pkg/workflow"
)

type Status string

const (
	StatusPending  Status = "PENDING"
	StatusActive   Status = "ACTIVE"
	StatusInactive Status = "INACTIVE"
	StatusRejected Status = "REJECTED"
)

// Person is a personnel record. A freshly registered record sits in PENDING
// until a commander or admin decides on it; REJECTED records may be fixed
// up and resubmitted by their creator, which is the only re-entry edge in
// the whole core.
type Person struct {
	id              uuid.UUID
	serviceNumber   string
	firstName       string
	lastName        string
	grade           string
	unitID          uuid.UUID
	status          Status
	createdBy       uuid.UUID
	rejectionReason *string
	createdAt       time.Time
	updatedAt       time.Time
}

func New(serviceNumber, firstName, lastName, grade string, unitID, createdBy uuid.UUID) Person {
	return Person{
		serviceNumber: normalize(serviceNumber),
		firstName:     normalize(firstName),
		lastName:      normalize(lastName),
		grade:         normalize(grade),
		unitID:        unitID,
		status:        StatusPending,
		createdBy:     createdBy,
	}
}

func Hydrate(
	id uuid.UUID,
	serviceNumber string,
	firstName string,
	lastName string,
	grade string,
	unitID uuid.UUID,
	status Status,
	createdBy uuid.UUID,
	rejectionReason *string,
	createdAt time.Time,
	updatedAt time.Time,
) Person {
	return Person{
		id:              id,
		serviceNumber:   normalize(serviceNumber),
		firstName:       normalize(firstName),
		lastName:        normalize(lastName),
		grade:           normalize(grade),
		unitID:          unitID,
		status:          status,
		createdBy:       createdBy,
		rejectionReason: rejectionReason,
		createdAt:       createdAt,
		updatedAt:       updatedAt,
	}
}

func (p Person) ID() uuid.UUID            { return p.id }
func (p Person) ServiceNumber() string    { return p.serviceNumber }
func (p Person) FirstName() string        { return p.firstName }
func (p Person) LastName() string         { return p.lastName }
func (p Person) Grade() string            { return p.grade }
func (p Person) UnitID() uuid.UUID        { return p.unitID }
func (p Person) Status() Status           { return p.status }
func (p Person) CreatedBy() uuid.UUID     { return p.createdBy }
func (p Person) RejectionReason() *string { return p.rejectionReason }
func (p Person) CreatedAt() time.Time     { return p.createdAt }
func (p Person) UpdatedAt() time.Time     { return p.updatedAt }
func (p Person) IsZero() bool             { return p.id == uuid.Nil && p.serviceNumber == "" }

// workflow.Subject
func (p Person) WorkflowID() uuid.UUID         { return p.id }
func (p Person) WorkflowState() workflow.State { return workflow.State(p.status) }

// Patch is a partial update of the mutable biographical fields. An empty
// patch is a validation error at the call sites that require one.
type Patch struct {
	FirstName *string `json:"first_name,omitempty"`
	LastName  *string `json:"last_name,omitempty"`
	Grade     *string `json:"grade,omitempty"`
}

func (patch Patch) IsEmpty() bool {
	return patch.FirstName == nil && patch.LastName == nil && patch.Grade == nil
}

func (p Person) Apply(patch Patch) Person {
	if patch.FirstName != nil {
		p.firstName = normalize(*patch.FirstName)
	}
	if patch.LastName != nil {
		p.lastName = normalize(*patch.LastName)
	}
	if patch.Grade != nil {
		p.grade = normalize(*patch.Grade)
	}
	return p
}

func (p Person) WithGrade(grade string) Person {
	p.grade = normalize(grade)
	return p
}

func (p Person) WithUnit(unitID uuid.UUID) Person {
	p.unitID = unitID
	return p
}

func (p Person) WithRejection(reason string) Person {
	r := strings.TrimSpace(reason)
	p.rejectionReason = &r
	p.status = StatusRejected
	return p
}

func (p Person) Resubmitted() Person {
	p.rejectionReason = nil
	p.status = StatusPending
	return p
}

// ScrubbedFor hides the rejection reason from every viewer except the
// principal that registered the record.
func (p Person) ScrubbedFor(viewerID uuid.UUID) Person {
	if p.createdBy != viewerID {
		p.rejectionReason = nil
	}
	return p
}

// Snapshot is the audit view of a record. RejectionReason is deliberately
// excluded: it is identity-scoped to the creator, not role-scoped.
type Snapshot struct {
	ID            uuid.UUID `json:"id"`
	ServiceNumber string    `json:"service_number"`
	FirstName     string    `json:"first_name"`
	LastName      string    `json:"last_name"`
	Grade         string    `json:"grade"`
	UnitID        uuid.UUID `json:"unit_id"`
	Status        Status    `json:"status"`
}

func (p Person) Snapshot() Snapshot {
	return Snapshot{
		ID:            p.id,
		ServiceNumber: p.serviceNumber,
		FirstName:     p.firstName,
		LastName:      p.lastName,
		Grade:         p.grade,
		UnitID:        p.unitID,
		Status:        p.status,
	}
}

func normalize(v string) string { return strings.TrimSpace(v) }
