package report

import (
	"time"

	"github.com/google/uuid"

	"github.com/Shkelqim-Durmishi/Sistemi-Menaxhimit-Personelit-Ushtarak-sub000/pkg/workflow"
)

type Status string

const (
	StatusDraft    Status = "DRAFT"
	StatusPending  Status = "PENDING"
	StatusApproved Status = "APPROVED"
	StatusRejected Status = "REJECTED"
)

// Terminal reports that only APPROVED and REJECTED are final; a rejected
// daily report stays rejected, the unit files a new one if needed.
func (s Status) Terminal() bool {
	return s == StatusApproved || s == StatusRejected
}

// Report is one unit's activity report for one calendar day. Rows live in
// their own table and are loaded separately.
type Report struct {
	id           uuid.UUID
	date         time.Time
	unitID       uuid.UUID
	status       Status
	createdBy    uuid.UUID
	decidedBy    *uuid.UUID
	decidedAt    *time.Time
	decisionNote *string
	createdAt    time.Time
	updatedAt    time.Time
}

func New(date time.Time, unitID, createdBy uuid.UUID) Report {
	return Report{
		date:      Day(date),
		unitID:    unitID,
		status:    StatusDraft,
		createdBy: createdBy,
	}
}

func Hydrate(
	id uuid.UUID,
	date time.Time,
	unitID uuid.UUID,
	status Status,
	createdBy uuid.UUID,
	decidedBy *uuid.UUID,
	decidedAt *time.Time,
	decisionNote *string,
	createdAt time.Time,
	updatedAt time.Time,
) Report {
	return Report{
		id:           id,
		date:         Day(date),
		unitID:       unitID,
		status:       status,
		createdBy:    createdBy,
		decidedBy:    decidedBy,
		decidedAt:    decidedAt,
		decisionNote: decisionNote,
		createdAt:    createdAt,
		updatedAt:    updatedAt,
	}
}

func (r Report) ID() uuid.UUID         { return r.id }
func (r Report) Date() time.Time       { return r.date }
func (r Report) UnitID() uuid.UUID     { return r.unitID }
func (r Report) Status() Status        { return r.status }
func (r Report) CreatedBy() uuid.UUID  { return r.createdBy }
func (r Report) DecidedBy() *uuid.UUID { return r.decidedBy }
func (r Report) DecidedAt() *time.Time { return r.decidedAt }
func (r Report) DecisionNote() *string { return r.decisionNote }
func (r Report) CreatedAt() time.Time  { return r.createdAt }
func (r Report) UpdatedAt() time.Time  { return r.updatedAt }
func (r Report) IsZero() bool          { return r.id == uuid.Nil }

// workflow.Subject
func (r Report) WorkflowID() uuid.UUID         { return r.id }
func (r Report) WorkflowState() workflow.State { return workflow.State(r.status) }

// Day truncates a timestamp to its calendar day in UTC.
func Day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Snapshot is the audit view of a report.
type Snapshot struct {
	ID           uuid.UUID  `json:"id"`
	Date         string     `json:"date"`
	UnitID       uuid.UUID  `json:"unit_id"`
	Status       Status     `json:"status"`
	DecidedBy    *uuid.UUID `json:"decided_by,omitempty"`
	DecisionNote *string    `json:"decision_note,omitempty"`
}

func (r Report) Snapshot() Snapshot {
	return Snapshot{
		ID:           r.id,
		Date:         r.date.Format(time.DateOnly),
		UnitID:       r.unitID,
		Status:       r.status,
		DecidedBy:    r.decidedBy,
		DecisionNote: r.decisionNote,
	}
}
