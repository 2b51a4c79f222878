package principal

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleAdmin     Role = "ADMIN"
	RoleOfficer   Role = "OFFICER"
	RoleOperator  Role = "OPERATOR"
	RoleCommander Role = "COMMANDER"
	RoleAuditor   Role = "AUDITOR"
)

func ParseRole(v string) (Role, bool) {
	r := Role(strings.ToUpper(strings.TrimSpace(v)))
	switch r {
	case RoleAdmin, RoleOfficer, RoleOperator, RoleCommander, RoleAuditor:
		return r, true
	}
	return "", false
}

func (r Role) Valid() bool {
	_, ok := ParseRole(string(r))
	return ok
}

// Principal is the acting identity behind every operation: a role plus a
// home unit. UnitID is nil only for ADMIN, which is not scoped to any unit.
type Principal struct {
	id           uuid.UUID
	email        string
	passwordHash string
	role         Role
	unitID       *uuid.UUID
	createdAt    time.Time
	updatedAt    time.Time
}

func New(email, passwordHash string, role Role, unitID *uuid.UUID) Principal {
	return Principal{
		email:        normalizeEmail(email),
		passwordHash: passwordHash,
		role:         role,
		unitID:       unitID,
	}
}

func Hydrate(
	id uuid.UUID,
	email string,
	passwordHash string,
	role Role,
	unitID *uuid.UUID,
	createdAt time.Time,
	updatedAt time.Time,
) Principal {
	return Principal{
		id:           id,
		email:        normalizeEmail(email),
		passwordHash: passwordHash,
		role:         role,
		unitID:       unitID,
		createdAt:    createdAt,
		updatedAt:    updatedAt,
	}
}

func (p Principal) ID() uuid.UUID        { return p.id }
func (p Principal) Email() string        { return p.email }
func (p Principal) PasswordHash() string { return p.passwordHash }
func (p Principal) Role() Role           { return p.role }
func (p Principal) UnitID() *uuid.UUID   { return p.unitID }
func (p Principal) CreatedAt() time.Time { return p.createdAt }
func (p Principal) UpdatedAt() time.Time { return p.updatedAt }
func (p Principal) IsZero() bool         { return p.id == uuid.Nil && p.email == "" }

// HomeUnit returns the principal's unit, or uuid.Nil for unscoped roles.
func (p Principal) HomeUnit() uuid.UUID {
	if p.unitID == nil {
		return uuid.Nil
	}
	return *p.unitID
}

func normalizeEmail(v string) string { return strings.ToLower(strings.TrimSpace(v)) }
