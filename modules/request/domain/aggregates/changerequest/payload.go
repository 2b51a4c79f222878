package changerequest

import (
	"encoding/json"
	"strings"

	"github.com/google/uuid"

	"github.com/Shkelqim-Durmishi/Sistemi-Menaxhimit-Personelit-Ushtarak-sub000/modules/core/domain/aggregates/principal"
	"github.com/Shkelqim-Durmishi/Sistemi-Menaxhimit-Personelit-Ushtarak-sub000/pkg/constants"
	"github.com/Shkelqim-Durmishi/Sistemi-Menaxhimit-Personelit-Ushtarak-sub000/pkg/serrors"
)

// Payload is the typed body of a change request. Each type validates its
// own shape at creation; the router stores it as jsonb and replays it on
// approval.
type Payload interface {
	Validate() error
}

type DeletePersonPayload struct {
	Reason string `json:"reason" validate:"max=500"`
}

func (p *DeletePersonPayload) Validate() error { return validateStruct(p) }

type TransferPersonPayload struct {
	ToUnitID uuid.UUID `json:"to_unit_id" validate:"required"`
}

func (p *TransferPersonPayload) Validate() error { return validateStruct(p) }

type ChangeGradePayload struct {
	Grade string `json:"grade" validate:"required,max=50"`
}

func (p *ChangeGradePayload) Validate() error {
	p.Grade = strings.TrimSpace(p.Grade)
	return validateStruct(p)
}

type ChangeUnitPayload struct {
	ToUnitID uuid.UUID `json:"to_unit_id" validate:"required"`
}

func (p *ChangeUnitPayload) Validate() error { return validateStruct(p) }

type DeactivatePersonPayload struct {
	Reason string `json:"reason" validate:"max=500"`
}

func (p *DeactivatePersonPayload) Validate() error { return validateStruct(p) }

type UpdatePersonPayload struct {
	FirstName *string `json:"first_name,omitempty"`
	LastName  *string `json:"last_name,omitempty"`
	Grade     *string `json:"grade,omitempty"`
}

func (p *UpdatePersonPayload) Validate() error {
	if p.FirstName == nil && p.LastName == nil && p.Grade == nil {
		return serrors.NewValidationError("payload", "patch must change at least one field")
	}
	return nil
}

type CreateUserPayload struct {
	Email    string         `json:"email" validate:"required,email"`
	Role     principal.Role `json:"role" validate:"required"`
	Password string         `json:"password" validate:"required,min=8"`
}

func (p *CreateUserPayload) Validate() error {
	p.Email = strings.TrimSpace(p.Email)
	if err := validateStruct(p); err != nil {
		return err
	}
	if !p.Role.Valid() {
		return serrors.NewValidationError("role", "unknown role")
	}
	if p.Role == principal.RoleAdmin {
		return serrors.NewValidationError("role", "administrators cannot be provisioned by request")
	}
	return nil
}

// DecodePayload parses and validates the raw payload for the given type.
func DecodePayload(t Type, raw json.RawMessage) (Payload, error) {
	var payload Payload
	switch t {
	case TypeDeletePerson:
		payload = &DeletePersonPayload{}
	case TypeTransferPerson:
		payload = &TransferPersonPayload{}
	case TypeChangeGrade:
		payload = &ChangeGradePayload{}
	case TypeChangeUnit:
		payload = &ChangeUnitPayload{}
	case TypeDeactivatePerson:
		payload = &DeactivatePersonPayload{}
	case TypeUpdatePerson:
		payload = &UpdatePersonPayload{}
	case TypeCreateUser:
		payload = &CreateUserPayload{}
	default:
		return nil, serrors.NewValidationError("type", "unknown request type")
	}

	if len(raw) > 0 {
		if err := json.Unmarshal(raw, payload); err != nil {
			return nil, serrors.NewValidationError("payload", "malformed payload")
		}
	}
	if err := payload.Validate(); err != nil {
		return nil, err
	}
	return payload, nil
}

func validateStruct(v any) error {
	errs := constants.Validate.Struct(v)
	if errs == nil {
		return nil
	}
	return serrors.NewValidationError("payload", errs.Error())
}
