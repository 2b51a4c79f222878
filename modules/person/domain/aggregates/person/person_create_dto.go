package person

import (
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/Shkelqim-Durmishi/Sistemi-Menaxhimit-Personelit-Ushtarak-sub000/pkg/constants"
)

type CreateDTO struct {
	ServiceNumber string    `json:"service_number" validate:"required"`
	FirstName     string    `json:"first_name" validate:"required"`
	LastName      string    `json:"last_name" validate:"required"`
	Grade         string    `json:"grade" validate:"required"`
	UnitID        uuid.UUID `json:"unit_id" validate:"required"`
}

func (d *CreateDTO) Normalize() {
	d.ServiceNumber = strings.TrimSpace(d.ServiceNumber)
	d.FirstName = strings.TrimSpace(d.FirstName)
	d.LastName = strings.TrimSpace(d.LastName)
	d.Grade = strings.TrimSpace(d.Grade)
}

func (d *CreateDTO) Ok() (map[string]string, bool) {
	d.Normalize()

	errs := constants.Validate.Struct(d)
	if errs == nil {
		return map[string]string{}, true
	}

	out := make(map[string]string)
	for _, err := range errs.(validator.ValidationErrors) {
		out[err.Field()] = err.Field() + " failed " + err.Tag() + " validation"
	}
	return out, false
}
