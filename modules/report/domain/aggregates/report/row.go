package report

import (
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/Shkelqim-Durmishi/Sistemi-Menaxhimit-Personelit-Ushtarak-sub000/pkg/constants"
)

// Row is one person's activity entry inside a daily report. TimeFrom and
// TimeTo are zero-padded "HH:MM" wall-clock strings, so lexical comparison
// orders them correctly.
type Row struct {
	ID         uuid.UUID `json:"id"`
	ReportID   uuid.UUID `json:"report_id"`
	PersonID   uuid.UUID `json:"person_id"`
	CategoryID uuid.UUID `json:"category_id"`
	TimeFrom   string    `json:"time_from"`
	TimeTo     string    `json:"time_to"`
	Location   string    `json:"location"`
	Note       string    `json:"note"`
	Emergency  bool      `json:"emergency_flag"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

type RowDTO struct {
	PersonID   uuid.UUID `json:"person_id" validate:"required"`
	CategoryID uuid.UUID `json:"category_id" validate:"required"`
	TimeFrom   string    `json:"time_from" validate:"required,datetime=15:04"`
	TimeTo     string    `json:"time_to" validate:"required,datetime=15:04"`
	Location   string    `json:"location" validate:"max=200"`
	Note       string    `json:"note" validate:"max=500"`
	Emergency  bool      `json:"emergency_flag"`
}

func (d *RowDTO) Normalize() {
	d.TimeFrom = strings.TrimSpace(d.TimeFrom)
	d.TimeTo = strings.TrimSpace(d.TimeTo)
	d.Location = strings.TrimSpace(d.Location)
	d.Note = strings.TrimSpace(d.Note)
}

func (d *RowDTO) Ok() (map[string]string, bool) {
	d.Normalize()

	out := make(map[string]string)
	if errs := constants.Validate.Struct(d); errs != nil {
		for _, err := range errs.(validator.ValidationErrors) {
			out[err.Field()] = err.Field() + " failed " + err.Tag() + " validation"
		}
		return out, false
	}
	if d.TimeTo < d.TimeFrom {
		out["TimeTo"] = "time_to must not precede time_from"
		return out, false
	}
	return out, true
}
