package shared

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/Shkelqim-Durmishi/Sistemi-Menaxhimit-Personelit-Ushtarak-sub000/pkg/composables"
	"github.com/Shkelqim-Durmishi/Sistemi-Menaxhimit-Personelit-Ushtarak-sub000/pkg/serrors"
)

type APIError struct {
	Code    string            `json:"code"`
	Kind    string            `json:"kind"`
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"`
}

func WriteJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		panic(err)
	}
}

func statusFor(kind serrors.Kind) int {
	switch kind {
	case serrors.KindValidation:
		return http.StatusUnprocessableEntity
	case serrors.KindForbidden:
		return http.StatusForbidden
	case serrors.KindInvalidTransition:
		return http.StatusConflict
	case serrors.KindReportLocked:
		return http.StatusLocked
	case serrors.KindNotFound:
		return http.StatusNotFound
	case serrors.KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// WriteError maps a service error to its HTTP shape. Unclassified errors
// are logged and surfaced as an opaque 500 so internals never leak.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	var base *serrors.Base
	if errors.As(err, &base) && base.Kind != serrors.KindInternal {
		WriteJSON(w, statusFor(base.Kind), APIError{
			Code:    base.Code,
			Kind:    string(base.Kind),
			Message: base.Message,
			Details: base.Details,
		})
		return
	}
	composables.UseLogger(r.Context()).WithError(err).Error("unhandled service error")
	WriteJSON(w, http.StatusInternalServerError, APIError{
		Code:    "INTERNAL",
		Kind:    string(serrors.KindInternal),
		Message: "internal error",
	})
}

// PathUUID parses the named mux var as a UUID; false means the response has
// already been written.
func PathUUID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	raw := strings.TrimSpace(mux.Vars(r)[name])
	id, err := uuid.Parse(raw)
	if err != nil {
		WriteError(w, r, serrors.NewValidationError(name, "must be a valid uuid"))
		return uuid.Nil, false
	}
	return id, true
}
