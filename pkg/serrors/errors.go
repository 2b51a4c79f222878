package serrors

import (
	"errors"
	"fmt"
)

// Kind is the stable machine-readable classification of a service error.
// Controllers map kinds to HTTP statuses; callers branch on kinds, never on
// message text.
type Kind string

const (
	KindValidation        Kind = "VALIDATION"
	KindForbidden         Kind = "FORBIDDEN"
	KindInvalidTransition Kind = "INVALID_TRANSITION"
	KindReportLocked      Kind = "REPORT_LOCKED"
	KindNotFound          Kind = "NOT_FOUND"
	KindConflict          Kind = "CONFLICT"
	KindInternal          Kind = "INTERNAL"
)

// LockReason distinguishes the two ways a report can be time-locked so the
// presentation layer can word the message correctly.
type LockReason string

const (
	LockPastDay    LockReason = "past_day"
	LockPastCutoff LockReason = "past_cutoff"
)

type Base struct {
	Code    string            `json:"code"`
	Kind    Kind              `json:"kind"`
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"`
}

func (e *Base) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Is matches two Base errors by code, so sentinel-style comparisons with
// errors.Is work for wrapped errors.
func (e *Base) Is(target error) bool {
	var other *Base
	if !errors.As(target, &other) {
		return false
	}
	return e.Code == other.Code
}

func NewError(code string, kind Kind, message string) *Base {
	return &Base{Code: code, Kind: kind, Message: message}
}

func (e *Base) WithDetail(key, value string) *Base {
	d := make(map[string]string, len(e.Details)+1)
	for k, v := range e.Details {
		d[k] = v
	}
	d[key] = value
	return &Base{Code: e.Code, Kind: e.Kind, Message: e.Message, Details: d}
}

func NewValidationError(field, message string) *Base {
	return NewError("VALIDATION_FAILED", KindValidation, message).WithDetail("field", field)
}

func NewFieldRequiredError(field string) *Base {
	return NewValidationError(field, fmt.Sprintf("%s is required", field))
}

func NewForbidden(reason string) *Base {
	return NewError("FORBIDDEN", KindForbidden, reason)
}

func NewInvalidTransition(entityType, from, event string) *Base {
	return NewError("INVALID_TRANSITION", KindInvalidTransition,
		fmt.Sprintf("%s in state %q does not accept %q", entityType, from, event)).
		WithDetail("state", from).
		WithDetail("event", event)
}

func NewReportLocked(reason LockReason) *Base {
	msg := "report editing window has closed"
	if reason == LockPastDay {
		msg = "report date is in the past"
	}
	return NewError("REPORT_LOCKED", KindReportLocked, msg).WithDetail("reason", string(reason))
}

// NewNotFound deliberately carries no information about whether the entity
// exists outside the caller's scope.
func NewNotFound(entityType string) *Base {
	return NewError("NOT_FOUND", KindNotFound, fmt.Sprintf("%s not found", entityType))
}

func NewConflict(entityType string) *Base {
	return NewError("CONFLICT", KindConflict,
		fmt.Sprintf("%s was modified concurrently, reload and retry", entityType))
}

func NewInternal(message string) *Base {
	return NewError("INTERNAL", KindInternal, message)
}

// KindOf classifies any error; non-service errors report KindInternal.
func KindOf(err error) Kind {
	var base *Base
	if errors.As(err, &base) {
		return base.Kind
	}
	return KindInternal
}

func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
