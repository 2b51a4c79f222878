package serrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"validation", NewFieldRequiredError("note"), KindValidation},
		{"forbidden", NewForbidden("role mismatch"), KindForbidden},
		{"invalid transition", NewInvalidTransition("report", "approved", "submit"), KindInvalidTransition},
		{"locked", NewReportLocked(LockPastCutoff), KindReportLocked},
		{"not found", NewNotFound("person"), KindNotFound},
		{"conflict", NewConflict("report"), KindConflict},
		{"wrapped", fmt.Errorf("service: %w", NewConflict("report")), KindConflict},
		{"plain error", errors.New("boom"), KindInternal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, KindOf(tt.err))
		})
	}
}

func TestBase_Is(t *testing.T) {
	err := fmt.Errorf("outer: %w", NewConflict("report"))
	require.ErrorIs(t, err, NewConflict("anything"))
	require.NotErrorIs(t, err, NewNotFound("report"))
}

func TestReportLockedDetails(t *testing.T) {
	err := NewReportLocked(LockPastDay)
	assert.Equal(t, "past_day", err.Details["reason"])
	assert.Equal(t, KindReportLocked, err.Kind)

	err = NewReportLocked(LockPastCutoff)
	assert.Equal(t, "past_cutoff", err.Details["reason"])
}

func TestWithDetailDoesNotMutateOriginal(t *testing.T) {
	base := NewForbidden("nope")
	derived := base.WithDetail("unit", "abc")
	assert.Empty(t, base.Details)
	assert.Equal(t, "abc", derived.Details["unit"])
}
