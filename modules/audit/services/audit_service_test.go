package services

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Shkelqim-Durmishi/Sistemi-Menaxhimit-Personelit-Ushtarak-sub000/modules/audit/domain/audit"
	"github.com/Shkelqim-Durmishi/Sistemi-Menaxhimit-Personelit-Ushtarak-sub000/modules/core/domain/aggregates/principal"
	"github.com/Shkelqim-Durmishi/Sistemi-Menaxhimit-Personelit-Ushtarak-sub000/pkg/composables"
	"github.com/Shkelqim-Durmishi/Sistemi-Menaxhimit-Personelit-Ushtarak-sub000/pkg/serrors"
	"github.com/Shkelqim-Durmishi/Sistemi-Menaxhimit-Personelit-Ushtarak-sub000/pkg/workflow"
)

type memRepo struct {
	entries []audit.Entry
}

func (r *memRepo) Append(_ context.Context, entry audit.Entry) (audit.Entry, error) {
	entry.ID = uuid.New()
	r.entries = append(r.entries, entry)
	return entry, nil
}

func (r *memRepo) List(_ context.Context, params audit.FindParams) ([]audit.Entry, error) {
	var out []audit.Entry
	for _, e := range r.entries {
		if params.EntityType != "" && e.EntityType != params.EntityType {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

func ctxWithRole(role principal.Role) context.Context {
	var unitID *uuid.UUID
	if role != principal.RoleAdmin {
		id := uuid.New()
		unitID = &id
	}
	p := principal.Hydrate(uuid.New(), "actor@hq.local", "", role, unitID, time.Time{}, time.Time{})
	return composables.WithUser(context.Background(), p)
}

func TestRecord_MarshalsSnapshotsAndStampsTime(t *testing.T) {
	repo := &memRepo{}
	svc := NewAuditService(repo)

	now := time.Date(2025, 3, 14, 15, 0, 0, 0, time.UTC)
	ctx := composables.WithNow(context.Background(), now)

	actorID := uuid.New()
	entityID := uuid.New()
	err := svc.Record(ctx, workflow.Entry{
		ActorID:    actorID,
		Action:     "approve",
		EntityType: "report",
		EntityID:   entityID,
		Before:     map[string]string{"status": "PENDING"},
		After:      map[string]string{"status": "APPROVED"},
	})
	require.NoError(t, err)
	require.Len(t, repo.entries, 1)

	entry := repo.entries[0]
	assert.Equal(t, now, entry.At)
	assert.Equal(t, actorID, entry.ActorID)

	var before map[string]string
	require.NoError(t, json.Unmarshal(entry.Before, &before))
	assert.Equal(t, "PENDING", before["status"])
}

func TestList_RoleGate(t *testing.T) {
	repo := &memRepo{entries: []audit.Entry{{EntityType: "report"}}}
	svc := NewAuditService(repo)

	for _, role := range []principal.Role{principal.RoleAdmin, principal.RoleAuditor} {
		got, err := svc.List(ctxWithRole(role), audit.FindParams{})
		require.NoError(t, err, role)
		assert.Len(t, got, 1)
	}

	for _, role := range []principal.Role{principal.RoleOfficer, principal.RoleOperator, principal.RoleCommander} {
		_, err := svc.List(ctxWithRole(role), audit.FindParams{})
		require.Error(t, err, role)
		assert.Equal(t, serrors.KindForbidden, serrors.KindOf(err))
	}

	_, err := svc.List(context.Background(), audit.FindParams{})
	assert.Equal(t, serrors.KindForbidden, serrors.KindOf(err))
}
