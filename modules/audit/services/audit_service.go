package services

import (
	"context"
	"encoding/json"

	gerrors "github.com/go-faster/errors"

	"github.com/Shkelqim-Durmishi/Sistemi-Menaxhimit-Personelit-Ushtarak-sub000/modules/audit/domain/audit"
	"github.com/Shkelqim-Durmishi/Sistemi-Menaxhimit-Personelit-Ushtarak-sub000/modules/core/domain/aggregates/principal"
	"github.com/Shkelqim-Durmishi/Sistemi-Menaxhimit-Personelit-Ushtarak-sub000/pkg/composables"
	"github.com/Shkelqim-Durmishi/Sistemi-Menaxhimit-Personelit-Ushtarak-sub000/pkg/serrors"
	"github.com/Shkelqim-Durmishi/Sistemi-Menaxhimit-Personelit-Ushtarak-sub000/pkg/workflow"
)

type AuditService struct {
	repo audit.Repository
}

func NewAuditService(repo audit.Repository) *AuditService {
	return &AuditService{repo: repo}
}

// Record satisfies workflow.Recorder. Snapshots are marshalled here so the
// engine stays ignorant of entity shapes.
func (s *AuditService) Record(ctx context.Context, entry workflow.Entry) error {
	before, err := marshalSnapshot(entry.Before)
	if err != nil {
		return gerrors.Wrap(err, "marshal before snapshot")
	}
	after, err := marshalSnapshot(entry.After)
	if err != nil {
		return gerrors.Wrap(err, "marshal after snapshot")
	}

	_, err = s.repo.Append(ctx, audit.Entry{
		ActorID:    entry.ActorID,
		Action:     entry.Action,
		EntityType: entry.EntityType,
		EntityID:   entry.EntityID,
		Before:     before,
		After:      after,
		At:         composables.UseNow(ctx),
	})
	return err
}

// List is restricted to ADMIN and AUDITOR; everyone else gets Forbidden.
func (s *AuditService) List(ctx context.Context, params audit.FindParams) ([]audit.Entry, error) {
	actor, err := composables.UseUser(ctx)
	if err != nil {
		return nil, serrors.NewForbidden("not authenticated")
	}
	switch actor.Role() {
	case principal.RoleAdmin, principal.RoleAuditor:
	default:
		return nil, serrors.NewForbidden("audit trail is restricted to administrators and auditors")
	}
	return s.repo.List(ctx, params)
}

func marshalSnapshot(v any) (json.RawMessage, error) {
	if v == nil {
		return nil, nil
	}
	if raw, ok := v.(json.RawMessage); ok {
		return raw, nil
	}
	return json.Marshal(v)
}
