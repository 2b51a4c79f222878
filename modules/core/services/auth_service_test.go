package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/Shkelqim-Durmishi/Sistemi-Menaxhimit-Personelit-Ushtarak-sub000/modules/core/domain/aggregates/principal"
	"github.com/Shkelqim-Durmishi/Sistemi-Menaxhimit-Personelit-Ushtarak-sub000/pkg/serrors"
)

type stubPrincipalRepo struct {
	byEmail map[string]principal.Principal
	byID    map[uuid.UUID]principal.Principal
}

func (r *stubPrincipalRepo) GetByID(_ context.Context, id uuid.UUID) (principal.Principal, error) {
	p, ok := r.byID[id]
	if !ok {
		return principal.Principal{}, principal.ErrNotFound
	}
	return p, nil
}

func (r *stubPrincipalRepo) GetByEmail(_ context.Context, email string) (principal.Principal, error) {
	p, ok := r.byEmail[email]
	if !ok {
		return principal.Principal{}, principal.ErrNotFound
	}
	return p, nil
}

func (r *stubPrincipalRepo) Create(_ context.Context, p principal.Principal) (principal.Principal, error) {
	return p, nil
}

func authFixture(t *testing.T) (*AuthService, principal.Principal) {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("correct horse"), bcrypt.MinCost)
	require.NoError(t, err)

	unitID := uuid.New()
	p := principal.Hydrate(uuid.New(), "officer@hq.local", string(hash),
		principal.RoleOfficer, &unitID, time.Now(), time.Now())
	repo := &stubPrincipalRepo{
		byEmail: map[string]principal.Principal{p.Email(): p},
		byID:    map[uuid.UUID]principal.Principal{p.ID(): p},
	}
	return NewAuthService(repo, "test-secret", time.Hour), p
}

func TestLogin_TokenRoundTrip(t *testing.T) {
	svc, want := authFixture(t)
	ctx := context.Background()

	token, logged, err := svc.Login(ctx, "officer@hq.local", "correct horse")
	require.NoError(t, err)
	assert.Equal(t, want.ID(), logged.ID())

	got, err := svc.Authenticate(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, want.ID(), got.ID())
	assert.Equal(t, principal.RoleOfficer, got.Role())
}

func TestLogin_BadCredentialsAreIndistinguishable(t *testing.T) {
	svc, _ := authFixture(t)
	ctx := context.Background()

	_, _, wrongPassword := svc.Login(ctx, "officer@hq.local", "wrong")
	_, _, unknownEmail := svc.Login(ctx, "nobody@hq.local", "correct horse")

	require.Error(t, wrongPassword)
	require.Error(t, unknownEmail)
	assert.Equal(t, serrors.KindForbidden, serrors.KindOf(wrongPassword))
	assert.Equal(t, wrongPassword.Error(), unknownEmail.Error())
}

func TestAuthenticate_RejectsTamperedToken(t *testing.T) {
	svc, _ := authFixture(t)
	ctx := context.Background()

	token, _, err := svc.Login(ctx, "officer@hq.local", "correct horse")
	require.NoError(t, err)

	_, err = svc.Authenticate(ctx, token+"x")
	require.Error(t, err)
	assert.Equal(t, serrors.KindForbidden, serrors.KindOf(err))

	other := NewAuthService(&stubPrincipalRepo{}, "other-secret", time.Hour)
	_, err = other.Authenticate(ctx, token)
	require.Error(t, err)
}
