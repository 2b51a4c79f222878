package services

import (
	"context"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/Shkelqim-Durmishi/Sistemi-Menaxhimit-Personelit-Ushtarak-sub000/modules/core/domain/aggregates/principal"
	"github.com/Shkelqim-Durmishi/Sistemi-Menaxhimit-Personelit-Ushtarak-sub000/pkg/composables"
	"github.com/Shkelqim-Durmishi/Sistemi-Menaxhimit-Personelit-Ushtarak-sub000/pkg/serrors"
)

// Claims is the token payload: subject is the principal id, role and unit
// ride along so middleware can short-circuit obvious denials.
type Claims struct {
	Role   string `json:"role"`
	UnitID string `json:"unit_id,omitempty"`
	jwt.RegisteredClaims
}

type AuthService struct {
	repo   principal.Repository
	secret []byte
	ttl    time.Duration
}

func NewAuthService(repo principal.Repository, secret string, ttl time.Duration) *AuthService {
	return &AuthService{repo: repo, secret: []byte(secret), ttl: ttl}
}

// Login verifies the credentials and mints an HS256 token. Bad email and
// bad password are the same Forbidden so callers cannot probe for accounts.
func (s *AuthService) Login(ctx context.Context, email, password string) (string, principal.Principal, error) {
	p, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if serrors.IsKind(err, serrors.KindNotFound) {
			return "", principal.Principal{}, serrors.NewForbidden("invalid credentials")
		}
		return "", principal.Principal{}, err
	}
	if bcrypt.CompareHashAndPassword([]byte(p.PasswordHash()), []byte(password)) != nil {
		return "", principal.Principal{}, serrors.NewForbidden("invalid credentials")
	}

	now := composables.UseNow(ctx)
	claims := Claims{
		Role: string(p.Role()),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   p.ID().String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}
	if p.UnitID() != nil {
		claims.UnitID = p.UnitID().String()
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", principal.Principal{}, err
	}
	return token, p, nil
}

// Authenticate parses a bearer token and loads the principal behind it.
func (s *AuthService) Authenticate(ctx context.Context, token string) (principal.Principal, error) {
	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, serrors.NewForbidden("unexpected signing method")
		}
		return s.secret, nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil || !parsed.Valid {
		return principal.Principal{}, serrors.NewForbidden("invalid token")
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok {
		return principal.Principal{}, serrors.NewForbidden("invalid token")
	}
	id, err := uuid.Parse(claims.Subject)
	if err != nil {
		return principal.Principal{}, serrors.NewForbidden("invalid token")
	}

	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if serrors.IsKind(err, serrors.KindNotFound) {
			return principal.Principal{}, serrors.NewForbidden("unknown principal")
		}
		return principal.Principal{}, err
	}
	return p, nil
}
