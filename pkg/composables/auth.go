package composables

import (
	"context"
	"errors"

	"github.com/Shkelqim-Durmishi/Sistemi-Menaxhimit-Personelit-Ushtarak-sub000/modules/core/domain/aggregates/principal"
	"github.com/Shkelqim-Durmishi/Sistemi-Menaxhimit-Personelit-Ushtarak-sub000/pkg/constants"
)

var ErrNoUser = errors.New("no user found in context")

func WithUser(ctx context.Context, p principal.Principal) context.Context {
	return context.WithValue(ctx, constants.UserKey, p)
}

// UseUser returns the acting principal resolved by the auth middleware.
func UseUser(ctx context.Context) (principal.Principal, error) {
	p, ok := ctx.Value(constants.UserKey).(principal.Principal)
	if !ok || p.IsZero() {
		return principal.Principal{}, ErrNoUser
	}
	return p, nil
}
