package composables

import (
	"context"
	"time"

	"github.com/Shkelqim-Durmishi/Sistemi-Menaxhimit-Personelit-Ushtarak-sub000/pkg/constants"
)

// WithNow pins "now" for the rest of the request. Tests use it to make
// time-dependent guards, notably the report cutoff, deterministic.
func WithNow(ctx context.Context, now time.Time) context.Context {
	return context.WithValue(ctx, constants.NowKey, now)
}

// UseNow returns the pinned time if one is set, otherwise the wall clock.
func UseNow(ctx context.Context) time.Time {
	if now, ok := ctx.Value(constants.NowKey).(time.Time); ok {
		return now
	}
	return time.Now()
}
