package middleware

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"

	"github.com/Shkelqim-Durmishi/Sistemi-Menaxhimit-Personelit-Ushtarak-sub000/modules/core/domain/aggregates/principal"
	"github.com/Shkelqim-Durmishi/Sistemi-Menaxhimit-Personelit-Ushtarak-sub000/pkg/composables"
	"github.com/Shkelqim-Durmishi/Sistemi-Menaxhimit-Personelit-Ushtarak-sub000/pkg/shared"
)

// Authenticator resolves a bearer token to a principal. The auth service
// implements it; middleware stays decoupled from the core module.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (principal.Principal, error)
}

// WithPool seeds every request context with the connection pool so read
// paths can query without an explicit transaction.
func WithPool(pool *pgxpool.Pool) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(composables.WithPool(r.Context(), pool)))
		})
	}
}

// Authenticate parses the Authorization header and, when the token checks
// out, stores the principal in the context. Requests without a token pass
// through anonymously; RequireUser draws the line further down.
func Authenticate(auth Authenticator) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				next.ServeHTTP(w, r)
				return
			}
			token := strings.TrimPrefix(header, "Bearer ")
			if token == header {
				http.Error(w, "malformed authorization header", http.StatusUnauthorized)
				return
			}
			p, err := auth.Authenticate(r.Context(), token)
			if err != nil {
				http.Error(w, "invalid token", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r.WithContext(composables.WithUser(r.Context(), p)))
		})
	}
}

// RequireUser rejects anonymous requests.
func RequireUser() mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, err := composables.UseUser(r.Context()); err != nil {
				http.Error(w, "authentication required", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

// WithTransaction opens a transaction per request and commits only when the
// handler answered below 400. Everything a write handler does, status flip,
// side effects and audit append, shares this transaction.
func WithTransaction() mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			pool, err := composables.UsePool(r.Context())
			if err != nil {
				shared.WriteError(w, r, err)
				return
			}
			tx, err := pool.Begin(r.Context())
			if err != nil {
				shared.WriteError(w, r, err)
				return
			}

			sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(sw, r.WithContext(composables.WithTx(r.Context(), tx)))

			if sw.status >= http.StatusBadRequest {
				_ = tx.Rollback(r.Context())
				return
			}
			if err := tx.Commit(r.Context()); err != nil {
				_ = tx.Rollback(r.Context())
			}
		})
	}
}

// RequestID tags the request and its logger entry with an id, propagating
// an inbound header when present.
func RequestID(header string) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := r.Header.Get(header)
			if id == "" {
				id = uuid.NewString()
			}
			w.Header().Set(header, id)
			next.ServeHTTP(w, r.WithContext(composables.WithRequestID(r.Context(), id)))
		})
	}
}

// LogRequests attaches a scoped logger to the context and writes one line
// per request.
func LogRequests(logger *logrus.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			entry := logger.WithFields(logrus.Fields{
				"method":     r.Method,
				"path":       r.URL.Path,
				"request-id": composables.UseRequestID(r.Context()),
			})

			sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(sw, r.WithContext(composables.WithLogger(r.Context(), entry)))

			entry.WithFields(logrus.Fields{
				"status":   sw.status,
				"duration": time.Since(start).String(),
			}).Info("request completed")
		})
	}
}
