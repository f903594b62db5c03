package gate

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"
)

// DefaultUserIDHeader is read by HeaderUserID when no header name is given.
const DefaultUserIDHeader = "X-User-ID"

// UserIDFunc extracts the authenticated user from a request.
type UserIDFunc func(r *http.Request) (uuid.UUID, bool)

type userIDCtxKey struct{}

// WithUserID stores the authenticated user ID in the context.
// Authentication middleware placed before the gate is expected to call it.
func WithUserID(ctx context.Context, userID uuid.UUID) context.Context {
	return context.WithValue(ctx, userIDCtxKey{}, userID)
}

// UserIDFromContext returns the user ID stored by WithUserID.
func UserIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(userIDCtxKey{}).(uuid.UUID)
	if !ok || id == uuid.Nil {
		return uuid.Nil, false
	}
	return id, true
}

// ContextUserID is the default UserIDFunc.
func ContextUserID(r *http.Request) (uuid.UUID, bool) {
	return UserIDFromContext(r.Context())
}

// HeaderUserID trusts a header set by an authenticating proxy in front of the service.
// Never expose it directly to clients.
func HeaderUserID(header string) UserIDFunc {
	if header == "" {
		header = DefaultUserIDHeader
	}
	return func(r *http.Request) (uuid.UUID, bool) {
		raw := strings.TrimSpace(r.Header.Get(header))
		if raw == "" {
			return uuid.Nil, false
		}
		id, err := uuid.Parse(raw)
		if err != nil || id == uuid.Nil {
			return uuid.Nil, false
		}
		return id, true
	}
}

// IdentityMiddleware copies the user resolved by fn into the request context,
// so handlers and log records further down can see it.
func IdentityMiddleware(fn UserIDFunc) func(http.Handler) http.Handler {
	if fn == nil {
		panic("gate.IdentityMiddleware: user ID func is required")
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if id, ok := fn(r); ok {
				r = r.WithContext(WithUserID(r.Context(), id))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// LoggerExtractor adds user_id to log records when the context carries one.
func LoggerExtractor() func(ctx context.Context) (slog.Attr, bool) {
	return func(ctx context.Context) (slog.Attr, bool) {
		if id, ok := UserIDFromContext(ctx); ok {
			return slog.String("user_id", id.String()), true
		}
		return slog.Attr{}, false
	}
}

func (g *Gate) requireUser(r *http.Request) (uuid.UUID, error) {
	id, ok := g.userID(r)
	if !ok {
		return uuid.Nil, ErrUnauthorized
	}
	return id, nil
}
