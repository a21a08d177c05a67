// Package identity extracts the authenticated user placed on the request
// by the external auth layer. The platform never authenticates users
// itself: the frontend's identity provider (or a trusted reverse proxy)
// attaches a stable user id, and everything without one is anonymous.
// Anonymous users can take every test, but no history or results are kept
// for them.
package identity

import (
	"context"
	"net/http"
	"regexp"
)

const (
	// UserHeaderName carries the verified user id set by the auth layer.
	UserHeaderName = "X-SSB-User-ID"

	// UserCookieName is the fallback cookie for browsers that cannot set
	// custom headers on navigation requests.
	UserCookieName = "ssb_uid"
)

type contextKey int

const userIDKey contextKey = iota

// Stable opaque ids as issued by the identity provider.
var userIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{4,128}$`)

// UserIDFromContext returns the authenticated user id, or "" for an
// anonymous request.
func UserIDFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(userIDKey).(string); ok {
		return v
	}
	return ""
}

// WithUserID returns a context carrying the given user id. Intended for
// tests and internal tooling.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

func userIDFromRequest(r *http.Request) string {
	if id := r.Header.Get(UserHeaderName); userIDPattern.MatchString(id) {
		return id
	}
	if c, err := r.Cookie(UserCookieName); err == nil && userIDPattern.MatchString(c.Value) {
		return c.Value
	}
	return ""
}

// Middleware injects the request's user id into the context. Requests with
// no valid id proceed as anonymous rather than being rejected.
func Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID := userIDFromRequest(r)
			if userID == "" {
				next.ServeHTTP(w, r)
				return
			}
			ctx := context.WithValue(r.Context(), userIDKey, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
