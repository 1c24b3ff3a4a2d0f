package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/Rrens/fai-advisor/internal/api/response"
	"github.com/Rrens/fai-advisor/internal/auth"
	"github.com/Rrens/fai-advisor/internal/domain"
	"github.com/Rrens/fai-advisor/internal/websession"
)

type contextKey string

const userKey contextKey = "user"

// WithUser attaches the signed-in identity to ctx
func WithUser(ctx context.Context, id domain.Identity) context.Context {
	return context.WithValue(ctx, userKey, id)
}

// CurrentUser returns the signed-in identity, if any
func CurrentUser(ctx context.Context) (domain.Identity, bool) {
	id, ok := ctx.Value(userKey).(domain.Identity)
	return id, ok
}

// ClientKey identifies the caller for per-client state: the browser
// session when there is one, otherwise the bearer identity.
func ClientKey(ctx context.Context) string {
	if s := websession.FromContext(ctx); s != nil && s.SignedIn() {
		return s.ID
	}
	if id, ok := CurrentUser(ctx); ok {
		return "bearer:" + id.ID
	}
	return ""
}

// AuthMiddleware authenticates API requests by browser session or bearer token
type AuthMiddleware struct {
	client auth.Client
}

// NewAuthMiddleware creates a new auth middleware
func NewAuthMiddleware(client auth.Client) *AuthMiddleware {
	return &AuthMiddleware{client: client}
}

// Authenticate requires a signed-in browser session or a valid bearer token
func (m *AuthMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := CurrentUser(r.Context()); ok {
			next.ServeHTTP(w, r)
			return
		}

		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			response.Unauthorized(w, "missing authorization")
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			response.Unauthorized(w, "invalid authorization header format")
			return
		}

		s, err := m.client.CurrentSession(r.Context(), parts[1], "")
		if err != nil {
			response.Unauthorized(w, auth.Message(err))
			return
		}

		ctx := WithUser(r.Context(), s.User)
		ctx = domain.WithAccessToken(ctx, s.AccessToken)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
