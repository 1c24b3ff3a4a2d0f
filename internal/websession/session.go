// Package websession keeps per-browser state on the server. The cookie
// carries only the opaque session id.
package websession

import (
	"context"
	"time"

	"github.com/Rrens/fai-advisor/internal/domain"
)

// Session is the server-side state of one browser
type Session struct {
	ID           string           `json:"id"`
	User         *domain.Identity `json:"user,omitempty"`
	AccessToken  string           `json:"access_token,omitempty"`
	RefreshToken string           `json:"refresh_token,omitempty"`
	ExpiresAt    time.Time        `json:"expires_at"`
	// Recovery is set when the session was opened from a password reset link
	Recovery  bool      `json:"recovery,omitempty"`
	Flash     string    `json:"flash,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// SignedIn reports whether an identity is attached
func (s *Session) SignedIn() bool {
	return s != nil && s.User != nil
}

// SetAuth attaches the result of a sign-in or refresh
func (s *Session) SetAuth(a *domain.AuthSession) {
	user := a.User
	s.User = &user
	s.AccessToken = a.AccessToken
	s.RefreshToken = a.RefreshToken
	s.ExpiresAt = a.ExpiresAt
}

// ClearAuth drops the identity and tokens
func (s *Session) ClearAuth() {
	s.User = nil
	s.AccessToken = ""
	s.RefreshToken = ""
	s.ExpiresAt = time.Time{}
	s.Recovery = false
}

// PopFlash returns and clears the pending flash message
func (s *Session) PopFlash() string {
	msg := s.Flash
	s.Flash = ""
	return msg
}

// Store persists sessions. Get returns nil, nil when the id is unknown.
type Store interface {
	Get(ctx context.Context, id string) (*Session, error)
	Save(ctx context.Context, s *Session) error
	Delete(ctx context.Context, id string) error
}

type contextKey struct{}

// WithSession attaches s to ctx
func WithSession(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, contextKey{}, s)
}

// FromContext returns the session attached to ctx, if any
func FromContext(ctx context.Context) *Session {
	s, _ := ctx.Value(contextKey{}).(*Session)
	return s
}
