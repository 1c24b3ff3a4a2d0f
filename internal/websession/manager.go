package websession

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/Rrens/fai-advisor/internal/config"
	"github.com/google/uuid"
)

// Manager binds sessions to browsers through a cookie
type Manager struct {
	store      Store
	cookieName string
	ttl        time.Duration
	secure     bool
	now        func() time.Time
}

// NewManager creates a manager over store
func NewManager(store Store, cfg config.SessionConfig) *Manager {
	name := cfg.CookieName
	if name == "" {
		name = "fai_session"
	}
	return &Manager{
		store:      store,
		cookieName: name,
		ttl:        cfg.TTL,
		secure:     cfg.Secure,
		now:        time.Now,
	}
}

// Load returns the session named by the request cookie, starting a new
// one when the cookie is missing or the session has expired.
func (m *Manager) Load(w http.ResponseWriter, r *http.Request) (*Session, error) {
	if c, err := r.Cookie(m.cookieName); err == nil && c.Value != "" {
		s, err := m.store.Get(r.Context(), c.Value)
		if err != nil {
			return nil, fmt.Errorf("failed to load session: %w", err)
		}
		if s != nil {
			return s, nil
		}
	}

	s := &Session{ID: uuid.NewString(), CreatedAt: m.now().UTC()}
	if err := m.store.Save(r.Context(), s); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	m.setCookie(w, s.ID, m.ttl)
	return s, nil
}

// Save persists changes made to s during the request
func (m *Manager) Save(ctx context.Context, s *Session) error {
	if err := m.store.Save(ctx, s); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// Destroy removes the session and expires the cookie
func (m *Manager) Destroy(ctx context.Context, w http.ResponseWriter, s *Session) error {
	m.setCookie(w, "", -1)
	if err := m.store.Delete(ctx, s.ID); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

func (m *Manager) setCookie(w http.ResponseWriter, value string, ttl time.Duration) {
	c := &http.Cookie{
		Name:     m.cookieName,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	}
	switch {
	case ttl < 0:
		c.MaxAge = -1
	case ttl > 0:
		c.MaxAge = int(ttl.Seconds())
	}
	http.SetCookie(w, c)
}
