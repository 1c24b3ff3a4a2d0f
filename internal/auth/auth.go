// Package auth defines the session/auth client used by the web layer and
// the events it publishes.
package auth

import (
	"context"
	"errors"
	"sync"

	"github.com/Rrens/fai-advisor/internal/domain"
)

// Client signs users up, in and out and manages their sessions.
// SignUp returns a nil session when the backend requires e-mail confirmation.
type Client interface {
	SignUp(ctx context.Context, email, password, displayName string) (*domain.AuthSession, error)
	SignIn(ctx context.Context, email, password string) (*domain.AuthSession, error)
	SignOut(ctx context.Context, accessToken string) error
	CurrentSession(ctx context.Context, accessToken, refreshToken string) (*domain.AuthSession, error)
	RecoverSession(ctx context.Context, accessToken, refreshToken string) (*domain.AuthSession, error)
	RequestPasswordReset(ctx context.Context, email, redirectURL string) error
	UpdatePassword(ctx context.Context, accessToken, newPassword string) error
	Subscribe(fn func(Event)) (unsubscribe func())
}

// Error is a failure whose Message is safe to show to the user
type Error struct {
	Message string
	Err     error
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.Err }

// NewError wraps err with a user-facing message
func NewError(message string, err error) *Error {
	return &Error{Message: message, Err: err}
}

// Message returns the user-facing text of err
func Message(err error) string {
	var authErr *Error
	if errors.As(err, &authErr) {
		return authErr.Message
	}
	if errors.Is(err, domain.ErrBackendUnavailable) {
		return domain.ErrBackendUnavailable.Error()
	}
	return "An unexpected error occurred"
}

// Unavailable is returned by drivers without backend credentials
var Unavailable = NewError(domain.ErrBackendUnavailable.Error(), domain.ErrBackendUnavailable)

// EventType names an auth state change
type EventType string

const (
	SignedIn         EventType = "SIGNED_IN"
	SignedOut        EventType = "SIGNED_OUT"
	TokenRefreshed   EventType = "TOKEN_REFRESHED"
	UserUpdated      EventType = "USER_UPDATED"
	PasswordRecovery EventType = "PASSWORD_RECOVERY"
	SessionExpired   EventType = "SESSION_EXPIRED"
)

// Event is published after an auth state change. UserID is empty when the
// user could not be determined.
type Event struct {
	Type   EventType
	UserID string
}

// Bus fans events out to subscribers. Drivers embed it.
type Bus struct {
	mu     sync.RWMutex
	nextID int
	subs   map[int]func(Event)
}

// NewBus creates an empty bus
func NewBus() *Bus {
	return &Bus{subs: make(map[int]func(Event))}
}

// Subscribe registers fn and returns a function that removes it
func (b *Bus) Subscribe(fn func(Event)) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++
	b.subs[id] = fn

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, id)
			b.mu.Unlock()
		})
	}
}

// Publish delivers e to every subscriber synchronously
func (b *Bus) Publish(e Event) {
	b.mu.RLock()
	subs := make([]func(Event), 0, len(b.subs))
	for _, fn := range b.subs {
		subs = append(subs, fn)
	}
	b.mu.RUnlock()

	for _, fn := range subs {
		fn(e)
	}
}
