package auth

import (
	"errors"
	"fmt"
	"testing"

	"github.com/Rrens/fai-advisor/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestBus_SubscribeAndUnsubscribe(t *testing.T) {
	bus := NewBus()

	var got []Event
	unsubscribe := bus.Subscribe(func(e Event) { got = append(got, e) })

	bus.Publish(Event{Type: SignedIn, UserID: "u1"})
	unsubscribe()
	unsubscribe()
	bus.Publish(Event{Type: SignedOut, UserID: "u1"})

	assert.Equal(t, []Event{{Type: SignedIn, UserID: "u1"}}, got)
}

func TestMessage(t *testing.T) {
	err := fmt.Errorf("sign in: %w", NewError("Invalid login credentials", domain.ErrInvalidCredentials))
	assert.Equal(t, "Invalid login credentials", Message(err))
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)

	assert.Equal(t, "backend not configured", Message(Unavailable))
	assert.Equal(t, "backend not configured", Message(domain.ErrBackendUnavailable))
	assert.Equal(t, "An unexpected error occurred", Message(errors.New("dial tcp: refused")))
}
