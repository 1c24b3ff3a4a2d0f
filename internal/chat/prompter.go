package chat

import (
	"context"
	"sync"
)

// Prompter asks the user to confirm destructive actions and surfaces failures
type Prompter interface {
	Confirm(ctx context.Context, message string) bool
	Alert(ctx context.Context, message string)
}

type confirmKey struct{}

// WithConfirmation records the user's answer to a confirmation prompt in ctx
func WithConfirmation(ctx context.Context, confirmed bool) context.Context {
	return context.WithValue(ctx, confirmKey{}, confirmed)
}

// Inbox queues alerts until the next page render and answers confirmations
// from the request context.
type Inbox struct {
	mu     sync.Mutex
	alerts []string
}

// NewInbox creates an empty inbox
func NewInbox() *Inbox {
	return &Inbox{}
}

func (b *Inbox) Confirm(ctx context.Context, _ string) bool {
	ok, _ := ctx.Value(confirmKey{}).(bool)
	return ok
}

func (b *Inbox) Alert(_ context.Context, message string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.alerts = append(b.alerts, message)
}

// Drain returns and clears the queued alerts
func (b *Inbox) Drain() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := b.alerts
	b.alerts = nil
	return out
}
