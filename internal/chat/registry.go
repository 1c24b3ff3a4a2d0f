package chat

import (
	"context"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"
)

// Registry keeps one Controller per browser session and drops controllers
// that stay idle for longer than the configured TTL.
type Registry struct {
	mu      sync.Mutex
	cache   *cache.Cache
	loading singleflight.Group
	ttl     time.Duration
	opts    Options
}

// NewRegistry creates a registry whose controllers are built from opts.
// Each controller gets its own Inbox prompter.
func NewRegistry(idleTTL time.Duration, opts Options) *Registry {
	return &Registry{
		cache: cache.New(idleTTL, idleTTL/2+time.Minute),
		ttl:   idleTTL,
		opts:  opts,
	}
}

func (r *Registry) lookup(sessionID, owner string) *Controller {
	r.mu.Lock()
	defer r.mu.Unlock()

	if x, found := r.cache.Get(sessionID); found {
		c := x.(*Controller)
		if c.Owner() == owner {
			// refresh the idle expiry
			r.cache.Set(sessionID, c, cache.DefaultExpiration)
			return c
		}
	}
	return nil
}

// Get returns the controller of sessionID for owner, creating and loading
// it on first use or when the session now belongs to another user.
// Concurrent first requests for one session share a single load; the
// registry lock is never held across it.
func (r *Registry) Get(ctx context.Context, sessionID, owner string) *Controller {
	if c := r.lookup(sessionID, owner); c != nil {
		return c
	}

	x, _, _ := r.loading.Do(sessionID+"\x00"+owner, func() (any, error) {
		if c := r.lookup(sessionID, owner); c != nil {
			return c, nil
		}

		// shared by every waiter, so the first caller's cancellation must not end it
		ctx := context.WithoutCancel(ctx)
		opts := r.opts
		opts.Prompter = NewInbox()
		c := NewController(ctx, owner, opts)
		if err := c.Load(ctx); err != nil {
			log.Warn().Err(err).Str("session_id", sessionID).Msg("Chat controller started without stored chats")
		}

		r.mu.Lock()
		r.cache.Set(sessionID, c, cache.DefaultExpiration)
		r.mu.Unlock()
		return c, nil
	})
	return x.(*Controller)
}

// Drop discards the controller of sessionID
func (r *Registry) Drop(sessionID string) {
	r.cache.Delete(sessionID)
}

// DropOwner discards every controller acting for userID
func (r *Registry) DropOwner(userID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for key, item := range r.cache.Items() {
		if c, ok := item.Object.(*Controller); ok && c.Owner() == userID {
			r.cache.Delete(key)
		}
	}
}

// Len returns the number of live controllers
func (r *Registry) Len() int {
	return r.cache.ItemCount()
}
