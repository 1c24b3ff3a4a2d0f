package websession

import (
	"context"
	"time"

	"github.com/patrickmn/go-cache"
)

// MemoryStore keeps sessions in process with a sliding expiry
type MemoryStore struct {
	cache *cache.Cache
}

// NewMemoryStore creates a store whose entries expire after ttl without a save
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{cache: cache.New(ttl, 10*time.Minute)}
}

func (m *MemoryStore) Get(ctx context.Context, id string) (*Session, error) {
	if x, found := m.cache.Get(id); found {
		s := *x.(*Session)
		return &s, nil
	}
	return nil, nil
}

func (m *MemoryStore) Save(ctx context.Context, s *Session) error {
	stored := *s
	m.cache.Set(s.ID, &stored, cache.DefaultExpiration)
	return nil
}

func (m *MemoryStore) Delete(ctx context.Context, id string) error {
	m.cache.Delete(id)
	return nil
}
