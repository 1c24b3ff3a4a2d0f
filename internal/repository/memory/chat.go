// Package memory provides in-process repositories for tests and development
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/Rrens/fai-advisor/internal/domain"
	"github.com/google/uuid"
)

type record struct {
	session domain.ChatSession
	seq     uint64
}

// ChatRepository stores chat records in a map
type ChatRepository struct {
	mu      sync.RWMutex
	records map[string]*record
	seq     uint64
	now     func() time.Time
}

// NewChatRepository creates an empty repository
func NewChatRepository() *ChatRepository {
	return &ChatRepository{
		records: make(map[string]*record),
		now:     time.Now,
	}
}

// Create stores a new chat record
func (r *ChatRepository) Create(ctx context.Context, ownerID, title string, messages []domain.Message) (*domain.ChatSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now().UTC()
	r.seq++
	rec := &record{
		session: domain.ChatSession{
			ID:        uuid.NewString(),
			Title:     title,
			Messages:  domain.CloneMessages(messages),
			OwnerID:   ownerID,
			CreatedAt: now,
			UpdatedAt: now,
		},
		seq: r.seq,
	}
	r.records[rec.session.ID] = rec

	out := rec.session
	out.Messages = domain.CloneMessages(out.Messages)
	return &out, nil
}

// List returns the owner's records, newest first
func (r *ChatRepository) List(ctx context.Context, ownerID string) ([]domain.ChatSession, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var recs []*record
	for _, rec := range r.records {
		if rec.session.OwnerID == ownerID {
			recs = append(recs, rec)
		}
	}
	sort.Slice(recs, func(i, j int) bool {
		a, b := recs[i], recs[j]
		if !a.session.CreatedAt.Equal(b.session.CreatedAt) {
			return a.session.CreatedAt.After(b.session.CreatedAt)
		}
		return a.seq > b.seq
	})

	sessions := make([]domain.ChatSession, 0, len(recs))
	for _, rec := range recs {
		s := rec.session
		s.Messages = domain.CloneMessages(s.Messages)
		sessions = append(sessions, s)
	}
	return sessions, nil
}

func (r *ChatRepository) update(ownerID, id string, fn func(*domain.ChatSession)) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.records[id]
	if !ok || rec.session.OwnerID != ownerID {
		return domain.ErrNotFound
	}
	fn(&rec.session)
	rec.session.UpdatedAt = r.now().UTC()
	return nil
}

// Rename updates a record's title
func (r *ChatRepository) Rename(ctx context.Context, ownerID, id, title string) error {
	return r.update(ownerID, id, func(s *domain.ChatSession) { s.Title = title })
}

// ReplaceMessages overwrites a record's transcript
func (r *ChatRepository) ReplaceMessages(ctx context.Context, ownerID, id string, messages []domain.Message) error {
	return r.update(ownerID, id, func(s *domain.ChatSession) { s.Messages = domain.CloneMessages(messages) })
}

// Delete removes a record. Missing records are not an error.
func (r *ChatRepository) Delete(ctx context.Context, ownerID, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if rec, ok := r.records[id]; ok && rec.session.OwnerID == ownerID {
		delete(r.records, id)
	}
	return nil
}
