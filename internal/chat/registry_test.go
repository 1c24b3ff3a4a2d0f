package chat

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/Rrens/fai-advisor/internal/domain"
	"github.com/Rrens/fai-advisor/internal/repository/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_Get(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewChatRepository()
	_, err := repo.Create(ctx, "alice", "Saved", []domain.Message{{ID: 1, Role: domain.RoleBot, Content: "hi"}})
	require.NoError(t, err)

	r := NewRegistry(time.Minute, Options{Repository: repo})

	a := r.Get(ctx, "s1", "alice")
	assert.Same(t, a, r.Get(ctx, "s1", "alice"))
	assert.Len(t, a.Sessions(), 1, "stored chats are loaded on first use")

	// another user in the same browser session gets a fresh controller
	b := r.Get(ctx, "s1", "bob")
	assert.NotSame(t, a, b)
	assert.Equal(t, "bob", b.Owner())
	assert.Empty(t, b.Sessions())
}

func TestRegistry_Drop(t *testing.T) {
	ctx := context.Background()
	r := NewRegistry(time.Minute, Options{Repository: memory.NewChatRepository()})

	r.Get(ctx, "s1", "alice")
	r.Get(ctx, "s2", "alice")
	r.Get(ctx, "s3", "bob")
	assert.Equal(t, 3, r.Len())

	r.DropOwner("alice")
	assert.Equal(t, 1, r.Len())

	r.Drop("s3")
	assert.Equal(t, 0, r.Len())
}

func TestRegistry_IdleExpiry(t *testing.T) {
	ctx := context.Background()
	r := NewRegistry(20*time.Millisecond, Options{Repository: memory.NewChatRepository()})

	first := r.Get(ctx, "s1", "alice")
	time.Sleep(40 * time.Millisecond)
	assert.NotSame(t, first, r.Get(ctx, "s1", "alice"))
}

// blockingList holds List calls for one owner until release is closed
type blockingList struct {
	*memory.ChatRepository
	owner   string
	started chan struct{}
	release chan struct{}
}

func (b *blockingList) List(ctx context.Context, ownerID string) ([]domain.ChatSession, error) {
	if ownerID == b.owner {
		b.started <- struct{}{}
		<-b.release
	}
	return b.ChatRepository.List(ctx, ownerID)
}

func TestRegistry_SlowLoadDoesNotBlockOthers(t *testing.T) {
	ctx := context.Background()
	repo := &blockingList{
		ChatRepository: memory.NewChatRepository(),
		owner:          "slow",
		started:        make(chan struct{}, 1),
		release:        make(chan struct{}),
	}
	r := NewRegistry(time.Minute, Options{Repository: repo})

	slow := make(chan *Controller, 1)
	go func() { slow <- r.Get(ctx, "s-slow", "slow") }()
	<-repo.started

	fast := make(chan *Controller, 1)
	go func() { fast <- r.Get(ctx, "s-fast", "fast") }()

	select {
	case c := <-fast:
		assert.Equal(t, "fast", c.Owner())
	case <-time.After(time.Second):
		t.Fatal("Get for another session waited on a pending load")
	}

	close(repo.release)
	assert.Equal(t, "slow", (<-slow).Owner())
}

func TestRegistry_ConcurrentFirstGetSharesController(t *testing.T) {
	ctx := context.Background()
	repo := &blockingList{
		ChatRepository: memory.NewChatRepository(),
		owner:          "alice",
		started:        make(chan struct{}, 1),
		release:        make(chan struct{}),
	}
	r := NewRegistry(time.Minute, Options{Repository: repo})

	var wg sync.WaitGroup
	got := make([]*Controller, 4)
	wg.Add(1)
	go func() {
		defer wg.Done()
		got[0] = r.Get(ctx, "s1", "alice")
	}()
	<-repo.started
	for i := 1; i < len(got); i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			got[i] = r.Get(ctx, "s1", "alice")
		}(i)
	}
	time.Sleep(20 * time.Millisecond)
	close(repo.release)
	wg.Wait()

	for _, c := range got[1:] {
		assert.Same(t, got[0], c)
	}
	assert.Equal(t, 1, r.Len())
}
