package local

import (
	"context"
	"strings"
	"sync"

	"github.com/Rrens/fai-advisor/internal/domain"
	"github.com/Rrens/fai-advisor/internal/mailer"
	"github.com/Rrens/fai-advisor/internal/repository/postgres"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// fakeUsers is an in-memory UserStore
type fakeUsers struct {
	mu    sync.Mutex
	users map[uuid.UUID]*postgres.User
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{users: make(map[uuid.UUID]*postgres.User)}
}

func (f *fakeUsers) Create(ctx context.Context, u *postgres.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.users {
		if existing.Email == strings.ToLower(u.Email) {
			return domain.ErrEmailTaken
		}
	}
	stored := *u
	f.users[u.ID] = &stored
	return nil
}

func (f *fakeUsers) GetByEmail(ctx context.Context, email string) (*postgres.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == strings.ToLower(email) {
			copied := *u
			return &copied, nil
		}
	}
	return nil, nil
}

func (f *fakeUsers) GetByID(ctx context.Context, id uuid.UUID) (*postgres.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u, ok := f.users[id]; ok {
		copied := *u
		return &copied, nil
	}
	return nil, nil
}

func (f *fakeUsers) UpdatePassword(ctx context.Context, id uuid.UUID, hash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return domain.ErrNotFound
	}
	u.PasswordHash = hash
	return nil
}

// MockSender mocks the mailer.Sender interface
type MockSender struct {
	mock.Mock
}

func (m *MockSender) Send(ctx context.Context, msg mailer.Message) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}
