package chat

import (
	"context"

	"github.com/Rrens/fai-advisor/internal/domain"
	"github.com/stretchr/testify/mock"
)

// MockChatRepository mocks the ChatRepository interface
type MockChatRepository struct {
	mock.Mock
}

func (m *MockChatRepository) Create(ctx context.Context, ownerID, title string, messages []domain.Message) (*domain.ChatSession, error) {
	args := m.Called(ctx, ownerID, title, messages)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ChatSession), args.Error(1)
}

func (m *MockChatRepository) List(ctx context.Context, ownerID string) ([]domain.ChatSession, error) {
	args := m.Called(ctx, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ChatSession), args.Error(1)
}

func (m *MockChatRepository) Rename(ctx context.Context, ownerID, id, title string) error {
	args := m.Called(ctx, ownerID, id, title)
	return args.Error(0)
}

func (m *MockChatRepository) ReplaceMessages(ctx context.Context, ownerID, id string, messages []domain.Message) error {
	args := m.Called(ctx, ownerID, id, messages)
	return args.Error(0)
}

func (m *MockChatRepository) Delete(ctx context.Context, ownerID, id string) error {
	args := m.Called(ctx, ownerID, id)
	return args.Error(0)
}

// MockGenerator mocks the ResponseGenerator interface
type MockGenerator struct {
	mock.Mock
}

func (m *MockGenerator) Respond(ctx context.Context, message string) (string, error) {
	args := m.Called(ctx, message)
	return args.String(0), args.Error(1)
}

// confirmingPrompter answers every confirmation with answer and records alerts
type confirmingPrompter struct {
	answer bool
	asked  int
	alerts []string
}

func (p *confirmingPrompter) Confirm(context.Context, string) bool {
	p.asked++
	return p.answer
}

func (p *confirmingPrompter) Alert(_ context.Context, message string) {
	p.alerts = append(p.alerts, message)
}
