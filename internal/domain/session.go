package domain

import (
	"context"
	"time"
)

// ChatSession is a titled, owner-scoped conversation transcript
type ChatSession struct {
	ID        string    `json:"id" bson:"_id"`
	Title     string    `json:"title" bson:"title"`
	Messages  []Message `json:"messages" bson:"messages"`
	OwnerID   string    `json:"user_id" bson:"user_id"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at"`
}

// LastMessage returns the final message of the transcript, if any
func (s *ChatSession) LastMessage() (Message, bool) {
	if len(s.Messages) == 0 {
		return Message{}, false
	}
	return s.Messages[len(s.Messages)-1], true
}

// ChatRepository defines the interface for chat record storage.
// Every operation is scoped by the owner id passed by the caller.
type ChatRepository interface {
	Create(ctx context.Context, ownerID, title string, messages []Message) (*ChatSession, error)
	List(ctx context.Context, ownerID string) ([]ChatSession, error)
	Rename(ctx context.Context, ownerID, id, title string) error
	ReplaceMessages(ctx context.Context, ownerID, id string, messages []Message) error
	Delete(ctx context.Context, ownerID, id string) error
}
