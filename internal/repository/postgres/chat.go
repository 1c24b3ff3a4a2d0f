package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Rrens/fai-advisor/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ChatRepository implements domain.ChatRepository
type ChatRepository struct {
	pool *pgxpool.Pool
}

// NewChatRepository creates a new chat repository
func NewChatRepository(pool *pgxpool.Pool) *ChatRepository {
	return &ChatRepository{pool: pool}
}

func parseIDs(ownerID, id string) (uuid.UUID, uuid.UUID, error) {
	owner, err := uuid.Parse(ownerID)
	if err != nil {
		return uuid.Nil, uuid.Nil, fmt.Errorf("invalid owner id: %w", err)
	}
	if id == "" {
		return owner, uuid.Nil, nil
	}
	chatID, err := uuid.Parse(id)
	if err != nil {
		return uuid.Nil, uuid.Nil, domain.ErrNotFound
	}
	return owner, chatID, nil
}

func (r *ChatRepository) Create(ctx context.Context, ownerID, title string, messages []domain.Message) (*domain.ChatSession, error) {
	owner, _, err := parseIDs(ownerID, "")
	if err != nil {
		return nil, err
	}

	if messages == nil {
		messages = []domain.Message{}
	}
	raw, err := json.Marshal(messages)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal messages: %w", err)
	}

	now := time.Now().UTC()
	s := &domain.ChatSession{
		ID:        uuid.NewString(),
		Title:     title,
		Messages:  domain.CloneMessages(messages),
		OwnerID:   ownerID,
		CreatedAt: now,
		UpdatedAt: now,
	}

	query := `
		INSERT INTO chats (id, user_id, title, messages, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err = r.pool.Exec(ctx, query, s.ID, owner, s.Title, raw, s.CreatedAt, s.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create chat: %w", err)
	}
	return s, nil
}

func (r *ChatRepository) List(ctx context.Context, ownerID string) ([]domain.ChatSession, error) {
	owner, _, err := parseIDs(ownerID, "")
	if err != nil {
		return nil, err
	}

	query := `
		SELECT id, user_id, title, messages, created_at, updated_at
		FROM chats
		WHERE user_id = $1
		ORDER BY created_at DESC
	`
	rows, err := r.pool.Query(ctx, query, owner)
	if err != nil {
		return nil, fmt.Errorf("failed to list chats: %w", err)
	}
	defer rows.Close()

	sessions := []domain.ChatSession{}
	for rows.Next() {
		s, err := scanChat(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate chats: %w", err)
	}
	return sessions, nil
}

func scanChat(row pgx.Row) (*domain.ChatSession, error) {
	var (
		s       domain.ChatSession
		id      uuid.UUID
		owner   uuid.UUID
		rawMsgs []byte
	)
	if err := row.Scan(&id, &owner, &s.Title, &rawMsgs, &s.CreatedAt, &s.UpdatedAt); err != nil {
		return nil, fmt.Errorf("failed to scan chat: %w", err)
	}
	if err := json.Unmarshal(rawMsgs, &s.Messages); err != nil {
		return nil, fmt.Errorf("failed to unmarshal messages: %w", err)
	}
	s.ID = id.String()
	s.OwnerID = owner.String()
	return &s, nil
}

func (r *ChatRepository) Rename(ctx context.Context, ownerID, id, title string) error {
	owner, chatID, err := parseIDs(ownerID, id)
	if err != nil {
		return err
	}

	query := `UPDATE chats SET title = $1, updated_at = $2 WHERE id = $3 AND user_id = $4`
	tag, err := r.pool.Exec(ctx, query, title, time.Now().UTC(), chatID, owner)
	if err != nil {
		return fmt.Errorf("failed to rename chat: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *ChatRepository) ReplaceMessages(ctx context.Context, ownerID, id string, messages []domain.Message) error {
	owner, chatID, err := parseIDs(ownerID, id)
	if err != nil {
		return err
	}

	if messages == nil {
		messages = []domain.Message{}
	}
	raw, err := json.Marshal(messages)
	if err != nil {
		return fmt.Errorf("failed to marshal messages: %w", err)
	}

	query := `UPDATE chats SET messages = $1, updated_at = $2 WHERE id = $3 AND user_id = $4`
	tag, err := r.pool.Exec(ctx, query, raw, time.Now().UTC(), chatID, owner)
	if err != nil {
		return fmt.Errorf("failed to update chat messages: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Delete removes a chat. Deleting a missing chat is not an error.
func (r *ChatRepository) Delete(ctx context.Context, ownerID, id string) error {
	owner, chatID, err := parseIDs(ownerID, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil
		}
		return err
	}

	query := `DELETE FROM chats WHERE id = $1 AND user_id = $2`
	if _, err := r.pool.Exec(ctx, query, chatID, owner); err != nil {
		return fmt.Errorf("failed to delete chat: %w", err)
	}
	return nil
}
