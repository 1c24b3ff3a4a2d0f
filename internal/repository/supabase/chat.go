// Package supabase implements domain.ChatRepository on the hosted
// PostgREST API. Calls carry the signed-in user's access token so the
// table's row-level security applies.
package supabase

import (
	"context"
	"fmt"
	"strings"

	"github.com/Rrens/fai-advisor/internal/config"
	"github.com/Rrens/fai-advisor/internal/domain"
	"github.com/supabase-community/postgrest-go"
	"github.com/supabase-community/supabase-go"
)

// ChatRepository stores chat records in a Supabase table
type ChatRepository struct {
	anon    *supabase.Client
	restURL string
	anonKey string
	table   string
}

// NewChatRepository creates a repository for the configured project
func NewChatRepository(cfg config.SupabaseConfig) (*ChatRepository, error) {
	if !cfg.Configured() {
		return nil, domain.ErrBackendUnavailable
	}
	table := cfg.Table
	if table == "" {
		table = "chats"
	}
	url := strings.TrimRight(cfg.URL, "/")
	anon, err := supabase.NewClient(url, cfg.AnonKey, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create supabase client: %w", err)
	}
	return &ChatRepository{
		anon:    anon,
		restURL: url + supabase.REST_URL,
		anonKey: cfg.AnonKey,
		table:   table,
	}, nil
}

// from builds a query on the chats table for the caller in ctx. A signed-in
// caller gets a REST client carrying their token; the shared client's
// headers are fixed at construction.
func (r *ChatRepository) from(ctx context.Context) (*postgrest.QueryBuilder, error) {
	token, ok := domain.AccessToken(ctx)
	if !ok {
		return r.anon.From(r.table), nil
	}

	rest := postgrest.NewClient(r.restURL, "public", map[string]string{
		"apikey":        r.anonKey,
		"Authorization": "Bearer " + token,
	})
	if rest.ClientError != nil {
		return nil, fmt.Errorf("failed to create rest client: %w", rest.ClientError)
	}
	return rest.From(r.table), nil
}

type chatInsert struct {
	Title    string           `json:"title"`
	Messages []domain.Message `json:"messages"`
	UserID   string           `json:"user_id"`
}

func (r *ChatRepository) Create(ctx context.Context, ownerID, title string, messages []domain.Message) (*domain.ChatSession, error) {
	q, err := r.from(ctx)
	if err != nil {
		return nil, err
	}

	if messages == nil {
		messages = []domain.Message{}
	}
	row := []chatInsert{{Title: title, Messages: messages, UserID: ownerID}}

	var created []domain.ChatSession
	if _, err := q.Insert(row, false, "", "representation", "").ExecuteTo(&created); err != nil {
		return nil, fmt.Errorf("failed to create chat: %w", err)
	}
	if len(created) == 0 {
		return nil, fmt.Errorf("failed to create chat: empty response")
	}
	return &created[0], nil
}

func (r *ChatRepository) List(ctx context.Context, ownerID string) ([]domain.ChatSession, error) {
	q, err := r.from(ctx)
	if err != nil {
		return nil, err
	}

	chats := []domain.ChatSession{}
	_, err = q.Select("*", "", false).
		Eq("user_id", ownerID).
		Order("created_at", &postgrest.OrderOpts{Ascending: false}).
		ExecuteTo(&chats)
	if err != nil {
		return nil, fmt.Errorf("failed to list chats: %w", err)
	}
	return chats, nil
}

func (r *ChatRepository) Rename(ctx context.Context, ownerID, id, title string) error {
	return r.update(ctx, ownerID, id, map[string]any{"title": title})
}

func (r *ChatRepository) ReplaceMessages(ctx context.Context, ownerID, id string, messages []domain.Message) error {
	if messages == nil {
		messages = []domain.Message{}
	}
	return r.update(ctx, ownerID, id, map[string]any{"messages": messages})
}

func (r *ChatRepository) update(ctx context.Context, ownerID, id string, fields map[string]any) error {
	q, err := r.from(ctx)
	if err != nil {
		return err
	}

	var updated []domain.ChatSession
	_, err = q.Update(fields, "representation", "").
		Eq("id", id).
		Eq("user_id", ownerID).
		ExecuteTo(&updated)
	if err != nil {
		return fmt.Errorf("failed to update chat: %w", err)
	}
	if len(updated) == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Delete removes a chat. Deleting a missing chat is not an error.
func (r *ChatRepository) Delete(ctx context.Context, ownerID, id string) error {
	q, err := r.from(ctx)
	if err != nil {
		return err
	}

	if _, _, err := q.Delete("", "").Eq("id", id).Eq("user_id", ownerID).Execute(); err != nil {
		return fmt.Errorf("failed to delete chat: %w", err)
	}
	return nil
}
