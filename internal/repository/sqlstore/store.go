// Package sqlstore implements domain.ChatRepository on database/sql for
// SQLite (modernc.org/sqlite) and MySQL (go-sql-driver/mysql).
package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/Rrens/fai-advisor/internal/domain"
	_ "github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

const (
	DriverSQLite = "sqlite"
	DriverMySQL  = "mysql"
)

var schemas = map[string][]string{
	DriverSQLite: {
		`CREATE TABLE IF NOT EXISTS chats (
			id         TEXT PRIMARY KEY,
			user_id    TEXT NOT NULL,
			title      TEXT NOT NULL,
			messages   TEXT NOT NULL,
			created_at INTEGER NOT NULL,
			updated_at INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_chats_user_created ON chats (user_id, created_at DESC)`,
	},
	DriverMySQL: {
		`CREATE TABLE IF NOT EXISTS chats (
			id         VARCHAR(36) NOT NULL PRIMARY KEY,
			user_id    VARCHAR(64) NOT NULL,
			title      VARCHAR(255) NOT NULL,
			messages   LONGTEXT NOT NULL,
			created_at BIGINT NOT NULL,
			updated_at BIGINT NOT NULL,
			INDEX idx_chats_user_created (user_id, created_at)
		) DEFAULT CHARSET = utf8mb4`,
	},
}

// Store keeps chat records in a SQL database. Timestamps are stored as
// Unix nanoseconds and transcripts as JSON text.
type Store struct {
	db     *sql.DB
	driver string

	mu   sync.Mutex
	last int64
}

// Open connects to the database and creates the chats table if needed
func Open(ctx context.Context, driver, dsn string, maxOpenConns int) (*Store, error) {
	ddl, ok := schemas[driver]
	if !ok {
		return nil, fmt.Errorf("unsupported sql driver: %s", driver)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if maxOpenConns > 0 {
		db.SetMaxOpenConns(maxOpenConns)
		db.SetMaxIdleConns(maxOpenConns)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	for _, stmt := range ddl {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to create schema: %w", err)
		}
	}

	return &Store{db: db, driver: driver}, nil
}

// Close closes the underlying database
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping verifies database connectivity
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// now returns a strictly increasing timestamp so records created in the
// same clock tick still sort deterministically.
func (s *Store) now() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := time.Now().UTC().UnixNano()
	if n <= s.last {
		n = s.last + 1
	}
	s.last = n
	return time.Unix(0, n).UTC()
}

func (s *Store) Create(ctx context.Context, ownerID, title string, messages []domain.Message) (*domain.ChatSession, error) {
	if messages == nil {
		messages = []domain.Message{}
	}
	raw, err := json.Marshal(messages)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal messages: %w", err)
	}

	now := s.now()
	chat := &domain.ChatSession{
		ID:        uuid.NewString(),
		Title:     title,
		Messages:  domain.CloneMessages(messages),
		OwnerID:   ownerID,
		CreatedAt: now,
		UpdatedAt: now,
	}

	query := `INSERT INTO chats (id, user_id, title, messages, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`
	_, err = s.db.ExecContext(ctx, query, chat.ID, ownerID, title, string(raw), now.UnixNano(), now.UnixNano())
	if err != nil {
		return nil, fmt.Errorf("failed to create chat: %w", err)
	}
	return chat, nil
}

func (s *Store) List(ctx context.Context, ownerID string) ([]domain.ChatSession, error) {
	query := `
		SELECT id, user_id, title, messages, created_at, updated_at
		FROM chats
		WHERE user_id = ?
		ORDER BY created_at DESC
	`
	rows, err := s.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list chats: %w", err)
	}
	defer rows.Close()

	chats := []domain.ChatSession{}
	for rows.Next() {
		var (
			c                domain.ChatSession
			raw              string
			created, updated int64
		)
		if err := rows.Scan(&c.ID, &c.OwnerID, &c.Title, &raw, &created, &updated); err != nil {
			return nil, fmt.Errorf("failed to scan chat: %w", err)
		}
		if err := json.Unmarshal([]byte(raw), &c.Messages); err != nil {
			return nil, fmt.Errorf("failed to unmarshal messages: %w", err)
		}
		c.CreatedAt = time.Unix(0, created).UTC()
		c.UpdatedAt = time.Unix(0, updated).UTC()
		chats = append(chats, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate chats: %w", err)
	}
	return chats, nil
}

func (s *Store) Rename(ctx context.Context, ownerID, id, title string) error {
	query := `UPDATE chats SET title = ?, updated_at = ? WHERE id = ? AND user_id = ?`
	return s.update(ctx, "rename chat", query, title, s.now().UnixNano(), id, ownerID)
}

func (s *Store) ReplaceMessages(ctx context.Context, ownerID, id string, messages []domain.Message) error {
	if messages == nil {
		messages = []domain.Message{}
	}
	raw, err := json.Marshal(messages)
	if err != nil {
		return fmt.Errorf("failed to marshal messages: %w", err)
	}

	query := `UPDATE chats SET messages = ?, updated_at = ? WHERE id = ? AND user_id = ?`
	return s.update(ctx, "update chat messages", query, string(raw), s.now().UnixNano(), id, ownerID)
}

func (s *Store) update(ctx context.Context, op, query string, args ...any) error {
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to %s: %w", op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to %s: %w", op, err)
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Delete removes a chat. Deleting a missing chat is not an error.
func (s *Store) Delete(ctx context.Context, ownerID, id string) error {
	query := `DELETE FROM chats WHERE id = ? AND user_id = ?`
	if _, err := s.db.ExecContext(ctx, query, id, ownerID); err != nil {
		return fmt.Errorf("failed to delete chat: %w", err)
	}
	return nil
}
