// Package repository selects the chat record driver named in the configuration
package repository

import (
	"context"
	"fmt"

	"github.com/Rrens/fai-advisor/internal/config"
	"github.com/Rrens/fai-advisor/internal/domain"
	"github.com/Rrens/fai-advisor/internal/repository/memory"
	"github.com/Rrens/fai-advisor/internal/repository/mongo"
	"github.com/Rrens/fai-advisor/internal/repository/postgres"
	"github.com/Rrens/fai-advisor/internal/repository/sqlstore"
	"github.com/Rrens/fai-advisor/internal/repository/supabase"
	"github.com/rs/zerolog/log"
)

// Pinger is implemented by drivers that can report readiness
type Pinger interface {
	Ping(ctx context.Context) error
}

// Store is an opened chat repository with its lifecycle hooks
type Store struct {
	Chats  domain.ChatRepository
	Pinger Pinger
	close  func() error
}

// Close releases the driver's resources
func (s *Store) Close() error {
	if s.close == nil {
		return nil
	}
	return s.close()
}

// Ping reports readiness; drivers without a connection are always ready
func (s *Store) Ping(ctx context.Context) error {
	if s.Pinger == nil {
		return nil
	}
	return s.Pinger.Ping(ctx)
}

// Open connects the configured driver. A supabase driver without
// credentials opens in unavailable mode instead of failing. A non-nil db
// is reused by the postgres driver.
func Open(ctx context.Context, cfg *config.Config, db *postgres.DB) (*Store, error) {
	switch cfg.Store.Driver {
	case "supabase", "":
		repo, err := supabase.NewChatRepository(cfg.Supabase)
		if err != nil {
			log.Warn().Msg("Supabase URL or anon key missing, chat storage is unavailable")
			return &Store{Chats: Unavailable{}}, nil
		}
		return &Store{Chats: repo}, nil

	case "postgres":
		closeFn := func() error { return nil }
		if db == nil {
			var err error
			db, err = postgres.NewDB(ctx, cfg.Database)
			if err != nil {
				return nil, err
			}
			closeFn = db.Close
		}
		return &Store{Chats: postgres.NewChatRepository(db.Pool), Pinger: db, close: closeFn}, nil

	case sqlstore.DriverSQLite, sqlstore.DriverMySQL:
		store, err := sqlstore.Open(ctx, cfg.Store.Driver, cfg.SQL.DSN, cfg.SQL.MaxOpenConns)
		if err != nil {
			return nil, err
		}
		return &Store{Chats: store, Pinger: store, close: store.Close}, nil

	case "mongo":
		repo, err := mongo.Connect(ctx, cfg.Mongo)
		if err != nil {
			return nil, err
		}
		return &Store{Chats: repo, Pinger: repo, close: repo.Close}, nil

	case "memory":
		return &Store{Chats: memory.NewChatRepository()}, nil

	default:
		return nil, fmt.Errorf("unknown store driver: %s", cfg.Store.Driver)
	}
}

// Unavailable fails every call with domain.ErrBackendUnavailable
type Unavailable struct{}

func (Unavailable) Create(context.Context, string, string, []domain.Message) (*domain.ChatSession, error) {
	return nil, domain.ErrBackendUnavailable
}

func (Unavailable) List(context.Context, string) ([]domain.ChatSession, error) {
	return nil, domain.ErrBackendUnavailable
}

func (Unavailable) Rename(context.Context, string, string, string) error {
	return domain.ErrBackendUnavailable
}

func (Unavailable) ReplaceMessages(context.Context, string, string, []domain.Message) error {
	return domain.ErrBackendUnavailable
}

func (Unavailable) Delete(context.Context, string, string) error {
	return domain.ErrBackendUnavailable
}
