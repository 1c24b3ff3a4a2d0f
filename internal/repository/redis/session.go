package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Rrens/fai-advisor/internal/security"
	"github.com/Rrens/fai-advisor/internal/websession"
	"github.com/redis/go-redis/v9"
)

const sessionPrefix = "fai:session:"

// SessionStore implements websession.Store. Tokens are sealed before
// they are written when a sealer is configured.
type SessionStore struct {
	client *Client
	ttl    time.Duration
	sealer *security.Sealer
}

// NewSessionStore creates a session store; a nil sealer stores plain JSON
func NewSessionStore(client *Client, ttl time.Duration, sealer *security.Sealer) *SessionStore {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &SessionStore{client: client, ttl: ttl, sealer: sealer}
}

func (s *SessionStore) Get(ctx context.Context, id string) (*websession.Session, error) {
	key := sessionPrefix + id
	val, err := s.client.rdb.Get(ctx, key).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	var sess websession.Session
	if s.sealer != nil {
		err = s.sealer.OpenJSON(val, &sess)
	} else {
		err = json.Unmarshal([]byte(val), &sess)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to decode session: %w", err)
	}

	// Refresh TTL on read
	_ = s.client.rdb.Expire(ctx, key, s.ttl).Err()

	return &sess, nil
}

func (s *SessionStore) Save(ctx context.Context, sess *websession.Session) error {
	var (
		val string
		err error
	)
	if s.sealer != nil {
		val, err = s.sealer.SealJSON(sess)
	} else {
		var raw []byte
		raw, err = json.Marshal(sess)
		val = string(raw)
	}
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}

	return s.client.rdb.Set(ctx, sessionPrefix+sess.ID, val, s.ttl).Err()
}

func (s *SessionStore) Delete(ctx context.Context, id string) error {
	return s.client.rdb.Del(ctx, sessionPrefix+id).Err()
}
