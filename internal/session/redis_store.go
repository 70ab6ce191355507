package session

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/techcorp/gatehouse/internal/models"
)

const sessionKeyPrefix = "session:"

// RedisStore persists sessions in Redis so multiple API instances see the
// same session state. Records expire on their own via key TTL.
type RedisStore struct {
	rdb *redis.Client
}

// NewRedisStore creates a Redis-backed session store.
func NewRedisStore(rdb *redis.Client) *RedisStore {
	return &RedisStore{rdb: rdb}
}

func sessionKey(id string) string {
	return sessionKeyPrefix + id
}

func (s *RedisStore) Get(ctx context.Context, id string) (*models.Session, error) {
	data, err := s.rdb.Get(ctx, sessionKey(id)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("session get failed: %w", err)
	}

	var sess models.Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, fmt.Errorf("session decode failed: %w", err)
	}
	return &sess, nil
}

func (s *RedisStore) Put(ctx context.Context, sess *models.Session, ttl time.Duration) error {
	payload, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("session encode failed: %w", err)
	}
	if err := s.rdb.Set(ctx, sessionKey(sess.ID), payload, ttl).Err(); err != nil {
		return fmt.Errorf("session put failed: %w", err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, id string) error {
	if err := s.rdb.Del(ctx, sessionKey(id)).Err(); err != nil {
		return fmt.Errorf("session delete failed: %w", err)
	}
	return nil
}

func (s *RedisStore) Rename(ctx context.Context, oldID string, sess *models.Session, ttl time.Duration) error {
	payload, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("session encode failed: %w", err)
	}

	pipe := s.rdb.TxPipeline()
	pipe.Del(ctx, sessionKey(oldID))
	pipe.Set(ctx, sessionKey(sess.ID), payload, ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("session rename failed: %w", err)
	}
	return nil
}
