package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const sessionKeyPrefix = "session:"

// RedisStore keeps one session per device under session:{deviceID}.
// The key TTL matches the token expiry, so Redis evicts stale sessions on its
// own; Load still checks ExpiresAt for the window between expiry and eviction.
type RedisStore struct {
	rdb *redis.Client
	now Clock
}

func NewRedisStore(rdb *redis.Client) *RedisStore {
	return &RedisStore{rdb: rdb, now: time.Now}
}

func (s *RedisStore) Save(ctx context.Context, deviceID string, sess Session) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("session: marshal: %w", err)
	}
	ttl := time.Until(sess.ExpiresAt)
	if ttl <= 0 {
		return errors.New("session: refusing to save an already-expired session")
	}
	return s.rdb.Set(ctx, sessionKeyPrefix+deviceID, data, ttl).Err()
}

func (s *RedisStore) Load(ctx context.Context, deviceID string) (*Session, error) {
	data, err := s.rdb.Get(ctx, sessionKeyPrefix+deviceID).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("session: redis: %w", err)
	}
	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil {
		// Corrupt blob — clear it rather than fail every future load
		_ = s.rdb.Del(ctx, sessionKeyPrefix+deviceID).Err()
		return nil, nil
	}
	if !sess.ExpiresAt.After(s.now()) {
		_ = s.rdb.Del(ctx, sessionKeyPrefix+deviceID).Err()
		return nil, nil
	}
	return &sess, nil
}

func (s *RedisStore) IsValid(ctx context.Context, deviceID string) bool {
	sess, err := s.Load(ctx, deviceID)
	return err == nil && sess != nil
}

func (s *RedisStore) Clear(ctx context.Context, deviceID string) error {
	return s.rdb.Del(ctx, sessionKeyPrefix+deviceID).Err()
}
