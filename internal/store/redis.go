package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	keyPrefix         = "smartpro:"
	defaultSessionTTL = 30 * 24 * time.Hour
)

// RedisStore keeps sessions as JSON documents with a sliding TTL and cache
// entries as plain keys that expire natively.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisStore(client *redis.Client, sessionTTL time.Duration) *RedisStore {
	if sessionTTL <= 0 {
		sessionTTL = defaultSessionTTL
	}
	return &RedisStore{client: client, ttl: sessionTTL}
}

func sessionKey(chatID int64) string {
	return keyPrefix + "session:" + strconv.FormatInt(chatID, 10)
}

func cacheKey(chatID int64, key CacheKey) string {
	return keyPrefix + "cache:" + strconv.FormatInt(chatID, 10) + ":" + string(key)
}

func (r *RedisStore) Get(ctx context.Context, chatID int64) (*Session, error) {
	key := sessionKey(chatID)
	val, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		s := NewSession(chatID)
		if err := r.Save(ctx, s); err != nil {
			return nil, err
		}
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get session %d: %w", chatID, err)
	}
	s, err := decodeSession(val)
	if err != nil {
		return nil, fmt.Errorf("decode session %d: %w", chatID, err)
	}
	// A failed refresh only shortens the session's life.
	_ = r.client.Expire(ctx, key, r.ttl).Err()
	return s, nil
}

func (r *RedisStore) Save(ctx context.Context, s *Session) error {
	s.UpdatedAt = time.Now()
	b, err := json.Marshal(s)
	if err != nil {
		return err
	}
	if err := r.client.Set(ctx, sessionKey(s.ChatID), b, r.ttl).Err(); err != nil {
		return fmt.Errorf("save session %d: %w", s.ChatID, err)
	}
	return nil
}

func (r *RedisStore) Put(ctx context.Context, chatID int64, key CacheKey, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		return r.Evict(ctx, chatID, key)
	}
	return r.client.Set(ctx, cacheKey(chatID, key), value, ttl).Err()
}

func (r *RedisStore) Lookup(ctx context.Context, chatID int64, key CacheKey) ([]byte, bool, error) {
	val, err := r.client.Get(ctx, cacheKey(chatID, key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return val, true, nil
}

func (r *RedisStore) Evict(ctx context.Context, chatID int64, key CacheKey) error {
	return r.client.Del(ctx, cacheKey(chatID, key)).Err()
}

func (r *RedisStore) Close() error {
	return r.client.Close()
}

func decodeSession(b []byte) (*Session, error) {
	var s Session
	if err := json.Unmarshal(b, &s); err != nil {
		return nil, err
	}
	if s.Depth == "" {
		s.Depth = NewSession(s.ChatID).Depth
	}
	return &s, nil
}

// HealthCheck pings the redis server.
func (r *RedisStore) HealthCheck(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}
