package store

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"smartpro-bot/internal/lang"
	"smartpro-bot/internal/types"
)

var (
	ErrInvalidKind   = errors.New("store: unknown session store kind")
	ErrInvalidConfig = errors.New("store: invalid session store configuration")
)

// Kind selects a session store backend.
type Kind string

const (
	KindMemory Kind = "memory"
	KindRedis  Kind = "redis"
)

// CacheKey names a short-lived per-chat cache entry.
type CacheKey string

const (
	KeyAnswer     CacheKey = "answer"
	KeyTranscript CacheKey = "transcript"
	KeyAudio      CacheKey = "audio"
	// KeyEchoGuard holds the normalized transcript of a voice note that was
	// just answered, so an identical text resent by the client is not
	// answered twice.
	KeyEchoGuard CacheKey = "echo_guard"
)

// Session is the transient per-chat state.
type Session struct {
	ChatID       int64       `json:"chat_id"`
	Depth        types.Depth `json:"depth"`
	VoiceReplies bool        `json:"voice_replies"`
	Lang         lang.State  `json:"lang"`
	// UILang is an explicit interface language; empty follows Lang.
	UILang    string    `json:"ui_lang,omitempty"`
	UpdatedAt    time.Time   `json:"updated_at"`
}

// NewSession returns a session with the default preferences.
func NewSession(chatID int64) *Session {
	return &Session{ChatID: chatID, Depth: types.DepthDeep}
}

// InterfaceLang is the language of buttons and notices.
func (s *Session) InterfaceLang() string {
	if lang.Supported(s.UILang) {
		return s.UILang
	}
	return s.Lang.Current()
}

func (s *Session) clone() *Session {
	c := *s
	c.Lang.History = append([]string(nil), s.Lang.History...)
	return &c
}

// Store keeps sessions and their TTL caches. Writes are last-write-wins.
type Store interface {
	// Get returns the session for chatID, creating one with defaults when absent.
	Get(ctx context.Context, chatID int64) (*Session, error)
	Save(ctx context.Context, s *Session) error
	// Put caches value under key until ttl elapses.
	Put(ctx context.Context, chatID int64, key CacheKey, value []byte, ttl time.Duration) error
	// Lookup reports ok=false for missing and expired entries.
	Lookup(ctx context.Context, chatID int64, key CacheKey) ([]byte, bool, error)
	Evict(ctx context.Context, chatID int64, key CacheKey) error
	Close() error
}

// Option configures NewStore.
type Option func(*options)

type options struct {
	redisClient *redis.Client
	sessionTTL  time.Duration
	now         func() time.Time
}

// WithRedisClient sets the client used by the redis backend.
func WithRedisClient(c *redis.Client) Option {
	return func(o *options) { o.redisClient = c }
}

// WithSessionTTL bounds how long an idle session document lives in redis.
func WithSessionTTL(ttl time.Duration) Option {
	return func(o *options) { o.sessionTTL = ttl }
}

// WithClock overrides time.Now for the memory backend.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// NewStore builds the backend named by kind.
func NewStore(kind Kind, opts ...Option) (Store, error) {
	o := &options{now: time.Now}
	for _, opt := range opts {
		opt(o)
	}
	switch kind {
	case KindMemory, "":
		return newMemoryStore(o.now), nil
	case KindRedis:
		if o.redisClient == nil {
			return nil, ErrInvalidConfig
		}
		return NewRedisStore(o.redisClient, o.sessionTTL), nil
	default:
		return nil, ErrInvalidKind
	}
}
