package store

import (
	"context"
	"sync"
	"time"
)

type cacheID struct {
	chatID int64
	key    CacheKey
}

type cacheEntry struct {
	value     []byte
	expiresAt time.Time
}

// MemoryStore is a process-local Store. Nothing survives a restart.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[int64]*Session
	cache    map[cacheID]cacheEntry
	now      func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return newMemoryStore(time.Now)
}

func newMemoryStore(now func() time.Time) *MemoryStore {
	return &MemoryStore{
		sessions: make(map[int64]*Session),
		cache:    make(map[cacheID]cacheEntry),
		now:      now,
	}
}

func (m *MemoryStore) Get(_ context.Context, chatID int64) (*Session, error) {
	m.mu.RLock()
	s, ok := m.sessions[chatID]
	m.mu.RUnlock()
	if ok {
		return s.clone(), nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[chatID]; ok {
		return s.clone(), nil
	}
	s = NewSession(chatID)
	s.UpdatedAt = m.now()
	m.sessions[chatID] = s
	return s.clone(), nil
}

func (m *MemoryStore) Save(_ context.Context, s *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := s.clone()
	c.UpdatedAt = m.now()
	m.sessions[s.ChatID] = c
	return nil
}

func (m *MemoryStore) Put(_ context.Context, chatID int64, key CacheKey, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cache[cacheID{chatID, key}] = cacheEntry{
		value:     append([]byte(nil), value...),
		expiresAt: m.now().Add(ttl),
	}
	return nil
}

// Lookup evicts the entry when it has expired.
func (m *MemoryStore) Lookup(_ context.Context, chatID int64, key CacheKey) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := cacheID{chatID, key}
	e, ok := m.cache[id]
	if !ok {
		return nil, false, nil
	}
	if !m.now().Before(e.expiresAt) {
		delete(m.cache, id)
		return nil, false, nil
	}
	return append([]byte(nil), e.value...), true, nil
}

func (m *MemoryStore) Evict(_ context.Context, chatID int64, key CacheKey) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.cache, cacheID{chatID, key})
	return nil
}

func (m *MemoryStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions = make(map[int64]*Session)
	m.cache = make(map[cacheID]cacheEntry)
	return nil
}
