package cache

import (
	"context"
	"sync"
	"time"
)

// Memory is an in-process Cache with lazy TTL expiry. Reads take the
// shared lock only; expired entries are reaped on the next write path.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]*Entry
	now     func() time.Time
}

func NewMemory() *Memory {
	return &Memory{
		entries: make(map[string]*Entry),
		now:     time.Now,
	}
}

func (m *Memory) Get(_ context.Context, key string) (*Entry, error) {
	m.mu.RLock()
	e, ok := m.entries[key]
	m.mu.RUnlock()
	if !ok || e.expired(m.now()) {
		return nil, ErrMiss
	}
	return e, nil
}

func (m *Memory) Set(_ context.Context, key string, payload []byte, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	e := &Entry{
		Key:        key,
		Payload:    payload,
		CreatedAt:  m.now(),
		TTLSeconds: int(ttl / time.Second),
	}
	m.mu.Lock()
	m.reapLocked()
	m.entries[key] = e
	m.mu.Unlock()
	return nil
}

func (m *Memory) Invalidate(_ context.Context, key string) error {
	m.mu.Lock()
	delete(m.entries, key)
	m.mu.Unlock()
	return nil
}

func (m *Memory) reapLocked() {
	now := m.now()
	for k, e := range m.entries {
		if e.expired(now) {
			delete(m.entries, k)
		}
	}
}
