package cache

import (
	"context"
	"sync"
	"time"
)

const defaultMaxEntries = 1024

// Memory is the single-process Store used when Redis is not configured.
type Memory struct {
	ttl        time.Duration
	maxEntries int
	now        func() time.Time

	mu      sync.Mutex
	entries map[string]memEntry
}

type memEntry struct {
	val     []byte
	expires time.Time
}

func NewMemory(ttl time.Duration) *Memory {
	if ttl <= 0 {
		ttl = 5 * time.Second
	}
	return &Memory{
		ttl:        ttl,
		maxEntries: defaultMaxEntries,
		now:        time.Now,
		entries:    make(map[string]memEntry),
	}
}

func (m *Memory) Get(_ context.Context, key string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[key]
	if !ok {
		return nil, false
	}
	if !m.now().Before(e.expires) {
		delete(m.entries, key)
		return nil, false
	}
	return e.val, true
}

// Set stores a copy of val. When the map is full, expired entries are swept
// first and, failing that, the entry closest to expiry is dropped.
func (m *Memory) Set(_ context.Context, key string, val []byte) {
	now := m.now()

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.entries[key]; !exists && len(m.entries) >= m.maxEntries {
		m.makeRoom(now)
	}
	m.entries[key] = memEntry{val: append([]byte(nil), val...), expires: now.Add(m.ttl)}
}

func (m *Memory) makeRoom(now time.Time) {
	var (
		oldestKey string
		oldestExp time.Time
	)
	for k, e := range m.entries {
		if !now.Before(e.expires) {
			delete(m.entries, k)
			continue
		}
		if oldestKey == "" || e.expires.Before(oldestExp) {
			oldestKey, oldestExp = k, e.expires
		}
	}
	if len(m.entries) >= m.maxEntries && oldestKey != "" {
		delete(m.entries, oldestKey)
	}
}

func (m *Memory) Delete(_ context.Context, keys ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, k := range keys {
		delete(m.entries, k)
	}
}

func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}
