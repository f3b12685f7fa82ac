package mocks

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/phrazzld/task-api/internal/platform/cache"
)

// MockCache implements cache.Cache in memory. TTLs are recorded but never
// expire entries. Setting Err makes every operation fail with it.
type MockCache struct {
	Entries map[string][]byte
	TTLs    map[string]time.Duration
	Err     error

	GetCalls    int
	SetCalls    int
	DeleteCalls int
	Patterns    []string

	// Counters backs IncrWindow.
	Counters map[string]int64

	// OnGet runs at the start of every Get, before the lock is taken.
	OnGet func(key string)

	mu sync.Mutex
}

var _ cache.Cache = (*MockCache)(nil)

// NewMockCache returns an empty cache.
func NewMockCache() *MockCache {
	return &MockCache{
		Entries:  make(map[string][]byte),
		TTLs:     make(map[string]time.Duration),
		Counters: make(map[string]int64),
	}
}

// Get implements cache.Cache.
func (m *MockCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if m.OnGet != nil {
		m.OnGet(key)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	m.GetCalls++
	if m.Err != nil {
		return nil, false, m.Err
	}
	v, ok := m.Entries[key]
	return v, ok, nil
}

// Set implements cache.Cache.
func (m *MockCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.SetCalls++
	if m.Err != nil {
		return m.Err
	}
	m.Entries[key] = value
	m.TTLs[key] = ttl
	return nil
}

// DeleteMatching implements cache.Cache. Only a trailing '*' is treated as
// a wildcard; any other pattern deletes the exact key.
func (m *MockCache) DeleteMatching(ctx context.Context, pattern string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.DeleteCalls++
	m.Patterns = append(m.Patterns, pattern)
	if m.Err != nil {
		return m.Err
	}

	prefix, wildcard := strings.CutSuffix(pattern, "*")
	for key := range m.Entries {
		if (wildcard && strings.HasPrefix(key, prefix)) || key == pattern {
			delete(m.Entries, key)
			delete(m.TTLs, key)
		}
	}
	return nil
}

// IncrWindow counts hits per key like cache.RedisCache.IncrWindow. The
// window is ignored; counters never reset.
func (m *MockCache) IncrWindow(ctx context.Context, key string, window time.Duration) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.Err != nil {
		return 0, m.Err
	}
	m.Counters[key]++
	return m.Counters[key], nil
}

// Ping implements cache.Cache.
func (m *MockCache) Ping(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Err
}

// Close implements cache.Cache.
func (m *MockCache) Close() error {
	return nil
}

// SetErr changes the error returned by every operation.
func (m *MockCache) SetErr(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Err = err
}

// Len returns the number of stored entries.
func (m *MockCache) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Entries)
}
