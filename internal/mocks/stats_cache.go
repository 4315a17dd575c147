package mocks

import (
	"context"
	"sync"

	"github.com/stickyasks/stickyasks-api/internal/domain"
	"github.com/stickyasks/stickyasks-api/internal/platform/cache"
	"github.com/stickyasks/stickyasks-api/internal/store"
)

// MockStatsCache implements cache.StatsCache for testing
type MockStatsCache struct {
	// Function fields for customizable behavior
	GetFn        func(ctx context.Context, email string) (*store.AssigneeStats, error)
	SetFn        func(ctx context.Context, email string, stats *store.AssigneeStats) error
	InvalidateFn func(ctx context.Context, email string) error

	// Data for default implementation, keyed by normalized email
	mu      sync.Mutex
	Entries map[string]*store.AssigneeStats

	// Invalidated records the emails passed to Invalidate
	Invalidated []string
}

// Ensure MockStatsCache implements cache.StatsCache
var _ cache.StatsCache = (*MockStatsCache)(nil)

// NewMockStatsCache creates a new mock cache with initialized defaults
func NewMockStatsCache() *MockStatsCache {
	return &MockStatsCache{
		Entries: make(map[string]*store.AssigneeStats),
	}
}

// Get implements the StatsCache interface
func (m *MockStatsCache) Get(ctx context.Context, email string) (*store.AssigneeStats, error) {
	if m.GetFn != nil {
		return m.GetFn(ctx, email)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Entries[domain.NormalizeEmail(email)], nil
}

// Set implements the StatsCache interface
func (m *MockStatsCache) Set(ctx context.Context, email string, stats *store.AssigneeStats) error {
	if m.SetFn != nil {
		return m.SetFn(ctx, email, stats)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.Entries[domain.NormalizeEmail(email)] = stats
	return nil
}

// Invalidate implements the StatsCache interface
func (m *MockStatsCache) Invalidate(ctx context.Context, email string) error {
	if m.InvalidateFn != nil {
		return m.InvalidateFn(ctx, email)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	key := domain.NormalizeEmail(email)
	delete(m.Entries, key)
	m.Invalidated = append(m.Invalidated, key)
	return nil
}

// InvalidatedEmails returns a copy of the recorded invalidations.
func (m *MockStatsCache) InvalidatedEmails() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.Invalidated...)
}
