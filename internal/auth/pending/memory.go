package pending

import (
	"context"
	"sync"
	"time"

	"github.com/aussiebroadwan/cvision/internal/auth/domain"
)

type memoryEntry struct {
	reg       domain.PendingRegistration
	expiresAt time.Time
}

// MemoryCache is a process-local Cache for single instance deployments and
// tests. Expired entries are invisible to Get straight away; Sweep reclaims
// their memory.
type MemoryCache struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time
}

var _ Cache = (*MemoryCache)(nil)

// NewMemoryCache creates an empty cache. A nil now uses time.Now.
func NewMemoryCache(now func() time.Time) *MemoryCache {
	if now == nil {
		now = time.Now
	}
	return &MemoryCache{
		entries: make(map[string]memoryEntry),
		now:     now,
	}
}

func (c *MemoryCache) Set(_ context.Context, email string, reg domain.PendingRegistration, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[email] = memoryEntry{reg: reg, expiresAt: c.now().Add(ttl)}
	return nil
}

func (c *MemoryCache) Get(_ context.Context, email string) (domain.PendingRegistration, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[email]
	if !ok {
		return domain.PendingRegistration{}, ErrNotFound
	}
	if !c.now().Before(e.expiresAt) {
		delete(c.entries, email)
		return domain.PendingRegistration{}, ErrNotFound
	}
	return e.reg, nil
}

func (c *MemoryCache) Delete(_ context.Context, email string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.entries, email)
	return nil
}

func (c *MemoryCache) Ping(context.Context) error { return nil }

// Sweep drops every expired entry and returns how many were removed.
func (c *MemoryCache) Sweep(_ context.Context) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	removed := 0
	for email, e := range c.entries {
		if !now.Before(e.expiresAt) {
			delete(c.entries, email)
			removed++
		}
	}
	return removed, nil
}

// Len returns the number of stored entries, expired ones included.
func (c *MemoryCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
