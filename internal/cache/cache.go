package cache

import (
	"context"
	"encoding/json"
	"sync"
	"time"
)

// ReportCache stores derived reports as JSON under a fingerprint key.
// A miss is (false, nil).
type ReportCache interface {
	Get(ctx context.Context, key string, dest any) (bool, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
}

type NoopReportCache struct{}

func (NoopReportCache) Get(_ context.Context, _ string, _ any) (bool, error) {
	return false, nil
}

func (NoopReportCache) Set(_ context.Context, _ string, _ any, _ time.Duration) error {
	return nil
}

// MemoryReportCache is an in-process cache for single-instance deployments
// and tests.
type MemoryReportCache struct {
	mu      sync.Mutex
	now     func() time.Time
	entries map[string]memoryEntry
}

type memoryEntry struct {
	payload   []byte
	expiresAt time.Time
}

func NewMemoryReportCache() *MemoryReportCache {
	return &MemoryReportCache{
		now:     time.Now,
		entries: make(map[string]memoryEntry),
	}
}

func (c *MemoryReportCache) Get(_ context.Context, key string, dest any) (bool, error) {
	c.mu.Lock()
	entry, ok := c.entries[key]
	if ok && !entry.expiresAt.After(c.now()) {
		delete(c.entries, key)
		ok = false
	}
	c.mu.Unlock()

	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(entry.payload, dest); err != nil {
		return false, err
	}
	return true, nil
}

func (c *MemoryReportCache) Set(_ context.Context, key string, value any, ttl time.Duration) error {
	if value == nil || ttl <= 0 {
		return nil
	}
	payload, err := json.Marshal(value)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = memoryEntry{payload: payload, expiresAt: c.now().Add(ttl)}
	return nil
}
