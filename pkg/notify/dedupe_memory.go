package notify

import (
	"context"
	"sync"
	"time"
)

// MemoryDeduper is an in-process Deduper for tests and single-node
// development.
type MemoryDeduper struct {
	mu   sync.Mutex
	seen map[string]time.Time
}

func NewMemoryDeduper() *MemoryDeduper {
	return &MemoryDeduper{seen: make(map[string]time.Time)}
}

func (d *MemoryDeduper) MarkOnce(_ context.Context, key string, ttl time.Duration) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	now := time.Now()

	if expiry, ok := d.seen[key]; ok && now.Before(expiry) {
		return false, nil
	}

	d.seen[key] = now.Add(ttl)

	return true, nil
}

func (d *MemoryDeduper) Close() error {
	return nil
}
