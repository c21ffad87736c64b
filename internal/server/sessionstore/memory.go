package sessionstore

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	value   Serialized
	expires time.Time
}

// MemoryBackend keeps records in a map guarded by a RWMutex. Expired
// entries are removed lazily on Load and by Sweep.
type MemoryBackend struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	now     func() time.Time
}

func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{entries: make(map[string]memoryEntry), now: time.Now}
}

func (b *MemoryBackend) Load(ctx context.Context, id string) (*Serialized, error) {
	b.mu.RLock()
	e, ok := b.entries[id]
	b.mu.RUnlock()

	if !ok {
		return nil, nil
	}
	if !e.expires.IsZero() && !b.now().Before(e.expires) {
		b.mu.Lock()
		delete(b.entries, id)
		b.mu.Unlock()
		return nil, nil
	}
	v := e.value
	return &v, nil
}

func (b *MemoryBackend) Save(ctx context.Context, id string, s *Serialized, ttl time.Duration) error {
	e := memoryEntry{value: *s}
	if ttl > 0 {
		e.expires = b.now().Add(ttl)
	}

	b.mu.Lock()
	b.entries[id] = e
	b.mu.Unlock()
	return nil
}

func (b *MemoryBackend) Delete(ctx context.Context, id string) error {
	b.mu.Lock()
	delete(b.entries, id)
	b.mu.Unlock()
	return nil
}

// Sweep drops expired entries and returns how many were removed.
func (b *MemoryBackend) Sweep() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := b.now()
	n := 0
	for id, e := range b.entries {
		if !e.expires.IsZero() && !now.Before(e.expires) {
			delete(b.entries, id)
			n++
		}
	}
	return n
}

// Len is the number of stored entries, expired or not.
func (b *MemoryBackend) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.entries)
}

func (b *MemoryBackend) Close() error { return nil }
