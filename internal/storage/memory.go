package storage

import (
	"context"
	"strings"
	"sync"
	"time"
)

type memoryEntry struct {
	value     string
	expiresAt time.Time
}

// MemoryStorage keeps records in process. Data is lost on restart.
type MemoryStorage struct {
	mu   sync.RWMutex
	data map[string]memoryEntry
	now  func() time.Time
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		data: make(map[string]memoryEntry),
		now:  time.Now,
	}
}

func (s *MemoryStorage) Get(_ context.Context, key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.data[key]
	if !ok {
		return "", ErrNotFound
	}
	if !entry.expiresAt.IsZero() && !s.now().Before(entry.expiresAt) {
		return "", ErrNotFound
	}
	return entry.value, nil
}

func (s *MemoryStorage) Put(_ context.Context, key, value string, opts ...PutOption) error {
	o := applyPutOptions(opts)

	s.mu.Lock()
	defer s.mu.Unlock()

	entry := memoryEntry{value: value}
	if o.ttl > 0 {
		entry.expiresAt = s.now().Add(o.ttl)
	}
	s.data[key] = entry
	return nil
}

// Keys returns every live key with the given prefix.
func (s *MemoryStorage) Keys(prefix string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	now := s.now()
	var out []string
	for k, e := range s.data {
		if !strings.HasPrefix(k, prefix) {
			continue
		}
		if !e.expiresAt.IsZero() && !now.Before(e.expiresAt) {
			continue
		}
		out = append(out, k)
	}
	return out
}

func (s *MemoryStorage) Close() error {
	// Nothing to close for in-memory storage
	return nil
}
