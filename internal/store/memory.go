package store

import (
	"context"
	"sync"
)

// MemoryStore implements Store with in-process maps. It exists for tests
// and for single-process development runs; state is lost on restart and
// is invisible to other vmflow instances.
type MemoryStore struct {
	mu     sync.RWMutex
	values map[string]string
	lists  map[string][]string
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		values: make(map[string]string),
		lists:  make(map[string][]string),
	}
}

func (s *MemoryStore) Get(ctx context.Context, key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.values[key], nil
}

func (s *MemoryStore) Set(ctx context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, key := range keys {
		delete(s.values, key)
		delete(s.lists, key)
	}
	return nil
}

func (s *MemoryStore) Append(ctx context.Context, key string, values ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lists[key] = append(s.lists[key], values...)
	return nil
}

func (s *MemoryStore) Range(ctx context.Context, key string, start, stop int64) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	list := s.lists[key]
	n := int64(len(list))
	if n == 0 {
		return nil, nil
	}

	// LRANGE semantics: negative indexes count from the tail, the range
	// is inclusive, and out-of-bounds indexes are clamped.
	if start < 0 {
		start += n
		if start < 0 {
			start = 0
		}
	}
	if stop < 0 {
		stop += n
	}
	if stop >= n {
		stop = n - 1
	}
	if start > stop || start >= n {
		return nil, nil
	}

	out := make([]string, stop-start+1)
	copy(out, list[start:stop+1])
	return out, nil
}

func (s *MemoryStore) Length(ctx context.Context, key string) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.lists[key])), nil
}

func (s *MemoryStore) Publish(ctx context.Context, channel, payload string) error {
	// No subscribers exist in-process; notifications are dropped, which
	// matches the fire-and-forget contract.
	return nil
}

func (s *MemoryStore) Close() error {
	return nil
}
