package session

import (
	"context"
	"sync"
	"time"
)

// MemoryStore keeps encoded records in process memory. Records stay until
// deleted; expiry is judged by the caller from [Record.ExpiresAt].
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string][]byte
}

// NewMemoryStore returns an empty [MemoryStore].
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string][]byte)}
}

// Save encodes rec under key. ttl is ignored.
func (s *MemoryStore) Save(_ context.Context, key string, rec *Record, _ time.Duration) error {
	if key == "" {
		return ErrInvalidKey
	}

	data, err := Encode(rec)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.entries[key] = data
	s.mu.Unlock()
	return nil
}

// Load decodes the record under key, expired or not. A missing key is [ErrNotFound].
func (s *MemoryStore) Load(_ context.Context, key string) (*Record, error) {
	if key == "" {
		return nil, ErrInvalidKey
	}

	s.mu.Lock()
	data, ok := s.entries[key]
	s.mu.Unlock()

	if !ok {
		return nil, ErrNotFound
	}
	return Decode(data)
}

// Delete removes key. Deleting a missing key is not an error.
func (s *MemoryStore) Delete(_ context.Context, key string) error {
	if key == "" {
		return ErrInvalidKey
	}

	s.mu.Lock()
	delete(s.entries, key)
	s.mu.Unlock()
	return nil
}

// Len returns the number of stored entries, expired ones included.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}
