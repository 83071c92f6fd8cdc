package session

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

const cleanupInterval = time.Minute

// MemoryStore keeps sessions in process memory. Sessions are lost on restart.
type MemoryStore struct {
	c *gocache.Cache
}

// NewMemoryStore creates a store whose entries expire after defaultTTL unless
// Create is given an explicit ttl.
func NewMemoryStore(defaultTTL time.Duration) *MemoryStore {
	return &MemoryStore{c: gocache.New(defaultTTL, cleanupInterval)}
}

func (m *MemoryStore) Create(_ context.Context, s *Session, ttl time.Duration) error {
	// stored by value so callers can't mutate a live record
	if err := m.c.Add(s.ID, *s, ttl); err != nil {
		return ErrExists
	}
	return nil
}

func (m *MemoryStore) Get(_ context.Context, id string) (*Session, error) {
	v, ok := m.c.Get(id)
	if !ok {
		return nil, ErrNotFound
	}
	s, ok := v.(Session)
	if !ok {
		return nil, ErrNotFound
	}
	return &s, nil
}

func (m *MemoryStore) Delete(_ context.Context, id string) error {
	m.c.Delete(id)
	return nil
}

// Len reports the number of stored sessions, including expired ones not yet evicted
func (m *MemoryStore) Len() int {
	return m.c.ItemCount()
}

func (m *MemoryStore) Close() error {
	m.c.Flush()
	return nil
}
