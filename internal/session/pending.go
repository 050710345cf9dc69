package session

import (
	"context"
	"sync"
	"time"

	"shipment-bot/internal/shipment"
)

// Pending is a parsed bulk batch waiting for the user's confirm or cancel.
type Pending struct {
	Records   []shipment.Record `json:"records"`
	Errors    []string          `json:"errors"`
	CreatedAt time.Time         `json:"created_at"`
}

// PendingStore holds at most one pending batch per chat.
type PendingStore interface {
	// Put stores p for key, replacing any previous batch.
	Put(ctx context.Context, key string, p Pending) error
	// Take removes and returns the batch; nil when there is none.
	Take(ctx context.Context, key string) (*Pending, error)
	// Discard drops the batch, reporting whether one existed.
	Discard(ctx context.Context, key string) (bool, error)
}

// MemoryPending is the in-process PendingStore.
type MemoryPending struct {
	mu sync.Mutex
	m  map[string]Pending
}

// NewMemoryPending creates an empty in-memory pending store.
func NewMemoryPending() *MemoryPending {
	return &MemoryPending{m: make(map[string]Pending)}
}

func (s *MemoryPending) Put(_ context.Context, key string, p Pending) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[key] = p
	return nil
}

func (s *MemoryPending) Take(_ context.Context, key string) (*Pending, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.m[key]
	if !ok {
		return nil, nil
	}
	delete(s.m, key)
	return &p, nil
}

func (s *MemoryPending) Discard(_ context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.m[key]
	delete(s.m, key)
	return ok, nil
}
