package store

import (
	"context"
	"sync"
	"time"

	"github.com/gmarkoss/tessera/internal/core"
)

var _ core.TicketStore = (*InMemoryTicketStore)(nil)

// InMemoryTicketStore indexes issued tickets by ticket id. Revocation
// of an id the store has never seen still records a tombstone so the
// revocation sticks if the token shows up later.
type InMemoryTicketStore struct {
	mu      sync.RWMutex
	tickets map[string]core.TicketMetadata
	revoked map[string]struct{}
}

func NewInMemoryTicketStore() *InMemoryTicketStore {
	return &InMemoryTicketStore{
		tickets: make(map[string]core.TicketMetadata),
		revoked: make(map[string]struct{}),
	}
}

func (s *InMemoryTicketStore) Save(_ context.Context, meta core.TicketMetadata) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, gone := s.revoked[meta.TicketID]; gone {
		meta.Revoked = true
	}
	s.tickets[meta.TicketID] = meta
	return nil
}

func (s *InMemoryTicketStore) Revoke(_ context.Context, ticketID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.revoked[ticketID] = struct{}{}
	if meta, ok := s.tickets[ticketID]; ok {
		meta.Revoked = true
		s.tickets[ticketID] = meta
	}
	return nil
}

func (s *InMemoryTicketStore) IsRevoked(_ context.Context, ticketID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, gone := s.revoked[ticketID]
	return gone, nil
}

func (s *InMemoryTicketStore) ListActive(_ context.Context) ([]core.TicketMetadata, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	active := make([]core.TicketMetadata, 0)
	now := time.Now()

	for _, meta := range s.tickets {
		if !meta.Revoked && meta.ExpiresAt.After(now) {
			active = append(active, meta)
		}
	}

	return active, nil
}

func (s *InMemoryTicketStore) DeleteExpired(_ context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	var deletedCount int64

	for id, meta := range s.tickets {
		if !meta.ExpiresAt.After(now) {
			delete(s.tickets, id)
			delete(s.revoked, id)
			deletedCount++
		}
	}

	return deletedCount, nil
}
