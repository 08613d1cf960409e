package storage

import (
	"context"
	"sync"

	"raffle/internal/models"
)

// MemoryStore keeps snapshots in process memory. Everything is lost on exit.
type MemoryStore struct {
	mu      sync.RWMutex
	raffles map[string]models.Raffle
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{raffles: make(map[string]models.Raffle)}
}

func (s *MemoryStore) Load(_ context.Context, tenantID string) (models.Raffle, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.raffles[tenantID]
	if !ok {
		return models.Raffle{}, ErrNotFound
	}
	return r.Clone(), nil
}

func (s *MemoryStore) Save(_ context.Context, tenantID string, raffle models.Raffle) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.raffles[tenantID] = raffle.Clone()
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, tenantID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.raffles, tenantID)
	return nil
}

func (s *MemoryStore) Close() error { return nil }
