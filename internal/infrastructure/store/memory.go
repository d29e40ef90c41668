package store

import (
	"context"
	"sync"

	"github.com/pricepilot/backend/internal/domain"
)

// MemoryStore is a thread-safe in-memory decision store. It backs tests and
// the development default where no database is configured.
type MemoryStore struct {
	mu        sync.RWMutex
	decisions map[string][]domain.MatchDecision
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{decisions: make(map[string][]domain.MatchDecision)}
}

// SaveDecision appends a decision to the session's sequence.
func (s *MemoryStore) SaveDecision(ctx context.Context, sessionID string, decision domain.MatchDecision) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.decisions[sessionID] = append(s.decisions[sessionID], decision)
	return nil
}

// ProcessedCount returns the number of decisions stored for the session.
func (s *MemoryStore) ProcessedCount(ctx context.Context, sessionID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.decisions[sessionID]), nil
}

// Decisions returns the session's stored decisions in insertion order.
func (s *MemoryStore) Decisions(ctx context.Context, sessionID string) ([]domain.MatchDecision, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	stored, ok := s.decisions[sessionID]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	out := make([]domain.MatchDecision, len(stored))
	copy(out, stored)
	return out, nil
}

// Clear removes all sessions.
func (s *MemoryStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.decisions = make(map[string][]domain.MatchDecision)
}
