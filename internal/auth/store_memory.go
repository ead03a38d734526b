package auth

import (
	"context"
	"sync"
)

// NewInMemorySessionStore returns a SessionStore backed by an in-memory map.
func NewInMemorySessionStore() *InMemorySessionStore {
	return &InMemorySessionStore{tokens: make(map[string]string)}
}

// InMemorySessionStore implements SessionStore for tests and local development.
type InMemorySessionStore struct {
	mu     sync.RWMutex
	tokens map[string]string
}

// Save replaces the refresh token stored for a user.
func (s *InMemorySessionStore) Save(_ context.Context, userID, refreshToken string) error {
	s.mu.Lock()
	s.tokens[userID] = refreshToken
	s.mu.Unlock()
	return nil
}

// Find retrieves the refresh token stored for a user.
func (s *InMemorySessionStore) Find(_ context.Context, userID string) (string, error) {
	s.mu.RLock()
	token, ok := s.tokens[userID]
	s.mu.RUnlock()
	if !ok {
		return "", ErrSessionNotFound
	}
	return token, nil
}

// Rotate swaps the stored token for next if it still equals current.
func (s *InMemorySessionStore) Rotate(_ context.Context, userID, current, next string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.tokens[userID]
	if !ok || stored != current {
		return ErrRefreshTokenReused
	}
	s.tokens[userID] = next
	return nil
}

// Delete removes the refresh token stored for a user.
func (s *InMemorySessionStore) Delete(_ context.Context, userID string) error {
	s.mu.Lock()
	delete(s.tokens, userID)
	s.mu.Unlock()
	return nil
}

// Has reports whether a user has a stored refresh token. Useful for tests.
func (s *InMemorySessionStore) Has(userID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.tokens[userID]
	return ok
}
