package store

import (
	"context"
	"sync"

	"github.com/go-training/oauth2-client/pkg/client"
)

// MemoryStore implements the Store interface using an in-memory map.
// It provides thread-safe storage for session tokens.
type MemoryStore struct {
	mu     sync.RWMutex
	tokens map[string]*client.Token
}

// NewMemoryStore creates a new instance of MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		tokens: make(map[string]*client.Token),
	}
}

// SaveToken stores a session token in memory and clears its Changed flag.
// It returns an error if the token is nil or the session ID is empty.
func (m *MemoryStore) SaveToken(ctx context.Context, sessionID string, token *client.Token) error {
	if token == nil {
		return ErrNilToken
	}
	if sessionID == "" {
		return ErrEmptySessionID
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.tokens[sessionID] = token
	token.Changed = false
	return nil
}

// GetToken retrieves a session token from memory.
// It returns ErrTokenNotFound if no token is stored for the session.
func (m *MemoryStore) GetToken(ctx context.Context, sessionID string) (*client.Token, error) {
	if sessionID == "" {
		return nil, ErrEmptySessionID
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	token, exists := m.tokens[sessionID]
	if !exists {
		return nil, ErrTokenNotFound
	}

	return token, nil
}

// DeleteToken removes a session token from memory.
// It returns ErrTokenNotFound if no token is stored for the session.
func (m *MemoryStore) DeleteToken(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return ErrEmptySessionID
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.tokens[sessionID]; !exists {
		return ErrTokenNotFound
	}

	delete(m.tokens, sessionID)
	return nil
}
