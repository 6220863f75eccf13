// Package store persists granted session tokens: an explicit, caller-owned
// mapping from session identifier to token, created at grant and removed at
// logout. Backends exist for in-memory and Redis storage behind a common
// factory.
package store

import (
	"context"
	"errors"

	"github.com/go-training/oauth2-client/pkg/client"
)

var (
	// ErrTokenNotFound is returned when no token is stored for a session.
	ErrTokenNotFound = errors.New("session token not found")
	// ErrNilToken is returned when attempting to save a nil token.
	ErrNilToken = errors.New("token cannot be nil")
	// ErrEmptySessionID is returned when the session ID string is empty.
	ErrEmptySessionID = errors.New("session ID cannot be empty")
)

// Store is the interface for storing and retrieving session tokens.
//
// SaveToken clears the token's Changed flag after a successful write; the
// client package only ever sets it.
type Store interface {
	SaveToken(ctx context.Context, sessionID string, token *client.Token) error
	GetToken(ctx context.Context, sessionID string) (*client.Token, error)
	DeleteToken(ctx context.Context, sessionID string) error
}
