// Package core carries request-scoped values through context: request IDs,
// the session identifier that keys the token store, and a context-aware
// logger.
package core

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/go-training/oauth2-client/pkg/store"
)

// RequestIDKey is a custom context key type for storing the request ID in context.
type RequestIDKey struct{}

// SessionIDKey is a custom context key type for storing the session ID in context.
type SessionIDKey struct{}

// StoreKey is a custom context key type for storing the token Store in context.
type StoreKey struct{}

// WithRequestID returns a new context with a generated request ID set.
func WithRequestID(ctx context.Context) context.Context {
	reqID := uuid.New().String()
	return context.WithValue(ctx, RequestIDKey{}, reqID)
}

// RequestIDFromContext retrieves the request ID from the context, or ""
// when none is set.
func RequestIDFromContext(ctx context.Context) string {
	reqID, _ := ctx.Value(RequestIDKey{}).(string)
	return reqID
}

// WithSessionID returns a new context with the provided session ID set.
// The session ID keys the granted token in the token store.
func WithSessionID(ctx context.Context, sessionID string) context.Context {
	return context.WithValue(ctx, SessionIDKey{}, sessionID)
}

// SessionIDFromContext retrieves the session ID from the context.
// Returns an error if missing.
func SessionIDFromContext(ctx context.Context) (string, error) {
	sessionID, ok := ctx.Value(SessionIDKey{}).(string)
	if !ok || sessionID == "" {
		return "", fmt.Errorf("missing session")
	}
	return sessionID, nil
}

// LoggerFromCtx returns a slog.Logger with request_id and session_id fields
// when present in context. If neither is set, it returns the default logger.
func LoggerFromCtx(ctx context.Context) *slog.Logger {
	logger := slog.Default()
	if reqID := RequestIDFromContext(ctx); reqID != "" {
		logger = logger.With("request_id", reqID)
	}
	if sessionID, err := SessionIDFromContext(ctx); err == nil {
		logger = logger.With("session_id", sessionID)
	}
	return logger
}

// WithStore returns a new context with the provided token Store set.
func WithStore(ctx context.Context, s store.Store) context.Context {
	return context.WithValue(ctx, StoreKey{}, s)
}

// StoreFromContext retrieves the token Store from the context.
// Returns an error if missing.
func StoreFromContext(ctx context.Context) (store.Store, error) {
	s, ok := ctx.Value(StoreKey{}).(store.Store)
	if !ok {
		return nil, fmt.Errorf("missing store")
	}
	return s, nil
}
