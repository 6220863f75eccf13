package main

import (
	"sync"

	"github.com/go-training/oauth2-client/pkg/client"
)

// sessionRegistry tracks the live token of each session. Tokens must keep
// their identity across requests so that concurrent refreshes of one
// session serialize on the same token; the durable store only backs them.
// The reverse index lets the profile's auto-save hook find the session a
// freshly refreshed token belongs to.
type sessionRegistry struct {
	mu       sync.RWMutex
	tokens   map[string]*client.Token
	sessions map[*client.Token]string
}

func newSessionRegistry() *sessionRegistry {
	return &sessionRegistry{
		tokens:   make(map[string]*client.Token),
		sessions: make(map[*client.Token]string),
	}
}

func (r *sessionRegistry) add(sessionID string, token *client.Token) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if old, ok := r.tokens[sessionID]; ok {
		delete(r.sessions, old)
	}
	r.tokens[sessionID] = token
	r.sessions[token] = sessionID
}

func (r *sessionRegistry) get(sessionID string) (*client.Token, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	token, ok := r.tokens[sessionID]
	return token, ok
}

func (r *sessionRegistry) remove(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if token, ok := r.tokens[sessionID]; ok {
		delete(r.sessions, token)
		delete(r.tokens, sessionID)
	}
}

// sessionOf returns the session a live token belongs to, if any.
func (r *sessionRegistry) sessionOf(token *client.Token) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	sessionID, ok := r.sessions[token]
	return sessionID, ok
}
