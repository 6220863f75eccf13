package client

import (
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/oauth2"
)

// Token is the live credential material of one granted session. It is
// mutable: RefreshToken exchanges replace AccessToken and ExpiresAt in
// place, and may rotate RefreshToken when the server issues a new one.
//
// A Token is logically owned by one session. Concurrent refreshes of the
// same Token are serialized internally; see Client.RefreshToken.
type Token struct {
	// AccessToken is the opaque credential presented to the protected
	// resource.
	AccessToken string `json:"access_token"`

	// RefreshToken, when present, lets the token renew itself without
	// re-involving the resource owner.
	RefreshToken string `json:"refresh_token,omitempty"`

	// TokenType is the token_type reported by the server, if any.
	TokenType string `json:"token_type,omitempty"`

	// Scope is the scope reported by the server, if any.
	Scope string `json:"scope,omitempty"`

	// ExpiresAt is the absolute expiry derived from the server's
	// expires_in. The zero value means the expiry is unknown; such tokens
	// are never considered auto-expired and are refreshed only on demand.
	ExpiresAt time.Time `json:"expires_at,omitzero"`

	// Changed is set whenever the token is newly granted or refreshed.
	// It is cleared by the persistence layer after a successful save,
	// never by this package.
	Changed bool `json:"-"`

	// SchemeOverride, when non-nil, wins over the owning profile's
	// TokenScheme when the token is attached to a request.
	SchemeOverride *Scheme `json:"-"`

	// mu guards the material fields above against readers racing a
	// refresh in flight. Exported-field access stays lock-free for the
	// single-goroutine callers the store and JSON layers are; the methods
	// below are what concurrent request paths go through.
	mu sync.RWMutex

	// refreshMu serializes refresh exchanges: at most one is in flight
	// per token. generation counts successful grants so that a caller who
	// waited out another caller's refresh can detect it and reuse the
	// result instead of issuing a competing request.
	refreshMu  sync.Mutex
	generation atomic.Uint64
}

// IsExpired reports whether the token is past its known expiry at the given
// instant. Tokens with an unknown expiry are never auto-expired.
func (t *Token) IsExpired(now time.Time) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.isExpiredLocked(now)
}

func (t *Token) isExpiredLocked(now time.Time) bool {
	if t.ExpiresAt.IsZero() {
		return false
	}
	return !now.Before(t.ExpiresAt)
}

// Valid reports whether the token carries an access token that has not
// expired yet.
func (t *Token) Valid() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.AccessToken != "" && !t.isExpiredLocked(time.Now())
}

// CanRefresh reports whether the token carries a refresh token. Tokens
// without one cannot self-refresh; the caller must restart the
// authorization-code flow.
func (t *Token) CanRefresh() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.RefreshToken != ""
}

// OAuth2Token converts the token for use with golang.org/x/oauth2 consumers
// such as oauth2.NewClient or a StaticTokenSource.
func (t *Token) OAuth2Token() *oauth2.Token {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return &oauth2.Token{
		AccessToken:  t.AccessToken,
		RefreshToken: t.RefreshToken,
		TokenType:    t.TokenType,
		Expiry:       t.ExpiresAt,
	}
}

// material returns the access token and effective attachment scheme as one
// consistent snapshot, so Attach never observes a half-applied refresh.
func (t *Token) material(p *Profile) (string, Scheme) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.SchemeOverride != nil {
		return t.AccessToken, *t.SchemeOverride
	}
	return t.AccessToken, p.scheme()
}

// applyGrant installs freshly exchanged token material. The old refresh
// token is retained when the response omits one; many servers expect reuse.
func (t *Token) applyGrant(resp *tokenResponse, now time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.AccessToken = resp.AccessToken
	if resp.RefreshToken != "" {
		t.RefreshToken = resp.RefreshToken
	}
	if resp.TokenType != "" {
		t.TokenType = resp.TokenType
	}
	if resp.Scope != "" {
		t.Scope = resp.Scope
	}
	if resp.ExpiresIn > 0 {
		t.ExpiresAt = now.Add(time.Duration(resp.ExpiresIn) * time.Second)
	} else {
		t.ExpiresAt = time.Time{}
	}
	t.Changed = true
	t.generation.Add(1)
}
