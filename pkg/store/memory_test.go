package store

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/go-training/oauth2-client/pkg/client"
)

func testToken() *client.Token {
	return &client.Token{
		AccessToken:  "tok_abc",
		RefreshToken: "ref_xyz",
		ExpiresAt:    time.Now().Add(time.Hour),
		Changed:      true,
	}
}

func TestNewMemoryStore(t *testing.T) {
	s := NewMemoryStore()

	if s == nil {
		t.Fatal("NewMemoryStore() returned nil")
	}
	if s.tokens == nil {
		t.Error("tokens map should be initialized")
	}
}

func TestMemoryStore_SaveToken(t *testing.T) {
	tests := []struct {
		name      string
		sessionID string
		token     *client.Token
		wantErr   error
	}{
		{
			name:      "valid token",
			sessionID: "session_123",
			token:     testToken(),
			wantErr:   nil,
		},
		{
			name:      "nil token",
			sessionID: "session_123",
			token:     nil,
			wantErr:   ErrNilToken,
		},
		{
			name:      "empty session ID",
			sessionID: "",
			token:     testToken(),
			wantErr:   ErrEmptySessionID,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewMemoryStore()
			ctx := context.Background()

			err := s.SaveToken(ctx, tt.sessionID, tt.token)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("SaveToken() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestMemoryStore_SaveToken_ClearsChanged(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	token := testToken()
	if !token.Changed {
		t.Fatal("test token should start dirty")
	}
	if err := s.SaveToken(ctx, "session_123", token); err != nil {
		t.Fatalf("SaveToken() returned error: %v", err)
	}
	if token.Changed {
		t.Error("Changed should be cleared after a successful save")
	}
}

func TestMemoryStore_GetToken(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	token := testToken()
	if err := s.SaveToken(ctx, "session_123", token); err != nil {
		t.Fatalf("SaveToken() returned error: %v", err)
	}

	got, err := s.GetToken(ctx, "session_123")
	if err != nil {
		t.Fatalf("GetToken() returned error: %v", err)
	}
	if got != token {
		t.Error("GetToken() should return the stored token instance")
	}

	if _, err := s.GetToken(ctx, "missing"); !errors.Is(err, ErrTokenNotFound) {
		t.Errorf("GetToken(missing) error = %v, want ErrTokenNotFound", err)
	}
	if _, err := s.GetToken(ctx, ""); !errors.Is(err, ErrEmptySessionID) {
		t.Errorf("GetToken(empty) error = %v, want ErrEmptySessionID", err)
	}
}

func TestMemoryStore_DeleteToken(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	if err := s.SaveToken(ctx, "session_123", testToken()); err != nil {
		t.Fatalf("SaveToken() returned error: %v", err)
	}
	if err := s.DeleteToken(ctx, "session_123"); err != nil {
		t.Fatalf("DeleteToken() returned error: %v", err)
	}
	if _, err := s.GetToken(ctx, "session_123"); !errors.Is(err, ErrTokenNotFound) {
		t.Errorf("GetToken() after delete error = %v, want ErrTokenNotFound", err)
	}
	if err := s.DeleteToken(ctx, "session_123"); !errors.Is(err, ErrTokenNotFound) {
		t.Errorf("DeleteToken() twice error = %v, want ErrTokenNotFound", err)
	}
}

func TestMemoryStore_Concurrent(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			sessionID := fmt.Sprintf("session_%d", i)
			if err := s.SaveToken(ctx, sessionID, testToken()); err != nil {
				t.Errorf("SaveToken(%s): %v", sessionID, err)
				return
			}
			if _, err := s.GetToken(ctx, sessionID); err != nil {
				t.Errorf("GetToken(%s): %v", sessionID, err)
			}
		}(i)
	}
	wg.Wait()
}
