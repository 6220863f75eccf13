package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/rueidis"

	"github.com/go-training/oauth2-client/pkg/client"
)

// Key prefix for Redis storage.
const sessionTokenPrefix = "session_token:"

// RedisStore implements the Store interface using Redis via rueidis.
// It provides persistent storage for session tokens.
type RedisStore struct {
	client rueidis.Client
}

// NewRedisStore creates a new instance of RedisStore with the provided rueidis client.
func NewRedisStore(client rueidis.Client) *RedisStore {
	return &RedisStore{
		client: client,
	}
}

// RedisOptions contains configuration for Redis connection.
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
}

// NewRedisStoreFromOptions creates a new RedisStore with simplified options.
func NewRedisStoreFromOptions(opts RedisOptions) (*RedisStore, error) {
	clientOpts := rueidis.ClientOption{
		InitAddress: []string{opts.Addr},
		Password:    opts.Password,
		SelectDB:    opts.DB,
	}
	return NewRedisStoreFromClientOption(clientOpts)
}

// NewRedisStoreFromClientOption creates a new RedisStore with full rueidis client options.
func NewRedisStoreFromClientOption(opts rueidis.ClientOption) (*RedisStore, error) {
	c, err := rueidis.NewClient(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to create redis client: %w", err)
	}
	return NewRedisStore(c), nil
}

// Close closes the Redis client connection.
func (r *RedisStore) Close() {
	r.client.Close()
}

// SaveToken stores a session token in Redis and clears its Changed flag.
//
// Tokens that cannot self-refresh expire from Redis together with the
// access token; refreshable tokens are kept without a TTL since their
// refresh token outlives the access token.
func (r *RedisStore) SaveToken(ctx context.Context, sessionID string, token *client.Token) error {
	if token == nil {
		return ErrNilToken
	}
	if sessionID == "" {
		return ErrEmptySessionID
	}

	data, err := json.Marshal(token)
	if err != nil {
		return fmt.Errorf("failed to marshal token: %w", err)
	}

	key := sessionTokenPrefix + sessionID
	if !token.CanRefresh() && !token.ExpiresAt.IsZero() {
		ttl := time.Until(token.ExpiresAt)
		if ttl <= 0 {
			return fmt.Errorf("token for session %s is already expired", sessionID)
		}
		cmd := r.client.B().Set().Key(key).Value(string(data)).ExSeconds(int64(ttl.Seconds()) + 1).Build()
		if err := r.client.Do(ctx, cmd).Error(); err != nil {
			return fmt.Errorf("failed to save token to redis: %w", err)
		}
		token.Changed = false
		return nil
	}

	cmd := r.client.B().Set().Key(key).Value(string(data)).Build()
	if err := r.client.Do(ctx, cmd).Error(); err != nil {
		return fmt.Errorf("failed to save token to redis: %w", err)
	}
	token.Changed = false
	return nil
}

// GetToken retrieves a session token from Redis.
// It returns ErrTokenNotFound if no token is stored for the session.
//
// Reads are uncached on purpose: a refreshed token must be visible to the
// next request immediately, so a client-side cache window is not safe here.
func (r *RedisStore) GetToken(ctx context.Context, sessionID string) (*client.Token, error) {
	if sessionID == "" {
		return nil, ErrEmptySessionID
	}

	key := sessionTokenPrefix + sessionID
	cmd := r.client.B().Get().Key(key).Build()
	result, err := r.client.Do(ctx, cmd).ToString()
	if err != nil {
		if rueidis.IsRedisNil(err) {
			return nil, ErrTokenNotFound
		}
		return nil, fmt.Errorf("failed to get token from redis: %w", err)
	}

	var token client.Token
	if err := json.Unmarshal([]byte(result), &token); err != nil {
		return nil, fmt.Errorf("failed to unmarshal token: %w", err)
	}

	// A non-refreshable token past its expiry is useless to the caller.
	if !token.CanRefresh() && token.IsExpired(time.Now()) {
		_ = r.DeleteToken(ctx, sessionID)
		return nil, ErrTokenNotFound
	}

	return &token, nil
}

// DeleteToken removes a session token from Redis.
// It returns ErrTokenNotFound if no token is stored for the session.
func (r *RedisStore) DeleteToken(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return ErrEmptySessionID
	}

	key := sessionTokenPrefix + sessionID
	cmd := r.client.B().Del().Key(key).Build()
	result, err := r.client.Do(ctx, cmd).AsInt64()
	if err != nil {
		return fmt.Errorf("failed to delete token from redis: %w", err)
	}

	if result == 0 {
		return ErrTokenNotFound
	}

	return nil
}
