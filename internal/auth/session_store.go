package auth

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrSessionNotFound is returned when a session id is unknown or expired.
var ErrSessionNotFound = errors.New("session not found")

const sessionKeyPrefix = "session:"

// SessionStore keeps the username behind each session id.
type SessionStore interface {
	Create(ctx context.Context, username string, ttl time.Duration) (string, error)
	Lookup(ctx context.Context, sessionID string) (string, error)
	Delete(ctx context.Context, sessionID string) error
}

type redisSessionStore struct {
	client *redis.Client
}

// NewRedisSessionStore returns a store keeping sessions as expiring Redis keys.
func NewRedisSessionStore(client *redis.Client) SessionStore {
	return &redisSessionStore{client: client}
}

func (s *redisSessionStore) Create(ctx context.Context, username string, ttl time.Duration) (string, error) {
	if s.client == nil {
		return "", errors.New("redis client not configured")
	}
	id := uuid.NewString()
	if err := s.client.Set(ctx, sessionKeyPrefix+id, username, ttl).Err(); err != nil {
		return "", err
	}
	return id, nil
}

func (s *redisSessionStore) Lookup(ctx context.Context, sessionID string) (string, error) {
	if s.client == nil {
		return "", ErrSessionNotFound
	}
	username, err := s.client.Get(ctx, sessionKeyPrefix+sessionID).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrSessionNotFound
	}
	if err != nil {
		return "", err
	}
	return username, nil
}

func (s *redisSessionStore) Delete(ctx context.Context, sessionID string) error {
	if s.client == nil {
		return nil
	}
	return s.client.Del(ctx, sessionKeyPrefix+sessionID).Err()
}

// Sessions issues session tokens backed by a SessionStore.
type Sessions struct {
	tokens *TokenManager
	store  SessionStore
}

// NewSessions constructs a session issuer.
func NewSessions(tokens *TokenManager, store SessionStore) *Sessions {
	return &Sessions{tokens: tokens, store: store}
}

// Issue records a session for username and returns the signed cookie value.
func (s *Sessions) Issue(ctx context.Context, username string) (string, time.Time, error) {
	id, err := s.store.Create(ctx, username, s.tokens.TTL())
	if err != nil {
		return "", time.Time{}, err
	}
	return s.tokens.GenerateToken(id)
}
