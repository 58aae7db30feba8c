package shared

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Role values mirror users.role.
const (
	RoleManager = "MANAGER"
	RoleStaff   = "STAFF"
)

// SessionUser is the authenticated principal attached to each request.
type SessionUser struct {
	ID     int64  `json:"id"`
	Email  string `json:"email"`
	Name   string `json:"name"`
	Role   string `json:"role"`
	Avatar string `json:"avatar"`
}

// IsManager reports whether the user holds the MANAGER role.
func (u SessionUser) IsManager() bool {
	return u.Role == RoleManager
}

// SessionStore issues and resolves opaque bearer tokens backed by Redis.
type SessionStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewSessionStore constructs a SessionStore.
func NewSessionStore(client *redis.Client, ttl time.Duration) *SessionStore {
	return &SessionStore{client: client, ttl: ttl}
}

// Create stores the user under a fresh token and returns it.
func (s *SessionStore) Create(ctx context.Context, user SessionUser) (string, error) {
	token := uuid.NewString()
	payload, err := json.Marshal(user)
	if err != nil {
		return "", err
	}
	if err := s.client.Set(ctx, s.redisKey(token), payload, s.ttl).Err(); err != nil {
		return "", fmt.Errorf("shared: store session: %w", err)
	}
	return token, nil
}

// Get resolves a token, sliding its expiry on each hit.
func (s *SessionStore) Get(ctx context.Context, token string) (*SessionUser, error) {
	payload, err := s.client.Get(ctx, s.redisKey(token)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrUnauthenticated
		}
		return nil, fmt.Errorf("shared: load session: %w", err)
	}
	var user SessionUser
	if err := json.Unmarshal(payload, &user); err != nil {
		return nil, err
	}
	_ = s.client.Expire(ctx, s.redisKey(token), s.ttl).Err()
	return &user, nil
}

// Revoke invalidates a single token. Live tokens are not tracked per user,
// so role changes take effect at next login.
func (s *SessionStore) Revoke(ctx context.Context, token string) error {
	if err := s.client.Del(ctx, s.redisKey(token)).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("shared: revoke session: %w", err)
	}
	return nil
}

// TTL exposes the configured session lifetime.
func (s *SessionStore) TTL() time.Duration {
	return s.ttl
}

func (s *SessionStore) redisKey(token string) string {
	return "session:" + token
}

// BearerToken extracts the token from the Authorization header.
func BearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}
