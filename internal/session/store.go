// Package session keeps the current-user snapshot for each authenticated
// client in Redis. The snapshot mirrors what the client last observed about
// its own account (name, avatar, relationship sets); relationship and profile
// mutations refresh it so subsequent reads see the change without another
// round trip to the primary store.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

var ErrNoSession = errors.New("session not found or expired")

// Snapshot is the per-session view of the authenticated user.
type Snapshot struct {
	UserID    string    `json:"user_id"`
	Name      string    `json:"name"`
	Avatar    string    `json:"avatar"`
	Following []string  `json:"following"`
	Blocked   []string  `json:"blocked"`
	CreatedAt time.Time `json:"created_at"`
}

// Store is a Redis-backed session snapshot store.
type Store struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewStore connects to Redis and verifies the connection.
func NewStore(redisURL string, ttl time.Duration) (*Store, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	return NewStoreWithClient(client, ttl), nil
}

// NewStoreWithClient creates a store from an existing Redis client.
func NewStoreWithClient(client *redis.Client, ttl time.Duration) *Store {
	return &Store{
		client: client,
		prefix: "session:",
		ttl:    ttl,
	}
}

func (s *Store) key(sessionID string) string {
	return s.prefix + sessionID
}

// Set creates or replaces the snapshot for a session, resetting its TTL.
func (s *Store) Set(ctx context.Context, sessionID string, snap Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal session snapshot: %w", err)
	}
	if err := s.client.Set(ctx, s.key(sessionID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("save session snapshot: %w", err)
	}
	return nil
}

// Current returns the snapshot for a session.
func (s *Store) Current(ctx context.Context, sessionID string) (Snapshot, error) {
	data, err := s.client.Get(ctx, s.key(sessionID)).Result()
	if err == redis.Nil {
		return Snapshot{}, ErrNoSession
	}
	if err != nil {
		return Snapshot{}, fmt.Errorf("lookup session snapshot: %w", err)
	}

	var snap Snapshot
	if err := json.Unmarshal([]byte(data), &snap); err != nil {
		return Snapshot{}, fmt.Errorf("unmarshal session snapshot: %w", err)
	}
	return snap, nil
}

// Refresh replaces the snapshot of an existing session without touching its
// TTL. A missing session is a no-op: there is nothing to keep in sync.
func (s *Store) Refresh(ctx context.Context, sessionID string, snap Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal session snapshot: %w", err)
	}
	if err := s.client.SetXX(ctx, s.key(sessionID), data, redis.KeepTTL).Err(); err != nil {
		return fmt.Errorf("refresh session snapshot: %w", err)
	}
	return nil
}

// Clear destroys a session. Clearing a missing session is not an error.
func (s *Store) Clear(ctx context.Context, sessionID string) error {
	if err := s.client.Del(ctx, s.key(sessionID)).Err(); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	return s.client.Close()
}

func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
