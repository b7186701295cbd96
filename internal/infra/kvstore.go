package infra

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"smart/internal/cart"
	"smart/internal/session"

	"github.com/redis/go-redis/v9"
)

// KVStore keeps the state a browser would hold in local storage, keyed by
// client id: the serialised cart and the pending post-login redirect.
type KVStore struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewKVStore: ttl bounds how long an abandoned client's keys survive.
func NewKVStore(rdb *redis.Client, ttl time.Duration) *KVStore {
	return &KVStore{rdb: rdb, ttl: ttl}
}

func cartKey(clientID string) string     { return "carrito:" + clientID }
func redirectKey(clientID string) string { return "redirect:" + clientID }

// SaveCart stores the line list. An empty cart deletes the key.
func (s *KVStore) SaveCart(ctx context.Context, clientID string, lines []cart.Line) error {
	if len(lines) == 0 {
		return s.rdb.Del(ctx, cartKey(clientID)).Err()
	}
	data, err := json.Marshal(lines)
	if err != nil {
		return fmt.Errorf("kvstore: marshal cart: %w", err)
	}
	return s.rdb.Set(ctx, cartKey(clientID), data, s.ttl).Err()
}

// LoadCart returns nil, nil when nothing is stored.
func (s *KVStore) LoadCart(ctx context.Context, clientID string) ([]cart.Line, error) {
	data, err := s.rdb.Get(ctx, cartKey(clientID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("kvstore: get cart: %w", err)
	}
	var lines []cart.Line
	if err := json.Unmarshal(data, &lines); err != nil {
		return nil, fmt.Errorf("kvstore: unmarshal cart: %w", err)
	}
	return lines, nil
}

// Redirects returns the session.RedirectStore of one client.
func (s *KVStore) Redirects(clientID string) session.RedirectStore {
	return &RedirectStore{rdb: s.rdb, key: redirectKey(clientID), ttl: s.ttl}
}

// RedirectStore holds one remembered destination. Take is read-then-clear
// in a single GETDEL.
type RedirectStore struct {
	rdb *redis.Client
	key string
	ttl time.Duration
}

func (r *RedirectStore) Remember(ctx context.Context, path string) error {
	return r.rdb.Set(ctx, r.key, path, r.ttl).Err()
}

func (r *RedirectStore) Take(ctx context.Context) (string, error) {
	path, err := r.rdb.GetDel(ctx, r.key).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	return path, err
}
