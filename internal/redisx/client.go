package redisx

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

func New(addr string) *redis.Client {
	r := redis.NewClient(&redis.Options{Addr: addr})
	_ = r.WithTimeout(2 * time.Second)
	return r
}

// Store is a state.Store backed by plain Redis strings.
type Store struct {
	RDB redis.Cmdable
}

func (s *Store) Get(ctx context.Context, key string) (string, bool, error) {
	v, err := s.RDB.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("redis get %s: %w", key, err)
	}
	return v, true, nil
}

func (s *Store) Set(ctx context.Context, key, value string) error {
	return s.RDB.Set(ctx, key, value, TTLClientState).Err()
}

func (s *Store) Delete(ctx context.Context, key string) error {
	return s.RDB.Del(ctx, key).Err()
}

// Dedup remembers processed event ids per service.
type Dedup struct {
	RDB     redis.Cmdable
	Service string
}

// FirstSeen marks id as processed and reports whether this call was the
// first to do so. SETNX keeps concurrent workers from both winning.
func (d *Dedup) FirstSeen(ctx context.Context, id string) (bool, error) {
	key := fmt.Sprintf(KeyDedup, d.Service, id)
	return d.RDB.SetNX(ctx, key, "1", TTLDedup).Result()
}

// Release forgets id so the event can be processed again.
func (d *Dedup) Release(ctx context.Context, id string) error {
	return d.RDB.Del(ctx, fmt.Sprintf(KeyDedup, d.Service, id)).Err()
}
