// Package redis provides a shared geocoding result cache backed by Redis.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/couchcryptid/issue-locator/internal/domain"
)

const keyPrefix = "issue-locator:geocode:"

// Store implements geocoding.ResultStore. Entries expire after ttl.
type Store struct {
	client goredis.UniversalClient
	ttl    time.Duration
}

// NewClient parses a redis:// or rediss:// URL into a client.
func NewClient(redisURL string) (*goredis.Client, error) {
	opts, err := goredis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	return goredis.NewClient(opts), nil
}

// NewStore creates a Store over client.
func NewStore(client goredis.UniversalClient, ttl time.Duration) *Store {
	return &Store{client: client, ttl: ttl}
}

func (s *Store) Get(ctx context.Context, key string) (domain.GeocodeResult, bool, error) {
	raw, err := s.client.Get(ctx, keyPrefix+key).Bytes()
	if errors.Is(err, goredis.Nil) {
		return domain.GeocodeResult{}, false, nil
	}
	if err != nil {
		return domain.GeocodeResult{}, false, fmt.Errorf("redis get %s: %w", key, err)
	}

	var result domain.GeocodeResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return domain.GeocodeResult{}, false, fmt.Errorf("decode cached result %s: %w", key, err)
	}
	return result, true, nil
}

func (s *Store) Set(ctx context.Context, key string, result domain.GeocodeResult) error {
	raw, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("encode result: %w", err)
	}
	if err := s.client.Set(ctx, keyPrefix+key, raw, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

// CheckReadiness pings the server; it backs the /readyz probe.
func (s *Store) CheckReadiness(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
