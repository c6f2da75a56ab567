package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/lorrc/ticket-reports/internal/core/domain"
	"github.com/lorrc/ticket-reports/internal/core/ports"
)

const keyPrefix = "report:filters:"

// Config holds the connection settings for the filter store.
type Config struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

// FilterStore keeps session filters in Redis as JSON values.
type FilterStore struct {
	client *redis.Client
	ttl    time.Duration
}

var _ ports.FilterStore = (*FilterStore)(nil)

// NewClient opens a Redis client and verifies the connection.
func NewClient(ctx context.Context, cfg Config) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", cfg.Addr, err)
	}
	return client, nil
}

// NewFilterStore wraps an open client. A zero ttl stores without expiry.
func NewFilterStore(client *redis.Client, ttl time.Duration) *FilterStore {
	return &FilterStore{client: client, ttl: ttl}
}

func key(sessionID string) string {
	return keyPrefix + sessionID
}

func (s *FilterStore) Get(ctx context.Context, sessionID string) (domain.ReportFilters, bool, error) {
	raw, err := s.client.Get(ctx, key(sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.ReportFilters{}, false, nil
	}
	if err != nil {
		return domain.ReportFilters{}, false, fmt.Errorf("get filters: %w", err)
	}

	var filters domain.ReportFilters
	if err := json.Unmarshal(raw, &filters); err != nil {
		return domain.ReportFilters{}, false, fmt.Errorf("decode filters: %w", err)
	}

	if s.ttl > 0 {
		// Sliding expiry; a failure here only shortens the session.
		_ = s.client.Expire(ctx, key(sessionID), s.ttl).Err()
	}
	return filters, true, nil
}

func (s *FilterStore) Save(ctx context.Context, sessionID string, filters domain.ReportFilters) error {
	raw, err := json.Marshal(filters)
	if err != nil {
		return fmt.Errorf("encode filters: %w", err)
	}

	if err := s.client.Set(ctx, key(sessionID), raw, s.ttl).Err(); err != nil {
		return fmt.Errorf("save filters: %w", err)
	}
	return nil
}

func (s *FilterStore) Delete(ctx context.Context, sessionID string) error {
	if err := s.client.Del(ctx, key(sessionID)).Err(); err != nil {
		return fmt.Errorf("delete filters: %w", err)
	}
	return nil
}

// Ping reports whether Redis is reachable; used by the readiness probe.
func (s *FilterStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
