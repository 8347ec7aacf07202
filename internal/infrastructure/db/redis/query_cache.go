package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/drbrain/dashboard/internal/core/domain"
	"github.com/drbrain/dashboard/internal/core/ports"
)

const defaultProfileTTL = 5 * time.Minute

// QueryCache keeps the last profile answer per user.
// Key format: profile:<user_id>
type QueryCache struct {
	client *redis.Client
	ttl    time.Duration
}

var _ ports.QueryCache = (*QueryCache)(nil)

// NewQueryCache wraps client. A non-positive ttl uses the default.
func NewQueryCache(client *redis.Client, ttl time.Duration) *QueryCache {
	if ttl <= 0 {
		ttl = defaultProfileTTL
	}
	return &QueryCache{client: client, ttl: ttl}
}

func (c *QueryCache) GetProfile(ctx context.Context, userID string) (*domain.Profile, bool, error) {
	raw, err := c.client.Get(ctx, c.key(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("profile cache get: %w", err)
	}
	var p domain.Profile
	if err := json.Unmarshal(raw, &p); err != nil {
		// A corrupt entry is a miss; the next fetch overwrites it.
		return nil, false, nil
	}
	return &p, true, nil
}

// SetProfile overwrites unconditionally: the last response wins.
func (c *QueryCache) SetProfile(ctx context.Context, userID string, p *domain.Profile) error {
	raw, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("profile cache encode: %w", err)
	}
	if err := c.client.Set(ctx, c.key(userID), raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("profile cache set: %w", err)
	}
	return nil
}

func (c *QueryCache) InvalidateProfile(ctx context.Context, userID string) error {
	if err := c.client.Del(ctx, c.key(userID)).Err(); err != nil {
		return fmt.Errorf("profile cache invalidate: %w", err)
	}
	return nil
}

func (c *QueryCache) key(userID string) string {
	return "profile:" + userID
}
