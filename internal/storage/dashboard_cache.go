package storage

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	dashboardKey        = "interview:dashboard:overview"
	defaultDashboardTTL = 5 * time.Minute
)

// DashboardCache stores the rendered dashboard overview.
type DashboardCache struct {
	client keyValue
	ttl    time.Duration
}

func NewDashboardCache(client *redis.Client, ttl time.Duration) *DashboardCache {
	return newDashboardCache(client, ttl)
}

func newDashboardCache(client keyValue, ttl time.Duration) *DashboardCache {
	if ttl <= 0 {
		ttl = defaultDashboardTTL
	}
	return &DashboardCache{client: client, ttl: ttl}
}

// Get decodes the cached overview into target. It reports false on a miss.
func (c *DashboardCache) Get(ctx context.Context, target any) (bool, error) {
	data, err := c.client.Get(ctx, dashboardKey).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal([]byte(data), target); err != nil {
		return false, err
	}
	return true, nil
}

func (c *DashboardCache) Set(ctx context.Context, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, dashboardKey, data, c.ttl).Err()
}

// Invalidate drops the cached overview, e.g. after a new result is stored.
func (c *DashboardCache) Invalidate(ctx context.Context) error {
	return c.client.Del(ctx, dashboardKey).Err()
}
