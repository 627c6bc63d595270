package remote

import (
	"context"
	"encoding/json"
	"errors"

	"backend-wellnesshub/internal/activity"

	"github.com/redis/go-redis/v9"
)

func (c *Client) baselineKey(date string) string {
	return "activity:baseline:" + c.cfg.UserID + ":" + date
}

func (c *Client) cachedBaseline(ctx context.Context, date string) (activity.ActivityStats, bool) {
	if c.cache == nil {
		return activity.ActivityStats{}, false
	}
	raw, err := c.cache.Get(ctx, c.baselineKey(date)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.log.WithError(err).Warn("baseline cache read failed")
		}
		return activity.ActivityStats{}, false
	}
	var stats activity.ActivityStats
	if err := json.Unmarshal(raw, &stats); err != nil {
		c.log.WithError(err).Warn("baseline cache entry unreadable")
		return activity.ActivityStats{}, false
	}
	return stats, true
}

func (c *Client) storeBaseline(ctx context.Context, date string, stats activity.ActivityStats) {
	if c.cache == nil {
		return
	}
	raw, err := json.Marshal(stats)
	if err != nil {
		return
	}
	if err := c.cache.Set(ctx, c.baselineKey(date), raw, c.cfg.CacheTTL).Err(); err != nil {
		c.log.WithError(err).Warn("baseline cache write failed")
	}
}

func (c *Client) invalidateBaseline(ctx context.Context, date string) {
	if c.cache == nil {
		return
	}
	if err := c.cache.Del(ctx, c.baselineKey(date)).Err(); err != nil {
		c.log.WithError(err).WithField("date", date).Warn("baseline cache invalidation failed")
	}
}
