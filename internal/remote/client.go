// Package remote implements the tracker's sync gateway against the activity
// store API, with a redis cache in front of the daily baseline.
package remote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/url"
	"strings"
	"time"

	"backend-wellnesshub/internal/activity"
	"backend-wellnesshub/internal/tracking"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const (
	defaultTimeout  = 10 * time.Second
	defaultCacheTTL = 10 * time.Minute
)

type Config struct {
	BaseURL  string
	Token    string
	UserID   string
	Timeout  time.Duration
	CacheTTL time.Duration
}

// StatusError is returned when the store answers with an unexpected status.
type StatusError struct {
	Op     string
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("remote %s: status %d: %s", e.Op, e.Status, e.Body)
}

type Client struct {
	cfg   Config
	cache *redis.Client
	log   logrus.FieldLogger
}

// NewClient builds a gateway client. cache may be nil, in which case every
// baseline read goes to the store.
func NewClient(cfg Config, cache *redis.Client, log logrus.FieldLogger) *Client {
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = defaultCacheTTL
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Client{cfg: cfg, cache: cache, log: log.WithField("component", "remote")}
}

func (c *Client) FetchBaseline(ctx context.Context, date string) (activity.ActivityStats, error) {
	if stats, ok := c.cachedBaseline(ctx, date); ok {
		return stats, nil
	}

	agent := fiber.Get(c.cfg.BaseURL + "/activity/today?date=" + url.QueryEscape(date))
	code, body, err := c.do(ctx, agent)
	if err != nil {
		return activity.ActivityStats{}, fmt.Errorf("fetch baseline: %w", err)
	}
	if code == fiber.StatusNotFound {
		return activity.ActivityStats{}, activity.ErrNoBaseline
	}
	if code != fiber.StatusOK {
		return activity.ActivityStats{}, &StatusError{Op: "baseline", Status: code, Body: string(body)}
	}
	trimmed := strings.TrimSpace(string(body))
	if trimmed == "" || trimmed == "null" {
		return activity.ActivityStats{}, activity.ErrNoBaseline
	}

	var daily tracking.DailyActivity
	if err := json.Unmarshal(body, &daily); err != nil {
		return activity.ActivityStats{}, fmt.Errorf("decode baseline: %w", err)
	}
	stats := fromDaily(daily)
	c.storeBaseline(ctx, date, stats)
	return stats, nil
}

// SyncStats posts the stats floored to whole units and drops the cached
// baseline for date.
func (c *Client) SyncStats(ctx context.Context, date string, stats activity.ActivityStats) error {
	payload := tracking.StatsSync{
		Date:       date,
		Steps:      int64(stats.Steps),
		Distance:   floor(stats.DistanceMeters),
		Calories:   floor(stats.Calories),
		ActiveTime: floor(stats.ActiveMinutes),
	}
	if err := c.post(ctx, "sync", "/activity/sync", payload); err != nil {
		return err
	}
	c.invalidateBaseline(ctx, date)
	return nil
}

func (c *Client) SaveRoute(ctx context.Context, route activity.SyncedRoute) error {
	points := make([]tracking.RoutePoint, len(route.Points))
	for i, p := range route.Points {
		points[i] = tracking.RoutePoint{Lat: p.Latitude, Lng: p.Longitude, Timestamp: p.TimestampMs}
	}
	payload := tracking.RouteSave{
		StartTime:   route.StartTime,
		EndTime:     route.EndTime,
		Distance:    int64(route.DistanceMeters),
		Duration:    int64(route.DurationSeconds),
		RoutePoints: points,
	}
	return c.post(ctx, "route", "/routes", payload)
}

func (c *Client) post(ctx context.Context, op, path string, payload any) error {
	agent := fiber.Post(c.cfg.BaseURL + path).JSON(payload)
	code, body, err := c.do(ctx, agent)
	if err != nil {
		return fmt.Errorf("remote %s: %w", op, err)
	}
	if code < 200 || code >= 300 {
		return &StatusError{Op: op, Status: code, Body: string(body)}
	}
	return nil
}

// do sends the request, bounded by the configured timeout and ctx's deadline.
func (c *Client) do(ctx context.Context, agent *fiber.Agent) (int, []byte, error) {
	if err := ctx.Err(); err != nil {
		return 0, nil, err
	}
	timeout := c.cfg.Timeout
	if deadline, ok := ctx.Deadline(); ok {
		if left := time.Until(deadline); left < timeout {
			timeout = left
		}
	}
	if c.cfg.Token != "" {
		agent.Set(fiber.HeaderAuthorization, "Bearer "+c.cfg.Token)
	}
	agent.Timeout(timeout)

	code, body, errs := agent.Bytes()
	if len(errs) > 0 {
		return 0, nil, errors.Join(errs...)
	}
	return code, body, nil
}

func fromDaily(d tracking.DailyActivity) activity.ActivityStats {
	steps := d.Steps
	if steps < 0 {
		steps = 0
	}
	return activity.ActivityStats{
		Steps:          uint64(steps),
		DistanceMeters: float64(d.Distance),
		Calories:       float64(d.Calories),
		ActiveMinutes:  float64(d.ActiveTime),
	}
}

func floor(v float64) int64 {
	if v < 0 || math.IsNaN(v) {
		return 0
	}
	return int64(math.Floor(v))
}
