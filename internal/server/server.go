package server

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"backend-wellnesshub/internal/activity"
	"backend-wellnesshub/internal/auth"
	"backend-wellnesshub/internal/config"
	"backend-wellnesshub/internal/db"
	"backend-wellnesshub/internal/metrics"
	"backend-wellnesshub/internal/remote"
	"backend-wellnesshub/internal/scheduler"
	"backend-wellnesshub/internal/stream"
	"backend-wellnesshub/internal/tracking"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const (
	deviceTokenTTL = 30 * 24 * time.Hour
	feedBuffer     = 256
)

type Server struct {
	App       *fiber.App
	Cfg       config.Config
	DB        *pgxpool.Pool
	Redis     *redis.Client
	Stream    *stream.Hub
	Feed      *activity.Feed
	Tracker   *activity.Tracker
	Metrics   *metrics.Collector
	Scheduler *scheduler.Scheduler
	Log       logrus.FieldLogger

	mu      sync.Mutex
	stopped bool
	started atomic.Bool
}

func NewServer(cfg config.Config, pg *pgxpool.Pool, redisClient *redis.Client) *Server {
	app := fiber.New()
	app.Use(recover.New())
	app.Use(logger.New())

	log := logrus.StandardLogger()
	s := &Server{
		App:     app,
		Cfg:     cfg,
		DB:      pg,
		Redis:   redisClient,
		Stream:  stream.NewHub(redisClient, log),
		Feed:    activity.NewFeed(feedBuffer),
		Metrics: metrics.NewCollector(),
		Log:     log.WithField("component", "server"),
	}

	s.Tracker = activity.NewTracker(s.Feed, newGateway(cfg, redisClient, log),
		activity.WithFilter(activity.Filter{
			AccuracyThresholdM: cfg.AccuracyThresholdM,
			MinMovementM:       cfg.MinMovementM,
		}),
		activity.WithLogger(log),
		activity.WithObserver(s.Metrics),
		activity.WithSyncTimeout(cfg.RemoteTimeout),
	)
	s.Tracker.SubscribeStats(func(stats activity.ActivityStats) {
		s.Stream.Publish(stream.TopicStats, stats)
	})
	s.Tracker.SubscribeRawSamples(func(sample activity.PositionSample) {
		s.Stream.Publish(stream.TopicSamples, sample)
	})

	if cfg.SyncSchedule != "" {
		sched, err := scheduler.New(cfg.SyncSchedule, s.Tracker, cfg.RemoteTimeout, log)
		if err != nil {
			s.Log.WithError(err).WithField("schedule", cfg.SyncSchedule).Warn("invalid sync schedule, periodic sync disabled")
		} else {
			s.Scheduler = sched
		}
	}

	registerRoutes(s)
	return s
}

// newGateway points the tracker at the store API. The device token is minted
// with the server's own secret so the default configuration syncs to itself.
func newGateway(cfg config.Config, redisClient *redis.Client, log logrus.FieldLogger) *remote.Client {
	token, err := auth.SignToken(cfg.JWTSecret, cfg.DeviceUserID, deviceTokenTTL)
	if err != nil {
		log.WithError(err).Warn("device token not issued, syncs will be unauthenticated")
	}
	return remote.NewClient(remote.Config{
		BaseURL:  cfg.RemoteBaseURL,
		Token:    token,
		UserID:   cfg.DeviceUserID,
		Timeout:  cfg.RemoteTimeout,
		CacheTTL: cfg.BaselineCacheTTL,
	}, redisClient, log)
}

func registerRoutes(s *Server) {
	s.App.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "tracking": s.Tracker.Tracking()})
	})
	s.App.Get("/metrics", s.Metrics.Handler())

	jwtMiddleware := auth.JWTMiddleware(s.Cfg.JWTSecret)

	if s.DB != nil {
		tracking.RegisterRoutes(s.App.Group("/api"), tracking.NewService(s.DB), jwtMiddleware)
	} else {
		s.Log.Warn("no postgres pool, store endpoints not registered")
	}
	activity.RegisterRoutes(s.App.Group("/tracking", s.requireStarted), s.Tracker, s.Feed, jwtMiddleware)
	stream.RegisterRoutes(s.App.Group("/stream"), s.Stream, jwtMiddleware)
}

// Start prepares the store schema, loads today's baseline and starts the
// periodic sync. It does nothing once Stop has run.
func (s *Server) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return
	}

	if s.DB != nil {
		if err := db.EnsureSchema(ctx, s.DB); err != nil {
			s.Log.WithError(err).Error("schema setup failed")
		}
	}
	s.Tracker.Initialize(ctx)
	if s.Scheduler != nil {
		s.Scheduler.Start()
	}
	s.started.Store(true)
}

// requireStarted holds device traffic back until the baseline is loaded, so
// a session cannot begin on stats that are about to be replaced.
func (s *Server) requireStarted(c *fiber.Ctx) error {
	if !s.started.Load() {
		return fiber.NewError(fiber.StatusServiceUnavailable, "tracker is starting")
	}
	return c.Next()
}

func (s *Server) Started() bool {
	return s.started.Load()
}

// Stop ends an active session, waits for its syncs and stops the background
// workers. The HTTP app is shut down by the caller.
func (s *Server) Stop(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return
	}
	s.stopped = true

	s.Tracker.DisableTracking()
	if err := s.Tracker.Drain(ctx); err != nil {
		s.Log.WithError(err).Warn("pending syncs abandoned")
	}
	if s.Scheduler != nil {
		if err := s.Scheduler.Stop(ctx); err != nil {
			s.Log.WithError(err).Warn("scheduler stop timed out")
		}
	}
	s.Stream.Close()
}
