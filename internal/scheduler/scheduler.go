// Package scheduler runs the periodic stats sync while a session is active
// and rolls idle stats over to the new day.
package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"backend-wellnesshub/internal/activity"
)

const defaultTimeout = 15 * time.Second

// Syncer is the part of the tracker the scheduler drives.
type Syncer interface {
	Tracking() bool
	Rollover(ctx context.Context) bool
	SyncNow(ctx context.Context) activity.SyncResult
}

type Scheduler struct {
	cron    *cron.Cron
	tracker Syncer
	timeout time.Duration
	log     logrus.FieldLogger
}

// New registers a sync job on schedule, a cron expression or an "@every"
// descriptor.
func New(schedule string, tracker Syncer, timeout time.Duration, log logrus.FieldLogger) (*Scheduler, error) {
	if log == nil {
		log = logrus.StandardLogger()
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	s := &Scheduler{
		cron:    cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		tracker: tracker,
		timeout: timeout,
		log:     log.WithField("component", "scheduler"),
	}
	if _, err := s.cron.AddFunc(schedule, s.RunOnce); err != nil {
		return nil, err
	}
	return s, nil
}

// RunOnce syncs the stats if a session is active. Otherwise it only checks
// for a day change.
func (s *Scheduler) RunOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	if !s.tracker.Tracking() {
		if s.tracker.Rollover(ctx) {
			s.log.Info("stats rolled over to a new day")
		}
		return
	}

	res := s.tracker.SyncNow(ctx)
	if !res.OK() {
		s.log.WithError(res.Err).Warn("periodic sync failed")
		return
	}
	s.log.WithFields(logrus.Fields{"date": res.Date, "steps": res.Stats.Steps}).Debug("periodic sync done")
}

func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop halts the schedule and waits for a running sync to finish or ctx to
// expire.
func (s *Scheduler) Stop(ctx context.Context) error {
	done := s.cron.Stop()
	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
