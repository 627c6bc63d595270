package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"

	"backend-wellnesshub/internal/activity"
)

type fakeSyncer struct {
	mu       sync.Mutex
	tracking bool
	err      error
	calls    int
	newDay   bool
	rolled   int
}

func (f *fakeSyncer) Rollover(context.Context) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.newDay {
		return false
	}
	f.newDay = false
	f.rolled++
	return true
}

func (f *fakeSyncer) Tracking() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.tracking
}

func (f *fakeSyncer) SyncNow(context.Context) activity.SyncResult {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return activity.SyncResult{Date: "2026-10-18", Err: f.err}
}

func (f *fakeSyncer) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func TestRunOnceOnlyWhileTracking(t *testing.T) {
	log, hook := test.NewNullLogger()
	syncer := &fakeSyncer{}
	s, err := New("@every 1h", syncer, time.Second, log)
	if err != nil {
		t.Fatalf("new scheduler: %v", err)
	}

	syncer.newDay = true
	s.RunOnce()
	if syncer.count() != 0 {
		t.Fatalf("expected no sync while idle")
	}
	if syncer.rolled != 1 {
		t.Fatalf("expected idle run to roll over the day")
	}

	syncer.tracking = true
	s.RunOnce()
	if syncer.count() != 1 {
		t.Fatalf("expected one sync")
	}

	syncer.err = errors.New("down")
	s.RunOnce()
	if syncer.count() != 2 || hook.LastEntry() == nil {
		t.Fatalf("expected failed sync to be logged")
	}
}

func TestNewRejectsBadSchedule(t *testing.T) {
	if _, err := New("every now and then", &fakeSyncer{}, time.Second, nil); err == nil {
		t.Fatalf("expected error for bad schedule")
	}
}

func TestScheduleFires(t *testing.T) {
	log, _ := test.NewNullLogger()
	syncer := &fakeSyncer{tracking: true}
	s, err := New("@every 1s", syncer, time.Second, log)
	if err != nil {
		t.Fatalf("new scheduler: %v", err)
	}
	s.Start()

	deadline := time.Now().Add(3 * time.Second)
	for syncer.count() == 0 && time.Now().Before(deadline) {
		time.Sleep(50 * time.Millisecond)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := s.Stop(ctx); err != nil {
		t.Fatalf("stop: %v", err)
	}
	if syncer.count() == 0 {
		t.Fatalf("expected the schedule to fire")
	}
}
