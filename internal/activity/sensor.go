package activity

import (
	"context"
	"errors"
	"sync"
	"time"
)

var ErrNotWatching = errors.New("activity: sensor has no active subscription")

// WatchOptions mirrors what a location provider is asked for when a
// subscription opens. A zero MaximumAge disallows cached positions.
type WatchOptions struct {
	HighAccuracy bool
	MaximumAge   time.Duration
}

// Sensor opens a continuous location subscription. Implementations deliver
// samples and errors until the returned cancel func is called and must not
// invoke either handler from within Watch itself.
type Sensor interface {
	Watch(opts WatchOptions, onSample func(PositionSample), onError func(error)) (cancel func())
}

// SensorError is a fault reported by the location provider.
type SensorError struct {
	Code    string `json:"code" validate:"required,oneof=permission_denied position_unavailable timeout"`
	Message string `json:"message"`
}

func (e *SensorError) Error() string {
	if e.Message == "" {
		return "sensor: " + e.Code
	}
	return "sensor: " + e.Code + ": " + e.Message
}

// Feed is a Sensor fed by pushed fixes, used when the device uploads its
// positions. It serves one subscription at a time; a new Watch replaces the
// previous one.
type Feed struct {
	mu     sync.Mutex
	sub    *feedSub
	opts   WatchOptions
	buffer int
}

type feedEvent struct {
	sample PositionSample
	err    error
}

type feedSub struct {
	events chan feedEvent
	done   chan struct{}
	once   sync.Once
}

func NewFeed(buffer int) *Feed {
	if buffer <= 0 {
		buffer = 64
	}
	return &Feed{buffer: buffer}
}

func (f *Feed) Watch(opts WatchOptions, onSample func(PositionSample), onError func(error)) func() {
	sub := &feedSub{
		events: make(chan feedEvent, f.buffer),
		done:   make(chan struct{}),
	}

	f.mu.Lock()
	prev := f.sub
	f.sub = sub
	f.opts = opts
	f.mu.Unlock()

	if prev != nil {
		prev.stop()
	}
	go sub.run(onSample, onError)

	return func() {
		f.mu.Lock()
		if f.sub == sub {
			f.sub = nil
		}
		f.mu.Unlock()
		sub.stop()
	}
}

// Push queues a fix for the active subscription, blocking while its buffer
// is full.
func (f *Feed) Push(ctx context.Context, s PositionSample) error {
	return f.send(ctx, feedEvent{sample: s})
}

// Fail reports a provider error to the active subscription.
func (f *Feed) Fail(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}
	return f.send(ctx, feedEvent{err: err})
}

func (f *Feed) Watching() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sub != nil
}

// Options returns what the current or last subscriber asked for.
func (f *Feed) Options() WatchOptions {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.opts
}

func (f *Feed) send(ctx context.Context, ev feedEvent) error {
	f.mu.Lock()
	sub := f.sub
	f.mu.Unlock()
	if sub == nil {
		return ErrNotWatching
	}

	select {
	case sub.events <- ev:
		return nil
	case <-sub.done:
		return ErrNotWatching
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *feedSub) run(onSample func(PositionSample), onError func(error)) {
	for {
		select {
		case <-s.done:
			return
		case ev := <-s.events:
			select {
			case <-s.done:
				return
			default:
			}
			if ev.err != nil {
				if onError != nil {
					onError(ev.err)
				}
				continue
			}
			if onSample != nil {
				onSample(ev.sample)
			}
		}
	}
}

func (s *feedSub) stop() {
	s.once.Do(func() { close(s.done) })
}
