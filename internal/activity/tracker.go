package activity

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	SyncKindStats = "stats"
	SyncKindRoute = "route"

	// routes with this many points or fewer are not saved
	minRoutePoints = 2

	defaultSyncTimeout = 15 * time.Second
	dateLayout         = "2006-01-02"
)

// ErrNoBaseline is returned by a Gateway when no stats were stored for the
// requested date.
var ErrNoBaseline = errors.New("activity: no baseline for date")

// Gateway persists activity to the remote store.
type Gateway interface {
	FetchBaseline(ctx context.Context, date string) (ActivityStats, error)
	SyncStats(ctx context.Context, date string, stats ActivityStats) error
	SaveRoute(ctx context.Context, route SyncedRoute) error
}

// Observer receives tracker events for instrumentation.
type Observer interface {
	SampleFiltered(v Verdict)
	SyncFinished(kind string, err error)
}

type nopObserver struct{}

func (nopObserver) SampleFiltered(Verdict)      {}
func (nopObserver) SyncFinished(string, error) {}

type Option func(*Tracker)

func WithFilter(f Filter) Option {
	return func(t *Tracker) { t.filter = f }
}

func WithLogger(log logrus.FieldLogger) Option {
	return func(t *Tracker) {
		if log != nil {
			t.log = log
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(t *Tracker) {
		if now != nil {
			t.now = now
		}
	}
}

func WithObserver(o Observer) Option {
	return func(t *Tracker) {
		if o != nil {
			t.observer = o
		}
	}
}

// WithErrorHandler registers fn to receive sensor and sync faults.
func WithErrorHandler(fn func(error)) Option {
	return func(t *Tracker) { t.onError = fn }
}

func WithSyncTimeout(d time.Duration) Option {
	return func(t *Tracker) {
		if d > 0 {
			t.syncTimeout = d
		}
	}
}

// Tracker turns the sensor stream into live activity stats and route traces.
// It is either idle or tracking; at most one session exists at a time.
//
// Listeners are called with the tracker lock held and must not call back into
// the Tracker, except for the unsubscribe funcs they were given.
type Tracker struct {
	mu       sync.Mutex
	sensor   Sensor
	gateway  Gateway
	filter   Filter
	acc      *Accumulator
	hub      *Broadcaster
	session  *Recorder
	day      string
	token    uint64
	cancel   func()
	inflight sync.WaitGroup

	now         func() time.Time
	log         logrus.FieldLogger
	observer    Observer
	onError     func(error)
	syncTimeout time.Duration
}

func NewTracker(sensor Sensor, gateway Gateway, opts ...Option) *Tracker {
	t := &Tracker{
		sensor:      sensor,
		gateway:     gateway,
		filter:      DefaultFilter(),
		acc:         NewAccumulator(ActivityStats{}),
		hub:         NewBroadcaster(),
		now:         time.Now,
		log:         logrus.StandardLogger(),
		observer:    nopObserver{},
		syncTimeout: defaultSyncTimeout,
	}
	for _, opt := range opts {
		opt(t)
	}
	t.log = t.log.WithField("component", "tracker")
	return t
}

// Initialize seeds the stats from today's baseline. When the baseline cannot
// be fetched the stats start from zero. An active session is never reset.
func (t *Tracker) Initialize(ctx context.Context) {
	t.load(ctx, t.now().Format(dateLayout))
}

// Rollover re-initializes from the new day's baseline once the date has moved
// past the day the stats belong to. Sessions that cross midnight keep their
// day until they end. It reports whether the stats were reloaded.
func (t *Tracker) Rollover(ctx context.Context) bool {
	t.mu.Lock()
	today := t.now().Format(dateLayout)
	from := t.day
	stale := t.session == nil && from != "" && from != today
	t.mu.Unlock()
	if !stale {
		return false
	}

	t.log.WithFields(logrus.Fields{"from": from, "to": today}).Info("day changed, reloading baseline")
	return t.load(ctx, today)
}

func (t *Tracker) load(ctx context.Context, date string) bool {
	baseline, err := t.gateway.FetchBaseline(ctx, date)
	switch {
	case errors.Is(err, ErrNoBaseline):
		t.log.WithField("date", date).Info("no baseline stored, starting from zero")
		baseline = ActivityStats{}
	case err != nil:
		t.log.WithError(err).WithField("date", date).Warn("baseline fetch failed, starting from zero")
		t.report(err)
		baseline = ActivityStats{}
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.session != nil {
		t.log.WithField("date", date).Warn("session active, baseline not applied")
		return false
	}
	t.acc.Reset(baseline)
	t.day = date
	t.hub.NotifyStats(t.acc.Snapshot())
	return true
}

// syncDate is the day the current stats belong to. Callers hold t.mu.
func (t *Tracker) syncDate() string {
	if t.day != "" {
		return t.day
	}
	return t.now().Format(dateLayout)
}

// SubscribeStats registers fn and immediately calls it with the current
// snapshot.
func (t *Tracker) SubscribeStats(fn StatsListener) (unsubscribe func()) {
	t.mu.Lock()
	defer t.mu.Unlock()

	id := t.hub.AddStats(fn)
	fn(t.acc.Snapshot())

	var once sync.Once
	return func() { once.Do(func() { t.hub.RemoveStats(id) }) }
}

// SubscribeRawSamples registers fn for every sample the sensor delivers,
// including the ones the filter rejects.
func (t *Tracker) SubscribeRawSamples(fn SampleListener) (unsubscribe func()) {
	id := t.hub.AddSamples(fn)

	var once sync.Once
	return func() { once.Do(func() { t.hub.RemoveSamples(id) }) }
}

func (t *Tracker) Stats() ActivityStats {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.acc.Snapshot()
}

func (t *Tracker) Tracking() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.session != nil
}

// EnableTracking starts a session. It is rejected while a session is active.
// Stats left over from a previous day are replaced by today's baseline first.
func (t *Tracker) EnableTracking() {
	ctx, cancel := context.WithTimeout(context.Background(), t.syncTimeout)
	t.Rollover(ctx)
	cancel()

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.session != nil {
		t.log.Warn("tracking already enabled, ignoring")
		return
	}

	t.token++
	token := t.token
	t.session = NewRecorder(t.now())
	t.acc.ClearPosition()
	t.cancel = t.sensor.Watch(
		WatchOptions{HighAccuracy: true},
		func(s PositionSample) { t.handleSample(token, s) },
		func(err error) { t.handleSensorError(token, err) },
	)
	t.log.WithField("session", token).Info("tracking enabled")
}

// DisableTracking ends the session, saves its route when it has more than two
// points and syncs the stats. Both calls run in the background.
func (t *Tracker) DisableTracking() {
	t.mu.Lock()
	if t.session == nil {
		t.mu.Unlock()
		return
	}

	cancel := t.cancel
	t.cancel = nil
	t.token++
	if cancel != nil {
		cancel()
	}

	end := t.now()
	var route *SyncedRoute
	if t.session.Len() > minRoutePoints {
		r := t.session.Route(end)
		route = &r
	}
	date := t.syncDate()
	t.session = nil
	t.acc.ClearPosition()
	stats := t.acc.Snapshot()
	t.mu.Unlock()

	t.log.WithField("route", route != nil).Info("tracking disabled")

	t.inflight.Add(1)
	go func() {
		defer t.inflight.Done()
		ctx, cancel := context.WithTimeout(context.Background(), t.syncTimeout)
		defer cancel()

		if route != nil {
			_ = t.saveRoute(ctx, *route)
		}
		_ = t.syncStats(ctx, date, stats)
	}()
}

// SyncNow pushes the current stats and waits for the result. When idle
// after midnight it rolls over to the new day first.
func (t *Tracker) SyncNow(ctx context.Context) SyncResult {
	t.Rollover(ctx)

	t.mu.Lock()
	stats := t.acc.Snapshot()
	date := t.syncDate()
	t.mu.Unlock()

	err := t.syncStats(ctx, date, stats)
	return SyncResult{Date: date, Stats: stats, Err: err}
}

// Drain waits for background syncs started by DisableTracking.
func (t *Tracker) Drain(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		t.inflight.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (t *Tracker) handleSample(token uint64, s PositionSample) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if token != t.token || t.session == nil {
		return
	}

	verdict, d := t.filter.Check(s, t.acc.lastPosition())
	t.observer.SampleFiltered(verdict)

	switch verdict {
	case Seeded:
		t.acc.Seed(s)
		t.session.Append(s, 0)
	case Accepted:
		t.acc.Advance(s, d)
		t.session.Append(s, d)
	}

	if verdict.Accepted() {
		t.hub.NotifyStats(t.acc.Snapshot())
	}
	t.hub.NotifySample(s)
}

func (t *Tracker) handleSensorError(token uint64, err error) {
	t.mu.Lock()
	stale := token != t.token || t.session == nil
	t.mu.Unlock()
	if stale {
		return
	}

	t.log.WithError(err).Warn("sensor error")
	t.report(err)
}

func (t *Tracker) syncStats(ctx context.Context, date string, stats ActivityStats) error {
	err := t.gateway.SyncStats(ctx, date, stats)
	t.observer.SyncFinished(SyncKindStats, err)
	if err != nil {
		t.log.WithError(err).WithField("date", date).Error("stats sync failed")
		t.report(err)
	}
	return err
}

func (t *Tracker) saveRoute(ctx context.Context, route SyncedRoute) error {
	err := t.gateway.SaveRoute(ctx, route)
	t.observer.SyncFinished(SyncKindRoute, err)
	if err != nil {
		t.log.WithError(err).WithField("points", len(route.Points)).Error("route save failed")
		t.report(err)
	}
	return err
}

func (t *Tracker) report(err error) {
	if t.onError != nil {
		t.onError(err)
	}
}
