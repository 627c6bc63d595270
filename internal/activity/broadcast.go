package activity

import "sync"

type (
	StatsListener  func(ActivityStats)
	SampleListener func(PositionSample)
)

// Broadcaster keeps the stats and raw-sample listener registries. Listeners
// run synchronously in registration order, outside the registry lock, so a
// listener may remove itself while being notified.
type Broadcaster struct {
	mu      sync.Mutex
	nextID  uint64
	stats   []statsEntry
	samples []sampleEntry
}

type statsEntry struct {
	id uint64
	fn StatsListener
}

type sampleEntry struct {
	id uint64
	fn SampleListener
}

func NewBroadcaster() *Broadcaster {
	return &Broadcaster{}
}

// AddStats registers fn and returns the id used to remove it.
func (b *Broadcaster) AddStats(fn StatsListener) uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	b.stats = append(b.stats, statsEntry{id: b.nextID, fn: fn})
	return b.nextID
}

func (b *Broadcaster) AddSamples(fn SampleListener) uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	b.samples = append(b.samples, sampleEntry{id: b.nextID, fn: fn})
	return b.nextID
}

func (b *Broadcaster) RemoveStats(id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for i, e := range b.stats {
		if e.id == id {
			b.stats = append(b.stats[:i:i], b.stats[i+1:]...)
			return
		}
	}
}

func (b *Broadcaster) RemoveSamples(id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for i, e := range b.samples {
		if e.id == id {
			b.samples = append(b.samples[:i:i], b.samples[i+1:]...)
			return
		}
	}
}

// NotifyStats passes snapshot by value, so listeners only ever see a copy.
func (b *Broadcaster) NotifyStats(snapshot ActivityStats) {
	for _, e := range b.listStats() {
		e.fn(snapshot)
	}
}

func (b *Broadcaster) NotifySample(s PositionSample) {
	for _, e := range b.listSamples() {
		e.fn(s)
	}
}

func (b *Broadcaster) StatsListeners() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	return len(b.stats)
}

func (b *Broadcaster) SampleListeners() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	return len(b.samples)
}

func (b *Broadcaster) listStats() []statsEntry {
	b.mu.Lock()
	defer b.mu.Unlock()

	return append([]statsEntry(nil), b.stats...)
}

func (b *Broadcaster) listSamples() []sampleEntry {
	b.mu.Lock()
	defer b.mu.Unlock()

	return append([]sampleEntry(nil), b.samples...)
}
