package activity

import "math"

const (
	StrideLengthM   = 0.762
	CaloriesPerStep = 0.04

	// gaps of this many minutes or more count as a pause
	pauseMinutes = 5.0
)

// Accumulator owns the live ActivityStats and the last accepted position.
type Accumulator struct {
	stats ActivityStats
	last  *position
}

func NewAccumulator(baseline ActivityStats) *Accumulator {
	a := &Accumulator{}
	a.Reset(baseline)
	return a
}

// Reset replaces the stats with baseline, clamping negative fields to zero,
// and forgets the last accepted position.
func (a *Accumulator) Reset(baseline ActivityStats) {
	a.stats = ActivityStats{
		Steps:          baseline.Steps,
		DistanceMeters: nonNegative(baseline.DistanceMeters),
		Calories:       nonNegative(baseline.Calories),
		ActiveMinutes:  nonNegative(baseline.ActiveMinutes),
	}
	a.last = nil
}

func (a *Accumulator) ClearPosition() {
	a.last = nil
}

func (a *Accumulator) lastPosition() *position {
	return a.last
}

// Seed records s as the last accepted position without adding any distance.
func (a *Accumulator) Seed(s PositionSample) {
	a.last = &position{lat: s.Latitude, lng: s.Longitude, timestampMs: s.TimestampMs}
}

// Advance applies an accepted delta of d meters ending at s.
func (a *Accumulator) Advance(s PositionSample, d float64) {
	if d < 0 || math.IsNaN(d) {
		d = 0
	}
	stepsDelta := uint64(math.Floor(d / StrideLengthM))

	next := a.stats
	next.DistanceMeters += d
	next.Steps += stepsDelta
	next.Calories += float64(stepsDelta) * CaloriesPerStep
	if a.last != nil {
		minutes := float64(s.TimestampMs-a.last.timestampMs) / 60000
		if minutes > 0 && minutes < pauseMinutes {
			next.ActiveMinutes += minutes
		}
	}

	a.stats = next
	a.Seed(s)
}

// Snapshot returns a copy of the current stats.
func (a *Accumulator) Snapshot() ActivityStats {
	return a.stats
}

func nonNegative(v float64) float64 {
	if v < 0 || math.IsNaN(v) {
		return 0
	}
	return v
}
