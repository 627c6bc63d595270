package activity

import (
	"testing"

	"backend-wellnesshub/internal/shared/geo"

	"github.com/stretchr/testify/assert"
)

func TestFilterAccuracyGate(t *testing.T) {
	f := DefaultFilter()
	last := &position{lat: 0, lng: 0}

	v, d := f.Check(PositionSample{Longitude: 0.01, HorizontalAccuracyMeters: 50}, last)
	assert.Equal(t, RejectedAccuracy, v)
	assert.Zero(t, d)

	v, _ = f.Check(PositionSample{Longitude: 0.01, HorizontalAccuracyMeters: 30}, last)
	assert.Equal(t, Accepted, v, "threshold itself passes")
}

func TestFilterFirstSampleSeeds(t *testing.T) {
	v, d := DefaultFilter().Check(PositionSample{Latitude: 1, Longitude: 1, HorizontalAccuracyMeters: 3}, nil)
	assert.Equal(t, Seeded, v)
	assert.True(t, v.Accepted())
	assert.Zero(t, d)
}

func TestFilterMovementGate(t *testing.T) {
	f := DefaultFilter()
	last := &position{lat: 0, lng: 0}

	// ~3.3m east
	v, d := f.Check(PositionSample{Longitude: 0.00003, HorizontalAccuracyMeters: 5}, last)
	assert.Equal(t, RejectedMovement, v)
	assert.False(t, v.Accepted())
	assert.Zero(t, d)

	v, d = f.Check(PositionSample{Longitude: 0.0001, HorizontalAccuracyMeters: 5}, last)
	assert.Equal(t, Accepted, v)
	assert.InDelta(t, geo.Distance(0, 0, 0, 0.0001), d, 1e-9)
}

func TestFilterCustomThresholds(t *testing.T) {
	f := Filter{AccuracyThresholdM: 10, MinMovementM: 20}
	last := &position{}

	v, _ := f.Check(PositionSample{Longitude: 0.001, HorizontalAccuracyMeters: 15}, last)
	assert.Equal(t, RejectedAccuracy, v)

	v, _ = f.Check(PositionSample{Longitude: 0.0001, HorizontalAccuracyMeters: 5}, last)
	assert.Equal(t, RejectedMovement, v)
}

func TestVerdictString(t *testing.T) {
	assert.Equal(t, "seeded", Seeded.String())
	assert.Equal(t, "accepted", Accepted.String())
	assert.Equal(t, "rejected_accuracy", RejectedAccuracy.String())
	assert.Equal(t, "rejected_movement", RejectedMovement.String())
	assert.Equal(t, "unknown", Verdict(42).String())
}
