package activity

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccumulatorStepsAndCalories(t *testing.T) {
	acc := NewAccumulator(ActivityStats{})
	acc.Seed(PositionSample{TimestampMs: 1000})

	acc.Advance(PositionSample{Longitude: 0.0001, TimestampMs: 2000}, 11.12)
	got := acc.Snapshot()
	wantSteps := uint64(math.Floor(11.12 / StrideLengthM))
	assert.Equal(t, wantSteps, got.Steps)
	assert.InDelta(t, float64(wantSteps)*CaloriesPerStep, got.Calories, 1e-9)
	assert.InDelta(t, 11.12, got.DistanceMeters, 1e-9)

	acc.Advance(PositionSample{Longitude: 0.0002, TimestampMs: 3000}, 0.7)
	after := acc.Snapshot()
	assert.Equal(t, wantSteps, after.Steps, "a delta shorter than a stride adds no steps")
	assert.InDelta(t, 11.82, after.DistanceMeters, 1e-9)
}

func TestAccumulatorActiveMinutes(t *testing.T) {
	acc := NewAccumulator(ActivityStats{ActiveMinutes: 1})
	acc.Seed(PositionSample{TimestampMs: 0})

	acc.Advance(PositionSample{TimestampMs: 10 * 60000}, 10)
	assert.InDelta(t, 1, acc.Snapshot().ActiveMinutes, 1e-9, "10 minute gap is a pause")

	acc.Advance(PositionSample{TimestampMs: 12 * 60000}, 10)
	assert.InDelta(t, 3, acc.Snapshot().ActiveMinutes, 1e-9)

	acc.Advance(PositionSample{TimestampMs: 17 * 60000}, 10)
	assert.InDelta(t, 3, acc.Snapshot().ActiveMinutes, 1e-9, "exactly 5 minutes is a pause")

	acc.Advance(PositionSample{TimestampMs: 16 * 60000}, 10)
	assert.InDelta(t, 3, acc.Snapshot().ActiveMinutes, 1e-9, "going back in time adds nothing")
}

func TestAccumulatorResetClampsAndClearsPosition(t *testing.T) {
	acc := NewAccumulator(ActivityStats{Steps: 10, DistanceMeters: -5, Calories: math.NaN(), ActiveMinutes: 4})
	acc.Seed(PositionSample{Latitude: 1})
	require.NotNil(t, acc.lastPosition())

	acc.Reset(ActivityStats{Steps: 7, DistanceMeters: 3, Calories: -1, ActiveMinutes: -2})
	assert.Nil(t, acc.lastPosition())
	assert.Equal(t, ActivityStats{Steps: 7, DistanceMeters: 3}, acc.Snapshot())
}

func TestAccumulatorSnapshotIsCopy(t *testing.T) {
	acc := NewAccumulator(ActivityStats{Steps: 3})
	snap := acc.Snapshot()
	snap.Steps = 1000
	assert.Equal(t, uint64(3), acc.Snapshot().Steps)
}

func TestAccumulatorIgnoresNegativeDelta(t *testing.T) {
	acc := NewAccumulator(ActivityStats{DistanceMeters: 5})
	acc.Advance(PositionSample{}, -3)
	assert.InDelta(t, 5, acc.Snapshot().DistanceMeters, 1e-9)
}
