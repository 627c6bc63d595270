package activity

import (
	"math"
	"time"
)

// Recorder buffers the accepted points of one tracking session.
type Recorder struct {
	startTime time.Time
	points    []RoutePoint
	distanceM float64
}

func NewRecorder(start time.Time) *Recorder {
	return &Recorder{startTime: start}
}

// Append adds an accepted sample together with the distance it contributed.
func (r *Recorder) Append(s PositionSample, d float64) {
	r.points = append(r.points, RoutePoint{
		Latitude:    s.Latitude,
		Longitude:   s.Longitude,
		TimestampMs: s.TimestampMs,
	})
	r.distanceM += d
}

func (r *Recorder) Len() int {
	return len(r.points)
}

func (r *Recorder) StartTime() time.Time {
	return r.startTime
}

// Route builds the persisted form of the session ending at end.
func (r *Recorder) Route(end time.Time) SyncedRoute {
	points := make([]RoutePoint, len(r.points))
	copy(points, r.points)

	duration := end.Sub(r.startTime)
	if duration < 0 {
		duration = 0
	}
	return SyncedRoute{
		StartTime:       r.startTime,
		EndTime:         end,
		DistanceMeters:  uint64(math.Floor(r.distanceM)),
		DurationSeconds: uint64(duration / time.Second),
		Points:          points,
	}
}
