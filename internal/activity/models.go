package activity

import "time"

// PositionSample is a single fix delivered by the location sensor.
type PositionSample struct {
	Latitude                 float64 `json:"latitude" validate:"gte=-90,lte=90"`
	Longitude                float64 `json:"longitude" validate:"gte=-180,lte=180"`
	TimestampMs              int64   `json:"timestamp_ms" validate:"gt=0"`
	HorizontalAccuracyMeters float64 `json:"horizontal_accuracy_m" validate:"gte=0"`
}

// ActivityStats is the cumulative activity for the current day.
type ActivityStats struct {
	Steps          uint64  `json:"steps"`
	DistanceMeters float64 `json:"distance_m"`
	Calories       float64 `json:"calories"`
	ActiveMinutes  float64 `json:"active_minutes"`
}

type RoutePoint struct {
	Latitude    float64 `json:"lat"`
	Longitude   float64 `json:"lng"`
	TimestampMs int64   `json:"timestamp"`
}

// SyncedRoute is the persisted form of a finished session.
type SyncedRoute struct {
	StartTime       time.Time    `json:"start_time"`
	EndTime         time.Time    `json:"end_time"`
	DistanceMeters  uint64       `json:"distance_m"`
	DurationSeconds uint64       `json:"duration_s"`
	Points          []RoutePoint `json:"points"`
}

// SyncResult reports the outcome of an explicit stats sync.
type SyncResult struct {
	Date  string        `json:"date"`
	Stats ActivityStats `json:"stats"`
	Err   error         `json:"-"`
}

func (r SyncResult) OK() bool {
	return r.Err == nil
}

type position struct {
	lat, lng    float64
	timestampMs int64
}
