package tracking

import "time"

// DailyActivity is the stored stats row returned by GET /activity/today.
type DailyActivity struct {
	Steps      int64 `json:"steps"`
	Distance   int64 `json:"distance"`
	Calories   int64 `json:"calories"`
	ActiveTime int64 `json:"activeTime"`
}

// StatsSync is the body of POST /activity/sync. Distance is in meters and
// ActiveTime in minutes.
type StatsSync struct {
	Date       string `json:"date" validate:"required,datetime=2006-01-02"`
	Steps      int64  `json:"steps" validate:"gte=0"`
	Distance   int64  `json:"distance" validate:"gte=0"`
	Calories   int64  `json:"calories" validate:"gte=0"`
	ActiveTime int64  `json:"activeTime" validate:"gte=0"`
}

type RoutePoint struct {
	Lat       float64 `json:"lat" validate:"gte=-90,lte=90"`
	Lng       float64 `json:"lng" validate:"gte=-180,lte=180"`
	Timestamp int64   `json:"timestamp"`
}

// RouteSave is the body of POST /routes. Distance is in meters and Duration
// in seconds.
type RouteSave struct {
	StartTime   time.Time    `json:"startTime" validate:"required"`
	EndTime     time.Time    `json:"endTime" validate:"required,gtefield=StartTime"`
	Distance    int64        `json:"distance" validate:"gte=0"`
	Duration    int64        `json:"duration" validate:"gte=0"`
	RoutePoints []RoutePoint `json:"routePoints" validate:"dive"`
}

type Route struct {
	ID        string       `json:"id"`
	UserID    string       `json:"user_id"`
	StartTime time.Time    `json:"startTime"`
	EndTime   time.Time    `json:"endTime"`
	Distance  int64        `json:"distance"`
	Duration  int64        `json:"duration"`
	Points    []RoutePoint `json:"routePoints"`
	CreatedAt time.Time    `json:"created_at"`
}

type Summary struct {
	RouteID       string  `json:"route_id"`
	PointCount    int     `json:"point_count"`
	DistanceM     int64   `json:"distance_m"`
	DurationSec   int64   `json:"duration_sec"`
	AverageSpeedM float64 `json:"average_speed_mps"`
}
