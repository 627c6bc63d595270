package tracking

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"backend-wellnesshub/internal/db"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

var ErrNotFound = errors.New("tracking: not found")

type Service struct {
	db db.Querier
}

func NewService(db db.Querier) *Service {
	return &Service{db: db}
}

// Today returns the stats stored for userID on date (YYYY-MM-DD).
func (s *Service) Today(ctx context.Context, userID, date string) (DailyActivity, error) {
	var out DailyActivity
	row := s.db.QueryRow(ctx, `
		SELECT steps, distance_m, calories, active_minutes
		FROM daily_activity
		WHERE user_id=$1 AND activity_date=$2::date
	`, userID, date)
	if err := row.Scan(&out.Steps, &out.Distance, &out.Calories, &out.ActiveTime); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return DailyActivity{}, ErrNotFound
		}
		return DailyActivity{}, err
	}
	return out, nil
}

// SyncDaily stores the stats for the given date, replacing what was there.
func (s *Service) SyncDaily(ctx context.Context, userID string, in StatsSync) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO daily_activity (user_id, activity_date, steps, distance_m, calories, active_minutes, synced_at)
		VALUES ($1, $2::date, $3, $4, $5, $6, now())
		ON CONFLICT (user_id, activity_date) DO UPDATE
		SET steps=EXCLUDED.steps, distance_m=EXCLUDED.distance_m,
		    calories=EXCLUDED.calories, active_minutes=EXCLUDED.active_minutes,
		    synced_at=EXCLUDED.synced_at
	`, userID, in.Date, in.Steps, in.Distance, in.Calories, in.ActiveTime)
	return err
}

func (s *Service) SaveRoute(ctx context.Context, userID string, in RouteSave) (Route, error) {
	points := in.RoutePoints
	if points == nil {
		points = []RoutePoint{}
	}
	encoded, err := json.Marshal(points)
	if err != nil {
		return Route{}, fmt.Errorf("encode route points: %w", err)
	}

	route := Route{
		ID:        uuid.NewString(),
		UserID:    userID,
		StartTime: in.StartTime,
		EndTime:   in.EndTime,
		Distance:  in.Distance,
		Duration:  in.Duration,
		Points:    points,
	}
	row := s.db.QueryRow(ctx, `
		INSERT INTO routes (id, user_id, started_at, ended_at, distance_m, duration_s, points)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		RETURNING created_at
	`, route.ID, userID, in.StartTime, in.EndTime, in.Distance, in.Duration, encoded)
	if err := row.Scan(&route.CreatedAt); err != nil {
		return Route{}, err
	}
	return route, nil
}

func (s *Service) Route(ctx context.Context, userID, id string) (Route, error) {
	var (
		route   Route
		encoded []byte
	)
	row := s.db.QueryRow(ctx, `
		SELECT id, user_id, started_at, ended_at, distance_m, duration_s, points, created_at
		FROM routes WHERE id=$1 AND user_id=$2
	`, id, userID)
	if err := row.Scan(&route.ID, &route.UserID, &route.StartTime, &route.EndTime, &route.Distance, &route.Duration, &encoded, &route.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Route{}, ErrNotFound
		}
		return Route{}, err
	}
	if err := json.Unmarshal(encoded, &route.Points); err != nil {
		return Route{}, fmt.Errorf("decode route points: %w", err)
	}
	return route, nil
}

func (s *Service) Summary(ctx context.Context, userID, id string) (Summary, error) {
	route, err := s.Route(ctx, userID, id)
	if err != nil {
		return Summary{}, err
	}

	avgSpeed := 0.0
	if route.Duration > 0 {
		avgSpeed = float64(route.Distance) / float64(route.Duration)
	}
	return Summary{
		RouteID:       route.ID,
		PointCount:    len(route.Points),
		DistanceM:     route.Distance,
		DurationSec:   route.Duration,
		AverageSpeedM: avgSpeed,
	}, nil
}

// Routes lists the routes started on date, oldest first, without points.
func (s *Service) Routes(ctx context.Context, userID, date string) ([]Route, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, user_id, started_at, ended_at, distance_m, duration_s, created_at
		FROM routes
		WHERE user_id=$1 AND started_at::date=$2::date
		ORDER BY started_at
	`, userID, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var routes []Route
	for rows.Next() {
		var r Route
		if err := rows.Scan(&r.ID, &r.UserID, &r.StartTime, &r.EndTime, &r.Distance, &r.Duration, &r.CreatedAt); err != nil {
			return nil, err
		}
		routes = append(routes, r)
	}
	return routes, rows.Err()
}
