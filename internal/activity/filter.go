package activity

import "backend-wellnesshub/internal/shared/geo"

const (
	DefaultAccuracyThresholdM = 30.0
	DefaultMinMovementM       = 5.0
)

// Verdict is the outcome of running a sample through the Filter.
type Verdict int

const (
	// Seeded means the sample was accepted as the first fix of a session.
	Seeded Verdict = iota
	Accepted
	RejectedAccuracy
	RejectedMovement
)

func (v Verdict) String() string {
	switch v {
	case Seeded:
		return "seeded"
	case Accepted:
		return "accepted"
	case RejectedAccuracy:
		return "rejected_accuracy"
	case RejectedMovement:
		return "rejected_movement"
	default:
		return "unknown"
	}
}

// Accepted reports whether the sample passed both gates.
func (v Verdict) Accepted() bool {
	return v == Seeded || v == Accepted
}

// Filter holds the two gate thresholds. It keeps no state between samples.
type Filter struct {
	AccuracyThresholdM float64
	MinMovementM       float64
}

func DefaultFilter() Filter {
	return Filter{
		AccuracyThresholdM: DefaultAccuracyThresholdM,
		MinMovementM:       DefaultMinMovementM,
	}
}

// Check runs the accuracy gate and then the movement gate against last, the
// last accepted position (nil when the session has none yet). The returned
// distance is the delta from last and is zero unless the verdict is Accepted.
func (f Filter) Check(s PositionSample, last *position) (Verdict, float64) {
	if s.HorizontalAccuracyMeters > f.AccuracyThresholdM {
		return RejectedAccuracy, 0
	}
	if last == nil {
		return Seeded, 0
	}
	d := geo.Distance(last.lat, last.lng, s.Latitude, s.Longitude)
	if d < f.MinMovementM {
		return RejectedMovement, 0
	}
	return Accepted, d
}
