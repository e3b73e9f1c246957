package motioncore

import (
	"math"
	"time"
)

// TrackedObject is the identity record for one moving blob, tracked by an
// ObjectTracker across frames. Classification is deliberately not a field
// here: it is carried in ObjectTracker's classification side table, keyed
// by ID, so a tracker configured without a classifier never touches it
// (see SPEC_FULL.md §4.6).
type TrackedObject struct {
	ID   int
	UUID string

	CurrentBounds Rect

	// Trajectory is a bounded FIFO of smoothed centers, oldest first,
	// capped at max_trajectory_points. It always holds at least one point
	// for a live tracker: the center it was created with.
	Trajectory []Point

	SmoothedCenter Point
	Confidence     float64

	FramesWithoutDetection int
	FirstSeen              time.Time
}

// newTrackedObject creates a tracker rooted at bounds, with initial
// confidence fixed at 0.5 (see DESIGN.md's resolution of the
// confidence-initialization open question).
func newTrackedObject(id int, uuid string, bounds Rect, now time.Time) *TrackedObject {
	center := bounds.Center()
	return &TrackedObject{
		ID:             id,
		UUID:           uuid,
		CurrentBounds:  bounds,
		Trajectory:     []Point{center},
		SmoothedCenter: center,
		Confidence:     0.5,
		FirstSeen:      now,
	}
}

// applyMatch updates the tracker with a newly-matched detection: it sets
// current_bounds, advances the EMA-smoothed center, and appends to the
// trajectory, dropping the oldest point past maxTrajectoryPoints.
func (t *TrackedObject) applyMatch(bounds Rect, alpha float64, maxTrajectoryPoints int) {
	rawCenter := bounds.Center()
	t.CurrentBounds = bounds
	t.SmoothedCenter = Point{
		X: int(alpha*float64(t.SmoothedCenter.X) + (1-alpha)*float64(rawCenter.X)),
		Y: int(alpha*float64(t.SmoothedCenter.Y) + (1-alpha)*float64(rawCenter.Y)),
	}
	t.Trajectory = append(t.Trajectory, t.SmoothedCenter)
	if len(t.Trajectory) > maxTrajectoryPoints {
		t.Trajectory = t.Trajectory[len(t.Trajectory)-maxTrajectoryPoints:]
	}
	t.FramesWithoutDetection = 0
}

// updateConfidence recomputes confidence from the motion-similarity
// formula once the trajectory holds at least three points (two consecutive
// displacements); otherwise
// confidence is left unchanged (a fresh tracker keeps its creation value).
func (t *TrackedObject) updateConfidence() {
	n := len(t.Trajectory)
	if n < 3 {
		return
	}
	prev := displacement(t.Trajectory[n-3], t.Trajectory[n-2])
	curr := displacement(t.Trajectory[n-2], t.Trajectory[n-1])
	similarity := cosineSimilarity2D(prev, curr)
	normalized := (similarity + 1) / 2
	t.Confidence = 0.7*t.Confidence + 0.3*normalized
}

type vector2D struct{ X, Y float64 }

func displacement(a, b Point) vector2D {
	return vector2D{X: float64(b.X - a.X), Y: float64(b.Y - a.Y)}
}

func cosineSimilarity2D(a, b vector2D) float64 {
	dot := a.X*b.X + a.Y*b.Y
	magA := mag2D(a)
	magB := mag2D(b)
	if magA == 0 || magB == 0 {
		return 0
	}
	return dot / (magA * magB)
}

func mag2D(v vector2D) float64 {
	return math.Sqrt(v.X*v.X + v.Y*v.Y)
}
