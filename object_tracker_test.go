package motioncore

import "testing"

func newTestObjectTracker(t *testing.T) *ObjectTracker {
	t.Helper()
	cfg := DefaultTrackerConfig()
	ot, err := NewObjectTracker(cfg, nil, nil)
	if err != nil {
		t.Fatalf("NewObjectTracker: %v", err)
	}
	return ot
}

func TestObjectTracker_IdentityStability(t *testing.T) {
	ot := newTestObjectTracker(t)
	bounds := NewRect(100, 100, 50, 50)

	const frames = 5
	var result TrackingResult
	for i := 0; i < frames; i++ {
		result = ot.Track([]Rect{bounds}, EmptyFrame())
	}

	if len(result.Tracked) != 1 {
		t.Fatalf("got %d trackers, want exactly 1", len(result.Tracked))
	}
	tracked := result.Tracked[0]
	if tracked.CurrentBounds != bounds {
		t.Errorf("CurrentBounds = %v, want %v", tracked.CurrentBounds, bounds)
	}
	if len(tracked.Trajectory) != frames {
		t.Errorf("trajectory length = %d, want %d", len(tracked.Trajectory), frames)
	}
	if len(result.LostIDs) != 0 {
		t.Errorf("LostIDs = %v, want empty", result.LostIDs)
	}
}

func TestObjectTracker_FirstMatchConfidence(t *testing.T) {
	ot := newTestObjectTracker(t)
	bounds := NewRect(100, 100, 50, 50)

	result := ot.Track([]Rect{bounds}, EmptyFrame())
	if len(result.Tracked) != 1 {
		t.Fatalf("got %d trackers, want 1", len(result.Tracked))
	}
	if result.Tracked[0].ID != 0 {
		t.Errorf("first tracker id = %d, want 0", result.Tracked[0].ID)
	}
	if result.Tracked[0].Confidence != 0.5 {
		t.Errorf("first tracker confidence = %f, want 0.5", result.Tracked[0].Confidence)
	}
	if len(result.Tracked[0].Trajectory) != 1 {
		t.Errorf("first tracker trajectory length = %d, want 1", len(result.Tracked[0].Trajectory))
	}
}

func TestObjectTracker_LostSemantics(t *testing.T) {
	ot := newTestObjectTracker(t)
	bounds := NewRect(100, 100, 50, 50)

	for i := 0; i < 15; i++ {
		ot.Track([]Rect{bounds}, EmptyFrame())
	}

	result := ot.Track(nil, EmptyFrame())
	if len(result.LostIDs) != 1 || result.LostIDs[0] != 0 {
		t.Fatalf("LostIDs = %v, want [0]", result.LostIDs)
	}
	if len(result.Tracked) != 0 {
		t.Errorf("Tracked = %v, want empty after loss", result.Tracked)
	}

	again := ot.Track(nil, EmptyFrame())
	if len(again.LostIDs) != 0 {
		t.Errorf("LostIDs on the frame after loss = %v, want empty (emitted once)", again.LostIDs)
	}
}

func TestObjectTracker_NoDuplicateIDs(t *testing.T) {
	ot := newTestObjectTracker(t)
	result := ot.Track([]Rect{
		NewRect(0, 0, 20, 20),
		NewRect(500, 500, 20, 20),
	}, EmptyFrame())

	seen := make(map[int]bool)
	for _, tr := range result.Tracked {
		if seen[tr.ID] {
			t.Errorf("duplicate tracker id %d", tr.ID)
		}
		seen[tr.ID] = true
	}
}

func TestObjectTracker_SpatialMerge(t *testing.T) {
	cfg := DefaultTrackerConfig()
	cfg.SpatialMerging = true
	cfg.SpatialMergeDistance = 40
	ot, err := NewObjectTracker(cfg, nil, nil)
	if err != nil {
		t.Fatalf("NewObjectTracker: %v", err)
	}

	bounds := []Rect{
		NewRect(100, 100, 40, 40),
		NewRect(130, 110, 40, 40),
	}

	var result TrackingResult
	for i := 0; i < 5; i++ {
		result = ot.Track(bounds, EmptyFrame())
	}

	if len(result.Tracked) != 1 {
		t.Errorf("got %d trackers with spatial merging enabled, want 1 (merged)", len(result.Tracked))
	}
}

func TestObjectTracker_SetTrackedSeeding(t *testing.T) {
	ot := newTestObjectTracker(t)
	seeded := []TrackedObject{
		{ID: 7, UUID: "seed-uuid", CurrentBounds: NewRect(0, 0, 10, 10), Trajectory: []Point{{X: 5, Y: 5}}, Confidence: 0.9},
	}
	ot.SetTracked(seeded)

	got, ok := ot.FindByID(7)
	if !ok {
		t.Fatalf("FindByID(7) not found after SetTracked")
	}
	if got.Confidence != 0.9 {
		t.Errorf("seeded tracker confidence = %f, want 0.9", got.Confidence)
	}

	result := ot.Track([]Rect{NewRect(1, 1, 10, 10)}, EmptyFrame())
	for _, tr := range result.Tracked {
		if tr.ID < 7 {
			t.Errorf("tracker id %d reuses an id below the seeded max 7", tr.ID)
		}
	}
}
