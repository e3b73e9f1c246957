package motioncore

import "testing"

func newTestConsolidator(t *testing.T, cfg RegionConfig) *RegionConsolidator {
	t.Helper()
	rc, err := NewRegionConsolidator(cfg, nil)
	if err != nil {
		t.Fatalf("NewRegionConsolidator: %v", err)
	}
	return rc
}

func trackerAt(id int, r Rect) TrackedObject {
	return TrackedObject{ID: id, CurrentBounds: r, Trajectory: []Point{r.Center()}, Confidence: 1}
}

func TestRegionConsolidator_DistanceSymmetry(t *testing.T) {
	rc := newTestConsolidator(t, DefaultRegionConfig())
	pairs := []struct{ a, b Rect }{
		{NewRect(0, 0, 50, 50), NewRect(100, 100, 50, 50)},
		{NewRect(0, 0, 50, 50), NewRect(25, 25, 50, 50)},
		{NewRect(0, 0, 50, 50), NewRect(10, 0, 50, 50)},
		{NewRect(0, 0, 10, 10), NewRect(0, 0, 10, 10)},
	}
	for _, p := range pairs {
		d1 := rc.distance(p.a, p.b)
		d2 := rc.distance(p.b, p.a)
		if d1 != d2 {
			t.Errorf("distance(%v,%v)=%f != distance(%v,%v)=%f", p.a, p.b, d1, p.b, p.a, d2)
		}
	}
}

func TestRegionConsolidator_SinglePointNoRegion(t *testing.T) {
	cfg := DefaultRegionConfig()
	cfg.MinPts = 2
	rc := newTestConsolidator(t, cfg)

	trackers := []TrackedObject{trackerAt(0, NewRect(100, 100, 50, 50))}
	regions := rc.Consolidate(trackers, Rect{})
	if len(regions) != 0 {
		t.Errorf("Consolidate with one tracker and min_pts=2 = %v, want no regions", regions)
	}
}

func TestRegionConsolidator_TwoCloseBlobsOneRegion(t *testing.T) {
	cfg := DefaultRegionConfig()
	// The two blobs are 50px apart with no overlap: overlap_component is
	// pinned to max_edge_distance (200) whenever area(intersection)==0, so
	// eps must clear overlap_weight*200 + edge_weight*gap for them to
	// cluster under the default weights.
	cfg.Eps = 160
	cfg.MinPts = 2
	cfg.RegionExpansionFactor = 1.0
	rc := newTestConsolidator(t, cfg)

	trackers := []TrackedObject{
		trackerAt(0, NewRect(100, 100, 50, 50)),
		trackerAt(1, NewRect(200, 100, 50, 50)),
	}

	var regions []ConsolidatedRegion
	for i := 0; i < 3; i++ {
		regions = rc.Consolidate(trackers, Rect{})
	}

	if len(regions) != 1 {
		t.Fatalf("got %d regions, want 1: %v", len(regions), regions)
	}
	want := NewRect(100, 100, 150, 50)
	if regions[0].BoundingBox != want {
		t.Errorf("BoundingBox = %v, want %v", regions[0].BoundingBox, want)
	}
	if len(regions[0].MemberIDs) != 2 {
		t.Errorf("MemberIDs = %v, want both trackers", regions[0].MemberIDs)
	}
}

func TestRegionConsolidator_Staleness(t *testing.T) {
	cfg := DefaultRegionConfig()
	cfg.Eps = 160
	cfg.MinPts = 2
	cfg.MaxFramesWithoutUpdate = 3
	rc := newTestConsolidator(t, cfg)

	trackers := []TrackedObject{
		trackerAt(0, NewRect(100, 100, 50, 50)),
		trackerAt(1, NewRect(200, 100, 50, 50)),
	}
	regions := rc.Consolidate(trackers, Rect{})
	if len(regions) != 1 {
		t.Fatalf("setup: got %d regions, want 1", len(regions))
	}

	for i := 0; i <= cfg.MaxFramesWithoutUpdate; i++ {
		regions = rc.Consolidate(nil, Rect{})
	}
	if len(regions) != 0 {
		t.Errorf("regions after %d empty frames = %v, want gone", cfg.MaxFramesWithoutUpdate+1, regions)
	}
}

func TestRegionConsolidator_AbsorbingMerge(t *testing.T) {
	cfg := DefaultRegionConfig()
	cfg.Eps = 10
	cfg.MinPts = 2
	cfg.RegionExpansionFactor = 1.0
	rc := newTestConsolidator(t, cfg)

	// Frame 1: ids 0,1 form a dense cluster -> one region at (0,0,20,20).
	original := NewRect(0, 0, 20, 20)
	regions := rc.Consolidate([]TrackedObject{trackerAt(0, original), trackerAt(1, original)}, Rect{})
	if len(regions) != 1 || regions[0].BoundingBox != original {
		t.Fatalf("setup region: got %v, want one region at %v", regions, original)
	}

	// Frame 2: ids 0,1 are gone; the region persists (not yet stale) with
	// its last-known box and member ids.
	regions = rc.Consolidate(nil, Rect{})
	if len(regions) != 1 {
		t.Fatalf("region should survive one frame without members: got %v", regions)
	}

	// Frame 3: a brand new cluster {2,3} whose bounding box overlaps the
	// stale region's box.
	overlapping := NewRect(10, 10, 20, 20)
	regions = rc.Consolidate([]TrackedObject{trackerAt(2, overlapping), trackerAt(3, overlapping)}, Rect{})

	if len(regions) != 1 {
		t.Fatalf("got %d regions after overlapping cluster, want 1 merged region: %v", len(regions), regions)
	}
	want := original.Union(overlapping)
	if regions[0].BoundingBox != want {
		t.Errorf("merged BoundingBox = %v, want union %v", regions[0].BoundingBox, want)
	}
}

func TestRegionConsolidator_NoiseAbsorbedIntoOverlappingRegion(t *testing.T) {
	cfg := DefaultRegionConfig()
	cfg.Eps = 10
	cfg.MinPts = 2
	cfg.RegionExpansionFactor = 1.0
	rc := newTestConsolidator(t, cfg)

	// Frame 1: ids 0,1 form a dense cluster -> one region at (0,0,20,20).
	original := NewRect(0, 0, 20, 20)
	regions := rc.Consolidate([]TrackedObject{trackerAt(0, original), trackerAt(1, original)}, Rect{})
	if len(regions) != 1 {
		t.Fatalf("setup region: got %v, want one region", regions)
	}

	// Frame 2: a lone tracker (id=2) overlapping the region's box, with no
	// neighbor within eps, is noise under min_pts=2. It should be absorbed
	// as a singleton member of the overlapping region rather than dropped
	// or promoted into a region of its own.
	overlapping := NewRect(10, 10, 20, 20)
	regions = rc.Consolidate([]TrackedObject{trackerAt(0, original), trackerAt(2, overlapping)}, Rect{})

	if len(regions) != 1 {
		t.Fatalf("got %d regions after absorbing noise point, want 1: %v", len(regions), regions)
	}
	if !regions[0].hasMember(2) {
		t.Errorf("MemberIDs = %v, want absorbed noise id 2 present", regions[0].MemberIDs)
	}
	if regions[0].FramesSinceUpdate != 0 {
		t.Errorf("FramesSinceUpdate = %d, want 0 after absorbing a bordering noise point", regions[0].FramesSinceUpdate)
	}
	want := original.Union(overlapping)
	if regions[0].BoundingBox != want {
		t.Errorf("BoundingBox = %v, want union %v", regions[0].BoundingBox, want)
	}
}

func TestRegionConsolidator_NoiseNeverCreatesOwnRegion(t *testing.T) {
	cfg := DefaultRegionConfig()
	cfg.Eps = 10
	cfg.MinPts = 2
	rc := newTestConsolidator(t, cfg)

	// A single tracker far from anything else is noise under min_pts=2 and,
	// with no existing region to border, must produce no region at all.
	regions := rc.Consolidate([]TrackedObject{trackerAt(0, NewRect(500, 500, 20, 20))}, Rect{})
	if len(regions) != 0 {
		t.Errorf("got %d regions from a lone noise point, want 0: %v", len(regions), regions)
	}
}

func TestRegionConsolidator_BoundingBoxClipped(t *testing.T) {
	cfg := DefaultRegionConfig()
	cfg.Eps = 200
	cfg.MinPts = 1
	cfg.RegionExpansionFactor = 2.0
	rc := newTestConsolidator(t, cfg)

	trackers := []TrackedObject{trackerAt(0, NewRect(5, 5, 20, 20))}
	frameRect := NewRect(0, 0, 30, 30)
	regions := rc.Consolidate(trackers, frameRect)
	if len(regions) == 0 {
		// A point counts toward its own min_pts, so a lone tracker with
		// min_pts=1 already forms a cluster and this branch is not taken;
		// it only seeds a second tracker as a fallback so a cluster forms
		// to exercise clipping.
		trackers = append(trackers, trackerAt(1, NewRect(6, 6, 20, 20)))
		regions = rc.Consolidate(trackers, frameRect)
	}
	if len(regions) == 0 {
		t.Fatalf("expected at least one region to test clipping")
	}
	box := regions[0].BoundingBox
	if !frameRect.Contains(box) {
		t.Errorf("BoundingBox = %v not contained in frame %v", box, frameRect)
	}
}
