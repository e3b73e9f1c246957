package motioncore

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/mat"

	"github.com/motioncore/motioncore/internal/scipy"
)

// ObjectTracker gives each moving blob a stable identity across frames. It
// owns the live TrackedObject set exclusively; RegionConsolidator and any
// other downstream stage only ever sees snapshots returned by Track.
//
// An ObjectTracker is not safe for concurrent use.
type ObjectTracker struct {
	config     TrackerConfig
	logger     *onceLogger
	classifier Classifier

	trackers []*TrackedObject
	nextID   int

	// classifications is the side table Design Notes calls for: keyed by
	// tracker id, populated only for trackers a classifier actually ran
	// against, so a build with EnableClassification=false never touches it.
	classifications map[int]ClassificationResult

	// recentBounds is a bounded deque of accepted bounds from the last
	// motion_history_frames calls, oldest first, used by motion clustering
	// to find each rect's counterpart in the previous frame.
	recentBounds [][]Rect

	newUUID func() string
	now     func() time.Time
}

// NewObjectTracker validates cfg and constructs an ObjectTracker. A nil
// classifier disables classification regardless of
// cfg.EnableClassification. A nil logger defaults to DefaultLogger().
func NewObjectTracker(cfg TrackerConfig, logger Logger, classifier Classifier) (*ObjectTracker, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = DefaultLogger()
	}
	return &ObjectTracker{
		config:           cfg,
		logger:           newOnceLogger(logger),
		classifier:       classifier,
		classifications:  make(map[int]ClassificationResult),
		newUUID:          func() string { return uuid.New().String() },
		now:              time.Now,
	}, nil
}

// Config returns the tracker's immutable configuration.
func (o *ObjectTracker) Config() TrackerConfig {
	return o.config
}

// FindByID returns a snapshot copy of the live tracker with the given id.
func (o *ObjectTracker) FindByID(id int) (TrackedObject, bool) {
	for _, t := range o.trackers {
		if t.ID == id {
			return *t, true
		}
	}
	return TrackedObject{}, false
}

// Classification returns the side-table classification for id, if one was
// ever recorded.
func (o *ObjectTracker) Classification(id int) (ClassificationResult, bool) {
	c, ok := o.classifications[id]
	return c, ok
}

// SetTracked replaces the live tracker set wholesale, for test seeding: it
// lets a test jump straight to "K trackers already live" without replaying
// K frames of Track calls. recentBounds and the classification side table
// are left untouched.
func (o *ObjectTracker) SetTracked(objects []TrackedObject) {
	o.trackers = make([]*TrackedObject, len(objects))
	maxID := -1
	for i := range objects {
		obj := objects[i]
		o.trackers[i] = &obj
		if obj.ID > maxID {
			maxID = obj.ID
		}
	}
	if maxID >= o.nextID {
		o.nextID = maxID + 1
	}
}

// ClearLost discards the classification side-table entries for any id no
// longer present among the live trackers, for test seeding that wants a
// clean slate between scenarios.
func (o *ObjectTracker) ClearLost() {
	live := make(map[int]bool, len(o.trackers))
	for _, t := range o.trackers {
		live[t.ID] = true
	}
	for id := range o.classifications {
		if !live[id] {
			delete(o.classifications, id)
		}
	}
}

// Track matches bounds against the live tracker set, updates matched
// trackers, creates trackers for unmatched bounds, and removes trackers
// that went unmatched or fell below min_tracking_confidence. frame is used
// only to crop newly-created trackers for classification.
func (o *ObjectTracker) Track(bounds []Rect, frame Frame) TrackingResult {
	working := o.applyPreMatchFilters(bounds)

	boundForTracker, trackerForBound := o.greedyMatch(working)

	for ti, bi := range boundForTracker {
		t := o.trackers[ti]
		t.applyMatch(working[bi], o.config.SmoothingFactor, o.config.MaxTrajectoryPoints)
		t.updateConfidence()
	}

	var created []*TrackedObject
	for bi := range working {
		if _, matched := trackerForBound[bi]; matched {
			continue
		}
		t := o.createTracker(working[bi], frame)
		created = append(created, t)
	}

	lostIDs := o.retireTrackers(boundForTracker)

	o.trackers = append(o.survivingTrackers(boundForTracker), created...)

	o.recordRecentBounds(working)

	snapshot := make([]TrackedObject, len(o.trackers))
	for i, t := range o.trackers {
		snapshot[i] = *t
	}

	return TrackingResult{Tracked: snapshot, LostIDs: lostIDs}
}

// survivingTrackers returns the subset of the pre-update tracker list that
// is neither being retired this frame; matched trackers have already had
// applyMatch/updateConfidence run on them in place.
func (o *ObjectTracker) survivingTrackers(boundForTracker map[int]int) []*TrackedObject {
	var out []*TrackedObject
	for ti, t := range o.trackers {
		_, matched := boundForTracker[ti]
		if !matched {
			continue
		}
		if t.Confidence < o.config.MinTrackingConfidence {
			continue
		}
		out = append(out, t)
	}
	return out
}

// retireTrackers returns the ids of every tracker that was not matched
// this frame, or whose confidence fell below min_tracking_confidence, and
// removes their classification side-table entries.
func (o *ObjectTracker) retireTrackers(boundForTracker map[int]int) []int {
	var lost []int
	for ti, t := range o.trackers {
		_, matched := boundForTracker[ti]
		if matched && t.Confidence >= o.config.MinTrackingConfidence {
			continue
		}
		if !matched {
			t.FramesWithoutDetection++
		}
		lost = append(lost, t.ID)
		delete(o.classifications, t.ID)
	}
	sort.Ints(lost)
	return lost
}

// createTracker assigns the next id and uuid, optionally classifies the
// crop, and returns the new TrackedObject.
func (o *ObjectTracker) createTracker(bounds Rect, frame Frame) *TrackedObject {
	id := o.nextID
	o.nextID++
	t := newTrackedObject(id, o.newUUID(), bounds, o.now())

	if o.config.EnableClassification && o.classifier != nil {
		result := o.classify(bounds, frame)
		o.classifications[id] = result
	}
	return t
}

// classify invokes the attached classifier on frame cropped to bounds. Any
// error, or a nil/empty frame, yields the unknown classification and is
// logged once rather than propagated (ErrClassifierFailure never escapes
// Track).
func (o *ObjectTracker) classify(bounds Rect, frame Frame) ClassificationResult {
	if frame.Empty() {
		return unknownClassification
	}
	clipped := bounds.ClipTo(frame.Width(), frame.Height())
	if clipped.Empty() {
		return unknownClassification
	}
	crop := frame.Region(clipped)
	defer crop.Close()

	result, err := o.classifier.Classify(crop)
	if err != nil {
		o.logger.logOnce("classifier-failed", "%v: classifier call failed: %v", ErrClassifierFailure, err)
		return unknownClassification
	}
	return result
}

// applyPreMatchFilters runs the optional spatial-merging and
// motion-clustering passes over bounds, in that order, before matching.
func (o *ObjectTracker) applyPreMatchFilters(bounds []Rect) []Rect {
	working := bounds
	if o.config.SpatialMerging {
		working = o.spatialMerge(working)
	}
	if o.config.MotionClustering {
		working = o.motionCluster(working)
	}
	return working
}

// spatialMerge iteratively merges any two rects whose center distance is
// at or below spatial_merge_distance, or whose IoU is at or above
// spatial_merge_overlap_threshold, into their smallest enclosing rect,
// until no further merge applies.
func (o *ObjectTracker) spatialMerge(bounds []Rect) []Rect {
	current := append([]Rect(nil), bounds...)
	for {
		merged := false
		for i := 0; i < len(current) && !merged; i++ {
			for j := i + 1; j < len(current); j++ {
				a, b := current[i], current[j]
				dist := a.Center().EuclideanDistance(b.Center())
				if dist <= o.config.SpatialMergeDistance || a.IoU(b) >= o.config.SpatialMergeOverlapThreshold {
					next := make([]Rect, 0, len(current)-1)
					next = append(next, current[:i]...)
					next = append(next, a.Union(b))
					for k := i + 1; k < len(current); k++ {
						if k == j {
							continue
						}
						next = append(next, current[k])
					}
					current = next
					merged = true
					break
				}
			}
		}
		if !merged {
			break
		}
	}
	return current
}

// motionCluster groups bounds whose displacement vectors (relative to
// their nearest counterpart in the previous accepted frame) have cosine
// similarity at or above motion_similarity_threshold, and merges each
// group into its enclosing rect. Bounds with no previous-frame
// counterpart (e.g. the first frame with candidates) are left ungrouped.
func (o *ObjectTracker) motionCluster(bounds []Rect) []Rect {
	prev := o.mostRecentBounds()
	if len(prev) == 0 || len(bounds) < 2 {
		return bounds
	}

	displacements := make([]vector2D, len(bounds))
	hasDisplacement := make([]bool, len(bounds))
	for i, b := range bounds {
		nearest, ok := nearestRect(b, prev)
		if !ok {
			continue
		}
		displacements[i] = displacement(nearest.Center(), b.Center())
		hasDisplacement[i] = true
	}

	assigned := make([]bool, len(bounds))
	var out []Rect
	for i := range bounds {
		if assigned[i] {
			continue
		}
		group := []int{i}
		assigned[i] = true
		if hasDisplacement[i] {
			for j := i + 1; j < len(bounds); j++ {
				if assigned[j] || !hasDisplacement[j] {
					continue
				}
				if cosineSimilarity2D(displacements[i], displacements[j]) >= o.config.MotionSimilarityThreshold {
					group = append(group, j)
					assigned[j] = true
				}
			}
		}
		enclosing := bounds[group[0]]
		for _, gi := range group[1:] {
			enclosing = enclosing.Union(bounds[gi])
		}
		out = append(out, enclosing)
	}
	return out
}

// centerDistanceMatrix returns the trackers x bounds matrix of Euclidean
// distances between tracker current-bounds centers and bound centers.
func centerDistanceMatrix(trackers []*TrackedObject, bounds []Rect) *mat.Dense {
	trackerCenters := mat.NewDense(len(trackers), 2, nil)
	for i, t := range trackers {
		c := t.CurrentBounds.Center()
		trackerCenters.Set(i, 0, float64(c.X))
		trackerCenters.Set(i, 1, float64(c.Y))
	}
	boundCenters := mat.NewDense(len(bounds), 2, nil)
	for i, b := range bounds {
		c := b.Center()
		boundCenters.Set(i, 0, float64(c.X))
		boundCenters.Set(i, 1, float64(c.Y))
	}
	return scipy.Cdist(trackerCenters, boundCenters, "euclidean")
}

// nearestRect returns the rect in candidates with the smallest center
// distance to target.
func nearestRect(target Rect, candidates []Rect) (Rect, bool) {
	if len(candidates) == 0 {
		return Rect{}, false
	}
	best := candidates[0]
	bestDist := target.Center().EuclideanDistance(best.Center())
	for _, c := range candidates[1:] {
		d := target.Center().EuclideanDistance(c.Center())
		if d < bestDist {
			best = c
			bestDist = d
		}
	}
	return best, true
}

// mostRecentBounds returns the last frame's accepted bounds, or nil if
// none have been recorded yet.
func (o *ObjectTracker) mostRecentBounds() []Rect {
	if len(o.recentBounds) == 0 {
		return nil
	}
	return o.recentBounds[len(o.recentBounds)-1]
}

// recordRecentBounds pushes bounds onto the motion-history deque, dropping
// the oldest entry past motion_history_frames.
func (o *ObjectTracker) recordRecentBounds(bounds []Rect) {
	if !o.config.MotionClustering {
		return
	}
	o.recentBounds = append(o.recentBounds, append([]Rect(nil), bounds...))
	if len(o.recentBounds) > o.config.MotionHistoryFrames {
		o.recentBounds = o.recentBounds[len(o.recentBounds)-o.config.MotionHistoryFrames:]
	}
}

// greedyMatch pairs bounds against live trackers by ascending center
// distance, ties broken by lower tracker id then lower bound index,
// accepting a pair only if its distance is within max_tracking_distance.
// Returns boundForTracker (tracker index -> bound index) and
// trackerForBound (bound index -> tracker index), each a 1:1 mapping.
//
// The pairwise distance matrix is built with the ported
// scipy.spatial.distance.cdist (internal/scipy) rather than an ad hoc
// nested loop of EuclideanDistance calls.
func (o *ObjectTracker) greedyMatch(bounds []Rect) (map[int]int, map[int]int) {
	type candidate struct {
		trackerIdx int
		trackerID  int
		boundIdx   int
		dist       float64
	}

	var candidates []candidate
	if len(o.trackers) > 0 && len(bounds) > 0 {
		distances := centerDistanceMatrix(o.trackers, bounds)
		for ti, t := range o.trackers {
			for bi := range bounds {
				d := distances.At(ti, bi)
				if d <= o.config.MaxTrackingDistance {
					candidates = append(candidates, candidate{trackerIdx: ti, trackerID: t.ID, boundIdx: bi, dist: d})
				}
			}
		}
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].dist != candidates[j].dist {
			return candidates[i].dist < candidates[j].dist
		}
		if candidates[i].trackerID != candidates[j].trackerID {
			return candidates[i].trackerID < candidates[j].trackerID
		}
		return candidates[i].boundIdx < candidates[j].boundIdx
	})

	boundForTracker := make(map[int]int)
	trackerForBound := make(map[int]int)
	for _, c := range candidates {
		if _, used := boundForTracker[c.trackerIdx]; used {
			continue
		}
		if _, used := trackerForBound[c.boundIdx]; used {
			continue
		}
		boundForTracker[c.trackerIdx] = c.boundIdx
		trackerForBound[c.boundIdx] = c.trackerIdx
	}
	return boundForTracker, trackerForBound
}
