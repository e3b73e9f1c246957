package motioncore

// FrameMetadata carries the per-frame bookkeeping a SinkAdapter needs
// alongside the frame artifacts themselves: nothing here is read back by
// the pipeline, it exists purely for the sink's benefit.
type FrameMetadata struct {
	// FrameIndex is a monotonic per-pipeline frame counter starting at 0.
	FrameIndex int

	// TrackedCount and RegionCount summarize the frame's output sizes so a
	// sink can log or report without re-deriving them from the slices.
	TrackedCount int
	RegionCount  int
}

// SinkAdapter is the external collaborator that receives per-frame
// artifacts for downstream persistence, rendering, or classification. The
// core never blocks on a SinkAdapter call completing asynchronously;
// implementations that need to hand data off to a slower consumer (a
// document store, a UI thread) own that hand-off themselves.
type SinkAdapter interface {
	// OnTrackingData is called once per live tracker per frame whose
	// trajectory has reached min_trajectory_length, with the tracker's
	// crop from the current frame, its current bounds, latest smoothed
	// trajectory point, confidence, and any recorded classification.
	OnTrackingData(trackerID int, uuid string, crop Frame, bounds Rect, trajectoryPoint Point, confidence float64, class ClassificationResult)

	// OnObjectLost is called once per tracker id removed this frame.
	OnObjectLost(trackerID int)

	// OnFrameArtifacts is called once per processed frame with the raw
	// input frame, an optional annotated frame (callers that do not
	// annotate may pass the zero Frame), the frame's consolidated
	// regions, and its metadata.
	OnFrameArtifacts(original Frame, annotated Frame, regions []ConsolidatedRegion, metadata FrameMetadata)
}

// PipelineStages bundles the three owned-state components a
// ProcessFrameAndConsolidate call threads a frame through, in their fixed
// dependency order.
type PipelineStages struct {
	Motion  *MotionProcessor
	Tracker *ObjectTracker
	Region  *RegionConsolidator
}

// Pipeline drives PipelineStages across frames and, if a SinkAdapter is
// attached, reports artifacts to it each frame. It owns no state beyond
// the three component stages and a frame counter; everything else lives
// in those stages, per the core's single-owner-per-stage design.
type Pipeline struct {
	stages PipelineStages
	sink   SinkAdapter

	minTrajectoryLength int
	frameIndex          int
}

// NewPipeline wires stages (and, if non-nil, sink) into a Pipeline. A nil
// sink is valid: ProcessFrame still runs every stage but reports nothing.
func NewPipeline(stages PipelineStages, sink SinkAdapter) *Pipeline {
	minLen := 1
	if stages.Tracker != nil {
		minLen = stages.Tracker.Config().MinTrajectoryLength
	}
	return &Pipeline{stages: stages, sink: sink, minTrajectoryLength: minLen}
}

// ProcessFrame threads raw through MotionProcessor, ObjectTracker, and
// RegionConsolidator in that order, constructing provisional trackers
// directly from candidate bounds if stages.Tracker is nil, then reports
// artifacts to the attached sink (if any). It owns no persistent state
// beyond that of its component stages.
func (p *Pipeline) ProcessFrame(raw Frame) (ProcessingResult, []ConsolidatedRegion) {
	result := p.stages.Motion.ProcessFrame(raw)

	var tracked []TrackedObject
	var lostIDs []int
	if p.stages.Tracker != nil {
		tracking := p.stages.Tracker.Track(result.CandidateBounds, raw)
		tracked = tracking.Tracked
		lostIDs = tracking.LostIDs
	} else {
		tracked = provisionalTrackers(result.CandidateBounds)
	}

	var regions []ConsolidatedRegion
	if p.stages.Region != nil {
		var frameRect Rect
		if !raw.Empty() {
			frameRect = raw.Rect()
		}
		regions = p.stages.Region.Consolidate(tracked, frameRect)
	}

	if p.sink != nil {
		p.report(raw, tracked, lostIDs, regions)
	}
	p.frameIndex++

	return result, regions
}

// provisionalTrackers builds a read-only TrackedObject snapshot straight
// from candidate bounds, one per bound with sequential ids and no
// trajectory history, for callers that want region consolidation without
// running a full ObjectTracker (spec §4.4's "constructs provisional
// trackers from bounds if the tracker is not in use").
func provisionalTrackers(bounds []Rect) []TrackedObject {
	out := make([]TrackedObject, len(bounds))
	for i, b := range bounds {
		out[i] = TrackedObject{
			ID:             i,
			CurrentBounds:  b,
			Trajectory:     []Point{b.Center()},
			SmoothedCenter: b.Center(),
			Confidence:     1.0,
		}
	}
	return out
}

func (p *Pipeline) report(raw Frame, tracked []TrackedObject, lostIDs []int, regions []ConsolidatedRegion) {
	for _, t := range tracked {
		if len(t.Trajectory) < p.minTrajectoryLength {
			continue
		}
		class := unknownClassification
		if p.stages.Tracker != nil {
			if c, ok := p.stages.Tracker.Classification(t.ID); ok {
				class = c
			}
		}
		crop := cropFrame(raw, t.CurrentBounds)
		p.sink.OnTrackingData(t.ID, t.UUID, crop, t.CurrentBounds, t.SmoothedCenter, t.Confidence, class)
		crop.Close()
	}
	for _, id := range lostIDs {
		p.sink.OnObjectLost(id)
	}
	p.sink.OnFrameArtifacts(raw, EmptyFrame(), regions, FrameMetadata{
		FrameIndex:   p.frameIndex,
		TrackedCount: len(tracked),
		RegionCount:  len(regions),
	})
}

// cropFrame returns raw's region within bounds, clipped to the frame. The
// zero Frame is returned if raw is empty or the clip removes all of
// bounds.
func cropFrame(raw Frame, bounds Rect) Frame {
	if raw.Empty() {
		return EmptyFrame()
	}
	clipped := bounds.ClipTo(raw.Width(), raw.Height())
	if clipped.Empty() {
		return EmptyFrame()
	}
	return raw.Region(clipped)
}
