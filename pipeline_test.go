package motioncore

import "testing"

type recordingSink struct {
	trackingCalls int
	lostCalls     []int
	artifactCalls int
	lastRegions   []ConsolidatedRegion
	lastMetadata  FrameMetadata
}

func (s *recordingSink) OnTrackingData(int, string, Frame, Rect, Point, float64, ClassificationResult) {
	s.trackingCalls++
}

func (s *recordingSink) OnObjectLost(id int) {
	s.lostCalls = append(s.lostCalls, id)
}

func (s *recordingSink) OnFrameArtifacts(original, annotated Frame, regions []ConsolidatedRegion, metadata FrameMetadata) {
	s.artifactCalls++
	s.lastRegions = regions
	s.lastMetadata = metadata
}

func newTestPipeline(t *testing.T, sink SinkAdapter) *Pipeline {
	t.Helper()
	mp, err := NewMotionProcessor(DefaultMotionConfig(), nil)
	if err != nil {
		t.Fatalf("NewMotionProcessor: %v", err)
	}
	trackerCfg := DefaultTrackerConfig()
	trackerCfg.MinTrajectoryLength = 2
	ot, err := NewObjectTracker(trackerCfg, nil, nil)
	if err != nil {
		t.Fatalf("NewObjectTracker: %v", err)
	}
	rc, err := NewRegionConsolidator(DefaultRegionConfig(), nil)
	if err != nil {
		t.Fatalf("NewRegionConsolidator: %v", err)
	}
	return NewPipeline(PipelineStages{Motion: mp, Tracker: ot, Region: rc}, sink)
}

func TestPipeline_ReportsArtifactsEveryFrame(t *testing.T) {
	sink := &recordingSink{}
	p := newTestPipeline(t, sink)

	for i := 0; i < 3; i++ {
		p.ProcessFrame(EmptyFrame())
	}

	if sink.artifactCalls != 3 {
		t.Errorf("OnFrameArtifacts called %d times, want 3", sink.artifactCalls)
	}
	if sink.lastMetadata.FrameIndex != 2 {
		t.Errorf("last FrameIndex = %d, want 2", sink.lastMetadata.FrameIndex)
	}
}

func TestPipeline_NoTrackerUsesProvisionalTrackers(t *testing.T) {
	mp, err := NewMotionProcessor(DefaultMotionConfig(), nil)
	if err != nil {
		t.Fatalf("NewMotionProcessor: %v", err)
	}
	rc, err := NewRegionConsolidator(DefaultRegionConfig(), nil)
	if err != nil {
		t.Fatalf("NewRegionConsolidator: %v", err)
	}
	sink := &recordingSink{}
	p := NewPipeline(PipelineStages{Motion: mp, Region: rc}, sink)

	_, regions := p.ProcessFrame(EmptyFrame())
	if len(regions) != 0 {
		t.Errorf("regions on empty frame = %v, want none", regions)
	}
	if sink.artifactCalls != 1 {
		t.Errorf("OnFrameArtifacts called %d times, want 1", sink.artifactCalls)
	}
}

func TestPipeline_NilSinkIsOptional(t *testing.T) {
	p := newTestPipeline(t, nil)
	// Must not panic without a sink attached.
	p.ProcessFrame(EmptyFrame())
}
