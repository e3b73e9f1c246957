/*
Package motioncore implements a real-time motion-detection and
region-consolidation pipeline: classical-CV frame differencing and
background subtraction reduced to candidate bounding rectangles
(MotionProcessor), multi-object identity tracking across frames
(ObjectTracker), and DBSCAN-style clustering of trackers into a small
set of stable regions of interest for a downstream classifier
(RegionConsolidator).

  - motioncore is a reimplementation of a C++ motion-detection core; it is
    in no way associated with the original project.

The pipeline is single-threaded and cooperative: one frame runs to
completion through all three stages before the next begins. Camera
capture, persistence, UI rendering, and CNN classification are external
collaborators — see config.go for TOML configuration loading, the
cmd/motioncore driver for a reference wiring of all three stages around
a video source, and the SinkAdapter interface in pipeline.go for the
artifact-consumption contract.

# Basic usage

	proc, _ := motioncore.NewMotionProcessor(motioncore.DefaultMotionConfig(), nil)
	trk, _ := motioncore.NewObjectTracker(motioncore.DefaultTrackerConfig(), nil, nil)
	reg, _ := motioncore.NewRegionConsolidator(motioncore.DefaultRegionConfig(), nil)

	for frame := range frames {
		result := proc.ProcessFrame(frame)
		tracking := trk.Track(result.CandidateBounds, frame)
		regions := reg.Consolidate(tracking.Tracked, frame.Rect())
	}

# Core types

MotionProcessor turns one raw Frame into a ProcessingResult holding the
preprocessed, differenced, thresholded, and morphologically-cleaned
frames plus a list of candidate bounding rectangles.

ObjectTracker assigns stable integer ids and uuids to candidate
rectangles across frames, smooths their centers with an exponential
moving average, and decays confidence using directional consistency
between consecutive displacements.

RegionConsolidator clusters the current tracker set with DBSCAN under
an overlap-aware distance metric and reports a small, stable list of
expanded ConsolidatedRegion boxes, merging and retiring them over time.
*/
package motioncore
