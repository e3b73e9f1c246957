package motioncore

import "fmt"

// TrackerConfig configures an ObjectTracker. Immutable after construction.
type TrackerConfig struct {
	MaxTrajectoryPoints  int
	MinTrajectoryLength  int
	MaxTrackingDistance  float64
	SmoothingFactor      float64 // alpha, in (0,1)
	MinTrackingConfidence float64 // in [0,1]

	SpatialMerging               bool
	SpatialMergeDistance         float64
	SpatialMergeOverlapThreshold float64

	MotionClustering          bool
	MotionSimilarityThreshold float64
	MotionHistoryFrames       int

	// EnableClassification gates whether newly-created trackers invoke the
	// attached Classifier. The classifier model/labels paths below are
	// accepted for configuration-file compatibility with the original
	// tool; constructing the actual Classifier implementation from those
	// paths is the caller's responsibility (classifier.go only declares
	// the interface).
	EnableClassification  bool
	ClassifierModelPath   string
	ClassifierLabelsPath  string
}

// DefaultTrackerConfig returns the default ObjectTracker configuration.
func DefaultTrackerConfig() TrackerConfig {
	return TrackerConfig{
		MaxTrajectoryPoints:  30,
		MinTrajectoryLength:  3,
		MaxTrackingDistance:  50.0,
		SmoothingFactor:      0.3,
		MinTrackingConfidence: 0.2,

		SpatialMerging:               false,
		SpatialMergeDistance:         40.0,
		SpatialMergeOverlapThreshold: 0.3,

		MotionClustering:          false,
		MotionSimilarityThreshold: 0.8,
		MotionHistoryFrames:       5,

		EnableClassification: false,
	}
}

// Validate checks TrackerConfig invariants.
func (c TrackerConfig) Validate() error {
	if c.MaxTrajectoryPoints < 1 {
		return fmt.Errorf("%w: max_trajectory_points must be >= 1, got %d", ErrConfigError, c.MaxTrajectoryPoints)
	}
	if c.MinTrajectoryLength < 1 {
		return fmt.Errorf("%w: min_trajectory_length must be >= 1, got %d", ErrConfigError, c.MinTrajectoryLength)
	}
	if c.MaxTrackingDistance <= 0 {
		return fmt.Errorf("%w: max_tracking_distance must be > 0, got %f", ErrConfigError, c.MaxTrackingDistance)
	}
	if c.SmoothingFactor <= 0 || c.SmoothingFactor >= 1 {
		return fmt.Errorf("%w: smoothing_factor must be in (0,1), got %f", ErrConfigError, c.SmoothingFactor)
	}
	if c.MinTrackingConfidence < 0 || c.MinTrackingConfidence > 1 {
		return fmt.Errorf("%w: min_tracking_confidence must be in [0,1], got %f", ErrConfigError, c.MinTrackingConfidence)
	}
	if c.MotionHistoryFrames < 1 {
		return fmt.Errorf("%w: motion_history_frames must be >= 1, got %d", ErrConfigError, c.MotionHistoryFrames)
	}
	return nil
}
