package motioncore

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// CoreConfig bundles the three stage configurations loaded from a single
// structured document. Field names map to snake_case TOML keys; nesting
// mirrors the three owning stages.
type CoreConfig struct {
	Motion  tomlMotionConfig  `toml:"motion"`
	Tracker tomlTrackerConfig `toml:"tracker"`
	Region  tomlRegionConfig  `toml:"region"`
}

// DefaultCoreConfig returns the default configuration for all three
// stages, matching DefaultMotionConfig/DefaultTrackerConfig/DefaultRegionConfig.
func DefaultCoreConfig() CoreConfig {
	return CoreConfig{
		Motion:  tomlMotionConfigFrom(DefaultMotionConfig()),
		Tracker: tomlTrackerConfigFrom(DefaultTrackerConfig()),
		Region:  tomlRegionConfigFrom(DefaultRegionConfig()),
	}
}

// LoadConfig reads and parses a TOML document at path into a CoreConfig,
// starting from defaults so an omitted table or field falls back to it.
// An empty path or a missing file yields the defaults, matching the
// teacher's config-loading precedent; any other read or parse failure,
// or a failed Validate, is a ConfigError and is fatal to the caller per
// §7's propagation policy.
func LoadConfig(path string) (CoreConfig, error) {
	cfg := DefaultCoreConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return CoreConfig{}, fmt.Errorf("%w: reading config file: %v", ErrConfigError, err)
	}

	if _, err := toml.Decode(string(data), &cfg); err != nil {
		return CoreConfig{}, fmt.Errorf("%w: parsing config file: %v", ErrConfigError, err)
	}

	if err := cfg.Motion.toMotionConfig().Validate(); err != nil {
		return CoreConfig{}, err
	}
	if err := cfg.Tracker.toTrackerConfig().Validate(); err != nil {
		return CoreConfig{}, err
	}
	if err := cfg.Region.toRegionConfig().Validate(); err != nil {
		return CoreConfig{}, err
	}
	return cfg, nil
}

// MotionConfig converts the loaded document into a MotionConfig.
func (c CoreConfig) MotionConfig() MotionConfig { return c.Motion.toMotionConfig() }

// TrackerConfig converts the loaded document into a TrackerConfig.
func (c CoreConfig) TrackerConfig() TrackerConfig { return c.Tracker.toTrackerConfig() }

// RegionConfig converts the loaded document into a RegionConfig.
func (c CoreConfig) RegionConfig() RegionConfig { return c.Region.toRegionConfig() }

// tomlMotionConfig mirrors MotionConfig with toml tags; it exists
// separately so MotionConfig itself stays free of a TOML-specific
// struct-tag dependency and can be constructed directly in Go by
// callers that never touch a config file.
type tomlMotionConfig struct {
	ProcessingMode      string  `toml:"processing_mode"`
	ContrastEnhancement bool    `toml:"contrast_enhancement"`
	CLAHEClipLimit      float64 `toml:"clahe_clip_limit"`
	CLAHETileSize       int     `toml:"clahe_tile_size"`

	BlurType            string  `toml:"blur_type"`
	GaussianBlurSize    int     `toml:"gaussian_blur_size"`
	MedianBlurSize      int     `toml:"median_blur_size"`
	BilateralD          int     `toml:"bilateral_d"`
	BilateralSigmaColor float64 `toml:"bilateral_sigma_color"`
	BilateralSigmaSpace float64 `toml:"bilateral_sigma_space"`

	BackgroundSubtraction       bool    `toml:"background_subtraction"`
	BackgroundSubtractionMethod string  `toml:"background_subtraction_method"`
	BackgroundHistory           int     `toml:"background_history"`
	BackgroundThreshold         float64 `toml:"background_threshold"`
	BackgroundDetectShadows     bool    `toml:"background_detect_shadows"`

	HSVLower [3]float64 `toml:"hsv_lower"`
	HSVUpper [3]float64 `toml:"hsv_upper"`

	CannyLowThreshold  int `toml:"canny_low_threshold"`
	CannyHighThreshold int `toml:"canny_high_threshold"`

	Morphology      bool `toml:"morphology"`
	MorphKernelSize int  `toml:"morph_kernel_size"`
	MorphClose      bool `toml:"morph_close"`
	MorphOpen       bool `toml:"morph_open"`
	MorphDilation   bool `toml:"morph_dilation"`
	MorphErosion    bool `toml:"morph_erosion"`

	MaxThreshold int `toml:"max_threshold"`

	ConvexHull            bool    `toml:"convex_hull"`
	ContourApproximation  bool    `toml:"contour_approximation"`
	ContourFiltering      bool    `toml:"contour_filtering"`
	ContourEpsilonFactor  float64 `toml:"contour_epsilon_factor"`
	MinContourArea        int     `toml:"min_contour_area"`
	MinContourSolidity    float64 `toml:"min_contour_solidity"`
	MaxContourAspectRatio float64 `toml:"max_contour_aspect_ratio"`

	ContourDetectionMode     string  `toml:"contour_detection_mode"`
	PermissiveMinArea        int     `toml:"permissive_min_area"`
	PermissiveMinSolidity    float64 `toml:"permissive_min_solidity"`
	PermissiveMaxAspectRatio float64 `toml:"permissive_max_aspect_ratio"`
	AdaptiveUpdateInterval   int     `toml:"adaptive_update_interval"`
}

func tomlMotionConfigFrom(c MotionConfig) tomlMotionConfig {
	return tomlMotionConfig{
		ProcessingMode:              string(c.ProcessingMode),
		ContrastEnhancement:         c.ContrastEnhancement,
		CLAHEClipLimit:              c.CLAHEClipLimit,
		CLAHETileSize:               c.CLAHETileSize,
		BlurType:                    string(c.BlurType),
		GaussianBlurSize:            c.GaussianBlurSize,
		MedianBlurSize:              c.MedianBlurSize,
		BilateralD:                  c.BilateralD,
		BilateralSigmaColor:         c.BilateralSigmaColor,
		BilateralSigmaSpace:         c.BilateralSigmaSpace,
		BackgroundSubtraction:       c.BackgroundSubtraction,
		BackgroundSubtractionMethod: string(c.BackgroundSubtractionMethod),
		BackgroundHistory:           c.BackgroundHistory,
		BackgroundThreshold:         c.BackgroundThreshold,
		BackgroundDetectShadows:     c.BackgroundDetectShadows,
		HSVLower:                    [3]float64{c.HSVLower.H, c.HSVLower.S, c.HSVLower.V},
		HSVUpper:                    [3]float64{c.HSVUpper.H, c.HSVUpper.S, c.HSVUpper.V},
		CannyLowThreshold:           c.CannyLowThreshold,
		CannyHighThreshold:          c.CannyHighThreshold,
		Morphology:                  c.Morphology,
		MorphKernelSize:             c.MorphKernelSize,
		MorphClose:                  c.MorphClose,
		MorphOpen:                   c.MorphOpen,
		MorphDilation:               c.MorphDilation,
		MorphErosion:                c.MorphErosion,
		MaxThreshold:                c.MaxThreshold,
		ConvexHull:                  c.ConvexHull,
		ContourApproximation:        c.ContourApproximation,
		ContourFiltering:            c.ContourFiltering,
		ContourEpsilonFactor:        c.ContourEpsilonFactor,
		MinContourArea:              c.MinContourArea,
		MinContourSolidity:          c.MinContourSolidity,
		MaxContourAspectRatio:       c.MaxContourAspectRatio,
		ContourDetectionMode:        string(c.ContourDetectionMode),
		PermissiveMinArea:           c.PermissiveMinArea,
		PermissiveMinSolidity:       c.PermissiveMinSolidity,
		PermissiveMaxAspectRatio:    c.PermissiveMaxAspectRatio,
		AdaptiveUpdateInterval:      c.AdaptiveUpdateInterval,
	}
}

func (c tomlMotionConfig) toMotionConfig() MotionConfig {
	return MotionConfig{
		ProcessingMode:              ProcessingMode(c.ProcessingMode),
		ContrastEnhancement:         c.ContrastEnhancement,
		CLAHEClipLimit:              c.CLAHEClipLimit,
		CLAHETileSize:               c.CLAHETileSize,
		BlurType:                    BlurType(c.BlurType),
		GaussianBlurSize:            c.GaussianBlurSize,
		MedianBlurSize:              c.MedianBlurSize,
		BilateralD:                  c.BilateralD,
		BilateralSigmaColor:         c.BilateralSigmaColor,
		BilateralSigmaSpace:         c.BilateralSigmaSpace,
		BackgroundSubtraction:       c.BackgroundSubtraction,
		BackgroundSubtractionMethod: BackgroundSubtractionMethod(c.BackgroundSubtractionMethod),
		BackgroundHistory:           c.BackgroundHistory,
		BackgroundThreshold:         c.BackgroundThreshold,
		BackgroundDetectShadows:     c.BackgroundDetectShadows,
		HSVLower:                    HSVRange{H: c.HSVLower[0], S: c.HSVLower[1], V: c.HSVLower[2]},
		HSVUpper:                    HSVRange{H: c.HSVUpper[0], S: c.HSVUpper[1], V: c.HSVUpper[2]},
		CannyLowThreshold:           c.CannyLowThreshold,
		CannyHighThreshold:          c.CannyHighThreshold,
		Morphology:                  c.Morphology,
		MorphKernelSize:             c.MorphKernelSize,
		MorphClose:                  c.MorphClose,
		MorphOpen:                   c.MorphOpen,
		MorphDilation:               c.MorphDilation,
		MorphErosion:                c.MorphErosion,
		MaxThreshold:                c.MaxThreshold,
		ConvexHull:                  c.ConvexHull,
		ContourApproximation:        c.ContourApproximation,
		ContourFiltering:            c.ContourFiltering,
		ContourEpsilonFactor:        c.ContourEpsilonFactor,
		MinContourArea:              c.MinContourArea,
		MinContourSolidity:          c.MinContourSolidity,
		MaxContourAspectRatio:       c.MaxContourAspectRatio,
		ContourDetectionMode:        ContourDetectionMode(c.ContourDetectionMode),
		PermissiveMinArea:           c.PermissiveMinArea,
		PermissiveMinSolidity:       c.PermissiveMinSolidity,
		PermissiveMaxAspectRatio:    c.PermissiveMaxAspectRatio,
		AdaptiveUpdateInterval:      c.AdaptiveUpdateInterval,
	}
}

// tomlTrackerConfig mirrors TrackerConfig with toml tags.
type tomlTrackerConfig struct {
	MaxTrajectoryPoints   int     `toml:"max_trajectory_points"`
	MinTrajectoryLength   int     `toml:"min_trajectory_length"`
	MaxTrackingDistance   float64 `toml:"max_tracking_distance"`
	SmoothingFactor       float64 `toml:"smoothing_factor"`
	MinTrackingConfidence float64 `toml:"min_tracking_confidence"`

	SpatialMerging               bool    `toml:"spatial_merging"`
	SpatialMergeDistance         float64 `toml:"spatial_merge_distance"`
	SpatialMergeOverlapThreshold float64 `toml:"spatial_merge_overlap_threshold"`

	MotionClustering          bool    `toml:"motion_clustering"`
	MotionSimilarityThreshold float64 `toml:"motion_similarity_threshold"`
	MotionHistoryFrames       int     `toml:"motion_history_frames"`

	EnableClassification bool   `toml:"enable_classification"`
	ClassifierModelPath  string `toml:"classifier_model_path"`
	ClassifierLabelsPath string `toml:"classifier_labels_path"`
}

func tomlTrackerConfigFrom(c TrackerConfig) tomlTrackerConfig {
	return tomlTrackerConfig{
		MaxTrajectoryPoints:          c.MaxTrajectoryPoints,
		MinTrajectoryLength:          c.MinTrajectoryLength,
		MaxTrackingDistance:          c.MaxTrackingDistance,
		SmoothingFactor:              c.SmoothingFactor,
		MinTrackingConfidence:        c.MinTrackingConfidence,
		SpatialMerging:               c.SpatialMerging,
		SpatialMergeDistance:         c.SpatialMergeDistance,
		SpatialMergeOverlapThreshold: c.SpatialMergeOverlapThreshold,
		MotionClustering:             c.MotionClustering,
		MotionSimilarityThreshold:    c.MotionSimilarityThreshold,
		MotionHistoryFrames:          c.MotionHistoryFrames,
		EnableClassification:         c.EnableClassification,
		ClassifierModelPath:          c.ClassifierModelPath,
		ClassifierLabelsPath:         c.ClassifierLabelsPath,
	}
}

func (c tomlTrackerConfig) toTrackerConfig() TrackerConfig {
	return TrackerConfig{
		MaxTrajectoryPoints:          c.MaxTrajectoryPoints,
		MinTrajectoryLength:          c.MinTrajectoryLength,
		MaxTrackingDistance:          c.MaxTrackingDistance,
		SmoothingFactor:              c.SmoothingFactor,
		MinTrackingConfidence:        c.MinTrackingConfidence,
		SpatialMerging:               c.SpatialMerging,
		SpatialMergeDistance:         c.SpatialMergeDistance,
		SpatialMergeOverlapThreshold: c.SpatialMergeOverlapThreshold,
		MotionClustering:             c.MotionClustering,
		MotionSimilarityThreshold:    c.MotionSimilarityThreshold,
		MotionHistoryFrames:          c.MotionHistoryFrames,
		EnableClassification:         c.EnableClassification,
		ClassifierModelPath:          c.ClassifierModelPath,
		ClassifierLabelsPath:         c.ClassifierLabelsPath,
	}
}

// tomlRegionConfig mirrors RegionConfig with toml tags.
type tomlRegionConfig struct {
	Eps    float64 `toml:"eps"`
	MinPts int     `toml:"min_pts"`

	OverlapWeight   float64 `toml:"overlap_weight"`
	EdgeWeight      float64 `toml:"edge_weight"`
	MaxEdgeDistance float64 `toml:"max_edge_distance"`

	MaxFramesWithoutUpdate int     `toml:"max_frames_without_update"`
	RegionExpansionFactor  float64 `toml:"region_expansion_factor"`
}

func tomlRegionConfigFrom(c RegionConfig) tomlRegionConfig {
	return tomlRegionConfig{
		Eps:                    c.Eps,
		MinPts:                 c.MinPts,
		OverlapWeight:          c.OverlapWeight,
		EdgeWeight:             c.EdgeWeight,
		MaxEdgeDistance:        c.MaxEdgeDistance,
		MaxFramesWithoutUpdate: c.MaxFramesWithoutUpdate,
		RegionExpansionFactor:  c.RegionExpansionFactor,
	}
}

func (c tomlRegionConfig) toRegionConfig() RegionConfig {
	return RegionConfig{
		Eps:                    c.Eps,
		MinPts:                 c.MinPts,
		OverlapWeight:          c.OverlapWeight,
		EdgeWeight:             c.EdgeWeight,
		MaxEdgeDistance:        c.MaxEdgeDistance,
		MaxFramesWithoutUpdate: c.MaxFramesWithoutUpdate,
		RegionExpansionFactor:  c.RegionExpansionFactor,
	}
}
