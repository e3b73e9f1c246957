package motioncore

import "fmt"

// ProcessingMode selects the color-space conversion applied before blur and
// differencing.
type ProcessingMode string

const (
	ProcessingModeGrayscale ProcessingMode = "grayscale"
	ProcessingModeHSV       ProcessingMode = "hsv"
	ProcessingModeYCrCb     ProcessingMode = "ycrcb"
	ProcessingModeRGB       ProcessingMode = "rgb"
)

// BlurType selects the smoothing filter applied after contrast enhancement.
type BlurType string

const (
	BlurNone      BlurType = "none"
	BlurGaussian  BlurType = "gaussian"
	BlurMedian    BlurType = "median"
	BlurBilateral BlurType = "bilateral"
)

// BackgroundSubtractionMethod selects the background model used in addition
// to frame differencing. "PBAS" is accepted for configuration compatibility
// with the original tool and is served by the same adaptive KNN model as
// "KNN", since gocv has no PBAS implementation.
type BackgroundSubtractionMethod string

const (
	BackgroundMOG2 BackgroundSubtractionMethod = "MOG2"
	BackgroundKNN  BackgroundSubtractionMethod = "KNN"
	BackgroundPBAS BackgroundSubtractionMethod = "PBAS"
)

// ContourDetectionMode selects whether candidate-rect filter thresholds are
// fixed (permissive) or recomputed from recent contour statistics (adaptive).
type ContourDetectionMode string

const (
	ContourModeAdaptive   ContourDetectionMode = "adaptive"
	ContourModePermissive ContourDetectionMode = "permissive"
)

// HSVRange is an inclusive (H,S,V) bound used by HSV processing mode.
type HSVRange struct {
	H, S, V float64
}

// MotionConfig configures a MotionProcessor. It is immutable after
// construction; reconfiguration is destroy-and-recreate, per the
// process-wide-singleton redesign note in DESIGN.md.
type MotionConfig struct {
	ProcessingMode      ProcessingMode
	ContrastEnhancement bool
	CLAHEClipLimit      float64
	CLAHETileSize       int

	BlurType            BlurType
	GaussianBlurSize    int
	MedianBlurSize      int
	BilateralD          int
	BilateralSigmaColor float64
	BilateralSigmaSpace float64

	BackgroundSubtraction       bool
	BackgroundSubtractionMethod BackgroundSubtractionMethod
	BackgroundHistory           int
	BackgroundThreshold         float64
	BackgroundDetectShadows     bool

	HSVLower HSVRange
	HSVUpper HSVRange

	// CannyLowThreshold/CannyHighThreshold are accepted for configuration-file
	// compatibility with the original tool; the contour-extraction pipeline
	// here uses Otsu binarization (per spec), not Canny, so these are parsed
	// but never consumed.
	CannyLowThreshold  int
	CannyHighThreshold int

	Morphology      bool
	MorphKernelSize int
	MorphClose      bool
	MorphOpen       bool
	MorphDilation   bool
	MorphErosion    bool

	MaxThreshold int

	ConvexHull            bool
	ContourApproximation  bool
	ContourFiltering      bool
	ContourEpsilonFactor  float64
	MinContourArea        int
	MinContourSolidity    float64
	MaxContourAspectRatio float64

	ContourDetectionMode    ContourDetectionMode
	PermissiveMinArea       int
	PermissiveMinSolidity   float64
	PermissiveMaxAspectRatio float64
	AdaptiveUpdateInterval  int
}

// DefaultMotionConfig returns the default MotionProcessor configuration.
func DefaultMotionConfig() MotionConfig {
	return MotionConfig{
		ProcessingMode:      ProcessingModeGrayscale,
		ContrastEnhancement: false,
		CLAHEClipLimit:      2.0,
		CLAHETileSize:       8,

		BlurType:            BlurGaussian,
		GaussianBlurSize:    5,
		MedianBlurSize:      5,
		BilateralD:          9,
		BilateralSigmaColor: 75,
		BilateralSigmaSpace: 75,

		BackgroundSubtraction:       false,
		BackgroundSubtractionMethod: BackgroundMOG2,
		BackgroundHistory:           500,
		BackgroundThreshold:         16,
		BackgroundDetectShadows:     true,

		HSVLower: HSVRange{H: 0, S: 0, V: 0},
		HSVUpper: HSVRange{H: 179, S: 255, V: 255},

		CannyLowThreshold:  50,
		CannyHighThreshold: 150,

		Morphology:      true,
		MorphKernelSize: 5,
		MorphClose:      true,
		MorphOpen:       true,
		MorphDilation:   false,
		MorphErosion:    false,

		MaxThreshold: 255,

		ConvexHull:            false,
		ContourApproximation:  false,
		ContourFiltering:      true,
		ContourEpsilonFactor:  0.01,
		MinContourArea:        500,
		MinContourSolidity:    0.3,
		MaxContourAspectRatio: 4.0,

		ContourDetectionMode:     ContourModePermissive,
		PermissiveMinArea:        500,
		PermissiveMinSolidity:    0.2,
		PermissiveMaxAspectRatio: 5.0,
		AdaptiveUpdateInterval:   30,
	}
}

// Validate checks MotionConfig invariants, returning a ConfigError-wrapped
// error describing the first violation found. It is called once, at
// NewMotionProcessor construction time.
func (c MotionConfig) Validate() error {
	switch c.ProcessingMode {
	case ProcessingModeGrayscale, ProcessingModeHSV, ProcessingModeYCrCb, ProcessingModeRGB:
	default:
		return fmt.Errorf("%w: unknown processing_mode %q", ErrConfigError, c.ProcessingMode)
	}

	switch c.BlurType {
	case BlurNone, BlurGaussian, BlurMedian, BlurBilateral:
	default:
		return fmt.Errorf("%w: unknown blur_type %q", ErrConfigError, c.BlurType)
	}

	if c.BlurType == BlurGaussian && c.GaussianBlurSize%2 == 0 {
		return fmt.Errorf("%w: gaussian_blur_size must be odd, got %d", ErrConfigError, c.GaussianBlurSize)
	}
	if c.BlurType == BlurMedian && c.MedianBlurSize%2 == 0 {
		return fmt.Errorf("%w: median_blur_size must be odd, got %d", ErrConfigError, c.MedianBlurSize)
	}

	if c.BackgroundSubtraction {
		switch c.BackgroundSubtractionMethod {
		case BackgroundMOG2, BackgroundKNN, BackgroundPBAS:
		default:
			return fmt.Errorf("%w: unknown background_subtraction_method %q", ErrConfigError, c.BackgroundSubtractionMethod)
		}
	}

	switch c.ContourDetectionMode {
	case ContourModeAdaptive, ContourModePermissive:
	default:
		return fmt.Errorf("%w: unknown contour_detection_mode %q", ErrConfigError, c.ContourDetectionMode)
	}

	if c.Morphology && c.MorphKernelSize <= 0 {
		return fmt.Errorf("%w: morph_kernel_size must be > 0, got %d", ErrConfigError, c.MorphKernelSize)
	}

	if c.AdaptiveUpdateInterval <= 0 {
		return fmt.Errorf("%w: adaptive_update_interval must be > 0, got %d", ErrConfigError, c.AdaptiveUpdateInterval)
	}

	return nil
}
