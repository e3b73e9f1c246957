package motioncore

import (
	"fmt"

	"gocv.io/x/gocv"

	"github.com/motioncore/motioncore/internal/imaging"
)

// MotionProcessor turns one raw frame into a set of candidate bounding
// rectangles. It holds the previous preprocessed frame and an optional
// background model; both are reset whenever the input frame size changes.
//
// A MotionProcessor is not safe for concurrent use: ProcessFrame mutates
// the processor's previous-frame slot and must be called strictly in
// frame order (see the ordering guarantees this core relies on).
type MotionProcessor struct {
	config MotionConfig
	logger *onceLogger

	previous Frame

	background         imaging.BackgroundSubtractor
	backgroundDisabled bool

	frameCount    int
	thresholds    contourFilterThresholds
	adaptiveStats adaptiveContourStats
}

// NewMotionProcessor validates cfg and constructs a MotionProcessor. A nil
// logger defaults to DefaultLogger().
func NewMotionProcessor(cfg MotionConfig, logger Logger) (*MotionProcessor, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = DefaultLogger()
	}
	return &MotionProcessor{
		config:   cfg,
		logger:   newOnceLogger(logger),
		previous: EmptyFrame(),
		thresholds: contourFilterThresholds{
			minArea:        float64(cfg.MinContourArea),
			minSolidity:    cfg.MinContourSolidity,
			maxAspectRatio: cfg.MaxContourAspectRatio,
		},
	}, nil
}

// Config returns the processor's immutable configuration.
func (m *MotionProcessor) Config() MotionConfig {
	return m.config
}

// Reset clears the previous frame and background model. The next call to
// ProcessFrame is treated as the first frame.
func (m *MotionProcessor) Reset() {
	m.previous.Close()
	m.previous = EmptyFrame()
	m.closeBackground()
	m.frameCount = 0
	m.adaptiveStats = adaptiveContourStats{}
	m.thresholds = contourFilterThresholds{
		minArea:        float64(m.config.MinContourArea),
		minSolidity:    m.config.MinContourSolidity,
		maxAspectRatio: m.config.MaxContourAspectRatio,
	}
}

func (m *MotionProcessor) closeBackground() {
	if m.background != nil {
		m.background.Close()
		m.background = nil
	}
	m.backgroundDisabled = false
}

// ProcessFrame runs the eight-stage algorithm on raw and returns the
// resulting ProcessingResult. raw is never mutated. Any internal imaging
// failure is absorbed: ProcessFrame logs and returns an empty result
// rather than propagating an error or panicking.
func (m *MotionProcessor) ProcessFrame(raw Frame) ProcessingResult {
	if raw.Empty() {
		return emptyProcessingResult()
	}
	if raw.Channels() != 1 && raw.Channels() != 3 {
		m.logger.logOnce("invalid-channels", "%v: frame has %d channels, want 1 or 3", ErrInvalidInput, raw.Channels())
		return emptyProcessingResult()
	}

	if !m.previous.Empty() && !raw.SameSizeAs(m.previous) {
		m.Reset()
	}

	processed, err := m.preprocess(raw)
	if err != nil {
		m.logger.logOnce("preprocess-failed", "%v: preprocessing failed: %v", ErrInternal, err)
		return emptyProcessingResult()
	}

	if m.previous.Empty() {
		m.previous = processed.Clone()
		processed.Close()
		return emptyProcessingResult()
	}

	diffMat := gocv.NewMat()
	gocv.AbsDiff(processed.Mat(), m.previous.Mat(), &diffMat)
	diff := NewFrame(diffMat)

	combined := diff.Clone()
	m.applyBackgroundSubtraction(processed, &combined)

	thresholdFrame, err := m.threshold(combined)
	combined.Close()
	if err != nil {
		processed.Close()
		diff.Close()
		m.logger.logOnce("threshold-failed", "%v: thresholding failed: %v", ErrInternal, err)
		return emptyProcessingResult()
	}

	morphFrame := m.morphology(thresholdFrame)

	bounds := m.extractCandidateBounds(morphFrame, raw.Rect())

	m.previous.Close()
	m.previous = processed.Clone()
	m.frameCount++

	return ProcessingResult{
		Processed:       processed,
		Diff:            diff,
		Threshold:       thresholdFrame,
		Morph:           morphFrame,
		CandidateBounds: bounds,
		HasMotion:       len(bounds) > 0,
	}
}

// preprocess runs color conversion, optional CLAHE, then blur, producing
// the frame that is stored as "previous" and diffed on the next call.
func (m *MotionProcessor) preprocess(raw Frame) (Frame, error) {
	converted := gocv.NewMat()
	switch m.config.ProcessingMode {
	case ProcessingModeGrayscale:
		if err := imaging.ConvertColor(raw.Mat(), &converted, imaging.ColorGrayscale); err != nil {
			converted.Close()
			return Frame{}, err
		}
	case ProcessingModeYCrCb:
		ycc := gocv.NewMat()
		if err := imaging.ConvertColor(raw.Mat(), &ycc, imaging.ColorYCrCb); err != nil {
			ycc.Close()
			converted.Close()
			return Frame{}, err
		}
		gocv.CvtColor(ycc, &converted, gocv.ColorBGRToGray)
		ycc.Close()
	case ProcessingModeHSV:
		hsv := gocv.NewMat()
		if err := imaging.ConvertColor(raw.Mat(), &hsv, imaging.ColorHSV); err != nil {
			hsv.Close()
			converted.Close()
			return Frame{}, err
		}
		lo := gocv.NewScalar(m.config.HSVLower.H, m.config.HSVLower.S, m.config.HSVLower.V, 0)
		hi := gocv.NewScalar(m.config.HSVUpper.H, m.config.HSVUpper.S, m.config.HSVUpper.V, 0)
		gocv.InRangeWithScalar(hsv, lo, hi, &converted)
		hsv.Close()
	case ProcessingModeRGB:
		if err := imaging.ConvertColor(raw.Mat(), &converted, imaging.ColorRGB); err != nil {
			converted.Close()
			return Frame{}, err
		}
	default:
		converted.Close()
		return Frame{}, fmt.Errorf("%w: unknown processing mode %q", ErrConfigError, m.config.ProcessingMode)
	}

	enhanced := converted
	if m.config.ContrastEnhancement {
		claheOut := gocv.NewMat()
		imaging.ApplyCLAHE(converted, &claheOut, m.config.CLAHEClipLimit, m.config.CLAHETileSize)
		converted.Close()
		enhanced = claheOut
	}

	blurInput := enhanced
	blurred := gocv.NewMat()
	switch m.config.BlurType {
	case BlurNone:
		blurInput.CopyTo(&blurred)
	case BlurGaussian:
		imaging.Blur(blurInput, &blurred, imaging.BlurGaussian, imaging.BlurParams{GaussianKernel: m.config.GaussianBlurSize})
	case BlurMedian:
		imaging.Blur(blurInput, &blurred, imaging.BlurMedian, imaging.BlurParams{MedianKernel: m.config.MedianBlurSize})
	case BlurBilateral:
		single := blurInput
		ownsSingle := false
		if blurInput.Channels() != 1 {
			g := gocv.NewMat()
			gocv.CvtColor(blurInput, &g, gocv.ColorBGRToGray)
			single = g
			ownsSingle = true
		}
		imaging.Blur(single, &blurred, imaging.BlurBilateral, imaging.BlurParams{
			BilateralD: m.config.BilateralD,
			SigmaColor: m.config.BilateralSigmaColor,
			SigmaSpace: m.config.BilateralSigmaSpace,
		})
		if ownsSingle {
			single.Close()
		}
	default:
		blurred.Close()
		enhanced.Close()
		return Frame{}, fmt.Errorf("%w: unknown blur type %q", ErrConfigError, m.config.BlurType)
	}
	enhanced.Close()

	return NewFrame(blurred), nil
}

// applyBackgroundSubtraction ORs the background model's foreground mask
// into combined, if background subtraction is enabled and has not been
// downgraded due to a prior failure.
func (m *MotionProcessor) applyBackgroundSubtraction(processed Frame, combined *Frame) {
	if !m.config.BackgroundSubtraction || m.backgroundDisabled {
		return
	}
	if m.background == nil {
		if !m.initBackground() {
			return
		}
	}

	fg := gocv.NewMat()
	defer fg.Close()
	func() {
		defer func() {
			if r := recover(); r != nil {
				m.logger.logOnce("background-apply-panic", "%v: background subtractor panicked, downgrading to frame-differencing only: %v", ErrBackgroundModel, r)
				m.backgroundDisabled = true
			}
		}()
		m.background.Apply(processed.Mat(), &fg)
	}()
	if m.backgroundDisabled || fg.Empty() {
		return
	}

	orOut := gocv.NewMat()
	gocv.BitwiseOr(combined.Mat(), fg, &orOut)
	combined.Close()
	*combined = NewFrame(orOut)
}

func (m *MotionProcessor) initBackground() bool {
	defer func() {
		if r := recover(); r != nil {
			m.logger.logOnce("background-init-panic", "%v: background subtractor failed to initialize, downgrading to frame-differencing only: %v", ErrBackgroundModel, r)
			m.backgroundDisabled = true
		}
	}()
	switch m.config.BackgroundSubtractionMethod {
	case BackgroundMOG2:
		m.background = imaging.NewMOG2BackgroundSubtractor(m.config.BackgroundHistory, m.config.BackgroundThreshold, m.config.BackgroundDetectShadows)
	case BackgroundKNN, BackgroundPBAS:
		m.background = imaging.NewKNNBackgroundSubtractor(m.config.BackgroundHistory, m.config.BackgroundThreshold, m.config.BackgroundDetectShadows)
	default:
		m.logger.logOnce("background-unknown-method", "%v: unknown background_subtraction_method %q, downgrading to frame-differencing only", ErrBackgroundModel, m.config.BackgroundSubtractionMethod)
		m.backgroundDisabled = true
		return false
	}
	return true
}

// threshold applies Otsu binarization to combined, converting to
// single-channel grayscale first if necessary.
func (m *MotionProcessor) threshold(combined Frame) (Frame, error) {
	gray := combined.Mat()
	owned := false
	if combined.Channels() != 1 {
		g := gocv.NewMat()
		gocv.CvtColor(combined.Mat(), &g, gocv.ColorBGRToGray)
		gray = g
		owned = true
	}
	out := gocv.NewMat()
	imaging.OtsuThreshold(gray, &out, float32(m.config.MaxThreshold))
	if owned {
		gray.Close()
	}
	return NewFrame(out), nil
}

// morphology applies the configured sequence of morphological operators, in
// the order close, open, dilate, erode, to whichever steps are enabled.
func (m *MotionProcessor) morphology(thresholdFrame Frame) Frame {
	out := thresholdFrame.Clone()
	if !m.config.Morphology {
		return out
	}
	mat := out.Mat()
	size := m.config.MorphKernelSize
	if m.config.MorphClose {
		imaging.Morphology(mat, &mat, imaging.MorphClose, size)
	}
	if m.config.MorphOpen {
		imaging.Morphology(mat, &mat, imaging.MorphOpen, size)
	}
	if m.config.MorphDilation {
		imaging.Morphology(mat, &mat, imaging.MorphDilate, size)
	}
	if m.config.MorphErosion {
		imaging.Morphology(mat, &mat, imaging.MorphErode, size)
	}
	return out
}

// currentThresholds returns the filter thresholds to apply this frame:
// the cached adaptive set if in adaptive mode and one exists yet, the
// permissive config values in permissive mode, and the plain
// min_contour_area/min_solidity/max_aspect_ratio config values as the
// adaptive default before the first recomputation.
func (m *MotionProcessor) currentThresholds() contourFilterThresholds {
	switch m.config.ContourDetectionMode {
	case ContourModePermissive:
		return contourFilterThresholds{
			minArea:        float64(m.config.PermissiveMinArea),
			minSolidity:    m.config.PermissiveMinSolidity,
			maxAspectRatio: m.config.PermissiveMaxAspectRatio,
		}
	default: // ContourModeAdaptive
		return m.thresholds
	}
}

// extractCandidateBounds finds external contours on morph, filters them by
// the active threshold set, and returns their bounding rects clipped to
// frameRect. In adaptive mode it also feeds the observed contour stats
// into the rolling distribution and, every adaptive_update_interval
// frames, recomputes and caches the next threshold set.
func (m *MotionProcessor) extractCandidateBounds(morph Frame, frameRect Rect) []Rect {
	thresholds := m.currentThresholds()

	contours := imaging.FindExternalContours(morph.Mat(), m.config.ContourApproximation, m.config.ContourEpsilonFactor, m.config.ConvexHull)
	defer func() {
		for _, c := range contours {
			c.Close()
		}
	}()

	bounds := make([]Rect, 0, len(contours))
	adaptive := m.config.ContourDetectionMode == ContourModeAdaptive

	for _, c := range contours {
		if adaptive {
			m.adaptiveStats.observe(c.Area, c.Solidity, c.AspectRatio)
		}

		if !m.config.ContourFiltering {
			bounds = append(bounds, m.boundFromContour(c, frameRect))
			continue
		}
		if c.Area < thresholds.minArea {
			continue
		}
		if m.config.ConvexHull && c.Solidity < thresholds.minSolidity {
			continue
		}
		if c.AspectRatio > thresholds.maxAspectRatio {
			continue
		}
		bounds = append(bounds, m.boundFromContour(c, frameRect))
	}

	if adaptive && m.frameCount > 0 && m.frameCount%m.config.AdaptiveUpdateInterval == 0 {
		if next, ok := m.adaptiveStats.recompute(); ok {
			m.thresholds = next
		}
	}

	return bounds
}

// boundFromContour converts a contour's bounding box (image.Rectangle) into
// a Rect clipped to frameRect.
func (m *MotionProcessor) boundFromContour(c imaging.Contour, frameRect Rect) Rect {
	r := NewRect(c.BoundingBox.Min.X, c.BoundingBox.Min.Y, c.BoundingBox.Dx(), c.BoundingBox.Dy())
	return r.ClipTo(frameRect.Width, frameRect.Height)
}
