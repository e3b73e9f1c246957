// Package imaging wraps the gocv primitives used by the motion-detection
// pipeline: color-space conversion, contrast enhancement, smoothing, frame
// differencing, background subtraction, binarization, morphology and
// contour extraction. It exists so the core motioncore package can be
// tested and read without every call site drowning in gocv plumbing.
package imaging

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"
)

// ColorSpace identifies the conversion applied by ConvertColor.
type ColorSpace int

const (
	ColorGrayscale ColorSpace = iota
	ColorHSV
	ColorYCrCb
	ColorRGB
)

// ConvertColor converts src (assumed BGR, gocv's native decode order) into
// dst according to space. dst is resized/retyped by OpenCV as needed.
func ConvertColor(src gocv.Mat, dst *gocv.Mat, space ColorSpace) error {
	if src.Empty() {
		return fmt.Errorf("imaging: ConvertColor: source mat is empty")
	}
	var code gocv.ColorConversionCode
	switch space {
	case ColorGrayscale:
		code = gocv.ColorBGRToGray
	case ColorHSV:
		code = gocv.ColorBGRToHSV
	case ColorYCrCb:
		code = gocv.ColorBGRToYCrCb
	case ColorRGB:
		code = gocv.ColorBGRToRGB
	default:
		return fmt.Errorf("imaging: ConvertColor: unknown color space %d", space)
	}
	gocv.CvtColor(src, dst, code)
	return nil
}

// ApplyCLAHE runs contrast-limited adaptive histogram equalization on a
// single-channel src, writing the result to dst. If src has more than one channel, it is
// converted to grayscale first and dst comes back single-channel.
func ApplyCLAHE(src gocv.Mat, dst *gocv.Mat, clipLimit float64, tileSize int) {
	gray := src
	owned := false
	if src.Channels() != 1 {
		g := gocv.NewMat()
		gocv.CvtColor(src, &g, gocv.ColorBGRToGray)
		gray = g
		owned = true
	}
	clahe := gocv.NewCLAHEWithParams(clipLimit, image.Pt(tileSize, tileSize))
	defer clahe.Close()
	clahe.Apply(gray, dst)
	if owned {
		gray.Close()
	}
}

// BlurKind selects the smoothing filter applied by Blur.
type BlurKind int

const (
	BlurNone BlurKind = iota
	BlurGaussian
	BlurMedian
	BlurBilateral
)

// BlurParams carries the filter-specific knobs for Blur.
type BlurParams struct {
	GaussianKernel int
	MedianKernel   int
	BilateralD     int
	SigmaColor     float64
	SigmaSpace     float64
}

// Blur applies the requested smoothing filter. BlurNone copies src to dst
// unchanged so callers can always treat dst as the smoothed frame.
func Blur(src gocv.Mat, dst *gocv.Mat, kind BlurKind, p BlurParams) {
	switch kind {
	case BlurGaussian:
		k := p.GaussianKernel
		gocv.GaussianBlur(src, dst, image.Pt(k, k), 0, 0, gocv.BorderDefault)
	case BlurMedian:
		gocv.MedianBlur(src, dst, p.MedianKernel)
	case BlurBilateral:
		gocv.BilateralFilter(src, dst, p.BilateralD, p.SigmaColor, p.SigmaSpace)
	default:
		src.CopyTo(dst)
	}
}

// AbsDiff computes |current - reference| into dst, the frame-differencing
// half of the motion-detection input; the caller combines it with the
// background-subtraction mask (if enabled) before thresholding.
func AbsDiff(current, reference gocv.Mat, dst *gocv.Mat) {
	gocv.AbsDiff(current, reference, dst)
}

// BackgroundSubtractor wraps gocv's MOG2/KNN models behind one interface so
// the processing pipeline can swap methods without branching on type.
type BackgroundSubtractor interface {
	Apply(src gocv.Mat, dst *gocv.Mat)
	Close() error
}

type mog2Subtractor struct {
	bs gocv.BackgroundSubtractorMOG2
}

func (m *mog2Subtractor) Apply(src gocv.Mat, dst *gocv.Mat) { m.bs.Apply(src, dst) }
func (m *mog2Subtractor) Close() error                      { return m.bs.Close() }

type knnSubtractor struct {
	bs gocv.BackgroundSubtractorKNN
}

func (k *knnSubtractor) Apply(src gocv.Mat, dst *gocv.Mat) { k.bs.Apply(src, dst) }
func (k *knnSubtractor) Close() error                      { return k.bs.Close() }

// NewMOG2BackgroundSubtractor constructs a MOG2 model with the given
// history length, variance threshold and shadow-detection flag.
func NewMOG2BackgroundSubtractor(history int, varThreshold float64, detectShadows bool) BackgroundSubtractor {
	bs := gocv.NewBackgroundSubtractorMOG2WithParams(history, varThreshold, detectShadows)
	return &mog2Subtractor{bs: bs}
}

// NewKNNBackgroundSubtractor constructs a KNN model. It also serves
// configurations requesting the "PBAS" method: gocv exposes no PBAS
// implementation, and KNN is the closest adaptive, shadow-aware model it
// ships.
func NewKNNBackgroundSubtractor(history int, dist2Threshold float64, detectShadows bool) BackgroundSubtractor {
	bs := gocv.NewBackgroundSubtractorKNNWithParams(history, dist2Threshold, detectShadows)
	return &knnSubtractor{bs: bs}
}

// OtsuThreshold binarizes a single-channel src into dst using Otsu's
// automatic threshold selection, and returns the threshold value chosen.
func OtsuThreshold(src gocv.Mat, dst *gocv.Mat, maxValue float32) float32 {
	return gocv.ThresholdWithParams(src, dst, 0, maxValue, gocv.ThresholdBinary+gocv.ThresholdOtsu)
}

// MorphOp identifies one morphological transform step.
type MorphOp int

const (
	MorphClose MorphOp = iota
	MorphOpen
	MorphDilate
	MorphErode
)

// Morphology runs op against src into dst using an elliptical structuring
// element of the given size, in place if dst aliases src.
func Morphology(src gocv.Mat, dst *gocv.Mat, op MorphOp, kernelSize int) {
	kernel := gocv.GetStructuringElement(gocv.MorphEllipse, image.Pt(kernelSize, kernelSize))
	defer kernel.Close()
	switch op {
	case MorphClose:
		gocv.MorphologyEx(src, dst, gocv.MorphClose, kernel)
	case MorphOpen:
		gocv.MorphologyEx(src, dst, gocv.MorphOpen, kernel)
	case MorphDilate:
		gocv.Dilate(src, dst, kernel)
	case MorphErode:
		gocv.Erode(src, dst, kernel)
	}
}

// Contour is a simplified external contour: its raw point set plus the
// geometric properties the motion-detection filter stages need. Computing
// these once here avoids recomputing bounding rect / area / solidity at
// every call site.
type Contour struct {
	Points      gocv.PointVector
	BoundingBox image.Rectangle
	Area        float64
	Solidity    float64 // contour area / convex hull area, in [0,1]; 0 when the hull area is 0
	AspectRatio float64 // bounding box width / height
}

// Close releases the contour's backing point vector.
func (c Contour) Close() {
	c.Points.Close()
}

// FindExternalContours extracts external contours from a binary mask,
// optionally approximating each contour's polygon with the given epsilon
// factor (fraction of perimeter) and/or replacing it with its convex hull.
func FindExternalContours(mask gocv.Mat, approximate bool, epsilonFactor float64, useConvexHull bool) []Contour {
	raw := gocv.FindContours(mask, gocv.RetrievalExternal, gocv.ChainApproxSimple)
	defer raw.Close()

	contours := make([]Contour, 0, raw.Size())
	for i := 0; i < raw.Size(); i++ {
		pv := raw.At(i)

		working := pv
		ownsWorking := false
		if approximate {
			perimeter := gocv.ArcLength(pv, true)
			approx := gocv.ApproxPolyDP(pv, epsilonFactor*perimeter, true)
			working = approx
			ownsWorking = true
		}
		if useConvexHull {
			hullIdx := gocv.NewMat()
			gocv.ConvexHullIdx(working, &hullIdx)
			hullPts := pointsFromHullIndices(working, hullIdx)
			hullIdx.Close()
			if ownsWorking {
				working.Close()
			}
			working = hullPts
			ownsWorking = true
		}

		area := gocv.ContourArea(working)
		rect := gocv.BoundingRect(working)

		hull := gocv.NewMat()
		gocv.ConvexHullIdx(working, &hull)
		hullPts := pointsFromHullIndices(working, hull)
		hull.Close()
		hullArea := gocv.ContourArea(hullPts)
		hullPts.Close()

		solidity := 0.0
		if hullArea > 0 {
			solidity = area / hullArea
		}
		aspectRatio := 0.0
		if rect.Dy() > 0 {
			aspectRatio = float64(rect.Dx()) / float64(rect.Dy())
		}

		contours = append(contours, Contour{
			Points:      working,
			BoundingBox: rect,
			Area:        area,
			Solidity:    solidity,
			AspectRatio: aspectRatio,
		})
	}
	return contours
}

// pointsFromHullIndices materializes the points a ConvexHullIdx result
// refers to into their own PointVector, since gocv's hull functions return
// index matrices rather than point sets directly.
func pointsFromHullIndices(src gocv.PointVector, hullIdx gocv.Mat) gocv.PointVector {
	pts := src.ToPoints()
	out := make([]image.Point, 0, hullIdx.Rows())
	for i := 0; i < hullIdx.Rows(); i++ {
		idx := int(hullIdx.GetIntAt(i, 0))
		if idx >= 0 && idx < len(pts) {
			out = append(out, pts[idx])
		}
	}
	return gocv.NewPointVectorFromPoints(out)
}
