package motioncore

import (
	"sort"

	"gonum.org/v1/gonum/stat"
)

// contourFilterThresholds are the live area/solidity/aspect-ratio cutoffs
// applied to a frame's contours, whichever detection mode produced them.
type contourFilterThresholds struct {
	minArea        float64
	minSolidity    float64
	maxAspectRatio float64
}

// adaptiveContourStats accumulates raw properties of the most recently
// observed contours, so the adaptive detection mode can derive its next
// threshold set from a recent distribution rather than a fixed config
// value. It is not cleared on recomputation; it keeps a rolling window of
// the last adaptiveStatsCap samples so a long run does not grow it
// unboundedly.
type adaptiveContourStats struct {
	areas        []float64
	solidities   []float64
	aspectRatios []float64
}

const adaptiveStatsCap = 2000

func (s *adaptiveContourStats) observe(area, solidity, aspectRatio float64) {
	s.areas = appendBounded(s.areas, area, adaptiveStatsCap)
	s.solidities = appendBounded(s.solidities, solidity, adaptiveStatsCap)
	s.aspectRatios = appendBounded(s.aspectRatios, aspectRatio, adaptiveStatsCap)
}

func appendBounded(buf []float64, v float64, maxLen int) []float64 {
	buf = append(buf, v)
	if len(buf) > maxLen {
		buf = buf[len(buf)-maxLen:]
	}
	return buf
}

// recompute derives new thresholds from the accumulated distribution: a
// low percentile of area (permissive toward small-but-real motion), the
// median of solidity, and a high percentile of aspect ratio. Returns false
// if there is not yet enough data to recompute (fewer than two samples).
func (s *adaptiveContourStats) recompute() (contourFilterThresholds, bool) {
	if len(s.areas) < 2 {
		return contourFilterThresholds{}, false
	}
	return contourFilterThresholds{
		minArea:        percentile(s.areas, 0.10),
		minSolidity:    percentile(s.solidities, 0.50),
		maxAspectRatio: percentile(s.aspectRatios, 0.90),
	}, true
}

// percentile returns the p-quantile (p in [0,1]) of data using the
// empirical CDF. data itself is left unchanged; a private copy is sorted.
func percentile(data []float64, p float64) float64 {
	sorted := make([]float64, len(data))
	copy(sorted, data)
	sort.Float64s(sorted)
	return stat.Quantile(p, stat.Empirical, sorted, nil)
}
