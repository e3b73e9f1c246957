// Package trackmetrics wires the ported py-motmetrics accumulator to the
// ported scipy Hungarian solver, giving tracker test suites a MOTA/MOTP-style
// identity-stability harness instead of hand-rolled bookkeeping.
package trackmetrics

import (
	"github.com/motioncore/motioncore/internal/motmetrics"
	"github.com/motioncore/motioncore/internal/scipy"
)

// Accumulator re-exports motmetrics.MOTAccumulator so callers need only
// import this package.
type Accumulator = motmetrics.MOTAccumulator

// NewAccumulator creates an Accumulator for one sequence of frames.
func NewAccumulator(sequenceName string) *Accumulator {
	return motmetrics.NewMOTAccumulator(sequenceName)
}

// HungarianMatch adapts scipy.LinearSumAssignment to the hungarianFn shape
// Accumulator.Update expects: it solves the assignment problem over
// distanceMatrix, rejects any pairing whose distance exceeds threshold, and
// returns matches alongside unmatched row/column indices.
func HungarianMatch(distanceMatrix [][]float64, threshold float64) (matches [][2]int, unmatchedRows, unmatchedCols []int) {
	assignments, unmatchedRows, unmatchedCols := scipy.LinearSumAssignment(distanceMatrix, threshold)
	matches = make([][2]int, len(assignments))
	for i, a := range assignments {
		matches[i] = [2]int{a.RowIdx, a.ColIdx}
	}
	return matches, unmatchedRows, unmatchedCols
}

// Update runs one frame of ground-truth/hypothesis boxes through acc using
// HungarianMatch as its assignment function.
func Update(acc *Accumulator, gtBoxes [][]float64, gtIDs []int, hypBoxes [][]float64, hypIDs []int, threshold float64) {
	acc.Update(gtBoxes, gtIDs, hypBoxes, hypIDs, threshold, HungarianMatch)
}

// RectToBox converts an (xMin, yMin, xMax, yMax) tuple as used by IouDistance
// into the []float64 shape Accumulator.Update expects. Kept here, rather
// than in the geometry-owning package, so trackmetrics stays a leaf
// dependency callers can import without pulling in the core package.
func RectToBox(xMin, yMin, xMax, yMax int) []float64 {
	return []float64{float64(xMin), float64(yMin), float64(xMax), float64(yMax)}
}
