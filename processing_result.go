package motioncore

// ProcessingResult is the output of one MotionProcessor.ProcessFrame call.
// All Frame fields share the size of the input frame. The caller owns the
// returned frames and must Close each one once done with it.
type ProcessingResult struct {
	Processed Frame
	Diff      Frame
	Threshold Frame
	Morph     Frame

	// CandidateBounds is an ordered list of contour-derived rectangles,
	// each clipped to the input frame.
	CandidateBounds []Rect

	// HasMotion is true iff CandidateBounds is non-empty.
	HasMotion bool
}

// Close releases every frame held by the result. Safe to call on a
// zero-value ProcessingResult.
func (r ProcessingResult) Close() {
	r.Processed.Close()
	r.Diff.Close()
	r.Threshold.Close()
	r.Morph.Close()
}

// emptyProcessingResult is returned whenever a frame is rejected or the
// pipeline has not yet accumulated enough state to report motion.
func emptyProcessingResult() ProcessingResult {
	return ProcessingResult{
		Processed:       EmptyFrame(),
		Diff:            EmptyFrame(),
		Threshold:       EmptyFrame(),
		Morph:           EmptyFrame(),
		CandidateBounds: nil,
		HasMotion:       false,
	}
}
