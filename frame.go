package motioncore

import (
	"image"

	"gocv.io/x/gocv"
)

// Frame is an immutable-by-convention rectangular array of pixels backed by
// a gocv.Mat. The pipeline never mutates a Frame handed to it by a caller;
// every stage that needs to modify pixels first clones into a new Frame.
type Frame struct {
	mat gocv.Mat
}

// NewFrame wraps an existing gocv.Mat. Ownership of mat passes to the
// returned Frame; call Close when done with it.
func NewFrame(mat gocv.Mat) Frame {
	return Frame{mat: mat}
}

// EmptyFrame returns the zero-value Frame, used for the first-frame and
// empty-input edge cases.
func EmptyFrame() Frame {
	return Frame{}
}

// Mat returns the underlying gocv.Mat. Callers must not retain a reference
// past the lifetime of the Frame.
func (f Frame) Mat() gocv.Mat {
	return f.mat
}

// Empty reports whether the frame carries no pixel data.
func (f Frame) Empty() bool {
	return f.mat.Empty() || f.mat.Cols() == 0 || f.mat.Rows() == 0
}

// Width, Height, Channels describe the frame's shape.
func (f Frame) Width() int    { return f.mat.Cols() }
func (f Frame) Height() int   { return f.mat.Rows() }
func (f Frame) Channels() int { return f.mat.Channels() }

// SameSizeAs reports whether f and o share width and height (channel count
// may differ across pipeline stages, e.g. a 3-channel input vs. a
// single-channel threshold output).
func (f Frame) SameSizeAs(o Frame) bool {
	return f.Width() == o.Width() && f.Height() == o.Height()
}

// Clone returns a deep copy of the frame, safe to mutate independently.
func (f Frame) Clone() Frame {
	if f.mat.Empty() {
		return Frame{}
	}
	return Frame{mat: f.mat.Clone()}
}

// Close releases the underlying Mat. Safe to call on the zero Frame.
func (f Frame) Close() error {
	if f.mat.Ptr() == nil {
		return nil
	}
	return f.mat.Close()
}

// Rect returns the frame's bounds as a Rect anchored at the origin.
func (f Frame) Rect() Rect {
	return Rect{X: 0, Y: 0, Width: f.Width(), Height: f.Height()}
}

// Region returns a view of f restricted to r, which must already be
// clipped to f's bounds. The returned Frame shares pixel data with f:
// callers must not retain it past f's lifetime, but may Close it
// independently (releasing only the view header).
func (f Frame) Region(r Rect) Frame {
	return Frame{mat: f.mat.Region(image.Rect(r.X, r.Y, r.Right(), r.Bottom()))}
}
