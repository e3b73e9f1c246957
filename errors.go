package motioncore

import "errors"

// Sentinel error kinds the core distinguishes, per the error-handling
// design: InvalidInput and BackgroundModelError are recovered locally by
// the owning component and never escape a top-level call; ConfigError is
// surfaced only at construction time and is fatal to the caller;
// ClassifierError is localized to a single tracked object's classification;
// Internal marks an arithmetic/bounds-check violation that caused a frame
// to be skipped without mutating state.
var (
	ErrInvalidInput      = errors.New("motioncore: invalid input")
	ErrConfigError       = errors.New("motioncore: invalid configuration")
	ErrBackgroundModel   = errors.New("motioncore: background model error")
	ErrClassifierFailure = errors.New("motioncore: classifier error")
	ErrInternal          = errors.New("motioncore: internal error")
)
