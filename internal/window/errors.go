package window

import "errors"

// Sentinel errors returned by the window package. Callers match them with
// errors.Is; the package wraps them with the offending values.
var (
	// ErrInvalidWindowSize is returned when the window size is not in (0, n).
	ErrInvalidWindowSize = errors.New("window: invalid window size")

	// ErrUnsortedSequence is returned when observation timestamps are not
	// strictly increasing. Duplicate timestamps count as unsorted.
	ErrUnsortedSequence = errors.New("window: sequence is not sorted by time")

	// ErrInvalidSplit is returned for split proportions outside [0, 1], proportions
	// summing to more than 1, or an empty dataset.
	ErrInvalidSplit = errors.New("window: invalid split")
)
