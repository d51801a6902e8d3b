// Package window turns an ordered univariate series into supervised
// (window, target) examples and partitions them chronologically.
package window

import (
	"fmt"
	"time"

	"github.com/Alias1177/bikecast/internal/model"
)

// Dataset holds windowed examples. X[i] is a window of W single-feature
// vectors and Y[i] is the value immediately following it.
type Dataset struct {
	X [][][]float64
	Y []float64

	// Times holds the timestamp of each target when the dataset was built from
	// observations. It is nil for datasets built from bare values.
	Times []time.Time

	// Offset is the position of X[0][0] in the source series.
	Offset int
}

// Len returns the number of examples
func (d *Dataset) Len() int {
	return len(d.Y)
}

// WindowSize returns W, or 0 for an empty dataset
func (d *Dataset) WindowSize() int {
	if len(d.X) == 0 {
		return 0
	}
	return len(d.X[0])
}

// Build produces n-w examples from values: X[i] = values[i:i+w] wrapped as
// one-feature vectors and Y[i] = values[i+w]. values is not modified.
func Build(values []float64, w int) (*Dataset, error) {
	n := len(values)
	if w <= 0 || w >= n {
		return nil, fmt.Errorf("window size %d for sequence of length %d: %w", w, n, ErrInvalidWindowSize)
	}

	m := n - w
	ds := &Dataset{
		X: make([][][]float64, m),
		Y: make([]float64, m),
	}

	for i := 0; i < m; i++ {
		win := make([][]float64, w)
		for j := 0; j < w; j++ {
			win[j] = []float64{values[i+j]}
		}
		ds.X[i] = win
		ds.Y[i] = values[i+w]
	}

	return ds, nil
}

// FromObservations checks that obs is strictly increasing in time and builds
// the windowed dataset from its values.
func FromObservations(obs []model.Observation, w int) (*Dataset, error) {
	if err := CheckOrder(obs); err != nil {
		return nil, err
	}

	values := make([]float64, len(obs))
	for i, o := range obs {
		values[i] = o.Value
	}

	ds, err := Build(values, w)
	if err != nil {
		return nil, err
	}

	ds.Times = make([]time.Time, ds.Len())
	for i := range ds.Times {
		ds.Times[i] = obs[i+w].Time
	}

	return ds, nil
}

// CheckOrder returns ErrUnsortedSequence if any timestamp is not strictly
// after its predecessor.
func CheckOrder(obs []model.Observation) error {
	for i := 1; i < len(obs); i++ {
		if !obs[i].Time.After(obs[i-1].Time) {
			return fmt.Errorf("observation %d (%s) does not follow observation %d (%s): %w",
				i, obs[i].Time.Format(time.RFC3339), i-1, obs[i-1].Time.Format(time.RFC3339), ErrUnsortedSequence)
		}
	}
	return nil
}

// Slice returns the examples in [from, to) as a new Dataset sharing the
// underlying windows.
func (d *Dataset) Slice(from, to int) *Dataset {
	out := &Dataset{
		X:      d.X[from:to:to],
		Y:      d.Y[from:to:to],
		Offset: d.Offset + from,
	}
	if d.Times != nil {
		out.Times = d.Times[from:to:to]
	}
	return out
}

// Flatten returns window i as a plain slice of values
func (d *Dataset) Flatten(i int) []float64 {
	out := make([]float64, len(d.X[i]))
	for j, step := range d.X[i] {
		out[j] = step[0]
	}
	return out
}
