package window

import (
	"fmt"
	"math"
)

// Bounds are the split boundaries over M examples:
// train [0, B1), validation [B1, B2), test [B2, M).
type Bounds struct {
	B1 int
	B2 int
	M  int
}

// Split is a chronological train/validation/test partition
type Split struct {
	Bounds     Bounds
	Train      *Dataset
	Validation *Dataset
	Test       *Dataset
}

// SplitBounds derives the boundaries from the example count:
// B1 = floor(train*M), B2 = B1 + floor(val*M). The test range takes the rest.
func SplitBounds(m int, train, val float64) (Bounds, error) {
	if m <= 0 {
		return Bounds{}, fmt.Errorf("no examples to split: %w", ErrInvalidSplit)
	}
	if !inUnit(train) || !inUnit(val) || train+val > 1 {
		return Bounds{}, fmt.Errorf("proportions train=%v val=%v: %w", train, val, ErrInvalidSplit)
	}

	b1 := int(math.Floor(train * float64(m)))
	b2 := b1 + int(math.Floor(val*float64(m)))
	if b2 > m {
		// float rounding when train+val is exactly 1
		b2 = m
	}

	return Bounds{B1: b1, B2: b2, M: m}, nil
}

func inUnit(p float64) bool {
	return p >= 0 && p <= 1 && !math.IsNaN(p)
}

// Split partitions the dataset into contiguous train, validation and test
// ranges without shuffling.
func (d *Dataset) Split(train, val float64) (*Split, error) {
	b, err := SplitBounds(d.Len(), train, val)
	if err != nil {
		return nil, err
	}

	return &Split{
		Bounds:     b,
		Train:      d.Slice(0, b.B1),
		Validation: d.Slice(b.B1, b.B2),
		Test:       d.Slice(b.B2, b.M),
	}, nil
}
