// Package scale standardises series values before training.
package scale

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Standard is a z-score scaler. The zero value is the identity transform.
type Standard struct {
	Mean float64 `json:"mean"`
	Std  float64 `json:"std"`
}

// Fit computes mean and population standard deviation of values. A constant
// or empty input yields Std 1 so the transform stays invertible.
func Fit(values []float64) Standard {
	if len(values) == 0 {
		return Standard{Std: 1}
	}

	mean, std := stat.PopMeanStdDev(values, nil)
	if std == 0 || math.IsNaN(std) {
		std = 1
	}

	return Standard{Mean: mean, Std: std}
}

func (s Standard) std() float64 {
	if s.Std == 0 {
		return 1
	}
	return s.Std
}

// Transform maps a single value into scaled space
func (s Standard) Transform(v float64) float64 {
	return (v - s.Mean) / s.std()
}

// Inverse maps a scaled value back to original units
func (s Standard) Inverse(v float64) float64 {
	return v*s.std() + s.Mean
}

// TransformAll returns a scaled copy of values
func (s Standard) TransformAll(values []float64) []float64 {
	out := make([]float64, len(values))
	copy(out, values)
	floats.AddConst(-s.Mean, out)
	floats.Scale(1/s.std(), out)
	return out
}

// InverseAll maps a slice of scaled values back to original units
func (s Standard) InverseAll(values []float64) []float64 {
	out := make([]float64, len(values))
	floats.ScaleTo(out, s.std(), values)
	floats.AddConst(s.Mean, out)
	return out
}

// Spread maps a distance in scaled space, such as an RMSE, to original units
func (s Standard) Spread(d float64) float64 {
	return d * s.std()
}
