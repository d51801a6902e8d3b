package model

import "time"

// Prediction pairs a model output with the value that was actually observed
type Prediction struct {
	Index     int       `json:"index"`
	Time      time.Time `json:"time,omitempty"` // Timestamp of the target step
	Predicted float64   `json:"predicted"`
	Actual    float64   `json:"actual"`
}

// Error returns the signed prediction error
func (p Prediction) Error() float64 {
	return p.Predicted - p.Actual
}
