package model

import "time"

// Record is a raw row as produced by an aggregation query or a CSV file,
// before the date column has been parsed.
type Record struct {
	Date  string  `json:"date"`
	Value float64 `json:"value"`
}

// Observation is a single point of a univariate time series
type Observation struct {
	Time  time.Time `json:"time"`
	Value float64   `json:"value"`
}
