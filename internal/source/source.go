// Package source loads observation sequences from CSV files, CSV over HTTP,
// or the Postgres aggregation queries.
package source

import (
	"context"
	"errors"

	"github.com/Alias1177/bikecast/internal/model"
)

var (
	ErrMissingColumn = errors.New("source: column not found in header")
	ErrBadValue      = errors.New("source: value is not a number")
	ErrEmpty         = errors.New("source: no observations")
)

// Source yields a chronologically sorted observation sequence
type Source interface {
	Load(ctx context.Context) ([]model.Observation, error)
}
