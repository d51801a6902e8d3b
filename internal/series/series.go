// Package series prepares raw dated records for windowing: date parsing,
// chronological ordering and gap handling.
package series

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/Alias1177/bikecast/internal/model"
	"github.com/Alias1177/bikecast/internal/window"
)

var (
	ErrBadDate            = errors.New("series: date does not match layout")
	ErrDuplicateTimestamp = errors.New("series: duplicate timestamp")
	ErrGap                = errors.New("series: missing time step")
	ErrMisaligned         = errors.New("series: timestamp not aligned to step")
	ErrUnknownGapPolicy   = errors.New("series: unknown gap policy")
)

// Parse converts records into observations using a Go time layout. Dates
// are parsed in UTC. Records keep their input order.
func Parse(records []model.Record, layout string) ([]model.Observation, error) {
	obs := make([]model.Observation, 0, len(records))
	for i, r := range records {
		t, err := time.ParseInLocation(layout, strings.TrimSpace(r.Date), time.UTC)
		if err != nil {
			return nil, fmt.Errorf("row %d: %q with layout %q: %w", i, r.Date, layout, ErrBadDate)
		}
		obs = append(obs, model.Observation{Time: t, Value: r.Value})
	}
	return obs, nil
}

// Sort orders observations chronologically in place. The raw date text
// (M/D/YYYY) does not sort correctly as a string, so ordering always uses the
// parsed time.
func Sort(obs []model.Observation) {
	sort.SliceStable(obs, func(i, j int) bool {
		return obs[i].Time.Before(obs[j].Time)
	})
}

// Validate checks that timestamps are strictly increasing. Duplicates are
// reported as ErrDuplicateTimestamp, both cases also match
// window.ErrUnsortedSequence.
func Validate(obs []model.Observation) error {
	for i := 1; i < len(obs); i++ {
		if obs[i].Time.Equal(obs[i-1].Time) {
			return fmt.Errorf("%w at %s (rows %d and %d): %w",
				ErrDuplicateTimestamp, obs[i].Time.Format(time.RFC3339), i-1, i, window.ErrUnsortedSequence)
		}
	}
	return window.CheckOrder(obs)
}

// Values extracts the value column
func Values(obs []model.Observation) []float64 {
	out := make([]float64, len(obs))
	for i, o := range obs {
		out[i] = o.Value
	}
	return out
}
