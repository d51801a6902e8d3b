package series

import (
	"fmt"
	"time"

	"github.com/Alias1177/bikecast/internal/model"
)

// GapPolicy decides what happens to time steps missing from a sequence
type GapPolicy string

const (
	// GapReject fails on the first missing step
	GapReject GapPolicy = "reject"
	// GapZero inserts missing steps with value 0. Used for counts, where an
	// hour with no trips is simply absent from the aggregation.
	GapZero GapPolicy = "zero"
	// GapInterpolate fills missing steps linearly between their neighbours.
	// Used for measurements such as temperature.
	GapInterpolate GapPolicy = "interpolate"
)

// ParseGapPolicy validates a policy name
func ParseGapPolicy(s string) (GapPolicy, error) {
	switch p := GapPolicy(s); p {
	case GapReject, GapZero, GapInterpolate:
		return p, nil
	}
	return "", fmt.Errorf("%q: %w", s, ErrUnknownGapPolicy)
}

// GapReport describes what Regularize changed
type GapReport struct {
	Gaps    int // number of distinct gaps
	Filled  int // number of inserted steps
	Longest int // longest gap in steps
}

// Regularize returns a sequence with exactly one observation per step between
// the first and the last timestamp. obs must be sorted and free of duplicates.
// Every timestamp must sit on a whole number of steps from the first one.
func Regularize(obs []model.Observation, step time.Duration, policy GapPolicy) ([]model.Observation, GapReport, error) {
	var report GapReport

	if step <= 0 {
		return nil, report, fmt.Errorf("step %s must be positive", step)
	}
	if _, err := ParseGapPolicy(string(policy)); err != nil {
		return nil, report, err
	}
	if err := Validate(obs); err != nil {
		return nil, report, err
	}
	if len(obs) == 0 {
		return nil, report, nil
	}

	out := make([]model.Observation, 0, len(obs))
	out = append(out, obs[0])

	for i := 1; i < len(obs); i++ {
		prev, cur := obs[i-1], obs[i]
		delta := cur.Time.Sub(prev.Time)
		if delta%step != 0 {
			return nil, report, fmt.Errorf("%s is %s after %s with step %s: %w",
				cur.Time.Format(time.RFC3339), delta, prev.Time.Format(time.RFC3339), step, ErrMisaligned)
		}

		missing := int(delta/step) - 1
		if missing > 0 {
			if policy == GapReject {
				return nil, report, fmt.Errorf("%d step(s) missing between %s and %s: %w",
					missing, prev.Time.Format(time.RFC3339), cur.Time.Format(time.RFC3339), ErrGap)
			}

			report.Gaps++
			report.Filled += missing
			if missing > report.Longest {
				report.Longest = missing
			}

			for k := 1; k <= missing; k++ {
				v := 0.0
				if policy == GapInterpolate {
					frac := float64(k) / float64(missing+1)
					v = prev.Value + (cur.Value-prev.Value)*frac
				}
				out = append(out, model.Observation{
					Time:  prev.Time.Add(time.Duration(k) * step),
					Value: v,
				})
			}
		}

		out = append(out, cur)
	}

	return out, report, nil
}
