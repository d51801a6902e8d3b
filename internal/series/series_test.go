package series

import (
	"testing"
	"time"

	"github.com/Alias1177/bikecast/internal/model"
	"github.com/Alias1177/bikecast/internal/window"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	records := []model.Record{
		{Date: "8/29/2013", Value: 748},
		{Date: "08/30/2013", Value: 714},
		{Date: " 12/1/2013 ", Value: 12},
	}

	obs, err := Parse(records, "1/2/2006")
	require.NoError(t, err)
	require.Len(t, obs, 3)

	assert.Equal(t, time.Date(2013, 8, 29, 0, 0, 0, 0, time.UTC), obs[0].Time)
	assert.Equal(t, time.Date(2013, 8, 30, 0, 0, 0, 0, time.UTC), obs[1].Time)
	assert.Equal(t, time.Date(2013, 12, 1, 0, 0, 0, 0, time.UTC), obs[2].Time)
	assert.Equal(t, 748.0, obs[0].Value)
}

func TestParse_Hourly(t *testing.T) {
	obs, err := Parse([]model.Record{{Date: "1/5/2014 7", Value: 3}, {Date: "1/5/2014 17", Value: 9}}, "1/2/2006 15")
	require.NoError(t, err)

	assert.Equal(t, time.Date(2014, 1, 5, 7, 0, 0, 0, time.UTC), obs[0].Time)
	assert.Equal(t, time.Date(2014, 1, 5, 17, 0, 0, 0, time.UTC), obs[1].Time)
}

func TestParse_BadDate(t *testing.T) {
	_, err := Parse([]model.Record{{Date: "8/29/2013"}, {Date: "2013-08-30"}}, "1/2/2006")
	assert.ErrorIs(t, err, ErrBadDate)
	assert.Contains(t, err.Error(), "row 1")
}

func TestSort_ChronologicalNotLexical(t *testing.T) {
	// lexically "10/1/2013" < "9/30/2013"
	obs, err := Parse([]model.Record{
		{Date: "10/1/2013", Value: 2},
		{Date: "9/30/2013", Value: 1},
		{Date: "1/1/2014", Value: 3},
	}, "1/2/2006")
	require.NoError(t, err)

	Sort(obs)
	assert.Equal(t, []float64{1, 2, 3}, Values(obs))
	assert.NoError(t, Validate(obs))
}

func TestValidate(t *testing.T) {
	day := time.Date(2014, 3, 1, 0, 0, 0, 0, time.UTC)

	dup := []model.Observation{{Time: day}, {Time: day}}
	err := Validate(dup)
	assert.ErrorIs(t, err, ErrDuplicateTimestamp)
	assert.ErrorIs(t, err, window.ErrUnsortedSequence)

	back := []model.Observation{{Time: day}, {Time: day.Add(-time.Hour)}}
	err = Validate(back)
	assert.ErrorIs(t, err, window.ErrUnsortedSequence)
	assert.NotErrorIs(t, err, ErrDuplicateTimestamp)

	assert.NoError(t, Validate(nil))
}

func hourly(start time.Time, hours []int, values []float64) []model.Observation {
	obs := make([]model.Observation, len(hours))
	for i, h := range hours {
		obs[i] = model.Observation{Time: start.Add(time.Duration(h) * time.Hour), Value: values[i]}
	}
	return obs
}

func TestRegularize(t *testing.T) {
	start := time.Date(2013, 8, 29, 0, 0, 0, 0, time.UTC)
	obs := hourly(start, []int{0, 1, 4, 5}, []float64{10, 20, 50, 60})

	tests := []struct {
		name   string
		policy GapPolicy
		want   []float64
	}{
		{"zero", GapZero, []float64{10, 20, 0, 0, 50, 60}},
		{"interpolate", GapInterpolate, []float64{10, 20, 30, 40, 50, 60}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, report, err := Regularize(obs, time.Hour, tt.policy)
			require.NoError(t, err)

			assert.InDeltaSlice(t, tt.want, Values(out), 1e-9)
			assert.Equal(t, GapReport{Gaps: 1, Filled: 2, Longest: 2}, report)
			assert.NoError(t, window.CheckOrder(out))
			for i := range out {
				assert.Equal(t, start.Add(time.Duration(i)*time.Hour), out[i].Time)
			}
		})
	}
}

func TestRegularize_Reject(t *testing.T) {
	start := time.Date(2013, 8, 29, 0, 0, 0, 0, time.UTC)

	_, _, err := Regularize(hourly(start, []int{0, 2}, []float64{1, 2}), time.Hour, GapReject)
	assert.ErrorIs(t, err, ErrGap)

	out, report, err := Regularize(hourly(start, []int{0, 1, 2}, []float64{1, 2, 3}), time.Hour, GapReject)
	require.NoError(t, err)
	assert.Len(t, out, 3)
	assert.Zero(t, report.Filled)
}

func TestRegularize_Errors(t *testing.T) {
	start := time.Date(2013, 8, 29, 0, 0, 0, 0, time.UTC)

	_, _, err := Regularize([]model.Observation{
		{Time: start}, {Time: start.Add(90 * time.Minute)},
	}, time.Hour, GapZero)
	assert.ErrorIs(t, err, ErrMisaligned)

	_, _, err = Regularize(hourly(start, []int{1, 0}, []float64{1, 2}), time.Hour, GapZero)
	assert.ErrorIs(t, err, window.ErrUnsortedSequence)

	_, _, err = Regularize(nil, time.Hour, "fill")
	assert.ErrorIs(t, err, ErrUnknownGapPolicy)

	_, _, err = Regularize(nil, 0, GapZero)
	assert.Error(t, err)
}
