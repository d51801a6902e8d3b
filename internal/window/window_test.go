package window

import (
	"testing"
	"time"

	"github.com/Alias1177/bikecast/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuild_Example(t *testing.T) {
	ds, err := Build([]float64{1, 2, 3, 4, 5, 6, 7, 8}, 3)
	require.NoError(t, err)

	want := [][]float64{{1, 2, 3}, {2, 3, 4}, {3, 4, 5}, {4, 5, 6}, {5, 6, 7}}
	require.Equal(t, len(want), ds.Len())
	for i := range want {
		assert.Equal(t, want[i], ds.Flatten(i), "window %d", i)
	}
	assert.Equal(t, []float64{4, 5, 6, 7, 8}, ds.Y)
	assert.Equal(t, 3, ds.WindowSize())
}

func TestBuild_SingleFeatureShape(t *testing.T) {
	ds, err := Build([]float64{10, 20, 30}, 2)
	require.NoError(t, err)

	assert.Equal(t, [][][]float64{{{10}, {20}}}, ds.X)
	assert.Equal(t, []float64{30}, ds.Y)
}

func TestBuild_Properties(t *testing.T) {
	for n := 2; n <= 20; n++ {
		values := make([]float64, n)
		for i := range values {
			values[i] = float64(i*i) - 3.5
		}

		for w := 1; w < n; w++ {
			ds, err := Build(values, w)
			require.NoError(t, err, "n=%d w=%d", n, w)

			require.Equal(t, n-w, len(ds.X))
			require.Equal(t, n-w, len(ds.Y))
			for i := 0; i < ds.Len(); i++ {
				assert.Equal(t, values[i+w], ds.Y[i], "target n=%d w=%d i=%d", n, w, i)
				assert.Equal(t, values[i:i+w], ds.Flatten(i), "window n=%d w=%d i=%d", n, w, i)
			}
		}
	}
}

func TestBuild_InvalidWindowSize(t *testing.T) {
	values := []float64{1, 2, 3, 4}
	for _, w := range []int{-1, 0, 4, 5} {
		ds, err := Build(values, w)
		assert.ErrorIs(t, err, ErrInvalidWindowSize, "w=%d", w)
		assert.Nil(t, ds, "w=%d must produce no output", w)
	}

	_, err := Build(nil, 1)
	assert.ErrorIs(t, err, ErrInvalidWindowSize)
}

func TestBuild_DoesNotAliasInput(t *testing.T) {
	values := []float64{1, 2, 3, 4}
	ds, err := Build(values, 2)
	require.NoError(t, err)

	values[0] = 100
	assert.Equal(t, 1.0, ds.X[0][0][0])
}

func observations(start time.Time, step time.Duration, values ...float64) []model.Observation {
	obs := make([]model.Observation, len(values))
	for i, v := range values {
		obs[i] = model.Observation{Time: start.Add(time.Duration(i) * step), Value: v}
	}
	return obs
}

func TestFromObservations(t *testing.T) {
	start := time.Date(2013, 8, 29, 0, 0, 0, 0, time.UTC)
	obs := observations(start, 24*time.Hour, 5, 6, 7, 8, 9)

	ds, err := FromObservations(obs, 2)
	require.NoError(t, err)

	assert.Equal(t, []float64{7, 8, 9}, ds.Y)
	require.Len(t, ds.Times, 3)
	assert.Equal(t, obs[2].Time, ds.Times[0])
	assert.Equal(t, obs[4].Time, ds.Times[2])
}

func TestFromObservations_Unsorted(t *testing.T) {
	start := time.Date(2014, 1, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		obs  []model.Observation
	}{
		{
			name: "decreasing",
			obs: []model.Observation{
				{Time: start, Value: 1},
				{Time: start.Add(-time.Hour), Value: 2},
				{Time: start.Add(time.Hour), Value: 3},
			},
		},
		{
			name: "duplicate timestamp",
			obs: []model.Observation{
				{Time: start, Value: 1},
				{Time: start.Add(time.Hour), Value: 2},
				{Time: start.Add(time.Hour), Value: 3},
				{Time: start.Add(2 * time.Hour), Value: 4},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ds, err := FromObservations(tt.obs, 1)
			assert.ErrorIs(t, err, ErrUnsortedSequence)
			assert.Nil(t, ds)
		})
	}
}

func TestFromObservations_InvalidWindowSize(t *testing.T) {
	obs := observations(time.Unix(0, 0), time.Hour, 1, 2, 3)

	_, err := FromObservations(obs, 3)
	assert.ErrorIs(t, err, ErrInvalidWindowSize)
}
