package train

import (
	"context"
	"math"
	"path/filepath"
	"testing"

	"github.com/Alias1177/bikecast/internal/nn"
	"github.com/Alias1177/bikecast/internal/scale"
	"github.com/Alias1177/bikecast/internal/window"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sineSplit(t *testing.T) *window.Split {
	t.Helper()

	values := make([]float64, 80)
	for i := range values {
		values[i] = math.Sin(float64(i) * 0.35)
	}
	ds, err := window.Build(values, 4)
	require.NoError(t, err)

	split, err := ds.Split(0.8, 0.1)
	require.NoError(t, err)
	return split
}

func smallNetwork(t *testing.T) *nn.Network {
	t.Helper()

	net, err := nn.NewNetwork(nn.Shape{Window: 4, Features: 1, LSTMUnits: 6, DenseUnits: 4}, 5)
	require.NoError(t, err)
	net.Optimizer.LearningRate = 0.01
	return net
}

func TestFit(t *testing.T) {
	split := sineSplit(t)
	path := filepath.Join(t.TempDir(), "model", "best.json")

	trainer := New(Options{
		Epochs:         20,
		BatchSize:      8,
		Shuffle:        true,
		Seed:           3,
		CheckpointPath: path,
		Scaler:         scale.Standard{Mean: 1, Std: 2},
	})
	net := smallNetwork(t)

	res, err := trainer.Fit(context.Background(), net, split.Train, split.Validation)
	require.NoError(t, err)

	h := res.History
	require.Len(t, h.Epochs, 20)
	assert.Equal(t, trainer.RunID(), h.RunID)
	assert.NotEmpty(t, h.RunID)
	assert.True(t, h.Epochs[0].Improved, "first epoch always improves on +Inf")
	assert.Less(t, h.Epochs[19].Loss, h.Epochs[0].Loss)

	// the best epoch has the lowest validation loss and was the last one to improve
	lowest := math.Inf(1)
	lastImproved := 0
	for _, e := range h.Epochs {
		lowest = math.Min(lowest, e.ValLoss)
		if e.Improved {
			lastImproved = e.Epoch
		}
		assert.InDelta(t, math.Sqrt(e.Loss), e.RMSE, 1e-12)
	}
	assert.Equal(t, lowest, h.BestLoss)
	assert.Equal(t, lastImproved, h.BestEpoch)

	cp, err := nn.Load(path)
	require.NoError(t, err)
	assert.Equal(t, h.BestEpoch, cp.Epoch)
	assert.Equal(t, h.RunID, cp.RunID)
	assert.Equal(t, scale.Standard{Mean: 1, Std: 2}, cp.Scaler)
	assert.Equal(t, res.Best.Params, cp.Params)

	restored, err := nn.Restore(cp)
	require.NoError(t, err)
	valLoss, _, err := restored.Evaluate(split.Validation.X, split.Validation.Y)
	require.NoError(t, err)
	assert.InDelta(t, h.BestLoss, valLoss, 1e-12)
}

func TestFit_WithoutValidationMonitorsTrainingLoss(t *testing.T) {
	split := sineSplit(t)

	res, err := New(Options{Epochs: 3, BatchSize: 16, RunID: "fixed"}).
		Fit(context.Background(), smallNetwork(t), split.Train, nil)
	require.NoError(t, err)

	assert.Equal(t, "fixed", res.History.RunID)
	require.NotNil(t, res.Best)
	for _, e := range res.History.Epochs {
		assert.Zero(t, e.ValLoss)
	}
	assert.Equal(t, res.History.Epochs[res.History.BestEpoch-1].Loss, res.History.BestLoss)
}

func TestFit_Cancelled(t *testing.T) {
	split := sineSplit(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := New(Options{Epochs: 5}).Fit(ctx, smallNetwork(t), split.Train, split.Validation)
	assert.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, res)
	assert.Empty(t, res.History.Epochs)
}

func TestFit_InvalidInput(t *testing.T) {
	split := sineSplit(t)

	_, err := New(Options{Epochs: 1}).Fit(context.Background(), smallNetwork(t), split.Train.Slice(0, 0), nil)
	assert.ErrorIs(t, err, ErrNoTrainingData)

	_, err = New(Options{Epochs: 0}).Fit(context.Background(), smallNetwork(t), split.Train, nil)
	assert.Error(t, err)
}

func TestFit_NonFiniteLoss(t *testing.T) {
	values := make([]float64, 20)
	for i := range values {
		values[i] = float64(i)
	}
	values[7] = math.Inf(1)
	ds, err := window.Build(values, 4)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "best.json")
	res, err := New(Options{Epochs: 3, BatchSize: 32, CheckpointPath: path}).Fit(context.Background(), smallNetwork(t), ds, nil)
	assert.ErrorIs(t, err, ErrNonFiniteLoss)
	assert.Nil(t, res.Best)
	assert.NoFileExists(t, path)
}
