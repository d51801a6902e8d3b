// Package train fits a network on windowed examples, validating after every
// epoch and keeping the best checkpoint.
package train

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/Alias1177/bikecast/internal/model"
	"github.com/Alias1177/bikecast/internal/nn"
	"github.com/Alias1177/bikecast/internal/scale"
	"github.com/Alias1177/bikecast/internal/window"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

var (
	ErrNoTrainingData = errors.New("train: training split is empty")
	ErrNonFiniteLoss  = errors.New("train: loss is not finite")
)

// Options controls a training run
type Options struct {
	Epochs    int
	BatchSize int

	// Shuffle reorders examples inside the training split each epoch. The
	// split boundaries themselves never move.
	Shuffle bool
	Seed    int64

	// CheckpointPath is where the best network is written. Empty keeps the
	// best checkpoint in memory only.
	CheckpointPath string

	// Scaler is stored in checkpoints so predictions can be mapped back to
	// original units
	Scaler scale.Standard

	// RunID labels logs and checkpoints. A random uuid is used when empty.
	RunID string

	// ProgressInterval throttles per-batch debug logs
	ProgressInterval time.Duration
}

// Result is the outcome of Fit
type Result struct {
	History model.History
	Best    *nn.Checkpoint
}

// Trainer runs the epoch loop
type Trainer struct {
	opts   Options
	logger zerolog.Logger
}

// New creates a trainer, filling in defaults
func New(opts Options) *Trainer {
	if opts.BatchSize <= 0 {
		opts.BatchSize = 32
	}
	if opts.RunID == "" {
		opts.RunID = uuid.NewString()
	}
	if opts.ProgressInterval == 0 {
		opts.ProgressInterval = 2 * time.Second
	}

	return &Trainer{
		opts:   opts,
		logger: log.With().Str("component", "trainer").Str("run_id", opts.RunID).Logger(),
	}
}

// RunID returns the id used for this trainer's logs and checkpoints
func (t *Trainer) RunID() string {
	return t.opts.RunID
}

// Fit trains net on the train split and validates on val after each epoch.
// When validation loss improves the network is checkpointed. With an empty
// validation split the training loss is monitored instead. Cancelling ctx
// stops training between batches; the history so far is returned with
// ctx.Err().
func (t *Trainer) Fit(ctx context.Context, net *nn.Network, train, val *window.Dataset) (*Result, error) {
	if train == nil || train.Len() == 0 {
		return nil, ErrNoTrainingData
	}
	if t.opts.Epochs <= 0 {
		return nil, fmt.Errorf("train: epochs must be positive, got %d", t.opts.Epochs)
	}

	res := &Result{
		History: model.History{
			RunID:    t.opts.RunID,
			BestLoss: math.Inf(1),
		},
	}

	rng := rand.New(rand.NewSource(t.opts.Seed))
	order := make([]int, train.Len())
	for i := range order {
		order[i] = i
	}

	progress := rate.Sometimes{Interval: t.opts.ProgressInterval}

	t.logger.Info().
		Int("train", train.Len()).
		Int("validation", lenOf(val)).
		Int("epochs", t.opts.Epochs).
		Int("batch_size", t.opts.BatchSize).
		Int("params", net.NumParams()).
		Msg("Training started")

	for epoch := 1; epoch <= t.opts.Epochs; epoch++ {
		start := time.Now()

		if t.opts.Shuffle {
			rng.Shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })
		}

		var sum float64
		var seen int
		for from := 0; from < len(order); from += t.opts.BatchSize {
			if err := ctx.Err(); err != nil {
				t.logger.Warn().Int("epoch", epoch).Msg("Training cancelled")
				return res, err
			}

			to := min(from+t.opts.BatchSize, len(order))
			xs, ys := gather(train, order[from:to])

			loss, err := net.TrainBatch(xs, ys)
			if err != nil {
				return res, fmt.Errorf("epoch %d batch at %d: %w", epoch, from, err)
			}
			if math.IsNaN(loss) || math.IsInf(loss, 0) {
				return res, fmt.Errorf("epoch %d batch at %d: %w", epoch, from, ErrNonFiniteLoss)
			}
			sum += loss * float64(len(ys))
			seen += len(ys)

			progress.Do(func() {
				t.logger.Debug().
					Int("epoch", epoch).
					Int("seen", seen).
					Int("total", len(order)).
					Float64("loss", sum/float64(seen)).
					Msg("Training progress")
			})
		}

		er := model.EpochResult{
			Epoch: epoch,
			Loss:  sum / float64(seen),
		}
		er.RMSE = math.Sqrt(er.Loss)

		monitored := er.Loss
		if lenOf(val) > 0 {
			valLoss, valRMSE, err := net.Evaluate(val.X, val.Y)
			if err != nil {
				return res, fmt.Errorf("epoch %d validation: %w", epoch, err)
			}
			er.ValLoss, er.ValRMSE = valLoss, valRMSE
			monitored = valLoss
		}

		if monitored < res.History.BestLoss {
			er.Improved = true
			res.History.BestLoss = monitored
			res.History.BestEpoch = epoch
			res.Best = net.Checkpoint(t.opts.RunID, epoch, monitored, t.opts.Scaler)

			if t.opts.CheckpointPath != "" {
				if err := nn.Save(t.opts.CheckpointPath, res.Best); err != nil {
					return res, fmt.Errorf("saving checkpoint: %w", err)
				}
			}
		}

		er.Duration = time.Since(start)
		res.History.Epochs = append(res.History.Epochs, er)

		t.logger.Info().
			Int("epoch", epoch).
			Float64("loss", er.Loss).
			Float64("rmse", er.RMSE).
			Float64("val_loss", er.ValLoss).
			Float64("val_rmse", er.ValRMSE).
			Bool("checkpoint", er.Improved).
			Dur("took", er.Duration).
			Msgf("Epoch %d/%d", epoch, t.opts.Epochs)
	}

	t.logger.Info().
		Int("best_epoch", res.History.BestEpoch).
		Float64("best_loss", res.History.BestLoss).
		Msg("Training finished")

	return res, nil
}

func lenOf(ds *window.Dataset) int {
	if ds == nil {
		return 0
	}
	return ds.Len()
}

func gather(ds *window.Dataset, idx []int) ([][][]float64, []float64) {
	xs := make([][][]float64, len(idx))
	ys := make([]float64, len(idx))
	for i, j := range idx {
		xs[i] = ds.X[j]
		ys[i] = ds.Y[j]
	}
	return xs, ys
}
