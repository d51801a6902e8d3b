package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Alias1177/bikecast/internal/config"
	"github.com/Alias1177/bikecast/internal/database"
	"github.com/Alias1177/bikecast/internal/evaluate"
	"github.com/Alias1177/bikecast/internal/model"
	"github.com/Alias1177/bikecast/internal/nn"
	"github.com/Alias1177/bikecast/internal/scale"
	"github.com/Alias1177/bikecast/internal/series"
	"github.com/Alias1177/bikecast/internal/source"
	"github.com/Alias1177/bikecast/internal/train"
	"github.com/Alias1177/bikecast/internal/window"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var (
	errNoCheckpoint    = errors.New("no checkpoint was produced")
	errStaleCheckpoint = errors.New("checkpoint belongs to another run")
)

func main() {
	// Setup context with cancellation for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle interrupt signals
	setupSignalHandling(cancel)

	// 1. Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// 2. Configure logging
	setupLogging(cfg.LogLevel)
	log.Info().Msg("Starting bikecast")

	// 3. Print configuration
	printConfig(cfg)

	if err := run(ctx, cfg); err != nil {
		if errors.Is(err, context.Canceled) {
			log.Warn().Msg("Run cancelled")
			os.Exit(130)
		}
		log.Fatal().Err(err).Msg("Run failed")
	}
}

// setupSignalHandling cancels the context on the first interrupt so training
// stops after the current batch
func setupSignalHandling(cancel context.CancelFunc) {
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-c
		log.Info().Msg("Shutdown signal received, stopping...")
		cancel()
	}()
}

// setupLogging configures the logger
func setupLogging(logLevel string) {
	output := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	log.Logger = log.Output(output)

	// Set log level from config
	level, err := zerolog.ParseLevel(logLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	log.Logger = log.Logger.Level(level)
}

// printConfig outputs the current configuration
func printConfig(cfg *config.Config) {
	log.Info().
		Str("Dataset", cfg.Dataset).
		Str("Source", cfg.Source).
		Str("CSVPath", cfg.CSVPath).
		Str("DateLayout", cfg.DateLayout).
		Dur("Step", cfg.Step).
		Str("GapPolicy", cfg.GapPolicy).
		Int("WindowSize", cfg.WindowSize).
		Float64("TrainFraction", cfg.TrainFraction).
		Float64("ValFraction", cfg.ValFraction).
		Int("Epochs", cfg.Epochs).
		Int("BatchSize", cfg.BatchSize).
		Int("LSTMUnits", cfg.LSTMUnits).
		Int("DenseUnits", cfg.DenseUnits).
		Float64("LearningRate", cfg.LearningRate).
		Bool("Normalize", cfg.Normalize).
		Str("CheckpointPath", cfg.CheckpointPath).
		Msg("Configuration loaded")
}

func run(ctx context.Context, cfg *config.Config) error {
	// 1. Load observations
	src, closeSource, err := newSource(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeSource()

	obs, err := src.Load(ctx)
	if err != nil {
		return fmt.Errorf("loading observations: %w", err)
	}

	// 2. Enforce one observation per step
	policy, err := series.ParseGapPolicy(cfg.GapPolicy)
	if err != nil {
		return err
	}
	obs, report, err := series.Regularize(obs, cfg.Step, policy)
	if err != nil {
		return fmt.Errorf("preparing series: %w", err)
	}
	log.Info().
		Int("observations", len(obs)).
		Time("first", obs[0].Time).
		Time("last", obs[len(obs)-1].Time).
		Int("gaps", report.Gaps).
		Int("filled", report.Filled).
		Int("longest_gap", report.Longest).
		Msg("Series ready")

	// 3. Window, scale and split
	split, scaler, err := buildSplit(obs, cfg)
	if err != nil {
		return err
	}
	log.Info().
		Int("examples", split.Bounds.M).
		Int("train", split.Train.Len()).
		Int("validation", split.Validation.Len()).
		Int("test", split.Test.Len()).
		Float64("scale_mean", scaler.Mean).
		Float64("scale_std", scaler.Std).
		Msg("Dataset split")

	// 4. Train
	shape := nn.DefaultShape(cfg.WindowSize)
	shape.LSTMUnits, shape.DenseUnits = cfg.LSTMUnits, cfg.DenseUnits
	net, err := nn.NewNetwork(shape, cfg.Seed)
	if err != nil {
		return err
	}
	net.Optimizer.LearningRate = cfg.LearningRate

	trainer := train.New(train.Options{
		Epochs:         cfg.Epochs,
		BatchSize:      cfg.BatchSize,
		Shuffle:        cfg.Shuffle,
		Seed:           cfg.Seed,
		CheckpointPath: cfg.CheckpointPath,
		Scaler:         scaler,
	})
	res, err := trainer.Fit(ctx, net, split.Train, split.Validation)
	if err != nil {
		return fmt.Errorf("training: %w", err)
	}
	fmt.Println(evaluate.FormatHistory(&res.History, scaler))

	// 5. Reload the best checkpoint
	best, err := loadBest(cfg.CheckpointPath, res.Best)
	if err != nil {
		return err
	}

	// 6. Evaluate every split
	var all []*model.EvaluationResults
	for _, part := range []struct {
		name string
		ds   *window.Dataset
	}{
		{"Train", split.Train},
		{"Validation", split.Validation},
		{"Test", split.Test},
	} {
		results, err := evaluate.Run(part.name, best, part.ds, scaler)
		if err != nil {
			return err
		}
		fmt.Println(evaluate.FormatResults(results, cfg.ReportRows))
		all = append(all, results)
	}

	// 7. Export predictions
	if cfg.PredictionsOut != "" {
		if err := writePredictions(cfg.PredictionsOut, all); err != nil {
			return err
		}
		log.Info().Str("path", cfg.PredictionsOut).Msg("Predictions written")
	}

	return nil
}

// newSource picks the observation source for the configuration. The returned
// func releases any connection the source holds.
func newSource(ctx context.Context, cfg *config.Config) (source.Source, func(), error) {
	csvOpts := source.CSVOptions{
		DateColumn:  cfg.DateColumn,
		ValueColumn: cfg.ValueColumn,
		DateLayout:  cfg.DateLayout,
	}

	switch {
	case cfg.Source == config.SourcePostgres:
		db, err := database.New(ctx, database.ConnectionParams{
			Host:           cfg.Database.Host,
			Port:           cfg.Database.Port,
			User:           cfg.Database.User,
			Password:       cfg.Database.Password,
			DBName:         cfg.Database.Name,
			SSLMode:        cfg.Database.SSLMode,
			MaxConnectTime: time.Duration(cfg.RequestTimeout) * time.Second,
		})
		if err != nil {
			return nil, nil, err
		}
		return source.NewPostgres(db, cfg.Dataset, cfg.DateLayout), func() { db.Close() }, nil

	case source.IsRemote(cfg.CSVPath):
		return source.NewRemote(cfg.CSVPath, csvOpts, source.RemoteOptions{
			RequestTimeout: time.Duration(cfg.RequestTimeout) * time.Second,
		}), func() {}, nil

	default:
		return source.NewCSV(cfg.CSVPath, csvOpts), func() {}, nil
	}
}

// buildSplit windows the series and splits it chronologically. The scaler
// is fitted only on the part of the series the training examples touch.
func buildSplit(obs []model.Observation, cfg *config.Config) (*window.Split, scale.Standard, error) {
	bounds, err := window.SplitBounds(len(obs)-cfg.WindowSize, cfg.TrainFraction, cfg.ValFraction)
	if err != nil {
		if cfg.WindowSize >= len(obs) {
			return nil, scale.Standard{}, fmt.Errorf("window size %d for %d observations: %w",
				cfg.WindowSize, len(obs), window.ErrInvalidWindowSize)
		}
		return nil, scale.Standard{}, err
	}

	var scaler scale.Standard
	if cfg.Normalize {
		scaler = scale.Fit(series.Values(obs[:bounds.B1+cfg.WindowSize]))
	}

	values := scaler.TransformAll(series.Values(obs))
	scaled := make([]model.Observation, len(obs))
	for i, o := range obs {
		scaled[i] = model.Observation{Time: o.Time, Value: values[i]}
	}

	ds, err := window.FromObservations(scaled, cfg.WindowSize)
	if err != nil {
		return nil, scale.Standard{}, err
	}

	split, err := ds.Split(cfg.TrainFraction, cfg.ValFraction)
	if err != nil {
		return nil, scale.Standard{}, err
	}
	return split, scaler, nil
}

// loadBest reads the best checkpoint of this run back from disk, or uses the
// in-memory copy when no path is configured. A run that never improved has
// no checkpoint, and a file on disk from another run is not accepted.
func loadBest(path string, inMemory *nn.Checkpoint) (*nn.Network, error) {
	if inMemory == nil {
		return nil, errNoCheckpoint
	}

	cp := inMemory
	if path != "" {
		var err error
		if cp, err = nn.Load(path); err != nil {
			return nil, err
		}
		if cp.RunID != inMemory.RunID {
			return nil, fmt.Errorf("%s holds run %s, expected %s: %w", path, cp.RunID, inMemory.RunID, errStaleCheckpoint)
		}
		log.Info().Str("path", path).Int("epoch", cp.Epoch).Float64("val_loss", cp.ValLoss).Msg("Loaded best checkpoint")
	}
	return nn.Restore(cp)
}

func writePredictions(path string, results []*model.EvaluationResults) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating predictions file: %w", err)
	}
	if err := evaluate.WriteCSV(f, results...); err != nil {
		f.Close()
		return fmt.Errorf("writing predictions: %w", err)
	}
	return f.Close()
}
