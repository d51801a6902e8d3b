package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

// Dataset presets, one per aggregation of the bike share data
const (
	TripsDaily       = "trips-daily"
	TemperatureDaily = "temperature-daily"
	TripsHourly      = "trips-hourly"
)

// Observation sources
const (
	SourceCSV      = "csv"
	SourcePostgres = "postgres"
)

var ErrInvalidConfig = errors.New("config: invalid configuration")

// Config holds all application configuration
type Config struct {
	Dataset string `env:"DATASET" envDefault:"temperature-daily"`
	Source  string `env:"SOURCE" envDefault:"csv"`

	// Input columns and date format. CSVPath may be an http(s) URL.
	CSVPath     string        `env:"CSV_PATH"`
	DateColumn  string        `env:"DATE_COLUMN"`
	ValueColumn string        `env:"VALUE_COLUMN"`
	DateLayout  string        `env:"DATE_LAYOUT"` // Go time layout, e.g. 1/2/2006
	Step        time.Duration `env:"STEP"`
	GapPolicy   string        `env:"GAP_POLICY"` // reject, zero, interpolate

	// Windowing and split
	WindowSize    int     `env:"WINDOW_SIZE"`
	TrainFraction float64 `env:"TRAIN_FRACTION" envDefault:"0.8"`
	ValFraction   float64 `env:"VAL_FRACTION" envDefault:"0.1"`

	// Network and training
	Epochs       int     `env:"EPOCHS"`
	BatchSize    int     `env:"BATCH_SIZE" envDefault:"32"`
	LSTMUnits    int     `env:"LSTM_UNITS" envDefault:"64"`
	DenseUnits   int     `env:"DENSE_UNITS" envDefault:"8"`
	LearningRate float64 `env:"LEARNING_RATE" envDefault:"0.001"`
	Seed         int64   `env:"SEED" envDefault:"1"`
	Normalize    bool    `env:"NORMALIZE" envDefault:"true"`
	Shuffle      bool    `env:"SHUFFLE" envDefault:"true"` // within the train split only

	// Output
	CheckpointPath string `env:"CHECKPOINT_PATH" envDefault:"model/best.json"`
	PredictionsOut string `env:"PREDICTIONS_OUT"`
	ReportRows     int    `env:"REPORT_ROWS" envDefault:"5"`

	LogLevel       string `env:"LOG_LEVEL" envDefault:"info"`
	RequestTimeout int    `env:"REQUEST_TIMEOUT" envDefault:"30"` // seconds

	Database DatabaseConfig
}

// DatabaseConfig holds PostgreSQL settings for SOURCE=postgres
type DatabaseConfig struct {
	Host     string `env:"DATABASE_HOST" envDefault:"localhost"`
	Port     string `env:"DATABASE_PORT" envDefault:"5432"`
	User     string `env:"DATABASE_USER" envDefault:"postgres"`
	Password string `env:"DATABASE_PASSWORD"`
	Name     string `env:"DATABASE_NAME" envDefault:"bikeshare"`
	SSLMode  string `env:"DATABASE_SSLMODE" envDefault:"disable"`
}

// Preset holds the per-dataset defaults taken from the exploratory scripts
type Preset struct {
	CSVPath     string
	DateColumn  string
	ValueColumn string
	DateLayout  string
	Step        time.Duration
	GapPolicy   string
	WindowSize  int
	Epochs      int
}

// Presets maps dataset names to their defaults
var Presets = map[string]Preset{
	TripsDaily: {
		CSVPath:     "univar.csv",
		DateColumn:  "date",
		ValueColumn: "COUNT(id)",
		DateLayout:  "1/2/2006",
		Step:        24 * time.Hour,
		GapPolicy:   "zero",
		WindowSize:  7, // a week of history predicts the next day
		Epochs:      50,
	},
	TemperatureDaily: {
		CSVPath:     "univar2.csv",
		DateColumn:  "date",
		ValueColumn: "mean_temp",
		DateLayout:  "1/2/2006",
		Step:        24 * time.Hour,
		GapPolicy:   "interpolate",
		WindowSize:  6,
		Epochs:      50,
	},
	TripsHourly: {
		CSVPath:     "univar3.csv",
		DateColumn:  "start_time",
		ValueColumn: "trip_count",
		DateLayout:  "1/2/2006 15",
		Step:        time.Hour,
		GapPolicy:   "zero", // hours without trips are absent, not zero rows
		WindowSize:  5,
		Epochs:      250,
	},
}

// Load initializes configuration from environment variables
func Load() (*Config, error) {
	// Load environment variables from .env file if present
	if err := godotenv.Load(); err != nil {
		log.Warn().Msg(".env file not found, relying on actual environment variables")
	}

	var cfg Config

	cfg.Dataset = getEnvWithDefault("DATASET", TemperatureDaily)
	preset, ok := Presets[cfg.Dataset]
	if !ok {
		return nil, fmt.Errorf("unknown dataset %q: %w", cfg.Dataset, ErrInvalidConfig)
	}

	cfg.Source = getEnvWithDefault("SOURCE", SourceCSV)
	cfg.CSVPath = getEnvWithDefault("CSV_PATH", preset.CSVPath)
	cfg.DateColumn = getEnvWithDefault("DATE_COLUMN", preset.DateColumn)
	cfg.ValueColumn = getEnvWithDefault("VALUE_COLUMN", preset.ValueColumn)
	cfg.DateLayout = getEnvWithDefault("DATE_LAYOUT", preset.DateLayout)
	cfg.Step = getEnvDurationWithDefault("STEP", preset.Step)
	cfg.GapPolicy = getEnvWithDefault("GAP_POLICY", preset.GapPolicy)

	cfg.WindowSize = getEnvIntWithDefault("WINDOW_SIZE", preset.WindowSize)
	cfg.TrainFraction = getEnvFloatWithDefault("TRAIN_FRACTION", 0.8)
	cfg.ValFraction = getEnvFloatWithDefault("VAL_FRACTION", 0.1)

	cfg.Epochs = getEnvIntWithDefault("EPOCHS", preset.Epochs)
	cfg.BatchSize = getEnvIntWithDefault("BATCH_SIZE", 32)
	cfg.LSTMUnits = getEnvIntWithDefault("LSTM_UNITS", 64)
	cfg.DenseUnits = getEnvIntWithDefault("DENSE_UNITS", 8)
	cfg.LearningRate = getEnvFloatWithDefault("LEARNING_RATE", 0.001)
	cfg.Seed = int64(getEnvIntWithDefault("SEED", 1))
	cfg.Normalize = getEnvBoolWithDefault("NORMALIZE", true)
	cfg.Shuffle = getEnvBoolWithDefault("SHUFFLE", true)

	cfg.CheckpointPath = getEnvWithDefault("CHECKPOINT_PATH", "model/best.json")
	cfg.PredictionsOut = os.Getenv("PREDICTIONS_OUT")
	cfg.ReportRows = getEnvIntWithDefault("REPORT_ROWS", 5)

	cfg.LogLevel = getEnvWithDefault("LOG_LEVEL", "info")
	cfg.RequestTimeout = getEnvIntWithDefault("REQUEST_TIMEOUT", 30)

	cfg.Database = DatabaseConfig{
		Host:     getEnvWithDefault("DATABASE_HOST", "localhost"),
		Port:     getEnvWithDefault("DATABASE_PORT", "5432"),
		User:     getEnvWithDefault("DATABASE_USER", "postgres"),
		Password: os.Getenv("DATABASE_PASSWORD"),
		Name:     getEnvWithDefault("DATABASE_NAME", "bikeshare"),
		SSLMode:  getEnvWithDefault("DATABASE_SSLMODE", "disable"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate rejects values no run could succeed with
func (c *Config) Validate() error {
	switch {
	case c.Source != SourceCSV && c.Source != SourcePostgres:
		return fmt.Errorf("SOURCE must be %q or %q, got %q: %w", SourceCSV, SourcePostgres, c.Source, ErrInvalidConfig)
	case c.Source == SourceCSV && c.CSVPath == "":
		return fmt.Errorf("CSV_PATH is empty: %w", ErrInvalidConfig)
	case c.WindowSize <= 0:
		return fmt.Errorf("WINDOW_SIZE must be positive, got %d: %w", c.WindowSize, ErrInvalidConfig)
	case c.Step <= 0:
		return fmt.Errorf("STEP must be positive, got %s: %w", c.Step, ErrInvalidConfig)
	case c.TrainFraction <= 0 || c.ValFraction < 0 || c.TrainFraction+c.ValFraction > 1:
		return fmt.Errorf("split fractions train=%v val=%v: %w", c.TrainFraction, c.ValFraction, ErrInvalidConfig)
	case c.Epochs <= 0 || c.BatchSize <= 0:
		return fmt.Errorf("EPOCHS and BATCH_SIZE must be positive: %w", ErrInvalidConfig)
	case c.LSTMUnits <= 0 || c.DenseUnits <= 0:
		return fmt.Errorf("LSTM_UNITS and DENSE_UNITS must be positive: %w", ErrInvalidConfig)
	case c.LearningRate <= 0:
		return fmt.Errorf("LEARNING_RATE must be positive: %w", ErrInvalidConfig)
	}
	return nil
}

// Helper functions for environment variable handling
func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntWithDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
		log.Warn().Str("key", key).Str("value", value).Msg("Ignoring non-integer value")
	}
	return defaultValue
}

func getEnvFloatWithDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
		log.Warn().Str("key", key).Str("value", value).Msg("Ignoring non-numeric value")
	}
	return defaultValue
}

func getEnvBoolWithDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1" || value == "yes"
	}
	return defaultValue
}

func getEnvDurationWithDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
		log.Warn().Str("key", key).Str("value", value).Msg("Ignoring invalid duration")
	}
	return defaultValue
}
