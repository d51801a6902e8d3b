package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/Alias1177/bikecast/internal/model"
	"github.com/cenkalti/backoff/v4"
	_ "github.com/lib/pq"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Aggregation kinds supported by Aggregate
const (
	DailyTrips       = "trips-daily"
	DailyTemperature = "temperature-daily"
	HourlyTrips      = "trips-hourly"
)

var (
	ErrUnknownAggregate = errors.New("database: unknown aggregate")
	ErrNonFiniteValue   = errors.New("database: aggregate value is not finite")
)

// Raw dates in the trip table look like "8/29/2013 14:13". The queries keep
// the date text as-is; parsing and chronological ordering happen in Go
// because the M/D/YYYY text does not sort correctly.
var aggregateQueries = map[string]string{
	DailyTrips: `
		SELECT split_part(start_date, ' ', 1) AS date, COUNT(id) AS value
		FROM trip
		GROUP BY date`,
	DailyTemperature: `
		SELECT date, AVG(mean_temperature_f) AS value
		FROM weather
		WHERE mean_temperature_f IS NOT NULL
		GROUP BY date`,
	HourlyTrips: `
		SELECT split_part(start_date, ':', 1) AS start_time, COUNT(start_date) AS value
		FROM trip
		GROUP BY start_time`,
}

// DB represents a database connection
type DB struct {
	*sql.DB
	logger zerolog.Logger
}

// ConnectionParams holds PostgreSQL connection parameters
type ConnectionParams struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string

	// MaxConnectTime bounds the retries of the initial ping
	MaxConnectTime time.Duration
}

// DSN renders the lib/pq connection string
func (p ConnectionParams) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.DBName, p.SSLMode,
	)
}

// New creates a new database connection, retrying the ping with exponential
// backoff until MaxConnectTime elapses or ctx is done
func New(ctx context.Context, params ConnectionParams) (*DB, error) {
	db, err := sql.Open("postgres", params.DSN())
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	logger := log.With().Str("component", "database").Str("host", params.Host).Logger()

	maxElapsed := params.MaxConnectTime
	if maxElapsed == 0 {
		maxElapsed = 30 * time.Second
	}
	backoffStrategy := backoff.NewExponentialBackOff()
	backoffStrategy.MaxElapsedTime = maxElapsed

	operation := func() error {
		if err := db.PingContext(ctx); err != nil {
			logger.Debug().Err(err).Msg("Ping failed, retrying")
			return err
		}
		return nil
	}

	if err := backoff.Retry(operation, backoff.WithContext(backoffStrategy, ctx)); err != nil {
		db.Close()
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	logger.Info().Msg("Connected to database")
	return &DB{DB: db, logger: logger}, nil
}

// Aggregate runs one of the fixed aggregation queries and returns its rows
// in the order the database produced them
func (db *DB) Aggregate(ctx context.Context, kind string) ([]model.Record, error) {
	query, ok := aggregateQueries[kind]
	if !ok {
		return nil, fmt.Errorf("%q: %w", kind, ErrUnknownAggregate)
	}

	start := time.Now()
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("running %s aggregate: %w", kind, err)
	}
	defer rows.Close()

	var records []model.Record
	for rows.Next() {
		var date sql.NullString
		var value sql.NullFloat64
		if err := rows.Scan(&date, &value); err != nil {
			return nil, fmt.Errorf("scanning %s row: %w", kind, err)
		}
		record, ok, err := toRecord(date, value)
		if err != nil {
			return nil, fmt.Errorf("%s aggregate: %w", kind, err)
		}
		if !ok {
			db.logger.Warn().Str("aggregate", kind).Msg("Skipping row with NULL column")
			continue
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading %s rows: %w", kind, err)
	}

	db.logger.Debug().
		Str("aggregate", kind).
		Int("rows", len(records)).
		Dur("took", time.Since(start)).
		Msg("Aggregate loaded")

	return records, nil
}

// toRecord converts a scanned row. ok is false for rows with a NULL column,
// which are skipped; NaN and infinite values are an error.
func toRecord(date sql.NullString, value sql.NullFloat64) (model.Record, bool, error) {
	if !date.Valid || !value.Valid {
		return model.Record{}, false, nil
	}
	if math.IsNaN(value.Float64) || math.IsInf(value.Float64, 0) {
		return model.Record{}, false, fmt.Errorf("%s: %v: %w", date.String, value.Float64, ErrNonFiniteValue)
	}
	return model.Record{Date: date.String, Value: value.Float64}, true, nil
}
