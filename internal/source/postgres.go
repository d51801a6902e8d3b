package source

import (
	"context"
	"fmt"

	"github.com/Alias1177/bikecast/internal/model"
	"github.com/rs/zerolog/log"
)

// Aggregator runs a named aggregation query. *database.DB implements it.
type Aggregator interface {
	Aggregate(ctx context.Context, kind string) ([]model.Record, error)
}

// Postgres loads one of the database aggregates
type Postgres struct {
	db         Aggregator
	kind       string
	dateLayout string
}

// NewPostgres creates a database source for the given aggregate kind
func NewPostgres(db Aggregator, kind, dateLayout string) *Postgres {
	return &Postgres{db: db, kind: kind, dateLayout: dateLayout}
}

// Load runs the aggregate and parses its rows
func (s *Postgres) Load(ctx context.Context) ([]model.Observation, error) {
	records, err := s.db.Aggregate(ctx, s.kind)
	if err != nil {
		return nil, err
	}

	obs, err := parseRecords(records, s.dateLayout)
	if err != nil {
		return nil, fmt.Errorf("%s aggregate: %w", s.kind, err)
	}

	log.Debug().Str("component", "postgres_source").Str("aggregate", s.kind).Int("count", len(obs)).Msg("Loaded observations")
	return obs, nil
}
