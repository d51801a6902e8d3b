package source

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/Alias1177/bikecast/internal/model"
	"github.com/Alias1177/bikecast/internal/series"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// CSVOptions names the columns to read and the date layout
type CSVOptions struct {
	DateColumn  string
	ValueColumn string
	DateLayout  string
}

// CSV reads observations from a file on disk
type CSV struct {
	Path string
	CSVOptions

	logger zerolog.Logger
}

// NewCSV creates a file source
func NewCSV(path string, opts CSVOptions) *CSV {
	return &CSV{
		Path:       path,
		CSVOptions: opts,
		logger:     log.With().Str("component", "csv_source").Str("path", path).Logger(),
	}
}

// Load reads, parses and sorts the file
func (s *CSV) Load(ctx context.Context) ([]model.Observation, error) {
	f, err := os.Open(s.Path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", s.Path, err)
	}
	defer f.Close()

	obs, err := ParseCSV(f, s.CSVOptions)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", s.Path, err)
	}

	s.logger.Debug().Int("count", len(obs)).Msg("Loaded observations")
	return obs, nil
}

// ParseCSV reads a header row, picks the configured columns by name and
// returns the observations sorted by time
func ParseCSV(r io.Reader, opts CSVOptions) ([]model.Observation, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, ErrEmpty
	}
	if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}

	dateIdx, valueIdx := -1, -1
	for i, name := range header {
		name = strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))
		switch name {
		case opts.DateColumn:
			dateIdx = i
		case opts.ValueColumn:
			valueIdx = i
		}
	}
	if dateIdx < 0 {
		return nil, fmt.Errorf("%q in %v: %w", opts.DateColumn, header, ErrMissingColumn)
	}
	if valueIdx < 0 {
		return nil, fmt.Errorf("%q in %v: %w", opts.ValueColumn, header, ErrMissingColumn)
	}

	var records []model.Record
	for line := 2; ; line++ {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		raw := strings.TrimSpace(row[valueIdx])
		value, err := strconv.ParseFloat(raw, 64)
		if err != nil || math.IsNaN(value) || math.IsInf(value, 0) {
			return nil, fmt.Errorf("line %d: %q: %w", line, raw, ErrBadValue)
		}
		records = append(records, model.Record{Date: row[dateIdx], Value: value})
	}

	return parseRecords(records, opts.DateLayout)
}

// parseRecords turns raw rows into a sorted observation sequence
func parseRecords(records []model.Record, layout string) ([]model.Observation, error) {
	if len(records) == 0 {
		return nil, ErrEmpty
	}

	obs, err := series.Parse(records, layout)
	if err != nil {
		return nil, err
	}
	series.Sort(obs)
	return obs, nil
}
