package source

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Alias1177/bikecast/internal/model"
	httpClient "github.com/Alias1177/bikecast/internal/platform/http"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Fetcher downloads a document
type Fetcher interface {
	Get(ctx context.Context, url string) ([]byte, error)
}

// Remote reads a CSV document over HTTP
type Remote struct {
	URL string
	CSVOptions

	fetcher Fetcher
	logger  zerolog.Logger
}

// RemoteOptions holds options for creating a Remote source
type RemoteOptions struct {
	RequestTimeout time.Duration
	RequestsPerSec int
}

// NewRemote creates an HTTP source backed by the rate limited client
func NewRemote(url string, csvOpts CSVOptions, opts RemoteOptions) *Remote {
	client := httpClient.NewClient(httpClient.ClientOptions{
		Timeout:        opts.RequestTimeout,
		RequestsPerSec: opts.RequestsPerSec,
	})
	return NewRemoteWithFetcher(url, csvOpts, client)
}

// NewRemoteWithFetcher creates an HTTP source using the given fetcher
func NewRemoteWithFetcher(url string, csvOpts CSVOptions, fetcher Fetcher) *Remote {
	return &Remote{
		URL:        url,
		CSVOptions: csvOpts,
		fetcher:    fetcher,
		logger:     log.With().Str("component", "remote_source").Str("url", url).Logger(),
	}
}

// IsRemote reports whether path should be fetched over HTTP
func IsRemote(path string) bool {
	return strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://")
}

// Load downloads and parses the document
func (s *Remote) Load(ctx context.Context) ([]model.Observation, error) {
	s.logger.Debug().Msg("Fetching CSV")

	body, err := s.fetcher.Get(ctx, s.URL)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", s.URL, err)
	}

	obs, err := ParseCSV(bytes.NewReader(body), s.CSVOptions)
	if err != nil {
		s.logger.Error().Err(err).Int("bytes", len(body)).Msg("Error parsing CSV")
		return nil, fmt.Errorf("%s: %w", s.URL, err)
	}

	s.logger.Debug().Int("count", len(obs)).Msg("Fetched observations")
	return obs, nil
}
