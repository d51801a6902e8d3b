package source

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/Alias1177/bikecast/internal/model"
	"github.com/Alias1177/bikecast/internal/series"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var tempOpts = CSVOptions{DateColumn: "date", ValueColumn: "mean_temp", DateLayout: "1/2/2006"}

const tempCSV = `date,mean_temp
9/1/2013,70.5
10/1/2013,65
8/31/2013,68.25
`

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestParseCSV_SortsChronologically(t *testing.T) {
	obs, err := ParseCSV(strings.NewReader(tempCSV), tempOpts)
	require.NoError(t, err)

	require.Len(t, obs, 3)
	assert.Equal(t, day(2013, 8, 31), obs[0].Time)
	assert.Equal(t, day(2013, 9, 1), obs[1].Time)
	assert.Equal(t, day(2013, 10, 1), obs[2].Time)
	assert.Equal(t, []float64{68.25, 70.5, 65}, series.Values(obs))
}

func TestParseCSV_ColumnOrderAndExtraColumns(t *testing.T) {
	in := "\ufeffzip,mean_temp,date\n94107,61,1/2/2014\n94107,60,1/1/2014\n"
	obs, err := ParseCSV(strings.NewReader(in), tempOpts)
	require.NoError(t, err)

	assert.Equal(t, []float64{60, 61}, series.Values(obs))
}

func TestParseCSV_Errors(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want error
	}{
		{"empty", "", ErrEmpty},
		{"header only", "date,mean_temp\n", ErrEmpty},
		{"missing date column", "day,mean_temp\n1/1/2014,3\n", ErrMissingColumn},
		{"missing value column", "date,temp\n1/1/2014,3\n", ErrMissingColumn},
		{"bad value", "date,mean_temp\n1/1/2014,warm\n", ErrBadValue},
		{"nan value", "date,mean_temp\n1/1/2014,NaN\n", ErrBadValue},
		{"infinite value", "date,mean_temp\n1/1/2014,3\n1/2/2014,+Inf\n", ErrBadValue},
		{"bad date", "date,mean_temp\n2014-01-01,3\n", series.ErrBadDate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseCSV(strings.NewReader(tt.in), tempOpts)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestCSV_Load(t *testing.T) {
	path := filepath.Join(t.TempDir(), "univar2.csv")
	require.NoError(t, os.WriteFile(path, []byte(tempCSV), 0o644))

	obs, err := NewCSV(path, tempOpts).Load(context.Background())
	require.NoError(t, err)
	assert.Len(t, obs, 3)

	_, err = NewCSV(filepath.Join(t.TempDir(), "missing.csv"), tempOpts).Load(context.Background())
	assert.Error(t, err)
}

func TestRemote_Load(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/csv")
		w.Write([]byte(tempCSV))
	}))
	defer srv.Close()

	src := NewRemote(srv.URL+"/univar2.csv", tempOpts, RemoteOptions{RequestTimeout: time.Second, RequestsPerSec: 10})
	obs, err := src.Load(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []float64{68.25, 70.5, 65}, series.Values(obs))
}

type failingFetcher struct{}

func (failingFetcher) Get(ctx context.Context, url string) ([]byte, error) {
	return nil, errors.New("connection refused")
}

func TestRemote_FetchError(t *testing.T) {
	_, err := NewRemoteWithFetcher("http://example.invalid/x.csv", tempOpts, failingFetcher{}).Load(context.Background())
	assert.ErrorContains(t, err, "connection refused")
}

func TestIsRemote(t *testing.T) {
	assert.True(t, IsRemote("https://example.com/univar.csv"))
	assert.True(t, IsRemote("http://localhost/univar.csv"))
	assert.False(t, IsRemote("univar.csv"))
	assert.False(t, IsRemote("/data/http/univar.csv"))
}

type fakeAggregator struct {
	records []model.Record
	kind    string
}

func (f *fakeAggregator) Aggregate(ctx context.Context, kind string) ([]model.Record, error) {
	f.kind = kind
	return f.records, nil
}

func TestPostgres_Load(t *testing.T) {
	agg := &fakeAggregator{records: []model.Record{
		{Date: "8/29/2013 10", Value: 12},
		{Date: "8/29/2013 9", Value: 30},
	}}

	obs, err := NewPostgres(agg, "trips-hourly", "1/2/2006 15").Load(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "trips-hourly", agg.kind)
	assert.Equal(t, []float64{30, 12}, series.Values(obs))
	assert.Equal(t, time.Date(2013, 8, 29, 9, 0, 0, 0, time.UTC), obs[0].Time)

	_, err = NewPostgres(&fakeAggregator{}, "trips-daily", "1/2/2006").Load(context.Background())
	assert.ErrorIs(t, err, ErrEmpty)
}
