package main

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/storm-radar-sim/internal/adapter/weather"
	"github.com/couchcryptid/storm-radar-sim/internal/domain"
	"github.com/couchcryptid/storm-radar-sim/internal/observability"
)

func TestFeedHandler_RoundTripsThroughClient(t *testing.T) {
	samples := []domain.WeatherSample{{Lat: 35, Lon: -90, CAPE: 3950.9, SCP: 7.1}}
	srv := httptest.NewServer(feedHandler(samples))
	defer srv.Close()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	c := weather.NewClient(srv.URL+"/weather", time.Second, logger, observability.NewMetricsForTesting())
	got, err := c.FetchSamples(context.Background())
	require.NoError(t, err)
	assert.Equal(t, samples, got)
}

func TestFeedHandler_OnlyServesWeather(t *testing.T) {
	srv := httptest.NewServer(feedHandler(nil))
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/weather", "application/json", nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestWriteJSON_ReadableByFileSource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "weather_data.json")
	samples := []domain.WeatherSample{{Lat: 35, Lon: -90, CAPE: 1200, SCP: 2.5}}
	require.NoError(t, writeJSON(path, samples))

	got, err := weather.NewFileSource(path).FetchSamples(context.Background())
	require.NoError(t, err)
	assert.Equal(t, samples, got)
}

func TestReadLevels(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sounding.json")
	require.NoError(t, os.WriteFile(path, []byte(`[
		{"pres": 1000, "hght": 0, "tmpc": 25, "dwpc": 20, "wspd": 10, "wdir": 180},
		{"pres": 500, "hght": 5570, "tmpc": -20, "dwpc": -25, "wspd": 30, "wdir": 260}
	]`), 0o600))

	levels, err := readLevels(path)
	require.NoError(t, err)
	require.Len(t, levels, 2)
	assert.InDelta(t, 5570, levels[1].Hght, 0)

	_, err = readLevels(filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)
}
