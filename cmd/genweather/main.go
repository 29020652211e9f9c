// Command genweather derives CAPE and SCP from a sounding and writes the
// weather feed consumed by radarsim. With -serve it also exposes the feed at
// GET /weather, the simulator's default WEATHER_URL.
//
// Usage:
//
//	go run ./cmd/genweather -out weather_data.json
//	go run ./cmd/genweather -sounding data/oun_00z.json -lat 35.2 -lon -97.4 -serve :5000
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/couchcryptid/storm-radar-sim/internal/domain"
	"github.com/couchcryptid/storm-radar-sim/internal/sounding"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	soundingPath := flag.String("sounding", "", "JSON array of sounding levels (default: built-in convective example)")
	lat := flag.Float64("lat", 35, "sample latitude")
	lon := flag.Float64("lon", -90, "sample longitude")
	out := flag.String("out", "weather_data.json", "output path for the weather feed")
	serve := flag.String("serve", "", "if set, serve the feed at GET /weather on this address")
	flag.Parse()

	levels := sounding.ConvectiveExample()
	if *soundingPath != "" {
		var err error
		if levels, err = readLevels(*soundingPath); err != nil {
			return fmt.Errorf("reading sounding: %w", err)
		}
	}

	prof, err := sounding.NewProfile(levels)
	if err != nil {
		return fmt.Errorf("building profile: %w", err)
	}
	idx := prof.Compute()
	log.Printf("indices: %s", idx)

	samples := []domain.WeatherSample{{
		Lat:  *lat,
		Lon:  *lon,
		CAPE: idx.SBCAPE,
		SCP:  idx.SCP,
	}}

	if err := writeJSON(*out, samples); err != nil {
		return fmt.Errorf("writing weather feed: %w", err)
	}
	log.Printf("wrote %s with CAPE %.1f and SCP %.2f", *out, idx.SBCAPE, idx.SCP)

	if *serve == "" {
		return nil
	}
	return serveFeed(*serve, samples)
}

func readLevels(path string) ([]sounding.Level, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var levels []sounding.Level
	if err := json.Unmarshal(data, &levels); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return levels, nil
}

func writeJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0o600)
}

func feedHandler(samples []domain.WeatherSample) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /weather", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(samples) //nolint:errcheck // best-effort response
	})
	return mux
}

func serveFeed(addr string, samples []domain.WeatherSample) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           feedHandler(samples),
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Printf("serving weather feed on %s/weather", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
