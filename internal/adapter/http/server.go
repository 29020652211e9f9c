package http

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/couchcryptid/storm-radar-sim/internal/domain"
	"github.com/couchcryptid/storm-radar-sim/internal/loop"
)

const (
	defaultHeatFieldSize = 32
	maxHeatFieldSize     = 256
	heatFieldCacheSize   = 16
)

// SnapshotSource provides the latest scene snapshot.
type SnapshotSource interface {
	Snapshot() *loop.Snapshot
}

// Server exposes health, readiness, metrics, and read-only scene endpoints.
type Server struct {
	httpServer *http.Server
	scenes     SnapshotSource
	grids      *gridCache
	logger     *slog.Logger
}

// NewServer creates an HTTP server with /healthz, /readyz, /metrics, /scene,
// /weather and /heatfield routes.
func NewServer(addr string, ready sharedobs.ReadinessChecker, scenes SnapshotSource, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		scenes: scenes,
		grids:  newGridCache(heatFieldCacheSize),
		logger: logger,
	}

	mux.HandleFunc("GET /healthz", sharedobs.LivenessHandler())
	mux.HandleFunc("GET /readyz", sharedobs.ReadinessHandler(ready))
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /scene", s.handleScene)
	mux.HandleFunc("GET /weather", s.handleWeather)
	mux.HandleFunc("GET /heatfield", s.handleHeatField)

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func (s *Server) handleScene(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.scenes.Snapshot())
}

type weatherResponse struct {
	Merged      bool          `json:"merged"`
	Fallback    bool          `json:"fallback"`
	Dropped     int           `json:"dropped"`
	WeatherData []domain.Vec4 `json:"weather_data"`
}

func (s *Server) handleWeather(w http.ResponseWriter, _ *http.Request) {
	snap := s.scenes.Snapshot()
	writeJSON(w, http.StatusOK, weatherResponse{
		Merged:      snap.WeatherMerged,
		Fallback:    snap.WeatherFallback,
		Dropped:     snap.WeatherDropped,
		WeatherData: snap.Scene.Uniforms.WeatherData,
	})
}

type heatFieldResponse struct {
	Channel   string      `json:"channel"`
	Size      int         `json:"size"`
	Alpha     float64     `json:"alpha"`
	Intensity [][]float64 `json:"intensity"`
}

// handleHeatField samples the CAPE or SCP field on a size x size grid so
// clients without shader support can draw the overlay. Rows run along v.
func (s *Server) handleHeatField(w http.ResponseWriter, r *http.Request) {
	channel := r.URL.Query().Get("channel")
	if channel == "" {
		channel = "cape"
	}
	var field domain.HeatField
	switch channel {
	case "cape":
		field = domain.CAPEField
	case "scp":
		field = domain.SCPField
	default:
		writeError(w, http.StatusBadRequest, fmt.Errorf("unknown channel %q: want cape or scp", channel))
		return
	}

	size := defaultHeatFieldSize
	if raw := r.URL.Query().Get("size"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 2 || n > maxHeatFieldSize {
			writeError(w, http.StatusBadRequest, fmt.Errorf("size must be an integer in [2, %d]", maxHeatFieldSize))
			return
		}
		size = n
	}

	snap := s.scenes.Snapshot()
	key := gridKey{channel: channel, size: size, merged: snap.WeatherMerged}
	grid, ok := s.grids.get(key)
	if !ok {
		grid = sampleField(field, snap.Scene.Uniforms.WeatherData, size)
		s.grids.put(key, grid)
	}

	writeJSON(w, http.StatusOK, heatFieldResponse{
		Channel:   channel,
		Size:      size,
		Alpha:     field.Alpha,
		Intensity: grid,
	})
}

func sampleField(field domain.HeatField, data []domain.Vec4, size int) [][]float64 {
	grid := make([][]float64, size)
	for row := range grid {
		grid[row] = make([]float64, size)
		v := float64(row) / float64(size-1)
		for col := range grid[row] {
			u := float64(col) / float64(size-1)
			grid[row][col] = field.Intensity(data, u, v)
		}
	}
	return grid
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort response
}
