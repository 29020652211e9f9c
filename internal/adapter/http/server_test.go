package http_test

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	httpadapter "github.com/couchcryptid/storm-radar-sim/internal/adapter/http"
	"github.com/couchcryptid/storm-radar-sim/internal/domain"
	"github.com/couchcryptid/storm-radar-sim/internal/loop"
)

type mockReadiness struct {
	err error
}

func (m *mockReadiness) CheckReadiness(_ context.Context) error { return m.err }

type fixedSnapshot struct {
	snap *loop.Snapshot
}

func (f fixedSnapshot) Snapshot() *loop.Snapshot { return f.snap }

func testSnapshot() *loop.Snapshot {
	data, _ := domain.Reshape([]domain.WeatherSample{domain.FallbackSample()}, 6)
	scene := domain.NewScene(domain.DefaultLayout(), domain.DefaultParams())
	scene.Uniforms.WeatherData = data
	return &loop.Snapshot{
		Seq:             12,
		Scene:           scene,
		Camera:          domain.NewViewport(1280, 720).Camera,
		WeatherMerged:   true,
		WeatherFallback: true,
	}
}

func newTestServer(readyErr error) *httpadapter.Server {
	return httpadapter.NewServer(":0", &mockReadiness{err: readyErr}, fixedSnapshot{snap: testSnapshot()}, slog.Default())
}

func get(t *testing.T, srv *httpadapter.Server, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestHealthzReturns200(t *testing.T) {
	rec := get(t, newTestServer(nil), "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestReadyzReturns200WhenReady(t *testing.T) {
	rec := get(t, newTestServer(nil), "/readyz")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestReadyzReturns503WhenNotReady(t *testing.T) {
	rec := get(t, newTestServer(fmt.Errorf("weather data has not been merged yet")), "/readyz")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	rec := get(t, newTestServer(nil), "/metrics")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestSceneEndpoint(t *testing.T) {
	rec := get(t, newTestServer(nil), "/scene")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var snap loop.Snapshot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snap))
	assert.Equal(t, uint64(12), snap.Seq)
	assert.Len(t, snap.Scene.Pulses, 2)
	assert.Len(t, snap.Scene.Stations, 2)
	assert.Len(t, snap.Scene.Indicators, 81)
	assert.InDelta(t, 75, snap.Camera.FOV, 0)
	assert.InDelta(t, 1280.0/720.0, snap.Camera.Aspect, 1e-12)
}

func TestWeatherEndpoint(t *testing.T) {
	rec := get(t, newTestServer(nil), "/weather")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Merged      bool          `json:"merged"`
		Fallback    bool          `json:"fallback"`
		WeatherData []domain.Vec4 `json:"weather_data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.True(t, body.Merged)
	assert.True(t, body.Fallback)
	require.Len(t, body.WeatherData, 6)
	assert.Equal(t, domain.Vec4{X: -40, Y: 85, Z: 2000, W: 5}, body.WeatherData[0])
}

func TestHeatFieldEndpoint(t *testing.T) {
	rec := get(t, newTestServer(nil), "/heatfield?channel=scp&size=8")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Channel   string      `json:"channel"`
		Size      int         `json:"size"`
		Alpha     float64     `json:"alpha"`
		Intensity [][]float64 `json:"intensity"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "scp", body.Channel)
	assert.Equal(t, 8, body.Size)
	assert.InDelta(t, 0.3, body.Alpha, 0)
	require.Len(t, body.Intensity, 8)
	for _, row := range body.Intensity {
		require.Len(t, row, 8)
		for _, v := range row {
			assert.GreaterOrEqual(t, v, 0.0)
			assert.LessOrEqual(t, v, 1.0)
		}
	}
}

func TestHeatFieldEndpoint_DefaultsToCAPE(t *testing.T) {
	rec := get(t, newTestServer(nil), "/heatfield")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"channel":"cape"`)
	assert.Contains(t, rec.Body.String(), `"size":32`)
}

func TestHeatFieldEndpoint_BadRequest(t *testing.T) {
	srv := newTestServer(nil)
	for _, path := range []string{"/heatfield?channel=srh", "/heatfield?size=1", "/heatfield?size=abc", "/heatfield?size=1000"} {
		t.Run(path, func(t *testing.T) {
			rec := get(t, srv, path)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

type swappableSnapshot struct {
	snap atomic.Pointer[loop.Snapshot]
}

func (s *swappableSnapshot) Snapshot() *loop.Snapshot { return s.snap.Load() }

func TestHeatFieldEndpoint_RefreshesAfterMerge(t *testing.T) {
	src := &swappableSnapshot{}
	src.snap.Store(&loop.Snapshot{Scene: domain.NewScene(domain.DefaultLayout(), domain.DefaultParams())})
	srv := httpadapter.NewServer(":0", &mockReadiness{}, src, slog.Default())

	hot := func() float64 {
		rec := get(t, srv, "/heatfield?channel=cape&size=101")
		require.Equal(t, http.StatusOK, rec.Code)
		var body struct {
			Intensity [][]float64 `json:"intensity"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		// Nearest cell to the fallback sample: u=0.1 on the v=1 edge.
		return body.Intensity[100][10]
	}

	assert.Zero(t, hot(), "no weather data before merge")
	src.snap.Store(testSnapshot())
	assert.Positive(t, hot(), "merged data must not be served from the pre-merge grid")
}
