package weather

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/couchcryptid/storm-radar-sim/internal/domain"
	"github.com/couchcryptid/storm-radar-sim/internal/observability"
)

const fileScheme = "file://"

// FileSource reads samples from a local JSON file, such as the
// weather_data.json written by genweather.
type FileSource struct {
	path string
}

// NewFileSource creates a source backed by the file at path.
func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

func (f *FileSource) FetchSamples(_ context.Context) ([]domain.WeatherSample, error) {
	file, err := os.Open(f.path)
	if err != nil {
		return nil, fmt.Errorf("open weather file: %w", err)
	}
	defer file.Close()
	return decodeSamples(file)
}

// NewSource picks the source for a WEATHER_URL value: file:// URLs read a
// local file, anything else is fetched over HTTP.
func NewSource(url string, timeout time.Duration, logger *slog.Logger, metrics *observability.Metrics) domain.SampleSource {
	if path, ok := strings.CutPrefix(url, fileScheme); ok {
		return NewFileSource(path)
	}
	return NewClient(url, timeout, logger, metrics)
}
