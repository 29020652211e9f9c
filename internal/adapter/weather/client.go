package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/couchcryptid/storm-radar-sim/internal/domain"
	"github.com/couchcryptid/storm-radar-sim/internal/observability"
)

// Client implements domain.SampleSource against the HTTP weather feed.
type Client struct {
	url        string
	httpClient *http.Client
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates a weather feed client for the given endpoint.
func NewClient(url string, timeout time.Duration, logger *slog.Logger, metrics *observability.Metrics) *Client {
	return &Client{
		url: url,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		metrics: metrics,
		logger:  logger,
	}
}

// FetchSamples performs a single GET and decodes the JSON array of samples.
func (c *Client) FetchSamples(ctx context.Context) ([]domain.WeatherSample, error) {
	start := time.Now()
	defer func() {
		c.metrics.WeatherFetchDuration.Observe(time.Since(start).Seconds())
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("weather request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("weather feed error: status %d: %s", resp.StatusCode, body)
	}

	samples, err := decodeSamples(resp.Body)
	if err != nil {
		return nil, err
	}

	c.logger.Debug("weather feed fetched", "url", c.url, "samples", len(samples))
	return samples, nil
}

func decodeSamples(r io.Reader) ([]domain.WeatherSample, error) {
	var samples []domain.WeatherSample
	if err := json.NewDecoder(r).Decode(&samples); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if err := domain.ValidateSamples(samples); err != nil {
		return nil, fmt.Errorf("validate response: %w", err)
	}
	return samples, nil
}
