package domain

import (
	"context"
	"fmt"
	"log/slog"
	"math"
)

// DefaultUniformCapacity is the weatherData array length of the full-size
// heat-field shaders. The compact variant compiles with 6.
const DefaultUniformCapacity = 100

// WeatherSample is one CAPE/SCP observation from the weather feed. Feeds that
// only carry CAPE omit scp, which decodes as 0.
type WeatherSample struct {
	Lat  float64 `json:"lat"`
	Lon  float64 `json:"lon"`
	CAPE float64 `json:"cape"`
	SCP  float64 `json:"scp"`
}

// Uniform maps the sample into shader space: x = lon+50, y = lat+50, z = CAPE,
// w = SCP.
func (s WeatherSample) Uniform() Vec4 {
	return Vec4{X: s.Lon + 50, Y: s.Lat + 50, Z: s.CAPE, W: s.SCP}
}

// FallbackSample is substituted when the feed cannot be read.
func FallbackSample() WeatherSample {
	return WeatherSample{Lat: 35, Lon: -90, CAPE: 2000, SCP: 5}
}

// SampleSource fetches the current weather samples.
type SampleSource interface {
	FetchSamples(ctx context.Context) ([]WeatherSample, error)
}

// ValidateSamples rejects non-finite values, which no shader can consume.
func ValidateSamples(samples []WeatherSample) error {
	for i, s := range samples {
		for _, v := range [...]float64{s.Lat, s.Lon, s.CAPE, s.SCP} {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return fmt.Errorf("sample %d: non-finite value", i)
			}
		}
	}
	return nil
}

// IngestSamples performs the one-shot fetch. Any failure (including a nil
// source or malformed data) is logged and replaced by the single fallback
// sample; fallback reports whether that happened. There is no retry.
func IngestSamples(ctx context.Context, src SampleSource, logger *slog.Logger) (samples []WeatherSample, fallback bool) {
	if src == nil {
		logger.Warn("no weather source configured, using fallback sample")
		return []WeatherSample{FallbackSample()}, true
	}

	samples, err := src.FetchSamples(ctx)
	if err == nil {
		err = ValidateSamples(samples)
	}
	if err != nil {
		logger.Warn("weather fetch failed, using fallback sample", "error", err)
		return []WeatherSample{FallbackSample()}, true
	}
	return samples, false
}

// Reshape lays samples out in a uniform array of exactly capacity slots.
// Extra samples are dropped (reported in dropped); unused slots are zero,
// which the shaders skip because their channel value is not positive.
func Reshape(samples []WeatherSample, capacity int) (data []Vec4, dropped int) {
	if capacity <= 0 {
		return nil, len(samples)
	}
	data = make([]Vec4, capacity)
	n := min(len(samples), capacity)
	for i := 0; i < n; i++ {
		data[i] = samples[i].Uniform()
	}
	return data, len(samples) - n
}
