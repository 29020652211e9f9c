package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the frame loop.
type Metrics struct {
	FramesTotal     prometheus.Counter
	StepDuration    prometheus.Histogram
	LoopRunning     prometheus.Gauge
	ActivePulses    prometheus.Gauge
	ActiveStations  prometheus.Gauge
	PulseResets     prometheus.Counter
	IndicatorWrites prometheus.Counter

	// Weather ingestion.
	WeatherFetches       *prometheus.CounterVec // labels: outcome={success,fallback}
	WeatherFetchDuration prometheus.Histogram
	WeatherSamples       prometheus.Gauge
	WeatherDropped       prometheus.Gauge

	// Frame sinks.
	SinkErrors     *prometheus.CounterVec // labels: sink
	FramesFlushed  prometheus.Counter
	FlushBatchSize prometheus.Histogram
}

// NewMetrics creates and registers all loop metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := NewMetricsForTesting()
	prometheus.MustRegister(
		m.FramesTotal,
		m.StepDuration,
		m.LoopRunning,
		m.ActivePulses,
		m.ActiveStations,
		m.PulseResets,
		m.IndicatorWrites,
		m.WeatherFetches,
		m.WeatherFetchDuration,
		m.WeatherSamples,
		m.WeatherDropped,
		m.SinkErrors,
		m.FramesFlushed,
		m.FlushBatchSize,
	)
	return m
}

// NewMetricsForTesting creates unregistered Metrics to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		FramesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "radar_sim",
			Name:      "frames_total",
			Help:      "Total frame updates executed.",
		}),
		StepDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "radar_sim",
			Name:      "step_duration_seconds",
			Help:      "Duration of one frame update including sink delivery.",
			Buckets:   []float64{0.0001, 0.0005, 0.001, 0.0025, 0.005, 0.01, 0.016, 0.033, 0.1},
		}),
		LoopRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "radar_sim",
			Name:      "loop_running",
			Help:      "1 when the frame loop is active, 0 when shut down.",
		}),
		ActivePulses: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "radar_sim",
			Name:      "active_pulses",
			Help:      "Pulses expanding after the latest frame.",
		}),
		ActiveStations: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "radar_sim",
			Name:      "active_stations",
			Help:      "Stations covered by an active pulse after the latest frame.",
		}),
		PulseResets: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "radar_sim",
			Name:      "pulse_resets_total",
			Help:      "Pulses that exceeded the maximum radius and went idle.",
		}),
		IndicatorWrites: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "radar_sim",
			Name:      "indicator_writes_total",
			Help:      "Indicator re-orientations emitted.",
		}),
		WeatherFetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "radar_sim",
			Name:      "weather_fetches_total",
			Help:      "Weather ingestions by outcome.",
		}, []string{"outcome"}),
		WeatherFetchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "radar_sim",
			Name:      "weather_fetch_duration_seconds",
			Help:      "Weather feed request duration in seconds.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}),
		WeatherSamples: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "radar_sim",
			Name:      "weather_samples",
			Help:      "Samples placed in the uniform array by the latest ingestion.",
		}),
		WeatherDropped: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "radar_sim",
			Name:      "weather_samples_dropped",
			Help:      "Samples truncated by the uniform capacity in the latest ingestion.",
		}),
		SinkErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "radar_sim",
			Name:      "sink_errors_total",
			Help:      "Frame delivery failures by sink.",
		}, []string{"sink"}),
		FramesFlushed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "radar_sim",
			Name:      "frames_flushed_total",
			Help:      "Frames delivered by batching sinks.",
		}),
		FlushBatchSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "radar_sim",
			Name:      "flush_batch_size",
			Help:      "Frames per batch flush.",
			Buckets:   []float64{1, 5, 10, 20, 30, 40, 50, 75, 100},
		}),
	}
}
