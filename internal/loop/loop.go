package loop

import (
	"context"
	"errors"
	"log/slog"
	"math/rand/v2"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/storm-radar-sim/internal/domain"
	"github.com/couchcryptid/storm-radar-sim/internal/observability"
)

// FrameSink receives every frame in sequence order. Publish is always called
// from the loop goroutine.
type FrameSink interface {
	Name() string
	Publish(ctx context.Context, f domain.Frame) error
}

// Settings tunes the frame loop. Zero values fall back to the defaults noted
// on each field.
type Settings struct {
	Params   domain.Params
	Capacity int           // domain.DefaultUniformCapacity
	Interval time.Duration // 16ms
	Seed     uint64        // 0 seeds from the clock
	Rand     domain.Rand   // overrides Seed when set
	Clock    clockwork.Clock
	Viewport domain.Viewport // 1280x720 until a renderer reports its size
}

const (
	defaultViewportWidth  = 1280
	defaultViewportHeight = 720
)

// Snapshot is the scene as of the latest completed frame.
type Snapshot struct {
	Seq             uint64        `json:"seq"`
	Scene           domain.Scene  `json:"scene"`
	Camera          domain.Camera `json:"camera"`
	WeatherMerged   bool          `json:"weather_merged"`
	WeatherFallback bool          `json:"weather_fallback"`
	WeatherDropped  int           `json:"weather_dropped"`
}

type ingestResult struct {
	samples  []domain.WeatherSample
	fallback bool
}

// Loop drives the frame update on a fixed interval. Its goroutine is the only
// writer of scene state; ingestion hands its result over a channel and
// readers get immutable snapshots.
type Loop struct {
	scene    domain.Scene
	params   domain.Params
	rng      domain.Rand
	capacity int
	interval time.Duration
	clock    clockwork.Clock

	source domain.SampleSource
	sinks  []FrameSink

	logger  *slog.Logger
	metrics *observability.Metrics

	ingestOnce sync.Once
	ingested   chan ingestResult
	ready      atomic.Bool
	latest     atomic.Pointer[Snapshot]
	viewport   atomic.Pointer[domain.Viewport]

	seq      uint64
	fallback bool
	dropped  int
}

// New creates a Loop over the initial scene. src may be nil, in which case
// ingestion falls back immediately.
func New(scene domain.Scene, s Settings, src domain.SampleSource, logger *slog.Logger, metrics *observability.Metrics) *Loop {
	if s.Capacity <= 0 {
		s.Capacity = domain.DefaultUniformCapacity
	}
	if s.Interval <= 0 {
		s.Interval = 16 * time.Millisecond
	}
	if s.Clock == nil {
		s.Clock = clockwork.NewRealClock()
	}
	if s.Rand == nil {
		s.Rand = NewRand(s.Seed, s.Clock)
	}
	if s.Viewport.Height <= 0 {
		s.Viewport = domain.NewViewport(defaultViewportWidth, defaultViewportHeight)
	}

	l := &Loop{
		scene:    scene,
		params:   s.Params,
		rng:      s.Rand,
		capacity: s.Capacity,
		interval: s.Interval,
		clock:    s.Clock,
		source:   src,
		logger:   logger,
		metrics:  metrics,
		ingested: make(chan ingestResult, 1),
	}
	l.viewport.Store(&s.Viewport)
	l.publishSnapshot()
	return l
}

// NewRand returns the activation source for seed, or a clock-seeded one when
// seed is 0.
func NewRand(seed uint64, clock clockwork.Clock) *rand.Rand {
	if seed == 0 {
		seed = uint64(clock.Now().UnixNano())
	}
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// AddSink registers a sink. Call before Run.
func (l *Loop) AddSink(s FrameSink) {
	l.sinks = append(l.sinks, s)
}

// Resize records the drawable size of the active renderer. Snapshots carry
// its camera aspect from the next frame on. Safe to call from any goroutine.
func (l *Loop) Resize(w, h int) {
	vp := *l.viewport.Load()
	vp.Resize(w, h)
	l.viewport.Store(&vp)
}

// CheckReadiness returns nil once weather data (fetched or fallback) has been
// merged into the scene.
func (l *Loop) CheckReadiness(_ context.Context) error {
	if !l.ready.Load() {
		return errors.New("weather data has not been merged yet")
	}
	return nil
}

// Snapshot returns the latest published snapshot. It is never nil and must
// not be modified.
func (l *Loop) Snapshot() *Snapshot {
	return l.latest.Load()
}

// StartIngestion launches the one-shot weather fetch. Subsequent calls are
// no-ops.
func (l *Loop) StartIngestion(ctx context.Context) {
	l.ingestOnce.Do(func() {
		go func() {
			samples, fallback := domain.IngestSamples(ctx, l.source, l.logger)
			l.ingested <- ingestResult{samples: samples, fallback: fallback}
		}()
	})
}

// Run starts ingestion and executes frames until the context is cancelled.
func (l *Loop) Run(ctx context.Context) error {
	l.logger.Info("frame loop started",
		"interval", l.interval,
		"pulses", len(l.scene.Pulses),
		"indicators", len(l.scene.Indicators),
		"stations", len(l.scene.Stations),
		"response", l.params.Response,
	)
	l.metrics.LoopRunning.Set(1)
	defer l.metrics.LoopRunning.Set(0)

	l.StartIngestion(ctx)

	ticker := l.clock.NewTicker(l.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			l.logger.Info("frame loop stopping", "reason", ctx.Err(), "frames", l.seq)
			return nil
		case <-ticker.Chan():
			l.Tick(ctx)
		}
	}
}

// Tick executes one frame: merges completed ingestion, steps the scene,
// stamps the frame and delivers it to every sink.
func (l *Loop) Tick(ctx context.Context) domain.Frame {
	start := l.clock.Now()

	var weather []domain.Vec4
	select {
	case res := <-l.ingested:
		weather = l.merge(res)
	default:
	}

	next, frame := domain.Step(l.scene, l.params, l.rng)
	if weather != nil {
		frame.Uniforms.WeatherData = weather
	}
	l.scene = next
	l.seq++
	frame.Seq = l.seq
	frame.EmittedAt = l.clock.Now()

	l.publish(ctx, frame)
	l.publishSnapshot()
	l.record(frame)
	l.metrics.StepDuration.Observe(l.clock.Since(start).Seconds())
	return frame
}

func (l *Loop) merge(res ingestResult) []domain.Vec4 {
	data, dropped := domain.Reshape(res.samples, l.capacity)
	l.scene.Uniforms.WeatherData = data
	l.fallback = res.fallback
	l.dropped = dropped

	outcome := "success"
	if res.fallback {
		outcome = "fallback"
	}
	l.metrics.WeatherFetches.WithLabelValues(outcome).Inc()
	l.metrics.WeatherSamples.Set(float64(len(res.samples) - dropped))
	l.metrics.WeatherDropped.Set(float64(dropped))

	if dropped > 0 {
		l.logger.Warn("weather samples exceed uniform capacity, truncating",
			"samples", len(res.samples), "capacity", l.capacity, "dropped", dropped)
	}
	l.logger.Info("weather data merged",
		"samples", len(res.samples)-dropped, "fallback", res.fallback, "frame", l.seq+1)

	l.ready.Store(true)
	return data
}

func (l *Loop) publish(ctx context.Context, f domain.Frame) {
	for _, s := range l.sinks {
		if err := s.Publish(ctx, f); err != nil {
			l.logger.Warn("frame sink failed", "sink", s.Name(), "seq", f.Seq, "error", err)
			l.metrics.SinkErrors.WithLabelValues(s.Name()).Inc()
		}
	}
}

func (l *Loop) publishSnapshot() {
	l.latest.Store(&Snapshot{
		Seq:             l.seq,
		Scene:           l.scene,
		Camera:          l.viewport.Load().Camera,
		WeatherMerged:   l.ready.Load(),
		WeatherFallback: l.fallback,
		WeatherDropped:  l.dropped,
	})
}

func (l *Loop) record(f domain.Frame) {
	l.metrics.FramesTotal.Inc()
	l.metrics.ActivePulses.Set(float64(l.scene.ActivePulses()))
	l.metrics.ActiveStations.Set(float64(l.scene.ActiveStations()))
	l.metrics.IndicatorWrites.Add(float64(len(f.Indicators)))
	for _, w := range f.Pulses {
		if !w.Active {
			l.metrics.PulseResets.Inc()
		}
	}
}
