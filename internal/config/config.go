package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"

	"github.com/couchcryptid/storm-radar-sim/internal/domain"
)

// Renderer names accepted by RENDERER.
const (
	RendererNone = "none"
	RendererTUI  = "tui"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Weather feed.
	WeatherURL      string
	WeatherTimeout  time.Duration
	UniformCapacity int

	// Frame loop.
	FrameInterval time.Duration
	Seed          uint64
	Response      domain.ResponseMode
	SceneFile     string
	Renderer      string

	// Kafka frame sink.
	KafkaEnabled       bool
	KafkaBrokers       []string
	KafkaFrameTopic    string
	BatchSize          int
	BatchFlushInterval time.Duration
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	weatherTimeout, err := parsePositiveDuration("WEATHER_TIMEOUT", "5s")
	if err != nil {
		return nil, err
	}

	frameInterval, err := parsePositiveDuration("FRAME_INTERVAL", "16ms")
	if err != nil {
		return nil, err
	}

	batchSize, err := sharedcfg.ParseBatchSize()
	if err != nil {
		return nil, err
	}

	flushInterval, err := sharedcfg.ParseBatchFlushInterval()
	if err != nil {
		return nil, err
	}

	capacity, err := strconv.Atoi(sharedcfg.EnvOrDefault("UNIFORM_CAPACITY", strconv.Itoa(domain.DefaultUniformCapacity)))
	if err != nil || capacity <= 0 {
		return nil, errors.New("invalid UNIFORM_CAPACITY: must be a positive integer")
	}

	seed, err := strconv.ParseUint(sharedcfg.EnvOrDefault("SIM_SEED", "0"), 10, 64)
	if err != nil {
		return nil, errors.New("invalid SIM_SEED: must be an unsigned integer")
	}

	response, err := domain.ParseResponseMode(sharedcfg.EnvOrDefault("INDICATOR_RESPONSE", string(domain.AttractInside)))
	if err != nil {
		return nil, fmt.Errorf("invalid INDICATOR_RESPONSE: %w", err)
	}

	var brokers []string
	if raw := os.Getenv("KAFKA_BROKERS"); raw != "" {
		brokers = sharedcfg.ParseBrokers(raw)
	}
	kafkaEnabled := len(brokers) > 0
	if v := os.Getenv("KAFKA_ENABLED"); v != "" {
		kafkaEnabled = v == "true"
	}

	cfg := &Config{
		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		WeatherURL:      sharedcfg.EnvOrDefault("WEATHER_URL", "http://localhost:5000/weather"),
		WeatherTimeout:  weatherTimeout,
		UniformCapacity: capacity,

		FrameInterval: frameInterval,
		Seed:          seed,
		Response:      response,
		SceneFile:     os.Getenv("SCENE_FILE"),
		Renderer:      sharedcfg.EnvOrDefault("RENDERER", RendererNone),

		KafkaEnabled:       kafkaEnabled,
		KafkaBrokers:       brokers,
		KafkaFrameTopic:    sharedcfg.EnvOrDefault("KAFKA_FRAME_TOPIC", "radar-frames"),
		BatchSize:          batchSize,
		BatchFlushInterval: flushInterval,
	}

	if cfg.Renderer != RendererNone && cfg.Renderer != RendererTUI {
		return nil, fmt.Errorf("invalid RENDERER %q: want %q or %q", cfg.Renderer, RendererNone, RendererTUI)
	}
	if cfg.KafkaEnabled && len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_ENABLED is true but KAFKA_BROKERS is not set")
	}
	if cfg.KafkaEnabled && cfg.KafkaFrameTopic == "" {
		return nil, errors.New("KAFKA_FRAME_TOPIC is required")
	}

	return cfg, nil
}

func parsePositiveDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(sharedcfg.EnvOrDefault(key, def))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}
