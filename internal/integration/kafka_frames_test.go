//go:build integration

package integration_test

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/testutil"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/storm-radar-sim/internal/adapter/kafka"
	"github.com/couchcryptid/storm-radar-sim/internal/config"
	"github.com/couchcryptid/storm-radar-sim/internal/domain"
	"github.com/couchcryptid/storm-radar-sim/internal/loop"
	"github.com/couchcryptid/storm-radar-sim/internal/observability"
)

const testFrameTopic = "test-radar-frames"

type stubSource struct {
	samples []domain.WeatherSample
}

func (s stubSource) FetchSamples(context.Context) ([]domain.WeatherSample, error) {
	return s.samples, nil
}

// frameMessage holds a deserialized frame read from the frame topic.
type frameMessage struct {
	Frame   domain.Frame
	Key     string
	Headers map[string]string
}

func readFrame(ctx context.Context, t *testing.T, consumer *kafkago.Reader) frameMessage {
	t.Helper()
	readCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	msg, err := consumer.ReadMessage(readCtx)
	require.NoError(t, err, "read from frame topic")

	headers := make(map[string]string, len(msg.Headers))
	for _, h := range msg.Headers {
		headers[h.Key] = string(h.Value)
	}
	var f domain.Frame
	require.NoError(t, json.Unmarshal(msg.Value, &f), "unmarshal frame message")

	return frameMessage{Frame: f, Key: string(msg.Key), Headers: headers}
}

// TestFramesThroughKafka drives the loop with a fake clock, batches frames
// into the Kafka writer and reads them back in order.
func TestFramesThroughKafka(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testFrameTopic)

	cfg := &config.Config{
		KafkaBrokers:       []string{broker},
		KafkaFrameTopic:    testFrameTopic,
		BatchSize:          10,
		BatchFlushInterval: 50 * time.Millisecond,
	}

	metrics := observability.NewMetricsForTesting()
	writer := kafka.NewWriter(cfg, discardLogger(), metrics)
	t.Cleanup(func() { _ = writer.Close() })

	clock := clockwork.NewFakeClockAt(time.Date(2024, 5, 20, 18, 0, 0, 0, time.UTC))
	params := domain.DefaultParams()
	scene := domain.NewScene(domain.DefaultLayout(), params)
	src := stubSource{samples: []domain.WeatherSample{{Lat: 35.2, Lon: -97.4, CAPE: 3950, SCP: 7.2}}}

	l := loop.New(scene, loop.Settings{Params: params, Capacity: 6, Seed: 11, Clock: clock}, src, discardLogger(), metrics)
	sink := loop.NewBatchSink("kafka", writer, cfg.BatchSize, time.Hour, clock, discardLogger(), metrics)
	l.AddSink(sink)

	l.StartIngestion(ctx)
	require.Eventually(t, func() bool {
		return l.Tick(ctx).Uniforms.WeatherData != nil
	}, 5*time.Second, 5*time.Millisecond)

	const total = 25
	for int(l.Snapshot().Seq) < total {
		l.Tick(ctx)
		clock.Advance(16 * time.Millisecond)
	}
	require.NoError(t, sink.Flush(ctx))
	assert.Zero(t, sink.Pending())

	consumer := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     []string{broker},
		Topic:       testFrameTopic,
		GroupID:     fmt.Sprintf("test-frames-%d", time.Now().UnixNano()),
		StartOffset: kafkago.FirstOffset,
	})
	t.Cleanup(func() { _ = consumer.Close() })

	var weatherFrames int
	for i := 1; i <= total; i++ {
		fm := readFrame(ctx, t, consumer)
		assert.Equal(t, strconv.Itoa(i), fm.Key, "frames arrive in sequence order")
		assert.Equal(t, uint64(i), fm.Frame.Seq)
		assert.InDelta(t, 0.05*float64(i), fm.Frame.Time, 1e-9)

		_, err := time.Parse(time.RFC3339Nano, fm.Headers["emitted_at"])
		assert.NoError(t, err, "emitted_at should be RFC3339")
		assert.Contains(t, fm.Headers, "sim_time")

		if fm.Frame.Uniforms.WeatherData != nil {
			weatherFrames++
			require.Len(t, fm.Frame.Uniforms.WeatherData, 6)
			slot := fm.Frame.Uniforms.WeatherData[0]
			assert.InDelta(t, -47.4, slot.X, 1e-9)
			assert.InDelta(t, 85.2, slot.Y, 1e-9)
			assert.Equal(t, 3950.0, slot.Z)
			assert.Equal(t, 7.2, slot.W)
			assert.Equal(t, "6", fm.Headers["weather_data"])
		}
	}
	assert.Equal(t, 1, weatherFrames, "weather data is carried by exactly one frame")
}

// TestPartialBatchDoesNotWaitForFlushInterval writes fewer frames than the
// producer batch size and checks the call returns well before the flush
// interval, then that the frames still arrive.
func TestPartialBatchDoesNotWaitForFlushInterval(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	const topic = "test-radar-frames-partial"
	broker := startKafka(ctx, t)
	createTopic(t, broker, topic)

	cfg := &config.Config{
		KafkaBrokers:       []string{broker},
		KafkaFrameTopic:    topic,
		BatchSize:          50,
		BatchFlushInterval: 5 * time.Second,
	}
	metrics := observability.NewMetricsForTesting()
	writer := kafka.NewWriter(cfg, discardLogger(), metrics)
	t.Cleanup(func() { _ = writer.Close() })

	frames := []domain.Frame{{Seq: 1, Time: 0.05}, {Seq: 2, Time: 0.1}, {Seq: 3, Time: 0.15}}

	start := time.Now()
	require.NoError(t, writer.LoadBatch(ctx, frames))
	assert.Less(t, time.Since(start), time.Second, "LoadBatch must not wait for the flush interval")

	consumer := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     []string{broker},
		Topic:       topic,
		GroupID:     fmt.Sprintf("test-partial-%d", time.Now().UnixNano()),
		StartOffset: kafkago.FirstOffset,
	})
	t.Cleanup(func() { _ = consumer.Close() })

	for i := 1; i <= len(frames); i++ {
		fm := readFrame(ctx, t, consumer)
		assert.Equal(t, strconv.Itoa(i), fm.Key)
	}
	assert.InDelta(t, 0, testutil.ToFloat64(metrics.SinkErrors.WithLabelValues("kafka")), 0)
}
