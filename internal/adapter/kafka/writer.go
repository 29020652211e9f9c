package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/storm-radar-sim/internal/config"
	"github.com/couchcryptid/storm-radar-sim/internal/domain"
	"github.com/couchcryptid/storm-radar-sim/internal/observability"
)

const (
	sinkName = "kafka"

	// lingerTimeout bounds how long the producer holds a partial batch.
	// Frames arrive already batched by loop.BatchSink.
	lingerTimeout = 10 * time.Millisecond
)

// messageWriter is the subset of *kafkago.Writer the frame writer uses.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Writer produces frame messages to a Kafka topic.
// It implements loop.BatchLoader.
type Writer struct {
	writer  messageWriter
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewWriter creates an asynchronous Kafka producer for the configured frame
// topic. LoadBatch returns once the messages are queued; delivery failures
// are logged and counted by the completion callback.
func NewWriter(cfg *config.Config, logger *slog.Logger, metrics *observability.Metrics) *Writer {
	w := &Writer{logger: logger, metrics: metrics}
	w.writer = &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaFrameTopic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireOne,
		BatchTimeout: lingerTimeout,
		BatchSize:    cfg.BatchSize,
		Async:        true,
		Completion:   w.completed,
	}
	return w
}

// LoadBatch serializes multiple frames and queues them for the frame topic
// in a single WriteMessages call.
func (w *Writer) LoadBatch(ctx context.Context, frames []domain.Frame) error {
	if len(frames) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, len(frames))
	for i := range frames {
		msg, err := serializeToMessage(frames[i])
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	if err := w.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("write frames: %w", err)
	}
	return nil
}

// Close flushes queued messages and closes the producer.
func (w *Writer) Close() error {
	return w.writer.Close()
}

// completed runs on the producer's goroutine after each delivery attempt.
func (w *Writer) completed(msgs []kafkago.Message, err error) {
	if err == nil {
		return
	}
	first, last := "", ""
	if len(msgs) > 0 {
		first, last = string(msgs[0].Key), string(msgs[len(msgs)-1].Key)
	}
	w.logger.Warn("frame delivery failed", "frames", len(msgs), "first_seq", first, "last_seq", last, "error", err)
	w.metrics.SinkErrors.WithLabelValues(sinkName).Inc()
}

// serializeToMessage marshals a Frame into a Kafka message keyed by its
// sequence number.
func serializeToMessage(f domain.Frame) (kafkago.Message, error) {
	data, err := json.Marshal(f)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize frame %d: %w", f.Seq, err)
	}
	headers := []kafkago.Header{
		{Key: "sim_time", Value: []byte(strconv.FormatFloat(f.Time, 'f', -1, 64))},
		{Key: "emitted_at", Value: []byte(f.EmittedAt.Format(time.RFC3339Nano))},
	}
	if f.Uniforms.WeatherData != nil {
		headers = append(headers, kafkago.Header{Key: "weather_data", Value: []byte(strconv.Itoa(len(f.Uniforms.WeatherData)))})
	}
	return kafkago.Message{
		Key:     []byte(strconv.FormatUint(f.Seq, 10)),
		Value:   data,
		Headers: headers,
		Time:    f.EmittedAt,
	}, nil
}
