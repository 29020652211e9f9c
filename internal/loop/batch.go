package loop

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/storm-radar-sim/internal/domain"
	"github.com/couchcryptid/storm-radar-sim/internal/observability"
)

// BatchLoader writes multiple frames to the destination.
type BatchLoader interface {
	LoadBatch(ctx context.Context, frames []domain.Frame) error
}

// BatchSink buffers frames and hands them to a BatchLoader once batchSize
// frames are pending or the oldest pending frame is flushInterval old.
// Delivery is best effort: a failed batch is dropped, not retried.
type BatchSink struct {
	name          string
	loader        BatchLoader
	batchSize     int
	flushInterval time.Duration
	clock         clockwork.Clock
	logger        *slog.Logger
	metrics       *observability.Metrics

	pending []domain.Frame
	oldest  time.Time
}

// NewBatchSink creates a batching sink in front of loader.
func NewBatchSink(name string, loader BatchLoader, batchSize int, flushInterval time.Duration, clock clockwork.Clock, logger *slog.Logger, metrics *observability.Metrics) *BatchSink {
	if batchSize <= 0 {
		batchSize = 1
	}
	return &BatchSink{
		name:          name,
		loader:        loader,
		batchSize:     batchSize,
		flushInterval: flushInterval,
		clock:         clock,
		logger:        logger,
		metrics:       metrics,
		pending:       make([]domain.Frame, 0, batchSize),
	}
}

func (b *BatchSink) Name() string { return b.name }

// Publish queues f and flushes when the batch is full or stale.
func (b *BatchSink) Publish(ctx context.Context, f domain.Frame) error {
	if len(b.pending) == 0 {
		b.oldest = b.clock.Now()
	}
	b.pending = append(b.pending, f)

	if len(b.pending) >= b.batchSize || b.clock.Since(b.oldest) >= b.flushInterval {
		return b.Flush(ctx)
	}
	return nil
}

// Pending reports the number of buffered frames.
func (b *BatchSink) Pending() int { return len(b.pending) }

// Flush delivers all buffered frames. The buffer is cleared whether or not
// the loader succeeds.
func (b *BatchSink) Flush(ctx context.Context) error {
	if len(b.pending) == 0 {
		return nil
	}
	batch := b.pending
	b.pending = make([]domain.Frame, 0, b.batchSize)

	if err := b.loader.LoadBatch(ctx, batch); err != nil {
		return fmt.Errorf("flush %d frames (seq %d-%d): %w", len(batch), batch[0].Seq, batch[len(batch)-1].Seq, err)
	}

	b.metrics.FramesFlushed.Add(float64(len(batch)))
	b.metrics.FlushBatchSize.Observe(float64(len(batch)))
	b.logger.Debug("frame batch flushed", "sink", b.name, "frames", len(batch))
	return nil
}
