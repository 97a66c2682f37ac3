package relay

import (
	"context"
	"log/slog"
	"time"

	"github.com/corebill/pos-sync-svc/internal/dal/interfaces/isynclogrepo"
	"github.com/corebill/pos-sync-svc/internal/service/models/synclog"
	"github.com/google/uuid"
	"github.com/spf13/viper"
)

// publisher forwards a batch of change log records to the audit queue.
type publisher interface {
	PublishRecords(ctx context.Context, records []synclog.Record) error
}

// Worker streams the append-only change log out to RabbitMQ for support
// tooling. The log itself is never mutated: progress is tracked with an
// in-memory (created_at, id) cursor, so a restart replays recent records
// and delivery is at-least-once.
type Worker struct {
	syncLogRepo  isynclogrepo.ISyncLogRepository
	publisher    publisher
	pollInterval time.Duration
	batchSize    int
	cursorTime   time.Time
	cursorID     uuid.UUID
	stopCh       chan struct{}
}

// NewWorker creates a new relay worker. The cursor starts at the worker's
// launch time: the relay is an operational stream, not a backfill.
func NewWorker(
	syncLogRepo isynclogrepo.ISyncLogRepository,
	pub publisher,
) *Worker {
	pollIntervalSeconds := viper.GetInt("rabbitmq.relay.poll_interval_seconds")
	if pollIntervalSeconds == 0 {
		pollIntervalSeconds = 10
	}

	batchSize := viper.GetInt("rabbitmq.relay.batch_size")
	if batchSize == 0 {
		batchSize = 100
	}

	return &Worker{
		syncLogRepo:  syncLogRepo,
		publisher:    pub,
		pollInterval: time.Duration(pollIntervalSeconds) * time.Second,
		batchSize:    batchSize,
		cursorTime:   time.Now(),
		stopCh:       make(chan struct{}),
	}
}

// Start begins relaying change log records.
func (w *Worker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	slog.Info("Relay worker started", "poll_interval", w.pollInterval, "batch_size", w.batchSize)

	for {
		select {
		case <-ctx.Done():
			slog.Info("Relay worker shutting down")

			return
		case <-w.stopCh:
			slog.Info("Relay worker stopped")

			return
		case <-ticker.C:
			w.processRecords(ctx)
		}
	}
}

// Stop stops the worker.
func (w *Worker) Stop() {
	close(w.stopCh)
}

// processRecords reads the next slice of the log and publishes it. The
// cursor advances only after the whole batch published, so a failed
// publish re-submits the batch on the next tick.
func (w *Worker) processRecords(ctx context.Context) {
	records, err := w.syncLogRepo.ListAfter(ctx, w.cursorTime, w.cursorID, w.batchSize)
	if err != nil {
		slog.Error("Failed to list change log records for relay", "error", err)

		return
	}

	if len(records) == 0 {
		return
	}

	if err := w.publisher.PublishRecords(ctx, records); err != nil {
		slog.Warn("Failed to publish change log records, will retry",
			"count", len(records),
			"cursor", w.cursorTime,
			"error", err,
		)

		return
	}

	last := records[len(records)-1]
	w.cursorTime = last.CreatedAt
	w.cursorID = last.ID
	slog.Info("Relayed change log records", "count", len(records), "cursor", w.cursorTime)
}
