package isynclogrepo

import (
	"context"
	"time"

	"github.com/corebill/pos-sync-svc/internal/service/models/synclog"
	"github.com/google/uuid"
)

// ISyncLogRepository defines the append-only change log operations.
type ISyncLogRepository interface {
	// Insert appends one record. Records are write-once: there is no update
	// or delete.
	Insert(ctx context.Context, rec synclog.Record) error

	// Query returns the tenant's most recent records, optionally narrowed to
	// one device, newest first.
	Query(
		ctx context.Context,
		tenantID uuid.UUID,
		deviceID string,
		limit int,
	) ([]synclog.Record, error)

	// ListAfter returns records whose (created_at, id) is strictly after
	// the cursor, oldest first. The composite cursor lets the relay worker
	// resume inside a group of records sharing one created_at.
	ListAfter(
		ctx context.Context,
		after time.Time,
		afterID uuid.UUID,
		limit int,
	) ([]synclog.Record, error)
}
