package iorderrepo

import (
	"context"
	"time"

	"github.com/corebill/pos-sync-svc/internal/service/models/order"
	"github.com/google/uuid"
)

// IOrderRepository is the versioned store for orders. Insert is an
// idempotent create; UpdateVersioned and DeleteVersioned are atomic
// check-and-increment writes fenced on the caller's base version.
type IOrderRepository interface {
	// Insert creates the order at version 1. If the row already exists the
	// insert is a no-op and the stored version is returned.
	Insert(ctx context.Context, o *order.Order) (int64, error)

	// UpdateVersioned applies the payload if clientVersion >= stored version,
	// bumping the version by one. Returns syncable.ErrNotFound or
	// syncable.ErrStaleVersion otherwise.
	UpdateVersioned(
		ctx context.Context,
		tenantID uuid.UUID,
		id uuid.UUID,
		deviceID string,
		clientVersion int64,
		payload order.Payload,
		now time.Time,
	) (int64, error)

	// DeleteVersioned marks the order as a tombstone under the same fencing
	// rules as UpdateVersioned.
	DeleteVersioned(
		ctx context.Context,
		tenantID uuid.UUID,
		id uuid.UUID,
		deviceID string,
		clientVersion int64,
		now time.Time,
	) (int64, error)

	// FindDeltaChanges returns orders of the tenant updated after `since` by
	// devices other than excludeDeviceID, oldest first. The limit is soft:
	// the result never stops partway through a group of rows sharing one
	// updated_at, so the final timestamp is always a complete group and can
	// serve as a pull cursor.
	FindDeltaChanges(
		ctx context.Context,
		tenantID uuid.UUID,
		since time.Time,
		excludeDeviceID string,
		limit int,
	) ([]order.Order, error)
}
