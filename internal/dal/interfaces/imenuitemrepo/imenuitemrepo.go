package imenuitemrepo

import (
	"context"
	"time"

	"github.com/corebill/pos-sync-svc/internal/service/models/menuitem"
	"github.com/google/uuid"
)

// IMenuItemRepository is the versioned store for menu items. Same contract
// as the order repository: idempotent create, version-fenced updates, and
// a soft delta limit that never cuts a shared-timestamp group.
type IMenuItemRepository interface {
	Insert(ctx context.Context, m *menuitem.MenuItem) (int64, error)

	UpdateVersioned(
		ctx context.Context,
		tenantID uuid.UUID,
		id uuid.UUID,
		deviceID string,
		clientVersion int64,
		payload menuitem.Payload,
		now time.Time,
	) (int64, error)

	DeleteVersioned(
		ctx context.Context,
		tenantID uuid.UUID,
		id uuid.UUID,
		deviceID string,
		clientVersion int64,
		now time.Time,
	) (int64, error)

	FindDeltaChanges(
		ctx context.Context,
		tenantID uuid.UUID,
		since time.Time,
		excludeDeviceID string,
		limit int,
	) ([]menuitem.MenuItem, error)
}
