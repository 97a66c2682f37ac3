package change

import (
	"encoding/json"
	"time"

	"github.com/corebill/pos-sync-svc/internal/service/models/syncable"
	"github.com/google/uuid"
)

// Change is one delta-pull result item: a transient projection of an
// entity changed by another device since the caller's last sync. It is
// built fresh on every pull and never persisted. Tombstones surface as
// OperationDelete; creates are not distinguished from updates, a device
// that has never seen the entity treats the update as an implicit create.
type Change struct {
	EntityType syncable.EntityType `json:"entityType"`
	EntityID   uuid.UUID           `json:"entityId"`
	Operation  syncable.Operation  `json:"operation"`
	Version    int64               `json:"version"`
	UpdatedAt  time.Time           `json:"timestamp"`
	Payload    json.RawMessage     `json:"payload"`
}

// DeltaResult is the response of one delta pull. AsOf is the cursor the
// device must pass as `since` on its next pull once it has drained all
// pages; HasMore tells it to re-pull immediately because the result was
// truncated by the page limit.
type DeltaResult struct {
	Changes []Change  `json:"changes"`
	AsOf    time.Time `json:"timestamp"`
	HasMore bool      `json:"hasMore"`
}
