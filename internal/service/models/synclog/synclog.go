package synclog

import (
	"time"

	"github.com/corebill/pos-sync-svc/internal/service/models/syncable"
	"github.com/google/uuid"
)

// Outcome is the recorded result of one processed push item.
type Outcome string

const (
	OutcomeSuccess  Outcome = "SUCCESS"
	OutcomeConflict Outcome = "CONFLICT"
	OutcomeFailed   Outcome = "FAILED"
)

func (o Outcome) String() string {
	return string(o)
}

// Record is one append-only audit entry, written once per processed push
// attempt. Records are never mutated or deleted, and they are never
// consulted to decide conflict outcomes; they exist for support tooling
// and for diagnosing devices that conflict repeatedly.
type Record struct {
	ID            uuid.UUID           `json:"id"`
	TenantID      uuid.UUID           `json:"tenantId"`
	DeviceID      string              `json:"deviceId"`
	EntityType    syncable.EntityType `json:"entityType"`
	EntityID      uuid.UUID           `json:"entityId"`
	Operation     syncable.Operation  `json:"operation"`
	Outcome       Outcome             `json:"outcome"`
	ClientVersion int64               `json:"clientVersion"`
	ServerVersion int64               `json:"serverVersion"`
	ErrorDetail   string              `json:"errorDetail,omitempty"`
	CreatedAt     time.Time           `json:"createdAt"`
}
