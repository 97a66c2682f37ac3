package syncitem

import (
	"encoding/json"
	"time"

	"github.com/corebill/pos-sync-svc/internal/service/models/syncable"
	"github.com/google/uuid"
)

// Mutation is one buffered client-side edit uploaded by a device.
// ClientVersion is the version the device believes the entity is at;
// it is zero for creates.
type Mutation struct {
	EntityType    syncable.EntityType `json:"entityType"`
	EntityID      uuid.UUID           `json:"entityId"`
	Operation     syncable.Operation  `json:"operation"`
	ClientVersion int64               `json:"clientVersion"`
	Payload       json.RawMessage     `json:"payload"`
}

// OutcomeStatus classifies the result of applying one mutation.
type OutcomeStatus string

const (
	StatusSuccess  OutcomeStatus = "SUCCESS"
	StatusConflict OutcomeStatus = "CONFLICT"
	StatusFailed   OutcomeStatus = "FAILED"
)

func (s OutcomeStatus) String() string {
	return string(s)
}

// Outcome is the per-item result of a push. Conflicts and validation
// failures are ordinary data here, not errors: one item's outcome never
// aborts the rest of the batch.
type Outcome struct {
	EntityID      uuid.UUID           `json:"entityId"`
	EntityType    syncable.EntityType `json:"entityType"`
	Status        OutcomeStatus       `json:"status"`
	ServerVersion int64               `json:"serverVersion"`
	Reason        string              `json:"reason,omitempty"`
}

// Conflict describes a mutation the server refused because the device's
// view is behind or the entity is gone. The device resolves it after a
// fresh pull.
type Conflict struct {
	EntityID   uuid.UUID           `json:"entityId"`
	EntityType syncable.EntityType `json:"entityType"`
	Reason     string              `json:"reason"`
}

// PushResult is the aggregate outcome of one push batch.
type PushResult struct {
	Results   []Outcome  `json:"results"`
	Conflicts []Conflict `json:"conflicts"`
	Timestamp time.Time  `json:"timestamp"`
}

// Success reports whether the whole batch applied without conflicts.
func (r *PushResult) Success() bool {
	return len(r.Conflicts) == 0
}
