package pushsync

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/corebill/pos-sync-svc/internal/service/models/syncable"
	"github.com/corebill/pos-sync-svc/internal/service/models/syncitem"
	"github.com/corebill/pos-sync-svc/internal/tenant"
	"github.com/google/uuid"
)

// service is an interface for the service layer.
type service interface {
	Push(ctx context.Context, deviceID string, items []syncitem.Mutation) (*syncitem.PushResult, error)
}

type syncItemRequest struct {
	EntityType    string          `json:"entityType"`
	EntityID      uuid.UUID       `json:"entityId"`
	Operation     string          `json:"operation"`
	ClientVersion int64           `json:"clientVersion"`
	Payload       json.RawMessage `json:"payload"`
}

type syncRequest struct {
	DeviceID string            `json:"deviceId"`
	Data     []syncItemRequest `json:"data"`
}

type syncResponse struct {
	Success   bool                `json:"success"`
	Results   []syncitem.Outcome  `json:"results"`
	Conflicts []syncitem.Conflict `json:"conflicts"`
	Timestamp time.Time           `json:"timestamp"`
}

// PerformSync handles the push half of a device's sync cycle: a batch of
// buffered mutations applied item by item.
func PerformSync(w http.ResponseWriter, r *http.Request, service service) {
	var req syncRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Failed to decode request body", http.StatusBadRequest)
		slog.Error("Error decoding sync request body", "error", err)

		return
	}

	if req.DeviceID == "" {
		http.Error(w, "deviceId is required", http.StatusBadRequest)

		return
	}

	items := make([]syncitem.Mutation, len(req.Data))
	for i, item := range req.Data {
		// Enum validity is judged per item by the service so one bad item
		// cannot reject the whole batch.
		items[i] = syncitem.Mutation{
			EntityType:    syncable.EntityType(item.EntityType),
			EntityID:      item.EntityID,
			Operation:     syncable.Operation(item.Operation),
			ClientVersion: item.ClientVersion,
			Payload:       item.Payload,
		}
	}

	result, err := service.Push(r.Context(), req.DeviceID, items)
	if err != nil {
		if errors.Is(err, tenant.ErrUnauthenticated) {
			http.Error(w, err.Error(), http.StatusUnauthorized)

			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		slog.Error("Error performing sync push", "device_id", req.DeviceID, "error", err)

		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(syncResponse{
		Success:   result.Success(),
		Results:   result.Results,
		Conflicts: result.Conflicts,
		Timestamp: result.Timestamp,
	}); err != nil {
		slog.Error("Error writing sync response", "error", err)
	}
}
