package deltasync

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/corebill/pos-sync-svc/internal/service/models/change"
	"github.com/corebill/pos-sync-svc/internal/tenant"
	"github.com/gorilla/schema"
)

// service is an interface for the service layer.
type service interface {
	Pull(ctx context.Context, deviceID string, since time.Time) (*change.DeltaResult, error)
}

type deltaQueryRequest struct {
	LastSyncTime string `schema:"lastSyncTime,required"`
	DeviceID     string `schema:"deviceId,required"`
}

// DeltaSync handles the pull half of a device's sync cycle: everything
// changed by other devices since the caller's last successful sync.
func DeltaSync(w http.ResponseWriter, r *http.Request, service service) {
	decoder := schema.NewDecoder()
	query := &deltaQueryRequest{}
	if err := decoder.Decode(query, r.URL.Query()); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		slog.Error("Error decoding delta sync query", "error", err)

		return
	}

	since, err := time.Parse(time.RFC3339, query.LastSyncTime)
	if err != nil {
		http.Error(w, "lastSyncTime must be an RFC 3339 timestamp", http.StatusBadRequest)

		return
	}

	result, err := service.Pull(r.Context(), query.DeviceID, since)
	if err != nil {
		if errors.Is(err, tenant.ErrUnauthenticated) {
			http.Error(w, err.Error(), http.StatusUnauthorized)

			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		slog.Error("Error performing delta sync", "device_id", query.DeviceID, "error", err)

		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(result); err != nil {
		slog.Error("Error writing delta sync response", "error", err)
	}
}
