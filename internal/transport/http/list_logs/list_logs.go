package listlogs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/corebill/pos-sync-svc/internal/service/models/synclog"
	"github.com/corebill/pos-sync-svc/internal/tenant"
	"github.com/gorilla/schema"
)

const defaultLimit = 100

// service is an interface for the service layer.
type service interface {
	QueryLogs(ctx context.Context, deviceID string, limit int) ([]synclog.Record, error)
}

type listLogsRequest struct {
	DeviceID string `schema:"deviceId,omitempty"`
	Limit    int    `schema:"limit,omitempty"`
}

// ListLogs returns the tenant's recent change log records for support
// tooling.
func ListLogs(w http.ResponseWriter, r *http.Request, service service) {
	decoder := schema.NewDecoder()
	query := &listLogsRequest{}
	if err := decoder.Decode(query, r.URL.Query()); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		slog.Error("Error decoding list logs query", "error", err)

		return
	}

	if query.Limit <= 0 {
		query.Limit = defaultLimit
	}

	records, err := service.QueryLogs(r.Context(), query.DeviceID, query.Limit)
	if err != nil {
		if errors.Is(err, tenant.ErrUnauthenticated) {
			http.Error(w, err.Error(), http.StatusUnauthorized)

			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		slog.Error("Error querying sync logs", "error", err)

		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(records); err != nil {
		slog.Error("Error writing sync logs response", "error", err)
	}
}
