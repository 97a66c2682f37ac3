package deltasync

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/corebill/pos-sync-svc/internal/service/models/change"
	"github.com/corebill/pos-sync-svc/internal/service/models/syncable"
	"github.com/corebill/pos-sync-svc/internal/tenant"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeService struct {
	gotDeviceID string
	gotSince    time.Time
	result      *change.DeltaResult
	err         error
}

func (f *fakeService) Pull(
	_ context.Context,
	deviceID string,
	since time.Time,
) (*change.DeltaResult, error) {
	f.gotDeviceID = deviceID
	f.gotSince = since

	return f.result, f.err
}

func TestDeltaSync_OK(t *testing.T) {
	asOf := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	svc := &fakeService{result: &change.DeltaResult{
		Changes: []change.Change{{
			EntityType: syncable.EntityTypeOrder,
			EntityID:   uuid.New(),
			Operation:  syncable.OperationUpdate,
			Version:    3,
			UpdatedAt:  asOf.Add(-time.Minute),
		}},
		AsOf: asOf,
	}}

	req := httptest.NewRequest(http.MethodGet,
		"/api/sync/delta?deviceId=dev-a&lastSyncTime=2025-06-01T11:00:00Z", nil)
	rec := httptest.NewRecorder()

	DeltaSync(rec, req, svc)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "dev-a", svc.gotDeviceID)
	assert.Equal(t, time.Date(2025, 6, 1, 11, 0, 0, 0, time.UTC), svc.gotSince)

	var resp struct {
		Changes []struct {
			Operation string `json:"operation"`
		} `json:"changes"`
		Timestamp time.Time `json:"timestamp"`
		HasMore   bool      `json:"hasMore"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Changes, 1)
	assert.Equal(t, "UPDATE", resp.Changes[0].Operation)
	assert.True(t, asOf.Equal(resp.Timestamp))
	assert.False(t, resp.HasMore)
}

func TestDeltaSync_MissingParams(t *testing.T) {
	tests := []struct {
		name  string
		query string
	}{
		{name: "no device id", query: "?lastSyncTime=2025-06-01T11:00:00Z"},
		{name: "no last sync time", query: "?deviceId=dev-a"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/sync/delta"+tt.query, nil)
			rec := httptest.NewRecorder()

			DeltaSync(rec, req, &fakeService{})

			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestDeltaSync_BadTimestamp(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet,
		"/api/sync/delta?deviceId=dev-a&lastSyncTime=yesterday", nil)
	rec := httptest.NewRecorder()

	DeltaSync(rec, req, &fakeService{})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDeltaSync_Unauthenticated(t *testing.T) {
	svc := &fakeService{err: tenant.ErrUnauthenticated}
	req := httptest.NewRequest(http.MethodGet,
		"/api/sync/delta?deviceId=dev-a&lastSyncTime=2025-06-01T11:00:00Z", nil)
	rec := httptest.NewRecorder()

	DeltaSync(rec, req, svc)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
