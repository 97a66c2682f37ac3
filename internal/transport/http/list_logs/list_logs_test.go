package listlogs

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/corebill/pos-sync-svc/internal/service/models/syncable"
	"github.com/corebill/pos-sync-svc/internal/service/models/synclog"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeService struct {
	gotDeviceID string
	gotLimit    int
	records     []synclog.Record
	err         error
}

func (f *fakeService) QueryLogs(
	_ context.Context,
	deviceID string,
	limit int,
) ([]synclog.Record, error) {
	f.gotDeviceID = deviceID
	f.gotLimit = limit

	return f.records, f.err
}

func TestListLogs_OK(t *testing.T) {
	svc := &fakeService{records: []synclog.Record{{
		ID:         uuid.New(),
		TenantID:   uuid.New(),
		DeviceID:   "dev-a",
		EntityType: syncable.EntityTypeOrder,
		EntityID:   uuid.New(),
		Operation:  syncable.OperationCreate,
		Outcome:    synclog.OutcomeSuccess,
		CreatedAt:  time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}}}

	req := httptest.NewRequest(http.MethodGet, "/api/sync/logs?deviceId=dev-a&limit=25", nil)
	rec := httptest.NewRecorder()

	ListLogs(rec, req, svc)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "dev-a", svc.gotDeviceID)
	assert.Equal(t, 25, svc.gotLimit)

	var resp []struct {
		DeviceID string `json:"deviceId"`
		Outcome  string `json:"outcome"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp, 1)
	assert.Equal(t, "dev-a", resp[0].DeviceID)
	assert.Equal(t, "SUCCESS", resp[0].Outcome)
}

func TestListLogs_DefaultLimit(t *testing.T) {
	svc := &fakeService{}
	req := httptest.NewRequest(http.MethodGet, "/api/sync/logs", nil)
	rec := httptest.NewRecorder()

	ListLogs(rec, req, svc)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, svc.gotDeviceID)
	assert.Equal(t, defaultLimit, svc.gotLimit)
}

func TestListLogs_ServiceError(t *testing.T) {
	svc := &fakeService{err: errors.New("store down")}
	req := httptest.NewRequest(http.MethodGet, "/api/sync/logs", nil)
	rec := httptest.NewRecorder()

	ListLogs(rec, req, svc)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
