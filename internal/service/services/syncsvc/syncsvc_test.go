package syncsvc

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/corebill/pos-sync-svc/internal/service/models/menuitem"
	"github.com/corebill/pos-sync-svc/internal/service/models/order"
	"github.com/corebill/pos-sync-svc/internal/service/models/syncable"
	"github.com/corebill/pos-sync-svc/internal/service/models/syncitem"
	"github.com/corebill/pos-sync-svc/internal/service/models/synclog"
	"github.com/corebill/pos-sync-svc/internal/tenant"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeOrderRepo is an in-memory versioned order store with the same
// fencing semantics as the Postgres repository.
type fakeOrderRepo struct {
	mu      sync.Mutex
	rows    map[uuid.UUID]*order.Order
	failAll bool
}

func newFakeOrderRepo() *fakeOrderRepo {
	return &fakeOrderRepo{rows: make(map[uuid.UUID]*order.Order)}
}

var errStoreDown = errors.New("store unavailable")

func (f *fakeOrderRepo) Insert(_ context.Context, o *order.Order) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.failAll {
		return 0, errStoreDown
	}

	if existing, ok := f.rows[o.ID]; ok {
		return existing.Version, nil
	}

	cp := *o
	cp.Version = 1
	f.rows[o.ID] = &cp

	return 1, nil
}

func (f *fakeOrderRepo) UpdateVersioned(
	_ context.Context,
	tenantID uuid.UUID,
	id uuid.UUID,
	deviceID string,
	clientVersion int64,
	payload order.Payload,
	now time.Time,
) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.failAll {
		return 0, errStoreDown
	}

	row, ok := f.rows[id]
	if !ok || row.TenantID != tenantID {
		return 0, syncable.ErrNotFound
	}
	if row.Version > clientVersion {
		return 0, syncable.ErrStaleVersion
	}

	row.ApplyPayload(payload)
	row.Version++
	row.OriginDeviceID = deviceID
	row.UpdatedAt = now

	return row.Version, nil
}

func (f *fakeOrderRepo) DeleteVersioned(
	_ context.Context,
	tenantID uuid.UUID,
	id uuid.UUID,
	deviceID string,
	clientVersion int64,
	now time.Time,
) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.failAll {
		return 0, errStoreDown
	}

	row, ok := f.rows[id]
	if !ok || row.TenantID != tenantID {
		return 0, syncable.ErrNotFound
	}
	if row.Version > clientVersion {
		return 0, syncable.ErrStaleVersion
	}

	row.IsDeleted = true
	row.Version++
	row.OriginDeviceID = deviceID
	row.UpdatedAt = now

	return row.Version, nil
}

func (f *fakeOrderRepo) FindDeltaChanges(
	_ context.Context,
	tenantID uuid.UUID,
	since time.Time,
	excludeDeviceID string,
	limit int,
) ([]order.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.failAll {
		return nil, errStoreDown
	}

	var result []order.Order
	for _, row := range f.rows {
		if row.TenantID != tenantID {
			continue
		}
		if !row.UpdatedAt.After(since) {
			continue
		}
		if row.OriginDeviceID == excludeDeviceID {
			continue
		}
		result = append(result, *row)
	}

	// Same contract as the Postgres repository: oldest first, and the
	// limit never cuts a shared-timestamp group.
	sort.Slice(result, func(i, j int) bool {
		if result[i].UpdatedAt.Equal(result[j].UpdatedAt) {
			return result[i].ID.String() < result[j].ID.String()
		}

		return result[i].UpdatedAt.Before(result[j].UpdatedAt)
	})
	if len(result) > limit {
		cut := limit
		for cut < len(result) && result[cut].UpdatedAt.Equal(result[limit-1].UpdatedAt) {
			cut++
		}
		result = result[:cut]
	}

	return result, nil
}

type fakeMenuItemRepo struct {
	mu   sync.Mutex
	rows map[uuid.UUID]*menuitem.MenuItem
}

func newFakeMenuItemRepo() *fakeMenuItemRepo {
	return &fakeMenuItemRepo{rows: make(map[uuid.UUID]*menuitem.MenuItem)}
}

func (f *fakeMenuItemRepo) Insert(_ context.Context, m *menuitem.MenuItem) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if existing, ok := f.rows[m.ID]; ok {
		return existing.Version, nil
	}

	cp := *m
	cp.Version = 1
	f.rows[m.ID] = &cp

	return 1, nil
}

func (f *fakeMenuItemRepo) UpdateVersioned(
	_ context.Context,
	tenantID uuid.UUID,
	id uuid.UUID,
	deviceID string,
	clientVersion int64,
	payload menuitem.Payload,
	now time.Time,
) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	row, ok := f.rows[id]
	if !ok || row.TenantID != tenantID {
		return 0, syncable.ErrNotFound
	}
	if row.Version > clientVersion {
		return 0, syncable.ErrStaleVersion
	}

	row.ApplyPayload(payload)
	row.Version++
	row.OriginDeviceID = deviceID
	row.UpdatedAt = now

	return row.Version, nil
}

func (f *fakeMenuItemRepo) DeleteVersioned(
	_ context.Context,
	tenantID uuid.UUID,
	id uuid.UUID,
	deviceID string,
	clientVersion int64,
	now time.Time,
) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	row, ok := f.rows[id]
	if !ok || row.TenantID != tenantID {
		return 0, syncable.ErrNotFound
	}
	if row.Version > clientVersion {
		return 0, syncable.ErrStaleVersion
	}

	row.IsDeleted = true
	row.Version++
	row.OriginDeviceID = deviceID
	row.UpdatedAt = now

	return row.Version, nil
}

func (f *fakeMenuItemRepo) FindDeltaChanges(
	_ context.Context,
	tenantID uuid.UUID,
	since time.Time,
	excludeDeviceID string,
	limit int,
) ([]menuitem.MenuItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var result []menuitem.MenuItem
	for _, row := range f.rows {
		if row.TenantID != tenantID || !row.UpdatedAt.After(since) ||
			row.OriginDeviceID == excludeDeviceID {
			continue
		}
		result = append(result, *row)
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].UpdatedAt.Equal(result[j].UpdatedAt) {
			return result[i].ID.String() < result[j].ID.String()
		}

		return result[i].UpdatedAt.Before(result[j].UpdatedAt)
	})
	if len(result) > limit {
		cut := limit
		for cut < len(result) && result[cut].UpdatedAt.Equal(result[limit-1].UpdatedAt) {
			cut++
		}
		result = result[:cut]
	}

	return result, nil
}

type fakeSyncLogRepo struct {
	mu      sync.Mutex
	records []synclog.Record
	failAll bool
}

func (f *fakeSyncLogRepo) Insert(_ context.Context, rec synclog.Record) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.failAll {
		return errStoreDown
	}

	f.records = append(f.records, rec)

	return nil
}

func (f *fakeSyncLogRepo) Query(
	_ context.Context,
	tenantID uuid.UUID,
	deviceID string,
	limit int,
) ([]synclog.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var result []synclog.Record
	for i := len(f.records) - 1; i >= 0 && len(result) < limit; i-- {
		rec := f.records[i]
		if rec.TenantID != tenantID {
			continue
		}
		if deviceID != "" && rec.DeviceID != deviceID {
			continue
		}
		result = append(result, rec)
	}

	return result, nil
}

func (f *fakeSyncLogRepo) ListAfter(
	_ context.Context,
	after time.Time,
	afterID uuid.UUID,
	limit int,
) ([]synclog.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var result []synclog.Record
	for _, rec := range f.records {
		if len(result) >= limit {
			break
		}
		if rec.CreatedAt.After(after) ||
			(rec.CreatedAt.Equal(after) && rec.ID.String() > afterID.String()) {
			result = append(result, rec)
		}
	}

	return result, nil
}

func (f *fakeSyncLogRepo) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return len(f.records)
}

type fixture struct {
	svc      *SyncService
	orders   *fakeOrderRepo
	items    *fakeMenuItemRepo
	logs     *fakeSyncLogRepo
	tenantID uuid.UUID
	clock    *fakeClock
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Microsecond)

	return c.now
}

func newFixture(t *testing.T, opts ...option) *fixture {
	t.Helper()

	orders := newFakeOrderRepo()
	items := newFakeMenuItemRepo()
	logs := &fakeSyncLogRepo{}
	clock := &fakeClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}

	all := append([]option{
		WithOrderRepository(orders),
		WithMenuItemRepository(items),
		WithSyncLogRepository(logs),
		WithClock(clock.Now),
	}, opts...)

	return &fixture{
		svc:      MustNewSyncService(all...),
		orders:   orders,
		items:    items,
		logs:     logs,
		tenantID: uuid.New(),
		clock:    clock,
	}
}

func (fx *fixture) ctx() context.Context {
	return tenant.WithTenant(context.Background(), fx.tenantID)
}

func orderPayload(t *testing.T) json.RawMessage {
	t.Helper()

	raw, err := json.Marshal(order.Payload{
		OrderNumber: "ORD-100",
		Status:      order.StatusPending,
		Type:        order.TypeDineIn,
		TotalCents:  2500,
	})
	require.NoError(t, err)

	return raw
}

func createOrderMutation(t *testing.T, id uuid.UUID) syncitem.Mutation {
	t.Helper()

	return syncitem.Mutation{
		EntityType: syncable.EntityTypeOrder,
		EntityID:   id,
		Operation:  syncable.OperationCreate,
		Payload:    orderPayload(t),
	}
}

func updateOrderMutation(t *testing.T, id uuid.UUID, clientVersion int64) syncitem.Mutation {
	t.Helper()

	return syncitem.Mutation{
		EntityType:    syncable.EntityTypeOrder,
		EntityID:      id,
		Operation:     syncable.OperationUpdate,
		ClientVersion: clientVersion,
		Payload:       orderPayload(t),
	}
}

func TestPush_Unauthenticated(t *testing.T) {
	fx := newFixture(t)

	_, err := fx.svc.Push(context.Background(), "dev-a", nil)
	assert.ErrorIs(t, err, tenant.ErrUnauthenticated)
}

func TestPush_CreateStartsAtVersionOne(t *testing.T) {
	fx := newFixture(t)
	id := uuid.New()

	res, err := fx.svc.Push(fx.ctx(), "dev-a", []syncitem.Mutation{createOrderMutation(t, id)})
	require.NoError(t, err)

	require.Len(t, res.Results, 1)
	assert.Equal(t, syncitem.StatusSuccess, res.Results[0].Status)
	assert.Equal(t, int64(1), res.Results[0].ServerVersion)
	assert.True(t, res.Success())
}

func TestPush_IdempotentCreateReplay(t *testing.T) {
	fx := newFixture(t)
	id := uuid.New()
	m := createOrderMutation(t, id)

	res1, err := fx.svc.Push(fx.ctx(), "dev-a", []syncitem.Mutation{m})
	require.NoError(t, err)
	res2, err := fx.svc.Push(fx.ctx(), "dev-a", []syncitem.Mutation{m})
	require.NoError(t, err)

	assert.Equal(t, syncitem.StatusSuccess, res1.Results[0].Status)
	assert.Equal(t, syncitem.StatusSuccess, res2.Results[0].Status)
	assert.Equal(t, int64(1), res2.Results[0].ServerVersion)
	assert.Len(t, fx.orders.rows, 1)
}

func TestPush_VersionMonotonicity(t *testing.T) {
	fx := newFixture(t)
	id := uuid.New()

	_, err := fx.svc.Push(fx.ctx(), "dev-a", []syncitem.Mutation{createOrderMutation(t, id)})
	require.NoError(t, err)

	for want := int64(2); want <= 5; want++ {
		res, err := fx.svc.Push(fx.ctx(), "dev-a", []syncitem.Mutation{
			updateOrderMutation(t, id, want-1),
		})
		require.NoError(t, err)
		require.Equal(t, syncitem.StatusSuccess, res.Results[0].Status)
		assert.Equal(t, want, res.Results[0].ServerVersion)
	}
}

func TestPush_StaleWriteRejectedAndStoreUnchanged(t *testing.T) {
	fx := newFixture(t)
	id := uuid.New()

	_, err := fx.svc.Push(fx.ctx(), "dev-a", []syncitem.Mutation{createOrderMutation(t, id)})
	require.NoError(t, err)
	_, err = fx.svc.Push(fx.ctx(), "dev-b", []syncitem.Mutation{updateOrderMutation(t, id, 1)})
	require.NoError(t, err)

	before := *fx.orders.rows[id]

	res, err := fx.svc.Push(fx.ctx(), "dev-a", []syncitem.Mutation{updateOrderMutation(t, id, 1)})
	require.NoError(t, err)

	require.Len(t, res.Conflicts, 1)
	assert.Equal(t, "stale version", res.Conflicts[0].Reason)
	assert.False(t, res.Success())
	assert.Equal(t, before, *fx.orders.rows[id])
}

func TestPush_EqualVersionAccepted(t *testing.T) {
	fx := newFixture(t)
	id := uuid.New()

	_, err := fx.svc.Push(fx.ctx(), "dev-a", []syncitem.Mutation{createOrderMutation(t, id)})
	require.NoError(t, err)

	res, err := fx.svc.Push(fx.ctx(), "dev-a", []syncitem.Mutation{updateOrderMutation(t, id, 1)})
	require.NoError(t, err)

	require.Empty(t, res.Conflicts)
	assert.Equal(t, int64(2), res.Results[0].ServerVersion)
}

func TestPush_UpdateMissingEntityIsConflict(t *testing.T) {
	fx := newFixture(t)

	res, err := fx.svc.Push(fx.ctx(), "dev-a", []syncitem.Mutation{
		updateOrderMutation(t, uuid.New(), 1),
	})
	require.NoError(t, err)

	require.Len(t, res.Conflicts, 1)
	assert.Equal(t, "not found", res.Conflicts[0].Reason)
}

func TestPush_UnknownEntityTypeFailsOnlyThatItem(t *testing.T) {
	fx := newFixture(t)
	good := createOrderMutation(t, uuid.New())
	bad := syncitem.Mutation{
		EntityType: syncable.EntityType("RESERVATION"),
		EntityID:   uuid.New(),
		Operation:  syncable.OperationCreate,
		Payload:    json.RawMessage(`{}`),
	}

	res, err := fx.svc.Push(fx.ctx(), "dev-a", []syncitem.Mutation{bad, good})
	require.NoError(t, err)

	require.Len(t, res.Results, 2)
	assert.Equal(t, syncitem.StatusFailed, res.Results[0].Status)
	assert.Equal(t, syncitem.StatusSuccess, res.Results[1].Status)
}

func TestPush_MalformedPayloadFailsOnlyThatItem(t *testing.T) {
	fx := newFixture(t)
	bad := syncitem.Mutation{
		EntityType: syncable.EntityTypeOrder,
		EntityID:   uuid.New(),
		Operation:  syncable.OperationCreate,
		Payload:    json.RawMessage(`{"status": 7}`),
	}
	good := createOrderMutation(t, uuid.New())

	res, err := fx.svc.Push(fx.ctx(), "dev-a", []syncitem.Mutation{bad, good})
	require.NoError(t, err)

	require.Len(t, res.Results, 2)
	assert.Equal(t, syncitem.StatusFailed, res.Results[0].Status)
	assert.Equal(t, syncitem.StatusSuccess, res.Results[1].Status)
}

func TestPush_InfrastructureFailureAbortsRemainingBatch(t *testing.T) {
	fx := newFixture(t)
	first := createOrderMutation(t, uuid.New())
	second := createOrderMutation(t, uuid.New())

	// First item commits, then the store goes down.
	res, err := fx.svc.Push(fx.ctx(), "dev-a", []syncitem.Mutation{first})
	require.NoError(t, err)
	require.Len(t, res.Results, 1)

	fx.orders.failAll = true

	res, err = fx.svc.Push(fx.ctx(), "dev-a", []syncitem.Mutation{second, createOrderMutation(t, uuid.New())})
	require.ErrorIs(t, err, errStoreDown)
	assert.Empty(t, res.Results)
	assert.Len(t, fx.orders.rows, 1)
}

func TestPush_AppendsOneLogRecordPerItem(t *testing.T) {
	fx := newFixture(t)
	id := uuid.New()

	_, err := fx.svc.Push(fx.ctx(), "dev-a", []syncitem.Mutation{
		createOrderMutation(t, id),
		updateOrderMutation(t, id, 1),
		updateOrderMutation(t, uuid.New(), 3),
	})
	require.NoError(t, err)

	assert.Equal(t, 3, fx.logs.count())
}

func TestPush_LogFailureIsSwallowed(t *testing.T) {
	fx := newFixture(t)
	fx.logs.failAll = true

	res, err := fx.svc.Push(fx.ctx(), "dev-a", []syncitem.Mutation{
		createOrderMutation(t, uuid.New()),
	})
	require.NoError(t, err)
	assert.Equal(t, syncitem.StatusSuccess, res.Results[0].Status)
}

func TestPush_MenuItemLifecycle(t *testing.T) {
	fx := newFixture(t)
	id := uuid.New()
	payload, err := json.Marshal(menuitem.Payload{Name: "Paneer Tikka", PriceCents: 45000, IsAvailable: true})
	require.NoError(t, err)

	res, err := fx.svc.Push(fx.ctx(), "dev-a", []syncitem.Mutation{
		{EntityType: syncable.EntityTypeMenuItem, EntityID: id, Operation: syncable.OperationCreate, Payload: payload},
		{EntityType: syncable.EntityTypeMenuItem, EntityID: id, Operation: syncable.OperationUpdate, ClientVersion: 1, Payload: payload},
		{EntityType: syncable.EntityTypeMenuItem, EntityID: id, Operation: syncable.OperationDelete, ClientVersion: 2},
	})
	require.NoError(t, err)

	require.Len(t, res.Results, 3)
	for _, outcome := range res.Results {
		assert.Equal(t, syncitem.StatusSuccess, outcome.Status)
	}
	assert.Equal(t, int64(3), res.Results[2].ServerVersion)
	assert.True(t, fx.items.rows[id].IsDeleted)
}

func TestPull_SelfExclusion(t *testing.T) {
	fx := newFixture(t)
	since := fx.clock.now

	_, err := fx.svc.Push(fx.ctx(), "dev-a", []syncitem.Mutation{createOrderMutation(t, uuid.New())})
	require.NoError(t, err)
	_, err = fx.svc.Push(fx.ctx(), "dev-b", []syncitem.Mutation{createOrderMutation(t, uuid.New())})
	require.NoError(t, err)

	res, err := fx.svc.Pull(fx.ctx(), "dev-a", since)
	require.NoError(t, err)

	require.Len(t, res.Changes, 1)
	for _, c := range res.Changes {
		row := fx.orders.rows[c.EntityID]
		assert.NotEqual(t, "dev-a", row.OriginDeviceID)
	}
}

func TestPull_TombstonePropagation(t *testing.T) {
	fx := newFixture(t)
	since := fx.clock.now
	id := uuid.New()

	_, err := fx.svc.Push(fx.ctx(), "dev-a", []syncitem.Mutation{createOrderMutation(t, id)})
	require.NoError(t, err)
	_, err = fx.svc.Push(fx.ctx(), "dev-a", []syncitem.Mutation{{
		EntityType:    syncable.EntityTypeOrder,
		EntityID:      id,
		Operation:     syncable.OperationDelete,
		ClientVersion: 1,
	}})
	require.NoError(t, err)

	res, err := fx.svc.Pull(fx.ctx(), "dev-b", since)
	require.NoError(t, err)

	require.Len(t, res.Changes, 1)
	assert.Equal(t, syncable.OperationDelete, res.Changes[0].Operation)
	assert.Equal(t, int64(2), res.Changes[0].Version)
}

func TestPull_CreateSurfacesAsUpdate(t *testing.T) {
	fx := newFixture(t)
	since := fx.clock.now

	_, err := fx.svc.Push(fx.ctx(), "dev-a", []syncitem.Mutation{createOrderMutation(t, uuid.New())})
	require.NoError(t, err)

	res, err := fx.svc.Pull(fx.ctx(), "dev-b", since)
	require.NoError(t, err)

	require.Len(t, res.Changes, 1)
	assert.Equal(t, syncable.OperationUpdate, res.Changes[0].Operation)

	var payload order.Payload
	require.NoError(t, json.Unmarshal(res.Changes[0].Payload, &payload))
	assert.Equal(t, "ORD-100", payload.OrderNumber)
}

func TestPull_NoRedeliveryAfterAsOf(t *testing.T) {
	fx := newFixture(t)
	since := fx.clock.now

	_, err := fx.svc.Push(fx.ctx(), "dev-a", []syncitem.Mutation{createOrderMutation(t, uuid.New())})
	require.NoError(t, err)

	first, err := fx.svc.Pull(fx.ctx(), "dev-b", since)
	require.NoError(t, err)
	require.Len(t, first.Changes, 1)

	second, err := fx.svc.Pull(fx.ctx(), "dev-b", first.AsOf)
	require.NoError(t, err)
	assert.Empty(t, second.Changes)
}

func TestPull_PaginationIsLossFree(t *testing.T) {
	fx := newFixture(t, WithPullPageSize(3))
	since := fx.clock.now

	ids := make(map[uuid.UUID]struct{})
	for i := 0; i < 10; i++ {
		id := uuid.New()
		ids[id] = struct{}{}
		_, err := fx.svc.Push(fx.ctx(), "dev-a", []syncitem.Mutation{createOrderMutation(t, id)})
		require.NoError(t, err)
	}

	seen := make(map[uuid.UUID]struct{})
	cursor := since
	for i := 0; i < 10; i++ {
		res, err := fx.svc.Pull(fx.ctx(), "dev-b", cursor)
		require.NoError(t, err)
		for _, c := range res.Changes {
			seen[c.EntityID] = struct{}{}
		}
		if !res.HasMore {
			break
		}
		cursor = res.AsOf
	}

	assert.Equal(t, ids, seen)
}

func TestPull_PaginationSurvivesTimestampTies(t *testing.T) {
	fx := newFixture(t, WithPullPageSize(2))
	since := fx.clock.now

	// Five orders written at one instant: the tie group is wider than both
	// the page and the fetch limit.
	stamp := since.Add(time.Second)
	ids := make(map[uuid.UUID]struct{})
	for i := 0; i < 5; i++ {
		id := uuid.New()
		ids[id] = struct{}{}
		fx.orders.rows[id] = &order.Order{
			ID:             id,
			TenantID:       fx.tenantID,
			OrderNumber:    "ORD-100",
			Status:         order.StatusPending,
			Type:           order.TypeDineIn,
			Version:        1,
			OriginDeviceID: "dev-a",
			CreatedAt:      stamp,
			UpdatedAt:      stamp,
		}
	}

	seen := make(map[uuid.UUID]struct{})
	cursor := since
	for i := 0; i < 10; i++ {
		res, err := fx.svc.Pull(fx.ctx(), "dev-b", cursor)
		require.NoError(t, err)
		for _, c := range res.Changes {
			seen[c.EntityID] = struct{}{}
		}
		if !res.HasMore {
			break
		}
		cursor = res.AsOf
	}

	assert.Equal(t, ids, seen)
}

func TestPull_ConcurrentPushesOnlyOneWins(t *testing.T) {
	fx := newFixture(t)
	id := uuid.New()

	_, err := fx.svc.Push(fx.ctx(), "dev-a", []syncitem.Mutation{createOrderMutation(t, id)})
	require.NoError(t, err)

	// Scenario from the sync contract: B updates from base 1, then A,
	// still holding base 1, loses.
	resB, err := fx.svc.Push(fx.ctx(), "dev-b", []syncitem.Mutation{updateOrderMutation(t, id, 1)})
	require.NoError(t, err)
	require.True(t, resB.Success())

	resA, err := fx.svc.Push(fx.ctx(), "dev-a", []syncitem.Mutation{updateOrderMutation(t, id, 1)})
	require.NoError(t, err)

	require.Len(t, resA.Conflicts, 1)
	assert.Equal(t, "stale version", resA.Conflicts[0].Reason)
	assert.Equal(t, int64(2), fx.orders.rows[id].Version)
}

func TestPull_TenantIsolation(t *testing.T) {
	fx := newFixture(t)
	since := fx.clock.now

	_, err := fx.svc.Push(fx.ctx(), "dev-a", []syncitem.Mutation{createOrderMutation(t, uuid.New())})
	require.NoError(t, err)

	otherTenant := tenant.WithTenant(context.Background(), uuid.New())
	res, err := fx.svc.Pull(otherTenant, "dev-b", since)
	require.NoError(t, err)
	assert.Empty(t, res.Changes)
}

func TestQueryLogs_FiltersByDevice(t *testing.T) {
	fx := newFixture(t)

	_, err := fx.svc.Push(fx.ctx(), "dev-a", []syncitem.Mutation{createOrderMutation(t, uuid.New())})
	require.NoError(t, err)
	_, err = fx.svc.Push(fx.ctx(), "dev-b", []syncitem.Mutation{createOrderMutation(t, uuid.New())})
	require.NoError(t, err)

	records, err := fx.svc.QueryLogs(fx.ctx(), "dev-a", 10)
	require.NoError(t, err)

	require.Len(t, records, 1)
	assert.Equal(t, "dev-a", records[0].DeviceID)
	assert.Equal(t, synclog.OutcomeSuccess, records[0].Outcome)
}
