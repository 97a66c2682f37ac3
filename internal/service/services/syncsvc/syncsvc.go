package syncsvc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/corebill/pos-sync-svc/internal/dal/interfaces/imenuitemrepo"
	"github.com/corebill/pos-sync-svc/internal/dal/interfaces/iorderrepo"
	"github.com/corebill/pos-sync-svc/internal/dal/interfaces/isynclogrepo"
	"github.com/corebill/pos-sync-svc/internal/service/models/change"
	"github.com/corebill/pos-sync-svc/internal/service/models/menuitem"
	"github.com/corebill/pos-sync-svc/internal/service/models/order"
	"github.com/corebill/pos-sync-svc/internal/service/models/syncable"
	"github.com/corebill/pos-sync-svc/internal/service/models/syncitem"
	"github.com/corebill/pos-sync-svc/internal/service/models/synclog"
	"github.com/corebill/pos-sync-svc/internal/tenant"
	"github.com/google/uuid"
)

const defaultPullPageSize = 500

const (
	reasonNotFound     = "not found"
	reasonStaleVersion = "stale version"
)

// SyncService reconciles offline device edits against the tenant-scoped
// source of truth and hands incremental changes back out. Push applies a
// batch of client mutations item by item with version fencing; Pull
// returns everything other devices changed since a cutoff.
type SyncService struct {
	orderRepo    iorderrepo.IOrderRepository
	menuItemRepo imenuitemrepo.IMenuItemRepository
	syncLogRepo  isynclogrepo.ISyncLogRepository
	pageSize     int
	now          func() time.Time
}

// option is a function that configures the SyncService.
type option func(*SyncService)

// MustNewSyncService creates a new SyncService.
func MustNewSyncService(opts ...option) *SyncService {
	s := &SyncService{
		pageSize: defaultPullPageSize,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.orderRepo == nil || s.menuItemRepo == nil || s.syncLogRepo == nil {
		panic("syncsvc: all repositories must be configured")
	}

	return s
}

// WithOrderRepository sets the order repository for the SyncService.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithOrderRepository(repo iorderrepo.IOrderRepository) option {
	return func(s *SyncService) {
		s.orderRepo = repo
	}
}

// WithMenuItemRepository sets the menu item repository for the SyncService.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithMenuItemRepository(repo imenuitemrepo.IMenuItemRepository) option {
	return func(s *SyncService) {
		s.menuItemRepo = repo
	}
}

// WithSyncLogRepository sets the change log repository for the SyncService.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithSyncLogRepository(repo isynclogrepo.ISyncLogRepository) option {
	return func(s *SyncService) {
		s.syncLogRepo = repo
	}
}

// WithPullPageSize sets the delta pull page limit.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithPullPageSize(size int) option {
	return func(s *SyncService) {
		if size > 0 {
			s.pageSize = size
		}
	}
}

// WithClock sets the time source.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithClock(now func() time.Time) option {
	return func(s *SyncService) {
		s.now = now
	}
}

// Push applies a batch of client mutations. Each item commits
// independently: a conflict or validation failure on one item never rolls
// back or skips the others. Only an infrastructure failure (store
// unreachable) aborts the remaining unprocessed items, in which case the
// partial result is returned together with the error; items already
// committed stay committed.
func (s *SyncService) Push(
	ctx context.Context,
	deviceID string,
	items []syncitem.Mutation,
) (*syncitem.PushResult, error) {
	tenantID, err := tenant.FromContext(ctx)
	if err != nil {
		return nil, err
	}

	result := &syncitem.PushResult{
		Results:   make([]syncitem.Outcome, 0, len(items)),
		Conflicts: make([]syncitem.Conflict, 0),
	}

	for _, item := range items {
		outcome, err := s.processItem(ctx, tenantID, deviceID, item)
		if err != nil {
			s.logSync(ctx, tenantID, deviceID, item, synclog.OutcomeFailed, 0, err.Error())
			result.Timestamp = s.now()

			return result, fmt.Errorf("failed to process sync item %s: %w", item.EntityID, err)
		}

		result.Results = append(result.Results, outcome)

		switch outcome.Status {
		case syncitem.StatusSuccess:
			s.logSync(ctx, tenantID, deviceID, item, synclog.OutcomeSuccess, outcome.ServerVersion, "")
		case syncitem.StatusConflict:
			result.Conflicts = append(result.Conflicts, syncitem.Conflict{
				EntityID:   item.EntityID,
				EntityType: item.EntityType,
				Reason:     outcome.Reason,
			})
			s.logSync(ctx, tenantID, deviceID, item, synclog.OutcomeConflict, outcome.ServerVersion, outcome.Reason)
		case syncitem.StatusFailed:
			s.logSync(ctx, tenantID, deviceID, item, synclog.OutcomeFailed, 0, outcome.Reason)
		}
	}

	result.Timestamp = s.now()

	return result, nil
}

// Pull returns every entity of the tenant changed since the cutoff by
// devices other than the caller, tombstones included. The result is
// ordered oldest first and truncated to the page limit; HasMore tells the
// device to re-pull with the returned AsOf cursor.
func (s *SyncService) Pull(
	ctx context.Context,
	deviceID string,
	since time.Time,
) (*change.DeltaResult, error) {
	tenantID, err := tenant.FromContext(ctx)
	if err != nil {
		return nil, err
	}

	// One extra row per kind reveals truncation after the merge. The
	// repositories treat the limit as soft and never stop partway through a
	// group of rows sharing one updated_at, so every timestamp present in
	// the fetched set is complete.
	fetchLimit := s.pageSize + 1

	orders, err := s.orderRepo.FindDeltaChanges(ctx, tenantID, since, deviceID, fetchLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to load order delta changes: %w", err)
	}

	menuItems, err := s.menuItemRepo.FindDeltaChanges(ctx, tenantID, since, deviceID, fetchLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to load menu item delta changes: %w", err)
	}

	changes := make([]change.Change, 0, len(orders)+len(menuItems))
	for i := range orders {
		c, err := orderChange(&orders[i])
		if err != nil {
			return nil, err
		}
		changes = append(changes, c)
	}
	for i := range menuItems {
		c, err := menuItemChange(&menuItems[i])
		if err != nil {
			return nil, err
		}
		changes = append(changes, c)
	}

	sort.Slice(changes, func(i, j int) bool {
		if changes[i].UpdatedAt.Equal(changes[j].UpdatedAt) {
			return changes[i].EntityID.String() < changes[j].EntityID.String()
		}

		return changes[i].UpdatedAt.Before(changes[j].UpdatedAt)
	})

	if len(changes) <= s.pageSize {
		return &change.DeltaResult{
			Changes: changes,
			AsOf:    s.now(),
			HasMore: false,
		}, nil
	}

	// Truncated page. The cursor is the timestamp of the last included
	// change, and every change sharing that timestamp is kept in the page.
	// The repositories guarantee those ties were all fetched, so the strict
	// updated_at > cursor of the next pull cannot skip one.
	boundary := changes[s.pageSize-1].UpdatedAt
	cut := s.pageSize
	for cut < len(changes) && changes[cut].UpdatedAt.Equal(boundary) {
		cut++
	}

	return &change.DeltaResult{
		Changes: changes[:cut],
		AsOf:    boundary,
		HasMore: true,
	}, nil
}

// QueryLogs returns the tenant's recent change log records for support
// tooling, optionally narrowed to one device.
func (s *SyncService) QueryLogs(
	ctx context.Context,
	deviceID string,
	limit int,
) ([]synclog.Record, error) {
	tenantID, err := tenant.FromContext(ctx)
	if err != nil {
		return nil, err
	}

	records, err := s.syncLogRepo.Query(ctx, tenantID, deviceID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query sync logs: %w", err)
	}

	return records, nil
}

// processItem applies one mutation. The returned error is reserved for
// infrastructure failures; every business condition is folded into the
// outcome.
func (s *SyncService) processItem(
	ctx context.Context,
	tenantID uuid.UUID,
	deviceID string,
	item syncitem.Mutation,
) (syncitem.Outcome, error) {
	if _, err := syncable.ParseOperation(item.Operation.String()); err != nil {
		return failedOutcome(item, err), nil
	}

	switch item.EntityType {
	case syncable.EntityTypeOrder:
		return s.processOrderItem(ctx, tenantID, deviceID, item)
	case syncable.EntityTypeMenuItem:
		return s.processMenuItemItem(ctx, tenantID, deviceID, item)
	default:
		return failedOutcome(item, syncable.ErrInvalidEntityType), nil
	}
}

func (s *SyncService) processOrderItem(
	ctx context.Context,
	tenantID uuid.UUID,
	deviceID string,
	item syncitem.Mutation,
) (syncitem.Outcome, error) {
	now := s.now()

	switch item.Operation {
	case syncable.OperationCreate, syncable.OperationUpdate:
		var payload order.Payload
		if err := json.Unmarshal(item.Payload, &payload); err != nil {
			return failedOutcome(item, err), nil
		}
		if err := payload.Validate(); err != nil {
			return failedOutcome(item, err), nil
		}

		if item.Operation == syncable.OperationCreate {
			o := &order.Order{
				ID:             item.EntityID,
				TenantID:       tenantID,
				OriginDeviceID: deviceID,
				CreatedAt:      now,
				UpdatedAt:      now,
			}
			o.ApplyPayload(payload)

			version, err := s.orderRepo.Insert(ctx, o)
			if err != nil {
				return syncitem.Outcome{}, err
			}

			return successOutcome(item, version), nil
		}

		version, err := s.orderRepo.UpdateVersioned(
			ctx, tenantID, item.EntityID, deviceID, item.ClientVersion, payload, now,
		)

		return s.classifyWrite(item, version, err)

	case syncable.OperationDelete:
		version, err := s.orderRepo.DeleteVersioned(
			ctx, tenantID, item.EntityID, deviceID, item.ClientVersion, now,
		)

		return s.classifyWrite(item, version, err)
	}

	return failedOutcome(item, syncable.ErrInvalidOperation), nil
}

func (s *SyncService) processMenuItemItem(
	ctx context.Context,
	tenantID uuid.UUID,
	deviceID string,
	item syncitem.Mutation,
) (syncitem.Outcome, error) {
	now := s.now()

	switch item.Operation {
	case syncable.OperationCreate, syncable.OperationUpdate:
		var payload menuitem.Payload
		if err := json.Unmarshal(item.Payload, &payload); err != nil {
			return failedOutcome(item, err), nil
		}
		if err := payload.Validate(); err != nil {
			return failedOutcome(item, err), nil
		}

		if item.Operation == syncable.OperationCreate {
			m := &menuitem.MenuItem{
				ID:             item.EntityID,
				TenantID:       tenantID,
				OriginDeviceID: deviceID,
				CreatedAt:      now,
				UpdatedAt:      now,
			}
			m.ApplyPayload(payload)

			version, err := s.menuItemRepo.Insert(ctx, m)
			if err != nil {
				return syncitem.Outcome{}, err
			}

			return successOutcome(item, version), nil
		}

		version, err := s.menuItemRepo.UpdateVersioned(
			ctx, tenantID, item.EntityID, deviceID, item.ClientVersion, payload, now,
		)

		return s.classifyWrite(item, version, err)

	case syncable.OperationDelete:
		version, err := s.menuItemRepo.DeleteVersioned(
			ctx, tenantID, item.EntityID, deviceID, item.ClientVersion, now,
		)

		return s.classifyWrite(item, version, err)
	}

	return failedOutcome(item, syncable.ErrInvalidOperation), nil
}

// classifyWrite maps a fenced write result onto the outcome taxonomy:
// not-found and stale versions are conflicts, anything else is an
// infrastructure failure.
func (s *SyncService) classifyWrite(
	item syncitem.Mutation,
	version int64,
	err error,
) (syncitem.Outcome, error) {
	switch {
	case err == nil:
		return successOutcome(item, version), nil
	case errors.Is(err, syncable.ErrNotFound):
		return conflictOutcome(item, reasonNotFound), nil
	case errors.Is(err, syncable.ErrStaleVersion):
		return conflictOutcome(item, reasonStaleVersion), nil
	default:
		return syncitem.Outcome{}, err
	}
}

// logSync appends one change log record. Audit is best effort: a logging
// failure is reported through slog and never surfaces on the push path.
func (s *SyncService) logSync(
	ctx context.Context,
	tenantID uuid.UUID,
	deviceID string,
	item syncitem.Mutation,
	outcome synclog.Outcome,
	serverVersion int64,
	errorDetail string,
) {
	rec := synclog.Record{
		ID:            uuid.New(),
		TenantID:      tenantID,
		DeviceID:      deviceID,
		EntityType:    item.EntityType,
		EntityID:      item.EntityID,
		Operation:     item.Operation,
		Outcome:       outcome,
		ClientVersion: item.ClientVersion,
		ServerVersion: serverVersion,
		ErrorDetail:   errorDetail,
		CreatedAt:     s.now(),
	}

	if err := s.syncLogRepo.Insert(ctx, rec); err != nil {
		slog.Warn("Failed to append sync log record",
			"tenant_id", tenantID,
			"device_id", deviceID,
			"entity_id", item.EntityID,
			"error", err,
		)
	}
}

func successOutcome(item syncitem.Mutation, version int64) syncitem.Outcome {
	return syncitem.Outcome{
		EntityID:      item.EntityID,
		EntityType:    item.EntityType,
		Status:        syncitem.StatusSuccess,
		ServerVersion: version,
	}
}

func conflictOutcome(item syncitem.Mutation, reason string) syncitem.Outcome {
	return syncitem.Outcome{
		EntityID:   item.EntityID,
		EntityType: item.EntityType,
		Status:     syncitem.StatusConflict,
		Reason:     reason,
	}
}

func failedOutcome(item syncitem.Mutation, err error) syncitem.Outcome {
	return syncitem.Outcome{
		EntityID:   item.EntityID,
		EntityType: item.EntityType,
		Status:     syncitem.StatusFailed,
		Reason:     err.Error(),
	}
}

func orderChange(o *order.Order) (change.Change, error) {
	payload, err := json.Marshal(o.ToPayload())
	if err != nil {
		return change.Change{}, fmt.Errorf("failed to marshal order payload: %w", err)
	}

	op := syncable.OperationUpdate
	if o.IsDeleted {
		op = syncable.OperationDelete
	}

	return change.Change{
		EntityType: syncable.EntityTypeOrder,
		EntityID:   o.ID,
		Operation:  op,
		Version:    o.Version,
		UpdatedAt:  o.UpdatedAt,
		Payload:    payload,
	}, nil
}

func menuItemChange(m *menuitem.MenuItem) (change.Change, error) {
	payload, err := json.Marshal(m.ToPayload())
	if err != nil {
		return change.Change{}, fmt.Errorf("failed to marshal menu item payload: %w", err)
	}

	op := syncable.OperationUpdate
	if m.IsDeleted {
		op = syncable.OperationDelete
	}

	return change.Change{
		EntityType: syncable.EntityTypeMenuItem,
		EntityID:   m.ID,
		Operation:  op,
		Version:    m.Version,
		UpdatedAt:  m.UpdatedAt,
		Payload:    payload,
	}, nil
}
