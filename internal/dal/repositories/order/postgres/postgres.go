package postgresrepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/corebill/pos-sync-svc/internal/service/models/order"
	"github.com/corebill/pos-sync-svc/internal/service/models/syncable"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// OrderDal represents order data access layer model.
type OrderDal struct {
	Id                 uuid.UUID `db:"id"`
	TenantId           uuid.UUID `db:"tenant_id"`
	OrderNumber        string    `db:"order_number"`
	CustomerName       string    `db:"customer_name"`
	CustomerPhone      string    `db:"customer_phone"`
	Status             string    `db:"status"`
	OrderType          string    `db:"order_type"`
	SubtotalCents      int64     `db:"subtotal_cents"`
	TaxCents           int64     `db:"tax_cents"`
	ServiceChargeCents int64     `db:"service_charge_cents"`
	DiscountCents      int64     `db:"discount_cents"`
	TotalCents         int64     `db:"total_cents"`
	Notes              string    `db:"notes"`
	Version            int64     `db:"version"`
	OriginDeviceId     string    `db:"origin_device_id"`
	IsDeleted          bool      `db:"is_deleted"`
	CreatedAt          time.Time `db:"created_at"`
	UpdatedAt          time.Time `db:"updated_at"`
}

// ToModel converts OrderDal to service layer Order model.
func (o *OrderDal) ToModel() (*order.Order, error) {
	status, err := order.ParseStatus(o.Status)
	if err != nil {
		return nil, err
	}
	orderType, err := order.ParseType(o.OrderType)
	if err != nil {
		return nil, err
	}

	return &order.Order{
		ID:                 o.Id,
		TenantID:           o.TenantId,
		OrderNumber:        o.OrderNumber,
		CustomerName:       o.CustomerName,
		CustomerPhone:      o.CustomerPhone,
		Status:             status,
		Type:               orderType,
		SubtotalCents:      o.SubtotalCents,
		TaxCents:           o.TaxCents,
		ServiceChargeCents: o.ServiceChargeCents,
		DiscountCents:      o.DiscountCents,
		TotalCents:         o.TotalCents,
		Notes:              o.Notes,
		Version:            o.Version,
		OriginDeviceID:     o.OriginDeviceId,
		IsDeleted:          o.IsDeleted,
		CreatedAt:          o.CreatedAt,
		UpdatedAt:          o.UpdatedAt,
	}, nil
}

// GenericConn is an interface that works with both pgxpool.Pool and pgx.Tx.
type GenericConn interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
}

// PostgresOrderRepository is the versioned Postgres store for orders.
type PostgresOrderRepository struct {
	conn GenericConn
	sb   sq.StatementBuilderType
}

// NewPostgresOrderRepository creates a new Postgres order repository.
func NewPostgresOrderRepository(conn GenericConn) *PostgresOrderRepository {
	return &PostgresOrderRepository{
		conn: conn,
		sb:   sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

var orderColumns = []string{
	"id",
	"tenant_id",
	"order_number",
	"customer_name",
	"customer_phone",
	"status",
	"order_type",
	"subtotal_cents",
	"tax_cents",
	"service_charge_cents",
	"discount_cents",
	"total_cents",
	"notes",
	"version",
	"origin_device_id",
	"is_deleted",
	"created_at",
	"updated_at",
}

// Insert creates the order at version 1. A replayed create is a no-op:
// ON CONFLICT DO NOTHING leaves the existing row in place and the stored
// version is returned instead.
func (r *PostgresOrderRepository) Insert(ctx context.Context, o *order.Order) (int64, error) {
	query, args, err := r.sb.Insert("orders").
		Columns(orderColumns...).
		Values(
			o.ID,
			o.TenantID,
			o.OrderNumber,
			o.CustomerName,
			o.CustomerPhone,
			o.Status.String(),
			o.Type.String(),
			o.SubtotalCents,
			o.TaxCents,
			o.ServiceChargeCents,
			o.DiscountCents,
			o.TotalCents,
			o.Notes,
			int64(1),
			o.OriginDeviceID,
			o.IsDeleted,
			o.CreatedAt,
			o.UpdatedAt,
		).
		Suffix("ON CONFLICT (id) DO NOTHING RETURNING version").
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build order insert query: %w", err)
	}

	var version int64
	err = r.conn.QueryRow(ctx, query, args...).Scan(&version)
	if errors.Is(err, pgx.ErrNoRows) {
		// Row already exists: idempotent replay, report the stored version.
		return r.getVersion(ctx, o.TenantID, o.ID)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to insert order: %w", err)
	}

	return version, nil
}

// UpdateVersioned applies the payload with an atomic check-and-increment:
// the row is written only if its stored version does not exceed the
// client's base version, so two concurrent pushes against the same base
// can never both succeed.
func (r *PostgresOrderRepository) UpdateVersioned(
	ctx context.Context,
	tenantID uuid.UUID,
	id uuid.UUID,
	deviceID string,
	clientVersion int64,
	payload order.Payload,
	now time.Time,
) (int64, error) {
	query, args, err := r.sb.Update("orders").
		Set("order_number", payload.OrderNumber).
		Set("customer_name", payload.CustomerName).
		Set("customer_phone", payload.CustomerPhone).
		Set("status", payload.Status.String()).
		Set("order_type", payload.Type.String()).
		Set("subtotal_cents", payload.SubtotalCents).
		Set("tax_cents", payload.TaxCents).
		Set("service_charge_cents", payload.ServiceChargeCents).
		Set("discount_cents", payload.DiscountCents).
		Set("total_cents", payload.TotalCents).
		Set("notes", payload.Notes).
		Set("version", sq.Expr("version + 1")).
		Set("origin_device_id", deviceID).
		Set("updated_at", now).
		Where(sq.Eq{"id": id, "tenant_id": tenantID}).
		Where(sq.LtOrEq{"version": clientVersion}).
		Suffix("RETURNING version").
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build order update query: %w", err)
	}

	var version int64
	err = r.conn.QueryRow(ctx, query, args...).Scan(&version)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, r.classifyFencingMiss(ctx, tenantID, id)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to update order: %w", err)
	}

	return version, nil
}

// DeleteVersioned marks the order as a tombstone under the same fencing
// rules as UpdateVersioned. The row is never physically removed.
func (r *PostgresOrderRepository) DeleteVersioned(
	ctx context.Context,
	tenantID uuid.UUID,
	id uuid.UUID,
	deviceID string,
	clientVersion int64,
	now time.Time,
) (int64, error) {
	query, args, err := r.sb.Update("orders").
		Set("is_deleted", true).
		Set("version", sq.Expr("version + 1")).
		Set("origin_device_id", deviceID).
		Set("updated_at", now).
		Where(sq.Eq{"id": id, "tenant_id": tenantID}).
		Where(sq.LtOrEq{"version": clientVersion}).
		Suffix("RETURNING version").
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build order delete query: %w", err)
	}

	var version int64
	err = r.conn.QueryRow(ctx, query, args...).Scan(&version)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, r.classifyFencingMiss(ctx, tenantID, id)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to delete order: %w", err)
	}

	return version, nil
}

// FindDeltaChanges returns the tenant's orders updated after `since` by
// devices other than excludeDeviceID, oldest first. The limit is soft: if
// it would split a group of rows sharing one updated_at, the fetch
// continues until that group is exhausted, so the final timestamp in the
// result is always complete and safe to use as a pull cursor.
func (r *PostgresOrderRepository) FindDeltaChanges(
	ctx context.Context,
	tenantID uuid.UUID,
	since time.Time,
	excludeDeviceID string,
	limit int,
) ([]order.Order, error) {
	query, args, err := r.sb.Select(orderColumns...).
		From("orders").
		Where(sq.Eq{"tenant_id": tenantID}).
		Where(sq.Gt{"updated_at": since}).
		Where(sq.NotEq{"origin_device_id": excludeDeviceID}).
		OrderBy("updated_at ASC", "id ASC").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build order delta query: %w", err)
	}

	result, err := r.queryOrders(ctx, query, args)
	if err != nil {
		return nil, err
	}
	if len(result) < limit {
		return result, nil
	}

	for {
		last := result[len(result)-1]
		query, args, err := r.sb.Select(orderColumns...).
			From("orders").
			Where(sq.Eq{"tenant_id": tenantID, "updated_at": last.UpdatedAt}).
			Where(sq.NotEq{"origin_device_id": excludeDeviceID}).
			Where(sq.Gt{"id": last.ID}).
			OrderBy("id ASC").
			Limit(uint64(limit)).
			ToSql()
		if err != nil {
			return nil, fmt.Errorf("failed to build order delta tie query: %w", err)
		}

		tail, err := r.queryOrders(ctx, query, args)
		if err != nil {
			return nil, err
		}
		result = append(result, tail...)
		if len(tail) < limit {
			return result, nil
		}
	}
}

func (r *PostgresOrderRepository) queryOrders(
	ctx context.Context,
	query string,
	args []interface{},
) ([]order.Order, error) {
	rows, err := r.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query order delta changes: %w", err)
	}
	defer rows.Close()

	var result []order.Order
	for rows.Next() {
		var dal OrderDal
		err := rows.Scan(
			&dal.Id,
			&dal.TenantId,
			&dal.OrderNumber,
			&dal.CustomerName,
			&dal.CustomerPhone,
			&dal.Status,
			&dal.OrderType,
			&dal.SubtotalCents,
			&dal.TaxCents,
			&dal.ServiceChargeCents,
			&dal.DiscountCents,
			&dal.TotalCents,
			&dal.Notes,
			&dal.Version,
			&dal.OriginDeviceId,
			&dal.IsDeleted,
			&dal.CreatedAt,
			&dal.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		model, err := dal.ToModel()
		if err != nil {
			return nil, fmt.Errorf("failed to convert order dal to model: %w", err)
		}
		result = append(result, *model)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return result, nil
}

// classifyFencingMiss disambiguates a zero-row conditional update: the row
// is either absent or its version is ahead of the client's base.
func (r *PostgresOrderRepository) classifyFencingMiss(
	ctx context.Context,
	tenantID uuid.UUID,
	id uuid.UUID,
) error {
	if _, err := r.getVersion(ctx, tenantID, id); err != nil {
		return err
	}

	return syncable.ErrStaleVersion
}

func (r *PostgresOrderRepository) getVersion(
	ctx context.Context,
	tenantID uuid.UUID,
	id uuid.UUID,
) (int64, error) {
	query, args, err := r.sb.Select("version").
		From("orders").
		Where(sq.Eq{"id": id, "tenant_id": tenantID}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build order version query: %w", err)
	}

	var version int64
	err = r.conn.QueryRow(ctx, query, args...).Scan(&version)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, syncable.ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("failed to query order version: %w", err)
	}

	return version, nil
}
