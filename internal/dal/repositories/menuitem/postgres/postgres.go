package postgresrepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/corebill/pos-sync-svc/internal/service/models/menuitem"
	"github.com/corebill/pos-sync-svc/internal/service/models/syncable"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// MenuItemDal represents menu item data access layer model.
type MenuItemDal struct {
	Id                 uuid.UUID `db:"id"`
	TenantId           uuid.UUID `db:"tenant_id"`
	Name               string    `db:"name"`
	Description        string    `db:"description"`
	PriceCents         int64     `db:"price_cents"`
	IsAvailable        bool      `db:"is_available"`
	IsVeg              bool      `db:"is_veg"`
	PreparationTimeMin int       `db:"preparation_time_min"`
	Version            int64     `db:"version"`
	OriginDeviceId     string    `db:"origin_device_id"`
	IsDeleted          bool      `db:"is_deleted"`
	CreatedAt          time.Time `db:"created_at"`
	UpdatedAt          time.Time `db:"updated_at"`
}

// ToModel converts MenuItemDal to service layer MenuItem model.
func (m *MenuItemDal) ToModel() *menuitem.MenuItem {
	return &menuitem.MenuItem{
		ID:                 m.Id,
		TenantID:           m.TenantId,
		Name:               m.Name,
		Description:        m.Description,
		PriceCents:         m.PriceCents,
		IsAvailable:        m.IsAvailable,
		IsVeg:              m.IsVeg,
		PreparationTimeMin: m.PreparationTimeMin,
		Version:            m.Version,
		OriginDeviceID:     m.OriginDeviceId,
		IsDeleted:          m.IsDeleted,
		CreatedAt:          m.CreatedAt,
		UpdatedAt:          m.UpdatedAt,
	}
}

// GenericConn is an interface that works with both pgxpool.Pool and pgx.Tx.
type GenericConn interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
}

// PostgresMenuItemRepository is the versioned Postgres store for menu items.
type PostgresMenuItemRepository struct {
	conn GenericConn
	sb   sq.StatementBuilderType
}

// NewPostgresMenuItemRepository creates a new Postgres menu item repository.
func NewPostgresMenuItemRepository(conn GenericConn) *PostgresMenuItemRepository {
	return &PostgresMenuItemRepository{
		conn: conn,
		sb:   sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

var menuItemColumns = []string{
	"id",
	"tenant_id",
	"name",
	"description",
	"price_cents",
	"is_available",
	"is_veg",
	"preparation_time_min",
	"version",
	"origin_device_id",
	"is_deleted",
	"created_at",
	"updated_at",
}

// Insert creates the menu item at version 1, treating a replayed create as
// a no-op that reports the stored version.
func (r *PostgresMenuItemRepository) Insert(
	ctx context.Context,
	m *menuitem.MenuItem,
) (int64, error) {
	query, args, err := r.sb.Insert("menu_items").
		Columns(menuItemColumns...).
		Values(
			m.ID,
			m.TenantID,
			m.Name,
			m.Description,
			m.PriceCents,
			m.IsAvailable,
			m.IsVeg,
			m.PreparationTimeMin,
			int64(1),
			m.OriginDeviceID,
			m.IsDeleted,
			m.CreatedAt,
			m.UpdatedAt,
		).
		Suffix("ON CONFLICT (id) DO NOTHING RETURNING version").
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build menu item insert query: %w", err)
	}

	var version int64
	err = r.conn.QueryRow(ctx, query, args...).Scan(&version)
	if errors.Is(err, pgx.ErrNoRows) {
		return r.getVersion(ctx, m.TenantID, m.ID)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to insert menu item: %w", err)
	}

	return version, nil
}

// UpdateVersioned applies the payload with an atomic check-and-increment
// fenced on the client's base version.
func (r *PostgresMenuItemRepository) UpdateVersioned(
	ctx context.Context,
	tenantID uuid.UUID,
	id uuid.UUID,
	deviceID string,
	clientVersion int64,
	payload menuitem.Payload,
	now time.Time,
) (int64, error) {
	query, args, err := r.sb.Update("menu_items").
		Set("name", payload.Name).
		Set("description", payload.Description).
		Set("price_cents", payload.PriceCents).
		Set("is_available", payload.IsAvailable).
		Set("is_veg", payload.IsVeg).
		Set("preparation_time_min", payload.PreparationTimeMin).
		Set("version", sq.Expr("version + 1")).
		Set("origin_device_id", deviceID).
		Set("updated_at", now).
		Where(sq.Eq{"id": id, "tenant_id": tenantID}).
		Where(sq.LtOrEq{"version": clientVersion}).
		Suffix("RETURNING version").
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build menu item update query: %w", err)
	}

	var version int64
	err = r.conn.QueryRow(ctx, query, args...).Scan(&version)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, r.classifyFencingMiss(ctx, tenantID, id)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to update menu item: %w", err)
	}

	return version, nil
}

// DeleteVersioned marks the menu item as a tombstone.
func (r *PostgresMenuItemRepository) DeleteVersioned(
	ctx context.Context,
	tenantID uuid.UUID,
	id uuid.UUID,
	deviceID string,
	clientVersion int64,
	now time.Time,
) (int64, error) {
	query, args, err := r.sb.Update("menu_items").
		Set("is_deleted", true).
		Set("version", sq.Expr("version + 1")).
		Set("origin_device_id", deviceID).
		Set("updated_at", now).
		Where(sq.Eq{"id": id, "tenant_id": tenantID}).
		Where(sq.LtOrEq{"version": clientVersion}).
		Suffix("RETURNING version").
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build menu item delete query: %w", err)
	}

	var version int64
	err = r.conn.QueryRow(ctx, query, args...).Scan(&version)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, r.classifyFencingMiss(ctx, tenantID, id)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to delete menu item: %w", err)
	}

	return version, nil
}

// FindDeltaChanges returns the tenant's menu items updated after `since`
// by devices other than excludeDeviceID, oldest first. The limit is soft:
// if it would split a group of rows sharing one updated_at, the fetch
// continues until that group is exhausted, so the final timestamp in the
// result is always complete and safe to use as a pull cursor.
func (r *PostgresMenuItemRepository) FindDeltaChanges(
	ctx context.Context,
	tenantID uuid.UUID,
	since time.Time,
	excludeDeviceID string,
	limit int,
) ([]menuitem.MenuItem, error) {
	query, args, err := r.sb.Select(menuItemColumns...).
		From("menu_items").
		Where(sq.Eq{"tenant_id": tenantID}).
		Where(sq.Gt{"updated_at": since}).
		Where(sq.NotEq{"origin_device_id": excludeDeviceID}).
		OrderBy("updated_at ASC", "id ASC").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build menu item delta query: %w", err)
	}

	result, err := r.queryMenuItems(ctx, query, args)
	if err != nil {
		return nil, err
	}
	if len(result) < limit {
		return result, nil
	}

	for {
		last := result[len(result)-1]
		query, args, err := r.sb.Select(menuItemColumns...).
			From("menu_items").
			Where(sq.Eq{"tenant_id": tenantID, "updated_at": last.UpdatedAt}).
			Where(sq.NotEq{"origin_device_id": excludeDeviceID}).
			Where(sq.Gt{"id": last.ID}).
			OrderBy("id ASC").
			Limit(uint64(limit)).
			ToSql()
		if err != nil {
			return nil, fmt.Errorf("failed to build menu item delta tie query: %w", err)
		}

		tail, err := r.queryMenuItems(ctx, query, args)
		if err != nil {
			return nil, err
		}
		result = append(result, tail...)
		if len(tail) < limit {
			return result, nil
		}
	}
}

func (r *PostgresMenuItemRepository) queryMenuItems(
	ctx context.Context,
	query string,
	args []interface{},
) ([]menuitem.MenuItem, error) {
	rows, err := r.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query menu item delta changes: %w", err)
	}
	defer rows.Close()

	var result []menuitem.MenuItem
	for rows.Next() {
		var dal MenuItemDal
		err := rows.Scan(
			&dal.Id,
			&dal.TenantId,
			&dal.Name,
			&dal.Description,
			&dal.PriceCents,
			&dal.IsAvailable,
			&dal.IsVeg,
			&dal.PreparationTimeMin,
			&dal.Version,
			&dal.OriginDeviceId,
			&dal.IsDeleted,
			&dal.CreatedAt,
			&dal.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan menu item: %w", err)
		}
		result = append(result, *dal.ToModel())
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return result, nil
}

func (r *PostgresMenuItemRepository) classifyFencingMiss(
	ctx context.Context,
	tenantID uuid.UUID,
	id uuid.UUID,
) error {
	if _, err := r.getVersion(ctx, tenantID, id); err != nil {
		return err
	}

	return syncable.ErrStaleVersion
}

func (r *PostgresMenuItemRepository) getVersion(
	ctx context.Context,
	tenantID uuid.UUID,
	id uuid.UUID,
) (int64, error) {
	query, args, err := r.sb.Select("version").
		From("menu_items").
		Where(sq.Eq{"id": id, "tenant_id": tenantID}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build menu item version query: %w", err)
	}

	var version int64
	err = r.conn.QueryRow(ctx, query, args...).Scan(&version)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, syncable.ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("failed to query menu item version: %w", err)
	}

	return version, nil
}
