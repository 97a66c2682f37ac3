package postgresrepo

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/corebill/pos-sync-svc/internal/service/models/syncable"
	"github.com/corebill/pos-sync-svc/internal/service/models/synclog"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// GenericConn is an interface that works with both pgxpool.Pool and pgx.Tx.
type GenericConn interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
}

// PostgresSyncLogRepository persists the append-only change log.
type PostgresSyncLogRepository struct {
	conn GenericConn
	sb   sq.StatementBuilderType
}

// NewPostgresSyncLogRepository creates a new Postgres sync log repository.
func NewPostgresSyncLogRepository(conn GenericConn) *PostgresSyncLogRepository {
	return &PostgresSyncLogRepository{
		conn: conn,
		sb:   sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

var syncLogColumns = []string{
	"id",
	"tenant_id",
	"device_id",
	"entity_type",
	"entity_id",
	"operation",
	"outcome",
	"client_version",
	"server_version",
	"error_detail",
	"created_at",
}

// Insert appends one change log record.
func (r *PostgresSyncLogRepository) Insert(ctx context.Context, rec synclog.Record) error {
	query, args, err := r.sb.Insert("sync_logs").
		Columns(syncLogColumns...).
		Values(
			rec.ID,
			rec.TenantID,
			rec.DeviceID,
			rec.EntityType.String(),
			rec.EntityID,
			rec.Operation.String(),
			rec.Outcome.String(),
			rec.ClientVersion,
			rec.ServerVersion,
			rec.ErrorDetail,
			rec.CreatedAt,
		).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build sync log insert query: %w", err)
	}

	_, err = r.conn.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to insert sync log record: %w", err)
	}

	return nil
}

// Query returns the tenant's most recent records, optionally narrowed to
// one device, newest first.
func (r *PostgresSyncLogRepository) Query(
	ctx context.Context,
	tenantID uuid.UUID,
	deviceID string,
	limit int,
) ([]synclog.Record, error) {
	builder := r.sb.Select(syncLogColumns...).
		From("sync_logs").
		Where(sq.Eq{"tenant_id": tenantID}).
		OrderBy("created_at DESC").
		Limit(uint64(limit))

	if deviceID != "" {
		builder = builder.Where(sq.Eq{"device_id": deviceID})
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build sync log query: %w", err)
	}

	return r.queryRecords(ctx, query, args)
}

// ListAfter returns records whose (created_at, id) is strictly after the
// cursor, oldest first. The row comparison keeps the keyset stable when
// many records share one created_at.
func (r *PostgresSyncLogRepository) ListAfter(
	ctx context.Context,
	after time.Time,
	afterID uuid.UUID,
	limit int,
) ([]synclog.Record, error) {
	query, args, err := r.sb.Select(syncLogColumns...).
		From("sync_logs").
		Where(sq.Expr("(created_at, id) > (?, ?)", after, afterID)).
		OrderBy("created_at ASC", "id ASC").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build sync log list query: %w", err)
	}

	return r.queryRecords(ctx, query, args)
}

func (r *PostgresSyncLogRepository) queryRecords(
	ctx context.Context,
	query string,
	args []interface{},
) ([]synclog.Record, error) {
	rows, err := r.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query sync log records: %w", err)
	}
	defer rows.Close()

	var result []synclog.Record
	for rows.Next() {
		var (
			rec        synclog.Record
			entityType string
			operation  string
			outcome    string
		)
		err := rows.Scan(
			&rec.ID,
			&rec.TenantID,
			&rec.DeviceID,
			&entityType,
			&rec.EntityID,
			&operation,
			&outcome,
			&rec.ClientVersion,
			&rec.ServerVersion,
			&rec.ErrorDetail,
			&rec.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan sync log record: %w", err)
		}

		rec.EntityType = syncable.EntityType(entityType)
		rec.Operation = syncable.Operation(operation)
		rec.Outcome = synclog.Outcome(outcome)
		result = append(result, rec)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return result, nil
}
