package postgresrepo

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/orderflow/orders/internal/service/models/auditlog"
)

// AuditLogDal represents the audit log data access layer model.
type AuditLogDal struct {
	ID        int64     `db:"id"`
	OrderID   uuid.UUID `db:"order_id"`
	Action    string    `db:"action"`
	OldValue  *string   `db:"old_value"`
	NewValue  *string   `db:"new_value"`
	Changes   []byte    `db:"changes"`
	IPAddress *string   `db:"ip_address"`
	UserAgent *string   `db:"user_agent"`
	CreatedAt time.Time `db:"created_at"`
}

// ToModel converts AuditLogDal to the service layer AuditLog model.
func (a *AuditLogDal) ToModel() *auditlog.AuditLog {
	entry := &auditlog.AuditLog{
		ID:        a.ID,
		OrderID:   a.OrderID,
		Action:    a.Action,
		OldValue:  a.OldValue,
		NewValue:  a.NewValue,
		Changes:   a.Changes,
		CreatedAt: a.CreatedAt,
	}

	if a.IPAddress != nil {
		entry.IPAddress = *a.IPAddress
	}
	if a.UserAgent != nil {
		entry.UserAgent = *a.UserAgent
	}

	return entry
}

// GenericConn is an interface that works with both pgxpool.Pool and pgx.Tx.
type GenericConn interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
}

// PostgresAuditRepository is the append-only Postgres audit log repository.
// It deliberately exposes no update or delete operations.
type PostgresAuditRepository struct {
	conn GenericConn
	sb   sq.StatementBuilderType
}

// NewPostgresAuditRepository creates a new Postgres audit log repository.
func NewPostgresAuditRepository(conn GenericConn) *PostgresAuditRepository {
	return &PostgresAuditRepository{
		conn: conn,
		sb:   sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

// Insert appends one audit record and returns it with the generated id.
func (r *PostgresAuditRepository) Insert(ctx context.Context, entry auditlog.AuditLog) (auditlog.AuditLog, error) {
	var changes interface{}
	if len(entry.Changes) > 0 {
		changes = []byte(entry.Changes)
	}

	var ip, userAgent *string
	if entry.IPAddress != "" {
		ip = &entry.IPAddress
	}
	if entry.UserAgent != "" {
		userAgent = &entry.UserAgent
	}

	sql, args, err := r.sb.
		Insert("audit_logs").
		Columns(
			"order_id",
			"action",
			"old_value",
			"new_value",
			"changes",
			"ip_address",
			"user_agent",
			"created_at",
		).
		Values(
			entry.OrderID,
			entry.Action,
			entry.OldValue,
			entry.NewValue,
			changes,
			ip,
			userAgent,
			entry.CreatedAt,
		).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return auditlog.AuditLog{}, fmt.Errorf("failed to build insert query: %w", err)
	}

	if err := r.conn.QueryRow(ctx, sql, args...).Scan(&entry.ID); err != nil {
		return auditlog.AuditLog{}, fmt.Errorf("failed to insert audit log: %w", err)
	}

	return entry, nil
}

// QueryByOrderID retrieves the audit trail of an order, oldest first. The
// trail survives soft-deletion of the order.
func (r *PostgresAuditRepository) QueryByOrderID(ctx context.Context, orderID uuid.UUID) ([]auditlog.AuditLog, error) {
	sql, args, err := r.sb.
		Select(
			"id",
			"order_id",
			"action",
			"old_value",
			"new_value",
			"changes",
			"ip_address",
			"user_agent",
			"created_at",
		).
		From("audit_logs").
		Where(sq.Eq{"order_id": orderID}).
		OrderBy("created_at ASC", "id ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	rows, err := r.conn.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit logs: %w", err)
	}
	defer rows.Close()

	var result []auditlog.AuditLog
	for rows.Next() {
		var dal AuditLogDal
		err := rows.Scan(
			&dal.ID,
			&dal.OrderID,
			&dal.Action,
			&dal.OldValue,
			&dal.NewValue,
			&dal.Changes,
			&dal.IPAddress,
			&dal.UserAgent,
			&dal.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan audit log: %w", err)
		}

		result = append(result, *dal.ToModel())
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return result, nil
}
