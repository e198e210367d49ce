package postgresrepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"

	"github.com/orderflow/orders/internal/service/models/order"
	"github.com/orderflow/orders/internal/service/models/orderitem"
	"github.com/orderflow/orders/internal/service/models/status"
)

var orderColumns = []string{
	"id",
	"customer_name",
	"status",
	"subtotal",
	"discount",
	"tax",
	"total",
	"notes",
	"created_at",
	"updated_at",
}

// OrderDal represents the order data access layer model.
type OrderDal struct {
	ID           uuid.UUID       `db:"id"`
	CustomerName string          `db:"customer_name"`
	Status       string          `db:"status"`
	Subtotal     decimal.Decimal `db:"subtotal"`
	Discount     decimal.Decimal `db:"discount"`
	Tax          decimal.Decimal `db:"tax"`
	Total        decimal.Decimal `db:"total"`
	Notes        []byte          `db:"notes"`
	CreatedAt    time.Time       `db:"created_at"`
	UpdatedAt    time.Time       `db:"updated_at"`
}

// ToModel converts OrderDal to the service layer Order model.
func (o *OrderDal) ToModel() (*order.Order, error) {
	st, err := status.ParseStatus(o.Status)
	if err != nil {
		return nil, fmt.Errorf("failed to parse order status: %w", err)
	}

	return &order.Order{
		ID:           o.ID,
		CustomerName: o.CustomerName,
		Status:       st,
		Subtotal:     o.Subtotal,
		Discount:     o.Discount,
		Tax:          o.Tax,
		Total:        o.Total,
		Notes:        o.Notes,
		CreatedAt:    o.CreatedAt,
		UpdatedAt:    o.UpdatedAt,
		Items:        []orderitem.OrderItem{}, // Will be populated separately
	}, nil
}

// GenericConn is an interface that works with both pgxpool.Pool and pgx.Tx.
type GenericConn interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
}

// PostgresOrderRepository represents a Postgres order repository.
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

// Insert persists a new order row.
func (r *PostgresOrderRepository) Insert(ctx context.Context, o order.Order) error {
	var notes interface{}
	if len(o.Notes) > 0 {
		notes = []byte(o.Notes)
	}

	sql, args, err := r.sb.
		Insert("orders").
		Columns(orderColumns...).
		Values(
			o.ID,
			o.CustomerName,
			o.Status.String(),
			o.Subtotal,
			o.Discount,
			o.Tax,
			o.Total,
			notes,
			o.CreatedAt,
			o.UpdatedAt,
		).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build insert query: %w", err)
	}

	if _, err := r.conn.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("failed to insert order: %w", err)
	}

	return nil
}

// GetByID retrieves a single order by id. Returns (nil, nil) when the order
// does not exist or is soft-deleted.
func (r *PostgresOrderRepository) GetByID(ctx context.Context, id uuid.UUID) (*order.Order, error) {
	return r.getByID(ctx, id, false)
}

// GetByIDForUpdate retrieves a single order by id with a row-level lock, so
// concurrent status transitions on the same order serialize on the row.
func (r *PostgresOrderRepository) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*order.Order, error) {
	return r.getByID(ctx, id, true)
}

func (r *PostgresOrderRepository) getByID(ctx context.Context, id uuid.UUID, forUpdate bool) (*order.Order, error) {
	query := r.sb.
		Select(orderColumns...).
		From("orders").
		Where(sq.Eq{"id": id}).
		Where(sq.Eq{"deleted_at": nil})

	if forUpdate {
		query = query.Suffix("FOR UPDATE")
	}

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	row := r.conn.QueryRow(ctx, sql, args...)

	dal, err := scanOrderRow(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}

		return nil, fmt.Errorf("failed to scan order: %w", err)
	}

	return dal.ToModel()
}

// UpdateStatus persists a new status for the order.
func (r *PostgresOrderRepository) UpdateStatus(
	ctx context.Context,
	id uuid.UUID,
	next status.Status,
	updatedAt time.Time,
) error {
	sql, args, err := r.sb.
		Update("orders").
		Set("status", next.String()).
		Set("updated_at", updatedAt).
		Where(sq.Eq{"id": id}).
		Where(sq.Eq{"deleted_at": nil}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build update query: %w", err)
	}

	if _, err := r.conn.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("failed to update order status: %w", err)
	}

	return nil
}

// SoftDelete marks the order as deleted. The row stays in place; every read
// path filters it out from now on.
func (r *PostgresOrderRepository) SoftDelete(ctx context.Context, id uuid.UUID, deletedAt time.Time) error {
	sql, args, err := r.sb.
		Update("orders").
		Set("deleted_at", deletedAt).
		Set("updated_at", deletedAt).
		Where(sq.Eq{"id": id}).
		Where(sq.Eq{"deleted_at": nil}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build delete query: %w", err)
	}

	if _, err := r.conn.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("failed to soft delete order: %w", err)
	}

	return nil
}

// Query retrieves orders based on filter criteria with offset pagination,
// ordered by (created_at DESC, id DESC).
func (r *PostgresOrderRepository) Query(ctx context.Context, filter *order.QueryOrdersModel) ([]order.Order, error) {
	query := r.applyFilter(r.sb.Select(orderColumns...).From("orders"), filter).
		OrderBy("created_at DESC", "id DESC")

	if filter.Limit > 0 {
		query = query.Limit(uint64(filter.Limit))
	}

	if filter.Offset > 0 {
		query = query.Offset(uint64(filter.Offset))
	}

	return r.queryOrders(ctx, query)
}

// Count returns the number of orders matching the filter.
func (r *PostgresOrderRepository) Count(ctx context.Context, filter *order.QueryOrdersModel) (int64, error) {
	sql, args, err := r.applyFilter(r.sb.Select("COUNT(*)").From("orders"), filter).ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build count query: %w", err)
	}

	var total int64
	if err := r.conn.QueryRow(ctx, sql, args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("failed to count orders: %w", err)
	}

	return total, nil
}

// QueryWithCursor retrieves up to limit orders after the cursor position under
// the (created_at DESC, id DESC) ordering. A nil cursor starts from the
// beginning.
func (r *PostgresOrderRepository) QueryWithCursor(
	ctx context.Context,
	cursor *order.Cursor,
	limit int,
	filter *order.QueryOrdersModel,
) ([]order.Order, error) {
	query := r.applyFilter(r.sb.Select(orderColumns...).From("orders"), filter)

	if cursor != nil {
		query = query.Where(sq.Or{
			sq.Lt{"created_at": cursor.CreatedAt},
			sq.And{
				sq.Eq{"created_at": cursor.CreatedAt},
				sq.Lt{"id": cursor.ID},
			},
		})
	}

	query = query.
		OrderBy("created_at DESC", "id DESC").
		Limit(uint64(limit))

	return r.queryOrders(ctx, query)
}

func (r *PostgresOrderRepository) applyFilter(query sq.SelectBuilder, filter *order.QueryOrdersModel) sq.SelectBuilder {
	query = query.Where(sq.Eq{"deleted_at": nil})

	if filter.Status != "" {
		query = query.Where(sq.Eq{"status": filter.Status})
	}

	if filter.CustomerName != "" {
		query = query.Where(sq.ILike{"customer_name": "%" + filter.CustomerName + "%"})
	}

	return query
}

func (r *PostgresOrderRepository) queryOrders(ctx context.Context, query sq.SelectBuilder) ([]order.Order, error) {
	sql, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	rows, err := r.conn.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}
	defer rows.Close()

	var result []order.Order
	for rows.Next() {
		dal, err := scanOrderRow(rows)
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

func scanOrderRow(row pgx.Row) (*OrderDal, error) {
	var dal OrderDal
	err := row.Scan(
		&dal.ID,
		&dal.CustomerName,
		&dal.Status,
		&dal.Subtotal,
		&dal.Discount,
		&dal.Tax,
		&dal.Total,
		&dal.Notes,
		&dal.CreatedAt,
		&dal.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	return &dal, nil
}
