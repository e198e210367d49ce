package postgresrepo

import (
	"context"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"

	"github.com/orderflow/orders/internal/service/models/orderitem"
)

var orderItemColumns = []string{
	"id",
	"order_id",
	"product_name",
	"quantity",
	"unit_price",
	"total_price",
	"created_at",
	"updated_at",
}

// OrderItemDal represents the order item data access layer model.
type OrderItemDal struct {
	ID          int64           `db:"id"`
	OrderID     uuid.UUID       `db:"order_id"`
	ProductName string          `db:"product_name"`
	Quantity    int             `db:"quantity"`
	UnitPrice   decimal.Decimal `db:"unit_price"`
	TotalPrice  decimal.Decimal `db:"total_price"`
	CreatedAt   time.Time       `db:"created_at"`
	UpdatedAt   time.Time       `db:"updated_at"`
}

// ToModel converts OrderItemDal to the service layer OrderItem model.
func (oi *OrderItemDal) ToModel() *orderitem.OrderItem {
	return &orderitem.OrderItem{
		ID:          oi.ID,
		OrderID:     oi.OrderID,
		ProductName: oi.ProductName,
		Quantity:    oi.Quantity,
		UnitPrice:   oi.UnitPrice,
		TotalPrice:  oi.TotalPrice,
		CreatedAt:   oi.CreatedAt,
		UpdatedAt:   oi.UpdatedAt,
	}
}

// GenericConn is an interface that works with both pgxpool.Pool and pgx.Tx.
type GenericConn interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
}

// PostgresOrderItemRepository represents a Postgres order item repository.
type PostgresOrderItemRepository struct {
	conn GenericConn
	sb   sq.StatementBuilderType
}

// NewPostgresOrderItemRepository creates a new Postgres order item repository.
func NewPostgresOrderItemRepository(conn GenericConn) *PostgresOrderItemRepository {
	return &PostgresOrderItemRepository{
		conn: conn,
		sb:   sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

// BulkInsert inserts multiple order items and returns them with generated ids.
func (r *PostgresOrderItemRepository) BulkInsert(
	ctx context.Context,
	orderItems []orderitem.OrderItem,
) ([]orderitem.OrderItem, error) {
	if len(orderItems) == 0 {
		return []orderitem.OrderItem{}, nil
	}

	query := r.sb.
		Insert("order_items").
		Columns(
			"order_id",
			"product_name",
			"quantity",
			"unit_price",
			"total_price",
			"created_at",
			"updated_at",
		)

	for _, oi := range orderItems {
		query = query.Values(
			oi.OrderID,
			oi.ProductName,
			oi.Quantity,
			oi.UnitPrice,
			oi.TotalPrice,
			oi.CreatedAt,
			oi.UpdatedAt,
		)
	}

	sql, args, err := query.
		Suffix("RETURNING " + strings.Join(orderItemColumns, ", ")).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build insert query: %w", err)
	}

	rows, err := r.conn.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to bulk insert order items: %w", err)
	}
	defer rows.Close()

	return collectOrderItems(rows)
}

// QueryByOrderIDs retrieves all items belonging to the given orders.
func (r *PostgresOrderItemRepository) QueryByOrderIDs(
	ctx context.Context,
	orderIDs []uuid.UUID,
) ([]orderitem.OrderItem, error) {
	if len(orderIDs) == 0 {
		return []orderitem.OrderItem{}, nil
	}

	sql, args, err := r.sb.
		Select(orderItemColumns...).
		From("order_items").
		Where(sq.Eq{"order_id": orderIDs}).
		OrderBy("id ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	rows, err := r.conn.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query order items: %w", err)
	}
	defer rows.Close()

	return collectOrderItems(rows)
}

func collectOrderItems(rows pgx.Rows) ([]orderitem.OrderItem, error) {
	var result []orderitem.OrderItem
	for rows.Next() {
		var dal OrderItemDal
		err := rows.Scan(
			&dal.ID,
			&dal.OrderID,
			&dal.ProductName,
			&dal.Quantity,
			&dal.UnitPrice,
			&dal.TotalPrice,
			&dal.CreatedAt,
			&dal.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order item: %w", err)
		}

		result = append(result, *dal.ToModel())
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return result, nil
}
