package iorderrepo

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/orderflow/orders/internal/service/models/order"
	"github.com/orderflow/orders/internal/service/models/status"
)

// IOrderRepository is an interface for the order postgres repository.
// Soft-deleted orders are invisible to every method except SoftDelete itself.
type IOrderRepository interface {
	Insert(ctx context.Context, o order.Order) error
	GetByID(ctx context.Context, id uuid.UUID) (*order.Order, error)
	GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*order.Order, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, next status.Status, updatedAt time.Time) error
	SoftDelete(ctx context.Context, id uuid.UUID, deletedAt time.Time) error
	Query(ctx context.Context, filter *order.QueryOrdersModel) ([]order.Order, error)
	Count(ctx context.Context, filter *order.QueryOrdersModel) (int64, error)
	QueryWithCursor(ctx context.Context, cursor *order.Cursor, limit int, filter *order.QueryOrdersModel) ([]order.Order, error)
}
