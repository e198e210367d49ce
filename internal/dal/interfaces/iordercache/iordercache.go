package iordercache

import (
	"context"

	"github.com/google/uuid"

	"github.com/orderflow/orders/internal/service/models/order"
)

// IOrderCache is a bounded-TTL cache for single-order lookups. Implementations
// must degrade to a miss on infrastructure errors, never fail a read.
type IOrderCache interface {
	GetOrder(ctx context.Context, id uuid.UUID) (*order.Order, bool)
	SetOrder(ctx context.Context, o *order.Order)
	InvalidateOrder(ctx context.Context, id uuid.UUID)
}
