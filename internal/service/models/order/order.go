package order

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/orderflow/orders/internal/service/models/orderitem"
	"github.com/orderflow/orders/internal/service/models/status"
)

// Order represents an order in the system. Subtotal and Total are always
// derived from the items; they are never taken from a caller.
type Order struct {
	ID           uuid.UUID             `json:"id"`
	CustomerName string                `json:"customerName"`
	Status       status.Status         `json:"status"`
	Subtotal     decimal.Decimal       `json:"subtotal"`
	Discount     decimal.Decimal       `json:"discount"`
	Tax          decimal.Decimal       `json:"tax"`
	Total        decimal.Decimal       `json:"total"`
	Notes        json.RawMessage       `json:"notes,omitempty"`
	CreatedAt    time.Time             `json:"createdAt"`
	UpdatedAt    time.Time             `json:"updatedAt"`
	DeletedAt    *time.Time            `json:"deletedAt,omitempty"`
	Items        []orderitem.OrderItem `json:"items"`
}
