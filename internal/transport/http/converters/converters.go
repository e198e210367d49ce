package converters

import (
	"encoding/json"
	"net"
	"net/http"
	"time"

	"github.com/orderflow/orders/internal/service/models/auditlog"
	"github.com/orderflow/orders/internal/service/models/order"
	"github.com/orderflow/orders/internal/service/models/orderitem"
)

// OrderItemResponse is the API representation of an order item.
type OrderItemResponse struct {
	ID          int64   `json:"id"`
	ProductName string  `json:"product_name"`
	Quantity    int     `json:"quantity"`
	UnitPrice   float64 `json:"unit_price"`
	TotalPrice  float64 `json:"total_price"`
}

// OrderResponse is the API representation of an order.
type OrderResponse struct {
	ID                 string              `json:"id"`
	CustomerName       string              `json:"customer_name"`
	Status             string              `json:"status"`
	StatusLabel        string              `json:"status_label"`
	StatusColor        string              `json:"status_color"`
	Subtotal           float64             `json:"subtotal"`
	Discount           float64             `json:"discount"`
	Tax                float64             `json:"tax"`
	Total              float64             `json:"total"`
	Notes              json.RawMessage     `json:"notes,omitempty"`
	Items              []OrderItemResponse `json:"items"`
	AllowedTransitions []string            `json:"allowed_transitions"`
	CreatedAt          string              `json:"created_at"`
	UpdatedAt          string              `json:"updated_at"`
}

// AuditLogResponse is the API representation of an audit log entry.
type AuditLogResponse struct {
	ID        int64           `json:"id"`
	OrderID   string          `json:"order_id"`
	Action    string          `json:"action"`
	OldValue  *string         `json:"old_value,omitempty"`
	NewValue  *string         `json:"new_value,omitempty"`
	Changes   json.RawMessage `json:"changes,omitempty"`
	IPAddress string          `json:"ip_address,omitempty"`
	UserAgent string          `json:"user_agent,omitempty"`
	CreatedAt string          `json:"created_at"`
}

// OrderItemToResponse converts an internal OrderItem model to its API
// representation.
func OrderItemToResponse(item orderitem.OrderItem) OrderItemResponse {
	return OrderItemResponse{
		ID:          item.ID,
		ProductName: item.ProductName,
		Quantity:    item.Quantity,
		UnitPrice:   item.UnitPrice.InexactFloat64(),
		TotalPrice:  item.TotalPrice.InexactFloat64(),
	}
}

// OrderToResponse converts an internal Order model to its API representation.
func OrderToResponse(o order.Order) OrderResponse {
	items := make([]OrderItemResponse, len(o.Items))
	for i, item := range o.Items {
		items[i] = OrderItemToResponse(item)
	}

	allowed := o.Status.AllowedTransitions()
	transitions := make([]string, len(allowed))
	for i, s := range allowed {
		transitions[i] = s.String()
	}

	return OrderResponse{
		ID:                 o.ID.String(),
		CustomerName:       o.CustomerName,
		Status:             o.Status.String(),
		StatusLabel:        o.Status.Label(),
		StatusColor:        o.Status.Color(),
		Subtotal:           o.Subtotal.InexactFloat64(),
		Discount:           o.Discount.InexactFloat64(),
		Tax:                o.Tax.InexactFloat64(),
		Total:              o.Total.InexactFloat64(),
		Notes:              o.Notes,
		Items:              items,
		AllowedTransitions: transitions,
		CreatedAt:          o.CreatedAt.Format(time.RFC3339),
		UpdatedAt:          o.UpdatedAt.Format(time.RFC3339),
	}
}

// OrdersToResponse converts a slice of orders.
func OrdersToResponse(orders []order.Order) []OrderResponse {
	result := make([]OrderResponse, len(orders))
	for i, o := range orders {
		result[i] = OrderToResponse(o)
	}

	return result
}

// AuditLogToResponse converts an internal AuditLog model to its API
// representation.
func AuditLogToResponse(entry auditlog.AuditLog) AuditLogResponse {
	return AuditLogResponse{
		ID:        entry.ID,
		OrderID:   entry.OrderID.String(),
		Action:    entry.Action,
		OldValue:  entry.OldValue,
		NewValue:  entry.NewValue,
		Changes:   entry.Changes,
		IPAddress: entry.IPAddress,
		UserAgent: entry.UserAgent,
		CreatedAt: entry.CreatedAt.Format(time.RFC3339),
	}
}

// OriginFromRequest extracts the request origin recorded in audit logs.
func OriginFromRequest(r *http.Request) auditlog.Origin {
	ip := r.RemoteAddr
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		ip = host
	}

	return auditlog.Origin{
		IP:        ip,
		UserAgent: r.UserAgent(),
	}
}
