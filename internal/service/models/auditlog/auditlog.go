package auditlog

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/orderflow/orders/internal/service/models/order"
)

// Action tags recorded in the audit trail.
const (
	ActionCreated       = "created"
	ActionStatusChanged = "status_changed"
	ActionDeleted       = "deleted"
)

// AuditLog represents an append-only audit record for an order lifecycle
// event. Records are never updated or deleted, and the order reference is
// weak: it survives soft-deletion of the order.
type AuditLog struct {
	ID        int64           `json:"id"`
	OrderID   uuid.UUID       `json:"orderId"`
	Action    string          `json:"action"`
	OldValue  *string         `json:"oldValue,omitempty"`
	NewValue  *string         `json:"newValue,omitempty"`
	Changes   json.RawMessage `json:"changes,omitempty"`
	IPAddress string          `json:"ipAddress,omitempty"`
	UserAgent string          `json:"userAgent,omitempty"`
	CreatedAt time.Time       `json:"createdAt"`
}

// Origin describes where a mutating request came from.
type Origin struct {
	IP        string
	UserAgent string
}

// NewCreation builds the audit record written when an order is created. The
// changes field carries a full snapshot of the order including its items.
func NewCreation(o *order.Order, origin Origin, now time.Time) AuditLog {
	snapshot, _ := json.Marshal(o)
	newValue := o.Status.String()

	return AuditLog{
		OrderID:   o.ID,
		Action:    ActionCreated,
		NewValue:  &newValue,
		Changes:   snapshot,
		IPAddress: origin.IP,
		UserAgent: origin.UserAgent,
		CreatedAt: now,
	}
}

// NewStatusChange builds the audit record written when an order status
// transition is applied.
func NewStatusChange(o *order.Order, oldStatus, newStatus string, origin Origin, now time.Time) AuditLog {
	return AuditLog{
		OrderID:   o.ID,
		Action:    ActionStatusChanged,
		OldValue:  &oldStatus,
		NewValue:  &newStatus,
		IPAddress: origin.IP,
		UserAgent: origin.UserAgent,
		CreatedAt: now,
	}
}

// NewDeletion builds the audit record written before an order is
// soft-deleted. The old value captures the pre-deletion status.
func NewDeletion(o *order.Order, origin Origin, now time.Time) AuditLog {
	oldValue := o.Status.String()

	return AuditLog{
		OrderID:   o.ID,
		Action:    ActionDeleted,
		OldValue:  &oldValue,
		IPAddress: origin.IP,
		UserAgent: origin.UserAgent,
		CreatedAt: now,
	}
}
