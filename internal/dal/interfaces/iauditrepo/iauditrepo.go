package iauditrepo

import (
	"context"

	"github.com/google/uuid"

	"github.com/orderflow/orders/internal/service/models/auditlog"
)

// IAuditRepository is an interface for the append-only audit log repository.
// There are no update or delete operations on purpose.
type IAuditRepository interface {
	Insert(ctx context.Context, entry auditlog.AuditLog) (auditlog.AuditLog, error)
	QueryByOrderID(ctx context.Context, orderID uuid.UUID) ([]auditlog.AuditLog, error)
}
