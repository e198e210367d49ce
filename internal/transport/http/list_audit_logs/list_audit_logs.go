package listauditlogs

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/orderflow/orders/internal/service/errs"
	"github.com/orderflow/orders/internal/service/models/auditlog"
	"github.com/orderflow/orders/internal/transport/http/apierror"
	"github.com/orderflow/orders/internal/transport/http/converters"
)

// service is an interface for the service layer.
type service interface {
	ListAuditLogs(ctx context.Context, orderID uuid.UUID) ([]auditlog.AuditLog, error)
}

type listAuditLogsResponse struct {
	Data []converters.AuditLogResponse `json:"data"`
}

// ListAuditLogs handles the audit trail request. The trail is readable even
// after the order has been soft-deleted.
func ListAuditLogs(w http.ResponseWriter, r *http.Request, service service) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		apierror.Write(w, &errs.NotFoundError{ID: chi.URLParam(r, "id")})

		return
	}

	entries, err := service.ListAuditLogs(r.Context(), id)
	if err != nil {
		apierror.Write(w, err)
		slog.Error("Error getting audit logs", "orderId", id, "error", err)

		return
	}

	data := make([]converters.AuditLogResponse, len(entries))
	for i, entry := range entries {
		data[i] = converters.AuditLogToResponse(entry)
	}

	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(listAuditLogsResponse{Data: data}); err != nil {
		slog.Error("Error sending response for audit logs", "error", err)
	}
}
