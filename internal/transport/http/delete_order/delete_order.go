package deleteorder

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
	DeleteOrder(ctx context.Context, orderID uuid.UUID, origin auditlog.Origin) (bool, error)
}

type deleteOrderResponse struct {
	Message string `json:"message"`
}

// DeleteOrder handles the delete order request. The delete is soft: the order
// disappears from reads while its audit trail stays queryable.
func DeleteOrder(w http.ResponseWriter, r *http.Request, service service) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		apierror.Write(w, &errs.NotFoundError{ID: chi.URLParam(r, "id")})

		return
	}

	if _, err := service.DeleteOrder(r.Context(), id, converters.OriginFromRequest(r)); err != nil {
		apierror.Write(w, err)
		slog.Error("Error deleting order", "orderId", id, "error", err)

		return
	}

	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(deleteOrderResponse{Message: "Order deleted successfully."}); err != nil {
		slog.Error("Error sending response for delete order", "error", err)
	}
}
