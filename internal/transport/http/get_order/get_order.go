package getorder

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/orderflow/orders/internal/service/errs"
	"github.com/orderflow/orders/internal/service/models/order"
	"github.com/orderflow/orders/internal/transport/http/apierror"
	"github.com/orderflow/orders/internal/transport/http/converters"
)

// service is an interface for the service layer.
type service interface {
	GetOrder(ctx context.Context, orderID uuid.UUID) (*order.Order, error)
}

type getOrderResponse struct {
	Data converters.OrderResponse `json:"data"`
}

// GetOrder handles the get order request.
func GetOrder(w http.ResponseWriter, r *http.Request, service service) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		// A non-UUID id can never match an order.
		apierror.Write(w, &errs.NotFoundError{ID: chi.URLParam(r, "id")})

		return
	}

	o, err := service.GetOrder(r.Context(), id)
	if err != nil {
		apierror.Write(w, err)
		slog.Error("Error getting order", "orderId", id, "error", err)

		return
	}

	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(getOrderResponse{Data: converters.OrderToResponse(*o)}); err != nil {
		slog.Error("Error sending response for get order", "error", err)
	}
}
