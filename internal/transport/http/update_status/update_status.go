package updatestatus

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/orderflow/orders/internal/service/errs"
	"github.com/orderflow/orders/internal/service/models/auditlog"
	"github.com/orderflow/orders/internal/service/models/order"
	"github.com/orderflow/orders/internal/transport/http/apierror"
	"github.com/orderflow/orders/internal/transport/http/converters"
	"github.com/orderflow/orders/internal/transport/http/validation"
)

// service is an interface for the service layer.
type service interface {
	UpdateStatus(ctx context.Context, orderID uuid.UUID, newStatus string, origin auditlog.Origin) (*order.Order, error)
}

// updateStatusRequest represents a status update request.
type updateStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// Validate validates the status update request.
func (r *updateStatusRequest) Validate() error {
	return validation.Struct(r)
}

type updateStatusResponse struct {
	Message string                   `json:"message"`
	Data    converters.OrderResponse `json:"data"`
}

// UpdateStatus handles the status update request.
func UpdateStatus(w http.ResponseWriter, r *http.Request, service service) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		apierror.Write(w, &errs.NotFoundError{ID: chi.URLParam(r, "id")})

		return
	}

	req := updateStatusRequest{}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		slog.Error("Error decoding request body for status update", "error", err)

		return
	}

	if err := req.Validate(); err != nil {
		apierror.Write(w, apierror.FromValidator(err))
		slog.Error("Error validating request body for status update", "error", err)

		return
	}

	updated, err := service.UpdateStatus(r.Context(), id, req.Status, converters.OriginFromRequest(r))
	if err != nil {
		apierror.Write(w, err)
		slog.Error("Error updating order status", "orderId", id, "error", err)

		return
	}

	w.Header().Set("Content-Type", "application/json")

	response := updateStatusResponse{
		Message: "Status updated successfully.",
		Data:    converters.OrderToResponse(*updated),
	}
	if err := json.NewEncoder(w).Encode(response); err != nil {
		slog.Error("Error sending response for status update", "error", err)
	}
}
