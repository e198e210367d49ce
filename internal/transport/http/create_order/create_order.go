package createorder

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/orderflow/orders/internal/service/models/auditlog"
	"github.com/orderflow/orders/internal/service/models/order"
	"github.com/orderflow/orders/internal/service/services/ordersvc"
	"github.com/orderflow/orders/internal/transport/http/apierror"
	"github.com/orderflow/orders/internal/transport/http/converters"
	"github.com/orderflow/orders/internal/transport/http/validation"
)

// service is an interface for the service layer.
type service interface {
	CreateOrder(ctx context.Context, input ordersvc.CreateOrderInput, origin auditlog.Origin) (*order.Order, error)
}

// itemInCreateOrderRequest represents an item in a create order request.
// Any total price supplied by the client is ignored; it is recomputed
// server-side.
type itemInCreateOrderRequest struct {
	ProductName string  `json:"product_name" validate:"required"`
	Quantity    int     `json:"quantity"     validate:"gte=1"`
	UnitPrice   float64 `json:"unit_price"   validate:"gt=0"`
}

// createOrderRequest represents a create order request.
type createOrderRequest struct {
	CustomerName string                     `json:"customer_name" validate:"required"`
	Items        []itemInCreateOrderRequest `json:"items"         validate:"required,min=1,dive"`
	Discount     *float64                   `json:"discount"      validate:"omitempty,gte=0"`
	Tax          *float64                   `json:"tax"           validate:"omitempty,gte=0"`
	Notes        json.RawMessage            `json:"notes"`
}

// Validate validates the create order request.
func (r *createOrderRequest) Validate() error {
	return validation.Struct(r)
}

func (r *createOrderRequest) toInput() ordersvc.CreateOrderInput {
	items := make([]ordersvc.CreateOrderItemInput, len(r.Items))
	for i, item := range r.Items {
		items[i] = ordersvc.CreateOrderItemInput{
			ProductName: item.ProductName,
			Quantity:    item.Quantity,
			UnitPrice:   decimal.NewFromFloat(item.UnitPrice),
		}
	}

	input := ordersvc.CreateOrderInput{
		CustomerName: r.CustomerName,
		Items:        items,
		Notes:        r.Notes,
	}

	if r.Discount != nil {
		d := decimal.NewFromFloat(*r.Discount)
		input.Discount = &d
	}
	if r.Tax != nil {
		t := decimal.NewFromFloat(*r.Tax)
		input.Tax = &t
	}

	return input
}

type createOrderResponse struct {
	Message string                   `json:"message"`
	Data    converters.OrderResponse `json:"data"`
}

// CreateOrder handles the create order request.
func CreateOrder(w http.ResponseWriter, r *http.Request, service service) {
	req := createOrderRequest{}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		slog.Error("Error decoding request body for create order", "error", err)

		return
	}

	if err := req.Validate(); err != nil {
		apierror.Write(w, apierror.FromValidator(err))
		slog.Error("Error validating request body for create order", "error", err)

		return
	}

	created, err := service.CreateOrder(r.Context(), req.toInput(), converters.OriginFromRequest(r))
	if err != nil {
		apierror.Write(w, err)
		slog.Error("Error creating order", "error", err)

		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)

	response := createOrderResponse{
		Message: "Order created successfully.",
		Data:    converters.OrderToResponse(*created),
	}
	if err := json.NewEncoder(w).Encode(response); err != nil {
		slog.Error("Error sending response for create order", "error", err)
	}
}
