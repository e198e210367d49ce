package listorderscursor

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/gorilla/schema"

	"github.com/orderflow/orders/internal/service/models/order"
	"github.com/orderflow/orders/internal/service/services/ordersvc"
	"github.com/orderflow/orders/internal/transport/http/apierror"
	"github.com/orderflow/orders/internal/transport/http/converters"
)

const defaultLimit = 15

// service is an interface for the service layer.
type service interface {
	ListOrdersWithCursor(ctx context.Context, input ordersvc.ListOrdersWithCursorInput) (*order.CursorPage, error)
}

type queryOrdersCursorRequest struct {
	Status       string `schema:"status,omitempty"`
	CustomerName string `schema:"customer_name,omitempty"`
	Cursor       string `schema:"cursor,omitempty"`
	Limit        int    `schema:"limit,omitempty"`
}

func (q *queryOrdersCursorRequest) toInput() ordersvc.ListOrdersWithCursorInput {
	limit := q.Limit
	if limit == 0 {
		limit = defaultLimit
	}

	return ordersvc.ListOrdersWithCursorInput{
		Status:       q.Status,
		CustomerName: q.CustomerName,
		Cursor:       q.Cursor,
		Limit:        limit,
	}
}

type listOrdersCursorResponse struct {
	Data       []converters.OrderResponse `json:"data"`
	NextCursor *string                    `json:"next_cursor"`
	HasMore    bool                       `json:"has_more"`
}

// ListOrdersWithCursor handles the keyset-paginated list orders request.
func ListOrdersWithCursor(w http.ResponseWriter, r *http.Request, service service) {
	decoder := schema.NewDecoder()
	decoder.IgnoreUnknownKeys(true)

	query := &queryOrdersCursorRequest{}
	if err := decoder.Decode(query, r.URL.Query()); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		slog.Error("Error decoding request for cursor list orders", "error", err)

		return
	}

	page, err := service.ListOrdersWithCursor(r.Context(), query.toInput())
	if err != nil {
		apierror.Write(w, err)
		slog.Error("Error getting orders with cursor", "error", err)

		return
	}

	w.Header().Set("Content-Type", "application/json")

	response := listOrdersCursorResponse{
		Data:       converters.OrdersToResponse(page.Orders),
		NextCursor: page.NextCursor,
		HasMore:    page.HasMore,
	}
	if err := json.NewEncoder(w).Encode(response); err != nil {
		slog.Error("Error sending response for cursor list orders", "error", err)
	}
}
