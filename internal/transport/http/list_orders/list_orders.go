package listorders

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

const defaultPerPage = 15

// service is an interface for the service layer.
type service interface {
	ListOrders(ctx context.Context, input ordersvc.ListOrdersInput) (*order.Page, error)
}

type queryOrdersRequest struct {
	Status       string `schema:"status,omitempty"`
	CustomerName string `schema:"customer_name,omitempty"`
	Page         int    `schema:"page,omitempty"`
	PerPage      int    `schema:"per_page,omitempty"`
}

func (q *queryOrdersRequest) toInput() ordersvc.ListOrdersInput {
	perPage := q.PerPage
	if perPage == 0 {
		perPage = defaultPerPage
	}

	return ordersvc.ListOrdersInput{
		Status:       q.Status,
		CustomerName: q.CustomerName,
		Page:         q.Page,
		PerPage:      perPage,
	}
}

type pageMeta struct {
	Page       int   `json:"page"`
	PerPage    int   `json:"per_page"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
}

type listOrdersResponse struct {
	Data []converters.OrderResponse `json:"data"`
	Meta pageMeta                   `json:"meta"`
}

// ListOrders handles the offset-paginated list orders request.
func ListOrders(w http.ResponseWriter, r *http.Request, service service) {
	decoder := schema.NewDecoder()
	decoder.IgnoreUnknownKeys(true)

	query := &queryOrdersRequest{}
	if err := decoder.Decode(query, r.URL.Query()); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		slog.Error("Error decoding request for list orders", "error", err)

		return
	}

	page, err := service.ListOrders(r.Context(), query.toInput())
	if err != nil {
		apierror.Write(w, err)
		slog.Error("Error getting orders", "error", err)

		return
	}

	w.Header().Set("Content-Type", "application/json")

	response := listOrdersResponse{
		Data: converters.OrdersToResponse(page.Orders),
		Meta: pageMeta{
			Page:       page.Page,
			PerPage:    page.PerPage,
			Total:      page.Total,
			TotalPages: page.TotalPages,
		},
	}
	if err := json.NewEncoder(w).Encode(response); err != nil {
		slog.Error("Error sending response for list orders", "error", err)
	}
}
