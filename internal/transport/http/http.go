package httptransport

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"github.com/spf13/viper"

	"github.com/orderflow/orders/internal/service/models/auditlog"
	"github.com/orderflow/orders/internal/service/models/order"
	"github.com/orderflow/orders/internal/service/services/ordersvc"
	createorder "github.com/orderflow/orders/internal/transport/http/create_order"
	deleteorder "github.com/orderflow/orders/internal/transport/http/delete_order"
	getorder "github.com/orderflow/orders/internal/transport/http/get_order"
	listauditlogs "github.com/orderflow/orders/internal/transport/http/list_audit_logs"
	listorders "github.com/orderflow/orders/internal/transport/http/list_orders"
	listorderscursor "github.com/orderflow/orders/internal/transport/http/list_orders_cursor"
	updatestatus "github.com/orderflow/orders/internal/transport/http/update_status"
	"github.com/orderflow/orders/pkg/http/middleware/trace"
	"github.com/orderflow/orders/pkg/logger"
)

type service interface {
	CreateOrder(ctx context.Context, input ordersvc.CreateOrderInput, origin auditlog.Origin) (*order.Order, error)
	UpdateStatus(ctx context.Context, orderID uuid.UUID, newStatus string, origin auditlog.Origin) (*order.Order, error)
	DeleteOrder(ctx context.Context, orderID uuid.UUID, origin auditlog.Origin) (bool, error)
	GetOrder(ctx context.Context, orderID uuid.UUID) (*order.Order, error)
	ListOrders(ctx context.Context, input ordersvc.ListOrdersInput) (*order.Page, error)
	ListOrdersWithCursor(ctx context.Context, input ordersvc.ListOrdersWithCursorInput) (*order.CursorPage, error)
	ListAuditLogs(ctx context.Context, orderID uuid.UUID) ([]auditlog.AuditLog, error)
}

type HTTPTransport struct {
	server  *http.Server
	router  *chi.Mux
	service service
}

func NewHTTPTransport(service service) *HTTPTransport {
	router := newRouter()
	server := newServer(router)

	return &HTTPTransport{
		server:  server,
		router:  router,
		service: service,
	}
}

func (h *HTTPTransport) Run() error {
	return h.server.ListenAndServe()
}

// Shutdown gracefully stops the HTTP server.
func (h *HTTPTransport) Shutdown(ctx context.Context) error {
	return h.server.Shutdown(ctx)
}

// RegisterRoutes registers the routes for the HTTPTransport.
func (h *HTTPTransport) RegisterRoutes() {
	h.router.Route("/api", func(r chi.Router) {
		r.Get("/health", h.health)

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", h.listOrders)
			r.Post("/", h.createOrder)
			r.Get("/cursor", h.listOrdersWithCursor)
			r.Get("/{id}", h.getOrder)
			r.Put("/{id}/status", h.updateStatus)
			r.Delete("/{id}", h.deleteOrder)
			r.Get("/{id}/audit", h.listAuditLogs)
		})
	})
}

func (h *HTTPTransport) createOrder(w http.ResponseWriter, r *http.Request) {
	createorder.CreateOrder(w, r, h.service)
}

func (h *HTTPTransport) getOrder(w http.ResponseWriter, r *http.Request) {
	getorder.GetOrder(w, r, h.service)
}

func (h *HTTPTransport) listOrders(w http.ResponseWriter, r *http.Request) {
	listorders.ListOrders(w, r, h.service)
}

func (h *HTTPTransport) listOrdersWithCursor(w http.ResponseWriter, r *http.Request) {
	listorderscursor.ListOrdersWithCursor(w, r, h.service)
}

func (h *HTTPTransport) updateStatus(w http.ResponseWriter, r *http.Request) {
	updatestatus.UpdateStatus(w, r, h.service)
}

func (h *HTTPTransport) deleteOrder(w http.ResponseWriter, r *http.Request) {
	deleteorder.DeleteOrder(w, r, h.service)
}

func (h *HTTPTransport) listAuditLogs(w http.ResponseWriter, r *http.Request) {
	listauditlogs.ListAuditLogs(w, r, h.service)
}

func (h *HTTPTransport) health(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	body := map[string]string{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("Error sending health response", "error", err)
	}
}

func newRouter() *chi.Mux {
	router := chi.NewMux()
	router.Use(middleware.RequestID)
	router.Use(logger.NewLoggerMiddleware(slog.Default()))

	if viper.GetBool("tracing.enabled") {
		router.Use(trace.NewTraceMiddleware)
	}

	allowedOrigins := viper.GetStringSlice("server.http.cors.allowed_origins")
	allowedMethods := viper.GetStringSlice("server.http.cors.allowed_methods")
	allowedHeaders := viper.GetStringSlice("server.http.cors.allowed_headers")
	exposedHeaders := viper.GetStringSlice("server.http.cors.exposed_headers")
	allowCredentials := viper.GetBool("server.http.cors.allow_credentials")
	maxAge := viper.GetInt("server.http.cors.max_age")

	c := cors.New(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   allowedMethods,
		AllowedHeaders:   allowedHeaders,
		ExposedHeaders:   exposedHeaders,
		AllowCredentials: allowCredentials,
		MaxAge:           maxAge,
	})

	router.Use(c.Handler)

	return router
}

func newServer(router http.Handler) *http.Server {
	return &http.Server{
		Addr:    "0.0.0.0:" + viper.GetString("server.http.port"),
		Handler: router,
	}
}
