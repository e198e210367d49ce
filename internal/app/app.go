package app

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/viper"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/orderflow/orders/internal/dal/postgres"
	"github.com/orderflow/orders/internal/dal/rediscache"
	"github.com/orderflow/orders/internal/jaeger"
	"github.com/orderflow/orders/internal/service/services/ordersvc"
	httptransport "github.com/orderflow/orders/internal/transport/http"
)

// App represents the application.
type App struct {
	orderSvc       *ordersvc.OrderService
	transport      *httptransport.HTTPTransport
	postgresClient *postgres.Client
	cacheClient    *rediscache.Client
	tracerProvider *sdktrace.TracerProvider
}

// MustNewApp creates a new application.
func MustNewApp() *App {
	var tracerProvider *sdktrace.TracerProvider
	if viper.GetBool("tracing.enabled") {
		tracerProvider = sdktrace.NewTracerProvider(
			sdktrace.WithBatcher(jaeger.MustNewJaeger()),
		)
		otel.SetTracerProvider(tracerProvider)
	}

	postgresClient := postgres.MustNewClient()
	cacheClient := rediscache.MustNewClient()

	orderSvc := ordersvc.MustNewOrderService(
		ordersvc.WithPostgresClient(postgresClient),
		ordersvc.WithOrderCache(cacheClient),
	)

	transport := httptransport.NewHTTPTransport(orderSvc)
	transport.RegisterRoutes()

	return &App{
		orderSvc:       orderSvc,
		transport:      transport,
		postgresClient: postgresClient,
		cacheClient:    cacheClient,
		tracerProvider: tracerProvider,
	}
}

// Run starts the application.
// Tracks interrupt signal to gracefully shut down the application.
func (a *App) Run() {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		slog.Info("Starting HTTP server")
		if err := a.transport.Run(); err != nil {
			slog.Error("HTTP server error", "error", err)
		}
	}()

	<-stop
	slog.Info("Shutdown signal received")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := a.transport.Shutdown(ctx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	} else {
		slog.Info("HTTP server stopped gracefully")
	}

	if a.tracerProvider != nil {
		if err := a.tracerProvider.Shutdown(ctx); err != nil {
			slog.Error("Tracer provider shutdown error", "error", err)
		}
	}

	if err := a.cacheClient.Close(); err != nil {
		slog.Error("Redis connection close error", "error", err)
	} else {
		slog.Info("Redis connection closed gracefully")
	}

	a.postgresClient.Close()
	slog.Info("Database connection closed gracefully")

	slog.Info("Application shutdown complete")
}
