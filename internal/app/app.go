package app

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/corebill/pos-sync-svc/internal/dal/postgres"
	"github.com/corebill/pos-sync-svc/internal/dal/rabbitmq"
	"github.com/corebill/pos-sync-svc/internal/dal/repositories/audit"
	menuitemrepo "github.com/corebill/pos-sync-svc/internal/dal/repositories/menuitem/postgres"
	orderrepo "github.com/corebill/pos-sync-svc/internal/dal/repositories/order/postgres"
	synclogrepo "github.com/corebill/pos-sync-svc/internal/dal/repositories/synclog/postgres"
	"github.com/corebill/pos-sync-svc/internal/jaeger"
	"github.com/corebill/pos-sync-svc/internal/service/services/syncsvc"
	httptransport "github.com/corebill/pos-sync-svc/internal/transport/http"
	"github.com/corebill/pos-sync-svc/internal/worker/relay"
	"github.com/spf13/viper"
)

// App represents the application.
type App struct {
	syncSvc        *syncsvc.SyncService
	transport      *httptransport.HTTPTransport
	postgresClient *postgres.Client
	rabbitClient   *rabbitmq.Client
	relayWorker    *relay.Worker
	tracing        *jaeger.Controller
}

// MustNewApp creates a new application.
func MustNewApp() *App {
	tracing := jaeger.MustInitTracing()

	postgresClient := postgres.MustNewClient()
	pool := postgresClient.Pool()

	syncLogRepo := synclogrepo.NewPostgresSyncLogRepository(pool)

	syncSvc := syncsvc.MustNewSyncService(
		syncsvc.WithOrderRepository(orderrepo.NewPostgresOrderRepository(pool)),
		syncsvc.WithMenuItemRepository(menuitemrepo.NewPostgresMenuItemRepository(pool)),
		syncsvc.WithSyncLogRepository(syncLogRepo),
		syncsvc.WithPullPageSize(viper.GetInt("sync.pull.page_size")),
	)

	rabbitClient := rabbitmq.MustNewClient()
	auditRepo := audit.NewAuditRabbitMQRepository(rabbitClient)
	relayWorker := relay.NewWorker(syncLogRepo, auditRepo)

	transport := httptransport.NewHTTPTransport(syncSvc)
	transport.RegisterRoutes()

	return &App{
		syncSvc:        syncSvc,
		transport:      transport,
		postgresClient: postgresClient,
		rabbitClient:   rabbitClient,
		relayWorker:    relayWorker,
		tracing:        tracing,
	}
}

// Run starts the application.
// Tracks interrupt signal to gracefully shut down the application.
func (a *App) Run() {
	// Create a channel to receive OS signals
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	workerCtx, cancelWorker := context.WithCancel(context.Background())
	go a.relayWorker.Start(workerCtx)

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

	cancelWorker()

	if err := a.rabbitClient.Close(); err != nil {
		slog.Error("RabbitMQ connection close error", "error", err)
	} else {
		slog.Info("RabbitMQ connection closed gracefully")
	}

	a.postgresClient.Close()
	slog.Info("Database connection closed gracefully")

	if err := a.tracing.Shutdown(); err != nil {
		slog.Error("Tracer provider shutdown error", "error", err)
	}

	slog.Info("Application shutdown complete")
}
