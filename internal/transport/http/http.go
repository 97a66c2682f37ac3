package httptransport

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	deltasync "github.com/corebill/pos-sync-svc/internal/transport/http/delta_sync"
	listlogs "github.com/corebill/pos-sync-svc/internal/transport/http/list_logs"
	"github.com/corebill/pos-sync-svc/internal/transport/http/middleware/tenantauth"
	pushsync "github.com/corebill/pos-sync-svc/internal/transport/http/push_sync"

	"github.com/corebill/pos-sync-svc/internal/service/models/change"
	"github.com/corebill/pos-sync-svc/internal/service/models/syncitem"
	"github.com/corebill/pos-sync-svc/internal/service/models/synclog"
	"github.com/corebill/pos-sync-svc/pkg/http/middleware/trace"
	"github.com/corebill/pos-sync-svc/pkg/logger"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/spf13/viper"
)

type service interface {
	Push(ctx context.Context, deviceID string, items []syncitem.Mutation) (*syncitem.PushResult, error)
	Pull(ctx context.Context, deviceID string, since time.Time) (*change.DeltaResult, error)
	QueryLogs(ctx context.Context, deviceID string, limit int) ([]synclog.Record, error)
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

// Shutdown gracefully shuts down the HTTP server.
func (h *HTTPTransport) Shutdown(ctx context.Context) error {
	return h.server.Shutdown(ctx)
}

// RegisterRoutes registers the routes for the HTTPTransport.
func (h *HTTPTransport) RegisterRoutes() {
	h.router.Route("/api/sync", func(r chi.Router) {
		r.Use(tenantauth.Middleware)
		r.Post("/", h.performSync)
		r.Get("/delta", h.deltaSync)
		r.Get("/logs", h.listLogs)
	})
}

func (h *HTTPTransport) performSync(w http.ResponseWriter, r *http.Request) {
	pushsync.PerformSync(w, r, h.service)
}

func (h *HTTPTransport) deltaSync(w http.ResponseWriter, r *http.Request) {
	deltasync.DeltaSync(w, r, h.service)
}

func (h *HTTPTransport) listLogs(w http.ResponseWriter, r *http.Request) {
	listlogs.ListLogs(w, r, h.service)
}

func newRouter() *chi.Mux {
	router := chi.NewMux()
	router.Use(middleware.RequestID)
	router.Use(logger.NewLoggerMiddleware(slog.Default()))
	router.Use(trace.NewTraceMiddleware)

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
