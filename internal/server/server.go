package server

import (
	"log/slog"
	"net/http"

	"sales-dashboard/internal/handlers"
	"sales-dashboard/internal/middleware"
	"sales-dashboard/internal/observability"
	"sales-dashboard/internal/services"
)

type Server struct {
	dashboard    *services.Dashboard
	metrics      *observability.Metrics
	mux          *http.ServeMux
	logger       *slog.Logger
	apiHandlers  *handlers.APIHandlers
	sseHandlers  *handlers.SSEHandlers
	pageHandlers *handlers.PageHandlers
	maxUpload    int64
}

func NewServer(dashboard *services.Dashboard, metrics *observability.Metrics, logger *slog.Logger, maxUploadBytes int64) *Server {
	s := &Server{
		dashboard:    dashboard,
		metrics:      metrics,
		mux:          http.NewServeMux(),
		logger:       logger,
		apiHandlers:  handlers.NewAPIHandlers(dashboard, logger),
		sseHandlers:  handlers.NewSSEHandlers(dashboard, logger),
		pageHandlers: handlers.NewPageHandlers(dashboard, logger),
		maxUpload:    maxUploadBytes,
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	limit := middleware.MaxBytes(s.maxUpload)
	upload := func(h http.HandlerFunc) http.Handler { return limit(h) }

	// Pages
	s.mux.HandleFunc("GET /", s.pageHandlers.HandleHome)
	s.mux.HandleFunc("GET /datasets/{id}", s.pageHandlers.HandleDataset)
	s.mux.Handle("POST /upload", upload(s.pageHandlers.HandleUpload))

	// Ops
	s.mux.HandleFunc("GET /health", s.apiHandlers.HandleHealth)
	s.mux.HandleFunc("GET /admin/stats", s.apiHandlers.HandleStats)
	s.mux.Handle("GET /metrics", s.metrics.Handler())

	// REST API endpoints
	s.mux.Handle("POST /api/datasets", upload(s.apiHandlers.HandleUploadDataset))
	s.mux.Handle("POST /api/csv-list", upload(s.apiHandlers.HandleCSVList))
	s.mux.Handle("POST /api/dashboard", upload(s.apiHandlers.HandleAggregate))
	s.mux.HandleFunc("GET /api/datasets", s.apiHandlers.HandleListDatasets)
	s.mux.HandleFunc("GET /api/datasets/{id}", s.apiHandlers.HandleGetDataset)
	s.mux.HandleFunc("DELETE /api/datasets/{id}", s.apiHandlers.HandleDeleteDataset)
	s.mux.HandleFunc("GET /api/datasets/{id}/dashboard", s.apiHandlers.HandleDashboard)
	s.mux.HandleFunc("GET /api/datasets/{id}/country-revenue", s.apiHandlers.HandleCountryRevenue)
	s.mux.HandleFunc("GET /api/datasets/{id}/time-series", s.apiHandlers.HandleTimeSeries)
	s.mux.HandleFunc("GET /api/datasets/{id}/top-products", s.apiHandlers.HandleTopProducts)
	s.mux.HandleFunc("GET /api/datasets/{id}/top-customers", s.apiHandlers.HandleTopCustomers)
	s.mux.HandleFunc("GET /api/datasets/{id}/summary", s.apiHandlers.HandleSummary)

	// Datastar SSE endpoints
	s.mux.HandleFunc("GET /sse/datasets/{id}/refresh-all", s.sseHandlers.HandleRefreshAll)
	s.mux.HandleFunc("GET /sse/datasets/{id}/time-series", s.sseHandlers.HandleTimeSeries)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}
